package game

import "testing"

func TestQueueFIFO(t *testing.T) {
	q := NewQueue()
	a, _ := newTestPlayer("a", "a")
	b, _ := newTestPlayer("b", "b")
	c, _ := newTestPlayer("c", "c")
	q.Enqueue(a)
	q.Enqueue(b)
	q.Enqueue(c)

	if !a.InQueue || q.Len() != 3 {
		t.Fatal("enqueue did not flag player")
	}
	if got := q.Dequeue(); got != a || got.InQueue {
		t.Fatalf("Dequeue = %v", got)
	}
	if !q.Remove(c) || c.InQueue {
		t.Fatal("Remove failed")
	}
	if q.Remove(c) {
		t.Fatal("Remove of absent player reported true")
	}
	if got := q.Players(); len(got) != 1 || got[0] != b {
		t.Fatalf("Players = %v", got)
	}
	q.Dequeue()
	if q.Dequeue() != nil {
		t.Fatal("empty queue returned a player")
	}
}
