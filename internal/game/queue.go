package game

// Queue is the FIFO of players waiting for a random opponent. Callers check
// InGame and InQueue before enqueueing.
type Queue struct {
	players []*Player
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Enqueue(p *Player) {
	p.InQueue = true
	q.players = append(q.players, p)
}

// Dequeue removes and returns the longest-waiting player, or nil.
func (q *Queue) Dequeue() *Player {
	if len(q.players) == 0 {
		return nil
	}
	p := q.players[0]
	q.players[0] = nil
	q.players = q.players[1:]
	p.InQueue = false
	return p
}

// Remove takes p out of the queue wherever it is. Returns false if p was not
// queued.
func (q *Queue) Remove(p *Player) bool {
	for i, queued := range q.players {
		if queued == p {
			q.players = append(q.players[:i], q.players[i+1:]...)
			p.InQueue = false
			return true
		}
	}
	return false
}

func (q *Queue) Len() int {
	return len(q.players)
}

// Players returns a copy of the queue in order.
func (q *Queue) Players() []*Player {
	out := make([]*Player, len(q.players))
	copy(out, q.players)
	return out
}
