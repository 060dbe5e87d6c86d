package game

import (
	"context"
	"testing"
	"time"

	"golang.org/x/exp/rand"
)

func newTestServer() (*Server, *fakeSink) {
	sink := &fakeSink{}
	return NewServer(60, sink, rand.New(rand.NewSource(1))), sink
}

func connectPlayer(s *Server, id, name string) (*Player, *recordingConn) {
	conn := &recordingConn{}
	return s.connect(Identity{ID: id, Username: name}, conn), conn
}

func TestTickPairsQueuedPlayers(t *testing.T) {
	s, _ := newTestServer()
	p1, c1 := connectPlayer(s, "1", "alice")
	p2, c2 := connectPlayer(s, "2", "bob")
	p3, _ := connectPlayer(s, "3", "carol")

	for _, p := range []*Player{p1, p2, p3} {
		if ack := s.queueJoin(p); !ack.Success {
			t.Fatalf("queueJoin failed: %+v", ack)
		}
	}
	s.tick()

	if len(s.games) != 1 || p1.Game() != p2.Game() || p1.Game() == nil {
		t.Fatal("first two players not paired")
	}
	if p3.InGame() || !p3.InQueue || s.queue.Len() != 1 {
		t.Fatal("third player should still wait")
	}
	if c1.last(EventGameStart) == nil || c2.last(EventGameStart) == nil {
		t.Fatal("game-start not sent to both players")
	}
	qu, ok := c1.last(EventQueueUpdate).(QueueUpdate)
	if !ok || len(qu.PlayersInQueue) != 1 || qu.PlayersInQueue[0].ID != "3" {
		t.Fatalf("queue update = %+v", qu)
	}

	if ack := s.queueJoin(p1); ack.Success || ack.Message != "Previous game is still in progress!" {
		t.Fatalf("queueJoin in game = %+v", ack)
	}
}

func TestQueueJoinIsIdempotent(t *testing.T) {
	s, _ := newTestServer()
	p, _ := connectPlayer(s, "1", "alice")
	s.queueJoin(p)
	s.queueJoin(p)
	if s.queue.Len() != 1 {
		t.Fatalf("queue length = %d", s.queue.Len())
	}
	s.queueLeave(p)
	if p.InQueue || s.queue.Len() != 0 {
		t.Fatal("queueLeave did not remove player")
	}
}

func TestDisconnectForfeitsGame(t *testing.T) {
	s, sink := newTestServer()
	p1, c1 := connectPlayer(s, "1", "alice")
	p2, c2 := connectPlayer(s, "2", "bob")
	g := s.startGame(p1, p2)

	s.disconnect("1", c1)
	if !g.Ended() || g.Winner() != p2 || g.WinReason() != WinDisconnect {
		t.Fatal("disconnect did not forfeit")
	}
	if sink.count() != 1 || sink.results[0].WinnerID != "2" {
		t.Fatalf("results = %+v", sink.results)
	}
	if _, ok := s.players["1"]; ok {
		t.Fatal("player not removed")
	}

	s.tick()
	end, ok := c2.last(EventGameEnd).(GameEnd)
	if !ok || !end.Winner || end.WinReason != WinDisconnect {
		t.Fatalf("game-end = %+v", end)
	}
	if len(s.games) != 0 {
		t.Fatal("ended game not reaped")
	}
	if p2.InGame() {
		t.Fatal("winner still attached")
	}
}

func TestStaleDisconnectIgnored(t *testing.T) {
	s, _ := newTestServer()
	_, oldConn := connectPlayer(s, "1", "alice")
	p, newConn := connectPlayer(s, "1", "alice")

	s.disconnect("1", oldConn)
	if s.players["1"] != p || p.conn != newConn {
		t.Fatal("stale disconnect removed the reconnected player")
	}
}

func TestReconnectResendsGameStart(t *testing.T) {
	s, _ := newTestServer()
	p1, _ := connectPlayer(s, "1", "alice")
	p2, _ := connectPlayer(s, "2", "bob")
	s.startGame(p1, p2)

	rating := 512
	conn := &recordingConn{}
	p := s.connect(Identity{ID: "1", Username: "alice", Rating: &rating}, conn)
	if p != p1 || *p1.Rating != 512 {
		t.Fatal("reconnect did not reuse player")
	}
	start, ok := conn.last(EventGameStart).(GameStart)
	if !ok || !start.Turn || start.Opponent.ID != "2" {
		t.Fatalf("game-start on reconnect = %+v", start)
	}
}

func TestPanickingGameIsAbortedAlone(t *testing.T) {
	s, sink := newTestServer()
	p1, c1 := connectPlayer(s, "1", "alice")
	p2, _ := connectPlayer(s, "2", "bob")
	p3, _ := connectPlayer(s, "3", "carol")
	p4, c4 := connectPlayer(s, "4", "dave")

	broken := s.startGame(p1, p2)
	healthy := s.startGame(p3, p4)
	broken.active = true
	broken.engine = nil
	healthy.Shoot(p3, 10, 0)
	c4.reset()

	s.tick()

	if !broken.Ended() || broken.WinReason() != WinUnknown || sink.count() != 0 {
		t.Fatal("broken game not aborted")
	}
	if healthy.Ended() || c4.last(EventGameUpdate) == nil {
		t.Fatal("healthy game disturbed")
	}
	end, ok := c1.last(EventGameEnd).(GameEnd)
	if !ok || end.Winner || end.WinReason != WinUnknown {
		t.Fatalf("game-end = %+v", end)
	}
	if len(s.games) != 1 || s.games[0] != healthy {
		t.Fatal("broken game not reaped")
	}
}

func TestSettlingSendsTurnUpdate(t *testing.T) {
	s, _ := newTestServer()
	p1, c1 := connectPlayer(s, "1", "alice")
	p2, c2 := connectPlayer(s, "2", "bob")
	g := s.startGame(p1, p2)
	g.Shoot(p1, 0, 0)

	s.tick()
	if g.Active() {
		t.Fatal("zero-power shot should settle in one tick")
	}
	t1, ok1 := c1.last(EventTurnUpdate).(TurnUpdate)
	t2, ok2 := c2.last(EventTurnUpdate).(TurnUpdate)
	if !ok1 || !ok2 || t1.Turn || !t2.Turn {
		t.Fatalf("turn updates = %+v / %+v", t1, t2)
	}
}

func TestRoomFlowAndRematch(t *testing.T) {
	s, _ := newTestServer()
	p1, c1 := connectPlayer(s, "1", "alice")
	p2, c2 := connectPlayer(s, "2", "bob")
	p3, _ := connectPlayer(s, "3", "carol")

	ack := s.roomCreate(p1)
	if !ack.Success || len(ack.RoomID) != roomCodeLength {
		t.Fatalf("roomCreate = %+v", ack)
	}
	code := ack.RoomID

	if ack := s.roomJoin(p1, "  "); ack.Success || ack.Message != "Room code required" {
		t.Fatalf("blank code = %+v", ack)
	}
	s.queueJoin(p1)
	if ack := s.roomJoin(p1, code); !ack.Success || ack.PlayersInRoom != 1 {
		t.Fatalf("first join = %+v", ack)
	}
	if p1.InQueue {
		t.Fatal("joining a room should leave the queue")
	}
	if ack := s.roomJoin(p2, " "+code+" "); !ack.Success || ack.PlayersInRoom != 2 {
		t.Fatalf("second join = %+v", ack)
	}
	room := s.rooms.Get(code)
	if room.Game == nil || p1.Game() != room.Game || len(s.games) != 1 {
		t.Fatal("game not started when the room filled")
	}
	if ack := s.roomJoin(p3, code); ack.Success || ack.Message != "Room is full" {
		t.Fatalf("third join = %+v", ack)
	}
	if ack := s.roomJoin(p1, "OTHER1"); ack.Success || ack.Message != "Cannot join room while in game" {
		t.Fatalf("join in game = %+v", ack)
	}
	if ack := s.rematchRequest(p1); ack.Success {
		t.Fatal("rematch accepted while game running")
	}

	room.Game.End(room.Game.Seats()[0], WinByScore)
	s.tick()

	if ack := s.rematchRequest(p1); !ack.Success || ack.Message != "Rematch requested, waiting for opponent" {
		t.Fatalf("rematch request = %+v", ack)
	}
	if req, ok := c2.last(EventRematchRequested).(RematchRequested); !ok || req.From != "alice" {
		t.Fatal("opponent not told about rematch")
	}
	if ack := s.rematchResponse(p2, false); ack.Message != "Rematch declined" {
		t.Fatalf("decline = %+v", ack)
	}
	if c1.last(EventRematchDeclined) == nil || p1.WantsRematch {
		t.Fatal("decline not delivered")
	}

	s.rematchRequest(p1)
	first := room.Game
	if ack := s.rematchResponse(p2, true); ack.Message != "Rematch started!" {
		t.Fatalf("accept = %+v", ack)
	}
	if room.Game == first || room.Game.Ended() || !p2.InGame() {
		t.Fatal("rematch game not started")
	}
}

func TestRoomCreateHandsOutCodeOnly(t *testing.T) {
	s, _ := newTestServer()
	p, _ := connectPlayer(s, "1", "alice")
	for i := 0; i < 10; i++ {
		if ack := s.roomCreate(p); !ack.Success || ack.RoomID == "" {
			t.Fatalf("roomCreate = %+v", ack)
		}
	}
	if s.rooms.Len() != 0 || p.InRoom {
		t.Fatalf("rooms = %d, in room = %v", s.rooms.Len(), p.InRoom)
	}
}

func TestJoinFullRoomKeepsCurrentRoom(t *testing.T) {
	s, _ := newTestServer()
	p1, _ := connectPlayer(s, "1", "alice")
	p2, _ := connectPlayer(s, "2", "bob")
	p3, _ := connectPlayer(s, "3", "carol")

	s.roomJoin(p1, "HOME01")
	s.roomJoin(p2, "FULL01")
	s.roomJoin(p3, "FULL01")
	s.rooms.Get("FULL01").Game.abort()

	if ack := s.roomJoin(p1, "FULL01"); ack.Success || ack.Message != "Room is full" {
		t.Fatalf("ack = %+v", ack)
	}
	if !p1.InRoom || p1.RoomID != "HOME01" || s.rooms.Get("HOME01") == nil {
		t.Fatal("player lost their room after a failed join")
	}
}

func TestRematchOutsideRoom(t *testing.T) {
	s, _ := newTestServer()
	p, _ := connectPlayer(s, "1", "alice")
	if ack := s.rematchRequest(p); ack.Success || ack.Message != "Not in a room" {
		t.Fatalf("ack = %+v", ack)
	}
}

func TestApplyRatingsBroadcastsPresence(t *testing.T) {
	s, _ := newTestServer()
	p1, c1 := connectPlayer(s, "1", "alice")
	observer := &recordingConn{}
	s.observers[observer] = struct{}{}

	s.applyRatings("1", 340, "99", 260)
	if p1.Rating == nil || *p1.Rating != 340 {
		t.Fatal("rating not applied")
	}
	if observer.last(EventOnlineUpdate) == nil || c1.last(EventOnlineUpdate) == nil {
		t.Fatal("presence not broadcast")
	}
}

func TestServerRunsCommands(t *testing.T) {
	s, _ := newTestServer()
	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)

	s.Connect(Identity{ID: "1", Username: "alice"}, &recordingConn{})
	s.Connect(Identity{ID: "2", Username: "bob"}, &recordingConn{})
	if ack := s.QueueJoin("1"); !ack.Success {
		t.Fatalf("QueueJoin = %+v", ack)
	}
	if ack := s.QueueJoin("nobody"); ack.Success || ack.Message != "Not connected" {
		t.Fatalf("QueueJoin unknown = %+v", ack)
	}
	s.QueueJoin("2")

	deadline := time.Now().Add(2 * time.Second)
	for s.Snapshot().Games != 1 {
		if time.Now().After(deadline) {
			t.Fatal("players never paired")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if p := s.Snapshot(); len(p.Online) != 2 || len(p.Queue) != 0 {
		t.Fatalf("presence = %+v", p)
	}

	cancel()
	<-s.stopped
	if ack := s.RoomCreate("1"); ack.Message != "Server shutting down" {
		t.Fatalf("after stop = %+v", ack)
	}
}
