package game

import (
	"context"
	"time"

	"github.com/playmatatu/eightball/internal/logger"
	"golang.org/x/exp/rand"
)

// Presence is a point-in-time view of who is online and queued.
type Presence struct {
	Online []PlayerSummary `json:"playersOnline"`
	Queue  []PlayerSummary `json:"playersInQueue"`
	Games  int             `json:"gamesInProgress"`
	Rooms  int             `json:"rooms"`
}

// Server owns every player, the queue, the rooms and the running games.
// All of that state is touched only by the goroutine in Run; other
// goroutines reach it through the exported methods, which hand a command
// to that goroutine and wait for it to run.
type Server struct {
	players   map[string]*Player
	observers map[Conn]struct{}
	queue     *Queue
	rooms     *RoomRegistry
	games     []*Game
	lastID    int64

	results  ResultSink
	rng      *rand.Rand
	tickRate int

	commands chan func()
	stopped  chan struct{}
}

// NewServer creates a server. results may be nil.
func NewServer(tickRate int, results ResultSink, rng *rand.Rand) *Server {
	if tickRate <= 0 {
		tickRate = DefaultTickRate
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	return &Server{
		players:   make(map[string]*Player),
		observers: make(map[Conn]struct{}),
		queue:     NewQueue(),
		rooms:     NewRoomRegistry(),
		results:   results,
		rng:       rng,
		tickRate:  tickRate,
		commands:  make(chan func(), 256),
		stopped:   make(chan struct{}),
	}
}

// Run drives the fixed-rate tick and executes commands between ticks until
// ctx is cancelled.
func (s *Server) Run(ctx context.Context) {
	interval := time.Second / time.Duration(s.tickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer close(s.stopped)

	logger.Log.Infof("[GAME] Server loop started (%d ticks/s)", s.tickRate)
	for {
		select {
		case <-ctx.Done():
			logger.Log.Infof("[GAME] Server loop stopped with %d game(s) in progress", len(s.games))
			return
		case <-ticker.C:
			s.tick()
		case cmd := <-s.commands:
			cmd()
		}
	}
}

// exec runs fn on the loop goroutine and waits for it. Returns false if the
// loop has stopped.
func (s *Server) exec(fn func()) bool {
	done := make(chan struct{})
	select {
	case s.commands <- func() { fn(); close(done) }:
	case <-s.stopped:
		return false
	}
	select {
	case <-done:
		return true
	case <-s.stopped:
		return false
	}
}

// tick pairs queued players, advances every moving game and reaps the
// finished ones.
func (s *Server) tick() {
	paired := false
	for s.queue.Len() >= 2 {
		p1, p2 := s.queue.Dequeue(), s.queue.Dequeue()
		s.startGame(p1, p2)
		paired = true
	}
	if paired {
		s.broadcastQueue()
	}

	for _, g := range s.games {
		if g.Active() {
			s.updateGame(g)
		}
	}

	live := s.games[:0]
	for _, g := range s.games {
		if !g.Ended() {
			live = append(live, g)
			continue
		}
		for _, seat := range g.seats {
			seat.Player.Send(g.EndData(seat.Player))
		}
		logger.Log.Infof("[GAME] game#%d removed", g.ID)
	}
	for i := len(live); i < len(s.games); i++ {
		s.games[i] = nil
	}
	s.games = live
}

// updateGame advances one game. A panic aborts that game only.
func (s *Server) updateGame(g *Game) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Errorf("[GAME] game#%d aborted after panic: %v", g.ID, r)
			g.abort()
		}
	}()

	settled := g.Update()
	g.broadcast(g.UpdateData())
	if settled {
		for _, seat := range g.seats {
			seat.Player.Send(g.TurnData(seat.Player))
		}
	}
}

func (s *Server) startGame(p1, p2 *Player) *Game {
	s.lastID++
	g := NewGame(s.lastID, p1, p2, s.rng, s.results)
	s.games = append(s.games, g)
	logger.Log.Infof("[GAME] game#%d started: %s vs %s - %d game(s) in progress", g.ID, p1.Username, p2.Username, len(s.games))
	p1.Send(g.StartData(p1))
	p2.Send(g.StartData(p2))
	return g
}

func (s *Server) presence() Presence {
	online := make([]PlayerSummary, 0, len(s.players))
	for _, p := range s.players {
		online = append(online, p.Summary())
	}
	queued := s.queue.Players()
	inQueue := make([]PlayerSummary, 0, len(queued))
	for _, p := range queued {
		inQueue = append(inQueue, p.Summary())
	}
	return Presence{Online: online, Queue: inQueue, Games: len(s.games), Rooms: s.rooms.Len()}
}

// broadcastAll sends msg to every player and observer.
func (s *Server) broadcastAll(msg Message) {
	for _, p := range s.players {
		p.Send(msg)
	}
	for c := range s.observers {
		c.Send(msg)
	}
}

func (s *Server) broadcastOnline() {
	s.broadcastAll(OnlineUpdate{PlayersOnline: s.presence().Online})
}

func (s *Server) broadcastQueue() {
	s.broadcastAll(QueueUpdate{PlayersInQueue: s.presence().Queue})
}

func (s *Server) connect(id Identity, conn Conn) *Player {
	p, ok := s.players[id.ID]
	if ok {
		p.conn = conn
		if id.Rating != nil {
			p.Rating = id.Rating
		}
		logger.Log.Infof("[WS] %s#%s reconnected", p.Username, p.ID)
		if g := p.Game(); g != nil {
			p.Send(g.StartData(p))
		}
	} else {
		p = NewPlayer(id, conn)
		s.players[p.ID] = p
		logger.Log.Infof("[WS] %s#%s has connected - %d player(s) online", p.Username, p.ID, len(s.players))
	}
	s.broadcastOnline()
	return p
}

// disconnect tears down a player. A conn that has since been replaced by a
// reconnect is ignored.
func (s *Server) disconnect(playerID string, conn Conn) {
	p, ok := s.players[playerID]
	if !ok || p.conn != conn {
		return
	}
	if p.InQueue {
		s.queue.Remove(p)
	}
	if g := p.Game(); g != nil {
		g.Forfeit(p)
	}
	s.rooms.Leave(p)
	delete(s.players, playerID)
	p.conn = nil
	logger.Log.Infof("[WS] %s#%s has disconnected - %d player(s) online", p.Username, p.ID, len(s.players))

	s.broadcastQueue()
	s.broadcastOnline()
}

func (s *Server) queueJoin(p *Player) Ack {
	if p.InGame() {
		return FailAck(ErrGameInProgress)
	}
	if p.InRoom {
		s.rooms.Leave(p)
	}
	if !p.InQueue {
		s.queue.Enqueue(p)
		logger.Log.Infof("[QUEUE] %s#%s has joined the queue - %d player(s) in queue", p.Username, p.ID, s.queue.Len())
		s.broadcastQueue()
	}
	return Ack{Success: true, Message: "You have successfully joined the queue."}
}

func (s *Server) queueLeave(p *Player) {
	if !p.InQueue {
		return
	}
	s.queue.Remove(p)
	logger.Log.Infof("[QUEUE] %s#%s has left the queue - %d player(s) in queue", p.Username, p.ID, s.queue.Len())
	s.broadcastQueue()
}

func (s *Server) shoot(p *Player, power, angle float64) {
	g := p.Game()
	if g == nil {
		return
	}
	if !g.Shoot(p, power, angle) {
		logger.Log.Debugf("[GAME] game#%d ignored shot from %s (power=%.2f)", g.ID, p.Username, power)
	}
}

func (s *Server) roomCreate(p *Player) Ack {
	code := s.rooms.NewCode()
	logger.Log.Infof("[ROOM] %s#%s was given room code %s", p.Username, p.ID, code)
	return Ack{Success: true, RoomID: code}
}

func (s *Server) roomJoin(p *Player, code string) Ack {
	if p.InGame() {
		return FailAck(ErrInGame)
	}
	code = NormalizeRoomCode(code)
	if code == "" {
		return Ack{Success: false, Message: "Room code required"}
	}
	if err := s.rooms.CheckJoin(code, p); err != nil {
		return FailAck(err)
	}
	if p.InRoom && p.RoomID != code {
		s.rooms.Leave(p)
	}

	room, joined, err := s.rooms.Join(code, p)
	if err != nil {
		return FailAck(err)
	}
	if !joined {
		return Ack{Success: true, PlayersInRoom: len(room.Players)}
	}
	if p.InQueue {
		s.queue.Remove(p)
		s.broadcastQueue()
	}
	logger.Log.Infof("[ROOM] %s#%s joined room %s (%d/2)", p.Username, p.ID, code, len(room.Players))

	ack := Ack{Success: true, PlayersInRoom: len(room.Players)}
	if room.Ready() {
		room.Game = s.startGame(room.Players[0], room.Players[1])
		logger.Log.Infof("[ROOM] game#%d has started from room %s", room.Game.ID, code)
	}
	return ack
}

func (s *Server) rematchRequest(p *Player) Ack {
	room, start, err := s.rooms.RequestRematch(p)
	if err != nil {
		if err == ErrRoomNotReady {
			return Ack{Success: false, Message: "Room not ready for rematch"}
		}
		return FailAck(err)
	}
	if opp := room.Opponent(p); opp != nil {
		opp.Send(RematchRequested{From: p.Username})
	}
	if start {
		s.startRematch(room)
		return Ack{Success: true, Message: "Rematch started!"}
	}
	return Ack{Success: true, Message: "Rematch requested, waiting for opponent"}
}

func (s *Server) rematchResponse(p *Player, accept bool) Ack {
	if !accept {
		opp, err := s.rooms.DeclineRematch(p)
		if err != nil {
			return FailAck(err)
		}
		if opp != nil {
			opp.Send(RematchDeclined{From: p.Username})
		}
		return Ack{Success: true, Message: "Rematch declined"}
	}

	room, start, err := s.rooms.RequestRematch(p)
	if err != nil {
		return FailAck(err)
	}
	if start {
		s.startRematch(room)
		return Ack{Success: true, Message: "Rematch started!"}
	}
	if opp := room.Opponent(p); opp != nil {
		opp.Send(RematchAccepted{From: p.Username})
	}
	return Ack{Success: true, Message: "Waiting for opponent to request rematch"}
}

func (s *Server) startRematch(room *Room) {
	room.Game = s.startGame(room.Players[0], room.Players[1])
	logger.Log.Infof("[ROOM] rematch game#%d has started from room %s", room.Game.ID, room.ID)
}

func (s *Server) applyRatings(winnerID string, winnerRating int, loserID string, loserRating int) {
	changed := false
	for id, rating := range map[string]int{winnerID: winnerRating, loserID: loserRating} {
		if p, ok := s.players[id]; ok {
			r := rating
			p.Rating = &r
			changed = true
		}
	}
	if changed {
		s.broadcastOnline()
	}
}

// Connect attaches conn to the player with the given identity, creating the
// player on first connect.
func (s *Server) Connect(id Identity, conn Conn) {
	s.exec(func() { s.connect(id, conn) })
}

// Disconnect handles the loss of conn for playerID.
func (s *Server) Disconnect(playerID string, conn Conn) {
	s.exec(func() { s.disconnect(playerID, conn) })
}

// AddObserver registers an unauthenticated connection for presence updates.
func (s *Server) AddObserver(conn Conn) {
	s.exec(func() { s.observers[conn] = struct{}{} })
}

func (s *Server) RemoveObserver(conn Conn) {
	s.exec(func() { delete(s.observers, conn) })
}

// withPlayer runs fn for a connected player and returns its ack.
func (s *Server) withPlayer(playerID string, fn func(p *Player) Ack) Ack {
	ack := Ack{Success: false, Message: "Not connected"}
	ok := s.exec(func() {
		if p, found := s.players[playerID]; found {
			ack = fn(p)
		}
	})
	if !ok {
		return Ack{Success: false, Message: "Server shutting down"}
	}
	return ack
}

func (s *Server) QueueJoin(playerID string) Ack {
	return s.withPlayer(playerID, s.queueJoin)
}

func (s *Server) QueueLeave(playerID string) {
	s.withPlayer(playerID, func(p *Player) Ack { s.queueLeave(p); return Ack{Success: true} })
}

func (s *Server) Shoot(playerID string, power, angle float64) {
	s.withPlayer(playerID, func(p *Player) Ack { s.shoot(p, power, angle); return Ack{Success: true} })
}

func (s *Server) RoomCreate(playerID string) Ack {
	return s.withPlayer(playerID, s.roomCreate)
}

func (s *Server) RoomJoin(playerID, code string) Ack {
	return s.withPlayer(playerID, func(p *Player) Ack { return s.roomJoin(p, code) })
}

func (s *Server) RematchRequest(playerID string) Ack {
	return s.withPlayer(playerID, s.rematchRequest)
}

func (s *Server) RematchResponse(playerID string, accept bool) Ack {
	return s.withPlayer(playerID, func(p *Player) Ack { return s.rematchResponse(p, accept) })
}

// RequestOnlineUpdate re-broadcasts presence to everyone.
func (s *Server) RequestOnlineUpdate() {
	s.exec(func() {
		s.broadcastOnline()
		s.broadcastQueue()
	})
}

// ApplyRatings updates the ratings of online players after a rated game.
// It matches RatedFunc so the recorder can call it directly.
func (s *Server) ApplyRatings(winnerID string, winnerRating int, loserID string, loserRating int) {
	s.exec(func() { s.applyRatings(winnerID, winnerRating, loserID, loserRating) })
}

// Snapshot returns the current presence view.
func (s *Server) Snapshot() Presence {
	var p Presence
	s.exec(func() { p = s.presence() })
	return p
}
