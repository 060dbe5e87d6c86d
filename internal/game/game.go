package game

import (
	"math"
	"time"

	"github.com/playmatatu/eightball/internal/logger"
	"golang.org/x/exp/rand"
)

// WinReason explains how a game finished.
type WinReason int

const (
	WinByScore       WinReason = 1
	WinBlackBallFoul WinReason = 2
	WinDisconnect    WinReason = 3
	WinUnknown       WinReason = 4
)

// ResultSink receives finished matches for rating and persistence.
// Submit must not block.
type ResultSink interface {
	Submit(res MatchResult)
}

// Seat is a player's place in one game. Score and color live here for the
// duration of the game.
type Seat struct {
	Player *Player
	Score  int
	Color  BallColor
}

// Game is a single match between two seats.
type Game struct {
	ID int64

	seats    [2]*Seat
	turn     *Seat
	nextTurn *Seat

	table     *Table
	engine    *PhysicsEngine
	balls     []*Ball
	cueBall   *Ball
	blackBall *Ball

	outcome RackOutcome
	active  bool
	ended   bool

	winner    *Seat
	winReason WinReason

	sink      ResultSink
	startedAt time.Time
}

// NewGame seats p1 and p2, racks the balls and gives p1 the break. A nil
// rng racks without shuffling or jitter.
func NewGame(id int64, p1, p2 *Player, rng *rand.Rand, sink ResultSink) *Game {
	table := NewStandardTable()
	balls := StandardRack(rng)
	g := &Game{
		ID:        id,
		seats:     [2]*Seat{{Player: p1}, {Player: p2}},
		table:     table,
		balls:     balls,
		cueBall:   balls[0],
		blackBall: balls[1],
		sink:      sink,
		startedAt: time.Now(),
	}
	g.turn, g.nextTurn = g.seats[0], g.seats[1]
	g.engine = NewPhysicsEngine(g.balls, table)
	p1.game = g
	p2.game = g
	return g
}

func (g *Game) Active() bool         { return g.active }
func (g *Game) Ended() bool          { return g.ended }
func (g *Game) WinReason() WinReason { return g.winReason }
func (g *Game) Outcome() RackOutcome { return g.outcome }
func (g *Game) Balls() []*Ball       { return g.balls }
func (g *Game) CueBall() *Ball       { return g.cueBall }
func (g *Game) BlackBall() *Ball     { return g.blackBall }
func (g *Game) Seats() [2]*Seat      { return g.seats }
func (g *Game) Turn() *Seat          { return g.turn }
func (g *Game) NextTurn() *Seat      { return g.nextTurn }

// Winner returns the winning player, or nil while undecided.
func (g *Game) Winner() *Player {
	if g.winner == nil {
		return nil
	}
	return g.winner.Player
}

// Shoot strikes the cue ball. It is ignored unless it is p's turn, the table
// is at rest and power is within MaxPower. Returns whether the shot was taken.
func (g *Game) Shoot(p *Player, power, angle float64) bool {
	if g.ended || g.active || g.turn.Player != p {
		return false
	}
	if !(power <= MaxPower) || math.IsNaN(angle) || math.IsInf(angle, 0) {
		return false
	}
	g.cueBall.Velocity.Set(power*math.Cos(angle), power*math.Sin(angle))
	g.active = true
	return true
}

// Update advances the simulation one tick. Returns true when the table has
// come to rest on this call, which is when the turn may have changed.
func (g *Game) Update() bool {
	if g.ended {
		return false
	}
	g.active = g.engine.Step(g.ballPotted)
	g.removePocketed()
	if g.active {
		return false
	}
	g.settle()
	return true
}

// settle resolves the rack that just finished.
func (g *Game) settle() {
	// a ball nudged into a pocket by relaxing still belongs to this rack
	g.engine.Relax(10)
	g.engine.checkPockets(g.ballPotted)
	g.removePocketed()

	if g.outcome.Has(OutcomeFoul) || !g.outcome.Has(OutcomeLegalPot) {
		g.turn, g.nextTurn = g.nextTurn, g.turn
	}
	if g.outcome.Has(OutcomeCueBallPotted) {
		g.respawnCueBall()
	}
	g.outcome = OutcomeNone

	if g.winner != nil {
		g.End(g.winner, g.winReason)
	}
}

func (g *Game) removePocketed() {
	kept := g.balls[:0]
	for _, b := range g.balls {
		if !b.Pocketed {
			kept = append(kept, b)
		}
	}
	for i := len(kept); i < len(g.balls); i++ {
		g.balls[i] = nil
	}
	g.balls = kept
	g.engine.Balls = kept
}

// respawnCueBall puts the cue ball back at the break spot, or the nearest
// clear spot around it.
func (g *Game) respawnCueBall() {
	cue := g.cueBall
	cue.OffTable = false
	cue.Velocity = Vec2{}
	cue.Acceleration = Vec2{}

	step := 2 * BallRadius
	for ring := 0; ring < 12; ring++ {
		points := 1
		if ring > 0 {
			points = 8 * ring
		}
		for k := 0; k < points; k++ {
			angle := 2 * math.Pi * float64(k) / float64(points)
			pos := CueSpawn.Plus(NewVec2(step*float64(ring), 0).Rotate(angle))
			if g.spotClear(pos) {
				cue.Position = pos
				return
			}
		}
	}
	cue.Position = CueSpawn
}

func (g *Game) spotClear(pos Vec2) bool {
	if pos.X < BallRadius || pos.X > TableWidth-BallRadius || pos.Y < BallRadius || pos.Y > TableHeight-BallRadius {
		return false
	}
	for _, b := range g.balls {
		if b == g.cueBall || !inPlay(b) {
			continue
		}
		if b.Position.DistanceTo(pos) < b.Radius+BallRadius {
			return false
		}
	}
	spot := &Ball{Position: pos, Radius: BallRadius}
	for _, p := range g.table.Pockets {
		if InPocket(spot, p) {
			return false
		}
	}
	return true
}

// End finishes the game once. The result is submitted for rating and
// recording unless both seats hold the same identity, and both players are
// released from the game regardless.
func (g *Game) End(winner *Seat, reason WinReason) {
	if g.ended {
		return
	}
	g.active = false
	g.ended = true
	g.winner = winner
	g.winReason = reason

	loser := g.opponent(winner)
	if winner.Player.ID == loser.Player.ID {
		logger.Log.Infof("[GAME] game#%d ended in self-play, not recorded", g.ID)
	} else if g.sink != nil {
		g.sink.Submit(g.result(winner, loser, reason))
	}
	logger.Log.Infof("[GAME] game#%d ended: winner=%s reason=%d score=%d-%d",
		g.ID, winner.Player.Username, reason, winner.Score, loser.Score)
	g.release()
}

// Forfeit ends the game in favour of p's opponent.
func (g *Game) Forfeit(p *Player) {
	seat := g.seatOf(p)
	if seat == nil {
		return
	}
	g.End(g.opponent(seat), WinDisconnect)
}

// abort ends a broken game with no winner and nothing submitted.
func (g *Game) abort() {
	if g.ended {
		return
	}
	g.active = false
	g.ended = true
	g.winner = nil
	g.winReason = WinUnknown
	g.release()
}

func (g *Game) release() {
	for _, s := range g.seats {
		if s.Player.game == g {
			s.Player.game = nil
		}
	}
}

func (g *Game) result(winner, loser *Seat, reason WinReason) MatchResult {
	return MatchResult{
		GameID:      g.ID,
		WinnerID:    winner.Player.ID,
		LoserID:     loser.Player.ID,
		WinnerName:  winner.Player.Username,
		LoserName:   loser.Player.Username,
		WinnerScore: winner.Score,
		LoserScore:  loser.Score,
		WinReason:   reason,
		Rated:       !winner.Player.IsGuest && !loser.Player.IsGuest,
		StartedAt:   g.startedAt,
		FinishedAt:  time.Now(),
	}
}

func (g *Game) opponent(s *Seat) *Seat {
	if g.seats[0] == s {
		return g.seats[1]
	}
	return g.seats[0]
}

// seatOf finds p's seat, preferring the first in self-play.
func (g *Game) seatOf(p *Player) *Seat {
	for _, s := range g.seats {
		if s.Player == p {
			return s
		}
	}
	return nil
}

func (g *Game) ballViews() []BallView {
	views := make([]BallView, 0, len(g.balls))
	for _, b := range g.balls {
		views = append(views, b.View())
	}
	return views
}

// StartData is the game-start payload from p's side of the table.
func (g *Game) StartData(p *Player) GameStart {
	me := g.seatOf(p)
	opp := g.opponent(me)
	return GameStart{
		Player:   SeatView{ID: me.Player.ID, Username: me.Player.Username, Score: me.Score, Color: me.Color},
		Opponent: SeatView{ID: opp.Player.ID, Username: opp.Player.Username, Score: opp.Score, Color: opp.Color},
		Active:   g.active,
		Turn:     g.turn.Player == p,
		Balls:    g.ballViews(),
	}
}

func (g *Game) UpdateData() GameUpdate {
	return GameUpdate{Active: g.active, Balls: g.ballViews()}
}

func (g *Game) TurnData(p *Player) TurnUpdate {
	me := g.seatOf(p)
	opp := g.opponent(me)
	return TurnUpdate{
		Player:   ScoreView{Score: me.Score, Color: me.Color},
		Opponent: ScoreView{Score: opp.Score, Color: opp.Color},
		Turn:     g.turn.Player == p,
	}
}

func (g *Game) EndData(p *Player) GameEnd {
	return GameEnd{
		Winner:    g.winner != nil && g.winner.Player == p,
		WinReason: g.winReason,
	}
}

// broadcast sends one message to both seats.
func (g *Game) broadcast(msg Message) {
	for _, s := range g.seats {
		s.Player.Send(msg)
	}
}
