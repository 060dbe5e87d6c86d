package game

// RackOutcome accumulates what happened during one rack. It is consumed
// once when the table settles.
type RackOutcome uint8

const (
	OutcomeFoul RackOutcome = 1 << iota
	OutcomeLegalPot
	OutcomeCueBallPotted
)

const OutcomeNone RackOutcome = 0

func (o RackOutcome) Has(flag RackOutcome) bool {
	return o&flag != 0
}

// ballPotted applies the rules for one ball entering a pocket and pushes the
// running score to both players.
func (g *Game) ballPotted(b *Ball, _ Pocket) {
	switch b.Color {
	case ColorRed, ColorYellow:
		g.handleColoredBall(b)
	case ColorWhite:
		g.handleCueBall(b)
	case ColorBlack:
		g.handleBlackBall(b)
	}
	g.sendScoreUpdate()
}

func (g *Game) handleColoredBall(b *Ball) {
	if g.turn.Color == ColorNone {
		g.turn.Color = b.Color
		g.nextTurn.Color = b.Color.Complement()
	}

	if g.turn.Color == b.Color {
		g.turn.Score++
		g.outcome |= OutcomeLegalPot
	} else {
		g.nextTurn.Score++
		g.outcome |= OutcomeFoul
	}
	b.Pocketed = true
}

func (g *Game) handleCueBall(b *Ball) {
	g.outcome |= OutcomeFoul | OutcomeCueBallPotted
	b.OffTable = true
	b.Position = CueBallHold
	b.Velocity = Vec2{}
	b.Acceleration = Vec2{}
}

// handleBlackBall decides the game. A shooter who has cleared their color
// wins; anyone else loses, whoever they were playing against.
func (g *Game) handleBlackBall(b *Ball) {
	b.Pocketed = true
	if g.winner != nil {
		return
	}
	if g.turn.Score >= BallsPerColor {
		g.turn.Score++
		g.winner = g.turn
		g.winReason = WinByScore
	} else {
		g.winner = g.nextTurn
		g.winReason = WinBlackBallFoul
	}
}

func (g *Game) sendScoreUpdate() {
	colorSet := g.turn.Color != ColorNone
	for _, s := range []*Seat{g.turn, g.nextTurn} {
		opp := g.opponent(s)
		s.Player.Send(ScoreUpdate{
			Player:        s.Score,
			Opponent:      opp.Score,
			PlayerColor:   s.Color,
			OpponentColor: opp.Color,
			GameColorSet:  colorSet,
		})
	}
}
