package game

// BallColor identifies the class of a ball.
type BallColor string

const (
	ColorWhite  BallColor = "white"
	ColorBlack  BallColor = "black"
	ColorRed    BallColor = "red"
	ColorYellow BallColor = "yellow"
	ColorNone   BallColor = ""
)

// Complement returns the other object-ball color.
func (c BallColor) Complement() BallColor {
	switch c {
	case ColorRed:
		return ColorYellow
	case ColorYellow:
		return ColorRed
	}
	return ColorNone
}

// Ball is a single ball's physical state. Physics mutates it directly.
type Ball struct {
	Position     Vec2
	Velocity     Vec2
	Acceleration Vec2
	Radius       float64
	Color        BallColor

	// OffTable is set while a potted cue ball waits for the rack to settle.
	OffTable bool
	// Pocketed marks an object ball for removal at the end of the tick.
	Pocketed bool
}

func NewBall(pos Vec2, color BallColor) *Ball {
	return &Ball{Position: pos, Radius: BallRadius, Color: color}
}

// BallView is the wire form of a ball.
type BallView struct {
	X     float64   `json:"x"`
	Y     float64   `json:"y"`
	Color BallColor `json:"color"`
}

func (b *Ball) View() BallView {
	return BallView{X: b.Position.X, Y: b.Position.Y, Color: b.Color}
}
