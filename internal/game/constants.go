package game

// Table and physics constants. Distances are in table pixels, speeds in
// pixels per tick.
const (
	TableWidth  = 1280.0
	TableHeight = 720.0
	BallRadius  = 20.0

	// PocketRadius is added to BallRadius to get the capture distance.
	PocketRadius     = BallRadius
	SidePocketOffset = 10.0

	MaxPower    = 50.0
	Friction    = 0.2
	MinVelocity = 0.1

	// CueSpawnJitter bounds the random offset of the cue ball at setup.
	CueSpawnJitter = 15.0

	// BallsPerColor is the number of red (and yellow) object balls.
	BallsPerColor = 7

	DefaultTickRate = 60
)

// CueSpawn is the standard break position of the cue ball.
var CueSpawn = Vec2{X: 320, Y: 360}

// CueBallHold is where a potted cue ball waits until the rack settles.
// It is well below the table so it never overlaps a pocket.
var CueBallHold = Vec2{X: TableWidth / 2, Y: TableHeight + 200}
