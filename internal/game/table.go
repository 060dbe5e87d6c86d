package game

import (
	"golang.org/x/exp/rand"
)

// Pocket is one of the six capture circles on the table.
type Pocket struct {
	ID       int     `json:"id"`
	Position Vec2    `json:"position"`
	Radius   float64 `json:"radius"`
}

// Table holds the playfield bounds and pocket geometry.
type Table struct {
	Width   float64
	Height  float64
	Pockets []Pocket
}

// NewStandardTable returns the 1280x720 table with four corner pockets and
// two side pockets pushed slightly outward.
func NewStandardTable() *Table {
	w, h := TableWidth, TableHeight
	pr := PocketRadius
	return &Table{
		Width:  w,
		Height: h,
		Pockets: []Pocket{
			{ID: 0, Position: NewVec2(0, 0), Radius: pr},
			{ID: 1, Position: NewVec2(w/2, -SidePocketOffset), Radius: pr},
			{ID: 2, Position: NewVec2(w, 0), Radius: pr},
			{ID: 3, Position: NewVec2(0, h), Radius: pr},
			{ID: 4, Position: NewVec2(w/2, h+SidePocketOffset), Radius: pr},
			{ID: 5, Position: NewVec2(w, h), Radius: pr},
		},
	}
}

// rackSlots are the object ball positions of the triangle, apex first.
// The black ball always takes the center of the third row.
var rackSlots = []Vec2{
	{X: 960, Y: 360},
	{X: 995, Y: 340}, {X: 995, Y: 380},
	{X: 1030, Y: 320}, {X: 1030, Y: 400},
	{X: 1065, Y: 300}, {X: 1065, Y: 340}, {X: 1065, Y: 380}, {X: 1065, Y: 420},
	{X: 1100, Y: 280}, {X: 1100, Y: 320}, {X: 1100, Y: 360}, {X: 1100, Y: 400}, {X: 1100, Y: 440},
}

var blackSlot = Vec2{X: 1030, Y: 360}

// StandardRack builds the sixteen balls for a new game. The cue ball is
// first and the black ball second; the fourteen colored balls get their
// colors shuffled across the triangle. A nil rng yields the unshuffled rack
// with no cue jitter.
func StandardRack(rng *rand.Rand) []*Ball {
	colors := make([]BallColor, 0, len(rackSlots))
	for i := 0; i < BallsPerColor; i++ {
		colors = append(colors, ColorRed, ColorYellow)
	}

	cue := CueSpawn
	if rng != nil {
		rng.Shuffle(len(colors), func(i, j int) { colors[i], colors[j] = colors[j], colors[i] })
		cue = cue.Plus(NewVec2(
			(rng.Float64()*2-1)*CueSpawnJitter,
			(rng.Float64()*2-1)*CueSpawnJitter,
		))
	}

	balls := make([]*Ball, 0, len(rackSlots)+2)
	balls = append(balls, NewBall(cue, ColorWhite), NewBall(blackSlot, ColorBlack))
	for i, slot := range rackSlots {
		balls = append(balls, NewBall(slot, colors[i]))
	}
	return balls
}
