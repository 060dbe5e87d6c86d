package game

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"
)

func engineWith(balls ...*Ball) *PhysicsEngine {
	return NewPhysicsEngine(balls, NewStandardTable())
}

func TestStraightShotMovesTargetForward(t *testing.T) {
	cue := NewBall(NewVec2(300, 360), ColorWhite)
	cue.Velocity = NewVec2(10, 0)
	target := NewBall(NewVec2(500, 360), ColorRed)
	engine := engineWith(cue, target)

	engine.Simulate(5000, nil)

	if !engine.AllStopped() {
		t.Fatal("balls did not stop")
	}
	if target.Position.X <= 500 {
		t.Errorf("target did not move right: x=%.2f", target.Position.X)
	}
	if cue.Position.X >= target.Position.X {
		t.Errorf("cue ball passed through target: cue=%.2f target=%.2f", cue.Position.X, target.Position.X)
	}
	if !approx(target.Position.Y, 360) {
		t.Errorf("head-on hit moved target off line: y=%.4f", target.Position.Y)
	}
}

func TestBallMotionLinearFriction(t *testing.T) {
	b := NewBall(NewVec2(100, 100), ColorRed)
	b.Velocity = NewVec2(1, 0)
	if !BallMotion(b) {
		t.Fatal("ball should move")
	}
	if !approx(b.Velocity.X, 1-Friction) || !approx(b.Position.X, 100+1-Friction) {
		t.Fatalf("velocity=%v position=%v", b.Velocity, b.Position)
	}

	b.Velocity = NewVec2(0.25, 0)
	if BallMotion(b) {
		t.Fatal("slow ball should snap to rest")
	}
	if !b.Velocity.IsZero() || !approx(b.Position.X, 100.8) {
		t.Fatalf("velocity=%v position=%v", b.Velocity, b.Position)
	}
}

func TestFrictionStopsBall(t *testing.T) {
	b := NewBall(NewVec2(640, 360), ColorRed)
	b.Velocity = NewVec2(5, 0)
	engine := engineWith(b)

	ticks := engine.Simulate(1000, nil)
	if ticks >= 1000 || !engine.AllStopped() {
		t.Fatalf("ball still moving after %d ticks", ticks)
	}
	// 5 - 0.2n drops below 0.1 after 25 ticks
	if ticks != 25 {
		t.Errorf("ticks = %d, want 25", ticks)
	}
}

func TestCollideBallsExchangesNormalVelocity(t *testing.T) {
	a := NewBall(NewVec2(100, 100), ColorWhite)
	b := NewBall(NewVec2(138, 100), ColorRed)
	a.Velocity = NewVec2(10, 0)

	if !CollideBalls(a, b) {
		t.Fatal("overlapping balls not detected")
	}
	if !approx(a.Velocity.X, 0) || !approx(b.Velocity.X, 10) {
		t.Fatalf("velocities a=%v b=%v", a.Velocity, b.Velocity)
	}
	if !approx(a.Position.DistanceTo(b.Position), 2*BallRadius) {
		t.Fatalf("balls still overlap: %v", a.Position.DistanceTo(b.Position))
	}
}

func TestCollideBallsConservesMomentumOnGlancingHit(t *testing.T) {
	a := NewBall(NewVec2(100, 100), ColorWhite)
	b := NewBall(NewVec2(130, 125), ColorRed)
	a.Velocity = NewVec2(6, 2)
	b.Velocity = NewVec2(-1, 0.5)
	before := a.Velocity.Plus(b.Velocity)
	energy := a.Velocity.MagnitudeSquared() + b.Velocity.MagnitudeSquared()

	CollideBalls(a, b)

	after := a.Velocity.Plus(b.Velocity)
	if !approx(before.X, after.X) || !approx(before.Y, after.Y) {
		t.Fatalf("momentum changed: %v -> %v", before, after)
	}
	if got := a.Velocity.MagnitudeSquared() + b.Velocity.MagnitudeSquared(); !approx(got, energy) {
		t.Fatalf("energy changed: %v -> %v", energy, got)
	}
}

func TestCollideBallsIgnoresSeparatingBalls(t *testing.T) {
	a := NewBall(NewVec2(100, 100), ColorWhite)
	b := NewBall(NewVec2(130, 100), ColorRed)
	a.Velocity = NewVec2(-5, 0)

	CollideBalls(a, b)

	if a.Velocity != NewVec2(-5, 0) || !b.Velocity.IsZero() {
		t.Fatalf("receding balls exchanged velocity: a=%v b=%v", a.Velocity, b.Velocity)
	}
	if !approx(a.Position.DistanceTo(b.Position), 2*BallRadius) {
		t.Fatal("overlap not resolved")
	}
}

func TestCollideBallsNoContact(t *testing.T) {
	a := NewBall(NewVec2(100, 100), ColorWhite)
	b := NewBall(NewVec2(140, 100), ColorRed)
	a.Velocity = NewVec2(1, 0)
	if CollideBalls(a, b) {
		t.Fatal("touching at exactly two radii should not collide")
	}
}

func TestCushionReflectsAndClamps(t *testing.T) {
	b := NewBall(NewVec2(1270, 300), ColorRed)
	b.Velocity = NewVec2(3, 2)
	if !CollideCushions(b, TableWidth, TableHeight) {
		t.Fatal("right cushion not hit")
	}
	if b.Position.X != TableWidth-BallRadius || b.Velocity != NewVec2(-3, 2) {
		t.Fatalf("position=%v velocity=%v", b.Position, b.Velocity)
	}

	b = NewBall(NewVec2(40, 5), ColorRed)
	b.Velocity = NewVec2(-1, -4)
	CollideCushions(b, TableWidth, TableHeight)
	if b.Position.Y != BallRadius || b.Velocity.Y != 4 || b.Velocity.X != -1 {
		t.Fatalf("position=%v velocity=%v", b.Position, b.Velocity)
	}

	b = NewBall(NewVec2(640, 360), ColorRed)
	if CollideCushions(b, TableWidth, TableHeight) {
		t.Fatal("ball in the middle hit a cushion")
	}
}

func TestInPocket(t *testing.T) {
	table := NewStandardTable()
	corner, side := table.Pockets[0], table.Pockets[1]
	cases := []struct {
		pos    Vec2
		pocket Pocket
		want   bool
	}{
		{NewVec2(25, 25), corner, true},
		{NewVec2(640, 360), corner, false},
		{NewVec2(640, 20), side, true},
		{NewVec2(640, 35), side, false},
	}
	for _, tc := range cases {
		if got := InPocket(NewBall(tc.pos, ColorRed), tc.pocket); got != tc.want {
			t.Errorf("InPocket(%v, pocket %d) = %v, want %v", tc.pos, tc.pocket.ID, got, tc.want)
		}
	}
}

func TestStepReportsPocketOncePerBall(t *testing.T) {
	b := NewBall(NewVec2(30, 30), ColorRed)
	b.Velocity = NewVec2(-2, -2)
	engine := engineWith(b)

	var hits []int
	engine.Step(func(ball *Ball, p Pocket) { hits = append(hits, p.ID) })
	if len(hits) != 1 || hits[0] != 0 {
		t.Fatalf("pocket hits = %v, want [0]", hits)
	}
}

func TestStandardRack(t *testing.T) {
	balls := StandardRack(rand.New(rand.NewSource(3)))
	if len(balls) != 16 {
		t.Fatalf("rack has %d balls", len(balls))
	}
	if balls[0].Color != ColorWhite || balls[1].Color != ColorBlack || balls[1].Position != blackSlot {
		t.Fatal("cue ball must be first and black second on its spot")
	}
	if balls[0].Position.DistanceTo(CueSpawn) > CueSpawnJitter*math.Sqrt2 {
		t.Errorf("cue ball jitter too large: %v", balls[0].Position)
	}
	counts := map[BallColor]int{}
	for _, b := range balls[2:] {
		counts[b.Color]++
	}
	if counts[ColorRed] != BallsPerColor || counts[ColorYellow] != BallsPerColor {
		t.Fatalf("color counts = %v", counts)
	}
	for i, a := range balls {
		for _, b := range balls[i+1:] {
			if a.Position.DistanceTo(b.Position) < 2*BallRadius {
				t.Fatalf("rack overlaps at %v and %v", a.Position, b.Position)
			}
		}
	}
}

func TestRackIsDeterministicForSeed(t *testing.T) {
	a := StandardRack(rand.New(rand.NewSource(42)))
	b := StandardRack(rand.New(rand.NewSource(42)))
	for i := range a {
		if a[i].Position != b[i].Position || a[i].Color != b[i].Color {
			t.Fatalf("ball %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestBreakIsDeterministic(t *testing.T) {
	run := func() []*Ball {
		balls := StandardRack(nil)
		balls[0].Velocity = NewVec2(MaxPower, 0)
		NewPhysicsEngine(balls, NewStandardTable()).Simulate(20000, nil)
		return balls
	}
	a, b := run(), run()
	for i := range a {
		if a[i].Position != b[i].Position {
			t.Fatalf("ball %d ended at %v and %v", i, a[i].Position, b[i].Position)
		}
	}
}

func TestBreakScattersRackAndSettlesOnTable(t *testing.T) {
	balls := StandardRack(nil)
	balls[0].Velocity = NewVec2(MaxPower, 0)
	engine := NewPhysicsEngine(balls, NewStandardTable())

	if ticks := engine.Simulate(20000, nil); ticks >= 20000 {
		t.Fatal("break never settled")
	}
	engine.Relax(10)

	moved := 0
	for i, slot := range rackSlots {
		if balls[i+2].Position != slot {
			moved++
		}
	}
	if moved == 0 {
		t.Fatal("break did not disturb the rack")
	}
	const eps = 1e-6
	for _, b := range balls {
		p := b.Position
		if p.X < BallRadius-eps || p.X > TableWidth-BallRadius+eps || p.Y < BallRadius-eps || p.Y > TableHeight-BallRadius+eps {
			t.Errorf("ball left the table: %v", p)
		}
	}
}

func TestRelaxSeparatesOverlaps(t *testing.T) {
	a := NewBall(NewVec2(400, 400), ColorRed)
	b := NewBall(NewVec2(410, 400), ColorYellow)
	engine := engineWith(a, b)
	engine.Relax(10)
	if d := a.Position.DistanceTo(b.Position); d < 2*BallRadius-1e-9 {
		t.Fatalf("still overlapping: %v", d)
	}
}
