package game

import "math"

// PhysicsEngine advances a set of balls on a table one tick at a time.
// Collisions are resolved discretely per tick; a very fast ball can pass
// through a thin gap between two others.
type PhysicsEngine struct {
	Balls []*Ball
	Table *Table
}

// NewPhysicsEngine creates a physics engine from ball states and table geometry.
func NewPhysicsEngine(balls []*Ball, table *Table) *PhysicsEngine {
	return &PhysicsEngine{Balls: balls, Table: table}
}

// maxSeparationPasses bounds the overlap cleanup run at the end of a tick.
const maxSeparationPasses = 256

// Step runs one tick: every ball moves, then contacts are resolved pair by
// pair (i<j), then cushions, then leftover overlaps are pushed apart, then
// pockets are checked. onPocket is called at most once per ball per tick.
// Returns whether any ball moved.
func (pe *PhysicsEngine) Step(onPocket func(b *Ball, p Pocket)) bool {
	moving := false
	for _, ball := range pe.Balls {
		if inPlay(ball) && BallMotion(ball) {
			moving = true
		}
	}

	for i, ball := range pe.Balls {
		if !inPlay(ball) {
			continue
		}
		for _, other := range pe.Balls[i+1:] {
			if inPlay(other) {
				CollideBalls(ball, other)
			}
		}
	}
	for _, ball := range pe.Balls {
		if inPlay(ball) {
			CollideCushions(ball, pe.Table.Width, pe.Table.Height)
		}
	}
	pe.Relax(maxSeparationPasses)

	pe.checkPockets(onPocket)
	return moving
}

// checkPockets reports each ball in play that overlaps a pocket.
func (pe *PhysicsEngine) checkPockets(onPocket func(b *Ball, p Pocket)) {
	for _, ball := range pe.Balls {
		if !inPlay(ball) {
			continue
		}
		for _, pocket := range pe.Table.Pockets {
			if InPocket(ball, pocket) {
				if onPocket != nil {
					onPocket(ball, pocket)
				}
				break
			}
		}
	}
}

// Simulate steps until every ball is at rest or maxTicks is reached.
// Returns the number of ticks run.
func (pe *PhysicsEngine) Simulate(maxTicks int, onPocket func(b *Ball, p Pocket)) int {
	ticks := 0
	for ticks < maxTicks {
		ticks++
		if !pe.Step(onPocket) {
			break
		}
	}
	return ticks
}

// AllStopped returns true if no ball in play has velocity.
func (pe *PhysicsEngine) AllStopped() bool {
	for _, b := range pe.Balls {
		if inPlay(b) && !b.Velocity.IsZero() {
			return false
		}
	}
	return true
}

// Relax pushes apart overlapping balls and keeps them inside the cushions.
// Returns false if overlaps remain after iterations passes.
func (pe *PhysicsEngine) Relax(iterations int) bool {
	for n := 0; n < iterations; n++ {
		overlapped := false
		for i, a := range pe.Balls {
			if !inPlay(a) {
				continue
			}
			for _, b := range pe.Balls[i+1:] {
				if inPlay(b) && separate(a, b) {
					overlapped = true
				}
			}
			CollideCushions(a, pe.Table.Width, pe.Table.Height)
		}
		if !overlapped {
			return true
		}
	}
	return false
}

func inPlay(b *Ball) bool {
	return !b.OffTable && !b.Pocketed
}

// BallMotion applies acceleration and linear friction, then moves the ball.
// Speeds under MinVelocity snap to zero. Returns whether the ball moved.
func BallMotion(b *Ball) bool {
	b.Velocity.Add(b.Acceleration)

	speed := b.Velocity.Magnitude() - Friction
	if !(speed >= MinVelocity) {
		b.Velocity = Vec2{}
		return false
	}
	b.Velocity = b.Velocity.Normalize().Times(speed)
	b.Position.Add(b.Velocity)
	return true
}

// CollideBalls resolves an overlap between two equal-mass balls. The normal
// velocity components are exchanged when the balls approach each other and
// the circles are pushed apart along the line of centers. Returns whether
// the balls were touching.
func CollideBalls(a, b *Ball) bool {
	delta := b.Position.Minus(a.Position)
	dist := delta.Magnitude()
	if dist >= a.Radius+b.Radius {
		return false
	}
	n := NewVec2(1, 0)
	if dist > 0 {
		n = delta.Divide(dist)
	}

	overlap := a.Radius + b.Radius - dist
	a.Position.Add(n.Times(-overlap / 2))
	b.Position.Add(n.Times(overlap / 2))

	approach := a.Velocity.Minus(b.Velocity).Dot(n)
	if approach > 0 {
		impulse := n.Times(approach)
		a.Velocity = a.Velocity.Minus(impulse)
		b.Velocity = b.Velocity.Plus(impulse)
	}
	return true
}

func separate(a, b *Ball) bool {
	delta := b.Position.Minus(a.Position)
	dist := delta.Magnitude()
	overlap := a.Radius + b.Radius - dist
	if overlap <= 1e-9 {
		return false
	}
	n := NewVec2(1, 0)
	if dist > 0 {
		n = delta.Divide(dist)
	}
	a.Position.Add(n.Times(-overlap / 2))
	b.Position.Add(n.Times(overlap / 2))
	return true
}

// CollideCushions reflects the ball off any table edge it crosses and
// clamps it back inside. Returns whether a cushion was hit.
func CollideCushions(b *Ball, width, height float64) bool {
	hit := false
	if b.Position.X-b.Radius < 0 {
		b.Position.X = b.Radius
		b.Velocity.X = math.Abs(b.Velocity.X)
		hit = true
	} else if b.Position.X+b.Radius > width {
		b.Position.X = width - b.Radius
		b.Velocity.X = -math.Abs(b.Velocity.X)
		hit = true
	}
	if b.Position.Y-b.Radius < 0 {
		b.Position.Y = b.Radius
		b.Velocity.Y = math.Abs(b.Velocity.Y)
		hit = true
	} else if b.Position.Y+b.Radius > height {
		b.Position.Y = height - b.Radius
		b.Velocity.Y = -math.Abs(b.Velocity.Y)
		hit = true
	}
	return hit
}

// InPocket reports whether the ball overlaps the pocket's capture circle.
func InPocket(b *Ball, p Pocket) bool {
	return b.Position.DistanceTo(p.Position) < b.Radius+p.Radius
}
