package game

import "math"

// Vec2 is a 2D vector. The value methods return new vectors; the pointer
// methods mutate in place and are what the simulation uses on ball state.
// NaN and Inf are not sanitized.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func NewVec2(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

func (v Vec2) Plus(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec2) Minus(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vec2) Times(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

func (v Vec2) Divide(s float64) Vec2 {
	return Vec2{X: v.X / s, Y: v.Y / s}
}

func (v Vec2) Dot(o Vec2) float64 {
	return v.X*o.X + v.Y*o.Y
}

func (v Vec2) Magnitude() float64 {
	return math.Hypot(v.X, v.Y)
}

func (v Vec2) MagnitudeSquared() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Angle returns the direction of v in radians.
func (v Vec2) Angle() float64 {
	return math.Atan2(v.Y, v.X)
}

func (v Vec2) Normalize() Vec2 {
	m := v.Magnitude()
	if m == 0 {
		return Vec2{}
	}
	return v.Divide(m)
}

func (v Vec2) RightNormal() Vec2 {
	return Vec2{X: v.Y, Y: -v.X}
}

func (v Vec2) LeftNormal() Vec2 {
	return Vec2{X: -v.Y, Y: v.X}
}

// Rotate rotates v by angle radians using the standard rotation matrix.
func (v Vec2) Rotate(angle float64) Vec2 {
	cos, sin := math.Cos(angle), math.Sin(angle)
	return Vec2{
		X: v.X*cos - v.Y*sin,
		Y: v.X*sin + v.Y*cos,
	}
}

func (v Vec2) Invert() Vec2 {
	return Vec2{X: -v.X, Y: -v.Y}
}

func (v Vec2) DistanceTo(o Vec2) float64 {
	return v.Minus(o).Magnitude()
}

func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// Set overwrites both components.
func (v *Vec2) Set(x, y float64) {
	v.X = x
	v.Y = y
}

// Add adds o to v in place.
func (v *Vec2) Add(o Vec2) {
	v.X += o.X
	v.Y += o.Y
}

// Scale multiplies v by s in place.
func (v *Vec2) Scale(s float64) {
	v.X *= s
	v.Y *= s
}
