package geom

import "math"

// Vec2 is a 2D vector used for positions, extents and planar velocity.
type Vec2 struct{ X, Y float64 }

// Vec3 carries a z component for bookkeeping; physics only acts on X and Y.
type Vec3 struct{ X, Y, Z float64 }

func V2(x, y float64) Vec2    { return Vec2{X: x, Y: y} }
func V3(x, y, z float64) Vec3 { return Vec3{X: x, Y: y, Z: z} }

// FromAngle is the unit vector at theta radians from the +X axis.
func FromAngle(theta float64) Vec2 {
	return Vec2{X: math.Cos(theta), Y: math.Sin(theta)}
}

func (v Vec2) Add(o Vec2) Vec2         { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2         { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float64) Vec2    { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) Length() float64         { return math.Hypot(v.X, v.Y) }
func (v Vec2) Extend(z float64) Vec3   { return Vec3{v.X, v.Y, z} }
func (v Vec2) Midpoint(o Vec2) Vec2    { return v.Add(o).Scale(0.5) }
func (v Vec2) Distance(o Vec2) float64 { return o.Sub(v).Length() }

// Lerp returns v + (o - v) * t.
func (v Vec2) Lerp(o Vec2, t float64) Vec2 {
	return Vec2{
		X: v.X + (o.X-v.X)*t,
		Y: v.Y + (o.Y-v.Y)*t,
	}
}

// Normalize returns the unit vector in the direction of v, or the zero vector.
func (v Vec2) Normalize() Vec2 {
	l := v.Length()
	if l == 0 {
		return Vec2{}
	}
	return v.Scale(1 / l)
}

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Truncate drops the z component.
func (v Vec3) Truncate() Vec2 { return Vec2{v.X, v.Y} }
