package geom

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedRect  = errors.New("geom: rect min exceeds max")
	ErrNegativeExtent = errors.New("geom: bounding box extent is negative")
)

// Quadrant names the four subdivisions returned by Rect2D.Quadrants, in order.
// "Top" is the Min.Y side.
type Quadrant uint8

const (
	TopLeft Quadrant = iota
	TopRight
	BottomLeft
	BottomRight
)

func (q Quadrant) String() string {
	switch q {
	case TopLeft:
		return "top-left"
	case TopRight:
		return "top-right"
	case BottomLeft:
		return "bottom-left"
	case BottomRight:
		return "bottom-right"
	default:
		return fmt.Sprintf("quadrant(%d)", uint8(q))
	}
}

// Rect2D is an axis-aligned rectangle. Min must not exceed Max on either axis.
type Rect2D struct {
	Min Vec2
	Max Vec2
}

// NewRect builds a rectangle without validation.
func NewRect(min, max Vec2) Rect2D {
	return Rect2D{Min: min, Max: max}
}

// NewRectChecked builds a rectangle and rejects min > max on either axis.
func NewRectChecked(min, max Vec2) (Rect2D, error) {
	r := Rect2D{Min: min, Max: max}
	if !r.Valid() {
		return Rect2D{}, fmt.Errorf("%w: min=%v max=%v", ErrMalformedRect, min, max)
	}
	return r, nil
}

// Valid reports whether Min <= Max component-wise.
func (r Rect2D) Valid() bool {
	return r.Min.X <= r.Max.X && r.Min.Y <= r.Max.Y
}

// Intersect reports whether the closed rectangles overlap. Touching edges
// and corners count as intersecting.
func (r Rect2D) Intersect(o Rect2D) bool {
	return r.Min.X <= o.Max.X &&
		r.Max.X >= o.Min.X &&
		r.Min.Y <= o.Max.Y &&
		r.Max.Y >= o.Min.Y
}

// Contains reports whether o lies entirely within r, boundaries included.
func (r Rect2D) Contains(o Rect2D) bool {
	return r.Min.X <= o.Min.X && r.Max.X >= o.Max.X &&
		r.Min.Y <= o.Min.Y && r.Max.Y >= o.Max.Y
}

// ContainsPoint reports whether p lies within r, boundaries included.
func (r Rect2D) ContainsPoint(p Vec2) bool {
	return r.Min.X <= p.X && r.Max.X >= p.X && r.Min.Y <= p.Y && r.Max.Y >= p.Y
}

func (r Rect2D) Center() Vec2 { return r.Min.Midpoint(r.Max) }
func (r Rect2D) Size() Vec2   { return r.Max.Sub(r.Min) }
func (r Rect2D) Area() float64 {
	s := r.Size()
	return s.X * s.Y
}

// Quadrants splits r at its center into TopLeft, TopRight, BottomLeft and
// BottomRight, indexed by Quadrant.
func (r Rect2D) Quadrants() [4]Rect2D {
	c := r.Center()
	return [4]Rect2D{
		TopLeft:     {Min: r.Min, Max: c},
		TopRight:    {Min: Vec2{c.X, r.Min.Y}, Max: Vec2{r.Max.X, c.Y}},
		BottomLeft:  {Min: Vec2{r.Min.X, c.Y}, Max: Vec2{c.X, r.Max.Y}},
		BottomRight: {Min: c, Max: r.Max},
	}
}

func (r Rect2D) String() string {
	return fmt.Sprintf("[(%g,%g)-(%g,%g)]", r.Min.X, r.Min.Y, r.Max.X, r.Max.Y)
}
