package geom

import "fmt"

// AxisAlignedBoundingBox is the per-entity half extent around its center.
type AxisAlignedBoundingBox struct {
	HalfSize Vec2
}

// NewAABB takes the full width and height and stores half of each.
func NewAABB(width, height float64) AxisAlignedBoundingBox {
	return AxisAlignedBoundingBox{HalfSize: Vec2{width / 2, height / 2}}
}

// NewAABBHalf takes the half extents directly.
func NewAABBHalf(half Vec2) AxisAlignedBoundingBox {
	return AxisAlignedBoundingBox{HalfSize: half}
}

// NewAABBChecked is NewAABB with a non-negative extent precondition.
func NewAABBChecked(width, height float64) (AxisAlignedBoundingBox, error) {
	if width < 0 || height < 0 {
		return AxisAlignedBoundingBox{}, fmt.Errorf("%w: %gx%g", ErrNegativeExtent, width, height)
	}
	return NewAABB(width, height), nil
}

// AsRect places the box around center. Positions move every tick, so
// callers build the rectangle per query.
func (b AxisAlignedBoundingBox) AsRect(center Vec2) Rect2D {
	return Rect2D{
		Min: center.Sub(b.HalfSize),
		Max: center.Add(b.HalfSize),
	}
}
