package collision

import (
	"iter"

	"github.com/zeusync/tickphys/internal/core/geom"
	"github.com/zeusync/tickphys/internal/core/models"
)

// Locator resolves the position an entity's box is centered on this frame.
type Locator func(models.EntityID) (geom.Vec2, bool)

// Gather turns entity ids into bodies, building each rectangle fresh from
// the current position. Entities without a box or a position are skipped.
func Gather(ids iter.Seq[models.EntityID], locate Locator, boxes *models.Store[geom.AxisAlignedBoundingBox]) iter.Seq[Body] {
	return func(yield func(Body) bool) {
		for id := range ids {
			box := boxes.Get(id)
			if box == nil {
				continue
			}
			pos, ok := locate(id)
			if !ok {
				continue
			}
			if !yield(Body{ID: id, Rect: box.AsRect(pos)}) {
				return
			}
		}
	}
}

// Categories tags entities with collision categories.
type Categories struct {
	tags map[Category]*models.Store[struct{}]
}

func NewCategories() *Categories {
	return &Categories{tags: make(map[Category]*models.Store[struct{}])}
}

func (c *Categories) store(cat Category) *models.Store[struct{}] {
	s, ok := c.tags[cat]
	if !ok {
		s = models.NewStore[struct{}]()
		c.tags[cat] = s
	}
	return s
}

func (c *Categories) Tag(id models.EntityID, cats ...Category) {
	for _, cat := range cats {
		c.store(cat).Attach(id, struct{}{})
	}
}

func (c *Categories) Untag(id models.EntityID, cat Category) bool {
	if s, ok := c.tags[cat]; ok {
		return s.Detach(id)
	}
	return false
}

func (c *Categories) Has(id models.EntityID, cat Category) bool {
	s, ok := c.tags[cat]
	return ok && s.Has(id)
}

// Members yields every entity tagged cat.
func (c *Categories) Members(cat Category) iter.Seq[models.EntityID] {
	if s, ok := c.tags[cat]; ok {
		return s.IDs()
	}
	return func(func(models.EntityID) bool) {}
}

// Detach removes id from every category.
func (c *Categories) Detach(id models.EntityID) bool {
	removed := false
	for _, s := range c.tags {
		removed = s.Detach(id) || removed
	}
	return removed
}
