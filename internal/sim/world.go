package sim

import (
	"iter"

	"github.com/zeusync/tickphys/internal/core/geom"
	"github.com/zeusync/tickphys/internal/core/models"
	"github.com/zeusync/tickphys/internal/core/systems/collision"
	"github.com/zeusync/tickphys/internal/core/systems/physics"
)

// World is the in-memory entity store the simulation runs against.
type World struct {
	Registry   *models.Registry
	Bodies     physics.Bodies
	Boxes      *models.Store[geom.AxisAlignedBoundingBox]
	Categories *collision.Categories
}

func NewWorld() *World {
	w := &World{
		Registry:   models.NewRegistry(),
		Bodies:     physics.NewBodies(),
		Boxes:      models.NewStore[geom.AxisAlignedBoundingBox](),
		Categories: collision.NewCategories(),
	}
	w.Registry.Track(w.Bodies.Stores()...)
	w.Registry.Track(w.Boxes, w.Categories)
	return w
}

// BodySpec describes an entity to spawn.
type BodySpec struct {
	Position geom.Vec2
	// Size is the full width and height of the bounding box. Zero means no box.
	Size geom.Vec2
	// Static bodies have a fixed Transform and no PhysicsPosition or Velocity.
	Static           bool
	Velocity         geom.Vec3
	Gravity          bool
	TerminalVelocity float64
	Categories       []collision.Category
}

func (w *World) Spawn(spec BodySpec) models.EntityID {
	id := w.Registry.Spawn()
	if spec.Static {
		w.Bodies.Transforms.Attach(id, physics.Transform{Translation: spec.Position})
	} else {
		physics.Spawn(w.Bodies, id, physics.NewPhysicsPosition(spec.Position), physics.Velocity{Value: spec.Velocity})
		if spec.Gravity {
			w.Bodies.Gravity.Attach(id, physics.ApplyGravity{})
		}
		if spec.TerminalVelocity > 0 {
			w.Bodies.Terminal.Attach(id, physics.TerminalVelocity{Max: spec.TerminalVelocity})
		}
	}
	if spec.Size != (geom.Vec2{}) {
		w.Boxes.Attach(id, geom.NewAABB(spec.Size.X, spec.Size.Y))
	}
	w.Categories.Tag(id, spec.Categories...)
	return id
}

// CollisionBodies yields the bodies of a category at their current render
// positions.
func (w *World) CollisionBodies(cat collision.Category) iter.Seq[collision.Body] {
	return collision.Gather(w.Categories.Members(cat), w.Bodies.Position, w.Boxes)
}
