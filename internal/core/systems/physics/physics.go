package physics

import (
	"github.com/zeusync/tickphys/internal/core/geom"
	"github.com/zeusync/tickphys/internal/core/models"
)

// PhysicsPosition is the dual position buffer of a dynamic entity.
// StartFrame is the position committed at the last completed tick; EndFrame
// is where integration is driving it and becomes StartFrame on the next tick.
// Only the physics tick writes EndFrame; renderers read Interpolate.
type PhysicsPosition struct {
	StartFrame geom.Vec2
	EndFrame   geom.Vec2
}

func NewPhysicsPosition(spawn geom.Vec2) PhysicsPosition {
	return PhysicsPosition{StartFrame: spawn, EndFrame: spawn}
}

// Interpolate returns StartFrame + (EndFrame - StartFrame) * progress.
func (p PhysicsPosition) Interpolate(progress float64) geom.Vec2 {
	return p.StartFrame.Lerp(p.EndFrame, progress)
}

// Commit promotes the tick target to the new baseline.
func (p *PhysicsPosition) Commit() {
	p.StartFrame = p.EndFrame
}

// Transform is the renderable position the clock writes every frame.
type Transform struct {
	Translation geom.Vec2
}

// Velocity is in world units per tick. Z is carried but never integrated.
type Velocity struct {
	Value geom.Vec3
}

func NewVelocity(x, y, z float64) Velocity {
	return Velocity{Value: geom.V3(x, y, z)}
}

// ApplyGravity marks entities pulled down on every tick.
type ApplyGravity struct{}

// TerminalVelocity caps the planar speed of an entity.
type TerminalVelocity struct {
	Max float64
}

// Bodies groups the component stores the physics systems operate on. Each
// store is owned by the caller's entity store.
type Bodies struct {
	Positions  *models.Store[PhysicsPosition]
	Transforms *models.Store[Transform]
	Velocities *models.Store[Velocity]
	Gravity    *models.Store[ApplyGravity]
	Terminal   *models.Store[TerminalVelocity]
}

func NewBodies() Bodies {
	return Bodies{
		Positions:  models.NewStore[PhysicsPosition](),
		Transforms: models.NewStore[Transform](),
		Velocities: models.NewStore[Velocity](),
		Gravity:    models.NewStore[ApplyGravity](),
		Terminal:   models.NewStore[TerminalVelocity](),
	}
}

// Stores lists every store for registry tracking.
func (b Bodies) Stores() []models.Detacher {
	return []models.Detacher{b.Positions, b.Transforms, b.Velocities, b.Gravity, b.Terminal}
}

// Position returns the interpolated render position of id, falling back to
// the committed tick target when the entity has no Transform.
func (b Bodies) Position(id models.EntityID) (geom.Vec2, bool) {
	if t := b.Transforms.Get(id); t != nil {
		return t.Translation, true
	}
	if p := b.Positions.Get(id); p != nil {
		return p.EndFrame, true
	}
	return geom.Vec2{}, false
}
