package physics

import (
	"time"

	"github.com/zeusync/tickphys/internal/core/models"
)

// DefaultTickDuration is ~30 Hz.
const DefaultTickDuration = 33 * time.Millisecond

// PhysicsTick is produced once per fired tick.
type PhysicsTick struct {
	Number uint64
}

// Clock accumulates frame time in whole milliseconds and fires at most one
// tick per frame. Each frame is truncated to milliseconds before it is added,
// so a 16.67ms frame counts as 16ms. Missed ticks are not caught up: a long
// frame slows the simulation down instead of bursting several ticks.
type Clock struct {
	tick          time.Duration
	tickMS        int64
	accumulatedMS int64
	ticks         uint64
}

// NewClock rounds tick down to whole milliseconds, with a 1ms floor.
func NewClock(tick time.Duration) *Clock {
	if tick <= 0 {
		tick = DefaultTickDuration
	}
	ms := max(tick.Milliseconds(), 1)
	return &Clock{tick: time.Duration(ms) * time.Millisecond, tickMS: ms}
}

// Advance adds the whole milliseconds of elapsed and reports whether a tick
// fired. A fired tick resets the accumulator to zero, discarding any
// remainder.
func (c *Clock) Advance(elapsed time.Duration) (PhysicsTick, bool) {
	if elapsed > 0 {
		c.accumulatedMS += elapsed.Milliseconds()
	}
	if c.accumulatedMS < c.tickMS {
		return PhysicsTick{}, false
	}
	c.accumulatedMS = 0
	c.ticks++
	return PhysicsTick{Number: c.ticks}, true
}

// Progress is the fraction of the current tick already elapsed, in [0, 1).
func (c *Clock) Progress() float64 {
	return float64(c.accumulatedMS) / float64(c.tickMS)
}

func (c *Clock) TickDuration() time.Duration { return c.tick }
func (c *Clock) Ticks() uint64               { return c.ticks }

// Accumulated is the whole-millisecond total counted toward the next tick.
func (c *Clock) Accumulated() time.Duration {
	return time.Duration(c.accumulatedMS) * time.Millisecond
}

// Step advances the clock and updates every Transform from its
// PhysicsPosition: on a tick the transform snaps to EndFrame and EndFrame is
// committed, otherwise the transform is interpolated by Progress.
func (c *Clock) Step(elapsed time.Duration, b Bodies) (PhysicsTick, bool) {
	tick, fired := c.Advance(elapsed)
	if fired {
		SnapTransforms(b)
		return tick, true
	}
	InterpolateTransforms(b, c.Progress())
	return tick, false
}

// SnapTransforms moves each transform to EndFrame and commits the position.
func SnapTransforms(b Bodies) {
	for id, pos := range b.Positions.All() {
		if t := b.Transforms.Get(id); t != nil {
			t.Translation = pos.EndFrame
		}
		pos.Commit()
	}
}

// InterpolateTransforms sets each transform between StartFrame and EndFrame.
func InterpolateTransforms(b Bodies, progress float64) {
	for id, pos := range b.Positions.All() {
		if t := b.Transforms.Get(id); t != nil {
			t.Translation = pos.Interpolate(progress)
		}
	}
}

// Spawn attaches the standard dynamic body components to id.
func Spawn(b Bodies, id models.EntityID, pos PhysicsPosition, v Velocity) {
	b.Positions.Attach(id, pos)
	b.Transforms.Attach(id, Transform{Translation: pos.StartFrame})
	b.Velocities.Attach(id, v)
}
