package sim

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/tickphys/internal/core/geom"
	"github.com/zeusync/tickphys/internal/core/models"
	"github.com/zeusync/tickphys/internal/core/spatial"
	"github.com/zeusync/tickphys/internal/core/systems/collision"
	"github.com/zeusync/tickphys/internal/core/systems/physics"
)

const (
	player collision.Category = "player"
	ground collision.Category = "ground"
)

var playerVsGround = collision.Pair(player, ground)

func newSim(t *testing.T, opts Options) *Simulation {
	t.Helper()
	s, err := New(spatial.MustNew(geom.V2(1024, 768), 4), opts, nil)
	require.NoError(t, err)
	return s
}

func TestNewRejectsNilTree(t *testing.T) {
	_, err := New(nil, Options{}, nil)
	assert.Error(t, err)
}

func TestSystemOrder(t *testing.T) {
	s := newSim(t, Options{})
	assert.Equal(t, []string{
		SystemClock, SystemImpulses, SystemGravity, SystemTerminal,
		SystemIntegrate, SystemCollision, SystemPublish,
	}, s.Manager().ExecutionOrder())
}

func TestCollisionScenario(t *testing.T) {
	s := newSim(t, Options{})
	a := s.Spawn(BodySpec{Position: geom.V2(0, 0), Size: geom.V2(16, 16), Categories: []collision.Category{player}})
	b := s.Spawn(BodySpec{Position: geom.V2(10, 0), Size: geom.V2(16, 16), Static: true, Categories: []collision.Category{ground}})

	var got []collision.Event
	_, err := s.OnCollision(playerVsGround, func(e collision.Event) error {
		got = append(got, e)
		return nil
	})
	require.NoError(t, err)

	report, err := s.Step(16 * time.Millisecond)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, collision.Event{Kind: playerVsGround, EntityA: a, EntityB: b}, got[0])
	assert.Equal(t, 1, report.Collisions.Events)

	s.World().Bodies.Transforms.Get(b).Translation = geom.V2(20, 0)
	got = nil
	report, err = s.Step(16 * time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, report.Collisions.Events)
}

func TestClockDrivesInterpolation(t *testing.T) {
	s := newSim(t, Options{})
	id := s.Spawn(BodySpec{Position: geom.V2(0, 0), Velocity: geom.V3(3, 0, 0)})
	transform := func() geom.Vec2 { return s.World().Bodies.Transforms.Get(id).Translation }
	position := func() physics.PhysicsPosition { return *s.World().Bodies.Positions.Get(id) }

	report, err := s.Step(16 * time.Millisecond)
	require.NoError(t, err)
	assert.False(t, report.Ticked)
	assert.Equal(t, geom.V2(0, 0), transform())

	report, err = s.Step(17 * time.Millisecond)
	require.NoError(t, err)
	assert.True(t, report.Ticked)
	assert.Equal(t, uint64(1), report.Tick)
	assert.Equal(t, geom.V2(0, 0), transform())
	assert.Equal(t, physics.PhysicsPosition{StartFrame: geom.V2(0, 0), EndFrame: geom.V2(3, 0)}, position())

	report, err = s.Step(11 * time.Millisecond)
	require.NoError(t, err)
	assert.False(t, report.Ticked)
	assert.InDelta(t, 1.0, transform().X, 1e-9)
	assert.InDelta(t, 1.0/3, report.Progress, 1e-9)

	report, err = s.Step(40 * time.Millisecond)
	require.NoError(t, err)
	assert.True(t, report.Ticked)
	assert.Equal(t, geom.V2(3, 0), transform())
	assert.Equal(t, geom.V2(6, 0), position().EndFrame)
	// Only one tick per frame, remainder dropped.
	assert.Zero(t, s.Clock().Accumulated())
	assert.Equal(t, uint64(2), s.Clock().Ticks())
}

func TestImpulsesSummedEveryFrame(t *testing.T) {
	s := newSim(t, Options{})
	id := s.Spawn(BodySpec{Position: geom.V2(0, 0)})

	s.PushImpulse(
		physics.Impulse{Target: id, Amount: geom.V3(1, 0, 0), Source: physics.SourceKey("thrust")},
		physics.Impulse{Target: id, Amount: geom.V3(5, 5, 0), Absolute: true, Source: physics.SourceKey("reset")},
	)
	report, err := s.Step(time.Millisecond)
	require.NoError(t, err)
	assert.False(t, report.Ticked)
	assert.Equal(t, physics.NewVelocity(5, 5, 0), *s.World().Bodies.Velocities.Get(id))
	assert.Equal(t, 2, report.Impulses.Received)
}

func TestReactionImpulsesApplyNextFrame(t *testing.T) {
	s := newSim(t, Options{})
	a := s.Spawn(BodySpec{Position: geom.V2(0, 0), Size: geom.V2(16, 16), Categories: []collision.Category{player}})
	s.Spawn(BodySpec{Position: geom.V2(0, 10), Size: geom.V2(16, 16), Static: true, Categories: []collision.Category{ground}})

	_, err := s.OnCollision(playerVsGround, func(e collision.Event) error {
		s.PushImpulse(physics.Impulse{
			Target:   e.EntityA,
			Amount:   geom.V3(0, -2, 0),
			Absolute: true,
			Source:   physics.EntitySourceKey("bounce", e.EntityA),
		})
		return nil
	})
	require.NoError(t, err)

	velocity := func() geom.Vec3 { return s.World().Bodies.Velocities.Get(a).Value }

	_, err = s.Step(time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, geom.V3(0, 0, 0), velocity())

	_, err = s.Step(time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, geom.V3(0, -2, 0), velocity())
}

func TestGravityAndTerminalVelocity(t *testing.T) {
	s := newSim(t, Options{Gravity: physics.DefaultGravity})
	falling := s.Spawn(BodySpec{Position: geom.V2(0, 0), Gravity: true})
	capped := s.Spawn(BodySpec{Position: geom.V2(0, 0), Velocity: geom.V3(6, 8, 0), TerminalVelocity: 5})
	floating := s.Spawn(BodySpec{Position: geom.V2(0, 0)})

	report, err := s.Step(physics.DefaultTickDuration)
	require.NoError(t, err)
	require.True(t, report.Ticked)

	bodies := s.World().Bodies
	assert.InDelta(t, -0.75, bodies.Velocities.Get(falling).Value.Y, 1e-9)
	assert.InDelta(t, -0.75, bodies.Positions.Get(falling).EndFrame.Y, 1e-9)

	v := bodies.Velocities.Get(capped).Value
	assert.InDelta(t, 3, v.X, 1e-9)
	assert.InDelta(t, 4, v.Y, 1e-9)

	assert.Equal(t, geom.Vec3{}, bodies.Velocities.Get(floating).Value)
}

func TestDespawn(t *testing.T) {
	s := newSim(t, Options{})
	id := s.Spawn(BodySpec{Position: geom.V2(0, 0), Size: geom.V2(4, 4), Categories: []collision.Category{player}})
	s.PushImpulse(physics.Impulse{Target: id, Amount: geom.V3(1, 0, 0)})

	require.NoError(t, s.Despawn(id))
	assert.ErrorIs(t, s.Despawn(id), models.ErrUnknownEntity)
	assert.False(t, s.World().Boxes.Has(id))
	assert.False(t, s.World().Categories.Has(id, player))

	report, err := s.Step(time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Impulses.Skipped)
}

func TestTickEventsAndReactionErrors(t *testing.T) {
	s := newSim(t, Options{Tick: 10 * time.Millisecond})
	var ticks []uint64
	_, err := s.OnTick(func(tick physics.PhysicsTick) error {
		ticks = append(ticks, tick.Number)
		return nil
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	s.Spawn(BodySpec{Position: geom.V2(0, 0), Size: geom.V2(4, 4), Categories: []collision.Category{player}})
	s.Spawn(BodySpec{Position: geom.V2(1, 0), Size: geom.V2(4, 4), Static: true, Categories: []collision.Category{ground}})
	_, err = s.OnCollision(playerVsGround, func(collision.Event) error { return boom })
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err = s.Step(6 * time.Millisecond)
		assert.ErrorIs(t, err, boom)
	}
	assert.Equal(t, []uint64{1, 2}, ticks)
	assert.Equal(t, uint64(4), s.Frame())
}

type recordingObserver struct {
	reports   []FrameReport
	snapshots []Snapshot
}

func (o *recordingObserver) OnFrame(s *Simulation, r FrameReport) {
	o.reports = append(o.reports, r)
	o.snapshots = append(o.snapshots, s.Snapshot())
}

func TestObserverAndSnapshot(t *testing.T) {
	s := newSim(t, Options{Kinds: []collision.Kind{playerVsGround}})
	s.Watch(playerVsGround)
	obs := &recordingObserver{}
	s.AddObserver(obs)

	a := s.Spawn(BodySpec{Position: geom.V2(0, 0), Size: geom.V2(16, 16), Categories: []collision.Category{player}})
	s.Spawn(BodySpec{Position: geom.V2(10, 0), Size: geom.V2(16, 16), Static: true, Categories: []collision.Category{ground}})
	s.Spawn(BodySpec{Position: geom.V2(50, 50)}) // no box, not in snapshots

	_, err := s.Step(physics.DefaultTickDuration)
	require.NoError(t, err)

	require.Len(t, obs.reports, 1)
	assert.Equal(t, uint64(1), obs.reports[0].Frame)
	snap := obs.snapshots[0]
	assert.Equal(t, uint64(1), snap.Frame)
	assert.Equal(t, uint64(1), snap.Ticks)
	assert.Equal(t, 1, snap.Collisions)
	assert.Equal(t, 1, snap.Checks)
	require.Len(t, snap.Entities, 2)
	assert.Equal(t, EntityState{ID: uint64(a), X: 0, Y: 0}, snap.Entities[0])
	assert.Equal(t, EntityState{ID: uint64(a) + 1, X: 10, Y: 0}, snap.Entities[1])
	assert.Zero(t, snap.Reactions)
}

func TestDeliveryStats(t *testing.T) {
	s := newSim(t, Options{})
	s.Spawn(BodySpec{Position: geom.V2(0, 0), Size: geom.V2(16, 16), Categories: []collision.Category{player}})
	s.Spawn(BodySpec{Position: geom.V2(10, 0), Size: geom.V2(16, 16), Static: true, Categories: []collision.Category{ground}})

	boom := errors.New("boom")
	var ticks int
	_, err := s.OnTick(func(physics.PhysicsTick) error { ticks++; return nil })
	require.NoError(t, err)
	failing, err := s.OnCollision(playerVsGround, func(collision.Event) error { return boom })
	require.NoError(t, err)
	var seen int
	_, err = s.OnCollision(playerVsGround, func(collision.Event) error { seen++; return nil })
	require.NoError(t, err)

	// The failing reaction does not keep the tick or the second handler
	// from running.
	report, err := s.Step(physics.DefaultTickDuration)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, DeliveryStats{Published: 2, Handled: 3, Failed: 1}, report.Events)
	assert.Equal(t, 1, ticks)
	assert.Equal(t, 1, seen)

	require.NoError(t, failing.Cancel())
	report, err = s.Step(time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, DeliveryStats{Published: 1, Handled: 1}, report.Events)
	assert.Equal(t, 2, seen)
	assert.Equal(t, uint64(4), s.Snapshot().Reactions)
}
