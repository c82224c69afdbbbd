package sim

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/zeusync/tickphys/internal/core/events/bus"
	"github.com/zeusync/tickphys/internal/core/models"
	"github.com/zeusync/tickphys/internal/core/observability/log"
	"github.com/zeusync/tickphys/internal/core/spatial"
	"github.com/zeusync/tickphys/internal/core/system"
	"github.com/zeusync/tickphys/internal/core/systems/collision"
	"github.com/zeusync/tickphys/internal/core/systems/physics"
)

// Event types published on the bus besides collision kinds.
const (
	EventPhysicsTick = "physics.tick"

	eventSource = "sim"
)

// System names, in run order.
const (
	SystemClock     = "physics.clock"
	SystemImpulses  = "physics.impulses"
	SystemGravity   = "physics.gravity"
	SystemTerminal  = "physics.terminal_velocity"
	SystemIntegrate = "physics.integrate"
	SystemCollision = "collision.detect"
	SystemPublish   = "events.publish"
)

type Options struct {
	Tick    time.Duration
	Gravity float64
	Policy  physics.SummationPolicy
	// Kinds are the category pairs checked every frame.
	Kinds []collision.Kind
}

// FrameReport summarizes one Step.
type FrameReport struct {
	Frame    uint64
	Elapsed  time.Duration
	Ticked   bool
	Tick     uint64
	Progress float64

	Impulses   physics.SummaryStats
	Collisions collision.Stats
	Events     DeliveryStats
}

// FrameObserver is notified after every Step, from the frame loop goroutine.
type FrameObserver interface {
	OnFrame(s *Simulation, report FrameReport)
}

// Simulation owns the world, the physics clock and the collision detector
// and runs them as systems in a fixed order each frame:
// clock, impulse summation, gravity, terminal velocity, integration,
// collision detection, then event publication for game reactions.
// Impulses pushed by reactions are summed on the following frame.
type Simulation struct {
	logger   log.Log
	world    *World
	tree     *spatial.StaticQuadTree
	clock    *physics.Clock
	detector *collision.Detector
	bus      bus.EventBus
	delivery *deliveries
	manager  *system.Manager
	opts     Options

	impulses   *bus.Queue[physics.Impulse]
	ticks      *bus.Queue[physics.PhysicsTick]
	collisions *bus.Queue[collision.Event]

	frame     uint64
	report    FrameReport
	scratch   []collision.Event
	outbox    []bus.Event
	observers []FrameObserver
}

func New(tree *spatial.StaticQuadTree, opts Options, logger log.Log) (*Simulation, error) {
	if tree == nil {
		return nil, errors.New("sim: nil quadtree")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	logger = logger.With(log.String("component", "sim"))
	s := &Simulation{
		logger:     logger,
		world:      NewWorld(),
		tree:       tree,
		clock:      physics.NewClock(opts.Tick),
		detector:   collision.NewDetector(tree),
		bus:        bus.New(),
		delivery:   &deliveries{logger: logger},
		manager:    system.NewManager(logger),
		opts:       opts,
		impulses:   bus.NewQueue[physics.Impulse](),
		ticks:      bus.NewQueue[physics.PhysicsTick](),
		collisions: bus.NewQueue[collision.Event](),
	}

	s.bus.AddObserver(s.delivery)

	if err := s.manager.Register(
		system.Func(SystemClock, system.PhasePreUpdate, system.PriorityHighest, s.runClock),
		system.Func(SystemImpulses, system.PhaseUpdate, system.PriorityNormal, s.runImpulses),
		system.Func(SystemGravity, system.PhaseFixedUpdate, system.PriorityHigh, s.runGravity),
		system.Func(SystemTerminal, system.PhaseFixedUpdate, system.PriorityNormal, s.runTerminal),
		system.Func(SystemIntegrate, system.PhaseFixedUpdate, system.PriorityLow, s.runIntegrate),
		system.Func(SystemCollision, system.PhasePostUpdate, system.PriorityNormal, s.runCollisions),
		system.Func(SystemPublish, system.PhaseLateUpdate, system.PriorityNormal, s.runPublish),
	); err != nil {
		return nil, err
	}

	s.logger.Info("Simulation created",
		log.Int("nodes", tree.Len()),
		log.Int("max_depth", tree.MaxDepth()),
		log.Duration("tick", s.clock.TickDuration()),
		log.Float64("gravity", opts.Gravity),
		log.String("policy", opts.Policy.String()),
		log.Int("kinds", len(opts.Kinds)),
	)
	return s, nil
}

func (s *Simulation) World() *World                       { return s.world }
func (s *Simulation) Tree() *spatial.StaticQuadTree       { return s.tree }
func (s *Simulation) Clock() *physics.Clock               { return s.clock }
func (s *Simulation) Bus() bus.EventBus                   { return s.bus }
func (s *Simulation) Manager() *system.Manager            { return s.manager }
func (s *Simulation) Frame() uint64                       { return s.frame }
func (s *Simulation) LastReport() FrameReport             { return s.report }
func (s *Simulation) AddObserver(obs FrameObserver)       { s.observers = append(s.observers, obs) }
func (s *Simulation) Spawn(spec BodySpec) models.EntityID { return s.world.Spawn(spec) }

// Despawn destroys the entity. Impulses already queued for it are skipped
// when summed.
func (s *Simulation) Despawn(id models.EntityID) error {
	if err := s.world.Registry.Destroy(id); err != nil {
		return fmt.Errorf("despawn %d: %w", id, err)
	}
	return nil
}

// Watch adds category pairs to check every frame. Duplicates are ignored.
func (s *Simulation) Watch(kinds ...collision.Kind) {
	for _, k := range kinds {
		if !slices.Contains(s.opts.Kinds, k) {
			s.opts.Kinds = append(s.opts.Kinds, k)
		}
	}
}

// PushImpulse queues impulses for the next summation pass.
func (s *Simulation) PushImpulse(impulses ...physics.Impulse) {
	s.impulses.Send(impulses...)
}

// OnCollision subscribes a reaction to one collision kind and watches it.
func (s *Simulation) OnCollision(kind collision.Kind, handle func(collision.Event) error) (bus.Subscription, error) {
	s.Watch(kind)
	return s.bus.Subscribe(kind.String(), func(e bus.Event) error {
		return handle(e.Data().(collision.Event))
	})
}

// OnTick subscribes a reaction to fired physics ticks.
func (s *Simulation) OnTick(handle func(physics.PhysicsTick) error) (bus.Subscription, error) {
	return s.bus.Subscribe(EventPhysicsTick, func(e bus.Event) error {
		return handle(e.Data().(physics.PhysicsTick))
	})
}

// Step advances one frame by elapsed. Reaction errors are returned joined
// but never stop the frame.
func (s *Simulation) Step(elapsed time.Duration) (FrameReport, error) {
	s.frame++
	s.report = FrameReport{Frame: s.frame, Elapsed: elapsed}

	frame := &system.Frame{Number: s.frame, Elapsed: elapsed}
	err := s.manager.RunFrame(frame)

	s.report.Ticked = frame.Ticked
	s.report.Tick = frame.Tick
	s.report.Progress = frame.Progress
	s.report.Events = s.delivery.take()
	for _, obs := range s.observers {
		obs.OnFrame(s, s.report)
	}
	return s.report, err
}

func (s *Simulation) runClock(f *system.Frame) error {
	tick, fired := s.clock.Step(f.Elapsed, s.world.Bodies)
	f.Ticked = fired
	f.Progress = s.clock.Progress()
	if fired {
		f.Tick = tick.Number
		s.ticks.Send(tick)
	}
	return nil
}

func (s *Simulation) runImpulses(*system.Frame) error {
	pending := s.impulses.Drain()
	if len(pending) == 0 {
		return nil
	}
	stats := physics.SumImpulses(pending, s.world.Bodies.Velocities, s.opts.Policy)
	s.report.Impulses = stats
	if stats.Skipped > 0 || stats.Dropped > 0 {
		s.logger.Debug("Impulses discarded",
			log.Uint64("frame", s.frame),
			log.Int("skipped", stats.Skipped),
			log.Int("dropped", stats.Dropped),
		)
	}
	return nil
}

func (s *Simulation) runGravity(*system.Frame) error {
	if s.opts.Gravity != 0 {
		physics.ApplyGravityTick(s.world.Bodies, s.opts.Gravity)
	}
	return nil
}

func (s *Simulation) runTerminal(*system.Frame) error {
	physics.ClampTerminalVelocity(s.world.Bodies)
	return nil
}

func (s *Simulation) runIntegrate(*system.Frame) error {
	physics.ApplyVelocity(s.world.Bodies)
	return nil
}

func (s *Simulation) runCollisions(*system.Frame) error {
	events, stats := s.detector.DetectAll(s.scratch[:0], s.opts.Kinds, s.world.CollisionBodies)
	s.scratch = events
	s.report.Collisions = stats
	s.collisions.Send(events...)
	return nil
}

// runPublish hands the frame's ticks, then its collisions, to the bus as one
// batch. Every event is delivered even when an earlier reaction fails.
func (s *Simulation) runPublish(f *system.Frame) error {
	clear(s.outbox)
	s.outbox = s.outbox[:0]
	for _, tick := range s.ticks.Drain() {
		s.logger.Debug("Physics tick", log.Uint64("tick", tick.Number), log.Uint64("frame", f.Number))
		s.outbox = append(s.outbox, bus.NewEvent(EventPhysicsTick, eventSource, f.Number, tick))
	}
	for _, ev := range s.collisions.Drain() {
		s.outbox = append(s.outbox, bus.NewEvent(ev.Kind.String(), eventSource, f.Number, ev))
	}
	if len(s.outbox) == 0 {
		return nil
	}
	return s.bus.PublishBatch(s.outbox...)
}
