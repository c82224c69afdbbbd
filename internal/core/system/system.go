package system

import (
	"fmt"
	"time"
)

// System is one step of the frame loop.
type System interface {
	Name() string
	Phase() Phase
	Priority() Priority
	Run(f *Frame) error
}

// Phase defines when a system runs inside a frame.
type Phase uint8

const (
	PhasePreUpdate Phase = iota
	PhaseUpdate
	// PhaseFixedUpdate systems only run on frames where a physics tick fired.
	PhaseFixedUpdate
	PhasePostUpdate
	PhaseLateUpdate
)

func (p Phase) String() string {
	switch p {
	case PhasePreUpdate:
		return "pre-update"
	case PhaseUpdate:
		return "update"
	case PhaseFixedUpdate:
		return "fixed-update"
	case PhasePostUpdate:
		return "post-update"
	case PhaseLateUpdate:
		return "late-update"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// Priority orders systems within a phase; higher runs first.
type Priority uint16

const (
	PriorityLowest  Priority = 200
	PriorityLow     Priority = 500
	PriorityNormal  Priority = 600
	PriorityHigh    Priority = 1000
	PriorityHighest Priority = 1300
)

// Frame is the per-frame state shared by every system of one RunFrame call.
// Earlier systems may fill fields read by later ones; the clock system sets
// Ticked before the fixed update phase is considered.
type Frame struct {
	Number  uint64
	Elapsed time.Duration

	Ticked   bool
	Tick     uint64
	Progress float64
}

type funcSystem struct {
	name     string
	phase    Phase
	priority Priority
	run      func(*Frame) error
}

// Func adapts a plain function into a System.
func Func(name string, phase Phase, priority Priority, run func(*Frame) error) System {
	return &funcSystem{name: name, phase: phase, priority: priority, run: run}
}

func (s *funcSystem) Name() string       { return s.name }
func (s *funcSystem) Phase() Phase       { return s.phase }
func (s *funcSystem) Priority() Priority { return s.priority }
func (s *funcSystem) Run(f *Frame) error { return s.run(f) }

// Metrics are per-system execution statistics.
type Metrics struct {
	Runs   uint64
	Errors uint64
	Last   time.Duration
	Total  time.Duration
}

func (m Metrics) Average() time.Duration {
	if m.Runs == 0 {
		return 0
	}
	return m.Total / time.Duration(m.Runs)
}

// ManagerMetrics summarizes the whole manager.
type ManagerMetrics struct {
	RegisteredSystems int
	EnabledSystems    int
	Frames            uint64
	TotalUpdateTime   time.Duration
	LastUpdateTime    time.Duration
}
