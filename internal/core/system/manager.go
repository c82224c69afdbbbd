package system

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/zeusync/tickphys/internal/core/observability/log"
)

var (
	ErrDuplicateSystem = errors.New("system: already registered")
	ErrUnknownSystem   = errors.New("system: not registered")
)

type entry struct {
	sys     System
	seq     int
	enabled bool
	metrics Metrics
}

// Manager runs registered systems in a fixed order: by phase, then by
// priority descending, then by registration order. It is driven from a single
// goroutine.
type Manager struct {
	logger  log.Log
	entries map[string]*entry
	order   []*entry
	dirty   bool
	seq     int

	frames  uint64
	total   time.Duration
	last    time.Duration
	onError func(name string, err error)
}

func NewManager(logger log.Log) *Manager {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Manager{
		logger:  logger.With(log.String("component", "system_manager")),
		entries: make(map[string]*entry),
	}
}

func (m *Manager) Register(systems ...System) error {
	for _, s := range systems {
		if _, ok := m.entries[s.Name()]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateSystem, s.Name())
		}
		e := &entry{sys: s, seq: m.seq, enabled: true}
		m.seq++
		m.entries[s.Name()] = e
		m.order = append(m.order, e)
		m.dirty = true
		m.logger.Debug("System registered",
			log.String("system", s.Name()),
			log.String("phase", s.Phase().String()),
			log.Int("priority", int(s.Priority())),
		)
	}
	return nil
}

func (m *Manager) Unregister(name string) error {
	e, ok := m.entries[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSystem, name)
	}
	delete(m.entries, name)
	m.order = slices.DeleteFunc(m.order, func(o *entry) bool { return o == e })
	return nil
}

func (m *Manager) Enable(name string) error  { return m.setEnabled(name, true) }
func (m *Manager) Disable(name string) error { return m.setEnabled(name, false) }

func (m *Manager) setEnabled(name string, enabled bool) error {
	e, ok := m.entries[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSystem, name)
	}
	e.enabled = enabled
	return nil
}

func (m *Manager) Has(name string) bool {
	_, ok := m.entries[name]
	return ok
}

// OnError installs a hook called for every failing system run.
func (m *Manager) OnError(fn func(name string, err error)) {
	m.onError = fn
}

func (m *Manager) sort() {
	if !m.dirty {
		return
	}
	slices.SortStableFunc(m.order, func(a, b *entry) int {
		if a.sys.Phase() != b.sys.Phase() {
			return int(a.sys.Phase()) - int(b.sys.Phase())
		}
		if a.sys.Priority() != b.sys.Priority() {
			return int(b.sys.Priority()) - int(a.sys.Priority())
		}
		return a.seq - b.seq
	})
	m.dirty = false
}

// ExecutionOrder lists system names in run order, disabled ones included.
func (m *Manager) ExecutionOrder() []string {
	m.sort()
	names := make([]string, len(m.order))
	for i, e := range m.order {
		names[i] = e.sys.Name()
	}
	return names
}

// RunFrame runs every enabled system once. A failing system does not stop
// the frame; all errors are joined into the result.
func (m *Manager) RunFrame(f *Frame) error {
	m.sort()
	start := time.Now()

	var errs []error
	for _, e := range m.order {
		if !e.enabled {
			continue
		}
		if e.sys.Phase() == PhaseFixedUpdate && !f.Ticked {
			continue
		}

		began := time.Now()
		err := e.sys.Run(f)
		took := time.Since(began)

		e.metrics.Runs++
		e.metrics.Last = took
		e.metrics.Total += took
		if err != nil {
			e.metrics.Errors++
			err = fmt.Errorf("%s: %w", e.sys.Name(), err)
			errs = append(errs, err)
			m.logger.Warn("System failed",
				log.String("system", e.sys.Name()),
				log.Uint64("frame", f.Number),
				log.Error(err),
			)
			if m.onError != nil {
				m.onError(e.sys.Name(), err)
			}
		}
	}

	m.frames++
	m.last = time.Since(start)
	m.total += m.last
	return errors.Join(errs...)
}

func (m *Manager) SystemMetrics(name string) (Metrics, bool) {
	e, ok := m.entries[name]
	if !ok {
		return Metrics{}, false
	}
	return e.metrics, true
}

func (m *Manager) Metrics() ManagerMetrics {
	enabled := 0
	for _, e := range m.entries {
		if e.enabled {
			enabled++
		}
	}
	return ManagerMetrics{
		RegisteredSystems: len(m.entries),
		EnabledSystems:    enabled,
		Frames:            m.frames,
		TotalUpdateTime:   m.total,
		LastUpdateTime:    m.last,
	}
}
