package sim

// EntityState is one entity in a Snapshot.
type EntityState struct {
	ID uint64  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// Snapshot is the per-frame telemetry view of the simulation.
type Snapshot struct {
	Frame      uint64        `json:"frame"`
	Ticks      uint64        `json:"ticks"`
	Entities   []EntityState `json:"entities"`
	Collisions int           `json:"collisions"`
	Checks     int           `json:"checks"`
	// Reactions counts handler invocations since the simulation started.
	Reactions uint64 `json:"reactions"`
}

// Snapshot captures every entity with a box at its render position, in
// registry order.
func (s *Simulation) Snapshot() Snapshot {
	snap := Snapshot{
		Frame:      s.frame,
		Ticks:      s.clock.Ticks(),
		Entities:   make([]EntityState, 0, s.world.Boxes.Len()),
		Collisions: s.report.Collisions.Events,
		Checks:     s.report.Collisions.Checks,
		Reactions:  s.bus.GetMetrics().DeliveredHandlers,
	}
	for id := range s.world.Registry.Entities() {
		if !s.world.Boxes.Has(id) {
			continue
		}
		pos, ok := s.world.Bodies.Position(id)
		if !ok {
			continue
		}
		snap.Entities = append(snap.Entities, EntityState{ID: uint64(id), X: pos.X, Y: pos.Y})
	}
	return snap
}
