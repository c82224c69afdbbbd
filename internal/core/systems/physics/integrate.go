package physics

// DefaultGravity is the per-tick downward pull used by the game builds.
const DefaultGravity = 0.75

// ApplyVelocity integrates velocity into EndFrame. Call once per tick.
func ApplyVelocity(b Bodies) {
	for id, v := range b.Velocities.All() {
		if pos := b.Positions.Get(id); pos != nil {
			pos.EndFrame = pos.EndFrame.Add(v.Value.Truncate())
		}
	}
}

// ApplyGravityTick subtracts gravity from Y of every entity marked ApplyGravity.
func ApplyGravityTick(b Bodies, gravity float64) {
	for id := range b.Gravity.IDs() {
		if v := b.Velocities.Get(id); v != nil {
			v.Value.Y -= gravity
		}
	}
}

// ClampTerminalVelocity rescales planar velocity down to each entity's cap.
func ClampTerminalVelocity(b Bodies) {
	for id, limit := range b.Terminal.All() {
		v := b.Velocities.Get(id)
		if v == nil || limit.Max <= 0 {
			continue
		}
		planar := v.Value.Truncate()
		if planar.Length() > limit.Max {
			planar = planar.Normalize().Scale(limit.Max)
			v.Value.X, v.Value.Y = planar.X, planar.Y
		}
	}
}
