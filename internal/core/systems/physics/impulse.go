package physics

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/tickphys/internal/core/geom"
	"github.com/zeusync/tickphys/internal/core/models"
)

// Impulse is a one-shot velocity contribution. Impulses sharing a Source in
// one summation pass collapse to the last one sent.
type Impulse struct {
	Target   models.EntityID
	Amount   geom.Vec3
	Absolute bool
	Source   int
}

// SourceKey derives a stable source identifier from a contributor name.
func SourceKey(name string) int {
	return int(xxhash.Sum64String(name) >> 1)
}

// EntitySourceKey derives a source identifier scoped to one entity, for
// contributors that fire once per entity per frame ("bounce" on every box).
func EntitySourceKey(name string, id models.EntityID) int {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(id))
	d := xxhash.New()
	_, _ = d.WriteString(name)
	_, _ = d.Write(buf[:])
	return int(d.Sum64() >> 1)
}

// SummationPolicy decides how absolute impulses for one target interact.
type SummationPolicy uint8

const (
	// FirstAbsoluteWins: relative impulses add up until the first absolute
	// impulse for the target, which replaces the velocity; everything after it
	// for that target is dropped.
	FirstAbsoluteWins SummationPolicy = iota
	// LastAbsoluteWins: if any absolute impulse targets an entity, the last
	// one in pass order sets the velocity and relative impulses are ignored.
	// The result does not depend on where relatives sit in the pass.
	LastAbsoluteWins
)

func (p SummationPolicy) String() string {
	switch p {
	case FirstAbsoluteWins:
		return "first-absolute-wins"
	case LastAbsoluteWins:
		return "last-absolute-wins"
	default:
		return fmt.Sprintf("policy(%d)", uint8(p))
	}
}

// ParseSummationPolicy accepts the String forms.
func ParseSummationPolicy(s string) (SummationPolicy, error) {
	switch s {
	case "", "first-absolute-wins":
		return FirstAbsoluteWins, nil
	case "last-absolute-wins":
		return LastAbsoluteWins, nil
	default:
		return FirstAbsoluteWins, fmt.Errorf("unknown summation policy %q", s)
	}
}

// SummaryStats counts what one summation pass did.
type SummaryStats struct {
	Received int // impulses read
	Kept     int // after source deduplication
	Applied  int
	Skipped  int // target has no Velocity, e.g. despawned
	Dropped  int // discarded by the absolute rule
}

// Dedupe keeps the last impulse per source. The result is ordered by the
// first appearance of each source.
func Dedupe(impulses []Impulse) []Impulse {
	slot := make(map[int]int, len(impulses))
	out := make([]Impulse, 0, len(impulses))
	for _, imp := range impulses {
		if i, ok := slot[imp.Source]; ok {
			out[i] = imp
			continue
		}
		slot[imp.Source] = len(out)
		out = append(out, imp)
	}
	return out
}

// SumImpulses applies one pass of impulses to velocities. Missing targets
// are skipped, never fatal: despawn and delivery are not synchronized.
func SumImpulses(impulses []Impulse, velocities *models.Store[Velocity], policy SummationPolicy) SummaryStats {
	stats := SummaryStats{Received: len(impulses)}
	kept := Dedupe(impulses)
	stats.Kept = len(kept)

	if policy == LastAbsoluteWins {
		sumLastAbsolute(kept, velocities, &stats)
		return stats
	}

	absolute := make(map[models.EntityID]struct{})
	for _, imp := range kept {
		v := velocities.Get(imp.Target)
		if v == nil {
			stats.Skipped++
			continue
		}
		if _, done := absolute[imp.Target]; done {
			stats.Dropped++
			continue
		}
		if imp.Absolute {
			v.Value = imp.Amount
			absolute[imp.Target] = struct{}{}
		} else {
			v.Value = v.Value.Add(imp.Amount)
		}
		stats.Applied++
	}
	return stats
}

func sumLastAbsolute(kept []Impulse, velocities *models.Store[Velocity], stats *SummaryStats) {
	last := make(map[models.EntityID]int)
	for i, imp := range kept {
		if imp.Absolute {
			last[imp.Target] = i
		}
	}

	for i, imp := range kept {
		v := velocities.Get(imp.Target)
		if v == nil {
			stats.Skipped++
			continue
		}
		winner, hasAbsolute := last[imp.Target]
		switch {
		case !hasAbsolute:
			v.Value = v.Value.Add(imp.Amount)
		case winner == i:
			v.Value = imp.Amount
		default:
			stats.Dropped++
			continue
		}
		stats.Applied++
	}
}
