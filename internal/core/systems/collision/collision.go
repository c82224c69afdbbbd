package collision

import (
	"fmt"
	"iter"

	"github.com/zeusync/tickphys/internal/core/geom"
	"github.com/zeusync/tickphys/internal/core/models"
	"github.com/zeusync/tickphys/internal/core/spatial"
	"github.com/zeusync/tickphys/pkg/generic"
)

// Category names a disjoint set of entities, e.g. "player" or "ground".
type Category string

// Kind is the category pair an event was detected for. A and B are expected
// to differ; the detector does not check.
type Kind struct {
	A, B Category
}

func Pair(a, b Category) Kind { return Kind{A: a, B: b} }

func (k Kind) String() string { return fmt.Sprintf("collision.%s.%s", k.A, k.B) }

// Event reports that EntityA (category Kind.A) overlaps EntityB (Kind.B).
type Event struct {
	Kind    Kind
	EntityA models.EntityID
	EntityB models.EntityID
}

// Body is an entity's bounding rectangle at the position used for this frame.
type Body struct {
	ID   models.EntityID
	Rect geom.Rect2D
}

// Stats describes one Detect run.
type Stats struct {
	Buckets int // distinct nodes holding B occupants
	Checks  int // narrow-phase rectangle tests
	Events  int
}

func (s *Stats) add(o Stats) {
	s.Buckets += o.Buckets
	s.Checks += o.Checks
	s.Events += o.Events
}

type buckets map[int][]Body

// Detector runs the broad phase against a static quadtree. The per-run
// spatial index is rebuilt from scratch every call. A Detector is not safe
// for concurrent use; the tree may be shared.
type Detector struct {
	tree    *spatial.StaticQuadTree
	pool    *generic.Pool[buckets]
	scratch []int
}

func NewDetector(tree *spatial.StaticQuadTree) *Detector {
	return &Detector{
		tree: tree,
		pool: generic.NewResetPool(
			func() buckets { return make(buckets) },
			func(b buckets) buckets {
				clear(b)
				return b
			},
		),
		scratch: make([]int, 0, 64),
	}
}

func (d *Detector) Tree() *spatial.StaticQuadTree { return d.tree }

// Detect reports every overlapping (a, b) pair through emit.
//
// Each B body is bucketed in the smallest node that encloses it; each A body
// then walks all nodes it intersects and tests the occupants found there.
// Because a B body lives in exactly one bucket and IntersectingNodes lists a
// node once, a pair is reported at most once per call.
func (d *Detector) Detect(kind Kind, a, b iter.Seq[Body], emit func(Event)) Stats {
	index := d.pool.Get()
	defer d.pool.Put(index)

	var stats Stats
	for body := range b {
		node := d.tree.SmallestNode(body.Rect)
		index[node] = append(index[node], body)
	}
	stats.Buckets = len(index)
	if len(index) == 0 {
		return stats
	}

	for bodyA := range a {
		d.scratch = d.tree.AppendIntersectingNodes(d.scratch[:0], bodyA.Rect)
		for _, node := range d.scratch {
			for _, bodyB := range index[node] {
				if bodyA.ID == bodyB.ID {
					continue
				}
				stats.Checks++
				if bodyA.Rect.Intersect(bodyB.Rect) {
					stats.Events++
					emit(Event{Kind: kind, EntityA: bodyA.ID, EntityB: bodyB.ID})
				}
			}
		}
	}
	return stats
}

// DetectAll runs Detect for every kind and appends the events to dst.
func (d *Detector) DetectAll(dst []Event, kinds []Kind, bodies func(Category) iter.Seq[Body]) ([]Event, Stats) {
	var total Stats
	emit := func(e Event) { dst = append(dst, e) }
	for _, kind := range kinds {
		total.add(d.Detect(kind, bodies(kind.A), bodies(kind.B), emit))
	}
	return dst, total
}

// Deduplicate drops repeated (kind, a, b) triples, keeping first occurrences.
func Deduplicate(events []Event) []Event {
	seen := make(map[Event]struct{}, len(events))
	out := events[:0]
	for _, e := range events {
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}
