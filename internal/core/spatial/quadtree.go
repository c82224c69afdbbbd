package spatial

import (
	"context"
	"errors"
	"fmt"

	"github.com/zeusync/tickphys/internal/core/geom"
	"github.com/zeusync/tickphys/pkg/concurrent"
)

// MaxDepth bounds construction; depth 10 is already ~1.4M nodes.
const MaxDepth = 10

// Root is the index of the node covering the whole world.
const Root = 0

var (
	ErrInvalidDepth = errors.New("spatial: quadtree depth out of range")
	ErrInvalidWorld = errors.New("spatial: world size must be positive")
)

// Node is one cell of the tree. Children index into the owning tree's node
// slice and are only meaningful when HasChildren is true.
type Node struct {
	Bounds      geom.Rect2D
	Children    [4]int
	HasChildren bool
	Depth       int
}

// StaticQuadTree is a fully subdivided quadtree stored as an index arena.
// It is immutable after construction and safe for concurrent reads.
type StaticQuadTree struct {
	nodes    []Node
	maxDepth int
}

// NodeCount returns (4^(depth+1) - 1) / 3, the size of a tree of that depth.
func NodeCount(depth int) int {
	if depth < 0 {
		return 0
	}
	return ((1 << (2 * (depth + 1))) - 1) / 3
}

// New builds a tree over [-size/2, +size/2] on both axes whose leaves sit
// maxDepth levels below the root. Depth 0 is a lone root.
func New(worldSize geom.Vec2, maxDepth int) (*StaticQuadTree, error) {
	if maxDepth < 0 || maxDepth > MaxDepth {
		return nil, fmt.Errorf("%w: %d not in [0,%d]", ErrInvalidDepth, maxDepth, MaxDepth)
	}
	if worldSize.X <= 0 || worldSize.Y <= 0 {
		return nil, fmt.Errorf("%w: %gx%g", ErrInvalidWorld, worldSize.X, worldSize.Y)
	}

	half := worldSize.Scale(0.5)
	nodes := make([]Node, 1, NodeCount(maxDepth))
	nodes[Root] = Node{Bounds: geom.NewRect(half.Scale(-1), half)}

	// Breadth-first: every node appended before index i is already queued.
	for i := 0; i < len(nodes); i++ {
		if nodes[i].Depth == maxDepth {
			continue
		}
		first := len(nodes)
		for q, quad := range nodes[i].Bounds.Quadrants() {
			nodes[i].Children[q] = first + q
			nodes = append(nodes, Node{Bounds: quad, Depth: nodes[i].Depth + 1})
		}
		nodes[i].HasChildren = true
	}

	return &StaticQuadTree{nodes: nodes, maxDepth: maxDepth}, nil
}

// MustNew is New for setup code with known-good arguments.
func MustNew(worldSize geom.Vec2, maxDepth int) *StaticQuadTree {
	t, err := New(worldSize, maxDepth)
	if err != nil {
		panic(err)
	}
	return t
}

// BuildAsync constructs the tree on a background goroutine.
func BuildAsync(ctx context.Context, worldSize geom.Vec2, maxDepth int) *concurrent.Future[*StaticQuadTree] {
	return concurrent.Go(ctx, func(ctx context.Context) (*StaticQuadTree, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return New(worldSize, maxDepth)
	})
}

func (t *StaticQuadTree) Len() int              { return len(t.nodes) }
func (t *StaticQuadTree) MaxDepth() int         { return t.maxDepth }
func (t *StaticQuadTree) Bounds() geom.Rect2D   { return t.nodes[Root].Bounds }
func (t *StaticQuadTree) Node(index int) Node   { return t.nodes[index] }
func (t *StaticQuadTree) IsLeaf(index int) bool { return !t.nodes[index].HasChildren }

// SmallestNode descends from the root while exactly one child intersects
// target. When none or several children match, the current node is the
// answer: a target straddling a split belongs to the common ancestor.
//
// A child that fully contains target is always descended into, so a target
// that only touches a split line from one side still reaches its leaf.
func (t *StaticQuadTree) SmallestNode(target geom.Rect2D) int {
	current := Root
	for {
		n := &t.nodes[current]
		if !n.HasChildren {
			return current
		}

		match, matches, contained := -1, 0, -1
		for _, child := range n.Children {
			bounds := t.nodes[child].Bounds
			if !bounds.Intersect(target) {
				continue
			}
			if contained < 0 && bounds.Contains(target) {
				contained = child
			}
			match = child
			matches++
		}

		switch {
		case contained >= 0:
			current = contained
		case matches == 1:
			current = match
		default:
			return current
		}
	}
}

// IntersectingNodes returns every node, internal or leaf, whose bounds
// intersect target, in pre-order. Subtrees that miss target are pruned.
func (t *StaticQuadTree) IntersectingNodes(target geom.Rect2D) []int {
	return t.AppendIntersectingNodes(nil, target)
}

// AppendIntersectingNodes is IntersectingNodes writing into dst.
func (t *StaticQuadTree) AppendIntersectingNodes(dst []int, target geom.Rect2D) []int {
	return t.collect(dst, Root, target)
}

func (t *StaticQuadTree) collect(dst []int, index int, target geom.Rect2D) []int {
	n := &t.nodes[index]
	if !n.Bounds.Intersect(target) {
		return dst
	}
	dst = append(dst, index)
	if n.HasChildren {
		for _, child := range n.Children {
			dst = t.collect(dst, child, target)
		}
	}
	return dst
}
