package spatial

import (
	"context"
	"math/rand"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/tickphys/internal/core/geom"
)

var world = geom.V2(1024, 768)

func TestNodeCount(t *testing.T) {
	for depth := 0; depth <= 6; depth++ {
		tree, err := New(world, depth)
		require.NoError(t, err)
		assert.Equal(t, NodeCount(depth), tree.Len(), "depth %d", depth)
	}
	assert.Equal(t, 1, NodeCount(0))
	assert.Equal(t, 5, NodeCount(1))
	assert.Equal(t, 341, NodeCount(4))
}

func TestNewRejectsBadArguments(t *testing.T) {
	_, err := New(world, -1)
	assert.ErrorIs(t, err, ErrInvalidDepth)
	_, err = New(world, MaxDepth+1)
	assert.ErrorIs(t, err, ErrInvalidDepth)
	_, err = New(geom.V2(0, 10), 2)
	assert.ErrorIs(t, err, ErrInvalidWorld)
	assert.Panics(t, func() { MustNew(world, -3) })
}

func TestTreeStructure(t *testing.T) {
	tree := MustNew(world, 3)

	assert.Equal(t, geom.NewRect(geom.V2(-512, -384), geom.V2(512, 384)), tree.Bounds())
	for i := 0; i < tree.Len(); i++ {
		n := tree.Node(i)
		if !n.HasChildren {
			assert.Equal(t, 3, n.Depth)
			assert.True(t, tree.IsLeaf(i))
			continue
		}
		quads := n.Bounds.Quadrants()
		area := 0.0
		for q, child := range n.Children {
			c := tree.Node(child)
			assert.Equal(t, quads[q], c.Bounds)
			assert.Equal(t, n.Depth+1, c.Depth)
			area += c.Bounds.Area()
		}
		assert.InDelta(t, n.Bounds.Area(), area, 1e-6)
	}
}

func TestDepthZeroIsRootOnly(t *testing.T) {
	tree := MustNew(world, 0)
	target := geom.NewRect(geom.V2(-1, -1), geom.V2(1, 1))

	assert.Equal(t, 1, tree.Len())
	assert.Equal(t, Root, tree.SmallestNode(target))
	assert.Equal(t, []int{Root}, tree.IntersectingNodes(target))
}

func TestSmallestNodeStraddlingStaysAtAncestor(t *testing.T) {
	tree := MustNew(world, 4)

	// Crosses the vertical and horizontal split through the origin.
	assert.Equal(t, Root, tree.SmallestNode(geom.NewRect(geom.V2(-8, -8), geom.V2(8, 8))))

	// Fully inside the top-left quadrant and away from its own splits.
	idx := tree.SmallestNode(geom.NewRect(geom.V2(-500, -380), geom.V2(-490, -370)))
	assert.True(t, tree.IsLeaf(idx))
	assert.Equal(t, 4, tree.Node(idx).Depth)
}

func TestSmallestNodeSplitPointGoesTopLeft(t *testing.T) {
	tree := MustNew(world, 3)

	// A zero-area target on the root's split point touches all four
	// quadrants and is contained by each of them, boundaries included. The
	// first containing child in quadrant order wins, so it descends into
	// TopLeft and ends in the leaf whose far corner is the origin.
	point := geom.NewRect(geom.V2(0, 0), geom.V2(0, 0))
	idx := tree.SmallestNode(point)

	require.True(t, tree.IsLeaf(idx))
	leaf := tree.Node(idx)
	assert.Equal(t, 3, leaf.Depth)
	assert.Equal(t, geom.V2(0, 0), leaf.Bounds.Max)
	assert.True(t, tree.Node(tree.Node(Root).Children[geom.TopLeft]).Bounds.Contains(leaf.Bounds))
	assert.Contains(t, tree.IntersectingNodes(point), idx)

	// The same point with any width stays at the root.
	assert.Equal(t, Root, tree.SmallestNode(geom.NewRect(geom.V2(-1, 0), geom.V2(1, 0))))
}

func TestSmallestNodeExactLeaf(t *testing.T) {
	tree := MustNew(world, 3)
	for i := 0; i < tree.Len(); i++ {
		if !tree.IsLeaf(i) {
			continue
		}
		assert.Equal(t, i, tree.SmallestNode(tree.Node(i).Bounds), "leaf %d", i)
	}
}

func TestSmallestNodeWithinIntersecting(t *testing.T) {
	tree := MustNew(world, 5)
	rng := rand.New(rand.NewSource(99))
	bounds := tree.Bounds()

	for i := 0; i < 2000; i++ {
		x := bounds.Min.X + rng.Float64()*1000
		y := bounds.Min.Y + rng.Float64()*740
		target := geom.NewRect(geom.V2(x, y), geom.V2(x+rng.Float64()*24, y+rng.Float64()*24))

		smallest := tree.SmallestNode(target)
		require.True(t, tree.Node(smallest).Bounds.Intersect(target))

		nodes := tree.IntersectingNodes(target)
		assert.Contains(t, nodes, smallest)
		assert.Equal(t, Root, nodes[0])
	}
}

func TestIntersectingNodesPreOrderAndPruned(t *testing.T) {
	tree := MustNew(world, 2)
	target := geom.NewRect(geom.V2(-500, -380), geom.V2(-490, -370))

	nodes := tree.IntersectingNodes(target)
	require.Len(t, nodes, 3)
	assert.Equal(t, Root, nodes[0])
	assert.Equal(t, tree.Node(Root).Children[geom.TopLeft], nodes[1])
	assert.True(t, tree.IsLeaf(nodes[2]))

	seen := map[int]bool{}
	for _, n := range tree.IntersectingNodes(geom.NewRect(geom.V2(-300, -200), geom.V2(300, 200))) {
		assert.False(t, seen[n], "node %d reported twice", n)
		seen[n] = true
	}

	assert.Empty(t, tree.IntersectingNodes(geom.NewRect(geom.V2(600, 600), geom.V2(700, 700))))
}

func TestAppendIntersectingNodesReusesBuffer(t *testing.T) {
	tree := MustNew(world, 3)
	buf := make([]int, 0, 64)
	target := geom.NewRect(geom.V2(10, 10), geom.V2(20, 20))

	buf = tree.AppendIntersectingNodes(buf[:0], target)
	want := tree.IntersectingNodes(target)
	assert.True(t, slices.Equal(want, buf))
}

func TestBuildAsync(t *testing.T) {
	f := BuildAsync(context.Background(), world, 4)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tree, err := f.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, NodeCount(4), tree.Len())

	_, err = BuildAsync(context.Background(), world, -1).Wait(ctx)
	assert.ErrorIs(t, err, ErrInvalidDepth)
}

func BenchmarkIntersectingNodes(b *testing.B) {
	tree := MustNew(world, 6)
	target := geom.NewRect(geom.V2(-20, -20), geom.V2(20, 20))
	buf := make([]int, 0, 128)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf = tree.AppendIntersectingNodes(buf[:0], target)
	}
}
