package bvh

import (
	"time"

	"github.com/achilleasa/starmap/geom"
	"github.com/achilleasa/starmap/log"
	"github.com/achilleasa/starmap/types"
)

// StaticUtility is implemented by the client storage that owns the objects
// partitioned by BuildStatic. Object bounds are the box spanning
// [-HalfDimensions, HalfDimensions] rebounded by Transform.
type StaticUtility[K comparable] interface {
	SetObjectData(id K, nodeIndex int32)
	HalfDimensions(id K) types.Vec3
	Transform(id K) types.Mat4
}

// StaticNode is a node of a StaticGraph. Forks link to two children; leaves
// own the object range [Start, Start+Count) of StaticGraph.Objects.
type StaticNode struct {
	Parent int32
	Flags  NodeFlag
	AABB   geom.Box3

	Left  int32
	Right int32

	Start int32
	Count int32
}

// IsLeaf returns true if the node is a live leaf.
func (n *StaticNode) IsLeaf() bool {
	return n.Flags&FlagValid != 0 && n.Flags&FlagLeaf != 0
}

// StaticGraph is a BVH built in one pass over a known set of objects.
type StaticGraph[K comparable] struct {
	Nodes   []StaticNode
	Objects []K

	// Object bounds, parallel to Objects.
	bounds []geom.Box3
}

// StaticOptions configure BuildStatic.
type StaticOptions struct {
	// A range holding fewer than this many objects becomes a leaf.
	ObjectsPerNode int

	// Split strategy for forks. Defaults to MedianSplit.
	Strategy SplitStrategy
}

type staticBuilder[K comparable, U StaticUtility[K]] struct {
	logger log.Logger
	util   U
	opts   StaticOptions
	graph  *StaticGraph[K]
	stats  Stats
}

// BuildStatic partitions objects into a balanced BVH. The split axis cycles
// X, Y, Z down the tree. The input slice is copied; the graph keeps objects
// ordered so that every leaf owns a contiguous range.
func BuildStatic[K comparable, U StaticUtility[K]](objects []K, util U, opts StaticOptions) (*StaticGraph[K], error) {
	if opts.ObjectsPerNode < 1 {
		return nil, ErrInvalidLeafSize
	}
	if opts.Strategy == nil {
		opts.Strategy = MedianSplit
	}

	b := &staticBuilder[K, U]{
		logger: log.New("static-bvh"),
		util:   util,
		opts:   opts,
		graph: &StaticGraph[K]{
			Nodes:   make([]StaticNode, 0, len(objects)),
			Objects: append([]K(nil), objects...),
			bounds:  make([]geom.Box3, len(objects)),
		},
	}

	for i, id := range b.graph.Objects {
		half := util.HalfDimensions(id)
		box := geom.Box3{Min: half.Mul(-1), Max: half}
		b.graph.bounds[i] = *box.Rotate(util.Transform(id))
	}

	start := time.Now()
	if len(objects) > 0 {
		b.partition(InvalidIndex, 0, int32(len(objects)), XAxis, 0)
	}
	b.stats.Nodes = len(b.graph.Nodes)
	b.logger.Debugf(
		"static BVH build time: %d ms, maxDepth: %d, nodes: %d, leafs: %d",
		time.Since(start).Nanoseconds()/1e6,
		b.stats.MaxDepth, b.stats.Nodes, b.stats.Leaves,
	)
	return b.graph, nil
}

// partition builds the subtree for the object range [start, end) and returns
// the index of its root.
func (b *staticBuilder[K, U]) partition(parentIndex, start, end int32, axis Axis, depth int) int32 {
	if depth > b.stats.MaxDepth {
		b.stats.MaxDepth = depth
	}

	g := b.graph
	index := int32(len(g.Nodes))
	g.Nodes = append(g.Nodes, StaticNode{
		Parent: parentIndex,
		Flags:  FlagValid,
		AABB:   geom.InvertedBox3(),
		Left:   InvalidIndex,
		Right:  InvalidIndex,
	})

	count := end - start
	if int(count) < b.opts.ObjectsPerNode || count <= 1 {
		b.createLeaf(index, start, end)
	} else {
		b.stats.Forks++
		items := &splitRange[K]{graph: g, start: start, end: end}
		mid := b.opts.Strategy.Partition(items, axis)
		if mid <= 0 || mid >= int(count) {
			mid = MedianSplit.Partition(items, axis)
		}

		left := b.partition(index, start, start+int32(mid), axis.Next(), depth+1)
		right := b.partition(index, start+int32(mid), end, axis.Next(), depth+1)
		g.Nodes[index].Left = left
		g.Nodes[index].Right = right
	}

	// Children merge into their parent on the way back up.
	if parentIndex >= 0 {
		g.Nodes[parentIndex].AABB.Merge(g.Nodes[index].AABB)
	}
	return index
}

func (b *staticBuilder[K, U]) createLeaf(index, start, end int32) {
	g := b.graph
	node := &g.Nodes[index]
	node.Flags |= FlagLeaf
	node.Start = start
	node.Count = end - start

	for i := start; i < end; i++ {
		node.AABB.Merge(g.bounds[i])
		b.util.SetObjectData(g.Objects[i], index)
	}

	b.stats.Leaves++
	b.stats.Objects += int(node.Count)
}

// Empty implements Graph.
func (g *StaticGraph[K]) Empty() bool {
	return len(g.Nodes) == 0
}

// Bounds implements Graph.
func (g *StaticGraph[K]) Bounds(index int32) geom.Box3 {
	return g.Nodes[index].AABB
}

// IsLeaf implements Graph.
func (g *StaticGraph[K]) IsLeaf(index int32) bool {
	return g.Nodes[index].IsLeaf()
}

// EachChild implements Graph.
func (g *StaticGraph[K]) EachChild(index int32, fn func(child int32) bool) bool {
	node := &g.Nodes[index]
	if node.IsLeaf() {
		return true
	}
	if node.Left >= 0 && !fn(node.Left) {
		return false
	}
	if node.Right >= 0 && !fn(node.Right) {
		return false
	}
	return true
}

// EachObject implements Graph.
func (g *StaticGraph[K]) EachObject(index int32, fn func(id K, bounds geom.Box3) bool) bool {
	node := &g.Nodes[index]
	if !node.IsLeaf() {
		return true
	}
	for i := node.Start; i < node.Start+node.Count; i++ {
		if !fn(g.Objects[i], g.bounds[i]) {
			return false
		}
	}
	return true
}

// objectBounds returns the world space bounds of the object at position i of
// Objects.
func (g *StaticGraph[K]) objectBounds(i int) geom.Box3 {
	return g.bounds[i]
}

// Stats collects node counts and the depth of the deepest leaf.
func (g *StaticGraph[K]) Stats() Stats {
	s := Stats{Nodes: len(g.Nodes)}
	if g.Empty() {
		return s
	}

	var visit func(index int32, depth int)
	visit = func(index int32, depth int) {
		node := &g.Nodes[index]
		if depth > s.MaxDepth {
			s.MaxDepth = depth
		}
		if node.IsLeaf() {
			s.Leaves++
			s.Objects += int(node.Count)
			return
		}
		s.Forks++
		visit(node.Left, depth+1)
		visit(node.Right, depth+1)
	}
	visit(0, 0)
	return s
}

// SphereTest returns a sphere intersection query bound to this graph.
func (g *StaticGraph[K]) SphereTest() SphereTest[K] {
	return NewSphereTest[K](g)
}

// FrustumSweep returns a frustum culling query bound to this graph.
func (g *StaticGraph[K]) FrustumSweep() FrustumSweep[K] {
	return NewFrustumSweep[K](g)
}

// BoxSweep returns a box overlap query bound to this graph.
func (g *StaticGraph[K]) BoxSweep() BoxSweep[K] {
	return NewBoxSweep[K](g)
}
