package bvh

import (
	"github.com/achilleasa/starmap/geom"
	"github.com/achilleasa/starmap/log"
	"github.com/achilleasa/starmap/types"
)

const (
	defaultObjectsPerLeaf = 8
	defaultMaxDepth       = 8
)

// OctreeOptions configure an Octree.
type OctreeOptions struct {
	// A leaf is split into eight octants once it holds this many objects.
	ObjectsPerLeaf int

	// Leaves at this depth are never split and grow without bound.
	MaxDepth int

	// Number of nodes to preallocate.
	NodeCountHint int
}

type octreeEntry[K comparable] struct {
	id     K
	pos    types.Vec3
	bounds geom.Box3
}

type octreeNode[K comparable] struct {
	flags NodeFlag
	depth int

	// Tight bounds select the octant an object goes into. Loose bounds grow
	// to cover every object below the node.
	tight geom.Box3
	loose geom.Box3

	// Index of the first of eight consecutive children.
	firstChild int32

	objects []octreeEntry[K]
}

func (n *octreeNode[K]) isLeaf() bool {
	return n.flags&FlagLeaf != 0
}

// Octree is a loose octree over a fixed region. Objects are routed to the
// octant whose tight bounds contain their position, so an object belongs to
// exactly one leaf even if its bounds straddle several octants.
type Octree[K comparable, U Utility[K]] struct {
	logger log.Logger
	util   U
	opts   OctreeOptions

	nodes       []octreeNode[K]
	objectCount int
}

// NewOctree creates an octree covering bounds.
func NewOctree[K comparable, U Utility[K]](bounds geom.Box3, util U, opts OctreeOptions) (*Octree[K, U], error) {
	if bounds.Volume() <= 0 {
		return nil, ErrEmptyOctreeBounds
	}
	if opts.ObjectsPerLeaf == 0 {
		opts.ObjectsPerLeaf = defaultObjectsPerLeaf
	} else if opts.ObjectsPerLeaf < 0 {
		return nil, ErrInvalidLeafSize
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = defaultMaxDepth
	}
	if opts.NodeCountHint < 1 {
		opts.NodeCountHint = 1
	}

	o := &Octree[K, U]{
		logger: log.New("octree"),
		util:   util,
		opts:   opts,
		nodes:  make([]octreeNode[K], 1, opts.NodeCountHint),
	}
	o.nodes[0] = octreeNode[K]{
		flags:      FlagValid | FlagLeaf,
		tight:      bounds,
		loose:      bounds,
		firstChild: InvalidIndex,
	}
	return o, nil
}

// InsertObject adds an object and returns the index of the leaf holding it.
func (o *Octree[K, U]) InsertObject(id K) (int32, error) {
	pos := o.util.Position(id)
	if !o.nodes[0].tight.Contains(pos) {
		return InvalidIndex, ErrOutOfBounds
	}

	entry := octreeEntry[K]{
		id:     id,
		pos:    pos,
		bounds: geom.CubeAround(pos, o.util.ObjectRadius(id)),
	}
	leaf := o.insertAt(entry, 0)
	o.objectCount++
	return leaf, nil
}

func (o *Octree[K, U]) insertAt(entry octreeEntry[K], index int32) int32 {
	node := &o.nodes[index]
	if node.isLeaf() {
		if len(node.objects) < o.opts.ObjectsPerLeaf || node.depth >= o.opts.MaxDepth {
			node.objects = append(node.objects, entry)
			node.loose.Merge(entry.bounds)
			o.util.SetObjectData(entry.id, index)
			return index
		}
		o.subdivide(index)
	}

	child := o.octantFor(index, entry.pos)
	leaf := o.insertAt(entry, child)

	// Extend our bounds by the child's bounds.
	o.nodes[index].loose.Merge(o.nodes[child].loose)
	return leaf
}

// subdivide turns a full leaf into a fork with eight child leaves and moves
// its objects into them.
func (o *Octree[K, U]) subdivide(index int32) {
	first := int32(len(o.nodes))
	parent := o.nodes[index]
	center := parent.tight.Center()

	for octant := uint(0); octant < 8; octant++ {
		corner := parent.tight.Min.Select(parent.tight.Max, octant)
		tight := geom.Box3{Min: types.MinVec3(corner, center), Max: types.MaxVec3(corner, center)}
		o.nodes = append(o.nodes, octreeNode[K]{
			flags:      FlagValid | FlagLeaf,
			depth:      parent.depth + 1,
			tight:      tight,
			loose:      tight,
			firstChild: InvalidIndex,
		})
	}

	node := &o.nodes[index]
	node.flags &^= FlagLeaf
	node.firstChild = first
	objects := node.objects
	node.objects = nil

	o.logger.Debugf("split node %d at depth %d into octants %d-%d", index, parent.depth, first, first+7)

	for _, entry := range objects {
		child := o.octantFor(index, entry.pos)
		o.insertAt(entry, child)
		o.nodes[index].loose.Merge(o.nodes[child].loose)
	}
}

// octantFor returns the first child of a fork whose tight bounds contain pos.
// Points on a shared face go to the lower octant.
func (o *Octree[K, U]) octantFor(index int32, pos types.Vec3) int32 {
	first := o.nodes[index].firstChild
	for child := first; child < first+8; child++ {
		if o.nodes[child].tight.Contains(pos) {
			return child
		}
	}

	// Only reachable through float rounding at the outer faces.
	center := o.nodes[index].tight.Center()
	var octant int32
	for axis := 0; axis < 3; axis++ {
		if pos[axis] > center[axis] {
			octant |= 1 << uint(axis)
		}
	}
	return first + octant
}

// Len returns the number of objects in the octree.
func (o *Octree[K, U]) Len() int {
	return o.objectCount
}

// Empty implements Graph.
func (o *Octree[K, U]) Empty() bool {
	return o.objectCount == 0
}

// Bounds implements Graph. It returns the loose bounds of the node.
func (o *Octree[K, U]) Bounds(index int32) geom.Box3 {
	return o.nodes[index].loose
}

// tightBounds returns the octant covered by the node.
func (o *Octree[K, U]) tightBounds(index int32) geom.Box3 {
	return o.nodes[index].tight
}

// IsLeaf implements Graph.
func (o *Octree[K, U]) IsLeaf(index int32) bool {
	return o.nodes[index].isLeaf()
}

// EachChild implements Graph. Empty leaves are skipped.
func (o *Octree[K, U]) EachChild(index int32, fn func(child int32) bool) bool {
	node := &o.nodes[index]
	if node.isLeaf() {
		return true
	}
	for child := node.firstChild; child < node.firstChild+8; child++ {
		if c := &o.nodes[child]; c.isLeaf() && len(c.objects) == 0 {
			continue
		}
		if !fn(child) {
			return false
		}
	}
	return true
}

// EachObject implements Graph.
func (o *Octree[K, U]) EachObject(index int32, fn func(id K, bounds geom.Box3) bool) bool {
	for _, entry := range o.nodes[index].objects {
		if !fn(entry.id, entry.bounds) {
			return false
		}
	}
	return true
}

// Stats collects node counts and the depth of the deepest leaf.
func (o *Octree[K, U]) Stats() Stats {
	s := Stats{Nodes: len(o.nodes), Objects: o.objectCount}
	for i := range o.nodes {
		node := &o.nodes[i]
		if node.isLeaf() {
			s.Leaves++
		} else {
			s.Forks++
		}
		if node.depth > s.MaxDepth {
			s.MaxDepth = node.depth
		}
	}
	return s
}

// SphereTest returns a sphere intersection query bound to this octree.
func (o *Octree[K, U]) SphereTest() SphereTest[K] {
	return NewSphereTest[K](o)
}

// FrustumSweep returns a frustum culling query bound to this octree.
func (o *Octree[K, U]) FrustumSweep() FrustumSweep[K] {
	return NewFrustumSweep[K](o)
}

// BoxSweep returns a box overlap query bound to this octree.
func (o *Octree[K, U]) BoxSweep() BoxSweep[K] {
	return NewBoxSweep[K](o)
}
