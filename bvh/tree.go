package bvh

import (
	"github.com/achilleasa/starmap/geom"
	"github.com/achilleasa/starmap/log"
	"github.com/achilleasa/starmap/types"
)

// Utility is implemented by the client storage that owns the objects placed
// in a Tree. The tree only reads object radius and position and writes back
// the index of the leaf that currently holds each object.
type Utility[K comparable] interface {
	// Called whenever the leaf holding id changes. nodeIndex is
	// InvalidIndex while the object is being moved to a new leaf.
	SetObjectData(id K, nodeIndex int32)

	ObjectRadius(id K) float32
	Position(id K) types.Vec3
}

// Tree is an incrementally built AABB tree. Objects are inserted one at a
// time and descend into whichever subtree grows the least.
type Tree[K comparable, U Utility[K]] struct {
	logger log.Logger

	util U
	opts Options

	nodes     []Node[K]
	freeNodes []int32

	// Leaf allocated most recently by insertAt.
	lastLeaf int32
}

// NewTree creates an empty tree that preallocates room for nodeCountHint
// nodes. The utility is held by value.
func NewTree[K comparable, U Utility[K]](nodeCountHint int32, util U) *Tree[K, U] {
	return NewTreeWithOptions[K](Options{NodeCountHint: nodeCountHint}, util)
}

// NewTreeWithOptions creates an empty tree using the supplied arena options.
func NewTreeWithOptions[K comparable, U Utility[K]](opts Options, util U) *Tree[K, U] {
	hint := opts.NodeCountHint
	if hint < 0 {
		hint = 0
	}
	if opts.MaxNodes > 0 && hint > opts.MaxNodes {
		hint = opts.MaxNodes
	}

	return &Tree[K, U]{
		logger:    log.New("aabb-tree"),
		util:      util,
		opts:      opts,
		nodes:     make([]Node[K], 0, hint),
		freeNodes: make([]int32, 0, hint),
		lastLeaf:  InvalidIndex,
	}
}

// Empty returns true if the tree holds no objects.
func (t *Tree[K, U]) Empty() bool {
	return len(t.nodes) == 0 || !t.nodes[0].IsValid()
}

// nodeCount returns the size of the node arena including freed slots.
func (t *Tree[K, U]) nodeCount() int {
	return len(t.nodes)
}

// Node returns a copy of the node at the given arena index. Freed slots
// yield ErrInvalidNode.
func (t *Tree[K, U]) Node(index int32) (Node[K], error) {
	if index < 0 || int(index) >= len(t.nodes) {
		return Node[K]{}, ErrIndexOutOfRange
	}
	if !t.nodes[index].IsValid() {
		return Node[K]{}, ErrInvalidNode
	}
	return t.nodes[index], nil
}

// SetNodeObjectID replaces the object stored in a leaf. Calls that target a
// fork, a freed slot or an out of range index are ignored.
func (t *Tree[K, U]) SetNodeObjectID(index int32, id K) {
	if index < 0 || int(index) >= len(t.nodes) || !t.nodes[index].IsLeaf() {
		return
	}
	t.nodes[index].objectID = id
}

// InsertObject adds an object to the tree and returns the index of the leaf
// that holds it.
//
// An insertion needs at most two new nodes. When the arena is capped by
// Options.MaxNodes and cannot supply them, InsertObject returns
// (InvalidIndex, ErrArenaFull) before touching the tree.
func (t *Tree[K, U]) InsertObject(id K) (int32, error) {
	atIndex, need := InvalidIndex, 1
	if !t.Empty() {
		atIndex, need = 0, 2
	}
	if !t.canAllocate(need) {
		t.logger.Warningf("unable to insert object %v: node arena is full (%d nodes)", id, len(t.nodes))
		return InvalidIndex, ErrArenaFull
	}

	t.lastLeaf = InvalidIndex
	if root := t.insertAt(id, atIndex, InvalidIndex); root < 0 {
		return InvalidIndex, ErrInvalidNode
	}

	// The incoming object always gets the last leaf allocated by an
	// insertion.
	return t.lastLeaf, nil
}

// Clear frees every node. The arena keeps its capacity and node 0 is the
// first slot handed out by the next insertion.
func (t *Tree[K, U]) Clear() {
	t.freeNodes = t.freeNodes[:0]
	for index := int32(len(t.nodes)) - 1; index >= 0; index-- {
		t.freeNode(index)
	}
}

// Walk visits every reachable node in pre-order, left before right. Returning
// false from fn stops the walk.
func (t *Tree[K, U]) Walk(fn func(index int32, node Node[K], depth int) bool) {
	if t.Empty() {
		return
	}
	t.walk(0, 0, fn)
}

func (t *Tree[K, U]) walk(index int32, depth int, fn func(int32, Node[K], int) bool) bool {
	node := t.nodes[index]
	if !fn(index, node, depth) {
		return false
	}
	if left, right, isFork := node.Children(); isFork {
		if left >= 0 && !t.walk(left, depth+1, fn) {
			return false
		}
		if right >= 0 && !t.walk(right, depth+1, fn) {
			return false
		}
	}
	return true
}

// Stats collects node counts and the depth of the deepest leaf.
func (t *Tree[K, U]) Stats() Stats {
	s := Stats{Nodes: len(t.nodes), Free: len(t.freeNodes)}
	t.Walk(func(_ int32, node Node[K], depth int) bool {
		if node.IsLeaf() {
			s.Leaves++
			s.Objects++
		} else {
			s.Forks++
		}
		if depth > s.MaxDepth {
			s.MaxDepth = depth
		}
		return true
	})
	return s
}

// SphereTest returns a sphere intersection query bound to this tree.
func (t *Tree[K, U]) SphereTest() SphereTest[K] {
	return NewSphereTest[K](t)
}

// FrustumSweep returns a frustum culling query bound to this tree.
func (t *Tree[K, U]) FrustumSweep() FrustumSweep[K] {
	return NewFrustumSweep[K](t)
}

// BoxSweep returns a box overlap query bound to this tree.
func (t *Tree[K, U]) BoxSweep() BoxSweep[K] {
	return NewBoxSweep[K](t)
}

// Bounds implements Graph.
func (t *Tree[K, U]) Bounds(index int32) geom.Box3 {
	return t.nodes[index].AABB
}

// IsLeaf implements Graph.
func (t *Tree[K, U]) IsLeaf(index int32) bool {
	return t.nodes[index].IsLeaf()
}

// EachChild implements Graph.
func (t *Tree[K, U]) EachChild(index int32, fn func(child int32) bool) bool {
	left, right, isFork := t.nodes[index].Children()
	if !isFork {
		return true
	}
	if left >= 0 && !fn(left) {
		return false
	}
	if right >= 0 && !fn(right) {
		return false
	}
	return true
}

// EachObject implements Graph. A leaf holds exactly one object whose bounds
// are the leaf bounds.
func (t *Tree[K, U]) EachObject(index int32, fn func(id K, bounds geom.Box3) bool) bool {
	node := &t.nodes[index]
	if id, isLeaf := node.ObjectID(); isLeaf {
		return fn(id, node.AABB)
	}
	return true
}

// insertAt places id in the subtree rooted at atIndex and returns the index
// of that subtree's root. A negative atIndex denotes an empty slot.
func (t *Tree[K, U]) insertAt(id K, atIndex, parentIndex int32) int32 {
	if atIndex < 0 {
		if atIndex = t.allocateNode(); atIndex < 0 {
			return InvalidIndex
		}

		node := &t.nodes[atIndex]
		node.initAsLeaf(id)
		node.AABB = t.objectAABB(id)
		t.util.SetObjectData(id, atIndex)
		t.lastLeaf = atIndex
	} else {
		node := &t.nodes[atIndex]
		if !node.IsValid() {
			return InvalidIndex
		}

		if node.IsLeaf() {
			// Split the leaf: its current object moves to a new left leaf
			// and the incoming object goes to a new right leaf.
			prevID := node.objectID
			t.util.SetObjectData(prevID, InvalidIndex)
			node.initAsFork()

			// Allocations may grow the arena so the node is re-indexed
			// after each call.
			left := t.insertAt(prevID, InvalidIndex, atIndex)
			t.nodes[atIndex].children.Left = left
			right := t.insertAt(id, InvalidIndex, atIndex)
			t.nodes[atIndex].children.Right = right
		} else {
			left, right := node.children.Left, node.children.Right
			objBox := t.objectAABB(id)
			leftBox := t.nodes[left].AABB.BoundTo(objBox)
			rightBox := t.nodes[right].AABB.BoundTo(objBox)

			if leftBox.Volume() <= rightBox.Volume() {
				t.nodes[atIndex].children.Left = t.insertAt(id, left, atIndex)
			} else {
				t.nodes[atIndex].children.Right = t.insertAt(id, right, atIndex)
			}
		}
	}

	// Grow the parent so it keeps covering this subtree.
	if parentIndex >= 0 {
		t.nodes[parentIndex].AABB.Merge(t.nodes[atIndex].AABB)
	}
	t.nodes[atIndex].Parent = parentIndex

	return atIndex
}

func (t *Tree[K, U]) objectAABB(id K) geom.Box3 {
	return geom.CubeAround(t.util.Position(id), t.util.ObjectRadius(id))
}

func (t *Tree[K, U]) canAllocate(count int) bool {
	if t.opts.MaxNodes <= 0 {
		return true
	}
	available := len(t.freeNodes) + int(t.opts.MaxNodes) - len(t.nodes)
	return available >= count
}

// allocateNode returns a free slot, reusing freed nodes first. It returns
// InvalidIndex when the arena has reached Options.MaxNodes.
func (t *Tree[K, U]) allocateNode() int32 {
	var index int32
	if n := len(t.freeNodes); n > 0 {
		index = t.freeNodes[n-1]
		t.freeNodes = t.freeNodes[:n-1]
	} else {
		if t.opts.MaxNodes > 0 && int32(len(t.nodes)) >= t.opts.MaxNodes {
			return InvalidIndex
		}
		index = int32(len(t.nodes))
		t.nodes = append(t.nodes, Node[K]{})
	}

	t.nodes[index].reset()
	t.nodes[index].Flags = FlagValid
	return index
}

func (t *Tree[K, U]) freeNode(index int32) {
	if index < 0 {
		return
	}
	t.nodes[index].reset()
	t.freeNodes = append(t.freeNodes, index)
}
