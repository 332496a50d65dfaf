package bvh

import "github.com/achilleasa/starmap/geom"

// NodeFlag describes the state of an arena slot.
type NodeFlag uint8

const (
	// The slot holds a live node.
	FlagValid NodeFlag = 1 << iota
	// The node is a leaf holding a single object id; otherwise it is a fork
	// holding two child indices.
	FlagLeaf
)

// InvalidIndex marks an unset node link or a failed allocation.
const InvalidIndex int32 = -1

// Child links of a fork node.
type forkData struct {
	Left  int32
	Right int32
}

// Node is a slot in the tree node arena. Nodes refer to each other by arena
// index only.
//
// The payload is a tagged union: leaves carry an object id, forks carry two
// child indices. The accessors below check the tag so callers never read the
// wrong variant.
type Node[K comparable] struct {
	Parent int32
	Flags  NodeFlag
	AABB   geom.Box3

	children forkData
	objectID K
}

// IsValid returns true if the slot holds a live node.
func (n *Node[K]) IsValid() bool {
	return n.Flags&FlagValid != 0
}

// IsLeaf returns true if the node is a live leaf.
func (n *Node[K]) IsLeaf() bool {
	return n.IsValid() && n.Flags&FlagLeaf != 0
}

// IsFork returns true if the node is a live fork.
func (n *Node[K]) IsFork() bool {
	return n.IsValid() && n.Flags&FlagLeaf == 0
}

// ObjectID returns the object stored in a leaf. The second return value is
// false for forks and freed slots.
func (n *Node[K]) ObjectID() (K, bool) {
	if !n.IsLeaf() {
		var zero K
		return zero, false
	}
	return n.objectID, true
}

// Children returns the child indices of a fork. The second return value is
// false for leaves and freed slots. Unset links are InvalidIndex.
func (n *Node[K]) Children() (left, right int32, ok bool) {
	if !n.IsFork() {
		return InvalidIndex, InvalidIndex, false
	}
	return n.children.Left, n.children.Right, true
}

func (n *Node[K]) initAsLeaf(id K) {
	var zero forkData
	n.Flags = FlagValid | FlagLeaf
	n.children = zero
	n.objectID = id
}

// initAsFork re-tags the node as a fork with no children. The AABB is kept so
// that it keeps covering the object that used to live here.
func (n *Node[K]) initAsFork() {
	var zero K
	n.Flags = FlagValid
	n.objectID = zero
	n.children = forkData{Left: InvalidIndex, Right: InvalidIndex}
}

func (n *Node[K]) reset() {
	var zero Node[K]
	*n = zero
	n.Parent = InvalidIndex
}
