package bvh

import (
	"github.com/achilleasa/starmap/geom"
	"github.com/achilleasa/starmap/types"
)

// Graph is a hierarchy of bounding boxes rooted at node 0. Tree, StaticGraph
// and Octree implement it so the same query strategies can walk all three.
type Graph[K comparable] interface {
	// Empty returns true if the graph has no root.
	Empty() bool

	// Bounds returns the box that covers every object below index.
	Bounds(index int32) geom.Box3

	IsLeaf(index int32) bool

	// EachChild invokes fn for every child of index, in order, until fn
	// returns false. It returns false if the iteration was stopped.
	EachChild(index int32, fn func(child int32) bool) bool

	// EachObject invokes fn for every object held by the leaf at index
	// until fn returns false. It returns false if the iteration was stopped.
	EachObject(index int32, fn func(id K, bounds geom.Box3) bool) bool
}

// Culler is the geometry accepted by FrustumSweep. geom.Frustum implements
// it.
type Culler interface {
	TestAABB(box geom.Box3) bool
	TestAABBWithPlane(box geom.Box3, plane geom.FrustumPlane) bool
}

// Overlapper is the geometry accepted by BoxSweep. geom.Box3 implements it.
type Overlapper interface {
	Intersects(box geom.Box3) bool
}

// SweepFunc receives an object that matched a sweep together with its bounds.
// Its return value selects whether the object is counted as a hit.
type SweepFunc[K comparable] func(id K, bounds geom.Box3) bool

// A node level test shared by the sweeps.
type boxTest func(box geom.Box3) bool

// sweep walks g in pre-order, left before right, pruning subtrees whose
// bounds fail test. Objects inside matching leaves are tested again against
// their own bounds before being handed to cb. It returns the number of
// objects for which cb returned true.
func sweep[K comparable](g Graph[K], test boxTest, cb SweepFunc[K]) int {
	if g.Empty() {
		return 0
	}
	return sweepNode(g, 0, test, cb)
}

func sweepNode[K comparable](g Graph[K], index int32, test boxTest, cb SweepFunc[K]) int {
	if !test(g.Bounds(index)) {
		return 0
	}

	count := 0
	if g.IsLeaf(index) {
		g.EachObject(index, func(id K, bounds geom.Box3) bool {
			if test(bounds) && cb(id, bounds) {
				count++
			}
			return true
		})
		return count
	}

	g.EachChild(index, func(child int32) bool {
		if child >= 0 {
			count += sweepNode(g, child, test, cb)
		}
		return true
	})
	return count
}

// find walks g like sweep but stops at the first object for which cb
// returns true.
func find[K comparable](g Graph[K], index int32, test boxTest, cb func(id K) bool) bool {
	if !test(g.Bounds(index)) {
		return false
	}

	found := false
	if g.IsLeaf(index) {
		g.EachObject(index, func(id K, bounds geom.Box3) bool {
			found = test(bounds) && cb(id)
			return !found
		})
		return found
	}

	g.EachChild(index, func(child int32) bool {
		found = child >= 0 && find(g, child, test, cb)
		return !found
	})
	return found
}

// SphereTest queries a graph for objects whose bounds intersect a sphere.
type SphereTest[K comparable] struct {
	g Graph[K]
}

// NewSphereTest binds a sphere query to g.
func NewSphereTest[K comparable](g Graph[K]) SphereTest[K] {
	return SphereTest[K]{g: g}
}

// Intersects returns true if at least one object intersects the sphere.
func (q SphereTest[K]) Intersects(center types.Vec3, radius float32) bool {
	return q.IntersectsFunc(center, radius, func(K) bool { return true })
}

// IntersectsFunc invokes cb for intersecting objects until cb returns true.
// It returns true if cb accepted an object; the remaining branches are not
// visited.
func (q SphereTest[K]) IntersectsFunc(center types.Vec3, radius float32, cb func(id K) bool) bool {
	if q.g.Empty() {
		return false
	}
	return find(q.g, 0, sphereTest(center, radius), cb)
}

// Sweep invokes cb for every intersecting object and returns the number of
// objects that cb accepted.
func (q SphereTest[K]) Sweep(center types.Vec3, radius float32, cb SweepFunc[K]) int {
	return sweep(q.g, sphereTest(center, radius), cb)
}

func sphereTest(center types.Vec3, radius float32) boxTest {
	return func(box geom.Box3) bool {
		return box.IntersectsWithSphere(center, radius)
	}
}

// FrustumSweep queries a graph for objects inside a view frustum.
type FrustumSweep[K comparable] struct {
	g Graph[K]
}

// NewFrustumSweep binds a frustum query to g.
func NewFrustumSweep[K comparable](g Graph[K]) FrustumSweep[K] {
	return FrustumSweep[K]{g: g}
}

// Sweep invokes cb for every object that passes all six frustum planes and
// returns the number of objects that cb accepted. The frustum must already be
// transformed into the space of the graph.
func (q FrustumSweep[K]) Sweep(frustum Culler, cb SweepFunc[K]) int {
	if q.g.Empty() {
		return 0
	}
	return sweep(q.g, frustum.TestAABB, cb)
}

// SweepPlane is like Sweep but only tests a single frustum plane. Culling can
// be spread over several calls this way.
func (q FrustumSweep[K]) SweepPlane(frustum Culler, plane geom.FrustumPlane, cb SweepFunc[K]) int {
	if q.g.Empty() {
		return 0
	}
	return sweep(q.g, func(box geom.Box3) bool {
		return frustum.TestAABBWithPlane(box, plane)
	}, cb)
}

// BoxSweep queries a graph for objects that overlap a box.
type BoxSweep[K comparable] struct {
	g Graph[K]
}

// NewBoxSweep binds a box query to g.
func NewBoxSweep[K comparable](g Graph[K]) BoxSweep[K] {
	return BoxSweep[K]{g: g}
}

// Sweep invokes cb for every object overlapping box and returns the number of
// objects that cb accepted.
func (q BoxSweep[K]) Sweep(box Overlapper, cb SweepFunc[K]) int {
	if q.g.Empty() {
		return 0
	}
	return sweep(q.g, box.Intersects, cb)
}
