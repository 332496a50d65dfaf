package bvh

import (
	"math"
	"math/rand"
	"testing"

	"github.com/achilleasa/starmap/geom"
	"github.com/achilleasa/starmap/types"
	"github.com/stretchr/testify/require"
)

func TestTreeEmpty(t *testing.T) {
	tree := NewTree[int](4, newTestStore())
	require.True(t, tree.Empty())
	require.Zero(t, tree.nodeCount())

	_, err := tree.Node(0)
	require.ErrorIs(t, err, ErrIndexOutOfRange)

	called := false
	require.False(t, tree.SphereTest().Intersects(types.Vec3{}, 1e6))
	require.False(t, tree.SphereTest().IntersectsFunc(types.Vec3{}, 1e6, func(int) bool {
		called = true
		return true
	}))
	require.Zero(t, tree.SphereTest().Sweep(types.Vec3{}, 1e6, func(int, geom.Box3) bool {
		called = true
		return true
	}))
	require.False(t, called, "expected callbacks not to be invoked on an empty tree")

	stub := panicGeometry{t}
	require.Zero(t, tree.FrustumSweep().Sweep(stub, nil))
	require.Zero(t, tree.FrustumSweep().SweepPlane(stub, geom.LeftX, nil))
	require.Zero(t, tree.BoxSweep().Sweep(stub, nil))
}

func TestTreeInsertThreeObjects(t *testing.T) {
	store := newTestStore()
	a := store.add(1, types.Vec3{0, 0, 0}, 1)
	b := store.add(2, types.Vec3{10, 0, 0}, 1)
	c := store.add(3, types.Vec3{0, 10, 0}, 1)

	tree := NewTree[int](5, store)

	leaf, err := tree.InsertObject(a)
	require.NoError(t, err)
	require.Equal(t, int32(0), leaf)

	leaf, err = tree.InsertObject(b)
	require.NoError(t, err)
	require.Equal(t, int32(2), leaf)

	// Merging C into A's leaf grows it to 2x12x2 while merging into B's
	// leaf grows it to 12x12x2 so C lands next to A.
	leaf, err = tree.InsertObject(c)
	require.NoError(t, err)
	require.Equal(t, int32(4), leaf)

	require.False(t, tree.Empty())
	require.Equal(t, map[int]int32{a: 3, b: 2, c: 4}, store.leaf)

	stats := tree.Stats()
	require.Equal(t, 3, stats.Leaves)
	require.Equal(t, 2, stats.Forks)
	require.Equal(t, 2, stats.MaxDepth)

	type spec struct {
		index       int32
		parent      int32
		leaf        bool
		left, right int32
		objectID    int
	}
	specs := []spec{
		{index: 0, parent: InvalidIndex, left: 1, right: 2},
		{index: 1, parent: 0, left: 3, right: 4},
		{index: 2, parent: 0, leaf: true, objectID: b},
		{index: 3, parent: 1, leaf: true, objectID: a},
		{index: 4, parent: 1, leaf: true, objectID: c},
	}
	for specIndex, s := range specs {
		node, err := tree.Node(s.index)
		require.NoError(t, err)
		require.Equal(t, s.parent, node.Parent, "[spec %d] parent", specIndex)
		require.Equal(t, s.leaf, node.IsLeaf(), "[spec %d] leaf flag", specIndex)
		if s.leaf {
			id, _ := node.ObjectID()
			require.Equal(t, s.objectID, id, "[spec %d] object id", specIndex)
			continue
		}
		left, right, _ := node.Children()
		require.Equal(t, s.left, left, "[spec %d] left child", specIndex)
		require.Equal(t, s.right, right, "[spec %d] right child", specIndex)
	}

	root, _ := tree.Node(0)
	require.Equal(t, geom.Box3{Min: types.Vec3{-1, -1, -1}, Max: types.Vec3{11, 11, 1}}, root.AABB)

	// Only A's box reaches the origin.
	require.Equal(t, []int{a}, sweepOrder(tree.SphereTest(), types.Vec3{0, 0, 0}, 0.5))

	// The closest points of A, C and B to (5, 0, 0) are at distances 4,
	// sqrt(97) and 4. Results come back in pre-order.
	require.Equal(t, []int{a, c, b}, sweepOrder(tree.SphereTest(), types.Vec3{5, 0, 0}, 10))

	// sqrt(97) is just below 9.85.
	require.Equal(t, []int{a, b}, sweepOrder(tree.SphereTest(), types.Vec3{5, 0, 0}, 9.8))
}

func sweepOrder(q SphereTest[int], center types.Vec3, radius float32) []int {
	var out []int
	q.Sweep(center, radius, func(id int, _ geom.Box3) bool {
		out = append(out, id)
		return true
	})
	return out
}

func TestTreeTieBreakPrefersLeft(t *testing.T) {
	store := newTestStore()
	a := store.add(1, types.Vec3{-5, 0, 0}, 1)
	b := store.add(2, types.Vec3{5, 0, 0}, 1)
	c := store.add(3, types.Vec3{0, 0, 0}, 1)

	tree := NewTree[int](5, store)
	for _, id := range []int{a, b, c} {
		_, err := tree.InsertObject(id)
		require.NoError(t, err)
	}

	// Both candidate merges span 7x2x2.
	left, _ := tree.Node(1)
	require.True(t, left.IsFork(), "expected the left subtree to receive the object")
	right, _ := tree.Node(2)
	require.True(t, right.IsLeaf())

	require.Equal(t, int32(4), store.leaf[c])
	leaf, _ := tree.Node(4)
	require.Equal(t, int32(1), leaf.Parent)
}

func TestTreeArenaFull(t *testing.T) {
	store := newTestStore()
	ids := []int{
		store.add(1, types.Vec3{0, 0, 0}, 1),
		store.add(2, types.Vec3{4, 0, 0}, 1),
		store.add(3, types.Vec3{8, 0, 0}, 1),
	}

	tree := NewTreeWithOptions[int](Options{MaxNodes: 3}, store)
	for _, id := range ids[:2] {
		_, err := tree.InsertObject(id)
		require.NoError(t, err)
	}

	before := tree.Stats()
	writes := store.writes

	leaf, err := tree.InsertObject(ids[2])
	require.ErrorIs(t, err, ErrArenaFull)
	require.Equal(t, InvalidIndex, leaf)

	// A rejected insertion leaves no trace.
	require.Equal(t, before, tree.Stats())
	require.Equal(t, writes, store.writes)
	require.False(t, tree.SphereTest().Intersects(types.Vec3{8, 0, 0}, 0.5))
}

func TestTreeSetNodeObjectID(t *testing.T) {
	store := newTestStore()
	a := store.add(1, types.Vec3{0, 0, 0}, 1)
	b := store.add(2, types.Vec3{5, 0, 0}, 1)

	tree := NewTree[int](3, store)
	tree.InsertObject(a)
	tree.InsertObject(b)

	// Forks and out of range indices are ignored.
	tree.SetNodeObjectID(0, 42)
	tree.SetNodeObjectID(-1, 42)
	tree.SetNodeObjectID(99, 42)
	root, _ := tree.Node(0)
	_, isLeaf := root.ObjectID()
	require.False(t, isLeaf)

	tree.SetNodeObjectID(1, 42)
	leaf, _ := tree.Node(1)
	id, _ := leaf.ObjectID()
	require.Equal(t, 42, id)
}

func TestTreeClear(t *testing.T) {
	store := newTestStore()
	ids := store.scatter(rand.New(rand.NewSource(7)), 10, 50)

	tree := NewTree[int](19, store)
	for _, id := range ids {
		_, err := tree.InsertObject(id)
		require.NoError(t, err)
	}
	require.Equal(t, 19, tree.nodeCount())

	tree.Clear()
	require.True(t, tree.Empty())
	require.Zero(t, tree.Stats().Leaves)

	// Freed slots are still in range but no longer readable.
	_, err := tree.Node(1)
	require.ErrorIs(t, err, ErrInvalidNode)

	// Freed slots are reused starting from the root.
	leaf, err := tree.InsertObject(ids[0])
	require.NoError(t, err)
	require.Equal(t, int32(0), leaf)
	require.Equal(t, 19, tree.nodeCount())

	_, err = tree.Node(0)
	require.NoError(t, err)
}

func TestTreeInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	store := newTestStore()
	ids := store.scatter(rng, 300, 100)

	tree := NewTree[int](int32(len(ids)*2-1), store)
	for _, id := range ids {
		leaf, err := tree.InsertObject(id)
		require.NoError(t, err)
		require.Equal(t, leaf, store.leaf[id])
	}

	seen := make(map[int]bool)
	tree.Walk(func(index int32, node Node[int], _ int) bool {
		if id, isLeaf := node.ObjectID(); isLeaf {
			require.False(t, seen[id], "object %d stored in more than one leaf", id)
			seen[id] = true
			require.Equal(t, index, store.leaf[id], "stale back reference for object %d", id)
			require.True(t, store.bounds(id).Inside(node.AABB))
			return true
		}

		left, right, _ := node.Children()
		require.True(t, left >= 0 && right >= 0, "fork %d is missing a child", index)
		for _, child := range []int32{left, right} {
			childNode, err := tree.Node(child)
			require.NoError(t, err)
			require.Equal(t, index, childNode.Parent)
			require.True(t, childNode.AABB.Inside(node.AABB), "fork %d does not cover child %d", index, child)
		}
		return true
	})
	require.Len(t, seen, len(ids))
	require.Equal(t, len(ids), tree.Stats().Leaves)
	require.Equal(t, len(ids)*2-1, tree.nodeCount())

	// Every object is covered by the root.
	root, _ := tree.Node(0)
	for _, id := range ids {
		require.True(t, store.bounds(id).Inside(root.AABB))
	}
}

func TestTreeQueriesMatchLinearScan(t *testing.T) {
	rng := rand.New(rand.NewSource(1337))
	store := newTestStore()
	ids := store.scatter(rng, 250, 100)

	tree := NewTree[int](int32(len(ids)*2), store)
	for _, id := range ids {
		_, err := tree.InsertObject(id)
		require.NoError(t, err)
	}

	assertQueriesMatchLinearScan(t, rng, tree, ids, store.bounds)
}

// assertQueriesMatchLinearScan cross-checks all query strategies of g against
// a brute force scan over random query volumes.
func assertQueriesMatchLinearScan(t *testing.T, rng *rand.Rand, g Graph[int], ids []int, boundsFn func(int) geom.Box3) {
	t.Helper()

	for i := 0; i < 50; i++ {
		center := randVec3(rng, 120)
		radius := rng.Float32() * 40
		exp := bruteForce(ids, boundsFn, func(b geom.Box3) bool { return b.IntersectsWithSphere(center, radius) })
		got := collect(t, func(cb SweepFunc[int]) int { return NewSphereTest[int](g).Sweep(center, radius, cb) })
		require.Equal(t, exp, got, "sphere query %d", i)
		require.Equal(t, len(exp) != 0, NewSphereTest[int](g).Intersects(center, radius))

		box := geom.CubeAround(randVec3(rng, 120), rng.Float32()*30)
		exp = bruteForce(ids, boundsFn, box.Intersects)
		got = collect(t, func(cb SweepFunc[int]) int { return NewBoxSweep[int](g).Sweep(box, cb) })
		require.Equal(t, exp, got, "box query %d", i)

		rot := types.QuatFromYawPitch(rng.Float32()*2*math.Pi, (rng.Float32()-0.5)*math.Pi)
		frustum := geom.NewFrustum(1, 80, math.Pi/3, 1.5).Transform(rot.Mat3(), randVec3(rng, 100))
		exp = bruteForce(ids, boundsFn, frustum.TestAABB)
		got = collect(t, func(cb SweepFunc[int]) int { return NewFrustumSweep[int](g).Sweep(frustum, cb) })
		require.Equal(t, exp, got, "frustum query %d", i)

		exp = bruteForce(ids, boundsFn, func(b geom.Box3) bool { return frustum.TestAABBWithPlane(b, geom.LeftX) })
		got = collect(t, func(cb SweepFunc[int]) int { return NewFrustumSweep[int](g).SweepPlane(frustum, geom.LeftX, cb) })
		require.Equal(t, exp, got, "frustum plane query %d", i)
	}

	// A volume far away from every object yields nothing.
	far := geom.CubeAround(types.Vec3{1e4, 1e4, 1e4}, 1)
	require.Zero(t, NewBoxSweep[int](g).Sweep(far, func(int, geom.Box3) bool {
		t.Fatal("unexpected match")
		return true
	}))
}

func TestTreeQueriesAreRepeatable(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	store := newTestStore()
	ids := store.scatter(rng, 100, 50)

	tree := NewTree[int](200, store)
	for _, id := range ids {
		tree.InsertObject(id)
	}

	box := geom.CubeAround(types.Vec3{}, 30)
	run := func() []int {
		var out []int
		tree.BoxSweep().Sweep(box, func(id int, _ geom.Box3) bool {
			out = append(out, id)
			return true
		})
		return out
	}
	first := run()
	require.NotEmpty(t, first)
	require.Equal(t, first, run())
}

func TestTreeSweepCountsAcceptedObjects(t *testing.T) {
	store := newTestStore()
	tree := NewTree[int](8, store)
	for i := 1; i <= 4; i++ {
		tree.InsertObject(store.add(i, types.Vec3{float32(i) * 3, 0, 0}, 1))
	}

	visited := 0
	count := tree.BoxSweep().Sweep(geom.CubeAround(types.Vec3{}, 100), func(id int, _ geom.Box3) bool {
		visited++
		return id%2 == 0
	})
	require.Equal(t, 4, visited)
	require.Equal(t, 2, count)
}

func TestSphereTestShortCircuits(t *testing.T) {
	store := newTestStore()
	tree := NewTree[int](8, store)
	for i := 1; i <= 4; i++ {
		tree.InsertObject(store.add(i, types.Vec3{float32(i) * 3, 0, 0}, 1))
	}

	var visited []int
	found := tree.SphereTest().IntersectsFunc(types.Vec3{}, 100, func(id int) bool {
		visited = append(visited, id)
		return len(visited) == 2
	})
	require.True(t, found)
	require.Len(t, visited, 2)

	require.False(t, tree.SphereTest().IntersectsFunc(types.Vec3{}, 100, func(int) bool { return false }))
}

func TestDegenerateGeometry(t *testing.T) {
	store := newTestStore()
	pos := types.Vec3{2, 2, 2}
	ids := []int{store.add(1, pos, 0), store.add(2, pos, 0), store.add(3, pos, 0)}

	tree := NewTree[int](5, store)
	for _, id := range ids {
		_, err := tree.InsertObject(id)
		require.NoError(t, err)
	}
	require.Equal(t, 3, tree.Stats().Leaves)

	static, err := BuildStatic[int](ids, store, StaticOptions{ObjectsPerNode: 1})
	require.NoError(t, err)
	require.Equal(t, 3, static.Stats().Leaves)

	octree, err := NewOctree[int](geom.CubeAround(types.Vec3{}, 10), store, OctreeOptions{ObjectsPerLeaf: 1, MaxDepth: 3})
	require.NoError(t, err)
	for _, id := range ids {
		_, err := octree.InsertObject(id)
		require.NoError(t, err)
	}
	require.Equal(t, 3, octree.Stats().MaxDepth)

	type spec struct {
		descr  string
		center types.Vec3
		radius float32
		exp    []int
	}
	specs := []spec{
		{"point query on the shared position", pos, 0, ids},
		{"sphere around the shared position", pos, 1, ids},
		{"sphere next to the shared position", types.Vec3{2, 2, 2.5}, 0.1, nil},
	}
	for _, g := range []struct {
		name  string
		query SphereTest[int]
	}{
		{"tree", tree.SphereTest()},
		{"static", static.SphereTest()},
		{"octree", octree.SphereTest()},
	} {
		for _, s := range specs {
			got := collect(t, func(cb SweepFunc[int]) int {
				return g.query.Sweep(s.center, s.radius, cb)
			})
			require.Equal(t, s.exp, got, "[%s] %s", g.name, s.descr)
		}
	}
}
