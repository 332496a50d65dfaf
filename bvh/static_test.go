package bvh

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/achilleasa/starmap/geom"
	"github.com/achilleasa/starmap/types"
	"github.com/stretchr/testify/require"
)

func staticBounds(store *testStore, id int) geom.Box3 {
	obj := store.objects[id]
	box := geom.Box3{Min: obj.half.Mul(-1), Max: obj.half}
	return *box.Rotate(obj.xform)
}

// subtreeObjects returns the sorted ids stored below index.
func subtreeObjects(g *StaticGraph[int], index int32) []int {
	var out []int
	var visit func(int32)
	visit = func(index int32) {
		node := &g.Nodes[index]
		if node.IsLeaf() {
			out = append(out, g.Objects[node.Start:node.Start+node.Count]...)
			return
		}
		visit(node.Left)
		visit(node.Right)
	}
	visit(index)
	sort.Ints(out)
	return out
}

func assertStaticInvariants(t *testing.T, g *StaticGraph[int], store *testStore, ids []int, threshold int) {
	t.Helper()

	seen := make(map[int]bool)
	for index := range g.Nodes {
		node := &g.Nodes[index]
		if node.IsLeaf() {
			require.True(t, int(node.Count) <= threshold || node.Count == 1, "leaf %d holds %d objects", index, node.Count)
			for i := node.Start; i < node.Start+node.Count; i++ {
				id := g.Objects[i]
				seen[id] = true
				require.Equal(t, int32(index), store.leaf[id])
				require.True(t, staticBounds(store, id).Inside(node.AABB))
			}
			continue
		}

		for _, child := range []int32{node.Left, node.Right} {
			require.True(t, child > 0, "fork %d is missing a child", index)
			require.Equal(t, int32(index), g.Nodes[child].Parent)
			require.True(t, g.Nodes[child].AABB.Inside(node.AABB))
		}
	}
	require.Len(t, seen, len(ids))
}

func TestBuildStaticEightObjects(t *testing.T) {
	store := newTestStore()
	var ids []int
	for i, x := range []float32{5, 2, 7, 0, 3, 6, 1, 4} {
		ids = append(ids, store.add(i+1, types.Vec3{x * 3, 0, 0}, 1))
	}

	g, err := BuildStatic[int](ids, store, StaticOptions{ObjectsPerNode: 4})
	require.NoError(t, err)
	assertStaticInvariants(t, g, store, ids, 4)

	stats := g.Stats()
	require.Equal(t, 7, stats.Nodes)
	require.Equal(t, 3, stats.Forks)
	require.Equal(t, 4, stats.Leaves)
	require.Equal(t, 8, stats.Objects)
	require.Equal(t, 2, stats.MaxDepth)

	// The root splits along X so the four leftmost objects end up on the
	// left. x = 0, 1, 2, 3 belong to ids 4, 7, 2, 5.
	require.Equal(t, []int{2, 4, 5, 7}, subtreeObjects(g, g.Nodes[0].Left))
	require.Equal(t, []int{1, 3, 6, 8}, subtreeObjects(g, g.Nodes[0].Right))

	// The input slice is left untouched.
	require.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, ids)
}

func TestBuildStaticRotatedObjectBounds(t *testing.T) {
	store := newTestStore()
	xform := types.RotateTranslate4(types.QuatFromAxisAngle(types.Vec3{0, 0, 1}, math.Pi/2), types.Vec3{10, 0, 0})
	id := store.addBox(1, types.Vec3{2, 0.5, 0.5}, xform)

	g, err := BuildStatic[int]([]int{id}, store, StaticOptions{ObjectsPerNode: 1})
	require.NoError(t, err)
	require.Len(t, g.Nodes, 1)
	require.True(t, g.Nodes[0].IsLeaf())

	box := g.objectBounds(0)
	exp := [2]types.Vec3{{9.5, -2, -0.5}, {10.5, 2, 0.5}}
	for axis := 0; axis < 3; axis++ {
		require.InDelta(t, exp[0][axis], box.Min[axis], 1e-4)
		require.InDelta(t, exp[1][axis], box.Max[axis], 1e-4)
	}
	require.Equal(t, box, g.Nodes[0].AABB)
}

func TestBuildStaticErrors(t *testing.T) {
	store := newTestStore()
	_, err := BuildStatic[int]([]int{store.add(1, types.Vec3{}, 1)}, store, StaticOptions{})
	require.ErrorIs(t, err, ErrInvalidLeafSize)

	g, err := BuildStatic[int](nil, store, StaticOptions{ObjectsPerNode: 4})
	require.NoError(t, err)
	require.True(t, g.Empty())
	require.Zero(t, g.BoxSweep().Sweep(panicGeometry{t}, nil))
	require.Zero(t, g.FrustumSweep().Sweep(panicGeometry{t}, nil))
}

func TestBuildStaticSingleObjectLeaves(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	store := newTestStore()
	ids := store.scatter(rng, 33, 50)

	g, err := BuildStatic[int](ids, store, StaticOptions{ObjectsPerNode: 1})
	require.NoError(t, err)
	assertStaticInvariants(t, g, store, ids, 1)

	stats := g.Stats()
	require.Equal(t, 33, stats.Leaves)
	require.Equal(t, 65, stats.Nodes)
	require.LessOrEqual(t, stats.MaxDepth, 6)
}

func TestBuildStaticSAHSeparatesClusters(t *testing.T) {
	store := newTestStore()
	var ids []int
	for i, x := range []float32{0, 1, 2, 3} {
		ids = append(ids, store.add(i+1, types.Vec3{x, -100, 0}, 0.25))
	}
	for i, x := range []float32{0.5, 1.5, 2.5, 3.5} {
		ids = append(ids, store.add(i+5, types.Vec3{x, 100, 0}, 0.25))
	}

	// A median split along X mixes both clusters.
	g, err := BuildStatic[int](ids, store, StaticOptions{ObjectsPerNode: 4})
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 5, 6}, subtreeObjects(g, g.Nodes[0].Left))

	g, err = BuildStatic[int](ids, store, StaticOptions{ObjectsPerNode: 4, Strategy: SurfaceAreaHeuristic})
	require.NoError(t, err)
	assertStaticInvariants(t, g, store, ids, 4)
	require.Equal(t, []int{1, 2, 3, 4}, subtreeObjects(g, g.Nodes[0].Left))
	require.Equal(t, []int{5, 6, 7, 8}, subtreeObjects(g, g.Nodes[0].Right))
}

func TestStaticQueriesMatchLinearScan(t *testing.T) {
	for _, strategy := range []SplitStrategy{MedianSplit, SurfaceAreaHeuristic} {
		rng := rand.New(rand.NewSource(99))
		store := newTestStore()
		var ids []int
		for i := 1; i <= 200; i++ {
			rot := types.QuatFromYawPitch(rng.Float32()*math.Pi, rng.Float32()*math.Pi)
			half := types.Vec3{0.5 + rng.Float32()*3, 0.5 + rng.Float32()*3, 0.5 + rng.Float32()*3}
			ids = append(ids, store.addBox(i, half, types.RotateTranslate4(rot, randVec3(rng, 100))))
		}

		g, err := BuildStatic[int](ids, store, StaticOptions{ObjectsPerNode: 4, Strategy: strategy})
		require.NoError(t, err)
		assertStaticInvariants(t, g, store, ids, 4)

		assertQueriesMatchLinearScan(t, rng, g, ids, func(id int) geom.Box3 {
			return staticBounds(store, id)
		})
	}
}
