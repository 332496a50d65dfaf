package bvh

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/achilleasa/starmap/geom"
	"github.com/achilleasa/starmap/types"
)

type testObject struct {
	pos    types.Vec3
	radius float32
	half   types.Vec3
	xform  types.Mat4
}

// testStore is the client side object storage used by the tests. It records
// the back references written by the spatial structures.
type testStore struct {
	objects map[int]testObject
	leaf    map[int]int32
	writes  int
}

func newTestStore() *testStore {
	return &testStore{
		objects: make(map[int]testObject),
		leaf:    make(map[int]int32),
	}
}

func (s *testStore) add(id int, pos types.Vec3, radius float32) int {
	half := types.Vec3{radius, radius, radius}
	s.objects[id] = testObject{pos: pos, radius: radius, half: half, xform: types.Translate4(pos)}
	return id
}

func (s *testStore) addBox(id int, half types.Vec3, xform types.Mat4) int {
	s.objects[id] = testObject{pos: types.Translation(xform), half: half, xform: xform}
	return id
}

func (s *testStore) SetObjectData(id int, nodeIndex int32) {
	s.leaf[id] = nodeIndex
	s.writes++
}

func (s *testStore) ObjectRadius(id int) float32 {
	return s.objects[id].radius
}

func (s *testStore) Position(id int) types.Vec3 {
	return s.objects[id].pos
}

func (s *testStore) HalfDimensions(id int) types.Vec3 {
	return s.objects[id].half
}

func (s *testStore) Transform(id int) types.Mat4 {
	return s.objects[id].xform
}

func (s *testStore) bounds(id int) geom.Box3 {
	obj := s.objects[id]
	return geom.CubeAround(obj.pos, obj.radius)
}

// scatter adds count objects with random positions in [-extent, extent] and
// random radii in [0.5, 5).
func (s *testStore) scatter(rng *rand.Rand, count int, extent float32) []int {
	ids := make([]int, 0, count)
	for i := 1; i <= count; i++ {
		pos := randVec3(rng, extent)
		ids = append(ids, s.add(i, pos, 0.5+rng.Float32()*4.5))
	}
	return ids
}

func randVec3(rng *rand.Rand, extent float32) types.Vec3 {
	return types.Vec3{
		(rng.Float32()*2 - 1) * extent,
		(rng.Float32()*2 - 1) * extent,
		(rng.Float32()*2 - 1) * extent,
	}
}

// bruteForce returns the sorted ids whose bounds pass test.
func bruteForce(ids []int, boundsFn func(int) geom.Box3, test func(geom.Box3) bool) []int {
	var out []int
	for _, id := range ids {
		if test(boundsFn(id)) {
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}

// collect runs a counting query and returns the sorted matches.
func collect(t *testing.T, query func(SweepFunc[int]) int) []int {
	t.Helper()
	var out []int
	count := query(func(id int, _ geom.Box3) bool {
		out = append(out, id)
		return true
	})
	if count != len(out) {
		t.Fatalf("expected query count %d to match callback invocations %d", count, len(out))
	}
	sort.Ints(out)
	return out
}

// panicGeometry fails the test if the query touches it.
type panicGeometry struct {
	t *testing.T
}

func (g panicGeometry) TestAABB(geom.Box3) bool {
	g.t.Fatal("unexpected call to TestAABB")
	return false
}

func (g panicGeometry) TestAABBWithPlane(geom.Box3, geom.FrustumPlane) bool {
	g.t.Fatal("unexpected call to TestAABBWithPlane")
	return false
}

func (g panicGeometry) Intersects(geom.Box3) bool {
	g.t.Fatal("unexpected call to Intersects")
	return false
}
