package starmap

import (
	"sort"

	"github.com/achilleasa/starmap/bvh"
	"github.com/achilleasa/starmap/types"
	"github.com/google/uuid"
)

// System is a stellar system: a sphere of space holding one or more stars.
type System struct {
	ID       uuid.UUID  `json:"id"`
	Position types.Vec3 `json:"position"`
	Radius   float32    `json:"radius"`
	Seed     int64      `json:"seed"`
	Stars    []Star     `json:"stars"`

	// Index of the spatial index leaf holding the system.
	Node int32 `json:"-"`

	// Index of the static BVH leaf holding the system.
	StaticNode int32 `json:"-"`
}

// Store owns the generated systems. It is the utility the spatial indices
// read positions and radii from and report leaf changes to.
type Store struct {
	systems map[uuid.UUID]*System
	order   []uuid.UUID
}

// NewStore creates a store with room for capacity systems.
func NewStore(capacity int) *Store {
	return &Store{
		systems: make(map[uuid.UUID]*System, capacity),
		order:   make([]uuid.UUID, 0, capacity),
	}
}

// Add registers a system. Systems start outside any index.
func (s *Store) Add(sys *System) {
	sys.Node = bvh.InvalidIndex
	sys.StaticNode = bvh.InvalidIndex
	if _, exists := s.systems[sys.ID]; !exists {
		s.order = append(s.order, sys.ID)
	}
	s.systems[sys.ID] = sys
}

func (s *Store) remove(id uuid.UUID) {
	if _, exists := s.systems[id]; !exists {
		return
	}
	delete(s.systems, id)
	for i, other := range s.order {
		if other == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// reassign gives the i-th system in creation order the id ids[i]. The ids
// must be unique and cover every system.
func (s *Store) reassign(ids []uuid.UUID) {
	systems := make(map[uuid.UUID]*System, len(ids))
	for i, old := range s.order {
		sys := s.systems[old]
		sys.ID = ids[i]
		systems[sys.ID] = sys
		s.order[i] = sys.ID
	}
	s.systems = systems
}

// Get looks up a system by id.
func (s *Store) Get(id uuid.UUID) (*System, bool) {
	sys, ok := s.systems[id]
	return sys, ok
}

// Len returns the number of systems.
func (s *Store) Len() int {
	return len(s.order)
}

// IDs returns system ids in creation order.
func (s *Store) IDs() []uuid.UUID {
	return append([]uuid.UUID(nil), s.order...)
}

// Systems returns all systems in creation order.
func (s *Store) Systems() []*System {
	out := make([]*System, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.systems[id])
	}
	return out
}

// StarCount returns the total number of stars across all systems.
func (s *Store) StarCount() int {
	count := 0
	for _, sys := range s.systems {
		count += len(sys.Stars)
	}
	return count
}

// ClassHistogram counts primary stars per spectral class index.
func (s *Store) ClassHistogram() map[int]int {
	hist := make(map[int]int)
	for _, sys := range s.systems {
		if len(sys.Stars) > 0 {
			hist[sys.Stars[0].ClassIndex]++
		}
	}
	return hist
}

// SortedClasses returns the keys of a class histogram in ascending order.
func SortedClasses(hist map[int]int) []int {
	keys := make([]int, 0, len(hist))
	for k := range hist {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// SetObjectData implements bvh.Utility.
func (s *Store) SetObjectData(id uuid.UUID, nodeIndex int32) {
	if sys, ok := s.systems[id]; ok {
		sys.Node = nodeIndex
	}
}

// ObjectRadius implements bvh.Utility.
func (s *Store) ObjectRadius(id uuid.UUID) float32 {
	if sys, ok := s.systems[id]; ok {
		return sys.Radius
	}
	return 0
}

// Position implements bvh.Utility.
func (s *Store) Position(id uuid.UUID) types.Vec3 {
	if sys, ok := s.systems[id]; ok {
		return sys.Position
	}
	return types.Vec3{}
}

// StaticView exposes the store to bvh.BuildStatic. Leaf indices are written
// to System.StaticNode so they do not clobber the incremental index.
func (s *Store) StaticView() StaticView {
	return StaticView{store: s}
}

// StaticView implements bvh.StaticUtility over a Store.
type StaticView struct {
	store *Store
}

func (v StaticView) SetObjectData(id uuid.UUID, nodeIndex int32) {
	if sys, ok := v.store.systems[id]; ok {
		sys.StaticNode = nodeIndex
	}
}

func (v StaticView) HalfDimensions(id uuid.UUID) types.Vec3 {
	r := v.store.ObjectRadius(id)
	return types.Vec3{r, r, r}
}

func (v StaticView) Transform(id uuid.UUID) types.Mat4 {
	return types.Translate4(v.store.Position(id))
}
