package starmap

import (
	"fmt"
	"io"

	"github.com/achilleasa/starmap/bvh"
	"github.com/achilleasa/starmap/geom"
	"github.com/achilleasa/starmap/types"
	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
)

// Index is the spatial index systems are placed into. Both bvh.Tree and
// bvh.Octree implement it.
type Index interface {
	InsertObject(id uuid.UUID) (int32, error)
	Empty() bool
	Stats() bvh.Stats

	SphereTest() bvh.SphereTest[uuid.UUID]
	FrustumSweep() bvh.FrustumSweep[uuid.UUID]
	BoxSweep() bvh.BoxSweep[uuid.UUID]
}

type nodeRekeyer interface {
	SetNodeObjectID(index int32, id uuid.UUID)
}

// Starmap is a generated region of space.
type Starmap struct {
	Config Config
	Store  *Store
	Index  Index
	Stats  GenerateStats
}

// RenderObject is a system selected for drawing. Offset is the system
// position relative to the viewer.
type RenderObject struct {
	ID         uuid.UUID  `json:"id"`
	Offset     types.Vec3 `json:"offset"`
	Radius     float32    `json:"radius"`
	ClassIndex int        `json:"class"`
}

// BuildObjectList returns the systems whose bounds intersect the frustum in
// the order the index visits them.
func (m *Starmap) BuildObjectList(frustum geom.Frustum, viewer types.Vec3) []RenderObject {
	return CollectVisible(m.Index.FrustumSweep(), m.Store, frustum, viewer)
}

// CollectVisible runs a frustum sweep and converts every accepted system to
// a RenderObject. Systems missing from the store are skipped.
func CollectVisible(sweep bvh.FrustumSweep[uuid.UUID], store *Store, frustum geom.Frustum, viewer types.Vec3) []RenderObject {
	var out []RenderObject
	sweep.Sweep(frustum, func(id uuid.UUID, _ geom.Box3) bool {
		sys, ok := store.Get(id)
		if !ok {
			return false
		}
		obj := RenderObject{
			ID:     id,
			Offset: sys.Position.Sub(viewer),
			Radius: sys.Radius,
		}
		if len(sys.Stars) > 0 {
			obj.ClassIndex = sys.Stars[0].ClassIndex
		}
		out = append(out, obj)
		return true
	})
	return out
}

// Neighbors returns the systems whose bounds intersect the sphere.
func (m *Starmap) Neighbors(center types.Vec3, radius float32) []uuid.UUID {
	var out []uuid.UUID
	m.Index.SphereTest().Sweep(center, radius, func(id uuid.UUID, _ geom.Box3) bool {
		out = append(out, id)
		return true
	})
	return out
}

// Region returns the systems whose bounds intersect box.
func (m *Starmap) Region(box geom.Box3) []uuid.UUID {
	var out []uuid.UUID
	m.Index.BoxSweep().Sweep(box, func(id uuid.UUID, _ geom.Box3) bool {
		out = append(out, id)
		return true
	})
	return out
}

// BuildStatic partitions the generated systems into a static BVH. Leaf
// indices are recorded in System.StaticNode.
func (m *Starmap) BuildStatic(opts bvh.StaticOptions) (*bvh.StaticGraph[uuid.UUID], error) {
	return bvh.BuildStatic(m.Store.IDs(), m.Store.StaticView(), opts)
}

// Rekey assigns new ids to every system, patching the index leaves in place
// so the index does not have to be rebuilt. Only indices that can rewrite
// leaf ids support this. If two systems would share an id Rekey returns
// ErrUnknownSystem and leaves the map untouched.
func (m *Starmap) Rekey(newID func(old uuid.UUID) uuid.UUID) error {
	rekeyer, ok := m.Index.(nodeRekeyer)
	if !ok {
		return ErrRekeyUnsupported
	}

	systems := m.Store.Systems()
	ids := make([]uuid.UUID, len(systems))
	seen := make(map[uuid.UUID]uuid.UUID, len(systems))
	for i, sys := range systems {
		id := newID(sys.ID)
		if other, taken := seen[id]; taken {
			return fmt.Errorf("%w: %s and %s both map to %s", ErrUnknownSystem, other, sys.ID, id)
		}
		seen[id] = sys.ID
		ids[i] = id
	}

	m.Store.reassign(ids)
	for i, sys := range systems {
		rekeyer.SetNodeObjectID(sys.Node, ids[i])
	}
	return nil
}

type starmapDoc struct {
	Seed    int64     `json:"seed"`
	Index   IndexKind `json:"index"`
	Systems []*System `json:"systems"`
}

// WriteJSON encodes the systems in creation order.
func (m *Starmap) WriteJSON(w io.Writer, indent bool) error {
	doc := starmapDoc{
		Seed:    m.Config.Seed,
		Index:   m.Config.Index,
		Systems: m.Store.Systems(),
	}

	var (
		data []byte
		err  error
	)
	if indent {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return err
	}

	_, err = w.Write(data)
	return err
}
