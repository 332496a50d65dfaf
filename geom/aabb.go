package geom

import (
	"fmt"
	"math"

	"github.com/achilleasa/starmap/types"
)

// Point is the vector type an AABB is defined over. Both types.Vec2 and
// types.Vec3 satisfy it.
type Point[P any] interface {
	comparable
	Add(P) P
	Sub(P) P
	Mul(float32) P
	Dot(P) float32
	Min(P) P
	Max(P) P
	Product() float32
	Dims() int
	Select(other P, mask uint) P
	Transform(m types.Mat4) P
}

// AABB is an axis-aligned box described by its min and max corners.
//
// A box whose corners coincide is considered empty. Empty boxes still have a
// well defined center and take part in merge and intersection tests as a
// zero-volume point.
type AABB[P Point[P]] struct {
	Min P
	Max P
}

// Box3 is the 3D box used by the spatial structures.
type Box3 = AABB[types.Vec3]

// Box2 is a planar box.
type Box2 = AABB[types.Vec2]

// NewAABB returns the box spanning min and max.
func NewAABB[P Point[P]](min, max P) AABB[P] {
	return AABB[P]{Min: min, Max: max}
}

// CubeAround returns the cube with the given half extent centered at center.
func CubeAround(center types.Vec3, halfExtent float32) Box3 {
	h := types.Vec3{halfExtent, halfExtent, halfExtent}
	return Box3{Min: center.Sub(h), Max: center.Add(h)}
}

// InvertedBox3 returns a box with min at +inf and max at -inf; merging any box
// into it yields that box.
func InvertedBox3() Box3 {
	inf := float32(math.Inf(1))
	return Box3{
		Min: types.Vec3{inf, inf, inf},
		Max: types.Vec3{-inf, -inf, -inf},
	}
}

// Valid reports whether the box has a non-zero extent. Flat or line shaped
// boxes are valid.
func (b AABB[P]) Valid() bool {
	return b.Min != b.Max
}

// Clear zeroes both corners.
func (b *AABB[P]) Clear() {
	var zero P
	b.Min = zero
	b.Max = zero
}

// Dimensions returns the side lengths of the box.
func (b AABB[P]) Dimensions() P {
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint of the box.
func (b AABB[P]) Center() P {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Volume returns the box volume (area for planar points).
func (b AABB[P]) Volume() float32 {
	return b.Dimensions().Product()
}

// Inside reports whether b lies entirely within box.
func (b AABB[P]) Inside(box AABB[P]) bool {
	return b.Min.Max(box.Min) == b.Min && b.Max.Min(box.Max) == b.Max
}

// Contains reports whether pt lies within the box, boundary included.
func (b AABB[P]) Contains(pt P) bool {
	return pt.Max(b.Min) == pt && pt.Min(b.Max) == pt
}

// Outside reports whether b and box are disjoint along at least one axis.
func (b AABB[P]) Outside(box AABB[P]) bool {
	lo := b.Min.Max(box.Min)
	hi := b.Max.Min(box.Max)
	return lo.Max(hi) != hi
}

// Intersects reports whether b and box overlap. Touching boxes intersect.
func (b AABB[P]) Intersects(box AABB[P]) bool {
	return !b.Outside(box)
}

// Merge grows b so that it also covers box.
func (b *AABB[P]) Merge(box AABB[P]) *AABB[P] {
	b.Min = b.Min.Min(box.Min)
	b.Max = b.Max.Max(box.Max)
	return b
}

// BoundTo returns the union of b and box without modifying b.
func (b AABB[P]) BoundTo(box AABB[P]) AABB[P] {
	b.Merge(box)
	return b
}

// Translate returns the box offset by off.
func (b AABB[P]) Translate(off P) AABB[P] {
	return AABB[P]{Min: b.Min.Add(off), Max: b.Max.Add(off)}
}

// Corners returns the 2^dims corner points of the box.
func (b AABB[P]) Corners() []P {
	n := uint(1) << uint(b.Min.Dims())
	corners := make([]P, 0, n)
	for mask := uint(0); mask < n; mask++ {
		corners = append(corners, b.Min.Select(b.Max, mask))
	}
	return corners
}

// Rotate replaces the box with the tightest axis-aligned box that bounds its
// corners after they are transformed by m. Any translation in m is applied.
func (b *AABB[P]) Rotate(m types.Mat4) *AABB[P] {
	corners := b.Corners()
	first := corners[0].Transform(m)
	b.Min, b.Max = first, first
	for _, c := range corners[1:] {
		pt := c.Transform(m)
		b.Min = b.Min.Min(pt)
		b.Max = b.Max.Max(pt)
	}
	return b
}

// ClosestPoint returns the point within the box nearest to pt.
func (b AABB[P]) ClosestPoint(pt P) P {
	return pt.Max(b.Min).Min(b.Max)
}

// IntersectsWithSphere tests the box against a sphere by clamping the sphere
// center into the box and comparing the squared distance to radius^2.
func (b AABB[P]) IntersectsWithSphere(center P, radius float32) bool {
	d := center.Sub(b.ClosestPoint(center))
	return d.Dot(d) <= radius*radius
}

func (b AABB[P]) String() string {
	return fmt.Sprintf("[%v - %v]", b.Min, b.Max)
}
