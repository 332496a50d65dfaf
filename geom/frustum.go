package geom

import (
	"math"

	"github.com/achilleasa/starmap/types"
)

// FrustumPlane selects one of the six planes of a Frustum.
type FrustumPlane uint8

const (
	NearZ FrustumPlane = iota
	FarZ
	LeftX
	RightX
	TopY
	BottomY

	numFrustumPlanes
)

var frustumPlaneNames = [...]string{"near", "far", "left", "right", "top", "bottom"}

func (p FrustumPlane) String() string {
	if p >= numFrustumPlanes {
		return "unknown"
	}
	return frustumPlaneNames[p]
}

// Plane3 is a plane through Point. Points on the side Normal points to are
// inside.
type Plane3 struct {
	Normal types.Vec3
	Point  types.Vec3
}

// TestPoint returns the signed distance of pt from the plane (scaled by the
// normal length).
func (p Plane3) TestPoint(pt types.Vec3) float32 {
	return pt.Sub(p.Point).Dot(p.Normal)
}

// Frustum is a perspective view volume bounded by six inward facing planes.
// A freshly constructed frustum looks down +Z from the origin.
type Frustum struct {
	nearZ      float32
	farZ       float32
	fovRadians float32
	aspect     float32

	shell [numFrustumPlanes]Plane3
}

// NewFrustum builds a view frustum from its near and far distances, vertical
// field of view (radians) and aspect ratio (width / height).
func NewFrustum(nearZ, farZ, fovRadians, aspect float32) Frustum {
	f := Frustum{
		nearZ:      nearZ,
		farZ:       farZ,
		fovRadians: fovRadians,
		aspect:     aspect,
	}

	fovTan2 := 2 * float32(math.Tan(float64(fovRadians)/2))
	nearH := fovTan2 * nearZ
	nearW := nearH * aspect
	farH := fovTan2 * farZ
	farW := farH * aspect

	fwd := types.Vec3{0, 0, 1}
	up := types.Vec3{0, 1, 0}
	right := types.Vec3{1, 0, 0}

	nearCenter := fwd.Mul(nearZ)
	farCenter := fwd.Mul(farZ)

	corner := func(center types.Vec3, h, w, vSign, hSign float32) types.Vec3 {
		return center.Add(up.Mul(vSign * h / 2)).Add(right.Mul(hSign * w / 2))
	}

	nearTL := corner(nearCenter, nearH, nearW, 1, -1)
	nearBL := corner(nearCenter, nearH, nearW, -1, -1)
	nearTR := corner(nearCenter, nearH, nearW, 1, 1)
	nearBR := corner(nearCenter, nearH, nearW, -1, 1)
	farTL := corner(farCenter, farH, farW, 1, -1)
	farTR := corner(farCenter, farH, farW, 1, 1)
	farBL := corner(farCenter, farH, farW, -1, -1)
	farBR := corner(farCenter, farH, farW, -1, 1)

	f.shell[LeftX] = Plane3{Normal: farTL.Sub(nearTL).Cross(nearBL.Sub(nearTL)).Normalize(), Point: nearTL}
	f.shell[RightX] = Plane3{Normal: nearBR.Sub(nearTR).Cross(farTR.Sub(nearTR)).Normalize(), Point: nearTR}
	f.shell[TopY] = Plane3{Normal: farTR.Sub(nearTR).Cross(nearTL.Sub(nearTR)).Normalize(), Point: farTR}
	f.shell[BottomY] = Plane3{Normal: farBR.Sub(farBL).Cross(nearBL.Sub(farBL)).Normalize(), Point: farBL}
	f.shell[NearZ] = Plane3{Normal: fwd, Point: nearCenter}
	f.shell[FarZ] = Plane3{Normal: fwd.Mul(-1), Point: farCenter}

	return f
}

func (f Frustum) NearZ() float32      { return f.nearZ }
func (f Frustum) FarZ() float32       { return f.farZ }
func (f Frustum) FOVRadians() float32 { return f.fovRadians }
func (f Frustum) Aspect() float32     { return f.aspect }

// Plane returns one of the frustum shell planes.
func (f Frustum) Plane(p FrustumPlane) Plane3 {
	return f.shell[p]
}

// Transform moves the frustum into another space: normals and points are
// rotated by basis and points are then offset by translate.
func (f Frustum) Transform(basis types.Mat3, translate types.Vec3) Frustum {
	out := f
	for i, pl := range f.shell {
		out.shell[i] = Plane3{
			Normal: types.TransformDir(basis, pl.Normal),
			Point:  types.TransformDir(basis, pl.Point).Add(translate),
		}
	}
	return out
}

// TestAABB reports whether the box is at least partially inside all six
// planes. A degenerate frustum (near == far) contains nothing.
func (f Frustum) TestAABB(box Box3) bool {
	if f.nearZ == f.farZ {
		return false
	}
	for p := NearZ; p < numFrustumPlanes; p++ {
		if !f.TestAABBWithPlane(box, p) {
			return false
		}
	}
	return true
}

// TestAABBWithPlane reports whether the box is at least partially on the
// inner side of a single plane. It uses the box corner furthest along the
// plane normal.
func (f Frustum) TestAABBWithPlane(box Box3, plane FrustumPlane) bool {
	pl := f.shell[plane]
	posV := box.Min
	for i := 0; i < 3; i++ {
		if pl.Normal[i] >= 0 {
			posV[i] = box.Max[i]
		}
	}
	return pl.TestPoint(posV) >= 0
}
