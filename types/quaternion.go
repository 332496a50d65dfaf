package types

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Quat is a rotation quaternion. The math is delegated to mathgl; the type
// keeps our vector representation on its surface.
type Quat struct {
	V Vec3
	W float32
}

func quatFromMgl(q mgl32.Quat) Quat {
	return Quat{V: Vec3(q.V), W: q.W}
}

func (q1 Quat) mgl() mgl32.Quat {
	return mgl32.Quat{V: mgl32.Vec3(q1.V), W: q1.W}
}

// Create identity quaternion.
func QuatIdent() Quat {
	return quatFromMgl(mgl32.QuatIdent())
}

// Create a quaternion from an axis vector and an angle in radians.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	return quatFromMgl(mgl32.QuatRotate(angle, mgl32.Vec3(axis.Normalize())))
}

// Create a quaternion from yaw (around +Y) followed by pitch (around +X).
func QuatFromYawPitch(yaw, pitch float32) Quat {
	return QuatFromAxisAngle(Vec3{0, 1, 0}, yaw).Mul(QuatFromAxisAngle(Vec3{1, 0, 0}, pitch))
}

// Rotates a vector by the rotation this quaternion represents.
func (q1 Quat) Rotate(v Vec3) Vec3 {
	return Vec3(q1.mgl().Rotate(mgl32.Vec3(v)))
}

// Multiplies two quaternions. Multiplication is not commutative.
func (q1 Quat) Mul(q2 Quat) Quat {
	return quatFromMgl(q1.mgl().Mul(q2.mgl()))
}

// Normalizes the quaternion, returning its versor (unit quaternion).
func (q1 Quat) Normalize() Quat {
	if q1.Len() == 0 {
		return QuatIdent()
	}
	return quatFromMgl(q1.mgl().Normalize())
}

func (q1 Quat) Len() float32 {
	return float32(math.Sqrt(float64(q1.W*q1.W + q1.V.Dot(q1.V))))
}

// Returns the homogeneous 3D rotation matrix corresponding to the quaternion.
func (q1 Quat) Mat4() Mat4 {
	return q1.mgl().Mat4()
}

// Returns the 3x3 rotation matrix corresponding to the quaternion.
func (q1 Quat) Mat3() Mat3 {
	return q1.mgl().Mat4().Mat3()
}
