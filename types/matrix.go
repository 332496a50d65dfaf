package types

import "github.com/go-gl/mathgl/mgl32"

// Matrices are column-major, matching mathgl and OpenGL conventions.
type Mat3 = mgl32.Mat3
type Mat4 = mgl32.Mat4

// Create a 4x4 identity matrix.
func Ident4() Mat4 {
	return mgl32.Ident4()
}

// Create a translation matrix.
func Translate4(v Vec3) Mat4 {
	return mgl32.Translate3D(v[0], v[1], v[2])
}

// Create a rotation matrix of angle radians around axis.
func Rotate4(axis Vec3, angle float32) Mat4 {
	return mgl32.HomogRotate3D(angle, mgl32.Vec3(axis.Normalize()))
}

// Create a rotate-then-translate world transform.
func RotateTranslate4(rot Quat, translate Vec3) Mat4 {
	return Translate4(translate).Mul4(rot.Mat4())
}

// Transform a point (w = 1) by m. The result is not divided by w.
func TransformPoint(m Mat4, v Vec3) Vec3 {
	out := m.Mul4x1(mgl32.Vec4{v[0], v[1], v[2], 1})
	return Vec3{out[0], out[1], out[2]}
}

// Transform a direction (w = 0) by m, ignoring translation.
func TransformDir(m Mat3, v Vec3) Vec3 {
	return Vec3(m.Mul3x1(mgl32.Vec3(v)))
}

// Extract the translation component of an affine transform.
func Translation(m Mat4) Vec3 {
	col := m.Col(3)
	return Vec3{col[0], col[1], col[2]}
}
