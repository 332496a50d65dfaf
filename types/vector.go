package types

import (
	"math"

	"golang.org/x/image/math/f32"
)

type Vec2 f32.Vec2
type Vec3 f32.Vec3

const floatCmpEpsilon = 1e-6

// Expand a 2 component vector to a Vec3
func (v Vec2) Vec3(z float32) Vec3 {
	return Vec3{v[0], v[1], z}
}

// Reduce a 3 component vector to a Vec2 by dropping Z.
func (v Vec3) Vec2() Vec2 {
	return Vec2{v[0], v[1]}
}

// Add a vector.
func (v Vec3) Add(v2 Vec3) Vec3 {
	return Vec3{v[0] + v2[0], v[1] + v2[1], v[2] + v2[2]}
}

// Subtract a vector.
func (v Vec3) Sub(v2 Vec3) Vec3 {
	return Vec3{v[0] - v2[0], v[1] - v2[1], v[2] - v2[2]}
}

// Multiply a 3 component vector with a scalar.
func (v Vec3) Mul(s float32) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

// Get 3 component vector length.
func (v Vec3) Len() float32 {
	return float32(math.Sqrt(float64(v.Dot(v))))
}

// Normalize 3 component vector. Zero length vectors are returned unchanged.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l < floatCmpEpsilon {
		return Vec3{}
	}
	return v.Mul(1.0 / l)
}

// Calculate dot product of 2 vectors
func (v Vec3) Dot(v2 Vec3) float32 {
	return v[0]*v2[0] + v[1]*v2[1] + v[2]*v2[2]
}

// Calculate cross product of 2 vectors.
func (v Vec3) Cross(v2 Vec3) Vec3 {
	return Vec3{v[1]*v2[2] - v[2]*v2[1], v[2]*v2[0] - v[0]*v2[2], v[0]*v2[1] - v[1]*v2[0]}
}

// Componentwise minimum.
func (v Vec3) Min(v2 Vec3) Vec3 {
	return MinVec3(v, v2)
}

// Componentwise maximum.
func (v Vec3) Max(v2 Vec3) Vec3 {
	return MaxVec3(v, v2)
}

// Product of all components; the volume of a box with these side lengths.
func (v Vec3) Product() float32 {
	return v[0] * v[1] * v[2]
}

// Number of components.
func (v Vec3) Dims() int {
	return 3
}

// Build a vector taking component i from v2 if bit i of mask is set and from
// v otherwise.
func (v Vec3) Select(v2 Vec3, mask uint) Vec3 {
	out := v
	for i := 0; i < 3; i++ {
		if mask&(1<<uint(i)) != 0 {
			out[i] = v2[i]
		}
	}
	return out
}

// Transform the vector as a point (w = 1) by a 4x4 matrix.
func (v Vec3) Transform(m Mat4) Vec3 {
	return TransformPoint(m, v)
}

// Calc min component from two vectors
func MinVec3(v1, v2 Vec3) Vec3 {
	out := v1
	if v2[0] < out[0] {
		out[0] = v2[0]
	}
	if v2[1] < out[1] {
		out[1] = v2[1]
	}
	if v2[2] < out[2] {
		out[2] = v2[2]
	}
	return out
}

// Calc maxcomponent from two vectors
func MaxVec3(v1, v2 Vec3) Vec3 {
	out := v1
	if v2[0] > out[0] {
		out[0] = v2[0]
	}
	if v2[1] > out[1] {
		out[1] = v2[1]
	}
	if v2[2] > out[2] {
		out[2] = v2[2]
	}
	return out
}

// Add a vector.
func (v Vec2) Add(v2 Vec2) Vec2 {
	return Vec2{v[0] + v2[0], v[1] + v2[1]}
}

// Subtract a vector.
func (v Vec2) Sub(v2 Vec2) Vec2 {
	return Vec2{v[0] - v2[0], v[1] - v2[1]}
}

// Multiply a 2 component vector with a scalar.
func (v Vec2) Mul(s float32) Vec2 {
	return Vec2{v[0] * s, v[1] * s}
}

// Calculate dot product of 2 vectors
func (v Vec2) Dot(v2 Vec2) float32 {
	return v[0]*v2[0] + v[1]*v2[1]
}

func (v Vec2) Min(v2 Vec2) Vec2 {
	return Vec2{float32(math.Min(float64(v[0]), float64(v2[0]))), float32(math.Min(float64(v[1]), float64(v2[1])))}
}

func (v Vec2) Max(v2 Vec2) Vec2 {
	return Vec2{float32(math.Max(float64(v[0]), float64(v2[0]))), float32(math.Max(float64(v[1]), float64(v2[1])))}
}

// Product of both components; the area of a rectangle with these side lengths.
func (v Vec2) Product() float32 {
	return v[0] * v[1]
}

func (v Vec2) Dims() int {
	return 2
}

func (v Vec2) Select(v2 Vec2, mask uint) Vec2 {
	out := v
	if mask&1 != 0 {
		out[0] = v2[0]
	}
	if mask&2 != 0 {
		out[1] = v2[1]
	}
	return out
}

// Transform the vector as a point on the z = 0 plane and drop the resulting Z.
func (v Vec2) Transform(m Mat4) Vec2 {
	return TransformPoint(m, v.Vec3(0)).Vec2()
}

