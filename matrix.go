package quad

import (
	"encoding/binary"
	"math"

	"github.com/chewxy/math32"
)

// Mat4 is a 4x4 transformation matrix stored in column-major order,
// the layout expected by shader uniforms:
//
//	| m[0] m[4] m[8]  m[12] |
//	| m[1] m[5] m[9]  m[13] |
//	| m[2] m[6] m[10] m[14] |
//	| m[3] m[7] m[11] m[15] |
//
// Points are column vectors, so a.Mul(b) applies b first.
type Mat4 [16]float32

// Mat4Size is the byte size of a Mat4 uniform.
const Mat4Size = 64

// Identity4 returns the identity matrix.
func Identity4() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translation returns a matrix translating by v.
func Translation(v Vec3) Mat4 {
	m := Identity4()
	m[12] = v.X
	m[13] = v.Y
	m[14] = v.Z
	return m
}

// Rotation returns a matrix rotating by angle radians around axis.
// The axis need not be normalized. A zero axis yields the identity.
func Rotation(angle float32, axis Vec3) Mat4 {
	l := axis.Length()
	if l < 1e-6 {
		return Identity4()
	}
	x, y, z := axis.X/l, axis.Y/l, axis.Z/l
	s, c := math32.Sincos(angle)
	t := 1 - c

	return Mat4{
		x*x*t + c, y*x*t + z*s, z*x*t - y*s, 0,
		x*y*t - z*s, y*y*t + c, z*y*t + x*s, 0,
		x*z*t + y*s, y*z*t - x*s, z*z*t + c, 0,
		0, 0, 0, 1,
	}
}

// Perspective returns a right-handed perspective projection with clip-space
// depth in [-1, 1]. fovy is the vertical field of view in radians.
// A non-positive or infinite far plane produces an infinite projection.
func Perspective(fovy, aspect, near, far float32) Mat4 {
	f := float32(1 / math.Tan(float64(fovy)/2))
	m := Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, -1, -1,
		0, 0, -2 * near, 0,
	}
	if far > 0 && !math32.IsInf(far, 1) {
		nf := 1 / (near - far)
		m[10] = (far + near) * nf
		m[14] = 2 * far * near * nf
	}
	return m
}

// Mul returns m * n.
func (m Mat4) Mul(n Mat4) Mat4 {
	var out Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m[k*4+row] * n[col*4+k]
			}
			out[col*4+row] = sum
		}
	}
	return out
}

// Translate returns m * Translation(v).
func (m Mat4) Translate(v Vec3) Mat4 {
	return m.Mul(Translation(v))
}

// Rotate returns m * Rotation(angle, axis).
func (m Mat4) Rotate(angle float32, axis Vec3) Mat4 {
	return m.Mul(Rotation(angle, axis))
}

// Transform multiplies the column vector v by m.
func (m Mat4) Transform(v Vec4) Vec4 {
	return Vec4{
		X: m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12]*v.W,
		Y: m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13]*v.W,
		Z: m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14]*v.W,
		W: m[3]*v.X + m[7]*v.Y + m[11]*v.Z + m[15]*v.W,
	}
}

// At returns the element at row r, column c.
func (m Mat4) At(r, c int) float32 {
	return m[c*4+r]
}

// Approx reports whether every element of m is within epsilon of n.
func (m Mat4) Approx(n Mat4, epsilon float32) bool {
	for i := range m {
		if math32.Abs(m[i]-n[i]) > epsilon {
			return false
		}
	}
	return true
}

// Bytes returns the matrix as 64 little-endian bytes in column-major order.
func (m Mat4) Bytes() []byte {
	b := make([]byte, Mat4Size)
	for i, v := range m {
		binary.LittleEndian.PutUint32(b[i*4:], math32.Float32bits(v))
	}
	return b
}
