package common

import (
	"math"
)

// Identity resets a 4x4 matrix (flat slice) to the identity matrix.
// The matrix is stored in column-major order.
//
// Parameters:
//   - m: destination slice (must be at least 16 elements)
func Identity(m []float32) {
	for i := range m {
		m[i] = 0
	}
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
}

// Mul4 multiplies two 4x4 column-major matrices and stores a * b in out.
// out may alias either operand.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - a: left-hand matrix (16 elements)
//   - b: right-hand matrix (16 elements)
func Mul4(out, a, b []float32) {
	var buf [16]float32
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += a[k*4+row] * b[col*4+k]
			}
			buf[col*4+row] = sum
		}
	}
	copy(out, buf[:])
}

// ViewOffset describes a sub-rectangle of a larger virtual viewport, in pixels.
// A camera rendering with a ViewOffset shifts its frustum so the visible image is the
// given window of the full view. The zero value disables the offset.
type ViewOffset struct {
	FullWidth, FullHeight float32
	X, Y                  float32
	Width, Height         float32
}

// Enabled reports whether the offset describes a usable window.
//
// Returns:
//   - bool: true when both full dimensions and both window dimensions are positive
func (o ViewOffset) Enabled() bool {
	return o.FullWidth > 0 && o.FullHeight > 0 && o.Width > 0 && o.Height > 0
}

// Perspective creates a perspective projection matrix for WebGPU clip space (depth in [0, 1]).
// When offset is enabled the frustum is narrowed and shifted to the offset window, matching
// the behavior of a multi-monitor style view offset.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//   - offset: optional view offset; the zero value renders the full frustum
func Perspective(out []float32, fovY, aspect, near, far float32, offset ViewOffset) {
	top := near * float32(math.Tan(float64(fovY)/2.0))
	height := 2 * top
	width := aspect * height
	left := -0.5 * width

	if offset.Enabled() {
		left += offset.X * width / offset.FullWidth
		top -= offset.Y * height / offset.FullHeight
		width *= offset.Width / offset.FullWidth
		height *= offset.Height / offset.FullHeight
	}

	Frustum(out, left, left+width, top-height, top, near, far)
}

// Frustum creates an off-axis perspective projection matrix for WebGPU clip space.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - left, right, bottom, top: near-plane bounds in view space
//   - near, far: clipping plane distances
func Frustum(out []float32, left, right, bottom, top, near, far float32) {
	Identity(out)

	out[0] = 2 * near / (right - left)
	out[5] = 2 * near / (top - bottom)
	out[8] = (right + left) / (right - left)
	out[9] = (top + bottom) / (top - bottom)
	out[10] = far / (near - far)
	out[11] = -1.0
	out[14] = (near * far) / (near - far)
	out[15] = 0.0
}

// BuildModelMatrix constructs a 4x4 model matrix from position, Euler rotation, and scale.
// The rotation order is Y * X * Z (yaw-pitch-roll). All matrices are column-major.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - pos: translation in world space
//   - rot: rotation angles in radians around each axis
//   - scale: scale factors along each axis
func BuildModelMatrix(out []float32, pos, rot, scale [3]float32) {
	cx := float32(math.Cos(float64(rot[0])))
	sx := float32(math.Sin(float64(rot[0])))
	cy := float32(math.Cos(float64(rot[1])))
	sy := float32(math.Sin(float64(rot[1])))
	cz := float32(math.Cos(float64(rot[2])))
	sz := float32(math.Sin(float64(rot[2])))

	out[0] = (cy*cz + sy*sx*sz) * scale[0]
	out[1] = (cx * sz) * scale[0]
	out[2] = (-sy*cz + cy*sx*sz) * scale[0]
	out[3] = 0

	out[4] = (cy*-sz + sy*sx*cz) * scale[1]
	out[5] = (cx * cz) * scale[1]
	out[6] = (sy*sz + cy*sx*cz) * scale[1]
	out[7] = 0

	out[8] = (sy * cx) * scale[2]
	out[9] = (-sx) * scale[2]
	out[10] = (cy * cx) * scale[2]
	out[11] = 0

	out[12] = pos[0]
	out[13] = pos[1]
	out[14] = pos[2]
	out[15] = 1
}

// Invert4 computes the inverse of a 4x4 column-major matrix by cofactor expansion.
// If the matrix is singular the output is left unchanged and false is returned.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - m: source matrix (16 elements, column-major)
//
// Returns:
//   - bool: true if the matrix was inverted, false if singular
func Invert4(out, m []float32) bool {
	s0 := m[0]*m[5] - m[4]*m[1]
	s1 := m[0]*m[6] - m[4]*m[2]
	s2 := m[0]*m[7] - m[4]*m[3]
	s3 := m[1]*m[6] - m[5]*m[2]
	s4 := m[1]*m[7] - m[5]*m[3]
	s5 := m[2]*m[7] - m[6]*m[3]

	c5 := m[10]*m[15] - m[14]*m[11]
	c4 := m[9]*m[15] - m[13]*m[11]
	c3 := m[9]*m[14] - m[13]*m[10]
	c2 := m[8]*m[15] - m[12]*m[11]
	c1 := m[8]*m[14] - m[12]*m[10]
	c0 := m[8]*m[13] - m[12]*m[9]

	det := s0*c5 - s1*c4 + s2*c3 + s3*c2 - s4*c1 + s5*c0
	if det == 0 {
		return false
	}
	inv := 1.0 / det

	var r [16]float32
	r[0] = (m[5]*c5 - m[6]*c4 + m[7]*c3) * inv
	r[1] = (-m[1]*c5 + m[2]*c4 - m[3]*c3) * inv
	r[2] = (m[13]*s5 - m[14]*s4 + m[15]*s3) * inv
	r[3] = (-m[9]*s5 + m[10]*s4 - m[11]*s3) * inv

	r[4] = (-m[4]*c5 + m[6]*c2 - m[7]*c1) * inv
	r[5] = (m[0]*c5 - m[2]*c2 + m[3]*c1) * inv
	r[6] = (-m[12]*s5 + m[14]*s2 - m[15]*s1) * inv
	r[7] = (m[8]*s5 - m[10]*s2 + m[11]*s1) * inv

	r[8] = (m[4]*c4 - m[5]*c2 + m[7]*c0) * inv
	r[9] = (-m[0]*c4 + m[1]*c2 - m[3]*c0) * inv
	r[10] = (m[12]*s4 - m[13]*s2 + m[15]*s0) * inv
	r[11] = (-m[8]*s4 + m[9]*s2 - m[11]*s0) * inv

	r[12] = (-m[4]*c3 + m[5]*c1 - m[6]*c0) * inv
	r[13] = (m[0]*c3 - m[1]*c1 + m[2]*c0) * inv
	r[14] = (-m[12]*s3 + m[13]*s1 - m[14]*s0) * inv
	r[15] = (m[8]*s3 - m[9]*s1 + m[10]*s0) * inv

	copy(out, r[:])
	return true
}

// LookAt creates a view matrix that transforms world coordinates into camera space.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - eye: camera position in world space
//   - center: point the camera looks at
//   - up: up vector defining camera orientation (typically 0,1,0)
func LookAt(out []float32, eye, center, up [3]float32) {
	z := normalize3([3]float32{eye[0] - center[0], eye[1] - center[1], eye[2] - center[2]})
	x := normalize3(cross3(up, z))
	y := cross3(z, x)

	out[0], out[4], out[8], out[12] = x[0], x[1], x[2], -dot3(x, eye)
	out[1], out[5], out[9], out[13] = y[0], y[1], y[2], -dot3(y, eye)
	out[2], out[6], out[10], out[14] = z[0], z[1], z[2], -dot3(z, eye)
	out[3], out[7], out[11], out[15] = 0, 0, 0, 1
}

// Distance3 returns the euclidean distance between two points.
func Distance3(a, b [3]float32) float32 {
	d := [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
	return float32(math.Sqrt(float64(dot3(d, d))))
}

// Lerp3 linearly interpolates between a and b by t.
func Lerp3(a, b [3]float32, t float32) [3]float32 {
	return [3]float32{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
	}
}

func dot3(a, b [3]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func cross3(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// normalize3 returns v scaled to unit length; the zero vector is returned unchanged.
func normalize3(v [3]float32) [3]float32 {
	l := float32(math.Sqrt(float64(dot3(v, v))))
	if l == 0 {
		return v
	}
	return [3]float32{v[0] / l, v[1] / l, v[2] / l}
}
