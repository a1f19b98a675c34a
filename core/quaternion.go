package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Quaternion is w + xi + yj + zk. Orientations are always kept at unit norm.
type Quaternion struct {
	W, X, Y, Z float64
}

// IdentityQuaternion is the rotation that does nothing.
func IdentityQuaternion() Quaternion {
	return Quaternion{W: 1}
}

// Norm2 returns the squared norm.
func (q Quaternion) Norm2() float64 {
	return q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z
}

// Norm returns the norm |q|.
func (q Quaternion) Norm() float64 {
	return math.Sqrt(q.Norm2())
}

// Scale multiplies every component by s.
func (q Quaternion) Scale(s float64) Quaternion {
	return Quaternion{W: q.W * s, X: q.X * s, Y: q.Y * s, Z: q.Z * s}
}

// Normalize returns q/|q|. A zero quaternion normalizes to the identity.
func (q Quaternion) Normalize() Quaternion {
	n := q.Norm()
	if n == 0 || !isFinite(n) {
		return IdentityQuaternion()
	}
	return q.Scale(1 / n)
}

// Conjugate returns (w, -x, -y, -z).
func (q Quaternion) Conjugate() Quaternion {
	return Quaternion{W: q.W, X: -q.X, Y: -q.Y, Z: -q.Z}
}

// Inverse returns q⁻¹ = conj(q)/|q|². For unit quaternions this equals the
// conjugate.
func (q Quaternion) Inverse() Quaternion {
	n2 := q.Norm2()
	if n2 == 0 {
		return IdentityQuaternion()
	}
	return q.Conjugate().Scale(1 / n2)
}

// Mul returns the Hamilton product q*p, which applies p first and then q.
func (q Quaternion) Mul(p Quaternion) Quaternion {
	a, b, c, d := q.W, q.X, q.Y, q.Z
	w, x, y, z := p.W, p.X, p.Y, p.Z

	return Quaternion{
		W: a*w - b*x - c*y - d*z,
		X: b*w + a*x + c*z - d*y,
		Y: c*w + a*y + d*x - b*z,
		Z: d*w + a*z + b*y - c*x,
	}
}

// Rotate computes the vector part of q * (0, v) * q⁻¹.
func (q Quaternion) Rotate(v Vec3) Vec3 {
	p := Quaternion{X: v.X, Y: v.Y, Z: v.Z}
	r := q.Mul(p).Mul(q.Inverse())
	return Vec3{X: r.X, Y: r.Y, Z: r.Z}
}

// ApproxEqual compares component-wise. q and -q are treated as different
// values even though they encode the same rotation.
func (q Quaternion) ApproxEqual(p Quaternion, tol float64) bool {
	return math.Abs(q.W-p.W) <= tol &&
		math.Abs(q.X-p.X) <= tol &&
		math.Abs(q.Y-p.Y) <= tol &&
		math.Abs(q.Z-p.Z) <= tol
}

// QuatFromAngleAxis builds the right-handed rotation by angle (radians) about
// axis. A zero-length axis yields the identity.
func QuatFromAngleAxis(angle float64, axis Vec3) Quaternion {
	l2 := axis.Norm2()
	if l2 == 0 {
		return IdentityQuaternion()
	}
	l := math.Sqrt(l2)
	s, c := math.Sincos(angle / 2)

	return Quaternion{
		W: c,
		X: s * axis.X / l,
		Y: s * axis.Y / l,
		Z: s * axis.Z / l,
	}
}

// QuatFromBasis converts the rotation matrix whose columns are the images of
// the local x, y and z axes into a unit quaternion. The axes must form a
// right-handed orthonormal basis.
func QuatFromBasis(xAxis, yAxis, zAxis Vec3) Quaternion {
	m00, m01, m02 := xAxis.X, yAxis.X, zAxis.X
	m10, m11, m12 := xAxis.Y, yAxis.Y, zAxis.Y
	m20, m21, m22 := xAxis.Z, yAxis.Z, zAxis.Z

	var q Quaternion
	trace := m00 + m11 + m22
	switch {
	case trace > 0:
		s := 2 * math.Sqrt(trace+1) // 4w
		q = Quaternion{
			W: s / 4,
			X: (m21 - m12) / s,
			Y: (m02 - m20) / s,
			Z: (m10 - m01) / s,
		}
	case m00 > m11 && m00 > m22:
		s := 2 * math.Sqrt(1+m00-m11-m22) // 4x
		q = Quaternion{
			W: (m21 - m12) / s,
			X: s / 4,
			Y: (m01 + m10) / s,
			Z: (m02 + m20) / s,
		}
	case m11 > m22:
		s := 2 * math.Sqrt(1+m11-m00-m22) // 4y
		q = Quaternion{
			W: (m02 - m20) / s,
			X: (m01 + m10) / s,
			Y: s / 4,
			Z: (m12 + m21) / s,
		}
	default:
		s := 2 * math.Sqrt(1+m22-m00-m11) // 4z
		q = Quaternion{
			W: (m10 - m01) / s,
			X: (m02 + m20) / s,
			Y: (m12 + m21) / s,
			Z: s / 4,
		}
	}
	return q.Normalize()
}

// Mat3 returns the column-major rotation matrix of a unit quaternion.
func (q Quaternion) Mat3() mgl64.Mat3 {
	w, x, y, z := q.W, q.X, q.Y, q.Z

	return mgl64.Mat3{
		1 - 2*(y*y+z*z), 2 * (x*y + w*z), 2 * (x*z - w*y),
		2 * (x*y - w*z), 1 - 2*(x*x+z*z), 2 * (y*z + w*x),
		2 * (x*z + w*y), 2 * (y*z - w*x), 1 - 2*(x*x+y*y),
	}
}

// Mat4 returns the homogeneous rotation matrix of a unit quaternion.
func (q Quaternion) Mat4() mgl64.Mat4 {
	return q.Mat3().Mat4()
}

// DefaultTrackballRadius is the virtual ball radius, in pointer units.
const DefaultTrackballRadius = 50.0

// Trackball maps a pointer drag (dx, dy) onto a rotation over a virtual ball
// of the given radius. The rotation axis lies in the screen plane,
// perpendicular to the drag. Drags that reach the rim of the ball, and empty
// drags, produce the identity.
func Trackball(dx, dy, radius float64) Quaternion {
	dr := math.Hypot(dx, dy)
	if dr == 0 || radius <= 0 {
		return IdentityQuaternion()
	}

	sina := dr / radius
	if sina >= 1 {
		sina = 0
	}
	cosa := math.Sqrt(1 - sina*sina)

	cosa2 := math.Sqrt((1 + cosa) / 2)
	sina2 := sina / (2 * cosa2)

	return Quaternion{
		W: cosa2,
		X: -dy / dr * sina2,
		Y: dx / dr * sina2,
		Z: 0,
	}.Normalize()
}
