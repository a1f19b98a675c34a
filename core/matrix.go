package core

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrStackUnderflow is returned when popping the last matrix of a stack.
var ErrStackUnderflow = errors.New("matrix stack underflow")

// MatrixStack is a push/pop stack of 4x4 transforms. The top of the stack is
// the current matrix; every operation multiplies on the right, so the most
// recently applied transform acts first on a vertex. A stack belongs to one
// scene and is never shared globally.
type MatrixStack struct {
	stack []mgl64.Mat4
}

// NewMatrixStack returns a stack holding a single identity matrix.
func NewMatrixStack() *MatrixStack {
	return &MatrixStack{stack: []mgl64.Mat4{mgl64.Ident4()}}
}

// Depth returns the number of matrices on the stack.
func (s *MatrixStack) Depth() int {
	return len(s.stack)
}

// Top returns the current matrix.
func (s *MatrixStack) Top() mgl64.Mat4 {
	return s.stack[len(s.stack)-1]
}

// Push duplicates the current matrix.
func (s *MatrixStack) Push() {
	s.stack = append(s.stack, s.Top())
}

// Pop discards the current matrix. The bottom matrix cannot be popped.
func (s *MatrixStack) Pop() error {
	if len(s.stack) <= 1 {
		return ErrStackUnderflow
	}
	s.stack = s.stack[:len(s.stack)-1]
	return nil
}

// Load replaces the current matrix.
func (s *MatrixStack) Load(m mgl64.Mat4) {
	s.stack[len(s.stack)-1] = m
}

// LoadIdentity resets the current matrix to the identity.
func (s *MatrixStack) LoadIdentity() {
	s.Load(mgl64.Ident4())
}

// Mul right-multiplies the current matrix by m.
func (s *MatrixStack) Mul(m mgl64.Mat4) {
	s.Load(s.Top().Mul4(m))
}

// Translate applies a translation.
func (s *MatrixStack) Translate(v Vec3) {
	s.Mul(mgl64.Translate3D(v.X, v.Y, v.Z))
}

// Scale applies a non-uniform scale.
func (s *MatrixStack) Scale(x, y, z float64) {
	s.Mul(mgl64.Scale3D(x, y, z))
}

// Rotate applies the rotation encoded by a unit quaternion.
func (s *MatrixStack) Rotate(q Quaternion) {
	s.Mul(q.Mat4())
}

// TransformPoint applies the current matrix to a point (w = 1).
func (s *MatrixStack) TransformPoint(v Vec3) Vec3 {
	return TransformPoint(s.Top(), v)
}

// TransformPoint applies a homogeneous transform to a point (w = 1) and
// divides by the resulting w when it is not 1.
func TransformPoint(m mgl64.Mat4, v Vec3) Vec3 {
	r := m.Mul4x1(mgl64.Vec4{v.X, v.Y, v.Z, 1})
	if r[3] != 0 && r[3] != 1 {
		return Vec3{X: r[0] / r[3], Y: r[1] / r[3], Z: r[2] / r[3]}
	}
	return Vec3{X: r[0], Y: r[1], Z: r[2]}
}
