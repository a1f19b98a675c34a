package core

import (
	"math"
	"testing"
)

const quatTol = 1e-12

// sameRotation treats q and -q as equal.
func sameRotation(q, p Quaternion, tol float64) bool {
	return q.ApproxEqual(p, tol) || q.ApproxEqual(p.Scale(-1), tol)
}

func TestQuatFromAngleAxisRotates(t *testing.T) {
	q := QuatFromAngleAxis(math.Pi/2, Vec3{Z: 2})
	if got := q.Rotate(Vec3{X: 1}); !got.ApproxEqual(Vec3{Y: 1}, quatTol) {
		t.Fatalf("90° about z maps x to %+v, want y", got)
	}
	if math.Abs(q.Norm()-1) > quatTol {
		t.Fatalf("|q| = %v, want 1", q.Norm())
	}
	if got := QuatFromAngleAxis(1, Vec3{}); got != IdentityQuaternion() {
		t.Fatalf("zero axis gave %+v, want identity", got)
	}
}

func TestQuaternionMulComposes(t *testing.T) {
	q := QuatFromAngleAxis(0.7, Vec3{X: 1, Y: 2, Z: -1})
	p := QuatFromAngleAxis(-1.3, Vec3{Y: 1, Z: 3})
	v := Vec3{X: 0.3, Y: -2, Z: 5}

	got := q.Mul(p).Rotate(v)
	want := q.Rotate(p.Rotate(v))
	if !got.ApproxEqual(want, 1e-12) {
		t.Fatalf("(q·p)v = %+v, q(p(v)) = %+v", got, want)
	}
}

func TestQuaternionConjugateUndoes(t *testing.T) {
	q := QuatFromAngleAxis(2.1, Vec3{X: -1, Y: 1, Z: 1})
	v := Vec3{X: 4, Y: 5, Z: 6}
	if got := q.Conjugate().Rotate(q.Rotate(v)); !got.ApproxEqual(v, 1e-12) {
		t.Fatalf("conj(q)(q(v)) = %+v, want %+v", got, v)
	}
	if got := q.Mul(q.Inverse()); !got.ApproxEqual(IdentityQuaternion(), quatTol) {
		t.Fatalf("q·q⁻¹ = %+v", got)
	}
}

func TestNormalizeZeroIsIdentity(t *testing.T) {
	if got := (Quaternion{}).Normalize(); got != IdentityQuaternion() {
		t.Fatalf("Normalize(0) = %+v", got)
	}
}

func TestQuatFromBasisAllBranches(t *testing.T) {
	rotations := map[string]Quaternion{
		"identity (trace branch)": IdentityQuaternion(),
		"half turn about x":       QuatFromAngleAxis(math.Pi, Vec3{X: 1}),
		"half turn about y":       QuatFromAngleAxis(math.Pi, Vec3{Y: 1}),
		"half turn about z":       QuatFromAngleAxis(math.Pi, Vec3{Z: 1}),
		"oblique":                 QuatFromAngleAxis(2.5, Vec3{X: 1, Y: -2, Z: 0.5}),
		"small":                   QuatFromAngleAxis(1e-4, Vec3{Y: 1}),
	}
	for name, q := range rotations {
		t.Run(name, func(t *testing.T) {
			got := QuatFromBasis(q.Rotate(Vec3{X: 1}), q.Rotate(Vec3{Y: 1}), q.Rotate(Vec3{Z: 1}))
			if !sameRotation(got, q, 1e-9) {
				t.Fatalf("QuatFromBasis = %+v, want ±%+v", got, q)
			}
		})
	}
}

func TestMat3MatchesRotate(t *testing.T) {
	q := QuatFromAngleAxis(0.9, Vec3{X: 1, Y: 1, Z: 1})
	v := Vec3{X: 1, Y: -2, Z: 3}

	m := q.Mat3().Mul3x1([3]float64{v.X, v.Y, v.Z})
	want := q.Rotate(v)
	if !(Vec3{X: m[0], Y: m[1], Z: m[2]}).ApproxEqual(want, 1e-12) {
		t.Fatalf("Mat3·v = %v, Rotate = %+v", m, want)
	}
}

func TestTrackball(t *testing.T) {
	if got := Trackball(0, 0, DefaultTrackballRadius); got != IdentityQuaternion() {
		t.Fatalf("empty drag gave %+v", got)
	}
	if got := Trackball(60, 0, DefaultTrackballRadius); got != IdentityQuaternion() {
		t.Fatalf("drag past the rim gave %+v", got)
	}

	q := Trackball(10, 0, DefaultTrackballRadius)
	if math.Abs(q.Norm()-1) > quatTol {
		t.Fatalf("|Trackball| = %v", q.Norm())
	}
	// A horizontal drag turns about the screen's vertical axis.
	if q.X != 0 || q.Z != 0 || q.Y <= 0 {
		t.Fatalf("Trackball(10, 0) = %+v, want a positive rotation about +y", q)
	}
	wantAngle := math.Asin(10 / DefaultTrackballRadius)
	if angle := 2 * math.Acos(q.W); math.Abs(angle-wantAngle) > 1e-12 {
		t.Fatalf("rotation angle = %v, want %v", angle, wantAngle)
	}

	if opposite := Trackball(-10, 0, DefaultTrackballRadius); !opposite.ApproxEqual(q.Conjugate(), quatTol) {
		t.Fatalf("reverse drag = %+v, want %+v", opposite, q.Conjugate())
	}
}
