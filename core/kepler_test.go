package core

import (
	"errors"
	"math"
	"testing"
)

const (
	au       = 1.495978707e11
	yearSecs = 365.25 * 86400
)

func TestSolveKeplerResidual(t *testing.T) {
	eccs := []float64{0.001, 0.0167, 0.1, 0.19, 0.2, 0.5, 0.8, 0.95, 0.9998}
	anomalies := []float64{-math.Pi, -2.5, -1, -1e-6, 0, 1e-6, 0.5, 1.5, 3, 3.14159, 12.4, -100}

	for _, e := range eccs {
		for _, M := range anomalies {
			E, iters, err := SolveKepler(e, M)
			if err != nil {
				t.Fatalf("SolveKepler(%v, %v): %v", e, M, err)
			}
			if iters < 1 || iters > maxKeplerIterations {
				t.Fatalf("SolveKepler(%v, %v) iterations = %d", e, M, iters)
			}
			if res := math.Abs(E - e*math.Sin(E) - M); res > 1e-8 {
				t.Fatalf("SolveKepler(%v, %v) = %v, residual %g", e, M, E, res)
			}
		}
	}
}

func TestSolveKeplerIsOdd(t *testing.T) {
	for _, e := range []float64{0.05, 0.19, 0.5, 0.85, 0.9998} {
		for _, M := range []float64{1e-300, 1e-12, 3e-10, 0.4, 2.9, math.Pi} {
			pos, _, err := SolveKepler(e, M)
			if err != nil {
				t.Fatalf("SolveKepler(%v, %v): %v", e, M, err)
			}
			neg, _, err := SolveKepler(e, -M)
			if err != nil {
				t.Fatalf("SolveKepler(%v, %v): %v", e, -M, err)
			}
			if neg != -pos {
				t.Fatalf("e=%v: E(-%v) = %v, E(%v) = %v", e, M, neg, M, pos)
			}
			if pos <= 0 || neg >= 0 {
				t.Fatalf("e=%v M=%v: E lost the sign of M (%v, %v)", e, M, pos, neg)
			}
		}
	}
}

func TestSolveKeplerCircularIsIdentity(t *testing.T) {
	for _, M := range []float64{-3, 0, 0.25, 42} {
		E, iters, err := SolveKepler(0, M)
		if err != nil {
			t.Fatalf("SolveKepler(0, %v): %v", M, err)
		}
		if E != M || iters != 0 {
			t.Fatalf("SolveKepler(0, %v) = %v after %d iterations, want M unchanged", M, E, iters)
		}
	}
}

func TestSolveKeplerRejects(t *testing.T) {
	tests := []struct {
		name string
		e, M float64
		want error
	}{
		{"at limit", MaxEccentricity, 1, ErrUnsupportedEccentricity},
		{"near parabolic", 0.99995, 1, ErrUnsupportedEccentricity},
		{"hyperbolic", 1.5, 1, ErrUnsupportedEccentricity},
		{"negative", -0.1, 1, ErrInvalidElements},
		{"nan eccentricity", math.NaN(), 1, ErrInvalidElements},
		{"infinite anomaly", 0.5, math.Inf(1), ErrInvalidElements},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := SolveKepler(tc.e, tc.M); !errors.Is(err, tc.want) {
				t.Fatalf("SolveKepler(%v, %v) err = %v, want %v", tc.e, tc.M, err, tc.want)
			}
		})
	}
}

func earthLikeOrbit(t *testing.T) OrbitalElements {
	t.Helper()
	o, err := NewOrbitalElements(0.0167, au, Angles{}, 0, yearSecs)
	if err != nil {
		t.Fatalf("NewOrbitalElements: %v", err)
	}
	return o
}

func TestEarthLikeOrbitApsides(t *testing.T) {
	o := earthLikeOrbit(t)

	peri, err := o.PositionAtTime(0)
	if err != nil {
		t.Fatalf("PositionAtTime(0): %v", err)
	}
	want := Vec3{X: au * (1 - 0.0167)}
	if !peri.ApproxEqual(want, 1) {
		t.Fatalf("periapsis = %+v, want %+v", peri, want)
	}

	apo, err := o.PositionAtTime(yearSecs / 2)
	if err != nil {
		t.Fatalf("PositionAtTime(P/2): %v", err)
	}
	want = Vec3{X: -au * (1 + 0.0167)}
	if !apo.ApproxEqual(want, 1) {
		t.Fatalf("apoapsis = %+v, want %+v", apo, want)
	}
}

func TestPositionIsPeriodic(t *testing.T) {
	o, err := NewOrbitalElements(0.6, 2*au, Angles{Inclination: 0.3, AscendingNode: 1.1, ArgPeriapsis: -0.7}, 0.4, 3*yearSecs)
	if err != nil {
		t.Fatalf("NewOrbitalElements: %v", err)
	}

	for _, ts := range []float64{0, 1e5, 4.2e7} {
		base, err := o.PositionAtTime(ts)
		if err != nil {
			t.Fatalf("PositionAtTime(%v): %v", ts, err)
		}
		for _, k := range []float64{1, 7, -3, 250} {
			later, err := o.PositionAtTime(ts + k*o.Period)
			if err != nil {
				t.Fatalf("PositionAtTime(%v): %v", ts+k*o.Period, err)
			}
			if !later.ApproxEqual(base, 1e-6*o.SemiMajorAxis) {
				t.Fatalf("t=%v k=%v: %+v != %+v", ts, k, later, base)
			}
		}
	}
}

func TestStateAtESatisfiesVisViva(t *testing.T) {
	o, err := NewOrbitalElements(0.3, 7e6, Angles{Inclination: 0.9}, 0, 5400)
	if err != nil {
		t.Fatalf("NewOrbitalElements: %v", err)
	}
	n := 2 * math.Pi / o.Period
	mu := n * n * math.Pow(o.SemiMajorAxis, 3)

	for _, ts := range []float64{0, 600, 2000, 4000} {
		E, _, err := o.EccentricAnomalyAt(ts)
		if err != nil {
			t.Fatalf("EccentricAnomalyAt(%v): %v", ts, err)
		}
		r, v := o.StateAtE(E)
		want := mu * (2/r.Norm() - 1/o.SemiMajorAxis)
		if got := v.Norm2(); math.Abs(got-want) > 1e-9*want {
			t.Fatalf("t=%v: v² = %v, vis-viva gives %v", ts, got, want)
		}
	}
}

func TestPlaneOrientationTiltsOrbit(t *testing.T) {
	o, err := NewOrbitalElements(0.1, 1e9, Angles{Inclination: math.Pi / 2}, 0, 1e6)
	if err != nil {
		t.Fatalf("NewOrbitalElements: %v", err)
	}

	// A quarter turn of eccentric anomaly is +y in the plane, which a 90°
	// inclination about the node line (+x) carries onto +z.
	got := o.PositionAtE(math.Pi / 2)
	want := Vec3{X: -o.SemiMajorAxis * o.Eccentricity, Z: o.SemiMinorAxis()}
	if !got.ApproxEqual(want, 1e-3) {
		t.Fatalf("PositionAtE(π/2) = %+v, want %+v", got, want)
	}
}

func TestOrbitPathApsides(t *testing.T) {
	o := earthLikeOrbit(t)
	path := o.OrbitPath(4)
	if len(path) != 4 {
		t.Fatalf("OrbitPath(4) returned %d points", len(path))
	}
	if d := path[0].Norm(); math.Abs(d-au*(1-0.0167)) > 1 {
		t.Fatalf("periapsis distance = %v", d)
	}
	if d := path[2].Norm(); math.Abs(d-au*(1+0.0167)) > 1 {
		t.Fatalf("apoapsis distance = %v", d)
	}
	if o.OrbitPath(0) != nil {
		t.Fatalf("OrbitPath(0) should be nil")
	}
}

func TestNewOrbitalElementsValidates(t *testing.T) {
	cases := []struct {
		name              string
		ecc, sma, ma, per float64
	}{
		{"negative eccentricity", -0.1, 1, 0, 1},
		{"zero axis", 0.1, 0, 0, 1},
		{"negative period", 0.1, 1, 0, -1},
		{"nan anomaly", 0.1, 1, math.NaN(), 1},
	}
	for _, tc := range cases {
		if _, err := NewOrbitalElements(tc.ecc, tc.sma, Angles{}, tc.ma, tc.per); !errors.Is(err, ErrInvalidElements) {
			t.Fatalf("%s: err = %v, want ErrInvalidElements", tc.name, err)
		}
	}
}

func TestPeriodFromGM(t *testing.T) {
	const muSun = 1.32712440018e20
	got := PeriodFromGM(au, muSun)
	if math.Abs(got-yearSecs)/yearSecs > 1e-3 {
		t.Fatalf("PeriodFromGM(1 AU, GM☉) = %v s, want about a year", got)
	}
}
