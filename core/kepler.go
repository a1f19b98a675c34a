package core

import (
	"errors"
	"fmt"
	"math"
)

const (
	// KeplerTolerance is the absolute convergence bound on successive
	// eccentric anomaly estimates, in radians.
	KeplerTolerance = 1e-9

	// FixedPointEccentricityLimit is the eccentricity below which Kepler's
	// equation is solved by fixed-point iteration; Newton-Raphson is used
	// from here up to MaxEccentricity.
	FixedPointEccentricityLimit = 0.2

	// MaxEccentricity is the first unsupported eccentricity. Near-parabolic
	// and open orbits are rejected before iterating.
	MaxEccentricity = 0.9999

	maxKeplerIterations = 200
)

var (
	// ErrUnsupportedEccentricity marks orbits outside the closed-ellipse
	// regime handled by the solver.
	ErrUnsupportedEccentricity = errors.New("unsupported eccentricity")
	// ErrNoConvergence is returned if an iteration exceeds its budget.
	ErrNoConvergence = errors.New("kepler solver did not converge")
	// ErrInvalidElements marks malformed orbital elements.
	ErrInvalidElements = errors.New("invalid orbital elements")
)

// Angles orient an orbital plane relative to the primary's reference frame.
// All values are in radians.
type Angles struct {
	Inclination   float64
	AscendingNode float64 // longitude of the ascending node
	ArgPeriapsis  float64 // argument of periapsis
}

// OrbitalElements describe a closed two-body orbit. Times are in seconds and
// lengths in metres; angles are radians.
type OrbitalElements struct {
	Eccentricity  float64
	SemiMajorAxis float64
	MeanAnomaly   float64 // at Epoch
	Epoch         float64
	Period        float64

	angles Angles
	plane  Quaternion
}

// NewOrbitalElements validates the shape parameters and caches the orbital
// plane orientation.
func NewOrbitalElements(ecc, sma float64, angles Angles, meanAnomaly, period float64) (OrbitalElements, error) {
	switch {
	case !isFinite(ecc) || ecc < 0:
		return OrbitalElements{}, fmt.Errorf("%w: eccentricity %g", ErrInvalidElements, ecc)
	case !isFinite(sma) || sma <= 0:
		return OrbitalElements{}, fmt.Errorf("%w: semi-major axis %g", ErrInvalidElements, sma)
	case !isFinite(period) || period <= 0:
		return OrbitalElements{}, fmt.Errorf("%w: period %g", ErrInvalidElements, period)
	case !isFinite(meanAnomaly):
		return OrbitalElements{}, fmt.Errorf("%w: mean anomaly %g", ErrInvalidElements, meanAnomaly)
	case !isFinite(angles.Inclination) || !isFinite(angles.AscendingNode) || !isFinite(angles.ArgPeriapsis):
		return OrbitalElements{}, fmt.Errorf("%w: orientation angles %+v", ErrInvalidElements, angles)
	}

	o := OrbitalElements{
		Eccentricity:  ecc,
		SemiMajorAxis: sma,
		MeanAnomaly:   meanAnomaly,
		Period:        period,
	}
	o.SetAngles(angles)
	return o, nil
}

// PeriodFromGM returns the period of an orbit with semi-major axis a about a
// primary with gravitational parameter mu.
func PeriodFromGM(a, mu float64) float64 {
	return 2 * math.Pi * math.Sqrt(a*a*a/mu)
}

// Angles returns the plane orientation angles.
func (o OrbitalElements) Angles() Angles {
	return o.angles
}

// SetAngles replaces the orientation angles and re-derives the cached plane
// rotation.
func (o *OrbitalElements) SetAngles(a Angles) {
	o.angles = a
	o.plane = planeOrientation(a)
}

// PlaneOrientation maps orbital-plane coordinates (periapsis on +x, angular
// momentum on +z) into the primary's frame.
func (o OrbitalElements) PlaneOrientation() Quaternion {
	if o.plane.Norm2() == 0 {
		return IdentityQuaternion()
	}
	return o.plane
}

// planeOrientation composes Rz(Ω)·Rx(i)·Rz(ω).
func planeOrientation(a Angles) Quaternion {
	zAxis := Vec3{Z: 1}
	xAxis := Vec3{X: 1}

	node := QuatFromAngleAxis(a.AscendingNode, zAxis)
	inc := QuatFromAngleAxis(a.Inclination, xAxis)
	peri := QuatFromAngleAxis(a.ArgPeriapsis, zAxis)

	return node.Mul(inc).Mul(peri).Normalize()
}

// SemiMinorAxis returns b = a·sqrt(1-e²).
func (o OrbitalElements) SemiMinorAxis() float64 {
	e := o.Eccentricity
	return o.SemiMajorAxis * math.Sqrt(1-e*e)
}

// MeanAnomalyAt returns the mean anomaly at time t, reduced into [-π, π).
// Only the fractional part of the elapsed orbits enters the sum, which keeps
// precision over long simulated spans.
func (o OrbitalElements) MeanAnomalyAt(t float64) float64 {
	orbits := (t - o.Epoch) / o.Period
	frac := orbits - math.Floor(orbits)
	return wrapAngle(o.MeanAnomaly + 2*math.Pi*frac)
}

// EccentricAnomalyAt solves Kepler's equation at time t.
func (o OrbitalElements) EccentricAnomalyAt(t float64) (float64, int, error) {
	return SolveKepler(o.Eccentricity, o.MeanAnomalyAt(t))
}

// SolveKepler solves M = E - e·sin(E) for the eccentric anomaly E and reports
// the number of iterations used.
//
// e == 0 returns M unchanged. Below FixedPointEccentricityLimit the solver
// uses fixed-point iteration, up to MaxEccentricity Newton-Raphson, and
// higher eccentricities are rejected with ErrUnsupportedEccentricity.
func SolveKepler(e, M float64) (float64, int, error) {
	switch {
	case !isFinite(e) || e < 0:
		return 0, 0, fmt.Errorf("%w: eccentricity %g", ErrInvalidElements, e)
	case !isFinite(M):
		return 0, 0, fmt.Errorf("%w: mean anomaly %g", ErrInvalidElements, M)
	case e == 0:
		return M, 0, nil
	case e >= MaxEccentricity:
		return 0, 0, fmt.Errorf("%w: %g", ErrUnsupportedEccentricity, e)
	}

	// Solve on the reduced anomaly and shift back by the same whole turns.
	// Anomalies already in range are left alone so tiny values keep their
	// sign and magnitude.
	reduced := M
	if math.Abs(M) >= math.Pi {
		reduced = wrapAngle(M)
	}
	shift := M - reduced

	// E(-M) = -E(M): solve on |M| so the result is exactly odd.
	sign := 1.0
	if math.Signbit(reduced) {
		sign, reduced = -1, -reduced
	}

	var (
		E     float64
		iters int
		err   error
	)
	if e < FixedPointEccentricityLimit {
		E, iters, err = solveFixedPoint(e, reduced)
	} else {
		E, iters, err = solveNewton(e, reduced)
	}
	if err != nil {
		return 0, iters, err
	}
	return sign*E + shift, iters, nil
}

func solveFixedPoint(e, M float64) (float64, int, error) {
	E := M
	for i := 1; i <= maxKeplerIterations; i++ {
		next := M + e*math.Sin(E)
		if math.Abs(next-E) <= KeplerTolerance {
			return next, i, nil
		}
		E = next
	}
	return E, maxKeplerIterations, fmt.Errorf("%w: fixed-point e=%g M=%g", ErrNoConvergence, e, M)
}

// solveNewton expects M in [0, π].
func solveNewton(e, M float64) (float64, int, error) {
	// Starting from π keeps Newton monotone for very eccentric orbits.
	E := M
	if e >= 0.8 && M > 0 {
		E = math.Pi
	}
	for i := 1; i <= maxKeplerIterations; i++ {
		delta := (M + e*math.Sin(E) - E) / (1 - e*math.Cos(E))
		E += delta
		if math.Abs(delta) <= KeplerTolerance {
			return E, i, nil
		}
	}
	return E, maxKeplerIterations, fmt.Errorf("%w: newton e=%g M=%g", ErrNoConvergence, e, M)
}

// PlanePositionAtE returns the position in orbital-plane coordinates for the
// eccentric anomaly E.
func (o OrbitalElements) PlanePositionAtE(E float64) Vec3 {
	sinE, cosE := math.Sincos(E)
	return Vec3{
		X: o.SemiMajorAxis * (cosE - o.Eccentricity),
		Y: o.SemiMinorAxis() * sinE,
	}
}

// PositionAtE returns the offset from the primary for the eccentric anomaly E.
func (o OrbitalElements) PositionAtE(E float64) Vec3 {
	return o.PlaneOrientation().Rotate(o.PlanePositionAtE(E))
}

// PositionAtTrueAnomaly returns the offset from the primary at true anomaly
// theta.
func (o OrbitalElements) PositionAtTrueAnomaly(theta float64) Vec3 {
	e := o.Eccentricity
	p := o.SemiMajorAxis * (1 - e*e)
	sinT, cosT := math.Sincos(theta)
	r := p / (1 + e*cosT)

	return o.PlaneOrientation().Rotate(Vec3{X: r * cosT, Y: r * sinT})
}

// PositionAtTime returns the offset from the primary at time t. Unsupported
// eccentricities return the zero vector together with the error.
func (o OrbitalElements) PositionAtTime(t float64) (Vec3, error) {
	E, _, err := o.EccentricAnomalyAt(t)
	if err != nil {
		return Vec3{}, err
	}
	return o.PositionAtE(E), nil
}

// StateAtE returns the offset and velocity relative to the primary for the
// eccentric anomaly E.
func (o OrbitalElements) StateAtE(E float64) (Vec3, Vec3) {
	return o.PositionAtE(E), o.velocityAtE(E)
}

func (o OrbitalElements) velocityAtE(E float64) Vec3 {
	n := 2 * math.Pi / o.Period
	sinE, cosE := math.Sincos(E)
	denom := 1 - o.Eccentricity*cosE

	plane := Vec3{
		X: -o.SemiMajorAxis * n * sinE / denom,
		Y: o.SemiMinorAxis() * n * cosE / denom,
	}
	return o.PlaneOrientation().Rotate(plane)
}

// OrbitPath samples the orbit ellipse at n evenly spaced true anomalies.
func (o OrbitalElements) OrbitPath(n int) []Vec3 {
	if n <= 0 {
		return nil
	}
	path := make([]Vec3, n)
	for j := range path {
		path[j] = o.PositionAtTrueAnomaly(2 * math.Pi / float64(n) * float64(j))
	}
	return path
}
