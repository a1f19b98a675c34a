package core

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// ErrInvalidTLE is returned for two-line element sets that fail structural
// checks or cannot be propagated.
var ErrInvalidTLE = errors.New("invalid TLE")

// degenerateTolerance decides when the node line or the eccentricity vector
// is too short to define an angle.
const degenerateTolerance = 1e-11

// ElementsFromStateVector converts a relative position r (m) and velocity v
// (m/s) about a primary with gravitational parameter mu into closed-orbit
// elements with Epoch 0. Circular orbits get a zero argument of periapsis and
// equatorial orbits a zero ascending node.
func ElementsFromStateVector(r, v Vec3, mu float64) (OrbitalElements, error) {
	if !r.IsFinite() || !v.IsFinite() || r.Norm2() == 0 {
		return OrbitalElements{}, fmt.Errorf("ElementsFromStateVector: %w: state r=%v v=%v", ErrInvalidElements, r, v)
	}
	if !isFinite(mu) || mu <= 0 {
		return OrbitalElements{}, fmt.Errorf("ElementsFromStateVector: %w: mu %g", ErrInvalidElements, mu)
	}

	rn := r.Norm()
	energy := v.Norm2()/2 - mu/rn
	if energy >= 0 {
		return OrbitalElements{}, fmt.Errorf("ElementsFromStateVector: %w: open trajectory (energy %g)", ErrUnsupportedEccentricity, energy)
	}
	a := -mu / (2 * energy)

	h := r.Cross(v)
	hn := h.Norm()
	if hn == 0 {
		return OrbitalElements{}, fmt.Errorf("ElementsFromStateVector: %w: radial trajectory", ErrUnsupportedEccentricity)
	}

	eVec := r.Scale(v.Norm2() - mu/rn).Sub(v.Scale(r.Dot(v))).Scale(1 / mu)
	e := eVec.Norm()
	if e < degenerateTolerance {
		e = 0
	}
	if e >= MaxEccentricity {
		return OrbitalElements{}, fmt.Errorf("ElementsFromStateVector: %w: %g", ErrUnsupportedEccentricity, e)
	}

	var angles Angles
	angles.Inclination = math.Atan2(math.Hypot(h.X, h.Y), h.Z)
	if math.Hypot(h.X, h.Y) > degenerateTolerance*hn {
		angles.AscendingNode = math.Atan2(h.X, -h.Y)
	}

	// Periapsis and anomaly are read in the frame where the node lies on +x.
	nodeFrame := QuatFromAngleAxis(angles.AscendingNode, Vec3{Z: 1}).
		Mul(QuatFromAngleAxis(angles.Inclination, Vec3{X: 1}))
	if e > 0 {
		ep := nodeFrame.Conjugate().Rotate(eVec)
		angles.ArgPeriapsis = math.Atan2(ep.Y, ep.X)
	}

	elements, err := NewOrbitalElements(e, a, angles, 0, PeriodFromGM(a, mu))
	if err != nil {
		return OrbitalElements{}, fmt.Errorf("ElementsFromStateVector: %w", err)
	}

	p := elements.PlaneOrientation().Conjugate().Rotate(r)
	nu := math.Atan2(p.Y, p.X)
	E := math.Atan2(math.Sqrt(1-e*e)*math.Sin(nu), e+math.Cos(nu))
	elements.MeanAnomaly = wrapAngle(E - e*math.Sin(E))

	return elements, nil
}

// ElementsFromTLE seeds two-body elements from a NORAD two-line set: the set
// is propagated with SGP4 once, at the instant at, and the resulting state
// (relative to the Earth) is converted with ElementsFromStateVector. The
// returned elements have Epoch 0, meaning they describe the orbit at.
func ElementsFromTLE(line1, line2 string, at time.Time, mu float64) (OrbitalElements, error) {
	line1 = strings.TrimRight(line1, " \r\n")
	line2 = strings.TrimRight(line2, " \r\n")
	if err := checkTLE(line1, line2); err != nil {
		return OrbitalElements{}, fmt.Errorf("ElementsFromTLE: %w", err)
	}

	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS72)

	at = at.UTC()
	year, month, day := at.Date()
	hour, minute, sec := at.Clock()
	pos, vel := satellite.Propagate(sat, year, int(month), day, hour, minute, sec)

	// go-satellite works in kilometres.
	const kmToM = 1000.0
	r := Vec3{X: pos.X, Y: pos.Y, Z: pos.Z}.Scale(kmToM)
	v := Vec3{X: vel.X, Y: vel.Y, Z: vel.Z}.Scale(kmToM)
	if !r.IsFinite() || !v.IsFinite() || r.Norm2() == 0 {
		return OrbitalElements{}, fmt.Errorf("ElementsFromTLE: %w: propagation at %s produced no state", ErrInvalidTLE, at.Format(time.RFC3339))
	}

	elements, err := ElementsFromStateVector(r, v, mu)
	if err != nil {
		return OrbitalElements{}, fmt.Errorf("ElementsFromTLE: %w", err)
	}
	return elements, nil
}

// tleFields are the numeric columns the SGP4 parser reads. It aborts the
// process on malformed numbers, so they are checked up front.
var tleFields = [...]struct {
	line     int
	from, to int
}{
	{1, 18, 32}, // epoch
	{2, 8, 16},  // inclination
	{2, 17, 25}, // RAAN
	{2, 34, 42}, // argument of perigee
	{2, 43, 51}, // mean anomaly
	{2, 52, 63}, // mean motion
}

func checkTLE(line1, line2 string) error {
	const tleLineLen = 69
	if len(line1) < tleLineLen || len(line2) < tleLineLen {
		return fmt.Errorf("%w: lines must be %d characters", ErrInvalidTLE, tleLineLen)
	}
	if !strings.HasPrefix(line1, "1 ") || !strings.HasPrefix(line2, "2 ") {
		return fmt.Errorf("%w: bad line numbers", ErrInvalidTLE)
	}
	if _, err := strconv.Atoi(strings.TrimSpace(line2[26:33])); err != nil {
		return fmt.Errorf("%w: eccentricity %q", ErrInvalidTLE, line2[26:33])
	}
	for _, f := range tleFields {
		line := line1
		if f.line == 2 {
			line = line2
		}
		field := strings.TrimSpace(line[f.from:f.to])
		if _, err := strconv.ParseFloat(field, 64); err != nil {
			return fmt.Errorf("%w: line %d columns %d-%d: %q", ErrInvalidTLE, f.line, f.from+1, f.to, field)
		}
	}
	return nil
}
