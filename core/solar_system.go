package core

import (
	"errors"
	"fmt"
	"strings"
)

// NoPrimary marks a root body.
const NoPrimary = -1

var (
	// ErrUnknownPrimary is returned when a body names a primary that does not exist.
	ErrUnknownPrimary = errors.New("unknown primary")
	// ErrCyclicHierarchy is returned when primaries form a loop.
	ErrCyclicHierarchy = errors.New("cyclic body hierarchy")
	// ErrDuplicateBody is returned when two bodies share a name.
	ErrDuplicateBody = errors.New("duplicate body")
	// ErrInvalidBody is returned for bodies with missing or malformed fields.
	ErrInvalidBody = errors.New("invalid body")
)

// BodyType classifies a body.
type BodyType int

const (
	BodyUnknown BodyType = iota
	BodyStar
	BodyPlanet
	BodyMoon
	BodyComet
	BodySpacecraft
)

func (t BodyType) String() string {
	switch t {
	case BodyStar:
		return "star"
	case BodyPlanet:
		return "planet"
	case BodyMoon:
		return "moon"
	case BodyComet:
		return "comet"
	case BodySpacecraft:
		return "spacecraft"
	default:
		return "unknown"
	}
}

// ParseBodyType maps a scene-file type name onto a BodyType. Asteroids share
// the comet class. Unrecognised names map to BodyUnknown.
func ParseBodyType(s string) BodyType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "star", "sun":
		return BodyStar
	case "planet", "dwarf_planet":
		return BodyPlanet
	case "moon", "satellite":
		return BodyMoon
	case "comet", "asteroid":
		return BodyComet
	case "spacecraft":
		return BodySpacecraft
	default:
		return BodyUnknown
	}
}

// BodySpec is the load-time description of one body.
type BodySpec struct {
	Name    string
	Type    BodyType
	Mass    float64 // kg
	GM      float64 // m^3/s^2; derived from Mass when zero
	Radius  float64 // m
	Primary string  // empty for root bodies

	// Orbit is optional. Bodies without one sit at Offset from their primary
	// (or from the origin when they are roots).
	Orbit  *OrbitalElements
	Offset Vec3
}

// Body is one node of the hierarchy. Position is derived state: it is only
// meaningful right after UpdatePositions.
type Body struct {
	Name   string
	Type   BodyType
	Mass   float64
	GM     float64
	Radius float64
	Orbit  *OrbitalElements

	Primary    int   // index into the owning system, NoPrimary for roots
	Satellites []int // back-references, never owning

	Position      Vec3
	Velocity      Vec3 // m/s, in the same frame as Position
	PositionValid bool

	motion MotionModel
}

// IsRoot reports whether the body has no primary.
func (b *Body) IsRoot() bool {
	return b.Primary == NoPrimary
}

// PropagationError reports that one body could not be positioned.
type PropagationError struct {
	Body string
	Err  error
}

func (e *PropagationError) Error() string {
	return fmt.Sprintf("propagate %s: %v", e.Body, e.Err)
}

func (e *PropagationError) Unwrap() error { return e.Err }

// UpdateStats summarises one UpdatePositions pass.
type UpdateStats struct {
	Bodies     int
	Iterations int
	Failures   int
}

// SolarSystem owns every Body in a flat arena; primary and satellite links
// are indices into it. The structure is fixed after construction.
type SolarSystem struct {
	Name string

	bodies []Body
	index  map[string]int
	roots  []int
	order  []int // depth-first, primaries before their satellites
}

// NewSolarSystem resolves primaries by name and validates that the hierarchy
// is a forest. Unknown primaries, duplicates and cycles are construction
// errors.
func NewSolarSystem(name string, specs []BodySpec) (*SolarSystem, error) {
	s := &SolarSystem{
		Name:   name,
		bodies: make([]Body, len(specs)),
		index:  make(map[string]int, len(specs)),
	}

	for i, spec := range specs {
		if strings.TrimSpace(spec.Name) == "" {
			return nil, fmt.Errorf("NewSolarSystem: body #%d: %w: empty name", i, ErrInvalidBody)
		}
		if _, exists := s.index[spec.Name]; exists {
			return nil, fmt.Errorf("NewSolarSystem: %w: %q", ErrDuplicateBody, spec.Name)
		}
		if spec.Mass < 0 || spec.Radius < 0 || !isFinite(spec.Mass) || !isFinite(spec.Radius) {
			return nil, fmt.Errorf("NewSolarSystem: %w: %q has mass %g radius %g", ErrInvalidBody, spec.Name, spec.Mass, spec.Radius)
		}
		s.index[spec.Name] = i

		gm := spec.GM
		if gm == 0 {
			gm = GravitationalConstant * spec.Mass
		}
		var orbit *OrbitalElements
		if spec.Orbit != nil {
			o := *spec.Orbit
			orbit = &o
		}
		s.bodies[i] = Body{
			Name:    spec.Name,
			Type:    spec.Type,
			Mass:    spec.Mass,
			GM:      gm,
			Radius:  spec.Radius,
			Orbit:   orbit,
			Primary: NoPrimary,
			motion:  NewMotionModel(spec.Orbit, spec.Offset),
		}
	}

	for i, spec := range specs {
		if spec.Primary == "" {
			s.roots = append(s.roots, i)
			continue
		}
		p, ok := s.index[spec.Primary]
		if !ok {
			return nil, fmt.Errorf("NewSolarSystem: %w: %q orbits %q", ErrUnknownPrimary, spec.Name, spec.Primary)
		}
		if p == i {
			return nil, fmt.Errorf("NewSolarSystem: %w: %q orbits itself", ErrCyclicHierarchy, spec.Name)
		}
		s.bodies[i].Primary = p
		s.bodies[p].Satellites = append(s.bodies[p].Satellites, i)
	}

	s.order = make([]int, 0, len(s.bodies))
	for _, r := range s.roots {
		s.order = s.appendSubtree(s.order, r)
	}
	if len(s.order) != len(s.bodies) {
		// Bodies unreachable from every root sit on, or hang off, a cycle.
		return nil, fmt.Errorf("NewSolarSystem: %w: %s", ErrCyclicHierarchy, strings.Join(s.unreachable(), ", "))
	}

	return s, nil
}

func (s *SolarSystem) appendSubtree(order []int, i int) []int {
	order = append(order, i)
	for _, sat := range s.bodies[i].Satellites {
		order = s.appendSubtree(order, sat)
	}
	return order
}

func (s *SolarSystem) unreachable() []string {
	seen := make([]bool, len(s.bodies))
	for _, i := range s.order {
		seen[i] = true
	}
	var names []string
	for i, ok := range seen {
		if !ok {
			names = append(names, s.bodies[i].Name)
		}
	}
	return names
}

// Len returns the number of bodies.
func (s *SolarSystem) Len() int {
	return len(s.bodies)
}

// Body returns the body at index i. The returned pointer aliases the arena;
// callers must not modify the hierarchy links.
func (s *SolarSystem) Body(i int) *Body {
	return &s.bodies[i]
}

// Lookup returns the index of the named body.
func (s *SolarSystem) Lookup(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// OrbitPath samples the named body's orbit at n evenly spaced true
// anomalies, as offsets from its primary. Orbital elements never change after
// construction, so OrbitPath is safe to call while another goroutine runs
// UpdatePositions. It reports false for unknown bodies and bodies without an
// orbit.
func (s *SolarSystem) OrbitPath(name string, n int) ([]Vec3, bool) {
	i, ok := s.index[name]
	if !ok || s.bodies[i].Orbit == nil {
		return nil, false
	}
	return s.bodies[i].Orbit.OrbitPath(n), true
}

// Roots returns the indices of bodies without a primary.
func (s *SolarSystem) Roots() []int {
	return append([]int(nil), s.roots...)
}

// Walk visits every body depth-first, primaries before satellites, passing
// the depth below its root.
func (s *SolarSystem) Walk(fn func(depth int, b *Body)) {
	for _, r := range s.roots {
		s.walk(r, 0, fn)
	}
}

func (s *SolarSystem) walk(i, depth int, fn func(int, *Body)) {
	fn(depth, &s.bodies[i])
	for _, sat := range s.bodies[i].Satellites {
		s.walk(sat, depth+1, fn)
	}
}

// UpdatePositions recomputes every body's world position at time t (seconds
// since the scene epoch). Each body is visited exactly once, after its
// primary. A body whose orbit cannot be propagated collapses onto its primary
// and is flagged invalid; the rest of the system is still updated and the
// per-body failures are returned joined.
func (s *SolarSystem) UpdatePositions(t float64) (UpdateStats, error) {
	stats := UpdateStats{Bodies: len(s.order)}
	var errs []error

	for _, i := range s.order {
		b := &s.bodies[i]

		var base, baseVel Vec3
		if b.Primary != NoPrimary {
			base = s.bodies[b.Primary].Position
			baseVel = s.bodies[b.Primary].Velocity
		}

		state, iters, err := b.motion.StateAt(t)
		stats.Iterations += iters
		if err != nil {
			stats.Failures++
			errs = append(errs, &PropagationError{Body: b.Name, Err: err})
			state = MotionState{}
		}
		b.Position = base.Add(state.Offset)
		b.Velocity = baseVel.Add(state.Velocity)
		b.PositionValid = err == nil
	}

	return stats, errors.Join(errs...)
}
