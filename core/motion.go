package core

// MotionState is a body's offset and velocity relative to its primary, or
// relative to the scene origin for a root body.
type MotionState struct {
	Offset   Vec3 // m
	Velocity Vec3 // m/s
}

// MotionModel places a body at simulation time t (seconds since the epoch).
// It also reports the solver iterations spent, for metrics.
type MotionModel interface {
	StateAt(t float64) (MotionState, int, error)
}

// StaticMotionModel keeps a body at a fixed offset.
type StaticMotionModel struct {
	Offset Vec3
}

// StateAt for static motion always returns the configured offset at rest.
func (m *StaticMotionModel) StateAt(float64) (MotionState, int, error) {
	return MotionState{Offset: m.Offset}, 0, nil
}

// KeplerMotionModel propagates a two-body orbit.
type KeplerMotionModel struct {
	Elements OrbitalElements
}

// StateAt solves Kepler's equation at t and rotates the plane state into
// the primary's frame. Unsupported eccentricities yield a zero state.
func (m *KeplerMotionModel) StateAt(t float64) (MotionState, int, error) {
	E, iters, err := m.Elements.EccentricAnomalyAt(t)
	if err != nil {
		return MotionState{}, iters, err
	}
	r, v := m.Elements.StateAtE(E)
	return MotionState{Offset: r, Velocity: v}, iters, nil
}

// NewMotionModel chooses Kepler propagation when elements are present and a
// static offset otherwise.
func NewMotionModel(elements *OrbitalElements, offset Vec3) MotionModel {
	if elements != nil {
		return &KeplerMotionModel{Elements: *elements}
	}
	return &StaticMotionModel{Offset: offset}
}
