package model

import "time"

// BodyState is a body's published position at one simulation instant.
type BodyState struct {
	Name    string
	Type    string
	Primary string

	Radius   float64
	Position Motion
	Velocity Motion // m/s
	// Valid is false when the body's orbit could not be propagated and its
	// position collapsed onto its primary.
	Valid bool
}

// CameraState is a copy of the camera after input was applied for a frame.
// Matrices are column-major, ready for a shader uniform upload.
type CameraState struct {
	Position    Motion
	Target      Motion
	Orientation [4]float64 // w, x, y, z

	FOV       float64 // radians
	Near, Far float64
	Width     int
	Height    int

	View       [16]float64
	Projection [16]float64
}

// Snapshot is the immutable output of one simulation frame. Readers must
// not modify its slices.
type Snapshot struct {
	Seq       uint64
	SimTime   time.Time
	Seconds   float64 // since the scene epoch
	JulianDay float64

	Bodies []BodyState
	Camera CameraState
}
