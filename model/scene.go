package model

import "time"

// Motion is a position in scene metres.
type Motion struct {
	X float64
	Y float64
	Z float64
}

// OrbitDefinition holds classical elements as they appear in scene files.
// Angles are in degrees; the core converts them to radians.
type OrbitDefinition struct {
	Eccentricity  float64
	SemiMajorAxis float64 // metres
	Inclination   float64
	AscendingNode float64 // LAN
	ArgPeriapsis  float64 // APe
	MeanAnomaly   float64 // MnA, at Epoch

	// Period in seconds. Zero means derive it from the primary's GM.
	Period float64
	// Epoch offsets the elements from the scene epoch, in seconds.
	Epoch float64
}

// BodyDefinition represents one body in a scene: a star, planet, moon or
// spacecraft. Exactly one of Orbit, TLE or Offset places it.
type BodyDefinition struct {
	Name    string
	Type    string // e.g. "star", "planet", "moon"
	Primary string // empty for root bodies

	Mass   float64 // kg
	GM     float64 // m^3/s^2, optional
	Radius float64 // m

	Orbit  *OrbitDefinition
	TLE    [2]string // NORAD two-line set, Earth-centred
	Offset Motion
}

// HasTLE reports whether the body is seeded from a two-line set.
func (b BodyDefinition) HasTLE() bool {
	return b.TLE[0] != "" && b.TLE[1] != ""
}

// CameraDefinition is the initial viewer setup. Zero fields take defaults.
type CameraDefinition struct {
	Position Motion
	Target   Motion
	Up       Motion
	Focus    string // body to look at, overrides Target

	FOVDegrees float64
	Near, Far  float64
	Width      int
	Height     int

	DollySensitivity float64
	TrackballRadius  float64
}

// SceneDefinition is a complete scene as loaded from disk.
type SceneDefinition struct {
	Name   string
	Epoch  time.Time
	Bodies []BodyDefinition
	Camera CameraDefinition
}
