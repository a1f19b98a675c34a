// core/scenario_loader.go
package core

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/signalsfoundry/orrery/model"
	"github.com/soniakeys/unit"
	"golang.org/x/exp/mmap"
)

// Scene is a loaded, validated scene: the body hierarchy plus the viewer
// setup it was saved with.
type Scene struct {
	Name   string
	Epoch  time.Time
	System *SolarSystem
	Camera model.CameraDefinition
}

// internal JSON shapes – keep them unexported so we’re free to evolve them.
type sceneJSON struct {
	Name   string     `json:"name"`
	Epoch  string     `json:"epoch"` // RFC 3339; defaults to J2000
	Bodies []bodyJSON `json:"bodies"`
	Camera cameraJSON `json:"camera"`
}

type bodyJSON struct {
	Name    string        `json:"name"`
	Type    string        `json:"type"`
	Primary string        `json:"primary"`
	Mass    float64       `json:"mass"`
	GM      float64       `json:"gm"`
	Radius  float64       `json:"radius"`
	Orbit   *orbitJSON    `json:"orbit"`
	TLE     []string      `json:"tle"`
	Offset  *positionJSON `json:"offset"`
}

type orbitJSON struct {
	Ecc    float64 `json:"ecc"`
	SMA    float64 `json:"sma"` // metres
	Inc    float64 `json:"inc"` // degrees
	LAN    float64 `json:"lan"` // degrees
	APe    float64 `json:"ape"` // degrees
	MnA    float64 `json:"mna"` // degrees
	Period float64 `json:"period"`
	Epoch  float64 `json:"epoch"`
}

type cameraJSON struct {
	Position         *positionJSON `json:"position"`
	Target           *positionJSON `json:"target"`
	Up               *positionJSON `json:"up"`
	Focus            string        `json:"focus"`
	FOVDeg           float64       `json:"fov_deg"`
	Near             float64       `json:"near"`
	Far              float64       `json:"far"`
	Width            int           `json:"width"`
	Height           int           `json:"height"`
	DollySensitivity float64       `json:"dolly_sensitivity"`
	TrackballRadius  float64       `json:"trackball_radius"`
}

type positionJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (p *positionJSON) motion() model.Motion {
	if p == nil {
		return model.Motion{}
	}
	return model.Motion{X: p.X, Y: p.Y, Z: p.Z}
}

// J2000 is the default scene epoch.
var J2000 = time.Date(2000, time.January, 1, 12, 0, 0, 0, time.UTC)

// DecodeSceneDefinition reads a JSON scene from r without validating the
// hierarchy.
func DecodeSceneDefinition(r io.Reader) (model.SceneDefinition, error) {
	var payload sceneJSON
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return model.SceneDefinition{}, fmt.Errorf("DecodeSceneDefinition: decode failed: %w", err)
	}

	def := model.SceneDefinition{
		Name:   payload.Name,
		Epoch:  J2000,
		Bodies: make([]model.BodyDefinition, 0, len(payload.Bodies)),
	}
	if payload.Epoch != "" {
		epoch, err := time.Parse(time.RFC3339, payload.Epoch)
		if err != nil {
			return model.SceneDefinition{}, fmt.Errorf("DecodeSceneDefinition: epoch: %w", err)
		}
		def.Epoch = epoch.UTC()
	}

	for _, jsB := range payload.Bodies {
		b := model.BodyDefinition{
			Name:    jsB.Name,
			Type:    jsB.Type,
			Primary: jsB.Primary,
			Mass:    jsB.Mass,
			GM:      jsB.GM,
			Radius:  jsB.Radius,
			Offset:  jsB.Offset.motion(),
		}
		if jsB.Orbit != nil {
			b.Orbit = &model.OrbitDefinition{
				Eccentricity:  jsB.Orbit.Ecc,
				SemiMajorAxis: jsB.Orbit.SMA,
				Inclination:   jsB.Orbit.Inc,
				AscendingNode: jsB.Orbit.LAN,
				ArgPeriapsis:  jsB.Orbit.APe,
				MeanAnomaly:   jsB.Orbit.MnA,
				Period:        jsB.Orbit.Period,
				Epoch:         jsB.Orbit.Epoch,
			}
		}
		switch len(jsB.TLE) {
		case 0:
		case 2:
			b.TLE = [2]string{jsB.TLE[0], jsB.TLE[1]}
		default:
			return model.SceneDefinition{}, fmt.Errorf("DecodeSceneDefinition: body %q: tle needs 2 lines, got %d", jsB.Name, len(jsB.TLE))
		}
		def.Bodies = append(def.Bodies, b)
	}

	c := payload.Camera
	def.Camera = model.CameraDefinition{
		Position:         c.Position.motion(),
		Target:           c.Target.motion(),
		Up:               c.Up.motion(),
		Focus:            c.Focus,
		FOVDegrees:       c.FOVDeg,
		Near:             c.Near,
		Far:              c.Far,
		Width:            c.Width,
		Height:           c.Height,
		DollySensitivity: c.DollySensitivity,
		TrackballRadius:  c.TrackballRadius,
	}

	return def, nil
}

// LoadScene decodes a JSON scene from r and builds its hierarchy.
func LoadScene(r io.Reader) (*Scene, error) {
	def, err := DecodeSceneDefinition(r)
	if err != nil {
		return nil, fmt.Errorf("LoadScene: %w", err)
	}
	scene, err := BuildScene(def)
	if err != nil {
		return nil, fmt.Errorf("LoadScene: %w", err)
	}
	return scene, nil
}

// LoadSceneFile memory-maps the scene file at path and loads it.
func LoadSceneFile(path string) (*Scene, error) {
	reader, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("LoadSceneFile: %w", err)
	}
	defer reader.Close()

	scene, err := LoadScene(io.NewSectionReader(reader, 0, int64(reader.Len())))
	if err != nil {
		return nil, fmt.Errorf("LoadSceneFile %s: %w", path, err)
	}
	return scene, nil
}

// BuildScene converts degrees to radians, derives GM and periods, seeds TLE
// bodies and validates the hierarchy.
func BuildScene(def model.SceneDefinition) (*Scene, error) {
	epoch := def.Epoch
	if epoch.IsZero() {
		epoch = J2000
	}

	gm := make(map[string]float64, len(def.Bodies))
	for _, b := range def.Bodies {
		mu := b.GM
		if mu == 0 {
			mu = GravitationalConstant * b.Mass
		}
		gm[b.Name] = mu
	}

	specs := make([]BodySpec, 0, len(def.Bodies))
	for _, b := range def.Bodies {
		spec := BodySpec{
			Name:    b.Name,
			Type:    ParseBodyType(b.Type),
			Mass:    b.Mass,
			GM:      b.GM,
			Radius:  b.Radius,
			Primary: b.Primary,
			Offset:  Vec3{X: b.Offset.X, Y: b.Offset.Y, Z: b.Offset.Z},
		}

		if b.Orbit != nil || b.HasTLE() {
			if b.Primary == "" {
				return nil, fmt.Errorf("BuildScene: body %q: %w: an orbit needs a primary", b.Name, ErrInvalidBody)
			}
			mu, ok := gm[b.Primary]
			if !ok {
				return nil, fmt.Errorf("BuildScene: %w: %q orbits %q", ErrUnknownPrimary, b.Name, b.Primary)
			}

			elements, err := elementsFor(b, mu, epoch)
			if err != nil {
				return nil, fmt.Errorf("BuildScene: body %q: %w", b.Name, err)
			}
			spec.Orbit = &elements
		}

		specs = append(specs, spec)
	}

	system, err := NewSolarSystem(def.Name, specs)
	if err != nil {
		return nil, fmt.Errorf("BuildScene: %w", err)
	}

	return &Scene{
		Name:   def.Name,
		Epoch:  epoch,
		System: system,
		Camera: def.Camera,
	}, nil
}

func elementsFor(b model.BodyDefinition, mu float64, epoch time.Time) (OrbitalElements, error) {
	if b.Orbit == nil {
		return ElementsFromTLE(b.TLE[0], b.TLE[1], epoch, mu)
	}

	o := b.Orbit
	period := o.Period
	if period == 0 {
		if mu <= 0 || o.SemiMajorAxis <= 0 {
			return OrbitalElements{}, fmt.Errorf("%w: period unset and primary has no mass", ErrInvalidElements)
		}
		period = PeriodFromGM(o.SemiMajorAxis, mu)
	}

	angles := Angles{
		Inclination:   unit.AngleFromDeg(o.Inclination).Rad(),
		AscendingNode: unit.AngleFromDeg(o.AscendingNode).Rad(),
		ArgPeriapsis:  unit.AngleFromDeg(o.ArgPeriapsis).Rad(),
	}
	elements, err := NewOrbitalElements(o.Eccentricity, o.SemiMajorAxis, angles, unit.AngleFromDeg(o.MeanAnomaly).Rad(), period)
	if err != nil {
		return OrbitalElements{}, err
	}
	elements.Epoch = o.Epoch
	return elements, nil
}
