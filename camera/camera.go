// Package camera implements a quaternion camera that turns pointer deltas
// into view and projection transforms.
package camera

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/signalsfoundry/orrery/core"
	"github.com/signalsfoundry/orrery/model"
)

// Defaults match a heliocentric scene viewed from roughly 1 AU.
const (
	DefaultFOV              = math.Pi / 4
	DefaultNear             = 1e6
	DefaultFar              = 4.5e12
	DefaultWidth            = 1024
	DefaultHeight           = 768
	DefaultDollySensitivity = 0.1
	DefaultDistance         = 150e9
)

// ErrDegenerateLookAt is returned when the eye coincides with the target or
// the up vector is parallel to the line of sight.
var ErrDegenerateLookAt = errors.New("degenerate look-at")

// Config is the initial camera setup. Zero values take the package defaults.
type Config struct {
	Position core.Vec3
	Target   core.Vec3
	Up       core.Vec3

	FOV       float64 // vertical field of view, radians
	Near, Far float64
	Width     int
	Height    int

	DollySensitivity float64
	TrackballRadius  float64
}

// ConfigFromDefinition maps a scene's camera block onto a Config.
func ConfigFromDefinition(def model.CameraDefinition) Config {
	vec := func(m model.Motion) core.Vec3 { return core.Vec3{X: m.X, Y: m.Y, Z: m.Z} }
	return Config{
		Position:         vec(def.Position),
		Target:           vec(def.Target),
		Up:               vec(def.Up),
		FOV:              core.Radians(def.FOVDegrees),
		Near:             def.Near,
		Far:              def.Far,
		Width:            def.Width,
		Height:           def.Height,
		DollySensitivity: def.DollySensitivity,
		TrackballRadius:  def.TrackballRadius,
	}
}

func (c Config) withDefaults() Config {
	if c.Position == (core.Vec3{}) && c.Target == (core.Vec3{}) {
		c.Position = core.Vec3{Z: DefaultDistance}
	}
	if c.Up == (core.Vec3{}) {
		c.Up = core.Vec3{Y: 1}
	}
	if c.FOV <= 0 || c.FOV >= math.Pi {
		c.FOV = DefaultFOV
	}
	if c.Near <= 0 {
		c.Near = DefaultNear
	}
	if c.Far <= c.Near {
		c.Far = math.Max(DefaultFar, c.Near*2)
	}
	if c.Width <= 0 {
		c.Width = DefaultWidth
	}
	if c.Height <= 0 {
		c.Height = DefaultHeight
	}
	if c.DollySensitivity <= 0 {
		c.DollySensitivity = DefaultDollySensitivity
	}
	if c.TrackballRadius <= 0 {
		c.TrackballRadius = core.DefaultTrackballRadius
	}
	return c
}

// Camera holds an eye position, the point being orbited, and a unit
// orientation mapping camera space (x right, y up, looking down -z) into
// world space. A Camera is not safe for concurrent use; one goroutine owns
// it.
type Camera struct {
	position    core.Vec3
	target      core.Vec3
	orientation core.Quaternion

	fov       float64
	near, far float64

	left, bottom  int
	width, height int

	dollySensitivity float64
	trackballRadius  float64
}

// New builds a camera and points it at cfg.Target.
func New(cfg Config) (*Camera, error) {
	cfg = cfg.withDefaults()
	c := &Camera{
		fov:              cfg.FOV,
		near:             cfg.Near,
		far:              cfg.Far,
		width:            cfg.Width,
		height:           cfg.Height,
		dollySensitivity: cfg.DollySensitivity,
		trackballRadius:  cfg.TrackballRadius,
	}
	if err := c.LookAt(cfg.Position, cfg.Target, cfg.Up); err != nil {
		return nil, fmt.Errorf("camera.New: %w", err)
	}
	return c, nil
}

// Position returns the eye position.
func (c *Camera) Position() core.Vec3 { return c.position }

// Target returns the point the camera orbits.
func (c *Camera) Target() core.Vec3 { return c.target }

// Orientation returns the unit camera-to-world rotation.
func (c *Camera) Orientation() core.Quaternion { return c.orientation }

// Distance returns |position - target|.
func (c *Camera) Distance() float64 { return c.position.DistanceTo(c.target) }

// Forward returns the world-space viewing direction.
func (c *Camera) Forward() core.Vec3 { return c.orientation.Rotate(core.Vec3{Z: -1}) }

// Up returns the world-space up direction.
func (c *Camera) Up() core.Vec3 { return c.orientation.Rotate(core.Vec3{Y: 1}) }

// Side returns the world-space right direction.
func (c *Camera) Side() core.Vec3 { return c.orientation.Rotate(core.Vec3{X: 1}) }

// FOV returns the vertical field of view in radians.
func (c *Camera) FOV() float64 { return c.fov }

// DollySensitivity returns k in the exp(-k·dz) dolly factor.
func (c *Camera) DollySensitivity() float64 { return c.dollySensitivity }

// SetDollySensitivity changes k; non-positive values are ignored.
func (c *Camera) SetDollySensitivity(k float64) {
	if k > 0 {
		c.dollySensitivity = k
	}
}

// LookAt resets the camera. The orientation is rebuilt from the basis
// forward = target - position, side = forward × up, up' = side × forward,
// discarding any previous rotation. On error the camera is unchanged.
func (c *Camera) LookAt(position, target, up core.Vec3) error {
	forward := target.Sub(position)
	if forward.Norm2() == 0 {
		return fmt.Errorf("%w: eye %v equals target", ErrDegenerateLookAt, position)
	}
	forward = forward.Normalize()

	side := forward.Cross(up)
	if side.Norm() <= 1e-12*up.Norm() || up.Norm2() == 0 {
		return fmt.Errorf("%w: up %v parallel to line of sight", ErrDegenerateLookAt, up)
	}
	side = side.Normalize()
	upPrime := side.Cross(forward)

	c.position = position
	c.target = target
	c.orientation = core.QuatFromBasis(side, upPrime, forward.Scale(-1))
	return nil
}

// Orbit swings the camera around its target for a pointer drag (dx, dy).
// The drag rotation is expressed in camera space and conjugated into world
// space; the target-to-eye vector is rotated with it and rescaled to its
// original length, and the orientation turns by the same amount so the
// camera keeps facing the target.
func (c *Camera) Orbit(dx, dy float64) {
	q := core.Trackball(dx, dy, c.trackballRadius)
	if q == core.IdentityQuaternion() {
		return
	}

	inv := q.Conjugate()
	world := c.orientation.Mul(inv).Mul(c.orientation.Conjugate()).Normalize()

	offset := c.position.Sub(c.target)
	dist := offset.Norm()
	if dist > 0 {
		rotated := world.Rotate(offset).Normalize().Scale(dist)
		c.position = c.target.Add(rotated)
	}

	c.orientation = c.orientation.Mul(inv).Normalize()
}

// Rotate turns the camera in place for a pointer drag (dx, dy). Position and
// target are untouched.
func (c *Camera) Rotate(dx, dy float64) {
	q := core.Trackball(dx, dy, c.trackballRadius)
	if q == core.IdentityQuaternion() {
		return
	}
	c.orientation = c.orientation.Mul(q).Normalize()
}

// Dolly scales the eye-to-target distance by exp(-k·dz). Positive dz moves
// towards the target, which is never reached.
func (c *Camera) Dolly(dz float64) {
	factor := math.Exp(-c.dollySensitivity * dz)
	if !(factor > 0) || math.IsInf(factor, 0) {
		return
	}
	offset := c.position.Sub(c.target)
	c.position = c.target.Add(offset.Scale(factor))
}

// Recenter re-aims the camera at its target using its current up vector,
// dropping any free-look rotation.
func (c *Camera) Recenter() error {
	return c.LookAt(c.position, c.target, c.Up())
}

// FocusOn moves the target to point, carrying the eye along so the viewing
// distance and direction are kept, then re-aims at it.
func (c *Camera) FocusOn(point core.Vec3) error {
	offset := c.position.Sub(c.target)
	if offset.Norm2() == 0 {
		offset = c.Forward().Scale(-DefaultDistance)
	}
	return c.LookAt(point.Add(offset), point, c.Up())
}

// Track translates eye and target together so the target sits at point.
// Orientation is unchanged.
func (c *Camera) Track(point core.Vec3) {
	delta := point.Sub(c.target)
	c.position = c.position.Add(delta)
	c.target = point
}

// SetViewport records the drawable rectangle. Non-positive sizes are
// clamped to one pixel.
func (c *Camera) SetViewport(left, bottom, width, height int) {
	c.left, c.bottom = left, bottom
	c.width, c.height = max(width, 1), max(height, 1)
}

// Viewport returns the drawable rectangle.
func (c *Camera) Viewport() (left, bottom, width, height int) {
	return c.left, c.bottom, c.width, c.height
}

// Aspect returns width/height.
func (c *Camera) Aspect() float64 {
	return float64(c.width) / float64(c.height)
}

// SetClipPlanes changes the near and far planes. Invalid ranges are
// rejected.
func (c *Camera) SetClipPlanes(near, far float64) error {
	if !(near > 0) || !(far > near) {
		return fmt.Errorf("camera: invalid clip planes near=%g far=%g", near, far)
	}
	c.near, c.far = near, far
	return nil
}

// ClipPlanes returns the near and far planes.
func (c *Camera) ClipPlanes() (near, far float64) {
	return c.near, c.far
}

// ViewMatrix maps world space into camera space: translate by -position,
// then rotate by the conjugate orientation.
func (c *Camera) ViewMatrix() mgl64.Mat4 {
	s := core.NewMatrixStack()
	c.applyView(s)
	return s.Top()
}

// applyView multiplies the view transform onto the top of s.
func (c *Camera) applyView(s *core.MatrixStack) {
	s.Rotate(c.orientation.Conjugate())
	s.Translate(c.position.Scale(-1))
}

// ProjectionMatrix returns an OpenGL-style perspective projection.
func (c *Camera) ProjectionMatrix() mgl64.Mat4 {
	return mgl64.Perspective(c.fov, c.Aspect(), c.near, c.far)
}

// ViewProjection returns ProjectionMatrix · ViewMatrix.
func (c *Camera) ViewProjection() mgl64.Mat4 {
	s := core.NewMatrixStack()
	s.Load(c.ProjectionMatrix())
	c.applyView(s)
	return s.Top()
}

// Project maps a world point to normalised device coordinates.
func (c *Camera) Project(p core.Vec3) core.Vec3 {
	return core.TransformPoint(c.ViewProjection(), p)
}
