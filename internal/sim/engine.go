// Package sim runs the per-frame loop: apply camera input, propagate the
// body hierarchy, publish a snapshot.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/signalsfoundry/orrery/camera"
	"github.com/signalsfoundry/orrery/core"
	"github.com/signalsfoundry/orrery/internal/logging"
	"github.com/signalsfoundry/orrery/internal/observability"
	"github.com/signalsfoundry/orrery/kb"
	"github.com/signalsfoundry/orrery/model"
	"github.com/signalsfoundry/orrery/timectrl"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/signalsfoundry/orrery/internal/sim"

// ErrUnknownBody is reported when a command names a body the scene lacks.
var ErrUnknownBody = errors.New("unknown body")

// Engine is the single owner of a scene's SolarSystem and Camera. Other
// goroutines talk to it through its InputQueue and read its output from the
// knowledge base.
type Engine struct {
	mu sync.Mutex

	scene  *core.Scene
	system *core.SolarSystem
	cam    *camera.Camera
	input  *InputQueue
	store  *kb.KnowledgeBase

	log     logging.Logger
	metrics *observability.SimCollector
	tracer  trace.Tracer

	follow   int // body index the camera tracks, or core.NoPrimary
	reported map[string]bool

	tickListeners []func(model.Snapshot)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMetrics attaches a simulation metrics collector.
func WithMetrics(m *observability.SimCollector) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithKnowledgeBase publishes snapshots into store instead of a private KB.
func WithKnowledgeBase(store *kb.KnowledgeBase) Option {
	return func(e *Engine) {
		if store != nil {
			e.store = store
		}
	}
}

// WithInputQueue shares an existing queue with the engine.
func WithInputQueue(q *InputQueue) Option {
	return func(e *Engine) {
		if q != nil {
			e.input = q
		}
	}
}

// NewEngine wires a loaded scene and its camera. When the scene names a
// focus body the camera starts tracking it.
func NewEngine(scene *core.Scene, cam *camera.Camera, opts ...Option) *Engine {
	e := &Engine{
		scene:    scene,
		system:   scene.System,
		cam:      cam,
		input:    NewInputQueue(0),
		store:    kb.NewKnowledgeBase(),
		log:      logging.Noop(),
		tracer:   otel.Tracer(tracerName),
		follow:   core.NoPrimary,
		reported: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	if focus := scene.Camera.Focus; focus != "" {
		if i, ok := e.system.Lookup(focus); ok {
			e.follow = i
		}
	}
	e.metrics.SetBodies(e.system.Len())
	return e
}

// Input returns the queue feeding camera commands into the next frame.
func (e *Engine) Input() *InputQueue { return e.input }

// KnowledgeBase returns the store snapshots are published to.
func (e *Engine) KnowledgeBase() *kb.KnowledgeBase { return e.store }

// Scene returns the scene the engine was built from.
func (e *Engine) Scene() *core.Scene { return e.scene }

// RegisterTickListener adds a callback run after every published frame.
func (e *Engine) RegisterTickListener(fn func(model.Snapshot)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickListeners = append(e.tickListeners, fn)
}

// Step runs one frame at simTime: pending input is applied to the camera,
// every body is propagated, and the resulting snapshot is published and
// returned. Bodies that fail to propagate are logged and counted; they never
// abort the frame.
func (e *Engine) Step(ctx context.Context, simTime time.Time) (model.Snapshot, core.UpdateStats) {
	start := time.Now()

	e.mu.Lock()
	ctx, span := e.tracer.Start(ctx, "sim.Step")
	defer span.End()

	for _, cmd := range e.input.Drain() {
		e.apply(ctx, cmd)
	}

	seconds := timectrl.SecondsSince(e.scene.Epoch, simTime)
	stats, err := e.system.UpdatePositions(seconds)
	e.forgetRecovered()
	if err != nil {
		e.reportFailures(ctx, err)
		span.SetStatus(codes.Error, "propagation failures")
	}

	if e.follow != core.NoPrimary {
		e.cam.Track(e.system.Body(e.follow).Position)
	}

	snap := e.snapshot(simTime, seconds)
	snap = e.store.Publish(snap)
	listeners := append([]func(model.Snapshot){}, e.tickListeners...)
	distance := e.cam.Distance()
	e.mu.Unlock()

	span.SetAttributes(
		attribute.Int("sim.bodies", stats.Bodies),
		attribute.Int("sim.failures", stats.Failures),
		attribute.Int("sim.kepler_iterations", stats.Iterations),
		attribute.Float64("sim.seconds", seconds),
	)
	e.metrics.ObserveTick(time.Since(start), stats.Iterations, seconds)
	e.metrics.SetCameraDistance(distance)

	for _, fn := range listeners {
		fn(snap)
	}
	return snap, stats
}

// Listener adapts Step to a timectrl tick listener.
func (e *Engine) Listener(ctx context.Context) func(time.Time) {
	return func(t time.Time) {
		e.Step(ctx, t)
	}
}

func (e *Engine) apply(ctx context.Context, cmd Command) {
	var err error
	switch cmd.Kind {
	case CommandOrbit:
		e.cam.Orbit(cmd.DX, cmd.DY)
	case CommandRotate:
		e.cam.Rotate(cmd.DX, cmd.DY)
	case CommandDolly:
		e.cam.Dolly(cmd.DZ)
	case CommandRecenter:
		err = e.cam.Recenter()
	case CommandViewport:
		_, _, w, h := e.cam.Viewport()
		if cmd.Width > 0 {
			w = cmd.Width
		}
		if cmd.Height > 0 {
			h = cmd.Height
		}
		e.cam.SetViewport(0, 0, w, h)
	case CommandFocus:
		err = e.focus(cmd.Body)
	}

	if err != nil {
		e.log.Warn(ctx, "camera command rejected",
			logging.String("command", cmd.Kind.String()), logging.Err(err))
		return
	}
	e.metrics.IncInput(cmd.Kind.String())
}

func (e *Engine) focus(name string) error {
	if name == "" {
		e.follow = core.NoPrimary
		return nil
	}
	i, ok := e.system.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownBody, name)
	}
	e.follow = i
	return e.cam.FocusOn(e.system.Body(i).Position)
}

// forgetRecovered drops bodies that propagate again, so a later failure is
// warned about afresh.
func (e *Engine) forgetRecovered() {
	for name := range e.reported {
		if i, ok := e.system.Lookup(name); !ok || e.system.Body(i).PositionValid {
			delete(e.reported, name)
		}
	}
}

func (e *Engine) reportFailures(ctx context.Context, err error) {
	var errs []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	} else {
		errs = []error{err}
	}

	for _, err := range errs {
		var perr *core.PropagationError
		if !errors.As(err, &perr) {
			e.log.Error(ctx, "propagation failed", logging.Err(err))
			continue
		}
		e.metrics.IncPropagationFailure(perr.Body)

		// Unsupported orbits fail identically every frame; warn once.
		if e.reported[perr.Body] {
			continue
		}
		e.reported[perr.Body] = true

		fields := []logging.Field{logging.Body(perr.Body), logging.Err(perr.Err)}
		if i, ok := e.system.Lookup(perr.Body); ok {
			if orbit := e.system.Body(i).Orbit; orbit != nil {
				fields = append(fields, logging.Float("eccentricity", orbit.Eccentricity))
			}
		}
		e.log.Warn(ctx, "body cannot be propagated; pinned to its primary", fields...)
	}
}

func (e *Engine) snapshot(simTime time.Time, seconds float64) model.Snapshot {
	bodies := make([]model.BodyState, 0, e.system.Len())
	e.system.Walk(func(_ int, b *core.Body) {
		primary := ""
		if !b.IsRoot() {
			primary = e.system.Body(b.Primary).Name
		}
		bodies = append(bodies, model.BodyState{
			Name:     b.Name,
			Type:     b.Type.String(),
			Primary:  primary,
			Radius:   b.Radius,
			Position: toMotion(b.Position),
			Velocity: toMotion(b.Velocity),
			Valid:    b.PositionValid,
		})
	})

	return model.Snapshot{
		SimTime:   simTime,
		Seconds:   seconds,
		JulianDay: timectrl.JulianDay(simTime),
		Bodies:    bodies,
		Camera:    CameraState(e.cam),
	}
}

// CameraState copies a camera into its published form.
func CameraState(c *camera.Camera) model.CameraState {
	o := c.Orientation()
	near, far := c.ClipPlanes()
	_, _, w, h := c.Viewport()
	return model.CameraState{
		Position:    toMotion(c.Position()),
		Target:      toMotion(c.Target()),
		Orientation: [4]float64{o.W, o.X, o.Y, o.Z},
		FOV:         c.FOV(),
		Near:        near,
		Far:         far,
		Width:       w,
		Height:      h,
		View:        [16]float64(c.ViewMatrix()),
		Projection:  [16]float64(c.ProjectionMatrix()),
	}
}

func toMotion(v core.Vec3) model.Motion {
	return model.Motion{X: v.X, Y: v.Y, Z: v.Z}
}
