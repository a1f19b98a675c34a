package nbi

import (
	"context"
	"fmt"
	"math"

	"github.com/signalsfoundry/orrery/core"
	"github.com/signalsfoundry/orrery/internal/logging"
	"github.com/signalsfoundry/orrery/internal/observability"
	"github.com/signalsfoundry/orrery/internal/sim"
	"github.com/signalsfoundry/orrery/kb"
	"github.com/signalsfoundry/orrery/model"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// BodyLookup resolves body names and their orbits; *core.SolarSystem
// satisfies it.
type BodyLookup interface {
	Lookup(name string) (int, bool)
	OrbitPath(name string, n int) ([]core.Vec3, bool)
}

// OrbitPathSamples is the number of points GetBody returns for an orbit.
const OrbitPathSamples = 128

// TimeScaler is the part of the simulation clock the API may adjust.
type TimeScaler interface {
	Scale() float64
	SetScale(float64) error
}

// Deps bundles what OrreryService reads from and writes to.
type Deps struct {
	Store   *kb.KnowledgeBase
	Input   *sim.InputQueue
	Bodies  BodyLookup
	Clock   TimeScaler
	Metrics *observability.APICollector
	Log     logging.Logger

	// InputRate caps camera commands per second across all clients, with
	// bursts of up to InputBurst. Zero disables the limit.
	InputRate  float64
	InputBurst int
}

// OrreryService serves the latest published frame and forwards camera
// commands to the engine's input queue. Commands are applied at the start of
// the next frame, so a successful reply means "queued", not "applied".
type OrreryService struct {
	UnimplementedOrreryServiceServer

	deps    Deps
	log     logging.Logger
	limiter *rate.Limiter
}

// NewOrreryService constructs an OrreryService from deps.
func NewOrreryService(deps Deps) *OrreryService {
	log := deps.Log
	if log == nil {
		log = logging.Noop()
	}
	s := &OrreryService{deps: deps, log: log}
	if deps.InputRate > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(deps.InputRate), max(deps.InputBurst, 1))
	}
	return s
}

func (s *OrreryService) GetSnapshot(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	snap, ok := s.deps.Store.Latest()
	if !ok {
		return nil, ToStatusError(ErrNoSnapshot)
	}
	return SnapshotToStruct(snap), nil
}

func (s *OrreryService) ListBodies(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return BodiesToStruct(s.deps.Store.ListBodies()), nil
}

func (s *OrreryService) GetBody(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	name := req.GetValue()
	if name == "" {
		return nil, ToStatusError(fmt.Errorf("%w: body name is required", ErrInvalidArgument))
	}
	body, ok := s.deps.Store.GetBody(name)
	if !ok {
		return nil, ToStatusError(fmt.Errorf("%w: body %q", ErrNotFound, name))
	}
	reply := BodyToStruct(body)
	if s.deps.Bodies != nil {
		// Offsets from the primary; renderers add the primary's position.
		if path, ok := s.deps.Bodies.OrbitPath(name, OrbitPathSamples); ok {
			reply.Fields["orbit_path"] = orbitPathValue(path)
		}
	}
	return reply, nil
}

func (s *OrreryService) GetCamera(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	cam, ok := s.deps.Store.Camera()
	if !ok {
		return nil, ToStatusError(ErrNoSnapshot)
	}
	return CameraToStruct(cam), nil
}

func (s *OrreryService) OrbitCamera(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	dx, dy, err := dragDelta(req)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return s.enqueue(ctx, sim.Orbit(dx, dy))
}

func (s *OrreryService) RotateCamera(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	dx, dy, err := dragDelta(req)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return s.enqueue(ctx, sim.Rotate(dx, dy))
}

func (s *OrreryService) DollyCamera(ctx context.Context, req *wrapperspb.DoubleValue) (*emptypb.Empty, error) {
	dz := req.GetValue()
	if !finite(dz) {
		return nil, ToStatusError(fmt.Errorf("%w: dolly amount must be finite", ErrInvalidArgument))
	}
	return s.enqueue(ctx, sim.Dolly(dz))
}

// FocusBody retargets the camera on a body; an empty name stops tracking.
func (s *OrreryService) FocusBody(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	name := req.GetValue()
	if name != "" && !s.bodyExists(name) {
		return nil, ToStatusError(fmt.Errorf("%w: %q", sim.ErrUnknownBody, name))
	}
	return s.enqueue(ctx, sim.Focus(name))
}

func (s *OrreryService) RecenterCamera(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	return s.enqueue(ctx, sim.Recenter())
}

func (s *OrreryService) ResizeViewport(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	w, err := numberField(req, "width")
	if err != nil {
		return nil, ToStatusError(err)
	}
	h, err := numberField(req, "height")
	if err != nil {
		return nil, ToStatusError(err)
	}
	if w < 1 || h < 1 || w > math.MaxInt32 || h > math.MaxInt32 {
		return nil, ToStatusError(fmt.Errorf("%w: viewport %vx%v", ErrInvalidArgument, w, h))
	}
	return s.enqueue(ctx, sim.Viewport(int(w), int(h)))
}

// SetTimeScale changes the simulated seconds per step multiplier and
// returns the scale now in effect.
func (s *OrreryService) SetTimeScale(ctx context.Context, req *wrapperspb.DoubleValue) (*wrapperspb.DoubleValue, error) {
	if s.deps.Clock == nil {
		return nil, ToStatusError(fmt.Errorf("no clock attached"))
	}
	if err := s.deps.Clock.SetScale(req.GetValue()); err != nil {
		return nil, ToStatusError(err)
	}
	logging.LoggerFromContext(ctx).Info(ctx, "time scale changed", logging.Float("scale", req.GetValue()))
	return wrapperspb.Double(s.deps.Clock.Scale()), nil
}

// WatchSnapshots streams the latest frame, then every frame published after
// it. A slow watcher skips frames instead of stalling the engine.
func (s *OrreryService) WatchSnapshots(_ *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	ctx := stream.Context()
	s.deps.Metrics.WatcherOpened()
	defer s.deps.Metrics.WatcherClosed()

	frames := make(chan model.Snapshot, 1)
	unsubscribe := s.deps.Store.Subscribe(func(ev kb.Event) {
		if ev.Type != kb.EventSnapshotPublished {
			return
		}
		offerLatest(frames, ev.Snapshot)
	})
	defer unsubscribe()

	var lastSeq uint64
	if snap, ok := s.deps.Store.Latest(); ok {
		if err := stream.Send(SnapshotToStruct(snap)); err != nil {
			return err
		}
		lastSeq = snap.Seq
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case snap := <-frames:
			if snap.Seq <= lastSeq {
				continue
			}
			if err := stream.Send(SnapshotToStruct(snap)); err != nil {
				s.log.Warn(ctx, "snapshot watcher send failed", logging.Err(err))
				return err
			}
			lastSeq = snap.Seq
		}
	}
}

// offerLatest puts snap in a one-slot channel, replacing any frame the
// reader has not taken yet.
func offerLatest(ch chan model.Snapshot, snap model.Snapshot) {
	for {
		select {
		case ch <- snap:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func (s *OrreryService) enqueue(ctx context.Context, cmd sim.Command) (*emptypb.Empty, error) {
	_, span := StartChildSpan(ctx, "API/enqueue", cmd.Body, attribute.String("command", cmd.Kind.String()))
	defer span.End()

	if s.limiter != nil && !s.limiter.Allow() {
		span.RecordError(ErrRateLimited)
		return nil, ToStatusError(ErrRateLimited)
	}
	if err := s.deps.Input.Push(cmd); err != nil {
		span.RecordError(err)
		logging.LoggerFromContext(ctx).Warn(ctx, "camera command dropped",
			logging.String("command", cmd.Kind.String()), logging.Err(err))
		return nil, ToStatusError(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *OrreryService) bodyExists(name string) bool {
	if s.deps.Bodies != nil {
		_, ok := s.deps.Bodies.Lookup(name)
		return ok
	}
	_, ok := s.deps.Store.GetBody(name)
	return ok
}

func dragDelta(req *structpb.Struct) (dx, dy float64, err error) {
	if dx, err = numberField(req, "dx"); err != nil {
		return 0, 0, err
	}
	if dy, err = numberField(req, "dy"); err != nil {
		return 0, 0, err
	}
	if !finite(dx) || !finite(dy) {
		return 0, 0, fmt.Errorf("%w: drag delta must be finite", ErrInvalidArgument)
	}
	return dx, dy, nil
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }
