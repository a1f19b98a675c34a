package nbi

import (
	"errors"

	"github.com/signalsfoundry/orrery/camera"
	"github.com/signalsfoundry/orrery/core"
	"github.com/signalsfoundry/orrery/internal/sim"
	"github.com/signalsfoundry/orrery/timectrl"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrNotFound is a package-level sentinel used when an entity cannot be located.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument marks malformed request payloads.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNoSnapshot is returned before the engine has published its first frame.
	ErrNoSnapshot = errors.New("no snapshot published yet")
	// ErrRateLimited is returned when camera commands arrive faster than the
	// configured input rate.
	ErrRateLimited = errors.New("camera input rate exceeded")
)

// ToStatusError maps simulator errors onto gRPC status codes.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, sim.ErrUnknownBody),
		errors.Is(err, core.ErrUnknownPrimary):
		return status.Error(codes.NotFound, err.Error())

	case errors.Is(err, ErrInvalidArgument),
		errors.Is(err, timectrl.ErrInvalidScale),
		errors.Is(err, core.ErrInvalidElements),
		errors.Is(err, camera.ErrDegenerateLookAt):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, sim.ErrQueueFull),
		errors.Is(err, ErrRateLimited):
		return status.Error(codes.ResourceExhausted, err.Error())

	case errors.Is(err, ErrNoSnapshot):
		return status.Error(codes.FailedPrecondition, err.Error())

	default:
		return status.Error(codes.Internal, err.Error())
	}
}
