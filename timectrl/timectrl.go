package timectrl

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// MaxScale bounds the time scale so one scaled step stays within
// time.Duration.
const MaxScale = 1e4

// ErrInvalidScale is returned by SetScale for non-positive or excessive
// scales.
var ErrInvalidScale = errors.New("invalid time scale")

// SimClock is the read side of the controller, for components that only
// need the current simulation time.
type SimClock interface {
	// Now returns the current simulation time.
	Now() time.Time
	// Scale returns the current time scale multiplier.
	Scale() float64
}

// Mode describes how the TimeController advances simulation time.
type Mode int

const (
	// RealTime advances by the wall tick, times the scale.
	RealTime Mode = iota
	// Accelerated advances by a fixed simulated Step per wall tick, times the
	// scale. One day per tick reproduces a classic orrery.
	Accelerated
)

func (m Mode) String() string {
	switch m {
	case RealTime:
		return "realtime"
	case Accelerated:
		return "accelerated"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts "realtime" or "accelerated".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "realtime", "real", "":
		return RealTime, nil
	case "accelerated", "fast":
		return Accelerated, nil
	default:
		return RealTime, fmt.Errorf("timectrl: unknown mode %q", s)
	}
}

// TimeController drives simulation time and notifies registered listeners.
type TimeController struct {
	mu        sync.RWMutex
	StartTime time.Time
	Tick      time.Duration // wall-clock interval between ticks
	Step      time.Duration // simulated advance per tick in Accelerated mode
	Mode      Mode

	scale       float64
	currentTime time.Time

	listeners []func(time.Time)
}

// NewTimeController constructs a controller at scale 1. Step defaults to
// Tick.
func NewTimeController(start time.Time, tick, step time.Duration, mode Mode) *TimeController {
	if step <= 0 {
		step = tick
	}
	return &TimeController{
		StartTime:   start,
		Tick:        tick,
		Step:        step,
		Mode:        mode,
		scale:       1,
		currentTime: start,
	}
}

// Now returns the current simulation time.
func (tc *TimeController) Now() time.Time {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime
}

// SetTime jumps the simulation clock without notifying listeners.
func (tc *TimeController) SetTime(t time.Time) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.currentTime = t
}

// Scale returns the current time scale.
func (tc *TimeController) Scale() float64 {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.scale
}

// SetScale changes the multiplier applied to every subsequent step.
func (tc *TimeController) SetScale(s float64) error {
	if !(s > 0) || s > MaxScale {
		return fmt.Errorf("%w: %g", ErrInvalidScale, s)
	}
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.scale = s
	return nil
}

// AddListener registers a callback invoked on every tick.
func (tc *TimeController) AddListener(fn func(time.Time)) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.listeners = append(tc.listeners, fn)
}

// stepSize is the simulated advance of one tick.
func (tc *TimeController) stepSize() time.Duration {
	tc.mu.RLock()
	defer tc.mu.RUnlock()

	base := tc.Tick
	if tc.Mode == Accelerated {
		base = tc.Step
	}
	return time.Duration(float64(base) * tc.scale)
}

// Advance moves simulation time forward by one tick and notifies listeners
// synchronously. It returns the new time.
func (tc *TimeController) Advance() time.Time {
	step := tc.stepSize()

	tc.mu.Lock()
	tc.currentTime = tc.currentTime.Add(step)
	now := tc.currentTime
	listeners := append([]func(time.Time){}, tc.listeners...)
	tc.mu.Unlock()

	for _, fn := range listeners {
		fn(now)
	}
	return now
}

// Start runs the controller in a separate goroutine until ctx is cancelled
// or, when duration > 0, until that much simulated time has elapsed past
// StartTime. It returns a channel that is closed when the controller
// finishes.
func (tc *TimeController) Start(ctx context.Context, duration time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		tc.mu.Lock()
		tc.currentTime = tc.StartTime
		end := tc.StartTime.Add(duration)
		tc.mu.Unlock()

		// In both modes we use a ticker for simplicity and determinism.
		ticker := time.NewTicker(tc.Tick)
		defer ticker.Stop()

		for {
			if duration > 0 && !tc.Now().Before(end) {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			tc.Advance()
		}
	}()
	return done
}

// SecondsSince returns t - epoch in seconds as a float. It stays exact far
// beyond the ±292 year range of time.Duration.
func SecondsSince(epoch, t time.Time) float64 {
	whole := t.Unix() - epoch.Unix()
	frac := t.Nanosecond() - epoch.Nanosecond()
	return float64(whole) + float64(frac)*1e-9
}

// JulianDay returns the Julian day number of t.
func JulianDay(t time.Time) float64 {
	return julian.TimeToJD(t.UTC())
}

// FromJulianDay converts a Julian day number back to UTC time.
func FromJulianDay(jd float64) time.Time {
	return julian.JDToTime(jd).UTC()
}
