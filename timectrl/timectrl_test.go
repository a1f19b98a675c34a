package timectrl

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"
)

func TestTimeControllerSetTime(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start, time.Second, 0, RealTime)

	newNow := start.Add(42 * time.Second)
	tc.SetTime(newNow)

	if got := tc.Now(); !got.Equal(newNow) {
		t.Fatalf("Now() = %v, want %v", got, newNow)
	}
}

func TestTimeControllerStartUpdatesNow(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start, 5*time.Millisecond, 0, RealTime)

	done := tc.Start(context.Background(), 15*time.Millisecond)
	<-done

	expected := start.Add(15 * time.Millisecond)
	if got := tc.Now(); !got.Equal(expected) {
		t.Fatalf("Now() = %v, want %v", got, expected)
	}
}

func TestAcceleratedStepsOneDayPerTick(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	day := 24 * time.Hour
	tc := NewTimeController(start, time.Millisecond, day, Accelerated)

	var ticks atomic.Int32
	tc.AddListener(func(time.Time) { ticks.Add(1) })

	<-tc.Start(context.Background(), 3*day)

	if got := tc.Now(); !got.Equal(start.Add(3 * day)) {
		t.Fatalf("Now() = %v, want %v", got, start.Add(3*day))
	}
	if got := ticks.Load(); got != 3 {
		t.Fatalf("listener ticks = %d, want 3", got)
	}
}

func TestAdvanceAppliesScale(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start, time.Second, time.Minute, Accelerated)

	if err := tc.SetScale(2.5); err != nil {
		t.Fatalf("SetScale: %v", err)
	}
	got := tc.Advance()
	if want := start.Add(150 * time.Second); !got.Equal(want) {
		t.Fatalf("Advance() = %v, want %v", got, want)
	}
}

func TestAdvanceNotifiesListenersOutsideLock(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start, time.Second, time.Hour, Accelerated)

	var seen []time.Time
	var late int
	tc.AddListener(func(now time.Time) {
		seen = append(seen, now)
		if len(seen) == 1 {
			// Registering from a callback must not deadlock, and the new
			// listener only joins from the next tick.
			tc.AddListener(func(time.Time) { late++ })
		}
	})

	tc.Advance()
	if late != 0 {
		t.Fatalf("listener added mid-tick ran %d times on the same tick", late)
	}
	tc.Advance()

	want := []time.Time{start.Add(time.Hour), start.Add(2 * time.Hour)}
	if len(seen) != len(want) || !seen[0].Equal(want[0]) || !seen[1].Equal(want[1]) {
		t.Fatalf("listener saw %v, want %v", seen, want)
	}
	if late != 1 {
		t.Fatalf("late listener ran %d times, want 1", late)
	}
}

func TestSetScaleRejectsInvalid(t *testing.T) {
	tc := NewTimeController(time.Now(), time.Second, 0, RealTime)
	for _, s := range []float64{0, -1, math.NaN(), MaxScale * 2} {
		if err := tc.SetScale(s); !errors.Is(err, ErrInvalidScale) {
			t.Fatalf("SetScale(%g) err = %v, want ErrInvalidScale", s, err)
		}
	}
	if got := tc.Scale(); got != 1 {
		t.Fatalf("Scale() = %g after rejected updates, want 1", got)
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	tc := NewTimeController(time.Now(), time.Millisecond, 0, RealTime)
	ctx, cancel := context.WithCancel(context.Background())
	done := tc.Start(ctx, 0)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("controller did not stop after cancel")
	}
}

func TestSecondsSinceBeyondDurationRange(t *testing.T) {
	epoch := time.Date(2000, time.January, 1, 12, 0, 0, 0, time.UTC)
	later := epoch.AddDate(500, 0, 0)

	got := SecondsSince(epoch, later)
	want := float64(later.Unix() - epoch.Unix())
	if got != want {
		t.Fatalf("SecondsSince = %g, want %g", got, want)
	}
	if got := SecondsSince(epoch, epoch.Add(1500*time.Millisecond)); got != 1.5 {
		t.Fatalf("SecondsSince = %g, want 1.5", got)
	}
}

func TestJulianDayJ2000(t *testing.T) {
	j2000 := time.Date(2000, time.January, 1, 12, 0, 0, 0, time.UTC)
	if got := JulianDay(j2000); math.Abs(got-2451545.0) > 1e-9 {
		t.Fatalf("JulianDay(J2000) = %.9f, want 2451545", got)
	}
	back := FromJulianDay(2451545.0)
	if d := back.Sub(j2000); d < -time.Millisecond || d > time.Millisecond {
		t.Fatalf("FromJulianDay round trip off by %v", d)
	}
}
