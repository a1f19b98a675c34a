package core

import (
	"errors"
	"math"
	"testing"
)

func circular(t *testing.T, a, period float64) *OrbitalElements {
	t.Helper()
	o, err := NewOrbitalElements(0, a, Angles{}, 0, period)
	if err != nil {
		t.Fatalf("NewOrbitalElements: %v", err)
	}
	return &o
}

func threeLevelSystem(t *testing.T) *SolarSystem {
	t.Helper()
	sys, err := NewSolarSystem("test", []BodySpec{
		// Satellites listed before their primaries on purpose.
		{Name: "Moon", Type: BodyMoon, Primary: "Earth", Orbit: circular(t, 1e9, 10)},
		{Name: "Earth", Type: BodyPlanet, Primary: "Sun", Mass: 5.97e24, Orbit: circular(t, 1e11, 100)},
		{Name: "Sun", Type: BodyStar, Mass: 1.989e30},
	})
	if err != nil {
		t.Fatalf("NewSolarSystem: %v", err)
	}
	return sys
}

func bodyNamed(t *testing.T, sys *SolarSystem, name string) *Body {
	t.Helper()
	i, ok := sys.Lookup(name)
	if !ok {
		t.Fatalf("body %q not found", name)
	}
	return sys.Body(i)
}

func TestSolarSystemHierarchy(t *testing.T) {
	sys := threeLevelSystem(t)

	if sys.Len() != 3 {
		t.Fatalf("Len = %d, want 3", sys.Len())
	}
	roots := sys.Roots()
	if len(roots) != 1 || sys.Body(roots[0]).Name != "Sun" {
		t.Fatalf("roots = %v, want [Sun]", roots)
	}

	sun := bodyNamed(t, sys, "Sun")
	if !sun.IsRoot() || len(sun.Satellites) != 1 || sys.Body(sun.Satellites[0]).Name != "Earth" {
		t.Fatalf("Sun links = primary %d satellites %v", sun.Primary, sun.Satellites)
	}
	if sun.GM != GravitationalConstant*1.989e30 {
		t.Fatalf("Sun GM = %v, want G·M", sun.GM)
	}

	var order []string
	var depths []int
	sys.Walk(func(depth int, b *Body) {
		order = append(order, b.Name)
		depths = append(depths, depth)
	})
	wantOrder := []string{"Sun", "Earth", "Moon"}
	for i := range wantOrder {
		if order[i] != wantOrder[i] || depths[i] != i {
			t.Fatalf("Walk = %v depths %v, want %v depths [0 1 2]", order, depths, wantOrder)
		}
	}
}

func TestUpdatePositionsComposesOffsets(t *testing.T) {
	sys := threeLevelSystem(t)

	stats, err := sys.UpdatePositions(0)
	if err != nil {
		t.Fatalf("UpdatePositions(0): %v", err)
	}
	if stats.Bodies != 3 || stats.Failures != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	if got := bodyNamed(t, sys, "Moon").Position; !got.ApproxEqual(Vec3{X: 1e11 + 1e9}, 1e-3) {
		t.Fatalf("Moon at t=0 = %+v", got)
	}

	// A quarter Earth year is two and a half lunar months.
	if _, err := sys.UpdatePositions(25); err != nil {
		t.Fatalf("UpdatePositions(25): %v", err)
	}
	if got := bodyNamed(t, sys, "Earth").Position; !got.ApproxEqual(Vec3{Y: 1e11}, 1e-2) {
		t.Fatalf("Earth at t=25 = %+v, want (0, 1e11, 0)", got)
	}
	if got := bodyNamed(t, sys, "Moon").Position; !got.ApproxEqual(Vec3{X: -1e9, Y: 1e11}, 1e-2) {
		t.Fatalf("Moon at t=25 = %+v, want (-1e9, 1e11, 0)", got)
	}
	for _, name := range []string{"Sun", "Earth", "Moon"} {
		if !bodyNamed(t, sys, name).PositionValid {
			t.Fatalf("%s position flagged invalid", name)
		}
	}
}

func TestUpdatePositionsPinsUnsupportedOrbitToPrimary(t *testing.T) {
	comet, err := NewOrbitalElements(0.99995, 5e12, Angles{}, 0.3, 1e9)
	if err != nil {
		t.Fatalf("NewOrbitalElements: %v", err)
	}
	sunAt := Vec3{X: 5, Y: -7}

	sys, err := NewSolarSystem("test", []BodySpec{
		{Name: "Sun", Type: BodyStar, Offset: sunAt},
		{Name: "Sungrazer", Type: BodyComet, Primary: "Sun", Orbit: &comet},
		{Name: "Fragment", Primary: "Sungrazer", Offset: Vec3{Z: 1}},
		{Name: "Earth", Type: BodyPlanet, Primary: "Sun", Orbit: circular(t, 1e11, 100)},
	})
	if err != nil {
		t.Fatalf("NewSolarSystem: %v", err)
	}

	stats, err := sys.UpdatePositions(42)
	if err == nil {
		t.Fatalf("expected a propagation error")
	}
	if stats.Failures != 1 || stats.Bodies != 4 {
		t.Fatalf("stats = %+v, want 1 failure of 4 bodies", stats)
	}
	var perr *PropagationError
	if !errors.As(err, &perr) || perr.Body != "Sungrazer" {
		t.Fatalf("err = %v, want PropagationError for Sungrazer", err)
	}
	if !errors.Is(err, ErrUnsupportedEccentricity) {
		t.Fatalf("err = %v, want ErrUnsupportedEccentricity in chain", err)
	}

	grazer := bodyNamed(t, sys, "Sungrazer")
	if grazer.PositionValid || grazer.Position != sunAt {
		t.Fatalf("Sungrazer = %+v valid=%v, want pinned to %+v", grazer.Position, grazer.PositionValid, sunAt)
	}
	if got := bodyNamed(t, sys, "Fragment").Position; got != sunAt.Add(Vec3{Z: 1}) {
		t.Fatalf("Fragment = %+v, want offset from pinned primary", got)
	}
	if earth := bodyNamed(t, sys, "Earth"); !earth.PositionValid || earth.Position == sunAt {
		t.Fatalf("Earth not propagated: %+v", earth)
	}
}

func TestUpdatePositionsComposesVelocities(t *testing.T) {
	sys := threeLevelSystem(t)
	if _, err := sys.UpdatePositions(0); err != nil {
		t.Fatalf("UpdatePositions(0): %v", err)
	}

	earthSpeed := 2 * math.Pi * 1e11 / 100
	moonSpeed := 2 * math.Pi * 1e9 / 10
	if got := bodyNamed(t, sys, "Sun").Velocity; got != (Vec3{}) {
		t.Fatalf("Sun velocity = %+v, want at rest", got)
	}
	if got := bodyNamed(t, sys, "Earth").Velocity; !got.ApproxEqual(Vec3{Y: earthSpeed}, 1) {
		t.Fatalf("Earth velocity = %+v, want (0, %v, 0)", got, earthSpeed)
	}
	if got := bodyNamed(t, sys, "Moon").Velocity; !got.ApproxEqual(Vec3{Y: earthSpeed + moonSpeed}, 1) {
		t.Fatalf("Moon velocity = %+v, want (0, %v, 0)", got, earthSpeed+moonSpeed)
	}
}

func TestOrbitPath(t *testing.T) {
	moonOrbit := circular(t, 1e9, 10)
	sys, err := NewSolarSystem("test", []BodySpec{
		{Name: "Earth", Type: BodyPlanet},
		{Name: "Moon", Type: BodyMoon, Primary: "Earth", Orbit: moonOrbit},
	})
	if err != nil {
		t.Fatalf("NewSolarSystem: %v", err)
	}
	// The system keeps its own copy of the elements.
	moonOrbit.SemiMajorAxis = 42

	path, ok := sys.OrbitPath("Moon", 4)
	if !ok || len(path) != 4 {
		t.Fatalf("OrbitPath(Moon, 4) = %v, %v", path, ok)
	}
	want := []Vec3{{X: 1e9}, {Y: 1e9}, {X: -1e9}, {Y: -1e9}}
	for i := range want {
		if !path[i].ApproxEqual(want[i], 1e-3) {
			t.Fatalf("path[%d] = %+v, want %+v", i, path[i], want[i])
		}
	}
	for _, name := range []string{"Earth", "Pluto"} {
		if _, ok := sys.OrbitPath(name, 4); ok {
			t.Fatalf("OrbitPath(%s) reported an orbit", name)
		}
	}
}

func TestNewSolarSystemRejects(t *testing.T) {
	tests := []struct {
		name  string
		specs []BodySpec
		want  error
	}{
		{
			name:  "unknown primary",
			specs: []BodySpec{{Name: "Moon", Primary: "Earth"}},
			want:  ErrUnknownPrimary,
		},
		{
			name:  "duplicate",
			specs: []BodySpec{{Name: "Sun"}, {Name: "Sun"}},
			want:  ErrDuplicateBody,
		},
		{
			name:  "self orbit",
			specs: []BodySpec{{Name: "Ouroboros", Primary: "Ouroboros"}},
			want:  ErrCyclicHierarchy,
		},
		{
			name: "two cycle beside a valid root",
			specs: []BodySpec{
				{Name: "Sun"},
				{Name: "A", Primary: "B"},
				{Name: "B", Primary: "A"},
				{Name: "C", Primary: "A"},
			},
			want: ErrCyclicHierarchy,
		},
		{
			name:  "empty name",
			specs: []BodySpec{{Name: "  "}},
			want:  ErrInvalidBody,
		},
		{
			name:  "negative mass",
			specs: []BodySpec{{Name: "Sun", Mass: -1}},
			want:  ErrInvalidBody,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewSolarSystem("bad", tc.specs); !errors.Is(err, tc.want) {
				t.Fatalf("NewSolarSystem err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestParseBodyType(t *testing.T) {
	for _, typ := range []BodyType{BodyStar, BodyPlanet, BodyMoon, BodyComet, BodySpacecraft} {
		if got := ParseBodyType(typ.String()); got != typ {
			t.Fatalf("ParseBodyType(%q) = %v", typ.String(), got)
		}
	}
	aliases := map[string]BodyType{
		"asteroid":      BodyComet,
		" Sun ":         BodyStar,
		"dwarf_planet":  BodyPlanet,
		"SATELLITE":     BodyMoon,
		"space station": BodyUnknown,
		"":              BodyUnknown,
	}
	for name, want := range aliases {
		if got := ParseBodyType(name); got != want {
			t.Fatalf("ParseBodyType(%q) = %v, want %v", name, got, want)
		}
	}
}
