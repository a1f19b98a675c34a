//go:build perf || perf_large

package perf

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/signalsfoundry/orrery/camera"
	"github.com/signalsfoundry/orrery/core"
	"github.com/signalsfoundry/orrery/internal/nbi"
	"github.com/signalsfoundry/orrery/internal/sim"
	"github.com/signalsfoundry/orrery/model"
	"google.golang.org/protobuf/proto"
)

type perfConfig struct {
	Planets        int
	MoonsPerPlanet int
	Asteroids      int
	// MaxEccentricity spreads asteroid eccentricities over [0, MaxEccentricity).
	MaxEccentricity float64
}

func benchmarkStep(b *testing.B, cfg perfConfig) {
	engine, scene := newEngine(b, cfg)
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		engine.Step(ctx, scene.Epoch.Add(time.Duration(i)*time.Hour))
	}
}

func benchmarkStepWithInput(b *testing.B, cfg perfConfig) {
	engine, scene := newEngine(b, cfg)
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		for j := 0; j < 16; j++ {
			if err := engine.Input().Push(sim.Orbit(float64(j%5), 1)); err != nil {
				b.Fatalf("Push: %v", err)
			}
		}
		_ = engine.Input().Push(sim.Dolly(0.1))
		engine.Step(ctx, scene.Epoch.Add(time.Duration(i)*time.Minute))
	}
}

func benchmarkSnapshotEncode(b *testing.B, cfg perfConfig) {
	engine, scene := newEngine(b, cfg)
	snap, _ := engine.Step(context.Background(), scene.Epoch)
	b.ReportAllocs()
	b.ResetTimer()

	var size int
	for i := 0; i < b.N; i++ {
		msg := nbi.SnapshotToStruct(snap)
		raw, err := proto.Marshal(msg)
		if err != nil {
			b.Fatalf("Marshal: %v", err)
		}
		size = len(raw)
	}
	b.ReportMetric(float64(size), "bytes/snapshot")
}

func newEngine(b *testing.B, cfg perfConfig) (*sim.Engine, *core.Scene) {
	b.Helper()
	scene, err := core.BuildScene(syntheticScene(cfg))
	if err != nil {
		b.Fatalf("BuildScene: %v", err)
	}
	cam, err := camera.New(camera.ConfigFromDefinition(scene.Camera))
	if err != nil {
		b.Fatalf("camera.New: %v", err)
	}
	return sim.NewEngine(scene, cam), scene
}

// syntheticScene builds a star with cfg.Planets planets, each carrying
// cfg.MoonsPerPlanet moons, plus an asteroid belt. Elements are spread
// deterministically so runs are comparable.
func syntheticScene(cfg perfConfig) model.SceneDefinition {
	bodies := []model.BodyDefinition{{Name: "Star", Type: "star", GM: 1.32712440018e20, Radius: 7e8}}

	for p := 0; p < cfg.Planets; p++ {
		planet := fmt.Sprintf("planet-%d", p)
		bodies = append(bodies, model.BodyDefinition{
			Name:    planet,
			Type:    "planet",
			Primary: "Star",
			GM:      4e14,
			Radius:  6e6,
			Orbit: &model.OrbitDefinition{
				Eccentricity:  0.2 * spread(p, 7),
				SemiMajorAxis: 5e10 * float64(p+1),
				Inclination:   10 * spread(p, 3),
				AscendingNode: 360 * spread(p, 11),
				ArgPeriapsis:  360 * spread(p, 13),
				MeanAnomaly:   360 * spread(p, 17),
			},
		})
		for m := 0; m < cfg.MoonsPerPlanet; m++ {
			bodies = append(bodies, model.BodyDefinition{
				Name:    fmt.Sprintf("%s-moon-%d", planet, m),
				Type:    "moon",
				Primary: planet,
				Radius:  1e6,
				Orbit: &model.OrbitDefinition{
					Eccentricity:  0.1 * spread(m, 5),
					SemiMajorAxis: 4e8 * float64(m+1),
					Inclination:   30 * spread(m, 7),
					MeanAnomaly:   360 * spread(m, 3),
				},
			})
		}
	}

	for a := 0; a < cfg.Asteroids; a++ {
		bodies = append(bodies, model.BodyDefinition{
			Name:    fmt.Sprintf("asteroid-%d", a),
			Type:    "asteroid",
			Primary: "Star",
			Radius:  1e4,
			Orbit: &model.OrbitDefinition{
				Eccentricity:  cfg.MaxEccentricity * spread(a, 19),
				SemiMajorAxis: 4e11 * (1 + spread(a, 23)),
				Inclination:   20 * spread(a, 29),
				AscendingNode: 360 * spread(a, 31),
				ArgPeriapsis:  360 * spread(a, 37),
				MeanAnomaly:   360 * spread(a, 41),
			},
		})
	}

	return model.SceneDefinition{
		Name:   "synthetic",
		Bodies: bodies,
		Camera: model.CameraDefinition{Position: model.Motion{Z: 3e12}},
	}
}

// spread maps i onto [0, 1) with a cheap low-discrepancy sequence.
func spread(i, salt int) float64 {
	_, frac := math.Modf(float64(i*salt+1) * 0.6180339887498949)
	return frac
}
