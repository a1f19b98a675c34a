//go:build perf_large

package perf

import "testing"

// Highly eccentric asteroids push the solver onto its Newton path.
var largeConfig = perfConfig{
	Planets:         20,
	MoonsPerPlanet:  50,
	Asteroids:       50000,
	MaxEccentricity: 0.98,
}

func BenchmarkStepLarge(b *testing.B) {
	benchmarkStep(b, largeConfig)
}

func BenchmarkStepWithInputLarge(b *testing.B) {
	benchmarkStepWithInput(b, largeConfig)
}

func BenchmarkSnapshotEncodeLarge(b *testing.B) {
	benchmarkSnapshotEncode(b, largeConfig)
}
