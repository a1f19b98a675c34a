package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SimCollector exposes per-frame simulation metrics.
type SimCollector struct {
	gatherer prometheus.Gatherer

	Ticks               prometheus.Counter
	TickDuration        prometheus.Histogram
	KeplerIterations    prometheus.Histogram
	PropagationFailures *prometheus.CounterVec
	InputCommands       *prometheus.CounterVec
	Bodies              prometheus.Gauge
	SimSeconds          prometheus.Gauge
	CameraDistance      prometheus.Gauge
}

// NewSimCollector registers simulation metrics against the provided
// registerer, defaulting to the global registry when nil.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	reg, gatherer := resolveRegistry(reg)
	c := &SimCollector{gatherer: gatherer}

	var err error
	if c.Ticks, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orrery_sim_ticks_total",
		Help: "Number of simulation frames stepped.",
	}), "orrery_sim_ticks_total"); err != nil {
		return nil, err
	}
	if c.TickDuration, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "orrery_sim_tick_duration_seconds",
		Help:    "Wall time spent applying input, propagating bodies and publishing one frame.",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	}), "orrery_sim_tick_duration_seconds"); err != nil {
		return nil, err
	}
	if c.KeplerIterations, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "orrery_sim_kepler_iterations",
		Help:    "Total Kepler solver iterations spent per frame across all bodies.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}), "orrery_sim_kepler_iterations"); err != nil {
		return nil, err
	}
	if c.PropagationFailures, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orrery_sim_propagation_failures_total",
		Help: "Bodies that could not be positioned, labeled by body.",
	}, []string{"body"}), "orrery_sim_propagation_failures_total"); err != nil {
		return nil, err
	}
	if c.InputCommands, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orrery_sim_input_commands_total",
		Help: "Camera input commands applied, labeled by kind.",
	}, []string{"kind"}), "orrery_sim_input_commands_total"); err != nil {
		return nil, err
	}
	if c.Bodies, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orrery_sim_bodies",
		Help: "Number of bodies in the loaded scene.",
	}), "orrery_sim_bodies"); err != nil {
		return nil, err
	}
	if c.SimSeconds, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orrery_sim_time_seconds",
		Help: "Simulated seconds since the scene epoch.",
	}), "orrery_sim_time_seconds"); err != nil {
		return nil, err
	}
	if c.CameraDistance, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orrery_camera_target_distance_meters",
		Help: "Distance between the camera and its target.",
	}), "orrery_camera_target_distance_meters"); err != nil {
		return nil, err
	}
	return c, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *SimCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a /metrics handler for the collector's registry.
func (c *SimCollector) Handler() http.Handler {
	return handlerFor(c.Gatherer())
}

// ObserveTick records one completed frame.
func (c *SimCollector) ObserveTick(d time.Duration, iterations int, simSeconds float64) {
	if c == nil {
		return
	}
	if c.Ticks != nil {
		c.Ticks.Inc()
	}
	if c.TickDuration != nil {
		c.TickDuration.Observe(d.Seconds())
	}
	if c.KeplerIterations != nil {
		c.KeplerIterations.Observe(float64(iterations))
	}
	if c.SimSeconds != nil {
		c.SimSeconds.Set(simSeconds)
	}
}

// IncPropagationFailure counts one failed body propagation.
func (c *SimCollector) IncPropagationFailure(body string) {
	if c == nil || c.PropagationFailures == nil {
		return
	}
	c.PropagationFailures.WithLabelValues(body).Inc()
}

// IncInput counts one applied camera command.
func (c *SimCollector) IncInput(kind string) {
	if c == nil || c.InputCommands == nil {
		return
	}
	c.InputCommands.WithLabelValues(kind).Inc()
}

// SetBodies updates the body count gauge.
func (c *SimCollector) SetBodies(n int) {
	if c == nil || c.Bodies == nil {
		return
	}
	c.Bodies.Set(float64(n))
}

// SetCameraDistance updates the camera distance gauge.
func (c *SimCollector) SetCameraDistance(d float64) {
	if c == nil || c.CameraDistance == nil {
		return
	}
	c.CameraDistance.Set(d)
}
