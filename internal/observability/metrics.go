package observability

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// APICollector bundles Prometheus metrics for the gRPC API and provides
// helpers to wire them into gRPC servers and HTTP handlers.
type APICollector struct {
	gatherer prometheus.Gatherer

	RPCRequests    *prometheus.CounterVec
	RPCDurations   *prometheus.HistogramVec
	ActiveWatchers prometheus.Gauge
}

// NewAPICollector registers API metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewAPICollector(reg prometheus.Registerer) (*APICollector, error) {
	reg, gatherer := resolveRegistry(reg)

	requests, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orrery_api_requests_total",
		Help: "Total number of handled API RPCs, labeled by service, method, and gRPC status code.",
	}, []string{"service", "method", "code"}), "orrery_api_requests_total")
	if err != nil {
		return nil, err
	}

	durations, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orrery_api_request_duration_seconds",
		Help:    "API RPC latency in seconds. Streams are observed when they end.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5, 30, 300},
	}, []string{"service", "method"}), "orrery_api_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	watchers, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orrery_api_snapshot_watchers",
		Help: "Number of open WatchSnapshots streams.",
	}), "orrery_api_snapshot_watchers")
	if err != nil {
		return nil, err
	}

	return &APICollector{
		gatherer:       gatherer,
		RPCRequests:    requests,
		RPCDurations:   durations,
		ActiveWatchers: watchers,
	}, nil
}

func (c *APICollector) observe(fullMethod string, start time.Time, err error) {
	if c == nil {
		return
	}
	service, method := SplitMethod(fullMethod)
	if c.RPCRequests != nil {
		c.RPCRequests.WithLabelValues(service, method, status.Code(err).String()).Inc()
	}
	if c.RPCDurations != nil {
		c.RPCDurations.WithLabelValues(service, method).Observe(time.Since(start).Seconds())
	}
}

// UnaryServerInterceptor records request counts and durations for unary RPCs.
func (c *APICollector) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		fullMethod := ""
		if info != nil {
			fullMethod = info.FullMethod
		}
		c.observe(fullMethod, start, err)
		return resp, err
	}
}

// StreamServerInterceptor records counts and lifetimes of streaming RPCs.
func (c *APICollector) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)

		fullMethod := ""
		if info != nil {
			fullMethod = info.FullMethod
		}
		c.observe(fullMethod, start, err)
		return err
	}
}

// WatcherOpened and WatcherClosed track live snapshot streams.
func (c *APICollector) WatcherOpened() {
	if c == nil || c.ActiveWatchers == nil {
		return
	}
	c.ActiveWatchers.Inc()
}

func (c *APICollector) WatcherClosed() {
	if c == nil || c.ActiveWatchers == nil {
		return
	}
	c.ActiveWatchers.Dec()
}

// Handler exposes a ready-to-use /metrics handler.
func (c *APICollector) Handler() http.Handler {
	return handlerFor(c.gatherer)
}

func handlerFor(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SplitMethod parses a fully-qualified gRPC method name into service and method
// components. It tolerates empty strings and partial paths, returning
// "unknown"/"unknown" when parsing fails.
func SplitMethod(fullMethod string) (string, string) {
	parts := strings.Split(strings.TrimPrefix(fullMethod, "/"), "/")
	if len(parts) < 2 {
		return "unknown", "unknown"
	}
	service := parts[len(parts)-2]
	method := parts[len(parts)-1]
	if dot := strings.LastIndex(service, "."); dot >= 0 && dot+1 < len(service) {
		service = service[dot+1:]
	}
	if service == "" {
		service = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	return service, method
}
