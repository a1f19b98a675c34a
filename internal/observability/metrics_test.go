package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestUnaryInterceptorRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewAPICollector(reg)
	if err != nil {
		t.Fatalf("NewAPICollector: %v", err)
	}

	interceptor := collector.UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/orrery.v1.OrreryService/GetSnapshot"}

	_, err = interceptor(context.Background(), struct{}{}, info, func(ctx context.Context, req any) (any, error) {
		time.Sleep(time.Millisecond)
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("interceptor handler returned error: %v", err)
	}

	if got := testutil.ToFloat64(collector.RPCRequests.WithLabelValues("OrreryService", "GetSnapshot", "OK")); got != 1 {
		t.Fatalf("orrery_api_requests_total = %v, want 1", got)
	}
	if count := histogramSampleCount(t, reg, "orrery_api_request_duration_seconds", map[string]string{
		"service": "OrreryService",
		"method":  "GetSnapshot",
	}); count != 1 {
		t.Fatalf("orrery_api_request_duration_seconds sample_count = %d, want 1", count)
	}
}

func TestUnaryInterceptorRecordsErrorCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewAPICollector(reg)
	if err != nil {
		t.Fatalf("NewAPICollector: %v", err)
	}

	interceptor := collector.UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/orrery.v1.OrreryService/GetBody"}

	_, _ = interceptor(context.Background(), struct{}{}, info, func(ctx context.Context, req any) (any, error) {
		return nil, status.Error(codes.NotFound, "no such body")
	})

	if got := testutil.ToFloat64(collector.RPCRequests.WithLabelValues("OrreryService", "GetBody", "NotFound")); got != 1 {
		t.Fatalf("orrery_api_requests_total error label = %v, want 1", got)
	}
}

func TestStreamInterceptorRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewAPICollector(reg)
	if err != nil {
		t.Fatalf("NewAPICollector: %v", err)
	}

	interceptor := collector.StreamServerInterceptor()
	info := &grpc.StreamServerInfo{FullMethod: "/orrery.v1.OrreryService/WatchSnapshots", IsServerStream: true}
	err = interceptor(nil, nil, info, func(any, grpc.ServerStream) error {
		return errors.New("stream broke")
	})
	if err == nil {
		t.Fatalf("interceptor swallowed handler error")
	}

	if got := testutil.ToFloat64(collector.RPCRequests.WithLabelValues("OrreryService", "WatchSnapshots", "Unknown")); got != 1 {
		t.Fatalf("stream request count = %v, want 1", got)
	}
}

func TestWatcherGauge(t *testing.T) {
	collector, err := NewAPICollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewAPICollector: %v", err)
	}
	collector.WatcherOpened()
	collector.WatcherOpened()
	collector.WatcherClosed()
	if got := testutil.ToFloat64(collector.ActiveWatchers); got != 1 {
		t.Fatalf("watchers = %v, want 1", got)
	}

	var nilCollector *APICollector
	nilCollector.WatcherOpened() // must not panic
}

func TestNewAPICollectorReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewAPICollector(reg)
	if err != nil {
		t.Fatalf("first NewAPICollector: %v", err)
	}
	second, err := NewAPICollector(reg)
	if err != nil {
		t.Fatalf("second NewAPICollector: %v", err)
	}
	if first.RPCRequests != second.RPCRequests {
		t.Fatalf("second collector did not reuse registered counter vec")
	}
}

func TestMetricsHandlerExposesAPIMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewAPICollector(reg)
	if err != nil {
		t.Fatalf("NewAPICollector: %v", err)
	}
	collector.RPCRequests.WithLabelValues("svc", "method", "OK").Inc()
	collector.RPCDurations.WithLabelValues("svc", "method").Observe(0.01)
	collector.WatcherOpened()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"orrery_api_requests_total",
		"orrery_api_request_duration_seconds",
		"orrery_api_snapshot_watchers 1",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
}

func TestSplitMethod(t *testing.T) {
	cases := []struct {
		in, service, method string
	}{
		{"/orrery.v1.OrreryService/GetCamera", "OrreryService", "GetCamera"},
		{"Svc/Method", "Svc", "Method"},
		{"", "unknown", "unknown"},
		{"/only", "unknown", "unknown"},
		{"/pkg.Svc/", "Svc", "unknown"},
	}
	for _, tc := range cases {
		service, method := SplitMethod(tc.in)
		if service != tc.service || method != tc.method {
			t.Fatalf("SplitMethod(%q) = %q, %q; want %q, %q", tc.in, service, method, tc.service, tc.method)
		}
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
