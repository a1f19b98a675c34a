package nbi

import (
	"github.com/signalsfoundry/orrery/internal/logging"
	"github.com/signalsfoundry/orrery/internal/observability"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
)

// NewGRPCServer builds a gRPC server with the standard interceptor chain
// (request id, metrics, tracing) and registers svc on it.
func NewGRPCServer(svc OrreryServiceServer, log logging.Logger, metrics *observability.APICollector, opts ...grpc.ServerOption) *grpc.Server {
	base := []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			RequestIDUnaryServerInterceptor(log),
			metrics.UnaryServerInterceptor(),
			TracingUnaryServerInterceptor(),
		),
		grpc.ChainStreamInterceptor(
			RequestIDStreamServerInterceptor(log),
			metrics.StreamServerInterceptor(),
			TracingStreamServerInterceptor(),
		),
	}
	server := grpc.NewServer(append(base, opts...)...)
	RegisterOrreryServiceServer(server, svc)
	return server
}
