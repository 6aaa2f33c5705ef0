// Package grpc serves the standard gRPC health protocol for the fulfillment
// service. The reported status follows database reachability.
package grpc

import (
	"context"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/tair/fulfillment-ledger/pkg/logger"
)

// ServiceName is the health service name reported next to the overall status.
const ServiceName = "fulfillment.v1.FulfillmentService"

// Pinger checks a dependency the service cannot run without.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthServer owns the gRPC server and its health state.
type HealthServer struct {
	server *grpc.Server
	health *health.Server
	db     Pinger
}

// NewHealthServer creates the gRPC server with tracing, metrics and logging.
func NewHealthServer(db Pinger) *HealthServer {
	server := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.UnaryInterceptor(UnaryObserver),
		grpc.StreamInterceptor(StreamObserver),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(server, hs)
	reflection.Register(server)

	s := &HealthServer{server: server, health: hs, db: db}
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Server returns the underlying gRPC server.
func (s *HealthServer) Server() *grpc.Server {
	return s.server
}

// Probe pings the database once and publishes the result.
func (s *HealthServer) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	st := healthpb.HealthCheckResponse_SERVING
	if err := s.db.PingContext(ctx); err != nil {
		logger.Warn(ctx).Err(err).Msg("Database ping failed, reporting NOT_SERVING")
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.setStatus(st)
	return st
}

// Watch probes every interval until ctx is done.
func (s *HealthServer) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Probe(ctx)
		}
	}
}

// Shutdown marks every service as not serving and stops the server gracefully.
func (s *HealthServer) Shutdown() {
	s.health.Shutdown()
	s.server.GracefulStop()
}

func (s *HealthServer) setStatus(st healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}
