package transport

import (
	grpcMiddleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpcZap "github.com/grpc-ecosystem/go-grpc-middleware/logging/zap"
	grpcRecovery "github.com/grpc-ecosystem/go-grpc-middleware/recovery"
	grpcCtxTags "github.com/grpc-ecosystem/go-grpc-middleware/tags"
	grpcPrometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// RaffleService is the health service name reported for the raffle host.
const RaffleService = "rafflekeeper.Raffle"

// NewGRPCServer builds a server with the recovery, tags, metrics and logging chain and
// registers the standard health service. Callers flip the status with SetServing.
func NewGRPCServer(logger *zap.Logger) (*grpc.Server, *Health) {
	chain := []grpc.UnaryServerInterceptor{
		grpcRecovery.UnaryServerInterceptor(),
		grpcCtxTags.UnaryServerInterceptor(),
		grpcPrometheus.UnaryServerInterceptor,
		grpcZap.UnaryServerInterceptor(logger),
	}
	server := grpc.NewServer(
		grpc.UnaryInterceptor(grpcMiddleware.ChainUnaryServer(chain...)),
	)
	grpcPrometheus.EnableHandlingTimeHistogram()

	h := &Health{server: health.NewServer()}
	healthpb.RegisterHealthServer(server, h.server)
	h.SetNotServing()

	grpcPrometheus.Register(server)
	return server, h
}

// Health wraps the gRPC health server.
type Health struct {
	server *health.Server
}

// SetServing marks the host and the raffle service as serving.
func (h *Health) SetServing() {
	h.server.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	h.server.SetServingStatus(RaffleService, healthpb.HealthCheckResponse_SERVING)
}

func (h *Health) SetNotServing() {
	h.server.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	h.server.SetServingStatus(RaffleService, healthpb.HealthCheckResponse_NOT_SERVING)
}

// Shutdown reports NOT_SERVING to all watchers and ignores later updates.
func (h *Health) Shutdown() {
	h.server.Shutdown()
}
