package handler

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rl1809/products-api/internal/obs"
)

// HealthServiceName is the service name probes ask about.
const HealthServiceName = "products"

type pinger interface {
	Ping(ctx context.Context) error
}

// GRPCHandler publishes store reachability over the standard gRPC health
// protocol.
type GRPCHandler struct {
	health *health.Server
	store  pinger
}

func NewGRPCHandler(store pinger) *GRPCHandler {
	h := &GRPCHandler{health: health.NewServer(), store: store}
	h.health.SetServingStatus(HealthServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

func (h *GRPCHandler) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.health)
}

// Refresh pings the store once and records the outcome for both the named
// service and the server as a whole.
func (h *GRPCHandler) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if err := h.store.Ping(ctx); err != nil {
		obs.Logger.Warn().Err(err).Msg("store ping failed")
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.health.SetServingStatus(HealthServiceName, status)
	h.health.SetServingStatus("", status)
	return status
}

// Watch refreshes every interval until ctx is done.
func (h *GRPCHandler) Watch(ctx context.Context, interval, timeout time.Duration) {
	probe := func() {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		h.Refresh(pctx)
	}

	probe()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probe()
		}
	}
}

// Shutdown flips every service to NOT_SERVING ahead of GracefulStop.
func (h *GRPCHandler) Shutdown() {
	h.health.Shutdown()
}
