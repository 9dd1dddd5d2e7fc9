// Package grpcserver serves the standard gRPC health protocol for the
// scheduling service, driven by the same readiness checks as /readyz.
package grpcserver

import (
	"context"
	"log/slog"
	"time"

	"github.com/slotwise/scheduler/libs/runtime"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name probes ask about. The empty name
// reports the same status.
const ServiceName = "slotwise.scheduling.v1.Scheduling"

type Health struct {
	srv      *health.Server
	checks   []runtime.ReadyCheck
	interval time.Duration
	logger   *slog.Logger
	last     healthpb.HealthCheckResponse_ServingStatus
}

// Register installs the health service on grpcServer. The status starts as
// NOT_SERVING until the first Refresh.
func Register(grpcServer *grpc.Server, logger *slog.Logger, interval time.Duration, checks ...runtime.ReadyCheck) *Health {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	h := &Health{
		srv:      health.NewServer(),
		checks:   checks,
		interval: interval,
		logger:   logger,
		last:     healthpb.HealthCheckResponse_NOT_SERVING,
	}
	h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(grpcServer, h.srv)
	return h
}

// Refresh runs every check once and publishes the resulting status.
func (h *Health) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	failures := runtime.RunChecks(ctx, 2*time.Second, h.checks...)
	if len(failures) > 0 {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	if status != h.last {
		h.logger.Info("grpc health changed", "status", status.String(), "failures", failures)
		h.last = status
	}
	h.set(status)
	return status
}

// Run refreshes on an interval until ctx is done, then marks the service
// as shutting down so watchers drain.
func (h *Health) Run(ctx context.Context) {
	h.Refresh(ctx)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.srv.Shutdown()
			return
		case <-ticker.C:
			h.Refresh(ctx)
		}
	}
}

func (h *Health) set(status healthpb.HealthCheckResponse_ServingStatus) {
	h.srv.SetServingStatus("", status)
	h.srv.SetServingStatus(ServiceName, status)
}
