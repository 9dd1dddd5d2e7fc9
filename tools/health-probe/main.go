// Command health-probe asks a scheduling-service instance for its gRPC
// health status and exits non-zero unless it is SERVING. It is meant for
// container health checks.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/slotwise/scheduler/libs/config"
	"github.com/slotwise/scheduler/libs/grpcx"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	var (
		addr    = flag.String("addr", config.String("PROBE_ADDR", "localhost:9090"), "grpc host:port")
		service = flag.String("service", config.String("PROBE_SERVICE", "slotwise.scheduling.v1.Scheduling"), "health service name (empty for overall)")
		timeout = flag.Duration("timeout", 3*time.Second, "probe deadline")
	)
	flag.Parse()

	status, err := probe(*addr, *service, *timeout)
	if err != nil {
		fatal(err.Error())
	}
	fmt.Printf("status=%s\n", status)
	if status != healthpb.HealthCheckResponse_SERVING {
		os.Exit(1)
	}
}

func probe(addr, service string, timeout time.Duration) (healthpb.HealthCheckResponse_ServingStatus, error) {
	conn, err := grpcx.Dial(addr, grpcx.DialOptions{})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}

func fatal(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}
