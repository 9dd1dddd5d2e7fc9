package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/slotwise/scheduler/libs/db"
	"github.com/slotwise/scheduler/libs/httpx"
	"github.com/slotwise/scheduler/libs/kafkax"
	otelx "github.com/slotwise/scheduler/libs/otel"
	"github.com/slotwise/scheduler/libs/runtime"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/handlers"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/jobs"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/memstore"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/outbox"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/scheduling"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type stores struct {
	eventTypes   scheduling.EventTypeStore
	availability scheduling.AvailabilityStore
	bookings     scheduling.BookingStore
	ready        runtime.ReadyCheck
	pool         *db.Pool
}

func openStores(ctx context.Context, s Settings, logger *slog.Logger) (*stores, error) {
	if s.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set; using in-memory store")
		mem := memstore.New()
		return &stores{
			eventTypes:   mem,
			availability: mem,
			bookings:     mem,
			ready:        runtime.ReadyCheck{Name: "storage", Check: mem.Ping},
		}, nil
	}

	pool, err := db.Open(ctx, s.DatabaseURL, db.PoolOptions{MaxConns: s.DBMaxConns})
	if err != nil {
		return nil, err
	}
	if s.MigrateOnStart {
		if err := storage.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("schema migrated")
	}
	return &stores{
		eventTypes:   storage.NewEventTypeRepository(pool),
		availability: storage.NewAvailabilityRepository(pool),
		bookings:     storage.NewBookingRepository(pool, outbox.NewRepository()),
		ready:        runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		pool:         pool,
	}, nil
}

// publicLimiter rate limits the unauthenticated routes, shared through redis
// when REDIS_ADDR is set.
func publicLimiter(s Settings, logger *slog.Logger) (httpx.Middleware, func()) {
	if s.RateLimitPerMinute == 0 {
		return nil, func() {}
	}
	if s.RedisAddr == "" {
		return httpx.NewRateLimiter(s.RateLimitPerMinute, time.Minute).Middleware(), func() {}
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     s.RedisAddr,
		Password: s.RedisPassword,
		DB:       s.RedisDB,
	})
	limiter := httpx.NewRedisRateLimiter(rdb, s.RateLimitPerMinute, time.Minute, s.ServiceName)
	return limiter.Middleware(logger, s.RateLimitFailOpen), func() { _ = rdb.Close() }
}

func main() {
	settings, err := loadSettings()
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(settings.ServiceName, settings.LogLevel)

	ctx, stop := runtime.SignalContext(context.Background())
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(settings.ServiceName))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	st, err := openStores(ctx, settings, logger)
	if err != nil {
		logger.Error("storage init failed", "err", err)
		panic(err)
	}
	defer st.pool.Close()

	svc, err := scheduling.New(st.eventTypes, st.availability, st.bookings, logger,
		scheduling.WithDefaultTimezone(settings.DefaultTimezone))
	if err != nil {
		panic(err)
	}

	checks := []runtime.ReadyCheck{st.ready}
	if st.pool != nil {
		publisher := outbox.NewPublisher(st.pool, outbox.NewRepository(), logger, outbox.PublisherConfig{
			Brokers:   settings.KafkaBrokers,
			PollEvery: time.Duration(settings.OutboxPollSeconds) * time.Second,
			BatchSize: 50,
		})
		go publisher.Run(ctx)
		if brokers := kafkax.SplitBrokers(settings.KafkaBrokers); len(brokers) > 0 {
			checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
		}
	}

	if _, err := jobs.Start(ctx, logger, settings.CompletionSchedule, jobs.NewCompletionJob(svc, logger, 0)); err != nil {
		panic(err)
	}

	if err := startGrpcServer(ctx, logger, settings.GRPCPort, checks...); err != nil {
		logger.Error("grpc server failed to start", "err", err)
		panic(err)
	}

	limiter, closeLimiter := publicLimiter(settings, logger)
	defer closeLimiter()

	mux := runtime.NewBaseMuxWithReady(checks...)
	handlers.New(svc, logger, settings.Production()).Register(mux, limiter)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: httpx.SplitList(settings.CORSAllowedOrigins),
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowedHeaders: []string{"Content-Type", httpx.RequestIDHeader},
			ExposedHeaders: []string{httpx.RequestIDHeader, "Location"},
			MaxAge:         10 * time.Minute,
		}),
		httpx.WithBodyLimit(settings.RequestBodyLimitBytes),
		httpx.WithTimeout(time.Duration(settings.RequestTimeoutSeconds)*time.Second),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "scheduling")
	srv := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr, "env", settings.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
