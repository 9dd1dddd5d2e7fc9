package main

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/slotwise/scheduler/libs/config"
	"github.com/slotwise/scheduler/services/scheduling-service/internal/timeconv"
)

// Settings is decoded from the environment. Each key may also be given with
// a SCHEDULER_ prefix, which wins over the plain name.
type Settings struct {
	ServiceName    string `envconfig:"SERVICE_NAME" default:"scheduling-service"`
	AppEnv         string `envconfig:"APP_ENV" default:"development"`
	Port           string `envconfig:"PORT" default:"8080"`
	GRPCPort       string `envconfig:"GRPC_PORT" default:"9090"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL    string `envconfig:"DATABASE_URL"`
	DBMaxConns     int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	MigrateOnStart bool   `envconfig:"MIGRATE_ON_START" default:"true"`

	DefaultTimezone string `envconfig:"DEFAULT_TIMEZONE" default:"UTC"`

	KafkaBrokers      string `envconfig:"KAFKA_BROKERS"`
	OutboxPollSeconds int    `envconfig:"OUTBOX_POLL_SECONDS" default:"2"`

	RedisAddr          string `envconfig:"REDIS_ADDR"`
	RedisPassword      string `envconfig:"REDIS_PASSWORD"`
	RedisDB            int    `envconfig:"REDIS_DB" default:"0"`
	RateLimitPerMinute int    `envconfig:"RATE_LIMIT_PER_MINUTE" default:"60"`
	RateLimitFailOpen  bool   `envconfig:"RATE_LIMIT_FAIL_OPEN" default:"true"`

	CORSAllowedOrigins    string `envconfig:"CORS_ALLOWED_ORIGINS"`
	RequestBodyLimitBytes int64  `envconfig:"REQUEST_BODY_LIMIT_BYTES" default:"1048576"`
	RequestTimeoutSeconds int    `envconfig:"REQUEST_TIMEOUT_SECONDS" default:"15"`

	CompletionSchedule string `envconfig:"COMPLETION_SCHEDULE" default:"@every 5m"`
}

func (s Settings) Production() bool {
	return strings.EqualFold(s.AppEnv, "production")
}

func loadSettings() (Settings, error) {
	var s Settings
	if err := config.Load("SCHEDULER", &s); err != nil {
		return s, err
	}
	return s, s.validate()
}

func (s Settings) validate() error {
	if err := config.ValidPort(s.Port); err != nil {
		return fmt.Errorf("PORT %w", err)
	}
	if err := config.ValidPort(s.GRPCPort); err != nil {
		return fmt.Errorf("GRPC_PORT %w", err)
	}
	if _, err := timeconv.LoadZone(s.DefaultTimezone); err != nil {
		return fmt.Errorf("DEFAULT_TIMEZONE: %w", err)
	}
	if _, err := cron.ParseStandard(s.CompletionSchedule); err != nil {
		return fmt.Errorf("COMPLETION_SCHEDULE: %w", err)
	}
	if s.RateLimitPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must not be negative")
	}
	if s.RequestBodyLimitBytes <= 0 || s.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("REQUEST_BODY_LIMIT_BYTES and REQUEST_TIMEOUT_SECONDS must be positive")
	}
	if s.OutboxPollSeconds <= 0 {
		return fmt.Errorf("OUTBOX_POLL_SECONDS must be positive")
	}
	return nil
}
