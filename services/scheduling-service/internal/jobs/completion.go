// Package jobs runs the periodic maintenance work of the scheduling service.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Completer marks meetings that have already ended as completed.
type Completer interface {
	CompletePastMeetings(ctx context.Context) (int, error)
}

// CompletionJob is a cron.Job that runs one completion sweep.
type CompletionJob struct {
	svc     Completer
	logger  *slog.Logger
	timeout time.Duration
}

func NewCompletionJob(svc Completer, logger *slog.Logger, timeout time.Duration) *CompletionJob {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CompletionJob{svc: svc, logger: logger, timeout: timeout}
}

func (j *CompletionJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	n, err := j.svc.CompletePastMeetings(ctx)
	if err != nil {
		j.logger.Error("completion sweep failed", "err", err)
		return
	}
	if n > 0 {
		j.logger.Info("meetings completed", "count", n)
	}
}

// Start schedules job on a standard cron spec (or a descriptor such as
// "@every 5m") in UTC. Overlapping runs are skipped. The scheduler stops
// when ctx is done.
func Start(ctx context.Context, logger *slog.Logger, schedule string, job cron.Job) (*cron.Cron, error) {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	if _, err := c.AddJob(schedule, job); err != nil {
		return nil, err
	}
	c.Start()
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return c, nil
}
