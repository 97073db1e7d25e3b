// Package schedule runs batches periodically.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/pagebuilder/internal/logfields"
)

// Task is one scheduled unit of work, usually a batch.
type Task func(ctx context.Context)

// Scheduler wraps a gocron scheduler.
type Scheduler struct {
	scheduler gocron.Scheduler
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewScheduler creates a new scheduler instance.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s}, nil
}

// Start begins running jobs. Tasks receive a context derived from ctx that is
// canceled by Stop.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop cancels running tasks and waits for them to return.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping scheduler")
	if s.cancel != nil {
		s.cancel()
	}
	return s.scheduler.Shutdown()
}

// SchedulePeriodic runs task every interval, starting immediately when
// immediate is set. Runs never overlap; a run that would start while the
// previous one is still going is skipped. It returns the job ID.
func (s *Scheduler) SchedulePeriodic(name string, interval time.Duration, immediate bool, task Task) (string, error) {
	if interval <= 0 {
		return "", fmt.Errorf("invalid interval %s for %s", interval, name)
	}
	opts := []gocron.JobOption{
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if immediate {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.run, name, task),
		opts...,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create periodic job %s: %w", name, err)
	}
	slog.Info("Scheduled periodic job", slog.String("job", name), slog.Duration("interval", interval))
	return job.ID().String(), nil
}

func (s *Scheduler) run(name string, task Task) {
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	slog.Debug("Running scheduled job", slog.String("job", name))
	task(ctx)
	slog.Debug("Scheduled job finished", slog.String("job", name),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
}
