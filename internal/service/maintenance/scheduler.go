package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sandevgo/chorus/pkg/log"
)

type Runner interface {
	Run(ctx context.Context) error
}

// Scheduler runs the maintenance routine on a fixed interval. A run that
// is still going when the next one is due makes the next one wait.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	sched    gocron.Scheduler
}

func NewScheduler(runner Runner, interval time.Duration) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)

	sched, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(log.NewAdapter(ctx, "gocron")),
	)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func(ctx context.Context) {
			switch err := s.runner.Run(ctx); {
			case errors.Is(err, ErrRunning):
				log.FromCtx(ctx).Warn().Msg("maintenance skipped, a manual run is in progress")
			case err != nil:
				log.FromCtx(ctx).Error().Err(err).Msg("maintenance run aborted")
			}
		}, ctx),
		gocron.WithName("daily-maintenance"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule maintenance: %w", err)
	}

	s.sched = sched
	sched.Start()
	logger.Info().Dur("interval", s.interval).Msg("maintenance scheduled")
	return nil
}

func (s *Scheduler) Shutdown(context.Context) error {
	if s.sched == nil {
		return nil
	}
	if err := s.sched.Shutdown(); err != nil {
		return fmt.Errorf("failed to shutdown scheduler: %w", err)
	}
	return nil
}
