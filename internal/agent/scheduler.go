package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"macro-trader/internal/config"
)

// Scheduler runs the agent once a day at the configured local hour.
type Scheduler struct {
	agent  *Agent
	hour   int
	loc    *time.Location
	logger zerolog.Logger
	now    func() time.Time
}

// NewScheduler creates a scheduler for the given schedule configuration.
func NewScheduler(a *Agent, cfg config.ScheduleConfig, logger zerolog.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", cfg.Timezone, err)
	}
	return &Scheduler{
		agent:  a,
		hour:   cfg.Hour,
		loc:    loc,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Run blocks until the context is cancelled, executing the agent at
// the scheduled hour each day. A failed run is logged and the scheduler
// keeps going; the next day gets a fresh attempt.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		next := s.nextRun(s.now().In(s.loc))
		s.logger.Info().
			Time("next_run", next).
			Msg("Scheduler waiting")

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if _, err := s.agent.RunOnce(ctx); err != nil {
			s.logger.Error().Err(err).Msg("Scheduled run failed")
		}
	}
}

// nextRun returns the next occurrence of the scheduled hour strictly
// after now.
func (s *Scheduler) nextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, 0, 0, 0, s.loc)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
