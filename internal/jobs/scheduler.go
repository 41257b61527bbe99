package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/GregMSThompson/ca-portal/pkg/logger"
)

const jobTimeout = 5 * time.Minute

type reminderRunner interface {
	ProfileReminders(ctx context.Context) (int, error)
	FilingReminders(ctx context.Context) (int, error)
}

type Schedules struct {
	ProfileReminder string
	FilingReminder  string
}

type Scheduler struct {
	cron *cron.Cron
	log  *slog.Logger
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}

// New registers the reminder jobs in loc. Runs of the same job never overlap.
func New(log *slog.Logger, loc *time.Location, runner reminderRunner, sched Schedules) (*Scheduler, error) {
	cl := cronLogger{log: log}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	s := &Scheduler{cron: c, log: log}

	if _, err := c.AddFunc(sched.ProfileReminder, s.job("profile_reminder", runner.ProfileReminders)); err != nil {
		return nil, fmt.Errorf("profile reminder schedule %q: %w", sched.ProfileReminder, err)
	}
	if _, err := c.AddFunc(sched.FilingReminder, s.job("filing_reminder", runner.FilingReminders)); err != nil {
		return nil, fmt.Errorf("filing reminder schedule %q: %w", sched.FilingReminder, err)
	}
	return s, nil
}

func (s *Scheduler) job(name string, run func(ctx context.Context) (int, error)) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		log, ctx := logger.With(logger.ToContext(ctx, s.log), "job", name)

		start := time.Now()
		n, err := run(ctx)
		if err != nil {
			log.Error("job failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
			return
		}
		log.Info("job finished", "created", n, "duration_ms", time.Since(start).Milliseconds())
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	for _, e := range s.cron.Entries() {
		s.log.Info("job scheduled", "next", e.Next)
	}
}

// Stop waits for running jobs or ctx, whichever ends first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out")
	}
}
