// Package jobs runs the scheduled maintenance work: closing practice
// session rows whose client disappeared without finishing.
package jobs

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/wilcolinadev/naturalize/internal/logger"
)

// SessionCloser is the slice of the repository the sweeper needs.
type SessionCloser interface {
	CloseStalePracticeSessions(ctx context.Context, olderThan time.Time) (int64, error)
}

// Sweeper periodically stamps abandoned practice sessions as completed so
// the history view stops showing them as in progress.
type Sweeper struct {
	store     SessionCloser
	cutoff    time.Duration
	log       *logger.Logger
	scheduler *gocron.Scheduler
}

func NewSweeper(store SessionCloser, cutoff time.Duration, log *logger.Logger) *Sweeper {
	return &Sweeper{
		store:     store,
		cutoff:    cutoff,
		log:       log,
		scheduler: gocron.NewScheduler(time.UTC),
	}
}

// Start schedules the hourly sweep and runs the scheduler in the background.
func (s *Sweeper) Start() error {
	if _, err := s.scheduler.Every(1).Hour().Do(s.sweep); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

func (s *Sweeper) Stop() {
	s.scheduler.Stop()
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	closed, err := s.store.CloseStalePracticeSessions(ctx, time.Now().Add(-s.cutoff))
	if err != nil {
		s.log.Error("stale session sweep failed", "err", err)
		return
	}
	if closed > 0 {
		s.log.Info("closed stale practice sessions", "count", closed)
	}
}
