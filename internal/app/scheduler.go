package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ReminderWindow is how far ahead booked students are reminded.
const ReminderWindow = time.Hour

// SessionSweeper is the part of the schedule service the background job drives.
type SessionSweeper interface {
	CompletePastSessions(ctx context.Context) (int64, error)
	SendReminders(ctx context.Context, window time.Duration) (int, error)
}

// Scheduler runs periodic session housekeeping.
type Scheduler struct {
	sweeper  SessionSweeper
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func NewScheduler(sweeper SessionSweeper, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		sweeper:  sweeper,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))
	go s.runSweepTask(ctx)
}

// Stop ends the sweep loop and waits for the current pass to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
	})
	<-s.done
}

func (s *Scheduler) runSweepTask(ctx context.Context) {
	defer close(s.done)

	// first pass right away
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopChan:
			s.logger.Info("Session sweep task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Session sweep task cancelled")
			return
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	completed, err := s.sweeper.CompletePastSessions(ctx)
	if err != nil {
		s.logger.Error("Failed to complete past sessions", zap.Error(err))
	}

	reminded, err := s.sweeper.SendReminders(ctx, ReminderWindow)
	if err != nil {
		s.logger.Error("Failed to send reminders", zap.Error(err))
	}

	s.logger.Debug("Session sweep finished",
		zap.Int64("completed", completed),
		zap.Int("reminded", reminded),
	)
}
