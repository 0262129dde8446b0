package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultSyncInitialDelay = 10 * time.Second
	DefaultSyncInterval     = 15 * time.Second
)

// Reconciler runs one reconciliation pass and reports how many rooms were
// pushed.
type Reconciler interface {
	Reconcile(ctx context.Context) (int, error)
}

// SyncScheduler runs a Reconciler on a fixed delay: the next pass starts
// interval after the previous one finished, so passes never overlap.
type SyncScheduler struct {
	reconciler   Reconciler
	initialDelay time.Duration
	interval     time.Duration
	log          *logrus.Entry
}

// NewSyncScheduler creates a SyncScheduler. Non-positive durations fall back
// to the defaults.
func NewSyncScheduler(reconciler Reconciler, initialDelay, interval time.Duration, logger *logrus.Logger) *SyncScheduler {
	if reconciler == nil {
		panic("Reconciler cannot be nil for SyncScheduler")
	}
	if initialDelay <= 0 {
		initialDelay = DefaultSyncInitialDelay
	}
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &SyncScheduler{
		reconciler:   reconciler,
		initialDelay: initialDelay,
		interval:     interval,
		log:          logger.WithField("component", "sync_scheduler"),
	}
}

// Run blocks until ctx is cancelled.
func (s *SyncScheduler) Run(ctx context.Context) error {
	s.log.WithFields(logrus.Fields{"initial_delay": s.initialDelay, "interval": s.interval}).Info("Sync scheduler started")
	timer := time.NewTimer(s.initialDelay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Sync scheduler stopping")
			return nil
		case <-timer.C:
			s.runOnce(ctx)
			timer.Reset(s.interval)
		}
	}
}

func (s *SyncScheduler) runOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorf("Reconciliation panicked: %v", r)
		}
	}()
	start := time.Now()
	sent, err := s.reconciler.Reconcile(ctx)
	logCtx := s.log.WithFields(logrus.Fields{"sent": sent, "took": time.Since(start)})
	if err != nil {
		logCtx.WithError(err).Warn("Reconciliation pass failed")
		return
	}
	if sent > 0 {
		logCtx.Debug("Reconciliation pass pushed canvas snapshots")
	}
}
