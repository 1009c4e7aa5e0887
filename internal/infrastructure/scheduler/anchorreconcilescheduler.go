package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/openpublisher/openpublisher/internal/application/manuscript/usecases"
	"github.com/openpublisher/openpublisher/internal/shared/goroutine"
	"github.com/openpublisher/openpublisher/internal/shared/logger"
)

// AnchorReconcileScheduler runs the anchor reconciler on a fixed interval.
type AnchorReconcileScheduler struct {
	reconciler usecases.ReconcileAnchorsExecutor
	logger     logger.Interface
	interval   time.Duration
	runTimeout time.Duration

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewAnchorReconcileScheduler(
	reconciler usecases.ReconcileAnchorsExecutor,
	interval time.Duration,
	logger logger.Interface,
) *AnchorReconcileScheduler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &AnchorReconcileScheduler{
		reconciler: reconciler,
		logger:     logger,
		interval:   interval,
		runTimeout: 5 * time.Minute,
		stopChan:   make(chan struct{}),
	}
}

// Start launches the loop in the background and returns immediately.
func (s *AnchorReconcileScheduler) Start(ctx context.Context) {
	s.logger.Infow("starting anchor reconcile scheduler", "interval", s.interval)

	s.wg.Add(1)
	goroutine.SafeGo(s.logger, "anchor-reconcile-scheduler", func() {
		defer s.wg.Done()
		s.run(ctx)
	})
}

// Stop ends the loop and waits for an in-flight run to finish.
func (s *AnchorReconcileScheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
	s.logger.Infow("anchor reconcile scheduler stopped")
}

func (s *AnchorReconcileScheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Infow("anchor reconcile scheduler stopped due to context cancellation")
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.reconcile(ctx)
		}
	}
}

func (s *AnchorReconcileScheduler) reconcile(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	start := time.Now()
	result, err := s.reconciler.Execute(runCtx)
	if err != nil {
		s.logger.Errorw("anchor reconcile run failed", "error", err, "duration", time.Since(start))
		return
	}
	if result.Skipped {
		s.logger.Debugw("anchor reconcile run skipped")
		return
	}
	if result.Checked > 0 {
		s.logger.Infow("anchor reconcile run finished",
			"checked", result.Checked,
			"confirmed", result.Confirmed,
			"failed", result.Failed,
			"orphaned", result.Orphaned,
			"retried", result.Retried,
			"pending", result.Pending,
			"duration", time.Since(start),
		)
	}
}
