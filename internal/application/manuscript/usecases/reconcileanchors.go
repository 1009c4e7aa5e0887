package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/openpublisher/openpublisher/internal/application/ledger"
	"github.com/openpublisher/openpublisher/internal/domain/manuscript"
	"github.com/openpublisher/openpublisher/internal/shared/biztime"
	"github.com/openpublisher/openpublisher/internal/shared/constants"
	"github.com/openpublisher/openpublisher/internal/shared/logger"
)

const (
	defaultReconcileBatch       = 50
	defaultMaxReconcileAttempts = 5
	reconcileLockTTL            = 5 * time.Minute
)

type ReconcileAnchorsResult struct {
	Skipped   bool `json:"skipped"`
	Checked   int  `json:"checked"`
	Confirmed int  `json:"confirmed"`
	Failed    int  `json:"failed"`
	Retried   int  `json:"retried"`
	Orphaned  int  `json:"orphaned"`
	Pending   int  `json:"pending"`
}

type ReconcileAnchorsConfig struct {
	BatchSize   int
	MaxAttempts int
	// GracePeriod keeps the reconciler away from anchors a live request may
	// still be waiting on.
	GracePeriod time.Duration
}

// ReconcileAnchorsUseCase settles anchors left unfinished by requests:
// transactions whose receipt was never observed are looked up again, and
// failed anchors whose local change was kept are anchored again.
type ReconcileAnchorsUseCase struct {
	anchorRepo manuscript.AnchorRepository
	anchorer   *Anchorer
	client     ledger.Client
	locker     LeaderLocker
	cfg        ReconcileAnchorsConfig
	logger     logger.Interface
}

// NewReconcileAnchorsUseCase accepts a nil locker for single instance
// deployments.
func NewReconcileAnchorsUseCase(
	anchorRepo manuscript.AnchorRepository,
	anchorer *Anchorer,
	client ledger.Client,
	locker LeaderLocker,
	cfg ReconcileAnchorsConfig,
	logger logger.Interface,
) *ReconcileAnchorsUseCase {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultReconcileBatch
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxReconcileAttempts
	}
	return &ReconcileAnchorsUseCase{
		anchorRepo: anchorRepo,
		anchorer:   anchorer,
		client:     client,
		locker:     locker,
		cfg:        cfg,
		logger:     logger,
	}
}

func (uc *ReconcileAnchorsUseCase) Execute(ctx context.Context) (*ReconcileAnchorsResult, error) {
	result := &ReconcileAnchorsResult{}

	if uc.locker != nil {
		release, ok, err := uc.locker.TryAcquire(ctx, constants.RedisKeyReconcilerLock, reconcileLockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire reconciler lock: %w", err)
		}
		if !ok {
			uc.logger.Debugw("anchor reconciliation skipped, another instance holds the lock")
			result.Skipped = true
			return result, nil
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				uc.logger.Warnw("failed to release reconciler lock", "error", err)
			}
		}()
	}

	if !uc.client.IsReachable(ctx) {
		uc.logger.Warnw("anchor reconciliation skipped, ledger unreachable")
		result.Skipped = true
		return result, nil
	}

	awaiting, err := uc.anchorRepo.ListAwaitingReceipt(ctx, biztime.NowUTC().Add(-uc.cfg.GracePeriod), uc.cfg.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list anchors awaiting receipt: %w", err)
	}
	settled := make(map[string]bool, len(awaiting))
	for _, a := range awaiting {
		result.Checked++
		settled[a.ID()] = true
		if err := uc.settle(ctx, a, result); err != nil {
			uc.logger.Errorw("failed to settle anchor", "anchor_id", a.ID(), "error", err)
		}
	}

	retryable, err := uc.anchorRepo.ListRetryable(ctx, uc.cfg.MaxAttempts, uc.cfg.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list retryable anchors: %w", err)
	}
	for _, a := range retryable {
		// a revert seen above waits for the next run
		if settled[a.ID()] {
			continue
		}
		result.Checked++
		if err := uc.retry(ctx, a, result); err != nil {
			uc.logger.Errorw("failed to retry anchor", "anchor_id", a.ID(), "error", err)
		}
	}

	if result.Checked > 0 {
		uc.logger.Infow("anchor reconciliation finished",
			"checked", result.Checked,
			"confirmed", result.Confirmed,
			"failed", result.Failed,
			"retried", result.Retried,
			"orphaned", result.Orphaned,
			"pending", result.Pending)
	}
	return result, nil
}

// settle looks up the receipt of a transaction that was sent but never
// observed.
func (uc *ReconcileAnchorsUseCase) settle(ctx context.Context, a *manuscript.LedgerAnchor, result *ReconcileAnchorsResult) error {
	receipt, err := uc.client.Receipt(ctx, a.TxHash())
	if err != nil {
		result.Pending++
		return err
	}

	switch {
	case receipt == nil:
		result.Pending++
		// rotate to the back of the queue
		if err := a.MarkTimedOut(a.TxHash(), "receipt not yet available"); err != nil {
			return err
		}
	case !receipt.Success:
		result.Failed++
		if err := a.MarkFailed(ledger.ErrReverted.Error()); err != nil {
			return err
		}
	default:
		if err := a.MarkConfirmed(receipt.TxHash, receipt.BlockNumber, receipt.GasUsed, receipt.TxIndex); err != nil {
			return err
		}
		if a.ManuscriptID() == nil {
			result.Orphaned++
			if err := a.MarkOrphaned("confirmed on the ledger but no local change was stored"); err != nil {
				return err
			}
			uc.logger.Warnw("ledger anchor orphaned",
				"anchor_id", a.ID(),
				"action", a.Action().String(),
				"tx_hash", a.TxHash())
		} else {
			result.Confirmed++
		}
	}

	return uc.anchorRepo.Update(ctx, a)
}

func (uc *ReconcileAnchorsUseCase) retry(ctx context.Context, a *manuscript.LedgerAnchor, result *ReconcileAnchorsResult) error {
	result.Retried++
	outcome, err := uc.anchorer.Retry(ctx, a)
	if err != nil {
		return err
	}
	switch {
	case outcome.Confirmed():
		result.Confirmed++
	case outcome.Anchor.Status().AwaitsReceipt():
		result.Pending++
	default:
		result.Failed++
	}
	return nil
}
