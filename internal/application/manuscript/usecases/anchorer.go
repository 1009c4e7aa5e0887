package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gowebpki/jcs"

	"github.com/openpublisher/openpublisher/internal/application/ledger"
	"github.com/openpublisher/openpublisher/internal/domain/manuscript"
	vo "github.com/openpublisher/openpublisher/internal/domain/manuscript/valueobjects"
	apperrors "github.com/openpublisher/openpublisher/internal/shared/errors"
	"github.com/openpublisher/openpublisher/internal/shared/logger"
)

// AnchorResult is the outcome of one anchoring attempt. Err is non-nil when
// the ledger did not confirm; Anchor always holds what is known about the
// transaction.
type AnchorResult struct {
	Anchor  *manuscript.LedgerAnchor
	Receipt *ledger.Receipt
	Err     error
}

func (r *AnchorResult) Confirmed() bool {
	return r.Err == nil && r.Receipt != nil
}

// TxHash is the confirmed transaction hash, empty otherwise.
func (r *AnchorResult) TxHash() string {
	if !r.Confirmed() {
		return ""
	}
	return r.Receipt.TxHash
}

func (r *AnchorResult) AnchorID() *string {
	id := r.Anchor.ID()
	return &id
}

// Anchorer coordinates the ledger half of every dual write. An anchor intent
// row is stored before the ledger is contacted and updated after each step,
// so the reconciler can finish whatever a request leaves behind.
type Anchorer struct {
	client     ledger.Client
	anchorRepo manuscript.AnchorRepository
	strict     bool
	logger     logger.Interface
}

func NewAnchorer(
	client ledger.Client,
	anchorRepo manuscript.AnchorRepository,
	strict bool,
	logger logger.Interface,
) *Anchorer {
	return &Anchorer{
		client:     client,
		anchorRepo: anchorRepo,
		strict:     strict,
		logger:     logger,
	}
}

// Anchor canonicalizes payload and anchors it. The returned error is set only
// when the intent itself could not be stored or encoded; ledger failures are
// reported through AnchorResult.Err.
func (a *Anchorer) Anchor(ctx context.Context, action vo.EventType, payload map[string]any) (*AnchorResult, error) {
	body, err := CanonicalPayload(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode anchor payload: %w", err)
	}

	anchor, err := manuscript.NewLedgerAnchor(nil, action, body)
	if err != nil {
		return nil, err
	}
	if err := anchor.BeginAttempt(); err != nil {
		return nil, err
	}
	if err := a.anchorRepo.Create(context.WithoutCancel(ctx), anchor); err != nil {
		return nil, fmt.Errorf("failed to store anchor intent: %w", err)
	}

	return a.run(ctx, anchor)
}

// Retry anchors the stored payload of a failed anchor again.
func (a *Anchorer) Retry(ctx context.Context, anchor *manuscript.LedgerAnchor) (*AnchorResult, error) {
	if err := anchor.BeginAttempt(); err != nil {
		return nil, err
	}
	if err := a.save(ctx, anchor); err != nil {
		return nil, err
	}
	return a.run(ctx, anchor)
}

func (a *Anchorer) run(ctx context.Context, anchor *manuscript.LedgerAnchor) (*AnchorResult, error) {
	result := &AnchorResult{Anchor: anchor}
	log := a.logger.With("anchor_id", anchor.ID(), "action", anchor.Action().String(), "attempt", anchor.Attempts())

	if !a.client.IsReachable(ctx) {
		result.Err = ledger.NewAnchorError(ledger.ErrUnreachable, "", nil)
		log.Warnw("ledger unreachable, anchor not sent")
		return result, a.markFailed(ctx, anchor, result.Err)
	}

	txHash, err := a.client.Submit(ctx, anchor.Payload())
	if err != nil {
		result.Err = err
		log.Warnw("ledger submission failed", "error", err)
		return result, a.markFailed(ctx, anchor, err)
	}

	if err := anchor.MarkSubmitted(txHash); err != nil {
		return nil, err
	}
	if err := a.save(ctx, anchor); err != nil {
		return nil, err
	}

	receipt, err := a.client.WaitReceipt(ctx, txHash)
	switch {
	case err == nil:
		result.Receipt = receipt
		if err := anchor.MarkConfirmed(receipt.TxHash, receipt.BlockNumber, receipt.GasUsed, receipt.TxIndex); err != nil {
			return nil, err
		}
		log.Infow("ledger anchor confirmed", "tx_hash", receipt.TxHash, "block_number", receipt.BlockNumber)
	case errors.Is(err, ledger.ErrReverted):
		result.Receipt = receipt
		result.Err = err
		if err := anchor.MarkFailed(err.Error()); err != nil {
			return nil, err
		}
		log.Warnw("ledger transaction reverted", "tx_hash", txHash)
	default:
		result.Err = err
		if err := anchor.MarkTimedOut(txHash, err.Error()); err != nil {
			return nil, err
		}
		log.Warnw("ledger confirmation not observed, left for reconciliation", "tx_hash", txHash, "error", err)
	}

	if err := a.save(ctx, anchor); err != nil {
		return nil, err
	}
	return result, nil
}

// ShouldAbort reports whether an operation must stop without local writes.
// alwaysStrict marks operations that never persist an unanchored change.
func (a *Anchorer) ShouldAbort(result *AnchorResult, alwaysStrict bool) bool {
	if result.Err == nil {
		return false
	}
	return alwaysStrict || a.strict
}

// Attach links the anchor to the manuscript whose local state now reflects
// it. Call it inside the transaction that writes that state; the reconciler
// only retries attached anchors.
func (a *Anchorer) Attach(ctx context.Context, anchor *manuscript.LedgerAnchor, manuscriptID uint) error {
	anchor.AttachManuscript(manuscriptID)
	if err := a.anchorRepo.Update(ctx, anchor); err != nil {
		return fmt.Errorf("failed to attach anchor: %w", err)
	}
	return nil
}

// Orphan flags a confirmed anchor whose local write failed afterwards.
func (a *Anchorer) Orphan(ctx context.Context, anchor *manuscript.LedgerAnchor, cause error) {
	if anchor.Status() != vo.AnchorConfirmed {
		return
	}
	if err := anchor.MarkOrphaned(cause.Error()); err != nil {
		a.logger.Errorw("failed to mark anchor orphaned", "anchor_id", anchor.ID(), "error", err)
		return
	}
	if err := a.save(ctx, anchor); err != nil {
		a.logger.Errorw("failed to store orphaned anchor", "anchor_id", anchor.ID(), "error", err)
		return
	}
	a.logger.Warnw("ledger anchor orphaned, local write failed after confirmation",
		"anchor_id", anchor.ID(),
		"tx_hash", anchor.TxHash(),
		"error", cause)
}

func (a *Anchorer) markFailed(ctx context.Context, anchor *manuscript.LedgerAnchor, cause error) error {
	if err := anchor.MarkFailed(cause.Error()); err != nil {
		return err
	}
	return a.save(ctx, anchor)
}

// save ignores cancellation of ctx: the anchor row must reflect a sent
// transaction even when the client has gone away.
func (a *Anchorer) save(ctx context.Context, anchor *manuscript.LedgerAnchor) error {
	if err := a.anchorRepo.Update(context.WithoutCancel(ctx), anchor); err != nil {
		return fmt.Errorf("failed to update anchor %s: %w", anchor.ID(), err)
	}
	return nil
}

// CanonicalPayload encodes payload as RFC 8785 canonical JSON so equal
// payloads always produce identical ledger calls.
func CanonicalPayload(payload map[string]any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return jcs.Transform(raw)
}

// LedgerAppError maps a ledger failure onto the 500 returned to callers.
func LedgerAppError(result *AnchorResult) *apperrors.AppError {
	details := "anchor " + result.Anchor.ID()
	switch {
	case errors.Is(result.Err, ledger.ErrUnreachable):
		return apperrors.NewLedgerError("No connection to the ledger network", details)
	case errors.Is(result.Err, ledger.ErrConfirmationTimeout):
		return apperrors.NewLedgerError("Ledger transaction was not confirmed in time", details)
	case errors.Is(result.Err, ledger.ErrReverted):
		return apperrors.NewLedgerError("Ledger transaction failed", details)
	default:
		return apperrors.NewLedgerError("Ledger transaction could not be submitted", details)
	}
}
