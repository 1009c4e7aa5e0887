package manuscript

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	vo "github.com/openpublisher/openpublisher/internal/domain/manuscript/valueobjects"
	"github.com/openpublisher/openpublisher/internal/shared/biztime"
)

const maxLastErrorLength = 500

// LedgerAnchor is the write-ahead record of one attempt to anchor a payload
// on the ledger. It is written before the network is touched and updated as
// the transaction progresses, so a crash or timeout never loses track of a
// transaction that may still confirm.
type LedgerAnchor struct {
	id            string
	manuscriptID  *uint
	action        vo.EventType
	payload       []byte
	payloadDigest string
	txHash        string
	status        vo.AnchorStatus
	attempts      int
	lastError     string
	blockNumber   uint64
	gasUsed       uint64
	txIndex       uint
	createdAt     time.Time
	updatedAt     time.Time
}

func NewLedgerAnchor(manuscriptID *uint, action vo.EventType, payload []byte) (*LedgerAnchor, error) {
	if !action.IsValid() {
		return nil, fmt.Errorf("invalid anchor action: %s", action)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("anchor payload is required")
	}

	now := biztime.NowUTC()
	return &LedgerAnchor{
		id:            uuid.NewString(),
		manuscriptID:  manuscriptID,
		action:        action,
		payload:       payload,
		payloadDigest: PayloadDigest(payload),
		status:        vo.AnchorPending,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

func ReconstructLedgerAnchor(
	id string,
	manuscriptID *uint,
	action vo.EventType,
	payload []byte,
	payloadDigest string,
	txHash string,
	status vo.AnchorStatus,
	attempts int,
	lastError string,
	blockNumber uint64,
	gasUsed uint64,
	txIndex uint,
	createdAt, updatedAt time.Time,
) *LedgerAnchor {
	return &LedgerAnchor{
		id:            id,
		manuscriptID:  manuscriptID,
		action:        action,
		payload:       payload,
		payloadDigest: payloadDigest,
		txHash:        txHash,
		status:        status,
		attempts:      attempts,
		lastError:     lastError,
		blockNumber:   blockNumber,
		gasUsed:       gasUsed,
		txIndex:       txIndex,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// PayloadDigest is the hex sha256 of an anchored payload.
func PayloadDigest(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func (a *LedgerAnchor) ID() string              { return a.id }
func (a *LedgerAnchor) ManuscriptID() *uint     { return a.manuscriptID }
func (a *LedgerAnchor) Action() vo.EventType    { return a.action }
func (a *LedgerAnchor) PayloadDigest() string   { return a.payloadDigest }
func (a *LedgerAnchor) TxHash() string          { return a.txHash }
func (a *LedgerAnchor) Status() vo.AnchorStatus { return a.status }
func (a *LedgerAnchor) Attempts() int           { return a.attempts }
func (a *LedgerAnchor) LastError() string       { return a.lastError }
func (a *LedgerAnchor) BlockNumber() uint64     { return a.blockNumber }
func (a *LedgerAnchor) GasUsed() uint64         { return a.gasUsed }
func (a *LedgerAnchor) TxIndex() uint           { return a.txIndex }
func (a *LedgerAnchor) CreatedAt() time.Time    { return a.createdAt }
func (a *LedgerAnchor) UpdatedAt() time.Time    { return a.updatedAt }

func (a *LedgerAnchor) Payload() []byte {
	out := make([]byte, len(a.payload))
	copy(out, a.payload)
	return out
}

// AttachManuscript links a submission anchor to the manuscript created after
// it confirmed.
func (a *LedgerAnchor) AttachManuscript(manuscriptID uint) {
	a.manuscriptID = &manuscriptID
	a.touch()
}

// BeginAttempt counts a new submission attempt.
func (a *LedgerAnchor) BeginAttempt() error {
	if a.status != vo.AnchorPending && a.status != vo.AnchorFailed {
		return fmt.Errorf("cannot start an attempt for anchor in status %s", a.status)
	}
	a.attempts++
	a.status = vo.AnchorPending
	a.lastError = ""
	a.touch()
	return nil
}

func (a *LedgerAnchor) MarkSubmitted(txHash string) error {
	if err := a.moveTo(vo.AnchorSubmitted); err != nil {
		return err
	}
	a.txHash = txHash
	return nil
}

func (a *LedgerAnchor) MarkConfirmed(txHash string, blockNumber, gasUsed uint64, txIndex uint) error {
	if err := a.moveTo(vo.AnchorConfirmed); err != nil {
		return err
	}
	if txHash != "" {
		a.txHash = txHash
	}
	a.blockNumber = blockNumber
	a.gasUsed = gasUsed
	a.txIndex = txIndex
	a.lastError = ""
	return nil
}

// MarkFailed records a definite failure: the transaction was never sent or
// it was mined and reverted.
func (a *LedgerAnchor) MarkFailed(reason string) error {
	if err := a.moveTo(vo.AnchorFailed); err != nil {
		return err
	}
	a.setLastError(reason)
	return nil
}

// MarkTimedOut records that confirmation was not observed in time. txHash is
// kept so the reconciler can look the receipt up later.
func (a *LedgerAnchor) MarkTimedOut(txHash string, reason string) error {
	if err := a.moveTo(vo.AnchorTimedOut); err != nil {
		return err
	}
	if txHash != "" {
		a.txHash = txHash
	}
	a.setLastError(reason)
	return nil
}

// MarkOrphaned flags a confirmed transaction whose local state was never
// written. The manuscript link is dropped with it.
func (a *LedgerAnchor) MarkOrphaned(reason string) error {
	if err := a.moveTo(vo.AnchorOrphaned); err != nil {
		return err
	}
	a.manuscriptID = nil
	a.setLastError(reason)
	return nil
}

func (a *LedgerAnchor) moveTo(target vo.AnchorStatus) error {
	if !a.status.CanTransitionTo(target) {
		return fmt.Errorf("cannot move anchor from %s to %s", a.status, target)
	}
	a.status = target
	a.touch()
	return nil
}

func (a *LedgerAnchor) setLastError(reason string) {
	// the column holds characters, and a split rune is rejected by utf8mb4
	if utf8.RuneCountInString(reason) > maxLastErrorLength {
		reason = string([]rune(reason)[:maxLastErrorLength])
	}
	a.lastError = reason
}

func (a *LedgerAnchor) touch() {
	a.updatedAt = biztime.NowUTC()
}
