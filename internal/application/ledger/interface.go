// Package ledger defines the capability the manuscript workflow needs from an
// external blockchain ledger. The concrete client lives in infrastructure.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Receipt is the confirmation data returned once a transaction is included.
type Receipt struct {
	TxHash      string
	Success     bool
	BlockNumber uint64
	BlockHash   string
	GasUsed     uint64
	TxIndex     uint
}

// Client anchors opaque payloads on the ledger.
type Client interface {
	// IsReachable reports whether the ledger node answers. It never blocks
	// longer than a short probe.
	IsReachable(ctx context.Context) bool

	// Anchor submits payload and waits for its receipt. The wait is bounded
	// by the client's confirmation timeout and by ctx. A mined but reverted
	// transaction is returned as an AnchorError wrapping ErrReverted.
	Anchor(ctx context.Context, payload []byte) (*Receipt, error)

	// Submit signs and sends the transaction without waiting for it.
	Submit(ctx context.Context, payload []byte) (string, error)

	// WaitReceipt polls for txHash until it is mined or the timeout passes.
	WaitReceipt(ctx context.Context, txHash string) (*Receipt, error)

	// Receipt looks a transaction up once. It returns nil, nil while the
	// transaction is still pending.
	Receipt(ctx context.Context, txHash string) (*Receipt, error)
}

// Failure kinds. Use errors.Is on an AnchorError to tell them apart.
var (
	// ErrUnreachable means the node could not be contacted; nothing was sent.
	ErrUnreachable = errors.New("ledger unreachable")
	// ErrSubmission covers signing, nonce, gas and send failures; nothing
	// reached the network.
	ErrSubmission = errors.New("ledger transaction submission failed")
	// ErrConfirmationTimeout means the transaction was sent but no receipt
	// was seen in time. It may still confirm later.
	ErrConfirmationTimeout = errors.New("ledger confirmation timed out")
	// ErrReverted means the transaction was mined with a failure status.
	ErrReverted = errors.New("ledger transaction reverted")
)

// AnchorError carries the failure kind and, when a transaction was sent,
// its hash.
type AnchorError struct {
	Kind   error
	TxHash string
	Err    error
}

func NewAnchorError(kind error, txHash string, err error) *AnchorError {
	return &AnchorError{Kind: kind, TxHash: NormalizeTxHash(txHash), Err: err}
}

func (e *AnchorError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.TxHash != "" {
		fmt.Fprintf(&b, " (tx %s)", e.TxHash)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *AnchorError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// WasSent reports whether the failed transaction reached the network, in
// which case it may still confirm and must be reconciled rather than retried.
func (e *AnchorError) WasSent() bool {
	return errors.Is(e.Kind, ErrConfirmationTimeout)
}

// TxHashOf returns the transaction hash carried by err, if any.
func TxHashOf(err error) string {
	var ae *AnchorError
	if errors.As(err, &ae) {
		return ae.TxHash
	}
	return ""
}

// NormalizeTxHash lower-cases a transaction hash and guarantees a single
// "0x" prefix. An empty hash stays empty.
func NormalizeTxHash(h string) string {
	h = strings.TrimSpace(h)
	if h == "" {
		return ""
	}
	h = strings.ToLower(h)
	h = strings.TrimPrefix(h, "0x")
	if h == "" {
		return ""
	}
	return "0x" + h
}
