package usecases

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpublisher/openpublisher/internal/application/ledger"
	"github.com/openpublisher/openpublisher/internal/domain/manuscript"
	vo "github.com/openpublisher/openpublisher/internal/domain/manuscript/valueobjects"
	apperrors "github.com/openpublisher/openpublisher/internal/shared/errors"
)

func TestSubmitManuscriptUseCase_Execute_Success(t *testing.T) {
	h := newHarness(t, false)
	h.ledger.WaitFunc = func(ctx context.Context, txHash string) (*ledger.Receipt, error) {
		r := successReceipt(txHash)
		return r, nil
	}

	result, err := h.submit().Execute(context.Background(), validSubmission())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Len(t, h.store.manuscripts, 1)
	events := h.store.eventsFor(result.ManuscriptID)
	require.Len(t, events, 1)
	assert.Equal(t, vo.EventSubmission, events[0].EventType())
	assert.Equal(t, result.Receipt.TxHash, events[0].TxHash())
	assert.True(t, strings.HasPrefix(events[0].TxHash(), "0x"))
	assert.Equal(t, 1, result.Receipt.Status)
	assert.Equal(t, "SUBMISSION", result.Manuscript.Status)
	require.NotNil(t, events[0].ActorID())
	assert.Equal(t, submitter.ID, *events[0].ActorID())

	anchors := h.store.anchorList()
	require.Len(t, anchors, 1)
	assert.Equal(t, vo.AnchorConfirmed, anchors[0].Status())
	require.NotNil(t, anchors[0].ManuscriptID())
	assert.Equal(t, result.ManuscriptID, *anchors[0].ManuscriptID())
	assert.Equal(t, anchors[0].ID(), *events[0].AnchorID())

	assert.Len(t, h.publisher.published, 1)
}

func TestSubmitManuscriptUseCase_Execute_PayloadIsCanonical(t *testing.T) {
	h := newHarness(t, false)

	_, err := h.submit().Execute(context.Background(), validSubmission())
	require.NoError(t, err)

	require.Len(t, h.ledger.payloads, 1)
	payload := string(h.ledger.payloads[0])
	assert.True(t, strings.HasPrefix(payload, `{"abstract":`), payload)
	assert.Contains(t, payload, `"title":"On Invariant Variation Problems"`)
	assert.Contains(t, payload, `"action":"SUBMISSION"`)
}

func TestSubmitManuscriptUseCase_Execute_ReusesExistingAuthor(t *testing.T) {
	h := newHarness(t, false)
	existing, err := manuscript.NewAuthor("Emmy", "Noether", "emmy@example.org", "Erlangen", false)
	require.NoError(t, err)
	require.NoError(t, memAuthors{h.store}.Create(context.Background(), existing))

	cmd := validSubmission()
	cmd.Authors = append(cmd.Authors, AuthorInput{
		FirstName: "Hermann", LastName: "Weyl", Email: "Weyl@Example.org", Affiliation: "ETH",
	})

	result, err := h.submit().Execute(context.Background(), cmd)
	require.NoError(t, err)

	assert.Equal(t, 1, result.AuthorsCreated)
	assert.Len(t, h.store.authors, 2)
	require.Len(t, result.Manuscript.Authors, 2)
	assert.Equal(t, existing.ID(), result.Manuscript.Authors[0].ID)
	assert.Equal(t, "Erlangen", result.Manuscript.Authors[0].Affiliation)
	assert.Equal(t, "weyl@example.org", result.Manuscript.Authors[1].Email)
}

func TestSubmitManuscriptUseCase_Execute_DuplicateEmailsInPayload(t *testing.T) {
	h := newHarness(t, false)
	cmd := validSubmission()
	cmd.Authors = append(cmd.Authors, AuthorInput{FirstName: "E.", LastName: "Noether", Email: "EMMY@example.org"})

	result, err := h.submit().Execute(context.Background(), cmd)
	require.NoError(t, err)
	assert.Len(t, result.Manuscript.Authors, 1)
	assert.Equal(t, 1, result.AuthorsCreated)
}

func TestSubmitManuscriptUseCase_Execute_LedgerFailurePersistsNothing(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(l *mockLedger)
		wantAnchor vo.AnchorStatus
		wantMsg    string
	}{
		{
			name:       "unreachable",
			setup:      func(l *mockLedger) { l.unreachable = true },
			wantAnchor: vo.AnchorFailed,
			wantMsg:    "No connection to the ledger network",
		},
		{
			name: "submission failure",
			setup: func(l *mockLedger) {
				l.SubmitFunc = func(ctx context.Context, payload []byte) (string, error) {
					return "", ledger.NewAnchorError(ledger.ErrSubmission, "", errors.New("insufficient funds"))
				}
			},
			wantAnchor: vo.AnchorFailed,
			wantMsg:    "Ledger transaction could not be submitted",
		},
		{
			name: "reverted",
			setup: func(l *mockLedger) {
				l.WaitFunc = func(ctx context.Context, txHash string) (*ledger.Receipt, error) {
					r := successReceipt(txHash)
					r.Success = false
					return r, ledger.NewAnchorError(ledger.ErrReverted, txHash, nil)
				}
			},
			wantAnchor: vo.AnchorFailed,
			wantMsg:    "Ledger transaction failed",
		},
		{
			name: "confirmation timeout",
			setup: func(l *mockLedger) {
				l.WaitFunc = func(ctx context.Context, txHash string) (*ledger.Receipt, error) {
					return nil, ledger.NewAnchorError(ledger.ErrConfirmationTimeout, txHash, context.DeadlineExceeded)
				}
			},
			wantAnchor: vo.AnchorTimedOut,
			wantMsg:    "Ledger transaction was not confirmed in time",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, false)
			tt.setup(h.ledger)

			result, err := h.submit().Execute(context.Background(), validSubmission())
			assert.Nil(t, result)
			require.Error(t, err)
			assert.True(t, apperrors.IsLedgerError(err))
			assert.Equal(t, tt.wantMsg, apperrors.GetAppError(err).Message)

			assert.Empty(t, h.store.manuscripts)
			assert.Empty(t, h.store.events)
			assert.Empty(t, h.store.authors)
			assert.Empty(t, h.publisher.published)

			anchors := h.store.anchorList()
			require.Len(t, anchors, 1)
			assert.Equal(t, tt.wantAnchor, anchors[0].Status())
			assert.Nil(t, anchors[0].ManuscriptID())
		})
	}
}

func TestSubmitManuscriptUseCase_Execute_JournalNotFound(t *testing.T) {
	h := newHarness(t, false)
	h.journals.ExistsFunc = func(ctx context.Context, id uint) (bool, error) { return false, nil }

	_, err := h.submit().Execute(context.Background(), validSubmission())
	assert.True(t, apperrors.IsNotFoundError(err))
	assert.Empty(t, h.ledger.payloads)
}

func TestSubmitManuscriptUseCase_Execute_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(cmd *SubmitManuscriptCommand)
	}{
		{"missing journal", func(c *SubmitManuscriptCommand) { c.JournalID = 0 }},
		{"missing title", func(c *SubmitManuscriptCommand) { c.Title = "  " }},
		{"markup only title", func(c *SubmitManuscriptCommand) { c.Title = "<b></b>" }},
		{"title too long", func(c *SubmitManuscriptCommand) { c.Title = strings.Repeat("t", 251) }},
		{"abstract too long", func(c *SubmitManuscriptCommand) { c.Abstract = strings.Repeat("a", 501) }},
		{"no authors", func(c *SubmitManuscriptCommand) { c.Authors = nil }},
		{"author without email", func(c *SubmitManuscriptCommand) { c.Authors[0].Email = "" }},
		{"author with bad email", func(c *SubmitManuscriptCommand) { c.Authors[0].Email = "nobody" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, false)
			cmd := validSubmission()
			tt.modify(&cmd)

			_, err := h.submit().Execute(context.Background(), cmd)
			assert.True(t, apperrors.IsValidationError(err), "got %v", err)
			assert.Empty(t, h.ledger.payloads)
			assert.Empty(t, h.store.anchorList())
		})
	}
}

func TestSubmitManuscriptUseCase_Execute_SanitizesText(t *testing.T) {
	h := newHarness(t, false)
	cmd := validSubmission()
	cmd.Title = "<script>alert(1)</script>Noether's <i>Theorem</i>"

	result, err := h.submit().Execute(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, "Noether's Theorem", result.Manuscript.Title)
}

func TestSubmitManuscriptUseCase_Execute_LocalFailureOrphansAnchor(t *testing.T) {
	h := newHarness(t, false)
	h.store.eventCreateErr = errors.New("disk full")

	_, err := h.submit().Execute(context.Background(), validSubmission())
	require.Error(t, err)
	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrorTypeInternal, appErr.Type)
	assert.NotContains(t, appErr.Message, "disk full")

	anchors := h.store.anchorList()
	require.Len(t, anchors, 1)
	assert.Equal(t, vo.AnchorOrphaned, anchors[0].Status())
}
