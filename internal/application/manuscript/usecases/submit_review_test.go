package usecases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpublisher/openpublisher/internal/application/ledger"
	"github.com/openpublisher/openpublisher/internal/domain/manuscript"
	vo "github.com/openpublisher/openpublisher/internal/domain/manuscript/valueobjects"
	apperrors "github.com/openpublisher/openpublisher/internal/shared/errors"
)

var reviewer = manuscript.Actor{ID: "rev-1", FirstName: "Ada", LastName: "Byron", Email: "ada@example.org", Roles: []string{"reviewer"}}

func reviewCmd(manuscriptID uint) SubmitReviewCommand {
	return SubmitReviewCommand{
		Actor:          reviewer,
		ManuscriptID:   manuscriptID,
		Comments:       "The second theorem needs a sharper statement.",
		Recommendation: "Minor_Revision",
	}
}

// assignedManuscript returns a manuscript under review with rev-1 assigned.
func (h *harness) assignedManuscript(t *testing.T) *manuscript.Manuscript {
	t.Helper()
	m := h.seedManuscript(t, vo.StatusSubmission)
	_, err := h.assign().Execute(context.Background(), assignCmd(m.ID(), reviewer.ID))
	require.NoError(t, err)
	return m
}

func TestSubmitReviewUseCase_Execute_Success(t *testing.T) {
	h := newHarness(t, false)
	m := h.assignedManuscript(t)

	res, err := h.review().Execute(context.Background(), reviewCmd(m.ID()))
	require.NoError(t, err)
	assert.Equal(t, "REVIEW_SUBMITTED", res.Event.EventType)
	assert.Equal(t, "confirmed", res.AnchorStatus)
	assert.NotEmpty(t, res.Event.TxHash)
	require.NotNil(t, res.Receipt)
	assert.Equal(t, res.Receipt.TxHash, res.Event.TxHash)

	md := res.Event.Metadata
	assert.Equal(t, "rev-1", md[vo.MetaReviewerID])
	assert.Equal(t, "minor_revision", md[vo.MetaRecommendation])
	assert.Equal(t, "The second theorem needs a sharper statement.", md[vo.MetaComments])

	assignments := h.store.assignmentsFor(m.ID())
	require.Len(t, assignments, 1)
	assert.Equal(t, vo.AssignmentCompleted, assignments[0].Status())
	assert.NotNil(t, assignments[0].CompletedAt())
}

func TestSubmitReviewUseCase_Execute_CompletedAssignmentCannotReviewAgain(t *testing.T) {
	h := newHarness(t, false)
	m := h.assignedManuscript(t)

	_, err := h.review().Execute(context.Background(), reviewCmd(m.ID()))
	require.NoError(t, err)

	_, err = h.review().Execute(context.Background(), reviewCmd(m.ID()))
	assert.True(t, apperrors.IsForbiddenError(err))
}

func TestSubmitReviewUseCase_Execute_NotAssigned(t *testing.T) {
	h := newHarness(t, false)
	m := h.seedManuscript(t, vo.StatusReview)
	eventsBefore := len(h.store.eventsFor(m.ID()))
	sentBefore := len(h.ledger.payloads)

	_, err := h.review().Execute(context.Background(), reviewCmd(m.ID()))
	require.Error(t, err)
	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, 403, appErr.Code)
	assert.Equal(t, "you are not assigned to review this manuscript", appErr.Message)

	assert.Len(t, h.store.eventsFor(m.ID()), eventsBefore)
	assert.Equal(t, sentBefore, len(h.ledger.payloads))
}

func TestSubmitReviewUseCase_Execute_OtherReviewerIsForbidden(t *testing.T) {
	h := newHarness(t, false)
	m := h.assignedManuscript(t)

	cmd := reviewCmd(m.ID())
	cmd.Actor = manuscript.Actor{ID: "rev-2", Roles: []string{"reviewer"}}
	_, err := h.review().Execute(context.Background(), cmd)
	assert.True(t, apperrors.IsForbiddenError(err))
}

func TestSubmitReviewUseCase_Execute_LedgerFailureAbortsInBestEffort(t *testing.T) {
	h := newHarness(t, false)
	m := h.assignedManuscript(t)
	eventsBefore := len(h.store.eventsFor(m.ID()))
	h.ledger.WaitFunc = func(ctx context.Context, txHash string) (*ledger.Receipt, error) {
		r := successReceipt(txHash)
		r.Success = false
		return r, ledger.NewAnchorError(ledger.ErrReverted, txHash, nil)
	}

	_, err := h.review().Execute(context.Background(), reviewCmd(m.ID()))
	require.Error(t, err)
	assert.True(t, apperrors.IsLedgerError(err))

	assert.Len(t, h.store.eventsFor(m.ID()), eventsBefore)
	assignments := h.store.assignmentsFor(m.ID())
	require.Len(t, assignments, 1)
	assert.Equal(t, vo.AssignmentPending, assignments[0].Status())
}

func TestSubmitReviewUseCase_Execute_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(cmd *SubmitReviewCommand)
	}{
		{"missing comments", func(c *SubmitReviewCommand) { c.Comments = "" }},
		{"markup only comments", func(c *SubmitReviewCommand) { c.Comments = "<p></p>" }},
		{"missing recommendation", func(c *SubmitReviewCommand) { c.Recommendation = "" }},
		{"unknown recommendation", func(c *SubmitReviewCommand) { c.Recommendation = "maybe" }},
		{"missing manuscript", func(c *SubmitReviewCommand) { c.ManuscriptID = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, false)
			m := h.assignedManuscript(t)
			cmd := reviewCmd(m.ID())
			tt.modify(&cmd)

			_, err := h.review().Execute(context.Background(), cmd)
			assert.True(t, apperrors.IsValidationError(err), "got %v", err)
		})
	}
}
