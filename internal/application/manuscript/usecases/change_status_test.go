package usecases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "github.com/openpublisher/openpublisher/internal/domain/manuscript/valueobjects"
	apperrors "github.com/openpublisher/openpublisher/internal/shared/errors"
)

func statusCmd(manuscriptID uint, status string) ChangeStatusCommand {
	return ChangeStatusCommand{Actor: editor, ManuscriptID: manuscriptID, Status: status}
}

func TestChangeStatusUseCase_Execute_Accept(t *testing.T) {
	h := newHarness(t, false)
	m := h.seedManuscript(t, vo.StatusReview)

	cmd := statusCmd(m.ID(), "accepted")
	cmd.Comment = "Strong contribution"
	res, err := h.changeStatus().Execute(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, "ACCEPTED", res.Manuscript.Status)
	assert.Equal(t, "REVIEW", res.PreviousStatus)
	assert.Equal(t, "confirmed", res.AnchorStatus)

	events := h.store.eventsFor(m.ID())
	last := events[len(events)-1]
	assert.Equal(t, vo.EventAcceptance, last.EventType())
	assert.Equal(t, "Strong contribution", last.Description())
	assert.Equal(t, "REVIEW", last.Metadata()[vo.MetaPreviousStatus])
	assert.Equal(t, res.TxHash, last.TxHash())
}

func TestChangeStatusUseCase_Execute_EventTypePerTarget(t *testing.T) {
	tests := []struct {
		from      vo.ManuscriptStatus
		target    string
		wantEvent vo.EventType
	}{
		{vo.StatusSubmission, "REJECTED", vo.EventRejection},
		{vo.StatusReview, "ACCEPTED", vo.EventAcceptance},
		{vo.StatusAccepted, "COPYEDITING", vo.EventCopyeditingStarted},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			h := newHarness(t, false)
			m := h.seedManuscript(t, tt.from)

			res, err := h.changeStatus().Execute(context.Background(), statusCmd(m.ID(), tt.target))
			require.NoError(t, err)
			assert.Equal(t, tt.target, res.Manuscript.Status)

			events := h.store.eventsFor(m.ID())
			assert.Equal(t, tt.wantEvent, events[len(events)-1].EventType())
		})
	}
}

func TestChangeStatusUseCase_Execute_RepeatedStatusRecordsTwice(t *testing.T) {
	h := newHarness(t, false)
	m := h.seedManuscript(t, vo.StatusReview)
	before := len(h.store.eventsFor(m.ID()))

	first, err := h.changeStatus().Execute(context.Background(), statusCmd(m.ID(), "ACCEPTED"))
	require.NoError(t, err)
	second, err := h.changeStatus().Execute(context.Background(), statusCmd(m.ID(), "ACCEPTED"))
	require.NoError(t, err)

	assert.Equal(t, "ACCEPTED", second.Manuscript.Status)
	assert.Equal(t, "ACCEPTED", second.PreviousStatus)
	assert.NotEqual(t, first.EventID, second.EventID)
	assert.NotEqual(t, first.TxHash, second.TxHash)

	var acceptances int
	for _, e := range h.store.eventsFor(m.ID())[before:] {
		if e.EventType() == vo.EventAcceptance {
			acceptances++
		}
	}
	assert.Equal(t, 2, acceptances)
}

func TestChangeStatusUseCase_Execute_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		from   vo.ManuscriptStatus
		target string
	}{
		{"unknown status", vo.StatusReview, "MAYBE"},
		{"empty status", vo.StatusReview, ""},
		{"published is reserved", vo.StatusCopyediting, "PUBLISHED"},
		{"submission is reserved", vo.StatusReview, "SUBMISSION"},
		{"review is reserved", vo.StatusSubmission, "REVIEW"},
		{"rejected is terminal", vo.StatusRejected, "ACCEPTED"},
		{"published is terminal", vo.StatusPublished, "REJECTED"},
		{"copyediting needs acceptance", vo.StatusReview, "COPYEDITING"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, false)
			m := h.seedManuscript(t, tt.from)
			eventsBefore := len(h.store.eventsFor(m.ID()))
			sentBefore := len(h.ledger.payloads)

			_, err := h.changeStatus().Execute(context.Background(), statusCmd(m.ID(), tt.target))
			require.Error(t, err)
			assert.Equal(t, 400, apperrors.GetAppError(err).Code)

			stored, _ := memManuscripts{h.store}.GetByID(context.Background(), m.ID())
			assert.Equal(t, tt.from, stored.Status())
			assert.Len(t, h.store.eventsFor(m.ID()), eventsBefore)
			assert.Equal(t, sentBefore, len(h.ledger.payloads))
		})
	}
}

func TestChangeStatusUseCase_Execute_StrictModeAborts(t *testing.T) {
	h := newHarness(t, true)
	m := h.seedManuscript(t, vo.StatusReview)
	h.ledger.unreachable = true

	_, err := h.changeStatus().Execute(context.Background(), statusCmd(m.ID(), "REJECTED"))
	assert.True(t, apperrors.IsLedgerError(err))

	stored, _ := memManuscripts{h.store}.GetByID(context.Background(), m.ID())
	assert.Equal(t, vo.StatusReview, stored.Status())
}

func TestChangeStatusUseCase_Execute_ManuscriptNotFound(t *testing.T) {
	h := newHarness(t, false)

	_, err := h.changeStatus().Execute(context.Background(), statusCmd(99, "ACCEPTED"))
	assert.True(t, apperrors.IsNotFoundError(err))
}
