package manuscript

import (
	"context"
	stderrors "errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpublisher/openpublisher/internal/application/manuscript/dto"
	"github.com/openpublisher/openpublisher/internal/application/manuscript/usecases"
	"github.com/openpublisher/openpublisher/internal/domain/manuscript"
	"github.com/openpublisher/openpublisher/internal/interfaces/http/handlers/testutil"
	"github.com/openpublisher/openpublisher/internal/shared/errors"
)

// =====================================================================
// Mock use cases
// =====================================================================

type mockSubmitUC struct {
	got    usecases.SubmitManuscriptCommand
	result *usecases.SubmitManuscriptResult
	err    error
}

func (m *mockSubmitUC) Execute(_ context.Context, cmd usecases.SubmitManuscriptCommand) (*usecases.SubmitManuscriptResult, error) {
	m.got = cmd
	return m.result, m.err
}

type mockAssignReviewerUC struct {
	got    usecases.AssignReviewerCommand
	result *usecases.AssignReviewerResult
	err    error
}

func (m *mockAssignReviewerUC) Execute(_ context.Context, cmd usecases.AssignReviewerCommand) (*usecases.AssignReviewerResult, error) {
	m.got = cmd
	return m.result, m.err
}

type mockRespondAssignmentUC struct {
	got    usecases.RespondAssignmentCommand
	result *dto.AssignmentDTO
	err    error
}

func (m *mockRespondAssignmentUC) Execute(_ context.Context, cmd usecases.RespondAssignmentCommand) (*dto.AssignmentDTO, error) {
	m.got = cmd
	return m.result, m.err
}

type mockSubmitReviewUC struct {
	got    usecases.SubmitReviewCommand
	result *usecases.RecordedEventResult
	err    error
}

func (m *mockSubmitReviewUC) Execute(_ context.Context, cmd usecases.SubmitReviewCommand) (*usecases.RecordedEventResult, error) {
	m.got = cmd
	return m.result, m.err
}

type mockSubmitCorrectionsUC struct {
	result *usecases.RecordedEventResult
	err    error
}

func (m *mockSubmitCorrectionsUC) Execute(_ context.Context, _ usecases.SubmitCorrectionsCommand) (*usecases.RecordedEventResult, error) {
	return m.result, m.err
}

type mockChangeStatusUC struct {
	got    usecases.ChangeStatusCommand
	result *usecases.StatusChangeResult
	err    error
}

func (m *mockChangeStatusUC) Execute(_ context.Context, cmd usecases.ChangeStatusCommand) (*usecases.StatusChangeResult, error) {
	m.got = cmd
	return m.result, m.err
}

type mockPublishUC struct {
	result *usecases.StatusChangeResult
	err    error
}

func (m *mockPublishUC) Execute(_ context.Context, _ usecases.PublishManuscriptCommand) (*usecases.StatusChangeResult, error) {
	return m.result, m.err
}

type mockGetManuscriptUC struct {
	result *dto.ManuscriptDTO
	err    error
}

func (m *mockGetManuscriptUC) Execute(_ context.Context, _ usecases.GetManuscriptQuery) (*dto.ManuscriptDTO, error) {
	return m.result, m.err
}

type mockListManuscriptsUC struct {
	got    usecases.ListManuscriptsQuery
	result *usecases.ListManuscriptsResult
	err    error
}

func (m *mockListManuscriptsUC) Execute(_ context.Context, query usecases.ListManuscriptsQuery) (*usecases.ListManuscriptsResult, error) {
	m.got = query
	return m.result, m.err
}

type mockGetProvenanceUC struct {
	result *dto.ProvenanceDTO
	err    error
}

func (m *mockGetProvenanceUC) Execute(_ context.Context, _ usecases.GetProvenanceQuery) (*dto.ProvenanceDTO, error) {
	return m.result, m.err
}

// =====================================================================
// Test helpers
// =====================================================================

var testActor = manuscript.Actor{
	ID:        "0b6f3a52-6d1c-4c44-9a57-3d2f0f1f7a01",
	FirstName: "Ada",
	LastName:  "Lovelace",
	Email:     "ada@analytical.org",
	Roles:     []string{"author"},
}

func newTestHandler(uc UseCases) *Handler {
	return NewHandler(uc, testutil.NewMockLogger())
}

func validSubmitRequest() map[string]any {
	return map[string]any{
		"title":    "On the Provenance of Peer Review",
		"abstract": "We anchor every editorial decision.",
		"keywords": []string{"provenance"},
		"authors": []map[string]any{
			{"first_name": "Ada", "last_name": "Lovelace", "email": "ada@analytical.org", "is_primary": true},
		},
	}
}

// =====================================================================
// SubmitManuscript
// =====================================================================

func TestHandler_SubmitManuscript_Success(t *testing.T) {
	uc := &mockSubmitUC{result: &usecases.SubmitManuscriptResult{ManuscriptID: 7, AuthorsCreated: 1}}
	handler := newTestHandler(UseCases{Submit: uc})

	c, w := testutil.NewTestContext(http.MethodPost, "/journals/3/manuscripts", validSubmitRequest())
	testutil.SetURLParam(c, "id", "3")
	testutil.SetActorContext(c, testActor)

	handler.SubmitManuscript(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	assert.True(t, resp.Success())
	assert.Contains(t, string(resp.Data), `"manuscript_id":7`)

	assert.Equal(t, uint(3), uc.got.JournalID)
	assert.Equal(t, testActor.ID, uc.got.Actor.ID)
	require.Len(t, uc.got.Authors, 1)
	assert.True(t, uc.got.Authors[0].IsPrimary)
}

func TestHandler_SubmitManuscript_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{"blank title", map[string]any{"title": "   ", "authors": validSubmitRequest()["authors"]}},
		{"no authors", map[string]any{"title": "Alone", "authors": []map[string]any{}}},
		{"bad author email", map[string]any{"title": "Typo", "authors": []map[string]any{
			{"first_name": "Ada", "last_name": "Lovelace", "email": "not-an-email"},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockSubmitUC{}
			handler := newTestHandler(UseCases{Submit: uc})

			c, w := testutil.NewTestContext(http.MethodPost, "/journals/1/manuscripts", tt.body)
			testutil.SetURLParam(c, "id", "1")
			testutil.SetActorContext(c, testActor)

			handler.SubmitManuscript(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var resp testutil.APIResponse
			require.NoError(t, testutil.ParseResponse(w, &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, "validation_error", resp.Error.Type)
			assert.Empty(t, uc.got.Title)
		})
	}
}

func TestHandler_SubmitManuscript_InvalidJournalID(t *testing.T) {
	handler := newTestHandler(UseCases{Submit: &mockSubmitUC{}})

	c, w := testutil.NewTestContext(http.MethodPost, "/journals/abc/manuscripts", validSubmitRequest())
	testutil.SetURLParam(c, "id", "abc")
	testutil.SetActorContext(c, testActor)

	handler.SubmitManuscript(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_SubmitManuscript_NoActor(t *testing.T) {
	handler := newTestHandler(UseCases{Submit: &mockSubmitUC{}})

	c, w := testutil.NewTestContext(http.MethodPost, "/journals/1/manuscripts", validSubmitRequest())
	testutil.SetURLParam(c, "id", "1")

	handler.SubmitManuscript(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_SubmitManuscript_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"journal missing", errors.NewNotFoundError("journal not found"), http.StatusNotFound},
		{"ledger failure", errors.NewLedgerError("ledger unavailable"), http.StatusInternalServerError},
		{"unexpected", stderrors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestHandler(UseCases{Submit: &mockSubmitUC{err: tt.err}})

			c, w := testutil.NewTestContext(http.MethodPost, "/journals/1/manuscripts", validSubmitRequest())
			testutil.SetURLParam(c, "id", "1")
			testutil.SetActorContext(c, testActor)

			handler.SubmitManuscript(c)

			assert.Equal(t, tt.want, w.Code)
			var resp testutil.APIResponse
			require.NoError(t, testutil.ParseResponse(w, &resp))
			assert.False(t, resp.Success())
		})
	}
}

// =====================================================================
// ListJournalManuscripts / GetManuscript / GetProvenance
// =====================================================================

func TestHandler_ListJournalManuscripts(t *testing.T) {
	uc := &mockListManuscriptsUC{result: &usecases.ListManuscriptsResult{
		Items:    []dto.ManuscriptListItemDTO{{ID: 1, Title: "First", Status: "SUBMISSION"}},
		Total:    1,
		Page:     2,
		PageSize: 5,
	}}
	handler := newTestHandler(UseCases{ListManuscripts: uc})

	c, w := testutil.NewTestContext(http.MethodGet, "/journals/4/manuscripts", nil)
	testutil.SetURLParam(c, "id", "4")
	testutil.SetQueryParams(c, map[string]string{"page": "2", "page_size": "5", "status": "review"})

	handler.ListJournalManuscripts(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint(4), uc.got.JournalID)
	assert.Equal(t, 2, uc.got.Page)
	assert.Equal(t, 5, uc.got.PageSize)
	assert.Equal(t, "review", uc.got.Status)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	assert.Contains(t, string(resp.Data), `"total":1`)
}

func TestHandler_GetManuscript_NotFound(t *testing.T) {
	handler := newTestHandler(UseCases{GetManuscript: &mockGetManuscriptUC{err: errors.NewNotFoundError("manuscript not found")}})

	c, w := testutil.NewTestContext(http.MethodGet, "/manuscripts/9", nil)
	testutil.SetURLParam(c, "id", "9")

	handler.GetManuscript(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_GetProvenance_Success(t *testing.T) {
	now := time.Now().UTC()
	handler := newTestHandler(UseCases{GetProvenance: &mockGetProvenanceUC{result: &dto.ProvenanceDTO{
		ManuscriptID: 9,
		Status:       "REVIEW",
		Events: []dto.EventDTO{
			{ID: 2, EventType: "REVIEWER_ASSIGNED", Timestamp: now},
			{ID: 1, EventType: "SUBMISSION", Timestamp: now.Add(-time.Hour)},
		},
	}}})

	c, w := testutil.NewTestContext(http.MethodGet, "/manuscripts/9/provenance", nil)
	testutil.SetURLParam(c, "id", "9")

	handler.GetProvenance(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	assert.Contains(t, string(resp.Data), `"REVIEWER_ASSIGNED"`)
}

// =====================================================================
// Reviewer workflow
// =====================================================================

func TestHandler_AssignReviewer(t *testing.T) {
	reviewerID := "9a4e7c21-5b3d-4f08-a1c6-7e2d4b9f0c03"

	t.Run("success", func(t *testing.T) {
		uc := &mockAssignReviewerUC{result: &usecases.AssignReviewerResult{ManuscriptStatus: "REVIEW"}}
		handler := newTestHandler(UseCases{AssignReviewer: uc})

		c, w := testutil.NewTestContext(http.MethodPost, "/manuscripts/5/reviewers", map[string]any{"reviewer_id": reviewerID})
		testutil.SetURLParam(c, "id", "5")
		testutil.SetActorContext(c, testActor)

		handler.AssignReviewer(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, uint(5), uc.got.ManuscriptID)
		assert.Equal(t, reviewerID, uc.got.ReviewerID)
		assert.Nil(t, uc.got.DueDate)
	})

	t.Run("reviewer id must be a uuid", func(t *testing.T) {
		handler := newTestHandler(UseCases{AssignReviewer: &mockAssignReviewerUC{}})

		c, w := testutil.NewTestContext(http.MethodPost, "/manuscripts/5/reviewers", map[string]any{"reviewer_id": "bob"})
		testutil.SetURLParam(c, "id", "5")
		testutil.SetActorContext(c, testActor)

		handler.AssignReviewer(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("not assignable", func(t *testing.T) {
		uc := &mockAssignReviewerUC{err: errors.NewValidationError(manuscript.ErrNotAssignable.Error())}
		handler := newTestHandler(UseCases{AssignReviewer: uc})

		c, w := testutil.NewTestContext(http.MethodPost, "/manuscripts/5/reviewers", map[string]any{"reviewer_id": reviewerID})
		testutil.SetURLParam(c, "id", "5")
		testutil.SetActorContext(c, testActor)

		handler.AssignReviewer(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp testutil.APIResponse
		require.NoError(t, testutil.ParseResponse(w, &resp))
		assert.Contains(t, resp.Message, "not in a state where reviewers can be assigned")
	})
}

func TestHandler_RespondAssignment(t *testing.T) {
	t.Run("accept", func(t *testing.T) {
		uc := &mockRespondAssignmentUC{result: &dto.AssignmentDTO{ID: 1, Status: "accepted"}}
		handler := newTestHandler(UseCases{RespondAssignment: uc})

		c, w := testutil.NewTestContext(http.MethodPost, "/manuscripts/5/assignments/respond", map[string]any{"accept": true})
		testutil.SetURLParam(c, "id", "5")
		testutil.SetActorContext(c, testActor)

		handler.RespondAssignment(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, uc.got.Accept)
		var resp testutil.APIResponse
		require.NoError(t, testutil.ParseResponse(w, &resp))
		assert.Equal(t, "Assignment accepted", resp.Message)
	})

	t.Run("decline", func(t *testing.T) {
		uc := &mockRespondAssignmentUC{result: &dto.AssignmentDTO{ID: 1, Status: "declined"}}
		handler := newTestHandler(UseCases{RespondAssignment: uc})

		c, w := testutil.NewTestContext(http.MethodPost, "/manuscripts/5/assignments/respond", map[string]any{"accept": false})
		testutil.SetURLParam(c, "id", "5")
		testutil.SetActorContext(c, testActor)

		handler.RespondAssignment(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.False(t, uc.got.Accept)
	})

	t.Run("missing accept", func(t *testing.T) {
		handler := newTestHandler(UseCases{RespondAssignment: &mockRespondAssignmentUC{}})

		c, w := testutil.NewTestContext(http.MethodPost, "/manuscripts/5/assignments/respond", map[string]any{})
		testutil.SetURLParam(c, "id", "5")
		testutil.SetActorContext(c, testActor)

		handler.RespondAssignment(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_SubmitReview(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		uc := &mockSubmitReviewUC{result: &usecases.RecordedEventResult{AnchorStatus: "confirmed"}}
		handler := newTestHandler(UseCases{SubmitReview: uc})

		c, w := testutil.NewTestContext(http.MethodPost, "/manuscripts/5/reviews",
			map[string]any{"comments": "Solid.", "recommendation": "major_revision"})
		testutil.SetURLParam(c, "id", "5")
		testutil.SetActorContext(c, testActor)

		handler.SubmitReview(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "major_revision", uc.got.Recommendation)
	})

	t.Run("unknown recommendation", func(t *testing.T) {
		handler := newTestHandler(UseCases{SubmitReview: &mockSubmitReviewUC{}})

		c, w := testutil.NewTestContext(http.MethodPost, "/manuscripts/5/reviews",
			map[string]any{"comments": "Hmm.", "recommendation": "shrug"})
		testutil.SetURLParam(c, "id", "5")
		testutil.SetActorContext(c, testActor)

		handler.SubmitReview(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("not assigned", func(t *testing.T) {
		uc := &mockSubmitReviewUC{err: errors.NewForbiddenError("you are not assigned to review this manuscript")}
		handler := newTestHandler(UseCases{SubmitReview: uc})

		c, w := testutil.NewTestContext(http.MethodPost, "/manuscripts/5/reviews",
			map[string]any{"comments": "Solid.", "recommendation": "accept"})
		testutil.SetURLParam(c, "id", "5")
		testutil.SetActorContext(c, testActor)

		handler.SubmitReview(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestHandler_SubmitCorrections_Success(t *testing.T) {
	handler := newTestHandler(UseCases{SubmitCorrections: &mockSubmitCorrectionsUC{result: &usecases.RecordedEventResult{}}})

	c, w := testutil.NewTestContext(http.MethodPost, "/manuscripts/5/corrections",
		map[string]any{"changes_description": "Rewrote the introduction."})
	testutil.SetURLParam(c, "id", "5")
	testutil.SetActorContext(c, testActor)

	handler.SubmitCorrections(c)

	assert.Equal(t, http.StatusCreated, w.Code)
}

// =====================================================================
// Editorial decisions
// =====================================================================

func TestHandler_ChangeStatus(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		uc := &mockChangeStatusUC{result: &usecases.StatusChangeResult{PreviousStatus: "REVIEW"}}
		handler := newTestHandler(UseCases{ChangeStatus: uc})

		c, w := testutil.NewTestContext(http.MethodPatch, "/manuscripts/5/status",
			map[string]any{"status": "ACCEPTED", "comment": "Well argued."})
		testutil.SetURLParam(c, "id", "5")
		testutil.SetActorContext(c, testActor)

		handler.ChangeStatus(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ACCEPTED", uc.got.Status)
		assert.Equal(t, "Well argued.", uc.got.Comment)
	})

	t.Run("unknown status", func(t *testing.T) {
		handler := newTestHandler(UseCases{ChangeStatus: &mockChangeStatusUC{}})

		c, w := testutil.NewTestContext(http.MethodPatch, "/manuscripts/5/status", map[string]any{"status": "SHELVED"})
		testutil.SetURLParam(c, "id", "5")
		testutil.SetActorContext(c, testActor)

		handler.ChangeStatus(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_Publish(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		handler := newTestHandler(UseCases{Publish: &mockPublishUC{result: &usecases.StatusChangeResult{PreviousStatus: "COPYEDITING"}}})

		c, w := testutil.NewTestContext(http.MethodPost, "/manuscripts/5/publish", nil)
		testutil.SetURLParam(c, "id", "5")
		testutil.SetActorContext(c, testActor)

		handler.Publish(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("wrong state", func(t *testing.T) {
		handler := newTestHandler(UseCases{Publish: &mockPublishUC{err: errors.NewValidationError("invalid status transition")}})

		c, w := testutil.NewTestContext(http.MethodPost, "/manuscripts/5/publish", nil)
		testutil.SetURLParam(c, "id", "5")
		testutil.SetActorContext(c, testActor)

		handler.Publish(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("no actor", func(t *testing.T) {
		handler := newTestHandler(UseCases{Publish: &mockPublishUC{}})

		c, w := testutil.NewTestContext(http.MethodPost, "/manuscripts/5/publish", nil)
		testutil.SetURLParam(c, "id", "5")

		handler.Publish(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
