package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/openpublisher/openpublisher/internal/domain/manuscript"
	vo "github.com/openpublisher/openpublisher/internal/domain/manuscript/valueobjects"
	"github.com/openpublisher/openpublisher/internal/infrastructure/persistence/models"
	"github.com/openpublisher/openpublisher/internal/shared/biztime"
	"github.com/openpublisher/openpublisher/internal/shared/db"
)

func setupTestDB(t *testing.T) *gorm.DB {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = gdb.AutoMigrate(
		&models.ManuscriptModel{},
		&models.ManuscriptAuthorModel{},
		&models.ManuscriptReviewerModel{},
		&models.AuthorModel{},
		&models.ManuscriptEventModel{},
		&models.ReviewerAssignmentModel{},
		&models.LedgerAnchorModel{},
		&models.JournalModel{},
		&models.ProfileModel{},
	)
	require.NoError(t, err)

	return gdb
}

func createStoredManuscript(t *testing.T, gdb *gorm.DB, journalID uint, title string) *manuscript.Manuscript {
	t.Helper()
	ctx := context.Background()
	authors := NewAuthorRepository(gdb)

	a, err := authors.GetByEmail(ctx, "emmy@example.org")
	require.NoError(t, err)
	if a == nil {
		a, err = manuscript.NewAuthor("Emmy", "Noether", "emmy@example.org", "Göttingen", true)
		require.NoError(t, err)
		require.NoError(t, authors.Create(ctx, a))
	}

	m, err := manuscript.NewManuscript(title, "abstract", []string{"algebra"}, journalID, "author-1",
		[]*manuscript.Author{manuscript.ReconstructAuthor(a.ID(), a.FirstName(), a.LastName(), a.Email(), a.Affiliation(), true)})
	require.NoError(t, err)
	require.NoError(t, NewManuscriptRepository(gdb).Create(ctx, m))
	return m
}

func TestManuscriptRepository_CreateAndGet(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewManuscriptRepository(gdb)
	ctx := context.Background()

	m := createStoredManuscript(t, gdb, 7, "Idealtheorie in Ringbereichen")
	assert.NotZero(t, m.ID())

	found, err := repo.GetByID(ctx, m.ID())
	require.NoError(t, err)
	assert.Equal(t, "Idealtheorie in Ringbereichen", found.Title())
	assert.Equal(t, []string{"algebra"}, found.Keywords())
	assert.Equal(t, vo.StatusSubmission, found.Status())
	require.Len(t, found.Authors(), 1)
	assert.True(t, found.Authors()[0].IsPrimary())
	assert.Equal(t, biztime.ToMillis(m.SubmittedAt()), biztime.ToMillis(found.SubmittedAt()))

	_, err = repo.GetByID(ctx, 999)
	assert.True(t, errors.Is(err, manuscript.ErrManuscriptNotFound))
}

func TestManuscriptRepository_Create_RequiresStoredAuthors(t *testing.T) {
	gdb := setupTestDB(t)
	a, err := manuscript.NewAuthor("Ada", "Lovelace", "ada@example.org", "", true)
	require.NoError(t, err)
	m, err := manuscript.NewManuscript("Notes", "", nil, 7, "author-1", []*manuscript.Author{a})
	require.NoError(t, err)

	err = NewManuscriptRepository(gdb).Create(context.Background(), m)
	assert.Error(t, err)
}

func TestManuscriptRepository_Update(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewManuscriptRepository(gdb)
	ctx := context.Background()
	m := createStoredManuscript(t, gdb, 7, "Moderne Algebra")

	added, err := m.AddReviewer("rev-1")
	require.NoError(t, err)
	require.True(t, added)
	require.NoError(t, repo.Update(ctx, m))

	_, err = m.AddReviewer("rev-2")
	require.NoError(t, err)
	require.NoError(t, m.ChangeStatus(vo.StatusAccepted))
	require.NoError(t, repo.Update(ctx, m))

	found, err := repo.GetByIDForUpdate(ctx, m.ID())
	require.NoError(t, err)
	assert.Equal(t, vo.StatusAccepted, found.Status())
	assert.ElementsMatch(t, []string{"rev-1", "rev-2"}, found.ReviewerIDs())

	ghost, err := manuscript.ReconstructManuscript(404, "x", "", nil, 7, "a", vo.StatusReview, nil, nil,
		biztime.NowUTC(), biztime.NowUTC())
	require.NoError(t, err)
	assert.True(t, errors.Is(repo.Update(ctx, ghost), manuscript.ErrManuscriptNotFound))
}

func TestManuscriptRepository_List(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewManuscriptRepository(gdb)
	ctx := context.Background()

	first := createStoredManuscript(t, gdb, 7, "First")
	second := createStoredManuscript(t, gdb, 7, "Second")
	createStoredManuscript(t, gdb, 8, "Elsewhere")

	_, err := second.AddReviewer("rev-1")
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, second))

	list, total, err := repo.List(ctx, manuscript.ManuscriptFilter{JournalID: 7, Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	// newest first
	assert.Equal(t, second.ID(), list[0].ID())
	assert.Equal(t, first.ID(), list[1].ID())

	review := vo.StatusReview
	list, total, err = repo.List(ctx, manuscript.ManuscriptFilter{JournalID: 7, Status: &review, Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, []string{"rev-1"}, list[0].ReviewerIDs())

	list, total, err = repo.List(ctx, manuscript.ManuscriptFilter{JournalID: 7, Page: 2, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 1)
	assert.Equal(t, first.ID(), list[0].ID())
}

func TestManuscriptEventRepository_ListByManuscript(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewManuscriptEventRepository(gdb)
	ctx := context.Background()

	actor := "editor-1"
	anchorID := "anchor-1"
	first, err := manuscript.NewEvent(3, vo.EventSubmission, &actor, "0xabc", &anchorID, "submitted", nil)
	require.NoError(t, err)
	second, err := manuscript.NewEvent(3, vo.EventCorrectionsSubmitted, &actor, "", nil, "fixed typos",
		map[string]any{vo.MetaAuthorID: actor, vo.MetaChangesDescription: "fixed typos", "round": 1})
	require.NoError(t, err)
	other, err := manuscript.NewEvent(4, vo.EventSubmission, nil, "", nil, "", nil)
	require.NoError(t, err)

	for _, e := range []*manuscript.Event{first, second, other} {
		require.NoError(t, repo.Create(ctx, e))
		assert.NotZero(t, e.ID())
	}

	events, err := repo.ListByManuscript(ctx, 3)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, second.ID(), events[0].ID())
	assert.Equal(t, vo.EventCorrectionsSubmitted, events[0].EventType())
	assert.Nil(t, events[0].AnchorID())
	assert.EqualValues(t, 1, events[0].Metadata()["round"])
	assert.Equal(t, "0xabc", events[1].TxHash())
	require.NotNil(t, events[1].AnchorID())
	assert.Equal(t, anchorID, *events[1].AnchorID())
}

func TestReviewerAssignmentRepository(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewReviewerAssignmentRepository(gdb)
	ctx := context.Background()

	due := biztime.NowUTC().Add(72 * time.Hour)
	a, err := manuscript.NewReviewerAssignment(3, "rev-1", &due)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, a))
	assert.NotZero(t, a.ID())

	t.Run("second active assignment is rejected", func(t *testing.T) {
		dup, err := manuscript.NewReviewerAssignment(3, "rev-1", nil)
		require.NoError(t, err)
		assert.True(t, errors.Is(repo.Create(ctx, dup), manuscript.ErrReviewerAlreadyAssigned))
	})

	t.Run("get active", func(t *testing.T) {
		active, err := repo.GetActive(ctx, 3, "rev-1")
		require.NoError(t, err)
		require.NotNil(t, active)
		assert.Equal(t, a.ID(), active.ID())
		require.NotNil(t, active.DueDate())
		assert.Equal(t, biztime.ToMillis(due), biztime.ToMillis(*active.DueDate()))

		none, err := repo.GetActive(ctx, 3, "rev-9")
		require.NoError(t, err)
		assert.Nil(t, none)
	})

	t.Run("completed assignment frees the pair", func(t *testing.T) {
		require.NoError(t, a.Complete())
		require.NoError(t, repo.Update(ctx, a))

		active, err := repo.GetActive(ctx, 3, "rev-1")
		require.NoError(t, err)
		assert.Nil(t, active)

		again, err := manuscript.NewReviewerAssignment(3, "rev-1", nil)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, again))

		list, err := repo.ListByManuscript(ctx, 3)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, vo.AssignmentCompleted, list[0].Status())
		assert.NotNil(t, list[0].CompletedAt())
		assert.Equal(t, vo.AssignmentPending, list[1].Status())
	})

	t.Run("stale copy cannot overwrite a finished assignment", func(t *testing.T) {
		b, err := manuscript.NewReviewerAssignment(4, "rev-2", nil)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, b))

		first, err := repo.GetActive(ctx, 4, "rev-2")
		require.NoError(t, err)
		second, err := repo.GetActive(ctx, 4, "rev-2")
		require.NoError(t, err)
		declining, err := repo.GetActive(ctx, 4, "rev-2")
		require.NoError(t, err)

		require.NoError(t, first.Complete())
		require.NoError(t, repo.Update(ctx, first))

		require.NoError(t, second.Complete())
		assert.True(t, errors.Is(repo.Update(ctx, second), manuscript.ErrAssignmentNotActive))

		require.NoError(t, declining.Decline())
		assert.True(t, errors.Is(repo.Update(ctx, declining), manuscript.ErrAssignmentNotActive))

		list, err := repo.ListByManuscript(ctx, 4)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, vo.AssignmentCompleted, list[0].Status())
	})

	t.Run("update of unknown assignment", func(t *testing.T) {
		ghost := manuscript.ReconstructReviewerAssignment(9999, 5, "rev-3", vo.AssignmentAccepted, biztime.NowUTC(), nil, nil)
		assert.True(t, errors.Is(repo.Update(ctx, ghost), manuscript.ErrAssignmentNotFound))
	})
}

func TestLedgerAnchorRepository(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewLedgerAnchorRepository(gdb)
	ctx := context.Background()

	newAnchor := func(manuscriptID *uint) *manuscript.LedgerAnchor {
		a, err := manuscript.NewLedgerAnchor(manuscriptID, vo.EventAcceptance, []byte(`{"action":"ACCEPTANCE"}`))
		require.NoError(t, err)
		require.NoError(t, a.BeginAttempt())
		require.NoError(t, repo.Create(ctx, a))
		return a
	}
	linkedID := uint(3)

	t.Run("round trip", func(t *testing.T) {
		a := newAnchor(nil)
		require.NoError(t, a.MarkSubmitted("0x01"))
		require.NoError(t, a.MarkConfirmed("0x01", 12, 21000, 1))
		a.AttachManuscript(9)
		require.NoError(t, repo.Update(ctx, a))

		found, err := repo.GetByID(ctx, a.ID())
		require.NoError(t, err)
		assert.Equal(t, vo.AnchorConfirmed, found.Status())
		assert.Equal(t, uint64(12), found.BlockNumber())
		assert.Equal(t, []byte(`{"action":"ACCEPTANCE"}`), found.Payload())
		require.NotNil(t, found.ManuscriptID())
		assert.Equal(t, uint(9), *found.ManuscriptID())

		require.NoError(t, a.MarkOrphaned("rolled back"))
		require.NoError(t, repo.Update(ctx, a))
		found, err = repo.GetByID(ctx, a.ID())
		require.NoError(t, err)
		assert.Equal(t, vo.AnchorOrphaned, found.Status())
		assert.Nil(t, found.ManuscriptID())

		_, err = repo.GetByID(ctx, "missing")
		assert.True(t, errors.Is(err, manuscript.ErrAnchorNotFound))
	})

	t.Run("reconcile queues", func(t *testing.T) {
		timedOut := newAnchor(&linkedID)
		require.NoError(t, timedOut.MarkSubmitted("0x02"))
		require.NoError(t, timedOut.MarkTimedOut("0x02", "confirmation timed out"))
		require.NoError(t, repo.Update(ctx, timedOut))

		failedLinked := newAnchor(&linkedID)
		require.NoError(t, failedLinked.MarkFailed("unreachable"))
		require.NoError(t, repo.Update(ctx, failedLinked))

		failedUnlinked := newAnchor(nil)
		require.NoError(t, failedUnlinked.MarkFailed("unreachable"))
		require.NoError(t, repo.Update(ctx, failedUnlinked))

		awaiting, err := repo.ListAwaitingReceipt(ctx, biztime.NowUTC().Add(time.Second), 10)
		require.NoError(t, err)
		require.Len(t, awaiting, 1)
		assert.Equal(t, timedOut.ID(), awaiting[0].ID())

		awaiting, err = repo.ListAwaitingReceipt(ctx, biztime.NowUTC().Add(-time.Hour), 10)
		require.NoError(t, err)
		assert.Empty(t, awaiting)

		retryable, err := repo.ListRetryable(ctx, 5, 10)
		require.NoError(t, err)
		require.Len(t, retryable, 1)
		assert.Equal(t, failedLinked.ID(), retryable[0].ID())

		retryable, err = repo.ListRetryable(ctx, 1, 10)
		require.NoError(t, err)
		assert.Empty(t, retryable)

		byIDs, err := repo.ListByIDs(ctx, []string{timedOut.ID(), failedUnlinked.ID()})
		require.NoError(t, err)
		assert.Len(t, byIDs, 2)
	})

	t.Run("fresh submission stays inside grace period", func(t *testing.T) {
		inFlight := newAnchor(nil)
		require.NoError(t, inFlight.MarkSubmitted("0x03"))
		require.NoError(t, repo.Update(ctx, inFlight))

		found, err := repo.GetByID(ctx, inFlight.ID())
		require.NoError(t, err)
		assert.WithinDuration(t, biztime.NowUTC(), found.UpdatedAt(), time.Minute)
		assert.WithinDuration(t, biztime.NowUTC(), found.CreatedAt(), time.Minute)

		awaiting, err := repo.ListAwaitingReceipt(ctx, biztime.NowUTC().Add(-2*time.Minute), 10)
		require.NoError(t, err)
		for _, a := range awaiting {
			assert.NotEqual(t, inFlight.ID(), a.ID())
		}
	})
}

func TestDirectories(t *testing.T) {
	gdb := setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, gdb.Create(&models.JournalModel{ID: 7, Name: "Mathematische Annalen"}).Error)
	require.NoError(t, gdb.Create(&models.ProfileModel{ID: "rev-1", FirstName: "Hermann", LastName: "Weyl", Email: "weyl@example.org"}).Error)

	journals := NewJournalDirectory(gdb)
	ok, err := journals.Exists(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = journals.Exists(ctx, 8)
	require.NoError(t, err)
	assert.False(t, ok)

	profiles := NewProfileDirectory(gdb)
	p, err := profiles.GetByID(ctx, "rev-1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Hermann Weyl", p.FullName())

	p, err = profiles.GetByID(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestTransactionRollback(t *testing.T) {
	gdb := setupTestDB(t)
	tm := db.NewTransactionManager(gdb)
	events := NewManuscriptEventRepository(gdb)
	ctx := context.Background()

	err := tm.RunInTransaction(ctx, func(txCtx context.Context) error {
		e, err := manuscript.NewEvent(3, vo.EventSubmission, nil, "", nil, "", nil)
		require.NoError(t, err)
		require.NoError(t, events.Create(txCtx, e))
		return errors.New("boom")
	})
	require.Error(t, err)

	list, err := events.ListByManuscript(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, list)
}
