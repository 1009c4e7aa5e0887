package manuscript

import (
	"context"
	"time"

	vo "github.com/openpublisher/openpublisher/internal/domain/manuscript/valueobjects"
)

type ManuscriptRepository interface {
	// Create stores a new manuscript together with its author links.
	Create(ctx context.Context, m *Manuscript) error
	// Update persists status and reviewer set changes.
	Update(ctx context.Context, m *Manuscript) error
	// GetByID returns ErrManuscriptNotFound when no row exists.
	GetByID(ctx context.Context, id uint) (*Manuscript, error)
	// GetByIDForUpdate locks the row for the rest of the transaction where
	// the driver supports it.
	GetByIDForUpdate(ctx context.Context, id uint) (*Manuscript, error)
	List(ctx context.Context, filter ManuscriptFilter) ([]*Manuscript, int64, error)
}

type ManuscriptFilter struct {
	JournalID uint
	Status    *vo.ManuscriptStatus
	Page      int
	PageSize  int
}

type AuthorRepository interface {
	// GetByEmail returns nil, nil when no author uses the address.
	GetByEmail(ctx context.Context, email string) (*Author, error)
	Create(ctx context.Context, author *Author) error
}

// EventRepository is append only.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	// ListByManuscript returns events newest first.
	ListByManuscript(ctx context.Context, manuscriptID uint) ([]*Event, error)
}

type AssignmentRepository interface {
	// Create fails with ErrReviewerAlreadyAssigned when the reviewer already
	// holds an active assignment for the manuscript.
	Create(ctx context.Context, a *ReviewerAssignment) error
	Update(ctx context.Context, a *ReviewerAssignment) error
	// GetActive returns nil, nil when the reviewer holds no active assignment.
	GetActive(ctx context.Context, manuscriptID uint, reviewerID string) (*ReviewerAssignment, error)
	ListByManuscript(ctx context.Context, manuscriptID uint) ([]*ReviewerAssignment, error)
}

type AnchorRepository interface {
	Create(ctx context.Context, a *LedgerAnchor) error
	Update(ctx context.Context, a *LedgerAnchor) error
	GetByID(ctx context.Context, id string) (*LedgerAnchor, error)
	ListByIDs(ctx context.Context, ids []string) ([]*LedgerAnchor, error)
	// ListAwaitingReceipt returns submitted or timed out anchors last
	// touched before the given time, least recently updated first.
	ListAwaitingReceipt(ctx context.Context, before time.Time, limit int) ([]*LedgerAnchor, error)
	// ListRetryable returns failed anchors linked to a manuscript that have
	// been attempted fewer than maxAttempts times, oldest first.
	ListRetryable(ctx context.Context, maxAttempts int, limit int) ([]*LedgerAnchor, error)
}

// JournalDirectory answers existence checks against the journals owned by
// the journal service.
type JournalDirectory interface {
	Exists(ctx context.Context, journalID uint) (bool, error)
}

// ProfileDirectory resolves account profiles owned by the accounts service.
type ProfileDirectory interface {
	GetByID(ctx context.Context, profileID string) (*Profile, error)
}
