package usecases

import (
	"context"
	"time"

	"github.com/openpublisher/openpublisher/internal/application/manuscript/dto"
	"github.com/openpublisher/openpublisher/internal/domain/manuscript"
)

// EventPublisher fans committed provenance events out to other services.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *manuscript.Event) error
}

// ReviewerNotifier tells a reviewer about a new assignment.
type ReviewerNotifier interface {
	NotifyReviewerAssigned(ctx context.Context, notice ReviewerAssignedNotice) error
}

type ReviewerAssignedNotice struct {
	ReviewerName    string
	ReviewerEmail   string
	ManuscriptID    uint
	ManuscriptTitle string
	AssignedBy      string
	DueDate         *time.Time
}

// LeaderLocker grants a short exclusive lease. cache.Locker satisfies it.
type LeaderLocker interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (func(ctx context.Context) error, bool, error)
}

type SubmitManuscriptExecutor interface {
	Execute(ctx context.Context, cmd SubmitManuscriptCommand) (*SubmitManuscriptResult, error)
}

type AssignReviewerExecutor interface {
	Execute(ctx context.Context, cmd AssignReviewerCommand) (*AssignReviewerResult, error)
}

type SubmitReviewExecutor interface {
	Execute(ctx context.Context, cmd SubmitReviewCommand) (*RecordedEventResult, error)
}

type SubmitCorrectionsExecutor interface {
	Execute(ctx context.Context, cmd SubmitCorrectionsCommand) (*RecordedEventResult, error)
}

type ChangeStatusExecutor interface {
	Execute(ctx context.Context, cmd ChangeStatusCommand) (*StatusChangeResult, error)
}

type PublishManuscriptExecutor interface {
	Execute(ctx context.Context, cmd PublishManuscriptCommand) (*StatusChangeResult, error)
}

type GetProvenanceExecutor interface {
	Execute(ctx context.Context, query GetProvenanceQuery) (*dto.ProvenanceDTO, error)
}

type GetManuscriptExecutor interface {
	Execute(ctx context.Context, query GetManuscriptQuery) (*dto.ManuscriptDTO, error)
}

type ListManuscriptsExecutor interface {
	Execute(ctx context.Context, query ListManuscriptsQuery) (*ListManuscriptsResult, error)
}

type ListAssignmentsExecutor interface {
	Execute(ctx context.Context, query ListAssignmentsQuery) ([]dto.AssignmentDTO, error)
}

type RespondAssignmentExecutor interface {
	Execute(ctx context.Context, cmd RespondAssignmentCommand) (*dto.AssignmentDTO, error)
}

type ReconcileAnchorsExecutor interface {
	Execute(ctx context.Context) (*ReconcileAnchorsResult, error)
}
