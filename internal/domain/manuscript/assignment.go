package manuscript

import (
	"fmt"
	"time"

	vo "github.com/openpublisher/openpublisher/internal/domain/manuscript/valueobjects"
	"github.com/openpublisher/openpublisher/internal/shared/biztime"
)

// ReviewerAssignment tracks one reviewer's responsibility for a manuscript.
type ReviewerAssignment struct {
	id           uint
	manuscriptID uint
	reviewerID   string
	status       vo.AssignmentStatus
	assignedAt   time.Time
	dueDate      *time.Time
	completedAt  *time.Time
}

func NewReviewerAssignment(manuscriptID uint, reviewerID string, dueDate *time.Time) (*ReviewerAssignment, error) {
	if manuscriptID == 0 {
		return nil, fmt.Errorf("manuscript ID is required")
	}
	if reviewerID == "" {
		return nil, fmt.Errorf("reviewer ID is required")
	}

	now := biztime.NowUTC()
	if dueDate != nil && dueDate.Before(now) {
		return nil, fmt.Errorf("due date must be in the future")
	}

	return &ReviewerAssignment{
		manuscriptID: manuscriptID,
		reviewerID:   reviewerID,
		status:       vo.AssignmentPending,
		assignedAt:   now,
		dueDate:      dueDate,
	}, nil
}

func ReconstructReviewerAssignment(
	id uint,
	manuscriptID uint,
	reviewerID string,
	status vo.AssignmentStatus,
	assignedAt time.Time,
	dueDate *time.Time,
	completedAt *time.Time,
) *ReviewerAssignment {
	return &ReviewerAssignment{
		id:           id,
		manuscriptID: manuscriptID,
		reviewerID:   reviewerID,
		status:       status,
		assignedAt:   assignedAt,
		dueDate:      dueDate,
		completedAt:  completedAt,
	}
}

func (a *ReviewerAssignment) ID() uint                    { return a.id }
func (a *ReviewerAssignment) ManuscriptID() uint          { return a.manuscriptID }
func (a *ReviewerAssignment) ReviewerID() string          { return a.reviewerID }
func (a *ReviewerAssignment) Status() vo.AssignmentStatus { return a.status }
func (a *ReviewerAssignment) AssignedAt() time.Time       { return a.assignedAt }
func (a *ReviewerAssignment) DueDate() *time.Time         { return a.dueDate }
func (a *ReviewerAssignment) CompletedAt() *time.Time     { return a.completedAt }

func (a *ReviewerAssignment) IsActive() bool {
	return a.status.IsActive()
}

// ActiveKey is the storage uniqueness key. It is set only while the
// assignment is active so that a reviewer can be reassigned after declining
// or completing.
func (a *ReviewerAssignment) ActiveKey() *string {
	if !a.IsActive() {
		return nil
	}
	key := ActiveAssignmentKey(a.manuscriptID, a.reviewerID)
	return &key
}

func ActiveAssignmentKey(manuscriptID uint, reviewerID string) string {
	return fmt.Sprintf("%d:%s", manuscriptID, reviewerID)
}

func (a *ReviewerAssignment) SetID(id uint) error {
	if a.id != 0 {
		return fmt.Errorf("assignment ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("assignment ID cannot be zero")
	}
	a.id = id
	return nil
}

func (a *ReviewerAssignment) Accept() error {
	return a.transition(vo.AssignmentAccepted)
}

func (a *ReviewerAssignment) Decline() error {
	return a.transition(vo.AssignmentDeclined)
}

// Complete marks the review as delivered.
func (a *ReviewerAssignment) Complete() error {
	if err := a.transition(vo.AssignmentCompleted); err != nil {
		return err
	}
	now := biztime.NowUTC()
	a.completedAt = &now
	return nil
}

func (a *ReviewerAssignment) transition(target vo.AssignmentStatus) error {
	if !a.status.CanTransitionTo(target) {
		return fmt.Errorf("%w: cannot move from %s to %s", ErrAssignmentNotActive, a.status, target)
	}
	a.status = target
	return nil
}
