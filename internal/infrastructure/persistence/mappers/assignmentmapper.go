package mappers

import (
	"fmt"
	"time"

	"github.com/openpublisher/openpublisher/internal/domain/manuscript"
	vo "github.com/openpublisher/openpublisher/internal/domain/manuscript/valueobjects"
	"github.com/openpublisher/openpublisher/internal/infrastructure/persistence/models"
	"github.com/openpublisher/openpublisher/internal/shared/biztime"
)

type AssignmentMapper interface {
	ToModel(a *manuscript.ReviewerAssignment) *models.ReviewerAssignmentModel
	ToDomain(model *models.ReviewerAssignmentModel) (*manuscript.ReviewerAssignment, error)
}

type AssignmentMapperImpl struct{}

func NewAssignmentMapper() AssignmentMapper {
	return &AssignmentMapperImpl{}
}

func (m *AssignmentMapperImpl) ToModel(a *manuscript.ReviewerAssignment) *models.ReviewerAssignmentModel {
	return &models.ReviewerAssignmentModel{
		ID:           a.ID(),
		ManuscriptID: a.ManuscriptID(),
		ReviewerID:   a.ReviewerID(),
		Status:       a.Status().String(),
		ActiveKey:    a.ActiveKey(),
		AssignedAt:   biztime.ToMillis(a.AssignedAt()),
		DueDate:      optionalMillis(a.DueDate()),
		CompletedAt:  optionalMillis(a.CompletedAt()),
	}
}

func (m *AssignmentMapperImpl) ToDomain(model *models.ReviewerAssignmentModel) (*manuscript.ReviewerAssignment, error) {
	status, err := vo.NewAssignmentStatus(model.Status)
	if err != nil {
		return nil, fmt.Errorf("assignment %d: %w", model.ID, err)
	}

	return manuscript.ReconstructReviewerAssignment(
		model.ID,
		model.ManuscriptID,
		model.ReviewerID,
		status,
		biztime.FromMillis(model.AssignedAt),
		optionalTime(model.DueDate),
		optionalTime(model.CompletedAt),
	), nil
}

func optionalMillis(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := biztime.ToMillis(*t)
	return &ms
}

func optionalTime(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := biztime.FromMillis(*ms)
	return &t
}
