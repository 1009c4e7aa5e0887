package usecases

import (
	"context"

	"github.com/openpublisher/openpublisher/internal/application/manuscript/dto"
	"github.com/openpublisher/openpublisher/internal/domain/manuscript"
	"github.com/openpublisher/openpublisher/internal/shared/errors"
	"github.com/openpublisher/openpublisher/internal/shared/logger"
)

type ListAssignmentsQuery struct {
	ManuscriptID uint
}

type ListAssignmentsUseCase struct {
	manuscriptRepo manuscript.ManuscriptRepository
	assignmentRepo manuscript.AssignmentRepository
	logger         logger.Interface
}

func NewListAssignmentsUseCase(
	manuscriptRepo manuscript.ManuscriptRepository,
	assignmentRepo manuscript.AssignmentRepository,
	logger logger.Interface,
) *ListAssignmentsUseCase {
	return &ListAssignmentsUseCase{
		manuscriptRepo: manuscriptRepo,
		assignmentRepo: assignmentRepo,
		logger:         logger,
	}
}

func (uc *ListAssignmentsUseCase) Execute(ctx context.Context, query ListAssignmentsQuery) ([]dto.AssignmentDTO, error) {
	if query.ManuscriptID == 0 {
		return nil, errors.NewValidationError("manuscript ID is required")
	}

	m, err := loadManuscript(ctx, uc.manuscriptRepo, query.ManuscriptID)
	if err != nil {
		return nil, err
	}

	list, err := uc.assignmentRepo.ListByManuscript(ctx, m.ID())
	if err != nil {
		uc.logger.Errorw("failed to list assignments", "error", err, "manuscript_id", m.ID())
		return nil, errors.NewInternalError("failed to list assignments")
	}
	return dto.ToAssignmentDTOs(list), nil
}
