package usecases

import (
	"context"
	stderrors "errors"

	"github.com/openpublisher/openpublisher/internal/application/manuscript/dto"
	"github.com/openpublisher/openpublisher/internal/domain/manuscript"
	vo "github.com/openpublisher/openpublisher/internal/domain/manuscript/valueobjects"
	"github.com/openpublisher/openpublisher/internal/shared/errors"
	"github.com/openpublisher/openpublisher/internal/shared/logger"
)

type RespondAssignmentCommand struct {
	Actor        manuscript.Actor
	ManuscriptID uint
	Accept       bool
}

// RespondAssignmentUseCase lets the assigned reviewer accept or decline a
// pending assignment. The response is local only; nothing is anchored.
type RespondAssignmentUseCase struct {
	assignmentRepo manuscript.AssignmentRepository
	logger         logger.Interface
}

func NewRespondAssignmentUseCase(assignmentRepo manuscript.AssignmentRepository, logger logger.Interface) *RespondAssignmentUseCase {
	return &RespondAssignmentUseCase{
		assignmentRepo: assignmentRepo,
		logger:         logger,
	}
}

func (uc *RespondAssignmentUseCase) Execute(ctx context.Context, cmd RespondAssignmentCommand) (*dto.AssignmentDTO, error) {
	uc.logger.Infow("executing respond assignment use case",
		"manuscript_id", cmd.ManuscriptID,
		"reviewer_id", cmd.Actor.ID,
		"accept", cmd.Accept)

	if cmd.Actor.ID == "" {
		return nil, errors.NewUnauthorizedError("authenticated actor is required")
	}
	if cmd.ManuscriptID == 0 {
		return nil, errors.NewValidationError("manuscript ID is required")
	}

	assignment, err := uc.assignmentRepo.GetActive(ctx, cmd.ManuscriptID, cmd.Actor.ID)
	if err != nil {
		uc.logger.Errorw("failed to look up assignment", "error", err)
		return nil, errors.NewInternalError("failed to look up assignment")
	}
	if assignment == nil {
		return nil, errors.NewForbiddenError("you are not assigned to review this manuscript")
	}
	if assignment.Status() != vo.AssignmentPending {
		return nil, errors.NewConflictError("assignment has already been answered")
	}

	if cmd.Accept {
		err = assignment.Accept()
	} else {
		err = assignment.Decline()
	}
	if err != nil {
		return nil, errors.NewConflictError(err.Error())
	}

	if err := uc.assignmentRepo.Update(ctx, assignment); err != nil {
		if stderrors.Is(err, manuscript.ErrAssignmentNotActive) {
			uc.logger.Warnw("assignment changed concurrently", "assignment_id", assignment.ID())
			return nil, errors.NewConflictError("assignment has already been answered")
		}
		uc.logger.Errorw("failed to update assignment", "error", err, "assignment_id", assignment.ID())
		return nil, errors.NewInternalError("failed to update assignment")
	}

	uc.logger.Infow("assignment answered",
		"assignment_id", assignment.ID(),
		"status", assignment.Status().String())

	result := dto.ToAssignmentDTO(assignment)
	return &result, nil
}
