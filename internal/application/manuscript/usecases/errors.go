package usecases

import (
	"context"
	"errors"

	"github.com/openpublisher/openpublisher/internal/domain/manuscript"
	apperrors "github.com/openpublisher/openpublisher/internal/shared/errors"
)

// toAppError classifies domain failures. Anything unrecognised becomes an
// internal error carrying fallback, never the underlying message.
func toAppError(err error, fallback string) error {
	if err == nil {
		return nil
	}
	if apperrors.IsAppError(err) {
		return err
	}

	switch {
	case errors.Is(err, manuscript.ErrManuscriptNotFound):
		return apperrors.NewNotFoundError("manuscript not found")
	case errors.Is(err, manuscript.ErrNotAssignable):
		return apperrors.NewConflictError(manuscript.ErrNotAssignable.Error())
	case errors.Is(err, manuscript.ErrReviewerAlreadyAssigned):
		return apperrors.NewConflictError(manuscript.ErrReviewerAlreadyAssigned.Error())
	case errors.Is(err, manuscript.ErrNotPublishable):
		return apperrors.NewConflictError(err.Error())
	case errors.Is(err, manuscript.ErrInvalidTransition):
		return apperrors.NewValidationError(err.Error())
	case errors.Is(err, manuscript.ErrAssignmentNotActive):
		return apperrors.NewForbiddenError("you do not hold an active assignment for this manuscript")
	case errors.Is(err, manuscript.ErrAssignmentNotFound):
		return apperrors.NewNotFoundError("assignment not found")
	default:
		return apperrors.NewInternalError(fallback)
	}
}

// loadManuscript maps a missing row to 404 and any other failure to 500.
func loadManuscript(ctx context.Context, repo manuscript.ManuscriptRepository, id uint) (*manuscript.Manuscript, error) {
	m, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, toAppError(err, "failed to load manuscript")
	}
	return m, nil
}
