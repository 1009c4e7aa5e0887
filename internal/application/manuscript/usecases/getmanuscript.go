package usecases

import (
	"context"

	"github.com/openpublisher/openpublisher/internal/application/manuscript/dto"
	"github.com/openpublisher/openpublisher/internal/domain/manuscript"
	"github.com/openpublisher/openpublisher/internal/shared/errors"
	"github.com/openpublisher/openpublisher/internal/shared/logger"
)

type GetManuscriptQuery struct {
	ManuscriptID uint
}

type GetManuscriptUseCase struct {
	manuscriptRepo manuscript.ManuscriptRepository
	logger         logger.Interface
}

func NewGetManuscriptUseCase(manuscriptRepo manuscript.ManuscriptRepository, logger logger.Interface) *GetManuscriptUseCase {
	return &GetManuscriptUseCase{
		manuscriptRepo: manuscriptRepo,
		logger:         logger,
	}
}

func (uc *GetManuscriptUseCase) Execute(ctx context.Context, query GetManuscriptQuery) (*dto.ManuscriptDTO, error) {
	if query.ManuscriptID == 0 {
		return nil, errors.NewValidationError("manuscript ID is required")
	}

	m, err := loadManuscript(ctx, uc.manuscriptRepo, query.ManuscriptID)
	if err != nil {
		if !errors.IsNotFoundError(err) {
			uc.logger.Errorw("failed to get manuscript", "error", err, "manuscript_id", query.ManuscriptID)
		}
		return nil, err
	}
	return dto.ToManuscriptDTO(m), nil
}
