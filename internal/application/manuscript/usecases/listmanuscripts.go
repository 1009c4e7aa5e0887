package usecases

import (
	"context"
	"strings"

	"github.com/openpublisher/openpublisher/internal/application/manuscript/dto"
	"github.com/openpublisher/openpublisher/internal/domain/manuscript"
	vo "github.com/openpublisher/openpublisher/internal/domain/manuscript/valueobjects"
	"github.com/openpublisher/openpublisher/internal/shared/constants"
	"github.com/openpublisher/openpublisher/internal/shared/errors"
	"github.com/openpublisher/openpublisher/internal/shared/logger"
)

type ListManuscriptsQuery struct {
	JournalID uint
	Status    string
	Page      int
	PageSize  int
}

type ListManuscriptsResult struct {
	Items    []dto.ManuscriptListItemDTO `json:"items"`
	Total    int64                       `json:"total"`
	Page     int                         `json:"page"`
	PageSize int                         `json:"page_size"`
}

type ListManuscriptsUseCase struct {
	manuscriptRepo manuscript.ManuscriptRepository
	journals       manuscript.JournalDirectory
	logger         logger.Interface
}

func NewListManuscriptsUseCase(
	manuscriptRepo manuscript.ManuscriptRepository,
	journals manuscript.JournalDirectory,
	logger logger.Interface,
) *ListManuscriptsUseCase {
	return &ListManuscriptsUseCase{
		manuscriptRepo: manuscriptRepo,
		journals:       journals,
		logger:         logger,
	}
}

func (uc *ListManuscriptsUseCase) Execute(ctx context.Context, query ListManuscriptsQuery) (*ListManuscriptsResult, error) {
	if query.JournalID == 0 {
		return nil, errors.NewValidationError("journal ID is required")
	}
	if query.Page < 1 {
		query.Page = constants.DefaultPage
	}
	if query.PageSize < 1 || query.PageSize > constants.MaxPageSize {
		query.PageSize = constants.DefaultPageSize
	}

	filter := manuscript.ManuscriptFilter{
		JournalID: query.JournalID,
		Page:      query.Page,
		PageSize:  query.PageSize,
	}
	if query.Status != "" {
		status, err := vo.NewManuscriptStatus(strings.ToUpper(query.Status))
		if err != nil {
			return nil, errors.NewValidationError("invalid status", query.Status)
		}
		filter.Status = &status
	}

	exists, err := uc.journals.Exists(ctx, query.JournalID)
	if err != nil {
		uc.logger.Errorw("failed to look up journal", "error", err, "journal_id", query.JournalID)
		return nil, errors.NewInternalError("failed to look up journal")
	}
	if !exists {
		return nil, errors.NewNotFoundError("journal not found")
	}

	list, total, err := uc.manuscriptRepo.List(ctx, filter)
	if err != nil {
		uc.logger.Errorw("failed to list manuscripts", "error", err, "journal_id", query.JournalID)
		return nil, errors.NewInternalError("failed to list manuscripts")
	}

	items := make([]dto.ManuscriptListItemDTO, 0, len(list))
	for _, m := range list {
		items = append(items, dto.ToManuscriptListItemDTO(m))
	}

	return &ListManuscriptsResult{
		Items:    items,
		Total:    total,
		Page:     query.Page,
		PageSize: query.PageSize,
	}, nil
}
