package usecases

import (
	"context"

	"github.com/openpublisher/openpublisher/internal/application/manuscript/dto"
	"github.com/openpublisher/openpublisher/internal/domain/manuscript"
	"github.com/openpublisher/openpublisher/internal/shared/errors"
	"github.com/openpublisher/openpublisher/internal/shared/logger"
)

type GetProvenanceQuery struct {
	ManuscriptID uint
}

type GetProvenanceUseCase struct {
	manuscriptRepo manuscript.ManuscriptRepository
	eventLog       *EventLog
	logger         logger.Interface
}

func NewGetProvenanceUseCase(
	manuscriptRepo manuscript.ManuscriptRepository,
	eventLog *EventLog,
	logger logger.Interface,
) *GetProvenanceUseCase {
	return &GetProvenanceUseCase{
		manuscriptRepo: manuscriptRepo,
		eventLog:       eventLog,
		logger:         logger,
	}
}

func (uc *GetProvenanceUseCase) Execute(ctx context.Context, query GetProvenanceQuery) (*dto.ProvenanceDTO, error) {
	if query.ManuscriptID == 0 {
		return nil, errors.NewValidationError("manuscript ID is required")
	}

	m, err := loadManuscript(ctx, uc.manuscriptRepo, query.ManuscriptID)
	if err != nil {
		return nil, err
	}

	events, err := uc.eventLog.Provenance(ctx, m.ID())
	if err != nil {
		uc.logger.Errorw("failed to load provenance", "error", err, "manuscript_id", m.ID())
		return nil, errors.NewInternalError("failed to load provenance")
	}

	anchors, err := uc.eventLog.Anchors(ctx, events)
	if err != nil {
		uc.logger.Errorw("failed to load ledger anchors", "error", err, "manuscript_id", m.ID())
		return nil, errors.NewInternalError("failed to load provenance")
	}

	items := make([]dto.EventDTO, 0, len(events))
	for _, e := range events {
		var anchor *manuscript.LedgerAnchor
		if id := e.AnchorID(); id != nil {
			anchor = anchors[*id]
		}
		items = append(items, dto.ToEventDTO(e, anchor))
	}

	return &dto.ProvenanceDTO{
		ManuscriptID: m.ID(),
		Status:       m.Status().String(),
		Events:       items,
	}, nil
}
