package usecases

import (
	"context"

	"github.com/openpublisher/openpublisher/internal/domain/manuscript"
	vo "github.com/openpublisher/openpublisher/internal/domain/manuscript/valueobjects"
	"github.com/openpublisher/openpublisher/internal/shared/db"
	apperrors "github.com/openpublisher/openpublisher/internal/shared/errors"
	"github.com/openpublisher/openpublisher/internal/shared/logger"
)

type PublishManuscriptCommand struct {
	Actor        manuscript.Actor
	ManuscriptID uint
}

type PublishManuscriptUseCase struct {
	manuscriptRepo manuscript.ManuscriptRepository
	anchorer       *Anchorer
	eventLog       *EventLog
	txManager      db.TransactionRunner
	logger         logger.Interface
}

func NewPublishManuscriptUseCase(
	manuscriptRepo manuscript.ManuscriptRepository,
	anchorer *Anchorer,
	eventLog *EventLog,
	txManager db.TransactionRunner,
	logger logger.Interface,
) *PublishManuscriptUseCase {
	return &PublishManuscriptUseCase{
		manuscriptRepo: manuscriptRepo,
		anchorer:       anchorer,
		eventLog:       eventLog,
		txManager:      txManager,
		logger:         logger,
	}
}

func (uc *PublishManuscriptUseCase) Execute(ctx context.Context, cmd PublishManuscriptCommand) (*StatusChangeResult, error) {
	uc.logger.Infow("executing publish manuscript use case",
		"manuscript_id", cmd.ManuscriptID,
		"actor_id", cmd.Actor.ID)

	if cmd.Actor.ID == "" {
		return nil, apperrors.NewUnauthorizedError("authenticated actor is required")
	}
	if cmd.ManuscriptID == 0 {
		return nil, apperrors.NewValidationError("manuscript ID is required")
	}

	m, err := loadManuscript(ctx, uc.manuscriptRepo, cmd.ManuscriptID)
	if err != nil {
		return nil, err
	}
	if err := m.CheckPublishable(); err != nil {
		uc.logger.Warnw("publish rejected", "manuscript_id", m.ID(), "status", m.Status().String())
		return nil, toAppError(err, "")
	}

	anchored, err := uc.anchorer.Anchor(ctx, vo.EventPublished,
		snapshotPayload(vo.EventPublished, m, vo.StatusPublished, cmd.Actor.ID))
	if err != nil {
		uc.logger.Errorw("failed to anchor publication", "error", err)
		return nil, apperrors.NewInternalError("failed to anchor publication")
	}
	if uc.anchorer.ShouldAbort(anchored, false) {
		return nil, LedgerAppError(anchored)
	}

	return applyStatusChange(ctx, statusChange{
		manuscriptRepo: uc.manuscriptRepo,
		anchorer:       uc.anchorer,
		eventLog:       uc.eventLog,
		txManager:      uc.txManager,
		logger:         uc.logger,
		manuscriptID:   m.ID(),
		eventType:      vo.EventPublished,
		actor:          cmd.Actor,
		anchored:       anchored,
		apply: func(locked *manuscript.Manuscript) error {
			return locked.Publish()
		},
	})
}
