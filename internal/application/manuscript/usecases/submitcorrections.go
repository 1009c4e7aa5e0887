package usecases

import (
	"context"
	"strings"

	"github.com/openpublisher/openpublisher/internal/application/manuscript/dto"
	"github.com/openpublisher/openpublisher/internal/domain/manuscript"
	vo "github.com/openpublisher/openpublisher/internal/domain/manuscript/valueobjects"
	"github.com/openpublisher/openpublisher/internal/shared/db"
	apperrors "github.com/openpublisher/openpublisher/internal/shared/errors"
	"github.com/openpublisher/openpublisher/internal/shared/logger"
	"github.com/openpublisher/openpublisher/internal/shared/services/sanitize"
)

type SubmitCorrectionsCommand struct {
	Actor              manuscript.Actor
	ManuscriptID       uint
	ChangesDescription string
}

// SubmitCorrectionsUseCase records an author's revision. Only the submitter
// or one of the listed authors may submit corrections.
type SubmitCorrectionsUseCase struct {
	manuscriptRepo manuscript.ManuscriptRepository
	anchorer       *Anchorer
	eventLog       *EventLog
	txManager      db.TransactionRunner
	sanitizer      sanitize.Sanitizer
	logger         logger.Interface
}

func NewSubmitCorrectionsUseCase(
	manuscriptRepo manuscript.ManuscriptRepository,
	anchorer *Anchorer,
	eventLog *EventLog,
	txManager db.TransactionRunner,
	sanitizer sanitize.Sanitizer,
	logger logger.Interface,
) *SubmitCorrectionsUseCase {
	return &SubmitCorrectionsUseCase{
		manuscriptRepo: manuscriptRepo,
		anchorer:       anchorer,
		eventLog:       eventLog,
		txManager:      txManager,
		sanitizer:      sanitizer,
		logger:         logger,
	}
}

func (uc *SubmitCorrectionsUseCase) Execute(ctx context.Context, cmd SubmitCorrectionsCommand) (*RecordedEventResult, error) {
	uc.logger.Infow("executing submit corrections use case",
		"manuscript_id", cmd.ManuscriptID,
		"actor_id", cmd.Actor.ID)

	cmd.ChangesDescription = uc.sanitizer.Text(cmd.ChangesDescription)
	if err := uc.validateCommand(cmd); err != nil {
		uc.logger.Warnw("invalid submit corrections command", "error", err)
		return nil, err
	}

	m, err := loadManuscript(ctx, uc.manuscriptRepo, cmd.ManuscriptID)
	if err != nil {
		return nil, err
	}
	if !m.IsSubmitter(cmd.Actor.ID) && !m.HasAuthorEmail(strings.ToLower(strings.TrimSpace(cmd.Actor.Email))) {
		uc.logger.Warnw("corrections rejected, actor is not an author",
			"manuscript_id", m.ID(),
			"actor_id", cmd.Actor.ID)
		return nil, apperrors.NewForbiddenError("only the manuscript's authors may submit corrections")
	}

	anchored, err := uc.anchorer.Anchor(ctx, vo.EventCorrectionsSubmitted,
		correctionsPayload(m.ID(), cmd.Actor.ID, cmd.ChangesDescription))
	if err != nil {
		uc.logger.Errorw("failed to anchor corrections", "error", err)
		return nil, apperrors.NewInternalError("failed to anchor corrections")
	}
	if uc.anchorer.ShouldAbort(anchored, false) {
		return nil, LedgerAppError(anchored)
	}

	var event *manuscript.Event
	err = uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.anchorer.Attach(txCtx, anchored.Anchor, m.ID()); err != nil {
			return err
		}
		metadata := map[string]any{
			vo.MetaAuthorID:           cmd.Actor.ID,
			vo.MetaChangesDescription: cmd.ChangesDescription,
		}
		var err error
		event, err = uc.eventLog.Record(txCtx, m.ID(), vo.EventCorrectionsSubmitted, &cmd.Actor,
			anchored.TxHash(), anchored.AnchorID(), cmd.ChangesDescription, metadata)
		return err
	})
	if err != nil {
		uc.logger.Errorw("failed to store corrections", "error", err, "manuscript_id", m.ID())
		uc.anchorer.Orphan(ctx, anchored.Anchor, err)
		return nil, toAppError(err, "failed to save corrections")
	}

	uc.eventLog.Publish(ctx, event)

	uc.logger.Infow("corrections submitted",
		"manuscript_id", m.ID(),
		"anchor_status", anchored.Anchor.Status().String())

	return &RecordedEventResult{
		Event:        dto.ToEventDTO(event, anchored.Anchor),
		AnchorStatus: anchored.Anchor.Status().String(),
		Receipt:      dto.ToReceiptDTO(anchored.Receipt),
	}, nil
}

func (uc *SubmitCorrectionsUseCase) validateCommand(cmd SubmitCorrectionsCommand) error {
	if cmd.Actor.ID == "" {
		return apperrors.NewUnauthorizedError("authenticated actor is required")
	}
	if cmd.ManuscriptID == 0 {
		return apperrors.NewValidationError("manuscript ID is required")
	}
	if cmd.ChangesDescription == "" {
		return apperrors.NewValidationError("changes description is required")
	}
	return nil
}
