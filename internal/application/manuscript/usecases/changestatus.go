package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/openpublisher/openpublisher/internal/application/manuscript/dto"
	"github.com/openpublisher/openpublisher/internal/domain/manuscript"
	vo "github.com/openpublisher/openpublisher/internal/domain/manuscript/valueobjects"
	"github.com/openpublisher/openpublisher/internal/shared/db"
	apperrors "github.com/openpublisher/openpublisher/internal/shared/errors"
	"github.com/openpublisher/openpublisher/internal/shared/logger"
	"github.com/openpublisher/openpublisher/internal/shared/services/sanitize"
)

type ChangeStatusCommand struct {
	Actor        manuscript.Actor
	ManuscriptID uint
	Status       string
	Comment      string
}

type StatusChangeResult struct {
	Manuscript     *dto.ManuscriptDTO `json:"manuscript"`
	PreviousStatus string             `json:"previous_status"`
	EventID        uint               `json:"event_id"`
	TxHash         string             `json:"tx_hash"`
	AnchorStatus   string             `json:"anchor_status"`
	Receipt        *dto.ReceiptDTO    `json:"receipt"`
}

// ChangeStatusUseCase applies an editorial decision. Repeating the current
// status is accepted: the manuscript is unchanged but the decision is
// anchored and recorded again.
type ChangeStatusUseCase struct {
	manuscriptRepo manuscript.ManuscriptRepository
	anchorer       *Anchorer
	eventLog       *EventLog
	txManager      db.TransactionRunner
	sanitizer      sanitize.Sanitizer
	logger         logger.Interface
}

func NewChangeStatusUseCase(
	manuscriptRepo manuscript.ManuscriptRepository,
	anchorer *Anchorer,
	eventLog *EventLog,
	txManager db.TransactionRunner,
	sanitizer sanitize.Sanitizer,
	logger logger.Interface,
) *ChangeStatusUseCase {
	return &ChangeStatusUseCase{
		manuscriptRepo: manuscriptRepo,
		anchorer:       anchorer,
		eventLog:       eventLog,
		txManager:      txManager,
		sanitizer:      sanitizer,
		logger:         logger,
	}
}

func (uc *ChangeStatusUseCase) Execute(ctx context.Context, cmd ChangeStatusCommand) (*StatusChangeResult, error) {
	uc.logger.Infow("executing change status use case",
		"manuscript_id", cmd.ManuscriptID,
		"status", cmd.Status,
		"actor_id", cmd.Actor.ID)

	target, err := uc.validateCommand(cmd)
	if err != nil {
		uc.logger.Warnw("invalid change status command", "error", err)
		return nil, err
	}
	comment := uc.sanitizer.Text(cmd.Comment)

	m, err := loadManuscript(ctx, uc.manuscriptRepo, cmd.ManuscriptID)
	if err != nil {
		return nil, err
	}
	if err := m.CheckStatusChange(target); err != nil {
		uc.logger.Warnw("status change rejected", "error", err, "manuscript_id", m.ID())
		return nil, toAppError(err, "")
	}
	eventType, _ := vo.EventForStatus(target)

	anchored, err := uc.anchorer.Anchor(ctx, eventType, snapshotPayload(eventType, m, target, cmd.Actor.ID))
	if err != nil {
		uc.logger.Errorw("failed to anchor status change", "error", err)
		return nil, apperrors.NewInternalError("failed to anchor status change")
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
		eventType:      eventType,
		actor:          cmd.Actor,
		description:    comment,
		anchored:       anchored,
		apply: func(locked *manuscript.Manuscript) error {
			return locked.ChangeStatus(target)
		},
	})
}

func (uc *ChangeStatusUseCase) validateCommand(cmd ChangeStatusCommand) (vo.ManuscriptStatus, error) {
	if cmd.Actor.ID == "" {
		return "", apperrors.NewUnauthorizedError("authenticated actor is required")
	}
	if cmd.ManuscriptID == 0 {
		return "", apperrors.NewValidationError("manuscript ID is required")
	}
	target, err := vo.NewManuscriptStatus(strings.ToUpper(strings.TrimSpace(cmd.Status)))
	if err != nil {
		return "", apperrors.NewValidationError("invalid status", cmd.Status)
	}
	if !target.IsEditorialTarget() {
		return "", apperrors.NewValidationError(fmt.Sprintf("status %s cannot be set directly", target))
	}
	return target, nil
}

// statusChange is the local half shared by ChangeStatus and Publish.
type statusChange struct {
	manuscriptRepo manuscript.ManuscriptRepository
	anchorer       *Anchorer
	eventLog       *EventLog
	txManager      db.TransactionRunner
	logger         logger.Interface

	manuscriptID uint
	eventType    vo.EventType
	actor        manuscript.Actor
	description  string
	anchored     *AnchorResult
	apply        func(locked *manuscript.Manuscript) error
}

func applyStatusChange(ctx context.Context, sc statusChange) (*StatusChangeResult, error) {
	var (
		event    *manuscript.Event
		updated  *manuscript.Manuscript
		previous vo.ManuscriptStatus
	)
	err := sc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		locked, err := sc.manuscriptRepo.GetByIDForUpdate(txCtx, sc.manuscriptID)
		if err != nil {
			return err
		}
		previous = locked.Status()

		if err := sc.apply(locked); err != nil {
			return err
		}
		if err := sc.manuscriptRepo.Update(txCtx, locked); err != nil {
			return fmt.Errorf("failed to update manuscript: %w", err)
		}
		if err := sc.anchorer.Attach(txCtx, sc.anchored.Anchor, locked.ID()); err != nil {
			return err
		}

		metadata := map[string]any{vo.MetaPreviousStatus: previous.String()}
		event, err = sc.eventLog.Record(txCtx, locked.ID(), sc.eventType, &sc.actor,
			sc.anchored.TxHash(), sc.anchored.AnchorID(), sc.description, metadata)
		if err != nil {
			return err
		}
		updated = locked
		return nil
	})
	if err != nil {
		sc.logger.Errorw("failed to store status change", "error", err, "manuscript_id", sc.manuscriptID)
		sc.anchorer.Orphan(ctx, sc.anchored.Anchor, err)
		return nil, toAppError(err, "failed to update manuscript status")
	}

	sc.eventLog.Publish(ctx, event)

	sc.logger.Infow("manuscript status changed",
		"manuscript_id", updated.ID(),
		"from", previous.String(),
		"to", updated.Status().String(),
		"anchor_status", sc.anchored.Anchor.Status().String())

	return &StatusChangeResult{
		Manuscript:     dto.ToManuscriptDTO(updated),
		PreviousStatus: previous.String(),
		EventID:        event.ID(),
		TxHash:         sc.anchored.TxHash(),
		AnchorStatus:   sc.anchored.Anchor.Status().String(),
		Receipt:        dto.ToReceiptDTO(sc.anchored.Receipt),
	}, nil
}
