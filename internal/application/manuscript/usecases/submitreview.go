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

type SubmitReviewCommand struct {
	Actor          manuscript.Actor
	ManuscriptID   uint
	Comments       string
	Recommendation string
}

// RecordedEventResult is returned by operations whose only local effect is a
// provenance entry.
type RecordedEventResult struct {
	Event        dto.EventDTO    `json:"event"`
	AnchorStatus string          `json:"anchor_status"`
	Receipt      *dto.ReceiptDTO `json:"receipt"`
}

// SubmitReviewUseCase records a reviewer's verdict. It never stores a review
// the ledger did not confirm.
type SubmitReviewUseCase struct {
	manuscriptRepo manuscript.ManuscriptRepository
	assignmentRepo manuscript.AssignmentRepository
	anchorer       *Anchorer
	eventLog       *EventLog
	txManager      db.TransactionRunner
	sanitizer      sanitize.Sanitizer
	logger         logger.Interface
}

func NewSubmitReviewUseCase(
	manuscriptRepo manuscript.ManuscriptRepository,
	assignmentRepo manuscript.AssignmentRepository,
	anchorer *Anchorer,
	eventLog *EventLog,
	txManager db.TransactionRunner,
	sanitizer sanitize.Sanitizer,
	logger logger.Interface,
) *SubmitReviewUseCase {
	return &SubmitReviewUseCase{
		manuscriptRepo: manuscriptRepo,
		assignmentRepo: assignmentRepo,
		anchorer:       anchorer,
		eventLog:       eventLog,
		txManager:      txManager,
		sanitizer:      sanitizer,
		logger:         logger,
	}
}

func (uc *SubmitReviewUseCase) Execute(ctx context.Context, cmd SubmitReviewCommand) (*RecordedEventResult, error) {
	uc.logger.Infow("executing submit review use case",
		"manuscript_id", cmd.ManuscriptID,
		"reviewer_id", cmd.Actor.ID)

	cmd.Comments = uc.sanitizer.Text(cmd.Comments)
	if err := uc.validateCommand(cmd); err != nil {
		uc.logger.Warnw("invalid submit review command", "error", err)
		return nil, err
	}
	recommendation := vo.Recommendation(strings.ToLower(cmd.Recommendation))

	m, err := loadManuscript(ctx, uc.manuscriptRepo, cmd.ManuscriptID)
	if err != nil {
		return nil, err
	}

	assignment, err := uc.assignmentRepo.GetActive(ctx, m.ID(), cmd.Actor.ID)
	if err != nil {
		uc.logger.Errorw("failed to look up assignment", "error", err)
		return nil, apperrors.NewInternalError("failed to look up assignment")
	}
	if assignment == nil {
		uc.logger.Warnw("review rejected, no active assignment",
			"manuscript_id", m.ID(),
			"reviewer_id", cmd.Actor.ID)
		return nil, apperrors.NewForbiddenError("you are not assigned to review this manuscript")
	}

	anchored, err := uc.anchorer.Anchor(ctx, vo.EventReviewSubmitted,
		reviewPayload(m.ID(), cmd.Actor.ID, cmd.Comments, recommendation))
	if err != nil {
		uc.logger.Errorw("failed to anchor review", "error", err)
		return nil, apperrors.NewInternalError("failed to anchor review")
	}
	if uc.anchorer.ShouldAbort(anchored, true) {
		uc.logger.Warnw("review not stored, ledger did not confirm",
			"anchor_id", anchored.Anchor.ID(),
			"error", anchored.Err)
		return nil, LedgerAppError(anchored)
	}

	var event *manuscript.Event
	err = uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := assignment.Complete(); err != nil {
			return err
		}
		if err := uc.assignmentRepo.Update(txCtx, assignment); err != nil {
			return fmt.Errorf("failed to complete assignment: %w", err)
		}
		if err := uc.anchorer.Attach(txCtx, anchored.Anchor, m.ID()); err != nil {
			return err
		}

		metadata := map[string]any{
			vo.MetaReviewerID:     cmd.Actor.ID,
			vo.MetaComments:       cmd.Comments,
			vo.MetaRecommendation: recommendation.String(),
			vo.MetaAssignmentID:   assignment.ID(),
		}
		event, err = uc.eventLog.Record(txCtx, m.ID(), vo.EventReviewSubmitted, &cmd.Actor,
			anchored.TxHash(), anchored.AnchorID(), "", metadata)
		return err
	})
	if err != nil {
		uc.logger.Errorw("failed to store review", "error", err, "manuscript_id", m.ID())
		uc.anchorer.Orphan(ctx, anchored.Anchor, err)
		return nil, toAppError(err, "failed to save review")
	}

	uc.eventLog.Publish(ctx, event)

	uc.logger.Infow("review submitted",
		"manuscript_id", m.ID(),
		"assignment_id", assignment.ID(),
		"recommendation", recommendation.String())

	return &RecordedEventResult{
		Event:        dto.ToEventDTO(event, anchored.Anchor),
		AnchorStatus: anchored.Anchor.Status().String(),
		Receipt:      dto.ToReceiptDTO(anchored.Receipt),
	}, nil
}

func (uc *SubmitReviewUseCase) validateCommand(cmd SubmitReviewCommand) error {
	if cmd.Actor.ID == "" {
		return apperrors.NewUnauthorizedError("authenticated actor is required")
	}
	if cmd.ManuscriptID == 0 {
		return apperrors.NewValidationError("manuscript ID is required")
	}
	if cmd.Comments == "" {
		return apperrors.NewValidationError("comments are required")
	}
	if cmd.Recommendation == "" {
		return apperrors.NewValidationError("recommendation is required")
	}
	if !vo.Recommendation(strings.ToLower(cmd.Recommendation)).IsValid() {
		return apperrors.NewValidationError("invalid recommendation: " + cmd.Recommendation)
	}
	return nil
}
