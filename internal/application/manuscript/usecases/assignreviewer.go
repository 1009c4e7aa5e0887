package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openpublisher/openpublisher/internal/application/manuscript/dto"
	"github.com/openpublisher/openpublisher/internal/domain/manuscript"
	vo "github.com/openpublisher/openpublisher/internal/domain/manuscript/valueobjects"
	"github.com/openpublisher/openpublisher/internal/shared/db"
	apperrors "github.com/openpublisher/openpublisher/internal/shared/errors"
	"github.com/openpublisher/openpublisher/internal/shared/goroutine"
	"github.com/openpublisher/openpublisher/internal/shared/logger"
)

type AssignReviewerCommand struct {
	Actor        manuscript.Actor
	ManuscriptID uint
	ReviewerID   string
	DueDate      *time.Time
}

type AssignReviewerResult struct {
	Assignment       dto.AssignmentDTO `json:"assignment"`
	ManuscriptStatus string            `json:"manuscript_status"`
	EventID          uint              `json:"event_id"`
	TxHash           string            `json:"tx_hash"`
	AnchorStatus     string            `json:"anchor_status"`
	Receipt          *dto.ReceiptDTO   `json:"receipt"`
}

type AssignReviewerUseCase struct {
	manuscriptRepo manuscript.ManuscriptRepository
	assignmentRepo manuscript.AssignmentRepository
	profiles       manuscript.ProfileDirectory
	anchorer       *Anchorer
	eventLog       *EventLog
	txManager      db.TransactionRunner
	notifier       ReviewerNotifier
	logger         logger.Interface
}

// NewAssignReviewerUseCase accepts a nil notifier when email is disabled.
func NewAssignReviewerUseCase(
	manuscriptRepo manuscript.ManuscriptRepository,
	assignmentRepo manuscript.AssignmentRepository,
	profiles manuscript.ProfileDirectory,
	anchorer *Anchorer,
	eventLog *EventLog,
	txManager db.TransactionRunner,
	notifier ReviewerNotifier,
	logger logger.Interface,
) *AssignReviewerUseCase {
	return &AssignReviewerUseCase{
		manuscriptRepo: manuscriptRepo,
		assignmentRepo: assignmentRepo,
		profiles:       profiles,
		anchorer:       anchorer,
		eventLog:       eventLog,
		txManager:      txManager,
		notifier:       notifier,
		logger:         logger,
	}
}

func (uc *AssignReviewerUseCase) Execute(ctx context.Context, cmd AssignReviewerCommand) (*AssignReviewerResult, error) {
	uc.logger.Infow("executing assign reviewer use case",
		"manuscript_id", cmd.ManuscriptID,
		"reviewer_id", cmd.ReviewerID,
		"actor_id", cmd.Actor.ID)

	if err := uc.validateCommand(cmd); err != nil {
		uc.logger.Warnw("invalid assign reviewer command", "error", err)
		return nil, err
	}

	m, err := loadManuscript(ctx, uc.manuscriptRepo, cmd.ManuscriptID)
	if err != nil {
		return nil, err
	}
	if err := m.CheckAssignable(); err != nil {
		uc.logger.Warnw("manuscript not assignable", "manuscript_id", m.ID(), "status", m.Status().String())
		return nil, toAppError(err, "")
	}

	reviewer, err := uc.profiles.GetByID(ctx, cmd.ReviewerID)
	if err != nil {
		uc.logger.Errorw("failed to look up reviewer", "error", err, "reviewer_id", cmd.ReviewerID)
		return nil, apperrors.NewInternalError("failed to look up reviewer")
	}
	if reviewer == nil {
		return nil, apperrors.NewNotFoundError("reviewer not found")
	}

	active, err := uc.assignmentRepo.GetActive(ctx, m.ID(), reviewer.ID)
	if err != nil {
		uc.logger.Errorw("failed to check existing assignment", "error", err)
		return nil, apperrors.NewInternalError("failed to check existing assignment")
	}
	if active != nil {
		return nil, apperrors.NewConflictError(manuscript.ErrReviewerAlreadyAssigned.Error())
	}

	assignment, err := manuscript.NewReviewerAssignment(m.ID(), reviewer.ID, cmd.DueDate)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	anchored, err := uc.anchorer.Anchor(ctx, vo.EventReviewerAssigned, assignmentPayload(m, reviewer, cmd.Actor.ID, cmd.DueDate))
	if err != nil {
		uc.logger.Errorw("failed to anchor reviewer assignment", "error", err)
		return nil, apperrors.NewInternalError("failed to anchor reviewer assignment")
	}
	if uc.anchorer.ShouldAbort(anchored, false) {
		return nil, LedgerAppError(anchored)
	}

	var event *manuscript.Event
	err = uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		locked, err := uc.manuscriptRepo.GetByIDForUpdate(txCtx, m.ID())
		if err != nil {
			return err
		}
		previous := locked.Status()

		// the unique active key rejects a concurrent duplicate here
		if err := uc.assignmentRepo.Create(txCtx, assignment); err != nil {
			return err
		}
		advanced, err := locked.AddReviewer(reviewer.ID)
		if err != nil {
			return err
		}
		if err := uc.manuscriptRepo.Update(txCtx, locked); err != nil {
			return fmt.Errorf("failed to update manuscript: %w", err)
		}
		if err := uc.anchorer.Attach(txCtx, anchored.Anchor, locked.ID()); err != nil {
			return err
		}

		metadata := map[string]any{
			vo.MetaReviewerID:    reviewer.ID,
			vo.MetaReviewerName:  reviewer.FullName(),
			vo.MetaReviewerEmail: reviewer.Email,
			vo.MetaAssignmentID:  assignment.ID(),
		}
		if advanced {
			metadata[vo.MetaPreviousStatus] = previous.String()
		}

		event, err = uc.eventLog.Record(txCtx, locked.ID(), vo.EventReviewerAssigned, &cmd.Actor,
			anchored.TxHash(), anchored.AnchorID(), "", metadata)
		if err != nil {
			return err
		}
		m = locked
		return nil
	})
	if err != nil {
		uc.anchorer.Orphan(ctx, anchored.Anchor, err)
		if errors.Is(err, manuscript.ErrReviewerAlreadyAssigned) || errors.Is(err, manuscript.ErrNotAssignable) {
			uc.logger.Warnw("reviewer assignment lost a race", "error", err, "manuscript_id", cmd.ManuscriptID)
		} else {
			uc.logger.Errorw("failed to store reviewer assignment", "error", err, "manuscript_id", cmd.ManuscriptID)
		}
		return nil, toAppError(err, "failed to assign reviewer")
	}

	uc.eventLog.Publish(ctx, event)
	uc.notify(ctx, m, reviewer, cmd)

	uc.logger.Infow("reviewer assigned",
		"manuscript_id", m.ID(),
		"assignment_id", assignment.ID(),
		"status", m.Status().String(),
		"anchor_status", anchored.Anchor.Status().String())

	return &AssignReviewerResult{
		Assignment:       dto.ToAssignmentDTO(assignment),
		ManuscriptStatus: m.Status().String(),
		EventID:          event.ID(),
		TxHash:           anchored.TxHash(),
		AnchorStatus:     anchored.Anchor.Status().String(),
		Receipt:          dto.ToReceiptDTO(anchored.Receipt),
	}, nil
}

func (uc *AssignReviewerUseCase) notify(ctx context.Context, m *manuscript.Manuscript, reviewer *manuscript.Profile, cmd AssignReviewerCommand) {
	if uc.notifier == nil || reviewer.Email == "" {
		return
	}

	notice := ReviewerAssignedNotice{
		ReviewerName:    reviewer.FullName(),
		ReviewerEmail:   reviewer.Email,
		ManuscriptID:    m.ID(),
		ManuscriptTitle: m.Title(),
		AssignedBy:      cmd.Actor.FullName(),
		DueDate:         cmd.DueDate,
	}
	bg := context.WithoutCancel(ctx)

	goroutine.SafeGo(uc.logger, "notify-reviewer-assigned", func() {
		if err := uc.notifier.NotifyReviewerAssigned(bg, notice); err != nil {
			uc.logger.Warnw("failed to notify reviewer", "error", err, "manuscript_id", notice.ManuscriptID)
		}
	})
}

func (uc *AssignReviewerUseCase) validateCommand(cmd AssignReviewerCommand) error {
	if cmd.Actor.ID == "" {
		return apperrors.NewUnauthorizedError("authenticated actor is required")
	}
	if cmd.ManuscriptID == 0 {
		return apperrors.NewValidationError("manuscript ID is required")
	}
	if cmd.ReviewerID == "" {
		return apperrors.NewValidationError("reviewer ID is required")
	}
	return nil
}
