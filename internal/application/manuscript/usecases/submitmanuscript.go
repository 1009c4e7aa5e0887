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

type AuthorInput struct {
	FirstName   string
	LastName    string
	Email       string
	Affiliation string
	IsPrimary   bool
}

type SubmitManuscriptCommand struct {
	Actor     manuscript.Actor
	JournalID uint
	Title     string
	Abstract  string
	Keywords  []string
	Authors   []AuthorInput
}

type SubmitManuscriptResult struct {
	ManuscriptID   uint               `json:"manuscript_id"`
	Manuscript     *dto.ManuscriptDTO `json:"manuscript"`
	Receipt        *dto.ReceiptDTO    `json:"receipt"`
	EventID        uint               `json:"event_id"`
	AuthorsCreated int                `json:"authors_created"`
}

// SubmitManuscriptUseCase anchors a new manuscript and stores it only once
// the ledger confirmed it. A ledger failure leaves no manuscript, author or
// event row behind.
type SubmitManuscriptUseCase struct {
	manuscriptRepo manuscript.ManuscriptRepository
	authorRepo     manuscript.AuthorRepository
	journals       manuscript.JournalDirectory
	anchorer       *Anchorer
	eventLog       *EventLog
	txManager      db.TransactionRunner
	sanitizer      sanitize.Sanitizer
	logger         logger.Interface
}

func NewSubmitManuscriptUseCase(
	manuscriptRepo manuscript.ManuscriptRepository,
	authorRepo manuscript.AuthorRepository,
	journals manuscript.JournalDirectory,
	anchorer *Anchorer,
	eventLog *EventLog,
	txManager db.TransactionRunner,
	sanitizer sanitize.Sanitizer,
	logger logger.Interface,
) *SubmitManuscriptUseCase {
	return &SubmitManuscriptUseCase{
		manuscriptRepo: manuscriptRepo,
		authorRepo:     authorRepo,
		journals:       journals,
		anchorer:       anchorer,
		eventLog:       eventLog,
		txManager:      txManager,
		sanitizer:      sanitizer,
		logger:         logger,
	}
}

func (uc *SubmitManuscriptUseCase) Execute(ctx context.Context, cmd SubmitManuscriptCommand) (*SubmitManuscriptResult, error) {
	uc.logger.Infow("executing submit manuscript use case",
		"journal_id", cmd.JournalID,
		"actor_id", cmd.Actor.ID,
		"authors", len(cmd.Authors))

	cmd = uc.sanitize(cmd)
	if err := uc.validateCommand(cmd); err != nil {
		uc.logger.Warnw("invalid submit manuscript command", "error", err)
		return nil, err
	}

	exists, err := uc.journals.Exists(ctx, cmd.JournalID)
	if err != nil {
		uc.logger.Errorw("failed to look up journal", "error", err, "journal_id", cmd.JournalID)
		return nil, apperrors.NewInternalError("failed to look up journal")
	}
	if !exists {
		return nil, apperrors.NewNotFoundError("journal not found")
	}

	authors, err := uc.buildAuthors(cmd.Authors)
	if err != nil {
		return nil, err
	}

	draft, err := manuscript.NewManuscript(cmd.Title, cmd.Abstract, cmd.Keywords, cmd.JournalID, cmd.Actor.ID, authors)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	anchored, err := uc.anchorer.Anchor(ctx, vo.EventSubmission, submissionPayload(draft))
	if err != nil {
		uc.logger.Errorw("failed to anchor submission", "error", err)
		return nil, apperrors.NewInternalError("failed to anchor submission")
	}
	if uc.anchorer.ShouldAbort(anchored, true) {
		uc.logger.Warnw("submission not stored, ledger did not confirm",
			"anchor_id", anchored.Anchor.ID(),
			"error", anchored.Err)
		return nil, LedgerAppError(anchored)
	}

	var (
		event   *manuscript.Event
		created int
	)
	err = uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		stored, n, err := uc.resolveAuthors(txCtx, draft.Authors())
		if err != nil {
			return err
		}
		created = n

		if err := draft.BindAuthors(stored); err != nil {
			return err
		}
		if err := uc.manuscriptRepo.Create(txCtx, draft); err != nil {
			return fmt.Errorf("failed to create manuscript: %w", err)
		}
		if err := uc.anchorer.Attach(txCtx, anchored.Anchor, draft.ID()); err != nil {
			return err
		}

		event, err = uc.eventLog.Record(txCtx, draft.ID(), vo.EventSubmission, &cmd.Actor,
			anchored.TxHash(), anchored.AnchorID(), "", nil)
		return err
	})
	if err != nil {
		uc.logger.Errorw("failed to store anchored submission", "error", err, "anchor_id", anchored.Anchor.ID())
		uc.anchorer.Orphan(ctx, anchored.Anchor, err)
		return nil, apperrors.NewInternalError("failed to save manuscript")
	}

	uc.eventLog.Publish(ctx, event)

	uc.logger.Infow("manuscript submitted",
		"manuscript_id", draft.ID(),
		"tx_hash", anchored.TxHash(),
		"authors_created", created)

	return &SubmitManuscriptResult{
		ManuscriptID:   draft.ID(),
		Manuscript:     dto.ToManuscriptDTO(draft),
		Receipt:        dto.ToReceiptDTO(anchored.Receipt),
		EventID:        event.ID(),
		AuthorsCreated: created,
	}, nil
}

// resolveAuthors returns a stored author for every entry, creating those not
// yet known by email, and reports how many were created.
func (uc *SubmitManuscriptUseCase) resolveAuthors(ctx context.Context, authors []*manuscript.Author) ([]*manuscript.Author, int, error) {
	stored := make([]*manuscript.Author, 0, len(authors))
	created := 0

	for _, a := range authors {
		existing, err := uc.authorRepo.GetByEmail(ctx, a.Email())
		if err != nil {
			return nil, 0, fmt.Errorf("failed to look up author %s: %w", a.Email(), err)
		}
		if existing != nil {
			stored = append(stored, existing)
			continue
		}

		if err := uc.authorRepo.Create(ctx, a); err != nil {
			return nil, 0, fmt.Errorf("failed to create author %s: %w", a.Email(), err)
		}
		stored = append(stored, a)
		created++
	}
	return stored, created, nil
}

// buildAuthors validates the payload authors. A repeated email keeps its
// first occurrence.
func (uc *SubmitManuscriptUseCase) buildAuthors(inputs []AuthorInput) ([]*manuscript.Author, error) {
	seen := make(map[string]bool, len(inputs))
	authors := make([]*manuscript.Author, 0, len(inputs))

	for i, in := range inputs {
		a, err := manuscript.NewAuthor(in.FirstName, in.LastName, in.Email, in.Affiliation, in.IsPrimary)
		if err != nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("author %d: %s", i+1, err.Error()))
		}
		if seen[a.Email()] {
			continue
		}
		seen[a.Email()] = true
		authors = append(authors, a)
	}
	return authors, nil
}

func (uc *SubmitManuscriptUseCase) sanitize(cmd SubmitManuscriptCommand) SubmitManuscriptCommand {
	cmd.Title = uc.sanitizer.Text(cmd.Title)
	cmd.Abstract = uc.sanitizer.Text(cmd.Abstract)

	keywords := make([]string, 0, len(cmd.Keywords))
	for _, k := range cmd.Keywords {
		if k = uc.sanitizer.Text(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	cmd.Keywords = keywords

	authors := make([]AuthorInput, len(cmd.Authors))
	for i, a := range cmd.Authors {
		authors[i] = AuthorInput{
			FirstName:   uc.sanitizer.Text(a.FirstName),
			LastName:    uc.sanitizer.Text(a.LastName),
			Email:       uc.sanitizer.Email(a.Email),
			Affiliation: uc.sanitizer.Text(a.Affiliation),
			IsPrimary:   a.IsPrimary,
		}
	}
	cmd.Authors = authors
	return cmd
}

func (uc *SubmitManuscriptUseCase) validateCommand(cmd SubmitManuscriptCommand) error {
	if cmd.Actor.ID == "" {
		return apperrors.NewUnauthorizedError("authenticated actor is required")
	}
	if cmd.JournalID == 0 {
		return apperrors.NewValidationError("journal ID is required")
	}
	if strings.TrimSpace(cmd.Title) == "" {
		return apperrors.NewValidationError("title is required")
	}
	if len([]rune(cmd.Title)) > manuscript.MaxTitleLength {
		return apperrors.NewValidationError(fmt.Sprintf("title must be at most %d characters", manuscript.MaxTitleLength))
	}
	if len([]rune(cmd.Abstract)) > manuscript.MaxAbstractLength {
		return apperrors.NewValidationError(fmt.Sprintf("abstract must be at most %d characters", manuscript.MaxAbstractLength))
	}
	if len(cmd.Authors) == 0 {
		return apperrors.NewValidationError("at least one author is required")
	}
	return nil
}
