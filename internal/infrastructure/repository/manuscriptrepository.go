package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openpublisher/openpublisher/internal/domain/manuscript"
	"github.com/openpublisher/openpublisher/internal/infrastructure/persistence/mappers"
	"github.com/openpublisher/openpublisher/internal/infrastructure/persistence/models"
	"github.com/openpublisher/openpublisher/internal/shared/biztime"
	"github.com/openpublisher/openpublisher/internal/shared/db"
)

type ManuscriptRepository struct {
	db     *gorm.DB
	mapper mappers.ManuscriptMapper
}

func NewManuscriptRepository(db *gorm.DB) *ManuscriptRepository {
	return &ManuscriptRepository{
		db:     db,
		mapper: mappers.NewManuscriptMapper(),
	}
}

// Create inserts the manuscript and links its authors, which must already be
// stored.
func (r *ManuscriptRepository) Create(ctx context.Context, m *manuscript.Manuscript) error {
	model, err := r.mapper.ToModel(m)
	if err != nil {
		return err
	}
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Create(model).Error; err != nil {
		return fmt.Errorf("failed to create manuscript: %w", err)
	}

	links := make([]models.ManuscriptAuthorModel, 0, len(m.Authors()))
	for i, a := range m.Authors() {
		if a.ID() == 0 {
			return fmt.Errorf("author %s has not been stored", a.Email())
		}
		links = append(links, models.ManuscriptAuthorModel{
			ManuscriptID: model.ID,
			AuthorID:     a.ID(),
			Position:     i,
			IsPrimary:    a.IsPrimary(),
		})
	}
	if len(links) > 0 {
		if err := tx.Create(&links).Error; err != nil {
			return fmt.Errorf("failed to link manuscript authors: %w", err)
		}
	}

	if err := r.insertReviewers(tx, model.ID, m.ReviewerIDs()); err != nil {
		return err
	}

	return m.SetID(model.ID)
}

// Update writes status and timestamps and adds reviewers not yet linked.
// The reviewer set only grows.
func (r *ManuscriptRepository) Update(ctx context.Context, m *manuscript.Manuscript) error {
	tx := db.GetTxFromContext(ctx, r.db)

	result := tx.Model(&models.ManuscriptModel{}).
		Where("id = ?", m.ID()).
		Updates(map[string]any{
			"status":     m.Status().String(),
			"updated_at": biztime.ToMillis(m.UpdatedAt()),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update manuscript: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&models.ManuscriptModel{}).Where("id = ?", m.ID()).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to update manuscript: %w", err)
		}
		if count == 0 {
			return manuscript.ErrManuscriptNotFound
		}
	}

	var existing []string
	if err := tx.Model(&models.ManuscriptReviewerModel{}).
		Where("manuscript_id = ?", m.ID()).
		Pluck("reviewer_id", &existing).Error; err != nil {
		return fmt.Errorf("failed to load manuscript reviewers: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, id := range existing {
		known[id] = true
	}
	var added []string
	for _, id := range m.ReviewerIDs() {
		if !known[id] {
			added = append(added, id)
		}
	}
	return r.insertReviewers(tx, m.ID(), added)
}

func (r *ManuscriptRepository) GetByID(ctx context.Context, id uint) (*manuscript.Manuscript, error) {
	return r.get(ctx, db.GetTxFromContext(ctx, r.db), id)
}

// GetByIDForUpdate takes a row lock on MySQL. SQLite serializes writers on
// its own and has no FOR UPDATE.
func (r *ManuscriptRepository) GetByIDForUpdate(ctx context.Context, id uint) (*manuscript.Manuscript, error) {
	tx := db.GetTxFromContext(ctx, r.db)
	if tx.Dialector.Name() != "sqlite" {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.get(ctx, tx, id)
}

func (r *ManuscriptRepository) get(ctx context.Context, tx *gorm.DB, id uint) (*manuscript.Manuscript, error) {
	var model models.ManuscriptModel
	if err := tx.First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, manuscript.ErrManuscriptNotFound
		}
		return nil, fmt.Errorf("failed to get manuscript: %w", err)
	}

	authors, reviewers, err := r.loadRelations(ctx, []uint{model.ID})
	if err != nil {
		return nil, err
	}
	return r.mapper.ToDomain(&model, authors[model.ID], reviewers[model.ID])
}

func (r *ManuscriptRepository) List(ctx context.Context, filter manuscript.ManuscriptFilter) ([]*manuscript.Manuscript, int64, error) {
	tx := db.GetTxFromContext(ctx, r.db)
	query := tx.Model(&models.ManuscriptModel{}).Where("journal_id = ?", filter.JournalID)
	if filter.Status != nil {
		query = query.Where("status = ?", filter.Status.String())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count manuscripts: %w", err)
	}

	query = query.Order("submitted_at DESC").Order("id DESC")
	if filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Limit(filter.PageSize).Offset(offset)
	}

	var list []models.ManuscriptModel
	if err := query.Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list manuscripts: %w", err)
	}
	if len(list) == 0 {
		return []*manuscript.Manuscript{}, total, nil
	}

	ids := make([]uint, len(list))
	for i := range list {
		ids[i] = list[i].ID
	}
	authors, reviewers, err := r.loadRelations(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	result := make([]*manuscript.Manuscript, 0, len(list))
	for i := range list {
		m, err := r.mapper.ToDomain(&list[i], authors[list[i].ID], reviewers[list[i].ID])
		if err != nil {
			return nil, 0, err
		}
		result = append(result, m)
	}
	return result, total, nil
}

// loadRelations fetches authors and reviewers of several manuscripts with
// one query each.
func (r *ManuscriptRepository) loadRelations(
	ctx context.Context,
	ids []uint,
) (map[uint][]*manuscript.Author, map[uint][]string, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var links []models.ManuscriptAuthorModel
	if err := tx.Where("manuscript_id IN ?", ids).
		Order("manuscript_id ASC").Order("position ASC").
		Find(&links).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load manuscript authors: %w", err)
	}

	authorIDs := make([]uint, 0, len(links))
	for _, l := range links {
		authorIDs = append(authorIDs, l.AuthorID)
	}
	byID := make(map[uint]*models.AuthorModel, len(authorIDs))
	if len(authorIDs) > 0 {
		var rows []models.AuthorModel
		if err := tx.Where("id IN ?", authorIDs).Find(&rows).Error; err != nil {
			return nil, nil, fmt.Errorf("failed to load authors: %w", err)
		}
		for i := range rows {
			byID[rows[i].ID] = &rows[i]
		}
	}

	authors := make(map[uint][]*manuscript.Author, len(ids))
	for _, l := range links {
		row, ok := byID[l.AuthorID]
		if !ok {
			continue
		}
		authors[l.ManuscriptID] = append(authors[l.ManuscriptID], r.mapper.AuthorToDomain(row, l.IsPrimary))
	}

	var reviewerRows []models.ManuscriptReviewerModel
	if err := tx.Where("manuscript_id IN ?", ids).
		Order("added_at ASC").Order("reviewer_id ASC").
		Find(&reviewerRows).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load manuscript reviewers: %w", err)
	}
	reviewers := make(map[uint][]string, len(ids))
	for _, row := range reviewerRows {
		reviewers[row.ManuscriptID] = append(reviewers[row.ManuscriptID], row.ReviewerID)
	}

	return authors, reviewers, nil
}

func (r *ManuscriptRepository) insertReviewers(tx *gorm.DB, manuscriptID uint, reviewerIDs []string) error {
	if len(reviewerIDs) == 0 {
		return nil
	}
	now := biztime.ToMillis(biztime.NowUTC())
	rows := make([]models.ManuscriptReviewerModel, 0, len(reviewerIDs))
	for _, id := range reviewerIDs {
		rows = append(rows, models.ManuscriptReviewerModel{ManuscriptID: manuscriptID, ReviewerID: id, AddedAt: now})
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to link manuscript reviewers: %w", err)
	}
	return nil
}
