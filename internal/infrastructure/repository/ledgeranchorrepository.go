package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/openpublisher/openpublisher/internal/domain/manuscript"
	vo "github.com/openpublisher/openpublisher/internal/domain/manuscript/valueobjects"
	"github.com/openpublisher/openpublisher/internal/infrastructure/persistence/mappers"
	"github.com/openpublisher/openpublisher/internal/infrastructure/persistence/models"
	"github.com/openpublisher/openpublisher/internal/shared/biztime"
	"github.com/openpublisher/openpublisher/internal/shared/db"
)

type LedgerAnchorRepository struct {
	db     *gorm.DB
	mapper mappers.AnchorMapper
}

func NewLedgerAnchorRepository(db *gorm.DB) *LedgerAnchorRepository {
	return &LedgerAnchorRepository{
		db:     db,
		mapper: mappers.NewAnchorMapper(),
	}
}

func (r *LedgerAnchorRepository) Create(ctx context.Context, a *manuscript.LedgerAnchor) error {
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(r.mapper.ToModel(a)).Error; err != nil {
		return fmt.Errorf("failed to create ledger anchor: %w", err)
	}
	return nil
}

// Update rewrites every mutable column. Select("*") lets the manuscript link
// be cleared back to NULL.
func (r *LedgerAnchorRepository) Update(ctx context.Context, a *manuscript.LedgerAnchor) error {
	model := r.mapper.ToModel(a)
	tx := db.GetTxFromContext(ctx, r.db)

	result := tx.Model(&models.LedgerAnchorModel{}).
		Where("id = ?", model.ID).
		Select("*").Omit("id", "created_at", "payload", "payload_digest", "action").
		Updates(model)
	if result.Error != nil {
		return fmt.Errorf("failed to update ledger anchor: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return manuscript.ErrAnchorNotFound
	}
	return nil
}

func (r *LedgerAnchorRepository) GetByID(ctx context.Context, id string) (*manuscript.LedgerAnchor, error) {
	var model models.LedgerAnchorModel
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, manuscript.ErrAnchorNotFound
		}
		return nil, fmt.Errorf("failed to get ledger anchor: %w", err)
	}
	return r.mapper.ToDomain(&model)
}

func (r *LedgerAnchorRepository) ListByIDs(ctx context.Context, ids []string) ([]*manuscript.LedgerAnchor, error) {
	if len(ids) == 0 {
		return []*manuscript.LedgerAnchor{}, nil
	}
	var list []models.LedgerAnchorModel
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list ledger anchors: %w", err)
	}
	return r.toDomainList(list)
}

func (r *LedgerAnchorRepository) ListAwaitingReceipt(ctx context.Context, before time.Time, limit int) ([]*manuscript.LedgerAnchor, error) {
	var list []models.LedgerAnchorModel
	tx := db.GetTxFromContext(ctx, r.db)

	query := tx.Where("status IN ?", []string{vo.AnchorSubmitted.String(), vo.AnchorTimedOut.String()}).
		Where("updated_at <= ?", biztime.ToMillis(before)).
		Order("updated_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list anchors awaiting receipt: %w", err)
	}
	return r.toDomainList(list)
}

func (r *LedgerAnchorRepository) ListRetryable(ctx context.Context, maxAttempts int, limit int) ([]*manuscript.LedgerAnchor, error) {
	var list []models.LedgerAnchorModel
	tx := db.GetTxFromContext(ctx, r.db)

	query := tx.Where("status = ?", vo.AnchorFailed.String()).
		Where("manuscript_id IS NOT NULL").
		Where("attempts < ?", maxAttempts).
		Order("updated_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list retryable anchors: %w", err)
	}
	return r.toDomainList(list)
}

func (r *LedgerAnchorRepository) toDomainList(list []models.LedgerAnchorModel) ([]*manuscript.LedgerAnchor, error) {
	result := make([]*manuscript.LedgerAnchor, 0, len(list))
	for i := range list {
		a, err := r.mapper.ToDomain(&list[i])
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, nil
}
