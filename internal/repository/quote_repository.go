package repository

import (
	"context"
	"errors"
	"time"

	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/model/entity"
	"gorm.io/gorm"
)

// QuoteRepository persists quotes and their line items.
type QuoteRepository struct {
	db *gorm.DB
}

func NewQuoteRepository(db *gorm.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

func (r *QuoteRepository) FindByID(ctx context.Context, id string) (*entity.Quote, error) {
	var quote entity.Quote
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items").
		Preload("Items.Product").
		Where("id = ? AND deleted_at IS NULL", id).
		First(&quote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &quote, nil
}

// FindByAccessToken looks a quote up by its stored token column. Used by the
// public link flow to confirm a presented token is still the current one.
func (r *QuoteRepository) FindByAccessToken(ctx context.Context, token string) (*entity.Quote, error) {
	var quote entity.Quote
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items").
		Preload("Items.Product").
		Where("access_token = ? AND deleted_at IS NULL", token).
		First(&quote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &quote, nil
}

// Create inserts the quote together with its items.
func (r *QuoteRepository) Create(ctx context.Context, quote *entity.Quote) error {
	return r.db.WithContext(ctx).Create(quote).Error
}

func (r *QuoteRepository) Update(ctx context.Context, quote *entity.Quote) error {
	return r.db.WithContext(ctx).Save(quote).Error
}

// UpdateColumns writes named columns by id without touching the rest of the
// row.
func (r *QuoteRepository) UpdateColumns(ctx context.Context, id string, values map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&entity.Quote{}).
		Where("id = ?", id).
		Updates(values).Error
}

// ReplaceItems swaps the full item set of a quote. Items are always derived
// in full, so partial updates are never needed.
func (r *QuoteRepository) ReplaceItems(ctx context.Context, quoteID string, items []entity.QuoteItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quote_id = ?", quoteID).Delete(&entity.QuoteItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
}

// Delete soft-deletes a quote and hard-deletes nothing.
func (r *QuoteRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&entity.Quote{}).
		Where("id = ?", id).
		Update("deleted_at", time.Now()).Error
}

func (r *QuoteRepository) List(ctx context.Context, page, pageSize int, filters map[string]interface{}) ([]entity.Quote, int64, error) {
	var quotes []entity.Quote
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Quote{}).Where("deleted_at IS NULL")

	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if customerID, ok := filters["customer_id"].(string); ok && customerID != "" {
		query = query.Where("customer_id = ?", customerID)
	}
	if createdBy, ok := filters["created_by"].(string); ok && createdBy != "" {
		query = query.Where("created_by = ?", createdBy)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Customer").
		Preload("Items").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&quotes).Error

	return quotes, total, err
}

// ListTokenedPage returns one page of quotes that carry an access token,
// ordered by id for a stable walk. Used by the expiration backfill.
func (r *QuoteRepository) ListTokenedPage(ctx context.Context, offset, limit int) ([]entity.Quote, error) {
	var quotes []entity.Quote
	err := r.db.WithContext(ctx).
		Where("access_token <> '' AND deleted_at IS NULL").
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&quotes).Error
	return quotes, err
}
