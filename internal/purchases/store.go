package purchases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"japoke-backend/internal/apperr"
	"japoke-backend/internal/models"
	"japoke-backend/internal/paging"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ListFilter struct {
	From  *time.Time
	To    *time.Time
	Page  int
	Limit int
}

// Totals sums every invoice matching a filter, not just the current page.
type Totals struct {
	TotalBs   decimal.Decimal `json:"totalBs"`
	TotalUsd  decimal.Decimal `json:"totalUsd"`
	TotalUsdt decimal.Decimal `json:"totalUsdt"`
	Count     int64           `json:"count"`
}

type Store interface {
	Create(ctx context.Context, p *models.SupplierPurchase) error
	MarkStockUpdated(ctx context.Context, lineIDs []uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.SupplierPurchase, error)
	List(ctx context.Context, f ListFilter) ([]models.SupplierPurchase, int64, error)
	Totals(ctx context.Context, f ListFilter) (Totals, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func notFound() error {
	return apperr.NotFound("Compra no encontrada")
}

func orderedLines(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (s *GormStore) Create(ctx context.Context, p *models.SupplierPurchase) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *GormStore) MarkStockUpdated(ctx context.Context, lineIDs []uuid.UUID) error {
	if len(lineIDs) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.SupplierPurchaseLine{}).
		Where("id IN ?", lineIDs).
		Update("stock_updated", true).Error
}

func (s *GormStore) Get(ctx context.Context, id uuid.UUID) (*models.SupplierPurchase, error) {
	var p models.SupplierPurchase
	err := s.db.WithContext(ctx).Preload("Lines", orderedLines).Take(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound()
	}
	if err != nil {
		return nil, fmt.Errorf("load purchase: %w", err)
	}
	return &p, nil
}

func (s *GormStore) filtered(ctx context.Context, f ListFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.SupplierPurchase{})
	if f.From != nil {
		q = q.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("date <= ?", *f.To)
	}
	return q
}

func (s *GormStore) List(ctx context.Context, f ListFilter) ([]models.SupplierPurchase, int64, error) {
	q := s.filtered(ctx, f)
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.SupplierPurchase
	err := q.Preload("Lines", orderedLines).
		Order("date DESC").
		Offset(paging.Offset(f.Page, f.Limit)).
		Limit(f.Limit).
		Find(&list).Error
	return list, total, err
}

func (s *GormStore) Totals(ctx context.Context, f ListFilter) (Totals, error) {
	var t Totals
	err := s.filtered(ctx, f).
		Select("COALESCE(SUM(total_bs), 0) AS total_bs, COALESCE(SUM(total_usd), 0) AS total_usd, COALESCE(SUM(total_usdt), 0) AS total_usdt, COUNT(*) AS count").
		Scan(&t).Error
	return t, err
}

// Delete removes the invoice and its lines. Stock already applied stays.
func (s *GormStore) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&models.SupplierPurchase{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound()
	}
	return nil
}
