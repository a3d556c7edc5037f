package rates

import (
	"context"
	"errors"
	"time"

	"japoke-backend/internal/models"

	"gorm.io/gorm"
)

type HistoryFilter struct {
	Type  models.RateType
	From  *time.Time
	To    *time.Time
	Limit int
}

type Repository interface {
	Create(ctx context.Context, r *models.ExchangeRate) error
	Latest(ctx context.Context, t models.RateType) (*models.ExchangeRate, error)
	History(ctx context.Context, f HistoryFilter) ([]models.ExchangeRate, error)
}

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, rate *models.ExchangeRate) error {
	return r.db.WithContext(ctx).Create(rate).Error
}

// Latest returns nil, nil when no reading of that type exists yet.
func (r *GormRepository) Latest(ctx context.Context, t models.RateType) (*models.ExchangeRate, error) {
	var rate models.ExchangeRate
	err := r.db.WithContext(ctx).
		Where("type = ?", t).
		Order("fetched_at DESC").
		First(&rate).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

func (r *GormRepository) History(ctx context.Context, f HistoryFilter) ([]models.ExchangeRate, error) {
	q := r.db.WithContext(ctx).Model(&models.ExchangeRate{})
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.From != nil {
		q = q.Where("fetched_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("fetched_at <= ?", *f.To)
	}
	var out []models.ExchangeRate
	err := q.Order("fetched_at DESC").Limit(f.Limit).Find(&out).Error
	return out, err
}
