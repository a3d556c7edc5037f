package dashboard

import (
	"context"
	"fmt"
	"time"

	"japoke-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Range struct {
	From *time.Time
	To   *time.Time
}

// SalesRow is one period bucket of delivered orders. Bucket is the period
// start as wall time in the store's timezone.
type SalesRow struct {
	Bucket  time.Time       `gorm:"column:bucket"`
	Orders  int64           `gorm:"column:orders"`
	Revenue decimal.Decimal `gorm:"column:revenue"`
	Bowls   int64           `gorm:"column:bowls"`
}

type Store interface {
	// LiveOrders returns non-cancelled orders created inside r.
	LiveOrders(ctx context.Context, r Range) ([]models.Order, error)
	Sales(ctx context.Context, r Range, groupBy GroupBy, tz string) ([]SalesRow, error)
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func within(q *gorm.DB, r Range) *gorm.DB {
	if r.From != nil {
		q = q.Where("created_at >= ?", *r.From)
	}
	if r.To != nil {
		q = q.Where("created_at <= ?", *r.To)
	}
	return q
}

func (s *GormStore) LiveOrders(ctx context.Context, r Range) ([]models.Order, error) {
	var out []models.Order
	q := s.db.WithContext(ctx).Where("status <> ?", models.OrderCancelled)
	if err := within(q, r).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	return out, nil
}

var truncUnits = map[GroupBy]string{
	GroupDay:   "day",
	GroupWeek:  "week",
	GroupMonth: "month",
}

func (s *GormStore) Sales(ctx context.Context, r Range, groupBy GroupBy, tz string) ([]SalesRow, error) {
	unit, ok := truncUnits[groupBy]
	if !ok {
		return nil, fmt.Errorf("unknown grouping %q", groupBy)
	}
	q := s.db.WithContext(ctx).Model(&models.Order{}).
		Select(`date_trunc(?, created_at AT TIME ZONE ?) AS bucket,
			COUNT(*) AS orders,
			COALESCE(SUM(total), 0) AS revenue,
			COALESCE(SUM(jsonb_array_length(items)), 0) AS bowls`, unit, tz).
		Where("status = ?", models.OrderDelivered)

	var rows []SalesRow
	if err := within(q, r).Group("bucket").Order("bucket ASC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("aggregate sales: %w", err)
	}
	return rows, nil
}
