package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"japoke-backend/internal/apperr"
	"japoke-backend/internal/models"
	"japoke-backend/internal/paging"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrDuplicateNumber is returned by Create when the order number is taken.
var ErrDuplicateNumber = errors.New("order number already exists")

type ListFilter struct {
	Status models.OrderStatus
	From   *time.Time
	To     *time.Time
	Page   int
	Limit  int
}

type Store interface {
	Create(ctx context.Context, o *models.Order) error
	// LastOrderNumber returns "" when there are no orders.
	LastOrderNumber(ctx context.Context) (string, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetByNumber(ctx context.Context, number string) (*models.Order, error)
	// SetStatus changes the status only if it still equals from.
	SetStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) (bool, error)
	UpdateFields(ctx context.Context, o *models.Order, columns ...string) error
	List(ctx context.Context, f ListFilter) ([]models.Order, int64, error)
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func notFound() error {
	return apperr.NotFound("Pedido no encontrado")
}

func (s *GormStore) Create(ctx context.Context, o *models.Order) error {
	err := s.db.WithContext(ctx).Create(o).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateNumber
	}
	return err
}

func (s *GormStore) LastOrderNumber(ctx context.Context) (string, error) {
	var numbers []string
	err := s.db.WithContext(ctx).Model(&models.Order{}).
		Order("created_at DESC").
		Limit(1).
		Pluck("order_number", &numbers).Error
	if err != nil {
		return "", err
	}
	if len(numbers) == 0 {
		return "", nil
	}
	return numbers[0], nil
}

func (s *GormStore) first(ctx context.Context, query string, arg any) (*models.Order, error) {
	var o models.Order
	err := s.db.WithContext(ctx).Where(query, arg).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound()
	}
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	return &o, nil
}

func (s *GormStore) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *GormStore) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	return s.first(ctx, "order_number = ?", number)
}

func (s *GormStore) SetStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *GormStore) UpdateFields(ctx context.Context, o *models.Order, columns ...string) error {
	return s.db.WithContext(ctx).Model(o).Select(columns).Updates(o).Error
}

func (s *GormStore) List(ctx context.Context, f ListFilter) ([]models.Order, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Order{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []models.Order
	err := q.Order("created_at DESC").
		Offset(paging.Offset(f.Page, f.Limit)).
		Limit(f.Limit).
		Find(&out).Error
	return out, total, err
}
