package inventory

import (
	"context"
	"errors"
	"fmt"

	"japoke-backend/internal/apperr"
	"japoke-backend/internal/models"
	"japoke-backend/internal/paging"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type holderTable struct {
	model      func() any
	columns    string
	costColumn string
	label      string
}

// holderTables resolves a StockRef discriminant to its table.
var holderTables = map[models.RefModel]holderTable{
	models.RefItem: {
		model:      func() any { return &models.Item{} },
		columns:    "id, name, current_stock, min_stock, portion_size, tracking_unit, is_trackable",
		costColumn: "cost_per_unit",
		label:      "Ingrediente",
	},
	models.RefSupply: {
		model:      func() any { return &models.Supply{} },
		columns:    "id, name, current_stock, min_stock, 0 AS portion_size, tracking_unit, TRUE AS is_trackable",
		costColumn: "unit_cost",
		label:      "Insumo",
	},
}

type holderRow struct {
	ID           uuid.UUID
	Name         string
	CurrentStock float64
	MinStock     float64
	PortionSize  float64
	TrackingUnit models.TrackingUnit
	IsTrackable  bool
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func tableFor(ref models.StockRef) (holderTable, error) {
	t, ok := holderTables[ref.Model]
	if !ok {
		return holderTable{}, apperr.Validation("refModel inválido: %s", ref.Model)
	}
	return t, nil
}

func (s *GormStore) loadHolder(ctx context.Context, ref models.StockRef, forUpdate bool) (Holder, error) {
	t, err := tableFor(ref)
	if err != nil {
		return Holder{}, err
	}
	q := s.db.WithContext(ctx).Model(t.model()).Select(t.columns).Where("id = ?", ref.ID)
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row holderRow
	if err := q.Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Holder{}, apperr.NotFound("%s no encontrado", t.label)
		}
		return Holder{}, fmt.Errorf("load %s: %w", ref, err)
	}
	return Holder{
		Ref:          ref,
		Name:         row.Name,
		CurrentStock: row.CurrentStock,
		MinStock:     row.MinStock,
		PortionSize:  row.PortionSize,
		TrackingUnit: row.TrackingUnit,
		IsTrackable:  row.IsTrackable,
	}, nil
}

func (s *GormStore) Holder(ctx context.Context, ref models.StockRef) (Holder, error) {
	return s.loadHolder(ctx, ref, false)
}

func (s *GormStore) writeStock(ctx context.Context, ref models.StockRef, value float64) error {
	t, err := tableFor(ref)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(t.model()).Where("id = ?", ref.ID).Update("current_stock", value).Error
}

func (s *GormStore) ApplyDelta(ctx context.Context, ref models.StockRef, delta float64, clampAtZero bool) (StockChange, error) {
	h, err := s.loadHolder(ctx, ref, true)
	if err != nil {
		return StockChange{}, err
	}
	next := h.CurrentStock + delta
	if clampAtZero && next < 0 {
		next = 0
	}
	if err := s.writeStock(ctx, ref, next); err != nil {
		return StockChange{}, fmt.Errorf("update stock %s: %w", ref, err)
	}
	return StockChange{Name: h.Name, Previous: h.CurrentStock, New: next}, nil
}

func (s *GormStore) SetStock(ctx context.Context, ref models.StockRef, value float64) (StockChange, error) {
	h, err := s.loadHolder(ctx, ref, true)
	if err != nil {
		return StockChange{}, err
	}
	if err := s.writeStock(ctx, ref, value); err != nil {
		return StockChange{}, fmt.Errorf("set stock %s: %w", ref, err)
	}
	return StockChange{Name: h.Name, Previous: h.CurrentStock, New: value}, nil
}

func (s *GormStore) SetUnitCost(ctx context.Context, ref models.StockRef, cost decimal.Decimal) error {
	t, err := tableFor(ref)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(t.model()).Where("id = ?", ref.ID).Update(t.costColumn, cost).Error
}

func (s *GormStore) TrackableItemsByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Item, error) {
	out := make(map[uuid.UUID]models.Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var items []models.Item
	if err := s.db.WithContext(ctx).Where("id IN ? AND is_trackable = ?", ids, true).Find(&items).Error; err != nil {
		return nil, err
	}
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}

func (s *GormStore) PokeTypesByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.PokeType, error) {
	out := make(map[uuid.UUID]models.PokeType, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var pts []models.PokeType
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&pts).Error; err != nil {
		return nil, err
	}
	for _, pt := range pts {
		out[pt.ID] = pt
	}
	return out, nil
}

func (s *GormStore) TrackableItems(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	err := s.db.WithContext(ctx).
		Preload("Category").
		Where("is_trackable = ?", true).
		Order("name ASC").
		Find(&items).Error
	return items, err
}

func (s *GormStore) Supplies(ctx context.Context, activeOnly bool) ([]models.Supply, error) {
	q := s.db.WithContext(ctx).Order("name ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var out []models.Supply
	err := q.Find(&out).Error
	return out, err
}

func (s *GormStore) CreateMovement(ctx context.Context, m *models.StockMovement) error {
	return s.db.WithContext(ctx).Create(m).Error
}

func (s *GormStore) CreatePurchase(ctx context.Context, p *models.Purchase) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *GormStore) Movements(ctx context.Context, f MovementFilter) ([]models.StockMovement, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.StockMovement{})
	if f.RefModel != "" {
		q = q.Where("ref_model = ?", f.RefModel)
	}
	if f.RefID != nil {
		q = q.Where("ref_id = ?", *f.RefID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []models.StockMovement
	err := q.Order("created_at DESC").
		Offset(paging.Offset(f.Page, f.Limit)).
		Limit(f.Limit).
		Find(&out).Error
	return out, total, err
}

func (s *GormStore) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&models.Order{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete order: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Pedido no encontrado")
	}
	return nil
}
