package catalog

import (
	"context"
	"errors"
	"fmt"

	"japoke-backend/internal/apperr"
	"japoke-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store reads catalog configuration: categories, items, poke types
// and supplies.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

type Catalog struct {
	PokeTypes  []models.PokeType `json:"pokeTypes"`
	Categories []models.Category `json:"categories"`
}

func (s *Store) PokeType(ctx context.Context, id uuid.UUID) (*models.PokeType, error) {
	var pt models.PokeType
	err := s.db.WithContext(ctx).First(&pt, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Tipo de poke no encontrado")
	}
	if err != nil {
		return nil, fmt.Errorf("load poke type %s: %w", id, err)
	}
	return &pt, nil
}

// ItemsByID loads every requested item in one query with its category.
// Missing ids are simply absent from the map.
func (s *Store) ItemsByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Item, error) {
	out := make(map[uuid.UUID]models.Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var items []models.Item
	if err := s.db.WithContext(ctx).Preload("Category").Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}

func (s *Store) PokeTypes(ctx context.Context) ([]models.PokeType, error) {
	var pts []models.PokeType
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("slug ASC").
		Find(&pts).Error
	return pts, err
}

// CategoriesWithItems returns active categories with their available items,
// both in display order.
func (s *Store) CategoriesWithItems(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("display_order ASC").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_available = ?", true).Order("display_order ASC")
		}).
		Find(&cats).Error
	return cats, err
}

func (s *Store) FullCatalog(ctx context.Context) (*Catalog, error) {
	pts, err := s.PokeTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load poke types: %w", err)
	}
	cats, err := s.CategoriesWithItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	return &Catalog{PokeTypes: pts, Categories: cats}, nil
}

func (s *Store) SetItemAvailability(ctx context.Context, id uuid.UUID, available bool) (*models.Item, error) {
	res := s.db.WithContext(ctx).Model(&models.Item{}).Where("id = ?", id).Update("is_available", available)
	if res.Error != nil {
		return nil, fmt.Errorf("update item %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("Ingrediente no encontrado")
	}
	var it models.Item
	if err := s.db.WithContext(ctx).Preload("Category").First(&it, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("reload item %s: %w", id, err)
	}
	return &it, nil
}

func (s *Store) Supplies(ctx context.Context) ([]models.Supply, error) {
	var out []models.Supply
	err := s.db.WithContext(ctx).Order("name ASC").Find(&out).Error
	return out, err
}

func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	return translateCreate(s.db.WithContext(ctx).Create(c).Error, "categoría")
}

func (s *Store) CreateItem(ctx context.Context, it *models.Item) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", it.CategoryID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperr.NotFound("Categoría no encontrada")
	}
	return translateCreate(s.db.WithContext(ctx).Create(it).Error, "ingrediente")
}

func (s *Store) CreatePokeType(ctx context.Context, pt *models.PokeType) error {
	return translateCreate(s.db.WithContext(ctx).Create(pt).Error, "tipo de poke")
}

func (s *Store) CreateSupply(ctx context.Context, sp *models.Supply) error {
	return translateCreate(s.db.WithContext(ctx).Create(sp).Error, "insumo")
}

func translateCreate(err error, what string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Validation("Ya existe un %s con ese slug", what)
	}
	return err
}
