package settings

import (
	"context"
	"fmt"

	"japoke-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service keeps the single store-wide settings row.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// IsOpen reports whether the store accepts orders. A missing row is created
// closed.
func (s *Service) IsOpen(ctx context.Context) (bool, error) {
	row := models.StoreSettings{Key: models.MainSettingsKey}
	err := s.db.WithContext(ctx).
		Where(models.StoreSettings{Key: models.MainSettingsKey}).
		Attrs(models.StoreSettings{IsOpen: false}).
		FirstOrCreate(&row).Error
	if err != nil {
		return false, fmt.Errorf("load store settings: %w", err)
	}
	return row.IsOpen, nil
}

func (s *Service) SetOpen(ctx context.Context, open bool) (bool, error) {
	row := models.StoreSettings{Key: models.MainSettingsKey, IsOpen: open}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"is_open", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return false, fmt.Errorf("save store settings: %w", err)
	}
	return row.IsOpen, nil
}
