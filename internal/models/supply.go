package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Supply is packaging or disposables consumed per bowl (cups, lids, cutlery).
type Supply struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string          `gorm:"size:100;not null" json:"name"`
	Slug         string          `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	Description  string          `gorm:"size:255" json:"description"`
	UnitCost     decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"unitCost"`
	CurrentStock float64         `gorm:"not null;default:0" json:"currentStock"`
	MinStock     float64         `gorm:"not null;default:0" json:"minStock"`
	TrackingUnit TrackingUnit    `gorm:"size:10;not null;default:'units'" json:"trackingUnit"`
	UsagePerPoke float64         `gorm:"not null;default:1" json:"usagePerPoke"`
	IsActive     bool            `gorm:"not null" json:"isActive"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func (s *Supply) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
