package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MovementType string

const (
	MovementPurchase         MovementType = "purchase"
	MovementOrderUsage       MovementType = "order_usage"
	MovementManualAdjustment MovementType = "manual_adjustment"
	MovementWaste            MovementType = "waste"
)

func (t MovementType) Valid() bool {
	switch t {
	case MovementPurchase, MovementOrderUsage, MovementManualAdjustment, MovementWaste:
		return true
	}
	return false
}

// StockMovement is append-only. Quantity is the signed requested delta;
// PreviousStock/NewStock record what actually happened to the holder.
type StockMovement struct {
	ID            uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Ref           StockRef     `gorm:"embedded" json:"ref"`
	Type          MovementType `gorm:"size:20;index;not null" json:"type"`
	Quantity      float64      `gorm:"not null" json:"quantity"`
	PreviousStock float64      `gorm:"not null" json:"previousStock"`
	NewStock      float64      `gorm:"not null" json:"newStock"`
	OrderID       *uuid.UUID   `gorm:"type:uuid;index" json:"order"`
	Notes         string       `gorm:"size:500" json:"notes"`
	CreatedBy     string       `gorm:"size:100;not null;default:'system'" json:"createdBy"`
	CreatedAt     time.Time    `gorm:"index" json:"createdAt"`
}

func (m *StockMovement) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
