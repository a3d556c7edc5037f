package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Purchase is the cost history of one stock-increasing purchase. Append-only.
type Purchase struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Ref       StockRef        `gorm:"embedded" json:"ref"`
	Quantity  float64         `gorm:"not null" json:"quantity"`
	Unit      TrackingUnit    `gorm:"size:10;not null" json:"unit"`
	UnitCost  decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"unitCost"`
	TotalCost decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"totalCost"`
	Currency  string          `gorm:"size:5;not null;default:'USD'" json:"currency"`
	Rates     RateSnapshot    `gorm:"embedded;embeddedPrefix:rates_" json:"rates"`
	Date      time.Time       `gorm:"index;not null" json:"date"`
	Notes     string          `gorm:"size:500" json:"notes"`
	CreatedAt time.Time       `json:"createdAt"`
}

func (p *Purchase) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
