package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RateType string

const (
	RateDolarBcv      RateType = "dolar_bcv"
	RateEuroBcv       RateType = "euro_bcv"
	RateDolarParalelo RateType = "dolar_paralelo"
	RateEuroParalelo  RateType = "euro_paralelo"
)

var RateTypes = []RateType{RateDolarBcv, RateEuroBcv, RateDolarParalelo, RateEuroParalelo}

func (t RateType) Valid() bool {
	for _, rt := range RateTypes {
		if rt == t {
			return true
		}
	}
	return false
}

// ExchangeRate is one reading of Bs per unit of foreign currency. Append-only.
type ExchangeRate struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Type      RateType        `gorm:"size:20;not null;index:idx_rate_type_fetched" json:"type"`
	Rate      decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"rate"`
	Source    string          `gorm:"size:50;not null" json:"source"`
	SourceAt  *time.Time      `json:"sourceUpdatedAt"`
	FetchedAt time.Time       `gorm:"not null;index:idx_rate_type_fetched" json:"fetchedAt"`
	CreatedAt time.Time       `json:"createdAt"`
}

func (r *ExchangeRate) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
