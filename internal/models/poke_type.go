package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BowlRules struct {
	ProteinGrams  float64 `gorm:"not null" json:"proteinGrams"`
	BaseGrams     float64 `gorm:"not null" json:"baseGrams"`
	MaxVegetables int     `gorm:"not null" json:"maxVegetables"`
	MaxSauces     int     `gorm:"not null" json:"maxSauces"`
	MaxToppings   int     `gorm:"not null" json:"maxToppings"`
}

type PokeTypeSupply struct {
	SupplyID uuid.UUID `json:"supply"`
	Quantity float64   `json:"quantity"`
}

// PokeType is the pricing and rule template a bowl is built against.
type PokeType struct {
	ID                  uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	Name                string           `gorm:"size:100;not null" json:"name"`
	Slug                string           `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	BasePrice           decimal.Decimal  `gorm:"type:decimal(20,4);not null" json:"basePrice"`
	Rules               BowlRules        `gorm:"embedded;embeddedPrefix:rule_" json:"rules"`
	AllowedProteinTiers []Tier           `gorm:"serializer:json;type:jsonb" json:"allowedProteinTiers"`
	Supplies            []PokeTypeSupply `gorm:"serializer:json;type:jsonb" json:"supplies"`
	IsActive            bool             `gorm:"not null" json:"isActive"`
	CreatedAt           time.Time        `json:"createdAt"`
	UpdatedAt           time.Time        `json:"updatedAt"`
}

func (p *PokeType) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

func (p *PokeType) AllowsTier(t Tier) bool {
	for _, allowed := range p.AllowedProteinTiers {
		if allowed == t {
			return true
		}
	}
	return false
}
