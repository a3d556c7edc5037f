package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Tier string

const (
	TierPremium Tier = "premium"
	TierBase    Tier = "base"
	TierNone    Tier = ""
)

type TrackingUnit string

const (
	UnitGrams      TrackingUnit = "g"
	UnitKilograms  TrackingUnit = "kg"
	UnitUnits      TrackingUnit = "units"
	UnitMilliliter TrackingUnit = "ml"
	UnitLiter      TrackingUnit = "l"
)

type PreparationStyle struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Item is an ingredient that can fill a bowl slot or be added as an extra.
// PortionSize is grams/ml per serving; 0 means it is never deducted by portion.
type Item struct {
	ID                uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	Name              string             `gorm:"size:100;not null" json:"name"`
	Slug              string             `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	CategoryID        uuid.UUID          `gorm:"type:uuid;index;not null" json:"categoryId"`
	Category          *Category          `json:"category,omitempty"`
	Tier              Tier               `gorm:"size:20" json:"tier"`
	PortionSize       float64            `gorm:"not null;default:0" json:"portionSize"`
	ExtraPrice        decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"extraPrice"`
	CostPerUnit       decimal.Decimal    `gorm:"type:decimal(20,6);default:0" json:"costPerUnit"`
	IsTrackable       bool               `gorm:"not null;default:false;index" json:"isTrackable"`
	TrackingUnit      TrackingUnit       `gorm:"size:10;not null;default:'g'" json:"trackingUnit"`
	CurrentStock      float64            `gorm:"not null;default:0" json:"currentStock"`
	MinStock          float64            `gorm:"not null;default:0" json:"minStock"`
	PreparationStyles []PreparationStyle `gorm:"serializer:json;type:jsonb" json:"preparationStyles"`
	IsAvailable       bool               `gorm:"not null" json:"isAvailable"`
	DisplayOrder      int                `gorm:"not null;default:0" json:"displayOrder"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

func (i *Item) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

func (i *Item) CategoryType() CategoryType {
	if i.Category == nil {
		return ""
	}
	return i.Category.Type
}

func (i *Item) HasPreparationStyle(id string) bool {
	for _, s := range i.PreparationStyles {
		if s.ID == id {
			return true
		}
	}
	return false
}
