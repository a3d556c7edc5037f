package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PurchaseUnit string

const (
	PurchaseKg      PurchaseUnit = "kg"
	PurchaseG       PurchaseUnit = "g"
	PurchaseL       PurchaseUnit = "l"
	PurchaseMl      PurchaseUnit = "ml"
	PurchaseUnidad  PurchaseUnit = "unidad"
	PurchaseCaja    PurchaseUnit = "caja"
	PurchasePaquete PurchaseUnit = "paquete"
)

// SupplierPurchase is a supplier invoice paid in Bs.
type SupplierPurchase struct {
	ID            uuid.UUID              `gorm:"type:uuid;primaryKey" json:"id"`
	Date          time.Time              `gorm:"index;not null" json:"date"`
	Supplier      string                 `gorm:"size:150;not null" json:"supplier"`
	InvoiceNumber string                 `gorm:"size:50" json:"invoiceNumber"`
	Description   string                 `gorm:"size:255" json:"description"`
	Lines         []SupplierPurchaseLine `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	TotalBs       decimal.Decimal        `gorm:"type:decimal(20,4);not null" json:"totalBs"`
	BcvRate       decimal.Decimal        `gorm:"type:decimal(20,6);not null" json:"bcvRate"`
	UsdtRate      decimal.Decimal        `gorm:"type:decimal(20,6);not null" json:"usdtRate"`
	TotalUsd      decimal.Decimal        `gorm:"type:decimal(20,4);not null" json:"totalUsd"`
	TotalUsdt     decimal.Decimal        `gorm:"type:decimal(20,4);not null" json:"totalUsdt"`
	Notes         string                 `gorm:"size:500" json:"notes"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

func (p *SupplierPurchase) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

type SupplierPurchaseLine struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SupplierPurchaseID uuid.UUID       `gorm:"type:uuid;index;not null" json:"-"`
	Position           int             `gorm:"not null" json:"-"`
	Name               string          `gorm:"size:150;not null" json:"name"`
	Quantity           float64         `gorm:"not null" json:"quantity"`
	Unit               PurchaseUnit    `gorm:"size:10;not null" json:"unit"`
	UnitPriceBs        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unitPriceBs"`
	SubtotalBs         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"subtotalBs"`
	RefModel           *RefModel       `gorm:"size:10" json:"refModel"`
	RefID              *uuid.UUID      `gorm:"type:uuid" json:"refId"`
	StockUpdated       bool            `gorm:"not null;default:false" json:"stockUpdated"`
}

func (l *SupplierPurchaseLine) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}

// Ref returns the linked stock holder, if any.
func (l *SupplierPurchaseLine) Ref() (StockRef, bool) {
	if l.RefModel == nil || l.RefID == nil {
		return StockRef{}, false
	}
	return StockRef{Model: *l.RefModel, ID: *l.RefID}, true
}
