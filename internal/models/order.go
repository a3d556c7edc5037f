package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

type PaymentMethod string

const (
	MethodPagoMovil   PaymentMethod = "pago_movil"
	MethodEfectivoUSD PaymentMethod = "efectivo_usd"
	MethodBinanceUSDT PaymentMethod = "binance_usdt"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodPagoMovil, MethodEfectivoUSD, MethodBinanceUSDT:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentVerified PaymentStatus = "verified"
	PaymentRejected PaymentStatus = "rejected"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentVerified, PaymentRejected:
		return true
	}
	return false
}

type Customer struct {
	Name           string `gorm:"size:100;not null" json:"name"`
	Identification string `gorm:"size:30;not null" json:"identification"`
	Email          string `gorm:"size:150;not null" json:"email"`
	Phone          string `gorm:"size:20;not null" json:"phone"`
	Address        string `gorm:"size:300;not null" json:"address"`
	Notes          string `gorm:"size:500" json:"notes"`
}

// RateSnapshot is the set of rates frozen into a payment or purchase.
// Zero means the rate was not available at capture time.
type RateSnapshot struct {
	EuroBcv       decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"euroBcv"`
	DolarBcv      decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"dolarBcv"`
	DolarParalelo decimal.Decimal `gorm:"type:decimal(20,6);default:0" json:"dolarParalelo"`
}

type Payment struct {
	Method            PaymentMethod   `gorm:"size:20;not null" json:"method"`
	ReferenceID       string          `gorm:"size:100" json:"referenceId"`
	ReferenceImageURL string          `gorm:"size:500" json:"referenceImageUrl"`
	AmountEur         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amountEur"`
	AmountBs          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amountBs"`
	AmountUsd         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amountUsd"`
	Rates             RateSnapshot    `gorm:"embedded;embeddedPrefix:rates_" json:"rates"`
	Status            PaymentStatus   `gorm:"size:20;not null;index" json:"status"`
}

type SplitPayment struct {
	Method      PaymentMethod   `json:"method"`
	AmountBs    decimal.Decimal `json:"amountBs"`
	AmountUsd   decimal.Decimal `json:"amountUsd"`
	ReferenceID string          `json:"referenceId"`
	Status      PaymentStatus   `json:"status"`
}

type ProteinSelection struct {
	ItemID           uuid.UUID `json:"item"`
	Name             string    `json:"name"`
	PreparationStyle *string   `json:"preparationStyle"`
	Quantity         float64   `json:"quantity"`
}

type PortionSelection struct {
	ItemID   uuid.UUID `json:"item"`
	Name     string    `json:"name"`
	Quantity float64   `json:"quantity"`
}

type SlotSelection struct {
	ItemID uuid.UUID `json:"item"`
	Name   string    `json:"name"`
}

type ExtraType string

const (
	ExtraProteinPremium ExtraType = "protein-premium"
	ExtraProteinBase    ExtraType = "protein-base"
	ExtraAvocado        ExtraType = "avocado"
	ExtraTopping        ExtraType = "topping"
	ExtraSauce          ExtraType = "sauce"
)

type Extra struct {
	ItemID    uuid.UUID       `json:"item"`
	Name      string          `json:"name"`
	ExtraType ExtraType       `json:"extraType"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// BowlLineItem is a priced bowl copied by value into the order.
type BowlLineItem struct {
	PokeTypeID   uuid.UUID          `json:"pokeType"`
	PokeTypeName string             `json:"pokeTypeName"`
	BasePrice    decimal.Decimal    `json:"basePrice"`
	Proteins     []ProteinSelection `json:"proteins"`
	Bases        []PortionSelection `json:"bases"`
	Vegetables   []SlotSelection    `json:"vegetables"`
	Sauces       []SlotSelection    `json:"sauces"`
	Toppings     []SlotSelection    `json:"toppings"`
	Extras       []Extra            `json:"extras"`
	ItemTotal    decimal.Decimal    `json:"itemTotal"`
}

type Order struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderNumber  string          `gorm:"size:20;uniqueIndex;not null" json:"orderNumber"`
	Customer     Customer        `gorm:"embedded;embeddedPrefix:customer_" json:"customer"`
	Items        []BowlLineItem  `gorm:"serializer:json;type:jsonb;not null" json:"items"`
	Subtotal     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"subtotal"`
	Total        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total"`
	Payment      Payment         `gorm:"embedded;embeddedPrefix:payment_" json:"payment"`
	SplitPayment *SplitPayment   `gorm:"serializer:json;type:jsonb" json:"splitPayment"`
	DeliveryTime *string         `gorm:"size:20" json:"deliveryTime"`
	Status       OrderStatus     `gorm:"size:20;not null;index" json:"status"`
	CreatedAt    time.Time       `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}
