package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Wallet string

const (
	WalletUSDT        Wallet = "usdt"
	WalletEfectivoUSD Wallet = "efectivo_usd"
)

var Wallets = []Wallet{WalletUSDT, WalletEfectivoUSD}

func (w Wallet) Valid() bool {
	return w == WalletUSDT || w == WalletEfectivoUSD
}

// BsProtection records converting received Bs into a USD holding. Append-only.
type BsProtection struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	AmountBs          decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amountBs"`
	RateDolarParalelo decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"rateDolarParalelo"`
	AmountUsd         decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"amountUsd"`
	Destination       Wallet          `gorm:"size:20;not null;index" json:"destination"`
	Notes             string          `gorm:"size:500" json:"notes"`
	ProtectedAt       time.Time       `gorm:"index;not null" json:"protectedAt"`
	CreatedAt         time.Time       `json:"createdAt"`
}

func (p *BsProtection) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

type WalletTransactionType string

const (
	TxCapitalInjection WalletTransactionType = "capital_injection"
	TxBsExpense        WalletTransactionType = "bs_expense"
	TxUsdExpense       WalletTransactionType = "usd_expense"
)

// WalletTransaction is a manual movement. Bs expenses carry AmountBs and no
// wallet; the other types carry Wallet and AmountUsd. Append-only.
type WalletTransaction struct {
	ID          uuid.UUID             `gorm:"type:uuid;primaryKey" json:"id"`
	Type        WalletTransactionType `gorm:"size:20;not null;index" json:"type"`
	Wallet      *Wallet               `gorm:"size:20" json:"wallet"`
	AmountUsd   decimal.Decimal       `gorm:"type:decimal(20,4);default:0" json:"amountUsd"`
	AmountBs    decimal.Decimal       `gorm:"type:decimal(20,4);default:0" json:"amountBs"`
	Description string                `gorm:"size:255;not null" json:"description"`
	Date        time.Time             `gorm:"index;not null" json:"date"`
	CreatedAt   time.Time             `json:"createdAt"`
}

func (t *WalletTransaction) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}
