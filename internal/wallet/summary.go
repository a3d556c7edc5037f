package wallet

import (
	"japoke-backend/internal/models"

	"github.com/shopspring/decimal"
)

// walletMethods maps each wallet to the order payment method that pays into it.
var walletMethods = map[models.Wallet]models.PaymentMethod{
	models.WalletUSDT:        models.MethodBinanceUSDT,
	models.WalletEfectivoUSD: models.MethodEfectivoUSD,
}

// PaymentTotal aggregates verified payments on live orders for one method.
// Primary and split payments arrive as separate rows and are merged here.
type PaymentTotal struct {
	Method   models.PaymentMethod
	TotalBs  decimal.Decimal
	TotalUsd decimal.Decimal
	Count    int64
}

type ProtectionTotal struct {
	Destination models.Wallet
	TotalBs     decimal.Decimal
	TotalUsd    decimal.Decimal
	Count       int64
}

type TransactionTotal struct {
	Type     models.WalletTransactionType
	Wallet   *models.Wallet
	TotalBs  decimal.Decimal
	TotalUsd decimal.Decimal
	Count    int64
}

// Totals are the grouped sums the summary is computed from.
type Totals struct {
	Payments     []PaymentTotal
	Protections  []ProtectionTotal
	Transactions []TransactionTotal
}

type Received struct {
	TotalBs    decimal.Decimal `json:"totalBs"`
	OrderCount int64           `json:"orderCount"`
}

type Protected struct {
	TotalBs         decimal.Decimal `json:"totalBs"`
	TotalUsd        decimal.Decimal `json:"totalUsd"`
	ProtectionCount int64           `json:"protectionCount"`
}

type BsExpenses struct {
	TotalBs decimal.Decimal `json:"totalBs"`
	Count   int64           `json:"count"`
}

type Balance struct {
	FromProtection  decimal.Decimal `json:"fromProtection"`
	FromOrders      decimal.Decimal `json:"fromOrders"`
	FromInjections  decimal.Decimal `json:"fromInjections"`
	Expenses        decimal.Decimal `json:"expenses"`
	Total           decimal.Decimal `json:"total"`
	OrderCount      int64           `json:"orderCount"`
	ProtectionCount int64           `json:"protectionCount"`
}

type Wallets struct {
	USDT     Balance `json:"usdt"`
	Efectivo Balance `json:"efectivo"`
}

type Summary struct {
	Received      Received        `json:"received"`
	Protected     Protected       `json:"protected"`
	BsExpenses    BsExpenses      `json:"bsExpenses"`
	UnprotectedBs decimal.Decimal `json:"unprotectedBs"`
	CurrentRate   decimal.Decimal `json:"currentRate"`
	PotentialUsd  decimal.Decimal `json:"potentialUsd"`
	Wallets       Wallets         `json:"wallets"`
}

// Summarize computes the Bs pool and the per-wallet USD balances. A zero
// rate leaves potentialUsd at zero.
func Summarize(t Totals, dolarParalelo decimal.Decimal) Summary {
	var s Summary
	ordersUsd := map[models.PaymentMethod]decimal.Decimal{}
	ordersCount := map[models.PaymentMethod]int64{}
	for _, p := range t.Payments {
		if p.Method == models.MethodPagoMovil {
			s.Received.TotalBs = s.Received.TotalBs.Add(p.TotalBs)
			s.Received.OrderCount += p.Count
			continue
		}
		ordersUsd[p.Method] = ordersUsd[p.Method].Add(p.TotalUsd)
		ordersCount[p.Method] += p.Count
	}

	protUsd := map[models.Wallet]decimal.Decimal{}
	protCount := map[models.Wallet]int64{}
	for _, p := range t.Protections {
		if !p.Destination.Valid() {
			continue
		}
		s.Protected.TotalBs = s.Protected.TotalBs.Add(p.TotalBs)
		s.Protected.TotalUsd = s.Protected.TotalUsd.Add(p.TotalUsd)
		s.Protected.ProtectionCount += p.Count
		protUsd[p.Destination] = protUsd[p.Destination].Add(p.TotalUsd)
		protCount[p.Destination] += p.Count
	}

	injections := map[models.Wallet]decimal.Decimal{}
	expenses := map[models.Wallet]decimal.Decimal{}
	for _, tx := range t.Transactions {
		switch tx.Type {
		case models.TxBsExpense:
			s.BsExpenses.TotalBs = s.BsExpenses.TotalBs.Add(tx.TotalBs)
			s.BsExpenses.Count += tx.Count
		case models.TxCapitalInjection:
			if tx.Wallet != nil && tx.Wallet.Valid() {
				injections[*tx.Wallet] = injections[*tx.Wallet].Add(tx.TotalUsd)
			}
		case models.TxUsdExpense:
			if tx.Wallet != nil && tx.Wallet.Valid() {
				expenses[*tx.Wallet] = expenses[*tx.Wallet].Add(tx.TotalUsd)
			}
		}
	}

	s.UnprotectedBs = s.Received.TotalBs.Sub(s.Protected.TotalBs).Sub(s.BsExpenses.TotalBs)
	s.CurrentRate = dolarParalelo
	if dolarParalelo.IsPositive() {
		s.PotentialUsd = s.UnprotectedBs.DivRound(dolarParalelo, 4)
	}

	balance := func(w models.Wallet) Balance {
		m := walletMethods[w]
		b := Balance{
			FromProtection:  protUsd[w],
			FromOrders:      ordersUsd[m],
			FromInjections:  injections[w],
			Expenses:        expenses[w],
			OrderCount:      ordersCount[m],
			ProtectionCount: protCount[w],
		}
		b.Total = b.FromProtection.Add(b.FromOrders).Add(b.FromInjections).Sub(b.Expenses)
		return b
	}
	s.Wallets = Wallets{
		USDT:     balance(models.WalletUSDT),
		Efectivo: balance(models.WalletEfectivoUSD),
	}
	return s
}
