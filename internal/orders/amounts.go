package orders

import (
	"japoke-backend/internal/models"

	"github.com/shopspring/decimal"
)

// Amounts are the payment figures derived from an order total.
type Amounts struct {
	Eur decimal.Decimal
	Bs  decimal.Decimal
	Usd decimal.Decimal
}

// DeriveAmounts converts a EUR total to Bs at the BCV euro rate and then Bs
// to USD at the parallel dollar rate, rounding to cents at each step. A
// missing rate yields zero for that figure and everything derived from it.
func DeriveAmounts(total decimal.Decimal, rates models.RateSnapshot) Amounts {
	a := Amounts{Eur: total, Bs: decimal.Zero, Usd: decimal.Zero}
	if rates.EuroBcv.IsPositive() {
		a.Bs = total.Mul(rates.EuroBcv).Round(2)
	}
	if rates.DolarParalelo.IsPositive() {
		a.Usd = a.Bs.DivRound(rates.DolarParalelo, 2)
	}
	return a
}
