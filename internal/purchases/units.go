package purchases

import "japoke-backend/internal/models"

// purchaseUnits lists the invoice units that measure the same thing as a
// tracking unit. Tracking units not listed only match themselves.
var purchaseUnits = map[models.TrackingUnit][]models.PurchaseUnit{
	models.UnitGrams:      {models.PurchaseG, models.PurchaseKg},
	models.UnitMilliliter: {models.PurchaseMl, models.PurchaseL},
	models.UnitUnits:      {models.PurchaseUnidad, models.PurchaseCaja, models.PurchasePaquete},
}

func ValidUnit(u models.PurchaseUnit) bool {
	switch u {
	case models.PurchaseKg, models.PurchaseG, models.PurchaseL, models.PurchaseMl,
		models.PurchaseUnidad, models.PurchaseCaja, models.PurchasePaquete:
		return true
	}
	return false
}

func UnitsCompatible(p models.PurchaseUnit, t models.TrackingUnit) bool {
	units, ok := purchaseUnits[t]
	if !ok {
		return string(p) == string(t)
	}
	for _, u := range units {
		if u == p {
			return true
		}
	}
	return false
}

// ToTracking converts an invoice quantity into the holder's tracking unit.
func ToTracking(qty float64, p models.PurchaseUnit, t models.TrackingUnit) float64 {
	switch {
	case p == models.PurchaseKg && t == models.UnitGrams:
		return qty * 1000
	case p == models.PurchaseL && t == models.UnitMilliliter:
		return qty * 1000
	}
	return qty
}
