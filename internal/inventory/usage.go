package inventory

import (
	"japoke-backend/internal/models"

	"github.com/google/uuid"
)

// Usage is the amount one order consumes from one holder.
type Usage struct {
	Ref    models.StockRef
	Amount float64
}

// OrderItemIDs lists the slot items of every bowl. Extras are not included:
// they are priced but never deducted.
func OrderItemIDs(order *models.Order) []uuid.UUID {
	seen := map[uuid.UUID]struct{}{}
	var ids []uuid.UUID
	add := func(id uuid.UUID) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, bowl := range order.Items {
		for _, p := range bowl.Proteins {
			add(p.ItemID)
		}
		for _, b := range bowl.Bases {
			add(b.ItemID)
		}
		for _, group := range [][]models.SlotSelection{bowl.Vegetables, bowl.Sauces, bowl.Toppings} {
			for _, s := range group {
				add(s.ItemID)
			}
		}
	}
	return ids
}

func OrderPokeTypeIDs(order *models.Order) []uuid.UUID {
	seen := map[uuid.UUID]struct{}{}
	var ids []uuid.UUID
	for _, bowl := range order.Items {
		if _, ok := seen[bowl.PokeTypeID]; ok {
			continue
		}
		seen[bowl.PokeTypeID] = struct{}{}
		ids = append(ids, bowl.PokeTypeID)
	}
	return ids
}

// PlanOrderUsage lists the stock an order consumes, one entry per component
// in bowl order. Proteins and bases use their selected grams, other slots the
// item's portion size, and each bowl adds its poke type's supplies.
// Items missing from trackable (or not trackable) and non-positive amounts
// are left out.
func PlanOrderUsage(order *models.Order, trackable map[uuid.UUID]models.Item, pokeTypes map[uuid.UUID]models.PokeType) []Usage {
	var out []Usage
	addItem := func(id uuid.UUID, explicit float64) {
		it, ok := trackable[id]
		if !ok || !it.IsTrackable {
			return
		}
		amount := explicit
		if amount <= 0 {
			amount = it.PortionSize
		}
		if amount <= 0 {
			return
		}
		out = append(out, Usage{Ref: models.ItemRef(id), Amount: amount})
	}

	for _, bowl := range order.Items {
		for _, p := range bowl.Proteins {
			addItem(p.ItemID, p.Quantity)
		}
		for _, b := range bowl.Bases {
			addItem(b.ItemID, b.Quantity)
		}
		for _, group := range [][]models.SlotSelection{bowl.Vegetables, bowl.Sauces, bowl.Toppings} {
			for _, s := range group {
				addItem(s.ItemID, 0)
			}
		}

		pt, ok := pokeTypes[bowl.PokeTypeID]
		if !ok {
			continue
		}
		for _, sp := range pt.Supplies {
			if sp.Quantity <= 0 {
				continue
			}
			out = append(out, Usage{Ref: models.SupplyRef(sp.SupplyID), Amount: sp.Quantity})
		}
	}
	return out
}
