// Package composer validates a requested bowl against its poke type rules
// and prices it, producing the line item stored on an order.
package composer

import (
	"context"
	"fmt"

	"japoke-backend/internal/apperr"
	"japoke-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	maxProteins = 2
	maxBases    = 2
	avocadoSlug = "aguacate"
)

type Catalog interface {
	PokeType(ctx context.Context, id uuid.UUID) (*models.PokeType, error)
	ItemsByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Item, error)
}

type ProteinPick struct {
	Item             uuid.UUID `json:"item" validate:"required"`
	Quantity         float64   `json:"quantity"`
	PreparationStyle *string   `json:"preparationStyle"`
}

type PortionPick struct {
	Item     uuid.UUID `json:"item" validate:"required"`
	Quantity float64   `json:"quantity"`
}

type Pick struct {
	Item uuid.UUID `json:"item" validate:"required"`
}

type ExtraPick struct {
	Item     uuid.UUID `json:"item" validate:"required"`
	Quantity *int      `json:"quantity"`
}

type Selections struct {
	Proteins   []ProteinPick `json:"proteins" validate:"dive"`
	Bases      []PortionPick `json:"bases" validate:"dive"`
	Vegetables []Pick        `json:"vegetables" validate:"dive"`
	Sauces     []Pick        `json:"sauces" validate:"dive"`
	Toppings   []Pick        `json:"toppings" validate:"dive"`
}

type BowlRequest struct {
	PokeType   uuid.UUID   `json:"pokeType" validate:"required"`
	Selections Selections  `json:"selections"`
	Extras     []ExtraPick `json:"extras" validate:"dive"`
}

// ItemIDs lists every item the request references, slots first then extras.
func (r BowlRequest) ItemIDs() []uuid.UUID {
	s := r.Selections
	ids := make([]uuid.UUID, 0, len(s.Proteins)+len(s.Bases)+len(s.Vegetables)+len(s.Sauces)+len(s.Toppings)+len(r.Extras))
	for _, p := range s.Proteins {
		ids = append(ids, p.Item)
	}
	for _, b := range s.Bases {
		ids = append(ids, b.Item)
	}
	for _, group := range [][]Pick{s.Vegetables, s.Sauces, s.Toppings} {
		for _, p := range group {
			ids = append(ids, p.Item)
		}
	}
	for _, e := range r.Extras {
		ids = append(ids, e.Item)
	}
	return ids
}

type Composer struct {
	catalog Catalog
}

func New(catalog Catalog) *Composer {
	return &Composer{catalog: catalog}
}

// Compose loads the poke type and every referenced item once, then builds
// the priced line item.
func (c *Composer) Compose(ctx context.Context, req BowlRequest) (models.BowlLineItem, error) {
	pt, err := c.catalog.PokeType(ctx, req.PokeType)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return models.BowlLineItem{}, invalidPokeType()
		}
		return models.BowlLineItem{}, err
	}
	if !pt.IsActive {
		return models.BowlLineItem{}, invalidPokeType()
	}

	items, err := c.catalog.ItemsByID(ctx, uniqueIDs(req.ItemIDs()))
	if err != nil {
		return models.BowlLineItem{}, err
	}
	return Build(pt, items, req)
}

// Build checks the request against pt using only the preloaded items.
func Build(pt *models.PokeType, items map[uuid.UUID]models.Item, req BowlRequest) (models.BowlLineItem, error) {
	if pt == nil || !pt.IsActive {
		return models.BowlLineItem{}, invalidPokeType()
	}
	b := builder{pt: pt, items: items}
	return b.build(req)
}

type builder struct {
	pt    *models.PokeType
	items map[uuid.UUID]models.Item
}

func (b *builder) item(id uuid.UUID, slot models.CategoryType) (models.Item, error) {
	it, ok := b.items[id]
	if !ok {
		return models.Item{}, apperr.New(apperr.KindItemUnavailable, "Item no encontrado: %s", id)
	}
	if !it.IsAvailable {
		return models.Item{}, apperr.New(apperr.KindItemUnavailable, "%s no está disponible", it.Name)
	}
	if slot != "" && it.CategoryType() != slot {
		return models.Item{}, apperr.Validation("%s no pertenece a la categoría %s", it.Name, slot)
	}
	return it, nil
}

func (b *builder) build(req BowlRequest) (models.BowlLineItem, error) {
	line := models.BowlLineItem{
		PokeTypeID:   b.pt.ID,
		PokeTypeName: b.pt.Name,
		BasePrice:    b.pt.BasePrice,
		Vegetables:   []models.SlotSelection{},
		Sauces:       []models.SlotSelection{},
		Toppings:     []models.SlotSelection{},
		Extras:       []models.Extra{},
	}

	proteins, err := b.proteins(req.Selections.Proteins)
	if err != nil {
		return models.BowlLineItem{}, err
	}
	line.Proteins = proteins

	bases, err := b.bases(req.Selections.Bases)
	if err != nil {
		return models.BowlLineItem{}, err
	}
	line.Bases = bases

	rules := b.pt.Rules
	slots := []struct {
		picks []Pick
		max   int
		cat   models.CategoryType
		label string
		dst   *[]models.SlotSelection
	}{
		{req.Selections.Vegetables, rules.MaxVegetables, models.CategoryVegetable, "vegetales", &line.Vegetables},
		{req.Selections.Sauces, rules.MaxSauces, models.CategorySauce, "salsas", &line.Sauces},
		{req.Selections.Toppings, rules.MaxToppings, models.CategoryTopping, "toppings", &line.Toppings},
	}
	for _, s := range slots {
		if len(s.picks) > s.max {
			return models.BowlLineItem{}, apperr.Validation("Máximo %d %s (recibido: %d)", s.max, s.label, len(s.picks))
		}
		for _, p := range s.picks {
			it, err := b.item(p.Item, s.cat)
			if err != nil {
				return models.BowlLineItem{}, err
			}
			*s.dst = append(*s.dst, models.SlotSelection{ItemID: it.ID, Name: it.Name})
		}
	}

	extrasTotal := decimal.Zero
	for _, e := range req.Extras {
		extra, err := b.extra(e)
		if err != nil {
			return models.BowlLineItem{}, err
		}
		extrasTotal = extrasTotal.Add(extra.Subtotal)
		line.Extras = append(line.Extras, extra)
	}

	line.ItemTotal = b.pt.BasePrice.Add(extrasTotal)
	return line, nil
}

func (b *builder) proteins(picks []ProteinPick) ([]models.ProteinSelection, error) {
	if len(picks) == 0 {
		return nil, apperr.Validation("Debes seleccionar al menos una proteína")
	}
	if len(picks) > maxProteins {
		return nil, apperr.Validation("Máximo %d proteínas (mezcla 50/50)", maxProteins)
	}

	var total float64
	out := make([]models.ProteinSelection, 0, len(picks))
	for _, p := range picks {
		it, err := b.item(p.Item, models.CategoryProtein)
		if err != nil {
			return nil, err
		}
		if !b.pt.AllowsTier(it.Tier) {
			return nil, apperr.Validation("%s (tier: %s) no está permitida en poke %s", it.Name, tierLabel(it.Tier), b.pt.Name)
		}
		if p.Quantity <= 0 {
			return nil, apperr.Validation("La cantidad de %s debe ser mayor a 0", it.Name)
		}
		if p.PreparationStyle != nil && !it.HasPreparationStyle(*p.PreparationStyle) {
			return nil, apperr.Validation("Preparación '%s' no disponible para %s", *p.PreparationStyle, it.Name)
		}
		total += p.Quantity
		out = append(out, models.ProteinSelection{
			ItemID:           it.ID,
			Name:             it.Name,
			PreparationStyle: p.PreparationStyle,
			Quantity:         p.Quantity,
		})
	}
	if total != b.pt.Rules.ProteinGrams {
		return nil, apperr.Validation("Los gramos de proteína deben sumar %sg (recibido: %sg)", grams(b.pt.Rules.ProteinGrams), grams(total))
	}
	return out, nil
}

func (b *builder) bases(picks []PortionPick) ([]models.PortionSelection, error) {
	if len(picks) == 0 {
		return nil, apperr.Validation("Debes seleccionar al menos una base")
	}
	if len(picks) > maxBases {
		return nil, apperr.Validation("Máximo %d bases (mezcla)", maxBases)
	}

	var total float64
	out := make([]models.PortionSelection, 0, len(picks))
	for _, p := range picks {
		it, err := b.item(p.Item, models.CategoryBase)
		if err != nil {
			return nil, err
		}
		if p.Quantity <= 0 {
			return nil, apperr.Validation("La cantidad de %s debe ser mayor a 0", it.Name)
		}
		total += p.Quantity
		out = append(out, models.PortionSelection{ItemID: it.ID, Name: it.Name, Quantity: p.Quantity})
	}
	if total != b.pt.Rules.BaseGrams {
		return nil, apperr.Validation("Los gramos de base deben sumar %sg (recibido: %sg)", grams(b.pt.Rules.BaseGrams), grams(total))
	}
	return out, nil
}

func (b *builder) extra(e ExtraPick) (models.Extra, error) {
	it, err := b.item(e.Item, "")
	if err != nil {
		return models.Extra{}, err
	}
	kind, ok := ClassifyExtra(it)
	if !ok {
		return models.Extra{}, apperr.New(apperr.KindExtraNotAllowed, "%s no puede ser agregado como extra", it.Name)
	}

	qty := 1
	if e.Quantity != nil {
		qty = *e.Quantity
	}
	if qty < 1 {
		return models.Extra{}, apperr.Validation("La cantidad del extra %s debe ser al menos 1", it.Name)
	}

	return models.Extra{
		ItemID:    it.ID,
		Name:      it.Name,
		ExtraType: kind,
		Quantity:  qty,
		UnitPrice: it.ExtraPrice,
		Subtotal:  it.ExtraPrice.Mul(decimal.NewFromInt(int64(qty))),
	}, nil
}

// ClassifyExtra maps an item to the extra class it is sold as.
func ClassifyExtra(it models.Item) (models.ExtraType, bool) {
	switch cat := it.CategoryType(); {
	case cat == models.CategoryProtein && it.Tier == models.TierPremium:
		return models.ExtraProteinPremium, true
	case cat == models.CategoryProtein && it.Tier == models.TierBase:
		return models.ExtraProteinBase, true
	case cat == models.CategoryVegetable && it.Slug == avocadoSlug:
		return models.ExtraAvocado, true
	case cat == models.CategoryTopping:
		return models.ExtraTopping, true
	case cat == models.CategorySauce:
		return models.ExtraSauce, true
	}
	return "", false
}

func invalidPokeType() error {
	return apperr.New(apperr.KindInvalidSelection, "Tipo de poke no válido o no disponible")
}

func tierLabel(t models.Tier) string {
	if t == models.TierNone {
		return "ninguno"
	}
	return string(t)
}

func grams(v float64) string {
	return fmt.Sprintf("%g", v)
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
