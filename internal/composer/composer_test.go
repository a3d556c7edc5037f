package composer

import (
	"context"
	"testing"

	"japoke-backend/internal/apperr"
	"japoke-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type fixture struct {
	pt    *models.PokeType
	items map[uuid.UUID]models.Item

	atun, salmon, pollo, arroz, quinoa   models.Item
	pepino, zanahoria, aguacate, mango   models.Item
	ponzu, sriracha                      models.Item
	mani, sesamo                         models.Item
}

func cat(t models.CategoryType) *models.Category {
	return &models.Category{ID: uuid.New(), Type: t, Name: string(t), IsActive: true}
}

func item(name, slug string, c *models.Category, tier models.Tier, extra string) models.Item {
	return models.Item{
		ID:          uuid.New(),
		Name:        name,
		Slug:        slug,
		CategoryID:  c.ID,
		Category:    c,
		Tier:        tier,
		ExtraPrice:  decimal.RequireFromString(extra),
		IsAvailable: true,
	}
}

func newFixture() *fixture {
	protein, base, veg := cat(models.CategoryProtein), cat(models.CategoryBase), cat(models.CategoryVegetable)
	sauce, topping := cat(models.CategorySauce), cat(models.CategoryTopping)

	f := &fixture{
		atun:      item("Atún", "atun", protein, models.TierBase, "3"),
		salmon:    item("Salmón", "salmon", protein, models.TierPremium, "5"),
		pollo:     item("Pollo", "pollo", protein, models.TierBase, "3"),
		arroz:     item("Arroz", "arroz", base, models.TierNone, "0"),
		quinoa:    item("Quinoa", "quinoa", base, models.TierNone, "0"),
		pepino:    item("Pepino", "pepino", veg, models.TierNone, "0"),
		zanahoria: item("Zanahoria", "zanahoria", veg, models.TierNone, "0"),
		aguacate:  item("Aguacate", "aguacate", veg, models.TierNone, "1"),
		mango:     item("Mango", "mango", veg, models.TierNone, "0"),
		ponzu:     item("Ponzu", "ponzu", sauce, models.TierNone, "0.5"),
		sriracha:  item("Sriracha", "sriracha", sauce, models.TierNone, "0.5"),
		mani:      item("Maní", "mani", topping, models.TierNone, "1"),
		sesamo:    item("Sésamo", "sesamo", topping, models.TierNone, "1"),
	}
	f.pollo.PreparationStyles = []models.PreparationStyle{{ID: "teriyaki", Label: "Teriyaki"}, {ID: "crispy", Label: "Crispy"}}

	f.pt = &models.PokeType{
		ID:        uuid.New(),
		Name:      "Base",
		Slug:      "base",
		BasePrice: decimal.NewFromInt(9),
		Rules: models.BowlRules{
			ProteinGrams:  100,
			BaseGrams:     120,
			MaxVegetables: 4,
			MaxSauces:     2,
			MaxToppings:   1,
		},
		AllowedProteinTiers: []models.Tier{models.TierBase},
		IsActive:            true,
	}

	f.items = map[uuid.UUID]models.Item{}
	for _, it := range []models.Item{f.atun, f.salmon, f.pollo, f.arroz, f.quinoa, f.pepino, f.zanahoria, f.aguacate, f.mango, f.ponzu, f.sriracha, f.mani, f.sesamo} {
		f.items[it.ID] = it
	}
	return f
}

// validRequest is 100g atún + 120g arroz + 2 vegetables + 1 sauce.
func (f *fixture) validRequest() BowlRequest {
	return BowlRequest{
		PokeType: f.pt.ID,
		Selections: Selections{
			Proteins:   []ProteinPick{{Item: f.atun.ID, Quantity: 100}},
			Bases:      []PortionPick{{Item: f.arroz.ID, Quantity: 120}},
			Vegetables: []Pick{{Item: f.pepino.ID}, {Item: f.zanahoria.ID}},
			Sauces:     []Pick{{Item: f.ponzu.ID}},
		},
	}
}

func intPtr(v int) *int { return &v }

func TestBuildBaseBowl(t *testing.T) {
	f := newFixture()

	line, err := Build(f.pt, f.items, f.validRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !line.ItemTotal.Equal(decimal.NewFromInt(9)) {
		t.Fatalf("itemTotal = %s, want 9", line.ItemTotal)
	}
	if line.PokeTypeName != "Base" || len(line.Proteins) != 1 || line.Proteins[0].Name != "Atún" {
		t.Fatalf("unexpected line snapshot: %+v", line)
	}
	if len(line.Vegetables) != 2 || len(line.Sauces) != 1 || len(line.Toppings) != 0 || len(line.Extras) != 0 {
		t.Fatalf("slot sizes wrong: %+v", line)
	}
}

func TestBuildPremiumExtra(t *testing.T) {
	f := newFixture()
	req := f.validRequest()
	req.Extras = []ExtraPick{{Item: f.salmon.ID, Quantity: intPtr(1)}}

	line, err := Build(f.pt, f.items, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !line.ItemTotal.Equal(decimal.NewFromInt(14)) {
		t.Fatalf("itemTotal = %s, want 14", line.ItemTotal)
	}
	if len(line.Extras) != 1 {
		t.Fatalf("extras = %+v", line.Extras)
	}
	e := line.Extras[0]
	if e.ExtraType != models.ExtraProteinPremium || !e.UnitPrice.Equal(decimal.NewFromInt(5)) || !e.Subtotal.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("extra = %+v", e)
	}
}

func TestBuildExtras(t *testing.T) {
	f := newFixture()
	req := f.validRequest()
	req.Extras = []ExtraPick{
		{Item: f.aguacate.ID},                      // 1
		{Item: f.sriracha.ID, Quantity: intPtr(2)}, // 0.5 x 2
		{Item: f.mani.ID},                          // 1
		{Item: f.pollo.ID},                         // 3
	}

	line, err := Build(f.pt, f.items, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !line.ItemTotal.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("itemTotal = %s, want 15", line.ItemTotal)
	}
	want := []models.ExtraType{models.ExtraAvocado, models.ExtraSauce, models.ExtraTopping, models.ExtraProteinBase}
	for i, w := range want {
		if line.Extras[i].ExtraType != w {
			t.Fatalf("extra %d type = %s, want %s", i, line.Extras[i].ExtraType, w)
		}
	}
	if line.Extras[0].Quantity != 1 {
		t.Fatalf("default extra quantity should be 1, got %d", line.Extras[0].Quantity)
	}
}

func TestBuildRejects(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name   string
		mutate func(r *BowlRequest)
		want   apperr.Kind
	}{
		{"no proteins", func(r *BowlRequest) { r.Selections.Proteins = nil }, apperr.KindValidation},
		{"three proteins", func(r *BowlRequest) {
			r.Selections.Proteins = []ProteinPick{{Item: f.atun.ID, Quantity: 40}, {Item: f.pollo.ID, Quantity: 30}, {Item: f.atun.ID, Quantity: 30}}
		}, apperr.KindValidation},
		{"protein grams below", func(r *BowlRequest) { r.Selections.Proteins[0].Quantity = 99 }, apperr.KindValidation},
		{"protein grams above", func(r *BowlRequest) { r.Selections.Proteins[0].Quantity = 100.5 }, apperr.KindValidation},
		{"premium tier not allowed", func(r *BowlRequest) { r.Selections.Proteins[0].Item = f.salmon.ID }, apperr.KindValidation},
		{"protein in wrong slot", func(r *BowlRequest) { r.Selections.Proteins[0].Item = f.arroz.ID }, apperr.KindValidation},
		{"no bases", func(r *BowlRequest) { r.Selections.Bases = nil }, apperr.KindValidation},
		{"base grams mismatch", func(r *BowlRequest) {
			r.Selections.Bases = []PortionPick{{Item: f.arroz.ID, Quantity: 60}, {Item: f.quinoa.ID, Quantity: 50}}
		}, apperr.KindValidation},
		{"too many vegetables", func(r *BowlRequest) {
			r.Selections.Vegetables = []Pick{{Item: f.pepino.ID}, {Item: f.zanahoria.ID}, {Item: f.mango.ID}, {Item: f.aguacate.ID}, {Item: f.pepino.ID}}
		}, apperr.KindValidation},
		{"too many sauces", func(r *BowlRequest) {
			r.Selections.Sauces = []Pick{{Item: f.ponzu.ID}, {Item: f.sriracha.ID}, {Item: f.ponzu.ID}}
		}, apperr.KindValidation},
		{"too many toppings", func(r *BowlRequest) {
			r.Selections.Toppings = []Pick{{Item: f.mani.ID}, {Item: f.sesamo.ID}}
		}, apperr.KindValidation},
		{"sauce in vegetable slot", func(r *BowlRequest) { r.Selections.Vegetables[0].Item = f.ponzu.ID }, apperr.KindValidation},
		{"unknown item", func(r *BowlRequest) { r.Selections.Sauces[0].Item = uuid.New() }, apperr.KindItemUnavailable},
		{"non-avocado vegetable extra", func(r *BowlRequest) { r.Extras = []ExtraPick{{Item: f.mango.ID}} }, apperr.KindExtraNotAllowed},
		{"base extra", func(r *BowlRequest) { r.Extras = []ExtraPick{{Item: f.arroz.ID}} }, apperr.KindExtraNotAllowed},
		{"zero extra quantity", func(r *BowlRequest) { r.Extras = []ExtraPick{{Item: f.mani.ID, Quantity: intPtr(0)}} }, apperr.KindValidation},
		{"unknown preparation style", func(r *BowlRequest) {
			style := "smoked"
			r.Selections.Proteins[0] = ProteinPick{Item: f.pollo.ID, Quantity: 100, PreparationStyle: &style}
		}, apperr.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.validRequest()
			tt.mutate(&req)
			_, err := Build(f.pt, f.items, req)
			if got := apperr.KindOf(err); err == nil || got != tt.want {
				t.Fatalf("got %v (%s), want kind %s", err, got, tt.want)
			}
		})
	}
}

func TestBuildUnavailableItem(t *testing.T) {
	f := newFixture()
	ponzu := f.items[f.ponzu.ID]
	ponzu.IsAvailable = false
	f.items[f.ponzu.ID] = ponzu

	_, err := Build(f.pt, f.items, f.validRequest())
	if !apperr.Is(err, apperr.KindItemUnavailable) {
		t.Fatalf("expected item_unavailable, got %v", err)
	}
}

func TestBuildMixedProteinsAndStyle(t *testing.T) {
	f := newFixture()
	style := "teriyaki"
	req := f.validRequest()
	req.Selections.Proteins = []ProteinPick{
		{Item: f.atun.ID, Quantity: 50},
		{Item: f.pollo.ID, Quantity: 50, PreparationStyle: &style},
	}

	line, err := Build(f.pt, f.items, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line.Proteins[1].PreparationStyle == nil || *line.Proteins[1].PreparationStyle != "teriyaki" {
		t.Fatalf("preparation style not kept: %+v", line.Proteins[1])
	}
}

type fakeCatalog struct {
	pt        *models.PokeType
	items     map[uuid.UUID]models.Item
	itemCalls int
	lastIDs   []uuid.UUID
}

func (c *fakeCatalog) PokeType(_ context.Context, id uuid.UUID) (*models.PokeType, error) {
	if c.pt == nil || c.pt.ID != id {
		return nil, apperr.NotFound("Tipo de poke no encontrado")
	}
	return c.pt, nil
}

func (c *fakeCatalog) ItemsByID(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Item, error) {
	c.itemCalls++
	c.lastIDs = ids
	out := map[uuid.UUID]models.Item{}
	for _, id := range ids {
		if it, ok := c.items[id]; ok {
			out[id] = it
		}
	}
	return out, nil
}

func TestComposeBatchesLookups(t *testing.T) {
	f := newFixture()
	fc := &fakeCatalog{pt: f.pt, items: f.items}
	req := f.validRequest()
	req.Selections.Vegetables = []Pick{{Item: f.pepino.ID}, {Item: f.pepino.ID}}
	req.Extras = []ExtraPick{{Item: f.salmon.ID}}

	if _, err := New(fc).Compose(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fc.itemCalls != 1 {
		t.Fatalf("expected a single batch lookup, got %d", fc.itemCalls)
	}
	// atun, arroz, pepino (deduplicated), ponzu, salmon
	if len(fc.lastIDs) != 5 {
		t.Fatalf("expected 5 distinct ids, got %d", len(fc.lastIDs))
	}
}

func TestComposePokeTypeSelection(t *testing.T) {
	f := newFixture()
	fc := &fakeCatalog{pt: f.pt, items: f.items}
	c := New(fc)

	req := f.validRequest()
	req.PokeType = uuid.New()
	if _, err := c.Compose(context.Background(), req); !apperr.Is(err, apperr.KindInvalidSelection) {
		t.Fatalf("missing poke type: got %v", err)
	}

	f.pt.IsActive = false
	if _, err := c.Compose(context.Background(), f.validRequest()); !apperr.Is(err, apperr.KindInvalidSelection) {
		t.Fatalf("inactive poke type: got %v", err)
	}
	if fc.itemCalls != 0 {
		t.Fatalf("items should not be loaded for an invalid poke type")
	}
}
