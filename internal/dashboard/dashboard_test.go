package dashboard

import (
	"context"
	"testing"
	"time"

	"japoke-backend/internal/apperr"
	"japoke-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type memStore struct {
	orders    []models.Order
	sales     []SalesRow
	lastGroup GroupBy
	lastTZ    string
}

func (m *memStore) LiveOrders(_ context.Context, r Range) ([]models.Order, error) {
	var out []models.Order
	for _, o := range m.orders {
		if o.Status == models.OrderCancelled {
			continue
		}
		if r.From != nil && o.CreatedAt.Before(*r.From) {
			continue
		}
		if r.To != nil && o.CreatedAt.After(*r.To) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (m *memStore) Sales(_ context.Context, _ Range, g GroupBy, tz string) ([]SalesRow, error) {
	m.lastGroup, m.lastTZ = g, tz
	return m.sales, nil
}

type alertCount int

func (a alertCount) AlertCount(context.Context) (int, error) { return int(a), nil }

var (
	salmon = uuid.New()
	tuna   = uuid.New()
	rice   = uuid.New()
	mango  = uuid.New()
)

func bowl(pokeType string, total int64, proteins ...string) models.BowlLineItem {
	ids := map[string]uuid.UUID{"Salmón": salmon, "Atún": tuna}
	b := models.BowlLineItem{
		PokeTypeName: pokeType,
		ItemTotal:    decimal.NewFromInt(total),
		Bases:        []models.PortionSelection{{ItemID: rice, Name: "Arroz", Quantity: 250}},
		Vegetables:   []models.SlotSelection{{ItemID: mango, Name: "Mango"}},
	}
	for _, p := range proteins {
		b.Proteins = append(b.Proteins, models.ProteinSelection{ItemID: ids[p], Name: p, Quantity: 100})
	}
	return b
}

func order(status models.OrderStatus, at time.Time, items ...models.BowlLineItem) models.Order {
	total := decimal.Zero
	for _, b := range items {
		total = total.Add(b.ItemTotal)
	}
	return models.Order{ID: uuid.New(), Status: status, CreatedAt: at, Items: items, Total: total}
}

func caracas(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Caracas")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	return loc
}

func TestSummary(t *testing.T) {
	loc := caracas(t)
	now := time.Date(2025, 3, 10, 20, 0, 0, 0, loc)
	yesterday := now.Add(-24 * time.Hour)
	store := &memStore{orders: []models.Order{
		order(models.OrderDelivered, yesterday, bowl("Grande", 12, "Salmón"), bowl("Mediano", 9, "Atún")),
		order(models.OrderDelivered, now.Add(-2*time.Hour), bowl("Mediano", 9, "Salmón")),
		order(models.OrderPreparing, now.Add(-time.Hour), bowl("Grande", 12, "Atún")),
		order(models.OrderCancelled, now.Add(-time.Hour), bowl("Grande", 12, "Salmón")),
	}}
	s := NewService(store, alertCount(3), loc)
	s.now = func() time.Time { return now }

	sum, err := s.Summary(context.Background(), Range{})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	p := sum.Period
	if p.Orders != 3 || p.Delivered != 2 || p.Bowls != 4 {
		t.Fatalf("period %+v", p)
	}
	if !p.Revenue.Equal(decimal.NewFromInt(30)) || !p.AvgTicket.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("revenue %s avg %s", p.Revenue, p.AvgTicket)
	}
	if sum.Today.Orders != 2 || !sum.Today.Revenue.Equal(decimal.NewFromInt(9)) {
		t.Fatalf("today %+v", sum.Today)
	}
	if sum.AlertCount != 3 {
		t.Fatalf("alerts %d", sum.AlertCount)
	}
}

func TestStatsWithoutDeliveries(t *testing.T) {
	s := Stats([]models.Order{order(models.OrderPending, time.Now(), bowl("Grande", 12, "Salmón"))})
	if s.Orders != 1 || !s.Revenue.IsZero() || !s.AvgTicket.IsZero() {
		t.Fatalf("stats %+v", s)
	}
}

func TestLabel(t *testing.T) {
	day := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		g    GroupBy
		at   time.Time
		want string
	}{
		{GroupDay, day, "2025-03-07"},
		{GroupWeek, day, "2025-W10"},
		{GroupWeek, time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC), "2025-W01"},
		{GroupMonth, day, "2025-03"},
	}
	for _, tc := range cases {
		if got := Label(tc.at, tc.g); got != tc.want {
			t.Fatalf("Label(%s, %s) = %s, want %s", tc.at.Format(time.DateOnly), tc.g, got, tc.want)
		}
	}
}

func TestSales(t *testing.T) {
	store := &memStore{sales: []SalesRow{
		{Bucket: time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), Orders: 4, Revenue: decimal.NewFromInt(48), Bowls: 5},
		{Bucket: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), Orders: 1, Revenue: decimal.NewFromInt(9), Bowls: 1},
	}}
	s := NewService(store, alertCount(0), time.UTC)

	pts, err := s.Sales(context.Background(), Range{}, GroupWeek)
	if err != nil {
		t.Fatalf("sales: %v", err)
	}
	if len(pts) != 2 || pts[0].Date != "2025-W10" || pts[1].Date != "2025-W11" || pts[0].Bowls != 5 {
		t.Fatalf("points %+v", pts)
	}
	if store.lastTZ != "UTC" {
		t.Fatalf("timezone %q", store.lastTZ)
	}

	if _, err := s.Sales(context.Background(), Range{}, ""); err != nil || store.lastGroup != GroupDay {
		t.Fatalf("default grouping: %v %s", err, store.lastGroup)
	}
	if _, err := s.Sales(context.Background(), Range{}, "year"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("bad grouping: %v", err)
	}
}

func TestRankComponents(t *testing.T) {
	at := time.Now()
	orders := []models.Order{
		order(models.OrderDelivered, at, bowl("Grande", 12, "Salmón", "Atún"), bowl("Mediano", 9, "Salmón")),
		order(models.OrderPending, at, bowl("Mediano", 9, "Salmón")),
		order(models.OrderCancelled, at, bowl("Mediano", 9, "Atún"), bowl("Mediano", 9, "Atún")),
	}

	p := RankComponents(orders, 2)
	if len(p.Top) != 2 {
		t.Fatalf("top %+v", p.Top)
	}
	// Arroz, Mango and Salmón all appear in 3 bowls; ties break by name
	if p.Top[0].Name != "Arroz" || p.Top[0].Count != 3 || p.Top[1].Name != "Mango" {
		t.Fatalf("top %+v", p.Top)
	}
	proteins := p.ByCategory[models.CategoryProtein]
	if len(proteins) != 2 || proteins[0].Name != "Salmón" || proteins[0].Count != 3 || proteins[1].Count != 1 {
		t.Fatalf("proteins %+v", proteins)
	}
	if proteins[0].ItemID != salmon {
		t.Fatal("item id lost")
	}
	if got := p.ByCategory[models.CategoryTopping]; got == nil || len(got) != 0 {
		t.Fatalf("empty category should be an empty list, got %v", got)
	}
}

func TestRankPokeTypes(t *testing.T) {
	at := time.Now()
	orders := []models.Order{
		order(models.OrderDelivered, at, bowl("Grande", 12, "Salmón"), bowl("Mediano", 9, "Salmón")),
		order(models.OrderConfirmed, at, bowl("Mediano", 9, "Atún"), bowl("Mediano", 9, "Salmón")),
		order(models.OrderCancelled, at, bowl("Grande", 12, "Atún")),
	}

	got := RankPokeTypes(orders)
	if len(got) != 2 || got[0].Name != "Mediano" || got[0].Count != 3 || !got[0].Revenue.Equal(decimal.NewFromInt(27)) {
		t.Fatalf("poke types %+v", got)
	}
	if len(got[0].ByProtein) != 2 || got[0].ByProtein[0].Name != "Salmón" || got[0].ByProtein[0].Count != 2 {
		t.Fatalf("by protein %+v", got[0].ByProtein)
	}
	if got[1].Name != "Grande" || got[1].Count != 1 {
		t.Fatalf("grande %+v", got[1])
	}
}
