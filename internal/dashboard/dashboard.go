// Package dashboard computes sales figures for the admin panel from orders.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"time"

	"japoke-backend/internal/apperr"
	"japoke-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const defaultPopularLimit = 10

type GroupBy string

const (
	GroupDay   GroupBy = "day"
	GroupWeek  GroupBy = "week"
	GroupMonth GroupBy = "month"
)

type AlertCounter interface {
	AlertCount(ctx context.Context) (int, error)
}

type Service struct {
	store  Store
	alerts AlertCounter
	loc    *time.Location
	now    func() time.Time
}

func NewService(store Store, alerts AlertCounter, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, alerts: alerts, loc: loc, now: time.Now}
}

type PeriodStats struct {
	Orders    int             `json:"orders"`
	Delivered int             `json:"delivered"`
	Revenue   decimal.Decimal `json:"revenue"`
	Bowls     int             `json:"bowls"`
	AvgTicket decimal.Decimal `json:"avgTicket"`
}

type TodayStats struct {
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

type Summary struct {
	Period     PeriodStats `json:"period"`
	Today      TodayStats  `json:"today"`
	AlertCount int         `json:"alertCount"`
}

// Stats summarizes live orders. Revenue only counts delivered orders.
func Stats(orders []models.Order) PeriodStats {
	var s PeriodStats
	for _, o := range orders {
		if o.Status == models.OrderCancelled {
			continue
		}
		s.Orders++
		s.Bowls += len(o.Items)
		if o.Status == models.OrderDelivered {
			s.Delivered++
			s.Revenue = s.Revenue.Add(o.Total)
		}
	}
	if s.Delivered > 0 {
		s.AvgTicket = s.Revenue.DivRound(decimal.NewFromInt(int64(s.Delivered)), 2)
	}
	return s
}

func (s *Service) startOfToday() time.Time {
	now := s.now().In(s.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
}

func (s *Service) Summary(ctx context.Context, r Range) (*Summary, error) {
	period, err := s.store.LiveOrders(ctx, r)
	if err != nil {
		return nil, err
	}
	today := s.startOfToday()
	todayOrders, err := s.store.LiveOrders(ctx, Range{From: &today})
	if err != nil {
		return nil, err
	}
	alerts, err := s.alerts.AlertCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("count stock alerts: %w", err)
	}

	t := Stats(todayOrders)
	return &Summary{
		Period:     Stats(period),
		Today:      TodayStats{Orders: t.Orders, Revenue: t.Revenue},
		AlertCount: alerts,
	}, nil
}

type SalesPoint struct {
	Date    string          `json:"date"`
	Orders  int64           `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
	Bowls   int64           `json:"bowls"`
}

// Label names a period bucket: 2025-03-07, 2025-W10 (ISO week) or 2025-03.
func Label(bucket time.Time, g GroupBy) string {
	switch g {
	case GroupWeek:
		y, w := bucket.ISOWeek()
		return fmt.Sprintf("%d-W%02d", y, w)
	case GroupMonth:
		return bucket.Format("2006-01")
	}
	return bucket.Format("2006-01-02")
}

func (s *Service) Sales(ctx context.Context, r Range, g GroupBy) ([]SalesPoint, error) {
	if g == "" {
		g = GroupDay
	}
	if _, ok := truncUnits[g]; !ok {
		return nil, apperr.Validation("groupBy debe ser day, week o month")
	}
	rows, err := s.store.Sales(ctx, r, g, s.loc.String())
	if err != nil {
		return nil, err
	}
	out := make([]SalesPoint, 0, len(rows))
	for _, row := range rows {
		out = append(out, SalesPoint{
			Date:    Label(row.Bucket, g),
			Orders:  row.Orders,
			Revenue: row.Revenue,
			Bowls:   row.Bowls,
		})
	}
	return out, nil
}

type ItemCount struct {
	Name     string              `json:"name"`
	Count    int                 `json:"count"`
	Category models.CategoryType `json:"category"`
	ItemID   uuid.UUID           `json:"itemId"`
}

type Popular struct {
	ByCategory map[models.CategoryType][]ItemCount `json:"byCategory"`
	Top        []ItemCount                         `json:"top"`
}

// RankComponents counts how many bowls picked each component, capped to
// limit per category and overall.
func RankComponents(orders []models.Order, limit int) Popular {
	type key struct {
		cat  models.CategoryType
		name string
	}
	counts := map[key]*ItemCount{}
	add := func(cat models.CategoryType, id uuid.UUID, name string) {
		k := key{cat, name}
		c, ok := counts[k]
		if !ok {
			c = &ItemCount{Name: name, Category: cat, ItemID: id}
			counts[k] = c
		}
		c.Count++
	}
	for _, o := range orders {
		if o.Status == models.OrderCancelled {
			continue
		}
		for _, b := range o.Items {
			for _, p := range b.Proteins {
				add(models.CategoryProtein, p.ItemID, p.Name)
			}
			for _, p := range b.Bases {
				add(models.CategoryBase, p.ItemID, p.Name)
			}
			for _, v := range b.Vegetables {
				add(models.CategoryVegetable, v.ItemID, v.Name)
			}
			for _, v := range b.Sauces {
				add(models.CategorySauce, v.ItemID, v.Name)
			}
			for _, v := range b.Toppings {
				add(models.CategoryTopping, v.ItemID, v.Name)
			}
		}
	}

	all := make([]ItemCount, 0, len(counts))
	for _, c := range counts {
		all = append(all, *c)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Count != all[j].Count {
			return all[i].Count > all[j].Count
		}
		return all[i].Name < all[j].Name
	})

	p := Popular{ByCategory: map[models.CategoryType][]ItemCount{}}
	for _, cat := range []models.CategoryType{models.CategoryProtein, models.CategoryBase, models.CategoryVegetable, models.CategorySauce, models.CategoryTopping} {
		p.ByCategory[cat] = []ItemCount{}
	}
	for _, c := range all {
		if len(p.ByCategory[c.Category]) < limit {
			p.ByCategory[c.Category] = append(p.ByCategory[c.Category], c)
		}
	}
	p.Top = all[:min(limit, len(all))]
	return p
}

func (s *Service) PopularItems(ctx context.Context, r Range, limit int) (*Popular, error) {
	if limit < 1 {
		limit = defaultPopularLimit
	}
	orders, err := s.store.LiveOrders(ctx, r)
	if err != nil {
		return nil, err
	}
	p := RankComponents(orders, limit)
	return &p, nil
}

type PokeTypeCount struct {
	Name      string          `json:"name"`
	Count     int             `json:"count"`
	Revenue   decimal.Decimal `json:"revenue"`
	ByProtein []ProteinCount  `json:"byProtein"`
}

type ProteinCount struct {
	Name    string          `json:"name"`
	Count   int             `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
}

// RankPokeTypes counts bowls and bowl revenue per poke type, with the
// protein breakdown inside each type.
func RankPokeTypes(orders []models.Order) []PokeTypeCount {
	byType := map[string]*PokeTypeCount{}
	byProtein := map[string]map[string]*ProteinCount{}
	for _, o := range orders {
		if o.Status == models.OrderCancelled {
			continue
		}
		for _, b := range o.Items {
			t, ok := byType[b.PokeTypeName]
			if !ok {
				t = &PokeTypeCount{Name: b.PokeTypeName}
				byType[b.PokeTypeName] = t
				byProtein[b.PokeTypeName] = map[string]*ProteinCount{}
			}
			t.Count++
			t.Revenue = t.Revenue.Add(b.ItemTotal)
			for _, p := range b.Proteins {
				pc, ok := byProtein[b.PokeTypeName][p.Name]
				if !ok {
					pc = &ProteinCount{Name: p.Name}
					byProtein[b.PokeTypeName][p.Name] = pc
				}
				pc.Count++
				pc.Revenue = pc.Revenue.Add(b.ItemTotal)
			}
		}
	}

	out := make([]PokeTypeCount, 0, len(byType))
	for name, t := range byType {
		t.ByProtein = []ProteinCount{}
		for _, pc := range byProtein[name] {
			t.ByProtein = append(t.ByProtein, *pc)
		}
		sort.Slice(t.ByProtein, func(i, j int) bool {
			if t.ByProtein[i].Count != t.ByProtein[j].Count {
				return t.ByProtein[i].Count > t.ByProtein[j].Count
			}
			return t.ByProtein[i].Name < t.ByProtein[j].Name
		})
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (s *Service) PopularPokeTypes(ctx context.Context, r Range) ([]PokeTypeCount, error) {
	orders, err := s.store.LiveOrders(ctx, r)
	if err != nil {
		return nil, err
	}
	return RankPokeTypes(orders), nil
}
