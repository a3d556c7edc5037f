package inventory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"japoke-backend/internal/apperr"
	"japoke-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memStore keeps holders in maps; WithinTx snapshots them and restores the
// snapshot when fn fails.
type memStore struct {
	mu        *sync.Mutex
	items     map[uuid.UUID]models.Item
	supplies  map[uuid.UUID]models.Supply
	pokeTypes map[uuid.UUID]models.PokeType
	movements []models.StockMovement
	purchases []models.Purchase
	orders    map[uuid.UUID]bool

	failMovementAfter int // fail CreateMovement once this many were written; 0 = never
	failDeletes       int // DeleteOrder calls to fail before succeeding
	inTx              bool
}

func newMemStore() *memStore {
	return &memStore{
		mu:        &sync.Mutex{},
		items:     map[uuid.UUID]models.Item{},
		supplies:  map[uuid.UUID]models.Supply{},
		pokeTypes: map[uuid.UUID]models.PokeType{},
		orders:    map[uuid.UUID]bool{},
	}
}

var errInjected = errors.New("injected failure")

func (s *memStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make(map[uuid.UUID]models.Item, len(s.items))
	for k, v := range s.items {
		items[k] = v
	}
	supplies := make(map[uuid.UUID]models.Supply, len(s.supplies))
	for k, v := range s.supplies {
		supplies[k] = v
	}
	orders := make(map[uuid.UUID]bool, len(s.orders))
	for k, v := range s.orders {
		orders[k] = v
	}
	nMov, nPur := len(s.movements), len(s.purchases)

	s.inTx = true
	err := fn(s)
	s.inTx = false
	if err != nil {
		s.items, s.supplies, s.orders = items, supplies, orders
		s.movements, s.purchases = s.movements[:nMov], s.purchases[:nPur]
	}
	return err
}

func (s *memStore) Holder(_ context.Context, ref models.StockRef) (Holder, error) {
	switch ref.Model {
	case models.RefItem:
		it, ok := s.items[ref.ID]
		if !ok {
			return Holder{}, apperr.NotFound("Ingrediente no encontrado")
		}
		return Holder{Ref: ref, Name: it.Name, CurrentStock: it.CurrentStock, MinStock: it.MinStock, PortionSize: it.PortionSize, TrackingUnit: it.TrackingUnit, IsTrackable: it.IsTrackable}, nil
	case models.RefSupply:
		sp, ok := s.supplies[ref.ID]
		if !ok {
			return Holder{}, apperr.NotFound("Insumo no encontrado")
		}
		return Holder{Ref: ref, Name: sp.Name, CurrentStock: sp.CurrentStock, MinStock: sp.MinStock, TrackingUnit: sp.TrackingUnit, IsTrackable: true}, nil
	}
	return Holder{}, apperr.Validation("refModel inválido")
}

func (s *memStore) set(ref models.StockRef, v float64) {
	if ref.Model == models.RefItem {
		it := s.items[ref.ID]
		it.CurrentStock = v
		s.items[ref.ID] = it
		return
	}
	sp := s.supplies[ref.ID]
	sp.CurrentStock = v
	s.supplies[ref.ID] = sp
}

func (s *memStore) ApplyDelta(ctx context.Context, ref models.StockRef, delta float64, clamp bool) (StockChange, error) {
	h, err := s.Holder(ctx, ref)
	if err != nil {
		return StockChange{}, err
	}
	next := h.CurrentStock + delta
	if clamp && next < 0 {
		next = 0
	}
	s.set(ref, next)
	return StockChange{Name: h.Name, Previous: h.CurrentStock, New: next}, nil
}

func (s *memStore) SetStock(ctx context.Context, ref models.StockRef, v float64) (StockChange, error) {
	h, err := s.Holder(ctx, ref)
	if err != nil {
		return StockChange{}, err
	}
	s.set(ref, v)
	return StockChange{Name: h.Name, Previous: h.CurrentStock, New: v}, nil
}

func (s *memStore) SetUnitCost(_ context.Context, ref models.StockRef, cost decimal.Decimal) error {
	if ref.Model == models.RefItem {
		it := s.items[ref.ID]
		it.CostPerUnit = cost
		s.items[ref.ID] = it
		return nil
	}
	sp := s.supplies[ref.ID]
	sp.UnitCost = cost
	s.supplies[ref.ID] = sp
	return nil
}

func (s *memStore) TrackableItemsByID(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Item, error) {
	out := map[uuid.UUID]models.Item{}
	for _, id := range ids {
		if it, ok := s.items[id]; ok && it.IsTrackable {
			out[id] = it
		}
	}
	return out, nil
}

func (s *memStore) PokeTypesByID(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.PokeType, error) {
	out := map[uuid.UUID]models.PokeType{}
	for _, id := range ids {
		if pt, ok := s.pokeTypes[id]; ok {
			out[id] = pt
		}
	}
	return out, nil
}

func (s *memStore) TrackableItems(context.Context) ([]models.Item, error) {
	var out []models.Item
	for _, it := range s.items {
		if it.IsTrackable {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) Supplies(_ context.Context, activeOnly bool) ([]models.Supply, error) {
	var out []models.Supply
	for _, sp := range s.supplies {
		if activeOnly && !sp.IsActive {
			continue
		}
		out = append(out, sp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) CreateMovement(_ context.Context, m *models.StockMovement) error {
	if s.failMovementAfter > 0 && len(s.movements) >= s.failMovementAfter {
		return errInjected
	}
	m.ID = uuid.New()
	s.movements = append(s.movements, *m)
	return nil
}

func (s *memStore) CreatePurchase(_ context.Context, p *models.Purchase) error {
	p.ID = uuid.New()
	s.purchases = append(s.purchases, *p)
	return nil
}

func (s *memStore) Movements(_ context.Context, f MovementFilter) ([]models.StockMovement, int64, error) {
	var matched []models.StockMovement
	for i := len(s.movements) - 1; i >= 0; i-- {
		m := s.movements[i]
		if f.RefModel != "" && m.Ref.Model != f.RefModel {
			continue
		}
		if f.RefID != nil && m.Ref.ID != *f.RefID {
			continue
		}
		if f.Type != "" && m.Type != f.Type {
			continue
		}
		matched = append(matched, m)
	}
	total := int64(len(matched))
	start := (f.Page - 1) * f.Limit
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *memStore) DeleteOrder(_ context.Context, id uuid.UUID) error {
	if s.failDeletes > 0 {
		s.failDeletes--
		return errInjected
	}
	if !s.orders[id] {
		return apperr.NotFound("Pedido no encontrado")
	}
	delete(s.orders, id)
	return nil
}
