package orders

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"japoke-backend/internal/composer"
	"japoke-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type memStore struct {
	mu      sync.Mutex
	orders  map[uuid.UUID]models.Order
	clock   time.Time
	collide int // number of Create calls to reject as duplicate
	creates int
}

func newMemStore() *memStore {
	return &memStore{orders: map[uuid.UUID]models.Order{}, clock: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (m *memStore) Create(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.collide > 0 {
		m.collide--
		// a concurrent writer took the number
		m.clock = m.clock.Add(time.Second)
		m.orders[uuid.New()] = models.Order{OrderNumber: o.OrderNumber, CreatedAt: m.clock, Status: models.OrderPending}
		return ErrDuplicateNumber
	}
	for _, existing := range m.orders {
		if existing.OrderNumber == o.OrderNumber {
			return ErrDuplicateNumber
		}
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	m.clock = m.clock.Add(time.Second)
	o.CreatedAt = m.clock
	m.orders[o.ID] = *o
	return nil
}

func (m *memStore) LastOrderNumber(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var last *models.Order
	for _, o := range m.orders {
		if last == nil || o.CreatedAt.After(last.CreatedAt) {
			last = &o
		}
	}
	if last == nil {
		return "", nil
	}
	return last.OrderNumber, nil
}

func (m *memStore) Get(_ context.Context, id uuid.UUID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, notFound()
	}
	if o.SplitPayment != nil {
		sp := *o.SplitPayment
		o.SplitPayment = &sp
	}
	return &o, nil
}

func (m *memStore) GetByNumber(_ context.Context, number string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.OrderNumber == number {
			return &o, nil
		}
	}
	return nil, notFound()
}

func (m *memStore) SetStatus(_ context.Context, id uuid.UUID, from, to models.OrderStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	m.orders[id] = o
	return true, nil
}

func (m *memStore) UpdateFields(_ context.Context, o *models.Order, columns ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.orders[o.ID]
	for _, c := range columns {
		switch c {
		case "payment_status":
			cur.Payment.Status = o.Payment.Status
		case "split_payment":
			if o.SplitPayment != nil {
				sp := *o.SplitPayment
				cur.SplitPayment = &sp
			}
		default:
			return errors.New("unexpected column " + c)
		}
	}
	m.orders[o.ID] = cur
	return nil
}

func (m *memStore) remove(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return notFound()
	}
	delete(m.orders, id)
	return nil
}

func (m *memStore) List(_ context.Context, f ListFilter) ([]models.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, o := range m.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := int64(len(out))
	start := (f.Page - 1) * f.Limit
	if start > len(out) {
		start = len(out)
	}
	end := start + f.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

type openFlag struct {
	open bool
	err  error
}

func (o openFlag) IsOpen(context.Context) (bool, error) { return o.open, o.err }

// priceComposer prices each bowl at the poke type's entry in prices.
type priceComposer struct {
	prices map[uuid.UUID]decimal.Decimal
	err    error
}

func (p priceComposer) Compose(_ context.Context, req composer.BowlRequest) (models.BowlLineItem, error) {
	if p.err != nil {
		return models.BowlLineItem{}, p.err
	}
	price, ok := p.prices[req.PokeType]
	if !ok {
		return models.BowlLineItem{}, errors.New("unknown poke type")
	}
	return models.BowlLineItem{PokeTypeID: req.PokeType, BasePrice: price, ItemTotal: price}, nil
}

type staticRates struct {
	snap models.RateSnapshot
	err  error
}

func (s staticRates) Snapshot(context.Context) (models.RateSnapshot, error) { return s.snap, s.err }

// countingLedger records stock calls. RemoveOrder deletes from orders and
// only counts the restore when the delete succeeds, like a rolled back tx.
type countingLedger struct {
	mu          sync.Mutex
	orders      *memStore
	deducted    []uuid.UUID
	restored    []uuid.UUID
	deductErr   error
	failRemoves int
}

func (l *countingLedger) DeductOrderStock(_ context.Context, o *models.Order) ([]models.StockMovement, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.deductErr != nil {
		return nil, l.deductErr
	}
	l.deducted = append(l.deducted, o.ID)
	return nil, nil
}

var errRemoveFailed = errors.New("db down")

func (l *countingLedger) RemoveOrder(_ context.Context, o *models.Order) ([]models.StockMovement, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failRemoves > 0 {
		l.failRemoves--
		return nil, errRemoveFailed
	}
	if err := l.orders.remove(o.ID); err != nil {
		return nil, err
	}
	l.restored = append(l.restored, o.ID)
	return nil, nil
}

type dispatched struct {
	number string
	status models.OrderStatus
}

type syncDispatcher struct {
	mu   sync.Mutex
	sent []dispatched
}

func (d *syncDispatcher) Dispatch(o *models.Order, s models.OrderStatus) {
	d.mu.Lock()
	d.sent = append(d.sent, dispatched{o.OrderNumber, s})
	d.mu.Unlock()
}
