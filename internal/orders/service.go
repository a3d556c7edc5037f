package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"japoke-backend/internal/apperr"
	"japoke-backend/internal/composer"
	"japoke-backend/internal/logging"
	"japoke-backend/internal/metrics"
	"japoke-backend/internal/models"
	"japoke-backend/internal/paging"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	defaultListLimit = 20
	numberAttempts   = 3
	defaultPayMethod = models.MethodPagoMovil
)

type StoreStatus interface {
	IsOpen(ctx context.Context) (bool, error)
}

type BowlComposer interface {
	Compose(ctx context.Context, req composer.BowlRequest) (models.BowlLineItem, error)
}

type RateSnapshotter interface {
	Snapshot(ctx context.Context) (models.RateSnapshot, error)
}

type StockLedger interface {
	DeductOrderStock(ctx context.Context, order *models.Order) ([]models.StockMovement, error)
	// RemoveOrder restores stock and deletes the order in one transaction.
	RemoveOrder(ctx context.Context, order *models.Order) ([]models.StockMovement, error)
}

type Dispatcher interface {
	Dispatch(order *models.Order, status models.OrderStatus)
}

type Deps struct {
	Store      Store
	Settings   StoreStatus
	Composer   BowlComposer
	Rates      RateSnapshotter
	Stock      StockLedger
	Dispatcher Dispatcher
	Log        *logrus.Entry
}

// Service runs the order lifecycle: creation, status changes, payments and
// deletion.
type Service struct {
	store      Store
	settings   StoreStatus
	composer   BowlComposer
	rates      RateSnapshotter
	stock      StockLedger
	dispatcher Dispatcher
	log        *logrus.Entry
}

func NewService(d Deps) *Service {
	return &Service{
		store:      d.Store,
		settings:   d.Settings,
		composer:   d.Composer,
		rates:      d.Rates,
		stock:      d.Stock,
		dispatcher: d.Dispatcher,
		log:        d.Log,
	}
}

type PaymentInput struct {
	Method            models.PaymentMethod
	ReferenceID       string
	ReferenceImageURL string
	// Explicit amounts only take effect together with a split payment.
	AmountBs  *decimal.Decimal
	AmountUsd *decimal.Decimal
}

type SplitPaymentInput struct {
	Method      models.PaymentMethod
	AmountBs    decimal.Decimal
	AmountUsd   decimal.Decimal
	ReferenceID string
}

type CreateOrderInput struct {
	Customer     models.Customer
	Items        []composer.BowlRequest
	Payment      PaymentInput
	DeliveryTime *string
	SplitPayment *SplitPaymentInput
}

func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	open, err := s.settings.IsOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("read store status: %w", err)
	}
	if !open {
		return nil, apperr.New(apperr.KindServiceUnavailable, "La tienda está cerrada en este momento")
	}
	if len(in.Items) == 0 {
		return nil, apperr.Validation("El pedido debe tener al menos un poke bowl")
	}

	method := in.Payment.Method
	if method == "" {
		method = defaultPayMethod
	}
	if !method.Valid() {
		return nil, apperr.Validation("Método de pago inválido")
	}

	items := make([]models.BowlLineItem, 0, len(in.Items))
	subtotal := decimal.Zero
	for _, req := range in.Items {
		line, err := s.composer.Compose(ctx, req)
		if err != nil {
			return nil, err
		}
		items = append(items, line)
		subtotal = subtotal.Add(line.ItemTotal)
	}
	total := subtotal

	rates, err := s.rates.Snapshot(ctx)
	if err != nil {
		logging.LogError(s.log, "CreateOrder", "rate snapshot unavailable, using zero rates",
			nil, apperr.Wrap(apperr.KindExternalService, err, "rate snapshot"))
		rates = models.RateSnapshot{}
	}
	amounts := DeriveAmounts(total, rates)

	var split *models.SplitPayment
	if in.SplitPayment != nil {
		sp, err := newSplitPayment(method, *in.SplitPayment)
		if err != nil {
			return nil, err
		}
		split = sp
		if in.Payment.AmountBs != nil {
			amounts.Bs = *in.Payment.AmountBs
		}
		if in.Payment.AmountUsd != nil {
			amounts.Usd = *in.Payment.AmountUsd
		}
	}

	order := &models.Order{
		Customer: in.Customer,
		Items:    items,
		Subtotal: subtotal,
		Total:    total,
		Payment: models.Payment{
			Method:            method,
			ReferenceID:       in.Payment.ReferenceID,
			ReferenceImageURL: in.Payment.ReferenceImageURL,
			AmountEur:         amounts.Eur,
			AmountBs:          amounts.Bs,
			AmountUsd:         amounts.Usd,
			Rates:             rates,
			Status:            models.PaymentPending,
		},
		SplitPayment: split,
		DeliveryTime: in.DeliveryTime,
		Status:       models.OrderPending,
	}
	if err := s.insertNumbered(ctx, order); err != nil {
		return nil, err
	}

	metrics.OrdersCreated.Inc()
	s.log.WithFields(logrus.Fields{"order": order.OrderNumber, "total": order.Total.String()}).Info("order created")
	return order, nil
}

// insertNumbered assigns the next order number and inserts, retrying when a
// concurrent insert took the same number.
func (s *Service) insertNumbered(ctx context.Context, order *models.Order) error {
	for attempt := 1; ; attempt++ {
		last, err := s.store.LastOrderNumber(ctx)
		if err != nil {
			return fmt.Errorf("load last order number: %w", err)
		}
		number, err := NextOrderNumber(last)
		if err != nil {
			return err
		}
		order.ID = uuid.Nil
		order.OrderNumber = number

		err = s.store.Create(ctx, order)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrDuplicateNumber) || attempt >= numberAttempts {
			return fmt.Errorf("create order: %w", err)
		}
		s.log.WithFields(logrus.Fields{"number": number, "attempt": attempt}).Warn("order number taken, retrying")
	}
}

func newSplitPayment(primary models.PaymentMethod, in SplitPaymentInput) (*models.SplitPayment, error) {
	if !in.Method.Valid() {
		return nil, apperr.Validation("Método de pago dividido inválido")
	}
	if in.Method == primary {
		return nil, apperr.Validation("El pago dividido debe usar un método distinto al principal")
	}
	if in.AmountBs.IsNegative() || in.AmountUsd.IsNegative() {
		return nil, apperr.Validation("Los montos del pago dividido no pueden ser negativos")
	}
	return &models.SplitPayment{
		Method:      in.Method,
		AmountBs:    in.AmountBs,
		AmountUsd:   in.AmountUsd,
		ReferenceID: in.ReferenceID,
		Status:      models.PaymentPending,
	}, nil
}

// UpdateStatus moves an order along the state machine. Entering confirmed
// deducts stock; if that fails the status is put back.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, to models.OrderStatus) (*models.Order, error) {
	order, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	from := order.Status
	if !CanTransition(from, to) {
		return nil, transitionError(from, to)
	}

	ok, err := s.store.SetStatus(ctx, id, from, to)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if !ok {
		// someone else moved it first
		current, err := s.store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, transitionError(current.Status, to)
	}
	order.Status = to

	if to == models.OrderConfirmed {
		if _, err := s.stock.DeductOrderStock(ctx, order); err != nil {
			if _, rerr := s.store.SetStatus(context.WithoutCancel(ctx), id, to, from); rerr != nil {
				logging.LogError(s.log, "UpdateStatus", "failed to revert status after stock error", order.OrderNumber, rerr)
			}
			return nil, err
		}
	}

	metrics.OrderTransitions.WithLabelValues(string(to)).Inc()
	s.log.WithFields(logrus.Fields{"order": order.OrderNumber, "from": from, "to": to}).Info("order status changed")
	s.dispatcher.Dispatch(order, to)
	return order, nil
}

// DeleteOrder restores the order's stock and removes it.
func (s *Service) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	order, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.stock.RemoveOrder(ctx, order); err != nil {
		return err
	}
	s.log.WithField("order", order.OrderNumber).Info("order deleted")
	return nil
}

func (s *Service) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status models.PaymentStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, apperr.Validation("Estado de pago inválido")
	}
	order, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Payment.Status = status
	if err := s.store.UpdateFields(ctx, order, "payment_status"); err != nil {
		return nil, fmt.Errorf("update payment status: %w", err)
	}
	return order, nil
}

func (s *Service) UpdateSplitPaymentStatus(ctx context.Context, id uuid.UUID, status models.PaymentStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, apperr.Validation("Estado de pago inválido")
	}
	order, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.SplitPayment == nil {
		return nil, apperr.Validation("El pedido no tiene pago dividido")
	}
	order.SplitPayment.Status = status
	if err := s.store.UpdateFields(ctx, order, "split_payment"); err != nil {
		return nil, fmt.Errorf("update split payment: %w", err)
	}
	return order, nil
}

// AddSplitPayment attaches a second payment once, while the order is live.
func (s *Service) AddSplitPayment(ctx context.Context, id uuid.UUID, in SplitPaymentInput) (*models.Order, error) {
	order, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.SplitPayment != nil {
		return nil, apperr.Validation("El pedido ya tiene un pago dividido")
	}
	if order.Status == models.OrderCancelled {
		return nil, apperr.Validation("No se puede agregar un pago a un pedido cancelado")
	}
	sp, err := newSplitPayment(order.Payment.Method, in)
	if err != nil {
		return nil, err
	}
	order.SplitPayment = sp
	if err := s.store.UpdateFields(ctx, order, "split_payment"); err != nil {
		return nil, fmt.Errorf("save split payment: %w", err)
	}
	return order, nil
}

// GetOrder accepts either the order id or its number (case-insensitive).
func (s *Service) GetOrder(ctx context.Context, ref string) (*models.Order, error) {
	ref = strings.TrimSpace(ref)
	if id, err := uuid.Parse(ref); err == nil {
		return s.store.Get(ctx, id)
	}
	return s.store.GetByNumber(ctx, strings.ToUpper(ref))
}

type OrderPage struct {
	Orders     []models.Order `json:"orders"`
	Pagination paging.Meta    `json:"pagination"`
}

func (s *Service) ListOrders(ctx context.Context, f ListFilter) (*OrderPage, error) {
	if f.Status != "" {
		if _, ok := transitions[f.Status]; !ok {
			return nil, apperr.Validation("status inválido")
		}
	}
	f.Page, f.Limit = paging.Normalize(f.Page, f.Limit, defaultListLimit)
	list, total, err := s.store.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if list == nil {
		list = []models.Order{}
	}
	return &OrderPage{Orders: list, Pagination: paging.NewMeta(f.Page, f.Limit, total)}, nil
}
