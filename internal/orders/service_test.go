package orders

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"japoke-backend/internal/apperr"
	"japoke-backend/internal/composer"
	"japoke-backend/internal/logging"
	"japoke-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	basePoke    = uuid.New()
	premiumPoke = uuid.New()
)

type harness struct {
	store  *memStore
	ledger *countingLedger
	notes  *syncDispatcher
	svc    *Service
}

func newHarness(t *testing.T, mutate func(*Deps)) *harness {
	t.Helper()
	store := newMemStore()
	h := &harness{store: store, ledger: &countingLedger{orders: store}, notes: &syncDispatcher{}}
	d := Deps{
		Store:    h.store,
		Settings: openFlag{open: true},
		Composer: priceComposer{prices: map[uuid.UUID]decimal.Decimal{
			basePoke:    decimal.NewFromInt(9),
			premiumPoke: decimal.NewFromInt(1),
		}},
		Rates: staticRates{snap: models.RateSnapshot{
			EuroBcv:       decimal.RequireFromString("470.28"),
			DolarBcv:      decimal.RequireFromString("64.50"),
			DolarParalelo: decimal.RequireFromString("532.98"),
		}},
		Stock:      h.ledger,
		Dispatcher: h.notes,
		Log:        logging.Module(logging.Discard(), "orders"),
	}
	if mutate != nil {
		mutate(&d)
	}
	h.svc = NewService(d)
	return h
}

func bowls(ids ...uuid.UUID) []composer.BowlRequest {
	out := make([]composer.BowlRequest, len(ids))
	for i, id := range ids {
		out[i] = composer.BowlRequest{PokeType: id}
	}
	return out
}

func (h *harness) create(t *testing.T, in CreateOrderInput) *models.Order {
	t.Helper()
	if in.Items == nil {
		in.Items = bowls(basePoke)
	}
	o, err := h.svc.CreateOrder(context.Background(), in)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return o
}

func TestTransitions(t *testing.T) {
	all := []models.OrderStatus{models.OrderPending, models.OrderConfirmed, models.OrderPreparing, models.OrderReady, models.OrderDelivered, models.OrderCancelled}
	allowed := map[[2]models.OrderStatus]bool{
		{models.OrderPending, models.OrderConfirmed}:   true,
		{models.OrderPending, models.OrderCancelled}:   true,
		{models.OrderConfirmed, models.OrderPreparing}: true,
		{models.OrderConfirmed, models.OrderCancelled}: true,
		{models.OrderPreparing, models.OrderReady}:     true,
		{models.OrderPreparing, models.OrderCancelled}: true,
		{models.OrderReady, models.OrderDelivered}:     true,
	}
	for _, from := range all {
		for _, to := range all {
			if got := CanTransition(from, to); got != allowed[[2]models.OrderStatus{from, to}] {
				t.Fatalf("CanTransition(%s, %s) = %v", from, to, got)
			}
		}
	}

	err := transitionError(models.OrderDelivered, models.OrderPending)
	if !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("kind %s", apperr.KindOf(err))
	}
	if want := "No se puede cambiar de 'delivered' a 'pending'. Transiciones válidas: ninguna"; err.Error() != want {
		t.Fatalf("message %q", err.Error())
	}
}

func TestNextOrderNumber(t *testing.T) {
	cases := []struct {
		last, want string
	}{
		{"", "JAP-0001"},
		{"JAP-0001", "JAP-0002"},
		{"JAP-0099", "JAP-0100"},
		{"JAP-9999", "JAP-10000"},
	}
	for _, tc := range cases {
		got, err := NextOrderNumber(tc.last)
		if err != nil || got != tc.want {
			t.Fatalf("NextOrderNumber(%q) = %q, %v; want %q", tc.last, got, err, tc.want)
		}
	}
	if _, err := NextOrderNumber("JAP-XYZ"); err == nil {
		t.Fatal("expected error for malformed number")
	}
}

func TestDeriveAmounts(t *testing.T) {
	rates := models.RateSnapshot{
		EuroBcv:       decimal.RequireFromString("470.28"),
		DolarParalelo: decimal.RequireFromString("532.98"),
	}
	a := DeriveAmounts(decimal.NewFromInt(10), rates)
	if !a.Bs.Equal(decimal.RequireFromString("4702.80")) {
		t.Fatalf("amountBs %s", a.Bs)
	}
	if !a.Usd.Equal(decimal.RequireFromString("8.82")) {
		t.Fatalf("amountUsd %s", a.Usd)
	}

	none := DeriveAmounts(decimal.NewFromInt(10), models.RateSnapshot{})
	if !none.Bs.IsZero() || !none.Usd.IsZero() || !none.Eur.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("missing rates %+v", none)
	}
}

func TestCreateOrder(t *testing.T) {
	h := newHarness(t, nil)
	o := h.create(t, CreateOrderInput{
		Customer: models.Customer{Name: "Ana Rojas"},
		Items:    bowls(basePoke, premiumPoke),
	})

	if o.OrderNumber != "JAP-0001" || o.Status != models.OrderPending || o.Payment.Status != models.PaymentPending {
		t.Fatalf("order %s %s %s", o.OrderNumber, o.Status, o.Payment.Status)
	}
	if !o.Total.Equal(decimal.NewFromInt(10)) || !o.Subtotal.Equal(o.Total) {
		t.Fatalf("total %s subtotal %s", o.Total, o.Subtotal)
	}
	if o.Payment.Method != models.MethodPagoMovil {
		t.Fatalf("default method %s", o.Payment.Method)
	}
	if !o.Payment.AmountBs.Equal(decimal.RequireFromString("4702.80")) || !o.Payment.AmountUsd.Equal(decimal.RequireFromString("8.82")) {
		t.Fatalf("amounts bs=%s usd=%s", o.Payment.AmountBs, o.Payment.AmountUsd)
	}
	if !o.Payment.Rates.DolarBcv.Equal(decimal.RequireFromString("64.50")) {
		t.Fatalf("rates not frozen into payment: %+v", o.Payment.Rates)
	}
	if len(h.ledger.deducted) != 0 {
		t.Fatal("pending order reserved stock")
	}
}

func TestCreateOrderNumbersAreSequential(t *testing.T) {
	h := newHarness(t, nil)
	prev := ""
	for i := 1; i <= 12; i++ {
		o := h.create(t, CreateOrderInput{})
		want := fmt.Sprintf("JAP-%04d", i)
		if o.OrderNumber != want {
			t.Fatalf("order %d numbered %s, want %s", i, o.OrderNumber, want)
		}
		if o.OrderNumber <= prev {
			t.Fatalf("%s not after %s", o.OrderNumber, prev)
		}
		prev = o.OrderNumber
	}
}

func TestCreateOrderRetriesTakenNumber(t *testing.T) {
	h := newHarness(t, nil)
	h.store.collide = 2

	o := h.create(t, CreateOrderInput{})
	if o.OrderNumber != "JAP-0003" {
		t.Fatalf("got %s after two collisions, want JAP-0003", o.OrderNumber)
	}

	h.store.collide = numberAttempts
	_, err := h.svc.CreateOrder(context.Background(), CreateOrderInput{Items: bowls(basePoke)})
	if !errors.Is(err, ErrDuplicateNumber) {
		t.Fatalf("got %v, want duplicate after %d attempts", err, numberAttempts)
	}
}

func TestCreateOrderRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Deps)
		in     CreateOrderInput
		kind   apperr.Kind
	}{
		{
			name:   "store closed",
			mutate: func(d *Deps) { d.Settings = openFlag{open: false} },
			in:     CreateOrderInput{Items: bowls(basePoke)},
			kind:   apperr.KindServiceUnavailable,
		},
		{
			name: "no items",
			in:   CreateOrderInput{},
			kind: apperr.KindValidation,
		},
		{
			name:   "composer failure",
			mutate: func(d *Deps) { d.Composer = priceComposer{err: apperr.New(apperr.KindItemUnavailable, "Salmón no está disponible")} },
			in:     CreateOrderInput{Items: bowls(basePoke)},
			kind:   apperr.KindItemUnavailable,
		},
		{
			name: "split with same method",
			in: CreateOrderInput{
				Items:        bowls(basePoke),
				Payment:      PaymentInput{Method: models.MethodEfectivoUSD},
				SplitPayment: &SplitPaymentInput{Method: models.MethodEfectivoUSD},
			},
			kind: apperr.KindValidation,
		},
		{
			name: "unknown method",
			in:   CreateOrderInput{Items: bowls(basePoke), Payment: PaymentInput{Method: "paypal"}},
			kind: apperr.KindValidation,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, tc.mutate)
			_, err := h.svc.CreateOrder(context.Background(), tc.in)
			if !apperr.Is(err, tc.kind) {
				t.Fatalf("got %v, want %s", err, tc.kind)
			}
			if len(h.store.orders) != 0 {
				t.Fatal("rejected order was stored")
			}
		})
	}
}

func TestCreateOrderWithoutRates(t *testing.T) {
	h := newHarness(t, func(d *Deps) { d.Rates = staticRates{err: errors.New("db down")} })
	o := h.create(t, CreateOrderInput{})
	if !o.Payment.AmountBs.IsZero() || !o.Payment.AmountUsd.IsZero() || !o.Payment.AmountEur.Equal(decimal.NewFromInt(9)) {
		t.Fatalf("payment %+v", o.Payment)
	}
}

func TestCreateOrderSplitOverride(t *testing.T) {
	h := newHarness(t, nil)
	bs := decimal.RequireFromString("2000")
	o := h.create(t, CreateOrderInput{
		Payment: PaymentInput{Method: models.MethodPagoMovil, AmountBs: &bs},
		SplitPayment: &SplitPaymentInput{
			Method:    models.MethodEfectivoUSD,
			AmountUsd: decimal.RequireFromString("5"),
		},
	})
	if !o.Payment.AmountBs.Equal(bs) {
		t.Fatalf("explicit amountBs not kept: %s", o.Payment.AmountBs)
	}
	// amountUsd was not given explicitly, so it stays derived
	if o.Payment.AmountUsd.IsZero() {
		t.Fatal("derived amountUsd dropped")
	}
	if o.SplitPayment == nil || !o.SplitPayment.AmountUsd.Equal(decimal.NewFromInt(5)) || o.SplitPayment.Status != models.PaymentPending {
		t.Fatalf("split %+v", o.SplitPayment)
	}

	// explicit amounts without a split are ignored
	o = h.create(t, CreateOrderInput{Payment: PaymentInput{AmountBs: &bs}})
	if o.Payment.AmountBs.Equal(bs) {
		t.Fatal("explicit amount applied without split payment")
	}
}

func TestUpdateStatusDeductsOnceOnConfirm(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	o := h.create(t, CreateOrderInput{})

	for _, to := range []models.OrderStatus{models.OrderConfirmed, models.OrderPreparing, models.OrderReady, models.OrderDelivered} {
		if _, err := h.svc.UpdateStatus(ctx, o.ID, to); err != nil {
			t.Fatalf("-> %s: %v", to, err)
		}
	}
	if len(h.ledger.deducted) != 1 || h.ledger.deducted[0] != o.ID {
		t.Fatalf("deducted %v, want exactly once", h.ledger.deducted)
	}
	if len(h.notes.sent) != 4 {
		t.Fatalf("dispatched %d notifications, want 4", len(h.notes.sent))
	}

	if _, err := h.svc.UpdateStatus(ctx, o.ID, models.OrderConfirmed); !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("delivered -> confirmed: %v", err)
	}
	if len(h.ledger.deducted) != 1 {
		t.Fatal("invalid transition deducted stock")
	}
}

func TestUpdateStatusRevertsWhenDeductionFails(t *testing.T) {
	h := newHarness(t, nil)
	h.ledger.deductErr = errors.New("deadlock")
	o := h.create(t, CreateOrderInput{})

	if _, err := h.svc.UpdateStatus(context.Background(), o.ID, models.OrderConfirmed); err == nil {
		t.Fatal("expected deduction error")
	}
	stored, _ := h.store.Get(context.Background(), o.ID)
	if stored.Status != models.OrderPending {
		t.Fatalf("status %s, want reverted to pending", stored.Status)
	}
	if len(h.notes.sent) != 0 {
		t.Fatal("notification sent for failed transition")
	}
}

func TestUpdateStatusLosesRace(t *testing.T) {
	h := newHarness(t, nil)
	o := h.create(t, CreateOrderInput{})
	ctx := context.Background()

	// another request cancels between our read and write
	if _, err := h.svc.UpdateStatus(ctx, o.ID, models.OrderCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	ok, _ := h.store.SetStatus(ctx, o.ID, models.OrderPending, models.OrderConfirmed)
	if ok {
		t.Fatal("conditional update ignored the current status")
	}
	if _, err := h.svc.UpdateStatus(ctx, o.ID, models.OrderConfirmed); !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("got %v", err)
	}
	if len(h.ledger.deducted) != 0 {
		t.Fatal("cancelled order deducted stock")
	}
}

func TestDeleteOrderRestoresStock(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	o := h.create(t, CreateOrderInput{})

	if err := h.svc.DeleteOrder(ctx, o.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(h.ledger.restored) != 1 {
		t.Fatal("stock not restored")
	}
	if _, err := h.svc.GetOrder(ctx, o.ID.String()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("deleted order still found: %v", err)
	}
	if err := h.svc.DeleteOrder(ctx, o.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}

func TestDeleteOrderRetryRestoresOnce(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	o := h.create(t, CreateOrderInput{})
	h.ledger.failRemoves = 1

	if err := h.svc.DeleteOrder(ctx, o.ID); !errors.Is(err, errRemoveFailed) {
		t.Fatalf("first delete: got %v", err)
	}
	if len(h.ledger.restored) != 0 {
		t.Fatal("failed delete counted a restore")
	}
	if _, err := h.svc.GetOrder(ctx, o.ID.String()); err != nil {
		t.Fatalf("order gone after failed delete: %v", err)
	}

	if err := h.svc.DeleteOrder(ctx, o.ID); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(h.ledger.restored) != 1 {
		t.Fatalf("restores = %d, want 1", len(h.ledger.restored))
	}
}

func TestPayments(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	o := h.create(t, CreateOrderInput{})

	for _, s := range []models.PaymentStatus{models.PaymentVerified, models.PaymentRejected, models.PaymentPending, models.PaymentVerified} {
		got, err := h.svc.UpdatePaymentStatus(ctx, o.ID, s)
		if err != nil || got.Payment.Status != s {
			t.Fatalf("payment -> %s: %v", s, err)
		}
	}
	if _, err := h.svc.UpdatePaymentStatus(ctx, o.ID, "paid"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("bad status: %v", err)
	}

	if _, err := h.svc.UpdateSplitPaymentStatus(ctx, o.ID, models.PaymentVerified); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("split status without split: %v", err)
	}
	if _, err := h.svc.AddSplitPayment(ctx, o.ID, SplitPaymentInput{Method: models.MethodPagoMovil}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("same-method split: %v", err)
	}
	if _, err := h.svc.AddSplitPayment(ctx, o.ID, SplitPaymentInput{Method: models.MethodBinanceUSDT, AmountUsd: decimal.NewFromInt(3)}); err != nil {
		t.Fatalf("add split: %v", err)
	}
	if _, err := h.svc.AddSplitPayment(ctx, o.ID, SplitPaymentInput{Method: models.MethodEfectivoUSD}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("second split: %v", err)
	}
	got, err := h.svc.UpdateSplitPaymentStatus(ctx, o.ID, models.PaymentVerified)
	if err != nil || got.SplitPayment.Status != models.PaymentVerified {
		t.Fatalf("split status: %v", err)
	}

	cancelled := h.create(t, CreateOrderInput{})
	if _, err := h.svc.UpdateStatus(ctx, cancelled.ID, models.OrderCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := h.svc.AddSplitPayment(ctx, cancelled.ID, SplitPaymentInput{Method: models.MethodEfectivoUSD}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("split on cancelled: %v", err)
	}
}

func TestGetAndListOrders(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	var last *models.Order
	for i := 0; i < 25; i++ {
		last = h.create(t, CreateOrderInput{})
	}

	byNumber, err := h.svc.GetOrder(ctx, "jap-0025")
	if err != nil || byNumber.ID != last.ID {
		t.Fatalf("lookup by number: %v", err)
	}
	byID, err := h.svc.GetOrder(ctx, last.ID.String())
	if err != nil || byID.OrderNumber != "JAP-0025" {
		t.Fatalf("lookup by id: %v", err)
	}

	page, err := h.svc.ListOrders(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Orders) != defaultListLimit || page.Pagination.TotalCount != 25 || page.Pagination.TotalPages != 2 {
		t.Fatalf("page %d rows %+v", len(page.Orders), page.Pagination)
	}
	if page.Orders[0].OrderNumber != "JAP-0025" {
		t.Fatalf("list not newest first: %s", page.Orders[0].OrderNumber)
	}

	if _, err := h.svc.ListOrders(ctx, ListFilter{Status: "lost"}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("bad status filter: %v", err)
	}
}
