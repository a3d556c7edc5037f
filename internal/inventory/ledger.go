package inventory

import (
	"context"
	"fmt"
	"math"
	"time"

	"japoke-backend/internal/apperr"
	"japoke-backend/internal/lock"
	"japoke-backend/internal/logging"
	"japoke-backend/internal/metrics"
	"japoke-backend/internal/models"
	"japoke-backend/internal/paging"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	createdBySystem      = "system"
	createdByAdmin       = "admin"
	purchaseCurrency     = "USD"
	defaultMovementLimit = 30
)

type RateSnapshotter interface {
	Snapshot(ctx context.Context) (models.RateSnapshot, error)
}

// Ledger owns stock levels for items and supplies. Every change goes
// through a locked row update and leaves a StockMovement behind.
type Ledger struct {
	store  Store
	locker lock.Locker
	rates  RateSnapshotter
	log    *logrus.Entry
	now    func() time.Time
}

func NewLedger(store Store, locker lock.Locker, rates RateSnapshotter, log *logrus.Entry) *Ledger {
	return &Ledger{
		store:  store,
		locker: locker,
		rates:  rates,
		log:    log,
		now:    time.Now,
	}
}

type PurchaseInput struct {
	Ref        models.StockRef
	Quantity   float64
	UnitCost   decimal.Decimal
	Notes      string
	UpdateCost bool
	CreatedBy  string
}

type PurchaseResult struct {
	Purchase      models.Purchase      `json:"purchase"`
	Movement      models.StockMovement `json:"movement"`
	PreviousStock float64              `json:"previousStock"`
	NewStock      float64              `json:"newStock"`
}

// RecordPurchase adds stock, optionally overwrites the holder's unit cost and
// stores the purchase with whatever rates were available.
func (l *Ledger) RecordPurchase(ctx context.Context, in PurchaseInput) (*PurchaseResult, error) {
	if !in.Ref.Model.Valid() {
		return nil, apperr.Validation("refModel debe ser Item o Supply")
	}
	if in.Quantity <= 0 {
		return nil, apperr.Validation("La cantidad debe ser mayor a 0")
	}
	if in.UnitCost.IsNegative() {
		return nil, apperr.Validation("El costo unitario no puede ser negativo")
	}
	createdBy := in.CreatedBy
	if createdBy == "" {
		createdBy = createdByAdmin
	}

	rates, err := l.rates.Snapshot(ctx)
	if err != nil {
		logging.LogWarn(l.log, "RecordPurchase", "rate snapshot unavailable, storing purchase without rates", in.Ref.String(), err)
		rates = models.RateSnapshot{}
	}

	var res PurchaseResult
	err = l.store.WithinTx(ctx, func(tx Store) error {
		h, err := tx.Holder(ctx, in.Ref)
		if err != nil {
			return err
		}
		change, err := tx.ApplyDelta(ctx, in.Ref, in.Quantity, false)
		if err != nil {
			return err
		}
		if in.UpdateCost {
			if err := tx.SetUnitCost(ctx, in.Ref, in.UnitCost); err != nil {
				return fmt.Errorf("update unit cost: %w", err)
			}
		}

		now := l.now()
		res.Purchase = models.Purchase{
			Ref:       in.Ref,
			Quantity:  in.Quantity,
			Unit:      h.TrackingUnit,
			UnitCost:  in.UnitCost,
			TotalCost: in.UnitCost.Mul(decimal.NewFromFloat(in.Quantity)),
			Currency:  purchaseCurrency,
			Rates:     rates,
			Date:      now,
			Notes:     in.Notes,
		}
		if err := tx.CreatePurchase(ctx, &res.Purchase); err != nil {
			return fmt.Errorf("create purchase: %w", err)
		}

		notes := in.Notes
		if notes == "" {
			notes = fmt.Sprintf("Compra registrada: %g unidades", in.Quantity)
		}
		res.Movement = models.StockMovement{
			Ref:           in.Ref,
			Type:          models.MovementPurchase,
			Quantity:      in.Quantity,
			PreviousStock: change.Previous,
			NewStock:      change.New,
			Notes:         notes,
			CreatedBy:     createdBy,
		}
		if err := tx.CreateMovement(ctx, &res.Movement); err != nil {
			return fmt.Errorf("create movement: %w", err)
		}
		res.PreviousStock, res.NewStock = change.Previous, change.New
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.StockMovements.WithLabelValues(string(models.MovementPurchase)).Inc()
	return &res, nil
}

// Holder returns the current stock view of an item or supply.
func (l *Ledger) Holder(ctx context.Context, ref models.StockRef) (Holder, error) {
	if !ref.Model.Valid() {
		return Holder{}, apperr.Validation("refModel debe ser Item o Supply")
	}
	return l.store.Holder(ctx, ref)
}

type AdjustInput struct {
	Ref       models.StockRef
	NewStock  float64
	Reason    models.MovementType
	Notes     string
	CreatedBy string
}

// AdjustStock sets an absolute stock level, recording the signed difference.
func (l *Ledger) AdjustStock(ctx context.Context, in AdjustInput) (*models.StockMovement, error) {
	if !in.Ref.Model.Valid() {
		return nil, apperr.Validation("refModel debe ser Item o Supply")
	}
	if in.NewStock < 0 || math.IsNaN(in.NewStock) {
		return nil, apperr.Validation("El stock no puede ser negativo")
	}
	reason := in.Reason
	if reason == "" {
		reason = models.MovementManualAdjustment
	}
	if reason != models.MovementManualAdjustment && reason != models.MovementWaste {
		return nil, apperr.Validation("reason debe ser manual_adjustment o waste")
	}
	createdBy := in.CreatedBy
	if createdBy == "" {
		createdBy = createdByAdmin
	}

	var mv models.StockMovement
	err := l.store.WithinTx(ctx, func(tx Store) error {
		change, err := tx.SetStock(ctx, in.Ref, in.NewStock)
		if err != nil {
			return err
		}
		mv = models.StockMovement{
			Ref:           in.Ref,
			Type:          reason,
			Quantity:      change.New - change.Previous,
			PreviousStock: change.Previous,
			NewStock:      change.New,
			Notes:         in.Notes,
			CreatedBy:     createdBy,
		}
		return tx.CreateMovement(ctx, &mv)
	})
	if err != nil {
		return nil, err
	}
	metrics.StockMovements.WithLabelValues(string(reason)).Inc()
	return &mv, nil
}

// DeductOrderStock consumes the order's trackable ingredients and the
// supplies of each bowl's poke type. The whole order commits or nothing does.
func (l *Ledger) DeductOrderStock(ctx context.Context, order *models.Order) ([]models.StockMovement, error) {
	return l.applyOrder(ctx, order, directionDeduct, nil)
}

// RestoreOrderStock adds back exactly what DeductOrderStock would consume.
func (l *Ledger) RestoreOrderStock(ctx context.Context, order *models.Order) ([]models.StockMovement, error) {
	return l.applyOrder(ctx, order, directionRestore, nil)
}

// RemoveOrder restores the order's stock and deletes the order row in the
// same transaction. A failed delete leaves stock untouched.
func (l *Ledger) RemoveOrder(ctx context.Context, order *models.Order) ([]models.StockMovement, error) {
	return l.applyOrder(ctx, order, directionRestore, func(ctx context.Context, tx Store) error {
		return tx.DeleteOrder(ctx, order.ID)
	})
}

type direction int

const (
	directionDeduct direction = iota
	directionRestore
)

func orderLockKey(id uuid.UUID) string {
	return "order-stock:" + id.String()
}

func (l *Ledger) applyOrder(ctx context.Context, order *models.Order, dir direction, finish func(ctx context.Context, tx Store) error) ([]models.StockMovement, error) {
	var movements []models.StockMovement
	err := l.locker.WithLock(ctx, orderLockKey(order.ID), func(ctx context.Context) error {
		movements = nil
		return l.store.WithinTx(ctx, func(tx Store) error {
			items, err := tx.TrackableItemsByID(ctx, OrderItemIDs(order))
			if err != nil {
				return fmt.Errorf("load items: %w", err)
			}
			pokeTypes, err := tx.PokeTypesByID(ctx, OrderPokeTypeIDs(order))
			if err != nil {
				return fmt.Errorf("load poke types: %w", err)
			}

			for _, u := range PlanOrderUsage(order, items, pokeTypes) {
				mv, skipped, err := l.applyUsage(ctx, tx, order, u, dir)
				if err != nil {
					return err
				}
				if skipped {
					continue
				}
				movements = append(movements, mv)
			}
			if finish != nil {
				return finish(ctx, tx)
			}
			return nil
		})
	})
	if err != nil {
		logging.LogError(l.log, "applyOrder", "order stock update rolled back", order.OrderNumber, err)
		return nil, err
	}
	for _, mv := range movements {
		metrics.StockMovements.WithLabelValues(string(mv.Type)).Inc()
	}
	return movements, nil
}

func (l *Ledger) applyUsage(ctx context.Context, tx Store, order *models.Order, u Usage, dir direction) (models.StockMovement, bool, error) {
	delta, typ, clamp := -u.Amount, models.MovementOrderUsage, true
	notes := "Pedido " + order.OrderNumber
	if dir == directionRestore {
		delta, typ, clamp = u.Amount, models.MovementManualAdjustment, false
		notes = "Reversa eliminación pedido " + order.OrderNumber
	}

	change, err := tx.ApplyDelta(ctx, u.Ref, delta, clamp)
	if err != nil {
		// a supply removed from the catalog is skipped, not fatal
		if u.Ref.Model == models.RefSupply && apperr.Is(err, apperr.KindNotFound) {
			return models.StockMovement{}, true, nil
		}
		return models.StockMovement{}, false, err
	}
	if u.Ref.Model == models.RefSupply {
		notes += " - " + change.Name
	}

	orderID := order.ID
	mv := models.StockMovement{
		Ref:           u.Ref,
		Type:          typ,
		Quantity:      delta,
		PreviousStock: change.Previous,
		NewStock:      change.New,
		OrderID:       &orderID,
		Notes:         notes,
		CreatedBy:     createdBySystem,
	}
	if err := tx.CreateMovement(ctx, &mv); err != nil {
		return models.StockMovement{}, false, fmt.Errorf("create movement: %w", err)
	}
	return mv, false, nil
}

type StockStatus string

const (
	StatusCritical StockStatus = "critical"
	StatusLow      StockStatus = "low"
	StatusOK       StockStatus = "ok"
)

func StatusOf(current, min float64) StockStatus {
	switch {
	case current <= 0:
		return StatusCritical
	case current <= min:
		return StatusLow
	default:
		return StatusOK
	}
}

func availablePortions(current, portion float64) *int64 {
	if portion <= 0 {
		return nil
	}
	n := int64(math.Floor(current / portion))
	return &n
}

type ItemAlert struct {
	models.Item
	AvailablePortions *int64 `json:"availablePortions"`
}

type Alerts struct {
	Items    []ItemAlert     `json:"items"`
	Supplies []models.Supply `json:"supplies"`
}

// Alerts lists trackable items and all supplies at or below their minimum.
func (l *Ledger) Alerts(ctx context.Context) (*Alerts, error) {
	items, err := l.store.TrackableItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	supplies, err := l.store.Supplies(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("load supplies: %w", err)
	}

	out := &Alerts{Items: []ItemAlert{}, Supplies: []models.Supply{}}
	for _, it := range items {
		if it.CurrentStock <= it.MinStock {
			out.Items = append(out.Items, ItemAlert{Item: it, AvailablePortions: availablePortions(it.CurrentStock, it.PortionSize)})
		}
	}
	for _, sp := range supplies {
		if sp.CurrentStock <= sp.MinStock {
			out.Supplies = append(out.Supplies, sp)
		}
	}
	return out, nil
}

// AlertCount is the number of entries Alerts would return.
func (l *Ledger) AlertCount(ctx context.Context) (int, error) {
	a, err := l.Alerts(ctx)
	if err != nil {
		return 0, err
	}
	return len(a.Items) + len(a.Supplies), nil
}

type ItemStatus struct {
	models.Item
	AvailablePortions *int64      `json:"availablePortions"`
	Status            StockStatus `json:"status"`
}

type SupplyStatus struct {
	models.Supply
	Status StockStatus `json:"status"`
}

type InventoryStatus struct {
	Items    []ItemStatus   `json:"items"`
	Supplies []SupplyStatus `json:"supplies"`
}

func (l *Ledger) Status(ctx context.Context) (*InventoryStatus, error) {
	items, err := l.store.TrackableItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	supplies, err := l.store.Supplies(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("load supplies: %w", err)
	}

	out := &InventoryStatus{
		Items:    make([]ItemStatus, 0, len(items)),
		Supplies: make([]SupplyStatus, 0, len(supplies)),
	}
	for _, it := range items {
		out.Items = append(out.Items, ItemStatus{
			Item:              it,
			AvailablePortions: availablePortions(it.CurrentStock, it.PortionSize),
			Status:            StatusOf(it.CurrentStock, it.MinStock),
		})
	}
	for _, sp := range supplies {
		out.Supplies = append(out.Supplies, SupplyStatus{Supply: sp, Status: StatusOf(sp.CurrentStock, sp.MinStock)})
	}
	return out, nil
}

type MovementPage struct {
	Movements  []models.StockMovement `json:"movements"`
	Pagination paging.Meta            `json:"pagination"`
}

// Movements returns history newest first, 30 per page unless told otherwise.
func (l *Ledger) Movements(ctx context.Context, f MovementFilter) (*MovementPage, error) {
	if f.RefModel != "" && !f.RefModel.Valid() {
		return nil, apperr.Validation("refModel debe ser Item o Supply")
	}
	if f.Type != "" && !f.Type.Valid() {
		return nil, apperr.Validation("type de movimiento inválido")
	}
	f.Page, f.Limit = paging.Normalize(f.Page, f.Limit, defaultMovementLimit)
	mvs, total, err := l.store.Movements(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("load movements: %w", err)
	}
	if mvs == nil {
		mvs = []models.StockMovement{}
	}
	return &MovementPage{Movements: mvs, Pagination: paging.NewMeta(f.Page, f.Limit, total)}, nil
}
