package inventory

import (
	"context"
	"errors"
	"testing"

	"japoke-backend/internal/apperr"
	"japoke-backend/internal/database/dbtest"
	"japoke-backend/internal/lock"
	"japoke-backend/internal/logging"
	"japoke-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func seedSalmon(t *testing.T, db *gorm.DB, stock float64) *models.Item {
	t.Helper()
	cat := &models.Category{Name: "Proteínas", Slug: "proteinas", Type: models.CategoryProtein, IsActive: true}
	if err := db.Create(cat).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	it := &models.Item{
		Name:         "Salmón",
		Slug:         "salmon",
		CategoryID:   cat.ID,
		Tier:         models.TierPremium,
		PortionSize:  100,
		IsTrackable:  true,
		TrackingUnit: models.UnitGrams,
		CurrentStock: stock,
		IsAvailable:  true,
	}
	if err := db.Create(it).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return it
}

func currentStock(t *testing.T, store *GormStore, ref models.StockRef) float64 {
	t.Helper()
	h, err := store.Holder(context.Background(), ref)
	if err != nil {
		t.Fatalf("Holder(%s): %v", ref, err)
	}
	return h.CurrentStock
}

func TestGormApplyDeltaClampsInsideTx(t *testing.T) {
	db := dbtest.Open(t)
	store := NewGormStore(db)
	ctx := context.Background()
	ref := models.ItemRef(seedSalmon(t, db, 100).ID)

	var change StockChange
	err := store.WithinTx(ctx, func(tx Store) error {
		var err error
		change, err = tx.ApplyDelta(ctx, ref, -500, true)
		return err
	})
	if err != nil {
		t.Fatalf("WithinTx: %v", err)
	}
	if change.Previous != 100 || change.New != 0 {
		t.Fatalf("change = %+v, want 100 -> 0", change)
	}
	if got := currentStock(t, store, ref); got != 0 {
		t.Fatalf("stock %v, want 0", got)
	}

	change, err = store.ApplyDelta(ctx, ref, -30, false)
	if err != nil {
		t.Fatalf("unclamped ApplyDelta: %v", err)
	}
	if change.New != -30 {
		t.Fatalf("unclamped new = %v, want -30", change.New)
	}
}

func TestGormWithinTxRollsBack(t *testing.T) {
	db := dbtest.Open(t)
	store := NewGormStore(db)
	ctx := context.Background()
	ref := models.ItemRef(seedSalmon(t, db, 100).ID)

	err := store.WithinTx(ctx, func(tx Store) error {
		if _, err := tx.ApplyDelta(ctx, ref, 50, true); err != nil {
			return err
		}
		return errInjected
	})
	if !errors.Is(err, errInjected) {
		t.Fatalf("got %v, want injected failure", err)
	}
	if got := currentStock(t, store, ref); got != 100 {
		t.Fatalf("stock %v after rollback, want 100", got)
	}
}

func TestGormRemoveOrder(t *testing.T) {
	db := dbtest.Open(t)
	store := NewGormStore(db)
	ledger := NewLedger(store, lock.NewLocal(), fixedRates{}, logging.Module(logging.Discard(), "inventory"))
	ctx := context.Background()
	salmon := seedSalmon(t, db, 1000)
	ref := models.ItemRef(salmon.ID)

	order := &models.Order{
		OrderNumber: "JAP-0001",
		Items: []models.BowlLineItem{{
			Proteins: []models.ProteinSelection{{ItemID: salmon.ID, Quantity: 150}},
		}},
		Subtotal: decimal.NewFromInt(9),
		Total:    decimal.NewFromInt(9),
		Payment:  models.Payment{Method: models.MethodPagoMovil, Status: models.PaymentPending},
		Status:   models.OrderConfirmed,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}

	mvs, err := ledger.RemoveOrder(ctx, order)
	if err != nil {
		t.Fatalf("RemoveOrder: %v", err)
	}
	if len(mvs) != 1 || mvs[0].NewStock != 1150 {
		t.Fatalf("movements = %+v, want one restore to 1150", mvs)
	}
	if got := currentStock(t, store, ref); got != 1150 {
		t.Fatalf("stock %v, want 1150", got)
	}

	// the row is gone, so the restore must roll back
	if _, err := ledger.RemoveOrder(ctx, order); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("second remove: %v", err)
	}
	if got := currentStock(t, store, ref); got != 1150 {
		t.Fatalf("stock %v after removing a missing order, want 1150", got)
	}
	var movements int64
	if err := db.Model(&models.StockMovement{}).Count(&movements).Error; err != nil {
		t.Fatalf("count movements: %v", err)
	}
	if movements != 1 {
		t.Fatalf("%d movements stored, want 1", movements)
	}
}
