package inventory

import (
	"context"

	"japoke-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Holder is the stock-relevant view of an Item or a Supply.
type Holder struct {
	Ref          models.StockRef
	Name         string
	CurrentStock float64
	MinStock     float64
	PortionSize  float64
	TrackingUnit models.TrackingUnit
	IsTrackable  bool
}

// StockChange is the result of one locked read-modify-write.
type StockChange struct {
	Name     string
	Previous float64
	New      float64
}

type MovementFilter struct {
	RefModel models.RefModel
	RefID    *uuid.UUID
	Type     models.MovementType
	Page     int
	Limit    int
}

// Store is the persistence the ledger needs. Stock writes lock the holder
// row until the surrounding transaction ends.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Store) error) error

	Holder(ctx context.Context, ref models.StockRef) (Holder, error)
	ApplyDelta(ctx context.Context, ref models.StockRef, delta float64, clampAtZero bool) (StockChange, error)
	SetStock(ctx context.Context, ref models.StockRef, value float64) (StockChange, error)
	SetUnitCost(ctx context.Context, ref models.StockRef, cost decimal.Decimal) error

	TrackableItemsByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Item, error)
	PokeTypesByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.PokeType, error)
	TrackableItems(ctx context.Context) ([]models.Item, error)
	Supplies(ctx context.Context, activeOnly bool) ([]models.Supply, error)

	CreateMovement(ctx context.Context, m *models.StockMovement) error
	CreatePurchase(ctx context.Context, p *models.Purchase) error
	Movements(ctx context.Context, f MovementFilter) ([]models.StockMovement, int64, error)

	DeleteOrder(ctx context.Context, id uuid.UUID) error
}
