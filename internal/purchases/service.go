// Package purchases keeps supplier invoices paid in Bs. Lines linked to an
// item or supply feed the inventory ledger as stock purchases.
package purchases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"japoke-backend/internal/apperr"
	"japoke-backend/internal/inventory"
	"japoke-backend/internal/logging"
	"japoke-backend/internal/models"
	"japoke-backend/internal/paging"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	defaultListLimit = 50
	importedNote     = "Importado desde compra financiera"
)

// StockApplier is the part of the inventory ledger invoices write through.
type StockApplier interface {
	Holder(ctx context.Context, ref models.StockRef) (inventory.Holder, error)
	RecordPurchase(ctx context.Context, in inventory.PurchaseInput) (*inventory.PurchaseResult, error)
}

type Service struct {
	store Store
	stock StockApplier
	log   *logrus.Entry
	now   func() time.Time
}

func NewService(store Store, stock StockApplier, log *logrus.Entry) *Service {
	return &Service{store: store, stock: stock, log: log, now: time.Now}
}

type LineInput struct {
	Name        string
	Quantity    float64
	Unit        models.PurchaseUnit
	UnitPriceBs decimal.Decimal
	SubtotalBs  *decimal.Decimal
	Ref         *models.StockRef
}

type CreateInput struct {
	Date          *time.Time
	Supplier      string
	InvoiceNumber string
	Description   string
	Lines         []LineInput
	TotalBs       *decimal.Decimal
	BcvRate       decimal.Decimal
	UsdtRate      decimal.Decimal
	Notes         string
	CreatedBy     string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.SupplierPurchase, error) {
	supplier := strings.TrimSpace(in.Supplier)
	if supplier == "" {
		return nil, apperr.Validation("El proveedor es requerido")
	}
	if !in.BcvRate.IsPositive() || !in.UsdtRate.IsPositive() {
		return nil, apperr.Validation("Las tasas BCV y USDT deben ser mayores a 0")
	}

	p := &models.SupplierPurchase{
		Supplier:      supplier,
		InvoiceNumber: strings.TrimSpace(in.InvoiceNumber),
		Description:   strings.TrimSpace(in.Description),
		BcvRate:       in.BcvRate,
		UsdtRate:      in.UsdtRate,
		Notes:         strings.TrimSpace(in.Notes),
		Date:          s.now(),
	}
	if in.Date != nil {
		p.Date = *in.Date
	}

	sum := decimal.Zero
	for i, l := range in.Lines {
		line, err := buildLine(i, l)
		if err != nil {
			return nil, err
		}
		sum = sum.Add(line.SubtotalBs)
		p.Lines = append(p.Lines, line)
	}
	p.TotalBs = sum
	if in.TotalBs != nil {
		if in.TotalBs.IsNegative() {
			return nil, apperr.Validation("El total en Bs no puede ser negativo")
		}
		p.TotalBs = *in.TotalBs
	}
	p.TotalUsd = p.TotalBs.DivRound(p.BcvRate, 4)
	p.TotalUsdt = p.TotalBs.DivRound(p.UsdtRate, 4)

	if err := s.store.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create purchase: %w", err)
	}

	var applied []uuid.UUID
	for i := range p.Lines {
		line := &p.Lines[i]
		if _, linked := line.Ref(); !linked {
			continue
		}
		if err := s.applyLine(ctx, line, p.BcvRate, in.CreatedBy); err != nil {
			logging.LogError(s.log, "Create", "stock not applied for purchase line", logrus.Fields{
				"purchase": p.ID, "line": line.Name, "ref": line.RefID,
			}, err)
			continue
		}
		applied = append(applied, line.ID)
	}
	if err := s.store.MarkStockUpdated(ctx, applied); err != nil {
		return nil, fmt.Errorf("mark stock updated: %w", err)
	}
	for i := range p.Lines {
		for _, id := range applied {
			if p.Lines[i].ID == id {
				p.Lines[i].StockUpdated = true
			}
		}
	}

	s.log.WithFields(logrus.Fields{
		"supplier": p.Supplier,
		"totalBs":  p.TotalBs.String(),
		"lines":    len(p.Lines),
		"applied":  len(applied),
	}).Info("supplier purchase recorded")
	return p, nil
}

func buildLine(pos int, l LineInput) (models.SupplierPurchaseLine, error) {
	name := strings.TrimSpace(l.Name)
	if name == "" {
		return models.SupplierPurchaseLine{}, apperr.Validation("Línea %d: el nombre es requerido", pos+1)
	}
	if l.Quantity <= 0 {
		return models.SupplierPurchaseLine{}, apperr.Validation("Línea %d: la cantidad debe ser mayor a 0", pos+1)
	}
	if !ValidUnit(l.Unit) {
		return models.SupplierPurchaseLine{}, apperr.Validation("Línea %d: unidad inválida", pos+1)
	}
	if l.UnitPriceBs.IsNegative() {
		return models.SupplierPurchaseLine{}, apperr.Validation("Línea %d: el precio no puede ser negativo", pos+1)
	}
	line := models.SupplierPurchaseLine{
		Position:    pos,
		Name:        name,
		Quantity:    l.Quantity,
		Unit:        l.Unit,
		UnitPriceBs: l.UnitPriceBs,
		SubtotalBs:  l.UnitPriceBs.Mul(decimal.NewFromFloat(l.Quantity)),
	}
	if l.SubtotalBs != nil {
		line.SubtotalBs = *l.SubtotalBs
	}
	if l.Ref != nil {
		if !l.Ref.Model.Valid() || l.Ref.ID == uuid.Nil {
			return models.SupplierPurchaseLine{}, apperr.Validation("Línea %d: referencia de inventario inválida", pos+1)
		}
		m, id := l.Ref.Model, l.Ref.ID
		line.RefModel, line.RefID = &m, &id
	}
	return line, nil
}

// applyLine records the line as an inventory purchase in the holder's
// tracking unit, with the unit cost in USD at the BCV rate.
func (s *Service) applyLine(ctx context.Context, line *models.SupplierPurchaseLine, bcvRate decimal.Decimal, createdBy string) error {
	ref, _ := line.Ref()
	h, err := s.stock.Holder(ctx, ref)
	if err != nil {
		return err
	}

	compatible := UnitsCompatible(line.Unit, h.TrackingUnit)
	qty := line.Quantity
	if compatible {
		qty = ToTracking(line.Quantity, line.Unit, h.TrackingUnit)
	}
	unitCost := line.SubtotalBs.Div(decimal.NewFromFloat(qty)).DivRound(bcvRate, 6)

	// items with portionSize 0 keep their own cost; supplies only need compatible units
	updateCost := compatible && (ref.Model == models.RefSupply || h.PortionSize > 0)

	_, err = s.stock.RecordPurchase(ctx, inventory.PurchaseInput{
		Ref:        ref,
		Quantity:   qty,
		UnitCost:   unitCost,
		Notes:      importedNote,
		UpdateCost: updateCost,
		CreatedBy:  createdBy,
	})
	return err
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.SupplierPurchase, error) {
	return s.store.Get(ctx, id)
}

type Page struct {
	Purchases  []models.SupplierPurchase `json:"purchases"`
	Pagination paging.Meta               `json:"pagination"`
	Summary    Totals                    `json:"summary"`
}

func (s *Service) List(ctx context.Context, f ListFilter) (*Page, error) {
	f.Page, f.Limit = paging.Normalize(f.Page, f.Limit, defaultListLimit)
	list, total, err := s.store.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	totals, err := s.store.Totals(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("sum purchases: %w", err)
	}
	if list == nil {
		list = []models.SupplierPurchase{}
	}
	return &Page{Purchases: list, Pagination: paging.NewMeta(f.Page, f.Limit, total), Summary: totals}, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.log.WithField("purchase", id).Info("supplier purchase deleted")
	return nil
}
