package inventory

import (
	"strings"

	"japoke-backend/internal/apperr"
	"japoke-backend/internal/auth"
	"japoke-backend/internal/models"
	"japoke-backend/internal/validate"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GET /api/admin/inventory
func StatusHandler(l *Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := l.Status(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(st)
	}
}

// GET /api/admin/inventory/alerts
func AlertsHandler(l *Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		a, err := l.Alerts(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(a)
	}
}

// GET /api/admin/inventory/movements?refModel=Item&refId=...&type=purchase&page=1&limit=30
func MovementsHandler(l *Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, limit := validate.Page(c, defaultMovementLimit)
		f := MovementFilter{
			RefModel: models.RefModel(c.Query("refModel")),
			Type:     models.MovementType(c.Query("type")),
			Page:     page,
			Limit:    limit,
		}
		if raw := c.Query("refId"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				return apperr.Validation("refId inválido")
			}
			f.RefID = &id
		}
		out, err := l.Movements(c.UserContext(), f)
		if err != nil {
			return err
		}
		return c.JSON(out)
	}
}

type RecordPurchaseRequest struct {
	RefModel   models.RefModel `json:"refModel" validate:"required,oneof=Item Supply"`
	RefID      uuid.UUID       `json:"refId" validate:"required"`
	Quantity   float64         `json:"quantity" validate:"gt=0"`
	UnitCost   decimal.Decimal `json:"unitCost"`
	Notes      string          `json:"notes" validate:"max=500"`
	UpdateCost bool            `json:"updateCost"`
}

// POST /api/admin/inventory/purchase
func RecordPurchaseHandler(l *Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RecordPurchaseRequest
		if err := validate.Body(c, &body); err != nil {
			return err
		}
		res, err := l.RecordPurchase(c.UserContext(), PurchaseInput{
			Ref:        models.StockRef{Model: body.RefModel, ID: body.RefID},
			Quantity:   body.Quantity,
			UnitCost:   body.UnitCost,
			Notes:      strings.TrimSpace(body.Notes),
			UpdateCost: body.UpdateCost,
			CreatedBy:  auth.Actor(c),
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

type AdjustStockRequest struct {
	RefModel models.RefModel     `json:"refModel" validate:"required,oneof=Item Supply"`
	RefID    uuid.UUID           `json:"refId" validate:"required"`
	NewStock *float64            `json:"newStock" validate:"required,gte=0"`
	Reason   models.MovementType `json:"reason" validate:"omitempty,oneof=manual_adjustment waste"`
	Notes    string              `json:"notes" validate:"max=500"`
}

// POST /api/admin/inventory/adjustment
func AdjustStockHandler(l *Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body AdjustStockRequest
		if err := validate.Body(c, &body); err != nil {
			return err
		}
		mv, err := l.AdjustStock(c.UserContext(), AdjustInput{
			Ref:       models.StockRef{Model: body.RefModel, ID: body.RefID},
			NewStock:  *body.NewStock,
			Reason:    body.Reason,
			Notes:     strings.TrimSpace(body.Notes),
			CreatedBy: auth.Actor(c),
		})
		if err != nil {
			return err
		}
		return c.JSON(mv)
	}
}

// POST /api/admin/inventory/stock-count (multipart, field "file")
func ImportStockCountHandler(l *Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return apperr.Validation("No se pudo cargar el archivo")
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return apperr.Validation("Solo se aceptan archivos .xlsx")
		}
		file, err := fileHeader.Open()
		if err != nil {
			return err
		}
		defer file.Close()

		res, err := l.ImportStockCount(c.UserContext(), file, auth.Actor(c))
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}
