package purchases

import (
	"time"

	"japoke-backend/internal/auth"
	"japoke-backend/internal/models"
	"japoke-backend/internal/validate"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LineRequest struct {
	Name        string           `json:"name" validate:"required,max=150"`
	Quantity    float64          `json:"quantity" validate:"gt=0"`
	Unit        string           `json:"unit" validate:"required,oneof=kg g l ml unidad caja paquete"`
	UnitPriceBs decimal.Decimal  `json:"unitPriceBs"`
	SubtotalBs  *decimal.Decimal `json:"subtotalBs"`
	RefModel    string           `json:"refModel" validate:"omitempty,oneof=Item Supply"`
	RefID       *uuid.UUID       `json:"refId"`
}

type CreatePurchaseRequest struct {
	Date          string           `json:"date"`
	Supplier      string           `json:"supplier" validate:"required,max=150"`
	InvoiceNumber string           `json:"invoiceNumber" validate:"max=50"`
	Description   string           `json:"description" validate:"max=255"`
	Items         []LineRequest    `json:"items" validate:"dive"`
	TotalBs       *decimal.Decimal `json:"totalBs"`
	BcvRate       decimal.Decimal  `json:"bcvRate"`
	UsdtRate      decimal.Decimal  `json:"usdtRate"`
	Notes         string           `json:"notes" validate:"max=500"`
}

func (r CreatePurchaseRequest) input(loc *time.Location) (CreateInput, error) {
	in := CreateInput{
		Supplier:      r.Supplier,
		InvoiceNumber: r.InvoiceNumber,
		Description:   r.Description,
		TotalBs:       r.TotalBs,
		BcvRate:       r.BcvRate,
		UsdtRate:      r.UsdtRate,
		Notes:         r.Notes,
	}
	if r.Date != "" {
		d, err := validate.Date(r.Date, loc)
		if err != nil {
			return in, err
		}
		in.Date = &d
	}
	for _, l := range r.Items {
		line := LineInput{
			Name:        l.Name,
			Quantity:    l.Quantity,
			Unit:        models.PurchaseUnit(l.Unit),
			UnitPriceBs: l.UnitPriceBs,
			SubtotalBs:  l.SubtotalBs,
		}
		if l.RefModel != "" && l.RefID != nil {
			line.Ref = &models.StockRef{Model: models.RefModel(l.RefModel), ID: *l.RefID}
		}
		in.Lines = append(in.Lines, line)
	}
	return in, nil
}

// POST /api/admin/purchases
func CreateHandler(s *Service, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreatePurchaseRequest
		if err := validate.Body(c, &body); err != nil {
			return err
		}
		in, err := body.input(loc)
		if err != nil {
			return err
		}
		in.CreatedBy = auth.Actor(c)
		p, err := s.Create(c.UserContext(), in)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

// GET /api/admin/purchases?from=2025-03-01&to=2025-03-31&page=1&limit=50
func ListHandler(s *Service, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, to, err := validate.DateRange(c, loc)
		if err != nil {
			return err
		}
		page, limit := validate.Page(c, defaultListLimit)
		out, err := s.List(c.UserContext(), ListFilter{From: from, To: to, Page: page, Limit: limit})
		if err != nil {
			return err
		}
		return c.JSON(out)
	}
}

// GET /api/admin/purchases/:id
func GetHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := validate.ParamID(c)
		if err != nil {
			return err
		}
		p, err := s.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(p)
	}
}

// DELETE /api/admin/purchases/:id
func DeleteHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := validate.ParamID(c)
		if err != nil {
			return err
		}
		if err := s.Delete(c.UserContext(), id); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true})
	}
}
