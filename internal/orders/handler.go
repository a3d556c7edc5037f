package orders

import (
	"time"

	"japoke-backend/internal/composer"
	"japoke-backend/internal/models"
	"japoke-backend/internal/validate"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CustomerRequest struct {
	Name           string `json:"name" validate:"required,min=2,max=100"`
	Identification string `json:"identification" validate:"required,max=30"`
	Email          string `json:"email" validate:"required,email,max=150"`
	Phone          string `json:"phone" validate:"required,min=7,max=20"`
	Address        string `json:"address" validate:"required,max=300"`
	Notes          string `json:"notes" validate:"max=500"`
}

type PaymentRequest struct {
	Method            models.PaymentMethod `json:"method" validate:"omitempty,oneof=pago_movil efectivo_usd binance_usdt"`
	ReferenceID       string               `json:"referenceId" validate:"max=100"`
	ReferenceImageURL string               `json:"referenceImageUrl" validate:"omitempty,url,max=500"`
	AmountBs          *decimal.Decimal     `json:"amountBs"`
	AmountUsd         *decimal.Decimal     `json:"amountUsd"`
}

type SplitPaymentRequest struct {
	Method      models.PaymentMethod `json:"method" validate:"required,oneof=pago_movil efectivo_usd binance_usdt"`
	AmountBs    decimal.Decimal      `json:"amountBs"`
	AmountUsd   decimal.Decimal      `json:"amountUsd"`
	ReferenceID string               `json:"referenceId" validate:"max=100"`
}

func (r SplitPaymentRequest) input() SplitPaymentInput {
	return SplitPaymentInput{Method: r.Method, AmountBs: r.AmountBs, AmountUsd: r.AmountUsd, ReferenceID: r.ReferenceID}
}

type CreateOrderRequest struct {
	Customer     CustomerRequest        `json:"customer"`
	Items        []composer.BowlRequest `json:"items" validate:"dive"`
	Payment      PaymentRequest         `json:"payment"`
	DeliveryTime *string                `json:"deliveryTime" validate:"omitempty,max=20"`
	SplitPayment *SplitPaymentRequest   `json:"splitPayment"`
}

// POST /api/orders
func CreateOrderHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateOrderRequest
		if err := validate.Body(c, &body); err != nil {
			return err
		}
		in := CreateOrderInput{
			Customer: models.Customer{
				Name:           body.Customer.Name,
				Identification: body.Customer.Identification,
				Email:          body.Customer.Email,
				Phone:          body.Customer.Phone,
				Address:        body.Customer.Address,
				Notes:          body.Customer.Notes,
			},
			Items: body.Items,
			Payment: PaymentInput{
				Method:            body.Payment.Method,
				ReferenceID:       body.Payment.ReferenceID,
				ReferenceImageURL: body.Payment.ReferenceImageURL,
				AmountBs:          body.Payment.AmountBs,
				AmountUsd:         body.Payment.AmountUsd,
			},
			DeliveryTime: body.DeliveryTime,
		}
		if body.SplitPayment != nil {
			sp := body.SplitPayment.input()
			in.SplitPayment = &sp
		}

		order, err := s.CreateOrder(c.UserContext(), in)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(order)
	}
}

// GET /api/orders/:id  (id or order number)
func GetOrderHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		order, err := s.GetOrder(c.UserContext(), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(order)
	}
}

// GET /api/admin/orders?status=pending&from=2025-01-01&to=2025-01-31&page=1&limit=20
func ListOrdersHandler(s *Service, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, to, err := validate.DateRange(c, loc)
		if err != nil {
			return err
		}
		page, limit := validate.Page(c, defaultListLimit)
		out, err := s.ListOrders(c.UserContext(), ListFilter{
			Status: models.OrderStatus(c.Query("status")),
			From:   from,
			To:     to,
			Page:   page,
			Limit:  limit,
		})
		if err != nil {
			return err
		}
		return c.JSON(out)
	}
}

type UpdateStatusRequest struct {
	Status models.OrderStatus `json:"status" validate:"required,oneof=pending confirmed preparing ready delivered cancelled"`
}

// PATCH /api/admin/orders/:id/status
func UpdateStatusHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := validate.ParamID(c)
		if err != nil {
			return err
		}
		var body UpdateStatusRequest
		if err := validate.Body(c, &body); err != nil {
			return err
		}
		order, err := s.UpdateStatus(c.UserContext(), id, body.Status)
		if err != nil {
			return err
		}
		return c.JSON(order)
	}
}

type PaymentStatusRequest struct {
	Status models.PaymentStatus `json:"status" validate:"required,oneof=pending verified rejected"`
}

// PATCH /api/admin/orders/:id/payment
func UpdatePaymentStatusHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := validate.ParamID(c)
		if err != nil {
			return err
		}
		var body PaymentStatusRequest
		if err := validate.Body(c, &body); err != nil {
			return err
		}
		order, err := s.UpdatePaymentStatus(c.UserContext(), id, body.Status)
		if err != nil {
			return err
		}
		return c.JSON(order)
	}
}

// POST /api/admin/orders/:id/split-payment
func AddSplitPaymentHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := validate.ParamID(c)
		if err != nil {
			return err
		}
		var body SplitPaymentRequest
		if err := validate.Body(c, &body); err != nil {
			return err
		}
		order, err := s.AddSplitPayment(c.UserContext(), id, body.input())
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(order)
	}
}

// PATCH /api/admin/orders/:id/split-payment
func UpdateSplitPaymentStatusHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := validate.ParamID(c)
		if err != nil {
			return err
		}
		var body PaymentStatusRequest
		if err := validate.Body(c, &body); err != nil {
			return err
		}
		order, err := s.UpdateSplitPaymentStatus(c.UserContext(), id, body.Status)
		if err != nil {
			return err
		}
		return c.JSON(order)
	}
}

// DELETE /api/admin/orders/:id
func DeleteOrderHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := validate.ParamID(c)
		if err != nil {
			return err
		}
		if err := s.DeleteOrder(c.UserContext(), id); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true})
	}
}
