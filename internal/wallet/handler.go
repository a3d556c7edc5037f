package wallet

import (
	"time"

	"japoke-backend/internal/models"
	"japoke-backend/internal/validate"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// GET /api/admin/protection/summary
func SummaryHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sum, err := s.Summary(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(sum)
	}
}

type CreateProtectionRequest struct {
	AmountBs          decimal.Decimal `json:"amountBs"`
	RateDolarParalelo decimal.Decimal `json:"rateDolarParalelo"`
	Destination       models.Wallet   `json:"destination" validate:"required,oneof=usdt efectivo_usd"`
	Notes             string          `json:"notes" validate:"max=500"`
}

// POST /api/admin/protection
func CreateProtectionHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProtectionRequest
		if err := validate.Body(c, &body); err != nil {
			return err
		}
		p, err := s.CreateProtection(c.UserContext(), ProtectionInput{
			AmountBs:          body.AmountBs,
			RateDolarParalelo: body.RateDolarParalelo,
			Destination:       body.Destination,
			Notes:             body.Notes,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

// GET /api/admin/protection/history?page=1&limit=20
func ProtectionHistoryHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, limit := validate.Page(c, defaultHistoryLimit)
		out, err := s.ProtectionHistory(c.UserContext(), page, limit)
		if err != nil {
			return err
		}
		return c.JSON(out)
	}
}

type CreateTransactionRequest struct {
	Type        models.WalletTransactionType `json:"type" validate:"required,oneof=capital_injection bs_expense usd_expense"`
	Wallet      *models.Wallet               `json:"wallet" validate:"omitempty,oneof=usdt efectivo_usd"`
	AmountUsd   decimal.Decimal              `json:"amountUsd"`
	AmountBs    decimal.Decimal              `json:"amountBs"`
	Description string                       `json:"description" validate:"required,max=255"`
	Date        string                       `json:"date"`
}

// POST /api/admin/wallet/transactions
func CreateTransactionHandler(s *Service, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateTransactionRequest
		if err := validate.Body(c, &body); err != nil {
			return err
		}
		in := TransactionInput{
			Type:        body.Type,
			Wallet:      body.Wallet,
			AmountUsd:   body.AmountUsd,
			AmountBs:    body.AmountBs,
			Description: body.Description,
		}
		if body.Date != "" {
			d, err := validate.Date(body.Date, loc)
			if err != nil {
				return err
			}
			in.Date = &d
		}
		tx, err := s.CreateWalletTransaction(c.UserContext(), in)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(tx)
	}
}

// GET /api/admin/wallet/transactions?page=1&limit=20
func TransactionHistoryHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, limit := validate.Page(c, defaultHistoryLimit)
		out, err := s.TransactionHistory(c.UserContext(), page, limit)
		if err != nil {
			return err
		}
		return c.JSON(out)
	}
}
