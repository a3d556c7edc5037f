package settings

import (
	"japoke-backend/internal/validate"

	"github.com/gofiber/fiber/v2"
)

// GET /api/settings/store-status
func StoreStatusHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		open, err := s.IsOpen(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"isOpen": open})
	}
}

type SetStoreStatusRequest struct {
	IsOpen *bool `json:"isOpen" validate:"required"`
}

// PUT /api/admin/settings/store-status
func SetStoreStatusHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SetStoreStatusRequest
		if err := validate.Body(c, &body); err != nil {
			return err
		}
		open, err := s.SetOpen(c.UserContext(), *body.IsOpen)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"isOpen": open})
	}
}
