package notify

import (
	"japoke-backend/internal/validate"

	"github.com/gofiber/fiber/v2"
)

// GET /api/admin/whatsapp/status
func StatusHandler(w *WhatsApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		usage, err := w.Usage(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"enabled":      w.Enabled(),
			"configured":   w.cfg.Enabled && w.cfg.Configured(),
			"manualToggle": w.ManualToggle(),
			"usage":        usage,
		})
	}
}

type ToggleRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// PATCH /api/admin/whatsapp/toggle
func ToggleHandler(w *WhatsApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ToggleRequest
		if err := validate.Body(c, &body); err != nil {
			return err
		}
		w.SetManualToggle(*body.Enabled)
		return c.JSON(fiber.Map{"manualToggle": w.ManualToggle(), "enabled": w.Enabled()})
	}
}
