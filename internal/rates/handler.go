package rates

import (
	"time"

	"japoke-backend/internal/apperr"
	"japoke-backend/internal/models"
	"japoke-backend/internal/validate"

	"github.com/gofiber/fiber/v2"
)

// GET /api/rates/latest
func LatestHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		latest, err := s.Latest(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(latest)
	}
}

// GET /api/admin/rates/history?type=euro_bcv&from=2025-01-01&to=2025-01-31&limit=100
func HistoryHandler(s *Service, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t := models.RateType(c.Query("type"))
		if t != "" && !t.Valid() {
			return apperr.Validation("type inválido")
		}
		from, to, err := validate.DateRange(c, loc)
		if err != nil {
			return err
		}
		limit := c.QueryInt("limit", defaultHistoryLimit)
		if limit > 1000 {
			limit = 1000
		}
		rows, err := s.History(c.UserContext(), HistoryFilter{Type: t, From: from, To: to, Limit: limit})
		if err != nil {
			return err
		}
		return c.JSON(rows)
	}
}

// POST /api/admin/rates/refresh
func RefreshHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stored, err := s.Refresh(c.UserContext())
		if err != nil {
			return err
		}
		if len(stored) == 0 {
			return apperr.New(apperr.KindExternalService, "No se pudo obtener ninguna tasa")
		}
		return c.JSON(fiber.Map{"success": true, "rates": stored})
	}
}
