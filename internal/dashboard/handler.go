package dashboard

import (
	"time"

	"japoke-backend/internal/validate"

	"github.com/gofiber/fiber/v2"
)

func queryRange(c *fiber.Ctx, loc *time.Location) (Range, error) {
	from, to, err := validate.DateRange(c, loc)
	return Range{From: from, To: to}, err
}

// GET /api/admin/dashboard/summary?from=2025-03-01&to=2025-03-31
func SummaryHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := queryRange(c, s.loc)
		if err != nil {
			return err
		}
		out, err := s.Summary(c.UserContext(), r)
		if err != nil {
			return err
		}
		return c.JSON(out)
	}
}

// GET /api/admin/dashboard/sales?groupBy=day|week|month
func SalesHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := queryRange(c, s.loc)
		if err != nil {
			return err
		}
		out, err := s.Sales(c.UserContext(), r, GroupBy(c.Query("groupBy", string(GroupDay))))
		if err != nil {
			return err
		}
		return c.JSON(out)
	}
}

// GET /api/admin/dashboard/popular-items?limit=10
func PopularItemsHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := queryRange(c, s.loc)
		if err != nil {
			return err
		}
		out, err := s.PopularItems(c.UserContext(), r, c.QueryInt("limit", defaultPopularLimit))
		if err != nil {
			return err
		}
		return c.JSON(out)
	}
}

// GET /api/admin/dashboard/popular-poke-types
func PopularPokeTypesHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := queryRange(c, s.loc)
		if err != nil {
			return err
		}
		out, err := s.PopularPokeTypes(c.UserContext(), r)
		if err != nil {
			return err
		}
		return c.JSON(out)
	}
}
