package catalog

import (
	"strings"

	"japoke-backend/internal/apperr"
	"japoke-backend/internal/models"
	"japoke-backend/internal/validate"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GET /api/catalog
func GetCatalogHandler(store *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cat, err := store.FullCatalog(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(cat)
	}
}

// GET /api/catalog/poke-types
func ListPokeTypesHandler(store *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pts, err := store.PokeTypes(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(pts)
	}
}

// GET /api/catalog/categories
func ListCategoriesHandler(store *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cats, err := store.CategoriesWithItems(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(cats)
	}
}

type SetAvailabilityRequest struct {
	IsAvailable *bool `json:"isAvailable" validate:"required"`
}

// PATCH /api/admin/items/:id/availability
func SetItemAvailabilityHandler(store *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := validate.ParamID(c)
		if err != nil {
			return err
		}
		var body SetAvailabilityRequest
		if err := validate.Body(c, &body); err != nil {
			return err
		}
		it, err := store.SetItemAvailability(c.UserContext(), id, *body.IsAvailable)
		if err != nil {
			return err
		}
		return c.JSON(it)
	}
}

type CreateCategoryRequest struct {
	Name         string              `json:"name" validate:"required,min=2,max=100"`
	Slug         string              `json:"slug" validate:"required,max=100"`
	Type         models.CategoryType `json:"type" validate:"required,oneof=protein base vegetable sauce topping"`
	DisplayOrder int                 `json:"displayOrder"`
}

// POST /api/admin/categories
func CreateCategoryHandler(store *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCategoryRequest
		if err := validate.Body(c, &body); err != nil {
			return err
		}
		cat := models.Category{
			Name:         strings.TrimSpace(body.Name),
			Slug:         normalizeSlug(body.Slug),
			Type:         body.Type,
			DisplayOrder: body.DisplayOrder,
			IsActive:     true,
		}
		if err := store.CreateCategory(c.UserContext(), &cat); err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(cat)
	}
}

type CreateItemRequest struct {
	Name              string                    `json:"name" validate:"required,min=2,max=100"`
	Slug              string                    `json:"slug" validate:"required,max=100"`
	CategoryID        uuid.UUID                 `json:"categoryId" validate:"required"`
	Tier              models.Tier               `json:"tier" validate:"omitempty,oneof=premium base"`
	PortionSize       float64                   `json:"portionSize" validate:"gte=0"`
	ExtraPrice        decimal.Decimal           `json:"extraPrice"`
	CostPerUnit       decimal.Decimal           `json:"costPerUnit"`
	IsTrackable       bool                      `json:"isTrackable"`
	TrackingUnit      models.TrackingUnit       `json:"trackingUnit" validate:"omitempty,oneof=g kg units ml l"`
	CurrentStock      float64                   `json:"currentStock" validate:"gte=0"`
	MinStock          float64                   `json:"minStock" validate:"gte=0"`
	PreparationStyles []models.PreparationStyle `json:"preparationStyles"`
	DisplayOrder      int                       `json:"displayOrder"`
}

// POST /api/admin/items
func CreateItemHandler(store *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateItemRequest
		if err := validate.Body(c, &body); err != nil {
			return err
		}
		if body.ExtraPrice.IsNegative() || body.CostPerUnit.IsNegative() {
			return apperr.Validation("Los precios no pueden ser negativos")
		}
		unit := body.TrackingUnit
		if unit == "" {
			unit = models.UnitGrams
		}
		it := models.Item{
			Name:              strings.TrimSpace(body.Name),
			Slug:              normalizeSlug(body.Slug),
			CategoryID:        body.CategoryID,
			Tier:              body.Tier,
			PortionSize:       body.PortionSize,
			ExtraPrice:        body.ExtraPrice,
			CostPerUnit:       body.CostPerUnit,
			IsTrackable:       body.IsTrackable,
			TrackingUnit:      unit,
			CurrentStock:      body.CurrentStock,
			MinStock:          body.MinStock,
			PreparationStyles: body.PreparationStyles,
			IsAvailable:       true,
			DisplayOrder:      body.DisplayOrder,
		}
		if err := store.CreateItem(c.UserContext(), &it); err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(it)
	}
}

type CreatePokeTypeRequest struct {
	Name                string                  `json:"name" validate:"required,min=2,max=100"`
	Slug                string                  `json:"slug" validate:"required,max=100"`
	BasePrice           decimal.Decimal         `json:"basePrice"`
	Rules               models.BowlRules        `json:"rules"`
	AllowedProteinTiers []models.Tier           `json:"allowedProteinTiers" validate:"required,min=1,dive,oneof=premium base"`
	Supplies            []models.PokeTypeSupply `json:"supplies"`
}

// POST /api/admin/poke-types
func CreatePokeTypeHandler(store *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreatePokeTypeRequest
		if err := validate.Body(c, &body); err != nil {
			return err
		}
		if !body.BasePrice.IsPositive() {
			return apperr.Validation("basePrice debe ser mayor a 0")
		}
		r := body.Rules
		if r.ProteinGrams <= 0 || r.BaseGrams <= 0 || r.MaxVegetables < 0 || r.MaxSauces < 0 || r.MaxToppings < 0 {
			return apperr.Validation("Reglas del poke inválidas")
		}
		for _, sp := range body.Supplies {
			if sp.SupplyID == uuid.Nil || sp.Quantity <= 0 {
				return apperr.Validation("Cada insumo requiere supply y quantity > 0")
			}
		}
		pt := models.PokeType{
			Name:                strings.TrimSpace(body.Name),
			Slug:                normalizeSlug(body.Slug),
			BasePrice:           body.BasePrice,
			Rules:               body.Rules,
			AllowedProteinTiers: body.AllowedProteinTiers,
			Supplies:            body.Supplies,
			IsActive:            true,
		}
		if err := store.CreatePokeType(c.UserContext(), &pt); err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(pt)
	}
}

type CreateSupplyRequest struct {
	Name         string              `json:"name" validate:"required,min=2,max=100"`
	Slug         string              `json:"slug" validate:"required,max=100"`
	Description  string              `json:"description" validate:"max=255"`
	UnitCost     decimal.Decimal     `json:"unitCost"`
	CurrentStock float64             `json:"currentStock" validate:"gte=0"`
	MinStock     float64             `json:"minStock" validate:"gte=0"`
	TrackingUnit models.TrackingUnit `json:"trackingUnit" validate:"omitempty,oneof=g kg units ml l"`
	UsagePerPoke float64             `json:"usagePerPoke" validate:"gte=0"`
}

// POST /api/admin/supplies
func CreateSupplyHandler(store *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateSupplyRequest
		if err := validate.Body(c, &body); err != nil {
			return err
		}
		unit := body.TrackingUnit
		if unit == "" {
			unit = models.UnitUnits
		}
		usage := body.UsagePerPoke
		if usage == 0 {
			usage = 1
		}
		sp := models.Supply{
			Name:         strings.TrimSpace(body.Name),
			Slug:         normalizeSlug(body.Slug),
			Description:  body.Description,
			UnitCost:     body.UnitCost,
			CurrentStock: body.CurrentStock,
			MinStock:     body.MinStock,
			TrackingUnit: unit,
			UsagePerPoke: usage,
			IsActive:     true,
		}
		if err := store.CreateSupply(c.UserContext(), &sp); err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(sp)
	}
}

// GET /api/admin/supplies
func ListSuppliesHandler(store *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		out, err := store.Supplies(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(out)
	}
}

func normalizeSlug(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
