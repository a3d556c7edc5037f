package validate

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"japoke-backend/internal/apperr"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	// decimal and uuid fields validate on their text form
	val.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})
	val.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if id, ok := field.Interface().(uuid.UUID); ok && id != uuid.Nil {
			return id.String()
		}
		return ""
	}, uuid.UUID{})
	return val
}

// Struct validates tags and returns a validation error listing field -> rule.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation("Datos inválidos")
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe)] = fe.Tag()
	}
	return apperr.Validation("Datos inválidos").WithDetails(fields)
}

// Body decodes the request body into dst and validates it.
func Body(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperr.Validation("Cuerpo de la solicitud inválido")
	}
	return Struct(dst)
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// ParamID parses the :id route parameter.
func ParamID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, apperr.Validation("id inválido")
	}
	return id, nil
}

// Page reads page/limit query params with the given default limit.
func Page(c *fiber.Ctx, defLimit int) (int, int) {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", defLimit)
	if limit < 1 {
		limit = defLimit
	}
	if limit > 200 {
		limit = 200
	}
	return page, limit
}

const dateLayout = "2006-01-02"

// DateRange reads the from/to query params. Both accept RFC 3339 or a plain
// date in loc; a plain "to" date covers that whole day.
func DateRange(c *fiber.Ctx, loc *time.Location) (from, to *time.Time, err error) {
	if raw := c.Query("from"); raw != "" {
		t, _, err := parseDate(raw, loc)
		if err != nil {
			return nil, nil, apperr.Validation("from inválido: usa YYYY-MM-DD o RFC 3339")
		}
		from = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, dateOnly, err := parseDate(raw, loc)
		if err != nil {
			return nil, nil, apperr.Validation("to inválido: usa YYYY-MM-DD o RFC 3339")
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		to = &t
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, apperr.Validation("to no puede ser anterior a from")
	}
	return from, to, nil
}

func parseDate(raw string, loc *time.Location) (time.Time, bool, error) {
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(dateLayout, raw, loc); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	return t, false, err
}

// Date parses a single body or query date, plain or RFC 3339.
func Date(raw string, loc *time.Location) (time.Time, error) {
	t, _, err := parseDate(raw, loc)
	if err != nil {
		return time.Time{}, apperr.Validation("fecha inválida: usa YYYY-MM-DD o RFC 3339")
	}
	return t, nil
}
