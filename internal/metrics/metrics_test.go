package metrics

import (
	"net/http/httptest"
	"testing"

	"japoke-backend/internal/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusMiddlewareCountsByRoute(t *testing.T) {
	app := fiber.New()
	app.Use(PrometheusMiddleware())
	app.Get("/ping/:id", func(c *fiber.Ctx) error { return c.SendString("pong") })
	app.Get("/missing", func(c *fiber.Ctx) error { return apperr.NotFound("Pedido no encontrado") })

	okBefore := testutil.ToFloat64(HttpRequestsTotal.WithLabelValues("GET", "/ping/:id", "200"))
	nfBefore := testutil.ToFloat64(HttpRequestsTotal.WithLabelValues("GET", "/missing", "404"))

	for _, path := range []string{"/ping/1", "/ping/2", "/missing"} {
		if _, err := app.Test(httptest.NewRequest("GET", path, nil)); err != nil {
			t.Fatalf("app.Test(%s): %v", path, err)
		}
	}

	if got := testutil.ToFloat64(HttpRequestsTotal.WithLabelValues("GET", "/ping/:id", "200")) - okBefore; got != 2 {
		t.Fatalf("ping count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(HttpRequestsTotal.WithLabelValues("GET", "/missing", "404")) - nfBefore; got != 1 {
		t.Fatalf("missing count = %v, want 1", got)
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fiber.NewError(fiber.StatusUnauthorized, "x"), 401},
		{apperr.Validation("x"), 400},
		{apperr.New(apperr.KindServiceUnavailable, "cerrado"), 503},
		{fiber.ErrBadGateway, 502},
	}
	for _, tt := range tests {
		if got := statusOf(tt.err); got != tt.want {
			t.Fatalf("statusOf(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
