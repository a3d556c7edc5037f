package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"japoke-backend/internal/models"

	"github.com/shopspring/decimal"
)

const dolarAPISource = "dolarapi.com"

// Reading is one quote as published by a rate source.
type Reading struct {
	Type      models.RateType
	Rate      decimal.Decimal
	UpdatedAt *time.Time
}

type Source interface {
	Name() string
	Fetch(ctx context.Context, t models.RateType) (Reading, error)
}

var dolarAPIPaths = map[models.RateType]string{
	models.RateDolarBcv:      "/dolares/oficial",
	models.RateEuroBcv:       "/euros/oficial",
	models.RateDolarParalelo: "/dolares/paralelo",
	models.RateEuroParalelo:  "/euros/paralelo",
}

// DolarAPISource reads the averaged quote from ve.dolarapi.com.
type DolarAPISource struct {
	baseURL string
	client  *http.Client
}

func NewDolarAPISource(baseURL string, timeout time.Duration) *DolarAPISource {
	return &DolarAPISource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *DolarAPISource) Name() string { return dolarAPISource }

type dolarAPIQuote struct {
	Promedio           *decimal.Decimal `json:"promedio"`
	FechaActualizacion string           `json:"fechaActualizacion"`
}

func (s *DolarAPISource) Fetch(ctx context.Context, t models.RateType) (Reading, error) {
	path, ok := dolarAPIPaths[t]
	if !ok {
		return Reading{}, fmt.Errorf("unknown rate type %q", t)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return Reading{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return Reading{}, fmt.Errorf("failed to fetch %s: %w", t, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Reading{}, fmt.Errorf("fetch %s: HTTP %d: %s", t, resp.StatusCode, body)
	}

	var q dolarAPIQuote
	if err := json.NewDecoder(resp.Body).Decode(&q); err != nil {
		return Reading{}, fmt.Errorf("decode %s: %w", t, err)
	}
	if q.Promedio == nil {
		return Reading{}, fmt.Errorf("%s: missing promedio", t)
	}

	r := Reading{Type: t, Rate: *q.Promedio}
	if at, err := time.Parse(time.RFC3339, q.FechaActualizacion); err == nil {
		r.UpdatedAt = &at
	}
	return r, nil
}
