package rates

import (
	"context"
	"fmt"
	"time"

	"japoke-backend/internal/logging"
	"japoke-backend/internal/metrics"
	"japoke-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const defaultHistoryLimit = 100

type LatestRate struct {
	Rate      decimal.Decimal `json:"rate"`
	FetchedAt time.Time       `json:"fetchedAt"`
}

type Service struct {
	source Source
	repo   Repository
	cache  *Cache
	log    *logrus.Entry
	now    func() time.Time
}

func NewService(source Source, repo Repository, cache *Cache, log *logrus.Entry) *Service {
	return &Service{source: source, repo: repo, cache: cache, log: log, now: time.Now}
}

// Refresh fetches every rate type on its own; one failing type does not stop
// the others. It returns the rates that were stored.
func (s *Service) Refresh(ctx context.Context) (map[models.RateType]decimal.Decimal, error) {
	stored := make(map[models.RateType]decimal.Decimal, len(models.RateTypes))
	for _, t := range models.RateTypes {
		r, err := s.source.Fetch(ctx, t)
		if err != nil {
			metrics.RateFetches.WithLabelValues(string(t), "error").Inc()
			logging.LogWarn(s.log, "Refresh", "rate fetch failed", t, err)
			continue
		}
		if !r.Rate.IsPositive() {
			metrics.RateFetches.WithLabelValues(string(t), "invalid").Inc()
			s.log.WithFields(logrus.Fields{"type": t, "rate": r.Rate.String()}).Warn("discarding non-positive rate")
			continue
		}

		fetchedAt := s.now()
		if r.UpdatedAt != nil {
			fetchedAt = *r.UpdatedAt
		}
		row := &models.ExchangeRate{
			Type:      t,
			Rate:      r.Rate,
			Source:    s.source.Name(),
			SourceAt:  r.UpdatedAt,
			FetchedAt: fetchedAt,
		}
		if err := s.repo.Create(ctx, row); err != nil {
			metrics.RateFetches.WithLabelValues(string(t), "error").Inc()
			logging.LogError(s.log, "Refresh", "failed to store rate", row, err)
			continue
		}
		metrics.RateFetches.WithLabelValues(string(t), "ok").Inc()
		stored[t] = row.Rate
	}
	s.cache.Invalidate()

	s.log.WithField("rates", stored).Info("exchange rates updated")
	return stored, nil
}

// Latest returns the newest reading per type, from cache when fresh.
func (s *Service) Latest(ctx context.Context) (map[models.RateType]LatestRate, error) {
	if v, ok := s.cache.Get(); ok {
		return v, nil
	}
	out := make(map[models.RateType]LatestRate, len(models.RateTypes))
	for _, t := range models.RateTypes {
		r, err := s.repo.Latest(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("latest %s: %w", t, err)
		}
		if r == nil {
			continue
		}
		out[t] = LatestRate{Rate: r.Rate, FetchedAt: r.FetchedAt}
	}
	s.cache.Set(out)
	return out, nil
}

// Snapshot is the set of rates embedded in orders and purchases. Types with
// no reading yet are zero.
func (s *Service) Snapshot(ctx context.Context) (models.RateSnapshot, error) {
	latest, err := s.Latest(ctx)
	if err != nil {
		return models.RateSnapshot{}, err
	}
	return models.RateSnapshot{
		EuroBcv:       latest[models.RateEuroBcv].Rate,
		DolarBcv:      latest[models.RateDolarBcv].Rate,
		DolarParalelo: latest[models.RateDolarParalelo].Rate,
	}, nil
}

func (s *Service) History(ctx context.Context, f HistoryFilter) ([]models.ExchangeRate, error) {
	if f.Limit <= 0 {
		f.Limit = defaultHistoryLimit
	}
	out, err := s.repo.History(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("rate history: %w", err)
	}
	if out == nil {
		out = []models.ExchangeRate{}
	}
	return out, nil
}
