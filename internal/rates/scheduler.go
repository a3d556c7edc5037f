package rates

import (
	"context"
	"time"

	"japoke-backend/internal/logging"
	"japoke-backend/internal/models"

	"github.com/go-co-op/gocron"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Refresher interface {
	Refresh(ctx context.Context) (map[models.RateType]decimal.Decimal, error)
}

// Scheduler runs Refresh once at start and then every interval.
type Scheduler struct {
	cron     *gocron.Scheduler
	service  Refresher
	interval time.Duration
	timeout  time.Duration
	log      *logrus.Entry
}

func NewScheduler(service Refresher, interval time.Duration, loc *time.Location, log *logrus.Entry) *Scheduler {
	return &Scheduler{
		cron:     gocron.NewScheduler(loc),
		service:  service,
		interval: interval,
		timeout:  time.Minute,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	minutes := int(s.interval / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	// gocron runs the first tick immediately unless told otherwise
	if _, err := s.cron.Every(minutes).Minutes().Do(s.run); err != nil {
		return err
	}
	s.cron.StartAsync()
	s.log.WithField("every_minutes", minutes).Info("rate refresh scheduled")
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, err := s.service.Refresh(ctx); err != nil {
		logging.LogError(s.log, "run", "scheduled rate refresh failed", nil, err)
	}
}
