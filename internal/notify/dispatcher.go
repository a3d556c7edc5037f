package notify

import (
	"context"
	"sync"
	"time"

	"japoke-backend/internal/logging"
	"japoke-backend/internal/metrics"
	"japoke-backend/internal/models"

	"github.com/sirupsen/logrus"
)

// Dispatcher sends notifications in the background. Callers never wait for
// delivery and never see its errors.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	log      *logrus.Entry
	wg       sync.WaitGroup
}

func NewDispatcher(n Notifier, timeout time.Duration, log *logrus.Entry) *Dispatcher {
	return &Dispatcher{notifier: n, timeout: timeout, log: log}
}

// Dispatch copies the order and notifies on its own goroutine.
func (d *Dispatcher) Dispatch(order *models.Order, status models.OrderStatus) {
	snapshot := *order
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.notifier.NotifyStatusChange(ctx, &snapshot, status); err != nil {
			metrics.Notifications.WithLabelValues("error").Inc()
			logging.LogError(d.log, "Dispatch", "status notification failed", logrus.Fields{"order": snapshot.OrderNumber, "status": status}, err)
			return
		}
		metrics.Notifications.WithLabelValues("ok").Inc()
	}()
}

// Close waits for in-flight notifications.
func (d *Dispatcher) Close() {
	d.wg.Wait()
}
