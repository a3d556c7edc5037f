package notify

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"japoke-backend/internal/models"
)

// Notifier tells the outside world that an order changed status.
type Notifier interface {
	NotifyStatusChange(ctx context.Context, order *models.Order, status models.OrderStatus) error
}

// Multi sends to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) NotifyStatusChange(ctx context.Context, order *models.Order, status models.OrderStatus) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyStatusChange(ctx, order, status); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", n, err))
		}
	}
	return errors.Join(errs...)
}

// Toggle is the manual on/off switch for customer messaging. It starts on.
type Toggle struct {
	off atomic.Bool
}

func NewToggle() *Toggle {
	return &Toggle{}
}

func (t *Toggle) Enabled() bool { return !t.off.Load() }

func (t *Toggle) Set(enabled bool) bool {
	t.off.Store(!enabled)
	return enabled
}
