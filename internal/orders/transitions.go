package orders

import (
	"strings"

	"japoke-backend/internal/apperr"
	"japoke-backend/internal/models"
)

var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderPending:   {models.OrderConfirmed, models.OrderCancelled},
	models.OrderConfirmed: {models.OrderPreparing, models.OrderCancelled},
	models.OrderPreparing: {models.OrderReady, models.OrderCancelled},
	models.OrderReady:     {models.OrderDelivered},
	models.OrderDelivered: {},
	models.OrderCancelled: {},
}

// AllowedTransitions lists the statuses reachable from "from".
func AllowedTransitions(from models.OrderStatus) []models.OrderStatus {
	return transitions[from]
}

func CanTransition(from, to models.OrderStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func transitionError(from, to models.OrderStatus) error {
	allowed := AllowedTransitions(from)
	names := make([]string, len(allowed))
	for i, s := range allowed {
		names[i] = string(s)
	}
	list := strings.Join(names, ", ")
	if list == "" {
		list = "ninguna"
	}
	return apperr.New(apperr.KindInvalidTransition,
		"No se puede cambiar de '%s' a '%s'. Transiciones válidas: %s", from, to, list).
		WithDetails(map[string]any{"from": from, "to": to, "allowed": allowed})
}
