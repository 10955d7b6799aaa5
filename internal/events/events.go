package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/sol1corejz/marketcore/internal/logger"
	"go.uber.org/zap"
)

const (
	EntityOrder        = "order"
	EntityOrderPayment = "order_payment"
	EntityOffer        = "delivery_offer"
)

type Event struct {
	EntityType string    `json:"entity_type"`
	EntityID   uuid.UUID `json:"entity_id"`
	OrderID    uuid.UUID `json:"order_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ActorID    uuid.UUID `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Dispatcher receives lifecycle events fire-and-forget: implementations log
// and swallow their own failures, and must never block a state transition.
type Dispatcher interface {
	Notify(event Event)
}

type LogDispatcher struct{}

func (LogDispatcher) Notify(e Event) {
	logger.Log.Info("lifecycle event",
		zap.String("entityType", e.EntityType),
		zap.String("entityID", e.EntityID.String()),
		zap.String("orderID", e.OrderID.String()),
		zap.String("from", e.FromStatus),
		zap.String("to", e.ToStatus),
		zap.String("actorID", e.ActorID.String()),
	)
}

type Multi []Dispatcher

func (m Multi) Notify(e Event) {
	for _, d := range m {
		d.Notify(e)
	}
}
