package orders

import (
	"context"
	"time"

	"github.com/sol1corejz/marketcore/internal/events"
	"github.com/sol1corejz/marketcore/internal/logger"
	"github.com/sol1corejz/marketcore/internal/models"
	"go.uber.org/zap"
)

// OfferCompletionRelay feeds delivery-offer completion events back into the
// order machine, so a courier reaching delivered marks the order delivered
// without the two machines calling each other directly. Failures are logged
// and swallowed like any other notification.
type OfferCompletionRelay struct {
	Machine *Machine
}

func (r OfferCompletionRelay) Notify(e events.Event) {
	if e.EntityType != events.EntityOffer || e.ToStatus != string(models.OfferDelivered) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	actor := models.Actor{ID: e.ActorID, Role: models.RoleCourier}
	if _, err := r.Machine.MarkDelivered(ctx, e.OrderID, actor); err != nil {
		logger.Log.Warn("Delivery completion did not advance order",
			zap.String("orderID", e.OrderID.String()), zap.Error(err))
	}
}
