package workers

import (
	"context"
	"time"

	"github.com/sol1corejz/marketcore/internal/delivery"
	"github.com/sol1corejz/marketcore/internal/logger"
	"github.com/sol1corejz/marketcore/internal/models"
	"github.com/sol1corejz/marketcore/internal/orders"
	"github.com/sol1corejz/marketcore/internal/storage"
	"go.uber.org/zap"
)

// Reconciler periodically sweeps up state the request path can leave behind:
// unpaid orders past their expiry, pending offers whose order has moved on,
// and (as an alarm that should never fire) negative derived balances.
type Reconciler struct {
	store    storage.Store
	orders   *orders.Machine
	delivery *delivery.Machine
	interval time.Duration
}

func NewReconciler(store storage.Store, orderMachine *orders.Machine, deliveryMachine *delivery.Machine, interval time.Duration) *Reconciler {
	return &Reconciler{store: store, orders: orderMachine, delivery: deliveryMachine, interval: interval}
}

func (r *Reconciler) Start(ctx context.Context) {
	go r.loop(ctx)
	logger.Log.Info("Reconciliation worker started", zap.Duration("interval", r.interval))
}

func (r *Reconciler) loop(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single reconciliation pass. Safe to call on demand.
func (r *Reconciler) RunOnce(ctx context.Context) {
	r.expireUnpaidOrders(ctx)
	r.cancelOrphanedOffers(ctx)
	r.auditBalances(ctx)
}

var systemActor = models.Actor{Role: models.RoleSystem}

func (r *Reconciler) expireUnpaidOrders(ctx context.Context) {
	expired, err := r.store.ExpiredUnpaidOrders(ctx, time.Now())
	if err != nil {
		logger.Log.Error("Error listing expired orders", zap.Error(err))
		return
	}

	for _, order := range expired {
		if _, err := r.orders.Cancel(ctx, order.ID, models.ReasonNoPayment, systemActor); err != nil {
			logger.Log.Warn("Failed to expire order",
				zap.String("orderID", order.ID.String()), zap.Error(err))
			continue
		}
		logger.Log.Info("Expired unpaid order cancelled", zap.String("orderID", order.ID.String()))
	}
}

func (r *Reconciler) cancelOrphanedOffers(ctx context.Context) {
	orphaned, err := r.store.OrphanedPendingOffers(ctx)
	if err != nil {
		logger.Log.Error("Error listing orphaned offers", zap.Error(err))
		return
	}

	for _, offer := range orphaned {
		if _, err := r.delivery.Cancel(ctx, offer.ID, systemActor); err != nil {
			logger.Log.Warn("Failed to cancel orphaned offer",
				zap.String("offerID", offer.ID.String()), zap.Error(err))
			continue
		}
		logger.Log.Info("Orphaned delivery offer cancelled", zap.String("offerID", offer.ID.String()))
	}
}

func (r *Reconciler) auditBalances(ctx context.Context) {
	users, err := r.store.NegativeBalances(ctx)
	if err != nil {
		logger.Log.Error("Error auditing balances", zap.Error(err))
		return
	}

	for _, userID := range users {
		logger.Log.Error("Negative points balance detected", zap.String("userID", userID.String()))
	}
}
