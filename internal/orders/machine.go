package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sol1corejz/marketcore/internal/events"
	"github.com/sol1corejz/marketcore/internal/ledger"
	"github.com/sol1corejz/marketcore/internal/models"
	"github.com/sol1corejz/marketcore/internal/storage"
)

// Machine owns every order status change. A transition is validated against
// the current row, applied as a compare-and-swap, and only then announced to
// the dispatcher; two concurrent calls for the same transition cannot both
// succeed.
type Machine struct {
	store      storage.Store
	dispatcher events.Dispatcher
}

func NewMachine(store storage.Store, dispatcher events.Dispatcher) *Machine {
	return &Machine{store: store, dispatcher: dispatcher}
}

func (m *Machine) emit(orderID uuid.UUID, entityType, from, to string, actor models.Actor) {
	m.dispatcher.Notify(events.Event{
		EntityType: entityType,
		EntityID:   orderID,
		OrderID:    orderID,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actor.ID,
		OccurredAt: time.Now(),
	})
}

// Confirm moves a pending order to seller_confirmed. Seller only.
func (m *Machine) Confirm(ctx context.Context, orderID uuid.UUID, actor models.Actor) (models.OrderStatus, error) {
	order, err := m.store.GetOrder(ctx, orderID)
	if err != nil {
		return "", err
	}
	if actor.Role != models.RoleSeller || actor.ID != order.SellerID {
		return "", models.ErrNotAuthorized
	}
	if order.Status != models.OrderPending {
		return "", models.ErrInvalidTransition
	}

	if err := m.store.UpdateOrderStatus(ctx, orderID, models.OrderPending, models.OrderSellerConfirmed); err != nil {
		return "", err
	}
	m.emit(orderID, events.EntityOrder, string(models.OrderPending), string(models.OrderSellerConfirmed), actor)
	return models.OrderSellerConfirmed, nil
}

// MarkDelivered moves a confirmed order to delivered. Allowed to the seller
// (self-delivery without any courier offer) or the order's courier of record.
func (m *Machine) MarkDelivered(ctx context.Context, orderID uuid.UUID, actor models.Actor) (models.OrderStatus, error) {
	order, err := m.store.GetOrder(ctx, orderID)
	if err != nil {
		return "", err
	}
	switch {
	case actor.Role == models.RoleSeller && actor.ID == order.SellerID:
	case actor.Role == models.RoleCourier && order.CourierID.Valid && actor.ID == order.CourierID.UUID:
	default:
		return "", models.ErrNotAuthorized
	}
	if order.Status != models.OrderSellerConfirmed {
		return "", models.ErrInvalidTransition
	}

	if err := m.store.UpdateOrderStatus(ctx, orderID, models.OrderSellerConfirmed, models.OrderDelivered); err != nil {
		return "", err
	}
	m.emit(orderID, events.EntityOrder, string(models.OrderSellerConfirmed), string(models.OrderDelivered), actor)
	return models.OrderDelivered, nil
}

// Complete finalizes a delivered order and awards loyalty points once. The
// point amount comes from the seller's configured conversion rate; a seller
// without an active config awards nothing. Completing an already-completed
// order is a no-op returning the previously awarded points.
func (m *Machine) Complete(ctx context.Context, orderID uuid.UUID, actor models.Actor) (models.OrderStatus, int64, error) {
	order, err := m.store.GetOrder(ctx, orderID)
	if err != nil {
		return "", 0, err
	}
	if actor.ID != order.BuyerID && actor.ID != order.SellerID {
		return "", 0, models.ErrNotAuthorized
	}
	if order.Status == models.OrderCompleted {
		return models.OrderCompleted, order.PointsAwarded.Int64, nil
	}
	if order.Status != models.OrderDelivered {
		return "", 0, models.ErrInvalidTransition
	}
	if order.PaymentMethod == models.PaymentTransfer && order.PaymentStatus != models.PaymentConfirmed {
		return "", 0, models.ErrInvalidTransition
	}

	points := m.pointsFor(ctx, order)
	var earn *models.PointsHistoryEntry
	if points > 0 {
		entry := ledger.NewEarning(order.BuyerID, order.ID, order.SellerID, points, "")
		earn = &entry
	}

	awarded, applied, err := m.store.CompleteOrder(ctx, orderID, points, earn)
	if err != nil {
		return "", 0, err
	}
	if applied {
		m.emit(orderID, events.EntityOrder, string(models.OrderDelivered), string(models.OrderCompleted), actor)
	}
	return models.OrderCompleted, awarded, nil
}

func (m *Machine) pointsFor(ctx context.Context, order models.Order) int64 {
	cfg, err := m.store.GetRewardsConfig(ctx, order.SellerID)
	if errors.Is(err, models.ErrConfigUnavailable) {
		return 0
	}
	if err != nil || !cfg.IsActive || cfg.PointValueCents <= 0 {
		return 0
	}
	return order.TotalCents / cfg.PointValueCents
}

// Cancel moves a not-yet-delivered order to the cancelled status matching the
// reason. No points move: earning only happens at completion.
func (m *Machine) Cancel(ctx context.Context, orderID uuid.UUID, reason models.CancelReason, actor models.Actor) (models.OrderStatus, error) {
	target, ok := reason.Status()
	if !ok {
		return "", models.ErrInvalidTransition
	}

	order, err := m.store.GetOrder(ctx, orderID)
	if err != nil {
		return "", err
	}
	switch {
	case actor.Role == models.RoleSystem:
	case actor.ID == order.BuyerID || actor.ID == order.SellerID:
	default:
		return "", models.ErrNotAuthorized
	}
	if !order.Status.CanTransitionTo(target) {
		return "", models.ErrInvalidTransition
	}

	if err := m.store.UpdateOrderStatus(ctx, orderID, order.Status, target); err != nil {
		return "", err
	}
	m.emit(orderID, events.EntityOrder, string(order.Status), string(target), actor)
	return target, nil
}

// SubmitTransfer records that the buyer sent the bank transfer, moving the
// payment to review.
func (m *Machine) SubmitTransfer(ctx context.Context, orderID uuid.UUID, actor models.Actor) (models.PaymentStatus, error) {
	order, err := m.store.GetOrder(ctx, orderID)
	if err != nil {
		return "", err
	}
	if actor.ID != order.BuyerID {
		return "", models.ErrNotAuthorized
	}
	if order.PaymentStatus != models.PaymentAwaitingTransfer {
		return "", models.ErrInvalidTransition
	}

	if err := m.store.UpdatePaymentStatus(ctx, orderID, models.PaymentAwaitingTransfer, models.PaymentPendingReview); err != nil {
		return "", err
	}
	m.emit(orderID, events.EntityOrderPayment, string(models.PaymentAwaitingTransfer), string(models.PaymentPendingReview), actor)
	return models.PaymentPendingReview, nil
}

// ReviewPayment lets the seller confirm or reject a transfer under review.
// Rejection also cancels the order.
func (m *Machine) ReviewPayment(ctx context.Context, orderID uuid.UUID, approve bool, actor models.Actor) (models.PaymentStatus, error) {
	order, err := m.store.GetOrder(ctx, orderID)
	if err != nil {
		return "", err
	}
	if actor.Role != models.RoleSeller || actor.ID != order.SellerID {
		return "", models.ErrNotAuthorized
	}
	if order.PaymentStatus != models.PaymentPendingReview {
		return "", models.ErrInvalidTransition
	}

	target := models.PaymentConfirmed
	if !approve {
		target = models.PaymentRejected
	}
	if err := m.store.UpdatePaymentStatus(ctx, orderID, models.PaymentPendingReview, target); err != nil {
		return "", err
	}
	m.emit(orderID, events.EntityOrderPayment, string(models.PaymentPendingReview), string(target), actor)

	if !approve {
		if _, err := m.Cancel(ctx, orderID, models.ReasonPaymentRejected, models.Actor{ID: actor.ID, Role: models.RoleSystem}); err != nil {
			// The payment rejection stands either way; the order may already
			// be cancelled.
			if !errors.Is(err, models.ErrInvalidTransition) {
				return "", err
			}
		}
	}
	return target, nil
}

// Refund marks a confirmed payment refunded. Only meaningful for cancelled
// orders.
func (m *Machine) Refund(ctx context.Context, orderID uuid.UUID, actor models.Actor) (models.PaymentStatus, error) {
	order, err := m.store.GetOrder(ctx, orderID)
	if err != nil {
		return "", err
	}
	if actor.Role != models.RoleSeller || actor.ID != order.SellerID {
		return "", models.ErrNotAuthorized
	}
	if order.Status != models.OrderCancelledNoPayment && order.Status != models.OrderCancelledPaymentRejected {
		return "", models.ErrInvalidTransition
	}
	if order.PaymentStatus != models.PaymentConfirmed {
		return "", models.ErrInvalidTransition
	}

	if err := m.store.UpdatePaymentStatus(ctx, orderID, models.PaymentConfirmed, models.PaymentRefunded); err != nil {
		return "", err
	}
	m.emit(orderID, events.EntityOrderPayment, string(models.PaymentConfirmed), string(models.PaymentRefunded), actor)
	return models.PaymentRefunded, nil
}
