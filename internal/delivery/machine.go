package delivery

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sol1corejz/marketcore/internal/events"
	"github.com/sol1corejz/marketcore/internal/models"
	"github.com/sol1corejz/marketcore/internal/storage"
)

// Machine owns courier-assignment status changes. Offers may be pending for
// several couriers at once; at most one offer per order holds the accepted /
// picked_up / in_transit slot, and the first accepting courier wins it.
type Machine struct {
	store      storage.Store
	dispatcher events.Dispatcher
}

func NewMachine(store storage.Store, dispatcher events.Dispatcher) *Machine {
	return &Machine{store: store, dispatcher: dispatcher}
}

func (m *Machine) emit(offer models.DeliveryOffer, from, to models.OfferStatus, actor models.Actor) {
	m.dispatcher.Notify(events.Event{
		EntityType: events.EntityOffer,
		EntityID:   offer.ID,
		OrderID:    offer.OrderID,
		FromStatus: string(from),
		ToStatus:   string(to),
		ActorID:    actor.ID,
		OccurredAt: time.Now(),
	})
}

// Create opens a pending offer for a confirmed order. Seller only; rejected
// while another offer holds the order's courier slot.
func (m *Machine) Create(ctx context.Context, orderID uuid.UUID, actor models.Actor) (models.DeliveryOffer, error) {
	order, err := m.store.GetOrder(ctx, orderID)
	if err != nil {
		return models.DeliveryOffer{}, err
	}
	if actor.Role != models.RoleSeller || actor.ID != order.SellerID {
		return models.DeliveryOffer{}, models.ErrNotAuthorized
	}
	if order.Status != models.OrderSellerConfirmed {
		return models.DeliveryOffer{}, models.ErrInvalidTransition
	}

	offer := models.DeliveryOffer{
		ID:        uuid.New(),
		OrderID:   orderID,
		Status:    models.OfferPending,
		CreatedAt: time.Now(),
	}
	if err := m.store.CreateOffer(ctx, offer); err != nil {
		return models.DeliveryOffer{}, err
	}
	m.emit(offer, "", models.OfferPending, actor)
	return offer, nil
}

// Accept makes the calling courier the offer's courier of record. Exactly one
// of several racing couriers succeeds; the rest see ConflictingOffer.
func (m *Machine) Accept(ctx context.Context, offerID uuid.UUID, actor models.Actor) (models.OfferStatus, error) {
	if actor.Role != models.RoleCourier {
		return "", models.ErrNotAuthorized
	}

	offer, err := m.store.GetOffer(ctx, offerID)
	if err != nil {
		return "", err
	}
	if offer.Status != models.OfferPending {
		return "", models.ErrInvalidTransition
	}

	if err := m.store.AcceptOffer(ctx, offerID, actor.ID); err != nil {
		return "", err
	}
	m.emit(offer, models.OfferPending, models.OfferAccepted, actor)
	return models.OfferAccepted, nil
}

// Advance moves an accepted offer one step along
// accepted -> picked_up -> in_transit -> delivered. Skipping a step is an
// invalid transition. Courier of record only.
func (m *Machine) Advance(ctx context.Context, offerID uuid.UUID, to models.OfferStatus, actor models.Actor) (models.OfferStatus, error) {
	offer, err := m.store.GetOffer(ctx, offerID)
	if err != nil {
		return "", err
	}
	if actor.Role != models.RoleCourier || !offer.CourierID.Valid || actor.ID != offer.CourierID.UUID {
		return "", models.ErrNotAuthorized
	}
	if to == models.OfferCancelled || to == models.OfferAccepted || !offer.Status.CanTransitionTo(to) {
		return "", models.ErrInvalidTransition
	}

	if err := m.store.UpdateOfferStatus(ctx, offerID, offer.Status, to); err != nil {
		return "", err
	}
	m.emit(offer, offer.Status, to, actor)
	return to, nil
}

// Cancel closes a non-terminal offer. Allowed to the seller of the order, the
// offer's courier of record, or the reconciliation job.
func (m *Machine) Cancel(ctx context.Context, offerID uuid.UUID, actor models.Actor) (models.OfferStatus, error) {
	offer, err := m.store.GetOffer(ctx, offerID)
	if err != nil {
		return "", err
	}

	switch {
	case actor.Role == models.RoleSystem:
	case actor.Role == models.RoleCourier && offer.CourierID.Valid && actor.ID == offer.CourierID.UUID:
	case actor.Role == models.RoleSeller:
		order, err := m.store.GetOrder(ctx, offer.OrderID)
		if err != nil {
			return "", err
		}
		if actor.ID != order.SellerID {
			return "", models.ErrNotAuthorized
		}
	default:
		return "", models.ErrNotAuthorized
	}

	if offer.Status.Terminal() {
		return "", models.ErrInvalidTransition
	}

	if err := m.store.UpdateOfferStatus(ctx, offerID, offer.Status, models.OfferCancelled); err != nil {
		return "", err
	}
	m.emit(offer, offer.Status, models.OfferCancelled, actor)
	return models.OfferCancelled, nil
}
