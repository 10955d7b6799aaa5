package workers

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sol1corejz/marketcore/internal/delivery"
	"github.com/sol1corejz/marketcore/internal/events"
	"github.com/sol1corejz/marketcore/internal/models"
	"github.com/sol1corejz/marketcore/internal/orders"
	"github.com/sol1corejz/marketcore/internal/storage"
)

func newReconciler(store *storage.Memory) *Reconciler {
	orderMachine := orders.NewMachine(store, events.LogDispatcher{})
	deliveryMachine := delivery.NewMachine(store, events.LogDispatcher{})
	return NewReconciler(store, orderMachine, deliveryMachine, time.Minute)
}

func TestRunOnce_ExpiresUnpaidOrders(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	rec := newReconciler(store)

	expired := models.Order{
		ID:            uuid.New(),
		BuyerID:       uuid.New(),
		SellerID:      uuid.New(),
		TotalCents:    5000,
		PaymentMethod: models.PaymentTransfer,
		PaymentStatus: models.PaymentAwaitingTransfer,
		Status:        models.OrderPending,
		CreatedAt:     time.Now().Add(-time.Hour),
		ExpiresAt:     sql.NullTime{Time: time.Now().Add(-time.Minute), Valid: true},
	}
	fresh := expired
	fresh.ID = uuid.New()
	fresh.ExpiresAt = sql.NullTime{Time: time.Now().Add(time.Hour), Valid: true}

	for _, order := range []models.Order{expired, fresh} {
		if err := store.CreateOrder(ctx, order, nil); err != nil {
			t.Fatalf("Expected no error seeding order, got: %v", err)
		}
	}

	rec.RunOnce(ctx)

	got, _ := store.GetOrder(ctx, expired.ID)
	if got.Status != models.OrderCancelledNoPayment {
		t.Errorf("Expected expired order status %s, got %s", models.OrderCancelledNoPayment, got.Status)
	}

	got, _ = store.GetOrder(ctx, fresh.ID)
	if got.Status != models.OrderPending {
		t.Errorf("Expected fresh order untouched, got %s", got.Status)
	}
}

func TestRunOnce_SkipsConfirmedPayments(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	rec := newReconciler(store)

	order := models.Order{
		ID:            uuid.New(),
		BuyerID:       uuid.New(),
		SellerID:      uuid.New(),
		TotalCents:    5000,
		PaymentMethod: models.PaymentTransfer,
		PaymentStatus: models.PaymentConfirmed,
		Status:        models.OrderPending,
		CreatedAt:     time.Now().Add(-time.Hour),
		ExpiresAt:     sql.NullTime{Time: time.Now().Add(-time.Minute), Valid: true},
	}
	if err := store.CreateOrder(ctx, order, nil); err != nil {
		t.Fatalf("Expected no error seeding order, got: %v", err)
	}

	rec.RunOnce(ctx)

	got, _ := store.GetOrder(ctx, order.ID)
	if got.Status != models.OrderPending {
		t.Errorf("Expected paid order untouched past expiry, got %s", got.Status)
	}
}

func TestRunOnce_CancelsOrphanedOffers(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	rec := newReconciler(store)

	order := models.Order{
		ID:            uuid.New(),
		BuyerID:       uuid.New(),
		SellerID:      uuid.New(),
		TotalCents:    5000,
		PaymentMethod: models.PaymentCash,
		PaymentStatus: models.PaymentPending,
		Status:        models.OrderSellerConfirmed,
		CreatedAt:     time.Now(),
	}
	if err := store.CreateOrder(ctx, order, nil); err != nil {
		t.Fatalf("Expected no error seeding order, got: %v", err)
	}

	offer := models.DeliveryOffer{
		ID:        uuid.New(),
		OrderID:   order.ID,
		Status:    models.OfferPending,
		CreatedAt: time.Now(),
	}
	if err := store.CreateOffer(ctx, offer); err != nil {
		t.Fatalf("Expected no error seeding offer, got: %v", err)
	}

	// Order moves on without the offer ever being accepted.
	if err := store.UpdateOrderStatus(ctx, order.ID, models.OrderSellerConfirmed, models.OrderDelivered); err != nil {
		t.Fatalf("Expected no error advancing order, got: %v", err)
	}

	rec.RunOnce(ctx)

	got, _ := store.GetOffer(ctx, offer.ID)
	if got.Status != models.OfferCancelled {
		t.Errorf("Expected orphaned offer cancelled, got %s", got.Status)
	}
}

func TestRunOnce_LeavesLivePendingOffers(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	rec := newReconciler(store)

	order := models.Order{
		ID:            uuid.New(),
		BuyerID:       uuid.New(),
		SellerID:      uuid.New(),
		TotalCents:    5000,
		PaymentMethod: models.PaymentCash,
		PaymentStatus: models.PaymentPending,
		Status:        models.OrderSellerConfirmed,
		CreatedAt:     time.Now(),
	}
	store.CreateOrder(ctx, order, nil)

	offer := models.DeliveryOffer{
		ID:        uuid.New(),
		OrderID:   order.ID,
		Status:    models.OfferPending,
		CreatedAt: time.Now(),
	}
	store.CreateOffer(ctx, offer)

	rec.RunOnce(ctx)

	got, _ := store.GetOffer(ctx, offer.ID)
	if got.Status != models.OfferPending {
		t.Errorf("Expected live pending offer untouched, got %s", got.Status)
	}
}
