package models

import "testing"

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderPending, OrderSellerConfirmed, true},
		{OrderPending, OrderCancelledNoPayment, true},
		{OrderPending, OrderDelivered, false},
		{OrderSellerConfirmed, OrderDelivered, true},
		{OrderSellerConfirmed, OrderCompleted, false},
		{OrderDelivered, OrderCompleted, true},
		{OrderDelivered, OrderCancelledNoPayment, false},
		{OrderCompleted, OrderPending, false},
		{OrderCancelledNoPayment, OrderPending, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	terminal := []OrderStatus{OrderCompleted, OrderCancelledNoPayment, OrderCancelledPaymentRejected}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("Expected %s to be terminal", s)
		}
	}
	open := []OrderStatus{OrderPending, OrderSellerConfirmed, OrderDelivered}
	for _, s := range open {
		if s.Terminal() {
			t.Errorf("Expected %s to not be terminal", s)
		}
	}
}

func TestCancelReasonStatus(t *testing.T) {
	if status, ok := ReasonNoPayment.Status(); !ok || status != OrderCancelledNoPayment {
		t.Errorf("Expected %s, got %s (%v)", OrderCancelledNoPayment, status, ok)
	}
	if status, ok := ReasonPaymentRejected.Status(); !ok || status != OrderCancelledPaymentRejected {
		t.Errorf("Expected %s, got %s (%v)", OrderCancelledPaymentRejected, status, ok)
	}
	if _, ok := CancelReason("buyer_regret").Status(); ok {
		t.Error("Expected unknown reason to be rejected")
	}
}

func TestPaymentStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to PaymentStatus
		want     bool
	}{
		{PaymentPending, PaymentConfirmed, true},
		{PaymentPending, PaymentAwaitingTransfer, true},
		{PaymentAwaitingTransfer, PaymentPendingReview, true},
		{PaymentAwaitingTransfer, PaymentConfirmed, false},
		{PaymentPendingReview, PaymentConfirmed, true},
		{PaymentPendingReview, PaymentRejected, true},
		{PaymentConfirmed, PaymentRefunded, true},
		{PaymentRejected, PaymentConfirmed, false},
		{PaymentRefunded, PaymentConfirmed, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestOfferStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to OfferStatus
		want     bool
	}{
		{OfferPending, OfferAccepted, true},
		{OfferPending, OfferPickedUp, false},
		{OfferAccepted, OfferPickedUp, true},
		{OfferAccepted, OfferInTransit, false},
		{OfferPickedUp, OfferInTransit, true},
		{OfferInTransit, OfferDelivered, true},
		{OfferInTransit, OfferPickedUp, false},
		{OfferDelivered, OfferCancelled, false},
		{OfferCancelled, OfferAccepted, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.want, got)
		}
	}

	// Every non-terminal status can still be cancelled.
	for _, s := range []OfferStatus{OfferPending, OfferAccepted, OfferPickedUp, OfferInTransit} {
		if !s.CanTransitionTo(OfferCancelled) {
			t.Errorf("Expected %s to allow cancellation", s)
		}
	}
}

func TestOfferStatusActive(t *testing.T) {
	active := []OfferStatus{OfferAccepted, OfferPickedUp, OfferInTransit}
	for _, s := range active {
		if !s.Active() {
			t.Errorf("Expected %s to be active", s)
		}
	}
	for _, s := range []OfferStatus{OfferPending, OfferDelivered, OfferCancelled} {
		if s.Active() {
			t.Errorf("Expected %s to not be active", s)
		}
	}
}

func TestPaymentMethodValid(t *testing.T) {
	if !PaymentTransfer.Valid() || !PaymentCash.Valid() {
		t.Error("Expected known payment methods to be valid")
	}
	if PaymentMethod("card").Valid() {
		t.Error("Expected unknown payment method to be invalid")
	}
}
