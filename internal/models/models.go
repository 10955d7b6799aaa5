package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleBuyer   Role = "buyer"
	RoleSeller  Role = "seller"
	RoleCourier Role = "courier"
	// RoleSystem is never issued in a token; it is used by background jobs
	// and internal relays acting on entities they do not own.
	RoleSystem Role = "system"
)

type Actor struct {
	ID   uuid.UUID
	Role Role
}

type OrderStatus string

const (
	OrderPending                  OrderStatus = "pending"
	OrderSellerConfirmed          OrderStatus = "seller_confirmed"
	OrderDelivered                OrderStatus = "delivered"
	OrderCompleted                OrderStatus = "completed"
	OrderCancelledNoPayment       OrderStatus = "cancelled_no_payment"
	OrderCancelledPaymentRejected OrderStatus = "cancelled_payment_rejected"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:         {OrderSellerConfirmed, OrderCancelledNoPayment, OrderCancelledPaymentRejected},
	OrderSellerConfirmed: {OrderDelivered, OrderCancelledNoPayment, OrderCancelledPaymentRejected},
	OrderDelivered:       {OrderCompleted},
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return len(orderTransitions[s]) == 0
}

type CancelReason string

const (
	ReasonNoPayment       CancelReason = "no_payment"
	ReasonPaymentRejected CancelReason = "payment_rejected"
)

func (r CancelReason) Status() (OrderStatus, bool) {
	switch r {
	case ReasonNoPayment:
		return OrderCancelledNoPayment, true
	case ReasonPaymentRejected:
		return OrderCancelledPaymentRejected, true
	}
	return "", false
}

type PaymentMethod string

const (
	PaymentTransfer PaymentMethod = "transfer"
	PaymentCash     PaymentMethod = "cash"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentTransfer || m == PaymentCash
}

type PaymentStatus string

const (
	PaymentPending          PaymentStatus = "pending"
	PaymentAwaitingTransfer PaymentStatus = "awaiting_transfer"
	PaymentPendingReview    PaymentStatus = "pending_review"
	PaymentConfirmed        PaymentStatus = "confirmed"
	PaymentRejected         PaymentStatus = "rejected"
	PaymentRefunded         PaymentStatus = "refunded"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:          {PaymentAwaitingTransfer, PaymentConfirmed},
	PaymentAwaitingTransfer: {PaymentPendingReview},
	PaymentPendingReview:    {PaymentConfirmed, PaymentRejected},
	PaymentConfirmed:        {PaymentRefunded},
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type OfferStatus string

const (
	OfferPending   OfferStatus = "pending"
	OfferAccepted  OfferStatus = "accepted"
	OfferPickedUp  OfferStatus = "picked_up"
	OfferInTransit OfferStatus = "in_transit"
	OfferDelivered OfferStatus = "delivered"
	OfferCancelled OfferStatus = "cancelled"
)

var offerTransitions = map[OfferStatus][]OfferStatus{
	OfferPending:   {OfferAccepted, OfferCancelled},
	OfferAccepted:  {OfferPickedUp, OfferCancelled},
	OfferPickedUp:  {OfferInTransit, OfferCancelled},
	OfferInTransit: {OfferDelivered, OfferCancelled},
}

func (s OfferStatus) CanTransitionTo(next OfferStatus) bool {
	for _, allowed := range offerTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OfferStatus) Terminal() bool {
	return s == OfferDelivered || s == OfferCancelled
}

// Active reports whether the offer holds the order's single courier slot.
func (s OfferStatus) Active() bool {
	return s == OfferAccepted || s == OfferPickedUp || s == OfferInTransit
}

type User struct {
	ID           uuid.UUID `db:"id"`
	Login        string    `db:"login"`
	PasswordHash string    `db:"password_hash"`
	Role         Role      `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
}

type Order struct {
	ID            uuid.UUID     `db:"id"`
	BuyerID       uuid.UUID     `db:"buyer_id"`
	SellerID      uuid.UUID     `db:"seller_id"`
	CourierID     uuid.NullUUID `db:"courier_id"`
	TotalCents    int64         `db:"total_cents"`
	DiscountCents int64         `db:"discount_cents"`
	PaymentMethod PaymentMethod `db:"payment_method"`
	PaymentStatus PaymentStatus `db:"payment_status"`
	Status        OrderStatus   `db:"status"`
	PointsAwarded sql.NullInt64 `db:"points_awarded"`
	CreatedAt     time.Time     `db:"created_at"`
	ExpiresAt     sql.NullTime  `db:"expires_at"`
}

type DeliveryOffer struct {
	ID        uuid.UUID     `db:"id"`
	OrderID   uuid.UUID     `db:"order_id"`
	CourierID uuid.NullUUID `db:"courier_id"`
	Status    OfferStatus   `db:"status"`
	CreatedAt time.Time     `db:"created_at"`
}

// PointsHistoryEntry is append-only: exactly one of PointsEarned and
// PointsSpent is non-zero.
type PointsHistoryEntry struct {
	ID           uuid.UUID     `db:"id"`
	UserID       uuid.UUID     `db:"user_id"`
	OrderID      uuid.NullUUID `db:"order_id"`
	SellerID     uuid.NullUUID `db:"seller_id"`
	PointsEarned int64         `db:"points_earned"`
	PointsSpent  int64         `db:"points_spent"`
	Description  string        `db:"description"`
	CreatedAt    time.Time     `db:"created_at"`
}

type SellerRewardsConfig struct {
	SellerID              uuid.UUID `db:"seller_id"`
	IsActive              bool      `db:"is_active"`
	MinimumPurchaseCents  int64     `db:"minimum_purchase_cents"`
	PointValueCents       int64     `db:"point_value_cents"`
	MaxRedemptionFraction float64   `db:"max_redemption_fraction"`
}

type CartItem struct {
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int64  `json:"quantity"`
}

type Cart struct {
	UserID    uuid.UUID  `json:"user_id"`
	SellerID  uuid.UUID  `json:"seller_id"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}
