package checkout

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sol1corejz/marketcore/internal/cart"
	"github.com/sol1corejz/marketcore/internal/ledger"
	"github.com/sol1corejz/marketcore/internal/models"
	"github.com/sol1corejz/marketcore/internal/redemption"
	"github.com/sol1corejz/marketcore/internal/storage"
)

var ErrEmptyCart = errors.New("cart is empty")

type Item struct {
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int64  `json:"quantity"`
}

type Result struct {
	OrderID       uuid.UUID
	TotalCents    int64
	DiscountCents int64
	PointsSpent   int64
}

// Service creates orders. Any requested redemption is re-verified against the
// seller's rewards config and the buyer's derived balance at creation time;
// client-supplied discounts are advisory only.
type Service struct {
	store          storage.Store
	carts          cart.Store
	calc           *redemption.Calculator
	unpaidOrderTTL time.Duration
}

func New(store storage.Store, carts cart.Store, calc *redemption.Calculator, unpaidOrderTTL time.Duration) *Service {
	return &Service{store: store, carts: carts, calc: calc, unpaidOrderTTL: unpaidOrderTTL}
}

// Create prices the purchase, quotes the redemption and persists the order
// together with its spending ledger entry in one atomic store operation.
// With no items in the request, the buyer's server-held cart for the seller
// is used and cleared on success.
func (s *Service) Create(ctx context.Context, buyerID, sellerID uuid.UUID, items []Item, method models.PaymentMethod, requestedPoints int64) (Result, error) {
	if !method.Valid() || requestedPoints < 0 {
		return Result{}, models.ErrInvalidAmount
	}

	fromCart := false
	if len(items) == 0 {
		c, err := s.carts.Get(ctx, buyerID)
		if err != nil {
			return Result{}, err
		}
		if len(c.Items) == 0 || c.SellerID != sellerID {
			return Result{}, ErrEmptyCart
		}
		for _, it := range c.Items {
			items = append(items, Item{Name: it.Name, UnitPriceCents: it.UnitPriceCents, Quantity: it.Quantity})
		}
		fromCart = true
	}

	var total int64
	for _, it := range items {
		if it.UnitPriceCents < 0 || it.Quantity <= 0 {
			return Result{}, models.ErrInvalidAmount
		}
		total += it.UnitPriceCents * it.Quantity
	}

	quote, err := s.calc.Quote(ctx, buyerID, sellerID, total, requestedPoints)
	if err != nil {
		return Result{}, err
	}

	paymentStatus := models.PaymentPending
	if method == models.PaymentTransfer {
		paymentStatus = models.PaymentAwaitingTransfer
	}

	now := time.Now()
	order := models.Order{
		ID:            uuid.New(),
		BuyerID:       buyerID,
		SellerID:      sellerID,
		TotalCents:    total - quote.DiscountCents,
		DiscountCents: quote.DiscountCents,
		PaymentMethod: method,
		PaymentStatus: paymentStatus,
		Status:        models.OrderPending,
		CreatedAt:     now,
		ExpiresAt:     sql.NullTime{Time: now.Add(s.unpaidOrderTTL), Valid: true},
	}

	var spend *models.PointsHistoryEntry
	if quote.PointsToSpend > 0 {
		entry := ledger.NewSpending(buyerID, order.ID, sellerID, quote.PointsToSpend, "")
		spend = &entry
	}

	if err := s.store.CreateOrder(ctx, order, spend); err != nil {
		return Result{}, err
	}

	if fromCart {
		// Best effort: the order exists either way.
		s.carts.Clear(ctx, buyerID)
	}

	return Result{
		OrderID:       order.ID,
		TotalCents:    order.TotalCents,
		DiscountCents: order.DiscountCents,
		PointsSpent:   quote.PointsToSpend,
	}, nil
}
