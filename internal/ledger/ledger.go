package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sol1corejz/marketcore/internal/models"
	"github.com/sol1corejz/marketcore/internal/storage"
)

// Ledger is the single authority for loyalty-point balances. Balances are
// always derived from the append-only history, never stored.
type Ledger struct {
	store storage.Store
}

func New(store storage.Store) *Ledger {
	return &Ledger{store: store}
}

func (l *Ledger) AvailableBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	return l.store.AvailableBalance(ctx, userID)
}

func (l *Ledger) History(ctx context.Context, userID uuid.UUID) ([]models.PointsHistoryEntry, error) {
	return l.store.UserHistory(ctx, userID)
}

// AppendEarning records points earned for an order. At most one earning entry
// may exist per order; a repeat append fails with ErrDuplicateEntry.
func (l *Ledger) AppendEarning(ctx context.Context, userID, orderID, sellerID uuid.UUID, amount int64, description string) error {
	if amount <= 0 {
		return models.ErrInvalidAmount
	}
	return l.store.AppendEarning(ctx, NewEarning(userID, orderID, sellerID, amount, description))
}

// AppendSpending records points spent against an order. The balance check and
// the append are atomic per user; overdrawing fails with
// ErrInsufficientBalance.
func (l *Ledger) AppendSpending(ctx context.Context, userID, orderID, sellerID uuid.UUID, amount int64, description string) error {
	if amount <= 0 {
		return models.ErrInvalidAmount
	}
	return l.store.AppendSpending(ctx, NewSpending(userID, orderID, sellerID, amount, description))
}

func NewEarning(userID, orderID, sellerID uuid.UUID, amount int64, description string) models.PointsHistoryEntry {
	if description == "" {
		description = fmt.Sprintf("earned %d points for order %s", amount, orderID)
	}
	return models.PointsHistoryEntry{
		ID:           uuid.New(),
		UserID:       userID,
		OrderID:      uuid.NullUUID{UUID: orderID, Valid: true},
		SellerID:     uuid.NullUUID{UUID: sellerID, Valid: true},
		PointsEarned: amount,
		Description:  description,
		CreatedAt:    time.Now(),
	}
}

func NewSpending(userID, orderID, sellerID uuid.UUID, amount int64, description string) models.PointsHistoryEntry {
	if description == "" {
		description = fmt.Sprintf("redeemed %d points on order %s", amount, orderID)
	}
	return models.PointsHistoryEntry{
		ID:          uuid.New(),
		UserID:      userID,
		OrderID:     uuid.NullUUID{UUID: orderID, Valid: true},
		SellerID:    uuid.NullUUID{UUID: sellerID, Valid: true},
		PointsSpent: amount,
		Description: description,
		CreatedAt:   time.Now(),
	}
}
