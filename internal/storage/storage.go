package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sol1corejz/marketcore/internal/models"
)

// Store is the persistence boundary for the order/delivery/points core.
// Every status-changing method is atomic: compare-and-swap against the
// expected prior status, so concurrent callers cannot both apply the same
// transition. Ledger appends are serialized per user.
type Store interface {
	CreateUser(ctx context.Context, user models.User) error
	GetUserByLogin(ctx context.Context, login string) (models.User, error)

	// CreateOrder persists the order and, when spend is non-nil, the points
	// spending entry in the same transaction. The balance check and the
	// append are not interleavable with other spends for the same user.
	CreateOrder(ctx context.Context, order models.Order, spend *models.PointsHistoryEntry) error
	GetOrder(ctx context.Context, id uuid.UUID) (models.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) error
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, from, to models.PaymentStatus) error
	// CompleteOrder moves a delivered order to completed, records the earning
	// entry and sets points_awarded, all in one transaction. Calling it on an
	// already-completed order returns the previously awarded points with
	// applied=false and no error.
	CompleteOrder(ctx context.Context, id uuid.UUID, points int64, earn *models.PointsHistoryEntry) (awarded int64, applied bool, err error)
	ExpiredUnpaidOrders(ctx context.Context, cutoff time.Time) ([]models.Order, error)

	// CreateOffer rejects a new offer while another offer for the same order
	// holds the courier slot.
	CreateOffer(ctx context.Context, offer models.DeliveryOffer) error
	GetOffer(ctx context.Context, id uuid.UUID) (models.DeliveryOffer, error)
	// AcceptOffer atomically moves a pending offer to accepted, sets its
	// courier of record and the order's courier. Fails with ConflictingOffer
	// when a sibling offer is already accepted, picked up or in transit.
	AcceptOffer(ctx context.Context, offerID, courierID uuid.UUID) error
	UpdateOfferStatus(ctx context.Context, id uuid.UUID, from, to models.OfferStatus) error
	OrphanedPendingOffers(ctx context.Context) ([]models.DeliveryOffer, error)

	AvailableBalance(ctx context.Context, userID uuid.UUID) (int64, error)
	AppendEarning(ctx context.Context, entry models.PointsHistoryEntry) error
	AppendSpending(ctx context.Context, entry models.PointsHistoryEntry) error
	UserHistory(ctx context.Context, userID uuid.UUID) ([]models.PointsHistoryEntry, error)
	NegativeBalances(ctx context.Context) ([]uuid.UUID, error)

	GetRewardsConfig(ctx context.Context, sellerID uuid.UUID) (models.SellerRewardsConfig, error)
	UpsertRewardsConfig(ctx context.Context, cfg models.SellerRewardsConfig) error
}
