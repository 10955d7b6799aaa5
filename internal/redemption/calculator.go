package redemption

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sol1corejz/marketcore/internal/models"
	"github.com/sol1corejz/marketcore/internal/storage"
)

type Quote struct {
	DiscountCents int64
	PointsToSpend int64
}

// Calculator decides how many points a buyer may redeem against an order
// total for a given seller. A seller without an active rewards config yields
// a zero quote, never an error, and out-of-range requests are clamped.
type Calculator struct {
	store storage.Store
}

func New(store storage.Store) *Calculator {
	return &Calculator{store: store}
}

func (c *Calculator) Quote(ctx context.Context, userID, sellerID uuid.UUID, orderTotalCents, requestedPoints int64) (Quote, error) {
	cfg, err := c.store.GetRewardsConfig(ctx, sellerID)
	if errors.Is(err, models.ErrConfigUnavailable) {
		return Quote{}, nil
	}
	if err != nil {
		return Quote{}, err
	}

	if !cfg.IsActive || cfg.PointValueCents <= 0 || cfg.MaxRedemptionFraction <= 0 {
		return Quote{}, nil
	}
	if orderTotalCents < cfg.MinimumPurchaseCents {
		return Quote{}, nil
	}

	maxDiscountCents := int64(float64(orderTotalCents) * cfg.MaxRedemptionFraction)
	maxPointsByDiscount := maxDiscountCents / cfg.PointValueCents

	balance, err := c.store.AvailableBalance(ctx, userID)
	if err != nil {
		return Quote{}, err
	}

	maxRedeemable := maxPointsByDiscount
	if balance < maxRedeemable {
		maxRedeemable = balance
	}

	points := requestedPoints
	if points < 0 {
		points = 0
	}
	if points > maxRedeemable {
		points = maxRedeemable
	}

	return Quote{
		DiscountCents: points * cfg.PointValueCents,
		PointsToSpend: points,
	}, nil
}
