package redemption

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sol1corejz/marketcore/internal/ledger"
	"github.com/sol1corejz/marketcore/internal/models"
	"github.com/sol1corejz/marketcore/internal/storage"
)

func seedBalance(t *testing.T, store *storage.Memory, userID uuid.UUID, amount int64) {
	t.Helper()
	err := store.AppendEarning(context.Background(), ledger.NewEarning(userID, uuid.New(), uuid.New(), amount, ""))
	if err != nil {
		t.Fatalf("Expected no error seeding balance, got: %v", err)
	}
}

func TestQuote_ClampsToBalance(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	userID := uuid.New()
	sellerID := uuid.New()

	seedBalance(t, store, userID, 40)
	store.UpsertRewardsConfig(ctx, models.SellerRewardsConfig{
		SellerID:              sellerID,
		IsActive:              true,
		PointValueCents:       35,
		MaxRedemptionFraction: 0.5,
	})

	quote, err := New(store).Quote(ctx, userID, sellerID, 10000, 50)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if quote.PointsToSpend != 40 {
		t.Errorf("Expected 50 requested points clamped to 40, got %d", quote.PointsToSpend)
	}
	if quote.DiscountCents != 40*35 {
		t.Errorf("Expected discount %d, got %d", 40*35, quote.DiscountCents)
	}
}

func TestQuote_ClampsToDiscountCap(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	userID := uuid.New()
	sellerID := uuid.New()

	seedBalance(t, store, userID, 1000)
	store.UpsertRewardsConfig(ctx, models.SellerRewardsConfig{
		SellerID:              sellerID,
		IsActive:              true,
		PointValueCents:       35,
		MaxRedemptionFraction: 0.5,
	})

	quote, err := New(store).Quote(ctx, userID, sellerID, 10000, 1000)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	// floor(10000*0.5) = 5000, floor(5000/35) = 142
	if quote.PointsToSpend != 142 {
		t.Errorf("Expected 142 points, got %d", quote.PointsToSpend)
	}
	if quote.DiscountCents != 142*35 {
		t.Errorf("Expected discount %d, got %d", 142*35, quote.DiscountCents)
	}
}

func TestQuote_NoConfigYieldsZero(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	userID := uuid.New()
	seedBalance(t, store, userID, 40)

	quote, err := New(store).Quote(ctx, userID, uuid.New(), 10000, 40)
	if err != nil {
		t.Fatalf("Expected no error for missing config, got: %v", err)
	}
	if quote.PointsToSpend != 0 || quote.DiscountCents != 0 {
		t.Errorf("Expected zero quote, got %+v", quote)
	}
}

func TestQuote_InactiveOrBelowMinimum(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	userID := uuid.New()
	sellerID := uuid.New()
	seedBalance(t, store, userID, 40)

	cfg := models.SellerRewardsConfig{
		SellerID:              sellerID,
		IsActive:              false,
		PointValueCents:       35,
		MaxRedemptionFraction: 0.5,
	}
	store.UpsertRewardsConfig(ctx, cfg)

	quote, err := New(store).Quote(ctx, userID, sellerID, 10000, 40)
	if err != nil || quote.PointsToSpend != 0 {
		t.Errorf("Expected zero quote for inactive config, got %+v err=%v", quote, err)
	}

	cfg.IsActive = true
	cfg.MinimumPurchaseCents = 20000
	store.UpsertRewardsConfig(ctx, cfg)

	quote, err = New(store).Quote(ctx, userID, sellerID, 10000, 40)
	if err != nil || quote.PointsToSpend != 0 {
		t.Errorf("Expected zero quote below minimum purchase, got %+v err=%v", quote, err)
	}
}

func TestQuote_NegativeRequestClampsToZero(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	userID := uuid.New()
	sellerID := uuid.New()
	seedBalance(t, store, userID, 40)
	store.UpsertRewardsConfig(ctx, models.SellerRewardsConfig{
		SellerID:              sellerID,
		IsActive:              true,
		PointValueCents:       35,
		MaxRedemptionFraction: 0.5,
	})

	quote, err := New(store).Quote(ctx, userID, sellerID, 10000, -10)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if quote.PointsToSpend != 0 || quote.DiscountCents != 0 {
		t.Errorf("Expected zero quote for negative request, got %+v", quote)
	}
}

func TestQuote_SpendingQuoteNeverOverdraws(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	userID := uuid.New()
	sellerID := uuid.New()
	seedBalance(t, store, userID, 40)
	store.UpsertRewardsConfig(ctx, models.SellerRewardsConfig{
		SellerID:              sellerID,
		IsActive:              true,
		PointValueCents:       35,
		MaxRedemptionFraction: 0.5,
	})

	for _, requested := range []int64{0, 1, 40, 41, 9999} {
		quote, err := New(store).Quote(ctx, userID, sellerID, 10000, requested)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if quote.PointsToSpend == 0 {
			continue
		}
		entry := ledger.NewSpending(userID, uuid.New(), sellerID, quote.PointsToSpend, "")
		if err := store.AppendSpending(ctx, entry); err != nil {
			t.Errorf("Quoted spend of %d (requested %d) was rejected: %v", quote.PointsToSpend, requested, err)
		}
		// Put the points back for the next round.
		store.AppendEarning(ctx, ledger.NewEarning(userID, uuid.New(), sellerID, quote.PointsToSpend, ""))
	}
}
