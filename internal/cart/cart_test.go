package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sol1corejz/marketcore/internal/models"
)

func TestMemoryStore_ReplaceAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	userID := uuid.New()

	c := models.Cart{
		UserID:   userID,
		SellerID: uuid.New(),
		Items: []models.CartItem{
			{Name: "mug", UnitPriceCents: 700, Quantity: 2},
		},
	}
	if err := store.Replace(ctx, c); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	got, err := store.Get(ctx, userID)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].Name != "mug" {
		t.Errorf("Expected the stored cart back, got %+v", got.Items)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("Expected UpdatedAt to be stamped on replace")
	}

	// Replace is a full overwrite, not a merge.
	c.Items = []models.CartItem{{Name: "plate", UnitPriceCents: 900, Quantity: 1}}
	if err := store.Replace(ctx, c); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	got, _ = store.Get(ctx, userID)
	if len(got.Items) != 1 || got.Items[0].Name != "plate" {
		t.Errorf("Expected replaced cart, got %+v", got.Items)
	}
}

func TestMemoryStore_GetMissingIsEmpty(t *testing.T) {
	store := NewMemoryStore()
	userID := uuid.New()

	got, err := store.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if got.UserID != userID || len(got.Items) != 0 {
		t.Errorf("Expected empty cart for unknown user, got %+v", got)
	}
}

func TestMemoryStore_Clear(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	userID := uuid.New()

	store.Replace(ctx, models.Cart{
		UserID: userID,
		Items:  []models.CartItem{{Name: "mug", UnitPriceCents: 700, Quantity: 1}},
	})
	if err := store.Clear(ctx, userID); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	got, _ := store.Get(ctx, userID)
	if len(got.Items) != 0 {
		t.Errorf("Expected empty cart after clear, got %d items", len(got.Items))
	}
}

func TestMemoryStore_RejectsInvalidItems(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	cases := []struct {
		name string
		item models.CartItem
	}{
		{"negative price", models.CartItem{Name: "mug", UnitPriceCents: -1, Quantity: 1}},
		{"zero quantity", models.CartItem{Name: "mug", UnitPriceCents: 700, Quantity: 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := store.Replace(ctx, models.Cart{UserID: uuid.New(), Items: []models.CartItem{tc.item}})
			if !errors.Is(err, models.ErrInvalidAmount) {
				t.Errorf("Expected ErrInvalidAmount, got: %v", err)
			}
		})
	}
}
