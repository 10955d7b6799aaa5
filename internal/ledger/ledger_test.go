package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sol1corejz/marketcore/internal/models"
	"github.com/sol1corejz/marketcore/internal/storage"
)

func TestAvailableBalance_DerivedFromHistory(t *testing.T) {
	ctx := context.Background()
	l := New(storage.NewMemory())
	userID := uuid.New()
	sellerID := uuid.New()

	if err := l.AppendEarning(ctx, userID, uuid.New(), sellerID, 100, ""); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if err := l.AppendEarning(ctx, userID, uuid.New(), sellerID, 50, ""); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if err := l.AppendSpending(ctx, userID, uuid.New(), sellerID, 30, ""); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	balance, err := l.AvailableBalance(ctx, userID)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if balance != 120 {
		t.Errorf("Expected balance 120, got %d", balance)
	}

	entries, err := l.History(ctx, userID)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("Expected 3 history entries, got %d", len(entries))
	}
	for _, e := range entries {
		if (e.PointsEarned == 0) == (e.PointsSpent == 0) {
			t.Errorf("Expected exactly one of earned/spent to be non-zero, got earned=%d spent=%d", e.PointsEarned, e.PointsSpent)
		}
	}
}

func TestAppendEarning_DuplicateOrder(t *testing.T) {
	ctx := context.Background()
	l := New(storage.NewMemory())
	userID := uuid.New()
	orderID := uuid.New()

	if err := l.AppendEarning(ctx, userID, orderID, uuid.New(), 10, ""); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	err := l.AppendEarning(ctx, userID, orderID, uuid.New(), 10, "")
	if !errors.Is(err, models.ErrDuplicateEntry) {
		t.Errorf("Expected ErrDuplicateEntry, got: %v", err)
	}

	balance, _ := l.AvailableBalance(ctx, userID)
	if balance != 10 {
		t.Errorf("Expected balance 10 after duplicate append, got %d", balance)
	}
}

func TestAppendSpending_InsufficientBalance(t *testing.T) {
	ctx := context.Background()
	l := New(storage.NewMemory())
	userID := uuid.New()

	if err := l.AppendEarning(ctx, userID, uuid.New(), uuid.New(), 20, ""); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	err := l.AppendSpending(ctx, userID, uuid.New(), uuid.New(), 21, "")
	if !errors.Is(err, models.ErrInsufficientBalance) {
		t.Errorf("Expected ErrInsufficientBalance, got: %v", err)
	}
}

func TestAppend_RejectsNonPositiveAmounts(t *testing.T) {
	ctx := context.Background()
	l := New(storage.NewMemory())
	userID := uuid.New()

	if err := l.AppendEarning(ctx, userID, uuid.New(), uuid.New(), 0, ""); !errors.Is(err, models.ErrInvalidAmount) {
		t.Errorf("Expected ErrInvalidAmount for zero earning, got: %v", err)
	}
	if err := l.AppendSpending(ctx, userID, uuid.New(), uuid.New(), -5, ""); !errors.Is(err, models.ErrInvalidAmount) {
		t.Errorf("Expected ErrInvalidAmount for negative spending, got: %v", err)
	}
}

func TestAppendSpending_ConcurrentNeverOverdraws(t *testing.T) {
	ctx := context.Background()
	l := New(storage.NewMemory())
	userID := uuid.New()

	if err := l.AppendEarning(ctx, userID, uuid.New(), uuid.New(), 100, ""); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.AppendSpending(ctx, userID, uuid.New(), uuid.New(), 30, ""); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded != 3 {
		t.Errorf("Expected exactly 3 spends of 30 to succeed against 100, got %d", succeeded)
	}

	balance, _ := l.AvailableBalance(ctx, userID)
	if balance != 100-int64(succeeded)*30 {
		t.Errorf("Expected balance %d, got %d", 100-succeeded*30, balance)
	}
	if balance < 0 {
		t.Errorf("Balance went negative: %d", balance)
	}
}
