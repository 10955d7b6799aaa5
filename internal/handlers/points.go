package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sol1corejz/marketcore/internal/logger"
	"go.uber.org/zap"
)

type BalanceResponse struct {
	Available int64 `json:"available"`
}

func (h *Handlers) GetBalanceHandler(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	actor := actorFromCtx(c)
	balance, err := h.Ledger.AvailableBalance(ctx, actor.ID)
	if err != nil {
		logger.Log.Error("Error getting balance", zap.Error(err))
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.Status(fiber.StatusOK).JSON(BalanceResponse{
		Available: balance,
	})
}

type HistoryEntryResponse struct {
	OrderID      string    `json:"order,omitempty"`
	PointsEarned int64     `json:"points_earned"`
	PointsSpent  int64     `json:"points_spent"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
}

func (h *Handlers) GetHistoryHandler(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	actor := actorFromCtx(c)
	entries, err := h.Ledger.History(ctx, actor.ID)
	if err != nil {
		logger.Log.Error("Error getting points history", zap.Error(err))
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	if len(entries) == 0 {
		return c.SendStatus(fiber.StatusNoContent)
	}

	var response []HistoryEntryResponse
	for _, entry := range entries {
		item := HistoryEntryResponse{
			PointsEarned: entry.PointsEarned,
			PointsSpent:  entry.PointsSpent,
			Description:  entry.Description,
			CreatedAt:    entry.CreatedAt,
		}
		if entry.OrderID.Valid {
			item.OrderID = entry.OrderID.UUID.String()
		}
		response = append(response, item)
	}

	return c.Status(fiber.StatusOK).JSON(response)
}
