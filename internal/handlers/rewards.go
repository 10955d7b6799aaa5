package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sol1corejz/marketcore/internal/logger"
	"github.com/sol1corejz/marketcore/internal/models"
	"go.uber.org/zap"
)

func (h *Handlers) GetRewardsConfigHandler(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	actor := actorFromCtx(c)
	if actor.Role != models.RoleSeller {
		return domainError(c, models.ErrNotAuthorized)
	}

	cfg, err := h.Store.GetRewardsConfig(ctx, actor.ID)
	if errors.Is(err, models.ErrConfigUnavailable) {
		return c.SendStatus(fiber.StatusNoContent)
	}
	if err != nil {
		logger.Log.Error("Error getting rewards config", zap.Error(err))
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.Status(fiber.StatusOK).JSON(cfg)
}

type UpsertRewardsRequest struct {
	IsActive              bool    `json:"is_active"`
	MinimumPurchaseCents  int64   `json:"minimum_purchase_cents"`
	PointValueCents       int64   `json:"point_value_cents"`
	MaxRedemptionFraction float64 `json:"max_redemption_fraction"`
}

func (h *Handlers) UpsertRewardsConfigHandler(c *fiber.Ctx) error {
	var request UpsertRewardsRequest
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	actor := actorFromCtx(c)
	if actor.Role != models.RoleSeller {
		return domainError(c, models.ErrNotAuthorized)
	}

	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if request.MinimumPurchaseCents < 0 || request.PointValueCents < 0 ||
		request.MaxRedemptionFraction < 0 || request.MaxRedemptionFraction > 1 {
		return domainError(c, models.ErrInvalidAmount)
	}

	err := h.Store.UpsertRewardsConfig(ctx, models.SellerRewardsConfig{
		SellerID:              actor.ID,
		IsActive:              request.IsActive,
		MinimumPurchaseCents:  request.MinimumPurchaseCents,
		PointValueCents:       request.PointValueCents,
		MaxRedemptionFraction: request.MaxRedemptionFraction,
	})
	if err != nil {
		logger.Log.Error("Error saving rewards config", zap.Error(err))
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	logger.Log.Info("Rewards config updated", zap.String("sellerID", actor.ID.String()))
	return c.SendStatus(fiber.StatusOK)
}
