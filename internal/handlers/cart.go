package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sol1corejz/marketcore/internal/logger"
	"github.com/sol1corejz/marketcore/internal/models"
	"go.uber.org/zap"
)

func (h *Handlers) GetCartHandler(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	actor := actorFromCtx(c)
	cartState, err := h.Carts.Get(ctx, actor.ID)
	if err != nil {
		logger.Log.Error("Error getting cart", zap.Error(err))
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.Status(fiber.StatusOK).JSON(cartState)
}

type ReplaceCartRequest struct {
	SellerID string            `json:"sellerId" validate:"required"`
	Items    []models.CartItem `json:"items"`
}

func (h *Handlers) ReplaceCartHandler(c *fiber.Ctx) error {
	var request ReplaceCartRequest
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	sellerID, err := uuid.Parse(request.SellerID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid seller id",
		})
	}

	actor := actorFromCtx(c)
	err = h.Carts.Replace(ctx, models.Cart{
		UserID:   actor.ID,
		SellerID: sellerID,
		Items:    request.Items,
	})
	if err != nil {
		return domainError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *Handlers) ClearCartHandler(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	actor := actorFromCtx(c)
	if err := h.Carts.Clear(ctx, actor.ID); err != nil {
		logger.Log.Error("Error clearing cart", zap.Error(err))
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.SendStatus(fiber.StatusOK)
}
