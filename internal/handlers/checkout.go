package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sol1corejz/marketcore/internal/checkout"
	"github.com/sol1corejz/marketcore/internal/logger"
	"github.com/sol1corejz/marketcore/internal/models"
	"go.uber.org/zap"
)

type CheckoutRequest struct {
	SellerID        string          `json:"sellerId" validate:"required"`
	Items           []checkout.Item `json:"items"`
	PaymentMethod   string          `json:"paymentMethod" validate:"required"`
	RequestedPoints int64           `json:"requestedPointsToRedeem"`
}

func (h *Handlers) CheckoutHandler(c *fiber.Ctx) error {
	var request CheckoutRequest
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
	result, err := h.Checkout.Create(ctx, actor.ID, sellerID, request.Items, models.PaymentMethod(request.PaymentMethod), request.RequestedPoints)
	if err != nil {
		return domainError(c, err)
	}

	logger.Log.Info("Order created",
		zap.String("orderID", result.OrderID.String()),
		zap.String("buyerID", actor.ID.String()),
		zap.Int64("totalCents", result.TotalCents),
		zap.Int64("pointsSpent", result.PointsSpent))
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"orderId":       result.OrderID,
		"totalCents":    result.TotalCents,
		"discountCents": result.DiscountCents,
		"pointsSpent":   result.PointsSpent,
	})
}
