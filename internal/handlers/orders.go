package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sol1corejz/marketcore/internal/logger"
	"github.com/sol1corejz/marketcore/internal/models"
	"go.uber.org/zap"
)

type OrderResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	TotalCents    int64  `json:"total_cents"`
	DiscountCents int64  `json:"discount_cents"`
	PointsAwarded *int64 `json:"points_awarded,omitempty"`
}

func (h *Handlers) GetOrderHandler(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	orderID, err := pathID(c, "orderID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid order id",
		})
	}

	actor := actorFromCtx(c)
	order, err := h.Store.GetOrder(ctx, orderID)
	if err != nil {
		return domainError(c, err)
	}
	if actor.ID != order.BuyerID && actor.ID != order.SellerID &&
		!(order.CourierID.Valid && actor.ID == order.CourierID.UUID) {
		return domainError(c, models.ErrNotAuthorized)
	}

	resp := OrderResponse{
		ID:            order.ID.String(),
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		TotalCents:    order.TotalCents,
		DiscountCents: order.DiscountCents,
	}
	if order.PointsAwarded.Valid {
		resp.PointsAwarded = &order.PointsAwarded.Int64
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *Handlers) ConfirmOrderHandler(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	orderID, err := pathID(c, "orderID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid order id",
		})
	}

	status, err := h.Orders.Confirm(ctx, orderID, actorFromCtx(c))
	if err != nil {
		return domainError(c, err)
	}

	logger.Log.Info("Order confirmed", zap.String("orderID", orderID.String()))
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": status,
	})
}

func (h *Handlers) MarkDeliveredHandler(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	orderID, err := pathID(c, "orderID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid order id",
		})
	}

	status, err := h.Orders.MarkDelivered(ctx, orderID, actorFromCtx(c))
	if err != nil {
		return domainError(c, err)
	}

	logger.Log.Info("Order delivered", zap.String("orderID", orderID.String()))
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": status,
	})
}

func (h *Handlers) CompleteOrderHandler(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	orderID, err := pathID(c, "orderID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid order id",
		})
	}

	status, pointsAwarded, err := h.Orders.Complete(ctx, orderID, actorFromCtx(c))
	if err != nil {
		return domainError(c, err)
	}

	logger.Log.Info("Order completed",
		zap.String("orderID", orderID.String()), zap.Int64("pointsAwarded", pointsAwarded))
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":        status,
		"pointsAwarded": pointsAwarded,
	})
}

type CancelOrderRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (h *Handlers) CancelOrderHandler(c *fiber.Ctx) error {
	var request CancelOrderRequest
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	orderID, err := pathID(c, "orderID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid order id",
		})
	}
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	reason := models.CancelReason(request.Reason)
	if _, ok := reason.Status(); !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown cancel reason",
		})
	}

	status, err := h.Orders.Cancel(ctx, orderID, reason, actorFromCtx(c))
	if err != nil {
		return domainError(c, err)
	}

	logger.Log.Info("Order cancelled",
		zap.String("orderID", orderID.String()), zap.String("reason", request.Reason))
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": status,
	})
}

func (h *Handlers) SubmitTransferHandler(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	orderID, err := pathID(c, "orderID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid order id",
		})
	}

	status, err := h.Orders.SubmitTransfer(ctx, orderID, actorFromCtx(c))
	if err != nil {
		return domainError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"paymentStatus": status,
	})
}

type ReviewPaymentRequest struct {
	Approve bool `json:"approve"`
}

func (h *Handlers) ReviewPaymentHandler(c *fiber.Ctx) error {
	var request ReviewPaymentRequest
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	orderID, err := pathID(c, "orderID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid order id",
		})
	}
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	status, err := h.Orders.ReviewPayment(ctx, orderID, request.Approve, actorFromCtx(c))
	if err != nil {
		return domainError(c, err)
	}

	logger.Log.Info("Payment reviewed",
		zap.String("orderID", orderID.String()), zap.Bool("approved", request.Approve))
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"paymentStatus": status,
	})
}

func (h *Handlers) RefundHandler(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	orderID, err := pathID(c, "orderID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid order id",
		})
	}

	status, err := h.Orders.Refund(ctx, orderID, actorFromCtx(c))
	if err != nil {
		return domainError(c, err)
	}

	logger.Log.Info("Payment refunded", zap.String("orderID", orderID.String()))
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"paymentStatus": status,
	})
}
