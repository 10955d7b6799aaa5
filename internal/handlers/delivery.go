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

type CreateOfferRequest struct {
	OrderID string `json:"orderId" validate:"required"`
}

func (h *Handlers) CreateOfferHandler(c *fiber.Ctx) error {
	var request CreateOfferRequest
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	orderID, err := uuid.Parse(request.OrderID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid order id",
		})
	}

	offer, err := h.Delivery.Create(ctx, orderID, actorFromCtx(c))
	if err != nil {
		return domainError(c, err)
	}

	logger.Log.Info("Delivery offer created",
		zap.String("offerID", offer.ID.String()), zap.String("orderID", orderID.String()))
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"id":     offer.ID,
		"status": offer.Status,
	})
}

func (h *Handlers) AcceptOfferHandler(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	offerID, err := pathID(c, "offerID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid offer id",
		})
	}

	status, err := h.Delivery.Accept(ctx, offerID, actorFromCtx(c))
	if err != nil {
		return domainError(c, err)
	}

	logger.Log.Info("Delivery offer accepted", zap.String("offerID", offerID.String()))
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": status,
	})
}

type AdvanceOfferRequest struct {
	To string `json:"to" validate:"required"`
}

func (h *Handlers) AdvanceOfferHandler(c *fiber.Ctx) error {
	var request AdvanceOfferRequest
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	offerID, err := pathID(c, "offerID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid offer id",
		})
	}
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	status, err := h.Delivery.Advance(ctx, offerID, models.OfferStatus(request.To), actorFromCtx(c))
	if err != nil {
		return domainError(c, err)
	}

	logger.Log.Info("Delivery offer advanced",
		zap.String("offerID", offerID.String()), zap.String("to", request.To))
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": status,
	})
}

func (h *Handlers) CancelOfferHandler(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	offerID, err := pathID(c, "offerID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid offer id",
		})
	}

	status, err := h.Delivery.Cancel(ctx, offerID, actorFromCtx(c))
	if err != nil {
		return domainError(c, err)
	}

	logger.Log.Info("Delivery offer cancelled", zap.String("offerID", offerID.String()))
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": status,
	})
}
