package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sol1corejz/marketcore/internal/cart"
	"github.com/sol1corejz/marketcore/internal/checkout"
	"github.com/sol1corejz/marketcore/internal/delivery"
	"github.com/sol1corejz/marketcore/internal/ledger"
	"github.com/sol1corejz/marketcore/internal/logger"
	"github.com/sol1corejz/marketcore/internal/models"
	"github.com/sol1corejz/marketcore/internal/orders"
	"github.com/sol1corejz/marketcore/internal/storage"
	"go.uber.org/zap"
)

type Handlers struct {
	Store    storage.Store
	Orders   *orders.Machine
	Delivery *delivery.Machine
	Checkout *checkout.Service
	Ledger   *ledger.Ledger
	Carts    cart.Store
}

func New(store storage.Store, orderMachine *orders.Machine, deliveryMachine *delivery.Machine, checkoutService *checkout.Service, pointsLedger *ledger.Ledger, carts cart.Store) *Handlers {
	return &Handlers{
		Store:    store,
		Orders:   orderMachine,
		Delivery: deliveryMachine,
		Checkout: checkoutService,
		Ledger:   pointsLedger,
		Carts:    carts,
	}
}

func actorFromCtx(c *fiber.Ctx) models.Actor {
	return models.Actor{
		ID:   c.Locals("userID").(uuid.UUID),
		Role: c.Locals("role").(models.Role),
	}
}

func pathID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Params(name))
}

func domainError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Not found",
		})
	case errors.Is(err, models.ErrInvalidTransition), errors.Is(err, models.ErrConflictingOffer):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "This order or delivery was just updated, please refresh",
		})
	case errors.Is(err, models.ErrNotAuthorized):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Permission denied",
		})
	case errors.Is(err, models.ErrInsufficientBalance):
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
			"error": "You don't have enough points",
		})
	case errors.Is(err, models.ErrInvalidAmount):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Amounts must be non-negative integers",
		})
	case errors.Is(err, checkout.ErrEmptyCart):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cart is empty",
		})
	default:
		logger.Log.Error("Internal error", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}
}
