package main

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/sol1corejz/marketcore/cmd/config"
	"github.com/sol1corejz/marketcore/internal/cart"
	"github.com/sol1corejz/marketcore/internal/checkout"
	"github.com/sol1corejz/marketcore/internal/delivery"
	"github.com/sol1corejz/marketcore/internal/events"
	"github.com/sol1corejz/marketcore/internal/handlers"
	"github.com/sol1corejz/marketcore/internal/ledger"
	"github.com/sol1corejz/marketcore/internal/logger"
	"github.com/sol1corejz/marketcore/internal/middleware"
	"github.com/sol1corejz/marketcore/internal/orders"
	"github.com/sol1corejz/marketcore/internal/redemption"
	"github.com/sol1corejz/marketcore/internal/storage"
	"github.com/sol1corejz/marketcore/internal/workers"
	"go.uber.org/zap"
)

func main() {
	config.ParseFlags()

	if err := logger.Initialize(config.LogLevel); err != nil {
		logger.Log.Fatal("Failed to initialize logger", zap.Error(err))
	}

	store, err := storage.NewPostgres(config.DatabaseURI)
	if err != nil {
		logger.Log.Error("Failed to init storage", zap.Error(err))
		return
	}

	var carts cart.Store
	if config.RedisAddress != "" {
		redisCarts, err := cart.NewRedisStore(config.RedisAddress, 24*time.Hour)
		if err != nil {
			logger.Log.Error("Failed to init cart storage", zap.Error(err))
			return
		}
		carts = redisCarts
	} else {
		logger.Log.Warn("No redis address configured, carts are held in process memory")
		carts = cart.NewMemoryStore()
	}

	dispatcher := events.Multi{events.LogDispatcher{}}
	if config.NotifyAMQPURL != "" {
		amqpDispatcher, err := events.NewAMQPDispatcher(config.NotifyAMQPURL)
		if err != nil {
			logger.Log.Error("Failed to init amqp dispatcher", zap.Error(err))
			return
		}
		defer amqpDispatcher.Close()
		dispatcher = append(dispatcher, amqpDispatcher)
	}

	orderMachine := orders.NewMachine(store, dispatcher)
	deliveryDispatcher := append(events.Multi{}, dispatcher...)
	deliveryDispatcher = append(deliveryDispatcher, orders.OfferCompletionRelay{Machine: orderMachine})
	deliveryMachine := delivery.NewMachine(store, deliveryDispatcher)

	calc := redemption.New(store)
	checkoutService := checkout.New(store, carts, calc, config.UnpaidOrderTTL)
	pointsLedger := ledger.New(store)

	reconciler := workers.NewReconciler(store, orderMachine, deliveryMachine, config.ReconcileInterval)
	reconciler.Start(context.Background())

	h := handlers.New(store, orderMachine, deliveryMachine, checkoutService, pointsLedger, carts)

	if err := run(h); err != nil {
		logger.Log.Fatal("Failed to run server", zap.Error(err))
	}
}

func run(h *handlers.Handlers) error {
	app := fiber.New()
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	app.Post("/api/user/register", h.RegisterHandler)
	app.Post("/api/user/login", h.LoginHandler)

	api := app.Group("/api", middleware.AuthMiddleware)

	api.Post("/checkout", h.CheckoutHandler)

	api.Get("/orders/:orderID", h.GetOrderHandler)
	api.Post("/orders/:orderID/confirm", h.ConfirmOrderHandler)
	api.Post("/orders/:orderID/delivered", h.MarkDeliveredHandler)
	api.Post("/orders/:orderID/complete", h.CompleteOrderHandler)
	api.Post("/orders/:orderID/cancel", h.CancelOrderHandler)
	api.Post("/orders/:orderID/payment/submit", h.SubmitTransferHandler)
	api.Post("/orders/:orderID/payment/review", h.ReviewPaymentHandler)
	api.Post("/orders/:orderID/payment/refund", h.RefundHandler)

	api.Post("/delivery", h.CreateOfferHandler)
	api.Post("/delivery/:offerID/accept", h.AcceptOfferHandler)
	api.Post("/delivery/:offerID/advance", h.AdvanceOfferHandler)
	api.Post("/delivery/:offerID/cancel", h.CancelOfferHandler)

	api.Get("/balance", h.GetBalanceHandler)
	api.Get("/points/history", h.GetHistoryHandler)

	api.Get("/cart", h.GetCartHandler)
	api.Put("/cart", h.ReplaceCartHandler)
	api.Delete("/cart", h.ClearCartHandler)

	api.Get("/rewards", h.GetRewardsConfigHandler)
	api.Put("/rewards", h.UpsertRewardsConfigHandler)

	logger.Log.Info("Running server", zap.String("address", config.RunAddress))
	return app.Listen(config.RunAddress)
}
