package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sol1corejz/marketcore/internal/auth"
	"github.com/sol1corejz/marketcore/internal/logger"
	"github.com/sol1corejz/marketcore/internal/models"
	"github.com/sol1corejz/marketcore/internal/tokenstorage"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

func (h *Handlers) RegisterHandler(c *fiber.Ctx) error {
	var request RegisterRequest
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	role := models.Role(request.Role)
	if role != models.RoleBuyer && role != models.RoleSeller && role != models.RoleCourier {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown role",
		})
	}

	_, err := h.Store.GetUserByLogin(ctx, request.Login)
	if err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "User already exists",
		})
	}
	if !errors.Is(err, models.ErrNotFound) {
		logger.Log.Error("Error while querying user", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(request.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Error("Error hashing password", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}

	user := models.User{
		ID:           uuid.New(),
		Login:        request.Login,
		PasswordHash: string(hashedPassword),
		Role:         role,
		CreatedAt:    time.Now(),
	}
	if err := h.Store.CreateUser(ctx, user); err != nil {
		logger.Log.Error("Error creating user", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}

	token, err := auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		logger.Log.Error("Error generating token", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}
	tokenstorage.AddToken(token)

	c.Cookie(&fiber.Cookie{
		Name:     "jwt",
		Value:    token,
		Expires:  time.Now().Add(auth.TokenTTL),
		HTTPOnly: true,
	})

	logger.Log.Info("User registered", zap.String("userID", user.ID.String()), zap.String("role", string(user.Role)))
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"id": user.ID,
	})
}

type LoginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handlers) LoginHandler(c *fiber.Ctx) error {
	var request LoginRequest
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	user, err := h.Store.GetUserByLogin(ctx, request.Login)
	if errors.Is(err, models.ErrNotFound) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid login or password",
		})
	}
	if err != nil {
		logger.Log.Error("Error while querying user", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(request.Password)) != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid login or password",
		})
	}

	token, err := auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		logger.Log.Error("Error generating token", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}
	tokenstorage.AddToken(token)

	c.Cookie(&fiber.Cookie{
		Name:     "jwt",
		Value:    token,
		Expires:  time.Now().Add(auth.TokenTTL),
		HTTPOnly: true,
	})

	return c.SendStatus(fiber.StatusOK)
}
