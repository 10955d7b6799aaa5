package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sol1corejz/marketcore/internal/auth"
)

func AuthMiddleware(c *fiber.Ctx) error {
	tokenString := c.Cookies("jwt")
	if tokenString == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	actor, err := auth.ParseToken(tokenString)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired token",
		})
	}

	c.Locals("userID", actor.ID)
	c.Locals("role", actor.Role)

	return c.Next()
}
