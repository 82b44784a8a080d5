package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"shop/internal/logger"
	"shop/internal/repositories"
	"shop/internal/services"
)

// Guards are the access checks handlers attach to their protected routes.
type Guards struct {
	Auth  fiber.Handler
	Staff fiber.Handler
}

// respondError maps service and repository errors onto HTTP statuses.
func respondError(c *fiber.Ctx, message string, err error) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  verr.Fields,
		})
	case errors.Is(err, repositories.ErrProductNotFound),
		errors.Is(err, repositories.ErrOrderNotFound),
		errors.Is(err, repositories.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Not found",
			"error":   err.Error(),
		})
	}

	logger.FromContext(c.UserContext()).Error(message, zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

// paramID parses a positive integer route parameter. A malformed value is a
// 404, like an unknown id.
func paramID(c *fiber.Ctx, name string) (uint, error) {
	n, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || n == 0 {
		return 0, fiber.NewError(fiber.StatusNotFound, "Not found")
	}
	return uint(n), nil
}
