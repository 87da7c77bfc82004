package middlewares

import (
	"errors"

	"pomoc-backend/apperrors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// ErrorHandler centralizes error responses and keeps messages sanitized.
func ErrorHandler(c *fiber.Ctx, err error) error {
	// 1) Fiber errors (use their status code + message)
	if fe, ok := err.(*fiber.Error); ok {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}

	// 2) Validation errors (422 + per-field info)
	if ve, ok := err.(validator.ValidationErrors); ok {
		out := make(map[string]string, len(ve))
		for _, fe := range ve {
			out[fe.Field()] = fe.Tag()
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "validation failed",
			"errors":  out,
		})
	}

	// 3) Application taxonomy
	var validation *apperrors.ValidationError
	if errors.As(err, &validation) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": validation.Msg})
	}
	var auth *apperrors.AuthenticationError
	if errors.As(err, &auth) {
		// Signature failures are rejected before the payload is trusted;
		// the provider treats any non-2xx as "retry later".
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": auth.Msg})
	}
	if errors.Is(err, apperrors.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "not found"})
	}
	var provider *apperrors.ProviderError
	if errors.As(err, &provider) {
		log.Error().Err(provider.Err).Str("op", provider.Op).Msg("provider call failed")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": "payment provider unavailable"})
	}
	var persistence *apperrors.PersistenceError
	if errors.As(err, &persistence) {
		log.Error().Err(persistence.Err).Str("op", persistence.Op).Msg("store operation failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "internal server error"})
	}

	// 4) Unknown errors (500)
	log.Error().Err(err).Msg("internal error")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "internal server error",
	})
}
