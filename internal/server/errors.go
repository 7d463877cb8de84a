package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"sto/internal/configs"
	"sto/internal/repositories"
	"sto/internal/savebd"
)

var (
	errInvalidJSON = fiber.NewError(fiber.StatusBadRequest, "Invalid JSON")
	errWriteFailed = fiber.NewError(fiber.StatusInternalServerError, "Write failed")
)

// ErrorHandler отдаёт ошибки в формате {"ok":false,"error":"..."}
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		code, message := classify(err)
		if code >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", ctx.Method()),
				zap.String("path", ctx.Path()),
				zap.Error(err),
			)
		}
		return ctx.Status(code).JSON(fiber.Map{
			"ok":    false,
			"error": message,
		})
	}
}

func classify(err error) (int, string) {
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code, fiberErr.Message
	case errors.Is(err, savebd.ErrMissingConfig):
		return fiber.StatusBadRequest, "Missing config parameter"
	case errors.Is(err, savebd.ErrNoOrderID):
		return fiber.StatusInternalServerError, "No order id in config"
	case errors.Is(err, configs.ErrNotFound), errors.Is(err, configs.ErrInvalidName):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, repositories.ErrInvalidTable):
		return fiber.StatusBadRequest, "Invalid table"
	}
	return fiber.StatusInternalServerError, err.Error()
}
