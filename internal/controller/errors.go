package controller

import (
	"errors"

	"github.com/benbeisheim/chessrules-backend/internal/model"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

var statusByError = []struct {
	err    error
	status int
}{
	{model.ErrGameNotFound, fiber.StatusNotFound},
	{model.ErrPlayerNotInGame, fiber.StatusForbidden},
	{model.ErrNotYourTurn, fiber.StatusConflict},
	{model.ErrGameFull, fiber.StatusConflict},
	{model.ErrGameExists, fiber.StatusConflict},
	{model.ErrAlreadyQueued, fiber.StatusConflict},
	{model.ErrAlreadyConnected, fiber.StatusConflict},
	{model.ErrInvalidFormat, fiber.StatusBadRequest},
	{model.ErrOutOfBounds, fiber.StatusBadRequest},
	{model.ErrNoPieceAtSource, fiber.StatusUnprocessableEntity},
	{model.ErrIllegalPieceMove, fiber.StatusUnprocessableEntity},
	{model.ErrPathBlocked, fiber.StatusUnprocessableEntity},
	{model.ErrOwnPieceCapture, fiber.StatusUnprocessableEntity},
}

func statusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	for _, e := range statusByError {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return fiber.StatusInternalServerError
}

// ErrorHandler renders every error returned by a handler as {"error": "..."}.
// Internal errors are logged and their detail is not exposed.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	message := err.Error()
	if status == fiber.StatusInternalServerError {
		log.Errorw("request failed", "path", c.Path(), "method", c.Method(), "error", err)
		message = "internal server error"
	}
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}
