package http

import (
	appGuardrails "github.com/civiclink/guardrails/pkg/app/guardrails"
	"github.com/civiclink/guardrails/pkg/handlers/http/request"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type sanitizeHandler struct {
	logger *logrus.Logger
	engine appGuardrails.Engine
}

func NewSanitizeHandler(logger *logrus.Logger, engine appGuardrails.Engine) Handler {
	return &sanitizeHandler{
		logger: logger,
		engine: engine,
	}
}

func (h *sanitizeHandler) Handle(c *fiber.Ctx) error {
	var req request.SanitizeRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.WithError(err).Error("failed to parse sanitize request")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrInvalidJsonPayload})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	result := h.engine.ProcessOutput(c.UserContext(), *req.Response)
	return c.Status(fiber.StatusOK).JSON(result)
}
