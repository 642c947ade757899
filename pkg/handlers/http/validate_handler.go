package http

import (
	appGuardrails "github.com/civiclink/guardrails/pkg/app/guardrails"
	"github.com/civiclink/guardrails/pkg/handlers/http/request"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type validateHandler struct {
	logger *logrus.Logger
	engine appGuardrails.Engine
}

func NewValidateHandler(logger *logrus.Logger, engine appGuardrails.Engine) Handler {
	return &validateHandler{
		logger: logger,
		engine: engine,
	}
}

// Handle runs the input guardrails over a citizen message without calling
// the agent. A blocked message is still a 200; the verdict says why.
func (h *validateHandler) Handle(c *fiber.Ctx) error {
	var req request.ValidateRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.WithError(err).Error("failed to parse validate request")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrInvalidJsonPayload})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	verdict := h.engine.ProcessInput(c.UserContext(), *req.Message)
	return c.Status(fiber.StatusOK).JSON(verdict)
}
