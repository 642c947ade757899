package http

import (
	appGuardrails "github.com/civiclink/guardrails/pkg/app/guardrails"
	"github.com/civiclink/guardrails/pkg/common"
	"github.com/civiclink/guardrails/pkg/domain/guardrail"
	"github.com/civiclink/guardrails/pkg/handlers/http/request"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type ChatHandlerDeps struct {
	Logger *logrus.Logger
	Engine appGuardrails.Engine
	Agent  guardrail.AgentFunc
}

type chatHandler struct {
	logger *logrus.Logger
	engine appGuardrails.Engine
	agent  guardrail.AgentFunc
}

func NewChatHandler(deps ChatHandlerDeps) Handler {
	return &chatHandler{
		logger: deps.Logger,
		engine: deps.Engine,
		agent:  deps.Agent,
	}
}

// Handle wraps one citizen turn in the full guardrails pipeline. Agent
// failures surface in the body, never as a 5xx.
func (h *chatHandler) Handle(c *fiber.Ctx) error {
	var req request.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.WithError(err).Error("failed to parse chat request")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrInvalidJsonPayload})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	chatCtx, err := req.DecodeContext()
	if err != nil {
		h.logger.WithError(err).Warn("invalid chat context")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrInvalidContext})
	}

	ctx := c.UserContext()
	if chatCtx.TenantID != "" && common.Tenant(ctx) == "" {
		ctx = common.WithTenant(ctx, chatCtx.TenantID)
	}

	result := h.engine.SafeAgentCall(ctx, h.agent, *req.Message, req.Context)
	return c.Status(fiber.StatusOK).JSON(result)
}
