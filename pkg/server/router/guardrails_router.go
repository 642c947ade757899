package router

import (
	"errors"
	"net/http"
	"time"

	handlers "github.com/civiclink/guardrails/pkg/handlers/http"
	"github.com/civiclink/guardrails/pkg/middleware"
	"github.com/gofiber/fiber/v2"
)

const (
	HealthPath   = "/health"
	VersionPath  = "/api/v1/version"
	ValidatePath = "/v1/guardrails/validate"
	SanitizePath = "/v1/guardrails/sanitize"
	ChatPath     = "/v1/chat"
)

var ErrInvalidHandlerTransport = errors.New("invalid handler transport")

type guardrailsRouter struct {
	middlewareTransport *middleware.Transport
	handlerTransport    handlers.HandlerTransport
}

func NewGuardrailsRouter(
	middlewareTransport *middleware.Transport,
	handlerTransport handlers.HandlerTransport,
) ServerRouter {
	return &guardrailsRouter{
		middlewareTransport: middlewareTransport,
		handlerTransport:    handlerTransport,
	}
}

func (r *guardrailsRouter) BuildRoutes(router *fiber.App) error {
	handlerTransport, ok := r.handlerTransport.GetTransport().(*handlers.HandlerTransportDTO)
	if !ok {
		return ErrInvalidHandlerTransport
	}

	if middlewares := r.middlewareTransport.GetMiddlewares(); len(middlewares) > 0 {
		router.Use(middlewares...)
	}

	router.Get(HealthPath, func(ctx *fiber.Ctx) error {
		return ctx.Status(http.StatusOK).JSON(fiber.Map{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	router.Get(VersionPath, handlerTransport.GetVersionHandler.Handle)

	v1 := router.Group("/v1")
	{
		guardrails := v1.Group("/guardrails")
		{
			guardrails.Post("/validate", handlerTransport.ValidateHandler.Handle)
			guardrails.Post("/sanitize", handlerTransport.SanitizeHandler.Handle)
		}
		v1.Post("/chat", handlerTransport.ChatHandler.Handle)
	}
	return nil
}
