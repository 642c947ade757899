package middleware

import (
	"github.com/civiclink/guardrails/pkg/common"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type requestIDMiddleware struct{}

// NewRequestIDMiddleware puts the caller's X-Request-Id, or a fresh one, and
// the tenant header on the request context and echoes the ID back.
func NewRequestIDMiddleware() Middleware {
	return &requestIDMiddleware{}
}

func (m *requestIDMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(common.RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Request().Header.Set(common.RequestIDHeader, id)
		c.Set(common.RequestIDHeader, id)

		ctx := common.WithRequestID(c.UserContext(), id)
		if tenant := c.Get(common.TenantHeader); tenant != "" {
			ctx = common.WithTenant(ctx, tenant)
		}
		c.SetUserContext(ctx)
		return c.Next()
	}
}
