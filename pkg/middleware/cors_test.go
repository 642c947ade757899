package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/civiclink/guardrails/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCORSApp(cfg middleware.CORSConfig) *fiber.App {
	app := fiber.New()
	app.Use(middleware.NewCORSMiddleware(cfg).Middleware())
	app.Post("/v1/chat", func(c *fiber.Ctx) error { return c.SendString("ok") })
	return app
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name          string
		cfg           middleware.CORSConfig
		method        string
		origin        string
		preflight     bool
		expectStatus  int
		expectOrigin  string
		expectCreds   string
		expectMaxAge  string
		expectMethods string
	}{
		{
			name:         "no origin header",
			cfg:          middleware.CORSConfig{AllowOrigins: []string{"*"}},
			method:       http.MethodPost,
			expectStatus: fiber.StatusOK,
		},
		{
			name:         "origin not allowed",
			cfg:          middleware.CORSConfig{AllowOrigins: []string{"https://eservices.example.gov.za"}},
			method:       http.MethodPost,
			origin:       "https://evil.example.com",
			expectStatus: fiber.StatusOK,
		},
		{
			name:         "wildcard without credentials",
			cfg:          middleware.CORSConfig{AllowOrigins: []string{"*"}},
			method:       http.MethodPost,
			origin:       "https://widget.example.gov.za",
			expectStatus: fiber.StatusOK,
			expectOrigin: "*",
		},
		{
			name:         "credentials echo the origin",
			cfg:          middleware.CORSConfig{AllowOrigins: []string{"*"}, AllowCredentials: true},
			method:       http.MethodPost,
			origin:       "https://widget.example.gov.za",
			expectStatus: fiber.StatusOK,
			expectOrigin: "https://widget.example.gov.za",
			expectCreds:  "true",
		},
		{
			name:          "preflight",
			cfg:           middleware.CORSConfig{AllowOrigins: []string{"https://WIDGET.example.gov.za"}, MaxAge: 600},
			method:        http.MethodOptions,
			origin:        "https://widget.example.gov.za",
			preflight:     true,
			expectStatus:  fiber.StatusNoContent,
			expectOrigin:  "https://widget.example.gov.za",
			expectMaxAge:  "600",
			expectMethods: "GET, POST, OPTIONS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/v1/chat", nil)
			if tt.origin != "" {
				req.Header.Set(fiber.HeaderOrigin, tt.origin)
			}
			if tt.preflight {
				req.Header.Set(fiber.HeaderAccessControlRequestMethod, http.MethodPost)
			}

			resp, err := newCORSApp(tt.cfg).Test(req)
			require.NoError(t, err)

			assert.Equal(t, tt.expectStatus, resp.StatusCode)
			assert.Equal(t, tt.expectOrigin, resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
			assert.Equal(t, tt.expectCreds, resp.Header.Get(fiber.HeaderAccessControlAllowCredentials))
			assert.Equal(t, tt.expectMaxAge, resp.Header.Get(fiber.HeaderAccessControlMaxAge))
			assert.Equal(t, tt.expectMethods, resp.Header.Get(fiber.HeaderAccessControlAllowMethods))
		})
	}
}
