package agent

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/civiclink/guardrails/pkg/domain/guardrail"
	"github.com/civiclink/guardrails/pkg/infra/httpx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

func newTestClient(t *testing.T, handler fasthttp.RequestHandler) *Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: handler}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = ln.Close() })

	httpClient := httpx.NewFastHTTPClient(
		httpx.WithTimeout(2*time.Second),
		httpx.WithDial(func(string) (net.Conn, error) { return ln.Dial() }),
	)
	breaker := httpx.NewCircuitBreaker("agent-test", httpx.BreakerConfig{Timeout: time.Second, MaxFailures: 5})

	return NewClient(Config{
		URL:     "http://agent.local/invoke",
		Headers: map[string]string{"X-Tenant": "ward-7"},
	}, httpClient, breaker)
}

func TestClient_Call(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		expected    guardrail.AgentResponse
	}{
		{
			name:     "plain text reply",
			status:   fasthttp.StatusOK,
			body:     "Your ticket has been logged.",
			expected: guardrail.PlainText("Your ticket has been logged."),
		},
		{
			name:        "json object reply is structured",
			status:      fasthttp.StatusOK,
			contentType: "application/json",
			body:        `{"response":"Logged as #42","ticket":{"id":42,"urgent":true},"tags":["water",null]}`,
			expected: guardrail.Structured{
				"response": "Logged as #42",
				"ticket":   map[string]any{"id": float64(42), "urgent": true},
				"tags":     []any{"water", nil},
			},
		},
		{
			name:        "json string reply is unquoted",
			status:      fasthttp.StatusOK,
			contentType: "application/json",
			body:        `"hello \"ward\" 7\nthanks"`,
			expected:    guardrail.PlainText("hello \"ward\" 7\nthanks"),
		},
		{
			name:        "json array reply stays raw",
			status:      fasthttp.StatusOK,
			contentType: "application/json",
			body:        `["a","b"]`,
			expected:    guardrail.PlainText(`["a","b"]`),
		},
		{
			name:     "bare number stays raw",
			status:   fasthttp.StatusOK,
			body:     "42",
			expected: guardrail.PlainText("42"),
		},
		{
			name:     "created counts as success",
			status:   fasthttp.StatusCreated,
			body:     "ok",
			expected: guardrail.PlainText("ok"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
				ctx.SetStatusCode(tt.status)
				if tt.contentType != "" {
					ctx.SetContentType(tt.contentType)
				}
				ctx.SetBodyString(tt.body)
			})

			resp, err := client.Call(context.Background(), "There is a water leak", nil)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, resp)
		})
	}
}

func TestClient_Call_SendsMessageAndContext(t *testing.T) {
	var (
		got     invokeRequest
		tenant  string
		method  string
		encoded string
	)
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		method = string(ctx.Method())
		tenant = string(ctx.Request.Header.Peek("X-Tenant"))
		encoded = string(ctx.Request.Header.Peek(fasthttp.HeaderAcceptEncoding))
		_ = json.Unmarshal(ctx.PostBody(), &got)
		ctx.SetBodyString("ok")
	})

	_, err := client.Call(context.Background(), "Streetlight out", map[string]any{"ward": "7"})

	require.NoError(t, err)
	assert.Equal(t, fasthttp.MethodPost, method)
	assert.Equal(t, "ward-7", tenant)
	assert.Equal(t, httpx.AcceptEncoding, encoded)
	assert.Equal(t, "Streetlight out", got.Message)
	assert.Equal(t, map[string]any{"ward": "7"}, got.Context)
}

func TestClient_Call_DecodesCompressedBody(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, _ = gz.Write([]byte(`{"response":"compressed"}`))
	_ = gz.Close()

	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		ctx.Response.Header.Set(fasthttp.HeaderContentEncoding, "gzip")
		ctx.SetBody(buf.Bytes())
	})

	resp, err := client.Call(context.Background(), "hi", nil)

	require.NoError(t, err)
	assert.Equal(t, guardrail.Structured{"response": "compressed"}, resp)
}

func TestClient_Call_UpstreamError(t *testing.T) {
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusBadGateway)
		ctx.SetBodyString(strings.Repeat("x", 500))
	})

	_, err := client.Call(context.Background(), "hi", nil)

	require.Error(t, err)
	var agentErr *guardrail.AgentError
	require.True(t, errors.As(err, &agentErr))
	assert.Equal(t, fasthttp.StatusBadGateway, agentErr.StatusCode)
	assert.Len(t, agentErr.Message, errorBodyLimit+len("..."))
}

func TestClient_Call_BreakerOpens(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		calls++
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
	})

	for i := 0; i < 5; i++ {
		_, err := client.Call(context.Background(), "hi", nil)
		require.Error(t, err)
	}
	_, err := client.Call(context.Background(), "hi", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")
	assert.Equal(t, 5, calls)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "ééé...", truncate("éééé", 3))
}
