package httpx

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

func newInMemoryClient(t *testing.T, handler fasthttp.RequestHandler, opts ...FastHTTPClientOption) *FastHTTPClient {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: handler}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = ln.Close() })

	opts = append(opts, WithDial(func(string) (net.Conn, error) { return ln.Dial() }))
	return NewFastHTTPClient(opts...)
}

func TestFastHTTPClient_Do(t *testing.T) {
	client := newInMemoryClient(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString(string(ctx.UserAgent()))
	}, WithUserAgent("guardrails-test"))

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)
	req.SetRequestURI("http://agent.local/invoke")

	err := client.Do(context.Background(), req, resp)

	require.NoError(t, err)
	assert.Equal(t, fasthttp.StatusOK, resp.StatusCode())
	assert.Equal(t, "guardrails-test", string(resp.Body()))
}

func TestFastHTTPClient_DeadlineFromContext(t *testing.T) {
	client := newInMemoryClient(t, func(ctx *fasthttp.RequestCtx) {
		time.Sleep(200 * time.Millisecond)
	})

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)
	req.SetRequestURI("http://agent.local/slow")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := client.Do(ctx, req, resp)

	assert.ErrorIs(t, err, fasthttp.ErrTimeout)
}

func TestFastHTTPClient_CancelledContext(t *testing.T) {
	client := NewFastHTTPClient()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	assert.ErrorIs(t, client.Do(ctx, req, resp), context.Canceled)
}
