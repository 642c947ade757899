package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/civiclink/guardrails/pkg/domain/guardrail"
	"github.com/civiclink/guardrails/pkg/infra/httpx"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fastjson"
)

// errorBodyLimit caps how much of an upstream error body ends up in logs.
const errorBodyLimit = 200

type Config struct {
	URL     string              `mapstructure:"url"`
	Timeout time.Duration       `mapstructure:"timeout"`
	Headers map[string]string   `mapstructure:"headers"`
	Breaker httpx.BreakerConfig `mapstructure:"breaker"`
}

type invokeRequest struct {
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

// Client invokes the conversational agent over HTTP. Its Call method is a
// guardrail.AgentFunc.
type Client struct {
	url     string
	headers map[string]string
	http    httpx.Client
	breaker httpx.CircuitBreaker
	parsers fastjson.ParserPool
}

func NewClient(cfg Config, httpClient httpx.Client, breaker httpx.CircuitBreaker) *Client {
	return &Client{
		url:     cfg.URL,
		headers: cfg.Headers,
		http:    httpClient,
		breaker: breaker,
	}
}

// Call posts the message and caller context to the agent. A JSON object reply
// becomes guardrail.Structured, a JSON string its unquoted text, and any
// other body is guardrail.PlainText as sent.
func (c *Client) Call(ctx context.Context, message string, params map[string]any) (guardrail.AgentResponse, error) {
	payload, err := json.Marshal(invokeRequest{Message: message, Context: params})
	if err != nil {
		return nil, fmt.Errorf("failed to encode agent request: %w", err)
	}

	var body []byte
	if err := c.breaker.Execute(func() error {
		var callErr error
		body, callErr = c.invoke(ctx, payload)
		return callErr
	}); err != nil {
		return nil, err
	}

	return c.decode(body), nil
}

func (c *Client) invoke(ctx context.Context, payload []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set(fasthttp.HeaderAcceptEncoding, httpx.AcceptEncoding)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	req.SetBodyRaw(payload)

	if err := c.http.Do(ctx, req, resp); err != nil {
		return nil, fmt.Errorf("agent request failed: %w", err)
	}

	body, err := httpx.DecodeBody(string(resp.Header.ContentEncoding()), resp.Body())
	if err != nil {
		return nil, err
	}
	// resp is released on return.
	body = append([]byte(nil), body...)

	if status := resp.StatusCode(); status < 200 || status > 299 {
		return nil, &guardrail.AgentError{StatusCode: status, Message: truncate(string(body), errorBodyLimit)}
	}
	return body, nil
}

func (c *Client) decode(body []byte) guardrail.AgentResponse {
	p := c.parsers.Get()
	defer c.parsers.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		return guardrail.PlainText(body)
	}
	switch v.Type() {
	case fastjson.TypeObject:
		obj, _ := toNative(v).(map[string]any)
		return guardrail.Structured(obj)
	case fastjson.TypeString:
		return guardrail.PlainText(v.GetStringBytes())
	default:
		return guardrail.PlainText(body)
	}
}

// toNative copies a fastjson value into plain Go values; the parser's memory
// is reused once it goes back to the pool.
func toNative(v *fastjson.Value) any {
	switch v.Type() {
	case fastjson.TypeObject:
		o, _ := v.Object()
		out := make(map[string]any, o.Len())
		o.Visit(func(key []byte, val *fastjson.Value) {
			out[string(key)] = toNative(val)
		})
		return out
	case fastjson.TypeArray:
		items, _ := v.Array()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = toNative(item)
		}
		return out
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeNumber:
		return v.GetFloat64()
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	default:
		return nil
	}
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "..."
}
