package guardrail

import (
	"context"
	"errors"
	"fmt"
)

// ResponseKey is the field read from a Structured agent reply.
const ResponseKey = "response"

// AgentResponse is what a wrapped agent returns: either PlainText or
// Structured. The set of variants is closed.
type AgentResponse interface {
	agentResponse()
}

// PlainText is a bare string reply.
type PlainText string

// Structured is a key-value reply that may carry a "response" field.
type Structured map[string]any

func (PlainText) agentResponse()  {}
func (Structured) agentResponse() {}

// AgentFunc is the agent invocation wrapped by the engine. It receives the
// sanitized message and optional caller context.
type AgentFunc func(ctx context.Context, message string, params map[string]any) (AgentResponse, error)

var ErrAgentPanic = errors.New("agent call panicked")

// AgentError is returned by upstream agent clients when the agent answered
// with a non-success status.
type AgentError struct {
	StatusCode int
	Message    string
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("agent upstream returned %d: %s", e.StatusCode, e.Message)
}
