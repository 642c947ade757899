package mocks

import (
	"context"

	"github.com/civiclink/guardrails/pkg/domain/guardrail"
	"github.com/stretchr/testify/mock"
)

type Engine struct {
	mock.Mock
}

func (m *Engine) ProcessInput(ctx context.Context, message string) guardrail.ValidationVerdict {
	args := m.Called(ctx, message)
	return args.Get(0).(guardrail.ValidationVerdict) //nolint:errcheck
}

func (m *Engine) ProcessOutput(ctx context.Context, response string) guardrail.SanitizationResult {
	args := m.Called(ctx, response)
	return args.Get(0).(guardrail.SanitizationResult) //nolint:errcheck
}

func (m *Engine) SafeAgentCall(
	ctx context.Context,
	agent guardrail.AgentFunc,
	message string,
	params map[string]any,
) guardrail.SafeCallResult {
	args := m.Called(ctx, agent, message, params)
	return args.Get(0).(guardrail.SafeCallResult) //nolint:errcheck
}
