package mocks

import (
	"context"

	"github.com/civiclink/guardrails/pkg/domain/guardrail"
	"github.com/stretchr/testify/mock"
)

type Publisher struct {
	mock.Mock
}

func (m *Publisher) Publish(ctx context.Context, ev guardrail.AuditEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

// NewPublisher creates a Publisher mock that asserts its expectations on
// cleanup.
func NewPublisher(t interface {
	mock.TestingT
	Cleanup(func())
}) *Publisher {
	m := &Publisher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
