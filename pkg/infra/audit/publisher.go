package audit

import (
	"context"

	"github.com/civiclink/guardrails/pkg/domain/guardrail"
)

//go:generate mockery --name=Publisher --dir=. --output=./mocks --filename=publisher_mock.go --case=underscore --with-expecter

// Publisher ships audit events to an external sink. Implementations must not
// block the request path for long; callers treat errors as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, ev guardrail.AuditEvent) error
}

type nopPublisher struct{}

// NewNopPublisher returns a Publisher that drops every event.
func NewNopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(context.Context, guardrail.AuditEvent) error {
	return nil
}
