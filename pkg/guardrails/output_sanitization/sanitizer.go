package output_sanitization

import (
	"fmt"
	"slices"

	"github.com/civiclink/guardrails/pkg/domain/guardrail"
)

const DefaultFallbackMessage = "I'm sorry, I wasn't able to put together a response just now. " +
	"Please try again, or contact your municipality directly for help."

type Config struct {
	FallbackMessage  string   `mapstructure:"fallback_message"`
	ProtectedNumbers []string `mapstructure:"protected_numbers"`
}

func DefaultConfig() Config {
	return Config{
		FallbackMessage:  DefaultFallbackMessage,
		ProtectedNumbers: DefaultProtectedNumbers,
	}
}

// Sanitizer redacts sensitive and internal details from agent output. It is
// immutable after construction.
type Sanitizer struct {
	redactors []Redactor
}

// New builds the default chain: ID numbers, phone numbers, email addresses,
// system information, empty fallback. ID masking runs before phone masking so
// a 13 digit ID is never partially consumed as a phone number.
func New(cfg Config) (*Sanitizer, error) {
	if cfg.FallbackMessage == "" {
		cfg.FallbackMessage = DefaultFallbackMessage
	}
	if cfg.ProtectedNumbers == nil {
		cfg.ProtectedNumbers = DefaultProtectedNumbers
	}

	phone, err := NewPhoneRedactor(cfg.ProtectedNumbers...)
	if err != nil {
		return nil, fmt.Errorf("failed to build phone redactor: %w", err)
	}

	return NewWithRedactors(
		NewIDNumberRedactor(),
		phone,
		NewEmailRedactor(),
		NewSystemInfoRedactor(),
		NewFallbackRedactor(cfg.FallbackMessage),
	), nil
}

func NewDefault() *Sanitizer {
	s, _ := New(DefaultConfig()) //nolint:errcheck // built-in patterns always compile
	return s
}

func NewWithRedactors(redactors ...Redactor) *Sanitizer {
	return &Sanitizer{redactors: append([]Redactor(nil), redactors...)}
}

func (s *Sanitizer) Redactors() []Redactor {
	return append([]Redactor(nil), s.redactors...)
}

// Sanitize runs every redactor in order. Each category is reported once, in
// the order it first fired, however many matches it masked.
func (s *Sanitizer) Sanitize(response string) guardrail.SanitizationResult {
	redactions := make([]string, 0, 2)
	text := response

	for _, r := range s.redactors {
		out, hit := r.Redact(text)
		if hit && !slices.Contains(redactions, r.Category()) {
			redactions = append(redactions, r.Category())
		}
		text = out
	}

	return guardrail.SanitizationResult{
		OriginalResponse:  response,
		SanitizedResponse: text,
		Redactions:        redactions,
	}
}
