package input_validation

import (
	"fmt"
	"regexp"

	"github.com/civiclink/guardrails/pkg/domain/guardrail"
)

const (
	DefaultMaxLength           = 5000
	DefaultSuspiciousThreshold = 0.5
)

type Config struct {
	MaxLength           int      `mapstructure:"max_length"`
	SuspiciousThreshold float64  `mapstructure:"suspicious_threshold"`
	ExtraInjections     []string `mapstructure:"extra_injection_patterns"`
}

func DefaultConfig() Config {
	return Config{
		MaxLength:           DefaultMaxLength,
		SuspiciousThreshold: DefaultSuspiciousThreshold,
	}
}

// Validator runs an ordered rule chain over inbound citizen messages. It holds
// no mutable state and is safe for concurrent use.
type Validator struct {
	rules []Rule
}

// New builds the default chain: length, emptiness, prompt injection, HTML
// strip, character composition. Zero-valued limits fall back to defaults.
func New(cfg Config) (*Validator, error) {
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = DefaultMaxLength
	}
	if cfg.SuspiciousThreshold <= 0 {
		cfg.SuspiciousThreshold = DefaultSuspiciousThreshold
	}

	extra := make([]*regexp.Regexp, 0, len(cfg.ExtraInjections))
	for _, p := range cfg.ExtraInjections {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid injection pattern '%s': %w", p, err)
		}
		extra = append(extra, re)
	}

	return NewWithRules(
		NewLengthRule(cfg.MaxLength),
		NewEmptyRule(),
		NewInjectionRule(extra...),
		NewHTMLRule(),
		NewCompositionRule(cfg.SuspiciousThreshold),
	), nil
}

// NewDefault returns the validator with the built-in limits.
func NewDefault() *Validator {
	v, _ := New(DefaultConfig()) //nolint:errcheck // default config has no patterns to compile
	return v
}

// NewWithRules builds a validator over an explicit chain.
func NewWithRules(rules ...Rule) *Validator {
	return &Validator{rules: append([]Rule(nil), rules...)}
}

// Rules returns the chain in evaluation order.
func (v *Validator) Rules() []Rule {
	return append([]Rule(nil), v.rules...)
}

// Validate classifies message. The first triggered blocking rule stops the
// chain; rules after it never run.
func (v *Validator) Validate(message string) guardrail.ValidationVerdict {
	flags := make([]string, 0, 2)
	working := message

	for _, rule := range v.rules {
		out := rule.Apply(working)
		if !out.Triggered {
			working = out.Text
			continue
		}

		flags = append(flags, rule.Name())
		if rule.Blocking() {
			reason := out.Reason
			if reason == "" {
				reason = fmt.Sprintf("Message blocked by %s.", rule.Name())
			}
			return guardrail.ValidationVerdict{
				IsSafe:           false,
				OriginalMessage:  message,
				SanitizedMessage: working,
				Flags:            flags,
				BlockedReason:    &reason,
			}
		}
		working = out.Text
	}

	return guardrail.ValidationVerdict{
		IsSafe:           true,
		OriginalMessage:  message,
		SanitizedMessage: working,
		Flags:            flags,
	}
}
