package input_validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/civiclink/guardrails/pkg/domain/guardrail"
)

// Rule is one step of the input chain. A triggered blocking rule ends the
// chain; non-blocking rules may rewrite the working text and always continue.
type Rule interface {
	Name() string
	Blocking() bool
	Apply(text string) Outcome
}

// Outcome is the result of applying a Rule to the working text. Text is the
// working value handed to the next rule.
type Outcome struct {
	Triggered bool
	Text      string
	Reason    string
}

const (
	InjectionReason = "Your message could not be processed. Please rephrase your message and try again."
	EmptyReason     = "Message cannot be empty."
)

type lengthRule struct {
	max int
}

// NewLengthRule blocks messages longer than max characters.
func NewLengthRule(max int) Rule {
	return &lengthRule{max: max}
}

func (r *lengthRule) Name() string   { return guardrail.FlagMessageTooLong }
func (r *lengthRule) Blocking() bool { return true }

func (r *lengthRule) Apply(text string) Outcome {
	if utf8.RuneCountInString(text) > r.max {
		return Outcome{
			Triggered: true,
			Text:      text,
			Reason:    fmt.Sprintf("Message exceeds maximum length of %d characters.", r.max),
		}
	}
	return Outcome{Text: text}
}

type emptyRule struct{}

// NewEmptyRule blocks messages that are empty after trimming whitespace.
func NewEmptyRule() Rule {
	return emptyRule{}
}

func (emptyRule) Name() string   { return guardrail.FlagEmptyMessage }
func (emptyRule) Blocking() bool { return true }

func (emptyRule) Apply(text string) Outcome {
	if strings.TrimSpace(text) == "" {
		return Outcome{Triggered: true, Text: text, Reason: EmptyReason}
	}
	return Outcome{Text: text}
}

// injectionPatterns are checked in order; the first hit blocks.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+previous\s+instructions`),
	regexp.MustCompile(`(?i)ignore\s+all\s+previous`),
	regexp.MustCompile(`(?i)you\s+are\s+now`),
	regexp.MustCompile(`(?i)new\s+instructions:`),
	regexp.MustCompile(`(?i)system\s+prompt:`),
	regexp.MustCompile(`(?i)forget\s+everything`),
	regexp.MustCompile(`(?i)disregard\s+all`),
	regexp.MustCompile(`(?i)act\s+as`),
	regexp.MustCompile(`(?i)pretend\s+you\s+are`),
	regexp.MustCompile(`(?i)jailbreak`),
}

type injectionRule struct {
	patterns []*regexp.Regexp
}

// NewInjectionRule blocks messages matching any of the known prompt
// injection phrases. Extra patterns are checked after the built-in list.
func NewInjectionRule(extra ...*regexp.Regexp) Rule {
	patterns := make([]*regexp.Regexp, 0, len(injectionPatterns)+len(extra))
	patterns = append(patterns, injectionPatterns...)
	patterns = append(patterns, extra...)
	return &injectionRule{patterns: patterns}
}

func (r *injectionRule) Name() string   { return guardrail.FlagPromptInjection }
func (r *injectionRule) Blocking() bool { return true }

func (r *injectionRule) Apply(text string) Outcome {
	if matchIndex(r.patterns, text) >= 0 {
		return Outcome{Triggered: true, Text: text, Reason: InjectionReason}
	}
	return Outcome{Text: text}
}

// matchIndex returns the index of the first pattern matching text, or -1.
func matchIndex(patterns []*regexp.Regexp, text string) int {
	for i, p := range patterns {
		if p.MatchString(text) {
			return i
		}
	}
	return -1
}

type htmlRule struct{}

// NewHTMLRule strips markup and reports whether anything was removed.
func NewHTMLRule() Rule {
	return htmlRule{}
}

func (htmlRule) Name() string   { return guardrail.FlagHTMLStripped }
func (htmlRule) Blocking() bool { return false }

func (htmlRule) Apply(text string) Outcome {
	stripped := StripHTML(text)
	return Outcome{Triggered: stripped != text, Text: stripped}
}

type compositionRule struct {
	threshold float64
}

// NewCompositionRule flags text where fewer than threshold of the characters
// are letters, digits, whitespace or common punctuation.
func NewCompositionRule(threshold float64) Rule {
	return &compositionRule{threshold: threshold}
}

func (r *compositionRule) Name() string   { return guardrail.FlagSuspiciousContent }
func (r *compositionRule) Blocking() bool { return false }

func (r *compositionRule) Apply(text string) Outcome {
	total, normal := 0, 0
	for _, c := range text {
		total++
		if isNormalChar(c) {
			normal++
		}
	}
	if total == 0 {
		return Outcome{Text: text}
	}
	return Outcome{
		Triggered: float64(normal)/float64(total) < r.threshold,
		Text:      text,
	}
}

func isNormalChar(c rune) bool {
	if unicode.IsLetter(c) || unicode.IsNumber(c) || unicode.IsSpace(c) {
		return true
	}
	return strings.ContainsRune(`.,!?;:'-"`, c)
}
