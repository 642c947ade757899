package output_sanitization

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/civiclink/guardrails/pkg/domain/guardrail"
)

const (
	MaskIDNumber         = "[MASKED_ID_NUMBER]"
	MaskPhone            = "[MASKED_PHONE]"
	MaskEmail            = "[MASKED_EMAIL]"
	MaskTraceback        = "[MASKED_TRACEBACK]"
	MaskDBInternal       = "[MASKED_DB_INTERNAL]"
	MaskConnectionString = "[MASKED_CONNECTION_STRING]"
	MaskSQL              = "[MASKED_SQL]"
)

// Redactor is one step of the output chain. Redact reports whether anything
// in text belonged to its category.
type Redactor interface {
	Category() string
	Redact(text string) (string, bool)
}

type maskRule struct {
	pattern *regexp.Regexp
	mask    string
}

func (r maskRule) apply(text string) (string, bool) {
	if !r.pattern.MatchString(text) {
		return text, false
	}
	return r.pattern.ReplaceAllLiteralString(text, r.mask), true
}

// patternRedactor applies its rules in order; all of them report under a
// single category.
type patternRedactor struct {
	category string
	rules    []maskRule
}

func (r *patternRedactor) Category() string { return r.category }

func (r *patternRedactor) Redact(text string) (string, bool) {
	matched := false
	for _, rule := range r.rules {
		var hit bool
		text, hit = rule.apply(text)
		matched = matched || hit
	}
	return text, matched
}

var saIDPattern = regexp.MustCompile(`\b\d{2}(0[1-9]|1[0-2])(0[1-9]|[12]\d|3[01])\d{7}\b`)

// NewIDNumberRedactor masks 13 digit national ID numbers that start with a
// valid YYMMDD date of birth.
func NewIDNumberRedactor() Redactor {
	return &patternRedactor{
		category: guardrail.CategorySAIDNumber,
		rules:    []maskRule{{pattern: saIDPattern, mask: MaskIDNumber}},
	}
}

var emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

func NewEmailRedactor() Redactor {
	return &patternRedactor{
		category: guardrail.CategoryEmailAddress,
		rules:    []maskRule{{pattern: emailPattern, mask: MaskEmail}},
	}
}

var systemInfoRules = []maskRule{
	{regexp.MustCompile(`(?i)traceback\s*\(most recent call last\):?`), MaskTraceback},
	{regexp.MustCompile(`(?i)file\s+"[^"\n]+",\s+line\s+\d+`), MaskTraceback},
	{regexp.MustCompile(`(?i)\b(?:sqlalchemy|psycopg2?|asyncpg)(?:\.[A-Za-z_]\w*)+`), MaskDBInternal},
	{regexp.MustCompile(`(?i)\b(?:postgres(?:ql)?(?:\+\w+)?|mysql(?:\+\w+)?|redis|mongodb(?:\+srv)?)://\S+`), MaskConnectionString},
	{regexp.MustCompile(`(?i)\bselect\s+\*\s+from\b`), MaskSQL},
	{regexp.MustCompile(`(?i)\binsert\s+into\b`), MaskSQL},
	{regexp.MustCompile(`(?i)\bdelete\s+from\b`), MaskSQL},
	{regexp.MustCompile(`(?i)\bupdate\s+\w+\s+set\b`), MaskSQL},
}

// NewSystemInfoRedactor masks stack traces, database driver internals,
// connection strings and SQL statements leaking from the agent.
func NewSystemInfoRedactor() Redactor {
	return &patternRedactor{category: guardrail.CategorySystemInfo, rules: systemInfoRules}
}

var (
	// DefaultProtectedNumbers are the police emergency line and the GBV
	// command centre toll-free line.
	DefaultProtectedNumbers = []string{
		`\b10111\b`,
		`(?i)\b0800\s*150\s*150\b`,
	}

	mobilePattern        = regexp.MustCompile(`\b0[6-8]\d[\s-]?\d{3}[\s-]?\d{4}\b`)
	internationalPattern = regexp.MustCompile(`\+27[\s-]?\d{2}[\s-]?\d{3}[\s-]?\d{4}\b`)
)

type phoneRedactor struct {
	protected []*regexp.Regexp
	rules     []maskRule
}

// NewPhoneRedactor masks SA mobile and +27 numbers. Text matching any of the
// protected patterns is copied through verbatim and never masked.
func NewPhoneRedactor(protected ...string) (Redactor, error) {
	compiled := make([]*regexp.Regexp, 0, len(protected))
	for _, p := range protected {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid protected number pattern '%s': %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return &phoneRedactor{
		protected: compiled,
		rules: []maskRule{
			{pattern: mobilePattern, mask: MaskPhone},
			{pattern: internationalPattern, mask: MaskPhone},
		},
	}, nil
}

func (r *phoneRedactor) Category() string { return guardrail.CategoryPhoneNumber }

// Redact masks only the text between protected spans, which are copied
// through untouched.
func (r *phoneRedactor) Redact(text string) (string, bool) {
	var b strings.Builder
	b.Grow(len(text))
	matched := false
	last := 0
	for _, span := range r.protectedSpans(text) {
		masked, hit := r.mask(text[last:span[0]])
		b.WriteString(masked)
		b.WriteString(text[span[0]:span[1]])
		matched = matched || hit
		last = span[1]
	}
	masked, hit := r.mask(text[last:])
	b.WriteString(masked)
	return b.String(), matched || hit
}

func (r *phoneRedactor) mask(text string) (string, bool) {
	matched := false
	for _, rule := range r.rules {
		var hit bool
		text, hit = rule.apply(text)
		matched = matched || hit
	}
	return text, matched
}

// protectedSpans returns the byte ranges matched by any protected pattern,
// sorted and merged where they overlap.
func (r *phoneRedactor) protectedSpans(text string) [][]int {
	var spans [][]int
	for _, p := range r.protected {
		spans = append(spans, p.FindAllStringIndex(text, -1)...)
	}
	slices.SortFunc(spans, func(a, b []int) int { return a[0] - b[0] })

	merged := spans[:0]
	for _, s := range spans {
		if n := len(merged); n > 0 && s[0] <= merged[n-1][1] {
			merged[n-1][1] = max(merged[n-1][1], s[1])
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

type fallbackRedactor struct {
	message string
}

var maskTokenPattern = regexp.MustCompile(`\[MASKED_[A-Z_]+\]`)

// NewFallbackRedactor replaces a result with message when nothing but
// whitespace and mask tokens is left of it.
func NewFallbackRedactor(message string) Redactor {
	return &fallbackRedactor{message: message}
}

func (r *fallbackRedactor) Category() string { return guardrail.CategoryEmptyFallback }

func (r *fallbackRedactor) Redact(text string) (string, bool) {
	if strings.TrimSpace(maskTokenPattern.ReplaceAllLiteralString(text, "")) != "" {
		return text, false
	}
	return r.message, true
}
