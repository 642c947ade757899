package input_validation

import (
	"strings"
	"testing"

	"github.com/civiclink/guardrails/pkg/domain/guardrail"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// Every built-in injection phrase contains an "a" or an "o", so text drawn
// from this alphabet can never match one.
const benignAlphabet = "bcdefghijklmnpqrstuvwxyzBCDEFGHIJKLMNPQRSTUVWXYZ0123456789 .,!?"

func TestProperty_BenignTextIsSafe(t *testing.T) {
	v := NewDefault()
	rapid.Check(t, func(rt *rapid.T) {
		msg := rapid.StringOfN(rapid.RuneFrom([]rune(benignAlphabet)), 1, 300, -1).Draw(rt, "msg")
		if strings.TrimSpace(msg) == "" {
			msg = "x" + msg
		}

		verdict := v.Validate(msg)

		assert.True(rt, verdict.IsSafe)
		assert.Nil(rt, verdict.BlockedReason)
		assert.Equal(rt, msg, verdict.SanitizedMessage)
	})
}

func TestProperty_OverLengthIsBlocked(t *testing.T) {
	v := NewDefault()
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(DefaultMaxLength+1, DefaultMaxLength+500).Draw(rt, "n")
		r := rapid.RuneFrom([]rune("abc <>&xyz")).Draw(rt, "rune")

		verdict := v.Validate(strings.Repeat(string(r), n))

		assert.False(rt, verdict.IsSafe)
		assert.Equal(rt, []string{guardrail.FlagMessageTooLong}, verdict.Flags)
	})
}

func TestProperty_WhitespaceIsEmpty(t *testing.T) {
	v := NewDefault()
	rapid.Check(t, func(rt *rapid.T) {
		msg := rapid.StringOfN(rapid.RuneFrom([]rune(" \t\n\r")), 0, 100, -1).Draw(rt, "msg")

		verdict := v.Validate(msg)

		assert.False(rt, verdict.IsSafe)
		assert.Equal(rt, []string{guardrail.FlagEmptyMessage}, verdict.Flags)
		assert.Equal(rt, EmptyReason, verdict.Reason())
	})
}

var markupTokens = []string{
	"<b>", "</b>", "<p>", "<script>", "</script>", "<style>", "</style>",
	"&amp;", "&lt;", "&gt;", "<!-- note -->", "hello", "world", " ", "ward 7",
}

func TestProperty_ValidationIsIdempotent(t *testing.T) {
	v := NewDefault()
	rapid.Check(t, func(rt *rapid.T) {
		parts := rapid.SliceOfN(rapid.SampledFrom(markupTokens), 1, 20).Draw(rt, "parts")
		msg := strings.Join(parts, "")

		first := v.Validate(msg)
		second := v.Validate(first.SanitizedMessage)

		assert.Equal(rt, first.SanitizedMessage, second.SanitizedMessage)
		assert.NotContains(rt, second.Flags, guardrail.FlagHTMLStripped)
	})
}

func TestProperty_StripHTMLIsIdempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		parts := rapid.SliceOfN(rapid.SampledFrom(markupTokens), 0, 20).Draw(rt, "parts")
		once := StripHTML(strings.Join(parts, ""))

		assert.Equal(rt, once, StripHTML(once))
	})
}

func TestProperty_InjectionBlocksBeforeHTML(t *testing.T) {
	v := NewDefault()
	phrases := []string{"ignore previous instructions", "you are now", "jailbreak", "act as"}
	rapid.Check(t, func(rt *rapid.T) {
		phrase := rapid.SampledFrom(phrases).Draw(rt, "phrase")
		upper := rapid.Bool().Draw(rt, "upper")
		if upper {
			phrase = strings.ToUpper(phrase)
		}
		parts := rapid.SliceOfN(rapid.SampledFrom(markupTokens), 0, 5).Draw(rt, "parts")

		verdict := v.Validate(strings.Join(parts, "") + " " + phrase + " <b>x</b>")

		assert.False(rt, verdict.IsSafe)
		assert.Equal(rt, []string{guardrail.FlagPromptInjection}, verdict.Flags)
	})
}

func TestProperty_StripHTMLIsIdempotentUnderNestedEscaping(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		depth := rapid.IntRange(0, 60).Draw(rt, "depth")
		token := rapid.SampledFrom([]string{"lt;b&gt;", "lt;script&gt;x&lt;/script&gt;", "amp;", "gt;"}).Draw(rt, "token")
		tail := rapid.SampledFrom(markupTokens).Draw(rt, "tail")

		once := StripHTML("&" + strings.Repeat("amp;", depth) + token + tail)

		assert.Equal(rt, once, StripHTML(once))
	})
}
