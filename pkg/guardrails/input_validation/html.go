package input_validation

import (
	"strings"

	"golang.org/x/net/html"
)

// StripHTML removes all markup from text with an empty allow-list. Tags,
// comments and doctypes are dropped, entities are decoded and the contents of
// script and style elements are discarded. Decoding can surface new markup
// (&lt;script&gt;), so passes repeat until the text stops changing. Every
// pass that changes the text makes it shorter, so the loop is bounded by its
// length.
func StripHTML(text string) string {
	out := text
	for i := 0; i <= len(text); i++ {
		next := stripOnce(out)
		if next == out {
			return out
		}
		out = next
	}
	return out
}

func stripOnce(text string) string {
	if !strings.ContainsAny(text, "<&") {
		return text
	}

	z := html.NewTokenizer(strings.NewReader(text))
	var b strings.Builder
	b.Grow(len(text))
	rawDepth := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			if rawDepth == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken:
			if name, _ := z.TagName(); isRawTextTag(name) {
				rawDepth++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isRawTextTag(name) && rawDepth > 0 {
				rawDepth--
			}
		}
	}
}

func isRawTextTag(name []byte) bool {
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}
