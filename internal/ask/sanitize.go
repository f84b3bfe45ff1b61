package ask

import (
	"regexp"
	"strings"
	"unicode"
)

// Sanitize strips control characters, collapses whitespace runs to
// single spaces, and trims. Idempotent, and never lengthens its input.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastSpace := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		case unicode.IsControl(r):
			// dropped
		default:
			b.WriteRune(r)
			lastSpace = false
		}
	}

	return strings.TrimSpace(b.String())
}

var (
	inlineCitation = regexp.MustCompile(`\s*\[[^\]]*\]`)
	doubleSpaces   = regexp.MustCompile(`  +`)
	spacedPunct    = regexp.MustCompile(`\s+([.,!?;:])`)
)

// StripInlineCitations removes bracket-citation fragments the model may
// echo into body text (citations belong in the sources list, never
// inline). Only brackets naming a publisher from sources are touched;
// other bracket content, like scripture references, stays in place.
// Spacing damage is then repaired: double spaces collapse and dangling
// space before punctuation is removed.
func StripInlineCitations(text string, sources []Source) string {
	publishers := make(map[string]bool, len(sources))
	for _, src := range sources {
		if p := strings.ToLower(strings.TrimSpace(src.Publisher)); p != "" {
			publishers[p] = true
		}
	}
	if len(publishers) == 0 {
		return strings.TrimSpace(text)
	}

	text = inlineCitation.ReplaceAllStringFunc(text, func(m string) string {
		inner := m[strings.IndexByte(m, '[')+1 : len(m)-1]
		if publishers[strings.ToLower(strings.TrimSpace(inner))] {
			return ""
		}
		return m
	})
	text = doubleSpaces.ReplaceAllString(text, " ")
	text = spacedPunct.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}
