package utils

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify folds s to ASCII, lowercases it, drops everything except letters, digits, "_",
// whitespace and "-", then joins the words with single hyphens.
// "Intro to Physics" becomes "intro-to-physics"; "Physics (A/L)" becomes "physics-al".
func Slugify(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	sep := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r == '_' || ('a' <= r && r <= 'z') || ('0' <= r && r <= '9'):
			if sep && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			sep = false
		case r == '-' || unicode.IsSpace(r):
			sep = true
		}
	}
	return strings.Trim(b.String(), "_-")
}

// SlugCandidate returns base for attempt 0 and base-n afterwards
func SlugCandidate(base string, n int) string {
	if n == 0 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}
