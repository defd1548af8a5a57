package recon

import (
	"strings"
	"unicode"
)

// foldHeader trims and lower-cases a header or alias for exact comparison.
func foldHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// stripSpace removes every whitespace rune and lower-cases the result.
func stripSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// collapseSpace trims, lower-cases and collapses internal whitespace runs to a single space.
func collapseSpace(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// headerEquals reports whether two headers are equal ignoring case and surrounding whitespace.
func headerEquals(header, alias string) bool {
	return foldHeader(header) == foldHeader(alias)
}

// headerContains reports whether header contains alias ignoring case.
func headerContains(header, alias string) bool {
	return strings.Contains(strings.ToLower(header), strings.ToLower(alias))
}

// headerContainsStripped is headerContains with all whitespace removed from both sides.
func headerContainsStripped(header, alias string) bool {
	return strings.Contains(stripSpace(header), stripSpace(alias))
}
