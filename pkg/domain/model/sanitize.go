package model

import (
	"strings"
	"unicode"
)

// SanitizeSegment turns free text into a single filesystem-safe path segment.
// Letters, digits, space and underscore are kept; every other rune is replaced one
// for one with an underscore.
func SanitizeSegment(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '_' {
			sb.WriteRune(r)
		} else {
			sb.WriteRune('_')
		}
	}
	return sb.String()
}
