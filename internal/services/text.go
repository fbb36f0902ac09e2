package services

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)

// normalizeTitle converts s to NFC, trims it and collapses inner whitespace.
// Uzbek Latin titles arrive both precomposed and with combining marks
// (o‘, g‘); NFC makes equal titles byte-equal.
func normalizeTitle(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(norm.NFC.String(s)), " ")
}

// normalizeText converts s to NFC and trims it, keeping line breaks.
func normalizeText(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// clip truncates s to max runes. A non-positive max disables clipping.
func clip(s string, max int) string {
	if max > 0 && utf8.RuneCountInString(s) > max {
		return string([]rune(s)[:max])
	}
	return s
}
