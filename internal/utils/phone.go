package utils

import (
	"regexp"
	"strings"
)

var e164RE = regexp.MustCompile(`^\+[0-9]{9,15}$`)

// phoneNoise are the separators people type into phone numbers.
var phoneNoise = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "", "\t", "")

// NormalizePhone strips common separators and reports whether the result is
// a '+' followed by 9 to 15 digits.
//
//	NormalizePhone("+998 90 123-45-67") // "+998901234567", true
//	NormalizePhone("998901234567")      // "", false
func NormalizePhone(s string) (string, bool) {
	p := phoneNoise.Replace(strings.TrimSpace(s))
	if !e164RE.MatchString(p) {
		return "", false
	}
	return p, true
}
