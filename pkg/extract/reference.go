package extract

import (
	"regexp"
	"strings"
)

var referencePattern = regexp.MustCompile(`(?i)with reference\s+(\d+[\w.-]*)`)

// ExtractReferenceNumber returns the token following "with reference".
func ExtractReferenceNumber(text string) (string, bool) {
	m := referencePattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}
