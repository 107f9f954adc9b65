package extract

import (
	"regexp"
	"time"
)

var datePattern = regexp.MustCompile(`(?i)on\s+(\d{1,2}[-/]\w{3}[-/]\d{2,4}|\d{1,2}\s\w{3}\s\d{2,4})`)

// dateLayouts are tried in order. "06" is Go's two-digit year: 69-99 map to
// 19xx and 00-68 to 20xx. The "2006" variants accept four-digit years.
var dateLayouts = []string{
	"2-Jan-06",
	"2-Jan-2006",
	"2 Jan 06",
	"2 Jan 2006",
}

// ExtractTransactionDate returns the date following "on" in text, at midnight
// in loc. A nil loc means UTC.
func ExtractTransactionDate(text string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}

	m := datePattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, m[1], loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
