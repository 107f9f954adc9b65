package extract

import (
	"regexp"
	"strings"
)

// UnknownMerchant is used when neither the text nor the sender names a merchant.
const UnknownMerchant = "Unknown Merchant"

// merchantPattern takes the shortest run between "to" and "on". A merchant
// name containing a whitespace-led "on" is cut short: "to Shop on Main on
// 5-Jan-25" yields "Shop".
var merchantPattern = regexp.MustCompile(`(?i)to\s+(.+?)\s+on`)

// stringResolver yields a value or reports that it has none.
type stringResolver func() (string, bool)

// resolveString returns the first value produced by the chain.
func resolveString(chain []stringResolver) (string, bool) {
	for _, r := range chain {
		if v, ok := r(); ok {
			return v, true
		}
	}
	return "", false
}

// merchantSpan extracts the "to X on" span from text.
func merchantSpan(text string) (string, bool) {
	m := merchantPattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return "", false
	}
	merchant := strings.TrimSpace(m[1])
	return merchant, merchant != ""
}

func nonEmpty(s string) stringResolver {
	return func() (string, bool) { return s, s != "" }
}

// ExtractMerchant returns the merchant named in text, falling back to the
// sender id and then to UnknownMerchant.
func ExtractMerchant(text, fallbackSender string) string {
	merchant, _ := resolveString([]stringResolver{
		func() (string, bool) { return merchantSpan(text) },
		nonEmpty(fallbackSender),
		nonEmpty(UnknownMerchant),
	})
	return merchant
}
