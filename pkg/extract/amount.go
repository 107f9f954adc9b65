package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// amountPattern anchors on a currency marker so dates and reference codes
// elsewhere in the text are never read as amounts.
var amountPattern = regexp.MustCompile(`(?i)(?:INR|Rs\.?|₹)\s*(\d+(?:,\d+)*(?:\.\d{1,2})?)`)

// ExtractAmount returns the first currency-marked amount in text.
func ExtractAmount(text string) (decimal.Decimal, bool) {
	m := amountPattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return decimal.Decimal{}, false
	}

	amount, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return decimal.Decimal{}, false
	}
	return amount, true
}
