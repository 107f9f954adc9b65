// Package extract turns free-form payment alert text into transaction
// candidates using a fixed table of pattern rules.
//
// Every function in this package is pure: the same input always yields the
// same output, nothing is logged and no state is shared between calls, so the
// engine can be called concurrently from any number of goroutines.
package extract

import (
	"strings"

	"golang.org/x/text/cases"
)

// paymentKeywords gate the whole pipeline. Matching favors recall: the user
// reviews every candidate before it is saved.
var paymentKeywords = []string{"paid", "debited", "spent", "transaction of"}

// IsPaymentEvent reports whether text looks like a payment message.
func IsPaymentEvent(text string) bool {
	// A Caser keeps state between calls, so each call gets its own.
	folded := cases.Fold().String(text)
	for _, kw := range paymentKeywords {
		if strings.Contains(folded, kw) {
			return true
		}
	}
	return false
}
