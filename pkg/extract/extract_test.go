package extract

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestIsPaymentEvent(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"You have paid Rs. 10 to X", true},
		{"Your a/c is DEBITED with INR 500", true},
		{"You Spent Rs.100 on your card", true},
		{"A Transaction Of INR 20 was made", true},
		{"Your OTP is 123456. Do not share it.", false},
		{"transactionof INR 20", false},
		{"", false},
	}

	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			if got := IsPaymentEvent(tc.text); got != tc.want {
				t.Errorf("IsPaymentEvent(%q): got %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}

func TestExtractAmount(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{"rupee prefix with thousands", "Rs. 1,234.50 debited", "1234.50", true},
		{"inr with decimals", "INR 129.25 spent", "129.25", true},
		{"no space after marker", "Rs.500 paid", "500", true},
		{"rupee sign", "₹ 75.5 paid", "75.5", true},
		{"lower case marker", "inr 12,34,567.89 paid", "1234567.89", true},
		{"first match wins", "INR 10 paid, balance INR 9,000", "10", true},
		{"marker without digits", "Rs. abc paid", "", false},
		{"no marker", "paid 500 to someone", "", false},
		{"bare comma after marker", "Rs, paid INR 42", "42", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractAmount(tc.text)
			if ok != tc.wantOK {
				t.Fatalf("ok: got %v, want %v", ok, tc.wantOK)
			}
			if !ok {
				return
			}
			if want := decimal.RequireFromString(tc.want); !got.Equal(want) {
				t.Errorf("amount: got %v, want %v", got, want)
			}
		})
	}
}

func TestExtractMerchant(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		sender string
		want   string
	}{
		{"to on span", "paid to Example Store on 01-Jan-25", "AX-BANK", "Example Store"},
		{"case insensitive", "Paid TO Corner Cafe ON 01-Jan-25", "", "Corner Cafe"},
		{"shortest span", "paid to Shop on Main on 5-Jan-25", "", "Shop"},
		{"no span uses sender", "Rs 50 debited at Shop", "AX-BANK", "AX-BANK"},
		{"no span no sender", "Rs 50 debited at Shop", "", UnknownMerchant},
		{"blank span uses sender", "paid to   on 01-Jan-25", "VM-HDFC", "VM-HDFC"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractMerchant(tc.text, tc.sender); got != tc.want {
				t.Errorf("merchant: got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExtractTransactionDate(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   time.Time
		wantOK bool
	}{
		{"dash two digit year", "paid on 13-Jun-25", time.Date(2025, time.June, 13, 0, 0, 0, 0, time.UTC), true},
		{"space four digit year", "paid on 13 Jun 2025", time.Date(2025, time.June, 13, 0, 0, 0, 0, time.UTC), true},
		{"dash four digit year", "paid on 2-Jan-2024.", time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC), true},
		{"space two digit year", "paid on 9 Feb 24", time.Date(2024, time.February, 9, 0, 0, 0, 0, time.UTC), true},
		{"upper case month", "PAID ON 01-DEC-23", time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC), true},
		{"window nineteen hundreds", "paid on 01-Jan-69", time.Date(1969, time.January, 1, 0, 0, 0, 0, time.UTC), true},
		{"window two thousands", "paid on 01-Jan-68", time.Date(2068, time.January, 1, 0, 0, 0, 0, time.UTC), true},
		{"slash separated does not parse", "paid on 13/Jun/25", time.Time{}, false},
		{"unknown month", "paid on 13-Foo-25", time.Time{}, false},
		{"day out of range", "paid on 32-Jan-25", time.Time{}, false},
		{"no date", "paid to Shop", time.Time{}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractTransactionDate(tc.text, nil)
			if ok != tc.wantOK {
				t.Fatalf("ok: got %v, want %v", ok, tc.wantOK)
			}
			if !got.Equal(tc.want) {
				t.Errorf("date: got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestExtractTransactionDate_Location(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)

	got, ok := ExtractTransactionDate("debited on 13-Jun-25", loc)
	if !ok {
		t.Fatal("expected a date")
	}
	want := time.Date(2025, time.June, 13, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("date: got %v, want %v", got, want)
	}
}

func TestExtractReferenceNumber(t *testing.T) {
	tests := []struct {
		text   string
		want   string
		wantOK bool
	}{
		{"paid with reference 123ABC-9", "123ABC-9", true},
		{"paid With Reference 55512XZ.", "55512XZ.", true},
		{"paid with reference ABC123", "", false},
		{"paid, ref 1234", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			got, ok := ExtractReferenceNumber(tc.text)
			if ok != tc.wantOK || got != tc.want {
				t.Errorf("reference: got (%q, %v), want (%q, %v)", got, ok, tc.want, tc.wantOK)
			}
		})
	}
}
