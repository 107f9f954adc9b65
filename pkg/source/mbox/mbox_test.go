package mbox

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ArionMiles/paysms/pkg/api"
)

const sample = "From alerts@bank.example Sun Jan  5 10:00:00 2025\n" +
	"From: HDFC Bank <alerts@bank.example>\n" +
	"Message-Id: <abc@bank.example>\n" +
	"Date: Sun, 05 Jan 2025 10:00:00 +0530\n" +
	"Subject: Debit alert\n" +
	"\n" +
	"Rs.1,250.00 paid to Cafe Mocha on 05-Jan-25 with reference 991\n" +
	"\n" +
	"From alerts@bank.example Mon Jan  6 10:00:00 2025\n" +
	"From: alerts@bank.example\n" +
	"Subject: Multipart\n" +
	"MIME-Version: 1.0\n" +
	"Content-Type: multipart/alternative; boundary=\"XYZ\"\n" +
	"\n" +
	"--XYZ\n" +
	"Content-Type: text/html\n" +
	"\n" +
	"<p>html version</p>\n" +
	"--XYZ\n" +
	"Content-Type: text/plain; charset=utf-8\n" +
	"Content-Transfer-Encoding: quoted-printable\n" +
	"\n" +
	"INR 99 spent at =\n" +
	"Store\n" +
	"--XYZ--\n"

func TestRead(t *testing.T) {
	now := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	s := FromReader(strings.NewReader(sample), func() time.Time { return now }, nil)

	out := make(chan *api.Message, 4)
	if err := s.Read(context.Background(), out); err != nil {
		t.Fatalf("Read: %v", err)
	}

	var msgs []*api.Message
	for m := range out {
		msgs = append(msgs, m)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}

	first := msgs[0]
	if first.ID != "abc@bank.example" {
		t.Errorf("id: got %q", first.ID)
	}
	if first.Sender != "alerts@bank.example" {
		t.Errorf("sender: got %q", first.Sender)
	}
	if want := time.Date(2025, time.January, 5, 4, 30, 0, 0, time.UTC); !first.ReceivedAt.Equal(want) {
		t.Errorf("receivedAt: got %v, want %v", first.ReceivedAt, want)
	}
	if !strings.HasPrefix(first.Body, "Rs.1,250.00 paid to Cafe Mocha") {
		t.Errorf("body: got %q", first.Body)
	}

	second := msgs[1]
	if second.ID != "mbox-2" {
		t.Errorf("id fallback: got %q", second.ID)
	}
	if !second.ReceivedAt.Equal(now) {
		t.Errorf("receivedAt fallback: got %v", second.ReceivedAt)
	}
	if second.Body != "INR 99 spent at Store" {
		t.Errorf("body: got %q, want text/plain part", second.Body)
	}
}

func TestTextBody_HTMLFallback(t *testing.T) {
	body := "--B\nContent-Type: text/html\n\n<b>only html</b>\n--B--\n"
	got, err := textBody(`multipart/alternative; boundary="B"`, "", strings.NewReader(body))
	if err != nil {
		t.Fatalf("textBody: %v", err)
	}
	if got != "<b>only html</b>" {
		t.Errorf("got %q", got)
	}
}

func TestSender(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Bank <a@b.example>", "a@b.example"},
		{"a@b.example", "a@b.example"},
		{"VK-HDFCBK", "VK-HDFCBK"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sender(tt.in); got != tt.want {
			t.Errorf("sender(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNew_RequiresPath(t *testing.T) {
	if _, err := New(Config{}, nil); err == nil {
		t.Error("expected error")
	}
}
