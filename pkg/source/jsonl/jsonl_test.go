package jsonl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ArionMiles/paysms/pkg/api"
)

func collect(t *testing.T, s *Source) ([]*api.Message, error) {
	t.Helper()
	out := make(chan *api.Message, 16)
	err := s.Read(context.Background(), out)

	var msgs []*api.Message
	for m := range out {
		msgs = append(msgs, m)
	}
	return msgs, err
}

func TestRead(t *testing.T) {
	now := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	input := strings.Join([]string{
		`{"id":"a","body":"Rs 10 paid","sender":"BANK","received_at":1736035200000}`,
		``,
		`not json`,
		`{"body":"no id or time"}`,
	}, "\n")

	msgs, err := collect(t, FromReader(strings.NewReader(input), func() time.Time { return now }, nil))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}

	if msgs[0].ID != "a" || msgs[0].Sender != "BANK" || msgs[0].Body != "Rs 10 paid" {
		t.Errorf("first: got %+v", msgs[0])
	}
	if !msgs[0].ReceivedAt.Equal(time.UnixMilli(1736035200000)) {
		t.Errorf("receivedAt: got %v", msgs[0].ReceivedAt)
	}
	if msgs[1].ID != "4" {
		t.Errorf("id fallback: got %q, want line number 4", msgs[1].ID)
	}
	if !msgs[1].ReceivedAt.Equal(now) {
		t.Errorf("receivedAt fallback: got %v, want %v", msgs[1].ReceivedAt, now)
	}
}

func TestNew(t *testing.T) {
	if _, err := New(Config{}, nil); err == nil {
		t.Error("expected error for empty path")
	}

	path := filepath.Join(t.TempDir(), "sms.jsonl")
	if err := os.WriteFile(path, []byte(`{"id":"x","body":"b"}`+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	s, err := New(Config{Path: path}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	msgs, err := collect(t, s)
	if err != nil || len(msgs) != 1 {
		t.Errorf("got %d messages, err %v", len(msgs), err)
	}
}

func TestRead_MissingFile(t *testing.T) {
	s, err := New(Config{Path: filepath.Join(t.TempDir(), "absent.jsonl")}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := collect(t, s); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("got %v, want ErrNotExist", err)
	}
}

func TestRead_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := make(chan *api.Message)
	s := FromReader(strings.NewReader(`{"id":"a","body":"b"}`), nil, nil)
	if err := s.Read(ctx, out); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
	if _, ok := <-out; ok {
		t.Error("channel should be closed")
	}
}
