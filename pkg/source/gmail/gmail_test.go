package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/ArionMiles/paysms/pkg/api"
)

func encode(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestExtractBody(t *testing.T) {
	tests := []struct {
		name    string
		payload *gmail.MessagePart
		want    string
	}{
		{
			name: "prefers text/plain over html",
			payload: &gmail.MessagePart{
				MimeType: "multipart/alternative",
				Parts: []*gmail.MessagePart{
					{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: encode("<p>html</p>")}},
					{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: encode("plain")}},
				},
			},
			want: "plain",
		},
		{
			name: "falls back to html",
			payload: &gmail.MessagePart{
				MimeType: "multipart/alternative",
				Parts: []*gmail.MessagePart{
					{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: encode("<p>html</p>")}},
				},
			},
			want: "<p>html</p>",
		},
		{
			name: "nested multipart",
			payload: &gmail.MessagePart{
				MimeType: "multipart/mixed",
				Parts: []*gmail.MessagePart{{
					MimeType: "multipart/alternative",
					Parts: []*gmail.MessagePart{
						{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: encode("deep")}},
					},
				}},
			},
			want: "deep",
		},
		{
			name:    "top-level body",
			payload: &gmail.MessagePart{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: encode("direct")}},
			want:    "direct",
		},
		{
			name:    "empty",
			payload: &gmail.MessagePart{},
			want:    "",
		},
		{
			name:    "nil",
			payload: nil,
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractBody(tt.payload); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

type fakeGmail struct {
	mu       sync.Mutex
	modified []string
}

func (f *fakeGmail) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	path := r.URL.Path

	switch {
	case strings.HasSuffix(path, "/messages") && r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(gmail.ListMessagesResponse{
			Messages: []*gmail.Message{{Id: "m1"}, {Id: "m2"}},
		})
	case strings.HasSuffix(path, "/modify"):
		f.mu.Lock()
		f.modified = append(f.modified, path)
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{}`))
	case strings.HasSuffix(path, "/messages/m1"):
		_ = json.NewEncoder(w).Encode(gmail.Message{
			Id:           "m1",
			InternalDate: 1736035200000,
			Payload: &gmail.MessagePart{
				MimeType: "text/plain",
				Headers:  []*gmail.MessagePartHeader{{Name: "From", Value: "Bank <alerts@bank.example>"}},
				Body:     &gmail.MessagePartBody{Data: encode("Rs 10 paid to Cafe on 05-Jan-25")},
			},
		})
	case strings.HasSuffix(path, "/messages/m2"):
		_ = json.NewEncoder(w).Encode(gmail.Message{Id: "m2", Payload: &gmail.MessagePart{}})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func TestRead_SinglePass(t *testing.T) {
	f := &fakeGmail{}
	srv := httptest.NewServer(f)
	defer srv.Close()

	s, err := New(context.Background(), srv.Client(), Config{MarkRead: true}, nil, option.WithEndpoint(srv.URL+"/"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	out := make(chan *api.Message, 4)
	if err := s.Read(context.Background(), out); err != nil {
		t.Fatalf("Read: %v", err)
	}

	var msgs []*api.Message
	for m := range out {
		msgs = append(msgs, m)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1 (empty body skipped)", len(msgs))
	}
	if msgs[0].Sender != "alerts@bank.example" {
		t.Errorf("sender: got %q", msgs[0].Sender)
	}
	if msgs[0].ReceivedAt.UnixMilli() != 1736035200000 {
		t.Errorf("receivedAt: got %v", msgs[0].ReceivedAt)
	}
	if len(f.modified) != 1 {
		t.Errorf("marked read: got %d, want 1", len(f.modified))
	}
}

func TestAlreadySeen(t *testing.T) {
	s := &Source{seen: make(map[string]struct{})}
	if s.alreadySeen("a") {
		t.Error("first sighting reported as seen")
	}
	if !s.alreadySeen("a") {
		t.Error("second sighting not reported as seen")
	}
}
