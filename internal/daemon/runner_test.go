package daemon

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ArionMiles/paysms/internal/plugins"
	"github.com/ArionMiles/paysms/pkg/config"
	"github.com/ArionMiles/paysms/pkg/logging"
	"github.com/ArionMiles/paysms/pkg/notify"
	"github.com/ArionMiles/paysms/pkg/notify/inbox"
)

func writeSMS(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sms.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func testConfig(path string) config.Config {
	cfg := config.Default()
	cfg.Store = config.StoreMemory
	cfg.Source = config.SourceJSONL
	cfg.SourcePath = path
	cfg.Timezone = "UTC"
	return cfg
}

func TestRun_JSONLToInbox(t *testing.T) {
	path := writeSMS(t,
		`{"id":"1","body":"Rs.1,250.00 paid to Cafe Mocha on 05-Jan-25 with reference 991","sender":"VK-HDFCBK","received_at":1736100000000}`,
		`{"id":"2","body":"Your OTP is 4321","sender":"VK-HDFCBK","received_at":1736100000000}`,
		`{"id":"3","body":"INR 99 spent","sender":"AX-ICICI","received_at":1736100000000}`,
	)

	box, err := inbox.New(inbox.Config{Dir: filepath.Join(t.TempDir(), "inbox"), Enabled: true}, logging.Discard())
	if err != nil {
		t.Fatalf("inbox: %v", err)
	}

	r := New(plugins.Builtin(), nil, box, logging.Discard())
	stats, err := r.Run(context.Background(), testConfig(path))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Seen != 3 || stats.Dispatched != 2 || stats.NotPayment != 1 {
		t.Errorf("stats: got %+v", stats)
	}

	pending, err := box.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending: got %d, want 2", len(pending))
	}

	var found bool
	for _, p := range pending {
		if p.Merchant == "Cafe Mocha" {
			found = true
			if p.Reference != "991" || p.Amount.String() != "1250" {
				t.Errorf("payload: got %+v", p)
			}
		}
	}
	if !found {
		t.Errorf("no payload for Cafe Mocha in %+v", pending)
	}
}

func TestRun_NotificationsDisabled(t *testing.T) {
	path := writeSMS(t, `{"id":"1","body":"Rs 10 paid to Shop on 05-Jan-25"}`)

	n := notify.NewChannelNotifier(1)
	n.SetPermitted(false)

	stats, err := New(plugins.Builtin(), nil, n, logging.Discard()).Run(context.Background(), testConfig(path))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Dispatched != 1 || stats.Failed != 0 {
		t.Errorf("stats: got %+v, want skipped delivery counted as dispatched", stats)
	}
	select {
	case p := <-n.Payloads():
		t.Errorf("unexpected payload %+v", p)
	default:
	}
}

func TestRun_SourceErrors(t *testing.T) {
	r := New(plugins.Builtin(), nil, notify.LogNotifier{Logger: logging.Discard()}, logging.Discard())

	if _, err := r.Run(context.Background(), testConfig(filepath.Join(t.TempDir(), "absent.jsonl"))); err == nil {
		t.Error("expected error for missing input file")
	}

	cfg := testConfig("")
	cfg.Source = "imap"
	if _, err := r.Run(context.Background(), cfg); err == nil {
		t.Error("expected error for unknown source")
	}
}

func TestRun_Canceled(t *testing.T) {
	path := writeSMS(t, `{"id":"1","body":"Rs 10 paid"}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(plugins.Builtin(), nil, notify.LogNotifier{Logger: logging.Discard()}, logging.Discard())
	if _, err := r.Run(ctx, testConfig(path)); err != nil {
		t.Errorf("canceled run should be clean, got %v", err)
	}
}
