// Command paysms turns bank payment alerts into reviewed, categorized
// transaction records.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ArionMiles/paysms/internal/plugins"
	"github.com/ArionMiles/paysms/pkg/api"
	"github.com/ArionMiles/paysms/pkg/config"
	"github.com/ArionMiles/paysms/pkg/logging"
	"github.com/ArionMiles/paysms/pkg/notify/inbox"
	"github.com/ArionMiles/paysms/pkg/review"
)

const usage = `Usage: paysms [-config FILE] <command> [flags]

Commands:
  parse    Extract a transaction candidate from message text
  run      Read messages from the configured source and queue candidates
  inbox    List candidates waiting for review
  accept   Save an inbox candidate as a transaction
  add      Enter a transaction manually
  edit     Change a stored transaction
  delete   Delete a stored transaction
  list     List stored transactions
  export   Export transactions to CSV or Google Sheets
  setup    Authenticate with Google
  status   Check configuration, storage and authentication
`

// app carries what every command needs.
type app struct {
	cfg      config.Config
	loc      *time.Location
	registry *plugins.Registry
	logger   *slog.Logger
}

func main() {
	logger := logging.Setup(logging.DefaultConfig())

	global := flag.NewFlagSet("paysms", flag.ExitOnError)
	configPath := global.String("config", "", "optional JSON config file")
	global.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	_ = global.Parse(os.Args[1:])

	if global.NArg() == 0 {
		global.Usage()
		os.Exit(2)
	}
	command, args := global.Arg(0), global.Args()[1:]

	// parse needs no configuration.
	if command == "parse" {
		if err := runParse(args, os.Stdin, os.Stdout); err != nil {
			logger.Error("parse failed", "error", err)
			os.Exit(1)
		}
		return
	}

	files := config.DefaultFiles()
	files.JSON = *configPath

	// status reports configuration problems instead of failing on them.
	if command == "status" {
		if err := runStatus(files, logger); err != nil {
			logger.Error("status failed", "error", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load(files)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Error("invalid timezone", "error", err)
		os.Exit(1)
	}

	a := &app{cfg: cfg, loc: loc, registry: plugins.Builtin(), logger: logger}

	commands := map[string]func(*app, []string) error{
		"run":    runDaemon,
		"inbox":  runInbox,
		"accept": runAccept,
		"add":    runAdd,
		"edit":   runEdit,
		"delete": runDelete,
		"list":   runList,
		"export": runExport,
		"setup":  runSetup,
	}

	fn, ok := commands[command]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", command)
		global.Usage()
		os.Exit(2)
	}

	if err := fn(a, args); err != nil {
		logger.Error("command failed", "command", command, "error", err)
		os.Exit(1)
	}
}

// openStore creates the configured record store.
func (a *app) openStore(ctx context.Context) (api.Store, error) {
	store, err := a.registry.CreateStore(ctx, a.cfg.Store, a.cfg, a.logger.With("component", "store", "plugin", a.cfg.Store))
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", a.cfg.Store, err)
	}
	return store, nil
}

// openInbox returns the review inbox. Delivery is gated by
// PAYSMS_NOTIFICATIONS.
func (a *app) openInbox() (*inbox.Inbox, error) {
	return inbox.New(inbox.Config{Dir: a.cfg.InboxDir, Enabled: a.cfg.Notifications}, a.logger.With("component", "inbox"))
}

func (a *app) reviewService(store api.Store) *review.Service {
	return review.NewService(store, review.Config{Categories: a.cfg.Categories}, a.logger)
}
