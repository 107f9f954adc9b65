package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ArionMiles/paysms/internal/plugins"
	"github.com/ArionMiles/paysms/pkg/client"
	"github.com/ArionMiles/paysms/pkg/config"
	"github.com/ArionMiles/paysms/pkg/notify/inbox"
)

// runStatus checks the configuration, storage and authentication status.
func runStatus(files config.Files, logger *slog.Logger) error {
	fmt.Println("=== paysms Status ===")
	fmt.Println()

	allGood := true

	fmt.Print("Configuration: ")
	cfg, err := config.Load(files)
	if err != nil {
		fmt.Printf("✗ %v\n", err)
		printFinalStatus(false)
		return nil
	}
	fmt.Printf("✓ store=%s source=%s timezone=%s\n", cfg.Store, cfg.Source, cfg.Timezone)

	checkStore(cfg, logger, &allGood)
	checkInbox(cfg, logger)
	checkSource(cfg, &allGood)

	printFinalStatus(allGood)
	return nil
}

func checkStore(cfg config.Config, logger *slog.Logger, allGood *bool) {
	fmt.Printf("Store (%s): ", cfg.Store)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := plugins.Builtin().CreateStore(ctx, cfg.Store, cfg, logger)
	if err != nil {
		fmt.Printf("✗ %v\n", err)
		*allGood = false
		return
	}
	defer store.Close()

	records, err := store.ListAll(ctx)
	if err != nil {
		fmt.Printf("✗ %v\n", err)
		*allGood = false
		return
	}
	fmt.Printf("✓ %d transactions\n", len(records))
}

func checkInbox(cfg config.Config, logger *slog.Logger) {
	fmt.Printf("Review inbox (%s): ", cfg.InboxDir)

	box, err := inbox.New(inbox.Config{Dir: cfg.InboxDir, Enabled: cfg.Notifications}, logger)
	if err != nil {
		fmt.Printf("✗ %v\n", err)
		return
	}
	pending, err := box.List(context.Background())
	if err != nil {
		fmt.Printf("⚠ %v\n", err)
		return
	}

	state := "notifications on"
	if !cfg.Notifications {
		state = "notifications off"
	}
	fmt.Printf("✓ %d pending (%s)\n", len(pending), state)
}

func checkSource(cfg config.Config, allGood *bool) {
	fmt.Printf("Source (%s): ", cfg.Source)
	if cfg.NeedsSourcePath() {
		if cfg.SourcePath == "" {
			fmt.Println("✗ PAYSMS_SOURCE_PATH not set")
			*allGood = false
		} else {
			fmt.Printf("✓ %s\n", cfg.SourcePath)
		}
		return
	}
	fmt.Println("✓ OAuth")

	fmt.Printf("Credentials file (%s): ", cfg.SecretsFile)
	if !cfg.SecretsAvailable() {
		fmt.Println("✗ Not found")
		*allGood = false
	} else {
		fmt.Println("✓ Found")
	}

	fmt.Printf("OAuth token (%s): ", client.DefaultTokenFile)
	token, err := client.TokenFromFile(client.DefaultTokenFile)
	switch {
	case err != nil:
		fmt.Println("✗ not found (run 'paysms setup')")
		*allGood = false
	case token.Expiry.Before(time.Now()):
		fmt.Println("⚠ Expired (will refresh on next run)")
	default:
		fmt.Printf("✓ Valid (expires: %s)\n", token.Expiry.Format(time.RFC3339))
	}
}

func printFinalStatus(allGood bool) {
	fmt.Println()
	if allGood {
		fmt.Println("Status: ✓ Ready to run")
		fmt.Println()
		fmt.Println("Run 'paysms run' to start detecting payments.")
	} else {
		fmt.Println("Status: ✗ Configuration issues detected")
		fmt.Println()
		fmt.Println("Fix the issues above, then run 'paysms status' again.")
	}
}
