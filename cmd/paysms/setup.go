package main

import (
	"flag"
	"fmt"
	"os"

	"google.golang.org/api/sheets/v4"

	"github.com/ArionMiles/paysms/pkg/client"
	"github.com/ArionMiles/paysms/pkg/config"
)

// runSetup handles the OAuth setup flow.
func runSetup(a *app, args []string) error {
	fs := flag.NewFlagSet("setup", flag.ContinueOnError)
	force := fs.Bool("force", false, "re-authenticate even if a token exists")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Println("=== paysms Setup ===")
	fmt.Println()

	secretsPath := a.cfg.SecretsFile
	if !a.cfg.SecretsAvailable() {
		return fmt.Errorf("credentials file not found: %s\n\nTo get your credentials:\n"+
			"1. Go to https://console.cloud.google.com/apis/credentials\n"+
			"2. Create an OAuth 2.0 Client ID (Desktop application)\n"+
			"3. Download the JSON file and save it as '%s'", secretsPath, secretsPath)
	}

	tokenFile := client.DefaultTokenFile
	if !*force {
		if _, err := os.Stat(tokenFile); err == nil {
			fmt.Printf("Already authenticated! Token file exists: %s\n", tokenFile)
			fmt.Println()
			fmt.Println("To re-authenticate, run: paysms setup -force")
			return nil
		}
	}

	if *force {
		if err := os.Remove(tokenFile); err != nil && !os.IsNotExist(err) {
			a.logger.Warn("failed to remove existing token", "error", err)
		}
		fmt.Println("Forcing re-authentication...")
		fmt.Println()
	}

	scopes, err := a.registry.Scopes(config.SourceGmail, sheets.SpreadsheetsScope)
	if err != nil {
		return err
	}

	fmt.Println("Required permissions:")
	fmt.Println("  - Gmail: Read and modify emails (to mark processed alerts as read)")
	fmt.Println("  - Sheets: Read and write spreadsheets (for 'paysms export -to sheets')")
	fmt.Println()
	fmt.Println("Starting authentication...")
	fmt.Println()

	if _, err := client.New(client.Config{SecretFile: secretsPath, TokenFile: tokenFile, Interactive: true}, scopes...); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	fmt.Println()
	fmt.Println("=== Setup Complete ===")
	fmt.Println()
	fmt.Printf("Token saved to: %s\n", tokenFile)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Set PAYSMS_SOURCE=gmail")
	fmt.Println("  2. Run 'paysms run' to start detecting payments")
	fmt.Println()

	return nil
}
