package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ArionMiles/paysms/pkg/extract"
)

type parseOutput struct {
	Amount     string `json:"amount"`
	Merchant   string `json:"merchant"`
	OccurredAt string `json:"occurredAt"`
	Reference  string `json:"reference,omitempty"`
	SourceText string `json:"sourceText"`
}

// runParse prints the candidate for the message text given as arguments or
// on stdin.
func runParse(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("parse", flag.ContinueOnError)
	sender := fs.String("sender", "", "message sender, used when no merchant is found")
	received := fs.String("received", "", "receipt time (RFC3339), defaults to now")
	tz := fs.String("tz", "UTC", "timezone for dates in the message")
	if err := fs.Parse(args); err != nil {
		return err
	}

	text := strings.Join(fs.Args(), " ")
	if text == "" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = strings.TrimSpace(string(data))
	}

	loc, err := time.LoadLocation(*tz)
	if err != nil {
		return fmt.Errorf("loading timezone: %w", err)
	}

	receivedAt := time.Now().In(loc)
	if *received != "" {
		receivedAt, err = time.Parse(time.RFC3339, *received)
		if err != nil {
			return fmt.Errorf("parsing -received: %w", err)
		}
	}

	c, outcome := extract.NewBuilder(loc).Explain(text, *sender, receivedAt)
	if outcome != extract.Classified {
		fmt.Fprintf(stdout, "no candidate: %s\n", outcome)
		return nil
	}

	out, err := json.MarshalIndent(parseOutput{
		Amount:     c.Amount.String(),
		Merchant:   c.Merchant,
		OccurredAt: c.OccurredAt.Format(time.RFC3339),
		Reference:  c.Reference,
		SourceText: c.SourceText,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding candidate: %w", err)
	}
	fmt.Fprintln(stdout, string(out))
	return nil
}
