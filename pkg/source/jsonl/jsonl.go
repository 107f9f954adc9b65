// Package jsonl implements a Source that reads newline-delimited JSON SMS
// exports.
//
// Each line is an object such as
//
//	{"id":"42","body":"Rs.250 paid to Cafe on 05-Jan-25","sender":"VK-HDFCBK","received_at":1736035200000}
//
// where received_at is epoch milliseconds. Blank and malformed lines are
// skipped.
package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/ArionMiles/paysms/pkg/api"
)

const maxLineSize = 1 << 20

// Config holds configuration for the JSONL source.
type Config struct {
	// Path is the file to read. "-" reads standard input.
	Path string
	// Now stamps lines without received_at. Defaults to time.Now.
	Now func() time.Time
}

type line struct {
	ID         string `json:"id"`
	Body       string `json:"body"`
	Sender     string `json:"sender"`
	ReceivedAt int64  `json:"received_at"`
}

// Source reads messages from a JSONL stream.
type Source struct {
	open   func() (io.ReadCloser, error)
	now    func() time.Time
	logger *slog.Logger
}

// New creates a Source reading cfg.Path.
func New(cfg Config, logger *slog.Logger) (*Source, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("jsonl source requires a path")
	}
	open := func() (io.ReadCloser, error) { return os.Open(cfg.Path) }
	if cfg.Path == "-" {
		open = func() (io.ReadCloser, error) { return io.NopCloser(os.Stdin), nil }
	}
	return newSource(open, cfg.Now, logger), nil
}

// FromReader creates a Source over r.
func FromReader(r io.Reader, now func() time.Time, logger *slog.Logger) *Source {
	return newSource(func() (io.ReadCloser, error) { return io.NopCloser(r), nil }, now, logger)
}

func newSource(open func() (io.ReadCloser, error), now func() time.Time, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Source{open: open, now: now, logger: logger.With("component", "jsonl_source")}
}

// Read sends one message per valid line and closes out at end of input.
func (s *Source) Read(ctx context.Context, out chan<- *api.Message) error {
	defer close(out)

	rc, err := s.open()
	if err != nil {
		return fmt.Errorf("opening jsonl input: %w", err)
	}
	defer rc.Close()

	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	lineNo, sent := 0, 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var l line
		if err := json.Unmarshal(raw, &l); err != nil {
			s.logger.Warn("skipping malformed line", "line", lineNo, "error", err)
			continue
		}

		msg := &api.Message{
			ID:     l.ID,
			Body:   l.Body,
			Sender: l.Sender,
		}
		if msg.ID == "" {
			msg.ID = strconv.Itoa(lineNo)
		}
		if l.ReceivedAt > 0 {
			msg.ReceivedAt = time.UnixMilli(l.ReceivedAt)
		} else {
			msg.ReceivedAt = s.now()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- msg:
			sent++
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading jsonl input: %w", err)
	}

	s.logger.Info("jsonl input exhausted", "lines", lineNo, "messages", sent)
	return nil
}
