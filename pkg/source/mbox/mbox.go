// Package mbox implements a Source that reads alert e-mails from an mbox
// file, such as a Google Takeout export.
package mbox

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"os"
	"strconv"
	"strings"
	"time"

	gombox "github.com/emersion/go-mbox"

	"github.com/ArionMiles/paysms/pkg/api"
)

// Config holds configuration for the mbox source.
type Config struct {
	// Path is the mbox file to read.
	Path string
	// Now stamps messages without a parsable Date header. Defaults to time.Now.
	Now func() time.Time
}

// Source reads messages from an mbox stream.
type Source struct {
	open   func() (io.ReadCloser, error)
	now    func() time.Time
	logger *slog.Logger
}

// New creates a Source reading cfg.Path.
func New(cfg Config, logger *slog.Logger) (*Source, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("mbox source requires a path")
	}
	return newSource(func() (io.ReadCloser, error) { return os.Open(cfg.Path) }, cfg.Now, logger), nil
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
	return &Source{open: open, now: now, logger: logger.With("component", "mbox_source")}
}

// Read sends every readable message and closes out at end of file.
func (s *Source) Read(ctx context.Context, out chan<- *api.Message) error {
	defer close(out)

	rc, err := s.open()
	if err != nil {
		return fmt.Errorf("opening mbox: %w", err)
	}
	defer rc.Close()

	mr := gombox.NewReader(rc)
	n := 0
	for {
		raw, err := mr.NextMessage()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("reading mbox message %d: %w", n+1, err)
		}
		n++

		msg, err := s.parse(raw, n)
		if err != nil {
			s.logger.Warn("skipping unreadable message", "index", n, "error", err)
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- msg:
		}
	}

	s.logger.Info("mbox exhausted", "messages", n)
	return nil
}

func (s *Source) parse(r io.Reader, index int) (*api.Message, error) {
	m, err := mail.ReadMessage(r)
	if err != nil {
		return nil, fmt.Errorf("parsing message: %w", err)
	}

	msg := &api.Message{
		ID:     strings.Trim(m.Header.Get("Message-Id"), "<> "),
		Sender: sender(m.Header.Get("From")),
	}
	if msg.ID == "" {
		msg.ID = "mbox-" + strconv.Itoa(index)
	}
	if date, err := m.Header.Date(); err == nil {
		msg.ReceivedAt = date
	} else {
		msg.ReceivedAt = s.now()
	}

	body, err := textBody(m.Header.Get("Content-Type"), m.Header.Get("Content-Transfer-Encoding"), m.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	msg.Body = body
	return msg, nil
}

func sender(from string) string {
	if from == "" {
		return ""
	}
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return strings.TrimSpace(from)
	}
	return addr.Address
}

// textBody returns the text/plain part of a message, falling back to the
// first text/html part and then to the raw body.
func textBody(contentType, encoding string, body io.Reader) (string, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		data, err := io.ReadAll(decode(encoding, body))
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(data)), nil
	}

	var html string
	mr := multipart.NewReader(body, params["boundary"])
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		partType, _, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
		switch {
		case strings.HasPrefix(partType, "multipart/"):
			nested, err := textBody(part.Header.Get("Content-Type"), "", part)
			if err != nil {
				return "", err
			}
			if nested != "" {
				return nested, nil
			}
		case partType == "text/plain" || partType == "":
			data, err := io.ReadAll(decode(part.Header.Get("Content-Transfer-Encoding"), part))
			if err != nil {
				return "", err
			}
			return strings.TrimSpace(string(data)), nil
		case partType == "text/html" && html == "":
			data, err := io.ReadAll(decode(part.Header.Get("Content-Transfer-Encoding"), part))
			if err != nil {
				return "", err
			}
			html = strings.TrimSpace(string(data))
		}
	}
	return html, nil
}

func decode(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	default:
		return r
	}
}
