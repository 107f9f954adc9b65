// Package inbox implements a Notifier that queues payloads as JSON files in a
// review inbox directory.
package inbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ArionMiles/paysms/pkg/api"
)

// ErrNoPayload is returned when the inbox has no payload with the given id.
var ErrNoPayload = errors.New("payload not in inbox")

const fileExt = ".json"

// Config holds configuration for the inbox.
type Config struct {
	// Dir is the inbox directory. It is created on first delivery.
	Dir string
	// Enabled is the user's notification permission.
	Enabled bool
}

// Inbox stores pending review payloads, one file per payload.
type Inbox struct {
	dir     string
	enabled bool
	logger  *slog.Logger
}

// New creates an inbox rooted at cfg.Dir.
func New(cfg Config, logger *slog.Logger) (*Inbox, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("inbox directory is required")
	}

	return &Inbox{
		dir:     cfg.Dir,
		enabled: cfg.Enabled,
		logger:  logger,
	}, nil
}

// Dir returns the inbox directory.
func (in *Inbox) Dir() string {
	return in.dir
}

// Permitted reports whether notifications are enabled and the inbox
// directory is usable.
func (in *Inbox) Permitted(context.Context) bool {
	if !in.enabled {
		return false
	}
	if err := os.MkdirAll(in.dir, 0o700); err != nil {
		in.logger.Warn("inbox directory unavailable", "dir", in.dir, "error", err)
		return false
	}
	return true
}

// Deliver writes p to the inbox. The file appears atomically.
func (in *Inbox) Deliver(_ context.Context, p api.Payload) error {
	if p.ID == "" {
		return fmt.Errorf("payload id is required")
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	tmp, err := os.CreateTemp(in.dir, ".pending-*")
	if err != nil {
		return fmt.Errorf("creating inbox file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing inbox file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing inbox file: %w", err)
	}

	if err := os.Rename(tmp.Name(), in.path(p.ID)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("publishing inbox file: %w", err)
	}

	in.logger.Debug("payload queued for review", "id", p.ID, "dir", in.dir)
	return nil
}

// List returns pending payloads, most recent transaction first.
func (in *Inbox) List(_ context.Context) ([]api.Payload, error) {
	entries, err := os.ReadDir(in.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading inbox: %w", err)
	}

	payloads := make([]api.Payload, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != fileExt {
			continue
		}

		p, err := in.read(filepath.Join(in.dir, name))
		if err != nil {
			in.logger.Warn("skipping unreadable inbox file", "file", name, "error", err)
			continue
		}
		payloads = append(payloads, p)
	}

	sort.SliceStable(payloads, func(i, j int) bool {
		return payloads[i].OccurredAt > payloads[j].OccurredAt
	})
	return payloads, nil
}

// Get returns the payload with the given id.
func (in *Inbox) Get(_ context.Context, id string) (api.Payload, error) {
	if !validID(id) {
		return api.Payload{}, ErrNoPayload
	}

	p, err := in.read(in.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return api.Payload{}, ErrNoPayload
		}
		return api.Payload{}, err
	}
	return p, nil
}

// Remove deletes the payload with the given id from the inbox.
func (in *Inbox) Remove(_ context.Context, id string) error {
	if !validID(id) {
		return ErrNoPayload
	}

	if err := os.Remove(in.path(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrNoPayload
		}
		return fmt.Errorf("removing inbox file: %w", err)
	}
	return nil
}

func (in *Inbox) path(id string) string {
	return filepath.Join(in.dir, id+fileExt)
}

func (in *Inbox) read(path string) (api.Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return api.Payload{}, err
	}

	var p api.Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return api.Payload{}, fmt.Errorf("decoding payload: %w", err)
	}
	return p, nil
}

// validID rejects ids that would escape the inbox directory.
func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && !strings.HasPrefix(id, ".")
}
