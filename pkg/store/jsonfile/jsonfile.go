// Package jsonfile provides a record store persisted to a single JSON file.
package jsonfile

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ArionMiles/paysms/pkg/api"
	"github.com/ArionMiles/paysms/pkg/store/memory"
)

// document is the on-disk layout.
type document struct {
	NextID       int64        `json:"next_id"`
	Transactions []api.Record `json:"transactions"`
}

// Store is a memory store that rewrites its file after every mutation.
type Store struct {
	*memory.Store
	filePath string
	logger   *slog.Logger
}

// Config holds configuration for the JSON file store.
type Config struct {
	// FilePath is the path to the JSON data file.
	FilePath string
}

// New opens the store at cfg.FilePath, loading existing records if the file
// exists.
func New(cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FilePath == "" {
		return nil, fmt.Errorf("file path is required")
	}

	doc, err := load(cfg.FilePath)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", cfg.FilePath, err)
	}

	s := &Store{
		Store:    memory.NewWithRecords(doc.Transactions, doc.NextID),
		filePath: cfg.FilePath,
		logger:   logger,
	}
	s.Store.OnChange(s.persist)

	logger.Info("json store opened", "file", cfg.FilePath, "existing_count", len(doc.Transactions))
	return s, nil
}

func load(path string) (document, error) {
	var doc document

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return doc, err
	}
	if len(data) == 0 {
		return doc, nil
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, err
	}
	return doc, nil
}

// persist writes the whole store to a temp file and renames it into place.
func (s *Store) persist(records []api.Record, nextID int64) error {
	data, err := json.MarshalIndent(document{NextID: nextID, Transactions: records}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling json: %w", err)
	}

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".transactions-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing json file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing json file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.filePath); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing json file: %w", err)
	}

	s.logger.Debug("wrote transactions to json", "total_count", len(records))
	return nil
}
