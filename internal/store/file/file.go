// Package file persists the ledger as a single JSON document, the same
// format served by the export endpoint.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"canteen/internal/core"
	"canteen/internal/store"
)

type Store struct {
	mu   sync.Mutex
	path string
}

var _ store.LedgerStore = (*Store)(nil)

func New(path string) *Store {
	return &Store{path: path}
}

// Load decodes the ledger file. Malformed amounts and dates inside the
// document follow the lenient ingestion rules of core.
func (s *Store) Load(_ context.Context) (core.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return core.Ledger{}, store.ErrNoLedger
	}
	if err != nil {
		return core.Ledger{}, fmt.Errorf("read ledger file: %w", err)
	}
	var l core.Ledger
	if err := json.Unmarshal(data, &l); err != nil {
		return core.Ledger{}, fmt.Errorf("decode ledger file %s: %w", s.path, err)
	}
	if l.Friends == nil {
		l.Friends = []core.Friend{}
	}
	if l.Entries == nil {
		l.Entries = []core.Entry{}
	}
	return l, nil
}

// Save writes to a temporary file in the same directory and renames it
// over the target so readers never observe a partial document.
func (s *Store) Save(_ context.Context, l core.Ledger) error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create ledger directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".ledger-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace ledger file: %w", err)
	}
	return nil
}
