// Package memory keeps the ledger in process memory. Contents are lost on
// restart; it backs tests and the default development setup.
package memory

import (
	"context"
	"sync"

	"canteen/internal/core"
	"canteen/internal/store"
)

type Store struct {
	mu     sync.Mutex
	ledger *core.Ledger
}

var _ store.LedgerStore = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// NewWithLedger returns a store pre-seeded with l.
func NewWithLedger(l core.Ledger) *Store {
	c := l.Clone()
	return &Store{ledger: &c}
}

// Load returns a copy of the stored ledger.
func (s *Store) Load(_ context.Context) (core.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ledger == nil {
		return core.Ledger{}, store.ErrNoLedger
	}
	return s.ledger.Clone(), nil
}

func (s *Store) Save(_ context.Context, l core.Ledger) error {
	c := l.Clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger = &c
	return nil
}
