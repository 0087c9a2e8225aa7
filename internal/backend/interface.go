// Package backend builds the ledger store and the optional change
// publisher selected by configuration.
package backend

import (
	"context"

	"canteen/internal/amqp"
	"canteen/internal/store"
)

type CleanupFunc func() error

// Result is a ready-to-use backend. Publisher is nil when change
// notifications are disabled or the broker was unreachable at startup.
type Result struct {
	Store     store.LedgerStore
	Publisher *amqp.Client
	// Ready checks the underlying storage for /readyz.
	Ready   func(ctx context.Context) error
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}
