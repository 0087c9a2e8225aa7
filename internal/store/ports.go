// Package store defines the ports through which the ledger is persisted.
package store

import (
	"context"
	"errors"

	"canteen/internal/core"
)

// ErrNoLedger is returned by Load when nothing has been saved yet.
var ErrNoLedger = errors.New("no ledger stored")

type (
	LedgerReader interface {
		Load(ctx context.Context) (core.Ledger, error)
	}

	// LedgerWriter replaces the stored ledger as a whole.
	LedgerWriter interface {
		Save(ctx context.Context, l core.Ledger) error
	}

	LedgerStore interface {
		LedgerReader
		LedgerWriter
	}
)
