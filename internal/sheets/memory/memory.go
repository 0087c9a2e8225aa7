// Package memory is an in-process SummaryWriter used when no spreadsheet is
// configured, and by tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"canteen/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows []sheets.SummaryRow
}

var _ sheets.SummaryWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// AppendSummary stores the row and returns a synthetic row reference.
func (s *Store) AppendSummary(_ context.Context, row sheets.SummaryRow) (string, error) {
	if row.Period == "" {
		return "", fmt.Errorf("summary row without period")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []sheets.SummaryRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.SummaryRow(nil), s.rows...)
}
