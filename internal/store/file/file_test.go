package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"canteen/internal/core"
	"canteen/internal/store"
)

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "ledger.json")
	s := New(path)

	if _, err := s.Load(ctx); !errors.Is(err, store.ErrNoLedger) {
		t.Fatalf("Load() on missing file error = %v", err)
	}

	l := core.NewLedger("2025-10", core.Money{Cents: 500000}, []string{"Asha", "Ben"})
	l.Entries = append(l.Entries, core.Entry{
		ID:          "e1",
		Date:        core.NewDate(2025, 10, 3),
		Spender:     "Asha",
		Amount:      core.Money{Cents: 12050},
		Description: "Lunch",
		Items:       []core.Item{{Name: "thali", Qty: 1, Price: core.Money{Cents: 12050}}},
	})
	if err := s.Save(ctx, l); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Month != "2025-10" || got.Fund.Cents != 500000 || len(got.Friends) != 2 {
		t.Fatalf("unexpected ledger: %+v", got)
	}
	e := got.Entries[0]
	if e.Amount.Cents != 12050 || e.Date.String() != "2025-10-03" || e.Items[0].Name != "thali" {
		t.Fatalf("unexpected entry: %+v", e)
	}
}

func TestStore_LoadLenientDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	doc := `{"month":"2025-10","fund":"5000","remaining":4900,
		"expenses":[{"date":"garbage","amount":"abc","spender":"A"},{"date":"2025-10-02","amount":-4}]}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := New(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Fund.Cents != 500000 {
		t.Fatalf("Fund = %d, want 500000", got.Fund.Cents)
	}
	if got.Friends == nil {
		t.Fatal("Friends should default to empty")
	}
	if !got.Entries[0].Date.IsEmpty() || got.Entries[0].Amount.Cents != 0 || got.Entries[1].Amount.Cents != 0 {
		t.Fatalf("lenient ingestion not applied: %+v", got.Entries)
	}
}

func TestStore_LoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	if err := os.WriteFile(path, []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := New(path).Load(context.Background()); err == nil || errors.Is(err, store.ErrNoLedger) {
		t.Fatalf("Load() error = %v, want decode error", err)
	}
}

func TestStore_RoundTripNegativeBalances(t *testing.T) {
	ctx := context.Background()
	s := New(filepath.Join(t.TempDir(), "ledger.json"))

	l := core.NewLedger("2025-10", core.Money{Cents: 100000}, []string{"Asha", "Ben"})
	l.Remaining = core.Money{Cents: -120000}
	l.Friends[0].Spent = core.Money{Cents: -5000}
	l.Friends[1].Spent = core.Money{Cents: 225000}
	if err := s.Save(ctx, l); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Remaining.Cents != -120000 {
		t.Fatalf("Remaining = %d, want -120000", got.Remaining.Cents)
	}
	if got.Friends[0].Spent.Cents != -5000 || got.Friends[1].Spent.Cents != 225000 {
		t.Fatalf("Friends = %+v", got.Friends)
	}
}
