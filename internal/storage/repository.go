package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"canteen/internal/core"
	"canteen/internal/store"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores the ledger in normalized tables: a single meta row,
// friends and entries kept in ledger order, and entry items.
type SQLiteRepository struct {
	db *sql.DB
}

var _ store.LedgerStore = (*SQLiteRepository)(nil)

// PublishedSummary is the last summary pushed for a period.
type PublishedSummary struct {
	Period      string
	Fingerprint string
	SheetsRef   string
	PublishedAt time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; Save rewrites several tables in a transaction.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Load implements store.LedgerReader.
func (r *SQLiteRepository) Load(ctx context.Context) (core.Ledger, error) {
	var l core.Ledger
	err := r.db.QueryRowContext(ctx,
		`SELECT month, fund_cents, remaining_cents FROM ledger_meta WHERE id = 1`).
		Scan(&l.Month, &l.Fund.Cents, &l.Remaining.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Ledger{}, store.ErrNoLedger
	}
	if err != nil {
		return core.Ledger{}, fmt.Errorf("read ledger meta: %w", err)
	}

	if l.Friends, err = r.loadFriends(ctx); err != nil {
		return core.Ledger{}, err
	}
	if l.Entries, err = r.loadEntries(ctx); err != nil {
		return core.Ledger{}, err
	}
	return l, nil
}

func (r *SQLiteRepository) loadFriends(ctx context.Context) ([]core.Friend, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, spent_cents FROM friends ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query friends: %w", err)
	}
	defer rows.Close()

	friends := []core.Friend{}
	for rows.Next() {
		var f core.Friend
		if err := rows.Scan(&f.Name, &f.Spent.Cents); err != nil {
			return nil, fmt.Errorf("scan friend: %w", err)
		}
		friends = append(friends, f)
	}
	return friends, rows.Err()
}

func (r *SQLiteRepository) loadEntries(ctx context.Context) ([]core.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, entry_date, spender, amount_cents, description, category, entry_type
		FROM entries ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []core.Entry{}
	index := map[string]int{}
	for rows.Next() {
		var (
			e      core.Entry
			date   string
			typ    string
			amount int64
		)
		if err := rows.Scan(&e.ID, &date, &e.Spender, &amount, &e.Description, &e.Category, &typ); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		// Stored dates were validated on the way in; an unreadable one is
		// treated like any other missing date.
		e.Date, _ = core.ParseDate(date)
		e.Amount = core.Money{Cents: amount}
		e.Type = core.EntryType(typ)
		index[e.ID] = len(entries)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	itemRows, err := r.db.QueryContext(ctx,
		`SELECT entry_id, name, qty, price_cents FROM entry_items ORDER BY entry_id, position`)
	if err != nil {
		return nil, fmt.Errorf("query entry items: %w", err)
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var (
			entryID string
			it      core.Item
		)
		if err := itemRows.Scan(&entryID, &it.Name, &it.Qty, &it.Price.Cents); err != nil {
			return nil, fmt.Errorf("scan entry item: %w", err)
		}
		if i, ok := index[entryID]; ok {
			entries[i].Items = append(entries[i].Items, it)
		}
	}
	return entries, itemRows.Err()
}

// Save implements store.LedgerWriter. The whole ledger is rewritten in one
// transaction.
func (r *SQLiteRepository) Save(ctx context.Context, l core.Ledger) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range []string{"DELETE FROM entry_items", "DELETE FROM entries", "DELETE FROM friends"} {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear ledger (%s): %w", stmt, err)
		}
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO ledger_meta (id, month, fund_cents, remaining_cents, updated_at)
		VALUES (1, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			month = excluded.month,
			fund_cents = excluded.fund_cents,
			remaining_cents = excluded.remaining_cents,
			updated_at = excluded.updated_at`,
		l.Month, l.Fund.Cents, l.Remaining.Cents); err != nil {
		return fmt.Errorf("write ledger meta: %w", err)
	}

	for i, f := range l.Friends {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO friends (position, name, spent_cents) VALUES (?, ?, ?)`,
			i, f.Name, f.Spent.Cents); err != nil {
			return fmt.Errorf("insert friend %q: %w", f.Name, err)
		}
	}

	for i, e := range l.Entries {
		id := e.ID
		if id == "" {
			id = core.NewEntryID()
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO entries (id, position, entry_date, spender, amount_cents, description, category, entry_type)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, i, e.Date.String(), e.Spender, e.Amount.Cents, e.Description, e.Category, string(e.Type)); err != nil {
			return fmt.Errorf("insert entry %s: %w", id, err)
		}
		for j, it := range e.Items {
			if _, err = tx.ExecContext(ctx,
				`INSERT INTO entry_items (entry_id, position, name, qty, price_cents) VALUES (?, ?, ?, ?, ?)`,
				id, j, it.Name, it.Qty, it.Price.Cents); err != nil {
				return fmt.Errorf("insert item %d of entry %s: %w", j, id, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger: %w", err)
	}

	slog.DebugContext(ctx, "Ledger saved to SQLite",
		"month", l.Month,
		"friends", len(l.Friends),
		"entries", len(l.Entries))
	return nil
}

// LastPublished returns the most recent summary pushed for period.
func (r *SQLiteRepository) LastPublished(ctx context.Context, period string) (PublishedSummary, bool, error) {
	var (
		p           PublishedSummary
		publishedAt string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT period, fingerprint, sheets_ref, published_at
		FROM summary_log WHERE period = ? ORDER BY id DESC LIMIT 1`, period).
		Scan(&p.Period, &p.Fingerprint, &p.SheetsRef, &publishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return PublishedSummary{}, false, nil
	}
	if err != nil {
		return PublishedSummary{}, false, fmt.Errorf("read summary log: %w", err)
	}
	p.PublishedAt = parseTimestamp(publishedAt)
	return p, true, nil
}

// RecordPublished appends a summary_log row.
func (r *SQLiteRepository) RecordPublished(ctx context.Context, period, fingerprint, ref string) error {
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO summary_log (period, fingerprint, sheets_ref) VALUES (?, ?, ?)`,
		period, fingerprint, ref); err != nil {
		return fmt.Errorf("record published summary: %w", err)
	}
	return nil
}

// parseTimestamp reads a DATETIME column, which the driver may hand back in
// either SQLite's own layout or RFC 3339.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
