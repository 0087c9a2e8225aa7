// Package worker publishes monthly ledger summaries to the spreadsheet sink.
package worker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"canteen/internal/amqp"
	"canteen/internal/analytics"
	"canteen/internal/ledger"
	"canteen/internal/log"
	"canteen/internal/sheets"
	"canteen/internal/storage"
	"canteen/internal/store"
)

// PublishLog remembers the last summary published for each period so an
// unchanged summary is not appended twice.
type PublishLog interface {
	LastPublished(ctx context.Context, period string) (storage.PublishedSummary, bool, error)
	RecordPublished(ctx context.Context, period, fingerprint, ref string) error
}

var _ PublishLog = (*storage.SQLiteRepository)(nil)

// SummaryWorker recomputes the current month's summary and appends it to a
// SummaryWriter whenever it changed.
type SummaryWorker struct {
	reader     store.LedgerReader
	sink       sheets.SummaryWriter
	publog     PublishLog
	aggregator *analytics.Aggregator
	logger     *log.Logger
	now        func() time.Time

	// mu serializes publishes from the consumer and the ticker.
	mu sync.Mutex
}

type Option func(*SummaryWorker)

func WithAggregator(a *analytics.Aggregator) Option {
	return func(w *SummaryWorker) { w.aggregator = a }
}

func WithLogger(l *log.Logger) Option { return func(w *SummaryWorker) { w.logger = l } }

func WithClock(now func() time.Time) Option { return func(w *SummaryWorker) { w.now = now } }

func NewSummaryWorker(reader store.LedgerReader, sink sheets.SummaryWriter, publog PublishLog, opts ...Option) *SummaryWorker {
	w := &SummaryWorker{
		reader:     reader,
		sink:       sink,
		publog:     publog,
		aggregator: analytics.NewAggregator(nil),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = log.Wrap(nil, log.ComponentWorker)
	}
	return w
}

// HandleLedgerEvent is the AMQP consumer callback. Every event kind leads
// to the same recomputation, so the payload is only logged.
func (w *SummaryWorker) HandleLedgerEvent(ctx context.Context, ev amqp.LedgerEvent) error {
	w.logger.DebugContext(ctx, "Processing ledger event",
		log.FieldEventKind, ev.Kind, log.FieldMonth, ev.Month, log.FieldEntryID, ev.EntryID)
	if _, err := w.PublishCurrent(ctx); err != nil {
		return fmt.Errorf("handle %s event: %w", ev.Kind, err)
	}
	return nil
}

// PublishCurrent summarizes the stored ledger's month and appends the
// result unless an identical summary was already published for it. It
// reports whether a row was appended.
func (w *SummaryWorker) PublishCurrent(ctx context.Context) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	l, err := w.reader.Load(ctx)
	if errors.Is(err, store.ErrNoLedger) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load ledger: %w", err)
	}

	period := l.Month
	if period == "" {
		period = w.now().Format("2006-01")
	}
	from, to, err := ledger.MonthBounds(period)
	if err != nil {
		return false, err
	}
	summary := w.aggregator.Summarize(analytics.FilterByRange(l.Entries, &from, &to))

	fp, err := Fingerprint(summary)
	if err != nil {
		return false, err
	}
	last, found, err := w.publog.LastPublished(ctx, period)
	if err != nil {
		return false, err
	}
	if found && last.Fingerprint == fp {
		w.logger.DebugContext(ctx, "Summary unchanged, skipping publish", log.FieldMonth, period)
		return false, nil
	}

	ref, err := w.sink.AppendSummary(ctx, sheets.NewSummaryRow(period, summary, w.now()))
	if err != nil {
		return false, fmt.Errorf("append summary: %w", err)
	}
	if err := w.publog.RecordPublished(ctx, period, fp, ref); err != nil {
		return true, err
	}

	w.logger.InfoContext(ctx, "Summary published",
		log.FieldOperation, log.OpPublish,
		log.FieldMonth, period,
		log.FieldSheetsRef, ref,
		"count", summary.Count)
	return true, nil
}

// Run publishes once immediately and then every interval until ctx is
// cancelled. Failed rounds are logged and retried on the next tick.
func (w *SummaryWorker) Run(ctx context.Context, interval time.Duration) error {
	w.tick(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *SummaryWorker) tick(ctx context.Context) {
	if _, err := w.PublishCurrent(ctx); err != nil && ctx.Err() == nil {
		w.logger.ErrorContext(ctx, "Periodic summary publish failed", log.FieldError, err.Error())
	}
}

// Fingerprint is a stable digest of a summary's JSON encoding.
func Fingerprint(s analytics.Summary) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode summary: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
