// Package ledger applies mutations to the shared monthly ledger and keeps
// its running balances consistent. All writes go through a single mutex so
// every operation is a load, modify, save cycle over the whole ledger.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"canteen/internal/amqp"
	"canteen/internal/analytics"
	"canteen/internal/core"
	"canteen/internal/log"
	"canteen/internal/store"
)

const monthLayout = "2006-01"

// ErrInvalidMonth is returned when a month label is not "YYYY-MM".
var ErrInvalidMonth = errors.New("month must be formatted as YYYY-MM")

// EventPublisher receives a notification after every committed mutation.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, ev amqp.LedgerEvent) error
}

// Defaults seed a new ledger and every rollover.
type Defaults struct {
	Fund    core.Money
	Friends []string
}

// SummaryResult is a computed summary together with its rendered report.
type SummaryResult struct {
	Period  string            `json:"period"`
	Summary analytics.Summary `json:"summary"`
	Report  string            `json:"report"`
}

type Service struct {
	mu         sync.Mutex
	store      store.LedgerStore
	defaults   Defaults
	publisher  EventPublisher
	aggregator *analytics.Aggregator
	reporter   analytics.Reporter
	logger     *log.Logger
	now        func() time.Time
}

type Option func(*Service)

func WithPublisher(p EventPublisher) Option { return func(s *Service) { s.publisher = p } }

func WithAggregator(a *analytics.Aggregator) Option { return func(s *Service) { s.aggregator = a } }

func WithReporter(r analytics.Reporter) Option { return func(s *Service) { s.reporter = r } }

func WithLogger(l *log.Logger) Option { return func(s *Service) { s.logger = l } }

// WithClock overrides the time source used for default dates and months.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(st store.LedgerStore, defaults Defaults, opts ...Option) *Service {
	s := &Service{
		store:      st,
		defaults:   defaults,
		aggregator: analytics.NewAggregator(nil),
		reporter:   analytics.Reporter{Currency: analytics.DefaultCurrency},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Wrap(nil, log.ComponentLedger)
	}
	return s
}

func (s *Service) today() core.Date {
	y, m, d := s.now().Date()
	return core.NewDate(y, int(m), d)
}

func (s *Service) currentMonth() string {
	return s.now().Format(monthLayout)
}

// load returns the stored ledger, or a fresh one for the current month.
// Callers hold s.mu.
func (s *Service) load(ctx context.Context) (core.Ledger, error) {
	l, err := s.store.Load(ctx)
	if errors.Is(err, store.ErrNoLedger) {
		return core.NewLedger(s.currentMonth(), s.defaults.Fund, s.defaults.Friends), nil
	}
	if err != nil {
		return core.Ledger{}, fmt.Errorf("load ledger: %w", err)
	}
	return l, nil
}

// commit saves l and publishes ev. A failed publish is logged only: the
// ledger change is already durable.
func (s *Service) commit(ctx context.Context, l core.Ledger, ev amqp.LedgerEvent) error {
	if err := s.store.Save(ctx, l); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishLedgerEvent(ctx, ev); err != nil {
			s.logger.WarnContext(ctx, "Ledger event not published",
				log.FieldEventKind, ev.Kind, log.FieldError, err.Error())
		}
	}
	return nil
}

// Snapshot returns the current ledger.
func (s *Service) Snapshot(ctx context.Context) (core.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Replace imports a whole ledger. Entries without an ID get one.
func (s *Service) Replace(ctx context.Context, l core.Ledger) (core.Ledger, error) {
	if err := l.Validate(); err != nil {
		return core.Ledger{}, err
	}
	l = l.Clone()
	if l.Month == "" {
		l.Month = s.currentMonth()
	}
	for i := range l.Entries {
		if l.Entries[i].ID == "" {
			l.Entries[i].ID = core.NewEntryID()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.commit(ctx, l, amqp.NewLedgerEvent(amqp.EventLedgerReplaced, l.Month, "")); err != nil {
		return core.Ledger{}, err
	}
	s.logger.InfoContext(ctx, "Ledger replaced",
		log.FieldOperation, log.OpImport, log.FieldMonth, l.Month, "entries", len(l.Entries))
	return l, nil
}

// AddExpense records a spending entry. An itemized entry without an amount
// is charged the total of its items. The date defaults to today.
func (s *Service) AddExpense(ctx context.Context, e core.Entry) (core.Entry, error) {
	e.Type = ""
	e.Spender = strings.TrimSpace(e.Spender)
	e.Description = strings.TrimSpace(e.Description)
	if e.Amount.Cents == 0 && len(e.Items) > 0 {
		e.Amount = e.ItemsTotal()
	}
	if e.Date.IsEmpty() {
		e.Date = s.today()
	}
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}
	e.ID = core.NewEntryID()
	e.Items = append([]core.Item(nil), e.Items...)

	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.load(ctx)
	if err != nil {
		return core.Entry{}, err
	}
	l.Entries = append(l.Entries, e)
	l.Remaining = l.Remaining.Sub(e.Amount)
	if i := l.FriendIndex(e.Spender); i >= 0 {
		l.Friends[i].Spent = l.Friends[i].Spent.Add(e.Amount)
	}

	if err := s.commit(ctx, l, amqp.NewLedgerEvent(amqp.EventExpenseAdded, l.Month, e.ID)); err != nil {
		return core.Entry{}, err
	}
	s.logger.InfoContext(ctx, "Expense recorded",
		log.NewFields().WithOperation(log.OpCreate).
			WithEntry(e.ID, e.Spender, e.Amount.Cents, e.Category).ToSlice()...)
	return e, nil
}

// DeleteExpense removes an entry and reverses its effect on the balances.
// Removing a top-up takes the amount back out of the fund.
func (s *Service) DeleteExpense(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.load(ctx)
	if err != nil {
		return err
	}
	idx := l.EntryIndex(id)
	if id == "" || idx < 0 {
		return fmt.Errorf("%w: %s", core.ErrEntryNotFound, id)
	}

	e := l.Entries[idx]
	l.Entries = append(l.Entries[:idx], l.Entries[idx+1:]...)
	if e.IsFund() {
		l.Fund = l.Fund.Sub(e.Amount)
		l.Remaining = l.Remaining.Sub(e.Amount)
	} else {
		l.Remaining = l.Remaining.Add(e.Amount)
		if i := l.FriendIndex(e.Spender); i >= 0 {
			l.Friends[i].Spent = l.Friends[i].Spent.Sub(e.Amount)
		}
	}

	if err := s.commit(ctx, l, amqp.NewLedgerEvent(amqp.EventExpenseDeleted, l.Month, id)); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Entry deleted",
		log.NewFields().WithOperation(log.OpDelete).
			WithEntry(e.ID, e.Spender, e.Amount.Cents, "").ToSlice()...)
	return nil
}

// AddFunds tops up the shared pool and records the top-up as a fund entry.
func (s *Service) AddFunds(ctx context.Context, amount core.Money, date core.Date) (core.Entry, error) {
	if err := amount.Validate(); err != nil {
		return core.Entry{}, err
	}
	if date.IsEmpty() {
		date = s.today()
	}
	e := core.Entry{
		ID:          core.NewEntryID(),
		Date:        date,
		Spender:     core.FundSpender,
		Amount:      amount,
		Description: "Fund top-up",
		Type:        core.FundType,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.load(ctx)
	if err != nil {
		return core.Entry{}, err
	}
	l.Fund = l.Fund.Add(amount)
	l.Remaining = l.Remaining.Add(amount)
	l.Entries = append(l.Entries, e)

	if err := s.commit(ctx, l, amqp.NewLedgerEvent(amqp.EventFundsAdded, l.Month, e.ID)); err != nil {
		return core.Entry{}, err
	}
	s.logger.InfoContext(ctx, "Funds added",
		log.FieldOperation, log.OpTopUp, log.FieldAmount, amount.Cents, log.FieldMonth, l.Month)
	return e, nil
}

// StartMonth rolls the ledger over: the fund returns to the default, entries
// are cleared and every friend's spending is zeroed. An empty month means
// the current one.
func (s *Service) StartMonth(ctx context.Context, month string) (core.Ledger, error) {
	month = strings.TrimSpace(month)
	if month == "" {
		month = s.currentMonth()
	}
	if _, err := time.Parse(monthLayout, month); err != nil {
		return core.Ledger{}, fmt.Errorf("%w: %q", ErrInvalidMonth, month)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, err := s.load(ctx)
	if err != nil {
		return core.Ledger{}, err
	}
	names := make([]string, len(prev.Friends))
	for i, f := range prev.Friends {
		names[i] = f.Name
	}
	l := core.NewLedger(month, s.defaults.Fund, names)

	if err := s.commit(ctx, l, amqp.NewLedgerEvent(amqp.EventMonthStarted, month, "")); err != nil {
		return core.Ledger{}, err
	}
	s.logger.InfoContext(ctx, "New month started",
		log.FieldOperation, log.OpRollover, log.FieldMonth, month, "previous_month", prev.Month)
	return l, nil
}

// Summary aggregates the stored entries dated within [from, to] and renders
// the report. An empty label is derived from the bounds.
func (s *Service) Summary(ctx context.Context, from, to *core.Date, label string) (SummaryResult, error) {
	l, err := s.Snapshot(ctx)
	if err != nil {
		return SummaryResult{}, err
	}
	if label == "" {
		label = RangeLabel(from, to)
	}
	sum := s.aggregator.Summarize(analytics.FilterByRange(l.Entries, from, to))
	return SummaryResult{
		Period:  label,
		Summary: sum,
		Report:  s.reporter.Render(sum, label),
	}, nil
}

// RangeLabel describes a date range for report headers.
func RangeLabel(from, to *core.Date) string {
	switch {
	case from == nil && to == nil:
		return "all time"
	case to == nil:
		return "since " + from.String()
	case from == nil:
		return "until " + to.String()
	default:
		return from.String() + " to " + to.String()
	}
}
