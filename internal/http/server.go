// Package http exposes the ledger service as a JSON API.
package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"canteen/internal/cache"
	"canteen/internal/core"
	"canteen/internal/ledger"
	"canteen/internal/log"
)

// LedgerService is the set of ledger operations the API serves.
type LedgerService interface {
	Snapshot(ctx context.Context) (core.Ledger, error)
	Replace(ctx context.Context, l core.Ledger) (core.Ledger, error)
	AddExpense(ctx context.Context, e core.Entry) (core.Entry, error)
	DeleteExpense(ctx context.Context, id string) error
	AddFunds(ctx context.Context, amount core.Money, date core.Date) (core.Entry, error)
	StartMonth(ctx context.Context, month string) (core.Ledger, error)
	Summary(ctx context.Context, from, to *core.Date, label string) (ledger.SummaryResult, error)
}

var _ LedgerService = (*ledger.Service)(nil)

type Server struct {
	http.Server
	ledger      LedgerService
	logger      *log.Logger
	rateLimiter *rateLimiter
	metrics     *securityMetrics
	ready       func(ctx context.Context) error
	now         func() time.Time

	summaryCache *cache.LRUCache[ledger.SummaryResult]
	cacheManager *cache.Manager
	summaries    singleflight.Group
	// summaryMu orders cache fills against invalidations; summaryGen counts
	// invalidations.
	summaryMu  sync.Mutex
	summaryGen uint64

	shutdownOnce sync.Once
}

type Option func(*Server)

func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

// WithReadiness sets the check behind /readyz.
func WithReadiness(check func(ctx context.Context) error) Option {
	return func(s *Server) { s.ready = check }
}

// WithRateLimit sets how many mutating requests one client may make per
// window.
func WithRateLimit(limit int, window time.Duration) Option {
	return func(s *Server) { s.rateLimiter = newRateLimiter(limit, window) }
}

// WithClock overrides the time source used to resolve named periods.
func WithClock(now func() time.Time) Option { return func(s *Server) { s.now = now } }

func NewServer(addr string, svc LedgerService, opts ...Option) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		ledger:       svc,
		rateLimiter:  newRateLimiter(defaultRateLimit, defaultRateWindow),
		metrics:      &securityMetrics{},
		now:          time.Now,
		summaryCache: cache.NewLRUCache[ledger.SummaryResult](100, 5*time.Minute),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Wrap(nil, log.ComponentHTTP)
	}

	s.cacheManager = cache.NewManager(s.logger)
	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(time.Minute)
	go s.rateLimiter.startCleanup(5 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/data", s.withSecurityHeaders(s.handleGetData))
	mux.HandleFunc("POST /api/data", s.withSecurityHeaders(s.handleReplaceData))
	mux.HandleFunc("POST /api/expenses", s.withSecurityHeaders(s.handleAddExpense))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.withSecurityHeaders(s.handleDeleteExpense))
	mux.HandleFunc("POST /api/funds", s.withSecurityHeaders(s.handleAddFunds))
	mux.HandleFunc("POST /api/month", s.withSecurityHeaders(s.handleStartMonth))
	mux.HandleFunc("GET /api/summary", s.withSecurityHeaders(s.handleSummary))
	mux.HandleFunc("GET /api/export", s.withSecurityHeaders(s.handleExport))
	mux.HandleFunc("OPTIONS /api/", s.withSecurityHeaders(handlePreflight))

	return s
}

// Shutdown stops background cleanup and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) today() core.Date {
	y, m, d := s.now().Date()
	return core.NewDate(y, int(m), d)
}

// invalidateSummaries drops every cached summary after a mutation.
// Computations that started before the call do not repopulate the cache.
func (s *Server) invalidateSummaries() {
	s.summaryMu.Lock()
	defer s.summaryMu.Unlock()
	s.summaryGen++
	s.summaryCache.Clear()
}

func (s *Server) summary(ctx context.Context, from, to *core.Date, label string) (ledger.SummaryResult, error) {
	key := boundKey(from) + "|" + boundKey(to) + "|" + label
	if res, ok := s.summaryCache.Get(key); ok {
		return res, nil
	}

	s.summaryMu.Lock()
	gen := s.summaryGen
	s.summaryMu.Unlock()

	// Callers share one computation, so it must outlive any one caller.
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.summaries.Do(strconv.FormatUint(gen, 10)+"|"+key, func() (any, error) {
		res, err := s.ledger.Summary(shared, from, to, label)
		if err != nil {
			return nil, err
		}
		s.summaryMu.Lock()
		if s.summaryGen == gen {
			s.summaryCache.Set(key, res)
		}
		s.summaryMu.Unlock()
		return res, nil
	})
	if err != nil {
		return ledger.SummaryResult{}, err
	}
	return v.(ledger.SummaryResult), nil
}

func boundKey(d *core.Date) string {
	if d == nil {
		return "-"
	}
	return d.String()
}
