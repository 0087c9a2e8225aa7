package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	ports "canteen/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// summaryHeader is written to row 1 of an empty summary sheet.
var summaryHeader = []any{"Period", "Generated", "Total", "Net spend", "Transactions", "Top category", "Top spender", "Elevated"}

// rowCacheTTL bounds how long the next free row is trusted without asking
// the API again. Other writers to the sheet may append in between.
const rowCacheTTL = 5 * time.Minute

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	summarySheet  string

	rowMu      sync.Mutex
	nextRow    int
	rowFetched time.Time
}

var _ ports.SummaryWriter = (*Client)(nil)

// NewFromEnv creates a client authenticated with a service account taken
// from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context, spreadsheetID, summarySheet string) (*Client, error) {
	credentialsJSON, err := credentialsFromEnv()
	if err != nil {
		return nil, err
	}
	return New(ctx, spreadsheetID, summarySheet,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
		goption.WithHTTPClient(newHTTPClientWithPooling()),
	)
}

// New creates a client with explicit API options.
func New(ctx context.Context, spreadsheetID, summarySheet string, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	summarySheet = strings.TrimSpace(summarySheet)
	if summarySheet == "" {
		summarySheet = "Summaries"
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, summarySheet: summarySheet}, nil
}

func credentialsFromEnv() ([]byte, error) {
	if inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); inline != "" {
		return []byte(inline), nil
	}
	path := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return data, nil
}

// newHTTPClientWithPooling returns an HTTP client with connection pooling
// and bounded timeouts for the Sheets API.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   5,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 60 * time.Second}
}

// AppendSummary writes row to the next free line of the summary sheet,
// adding the header first when the sheet is empty.
func (c *Client) AppendSummary(ctx context.Context, row ports.SummaryRow) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if row.Period == "" {
		return "", errors.New("summary row without period")
	}

	c.rowMu.Lock()
	defer c.rowMu.Unlock()

	next, err := c.nextFreeRow(ctx)
	if err != nil {
		return "", err
	}

	values := [][]any{row.Values()}
	if next == 1 {
		values = [][]any{summaryHeader, row.Values()}
	}
	last := next + len(values) - 1

	rng := fmt.Sprintf("%s!A%d:H%d", c.summarySheet, next, last)
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		c.rowFetched = time.Time{}
		return "", fmt.Errorf("write summary row to %s: %w", c.summarySheet, err)
	}

	c.nextRow = last + 1
	ref := fmt.Sprintf("%s!A%d:H%d", c.summarySheet, last, last)
	slog.InfoContext(ctx, "Summary appended to sheet", "period", row.Period, "ref", ref)
	return ref, nil
}

// nextFreeRow returns the first empty row in column A. Callers hold rowMu.
func (c *Client) nextFreeRow(ctx context.Context) (int, error) {
	if c.nextRow > 0 && time.Since(c.rowFetched) < rowCacheTTL {
		return c.nextRow, nil
	}
	rng := fmt.Sprintf("%s!A:A", c.summarySheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", rng, err)
	}
	c.nextRow = len(resp.Values) + 1
	c.rowFetched = time.Now()
	return c.nextRow, nil
}

// invalidateRowCache forces the next append to re-read the sheet.
func (c *Client) invalidateRowCache() {
	c.rowMu.Lock()
	defer c.rowMu.Unlock()
	c.nextRow = 0
	c.rowFetched = time.Time{}
}
