package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"canteen/internal/analytics"
	"canteen/internal/backend"
	"canteen/internal/cli"
	"canteen/internal/config"
	"canteen/internal/core"
	"canteen/internal/ledger"
	"canteen/internal/log"
	"canteen/internal/store"
)

type options struct {
	file     string
	db       string
	from     string
	to       string
	period   string
	label    string
	rules    string
	currency string

	now func() time.Time
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{now: time.Now}

	root := &cobra.Command{
		Use:          "canteen-report",
		Short:        "Shared ledger reports",
		Long:         "Summarize the shared grocery ledger for a date range or a named period.",
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			cli.LoadEnvFile()
		},
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringVar(&opts.file, "file", "", "read the ledger from an exported JSON file")
	pf.StringVar(&opts.db, "db", "", "read the ledger from a SQLite database")
	pf.StringVar(&opts.from, "from", "", "first day to include (YYYY-MM-DD)")
	pf.StringVar(&opts.to, "to", "", "last day to include (YYYY-MM-DD)")
	pf.StringVarP(&opts.period, "period", "p", ledger.PeriodThisMonth, "named period: this-month, last-month, this-week, all")
	pf.StringVar(&opts.label, "label", "", "period label used in the report header")
	pf.StringVar(&opts.rules, "rules", "", "TOML category rules file (default: CATEGORY_RULES_FILE)")
	pf.StringVar(&opts.currency, "currency", "", "currency symbol (default: CURRENCY_SYMBOL)")

	root.AddCommand(
		newSummaryCmd(opts),
		newBreakdownCmd(opts),
		newCategorizeCmd(opts),
	)
	return root
}

// backendConfig picks the ledger source: an explicit file or database
// flag, otherwise the configured DATA_BACKEND.
func (o *options) backendConfig() (backend.Config, error) {
	switch {
	case o.file != "" && o.db != "":
		return backend.Config{}, fmt.Errorf("--file and --db are mutually exclusive")
	case o.file != "":
		return backend.Config{Type: backend.FileBackend, DataFile: o.file}, nil
	case o.db != "":
		return backend.Config{Type: backend.SQLiteBackend, SQLiteDBPath: o.db}, nil
	}
	cfg := config.Load()
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return backend.Config{}, err
	}
	// Reports never publish ledger events.
	bc.AMQPURL = ""
	return bc, nil
}

func (o *options) loadLedger(ctx context.Context) (core.Ledger, error) {
	bc, err := o.backendConfig()
	if err != nil {
		return core.Ledger{}, err
	}
	res, err := backend.NewFactory(log.Wrap(nil, log.ComponentReport)).CreateBackend(ctx, bc)
	if err != nil {
		return core.Ledger{}, err
	}
	if res.Cleanup != nil {
		defer res.Cleanup()
	}
	l, err := res.Store.Load(ctx)
	if errors.Is(err, store.ErrNoLedger) {
		return core.Ledger{}, nil
	}
	if err != nil {
		return core.Ledger{}, fmt.Errorf("load ledger: %w", err)
	}
	return l, nil
}

func (o *options) categorizer() (*analytics.Categorizer, error) {
	path := o.rules
	if path == "" {
		path = config.Load().CategoryRulesFile
	}
	return cli.LoadCategorizer(path)
}

func (o *options) currencySymbol() string {
	if o.currency != "" {
		return o.currency
	}
	return cli.NewReporter(config.Load()).Currency
}

// bounds resolves the date range. Explicit --from/--to win over --period.
func (o *options) bounds() (from, to *core.Date, label string, err error) {
	if o.from != "" || o.to != "" {
		if from, err = ledger.ParseBound(o.from); err != nil {
			return nil, nil, "", err
		}
		if to, err = ledger.ParseBound(o.to); err != nil {
			return nil, nil, "", err
		}
		label = ledger.RangeLabel(from, to)
	} else {
		y, m, d := o.now().Date()
		from, to, label, err = ledger.ResolvePeriod(o.period, core.NewDate(y, int(m), d))
		if err != nil {
			return nil, nil, "", err
		}
	}
	if o.label != "" {
		label = o.label
	}
	return from, to, label, nil
}

// summarize loads the ledger and aggregates the selected range.
func (o *options) summarize(ctx context.Context) (analytics.Summary, string, error) {
	from, to, label, err := o.bounds()
	if err != nil {
		return analytics.Summary{}, "", err
	}
	c, err := o.categorizer()
	if err != nil {
		return analytics.Summary{}, "", err
	}
	l, err := o.loadLedger(ctx)
	if err != nil {
		return analytics.Summary{}, "", err
	}
	agg := analytics.NewAggregator(c)
	return agg.Summarize(analytics.FilterByRange(l.Entries, from, to)), label, nil
}

func newSummaryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print the text summary for a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, label, err := opts.summarize(cmd.Context())
			if err != nil {
				return err
			}
			r := analytics.Reporter{Currency: opts.currencySymbol()}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), r.Render(s, label))
			return err
		},
	}
}

func newBreakdownCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "breakdown",
		Short: "Show per-category and per-spender tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, label, err := opts.summarize(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), renderBreakdown(s, label, opts.currencySymbol()))
			return err
		},
	}
}

func newCategorizeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "categorize <description>...",
		Short: "Show which category a description falls into",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.categorizer()
			if err != nil {
				return err
			}
			text := strings.Join(args, " ")
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", c.Guess(text), analytics.Normalize(text))
			return err
		},
	}
}
