// Package cmd implements the sbk command line application to keep a stock
// portfolio ledger.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/stockbook"
	"github.com/etnz/stockbook/config"
	"github.com/etnz/stockbook/history"
	"github.com/etnz/stockbook/logger"
	"github.com/etnz/stockbook/metrics"
	"github.com/etnz/stockbook/renderer"
	"github.com/etnz/stockbook/storage"
	"github.com/etnz/stockbook/storage/postgres"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&buyCmd{}, "trading")
	c.Register(&sellCmd{}, "trading")
	c.Register(&depositCmd{}, "trading")
	c.Register(&withdrawCmd{}, "trading")
	c.Register(&refreshCmd{}, "trading")

	c.Register(&holdingCmd{}, "reports")
	c.Register(&txCmd{}, "reports")
	c.Register(&gainsCmd{}, "reports")
	c.Register(&cashCmd{}, "reports")
	c.Register(&historyCmd{}, "reports")
	c.Register(&summaryCmd{}, "reports")

	c.Register(&memoCmd{}, "notes")
	c.Register(&targetCmd{}, "notes")

	c.Register(&exportCmd{}, "storage")
	c.Register(&archiveCmd{}, "storage")
	c.Register(&checkCmd{}, "storage")

	c.Register(&watchCmd{}, "")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "", "Path to the YAML configuration file. Defaults to stockbook.yaml in the data directory, if any.")
var envFile = flag.String("env-file", ".env", "Path to a .env file defining STOCKBOOK_* variables")
var dataDir = flag.String("data-dir", "", "Directory holding the ledger, its backups, archives and history")
var provider = flag.String("provider", "", "Comma separated market data providers tried in order (eodhd, alpaca, jsonquote)")
var commission = flag.Float64("commission", -1, "Commission rate applied to trades, e.g. 0.001 for 0.1%")
var Verbose = flag.Bool("verbose", false, "Log debug messages to stderr")
var metricsFile = flag.String("metrics-file", "", "Write Prometheus metrics to this node exporter textfile")

// ConfigFileName is looked up in the data directory when -config is not set.
const ConfigFileName = "stockbook.yaml"

// loadConfig loads the configuration and applies the global flags.
func loadConfig() (*config.Config, error) {
	path := *configFile
	if path == "" {
		dir := *dataDir
		if dir == "" {
			dir = config.DefaultDataDir()
		}
		if p := filepath.Join(dir, ConfigFileName); fileExists(p) {
			path = p
		}
	}
	cfg, err := config.Load(path, *envFile)
	if err != nil {
		return nil, err
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *provider != "" {
		cfg.Market.Provider = *provider
	}
	if *commission >= 0 {
		cfg.CommissionRate = *commission
	}
	if *metricsFile != "" {
		cfg.Metrics.File = *metricsFile
	}
	if *Verbose {
		cfg.Log.Level = "debug"
	}
	if cfg.Log.File != "" {
		cfg.Log.File = cfg.Path(cfg.Log.File)
	}
	return cfg, cfg.Validate()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// app holds everything a command needs, wired from the configuration.
type app struct {
	cfg      *config.Config
	log      *zap.SugaredLogger
	metrics  *metrics.Metrics
	manager  *storage.Manager
	history  *history.FileRecorder
	recorder stockbook.DailyRecorder
	gateway  stockbook.Gateway
	ledger   *stockbook.Ledger // last loaded

	closers []func() error
}

// openApp wires the application. Optional remote services that cannot be
// reached are logged and left out.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	log, logCloser, err := logger.New(cfg.Log, os.Stderr)
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:     cfg,
		log:     log,
		metrics: metrics.New(""),
		closers: []func() error{logCloser.Close},
	}
	for _, w := range cfg.Warnings {
		log.Warn(w)
	}

	locations := storage.DefaultLocations(cfg.DataDir)
	if len(cfg.Storage.Locations) > 0 {
		locations = locations[:0]
		for _, p := range cfg.Storage.Locations {
			locations = append(locations, storage.FileLocation{Path: cfg.Path(p)})
		}
	}
	if cfg.Storage.PostgresDSN != "" {
		if loc, err := a.openPostgres(ctx); err != nil {
			log.Warnw("remote ledger location disabled", "error", err)
		} else {
			locations = append(locations, loc)
		}
	}
	a.manager = storage.NewManager(locations,
		storage.WithArchiver(&storage.Archiver{
			Dir:      filepath.Join(cfg.DataDir, storage.ArchiveDir),
			Interval: cfg.Storage.ArchiveInterval,
			Keep:     cfg.Storage.ArchiveKeep,
			Log:      log,
		}),
		storage.WithCurrency(cfg.Currency),
		storage.WithLogger(log),
	)

	a.history = history.NewFileRecorder(cfg.Path(cfg.History.File), log)
	a.recorder = a.history
	if cfg.History.ClickHouseDSN != "" {
		if ch, err := a.openClickHouse(ctx); err != nil {
			log.Warnw("history mirror disabled", "error", err)
		} else {
			a.recorder = &history.Tee{Primary: a.history, Mirrors: []stockbook.DailyRecorder{ch}, Log: log}
		}
	}

	a.gateway, err = a.newGateway()
	if err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) openPostgres(ctx context.Context) (storage.Location, error) {
	pool, err := postgres.NewPool(ctx, a.cfg.Storage.PostgresDSN)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error { pool.Close(); return nil })
	if err := pool.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return postgres.NewLocation(pool, a.cfg.Storage.PostgresKey), nil
}

func (a *app) openClickHouse(ctx context.Context) (*history.ClickHouse, error) {
	conn, err := history.NewConn(ctx, a.cfg.History.ClickHouseDSN)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, conn.Close)
	ch := history.NewClickHouse(conn, a.cfg.Storage.PostgresKey)
	if err := ch.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return ch, nil
}

// close writes the metrics and releases the resources, last opened first.
func (a *app) close() {
	if a.ledger != nil {
		a.metrics.ObserveLedger(a.ledger)
	}
	if a.cfg.Metrics.File != "" {
		if err := a.metrics.WriteToTextfile(a.cfg.Path(a.cfg.Metrics.File)); err != nil {
			a.log.Warnw("metrics not written", "error", err)
		}
	}
	a.log.Sync()
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// load loads the ledger, reporting any recovery on stderr.
func (a *app) load(ctx context.Context) *stockbook.Ledger {
	l, rec := a.manager.Load(ctx)
	a.metrics.ObserveRecovery(rec)
	a.ledger = l
	if l.Currency() == "" {
		l.SetCurrency(a.cfg.Currency)
	}
	switch {
	case rec.Fresh:
		a.log.Infow("starting a new ledger", "dir", a.cfg.DataDir)
	case rec.Degraded || rec.Failed:
		a.log.Warnw("ledger recovered", "kind", rec.Kind(), "source", rec.Source)
		fmt.Fprint(os.Stderr, renderer.RecoveryMarkdown(rec))
	}
	return l
}

// accounting loads the ledger and returns an accounting system saving
// through the storage manager.
func (a *app) accounting(ctx context.Context) (*stockbook.AccountingSystem, error) {
	return stockbook.NewAccountingSystem(a.load(ctx), a.gateway,
		stockbook.WithPersister(a.manager),
		stockbook.WithRecorder(a.recorder),
		stockbook.WithCommissionRate(decimal.NewFromFloat(a.cfg.CommissionRate)),
		stockbook.WithLogger(a.log),
	)
}

// saved reports a save error as a warning, since the mutation itself has been applied.
func (a *app) saved(err error) {
	a.metrics.ObserveSave(err)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

// withApp opens the application, runs f and closes it. Opening errors are
// reported as failures.
func withApp(ctx context.Context, f func(*app) subcommands.ExitStatus) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()
	return f(a)
}

// printMarkdown renders markdown for the terminal, or prints it as is when
// it cannot be rendered.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(0))
	if err != nil {
		fmt.Print(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

// exitStatus maps an operation error to an exit status.
func exitStatus(err error) subcommands.ExitStatus {
	switch {
	case err == nil:
		return subcommands.ExitSuccess
	case errors.Is(err, stockbook.ErrInvalidOrder):
		return subcommands.ExitUsageError
	default:
		return subcommands.ExitFailure
	}
}
