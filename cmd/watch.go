package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/etnz/stockbook/date"
	"github.com/etnz/stockbook/renderer"
	"github.com/google/subcommands"
)

type watchCmd struct {
	interval time.Duration
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "refresh prices periodically and archive the ledger" }
func (*watchCmd) Usage() string {
	return `sbk watch [-i <interval>]

  Refreshes the prices every interval until interrupted, printing alerts as
  they are raised. The ledger is archived on its own timer.
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	f.DurationVar(&c.interval, "i", 0, "Refresh interval. Defaults to the configured watch interval.")
}

func (c *watchCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		interval := c.interval
		if interval <= 0 {
			interval = a.cfg.Watch.Interval
		}
		as, err := a.accounting(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}

		archived := make(chan error, 1)
		go func() {
			archived <- a.manager.Archiver().Run(ctx, a.manager.Locations()[0])
		}()

		a.log.Infow("watching", "interval", interval, "positions", as.Ledger.Len())
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			r := a.refresh(ctx, as)
			a.log.Infow("refreshed", "failed", r.Failed(), "total_assets", r.Snapshot.TotalAssets)
			for _, alert := range as.Ledger.Alerts() {
				a.log.Warnw("alert", "symbol", alert.Symbol, "kind", alert.Kind, "pct", alert.Pct)
			}
			if a.cfg.Metrics.File != "" {
				a.metrics.ObserveLedger(as.Ledger)
				if err := a.metrics.WriteToTextfile(a.cfg.Path(a.cfg.Metrics.File)); err != nil {
					a.log.Warnw("metrics not written", "error", err)
				}
			}
			select {
			case <-ctx.Done():
				if err := <-archived; err != nil && !errors.Is(err, context.Canceled) {
					a.log.Warnw("archiver stopped", "error", err)
				}
				printMarkdown(renderer.SummaryMarkdown(as.Ledger, nil, date.Today()))
				return subcommands.ExitSuccess
			case <-ticker.C:
			}
		}
	})
}
