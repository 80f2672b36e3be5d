package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/etnz/stockbook"
	"github.com/etnz/stockbook/renderer"
	"github.com/google/subcommands"
)

type refreshCmd struct{}

func (*refreshCmd) Name() string { return "refresh" }
func (*refreshCmd) Synopsis() string {
	return "update the prices of all positions and record today's history"
}
func (*refreshCmd) Usage() string {
	return `sbk refresh

  Queries the market data providers for the last price and dividend yield of
  every held symbol, records the day's aggregates in the history and saves the
  ledger. A symbol whose price cannot be obtained keeps its previous price.
`
}

func (*refreshCmd) SetFlags(*flag.FlagSet) {}

func (*refreshCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		as, err := a.accounting(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		r := a.refresh(ctx, as)
		printMarkdown(renderer.RefreshMarkdown(r))
		if len(r.Updates) > 0 && r.Failed() == len(r.Updates) {
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	})
}

// refresh refreshes the prices and counts the outcome.
func (a *app) refresh(ctx context.Context, as *stockbook.AccountingSystem) stockbook.Refresh {
	start := time.Now()
	r := as.RefreshPrices(ctx)
	a.metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	a.metrics.ObserveRefresh(r)
	return r
}
