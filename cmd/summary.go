package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/stockbook/date"
	"github.com/etnz/stockbook/renderer"
	"github.com/google/subcommands"
)

// summaryCmd holds the flags for the 'summary' subcommand.
type summaryCmd struct {
	update bool
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "display a short summary of the portfolio" }
func (*summaryCmd) Usage() string {
	return `sbk summary [-u]

  Displays the total assets, their change since the last recorded day and
  the total profit.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.update, "u", false, "refresh the prices first")
}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		as, err := a.accounting(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		if c.update {
			a.refresh(ctx, as)
		}
		h, err := a.history.Load(ctx)
		if err != nil {
			a.log.Warnw("history not loaded", "error", err)
			h = nil
		}
		printMarkdown(renderer.SummaryMarkdown(as.Ledger, h, date.Today()))
		return subcommands.ExitSuccess
	})
}
