package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/stockbook/renderer"
	"github.com/google/subcommands"
)

// holdingCmd holds the flags for the 'holding' subcommand.
type holdingCmd struct {
	update bool
}

func (*holdingCmd) Name() string     { return "holding" }
func (*holdingCmd) Synopsis() string { return "display the positions, cash and alerts" }
func (*holdingCmd) Usage() string {
	return `sbk holding [-u]

  Displays every position with its cost basis, last price and unrealized
  profit, the cash, the totals and the raised alerts.
`
}

func (c *holdingCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.update, "u", false, "refresh the prices before displaying the holding")
}

func (c *holdingCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		as, err := a.accounting(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		if c.update {
			if r := a.refresh(ctx, as); r.Failed() > 0 || r.SaveErr != nil {
				printMarkdown(renderer.RefreshMarkdown(r))
			}
		}
		printMarkdown(renderer.HoldingMarkdown(as.Ledger))
		return subcommands.ExitSuccess
	})
}
