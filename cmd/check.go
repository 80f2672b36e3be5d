package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/stockbook/renderer"
	"github.com/google/subcommands"
)

type checkCmd struct {
	repair bool
}

func (*checkCmd) Name() string     { return "check" }
func (*checkCmd) Synopsis() string { return "verify every storage location of the ledger" }
func (*checkCmd) Usage() string {
	return `sbk check [-repair]

  Reads and validates the ledger in every storage location, and reports where
  it would be recovered from. With -repair, the recovered ledger is written
  back to every location.
`
}

func (c *checkCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.repair, "repair", false, "write the recovered ledger back to every location")
}

func (c *checkCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		printMarkdown(renderer.StatusMarkdown(a.manager.Inspect(ctx)))

		l, rec := a.manager.Load(ctx)
		a.metrics.ObserveRecovery(rec)
		a.ledger = l
		printMarkdown(renderer.RecoveryMarkdown(rec))

		if rec.Failed && !rec.Fresh {
			return subcommands.ExitFailure
		}
		if c.repair && rec.Degraded {
			if err := a.manager.Save(ctx, l); err != nil {
				a.saved(err)
				return subcommands.ExitFailure
			}
			fmt.Fprintf(os.Stdout, "Repaired every location from %s\n", rec.Source)
		}
		return subcommands.ExitSuccess
	})
}
