package cmd

import (
	"context"
	"flag"

	"github.com/etnz/stockbook/renderer"
	"github.com/google/subcommands"
)

// gainsCmd holds the flags for the 'gains' subcommand.
type gainsCmd struct{}

func (*gainsCmd) Name() string     { return "gains" }
func (*gainsCmd) Synopsis() string { return "realized profit and loss analysis" }
func (*gainsCmd) Usage() string {
	return `sbk gains

  Displays the realized profit of every sell, the best and worst trades and
  the commission paid.
`
}

func (*gainsCmd) SetFlags(*flag.FlagSet) {}

func (*gainsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		printMarkdown(renderer.GainsMarkdown(a.load(ctx)))
		return subcommands.ExitSuccess
	})
}

// cashCmd lists the cash flows.
type cashCmd struct{}

func (*cashCmd) Name() string     { return "cash" }
func (*cashCmd) Synopsis() string { return "list deposits and withdrawals" }
func (*cashCmd) Usage() string {
	return `sbk cash

  Lists the deposits and withdrawals and the resulting cash balance.
`
}

func (*cashCmd) SetFlags(*flag.FlagSet) {}

func (*cashCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		printMarkdown(renderer.CashFlowsMarkdown(a.load(ctx)))
		return subcommands.ExitSuccess
	})
}
