package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/stockbook"
	"github.com/etnz/stockbook/renderer"
	"github.com/google/subcommands"
)

type txCmd struct {
	symbol string
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "list all transactions in the ledger" }
func (*txCmd) Usage() string {
	return `sbk tx [-s <symbol>]

  Lists the trades of the ledger, oldest first.
`
}

func (p *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.symbol, "s", "", "Only list the trades of this symbol")
}

func (p *txCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		symbol := p.symbol
		if symbol != "" {
			var err error
			if symbol, err = stockbook.NormalizeSymbol(symbol); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return subcommands.ExitUsageError
			}
		}
		printMarkdown(renderer.TransactionsMarkdown(a.load(ctx), symbol))
		return subcommands.ExitSuccess
	})
}
