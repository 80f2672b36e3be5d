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

type memoCmd struct {
	symbol string
	text   string
}

func (*memoCmd) Name() string     { return "memo" }
func (*memoCmd) Synopsis() string { return "attach a note to a symbol, or list the notes" }
func (*memoCmd) Usage() string {
	return `sbk memo -s <symbol> -m <text>
sbk memo [-s <symbol>]

  Attaches a free note to a symbol. Without -m, lists the notes of the symbol,
  or of every symbol. Notes given with buy and sell are listed too.
`
}

func (c *memoCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "s", "", "Ticker symbol")
	f.StringVar(&c.text, "m", "", "The note to attach")
}

func (c *memoCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.text != "" && c.symbol == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		as, err := a.accounting(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		symbol := c.symbol
		if symbol != "" {
			if symbol, err = stockbook.NormalizeSymbol(symbol); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return subcommands.ExitUsageError
			}
		}
		if c.text == "" {
			printMarkdown(renderer.MemosMarkdown(as.Ledger, symbol))
			return subcommands.ExitSuccess
		}
		r, err := as.AddMemo(ctx, symbol, c.text)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitStatus(err)
		}
		a.saved(r.SaveErr)
		fmt.Printf("Memo attached to %s\n", symbol)
		return subcommands.ExitSuccess
	})
}
