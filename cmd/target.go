package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/stockbook"
	"github.com/etnz/stockbook/renderer"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type targetCmd struct {
	symbol string
	target string
	stop   string
	take   string
	clear  bool
}

func (*targetCmd) Name() string     { return "target" }
func (*targetCmd) Synopsis() string { return "set the alert thresholds of a symbol" }
func (*targetCmd) Usage() string {
	return `sbk target -s <symbol> [-target <pct>] [-stop <pct>] [-take <pct>] [-clear]
sbk target

  Sets the return thresholds, in percent of the cost basis, that raise an alert
  in the holding report. Levels not given are kept. Without -s, lists the
  thresholds of every symbol.
`
}

func (c *targetCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "s", "", "Ticker symbol")
	f.StringVar(&c.target, "target", "", "Target return in percent")
	f.StringVar(&c.stop, "stop", "", "Stop loss in percent below the cost basis, e.g. 8")
	f.StringVar(&c.take, "take", "", "Take profit in percent above the cost basis")
	f.BoolVar(&c.clear, "clear", false, "Remove all thresholds of the symbol")
}

func (c *targetCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.symbol == "" && (c.clear || c.target != "" || c.stop != "" || c.take != "") {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		as, err := a.accounting(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		if c.symbol == "" {
			printMarkdown(renderer.ThresholdsMarkdown(as.Ledger))
			return subcommands.ExitSuccess
		}
		symbol, err := stockbook.NormalizeSymbol(c.symbol)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}

		var r stockbook.Receipt
		if c.clear {
			r, err = as.ClearThresholds(ctx, symbol)
		} else {
			t, _ := as.Ledger.Thresholds(symbol)
			for _, level := range []struct {
				flag string
				dst  *decimal.Decimal
			}{{c.target, &t.TargetReturn}, {c.stop, &t.StopLoss}, {c.take, &t.TakeProfit}} {
				if level.flag == "" {
					continue
				}
				d, perr := decimal.NewFromString(strings.TrimSuffix(level.flag, "%"))
				if perr != nil || d.IsNegative() {
					fmt.Fprintf(os.Stderr, "Error: invalid percentage %q\n", level.flag)
					return subcommands.ExitUsageError
				}
				*level.dst = d
			}
			r, err = as.SetThresholds(ctx, symbol, t)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitStatus(err)
		}
		a.saved(r.SaveErr)
		printMarkdown(renderer.ThresholdsMarkdown(as.Ledger))
		return subcommands.ExitSuccess
	})
}
