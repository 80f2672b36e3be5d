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

// historyCmd holds the flags for the 'history' subcommand.
type historyCmd struct {
	period string
	start  string
	end    string
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "display the recorded daily totals" }
func (*historyCmd) Usage() string {
	return `sbk history [-p <period> | -s <start_date>] [-d <end_date>]

  Displays the daily totals recorded by the refresh command. Without any flag
  the whole history is displayed.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.period, "p", "", "Predefined period (day, week, month, quarter, year)")
	f.StringVar(&c.start, "s", "", "The start date for a custom range. Overrides -p.")
	f.StringVar(&c.end, "d", "", "The end date for the range. Defaults to today.")
}

func (c *historyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	r, err := parseRange(c.period, c.start, c.end)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		h, err := a.history.Load(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading history: %v\n", err)
			return subcommands.ExitFailure
		}
		printMarkdown(renderer.HistoryMarkdown(h, r))
		return subcommands.ExitSuccess
	})
}

// parseRange returns the range selected by the flags, or the zero range when
// none is set.
func parseRange(period, start, end string) (date.Range, error) {
	if period == "" && start == "" && end == "" {
		return date.Range{}, nil
	}
	to := date.Today()
	if end != "" {
		d, err := date.Parse(end)
		if err != nil {
			return date.Range{}, fmt.Errorf("parsing end date: %w", err)
		}
		to = d
	}
	if start != "" {
		from, err := date.Parse(start)
		if err != nil {
			return date.Range{}, fmt.Errorf("parsing start date: %w", err)
		}
		if from.After(to) {
			return date.Range{}, fmt.Errorf("start date %s is after end date %s", from, to)
		}
		return date.Range{From: from, To: to}, nil
	}
	if period == "" {
		return date.Range{From: date.New(1, 1, 1), To: to}, nil
	}
	p, err := date.ParsePeriod(period)
	if err != nil {
		return date.Range{}, err
	}
	return date.NewRange(to, p), nil
}
