package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/etnz/stockbook"
	"github.com/etnz/stockbook/history"
	"github.com/etnz/stockbook/renderer"
	"github.com/google/subcommands"
)

type exportCmd struct {
	format string
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export the ledger as CSV, JSON or HTML" }
func (*exportCmd) Usage() string {
	return `sbk export [-format csv|json|html] [-o <path>]

  Exports the ledger without modifying it.

  csv   writes positions.csv, transactions.csv, realized.csv and history.csv
        in the -o directory (default "export").
  json  writes the canonical ledger snapshot to the -o file, or stdout.
  html  writes the holding, gains and transactions reports to the -o file,
        or stdout.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "csv", "Export format: csv, json or html")
	f.StringVar(&c.output, "o", "", "Output directory for csv, output file for json and html")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	switch c.format {
	case "csv", "json", "html":
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown export format %q\n", c.format)
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		l := a.load(ctx)
		var err error
		switch c.format {
		case "csv":
			dir := c.output
			if dir == "" {
				dir = "export"
			}
			var h *history.History
			if h, err = a.history.Load(ctx); err == nil {
				err = stockbook.ExportCSV(dir, l, h)
			}
			if err == nil {
				fmt.Printf("Exported the ledger to %s\n", dir)
			}
		case "json":
			err = c.write(func(w io.Writer) error { return stockbook.EncodeLedger(w, l) })
		case "html":
			md := strings.Join([]string{
				renderer.HoldingMarkdown(l),
				renderer.GainsMarkdown(l),
				renderer.TransactionsMarkdown(l, ""),
				renderer.CashFlowsMarkdown(l),
			}, "\n")
			var html string
			if html, err = renderer.HTML(md); err == nil {
				err = c.write(func(w io.Writer) error {
					_, err := io.WriteString(w, html)
					return err
				})
			}
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	})
}

// write writes to the output file, or to stdout.
func (c *exportCmd) write(write func(io.Writer) error) error {
	if c.output == "" {
		return write(os.Stdout)
	}
	f, err := os.Create(c.output)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
