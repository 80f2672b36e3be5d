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

type archiveCmd struct{}

func (*archiveCmd) Name() string     { return "archive" }
func (*archiveCmd) Synopsis() string { return "list, create or restore ledger archives" }
func (*archiveCmd) Usage() string {
	return `sbk archive [list]
sbk archive create
sbk archive restore <name>

  Archives are timestamped copies of the ledger kept in the archive directory.
  One is created automatically at most once per archive interval when the
  ledger is saved; only the newest ones are kept.

  restore archives the current ledger first, then saves the restored ledger to
  every storage location.
`
}

func (*archiveCmd) SetFlags(*flag.FlagSet) {}

func (*archiveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	action := f.Arg(0)
	switch {
	case action == "" || action == "list" || action == "create":
	case action == "restore" && f.NArg() == 2:
	default:
		f.Usage()
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		archiver := a.manager.Archiver()
		switch action {
		case "create":
			name, err := archiveLedger(ctx, a)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return subcommands.ExitFailure
			}
			fmt.Printf("Created archive %s\n", name)
			return subcommands.ExitSuccess

		case "restore":
			restored, err := archiver.Restore(f.Arg(1))
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return subcommands.ExitFailure
			}
			name, err := archiveLedger(ctx, a)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: current ledger not archived, nothing restored: %v\n", err)
				return subcommands.ExitFailure
			}
			fmt.Printf("Archived the current ledger as %s\n", name)
			a.ledger = restored
			a.saved(a.manager.Save(ctx, restored))
			fmt.Printf("Restored %s\n", f.Arg(1))
			return subcommands.ExitSuccess

		default:
			archives, err := archiver.List()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return subcommands.ExitFailure
			}
			printMarkdown(renderer.ArchivesMarkdown(archives))
			return subcommands.ExitSuccess
		}
	})
}

// archiveLedger archives the current ledger unconditionally.
func archiveLedger(ctx context.Context, a *app) (string, error) {
	data, err := stockbook.MarshalLedger(a.load(ctx))
	if err != nil {
		return "", err
	}
	return a.manager.Archiver().Archive(data)
}
