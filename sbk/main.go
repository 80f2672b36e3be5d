// Command sbk keeps a personal stock portfolio ledger.
//
// Unknown subcommands are looked up in PATH as sbk-<subcommand> extensions.
// Shell completion is installed with COMP_INSTALL=1 sbk.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/stockbook/cmd"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	completion(commander).Complete("sbk")

	flag.Parse()
	if name := flag.Arg(0); name != "" && !registered(commander, name) {
		if found, code := cmd.RunExtension(name, flag.Args()[1:]); found {
			os.Exit(code)
		}
	}
	os.Exit(int(commander.Execute(context.Background())))
}

func registered(c *subcommands.Commander, name string) bool {
	found := false
	c.VisitCommands(func(_ *subcommands.CommandGroup, sc subcommands.Command) {
		if sc.Name() == name {
			found = true
		}
	})
	return found
}

// completion describes the commands and their flags to the shell.
func completion(c *subcommands.Commander) *complete.Command {
	root := &complete.Command{
		Sub:   map[string]*complete.Command{},
		Flags: predictors(flag.CommandLine),
	}
	c.VisitCommands(func(_ *subcommands.CommandGroup, sc subcommands.Command) {
		fs := flag.NewFlagSet(sc.Name(), flag.ContinueOnError)
		sc.SetFlags(fs)
		sub := &complete.Command{Flags: predictors(fs)}
		if sc.Name() == "archive" {
			sub.Args = predict.Set{"list", "create", "restore"}
		}
		root.Sub[sc.Name()] = sub
	})
	return root
}

func predictors(fs *flag.FlagSet) map[string]complete.Predictor {
	flags := map[string]complete.Predictor{}
	fs.VisitAll(func(f *flag.Flag) {
		if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
			flags[f.Name] = predict.Nothing
			return
		}
		switch f.Name {
		case "config", "env-file", "metrics-file":
			flags[f.Name] = predict.Files("*")
		case "data-dir", "o":
			flags[f.Name] = predict.Dirs("*")
		case "format":
			flags[f.Name] = predict.Set{"csv", "json", "html"}
		case "provider":
			flags[f.Name] = predict.Set{"eodhd", "alpaca", "jsonquote"}
		case "p":
			if fs.Name() == "history" {
				flags[f.Name] = predict.Set{"day", "week", "month", "quarter", "year"}
				return
			}
			flags[f.Name] = predict.Something
		default:
			flags[f.Name] = predict.Something
		}
	})
	return flags
}
