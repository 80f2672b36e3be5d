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

// --- Buy Command ---

type buyCmd struct {
	symbol   string
	quantity int64
	price    string
	memo     string
}

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "purchase shares to open or add to a position" }
func (*buyCmd) Usage() string {
	return `sbk buy -s <symbol> -q <quantity> [-p <price>] [-m <memo>]

  Purchases shares of a symbol. The gross amount plus commission is debited
  from the cash. Without -p the last market price is used.
`
}

func (c *buyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "s", "", "Ticker symbol")
	f.Int64Var(&c.quantity, "q", 0, "Number of shares")
	f.StringVar(&c.price, "p", "", "Price per share. Defaults to the last market price.")
	f.StringVar(&c.memo, "m", "", "An optional rationale or note for the trade")
}

func (c *buyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.symbol == "" || c.quantity <= 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		return a.trade(ctx, stockbook.Buy, c.symbol, c.quantity, c.price, c.memo)
	})
}

// --- Sell Command ---

type sellCmd struct {
	symbol   string
	quantity int64
	all      bool
	price    string
	memo     string
}

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "sell shares of a position and realize the profit" }
func (*sellCmd) Usage() string {
	return `sbk sell -s <symbol> (-q <quantity> | -all) [-p <price>] [-m <memo>]

  Sells shares of a held symbol. The gross amount minus commission is credited
  to the cash and the realized profit is recorded. Without -p the last market
  price is used.
`
}

func (c *sellCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "s", "", "Ticker symbol")
	f.Int64Var(&c.quantity, "q", 0, "Number of shares")
	f.BoolVar(&c.all, "all", false, "Sell the whole position")
	f.StringVar(&c.price, "p", "", "Price per share. Defaults to the last market price.")
	f.StringVar(&c.memo, "m", "", "An optional rationale or note for the trade")
}

func (c *sellCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.symbol == "" || (c.quantity <= 0) == !c.all {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		return a.trade(ctx, stockbook.Sell, c.symbol, c.quantity, c.price, c.memo)
	})
}

// trade executes a buy or a sell. A zero quantity sells the whole position.
func (a *app) trade(ctx context.Context, side stockbook.Side, symbol string, quantity int64, price, memo string) subcommands.ExitStatus {
	as, err := a.accounting(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	symbol, err = stockbook.NormalizeSymbol(symbol)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if quantity == 0 {
		pos, ok := as.Ledger.Position(symbol)
		if !ok {
			fmt.Fprintf(os.Stderr, "Error: no position in %s\n", symbol)
			return subcommands.ExitFailure
		}
		quantity = int64(pos.Quantity)
	}

	var unitPrice stockbook.Money
	if price != "" {
		unitPrice, err = stockbook.ParseMoney(price)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing price: %v\n", err)
			return subcommands.ExitUsageError
		}
	} else {
		p, err := a.gateway.LastPrice(ctx, symbol)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: no price for %s, use -p: %v\n", symbol, err)
			return subcommands.ExitFailure
		}
		unitPrice = stockbook.M(p)
	}

	var r stockbook.Receipt
	if side == stockbook.Buy {
		r, err = as.Buy(ctx, symbol, stockbook.Quantity(quantity), unitPrice, memo)
	} else {
		r, err = as.Sell(ctx, symbol, stockbook.Quantity(quantity), unitPrice, memo)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s rejected: %v\n", side, err)
		return exitStatus(err)
	}
	a.metrics.ObserveTrade(side)
	a.metrics.ObserveSave(r.SaveErr)
	printMarkdown(renderer.Receipt(r))
	return subcommands.ExitSuccess
}

// --- Deposit Command ---

type depositCmd struct {
	amount string
	memo   string
}

func (*depositCmd) Name() string     { return "deposit" }
func (*depositCmd) Synopsis() string { return "deposit cash into the account" }
func (*depositCmd) Usage() string {
	return `sbk deposit -a <amount> [-m <memo>]

  Adds cash to the account.
`
}

func (c *depositCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.amount, "a", "", "Amount to deposit")
	f.StringVar(&c.memo, "m", "", "An optional note")
}

func (c *depositCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return moveCash(ctx, f, c.amount, c.memo, (*stockbook.AccountingSystem).Deposit)
}

// --- Withdraw Command ---

type withdrawCmd struct {
	amount string
	memo   string
}

func (*withdrawCmd) Name() string     { return "withdraw" }
func (*withdrawCmd) Synopsis() string { return "withdraw cash from the account" }
func (*withdrawCmd) Usage() string {
	return `sbk withdraw -a <amount> [-m <memo>]

  Removes cash from the account. The amount cannot exceed the cash balance.
`
}

func (c *withdrawCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.amount, "a", "", "Amount to withdraw")
	f.StringVar(&c.memo, "m", "", "An optional note")
}

func (c *withdrawCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return moveCash(ctx, f, c.amount, c.memo, (*stockbook.AccountingSystem).Withdraw)
}

type cashMove func(*stockbook.AccountingSystem, context.Context, stockbook.Money, string) (stockbook.Receipt, error)

func moveCash(ctx context.Context, f *flag.FlagSet, amount, memo string, move cashMove) subcommands.ExitStatus {
	if amount == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	m, err := stockbook.ParseMoney(amount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing amount: %v\n", err)
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		as, err := a.accounting(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		r, err := move(as, ctx, m, memo)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitStatus(err)
		}
		a.metrics.ObserveSave(r.SaveErr)
		printMarkdown(renderer.Receipt(r))
		return subcommands.ExitSuccess
	})
}
