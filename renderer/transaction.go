package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/etnz/stockbook"
)

// Transaction renders a transaction to a string.
func Transaction(tx stockbook.Transaction) string {
	switch tx.Side {
	case stockbook.Buy:
		return fmt.Sprintf("Bought %s %s at %s for %s (commission %s)", tx.Quantity, tx.Symbol, tx.UnitPrice, tx.Net.Round(), tx.Commission)
	case stockbook.Sell:
		return fmt.Sprintf("Sold %s %s at %s for %s (commission %s)", tx.Quantity, tx.Symbol, tx.UnitPrice, tx.Net.Round(), tx.Commission)
	default:
		return fmt.Sprintf("%s %s", tx.Side, tx.Symbol)
	}
}

// Receipt renders the outcome of a mutation as a short markdown paragraph.
func Receipt(r stockbook.Receipt) string {
	var b strings.Builder
	switch {
	case r.CashFlow != nil:
		if r.CashFlow.Amount.IsNegative() {
			fmt.Fprintf(&b, "Withdrew %s", r.CashFlow.Amount.Neg())
		} else {
			fmt.Fprintf(&b, "Deposited %s", r.CashFlow.Amount)
		}
	default:
		b.WriteString(Transaction(r.Transaction))
	}
	b.WriteString(".\n")
	if r.Realized != nil {
		fmt.Fprintf(&b, "\nRealized %s (%s).\n", r.Realized.Profit.SignedString(), stockbook.Pct(r.Realized.Pct).SignedString())
	}
	if r.SaveErr != nil {
		fmt.Fprintf(&b, "\n**Warning:** %v\n", r.SaveErr)
	}
	return b.String()
}

// TransactionsMarkdown renders the trade log, newest last. When symbol is
// not empty only its trades are listed.
func TransactionsMarkdown(l *stockbook.Ledger, symbol string) string {
	var b strings.Builder
	if symbol == "" {
		fmt.Fprint(&b, "# Transactions\n\n")
	} else {
		fmt.Fprintf(&b, "# Transactions of %s\n\n", symbol)
	}
	empty := true
	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprintln(w, "| Date | Side | Symbol | Quantity | Price | Gross | Commission | Net |")
		fmt.Fprintln(w, "|:---|:---|:---|---:|---:|---:|---:|---:|")
		for tx := range l.Transactions() {
			if symbol != "" && tx.Symbol != symbol {
				continue
			}
			empty = false
			fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
				stamp(tx.Timestamp), tx.Side, tx.Symbol, tx.Quantity,
				tx.UnitPrice, tx.Gross.Round(), tx.Commission, tx.Net.Round())
		}
		return !empty
	})
	if empty {
		fmt.Fprintln(&b, "No transaction.")
	}
	return b.String()
}
