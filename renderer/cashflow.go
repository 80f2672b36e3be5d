package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/stockbook"
)

// CashFlowsMarkdown renders the deposits and withdrawals.
func CashFlowsMarkdown(l *stockbook.Ledger) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Cash Flows\n\n")
	var in, out stockbook.Money
	n := 0
	for f := range l.CashFlows() {
		if n == 0 {
			fmt.Fprintln(&b, "| Date | Amount | Memo |")
			fmt.Fprintln(&b, "|:---|---:|:---|")
		}
		n++
		if f.Amount.IsNegative() {
			out = out.Sub(f.Amount)
		} else {
			in = in.Add(f.Amount)
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", stamp(f.Timestamp), f.Amount.SignedString(), f.Memo)
	}
	if n == 0 {
		fmt.Fprintln(&b, "No deposit or withdrawal.")
		return b.String()
	}
	fmt.Fprintf(&b, "\nDeposited %s, withdrew %s, cash is %s.\n", in, out, l.Cash())
	return b.String()
}
