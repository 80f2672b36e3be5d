package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/etnz/stockbook"
)

// GainsMarkdown renders the realized profit and loss of every sell, with the
// best and worst trades.
func GainsMarkdown(l *stockbook.Ledger) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Realized Gains\n\n")

	var total, commission stockbook.Money
	n := 0
	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprintln(w, "| Date | Symbol | Quantity | Buy Price | Sell Price | Profit | Return |")
		fmt.Fprintln(w, "|:---|:---|---:|---:|---:|---:|---:|")
		for r := range l.Realized() {
			n++
			total = total.Add(r.Profit)
			commission = commission.Add(r.Commission)
			fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %s | %s |\n",
				stamp(r.Timestamp), r.Symbol, r.Quantity, r.BuyPrice.Round(), r.SellPrice,
				r.Profit.SignedString(), stockbook.Pct(r.Pct).SignedString())
		}
		fmt.Fprintf(w, "| **Total** | | | | | **%s** | |\n\n", total.SignedString())
		return n > 0
	})
	if n == 0 {
		fmt.Fprint(&b, "No realized trade.\n\n")
	}

	if best, ok := l.Best(); ok {
		fmt.Fprintf(&b, "Best trade: %s\n\n", trade(best))
	}
	if worst, ok := l.Worst(); ok {
		fmt.Fprintf(&b, "Worst trade: %s\n\n", trade(worst))
	}
	fmt.Fprintf(&b, "Commission paid on sells: %s, on all trades: %s\n", commission, l.TotalCommission())
	return b.String()
}

func trade(r stockbook.RealizedTrade) string {
	return fmt.Sprintf("%s on %s, %s (%s)", r.Symbol, r.Timestamp.Local().Format("2006-01-02"),
		stockbook.Pct(r.Pct).SignedString(), r.Profit.SignedString())
}
