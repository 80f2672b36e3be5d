package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/stockbook"
	"github.com/shopspring/decimal"
)

// ThresholdsMarkdown lists the thresholds of every symbol.
func ThresholdsMarkdown(l *stockbook.Ledger) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Thresholds\n\n")
	level := func(d decimal.Decimal) string {
		if d.IsZero() {
			return "-"
		}
		return stockbook.Pct(d).String()
	}
	n := 0
	for sym, t := range l.AllThresholds() {
		if n == 0 {
			fmt.Fprintln(&b, "| Symbol | Target | Stop Loss | Take Profit |")
			fmt.Fprintln(&b, "|:---|---:|---:|---:|")
		}
		n++
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", sym, level(t.TargetReturn), level(t.StopLoss), level(t.TakeProfit))
	}
	if n == 0 {
		fmt.Fprintln(&b, "No threshold set.")
	}
	return b.String()
}
