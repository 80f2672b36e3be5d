package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/stockbook"
	"github.com/etnz/stockbook/date"
)

// HistoryMarkdown renders the daily aggregates recorded within r. A zero
// range renders the whole history.
func HistoryMarkdown(h *date.History[stockbook.DailySnapshot], r date.Range) string {
	var b strings.Builder
	days := h.Values()
	if r.IsZero() {
		fmt.Fprint(&b, "# History\n\n")
	} else {
		fmt.Fprintf(&b, "# History from %s\n\n", r)
		days = h.Within(r)
	}
	var prev *stockbook.DailySnapshot
	n := 0
	for day, s := range days {
		if n == 0 {
			fmt.Fprintln(&b, "| Date | Invested | Market Value | Profit | Return | Cash | Total Assets | Change | Positions |")
			fmt.Fprintln(&b, "|:---|---:|---:|---:|---:|---:|---:|---:|---:|")
		}
		n++
		change := "-"
		if prev != nil {
			change = s.TotalAssets.Sub(prev.TotalAssets).SignedString()
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s | %d |\n",
			day, s.TotalInvestment, s.TotalValue, s.TotalProfit.SignedString(),
			stockbook.Pct(s.TotalReturnRate).SignedString(), s.Cash, s.TotalAssets, change, s.StockCount)
		prev = &s
	}
	if n == 0 {
		fmt.Fprintln(&b, "No recorded day.")
	}
	return b.String()
}
