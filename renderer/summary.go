package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/stockbook"
	"github.com/etnz/stockbook/date"
)

// SummaryMarkdown renders a short overview of the ledger on day, comparing
// the total assets with the last day recorded before it.
func SummaryMarkdown(l *stockbook.Ledger, h *date.History[stockbook.DailySnapshot], day date.Date) string {
	var b strings.Builder
	cur := l.Currency()
	t := l.Totals()

	var realized stockbook.Money
	for r := range l.Realized() {
		realized = realized.Add(r.Profit)
	}

	fmt.Fprintf(&b, "# Summary on %s\n\n", day)
	fmt.Fprintf(&b, "Total assets are %s %s", t.Assets.Format(cur), cur)
	if h != nil {
		if prev, ok := h.ValueAsOf(day.Add(-1)); ok {
			fmt.Fprintf(&b, " (%s since the previous record)", t.Assets.Sub(prev.TotalAssets).SignedString())
		}
	}
	fmt.Fprint(&b, ".\n\n")
	fmt.Fprintf(&b, "Today's total profit is %s: %s unrealized (%s) and %s realized.\n\n",
		t.Profit.Add(realized).SignedString(), t.Profit.SignedString(),
		stockbook.Pct(t.ReturnRate).SignedString(), realized.SignedString())
	fmt.Fprintf(&b, "%d positions, %s in cash.\n", t.Count, t.Cash.Format(cur))
	if alerts := l.Alerts(); len(alerts) > 0 {
		fmt.Fprintf(&b, "\n%d alerts:\n\n", len(alerts))
		for _, a := range alerts {
			fmt.Fprintf(&b, "- %s\n", alertText(a))
		}
	}
	return b.String()
}
