package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/stockbook"
)

// RefreshMarkdown renders the outcome of a price refresh.
func RefreshMarkdown(r stockbook.Refresh) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Price Refresh\n\n")
	if len(r.Updates) == 0 {
		fmt.Fprint(&b, "No position to refresh.\n\n")
	} else {
		fmt.Fprintln(&b, "| Symbol | Previous | Price | Change | Status |")
		fmt.Fprintln(&b, "|:---|---:|---:|---:|:---|")
		for _, u := range r.Updates {
			status, change := "ok", u.NewPrice.Sub(u.OldPrice).SignedString()
			if u.Err != nil {
				status, change = "failed: "+u.Err.Error(), "-"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", u.Symbol, u.OldPrice, u.NewPrice, change, status)
		}
		fmt.Fprintln(&b)
		if n := r.Failed(); n > 0 {
			fmt.Fprintf(&b, "%d of %d prices could not be refreshed.\n\n", n, len(r.Updates))
		}
	}
	fmt.Fprintf(&b, "Total assets: %s\n", r.Snapshot.TotalAssets)
	if r.RecordErr != nil {
		fmt.Fprintf(&b, "\n**Warning:** daily history not recorded: %v\n", r.RecordErr)
	}
	if r.SaveErr != nil {
		fmt.Fprintf(&b, "\n**Warning:** %v\n", r.SaveErr)
	}
	return b.String()
}
