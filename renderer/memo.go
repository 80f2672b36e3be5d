package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/stockbook"
)

// MemosMarkdown renders the memos of symbol, or of every symbol when it is
// empty.
func MemosMarkdown(l *stockbook.Ledger, symbol string) string {
	symbols := l.MemoSymbols()
	if symbol != "" {
		symbols = []string{symbol}
	}
	var b strings.Builder
	fmt.Fprint(&b, "# Memos\n")
	n := 0
	for _, s := range symbols {
		memos := l.Memos(s)
		if len(memos) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n", s)
		for _, m := range memos {
			n++
			fmt.Fprintf(&b, "- %s (%s): %s\n", stamp(m.Timestamp), m.Side, m.Text)
		}
	}
	if n == 0 {
		fmt.Fprint(&b, "\nNo memo.\n")
	}
	return b.String()
}
