package renderer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/etnz/stockbook/storage"
)

// RecoveryMarkdown renders where the ledger was loaded from.
func RecoveryMarkdown(r storage.Recovery) string {
	var b strings.Builder
	switch {
	case r.Fresh:
		fmt.Fprintln(&b, "No ledger found, starting with an empty one.")
	case r.Failed:
		fmt.Fprintln(&b, "**Recovery failed:** no valid ledger snapshot, starting with an empty one.")
	case r.Degraded:
		fmt.Fprintf(&b, "**Recovered** the ledger from %s.\n", r.Source)
	default:
		fmt.Fprintf(&b, "Ledger loaded from %s.\n", r.Source)
	}
	if len(r.Skipped) > 0 && !r.Fresh {
		fmt.Fprintln(&b)
		for _, s := range r.Skipped {
			fmt.Fprintf(&b, "- skipped %s: %v\n", s.Location, s.Err)
		}
	}
	return b.String()
}

// StatusMarkdown renders the state of every storage location.
func StatusMarkdown(statuses []storage.Status) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Storage\n\n")
	fmt.Fprintln(&b, "| Location | Status | Last Updated | Positions | Cash |")
	fmt.Fprintln(&b, "|:---|:---|:---|---:|---:|")
	for _, s := range statuses {
		switch {
		case errors.Is(s.Err, storage.ErrNotFound):
			fmt.Fprintf(&b, "| %s | missing | - | - | - |\n", s.Location)
		case s.Err != nil:
			fmt.Fprintf(&b, "| %s | invalid: %v | - | - | - |\n", s.Location, s.Err)
		default:
			fmt.Fprintf(&b, "| %s | ok | %s | %d | %s |\n", s.Location, stamp(s.LastUpdated), s.Positions, s.Cash)
		}
	}
	return b.String()
}

// ArchivesMarkdown renders the list of archives, oldest first.
func ArchivesMarkdown(archives []storage.Archive) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Archives\n\n")
	if len(archives) == 0 {
		fmt.Fprintln(&b, "No archive.")
		return b.String()
	}
	fmt.Fprintln(&b, "| Name | Time | Size |")
	fmt.Fprintln(&b, "|:---|:---|---:|")
	for _, a := range archives {
		fmt.Fprintf(&b, "| %s | %s | %d |\n", a.Name, stamp(a.Time), a.Size)
	}
	return b.String()
}
