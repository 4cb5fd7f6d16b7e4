// Package textreport prints a report to a terminal, for head nodes where a
// browser UI is not an option.
package textreport

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/sschoell/pismprof/internal/models"
)

var (
	titleColor  = color.New(color.FgCyan, color.Bold)
	otherColor  = color.New(color.Faint)
	foldedColor = color.New(color.FgYellow)
)

// Render writes every view of the report as an aligned table. Rows are in
// view order (ascending by time), matching the charts.
func Render(w io.Writer, report *models.Report) {
	fmt.Fprintf(w, "%s: %d processes, total wall-clock %.1f s\n",
		report.Source, report.NumProcs, report.TotalTime)

	for i := range report.Views {
		view := &report.Views[i]
		fmt.Fprintln(w)
		titleColor.Fprintln(w, view.Title)

		if view.GrandTotal > 0 {
			fmt.Fprintf(w, "  total %.1f s (%.1f%% of run)\n",
				view.Total, 100*view.Total/view.GrandTotal)
		} else {
			fmt.Fprintf(w, "  total %.1f s\n", view.Total)
		}

		fmt.Fprintf(w, "  %-24s %10s %10s %8s %8s\n",
			"event", "max (s)", "min (s)", "min/max", "share")
		fmt.Fprintf(w, "  %s\n", strings.Repeat("-", 64))

		for _, stat := range view.Stats {
			line := fmt.Sprintf("  %-24s %10.2f %10.2f %8.2f %7.1f%%",
				stat.Name, stat.Max, stat.Min, stat.Ratio, share(stat, view))
			if stat.Name == models.OtherEvent {
				otherColor.Fprintln(w, line)
			} else {
				fmt.Fprintln(w, line)
			}
		}

		if len(view.Folded) > 0 {
			foldedColor.Fprintf(w, "  lumped into %q: %s\n",
				models.OtherEvent, strings.Join(view.Folded, ", "))
		}
	}
}

func share(stat models.EventStat, view *models.View) float64 {
	if view.Total <= 0 {
		return 0
	}
	return 100 * stat.Max / view.Total
}
