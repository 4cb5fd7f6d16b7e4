package analysis

import (
	"log/slog"

	"github.com/sschoell/pismprof/internal/models"
)

// Reduce computes the cross-process statistic for one event: the slowest
// process's time, the fastest's, and their ratio (a load-balance indicator;
// 1.0 means perfectly even). The second result is false when the event was
// not timed in this run.
func Reduce(stage models.Stage, event string, nProcs int) (models.EventStat, bool) {
	samples, ok := stage[event]
	if !ok {
		return models.EventStat{}, false
	}
	stat := models.EventStat{Name: event, Max: samples[0].Time, Min: samples[0].Time}
	for _, s := range samples[1:nProcs] {
		if s.Time > stat.Max {
			stat.Max = s.Time
		}
		if s.Time < stat.Min {
			stat.Min = s.Time
		}
	}
	if stat.Max > 0 {
		stat.Ratio = stat.Min / stat.Max
	}
	return stat, true
}

// ReduceAll reduces every catalog event present in the stage, preserving
// catalog order. Absent events are skipped.
func ReduceAll(stage models.Stage, catalog []string, nProcs int) []models.EventStat {
	stats := make([]models.EventStat, 0, len(catalog))
	for _, event := range catalog {
		if stat, ok := Reduce(stage, event, nProcs); ok {
			stats = append(stats, stat)
		}
	}
	return stats
}

// lumpThreshold is the fraction of a view's total below which an event is
// folded into the "other" bucket. Exactly at the threshold is kept.
const lumpThreshold = 0.01

// Aggregate folds every entry contributing less than 1% of totalTime into a
// synthetic "other" entry, summing max and min and recomputing the ratio from
// the sums. The "other" entry is always appended, even when nothing was
// folded; a zero-sized wedge is accepted behavior for this tool. Input order
// is preserved. The second result lists the folded event names.
func Aggregate(stats []models.EventStat, totalTime float64) ([]models.EventStat, []string) {
	kept := make([]models.EventStat, 0, len(stats)+1)
	other := models.EventStat{Name: models.OtherEvent}
	var folded []string

	for _, stat := range stats {
		// An existing "other" bucket is carried, never threshold-checked
		// against itself; re-aggregating an aggregated set is a no-op.
		if stat.Name == models.OtherEvent {
			other.Max += stat.Max
			other.Min += stat.Min
			continue
		}
		if stat.Max/totalTime < lumpThreshold {
			slog.Info("Lumping event with others",
				"event", stat.Name, "percent", 100*stat.Max/totalTime)
			other.Max += stat.Max
			other.Min += stat.Min
			folded = append(folded, stat.Name)
			continue
		}
		kept = append(kept, stat)
	}
	if other.Max > 0 {
		other.Ratio = other.Min / other.Max
	}
	return append(kept, other), folded
}
