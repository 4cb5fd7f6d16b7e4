package analysis

import (
	"fmt"
	"sort"

	"github.com/sschoell/pismprof/internal/models"
)

// The report is a fixed set of five nested views: the time-stepping loop as a
// whole, then drill-downs whose 100% reference is the parent event's time in
// the view above it. Percentages printed on drill-down slices always refer to
// the run's grand total, so slices stay comparable across charts.

// BuildReport computes the standard five-view breakdown of a run.
func BuildReport(data *models.ProfileData) (*models.Report, error) {
	stage, ok := data.Stages[models.LoopStage]
	if !ok {
		return nil, fmt.Errorf("profile has no %q stage", models.LoopStage)
	}
	summary, ok := stage[models.SummaryEvent]
	if !ok {
		return nil, fmt.Errorf("stage %q has no %q event", models.LoopStage, models.SummaryEvent)
	}

	totalTime := summary[0].Time
	for _, s := range summary[1:data.NumProcs] {
		if s.Time > totalTime {
			totalTime = s.Time
		}
	}

	top := makeView(stage, data.NumProcs, "loop", "Time-stepping loop",
		models.BigEvents, totalTime, 0)

	report := &models.Report{
		Source:    data.Source,
		NumProcs:  data.NumProcs,
		TotalTime: totalTime,
		Views:     []models.View{top},
	}

	energy, err := subView(stage, data.NumProcs, &top, "energy",
		"energy", "Energy step", totalTime)
	if err != nil {
		return nil, err
	}
	report.Views = append(report.Views, energy)

	stressBalance, err := subView(stage, data.NumProcs, &top, "stress balance",
		"stress-balance", "Stress balance", totalTime)
	if err != nil {
		return nil, err
	}
	report.Views = append(report.Views, stressBalance)

	// The SIA drill-down hangs off the stress-balance view, not the top one.
	sia, err := subView(stage, data.NumProcs, &stressBalance, "SB modifier",
		"sb-modifier", "SB modifier (SIA)", totalTime)
	if err != nil {
		return nil, err
	}
	report.Views = append(report.Views, sia)

	io, err := subView(stage, data.NumProcs, &top, "I/O during run",
		"io", "I/O during run", totalTime)
	if err != nil {
		return nil, err
	}
	report.Views = append(report.Views, io)

	return report, nil
}

// subView builds a drill-down view whose total is the parent event's
// aggregated max in the parent view. A parent that is missing from the run,
// or that was itself lumped into "other", cannot anchor a drill-down; both
// cases fail with a diagnostic instead of a bare lookup error.
func subView(stage models.Stage, nProcs int, parentView *models.View, parentEvent, name, title string, grandTotal float64) (models.View, error) {
	parent, ok := parentView.Stat(parentEvent)
	if !ok {
		for _, f := range parentView.Folded {
			if f == parentEvent {
				return models.View{}, fmt.Errorf(
					"cannot chart %q: parent event %q was lumped into %q in the %q view (below 1%% of its total)",
					title, parentEvent, models.OtherEvent, parentView.Title)
			}
		}
		return models.View{}, fmt.Errorf(
			"cannot chart %q: parent event %q is not present in this run", title, parentEvent)
	}
	return makeView(stage, nProcs, name, title,
		models.SmallEvents[parentEvent], parent.Max, grandTotal), nil
}

func makeView(stage models.Stage, nProcs int, name, title string, catalog []string, total, grandTotal float64) models.View {
	stats, folded := Aggregate(ReduceAll(stage, catalog, nProcs), total)
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].Max < stats[j].Max })
	return models.View{
		Name:       name,
		Title:      title,
		Total:      total,
		GrandTotal: grandTotal,
		Stats:      stats,
		Folded:     folded,
	}
}
