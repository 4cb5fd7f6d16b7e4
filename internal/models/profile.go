package models

// Sample is one process's wall-clock measurement for one event. PISM's
// profiling output carries more fields per record, but only the time is used.
type Sample struct {
	Time float64 `json:"time"`
}

// Stage maps event names to per-process samples, one Sample per process
// index 0..NumProcs-1. The reserved "summary" event holds each process's
// whole-run total.
type Stage map[string][]Sample

// ProfileData is a fully decoded profiling dataset. Immutable after load.
type ProfileData struct {
	Source   string           `json:"source"`
	NumProcs int              `json:"numProcs"`
	Stages   map[string]Stage `json:"stages"`
}

// LoopStage is the stage every standard report view reads from.
const LoopStage = "time-stepping loop"

// SummaryEvent is the reserved per-stage event holding whole-run totals.
const SummaryEvent = "summary"

// EventStat is the cross-process reduction of one event: the slowest and
// fastest process's time and their ratio. Ratio is 0 when Max is 0.
type EventStat struct {
	Name  string  `json:"name"`
	Max   float64 `json:"max"`
	Min   float64 `json:"min"`
	Ratio float64 `json:"ratio"`
}

// OtherEvent is the synthetic bucket small contributors are lumped into.
const OtherEvent = "other"

// View is one pie chart's worth of data. Stats are ordered ascending by Max.
// GrandTotal is 0 for the top-level view, which is itself the grand total.
type View struct {
	Name       string      `json:"name"`
	Title      string      `json:"title"`
	Total      float64     `json:"total"`
	GrandTotal float64     `json:"grandTotal,omitempty"`
	Stats      []EventStat `json:"stats"`
	Folded     []string    `json:"folded,omitempty"`
}

// Stat looks an event up by name.
func (v *View) Stat(name string) (EventStat, bool) {
	for _, s := range v.Stats {
		if s.Name == name {
			return s, true
		}
	}
	return EventStat{}, false
}

// Report is the complete five-view breakdown of one run.
type Report struct {
	Source    string  `json:"source"`
	NumProcs  int     `json:"numProcs"`
	TotalTime float64 `json:"totalTime"`
	Views     []View  `json:"views"`
}

// View looks a view up by its URL slug.
func (r *Report) View(name string) (*View, bool) {
	for i := range r.Views {
		if r.Views[i].Name == name {
			return &r.Views[i], true
		}
	}
	return nil, false
}
