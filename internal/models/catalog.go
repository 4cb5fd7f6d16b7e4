package models

// The event catalog is hand-curated to match the events PISM times inside the
// time-stepping loop. Events missing from a given run are skipped, so older
// and feature-reduced runs still chart cleanly.

// BigEvents are the top-level events charted against the whole run.
var BigEvents = []string{
	"basal yield stress",
	"stress balance",
	"surface",
	"ocean",
	"age",
	"energy",
	"basal hydrology",
	"fracture density",
	"mass transport",
	"calving",
	"bed deformation",
	"I/O during run",
}

// SmallEvents are the drill-down lists, keyed by the parent event.
var SmallEvents = map[string][]string{
	"energy": {"ice energy", "BTU"},
	"stress balance": {
		"SSB", "SB modifier", "SB strain heat", "SB vert. vel.",
	},
	"SB modifier": {
		"SIA bed smoother", "SIA gradient", "SIA flux", "SIA 3D hor. vel.",
	},
	"I/O during run": {"backup", "extra_file reporting", "model state dump"},
}
