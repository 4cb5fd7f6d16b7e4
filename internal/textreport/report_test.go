package textreport

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/sschoell/pismprof/internal/models"
)

func TestRender(t *testing.T) {
	old := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = old }()

	report := &models.Report{
		Source:    "run.py",
		NumProcs:  4,
		TotalTime: 120.0,
		Views: []models.View{
			{
				Name:  "loop",
				Title: "Time-stepping loop",
				Total: 120.0,
				Stats: []models.EventStat{
					{Name: "energy", Max: 40.0, Min: 36.0, Ratio: 0.9},
					{Name: "other", Max: 1.0, Min: 0.9, Ratio: 0.9},
				},
				Folded: []string{"calving", "age"},
			},
			{
				Name:       "energy",
				Title:      "Energy step",
				Total:      40.0,
				GrandTotal: 120.0,
				Stats: []models.EventStat{
					{Name: "ice energy", Max: 30.0, Min: 28.0, Ratio: 28.0 / 30},
				},
			},
		},
	}

	var buf bytes.Buffer
	Render(&buf, report)
	out := buf.String()

	assert.Contains(t, out, "run.py: 4 processes, total wall-clock 120.0 s")
	assert.Contains(t, out, "Time-stepping loop")
	assert.Contains(t, out, "Energy step")
	assert.Contains(t, out, "total 40.0 s (33.3% of run)")
	assert.Contains(t, out, "energy")
	assert.Contains(t, out, `lumped into "other": calving, age`)
	assert.Contains(t, out, "33.3%")
}
