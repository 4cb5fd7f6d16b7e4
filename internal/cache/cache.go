// Package cache holds the one-shot load pipeline: parse the profile, build
// the report, and record the run in the store. The result is shared read-only
// by the server handlers and the text reporter.
package cache

import (
	"log/slog"
	"path/filepath"

	"github.com/sschoell/pismprof/internal/analysis"
	"github.com/sschoell/pismprof/internal/models"
	"github.com/sschoell/pismprof/internal/parser"
	"github.com/sschoell/pismprof/internal/store"
)

type CachedData struct {
	Path    string
	Profile *models.ProfileData
	Report  *models.Report
	RunID   int64
}

// New loads the profile at path, computes the standard report and, when a
// store is available, persists the run. Store failures are logged, not fatal;
// the interactive view works fine without history.
func New(path string, s store.Store) (*CachedData, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	profile, err := parser.Load(path)
	if err != nil {
		return nil, err
	}

	report, err := analysis.BuildReport(profile)
	if err != nil {
		return nil, err
	}

	data := &CachedData{Path: abs, Profile: profile, Report: report}
	if s != nil {
		id, err := s.SaveRun(abs, report)
		if err != nil {
			slog.Warn("Failed to record run in history", "path", abs, "error", err)
		} else {
			data.RunID = id
		}
	}
	return data, nil
}
