package parser

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sschoell/pismprof/internal/models"
)

// Load reads a profiling dataset from path. Files ending in .json are decoded
// as the structured JSON schema; everything else is treated as a PISM/PETSc
// Python profiling module and decoded by the literal parser in pydata.go.
// The file is never executed.
func Load(path string) (*models.ProfileData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
	}

	var data *models.ProfileData
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = decodeJSON(raw)
	} else {
		data, err = decodePyModule(raw)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode profile %s: %w", path, err)
	}
	data.Source = filepath.Base(path)

	if err := validate(data); err != nil {
		return nil, fmt.Errorf("invalid profile %s: %w", path, err)
	}

	slog.Info("Profile loaded", "file", data.Source, "procs", data.NumProcs, "stages", len(data.Stages))
	return data, nil
}

type jsonProfile struct {
	NumProcs int                                   `json:"numProcs"`
	Stages   map[string]map[string][]models.Sample `json:"stages"`
}

func decodeJSON(raw []byte) (*models.ProfileData, error) {
	var jp jsonProfile
	if err := json.Unmarshal(raw, &jp); err != nil {
		return nil, err
	}
	data := &models.ProfileData{
		NumProcs: jp.NumProcs,
		Stages:   make(map[string]models.Stage, len(jp.Stages)),
	}
	for name, events := range jp.Stages {
		data.Stages[name] = models.Stage(events)
	}
	return data, nil
}

// validate enforces the field-level contract: a positive process count and a
// full set of samples for every event. Short sample sequences would otherwise
// surface later as index errors deep inside the reducer.
func validate(data *models.ProfileData) error {
	if data.NumProcs <= 0 {
		return fmt.Errorf("numProcs must be positive, got %d", data.NumProcs)
	}
	if len(data.Stages) == 0 {
		return fmt.Errorf("profile contains no stages")
	}
	for stage, events := range data.Stages {
		for event, samples := range events {
			if len(samples) < data.NumProcs {
				return fmt.Errorf("stage %q event %q has %d samples, want %d",
					stage, event, len(samples), data.NumProcs)
			}
		}
	}
	return nil
}
