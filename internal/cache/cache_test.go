package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sschoell/pismprof/internal/store"
)

const endToEndProfile = `{
	"numProcs": 2,
	"stages": {
		"time-stepping loop": {
			"summary": [{"time": 50.0}, {"time": 60.0}],
			"energy": [{"time": 12.0}, {"time": 10.0}],
			"stress balance": [{"time": 30.0}, {"time": 28.0}],
			"I/O during run": [{"time": 6.0}, {"time": 5.5}],
			"ice energy": [{"time": 9.0}, {"time": 8.0}],
			"SSB": [{"time": 10.0}, {"time": 9.0}],
			"SB modifier": [{"time": 18.0}, {"time": 17.0}],
			"SIA gradient": [{"time": 9.0}, {"time": 8.5}],
			"backup": [{"time": 4.0}, {"time": 3.5}]
		}
	}
}`

func writeTestProfile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, os.WriteFile(path, []byte(endToEndProfile), 0644))
	return path
}

func TestNewEndToEnd(t *testing.T) {
	data, err := New(writeTestProfile(t), nil)
	require.NoError(t, err)

	// The top-level denominator is the slowest process's summary time.
	assert.Equal(t, 60.0, data.Report.TotalTime)
	assert.Equal(t, "run.json", data.Report.Source)
	assert.Len(t, data.Report.Views, 5)
	assert.Zero(t, data.RunID)
}

func TestNewRecordsRun(t *testing.T) {
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"), true)
	require.NoError(t, err)
	defer s.Close()

	data, err := New(writeTestProfile(t), s)
	require.NoError(t, err)
	require.NotZero(t, data.RunID)

	stored, err := s.GetReport(data.RunID)
	require.NoError(t, err)
	assert.Equal(t, data.Report, stored)
}

func TestNewBadProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"numProcs": 0, "stages": {"s": {}}}`), 0644))

	_, err := New(path, nil)
	require.Error(t, err)
}
