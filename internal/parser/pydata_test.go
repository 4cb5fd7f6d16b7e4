package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleModule mimics the shape of PISM's -profile output: comments, a few
// extra top-level assignments, and the Stages dict with per-process records
// carrying more fields than just the time.
const sampleModule = `# PISM profiling output
numProcs = 2
LocalTimes = [12.5, 13.0]
Stages = {
    "time-stepping loop": {
        "summary": [{"time": 50.0, "count": 1}, {"time": 60.0, "count": 1}],
        "energy": [{"time": 10.0, "flops": 1.5e+07}, {"time": 12.0, "flops": 1.6e+07}],
        "stress balance": [{"time": 30.0}, {"time": 28.5}],
    },
}
`

func TestDecodePyModule(t *testing.T) {
	data, err := decodePyModule([]byte(sampleModule))
	require.NoError(t, err)

	assert.Equal(t, 2, data.NumProcs)
	require.Contains(t, data.Stages, "time-stepping loop")

	stage := data.Stages["time-stepping loop"]
	require.Len(t, stage["summary"], 2)
	assert.Equal(t, 50.0, stage["summary"][0].Time)
	assert.Equal(t, 60.0, stage["summary"][1].Time)
	assert.Equal(t, 12.0, stage["energy"][1].Time)
	assert.Equal(t, 28.5, stage["stress balance"][1].Time)
}

func TestDecodePyModuleErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:    "missing numProcs",
			input:   `Stages = {}`,
			wantErr: "missing numProcs",
		},
		{
			name:    "missing stages",
			input:   `numProcs = 4`,
			wantErr: "missing Stages",
		},
		{
			name:    "fractional numProcs",
			input:   "numProcs = 2.5\nStages = {}",
			wantErr: "numProcs must be an integer",
		},
		{
			name:    "executable construct",
			input:   "import os\nnumProcs = 2",
			wantErr: `expected "="`,
		},
		{
			name:    "function call",
			input:   `numProcs = int("2")`,
			wantErr: "not a literal",
		},
		{
			name:    "unterminated string",
			input:   `numProcs = 2` + "\n" + `Stages = {"loop`,
			wantErr: "unterminated string",
		},
		{
			name:    "non-string dict key",
			input:   "numProcs = 2\nStages = {1: {}}",
			wantErr: "dict keys must be strings",
		},
		{
			name:    "sample without time",
			input:   `numProcs = 1` + "\n" + `Stages = {"loop": {"e": [{"flops": 1.0}]}}`,
			wantErr: "no time field",
		},
		{
			name:    "event not a list",
			input:   `numProcs = 1` + "\n" + `Stages = {"loop": {"e": {"time": 1.0}}}`,
			wantErr: "must be a list",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodePyModule([]byte(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDecodePyModuleLiteralForms(t *testing.T) {
	input := `numProcs = 1
Flags = (True, False, None)
Note = 'single\'quoted'
Stages = {"s": {"e": [{"time": 1.25e-03, "extra": -4}]}}
`
	data, err := decodePyModule([]byte(input))
	require.NoError(t, err)
	assert.InDelta(t, 0.00125, data.Stages["s"]["e"][0].Time, 1e-12)
}

// Profiles edited or transferred on Windows arrive with CRLF line endings;
// the scanner must still recognize backslash line continuations.
func TestDecodePyModuleWindowsLineEndings(t *testing.T) {
	input := strings.ReplaceAll(`numProcs = \
2
Stages = {"s": {"e": [{"time": 1.0}, {"time": 2.0}]}}
`, "\n", "\r\n")

	data, err := decodePyModule([]byte(input))
	require.NoError(t, err)
	assert.Equal(t, 2, data.NumProcs)
	assert.Equal(t, 2.0, data.Stages["s"]["e"][1].Time)
}

func TestPyScannerReportsLines(t *testing.T) {
	input := "numProcs = 2\nStages = {\n  \"s\": oops,\n}\n"
	_, err := decodePyModule([]byte(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}
