package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/procgrid/internal/engine"
	"github.com/specialistvlad/procgrid/internal/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	step3Process   = "../../examples/step3/step3.hcl"
	step3Fragments = "../../examples/step3/fragments"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := Execute(context.Background(), args, &out, &errOut)
	if err != nil {
		t.Logf("stderr:\n%s", errOut.String())
	}
	return out.String(), err
}

func TestBuild(t *testing.T) {
	out, err := execute(t, "build", step3Process, "-f", step3Fragments)
	require.NoError(t, err)
	assert.Contains(t, out, `Process "reRECO" assembled`)
	assert.Contains(t, out, "4 outputs, 42 scheduled paths")
	assert.Contains(t, out, "Conditions: auto:run3_data_prompt_relval -> 140X_dataRun3_Prompt_relval_v2")
}

func TestBuild_ConditionsOverride(t *testing.T) {
	out, err := execute(t, "build", step3Process, "-f", step3Fragments, "--conditions", "140X_dataRun3_v4")
	require.NoError(t, err)
	assert.Contains(t, out, "Conditions: 140X_dataRun3_v4 -> 140X_dataRun3_v4")
}

func TestDump_JSON(t *testing.T) {
	out, err := execute(t, "dump", step3Process, "-f", step3Fragments, "--format", "json", "--threads", "8", "--file-mode", "nomerge")
	require.NoError(t, err)

	var snap process.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, "reRECO", snap.Name)
	assert.Equal(t, uint32(8), snap.Options.NumberOfThreads)
	assert.Equal(t, process.FileModeNoMerge, snap.Options.FileMode)
	assert.Len(t, snap.Schedule, 42)
}

func TestSimulate_JSON(t *testing.T) {
	out, err := execute(t, "simulate", step3Process, "-f", step3Fragments, "--events", "5", "--streams", "2", "-o", "json")
	require.NoError(t, err)

	var report engine.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, int64(5), report.Events)
	assert.Equal(t, 2, report.Streams)
	assert.Len(t, report.Paths, 42)
}

func TestSimulate_Text(t *testing.T) {
	out, err := execute(t, "simulate", step3Process, "-f", step3Fragments)
	require.NoError(t, err)
	assert.Contains(t, out, "Events: 100, streams: 1")
	assert.Contains(t, out, "Flag_hfNoisyHitsFilter")
	assert.Contains(t, out, "DQMRootOutputModule")
	assert.NotContains(t, out, "Missing products")
}

func TestSimulate_EnvironmentOverride(t *testing.T) {
	t.Setenv("PROCGRID_MAX_EVENTS", "3")

	out, err := execute(t, "simulate", step3Process, "-f", step3Fragments, "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "events: 3\n")
}

func TestDotenvFile(t *testing.T) {
	// Registers the restore; godotenv does not replace variables that exist.
	t.Setenv("PROCGRID_LOG_FORMAT", "")
	require.NoError(t, os.Unsetenv("PROCGRID_LOG_FORMAT"))

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("PROCGRID_LOG_FORMAT=xml\n"), 0o600))

	_, err := execute(t, "build", step3Process, "-f", step3Fragments, "--env-file", envFile)
	require.Error(t, err)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, exitErr.Message, "LogFormat failed on 'oneof'")
}

func TestDotenvFile_VisibleToConfiguration(t *testing.T) {
	t.Setenv("STEP_ANNOTATION", "")
	require.NoError(t, os.Unsetenv("STEP_ANNOTATION"))

	dir := t.TempDir()
	processPath := filepath.Join(dir, "step.hcl")
	require.NoError(t, os.WriteFile(processPath, []byte(`
process "envTest" {
  max_events = 5

  source "EmptySource" {}

  metadata {
    annotation = env.STEP_ANNOTATION
  }

  stage "tracks" {
    plugin   = "ProductProducer"
    produces = ["recoTracks"]
  }

  path "reco_step" {
    sequence = ["tracks"]
  }

  schedule {
    entries = ["reco_step"]
  }
}
`), 0o600))
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(`STEP_ANNOTATION="step3 nevts:5"`+"\n"), 0o600))

	out, err := execute(t, "dump", processPath, "--format", "json", "--env-file", envFile)
	require.NoError(t, err)

	var snap process.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, "step3 nevts:5", snap.Metadata.Annotation)
}

func TestUsageErrors(t *testing.T) {
	testCases := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{
			name:    "missing process path",
			args:    []string{"build"},
			wantMsg: "accepts 1 arg(s), received 0",
		},
		{
			name:    "unknown flag",
			args:    []string{"build", step3Process, "--this-is-not-a-valid-flag"},
			wantMsg: "unknown flag: --this-is-not-a-valid-flag",
		},
		{
			name:    "invalid log level",
			args:    []string{"build", step3Process, "--log-level", "trace"},
			wantMsg: "LogLevel failed on 'oneof'",
		},
		{
			name:    "invalid dump format",
			args:    []string{"dump", step3Process, "--format", "xml"},
			wantMsg: "invalid format",
		},
		{
			name:    "invalid report format",
			args:    []string{"simulate", step3Process, "-o", "csv"},
			wantMsg: "invalid output",
		},
		{
			name:    "invalid event count",
			args:    []string{"simulate", step3Process, "--events=-4"},
			wantMsg: "Events failed on 'gte'",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := execute(t, tc.args...)
			require.Error(t, err)
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.wantMsg)
		})
	}
}

func TestBuild_LoadError(t *testing.T) {
	_, err := execute(t, "build", filepath.Join(t.TempDir(), "missing.hcl"))
	require.Error(t, err)
	var exitErr *ExitError
	assert.False(t, errors.As(err, &exitErr), "load failures are not usage errors")
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestHelp(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "simulate")
	assert.Contains(t, out, "conditions")
}

func TestConditions(t *testing.T) {
	db := filepath.Join(t.TempDir(), "conditions.db")

	_, err := execute(t, "conditions", "set", "run3_data", "140X_dataRun3_v9", "--db", db, "--description", "reprocessing")
	require.NoError(t, err)

	out, err := execute(t, "conditions", "import-builtin", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported")

	out, err = execute(t, "conditions", "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "ALIAS")
	assert.Contains(t, out, "run3_data_prompt_relval")
	// import-builtin replaces the stored value.
	assert.Contains(t, out, "140X_dataRun3_v4")

	_, err = execute(t, "conditions", "set", "only-alias", "--db", db)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)

	out, err = execute(t, "build", step3Process, "-f", step3Fragments, "--conditions-db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Conditions: auto:run3_data_prompt_relval -> 140X_dataRun3_Prompt_relval_v2")
}
