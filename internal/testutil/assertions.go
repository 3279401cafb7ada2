package testutil

import (
	"testing"

	"github.com/specialistvlad/procgrid/internal/engine"
	"github.com/stretchr/testify/require"
)

// AssertPath checks how often a path of a dry-run report was visited and
// passed.
func AssertPath(t *testing.T, report *engine.Report, label string, visited, passed int) {
	t.Helper()

	p, ok := report.Path(label)
	require.True(t, ok, "path '%s' is not in the report", label)
	require.Equal(t, visited, p.Visited, "path '%s' visited", label)
	require.Equal(t, passed, p.Passed, "path '%s' passed", label)
}

// AssertRetained checks how many times an output module recorded a branch.
// A count of zero asserts the branch was never recorded.
func AssertRetained(t *testing.T, report *engine.Report, output, branch string, count int) {
	t.Helper()

	o, ok := report.Output(output)
	require.True(t, ok, "output '%s' is not in the report", output)
	if count == 0 {
		require.NotContains(t, o.Products, branch, "output '%s' retained '%s'", output, branch)
		return
	}
	require.Equal(t, count, o.Products[branch], "output '%s' branch '%s'", output, branch)
}
