package dqm

import (
	"context"
	"testing"

	"github.com/specialistvlad/procgrid/internal/inputtag"
	"github.com/specialistvlad/procgrid/internal/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzer(t *testing.T) {
	inst, err := New(plugin.Config{
		Label:    "dqmMonitor",
		Consumes: []inputtag.Tag{inputtag.MustParse("TriggerResults::HLT"), inputtag.MustParse("generalTracks")},
	})
	require.NoError(t, err)
	a := inst.(*Analyzer)

	for n := uint64(1); n <= 4; n++ {
		ev := plugin.NewEvent(7, 1, n)
		if n%2 == 0 {
			ev.Put(inputtag.Product{Type: "edmTriggerResults", Label: "TriggerResults", Process: "HLT"})
		}
		require.NoError(t, a.Analyze(context.Background(), ev))
	}

	assert.Equal(t, 4, a.Events(7))
	assert.Equal(t, 0, a.Events(8))
	assert.Equal(t, 2, a.Seen("TriggerResults::HLT"))
	assert.Equal(t, 0, a.Seen("generalTracks"))
}
