package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/specialistvlad/procgrid/internal/engine"
	"github.com/specialistvlad/procgrid/internal/inputtag"
	"github.com/specialistvlad/procgrid/internal/process"
	"github.com/specialistvlad/procgrid/internal/registry"
	"github.com/specialistvlad/procgrid/internal/testutil"
	"github.com/specialistvlad/procgrid/modules/output"
	"github.com/specialistvlad/procgrid/modules/producer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

// streamProcess has one path running a producer and the stage under test,
// and an end path writing everything.
func streamProcess(t *testing.T, events int64, stage *process.Stage) *process.Process {
	t.Helper()
	p := process.New("reRECO", "Run3")
	require.NoError(t, p.SetMaxEvents(process.MaxEvents{Input: events}))
	require.NoError(t, p.AddStage(&process.Stage{
		Label: "tracks", Plugin: "ProductProducer", Kind: process.KindProducer,
		Produces: []inputtag.Declaration{{Type: "recoTracks"}},
	}))
	require.NoError(t, p.AddStage(stage))
	require.NoError(t, p.AddOutput(&process.OutputModule{
		Label: "out", Plugin: "PoolOutputModule", FileName: "file:out.root", DataTier: "RECO",
	}))

	path, err := process.ParseItems([]string{"tracks", stage.Label})
	require.NoError(t, err)
	end, err := process.ParseItems([]string{"out"})
	require.NoError(t, err)
	require.NoError(t, p.AddPath("reco_step", path))
	require.NoError(t, p.AddEndPath("out_step", end))
	require.NoError(t, p.SetSchedule([]string{"reco_step", "out_step"}))
	require.NoError(t, p.Validate())
	p.Freeze()
	return p
}

func newRegistry(modules ...registry.Module) *registry.Registry {
	r := registry.New()
	for _, m := range append([]registry.Module{&producer.Module{}, &output.Module{}}, modules...) {
		m.Register(r)
	}
	return r
}

func TestRun_StreamsProcessEventsConcurrently(t *testing.T) {
	rec := testutil.NewStreamRecorder(20 * time.Millisecond)
	p := streamProcess(t, 16, &process.Stage{
		Label: "slow", Plugin: "SlowAnalyzer", Kind: process.KindAnalyzer,
		Consumes: []inputtag.Tag{inputtag.MustParse("tracks")},
	})

	e, err := engine.New(p, newRegistry(rec), engine.Options{Streams: 4})
	require.NoError(t, err)
	report, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Greater(t, rec.MaxConcurrent(), 1)
	assert.LessOrEqual(t, rec.MaxConcurrent(), 4)

	seen := rec.Seen()
	require.Len(t, seen, 16)
	for n := uint64(1); n <= 16; n++ {
		assert.Equal(t, 1, seen[n], "event %d", n)
	}

	testutil.AssertPath(t, report, "reco_step", 16, 16)
	testutil.AssertRetained(t, report, "out", "recoTracks_tracks__reRECO", 16)
}

func TestRun_PluginErrorStopsAllStreams(t *testing.T) {
	p := streamProcess(t, 1000, &process.Stage{
		Label: "broken", Plugin: "FailingProducer", Kind: process.KindProducer,
		Params: map[string]cty.Value{"failOn": cty.NumberIntVal(7)},
	})

	e, err := engine.New(p, newRegistry(&testutil.FailingModule{}), engine.Options{Streams: 3})
	require.NoError(t, err)
	report, err := e.Run(context.Background())

	require.Error(t, err)
	assert.Nil(t, report)
	assert.Contains(t, err.Error(), `path "reco_step"`)
	assert.Contains(t, err.Error(), "broken: synthetic failure on event 7")
}
