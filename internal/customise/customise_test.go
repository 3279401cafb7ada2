package customise

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/procgrid/internal/errs"
	"github.com/specialistvlad/procgrid/internal/inputtag"
	"github.com/specialistvlad/procgrid/internal/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func items(t *testing.T, raw ...string) []process.Item {
	t.Helper()
	out, err := process.ParseItems(raw)
	require.NoError(t, err)
	return out
}

// newTestProcess builds a reconstruction process with a monitoring path
// that is not on the schedule.
func newTestProcess(t *testing.T) *process.Process {
	t.Helper()
	p := process.New("reRECO", "Run3_2023")

	stages := []*process.Stage{
		{
			Label:    "rawToDigi",
			Plugin:   "ProductProducer",
			Kind:     process.KindProducer,
			Consumes: []inputtag.Tag{inputtag.MustParse("rawDataCollector")},
			Produces: []inputtag.Declaration{{Type: "FEDDigis"}},
		},
		{
			Label:    "reco",
			Plugin:   "ProductProducer",
			Kind:     process.KindProducer,
			Consumes: []inputtag.Tag{inputtag.MustParse("rawToDigi")},
			Produces: []inputtag.Declaration{{Type: "recoTracks"}, {Type: "recoVertices", Instance: "extra"}},
			Params:   map[string]cty.Value{"cuts": cty.ObjectVal(map[string]cty.Value{"minPt": cty.NumberIntVal(1)})},
		},
		{
			Label:    "pfCandidates",
			Plugin:   "ProductProducer",
			Kind:     process.KindProducer,
			Produces: []inputtag.Declaration{{Type: "recoPFCandidates"}},
		},
		{
			Label:    "dqmMonitor",
			Plugin:   "DQMAnalyzer",
			Kind:     process.KindAnalyzer,
			Consumes: []inputtag.Tag{inputtag.MustParse("TriggerResults::HLT")},
			Params: map[string]cty.Value{
				"processName":     cty.StringVal("HLT"),
				"subSystemFolder": cty.StringVal("HLT"),
			},
		},
		{
			Label:  DefaultHarvester,
			Plugin: "ProductProducer",
			Kind:   process.KindProducer,
		},
	}
	for _, s := range stages {
		require.NoError(t, p.AddStage(s))
	}
	require.NoError(t, p.AddSequence("dqmSeq", items(t, "dqmMonitor")))
	require.NoError(t, p.AddTask("recoTask", []string{"reco"}))
	require.NoError(t, p.AddOutput(&process.OutputModule{
		Label:          "AODoutput",
		Plugin:         "PoolOutputModule",
		FileName:       "file:step3.root",
		DataTier:       "AOD",
		OutputCommands: []string{"drop *", "keep *_reco_*_*"},
	}))
	require.NoError(t, p.AddPath("raw2digi_step", items(t, "rawToDigi")))
	require.NoError(t, p.AddPath("reco_step", items(t, "reco")))
	require.NoError(t, p.AddPath("dqm_step", items(t, "dqmSeq")))
	require.NoError(t, p.AddEndPath("AODoutput_step", items(t, "AODoutput")))
	require.NoError(t, p.SetSchedule([]string{"raw2digi_step", "reco_step", "AODoutput_step"}))
	require.NoError(t, p.Validate())
	return p
}

func setThreshold(v int64) Named {
	return Wrap("threshold", func(_ context.Context, p *process.Process) (*process.Process, error) {
		return p, p.SetParam("reco", "cuts.minPt", cty.NumberIntVal(v))
	})
}

func appendDQM() Named {
	return Wrap("appendDQM", func(_ context.Context, p *process.Process) (*process.Process, error) {
		return p, p.AppendSchedule("dqm_step")
	})
}

func TestApply_FoldEqualsSequentialApplication(t *testing.T) {
	ctx := context.Background()
	fns := []Named{setThreshold(2), appendDQM(), setThreshold(5)}

	folded, err := Apply(ctx, newTestProcess(t), fns...)
	require.NoError(t, err)

	sequential := newTestProcess(t)
	for _, f := range fns {
		sequential, err = f.Fn(ctx, sequential)
		require.NoError(t, err)
	}

	if diff := cmp.Diff(sequential.Snapshot(), folded.Snapshot()); diff != "" {
		t.Errorf("fold differs from sequential application (-want +got):\n%s", diff)
	}

	minPt, err := folded.Param("reco", "cuts.minPt")
	require.NoError(t, err)
	assert.True(t, minPt.RawEquals(cty.NumberIntVal(5)))
	assert.Equal(t, []string{"raw2digi_step", "reco_step", "AODoutput_step", "dqm_step"}, folded.Schedule().Entries)
}

func TestApply_DoesNotModifyInput(t *testing.T) {
	p := newTestProcess(t)
	before := p.Snapshot()

	_, err := Apply(context.Background(), p, setThreshold(9), appendDQM())
	require.NoError(t, err)

	if diff := cmp.Diff(before, p.Snapshot()); diff != "" {
		t.Errorf("input process was modified (-before +after):\n%s", diff)
	}
}

func TestApply_ErrorsAreReturnedUnmodified(t *testing.T) {
	sentinel := errors.New("customisation refused")
	calls := 0
	failing := Wrap("failing", func(_ context.Context, p *process.Process) (*process.Process, error) {
		calls++
		return nil, sentinel
	})
	after := Wrap("after", func(_ context.Context, p *process.Process) (*process.Process, error) {
		calls++
		return p, nil
	})

	out, err := Apply(context.Background(), newTestProcess(t), failing, after)
	assert.Nil(t, out)
	assert.Same(t, sentinel, err)
	assert.Equal(t, 1, calls)
}

func TestApply_ValidatesAfterEveryStep(t *testing.T) {
	broken := Wrap("broken", func(_ context.Context, p *process.Process) (*process.Process, error) {
		return p, p.AddSequence("ghostSeq", items(t, "ghost"))
	})
	_, err := Apply(context.Background(), newTestProcess(t), broken)
	require.Error(t, err)
	assert.True(t, errs.IsNameResolution(err))

	nilResult := Wrap("nil", func(context.Context, *process.Process) (*process.Process, error) { return nil, nil })
	_, err = Apply(context.Background(), newTestProcess(t), nilResult)
	assert.True(t, errs.HasCode(err, errs.CodeInvalidConfig))
}

func TestApply_NoFunctions(t *testing.T) {
	p := newTestProcess(t)
	out, err := Apply(context.Background(), p)
	require.NoError(t, err)
	assert.Same(t, p, out)
}
