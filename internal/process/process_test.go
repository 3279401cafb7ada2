package process

import (
	"errors"
	"testing"

	"github.com/specialistvlad/procgrid/internal/errs"
	"github.com/specialistvlad/procgrid/internal/inputtag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func items(t *testing.T, raw ...string) []Item {
	t.Helper()
	out, err := ParseItems(raw)
	require.NoError(t, err)
	return out
}

// newTestProcess builds a small process with two paths and an end-path.
func newTestProcess(t *testing.T) *Process {
	t.Helper()
	p := New("reRECO", "Run3_2023")

	require.NoError(t, p.AddStage(&Stage{
		Label:    "rawToDigi",
		Plugin:   "ProductProducer",
		Kind:     KindProducer,
		Consumes: []inputtag.Tag{inputtag.MustParse("rawDataCollector")},
		Produces: []inputtag.Declaration{{Type: "FEDDigis"}},
		Params:   map[string]cty.Value{"InputLabel": cty.StringVal("rawDataCollector")},
	}))
	require.NoError(t, p.AddStage(&Stage{
		Label:    "hltFilter",
		Plugin:   "EventFilter",
		Kind:     KindFilter,
		Consumes: []inputtag.Tag{inputtag.MustParse("TriggerResults::HLT")},
		Params: map[string]cty.Value{
			"triggerResults":  cty.StringVal("TriggerResults::HLT"),
			"subSystemFolder": cty.StringVal("HLT"),
			"processName":     cty.StringVal("HLT"),
		},
	}))
	require.NoError(t, p.AddStage(&Stage{
		Label:    "reco",
		Plugin:   "ProductProducer",
		Kind:     KindProducer,
		Consumes: []inputtag.Tag{inputtag.MustParse("rawToDigi")},
		Produces: []inputtag.Declaration{{Type: "recoTracks"}},
		Params: map[string]cty.Value{
			"cuts": cty.ObjectVal(map[string]cty.Value{"minPt": cty.NumberIntVal(1)}),
		},
	}))
	require.NoError(t, p.AddSequence("recoSeq", items(t, "rawToDigi", "reco")))
	require.NoError(t, p.AddTask("patTask", []string{"reco"}))
	require.NoError(t, p.AddOutput(&OutputModule{
		Label:          "AODoutput",
		Plugin:         "PoolOutputModule",
		FileName:       "file:step3.root",
		DataTier:       "AOD",
		OutputCommands: []string{"drop *", "keep *_reco_*_*"},
	}))
	require.NoError(t, p.AddPath("reconstruction_step", items(t, "recoSeq")))
	require.NoError(t, p.AddPath("filtered_step", items(t, "hltFilter", "reco")))
	require.NoError(t, p.AddEndPath("AODoutput_step", items(t, "AODoutput")))
	require.NoError(t, p.SetSchedule([]string{"reconstruction_step", "filtered_step", "AODoutput_step"}))
	require.NoError(t, p.Validate())
	return p
}

func TestParseItem(t *testing.T) {
	testCases := []struct {
		raw      string
		expected Item
		wantErr  bool
	}{
		{raw: "reco", expected: Item{Label: "reco"}},
		{raw: "~hltFilter", expected: Item{Label: "hltFilter", Op: OpInvert}},
		{raw: "-hltFilter", expected: Item{Label: "hltFilter", Op: OpIgnore}},
		{raw: "", wantErr: true},
		{raw: "~", wantErr: true},
		{raw: "~-x", wantErr: true},
		{raw: "a b", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			item, err := ParseItem(tc.raw)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errs.HasCode(err, errs.CodeInvalidConfig))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, item)
			assert.Equal(t, tc.raw, item.String())
		})
	}
}

func TestProcess_DuplicateLabels(t *testing.T) {
	p := newTestProcess(t)

	testCases := []struct {
		name string
		add  func() error
	}{
		{name: "stage vs stage", add: func() error {
			return p.AddStage(&Stage{Label: "reco", Plugin: "ProductProducer", Kind: KindProducer})
		}},
		{name: "sequence vs stage", add: func() error { return p.AddSequence("reco", nil) }},
		{name: "task vs sequence", add: func() error { return p.AddTask("recoSeq", nil) }},
		{name: "path vs output", add: func() error { return p.AddPath("AODoutput", nil) }},
		{name: "end path vs path", add: func() error { return p.AddEndPath("filtered_step", nil) }},
		{name: "output vs task", add: func() error {
			return p.AddOutput(&OutputModule{Label: "patTask"})
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.add()
			require.Error(t, err)
			assert.Equal(t, errs.CodeDuplicateName, errs.CodeOf(err))
		})
	}
}

func TestProcess_AddPath_Resolution(t *testing.T) {
	p := newTestProcess(t)

	err := p.AddPath("broken", items(t, "reco", "nosuchStage"))
	var nre *errs.NameResolutionError
	require.True(t, errors.As(err, &nre))
	assert.Equal(t, "nosuchStage", nre.Name)
	assert.Equal(t, `NAME_RESOLUTION: undefined stage "nosuchStage" referenced by path "broken"`, err.Error())

	_, ok := p.Lookup("broken")
	assert.False(t, ok, "a failed path must not claim its label")

	err = p.AddPath("outInPath", items(t, "AODoutput"))
	assert.True(t, errs.HasCode(err, errs.CodeInvalidConfig))

	err = p.AddPath("taskInPath", items(t, "patTask"))
	assert.True(t, errs.HasCode(err, errs.CodeInvalidConfig))
}

func TestProcess_Schedule(t *testing.T) {
	t.Run("preserves declared order", func(t *testing.T) {
		p := newTestProcess(t)
		order := []string{"AODoutput_step", "filtered_step", "reconstruction_step"}
		require.NoError(t, p.SetSchedule(order))
		assert.Equal(t, order, p.Schedule().Entries)
	})

	t.Run("undefined entry", func(t *testing.T) {
		p := newTestProcess(t)
		err := p.SetSchedule([]string{"reconstruction_step", "missing_step"})
		assert.True(t, errs.IsNameResolution(err))
		assert.Equal(t, []string{"reconstruction_step", "filtered_step", "AODoutput_step"}, p.Schedule().Entries)
	})

	t.Run("entry at most once", func(t *testing.T) {
		p := newTestProcess(t)
		err := p.SetSchedule([]string{"filtered_step", "filtered_step"})
		assert.Equal(t, errs.CodeDuplicateName, errs.CodeOf(err))
	})

	t.Run("append", func(t *testing.T) {
		p := newTestProcess(t)
		require.NoError(t, p.SetSchedule([]string{"reconstruction_step"}))
		require.NoError(t, p.AppendSchedule("AODoutput_step"))
		assert.Equal(t, []string{"reconstruction_step", "AODoutput_step"}, p.Schedule().Entries)
		assert.Error(t, p.AppendSchedule("reconstruction_step"))
	})

	t.Run("associate", func(t *testing.T) {
		p := newTestProcess(t)
		require.NoError(t, p.Associate("patTask"))
		require.NoError(t, p.Associate("patTask"))
		assert.Equal(t, []string{"patTask"}, p.Schedule().Associated)
		assert.True(t, errs.IsNameResolution(p.Associate("missingTask")))
	})
}

func TestProcess_Freeze(t *testing.T) {
	p := newTestProcess(t)
	p.Freeze()
	require.True(t, p.Frozen())

	mutations := map[string]func() error{
		"AddStage": func() error {
			return p.AddStage(&Stage{Label: "x", Plugin: "ProductProducer", Kind: KindProducer})
		},
		"AddSequence":  func() error { return p.AddSequence("s", nil) },
		"AddTask":      func() error { return p.AddTask("t", nil) },
		"AddOutput":    func() error { return p.AddOutput(&OutputModule{Label: "o"}) },
		"AddPath":      func() error { return p.AddPath("p", nil) },
		"AddEndPath":   func() error { return p.AddEndPath("e", nil) },
		"SetSchedule":  func() error { return p.SetSchedule(nil) },
		"Associate":    func() error { return p.Associate("patTask") },
		"SetParam":     func() error { return p.SetParam("reco", "x", cty.True) },
		"SetOptions":   func() error { return p.SetOptions(DefaultOptions()) },
		"SetMaxEvents": func() error { return p.SetMaxEvents(MaxEvents{Input: 1}) },
		"SetSource":    func() error { return p.SetSource(Source{}) },
		"SetMetadata":  func() error { return p.SetMetadata(Metadata{}) },
		"SetConditions": func() error {
			return p.SetConditions(Conditions{})
		},
		"ReplaceProcessName": func() error {
			_, err := p.ReplaceProcessName("HLT", "reHLT", []string{"recoSeq"}, nil)
			return err
		},
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			err := mutate()
			assert.Equal(t, errs.CodeFrozen, errs.CodeOf(err))
		})
	}

	clone := p.Clone()
	assert.False(t, clone.Frozen())
	assert.NoError(t, clone.SetMaxEvents(MaxEvents{Input: 10}))
	assert.Equal(t, int64(-1), p.MaxEvents().Input)
}

func TestProcess_CloneIsIndependent(t *testing.T) {
	p := newTestProcess(t)
	c := p.Clone()

	require.NoError(t, c.SetParam("reco", "cuts.minPt", cty.NumberIntVal(5)))
	require.NoError(t, c.AddTask("extraTask", []string{"reco"}))
	opts := c.Options()
	opts.Accelerators = append(opts.Accelerators, "gpu-nvidia")
	require.NoError(t, c.SetOptions(opts))

	orig, err := p.Param("reco", "cuts.minPt")
	require.NoError(t, err)
	assert.True(t, orig.RawEquals(cty.NumberIntVal(1)))
	_, ok := p.Lookup("extraTask")
	assert.False(t, ok)
	assert.Equal(t, []string{"*"}, p.Options().Accelerators)
}

func TestProcess_GettersReturnCopies(t *testing.T) {
	p := newTestProcess(t)

	s, err := p.Stage("reco")
	require.NoError(t, err)
	s.Params["injected"] = cty.True
	s.Consumes[0] = inputtag.MustParse("other")

	again, err := p.Stage("reco")
	require.NoError(t, err)
	assert.NotContains(t, again.Params, "injected")
	assert.Equal(t, "rawToDigi", again.Consumes[0].String())

	_, err = p.Stage("missing")
	assert.True(t, errs.IsNameResolution(err))
}

func TestOptions_Streams(t *testing.T) {
	o := DefaultOptions()
	o.NumberOfThreads = 8
	assert.Equal(t, 8, o.Streams())
	o.NumberOfStreams = 2
	assert.Equal(t, 2, o.Streams())
}
