package dump

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	procgridhcl "github.com/specialistvlad/procgrid/internal/hcl"
	"github.com/specialistvlad/procgrid/internal/inputtag"
	"github.com/specialistvlad/procgrid/internal/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

func newTestSnapshot(t *testing.T) process.Snapshot {
	t.Helper()
	p := process.New("reRECO", "Run3")
	require.NoError(t, p.SetMaxEvents(process.MaxEvents{Input: 100}))
	require.NoError(t, p.SetSource(process.Source{Plugin: "PoolSource", FileNames: []string{"file:step2.root"}}))
	require.NoError(t, p.SetConditions(process.Conditions{Requested: "auto:run3_data", Resolved: "140X_dataRun3_v3"}))
	require.NoError(t, p.AddStage(&process.Stage{
		Label:    "reco",
		Type:     "TrackProducer",
		Plugin:   "ProductProducer",
		Kind:     process.KindProducer,
		Consumes: []inputtag.Tag{inputtag.MustParse("rawToDigi")},
		Produces: []inputtag.Declaration{{Type: "recoTracks"}},
		Params: map[string]cty.Value{
			"cuts": cty.ObjectVal(map[string]cty.Value{
				"minPt":  cty.NumberFloatVal(0.9),
				"layers": cty.TupleVal([]cty.Value{cty.NumberIntVal(1), cty.NumberIntVal(2)}),
			}),
			"label": cty.StringVal("generalTracks"),
		},
	}))
	require.NoError(t, p.AddStage(&process.Stage{
		Label: "rawToDigi", Plugin: "ProductProducer", Kind: process.KindProducer,
		Produces: []inputtag.Declaration{{Type: "FEDDigis"}},
	}))
	require.NoError(t, p.AddSequence("recoSeq", []process.Item{{Label: "rawToDigi"}, {Label: "reco"}}))
	require.NoError(t, p.AddTask("recoTask", []string{"reco"}))
	require.NoError(t, p.AddOutput(&process.OutputModule{
		Label: "AODoutput", Plugin: "PoolOutputModule", FileName: "file:step3.root", DataTier: "AOD",
		CompressionAlgorithm: "LZMA", CompressionLevel: 4,
		OutputCommands: []string{"drop *", "keep *_reco_*_*"},
		Params:         map[string]cty.Value{"fastCloning": cty.False},
	}))
	require.NoError(t, p.AddPath("reco_step", []process.Item{{Label: "recoSeq"}}))
	require.NoError(t, p.AddEndPath("AODoutput_step", []process.Item{{Label: "AODoutput"}}))
	require.NoError(t, p.SetSchedule([]string{"reco_step", "AODoutput_step"}))
	require.NoError(t, p.Associate("recoTask"))
	p.Freeze()
	return p.Snapshot()
}

func TestWrite_Deterministic(t *testing.T) {
	snap := newTestSnapshot(t)
	for _, format := range Formats() {
		t.Run(format, func(t *testing.T) {
			var first, second bytes.Buffer
			require.NoError(t, Write(&first, snap, format))
			require.NoError(t, Write(&second, newTestSnapshot(t), format))
			assert.Equal(t, first.String(), second.String())
			assert.NotEmpty(t, first.String())
		})
	}
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, newTestSnapshot(t), FormatJSON))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "reRECO", decoded["name"])
	assert.Equal(t, []any{"reco_step", "AODoutput_step"}, decoded["schedule"])
	assert.Equal(t, float64(100), decoded["max_events"].(map[string]any)["input"])
}

func TestWrite_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, newTestSnapshot(t), FormatYAML))

	var decoded struct {
		Name     string   `yaml:"name"`
		Schedule []string `yaml:"schedule"`
		Stages   []struct {
			Label  string         `yaml:"label"`
			Params map[string]any `yaml:"params"`
		} `yaml:"stages"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "reRECO", decoded.Name)
	assert.Equal(t, []string{"reco_step", "AODoutput_step"}, decoded.Schedule)
	require.Len(t, decoded.Stages, 2)
	assert.Equal(t, "reco", decoded.Stages[1].Label)
	assert.Equal(t, "generalTracks", decoded.Stages[1].Params["label"])
}

func TestWrite_HCLLoadsBack(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, newTestSnapshot(t), FormatHCL))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dump.hcl"), buf.Bytes(), 0o644))

	model, err := procgridhcl.NewLoader(map[string]string{}).Load(context.Background(), dir)
	require.NoError(t, err, buf.String())
	decl := model.Process
	require.NotNil(t, decl)

	assert.Equal(t, "reRECO", decl.Name)
	assert.Equal(t, "Run3", decl.Era)
	assert.Equal(t, int64(100), decl.MaxEvents.Input)
	assert.Equal(t, "140X_dataRun3_v3", decl.Conditions.GlobalTag)
	assert.Equal(t, []string{"reco_step", "AODoutput_step"}, decl.Schedule.Entries)
	assert.Equal(t, []string{"recoTask"}, decl.Schedule.Associate)
	require.Len(t, decl.Stages, 2)
	assert.Equal(t, "TrackProducer", decl.Stages[1].Type)
	minPt, _ := decl.Stages[1].Params["cuts"].GetAttr("minPt").AsBigFloat().Float64()
	assert.InDelta(t, 0.9, minPt, 1e-9)
	require.Len(t, decl.Outputs, 1)
	assert.Equal(t, []string{"drop *", "keep *_reco_*_*"}, decl.Outputs[0].OutputCommands)
	assert.Equal(t, 4, decl.Outputs[0].CompressionLevel)
	require.Len(t, decl.Paths, 2)
	assert.True(t, decl.Paths[1].End)
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, process.Snapshot{}, "xml")
	assert.ErrorContains(t, err, `unknown dump format "xml"`)
}
