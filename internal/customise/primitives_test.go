package customise

import (
	"context"
	"testing"

	"github.com/specialistvlad/procgrid/internal/errs"
	"github.com/specialistvlad/procgrid/internal/process"
	"github.com/specialistvlad/procgrid/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func newTestRegistry() *registry.Registry {
	r := registry.New()
	Module{}.Register(r)
	return r
}

func runPrimitive(t *testing.T, name string, args map[string]cty.Value) (*process.Process, error) {
	t.Helper()
	prim, err := newTestRegistry().Primitive(name)
	require.NoError(t, err)
	p, err := prim.Fn(context.Background(), newTestProcess(t), args)
	if err != nil {
		return nil, err
	}
	require.NoError(t, p.Validate())
	return p, nil
}

func plainParam(t *testing.T, p *process.Process, label, path string) any {
	t.Helper()
	v, err := p.Param(label, path)
	require.NoError(t, err)
	return process.PlainValue(v)
}

func TestModule_RegistersPrimitives(t *testing.T) {
	assert.Equal(t, []string{
		"associate_task",
		"early_delete",
		"log_error_harvester",
		"process_name_replace",
		"schedule_append",
		"set",
	}, newTestRegistry().Primitives())
}

func TestSet(t *testing.T) {
	t.Run("single parameter", func(t *testing.T) {
		res, err := runPrimitive(t, "set", map[string]cty.Value{
			"label": cty.StringVal("reco"),
			"param": cty.StringVal("cuts.minPt"),
			"value": cty.NumberFloatVal(2.5),
		})
		require.NoError(t, err)
		assert.Equal(t, 2.5, plainParam(t, res, "reco", "cuts.minPt"))
	})

	t.Run("several parameters", func(t *testing.T) {
		res, err := runPrimitive(t, "set", map[string]cty.Value{
			"label": cty.StringVal("AODoutput"),
			"values": cty.ObjectVal(map[string]cty.Value{
				"eventAutoFlushCompressedSize": cty.NumberIntVal(31457280),
				"fastCloning":                  cty.False,
			}),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(31457280), plainParam(t, res, "AODoutput", "eventAutoFlushCompressedSize"))
		assert.Equal(t, false, plainParam(t, res, "AODoutput", "fastCloning"))
	})

	testCases := []struct {
		name string
		args map[string]cty.Value
		code errs.Code
	}{
		{
			name: "param without value",
			args: map[string]cty.Value{"label": cty.StringVal("reco"), "param": cty.StringVal("x")},
			code: errs.CodeInvalidConfig,
		},
		{
			name: "nothing to set",
			args: map[string]cty.Value{"label": cty.StringVal("reco")},
			code: errs.CodeInvalidConfig,
		},
		{
			name: "unknown label",
			args: map[string]cty.Value{"label": cty.StringVal("ghost"), "param": cty.StringVal("x"), "value": cty.True},
			code: errs.CodeNameResolution,
		},
		{
			name: "values is not an object",
			args: map[string]cty.Value{"label": cty.StringVal("reco"), "values": cty.StringVal("x")},
			code: errs.CodeInvalidConfig,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := runPrimitive(t, "set", tc.args)
			require.Error(t, err)
			assert.Equal(t, tc.code, errs.CodeOf(err))
		})
	}
}

func TestProcessNameReplace(t *testing.T) {
	res, err := runPrimitive(t, "process_name_replace", map[string]cty.Value{
		"from":      cty.StringVal("HLT"),
		"to":        cty.StringVal("reHLT"),
		"sequences": cty.TupleVal([]cty.Value{cty.StringVal("dqmSeq")}),
		"whitelist": cty.TupleVal([]cty.Value{cty.StringVal("subSystemFolder")}),
	})
	require.NoError(t, err)

	s, err := res.Stage("dqmMonitor")
	require.NoError(t, err)
	assert.Equal(t, "TriggerResults::reHLT", s.Consumes[0].String())
	assert.Equal(t, "reHLT", plainParam(t, res, "dqmMonitor", "processName"))
	assert.Equal(t, "HLT", plainParam(t, res, "dqmMonitor", "subSystemFolder"))
}

func TestAssociateTask(t *testing.T) {
	t.Run("existing task", func(t *testing.T) {
		res, err := runPrimitive(t, "associate_task", map[string]cty.Value{"task": cty.StringVal("recoTask")})
		require.NoError(t, err)
		assert.Equal(t, []string{"recoTask"}, res.Schedule().Associated)
	})

	t.Run("created when missing", func(t *testing.T) {
		res, err := runPrimitive(t, "associate_task", map[string]cty.Value{
			"task":              cty.StringVal("patAlgosToolsTask"),
			"create_if_missing": cty.True,
			"members":           cty.ListVal([]cty.Value{cty.StringVal("pfCandidates")}),
		})
		require.NoError(t, err)
		task, err := res.Task("patAlgosToolsTask")
		require.NoError(t, err)
		assert.Equal(t, []string{"pfCandidates"}, task.Members)
		assert.Equal(t, []string{"patAlgosToolsTask"}, res.Schedule().Associated)
	})

	t.Run("missing without create", func(t *testing.T) {
		_, err := runPrimitive(t, "associate_task", map[string]cty.Value{"task": cty.StringVal("patAlgosToolsTask")})
		assert.True(t, errs.IsNameResolution(err))
	})
}

func TestEarlyDelete(t *testing.T) {
	res, err := runPrimitive(t, "early_delete", map[string]cty.Value{})
	require.NoError(t, err)
	// FEDDigis are consumed by reco; reco products are kept by AODoutput.
	assert.Equal(t, []string{"recoPFCandidates_pfCandidates__reRECO"}, res.Options().CanDeleteEarly)

	res, err = runPrimitive(t, "early_delete", map[string]cty.Value{"enabled": cty.False})
	require.NoError(t, err)
	assert.Empty(t, res.Options().CanDeleteEarly)
}

func TestLogErrorHarvester(t *testing.T) {
	res, err := runPrimitive(t, "log_error_harvester", nil)
	require.NoError(t, err)
	assert.Equal(t, []any{"reco"}, plainParam(t, res, DefaultHarvester, "includeModules"))

	_, err = runPrimitive(t, "log_error_harvester", map[string]cty.Value{"label": cty.StringVal("ghost")})
	assert.True(t, errs.IsNameResolution(err))
}

func TestScheduleAppend(t *testing.T) {
	res, err := runPrimitive(t, "schedule_append", map[string]cty.Value{
		"paths": cty.TupleVal([]cty.Value{cty.StringVal("dqm_step")}),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"raw2digi_step", "reco_step", "AODoutput_step", "dqm_step"}, res.Schedule().Entries)

	_, err = runPrimitive(t, "schedule_append", map[string]cty.Value{
		"paths": cty.TupleVal([]cty.Value{cty.StringVal("reco_step")}),
	})
	assert.True(t, errs.HasCode(err, errs.CodeDuplicateName))
}
