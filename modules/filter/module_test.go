package filter

import (
	"context"
	"testing"

	"github.com/specialistvlad/procgrid/internal/plugin"
	"github.com/specialistvlad/procgrid/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestFilter(t *testing.T) {
	testCases := []struct {
		name   string
		params map[string]cty.Value
		want   []bool
	}{
		{name: "default passes", want: []bool{true, true, true}},
		{name: "reject", params: map[string]cty.Value{"mode": cty.StringVal("reject")}, want: []bool{false, false, false}},
		{
			name:   "every third event",
			params: map[string]cty.Value{"mode": cty.StringVal("modulo"), "modulo": cty.NumberIntVal(3)},
			want:   []bool{false, false, true},
		},
		{
			name: "offset",
			params: map[string]cty.Value{
				"mode": cty.StringVal("modulo"), "modulo": cty.NumberIntVal(3), "offset": cty.NumberIntVal(4),
			},
			want: []bool{true, false, false},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			inst, err := New(plugin.Config{Label: "hltFilter", Params: tc.params})
			require.NoError(t, err)
			f := inst.(*Filter)

			var got []bool
			for n := uint64(1); n <= 3; n++ {
				pass, err := f.Filter(context.Background(), plugin.NewEvent(1, 1, n))
				require.NoError(t, err)
				got = append(got, pass)
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNew_Errors(t *testing.T) {
	_, err := New(plugin.Config{Label: "f", Params: map[string]cty.Value{"mode": cty.StringVal("sometimes")}})
	assert.ErrorContains(t, err, `unknown filter mode "sometimes"`)

	_, err = New(plugin.Config{Label: "f", Params: map[string]cty.Value{
		"mode": cty.StringVal("modulo"), "modulo": cty.NumberIntVal(0),
	}})
	assert.ErrorContains(t, err, "modulo must be positive")
}

func TestRegister(t *testing.T) {
	r := registry.New()
	(&Module{}).Register(r)
	def, err := r.Plugin("EventFilter")
	require.NoError(t, err)
	assert.Contains(t, def.Params, "triggerConditions")
}
