package inputtag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		expected Tag
		wantErr  bool
	}{
		{name: "label only", raw: "offlinePrimaryVertices", expected: Tag{Label: "offlinePrimaryVertices"}},
		{name: "label and instance", raw: "hltGtStage2Digis:EGamma", expected: Tag{Label: "hltGtStage2Digis", Instance: "EGamma"}},
		{name: "skipped instance", raw: "TriggerResults::HLT", expected: Tag{Label: "TriggerResults", Process: "HLT"}},
		{name: "fully qualified", raw: "a:b:c", expected: Tag{Label: "a", Instance: "b", Process: "c"}},
		{name: "empty", raw: "", wantErr: true},
		{name: "too many parts", raw: "a:b:c:d", wantErr: true},
		{name: "underscore in label", raw: "bad_label", wantErr: true},
		{name: "leading digit", raw: "1abc", wantErr: true},
		{name: "bad instance", raw: "a:b-c", wantErr: true},
		{name: "bad process", raw: "a::H.LT", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tag, err := Parse(tc.raw)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, tag)
		})
	}
}

func TestTag_RoundTrip(t *testing.T) {
	for _, raw := range []string{"a", "a:b", "a::c", "a:b:c"} {
		t.Run(raw, func(t *testing.T) {
			tag, err := Parse(raw)
			require.NoError(t, err)
			assert.Equal(t, raw, tag.String())

			again, err := Parse(tag.String())
			require.NoError(t, err)
			assert.True(t, tag.Equal(again))
		})
	}
}

func TestTag_WithProcess(t *testing.T) {
	tag := MustParse("TriggerResults::HLT")
	re := tag.WithProcess("reHLT")

	assert.Equal(t, "TriggerResults::reHLT", re.String())
	assert.Equal(t, "HLT", tag.Process, "original must be untouched")
}

func TestTag_Matches(t *testing.T) {
	p := Product{Type: "recoVertexs", Label: "offlinePrimaryVertices", Process: "RECO"}

	assert.True(t, MustParse("offlinePrimaryVertices").Matches(p))
	assert.True(t, MustParse("offlinePrimaryVertices::RECO").Matches(p))
	assert.False(t, MustParse("offlinePrimaryVertices::HLT").Matches(p))
	assert.False(t, MustParse("offlinePrimaryVertices:WithBS").Matches(p))
}

func TestLooksLikeTag(t *testing.T) {
	assert.True(t, LooksLikeTag("TriggerResults::HLT"))
	assert.True(t, LooksLikeTag("hltGtStage2Digis:EGamma:HLT"))
	assert.False(t, LooksLikeTag("HLT"))
	assert.False(t, LooksLikeTag("TriggerResults"))
	assert.False(t, LooksLikeTag("some text: with colons: here"))
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParse("") })
}
