package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddNode_Idempotent(t *testing.T) {
	g := New()
	g.AddNode("generalTracks")
	g.AddNode("generalTracks")
	g.AddNode("muons")

	assert.Equal(t, 2, g.Len())
	assert.True(t, g.Has("muons"))
	assert.False(t, g.Has("particleFlow"))
}

func TestNeighbours_Sorted(t *testing.T) {
	g := newGraph(t,
		[]string{"pfTracks", "generalTracks", "offlinePrimaryVertices", "beamSpot"},
		[][2]string{
			{"generalTracks", "offlinePrimaryVertices"},
			{"beamSpot", "offlinePrimaryVertices"},
			{"generalTracks", "pfTracks"},
			{"generalTracks", "pfTracks"},
		},
	)

	deps, err := g.Dependencies("offlinePrimaryVertices")
	require.NoError(t, err)
	assert.Equal(t, []string{"beamSpot", "generalTracks"}, deps)

	dependents, err := g.Dependents("generalTracks")
	require.NoError(t, err)
	assert.Equal(t, []string{"offlinePrimaryVertices", "pfTracks"}, dependents)

	_, err = g.Dependencies("missing")
	assert.ErrorContains(t, err, "node not found: missing")
	_, err = g.Dependents("missing")
	assert.ErrorContains(t, err, "node not found: missing")
}

func TestAddEdge_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		from, to string
		wantErr  string
	}{
		{name: "unknown source", from: "dne", to: "a", wantErr: "node not found: dne"},
		{name: "unknown destination", from: "a", to: "dne", wantErr: "node not found: dne"},
		{name: "self edge", from: "a", to: "a", wantErr: `node "a" cannot depend on itself`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := newGraph(t, []string{"a", "b"}, nil)
			assert.EqualError(t, g.AddEdge(tc.from, tc.to), tc.wantErr)
		})
	}
}

func TestDetectCycles(t *testing.T) {
	testCases := []struct {
		name    string
		nodes   []string
		edges   [][2]string
		wantErr string
	}{
		{name: "empty graph"},
		{name: "no edges", nodes: []string{"a", "b", "c"}},
		{
			name:  "dag with transitive edge",
			nodes: []string{"a", "b", "c", "d"},
			edges: [][2]string{{"a", "b"}, {"b", "c"}, {"a", "c"}, {"c", "d"}},
		},
		{
			name:    "direct cycle",
			nodes:   []string{"a", "b"},
			edges:   [][2]string{{"a", "b"}, {"b", "a"}},
			wantErr: "cycle detected: a -> b -> a",
		},
		{
			name:    "longer cycle",
			nodes:   []string{"reconstruction", "muons", "particleFlow", "ak4PFJets"},
			edges:   [][2]string{{"reconstruction", "muons"}, {"muons", "particleFlow"}, {"particleFlow", "reconstruction"}, {"particleFlow", "ak4PFJets"}},
			wantErr: "cycle detected: muons -> particleFlow -> reconstruction -> muons",
		},
		{
			name:    "cycle in a disjoint component",
			nodes:   []string{"a", "b", "x", "y", "z"},
			edges:   [][2]string{{"a", "b"}, {"x", "y"}, {"y", "z"}, {"z", "y"}},
			wantErr: "cycle detected: y -> z -> y",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := newGraph(t, tc.nodes, tc.edges).DetectCycles()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tc.wantErr)
		})
	}
}
