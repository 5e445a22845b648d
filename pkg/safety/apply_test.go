package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liaphilip/women-safety-route-finder/pkg/errors"
	"github.com/liaphilip/women-safety-route-finder/pkg/graph"
)

func streetGraph(t *testing.T) *graph.Graph {
	t.Helper()
	doc := graph.Document{
		Nodes: []graph.NodeDoc{{ID: "A"}, {ID: "B"}, {ID: "C"}},
		Edges: []graph.EdgeDoc{
			{ID: "market", U: "A", V: "B", Modes: map[string]map[string]map[string]any{
				ModeWalking: {
					TimeDay:   {"crime": 2, "lighting": 8, "crowd": 5, "cctv": 1},
					TimeNight: {"crime": 5, "lighting": 4, "crowd": 2, "cctv": 1},
				},
			}},
			{ID: "alley", U: "B", V: "C", Modes: map[string]map[string]map[string]any{
				ModeWalking: {
					TimeNight: {"crime": 8, "lighting": 1, "sidewalk": 0, "nearest_police_m": 1400},
				},
			}, Defaults: map[string]any{"road_condition": 3}},
			{ID: "flat", U: "A", V: "C", Attributes: map[string]any{"traffic_density": 9, "accidents": "4"}},
		},
	}
	g, err := graph.ToGraph(doc)
	require.NoError(t, err)
	return g
}

func TestApplyGraphMatchesApplyEdges(t *testing.T) {
	cfg := DefaultConfig()
	ov := &Overrides{Edges: map[string]EdgeOverride{"alley": {All: graph.Block{"cctv": 1}}}}

	for _, mode := range cfg.Modes() {
		for _, tod := range cfg.TimeLabels() {
			g := streetGraph(t)
			edges := make([]graph.Edge, 0, g.EdgeCount())
			for _, e := range g.Edges() {
				edges = append(edges, *e)
			}

			require.NoError(t, ApplyGraph(g, mode, tod, cfg, ov))
			list, err := ApplyEdges(edges, mode, tod, cfg, ov)
			require.NoError(t, err)
			require.Len(t, list, g.EdgeCount())

			for i, iw := range list {
				assert.Equal(t, i, iw.Index)
				e, ok := g.Edge(iw.EdgeID)
				require.True(t, ok)
				w, ok := e.Weight()
				require.True(t, ok)
				assert.Equal(t, w, iw.Weight, "%s %s/%s", iw.EdgeID, mode, tod)
			}
		}
	}
}

func TestApplyGraphStampsKey(t *testing.T) {
	g := streetGraph(t)
	cfg := DefaultConfig()
	require.NoError(t, ApplyGraph(g, "walk", "Night", cfg, nil))

	key := g.WeightKey()
	assert.Equal(t, ModeWalking, key.Mode)
	assert.Equal(t, TimeNight, key.Time)
	assert.NotEmpty(t, key.Profile)

	ov := &Overrides{Edges: map[string]EdgeOverride{"market": {All: graph.Block{"crime": 9}}}}
	require.NoError(t, ApplyGraph(g, ModeWalking, TimeNight, cfg, ov))
	assert.NotEqual(t, key.Profile, g.WeightKey().Profile, "overrides change the key")
}

func TestApplyGraphNightIsRiskier(t *testing.T) {
	cfg := DefaultConfig()
	day, night := streetGraph(t), streetGraph(t)
	require.NoError(t, ApplyGraph(day, ModeWalking, TimeDay, cfg, nil))
	require.NoError(t, ApplyGraph(night, ModeWalking, TimeNight, cfg, nil))

	d, _ := day.Edge("market")
	n, _ := night.Edge("market")
	dw, _ := d.Weight()
	nw, _ := n.Weight()
	assert.Greater(t, nw, dw)
}

func TestApplyGraphErrorLeavesGraphUntouched(t *testing.T) {
	g := streetGraph(t)
	require.NoError(t, ApplyGraph(g, ModeCar, TimeDay, DefaultConfig(), nil))
	key := g.WeightKey()

	err := ApplyGraph(g, "hovercraft", TimeDay, DefaultConfig(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfiguration))
	assert.Equal(t, key, g.WeightKey())
}

func TestMissingModeFallsBackToNeutral(t *testing.T) {
	// "market" has no car block and no defaults: car factors are neutral.
	g := streetGraph(t)
	reports, err := ApplyGraphVerbose(g, ModeCar, TimeNight, DefaultConfig(), nil)
	require.NoError(t, err)

	rep := reports["market"]
	require.NotNil(t, rep)
	assert.Equal(t, BranchNeutral, rep.Diagnostics.Branch)
	assert.Zero(t, rep.Weight)
	assert.Len(t, rep.Diagnostics.Defaulted, len(Factors))

	alley := reports["alley"]
	assert.Equal(t, BranchGlobalDefault, alley.Diagnostics.Branch)
	assert.Greater(t, alley.Weight, 0.0)
	assert.Equal(t, "alley", alley.EdgeID)
}

func TestWeightForEdge(t *testing.T) {
	cfg := DefaultConfig()
	flat := graph.Attributes{Flat: graph.Block{"crime": 10}}

	w, rep, err := WeightForEdge(flat, ModeWalking, TimeNight, cfg, nil, false)
	require.NoError(t, err)
	assert.Nil(t, rep)

	rec := NormalizeFlat(flat.Flat)
	want, _, err := ComputeWeight(rec, ModeWalking, TimeNight, cfg)
	require.NoError(t, err)
	assert.Equal(t, want, w)

	w2, rep, err := WeightForEdge(flat, ModeWalking, TimeNight, cfg,
		&EdgeOverride{All: graph.Block{"crime": 0}}, true)
	require.NoError(t, err)
	require.NotNil(t, rep)
	assert.Zero(t, w2)
	assert.Equal(t, []Factor{Crime}, rep.Diagnostics.Overridden)
	assert.Equal(t, BranchFlat, rep.Diagnostics.Branch)
}
