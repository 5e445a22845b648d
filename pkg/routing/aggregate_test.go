package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liaphilip/women-safety-route-finder/pkg/errors"
)

func TestAggregateMatchesSearch(t *testing.T) {
	g := diamond(t, 100)
	paths, err := KShortestPaths(g, "A", "D", 2)
	require.NoError(t, err)

	for _, p := range paths {
		s, err := Aggregate(g, p.Nodes, AggregateSum)
		require.NoError(t, err)

		var dist, weight float64
		for _, st := range s.Steps {
			dist += st.Distance
			weight += st.Weight
		}
		assert.Equal(t, dist, s.Distance)
		assert.Equal(t, weight, s.Safety)
		assert.Equal(t, p.Distance, s.Distance)
		assert.InDelta(t, p.Safety, s.Safety, 1e-12)
		assert.Equal(t, p.EdgeIDs(), func() []string {
			ids := make([]string, len(s.Steps))
			for i, st := range s.Steps {
				ids[i] = st.EdgeID
			}
			return ids
		}())
	}
}

func TestAggregatePerMeter(t *testing.T) {
	g := diamond(t, 100)
	s, err := Aggregate(g, []string{"A", "C", "D"}, AggregatePerMeter)
	require.NoError(t, err)
	// (0.9*300 + 0.1*50) / 350
	assert.InDelta(t, 275.0/350, s.Safety, 1e-12)
	assert.Equal(t, 350.0, s.Distance)
	assert.Equal(t, AggregatePerMeter, s.Aggregation)

	zero := build(t, []string{"A", "B", "C"}, []testEdge{
		{"ab", "A", "B", 0, 0.2},
		{"bc", "B", "C", 0, 0.6},
	})
	s, err = Aggregate(zero, []string{"A", "B", "C"}, AggregatePerMeter)
	require.NoError(t, err)
	assert.InDelta(t, 0.4, s.Safety, 1e-12, "plain mean when total distance is zero")
}

func TestAggregateBrokenPath(t *testing.T) {
	g := diamond(t, 100)
	s, err := Aggregate(g, []string{"A", "B", "C"}, AggregateSum)
	require.Error(t, err)
	assert.Nil(t, s)
	assert.True(t, errors.Is(err, errors.ErrCodeBrokenPath))
	assert.Contains(t, err.Error(), `"B"`)
	assert.Contains(t, err.Error(), `"C"`)
}

func TestAggregateParallelEdgeChoice(t *testing.T) {
	g := build(t, []string{"A", "B"}, []testEdge{
		{"z-long", "A", "B", 500, 0.3},
		{"short", "A", "B", 100, 0.3},
		{"a-short", "B", "A", 100, 0.3},
		{"risky", "A", "B", 50, 0.8},
	})
	s, err := Aggregate(g, []string{"A", "B"}, "")
	require.NoError(t, err)
	require.Len(t, s.Steps, 1)
	assert.Equal(t, "a-short", s.Steps[0].EdgeID)
	assert.Equal(t, AggregateSum, s.Aggregation)
}

func TestAggregateInputErrors(t *testing.T) {
	g := diamond(t, 100)

	_, err := Aggregate(g, nil, AggregateSum)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	_, err = Aggregate(g, []string{"A", "B"}, "median")
	assert.True(t, errors.Is(err, errors.ErrCodeConfiguration))

	s, err := Aggregate(g, []string{"A"}, AggregatePerMeter)
	assert.Nil(t, s)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "a single node is not a route")
}

func TestSummarizeUsesTraversedEdge(t *testing.T) {
	g := build(t, []string{"A", "B", "C"}, []testEdge{
		{"short", "A", "B", 50, 0.9},
		{"long", "A", "B", 900, 0.1},
		{"bc", "B", "C", 100, 0.2},
	})
	p, err := ShortestPath(g, "A", "C", WithBasis(BasisDistance))
	require.NoError(t, err)
	require.Equal(t, []string{"short", "bc"}, p.EdgeIDs())

	s, err := Summarize(p, AggregateSum)
	require.NoError(t, err)
	assert.InDelta(t, p.Safety, s.Safety, 1e-12)
	assert.InDelta(t, 1.1, s.Safety, 1e-12)
	assert.Equal(t, 150.0, s.Distance)
	assert.Equal(t, "short", s.Steps[0].EdgeID)

	// The node-sequence entry point prefers the safer parallel edge.
	byNodes, err := Aggregate(g, p.Nodes, AggregateSum)
	require.NoError(t, err)
	assert.Equal(t, "long", byNodes.Steps[0].EdgeID)

	s, err = Summarize(p, AggregatePerMeter)
	require.NoError(t, err)
	assert.InDelta(t, (0.9*50+0.2*100)/150, s.Safety, 1e-12)
}

func TestSummarizeErrors(t *testing.T) {
	_, err := Summarize(nil, AggregateSum)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	p := &Path{Nodes: []string{"A", "B"}, Steps: []Step{{EdgeID: "ab", From: "A", To: "B"}}}
	_, err = Summarize(p, "median")
	assert.True(t, errors.Is(err, errors.ErrCodeConfiguration))

	_, err = Summarize(&Path{Nodes: []string{"A", "B", "C"}, Steps: p.Steps}, AggregateSum)
	assert.True(t, errors.Is(err, errors.ErrCodeBrokenPath))

	_, err = Summarize(&Path{Nodes: []string{"A", "C"}, Steps: p.Steps}, AggregateSum)
	assert.True(t, errors.Is(err, errors.ErrCodeBrokenPath))
}

func TestParseHelpers(t *testing.T) {
	for in, want := range map[string]Basis{
		"":         BasisSafety,
		"safest":   BasisSafety,
		"Shortest": BasisDistance,
		"balanced": BasisBlended,
		"blended":  BasisBlended,
	} {
		got, err := ParseBasis(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseBasis("fastest")
	assert.True(t, errors.Is(err, errors.ErrCodeConfiguration))

	agg, err := ParseAggregation("per-meter")
	require.NoError(t, err)
	assert.Equal(t, AggregatePerMeter, agg)
	_, err = ParseAggregation("max")
	assert.Error(t, err)
}
