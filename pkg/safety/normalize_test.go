package safety

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liaphilip/women-safety-route-finder/pkg/graph"
)

func nestedAttrs() graph.Attributes {
	return graph.Attributes{
		Modes: map[string]map[string]graph.Block{
			ModeWalking: {
				TimeDay:   {"crime": 2.0, "lighting": 8.0},
				TimeNight: {"crime": 6.0, "lighting": 2.0},
			},
			ModeTwoWheeler: {
				TimeDay: {"traffic_density": 7.0},
			},
		},
		Defaults: graph.Block{"road_condition": 5.0},
	}
}

func TestNormalizeLookupBranches(t *testing.T) {
	tests := []struct {
		name   string
		attrs  graph.Attributes
		mode   string
		time   string
		branch Branch
		want   Record
	}{
		{"exact", nestedAttrs(), ModeWalking, TimeNight, BranchExact, Record{Crime: 6, Lighting: 2}},
		{"mode default time", nestedAttrs(), ModeTwoWheeler, TimeNight, BranchModeDefault, Record{Traffic: 7}},
		{"global defaults", nestedAttrs(), ModeCar, TimeNight, BranchGlobalDefault, Record{RoadCondition: 5}},
		{"neutral", graph.Attributes{}, ModeCar, TimeDay, BranchNeutral, Record{}},
		{"flat", graph.Attributes{Flat: graph.Block{"cctv": true}}, ModeCar, TimeNight, BranchFlat, Record{CCTV: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, d := NormalizeVerbose(tt.attrs, tt.mode, tt.time, nil)
			assert.Equal(t, tt.branch, d.Branch)
			assert.Equal(t, tt.want, rec)
		})
	}
}

func TestNormalizeDiagnostics(t *testing.T) {
	attrs := graph.Attributes{Flat: graph.Block{
		"crime":    14.0,  // clamped to 10
		"lighting": "7.5", // numeric string
		"cctv":     "yes", // not numeric, dropped
		"colour":   "red", // unknown factor, dropped
	}}

	rec, d := NormalizeVerbose(attrs, ModeWalking, TimeDay, nil)
	assert.Equal(t, Record{Crime: 10, Lighting: 7.5}, rec)
	assert.Equal(t, []Factor{Crime}, d.Clamped)
	assert.Equal(t, []string{"cctv", "colour"}, d.Dropped)
	assert.Contains(t, d.Defaulted, CCTV)
	assert.NotContains(t, d.Defaulted, Crime)
	assert.Len(t, d.Defaulted, len(Factors)-2)

	// Diagnostics never change the record.
	assert.Equal(t, rec, Normalize(attrs, ModeWalking, TimeDay, nil))
}

func TestNormalizeClampedFollowsFinalLayer(t *testing.T) {
	attrs := graph.Attributes{
		Base: graph.Block{"crime": 14.0, "lighting": 20.0, "traffic": 3.0},
		Modes: map[string]map[string]graph.Block{
			ModeWalking: {TimeDay: {"crime": 6.0, "lighting": -3.0}},
		},
	}
	rec, d := NormalizeVerbose(attrs, ModeWalking, TimeDay, nil)
	assert.Equal(t, 6.0, rec[Crime])
	assert.Equal(t, 0.0, rec[Lighting])
	assert.Equal(t, []Factor{Lighting}, d.Clamped, "crime was replaced by an in-range value")

	ov := &EdgeOverride{All: graph.Block{"lighting": 4.0, "traffic": 30.0}}
	rec, d = NormalizeVerbose(attrs, ModeWalking, TimeDay, ov)
	assert.Equal(t, 4.0, rec[Lighting])
	assert.Equal(t, 10.0, rec[Traffic])
	assert.Equal(t, []Factor{Traffic}, d.Clamped)
}

func TestNormalizeFlatAliases(t *testing.T) {
	rec := NormalizeFlat(graph.Block{
		"Crowd":              4,
		"nearest_police_m":   int32(300),
		"Shops-Visibility":   json.Number("6"),
		"stray animice":      int64(3),
		"accidents_reported": 2.0,
		"traffic":            5.0,
		"traffic_density":    9.0, // alias loses against canonical key
	})
	assert.Equal(t, Record{
		CrowdDensity:    4,
		PoliceProximity: 300,
		ShopVisibility:  6,
		StrayAnimals:    3,
		AccidentHistory: 2,
		Traffic:         5,
	}, rec)
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		in   any
		want float64
		ok   bool
	}{
		{3.5, 3.5, true},
		{float32(2), 2, true},
		{7, 7, true},
		{uint(4), 4, true},
		{true, 1, true},
		{false, 0, true},
		{json.Number("1.25"), 1.25, true},
		{" 8 ", 8, true},
		{"true", 1, true},
		{"n/a", 0, false},
		{math.NaN(), 0, false},
		{math.Inf(1), 0, false},
		{"NaN", 0, false},
		{nil, 0, false},
		{[]int{1}, 0, false},
	}
	for _, tt := range tests {
		got, ok := coerce(tt.in)
		assert.Equal(t, tt.ok, ok, "coerce(%v)", tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, "coerce(%v)", tt.in)
		}
	}
}

func TestNormalizeOverrides(t *testing.T) {
	ov := &EdgeOverride{
		All: graph.Block{"crime": 1.0, "cctv": 1},
		Modes: map[string]map[string]graph.Block{
			ModeWalking: {TimeNight: {"crime": 9.0}},
		},
	}

	rec, d := NormalizeVerbose(nestedAttrs(), ModeWalking, TimeNight, ov)
	assert.Equal(t, 9.0, rec[Crime], "mode/time override is applied last")
	assert.Equal(t, 1.0, rec[CCTV])
	assert.Equal(t, 2.0, rec[Lighting], "untouched factors keep the stored value")
	assert.Equal(t, []Factor{CCTV, Crime}, d.Overridden)

	rec = Normalize(nestedAttrs(), ModeWalking, TimeDay, ov)
	assert.Equal(t, 1.0, rec[Crime], "All applies when no mode/time override matches")
}

func TestNormalizeBaseUnderlay(t *testing.T) {
	attrs := graph.Attributes{
		Modes: map[string]map[string]graph.Block{
			ModeWalking: {TimeDay: {"crime": 3.0}},
			ModeCar:     {TimeDay: {"nearest_police_m": 100.0}},
		},
		Base: graph.Block{"nearest_police_m": 900.0},
	}
	assert.Equal(t, 900.0, Normalize(attrs, ModeWalking, TimeDay, nil)[PoliceProximity])
	assert.Equal(t, 100.0, Normalize(attrs, ModeCar, TimeDay, nil)[PoliceProximity])
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	attrs := nestedAttrs()
	attrs.Modes[ModeWalking][TimeNight]["crime"] = "12"
	before := attrs.Clone()
	ov := &EdgeOverride{All: graph.Block{"lighting": -3}}

	_, _ = NormalizeVerbose(attrs, ModeWalking, TimeNight, ov)
	_ = NormalizeFlat(attrs.Defaults)

	require.Equal(t, before, attrs)
	assert.Equal(t, graph.Block{"lighting": -3}, ov.All)
}

func TestParseFactor(t *testing.T) {
	f, ok := ParseFactor("Police-M")
	require.True(t, ok)
	assert.Equal(t, PoliceProximity, f)

	_, ok = ParseFactor("weather")
	assert.False(t, ok)
}

func TestCanonicalMode(t *testing.T) {
	for in, want := range map[string]string{
		"Driving":     ModeCar,
		"bike":        ModeTwoWheeler,
		"two-wheeler": ModeTwoWheeler,
		"scooter":     ModeTwoWheeler,
		" walk ":      ModeWalking,
		"car":         ModeCar,
		"boat":        "boat",
	} {
		assert.Equal(t, want, CanonicalMode(in), in)
	}
}
