package safety

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liaphilip/women-safety-route-finder/pkg/errors"
)

// worstRecord drives every factor to its highest risk.
func worstRecord() Record {
	return Record{
		Crime: 10, Lighting: 0, CCTV: 0, CrowdDensity: 0, PoliceProximity: PoliceCap,
		Sidewalk: 0, ShopVisibility: 0, StrayAnimals: 10, RoadCondition: 0,
		Traffic: 10, AccidentHistory: 10, TrafficBehavior: 10, ParkingSafety: 0,
	}
}

func TestComputeWeightExtremes(t *testing.T) {
	cfg := DefaultConfig()
	for _, mode := range cfg.Modes() {
		for _, tod := range cfg.TimeLabels() {
			w, _, err := ComputeWeight(Record{}, mode, tod, cfg)
			require.NoError(t, err)
			assert.Zero(t, w, "neutral record %s/%s", mode, tod)
		}
	}

	// Night dominates with the default table, so the worst record reaches 1.0 there.
	w, bd, err := ComputeWeight(worstRecord(), ModeWalking, TimeNight, cfg)
	require.NoError(t, err)
	assert.Equal(t, 1.0, w)
	assert.Equal(t, bd.Denominator, bd.Scaled)

	day, _, err := ComputeWeight(worstRecord(), ModeWalking, TimeDay, cfg)
	require.NoError(t, err)
	assert.Less(t, day, 1.0)
}

func TestComputeWeightKnownValue(t *testing.T) {
	// walking denominator: night, sum of bases with crime x1.8, lighting x2.5,
	// traffic x1.0 = 21.9, times overall 1.2.
	const denom = 21.9 * 1.2
	w, bd, err := ComputeWeight(Record{Crime: 10}, ModeWalking, TimeNight, DefaultConfig())
	require.NoError(t, err)
	assert.InDelta(t, denom, bd.Denominator, 1e-9)
	assert.InDelta(t, 2.5*1.8*1.2/denom, w, 1e-9)
}

func TestNightRiskierThanDayPerFactor(t *testing.T) {
	cfg := DefaultConfig()
	for _, mode := range cfg.Modes() {
		for _, f := range Factors {
			rec := worstRecord()
			for _, other := range Factors {
				if other != f {
					delete(rec, other)
				}
			}
			day, _, err := ComputeWeight(rec, mode, TimeDay, cfg)
			require.NoError(t, err)
			night, _, err := ComputeWeight(rec, mode, TimeNight, cfg)
			require.NoError(t, err)
			assert.Greater(t, night, day, "%s/%s", mode, f)
		}
	}

	// Traffic is the one factor whose own night multiplier is the smallest.
	day, _, err := ComputeWeight(Record{Traffic: 10}, ModeCar, TimeDay, cfg)
	require.NoError(t, err)
	night, _, err := ComputeWeight(Record{Traffic: 10}, ModeCar, TimeNight, cfg)
	require.NoError(t, err)
	assert.Greater(t, night, day)
}

func TestValidateRejectsNightBelowDay(t *testing.T) {
	cfg := DefaultConfig()
	night := cfg.Times[TimeNight]
	night.Factors = map[Factor]float64{Crime: 1.8, Lighting: 2.5, Traffic: 0.8}
	cfg.Times[TimeNight] = night

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfiguration))
	assert.Contains(t, err.Error(), "traffic")

	_, _, err = ComputeWeight(Record{Traffic: 10}, ModeCar, TimeNight, cfg)
	assert.True(t, errors.Is(err, errors.ErrCodeConfiguration))

	// Without a day label there is nothing to compare against.
	delete(cfg.Times, TimeDay)
	assert.NoError(t, cfg.Validate())
}

func TestComputeWeightInRange(t *testing.T) {
	cfg := DefaultConfig()
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		rec := make(Record)
		for _, f := range Factors {
			if r.Intn(3) == 0 {
				continue
			}
			rec[f] = r.Float64() * ScaleOf(f).Max
		}
		for _, mode := range cfg.Modes() {
			for _, tod := range cfg.TimeLabels() {
				w, _, err := ComputeWeight(rec, mode, tod, cfg)
				require.NoError(t, err)
				require.GreaterOrEqual(t, w, 0.0)
				require.LessOrEqual(t, w, 1.0)
			}
		}
	}
}

func TestCrowdDensityIsUShaped(t *testing.T) {
	cfg := DefaultConfig()
	weight := func(density float64) float64 {
		w, _, err := ComputeWeight(Record{CrowdDensity: density, Crime: 4}, ModeWalking, TimeDay, cfg)
		require.NoError(t, err)
		return w
	}
	empty, ideal, packed := weight(0), weight(cfg.Crowd.Ideal), weight(10)
	assert.Greater(t, empty, ideal)
	assert.Greater(t, packed, ideal)
	assert.Greater(t, empty, packed, "an empty street is riskier than a packed one")

	assert.Zero(t, Risk(CrowdDensity, 5, cfg.Crowd))
	assert.InDelta(t, 0.5, Risk(CrowdDensity, 2.5, cfg.Crowd), 1e-12)
	assert.InDelta(t, 0.7, Risk(CrowdDensity, 10, cfg.Crowd), 1e-12)
}

func TestRiskDirections(t *testing.T) {
	c := DefaultConfig().Crowd
	tests := []struct {
		f    Factor
		v    float64
		want float64
	}{
		{Crime, 3, 0.3},
		{Lighting, 3, 0.7},
		{CCTV, 1, 0},
		{CCTV, 0, 1},
		{Sidewalk, 1, 0},
		{PoliceProximity, 0, 0},
		{PoliceProximity, 750, 0.5},
		{PoliceProximity, 5000, 1},
		{ParkingSafety, 10, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Risk(tt.f, tt.v, c), 1e-12, "Risk(%s, %v)", tt.f, tt.v)
	}
}

func TestComputeWeightIsPure(t *testing.T) {
	rec := Record{Crime: 7, Lighting: 3, CrowdDensity: 9}
	before := rec.Clone()
	cfg := DefaultConfig()

	first, _, err := ComputeWeight(rec, ModeTwoWheeler, TimeNight, cfg)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, _, err := ComputeWeight(rec, ModeTwoWheeler, TimeNight, cfg)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, before, rec)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestComputeWeightConfigurationErrors(t *testing.T) {
	badImportance := DefaultConfig()
	badImportance.Profiles[ModeCar][Crime] = Coefficient{Base: 1, Importance: 1.5}

	negBase := DefaultConfig()
	negBase.Profiles[ModeWalking][Lighting] = Coefficient{Base: -1, Importance: 1}

	zeroCap := DefaultConfig()
	zeroCap.Caps.Factor = map[Factor]float64{Crime: 0}

	negTotal := DefaultConfig()
	total := -2.0
	negTotal.Caps.Total = &total

	noModes := DefaultConfig()
	noModes.Profiles = nil

	tests := []struct {
		name string
		cfg  Config
		mode string
		time string
	}{
		{"unknown mode", DefaultConfig(), "boat", TimeDay},
		{"unknown time", DefaultConfig(), ModeCar, "dusk"},
		{"importance out of range", badImportance, ModeCar, TimeDay},
		{"negative base", negBase, ModeWalking, TimeDay},
		{"zero factor cap", zeroCap, ModeWalking, TimeDay},
		{"negative total cap", negTotal, ModeWalking, TimeDay},
		{"no profiles", noModes, ModeWalking, TimeDay},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, bd, err := ComputeWeight(Record{Crime: 5}, tt.mode, tt.time, tt.cfg)
			require.Error(t, err)
			assert.Nil(t, bd)
			assert.True(t, errors.Is(err, errors.ErrCodeConfiguration), "got %v", err)
		})
	}
}

func TestComputeWeightModeAliases(t *testing.T) {
	cfg := DefaultConfig()
	rec := Record{Traffic: 8, AccidentHistory: 6}
	want, _, err := ComputeWeight(rec, ModeCar, TimeDay, cfg)
	require.NoError(t, err)
	got, bd, err := ComputeWeight(rec, "Driving", "DAY", cfg)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, ModeCar, bd.Mode)
	assert.Equal(t, TimeDay, bd.Time)
}

func TestCaps(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Caps.Factor = map[Factor]float64{Crime: 1}
	_, bd, err := ComputeWeight(Record{Crime: 10, Lighting: 0}, ModeWalking, TimeNight, cfg)
	require.NoError(t, err)
	for _, c := range bd.Contributions {
		if c.Factor == Crime {
			assert.True(t, c.Capped)
			assert.Equal(t, 1.0, c.Value)
		}
	}

	total := 2.0
	cfg.Caps.Total = &total
	w, bd, err := ComputeWeight(worstRecord(), ModeWalking, TimeNight, cfg)
	require.NoError(t, err)
	assert.True(t, bd.TotalCapped)
	assert.Equal(t, 2.0, bd.Denominator)
	assert.Equal(t, 1.0, w, "worst case still normalizes to 1 under caps")
}

func TestZeroImportanceGivesZeroWeight(t *testing.T) {
	cfg := DefaultConfig()
	p := cfg.Profiles[ModeCar]
	for f, c := range p {
		c.Importance = 0
		p[f] = c
	}
	w, bd, err := ComputeWeight(worstRecord(), ModeCar, TimeNight, cfg)
	require.NoError(t, err)
	assert.Zero(t, bd.Denominator)
	assert.Zero(t, w)
}

func TestProfileCustomize(t *testing.T) {
	p := DefaultConfig().Profiles[ModeWalking]
	out, err := p.Customize(Customization{
		Importance: map[Factor]float64{Crime: 0.25},
		Base:       map[Factor]float64{Lighting: 4},
		Scale:      map[Factor]float64{Lighting: 0.5, CCTV: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, Coefficient{Base: 2.5, Importance: 0.25}, out[Crime])
	assert.Equal(t, Coefficient{Base: 2, Importance: 1}, out[Lighting])
	assert.InDelta(t, 3.2, out[CCTV].Base, 1e-12)
	assert.Equal(t, 1.0, p[Crime].Importance, "original profile untouched")

	_, err = p.Customize(Customization{Importance: map[Factor]float64{Crime: 2}})
	assert.True(t, errors.Is(err, errors.ErrCodeConfiguration))
	_, err = p.Customize(Customization{Base: map[Factor]float64{Crime: -1}})
	assert.True(t, errors.Is(err, errors.ErrCodeConfiguration))
}

func TestProfilePrioritize(t *testing.T) {
	p := DefaultConfig().Profiles[ModeWalking]
	out := p.Prioritize([]Factor{Lighting}, 0.5)
	assert.Equal(t, 1.0, out[Lighting].Importance)
	assert.Equal(t, 0.5, out[Crime].Importance)
	assert.Equal(t, p[Crime].Base, out[Crime].Base)

	cfg := DefaultConfig().WithProfile(ModeWalking, out)
	rec := Record{Lighting: 0, Crime: 10}
	bd := func(c Config) *Breakdown {
		_, b, err := ComputeWeight(rec, ModeWalking, TimeNight, c)
		require.NoError(t, err)
		return b
	}
	base, prio := bd(DefaultConfig()), bd(cfg)
	share := func(b *Breakdown, f Factor) float64 {
		for _, c := range b.Contributions {
			if c.Factor == f {
				return c.Value / b.Sum
			}
		}
		return 0
	}
	assert.Greater(t, share(prio, Lighting), share(base, Lighting))
}

func TestFingerprint(t *testing.T) {
	a := DefaultConfig()
	b := DefaultConfig()
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	b.Crowd.Ideal = 4
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	assert.Len(t, a.Fingerprint(), 12)
}
