package config

import (
	"maps"
	"slices"

	"github.com/liaphilip/women-safety-route-finder/pkg/errors"
	"github.com/liaphilip/women-safety-route-finder/pkg/safety"
)

// ScoringConfig adjusts the preset scorer tables. Factor names accept the
// same aliases as edge data ("crowd", "nearest_police_m", ...).
type ScoringConfig struct {
	// Profiles maps a mode to per-factor coefficient changes. A mode that
	// has no preset starts from an empty profile.
	Profiles map[string]map[string]CoefficientConfig `toml:"profiles"`
	// Times maps a time label to multiplier changes. New labels start at an
	// overall multiplier of 1.
	Times map[string]TimeConfig `toml:"times"`
	Caps  CapsConfig            `toml:"caps"`
	Crowd CrowdConfig           `toml:"crowd"`

	PriorityDamping *float64 `toml:"priority_damping"`
}

// CoefficientConfig changes one factor of a profile. Unset fields keep
// the preset value.
type CoefficientConfig struct {
	Base       *float64 `toml:"base"`
	Importance *float64 `toml:"importance"`
}

// TimeConfig changes one time-of-day multiplier.
type TimeConfig struct {
	Overall *float64           `toml:"overall"`
	Factors map[string]float64 `toml:"factors"`
}

// CapsConfig sets contribution ceilings.
type CapsConfig struct {
	Factor map[string]float64 `toml:"factor"`
	Total  *float64           `toml:"total"`
}

// CrowdConfig reshapes the crowd density curve.
type CrowdConfig struct {
	Ideal       *float64 `toml:"ideal"`
	EmptyRisk   *float64 `toml:"empty_risk"`
	CrowdedRisk *float64 `toml:"crowded_risk"`
}

// Safety returns the effective scorer configuration: the presets with the
// [scoring] table merged in. The result is validated.
func (c *Config) Safety() (safety.Config, error) {
	const op = "config.Safety"
	s := c.Scoring
	out := safety.DefaultConfig()

	for _, mode := range slices.Sorted(maps.Keys(s.Profiles)) {
		m := safety.CanonicalMode(mode)
		p := out.Profiles[m].Clone()
		if p == nil {
			p = make(safety.Profile)
		}
		changes := s.Profiles[mode]
		for _, name := range slices.Sorted(maps.Keys(changes)) {
			f, ok := safety.ParseFactor(name)
			if !ok {
				return safety.Config{}, errors.Configuration(op, "profile %q: unknown factor %q", mode, name)
			}
			coef, exists := p[f]
			if !exists {
				coef.Importance = 1
			}
			if v := changes[name].Base; v != nil {
				coef.Base = *v
			}
			if v := changes[name].Importance; v != nil {
				coef.Importance = *v
			}
			p[f] = coef
		}
		out.Profiles[m] = p
	}

	for _, label := range slices.Sorted(maps.Keys(s.Times)) {
		tc := s.Times[label]
		tm, ok := out.Times[label]
		if !ok {
			tm = safety.TimeMultiplier{Overall: 1}
		}
		tm.Factors = maps.Clone(tm.Factors)
		if tc.Overall != nil {
			tm.Overall = *tc.Overall
		}
		factors, err := parseFactorMap(op, "time "+label, tc.Factors)
		if err != nil {
			return safety.Config{}, err
		}
		if len(factors) > 0 && tm.Factors == nil {
			tm.Factors = make(map[safety.Factor]float64, len(factors))
		}
		maps.Copy(tm.Factors, factors)
		out.Times[label] = tm
	}

	caps, err := parseFactorMap(op, "caps", s.Caps.Factor)
	if err != nil {
		return safety.Config{}, err
	}
	if len(caps) > 0 {
		out.Caps.Factor = caps
	}
	if s.Caps.Total != nil {
		total := *s.Caps.Total
		out.Caps.Total = &total
	}

	if s.Crowd.Ideal != nil {
		out.Crowd.Ideal = *s.Crowd.Ideal
	}
	if s.Crowd.EmptyRisk != nil {
		out.Crowd.EmptyRisk = *s.Crowd.EmptyRisk
	}
	if s.Crowd.CrowdedRisk != nil {
		out.Crowd.CrowdedRisk = *s.Crowd.CrowdedRisk
	}
	if s.PriorityDamping != nil {
		out.PriorityDamping = *s.PriorityDamping
	}

	if err := out.Validate(); err != nil {
		return safety.Config{}, err
	}
	return out, nil
}

func parseFactorMap(op, where string, in map[string]float64) (map[safety.Factor]float64, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[safety.Factor]float64, len(in))
	for name, v := range in {
		f, ok := safety.ParseFactor(name)
		if !ok {
			return nil, errors.Configuration(op, "%s: unknown factor %q", where, name)
		}
		out[f] = v
	}
	return out, nil
}
