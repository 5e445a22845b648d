package safety

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"maps"
	"slices"
	"strings"

	"github.com/liaphilip/women-safety-route-finder/pkg/errors"
)

// Coefficient weighs one factor within a mode's profile.
type Coefficient struct {
	Base       float64 `json:"base"`       // preset strength, >= 0
	Importance float64 `json:"importance"` // user multiplier in [0,1]
}

// Profile maps the factors relevant to a mode to their coefficients.
// Factors absent from a profile do not apply to that mode.
type Profile map[Factor]Coefficient

// Clone returns a copy of the profile.
func (p Profile) Clone() Profile { return maps.Clone(p) }

// Customization adjusts a profile before scoring.
type Customization struct {
	Importance map[Factor]float64 // replaces importance, must be in [0,1]
	Base       map[Factor]float64 // replaces the base coefficient, must be >= 0
	Scale      map[Factor]float64 // multiplies the base coefficient, must be >= 0
}

// IsZero reports whether c changes nothing.
func (c Customization) IsZero() bool {
	return len(c.Importance) == 0 && len(c.Base) == 0 && len(c.Scale) == 0
}

// Customize returns a new profile with c applied. Base overrides for a factor
// the mode does not use add it with full importance. Scaling is applied after
// base overrides.
func (p Profile) Customize(c Customization) (Profile, error) {
	const op = "safety.Profile.Customize"
	out := p.Clone()
	if out == nil {
		out = make(Profile)
	}
	for _, f := range slices.Sorted(maps.Keys(c.Base)) {
		b := c.Base[f]
		if err := errors.ValidateNonNegative(op, "base for "+string(f), b); err != nil {
			return nil, err
		}
		coef, ok := out[f]
		if !ok {
			coef.Importance = 1
		}
		coef.Base = b
		out[f] = coef
	}
	for _, f := range slices.Sorted(maps.Keys(c.Scale)) {
		m := c.Scale[f]
		if err := errors.ValidateNonNegative(op, "scale for "+string(f), m); err != nil {
			return nil, err
		}
		if coef, ok := out[f]; ok {
			coef.Base *= m
			out[f] = coef
		}
	}
	for _, f := range slices.Sorted(maps.Keys(c.Importance)) {
		imp := c.Importance[f]
		if err := errors.ValidateUnit(op, "importance for "+string(f), imp); err != nil {
			return nil, err
		}
		if coef, ok := out[f]; ok {
			coef.Importance = imp
			out[f] = coef
		}
	}
	return out, nil
}

// Prioritize returns a profile where the listed factors keep full importance
// and every other factor's importance is multiplied by damping.
func (p Profile) Prioritize(factors []Factor, damping float64) Profile {
	out := p.Clone()
	for f, c := range out {
		if slices.Contains(factors, f) {
			c.Importance = 1
		} else {
			c.Importance *= damping
		}
		out[f] = c
	}
	return out
}

// TimeMultiplier scales risk for one time label. Overall multiplies the
// summed contributions; Factors multiplies individual factors.
type TimeMultiplier struct {
	Overall float64            `json:"overall"`
	Factors map[Factor]float64 `json:"factors,omitempty"`
}

// For returns the factor-specific multiplier, 1 when none is set.
func (t TimeMultiplier) For(f Factor) float64 {
	if m, ok := t.Factors[f]; ok {
		return m
	}
	return 1
}

// TimeTable maps time-of-day labels to multipliers.
type TimeTable map[string]TimeMultiplier

// Caps bound contributions before normalization. Nil maps and pointers mean
// no cap.
type Caps struct {
	Factor map[Factor]float64 `json:"factor,omitempty"` // per-factor ceiling on the weighted contribution
	Total  *float64           `json:"total,omitempty"`  // ceiling on the time-scaled sum
}

// CrowdCurve shapes the U-shaped crowd density risk on the 0-10 scale.
type CrowdCurve struct {
	Ideal       float64 `json:"ideal"`        // density with zero risk
	EmptyRisk   float64 `json:"empty_risk"`   // risk at density 0
	CrowdedRisk float64 `json:"crowded_risk"` // risk at density 10
}

// Config is everything the weight calculator needs besides the record.
type Config struct {
	Profiles        map[string]Profile `json:"profiles"`
	Times           TimeTable          `json:"times"`
	Caps            Caps               `json:"caps"`
	Crowd           CrowdCurve         `json:"crowd"`
	PriorityDamping float64            `json:"priority_damping"`
}

// DefaultConfig returns the preset profiles, day/night table and crowd curve.
// All importances start at 1 and no caps are set.
func DefaultConfig() Config {
	preset := func(base map[Factor]float64) Profile {
		p := make(Profile, len(base))
		for f, b := range base {
			p[f] = Coefficient{Base: b, Importance: 1}
		}
		return p
	}
	return Config{
		Profiles: map[string]Profile{
			ModeWalking: preset(map[Factor]float64{
				Crime: 2.5, Lighting: 2.2, CCTV: 1.6, CrowdDensity: 1.6,
				StrayAnimals: 1.2, PoliceProximity: 1.2, Sidewalk: 1.8,
				ShopVisibility: 1.4, RoadCondition: 0.8,
				Traffic: 0.6, AccidentHistory: 0.6, TrafficBehavior: 0.8,
				ParkingSafety: 0.3,
			}),
			ModeTwoWheeler: preset(map[Factor]float64{
				Crime: 1.5, Lighting: 1.4, CCTV: 1.0, CrowdDensity: 0.9,
				StrayAnimals: 1.0, PoliceProximity: 0.8, Sidewalk: 0.2,
				ShopVisibility: 0.6, RoadCondition: 1.6,
				Traffic: 1.7, AccidentHistory: 1.8, TrafficBehavior: 1.9,
				ParkingSafety: 0.2,
			}),
			ModeCar: preset(map[Factor]float64{
				Crime: 0.8, Lighting: 0.9, CCTV: 0.5, CrowdDensity: 0.5,
				StrayAnimals: 0.6, PoliceProximity: 0.5, Sidewalk: 0.1,
				ShopVisibility: 0.3, RoadCondition: 1.8,
				Traffic: 2.0, AccidentHistory: 2.3, TrafficBehavior: 2.2,
				ParkingSafety: 1.2,
			}),
		},
		Times: TimeTable{
			TimeDay: {
				Overall: 1.0,
				Factors: map[Factor]float64{Crime: 0.9, Lighting: 0.8, Traffic: 1.1},
			},
			TimeNight: {
				Overall: 1.2,
				Factors: map[Factor]float64{Crime: 1.8, Lighting: 2.5, Traffic: 1.0},
			},
		},
		Crowd:           CrowdCurve{Ideal: 5, EmptyRisk: 1.0, CrowdedRisk: 0.7},
		PriorityDamping: 0.5,
	}
}

// Modes returns the configured mode names, sorted.
func (c Config) Modes() []string { return slices.Sorted(maps.Keys(c.Profiles)) }

// TimeLabels returns the configured time labels, sorted.
func (c Config) TimeLabels() []string { return slices.Sorted(maps.Keys(c.Times)) }

// Clone returns a deep copy of the configuration.
func (c Config) Clone() Config {
	out := c
	out.Profiles = make(map[string]Profile, len(c.Profiles))
	for m, p := range c.Profiles {
		out.Profiles[m] = p.Clone()
	}
	out.Times = make(TimeTable, len(c.Times))
	for t, tm := range c.Times {
		out.Times[t] = TimeMultiplier{Overall: tm.Overall, Factors: maps.Clone(tm.Factors)}
	}
	out.Caps.Factor = maps.Clone(c.Caps.Factor)
	if c.Caps.Total != nil {
		total := *c.Caps.Total
		out.Caps.Total = &total
	}
	return out
}

// WithProfile returns a copy of c where mode uses p.
func (c Config) WithProfile(mode string, p Profile) Config {
	out := c.Clone()
	out.Profiles[mode] = p
	return out
}

// ResolveMode canonicalizes mode and checks that a profile exists for it.
func (c Config) ResolveMode(mode string) (string, error) {
	m := CanonicalMode(mode)
	if _, ok := c.Profiles[m]; !ok {
		return "", errors.Configuration("safety.ResolveMode", "unknown mode %q (known: %s)",
			mode, strings.Join(c.Modes(), ", "))
	}
	return m, nil
}

// ResolveTime canonicalizes a time label and checks that it is configured.
func (c Config) ResolveTime(time string) (string, error) {
	t := strings.ToLower(strings.TrimSpace(time))
	if _, ok := c.Times[t]; !ok {
		return "", errors.Configuration("safety.ResolveTime", "unknown time of day %q (known: %s)",
			time, strings.Join(c.TimeLabels(), ", "))
	}
	return t, nil
}

// Validate reports the first malformed profile, multiplier or cap.
func (c Config) Validate() error {
	const op = "safety.Config.Validate"
	if len(c.Profiles) == 0 {
		return errors.Configuration(op, "no mode profiles configured")
	}
	if len(c.Times) == 0 {
		return errors.Configuration(op, "no time-of-day multipliers configured")
	}
	for _, mode := range c.Modes() {
		p := c.Profiles[mode]
		for _, f := range slices.Sorted(maps.Keys(p)) {
			if _, ok := scales[f]; !ok {
				return errors.Configuration(op, "mode %q: unknown factor %q", mode, f)
			}
			if err := errors.ValidateNonNegative(op, mode+"."+string(f)+".base", p[f].Base); err != nil {
				return err
			}
			if err := errors.ValidateUnit(op, mode+"."+string(f)+".importance", p[f].Importance); err != nil {
				return err
			}
		}
	}
	for _, label := range c.TimeLabels() {
		tm := c.Times[label]
		if err := errors.ValidateNonNegative(op, label+".overall", tm.Overall); err != nil {
			return err
		}
		for f, m := range tm.Factors {
			if err := errors.ValidateNonNegative(op, label+"."+string(f), m); err != nil {
				return err
			}
		}
	}
	if err := c.validateNightOverDay(op); err != nil {
		return err
	}
	for f, cp := range c.Caps.Factor {
		if err := errors.ValidatePositive(op, "cap for "+string(f), cp); err != nil {
			return err
		}
	}
	if c.Caps.Total != nil {
		if err := errors.ValidatePositive(op, "total cap", *c.Caps.Total); err != nil {
			return err
		}
	}
	cr := c.Crowd
	if !(cr.Ideal > 0 && cr.Ideal < ScaleOf(CrowdDensity).Max) {
		return errors.Configuration(op, "crowd ideal must be within (0,10), got %v", cr.Ideal)
	}
	if err := errors.ValidateUnit(op, "crowd empty_risk", cr.EmptyRisk); err != nil {
		return err
	}
	if err := errors.ValidateUnit(op, "crowd crowded_risk", cr.CrowdedRisk); err != nil {
		return err
	}
	if err := errors.ValidateUnit(op, "priority_damping", c.PriorityDamping); err != nil {
		return err
	}
	return nil
}

// validateNightOverDay requires the night label, when configured next to
// day, to scale every factor strictly above its day value.
func (c Config) validateNightOverDay(op string) error {
	day, okDay := c.Times[TimeDay]
	night, okNight := c.Times[TimeNight]
	if !okDay || !okNight {
		return nil
	}
	for _, f := range Factors {
		d := day.Overall * day.For(f)
		n := night.Overall * night.For(f)
		if n <= d {
			return errors.Configuration(op, "night must raise %s risk over day: %.3g <= %.3g", f, n, d)
		}
	}
	return nil
}

// Fingerprint returns a short stable digest of the configuration, used to
// tell weight sets computed under different coefficients apart.
func (c Config) Fingerprint() string {
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:12]
}
