package safety

// Risk maps a raw value on f's scale to a risk in [0,1], where 1 is worst.
func Risk(f Factor, v float64, crowd CrowdCurve) float64 {
	s := ScaleOf(f)
	if s.Max <= 0 {
		return 0
	}
	x := clamp01(v / s.Max)
	switch s.Kind {
	case Quality, Presence:
		return 1 - x
	case UShaped:
		return crowdRisk(v, s.Max, crowd)
	default: // Severity, Distance
		return x
	}
}

// crowdRisk rises linearly from 0 at the ideal density to EmptyRisk at 0 and
// to CrowdedRisk at hi.
func crowdRisk(v, hi float64, c CrowdCurve) float64 {
	switch {
	case v < c.Ideal:
		return clamp01(c.EmptyRisk * (c.Ideal - v) / c.Ideal)
	case v > c.Ideal:
		return clamp01(c.CrowdedRisk * (v - c.Ideal) / (hi - c.Ideal))
	}
	return 0
}

// worstRisk is the highest risk f can reach.
func worstRisk(f Factor, crowd CrowdCurve) float64 {
	if ScaleOf(f).Kind == UShaped {
		return max(crowd.EmptyRisk, crowd.CrowdedRisk)
	}
	return 1
}

// Contribution is one factor's share of an edge weight.
type Contribution struct {
	Factor     Factor  `json:"factor"`
	Raw        float64 `json:"raw"`
	Present    bool    `json:"present"`
	Risk       float64 `json:"risk"`
	Base       float64 `json:"base"`
	Importance float64 `json:"importance"`
	TimeMult   float64 `json:"time_mult"`
	Value      float64 `json:"value"` // risk x base x importance x time_mult, after any cap
	Capped     bool    `json:"capped,omitempty"`
}

// Breakdown explains how a weight was computed.
type Breakdown struct {
	Mode          string         `json:"mode"`
	Time          string         `json:"time"`
	Contributions []Contribution `json:"contributions"`
	Sum           float64        `json:"sum"`     // after per-factor caps
	Overall       float64        `json:"overall"` // time multiplier applied to Sum
	Scaled        float64        `json:"scaled"`  // Sum x Overall, after the total cap
	TotalCapped   bool           `json:"total_capped,omitempty"`
	Denominator   float64        `json:"denominator"`
	Weight        float64        `json:"weight"`
}

// Scorer computes safety weights under one validated Config. The
// normalization denominator of every mode is computed once up front.
// A Scorer is immutable and safe for concurrent use.
type Scorer struct {
	cfg   Config
	denom map[string]float64
}

// NewScorer validates cfg and prepares a scorer.
func NewScorer(cfg Config) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.Clone()
	s := &Scorer{cfg: cfg, denom: make(map[string]float64, len(cfg.Profiles))}
	for mode := range cfg.Profiles {
		s.denom[mode] = s.maxAchievable(mode)
	}
	return s, nil
}

// Config returns a copy of the scorer's configuration.
func (s *Scorer) Config() Config { return s.cfg.Clone() }

// Denominator returns the normalization denominator for mode: the highest
// value the pipeline can produce for that mode across all time labels.
func (s *Scorer) Denominator(mode string) float64 { return s.denom[mode] }

// Weight scores one record. mode and time are canonicalized and must be
// configured.
func (s *Scorer) Weight(rec Record, mode, time string) (float64, *Breakdown, error) {
	m, err := s.cfg.ResolveMode(mode)
	if err != nil {
		return 0, nil, err
	}
	t, err := s.cfg.ResolveTime(time)
	if err != nil {
		return 0, nil, err
	}
	bd := s.evaluate(m, t, func(f Factor) (float64, float64, bool) {
		raw, ok := rec[f]
		if !ok {
			return 0, 0, false
		}
		return raw, Risk(f, raw, s.cfg.Crowd), true
	})
	bd.Denominator = s.denom[m]
	if bd.Denominator > 0 {
		bd.Weight = clamp01(bd.Scaled / bd.Denominator)
	}
	return bd.Weight, bd, nil
}

// ComputeWeight scores one record under cfg. Callers scoring many records
// should build a Scorer once instead.
func ComputeWeight(rec Record, mode, time string, cfg Config) (float64, *Breakdown, error) {
	s, err := NewScorer(cfg)
	if err != nil {
		return 0, nil, err
	}
	return s.Weight(rec, mode, time)
}

// evaluate runs steps 1-6 of the weight pipeline; riskOf supplies the raw
// value and risk of each factor.
func (s *Scorer) evaluate(mode, time string, riskOf func(Factor) (raw, risk float64, present bool)) *Breakdown {
	prof := s.cfg.Profiles[mode]
	tm := s.cfg.Times[time]
	bd := &Breakdown{Mode: mode, Time: time, Overall: tm.Overall}

	for _, f := range Factors {
		coef, ok := prof[f]
		if !ok {
			continue
		}
		raw, risk, present := riskOf(f)
		c := Contribution{
			Factor:     f,
			Raw:        raw,
			Present:    present,
			Risk:       risk,
			Base:       coef.Base,
			Importance: coef.Importance,
			TimeMult:   tm.For(f),
		}
		c.Value = risk * coef.Base * coef.Importance * c.TimeMult
		if limit, ok := s.cfg.Caps.Factor[f]; ok && c.Value > limit {
			c.Value, c.Capped = limit, true
		}
		bd.Sum += c.Value
		bd.Contributions = append(bd.Contributions, c)
	}

	bd.Scaled = bd.Sum * tm.Overall
	if total := s.cfg.Caps.Total; total != nil && bd.Scaled > *total {
		bd.Scaled, bd.TotalCapped = *total, true
	}
	return bd
}

func (s *Scorer) maxAchievable(mode string) float64 {
	var best float64
	for t := range s.cfg.Times {
		bd := s.evaluate(mode, t, func(f Factor) (float64, float64, bool) {
			return 0, worstRisk(f, s.cfg.Crowd), true
		})
		best = max(best, bd.Scaled)
	}
	return best
}

func clamp01(x float64) float64 {
	switch {
	case x < 0 || x != x:
		return 0
	case x > 1:
		return 1
	}
	return x
}
