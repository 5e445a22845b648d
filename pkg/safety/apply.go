package safety

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/liaphilip/women-safety-route-finder/pkg/errors"
	"github.com/liaphilip/women-safety-route-finder/pkg/graph"
)

// IndexedWeight is one entry of the pure edge-list result.
type IndexedWeight struct {
	Index  int     `json:"index"`
	EdgeID string  `json:"edge_id"`
	Weight float64 `json:"weight"`
}

// EdgeReport is the verbose result for one edge.
type EdgeReport struct {
	EdgeID      string      `json:"edge_id"`
	Weight      float64     `json:"weight"`
	Breakdown   *Breakdown  `json:"breakdown"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

// EdgeWeight normalizes the attributes of one edge for (mode, time) with ov
// merged on top and scores the result. The report is nil unless verbose.
func (s *Scorer) EdgeWeight(attrs graph.Attributes, mode, time string, ov *EdgeOverride, verbose bool) (float64, *EdgeReport, error) {
	m, err := s.cfg.ResolveMode(mode)
	if err != nil {
		return 0, nil, err
	}
	t, err := s.cfg.ResolveTime(time)
	if err != nil {
		return 0, nil, err
	}
	rec, diag := normalize(attrs, m, t, ov, verbose)
	w, bd, err := s.Weight(rec, m, t)
	if err != nil {
		return 0, nil, err
	}
	if !verbose {
		return w, nil, nil
	}
	return w, &EdgeReport{Weight: w, Breakdown: bd, Diagnostics: diag}, nil
}

// WeightForEdge is the single-edge entry point: it accepts either attribute
// shape, optional per-edge overrides and a diagnostics flag.
func WeightForEdge(attrs graph.Attributes, mode, time string, cfg Config, ov *EdgeOverride, verbose bool) (float64, *EdgeReport, error) {
	s, err := NewScorer(cfg)
	if err != nil {
		return 0, nil, err
	}
	return s.EdgeWeight(attrs, mode, time, ov, verbose)
}

// ApplyEdges scores a list of edges without touching them and returns one
// entry per edge, in input order.
func ApplyEdges(edges []graph.Edge, mode, time string, cfg Config, ov *Overrides) ([]IndexedWeight, error) {
	s, err := NewScorer(cfg)
	if err != nil {
		return nil, err
	}
	return s.ApplyEdges(edges, mode, time, ov)
}

// ApplyEdges is the Scorer form of [ApplyEdges].
func (s *Scorer) ApplyEdges(edges []graph.Edge, mode, time string, ov *Overrides) ([]IndexedWeight, error) {
	out := make([]IndexedWeight, len(edges))
	for i, e := range edges {
		w, _, err := s.EdgeWeight(e.Attributes, mode, time, ov.For(e.ID), false)
		if err != nil {
			return nil, err
		}
		out[i] = IndexedWeight{Index: i, EdgeID: e.ID, Weight: w}
	}
	return out, nil
}

// ApplyGraph writes a safety weight for (mode, time) onto every edge of g as
// derived state and stamps g with the matching weight key. On error g is
// left untouched.
func ApplyGraph(g *graph.Graph, mode, time string, cfg Config, ov *Overrides) error {
	s, err := NewScorer(cfg)
	if err != nil {
		return err
	}
	_, err = s.apply(g, mode, time, ov, false)
	return err
}

// ApplyGraphVerbose is ApplyGraph that also returns per-edge reports keyed
// by edge id.
func ApplyGraphVerbose(g *graph.Graph, mode, time string, cfg Config, ov *Overrides) (map[string]*EdgeReport, error) {
	s, err := NewScorer(cfg)
	if err != nil {
		return nil, err
	}
	return s.apply(g, mode, time, ov, true)
}

// ApplyGraph is the Scorer form of [ApplyGraph].
func (s *Scorer) ApplyGraph(g *graph.Graph, mode, time string, ov *Overrides, verbose bool) (map[string]*EdgeReport, error) {
	return s.apply(g, mode, time, ov, verbose)
}

func (s *Scorer) apply(g *graph.Graph, mode, time string, ov *Overrides, verbose bool) (map[string]*EdgeReport, error) {
	const op = "safety.ApplyGraph"
	m, err := s.cfg.ResolveMode(mode)
	if err != nil {
		return nil, err
	}
	t, err := s.cfg.ResolveTime(time)
	if err != nil {
		return nil, err
	}

	weights := make(map[string]float64, g.EdgeCount())
	var reports map[string]*EdgeReport
	if verbose {
		reports = make(map[string]*EdgeReport, g.EdgeCount())
	}
	for _, e := range g.Edges() {
		w, rep, err := s.EdgeWeight(e.Attributes, m, t, ov.For(e.ID), verbose)
		if err != nil {
			return nil, errors.Wrap(errors.GetCode(err), op, err, "edge %q", e.ID)
		}
		weights[e.ID] = w
		if rep != nil {
			rep.EdgeID = e.ID
			reports[e.ID] = rep
		}
	}
	if err := g.ApplyWeights(s.Key(m, t, ov), weights); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, op, err, "apply weights")
	}
	return reports, nil
}

// Key returns the weight key for (mode, time) under this scorer's
// configuration and the given overrides. mode and time must be canonical.
func (s *Scorer) Key(mode, time string, ov *Overrides) graph.WeightKey {
	fp := s.cfg.Fingerprint()
	if ov.Len() > 0 {
		if data, err := json.Marshal(ov); err == nil {
			sum := sha256.Sum256(append([]byte(fp), data...))
			fp = hex.EncodeToString(sum[:])[:12]
		}
	}
	return graph.WeightKey{Mode: mode, Time: time, Profile: fp}
}
