package safety

import (
	"encoding/json"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/liaphilip/women-safety-route-finder/pkg/graph"
)

// Record is a canonical attribute record: factor to raw value, already
// coerced and clamped to the factor's raw scale. Absent factors are neutral.
type Record map[Factor]float64

// Clone returns a copy of the record.
func (r Record) Clone() Record { return maps.Clone(r) }

// Branch names the lookup path the normalizer took.
type Branch string

const (
	BranchExact         Branch = "exact"          // modes[mode][time]
	BranchModeDefault   Branch = "mode_default"   // modes[mode][DefaultTime]
	BranchGlobalDefault Branch = "global_default" // edge defaults block
	BranchNeutral       Branch = "neutral"        // no data, all factors neutral
	BranchFlat          Branch = "flat"           // caller-resolved flat block
)

// Diagnostics reports how a record was produced. It is informational only
// and never changes the returned record.
type Diagnostics struct {
	Branch     Branch   `json:"branch"`
	Defaulted  []Factor `json:"defaulted,omitempty"`  // factors left neutral
	Clamped    []Factor `json:"clamped,omitempty"`    // values pulled into range
	Dropped    []string `json:"dropped,omitempty"`    // unknown or non-numeric keys
	Overridden []Factor `json:"overridden,omitempty"` // values taken from overrides
}

// EdgeOverride holds late attribute corrections for one edge. All applies to
// every mode and time; Modes[mode][time] is applied after it.
type EdgeOverride struct {
	All   graph.Block                       `json:"all,omitempty" bson:"all,omitempty"`
	Modes map[string]map[string]graph.Block `json:"modes,omitempty" bson:"modes,omitempty"`
}

// Overrides is an explicit override layer keyed by edge id. It is merged
// over the stored attributes at lookup time and never mutates them.
type Overrides struct {
	Edges map[string]EdgeOverride `json:"edges" bson:"edges"`
}

// For returns the override for edgeID, or nil. Safe on a nil receiver.
func (o *Overrides) For(edgeID string) *EdgeOverride {
	if o == nil {
		return nil
	}
	ov, ok := o.Edges[edgeID]
	if !ok {
		return nil
	}
	return &ov
}

// Len returns the number of overridden edges.
func (o *Overrides) Len() int {
	if o == nil {
		return 0
	}
	return len(o.Edges)
}

// Normalize resolves the raw attributes of an edge into a canonical record
// for (mode, time), merging ov on top. mode should already be canonical.
func Normalize(attrs graph.Attributes, mode, time string, ov *EdgeOverride) Record {
	rec, _ := normalize(attrs, mode, time, ov, false)
	return rec
}

// NormalizeVerbose is Normalize plus diagnostics.
func NormalizeVerbose(attrs graph.Attributes, mode, time string, ov *EdgeOverride) (Record, Diagnostics) {
	return normalize(attrs, mode, time, ov, true)
}

// NormalizeFlat applies aliasing, coercion and clamping to a block that the
// caller has already resolved for a mode and time.
func NormalizeFlat(block graph.Block) Record {
	rec, _ := normalize(graph.Attributes{Flat: block}, "", "", nil, false)
	return rec
}

// NormalizeFlatVerbose is NormalizeFlat plus diagnostics.
func NormalizeFlatVerbose(block graph.Block) (Record, Diagnostics) {
	return normalize(graph.Attributes{Flat: block}, "", "", nil, true)
}

func normalize(attrs graph.Attributes, mode, time string, ov *EdgeOverride, verbose bool) (Record, Diagnostics) {
	var d Diagnostics
	block, branch := lookup(attrs, mode, time)
	d.Branch = branch

	rec := make(Record)
	var dropped []string
	clamped := make(map[Factor]bool)

	merge := func(b graph.Block) []Factor {
		layer, drop, clamp := coerceBlock(b)
		dropped = append(dropped, drop...)
		set := make([]Factor, 0, len(layer))
		for f, v := range layer {
			rec[f] = v
			// Only the layer that supplies the final value decides.
			if clamp[f] {
				clamped[f] = true
			} else {
				delete(clamped, f)
			}
			set = append(set, f)
		}
		return set
	}

	merge(attrs.Base)
	merge(block)

	var overridden []Factor
	if ov != nil {
		overridden = append(overridden, merge(ov.All)...)
		if times, ok := ov.Modes[mode]; ok {
			overridden = append(overridden, merge(times[time])...)
		}
	}

	if !verbose {
		return rec, d
	}

	for _, f := range Factors {
		if _, ok := rec[f]; !ok {
			d.Defaulted = append(d.Defaulted, f)
		}
		if clamped[f] {
			d.Clamped = append(d.Clamped, f)
		}
	}
	slices.Sort(dropped)
	d.Dropped = slices.Compact(dropped)
	slices.Sort(overridden)
	d.Overridden = slices.Compact(overridden)
	return rec, d
}

// lookup selects the attribute block for (mode, time): exact match, then the
// mode's default time bucket, then the edge's defaults block, then nothing.
func lookup(attrs graph.Attributes, mode, time string) (graph.Block, Branch) {
	if attrs.IsFlat() {
		return attrs.Flat, BranchFlat
	}
	if b, ok := attrs.Block(mode, time); ok {
		return b, BranchExact
	}
	if b, ok := attrs.Block(mode, DefaultTime); ok {
		return b, BranchModeDefault
	}
	if attrs.Defaults != nil {
		return attrs.Defaults, BranchGlobalDefault
	}
	return nil, BranchNeutral
}

// coerceBlock converts one raw block into canonical values. Within a block a
// canonical key wins over its aliases regardless of map order.
func coerceBlock(b graph.Block) (layer Record, dropped []string, clamped map[Factor]bool) {
	layer = make(Record, len(b))
	clamped = make(map[Factor]bool)
	exact := make(map[Factor]bool)

	for _, key := range slices.Sorted(maps.Keys(b)) {
		f, ok := ParseFactor(key)
		if !ok {
			dropped = append(dropped, key)
			continue
		}
		v, ok := coerce(b[key])
		if !ok {
			dropped = append(dropped, key)
			continue
		}
		isExact := foldKey(key) == string(f)
		if exact[f] && !isExact {
			continue
		}
		if isExact {
			exact[f] = true
		}
		cv, wasClamped := clampToScale(f, v)
		layer[f] = cv
		if wasClamped {
			clamped[f] = true
		} else {
			delete(clamped, f)
		}
	}
	return layer, dropped, clamped
}

// coerce parses the numeric forms that arrive from JSON, BSON or callers.
func coerce(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case bool:
		if x {
			f = 1
		}
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		s := strings.TrimSpace(x)
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			f = n
		} else if bv, err := strconv.ParseBool(s); err == nil {
			if bv {
				f = 1
			}
		} else {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func clampToScale(f Factor, v float64) (float64, bool) {
	hi := ScaleOf(f).Max
	switch {
	case v < 0:
		return 0, true
	case v > hi:
		return hi, true
	}
	return v, false
}
