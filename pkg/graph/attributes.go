package graph

import "maps"

// Block is one raw attribute record: factor name to an untyped value as it
// arrived from JSON, BSON or a caller. Values are coerced during
// normalization; nothing here is validated.
type Block map[string]any

// Clone returns a shallow copy of the block. Values are scalars in practice.
func (b Block) Clone() Block {
	if b == nil {
		return nil
	}
	return maps.Clone(b)
}

// Attributes holds the raw safety data carried by an edge.
//
// Two shapes are supported:
//   - Nested: Modes[mode][time] blocks, with an optional Defaults block used
//     when a mode has no entry at all.
//   - Flat: a single block applied regardless of mode and time.
//
// Base holds edge-level values (for example nearest_police_m recorded on
// the segment itself) consulted when the selected block omits a factor.
type Attributes struct {
	Modes    map[string]map[string]Block
	Defaults Block
	Flat     Block
	Base     Block
}

// IsFlat reports whether the attributes use the flat shape.
func (a Attributes) IsFlat() bool {
	return a.Flat != nil && len(a.Modes) == 0
}

// IsEmpty reports whether the edge carries no attribute data at all.
func (a Attributes) IsEmpty() bool {
	return len(a.Modes) == 0 && len(a.Defaults) == 0 && len(a.Flat) == 0 && len(a.Base) == 0
}

// Block returns the block stored for mode and time, if any.
func (a Attributes) Block(mode, time string) (Block, bool) {
	times, ok := a.Modes[mode]
	if !ok {
		return nil, false
	}
	b, ok := times[time]
	return b, ok
}

// HasMode reports whether any block exists for mode.
func (a Attributes) HasMode(mode string) bool {
	_, ok := a.Modes[mode]
	return ok
}

// Clone returns a deep copy of the attribute maps.
func (a Attributes) Clone() Attributes {
	c := Attributes{
		Defaults: a.Defaults.Clone(),
		Flat:     a.Flat.Clone(),
		Base:     a.Base.Clone(),
	}
	if a.Modes != nil {
		c.Modes = make(map[string]map[string]Block, len(a.Modes))
		for mode, times := range a.Modes {
			ct := make(map[string]Block, len(times))
			for t, b := range times {
				ct[t] = b.Clone()
			}
			c.Modes[mode] = ct
		}
	}
	return c
}
