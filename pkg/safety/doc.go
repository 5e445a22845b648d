// Package safety turns raw per-edge attributes into a normalized safety
// weight in [0,1], where 0 is safest and 1 is the most unsafe an edge can be
// for a travel mode.
//
// # Pipeline
//
// Scoring an edge runs in two stages:
//
//  1. [Normalize] picks the attribute block for (mode, time) from the edge's
//     raw [graph.Attributes], merges any [EdgeOverride] on top, resolves
//     factor aliases, coerces values to numbers and clamps them to each
//     factor's raw scale. The result is a canonical [Record].
//  2. A [Scorer] converts every factor in the mode's [Profile] to a risk,
//     weights it by base coefficient, importance and the factor's time
//     multiplier, caps and sums the contributions, applies the overall time
//     multiplier and the total cap, and divides by the highest value the same
//     pipeline can reach for that mode.
//
// Missing factors are neutral and add no risk. Crowd density is U-shaped:
// risk is zero at [CrowdCurve.Ideal] and rises toward both an empty and a
// packed street.
//
// # Factor Scales
//
//	crime, stray_animals, traffic,        0-10 severity   risk = v/10
//	accident_history, traffic_behavior
//	lighting, shop_visibility,            0-10 quality    risk = 1 - v/10
//	road_condition, parking_safety
//	cctv, sidewalk                        0/1 presence    risk = 1 - v
//	police_proximity                      metres, 0-1500  risk = v/1500
//	crowd_density                         0-10            U-shaped
//
// # Whole Graphs
//
// [ApplyGraph] writes weights onto a [graph.Graph] as derived state and stamps
// it with a [graph.WeightKey]; [ApplyEdges] returns the same weights for a
// plain edge list without touching it. Both share one per-edge routine.
//
// Configuration errors (unknown mode or time label, bad coefficients or caps)
// are reported as CONFIGURATION errors from pkg/errors. Malformed attribute
// values never fail; they show up in [Diagnostics] instead.
package safety
