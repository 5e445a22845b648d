package safety

import (
	"slices"
	"strings"
)

// Factor is the canonical name of a safety attribute.
type Factor string

// Canonical factors. Raw scales are described by [ScaleOf].
const (
	Crime           Factor = "crime"
	Lighting        Factor = "lighting"
	CCTV            Factor = "cctv"
	CrowdDensity    Factor = "crowd_density"
	PoliceProximity Factor = "police_proximity"
	Sidewalk        Factor = "sidewalk"
	ShopVisibility  Factor = "shop_visibility"
	StrayAnimals    Factor = "stray_animals"
	RoadCondition   Factor = "road_condition"
	Traffic         Factor = "traffic"
	AccidentHistory Factor = "accident_history"
	TrafficBehavior Factor = "traffic_behavior"
	ParkingSafety   Factor = "parking_safety"
)

// Factors lists every canonical factor in presentation order.
var Factors = []Factor{
	Crime, Lighting, CCTV, CrowdDensity, PoliceProximity, Sidewalk,
	ShopVisibility, StrayAnimals, RoadCondition, Traffic, AccidentHistory,
	TrafficBehavior, ParkingSafety,
}

// aliases maps accepted data keys to canonical factors. Keys are already
// folded by foldKey.
var aliases = map[string]Factor{
	"crowd":              CrowdDensity,
	"nearest_police_m":   PoliceProximity,
	"police_m":           PoliceProximity,
	"shops_visibility":   ShopVisibility,
	"stray_animice":      StrayAnimals,
	"traffic_density":    Traffic,
	"accidents_reported": AccidentHistory,
	"accidents":          AccidentHistory,
}

// ParseFactor resolves a data key or alias to its canonical factor.
// Matching ignores case and treats '-' and ' ' like '_'.
func ParseFactor(name string) (Factor, bool) {
	key := foldKey(name)
	f := Factor(key)
	if slices.Contains(Factors, f) {
		return f, true
	}
	f, ok := aliases[key]
	return f, ok
}

func foldKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}

// Kind describes how a raw factor value maps to risk.
type Kind int

const (
	// Severity: higher raw value is riskier (risk = v/Max).
	Severity Kind = iota
	// Quality: higher raw value is safer (risk = 1 - v/Max).
	Quality
	// Presence: 0/1 flag where presence is safer (risk = 1 - v).
	Presence
	// Distance: metres to a safety resource, farther is riskier (risk = v/Max).
	Distance
	// UShaped: risk is lowest at an ideal value and rises on both sides.
	UShaped
)

// Scale is the raw value range and risk direction of a factor.
type Scale struct {
	Kind Kind
	Max  float64 // raw values are clamped to [0, Max]
}

// PoliceCap is the default distance in metres at which police proximity
// reaches its worst risk.
const PoliceCap = 1500.0

var scales = map[Factor]Scale{
	Crime:           {Severity, 10},
	Lighting:        {Quality, 10},
	CCTV:            {Presence, 1},
	CrowdDensity:    {UShaped, 10},
	PoliceProximity: {Distance, PoliceCap},
	Sidewalk:        {Presence, 1},
	ShopVisibility:  {Quality, 10},
	StrayAnimals:    {Severity, 10},
	RoadCondition:   {Quality, 10},
	Traffic:         {Severity, 10},
	AccidentHistory: {Severity, 10},
	TrafficBehavior: {Severity, 10},
	ParkingSafety:   {Quality, 10},
}

// ScaleOf returns the raw scale of f.
func ScaleOf(f Factor) Scale { return scales[f] }

// Canonical travel modes and time labels.
const (
	ModeWalking    = "walking"
	ModeTwoWheeler = "two_wheeler"
	ModeCar        = "car"

	TimeDay   = "day"
	TimeNight = "night"

	// DefaultTime is the bucket used when a mode has no block for the
	// requested time.
	DefaultTime = TimeDay
)

var modeAliases = map[string]string{
	"driving":     ModeCar,
	"bike":        ModeTwoWheeler,
	"bicycle":     ModeTwoWheeler,
	"two-wheeler": ModeTwoWheeler,
	"scooter":     ModeTwoWheeler,
	"walk":        ModeWalking,
	"foot":        ModeWalking,
}

// CanonicalMode folds case and resolves well-known mode aliases. Unknown
// names are returned lower-cased; profile lookup decides whether they are
// valid.
func CanonicalMode(mode string) string {
	m := strings.ToLower(strings.TrimSpace(mode))
	if c, ok := modeAliases[m]; ok {
		return c
	}
	return m
}
