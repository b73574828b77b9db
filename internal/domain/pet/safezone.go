package pet

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

const (
	MinRadiusMeters = 10.0
	MaxRadiusMeters = 5000.0

	DefaultWarnThreshold = 20
	DefaultMaxZones      = 30
)

// SafeZone is a circular geofence owned by a single pet.
type SafeZone struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Radius      float64   `json:"radius"`
	IsActive    bool      `json:"isActive"`
	IsPrimary   bool      `json:"isPrimary"`
	AutoCreated bool      `json:"autoCreated"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Limits bounds the size of a pet's zone collection.
type Limits struct {
	WarnThreshold int
	MaxZones      int
}

func DefaultLimits() Limits {
	return Limits{WarnThreshold: DefaultWarnThreshold, MaxZones: DefaultMaxZones}
}

// NormalizeReport describes what NormalizeSafeZones had to correct.
type NormalizeReport struct {
	RadiusClamped  int
	Trimmed        int
	OverWarning    bool
	PrimaryChanged bool
}

// ClampRadius forces a radius into [MinRadiusMeters, MaxRadiusMeters].
func ClampRadius(radius float64) float64 {
	switch {
	case radius != radius: // NaN
		return MinRadiusMeters
	case radius < MinRadiusMeters:
		return MinRadiusMeters
	case radius > MaxRadiusMeters:
		return MaxRadiusMeters
	default:
		return radius
	}
}

// NormalizeSafeZones enforces the collection rules and returns a new slice:
//   - every radius is clamped into range
//   - at most MaxZones survive, the newest by CreatedAt, in their original order
//   - exactly one zone is primary when the collection is non-empty; the first
//     primary encountered wins, otherwise the first zone is promoted
func NormalizeSafeZones(zones []SafeZone, limits Limits) ([]SafeZone, NormalizeReport) {
	var report NormalizeReport
	if limits.MaxZones <= 0 {
		limits.MaxZones = DefaultMaxZones
	}
	if limits.WarnThreshold <= 0 || limits.WarnThreshold > limits.MaxZones {
		limits.WarnThreshold = limits.MaxZones
	}

	out := make([]SafeZone, len(zones))
	copy(out, zones)

	for i := range out {
		clamped := ClampRadius(out[i].Radius)
		if clamped != out[i].Radius {
			out[i].Radius = clamped
			report.RadiusClamped++
		}
	}

	if len(out) > limits.MaxZones {
		report.Trimmed = len(out) - limits.MaxZones
		out = keepNewest(out, limits.MaxZones)
	}

	report.OverWarning = len(out) > limits.WarnThreshold

	primarySeen := false
	for i := range out {
		if !out[i].IsPrimary {
			continue
		}
		if primarySeen {
			out[i].IsPrimary = false
			report.PrimaryChanged = true
			continue
		}
		primarySeen = true
	}
	if !primarySeen && len(out) > 0 {
		out[0].IsPrimary = true
		report.PrimaryChanged = true
	}

	return out, report
}

// keepNewest drops all but the n most recently created zones without reordering the survivors.
func keepNewest(zones []SafeZone, n int) []SafeZone {
	idx := make([]int, len(zones))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return zones[idx[a]].CreatedAt.After(zones[idx[b]].CreatedAt)
	})

	keep := make(map[int]struct{}, n)
	for _, i := range idx[:n] {
		keep[i] = struct{}{}
	}

	out := make([]SafeZone, 0, n)
	for i, z := range zones {
		if _, ok := keep[i]; ok {
			out = append(out, z)
		}
	}
	return out
}

// PrimaryCount counts zones flagged primary.
func PrimaryCount(zones []SafeZone) int {
	n := 0
	for _, z := range zones {
		if z.IsPrimary {
			n++
		}
	}
	return n
}
