// Package location derives the discrete location state from coordinate
// samples and the registered geofence set, and defines the coordinate
// source boundary the engine subscribes to.
package location

import (
	"github.com/Tomone-Nomura/secure-todo/internal/geo"
	"github.com/Tomone-Nomura/secure-todo/internal/store"
)

// State is the discrete context a coordinate resolves to.
type State int

const (
	StateOutside State = iota
	StateHome
	StateSchool
	StateWork
)

func (s State) String() string {
	switch s {
	case StateHome:
		return "home"
	case StateSchool:
		return "school"
	case StateWork:
		return "work"
	default:
		return "outside"
	}
}

// StateForKind maps a zone kind to the state it produces.
func StateForKind(k store.ZoneKind) State {
	switch k {
	case store.ZoneHome:
		return StateHome
	case store.ZoneSchool:
		return StateSchool
	case store.ZoneWork:
		return StateWork
	}
	return StateOutside
}

// Strategy selects how overlapping zones are disambiguated.
type Strategy int

const (
	// NearestMatch picks the containing zone whose center is closest to
	// the sample. This is the default: it is independent of the order
	// zones were registered in.
	NearestMatch Strategy = iota
	// FirstMatch picks the earliest-registered containing zone,
	// preserving the behavior of installs that relied on registration
	// order as a tie-break.
	FirstMatch
)

// ParseStrategy maps a settings value to a Strategy, defaulting to
// NearestMatch for anything unrecognized.
func ParseStrategy(s string) Strategy {
	if s == "first" {
		return FirstMatch
	}
	return NearestMatch
}

func (s Strategy) String() string {
	if s == FirstMatch {
		return "first"
	}
	return "nearest"
}

// Resolver turns a coordinate plus the zone set into a State.
type Resolver struct {
	Strategy Strategy
}

// Resolve scans zones for those containing coord and returns the state
// of the winner under the resolver's strategy, or StateOutside when no
// zone contains the coordinate. Pure and total: any coordinate resolves.
func (r Resolver) Resolve(coord geo.Coordinate, zones []store.Zone) State {
	best := -1
	bestDist := 0.0
	for i, z := range zones {
		d := geo.DistanceMeters(coord, geo.Coordinate{Lat: z.Lat, Lon: z.Lon})
		if d > z.Radius {
			continue
		}
		if r.Strategy == FirstMatch {
			return StateForKind(z.Kind)
		}
		if best == -1 || d < bestDist {
			best = i
			bestDist = d
		}
	}
	if best == -1 {
		return StateOutside
	}
	return StateForKind(zones[best].Kind)
}
