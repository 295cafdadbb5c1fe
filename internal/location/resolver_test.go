package location

import (
	"testing"

	"github.com/Tomone-Nomura/secure-todo/internal/geo"
	"github.com/Tomone-Nomura/secure-todo/internal/store"
)

// school is the default seed zone's coordinate.
var school = geo.Coordinate{Lat: 36.4507, Lon: 136.5933}

func zone(kind store.ZoneKind, c geo.Coordinate, radius float64) store.Zone {
	return store.Zone{Name: string(kind), Lat: c.Lat, Lon: c.Lon, Radius: radius, Kind: kind}
}

func TestResolveNoZones(t *testing.T) {
	r := Resolver{}
	if got := r.Resolve(school, nil); got != StateOutside {
		t.Fatalf("expected outside with no zones, got %s", got)
	}
}

func TestResolveInsideZone(t *testing.T) {
	zones := []store.Zone{zone(store.ZoneSchool, school, 200)}

	r := Resolver{}
	if got := r.Resolve(school, zones); got != StateSchool {
		t.Fatalf("expected school at zone center, got %s", got)
	}
}

func TestResolveOutsideAllZones(t *testing.T) {
	zones := []store.Zone{
		zone(store.ZoneSchool, school, 200),
		zone(store.ZoneHome, geo.Coordinate{Lat: 36.5, Lon: 136.6}, 100),
	}

	// ~5 km south of the school zone, far from both.
	far := geo.Coordinate{Lat: 36.4057, Lon: 136.5933}
	for _, z := range zones {
		if d := geo.DistanceMeters(far, geo.Coordinate{Lat: z.Lat, Lon: z.Lon}); d <= z.Radius {
			t.Fatalf("test point is inside zone %s", z.Name)
		}
	}

	r := Resolver{}
	if got := r.Resolve(far, zones); got != StateOutside {
		t.Fatalf("expected outside, got %s", got)
	}
}

func TestResolveBoundaryInclusive(t *testing.T) {
	// A point exactly on the radius counts as inside (<=).
	zones := []store.Zone{zone(store.ZoneHome, school, geo.DistanceMeters(school, geo.Coordinate{Lat: 36.4507, Lon: 136.5953}))}

	r := Resolver{}
	if got := r.Resolve(geo.Coordinate{Lat: 36.4507, Lon: 136.5953}, zones); got != StateHome {
		t.Fatalf("expected home on the boundary, got %s", got)
	}
}

// ============================================================
// Strategy behavior with overlapping zones
// ============================================================

func TestFirstMatchRegistrationOrderWins(t *testing.T) {
	// Two overlapping zones of different kinds, both containing the
	// sample. First-match must return whichever is registered earlier.
	near := zone(store.ZoneHome, school, 500)
	far := zone(store.ZoneWork, geo.Coordinate{Lat: 36.4537, Lon: 136.5933}, 1000)

	r := Resolver{Strategy: FirstMatch}

	if got := r.Resolve(school, []store.Zone{near, far}); got != StateHome {
		t.Fatalf("expected home (registered first), got %s", got)
	}
	// Reordering changes the result.
	if got := r.Resolve(school, []store.Zone{far, near}); got != StateWork {
		t.Fatalf("expected work (registered first after reorder), got %s", got)
	}
}

func TestNearestMatchIgnoresOrder(t *testing.T) {
	// The sample sits at the home zone's center, inside both zones.
	near := zone(store.ZoneHome, school, 500)
	far := zone(store.ZoneWork, geo.Coordinate{Lat: 36.4537, Lon: 136.5933}, 1000)

	r := Resolver{Strategy: NearestMatch}

	if got := r.Resolve(school, []store.Zone{near, far}); got != StateHome {
		t.Fatalf("expected home (nearest), got %s", got)
	}
	if got := r.Resolve(school, []store.Zone{far, near}); got != StateHome {
		t.Fatalf("nearest should not depend on order, got %s", got)
	}
}

func TestStateForKind(t *testing.T) {
	cases := map[store.ZoneKind]State{
		store.ZoneHome:   StateHome,
		store.ZoneSchool: StateSchool,
		store.ZoneWork:   StateWork,
	}
	for kind, want := range cases {
		if got := StateForKind(kind); got != want {
			t.Fatalf("StateForKind(%s) = %s, want %s", kind, got, want)
		}
	}
}

func TestParseStrategy(t *testing.T) {
	if ParseStrategy("first") != FirstMatch {
		t.Fatal("expected first-match")
	}
	if ParseStrategy("nearest") != NearestMatch {
		t.Fatal("expected nearest-match")
	}
	if ParseStrategy("garbage") != NearestMatch {
		t.Fatal("unknown values default to nearest-match")
	}
}

func TestStateString(t *testing.T) {
	if StateHome.String() != "home" || StateOutside.String() != "outside" {
		t.Fatal("unexpected state strings")
	}
}
