package location

import (
	"errors"
	"testing"

	"github.com/Tomone-Nomura/secure-todo/internal/geo"
)

func TestManualSourceDeliversSamples(t *testing.T) {
	src := NewManualSource()

	var got []Sample
	cancel, err := src.Watch(WatchOptions{}, func(s Sample) {
		got = append(got, s)
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer cancel()

	src.Set(geo.Coordinate{Lat: 1, Lon: 2}, 10)
	src.Set(geo.Coordinate{Lat: 3, Lon: 4}, 20)

	if len(got) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(got))
	}
	if got[1].Coord.Lat != 3 || got[1].AccuracyMeters != 20 {
		t.Fatalf("unexpected sample: %+v", got[1])
	}
}

func TestManualSourceReplaysLastFix(t *testing.T) {
	src := NewManualSource()
	src.Set(geo.Coordinate{Lat: 5, Lon: 6}, 30)

	var got []Sample
	cancel, err := src.Watch(WatchOptions{}, func(s Sample) {
		got = append(got, s)
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer cancel()

	if len(got) != 1 {
		t.Fatalf("expected replayed fix on subscribe, got %d samples", len(got))
	}
	if got[0].Coord.Lat != 5 {
		t.Fatalf("unexpected replayed sample: %+v", got[0])
	}
}

func TestManualSourceCancelStopsDelivery(t *testing.T) {
	src := NewManualSource()

	count := 0
	cancel, err := src.Watch(WatchOptions{}, func(Sample) { count++ }, nil)
	if err != nil {
		t.Fatal(err)
	}

	src.Set(geo.Coordinate{Lat: 1, Lon: 1}, 5)
	cancel()
	src.Set(geo.Coordinate{Lat: 2, Lon: 2}, 5)

	if count != 1 {
		t.Fatalf("expected no delivery after cancel, got %d", count)
	}
}

func TestManualSourceErrors(t *testing.T) {
	src := NewManualSource()

	var got error
	cancel, err := src.Watch(WatchOptions{}, nil, func(e error) { got = e })
	if err != nil {
		t.Fatal(err)
	}
	defer cancel()

	src.Fail(ErrPermissionDenied)
	if !errors.Is(got, ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", got)
	}
}

func TestParseAccuracy(t *testing.T) {
	if ParseAccuracy("low") != AccuracyLow {
		t.Fatal("expected low")
	}
	if ParseAccuracy("high") != AccuracyHigh {
		t.Fatal("expected high")
	}
	if AccuracyHigh.String() != "high" || AccuracyLow.String() != "low" {
		t.Fatal("unexpected accuracy strings")
	}
}
