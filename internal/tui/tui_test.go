package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Tomone-Nomura/secure-todo/internal/auth"
	"github.com/Tomone-Nomura/secure-todo/internal/engine"
	"github.com/Tomone-Nomura/secure-todo/internal/geo"
	"github.com/Tomone-Nomura/secure-todo/internal/location"
)

// ============================================================
// ConfirmBridge
// ============================================================

func TestConfirmBridgeRoundTrip(t *testing.T) {
	b := NewConfirmBridge()

	type result struct {
		ok  bool
		err error
	}
	done := make(chan result, 1)
	go func() {
		ok, err := b.Confirm(context.Background(), "Confirm this action")
		done <- result{ok, err}
	}()

	// The update loop side: receive the prompt, answer yes.
	msg := b.next()()
	prompt, ok := msg.(confirmPromptMsg)
	if !ok {
		t.Fatalf("expected confirmPromptMsg, got %T", msg)
	}
	if prompt.prompt != "Confirm this action" {
		t.Fatalf("unexpected prompt: %q", prompt.prompt)
	}
	prompt.resp <- true

	select {
	case r := <-done:
		if r.err != nil || !r.ok {
			t.Fatalf("expected yes, got ok=%v err=%v", r.ok, r.err)
		}
	case <-time.After(time.Second):
		t.Fatal("Confirm did not return")
	}
}

func TestConfirmBridgeDecline(t *testing.T) {
	b := NewConfirmBridge()

	done := make(chan bool, 1)
	go func() {
		ok, _ := b.Confirm(context.Background(), "really?")
		done <- ok
	}()

	msg := b.next()().(confirmPromptMsg)
	msg.resp <- false

	if <-done {
		t.Fatal("expected decline")
	}
}

func TestConfirmBridgeCancelledContext(t *testing.T) {
	b := NewConfirmBridge()

	// Nobody is listening on the bridge; a cancelled context must still
	// unblock the caller.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Confirm(ctx, "anyone there?")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// ============================================================
// Location view
// ============================================================

func TestLocationNudgeMovesSource(t *testing.T) {
	source := location.NewManualSource()
	var got []location.Sample
	cancel, err := source.Watch(location.WatchOptions{}, func(s location.Sample) {
		got = append(got, s)
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer cancel()

	m := newLocationModel(nil, source)

	// No fix yet: nudging is a no-op.
	m.nudge(nudgeStep, 0)
	if len(got) != 0 {
		t.Fatal("nudge before the first fix must not move the source")
	}

	start := location.Sample{Coord: geo.Coordinate{Lat: 36.4507, Lon: 136.5933}, AccuracyMeters: 25}
	m.setSnapshot(engine.Snapshot{Sample: &start})

	m.nudge(nudgeStep, 0)
	if len(got) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(got))
	}
	want := start.Coord.Lat + nudgeStep
	if got[0].Coord.Lat != want {
		t.Fatalf("lat = %v, want %v", got[0].Coord.Lat, want)
	}
	if got[0].AccuracyMeters != 25 {
		t.Fatalf("accuracy must carry over, got %v", got[0].AccuracyMeters)
	}

	// Nudging off the edge of the coordinate grid is rejected.
	polar := location.Sample{Coord: geo.Coordinate{Lat: 89.9999, Lon: 0}, AccuracyMeters: 25}
	m.setSnapshot(engine.Snapshot{Sample: &polar})
	m.nudge(nudgeStep, 0)
	if len(got) != 1 {
		t.Fatal("out-of-range nudge must not move the source")
	}
}

// ============================================================
// Formatting helpers
// ============================================================

func TestFormatCoord(t *testing.T) {
	got := formatCoord(36.4507, 136.5933)
	if got != "36.4507, 136.5933" {
		t.Errorf("formatCoord = %q", got)
	}
}

func TestFormatMeters(t *testing.T) {
	tests := []struct {
		m    float64
		want string
	}{
		{0, "0 m"},
		{200, "200 m"},
		{999, "999 m"},
		{1000, "1.0 km"},
		{5250, "5.2 km"},
	}
	for _, tt := range tests {
		if got := formatMeters(tt.m); got != tt.want {
			t.Errorf("formatMeters(%v) = %q, want %q", tt.m, got, tt.want)
		}
	}
}

func TestStateLabel(t *testing.T) {
	tests := []struct {
		state location.State
		want  string
	}{
		{location.StateHome, "HOME"},
		{location.StateSchool, "SCHOOL"},
		{location.StateWork, "WORK"},
		{location.StateOutside, "OUTSIDE"},
	}
	for _, tt := range tests {
		if got := stateLabel(tt.state); got != tt.want {
			t.Errorf("stateLabel(%v) = %q, want %q", tt.state, got, tt.want)
		}
	}
}

// ============================================================
// Error text
// ============================================================

func TestAuthErrorText(t *testing.T) {
	if got := authErrorText("Private mode", auth.ErrNotRegistered); !strings.Contains(got, "register") {
		t.Errorf("not-registered text should point at registration, got %q", got)
	}
	if got := authErrorText("Zone delete", auth.ErrDeclined); !strings.Contains(got, "cancelled") {
		t.Errorf("declined text = %q", got)
	}
	if got := authErrorText("Zone delete", engine.ErrAssuranceTooLow); !strings.Contains(got, "strong") {
		t.Errorf("assurance text = %q", got)
	}
	if got := authErrorText("Private mode", errors.New("boom")); !strings.Contains(got, "boom") {
		t.Errorf("unknown errors should be passed through, got %q", got)
	}
}

func TestLocationErrorText(t *testing.T) {
	if got := locationErrorText(location.ErrPermissionDenied); got != "location permission denied" {
		t.Errorf("permission text = %q", got)
	}
	if got := locationErrorText(location.ErrTimeout); got != "location timed out" {
		t.Errorf("timeout text = %q", got)
	}
	if got := locationErrorText(location.ErrUnavailable); got != "position unavailable" {
		t.Errorf("unavailable text = %q", got)
	}
}
