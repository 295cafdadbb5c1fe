package location

import (
	"errors"
	"sync"
	"time"

	"github.com/Tomone-Nomura/secure-todo/internal/geo"
)

// Errors a source may report. They are status conditions, not fatal:
// the engine surfaces them and keeps the last known state.
var (
	ErrPermissionDenied = errors.New("location permission denied")
	ErrUnavailable      = errors.New("position unavailable")
	ErrTimeout          = errors.New("location timed out")
)

// Accuracy is the requested positioning quality.
type Accuracy int

const (
	AccuracyLow Accuracy = iota
	AccuracyHigh
)

func ParseAccuracy(s string) Accuracy {
	if s == "low" {
		return AccuracyLow
	}
	return AccuracyHigh
}

func (a Accuracy) String() string {
	if a == AccuracyLow {
		return "low"
	}
	return "high"
}

// WatchOptions configures a subscription.
type WatchOptions struct {
	Accuracy Accuracy
	// Timeout is how long the source may take to produce a sample
	// before reporting ErrTimeout. Zero means no limit.
	Timeout time.Duration
	// MaxAge is the oldest cached fix the source may deliver.
	MaxAge time.Duration
}

// Sample is one position fix.
type Sample struct {
	Coord          geo.Coordinate
	AccuracyMeters float64
	Time           time.Time
}

// Source produces position samples at its own cadence. Watch returns a
// cancel function; after cancel returns, no further callbacks are made.
// Both callbacks may be invoked from the source's own goroutine.
type Source interface {
	Watch(opts WatchOptions, onSample func(Sample), onError func(error)) (cancel func(), err error)
}

// ManualSource is a Source driven by explicit Set calls; the TUI uses it
// in place of device geolocation, and tests script it directly.
type ManualSource struct {
	mu       sync.Mutex
	onSample func(Sample)
	onError  func(error)
	last     *Sample
}

func NewManualSource() *ManualSource {
	return &ManualSource{}
}

func (m *ManualSource) Watch(opts WatchOptions, onSample func(Sample), onError func(error)) (func(), error) {
	m.mu.Lock()
	m.onSample = onSample
	m.onError = onError
	last := m.last
	m.mu.Unlock()

	// Replay the last fix so a new watcher is not blind until the next Set.
	if last != nil && onSample != nil {
		onSample(*last)
	}

	return func() {
		m.mu.Lock()
		m.onSample = nil
		m.onError = nil
		m.mu.Unlock()
	}, nil
}

// Set delivers a new position to the current watcher, if any.
func (m *ManualSource) Set(coord geo.Coordinate, accuracyMeters float64) {
	s := Sample{Coord: coord, AccuracyMeters: accuracyMeters, Time: time.Now()}
	m.mu.Lock()
	m.last = &s
	cb := m.onSample
	m.mu.Unlock()
	if cb != nil {
		cb(s)
	}
}

// Fail delivers an error condition to the current watcher, if any.
func (m *ManualSource) Fail(err error) {
	m.mu.Lock()
	cb := m.onError
	m.mu.Unlock()
	if cb != nil {
		cb(err)
	}
}
