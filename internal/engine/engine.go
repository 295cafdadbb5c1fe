// Package engine wires the coordinate source, the resolver, the
// visibility policy and the stores together, and is the only place
// state transitions happen. The UI layer holds an Engine, subscribes to
// snapshots and forwards user intents; it never touches the stores or
// the gate directly.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Tomone-Nomura/secure-todo/internal/auth"
	"github.com/Tomone-Nomura/secure-todo/internal/location"
	"github.com/Tomone-Nomura/secure-todo/internal/policy"
	"github.com/Tomone-Nomura/secure-todo/internal/store"
)

// ErrAssuranceTooLow means authentication succeeded but only at
// fallback assurance, and the action is configured to require strong.
var ErrAssuranceTooLow = errors.New("action requires strong authentication")

// Config sets the minimum assurance each guarded action accepts.
// The zero value accepts fallback everywhere, matching the original
// behavior; callers that consider an action destructive raise its
// minimum to auth.AssuranceStrong.
type Config struct {
	PrivateModeAssurance auth.Assurance
	ZoneCreateAssurance  auth.Assurance
	ZoneDeleteAssurance  auth.Assurance
}

// Snapshot is the read-only view published to the UI collaborator.
type Snapshot struct {
	Tasks        []store.Task // visible under the current policy
	Total        int          // all tasks, visible or not
	HiddenCounts map[store.Category]int
	HiddenTotal  int
	State        location.State
	Sample       *location.Sample
	PrivateMode  bool
	LocationErr  error // last source error, nil once a sample arrives
}

type Engine struct {
	store *store.Store
	gate  *auth.Gate
	cfg   Config

	mu          sync.Mutex
	resolver    location.Resolver
	state       location.State
	sample      *location.Sample
	locErr      error
	privateMode bool
	cancelWatch func()
	notify      func(Snapshot)
}

// New builds an engine over an opened store and gate. The resolver
// strategy is restored from settings. The gate's reset hook is claimed
// here: clearing the credential force-disables private mode.
func New(s *store.Store, gate *auth.Gate, cfg Config) *Engine {
	e := &Engine{
		store: s,
		gate:  gate,
		cfg:   cfg,
		resolver: location.Resolver{
			Strategy: location.ParseStrategy(s.GetSettingDefault("resolver_strategy", "nearest")),
		},
		state: location.StateOutside,
	}
	gate.OnReset(func() {
		e.mu.Lock()
		e.privateMode = false
		e.mu.Unlock()
		e.publish()
	})
	return e
}

// Subscribe registers the snapshot consumer and delivers the current
// view immediately. Only one subscriber is supported; the TUI is it.
func (e *Engine) Subscribe(fn func(Snapshot)) {
	e.mu.Lock()
	e.notify = fn
	e.mu.Unlock()
	e.publish()
}

// Watch subscribes to a coordinate source. Any previous watch is
// cancelled first. Samples and errors may arrive on the source's
// goroutine at any time, including while a Verify is pending.
func (e *Engine) Watch(src location.Source, opts location.WatchOptions) error {
	cancel, err := src.Watch(opts, e.onSample, e.onLocationError)
	if err != nil {
		return fmt.Errorf("watch location source: %w", err)
	}
	e.mu.Lock()
	prev := e.cancelWatch
	e.cancelWatch = cancel
	e.mu.Unlock()
	if prev != nil {
		prev()
	}
	return nil
}

// StopWatching cancels the active subscription. No further location
// updates occur afterwards; the last known state is retained.
func (e *Engine) StopWatching() {
	e.mu.Lock()
	cancel := e.cancelWatch
	e.cancelWatch = nil
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (e *Engine) onSample(s location.Sample) {
	zones, err := e.store.ListZones()
	if err != nil {
		// The zone set could not be read, so the state cannot be
		// re-derived. Keep the previous state, surface the failure.
		e.mu.Lock()
		e.sample = &s
		e.locErr = fmt.Errorf("list zones: %w", err)
		e.mu.Unlock()
		e.publish()
		return
	}
	e.mu.Lock()
	e.sample = &s
	e.locErr = nil
	e.state = e.resolver.Resolve(s.Coord, zones)
	e.mu.Unlock()
	e.publish()
}

func (e *Engine) onLocationError(err error) {
	e.mu.Lock()
	e.locErr = err
	e.mu.Unlock()
	e.publish()
}

// publish composes a snapshot and hands it to the subscriber. Never
// called with the mutex held.
func (e *Engine) publish() {
	snap := e.CurrentSnapshot()
	e.mu.Lock()
	fn := e.notify
	e.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}

// CurrentSnapshot builds the read-only view of everything the UI shows.
func (e *Engine) CurrentSnapshot() Snapshot {
	tasks, _ := e.store.ListTasks()

	e.mu.Lock()
	state := e.state
	sample := e.sample
	locErr := e.locErr
	private := e.privateMode
	e.mu.Unlock()

	hidden := policy.HiddenCounts(tasks, state, private)
	return Snapshot{
		Tasks:        policy.Filter(tasks, state, private),
		Total:        len(tasks),
		HiddenCounts: hidden,
		HiddenTotal:  policy.HiddenTotal(hidden),
		State:        state,
		Sample:       sample,
		PrivateMode:  private,
		LocationErr:  locErr,
	}
}

// --- Read APIs ---

func (e *Engine) State() location.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) PrivateMode() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.privateMode
}

func (e *Engine) VisibleTasks() ([]store.Task, error) {
	tasks, err := e.store.ListTasks()
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	state, private := e.state, e.privateMode
	e.mu.Unlock()
	return policy.Filter(tasks, state, private), nil
}

func (e *Engine) HiddenCounts() (map[store.Category]int, error) {
	tasks, err := e.store.ListTasks()
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	state, private := e.state, e.privateMode
	e.mu.Unlock()
	return policy.HiddenCounts(tasks, state, private), nil
}

func (e *Engine) Zones() ([]store.Zone, error) {
	return e.store.ListZones()
}

func (e *Engine) Gate() *auth.Gate {
	return e.gate
}

// --- Task mutations (unguarded) ---

func (e *Engine) CreateTask(title, detail string, category store.Category) (*store.Task, error) {
	t, err := e.store.CreateTask(title, detail, category)
	if err != nil {
		return nil, err
	}
	e.publish()
	return t, nil
}

func (e *Engine) UpdateTask(id int64, title, detail string, category store.Category) error {
	if err := e.store.UpdateTask(id, title, detail, category); err != nil {
		return err
	}
	e.publish()
	return nil
}

func (e *Engine) ToggleTask(id int64) error {
	if err := e.store.ToggleTask(id); err != nil {
		return err
	}
	e.publish()
	return nil
}

func (e *Engine) DeleteTask(id int64) error {
	if err := e.store.DeleteTask(id); err != nil {
		return err
	}
	e.publish()
	return nil
}

func (e *Engine) DeleteCompleted() (int64, error) {
	n, err := e.store.DeleteCompleted()
	if err != nil {
		return 0, err
	}
	e.publish()
	return n, nil
}

// --- Guarded mutations ---

// guard verifies the user and checks the achieved assurance against the
// action's floor. On any failure nothing has changed yet, so the caller
// just returns the error.
func (e *Engine) guard(ctx context.Context, min auth.Assurance) error {
	assurance, err := e.gate.Verify(ctx)
	if err != nil {
		return err
	}
	if assurance < min {
		return ErrAssuranceTooLow
	}
	return nil
}

// EnablePrivateMode reveals all tasks regardless of location. It is the
// privileged direction, so it verifies first.
func (e *Engine) EnablePrivateMode(ctx context.Context) error {
	if err := e.guard(ctx, e.cfg.PrivateModeAssurance); err != nil {
		return err
	}
	e.mu.Lock()
	e.privateMode = true
	e.mu.Unlock()
	e.publish()
	return nil
}

// DisablePrivateMode drops back to location gating. Reducing visibility
// needs no authentication.
func (e *Engine) DisablePrivateMode() {
	e.mu.Lock()
	e.privateMode = false
	e.mu.Unlock()
	e.publish()
}

func (e *Engine) CreateZone(ctx context.Context, name string, lat, lon, radius float64, kind store.ZoneKind) (*store.Zone, error) {
	if err := e.guard(ctx, e.cfg.ZoneCreateAssurance); err != nil {
		return nil, err
	}
	z, err := e.store.CreateZone(name, lat, lon, radius, kind)
	if err != nil {
		return nil, err
	}
	e.reresolve()
	return z, nil
}

func (e *Engine) DeleteZone(ctx context.Context, id int64) error {
	if err := e.guard(ctx, e.cfg.ZoneDeleteAssurance); err != nil {
		return err
	}
	if err := e.store.DeleteZone(id); err != nil {
		return err
	}
	e.reresolve()
	return nil
}

// SetStrategy switches resolver strategies, persists the choice and
// re-derives the state from the last sample.
func (e *Engine) SetStrategy(s location.Strategy) error {
	if err := e.store.SetSetting("resolver_strategy", s.String()); err != nil {
		return err
	}
	e.mu.Lock()
	e.resolver.Strategy = s
	e.mu.Unlock()
	e.reresolve()
	return nil
}

// Accuracy returns the persisted location accuracy preference, applied
// the next time a watch starts.
func (e *Engine) Accuracy() string {
	return e.store.GetSettingDefault("location_accuracy", "high")
}

func (e *Engine) SetAccuracy(v string) error {
	return e.store.SetSetting("location_accuracy", v)
}

func (e *Engine) Strategy() location.Strategy {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resolver.Strategy
}

// reresolve recomputes the state after the zone set or strategy changed,
// using the last sample if there is one.
func (e *Engine) reresolve() {
	e.mu.Lock()
	sample := e.sample
	e.mu.Unlock()
	if sample == nil {
		e.publish()
		return
	}
	e.onSample(*sample)
}
