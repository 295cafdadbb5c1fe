// Package auth guards privileged actions behind a registered credential.
// The platform strong-auth capability is abstracted as Provider; the
// explicit low-assurance confirmation step as Confirmer. The two are
// never silently equated: every successful Register/Verify reports the
// assurance level it actually achieved, and callers decide per action
// whether fallback assurance is acceptable.
package auth

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrUnavailable       = errors.New("strong authentication unavailable")
	ErrDeclined          = errors.New("user declined authentication")
	ErrPlatformFailure   = errors.New("authentication platform failure")
	ErrNotRegistered     = errors.New("no credential registered")
	ErrAlreadyRegistered = errors.New("credential already registered")
)

// GateState is the gate's lifecycle position.
type GateState int

const (
	Unregistered GateState = iota
	Registered
	AwaitingVerification
)

// Assurance ranks how strongly an authentication step verified the user.
type Assurance int

const (
	AssuranceNone Assurance = iota
	// AssuranceFallback is an explicit confirmation with no credential
	// check behind it.
	AssuranceFallback
	// AssuranceStrong is platform-backed possession verification.
	AssuranceStrong
)

func (a Assurance) String() string {
	switch a {
	case AssuranceStrong:
		return "strong"
	case AssuranceFallback:
		return "fallback"
	default:
		return "none"
	}
}

// Provider is the platform strong-authentication boundary.
type Provider interface {
	// Available reports whether strong authentication can be attempted
	// at all. Queried once per operation, not cached by the gate.
	Available() bool
	// CreateCredential mints a new credential and returns its opaque
	// handle. No secret material is returned.
	CreateCredential(ctx context.Context) (string, error)
	// Assert verifies possession of the credential behind handle.
	Assert(ctx context.Context, handle string) error
}

// Confirmer is the low-assurance fallback: an explicit yes/no from the
// user, nothing more. A nil Confirmer disables the fallback path.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmerFunc adapts a function to the Confirmer interface.
type ConfirmerFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmerFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// Keeper persists the credential record. *store.Store satisfies it.
type Keeper interface {
	GetSettingDefault(key, fallback string) string
	SetSetting(key, value string) error
	// SetSettings writes the batch atomically; no partial credential
	// record is ever observable.
	SetSettings(kv map[string]string) error
	DeleteSetting(key string) error
}

const (
	keyCredentialHandle = "credential_handle"
	keyCredentialMode   = "credential_mode" // "strong" or "fallback"
	keyBiometricEnabled = "biometric_enabled"
)

// Gate is the authentication state machine. Verify may block on user
// interaction, so the mutex is never held across Provider or Confirmer
// calls; only state reads and transitions are guarded.
type Gate struct {
	provider  Provider
	confirmer Confirmer
	keeper    Keeper

	// onReset is invoked after Reset clears the credential, so dependent
	// state (the private-mode flag) cannot outlive it.
	onReset func()

	mu     sync.Mutex
	state  GateState
	handle string
	mode   Assurance // assurance level the credential was registered at
}

// NewGate restores the gate from persisted state. A credential recorded
// by an earlier run puts the gate straight into Registered.
func NewGate(provider Provider, confirmer Confirmer, keeper Keeper) *Gate {
	g := &Gate{provider: provider, confirmer: confirmer, keeper: keeper}
	switch keeper.GetSettingDefault(keyCredentialMode, "") {
	case "strong":
		g.state = Registered
		g.mode = AssuranceStrong
		g.handle = keeper.GetSettingDefault(keyCredentialHandle, "")
	case "fallback":
		g.state = Registered
		g.mode = AssuranceFallback
	}
	return g
}

// OnReset registers the callback fired after a successful Reset.
func (g *Gate) OnReset(fn func()) {
	g.mu.Lock()
	g.onReset = fn
	g.mu.Unlock()
}

// State returns the current lifecycle position.
func (g *Gate) State() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Registered reports whether a credential exists.
func (g *Gate) Registered() bool {
	return g.State() != Unregistered
}

// Register creates the credential. It tries the strong provider first;
// on unavailability or platform failure it offers the explicit fallback
// confirmation, and the returned Assurance tells the caller which of
// the two actually happened. On any failure the gate stays Unregistered.
func (g *Gate) Register(ctx context.Context) (Assurance, error) {
	g.mu.Lock()
	if g.state != Unregistered {
		g.mu.Unlock()
		return AssuranceNone, ErrAlreadyRegistered
	}
	g.mu.Unlock()

	if g.provider != nil && g.provider.Available() {
		handle, err := g.provider.CreateCredential(ctx)
		if err == nil {
			if err := g.persist(handle, AssuranceStrong); err != nil {
				return AssuranceNone, err
			}
			return AssuranceStrong, nil
		}
		if ctx.Err() != nil {
			return AssuranceNone, ctx.Err()
		}
		// Strong creation failed; fall through to the fallback offer.
	}

	if g.confirmer == nil {
		return AssuranceNone, ErrUnavailable
	}
	ok, err := g.confirmer.Confirm(ctx, "Strong authentication is unavailable. Protect private mode with a confirmation prompt only?")
	if err != nil {
		return AssuranceNone, err
	}
	if !ok {
		return AssuranceNone, ErrDeclined
	}
	if err := g.persist("", AssuranceFallback); err != nil {
		return AssuranceNone, err
	}
	return AssuranceFallback, nil
}

func (g *Gate) persist(handle string, mode Assurance) error {
	modeStr := "fallback"
	enabled := "0"
	if mode == AssuranceStrong {
		modeStr = "strong"
		enabled = "1"
	}
	err := g.keeper.SetSettings(map[string]string{
		keyCredentialHandle: handle,
		keyCredentialMode:   modeStr,
		keyBiometricEnabled: enabled,
	})
	if err != nil {
		return err
	}
	g.mu.Lock()
	g.state = Registered
	g.handle = handle
	g.mode = mode
	g.mu.Unlock()
	return nil
}

// Verify re-checks the user before a guarded action. The gate is in
// AwaitingVerification for the duration of the (possibly interactive)
// check and back in Registered afterwards regardless of outcome; a
// verify never changes what is registered. Returns the assurance
// achieved, so a caller may reject fallback for sensitive actions.
func (g *Gate) Verify(ctx context.Context) (Assurance, error) {
	g.mu.Lock()
	if g.state == Unregistered {
		g.mu.Unlock()
		return AssuranceNone, ErrNotRegistered
	}
	g.state = AwaitingVerification
	handle := g.handle
	mode := g.mode
	g.mu.Unlock()

	assurance, err := g.verify(ctx, handle, mode)

	g.mu.Lock()
	if g.state == AwaitingVerification {
		g.state = Registered
	}
	g.mu.Unlock()
	return assurance, err
}

func (g *Gate) verify(ctx context.Context, handle string, mode Assurance) (Assurance, error) {
	if mode == AssuranceStrong {
		err := g.provider.Assert(ctx, handle)
		if err == nil {
			return AssuranceStrong, nil
		}
		if ctx.Err() != nil {
			return AssuranceNone, ctx.Err()
		}
		if g.confirmer == nil {
			return AssuranceNone, ErrPlatformFailure
		}
		// Strong assertion failed. The fallback is offered, but the
		// result is reported as fallback assurance, never strong.
	}

	if g.confirmer == nil {
		return AssuranceNone, ErrUnavailable
	}
	ok, err := g.confirmer.Confirm(ctx, "Confirm this action")
	if err != nil {
		return AssuranceNone, err
	}
	if !ok {
		return AssuranceNone, ErrDeclined
	}
	return AssuranceFallback, nil
}

// Reset clears the credential and returns the gate to Unregistered.
// The onReset callback runs afterwards so cached privileges tied to the
// credential (private mode) are revoked in the same step.
func (g *Gate) Reset() error {
	if err := g.keeper.DeleteSetting(keyCredentialHandle); err != nil {
		return err
	}
	if err := g.keeper.DeleteSetting(keyCredentialMode); err != nil {
		return err
	}
	if err := g.keeper.SetSetting(keyBiometricEnabled, "0"); err != nil {
		return err
	}
	g.mu.Lock()
	g.state = Unregistered
	g.handle = ""
	g.mode = AssuranceNone
	fn := g.onReset
	g.mu.Unlock()
	if fn != nil {
		fn()
	}
	return nil
}
