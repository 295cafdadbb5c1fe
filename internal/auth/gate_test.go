package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/Tomone-Nomura/secure-todo/internal/store"
)

func newTestKeeper(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// fakeProvider scripts the platform strong-auth boundary.
type fakeProvider struct {
	available bool
	createErr error
	assertErr error
	asserts   int
}

func (f *fakeProvider) Available() bool { return f.available }

func (f *fakeProvider) CreateCredential(ctx context.Context) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	return "handle-1", nil
}

func (f *fakeProvider) Assert(ctx context.Context, handle string) error {
	f.asserts++
	return f.assertErr
}

func confirmYes(ctx context.Context, prompt string) (bool, error) { return true, nil }
func confirmNo(ctx context.Context, prompt string) (bool, error)  { return false, nil }

// ============================================================
// Registration
// ============================================================

func TestRegisterStrong(t *testing.T) {
	keeper := newTestKeeper(t)
	g := NewGate(&fakeProvider{available: true}, nil, keeper)

	assurance, err := g.Register(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if assurance != AssuranceStrong {
		t.Fatalf("expected strong assurance, got %s", assurance)
	}
	if g.State() != Registered {
		t.Fatal("expected Registered state")
	}
	if keeper.GetSettingDefault("credential_mode", "") != "strong" {
		t.Fatal("credential mode not persisted")
	}
	if keeper.GetSettingDefault("biometric_enabled", "") != "1" {
		t.Fatal("biometric_enabled not set")
	}
}

func TestRegisterFallbackWhenUnavailable(t *testing.T) {
	keeper := newTestKeeper(t)
	g := NewGate(&fakeProvider{available: false}, ConfirmerFunc(confirmYes), keeper)

	assurance, err := g.Register(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if assurance != AssuranceFallback {
		t.Fatalf("fallback registration must report fallback assurance, got %s", assurance)
	}
	if keeper.GetSettingDefault("credential_mode", "") != "fallback" {
		t.Fatal("fallback mode not persisted")
	}
	if keeper.GetSettingDefault("biometric_enabled", "") != "0" {
		t.Fatal("biometric_enabled must stay 0 for fallback registration")
	}
}

func TestRegisterFallbackOnCreateFailure(t *testing.T) {
	keeper := newTestKeeper(t)
	provider := &fakeProvider{available: true, createErr: errors.New("sensor broken")}
	g := NewGate(provider, ConfirmerFunc(confirmYes), keeper)

	assurance, err := g.Register(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if assurance != AssuranceFallback {
		t.Fatalf("expected fallback after create failure, got %s", assurance)
	}
}

func TestRegisterFailsWithoutAnyPath(t *testing.T) {
	keeper := newTestKeeper(t)
	g := NewGate(&fakeProvider{available: false}, nil, keeper)

	if _, err := g.Register(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if g.State() != Unregistered {
		t.Fatal("failed registration must leave the gate Unregistered")
	}
}

func TestRegisterDeclined(t *testing.T) {
	keeper := newTestKeeper(t)
	g := NewGate(&fakeProvider{available: false}, ConfirmerFunc(confirmNo), keeper)

	if _, err := g.Register(context.Background()); !errors.Is(err, ErrDeclined) {
		t.Fatalf("expected ErrDeclined, got %v", err)
	}
	if g.State() != Unregistered {
		t.Fatal("declined registration must leave the gate Unregistered")
	}
}

func TestRegisterTwice(t *testing.T) {
	keeper := newTestKeeper(t)
	g := NewGate(&fakeProvider{available: true}, nil, keeper)

	if _, err := g.Register(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Register(context.Background()); !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
}

// ============================================================
// Verification
// ============================================================

func TestVerifyUnregisteredAlwaysFails(t *testing.T) {
	keeper := newTestKeeper(t)
	g := NewGate(&fakeProvider{available: true}, ConfirmerFunc(confirmYes), keeper)

	if _, err := g.Verify(context.Background()); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
}

func TestVerifyStrongSuccess(t *testing.T) {
	keeper := newTestKeeper(t)
	provider := &fakeProvider{available: true}
	g := NewGate(provider, nil, keeper)
	g.Register(context.Background())

	assurance, err := g.Verify(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if assurance != AssuranceStrong {
		t.Fatalf("expected strong assurance, got %s", assurance)
	}
	if provider.asserts != 1 {
		t.Fatalf("expected 1 assertion, got %d", provider.asserts)
	}
	if g.State() != Registered {
		t.Fatal("verify must not change the registered state")
	}
}

func TestVerifyEveryActionReasserts(t *testing.T) {
	keeper := newTestKeeper(t)
	provider := &fakeProvider{available: true}
	g := NewGate(provider, nil, keeper)
	g.Register(context.Background())

	g.Verify(context.Background())
	g.Verify(context.Background())
	g.Verify(context.Background())
	if provider.asserts != 3 {
		t.Fatalf("no verification caching allowed: expected 3 assertions, got %d", provider.asserts)
	}
}

func TestVerifyStrongFailureFallsBackWithLowerAssurance(t *testing.T) {
	keeper := newTestKeeper(t)
	provider := &fakeProvider{available: true}
	g := NewGate(provider, ConfirmerFunc(confirmYes), keeper)
	g.Register(context.Background())

	provider.assertErr = errors.New("sensor failure")
	assurance, err := g.Verify(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if assurance != AssuranceFallback {
		t.Fatalf("fallback path must never report strong assurance, got %s", assurance)
	}
}

func TestVerifyStrongFailureNoConfirmer(t *testing.T) {
	keeper := newTestKeeper(t)
	provider := &fakeProvider{available: true}
	g := NewGate(provider, nil, keeper)
	g.Register(context.Background())

	provider.assertErr = errors.New("sensor failure")
	if _, err := g.Verify(context.Background()); !errors.Is(err, ErrPlatformFailure) {
		t.Fatalf("expected ErrPlatformFailure, got %v", err)
	}
}

func TestVerifyDeclined(t *testing.T) {
	keeper := newTestKeeper(t)
	g := NewGate(&fakeProvider{available: false}, ConfirmerFunc(confirmNo), keeper)
	// Fallback-registered gate; register with a yes-confirmer first.
	g.confirmer = ConfirmerFunc(confirmYes)
	g.Register(context.Background())
	g.confirmer = ConfirmerFunc(confirmNo)

	if _, err := g.Verify(context.Background()); !errors.Is(err, ErrDeclined) {
		t.Fatalf("expected ErrDeclined, got %v", err)
	}
}

func TestVerifyCancelled(t *testing.T) {
	keeper := newTestKeeper(t)
	provider := &fakeProvider{available: true}
	g := NewGate(provider, ConfirmerFunc(confirmYes), keeper)
	g.Register(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	provider.assertErr = errors.New("interrupted")
	if _, err := g.Verify(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// ============================================================
// Reset and persistence
// ============================================================

func TestResetClearsCredentialAndFiresCallback(t *testing.T) {
	keeper := newTestKeeper(t)
	g := NewGate(&fakeProvider{available: true}, nil, keeper)
	g.Register(context.Background())

	fired := false
	g.OnReset(func() { fired = true })

	if err := g.Reset(); err != nil {
		t.Fatal(err)
	}
	if !fired {
		t.Fatal("reset must fire the onReset callback")
	}
	if g.State() != Unregistered {
		t.Fatal("expected Unregistered after reset")
	}
	if keeper.GetSettingDefault("credential_mode", "") != "" {
		t.Fatal("credential mode must be deleted")
	}
	if keeper.GetSettingDefault("biometric_enabled", "") != "0" {
		t.Fatal("biometric_enabled must be forced to 0")
	}

	// Further verification fails until re-registration.
	if _, err := g.Verify(context.Background()); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered after reset, got %v", err)
	}
}

func TestGateRestoredFromKeeper(t *testing.T) {
	keeper := newTestKeeper(t)
	provider := &fakeProvider{available: true}

	g := NewGate(provider, nil, keeper)
	if _, err := g.Register(context.Background()); err != nil {
		t.Fatal(err)
	}

	// A new gate over the same keeper starts Registered.
	g2 := NewGate(provider, nil, keeper)
	if g2.State() != Registered {
		t.Fatal("expected restored gate to be Registered")
	}
	if assurance, err := g2.Verify(context.Background()); err != nil || assurance != AssuranceStrong {
		t.Fatalf("restored gate verify: %s, %v", assurance, err)
	}
}

func TestAssuranceOrdering(t *testing.T) {
	if !(AssuranceNone < AssuranceFallback && AssuranceFallback < AssuranceStrong) {
		t.Fatal("assurance levels must be ordered none < fallback < strong")
	}
}
