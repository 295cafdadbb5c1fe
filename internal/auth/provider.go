package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// KeyProvider verifies possession of a key file on the local machine.
// Credential handles are self-authenticating: id plus an HMAC of the id
// under the device key, so Assert needs nothing but the handle and the
// key file. It is a stand-in for platform authenticators on systems
// that have none; the assurance it offers is possession of the device,
// not identity.
type KeyProvider struct {
	keyPath string
}

// NewKeyProvider uses (or creates on first registration) a device key
// at keyPath.
func NewKeyProvider(keyPath string) *KeyProvider {
	return &KeyProvider{keyPath: keyPath}
}

// DefaultKeyPath returns ~/.config/secure-todo/device.key
func DefaultKeyPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "secure-todo", "device.key"), nil
}

func (p *KeyProvider) Available() bool {
	if _, err := os.Stat(p.keyPath); err == nil {
		return true
	}
	// No key yet: available if the directory can hold one.
	if err := os.MkdirAll(filepath.Dir(p.keyPath), 0o700); err != nil {
		return false
	}
	return true
}

func (p *KeyProvider) loadOrCreateKey() ([]byte, error) {
	if key, err := os.ReadFile(p.keyPath); err == nil {
		return key, nil
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate device key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(p.keyPath), 0o700); err != nil {
		return nil, fmt.Errorf("create key directory: %w", err)
	}
	if err := os.WriteFile(p.keyPath, key, 0o600); err != nil {
		return nil, fmt.Errorf("write device key: %w", err)
	}
	return key, nil
}

func (p *KeyProvider) CreateCredential(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, err := p.loadOrCreateKey()
	if err != nil {
		return "", err
	}
	id := make([]byte, 16)
	if _, err := rand.Read(id); err != nil {
		return "", fmt.Errorf("generate credential id: %w", err)
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(id)
	return hex.EncodeToString(id) + "." + hex.EncodeToString(mac.Sum(nil)), nil
}

func (p *KeyProvider) Assert(ctx context.Context, handle string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id, want, ok := strings.Cut(handle, ".")
	if !ok {
		return ErrPlatformFailure
	}
	idBytes, err := hex.DecodeString(id)
	if err != nil {
		return ErrPlatformFailure
	}
	wantMac, err := hex.DecodeString(want)
	if err != nil {
		return ErrPlatformFailure
	}
	key, err := os.ReadFile(p.keyPath)
	if err != nil {
		return ErrPlatformFailure
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(idBytes)
	if !hmac.Equal(mac.Sum(nil), wantMac) {
		return ErrPlatformFailure
	}
	return nil
}
