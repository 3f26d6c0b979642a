// Package secrets holds the service-account credentials used to sign in to
// the marketplace API, reloadable at runtime.
package secrets

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// Environment keys read by EnvLoader.
const (
	EmailKey    = "CARDSMARKET_EMAIL"
	PasswordKey = "CARDSMARKET_PASSWORD" //nolint:gosec // env var name, not a secret
)

// Loader reads secrets from a source.
type Loader func() (map[string]string, error)

// EnvLoader returns a Loader reading the given environment variables.
// Unset variables are omitted.
func EnvLoader(keys ...string) Loader {
	return func() (map[string]string, error) {
		vals := make(map[string]string, len(keys))
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				vals[k] = v
			}
		}
		return vals, nil
	}
}

// Vault keeps secret values in memory and swaps them atomically on Reload.
type Vault struct {
	mu     sync.RWMutex
	values map[string]string
	loader Loader
}

// NewVault creates a Vault and loads it once.
func NewVault(loader Loader) (*Vault, error) {
	vals, err := loader()
	if err != nil {
		return nil, fmt.Errorf("initial secret load: %w", err)
	}
	return &Vault{values: vals, loader: loader}, nil
}

// NewCredentialsVault loads EmailKey and PasswordKey from the environment.
func NewCredentialsVault() (*Vault, error) {
	return NewVault(EnvLoader(EmailKey, PasswordKey))
}

// Get returns the secret for key, or "".
func (v *Vault) Get(key string) string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.values[key]
}

// Credentials returns the service-account email and password. ok is false
// unless both are set.
func (v *Vault) Credentials() (email, password string, ok bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	email, password = v.values[EmailKey], v.values[PasswordKey]
	return email, password, email != "" && password != ""
}

// Reload re-runs the loader. On error the previous values are kept.
func (v *Vault) Reload() error {
	vals, err := v.loader()
	if err != nil {
		return fmt.Errorf("reload secrets: %w", err)
	}
	v.mu.Lock()
	v.values = vals
	v.mu.Unlock()
	return nil
}

// Redacted returns a masked form of the secret for key, safe for logs.
func (v *Vault) Redacted(key string) string {
	return mask(v.Get(key))
}

// RedactString masks every secret value found in s.
func (v *Vault) RedactString(s string) string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, val := range v.values {
		if len(val) > 4 {
			s = strings.ReplaceAll(s, val, mask(val))
		}
	}
	return s
}

func mask(val string) string {
	switch {
	case val == "":
		return ""
	case len(val) <= 4:
		return "****"
	default:
		return val[:2] + "****"
	}
}
