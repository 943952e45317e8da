// Copyright (c) 2025 gdc authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain provides centralized, thread-safe keychain operations for gdc.
// It stores the platform credentials, the Postgres source DSN and the serialized
// login state in the OS credential store (macOS Keychain, Windows Credential
// Manager, Secret Service, KWallet or pass), never on disk in clear text.
package keychain

import (
	"errors"
	"sync"

	"github.com/99designs/keyring"
)

// Global keychain manager instance
var (
	globalManager *Manager
	globalError   error
	mu            sync.Mutex
)

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "gdc"

// Keys used for storing secrets in the OS keychain.
const (
	KeyUsername  = "platform_username"
	KeyPassword  = "platform_password"
	KeyAuthState = "auth_state"
	KeySourceDSN = "source_dsn"
)

// ErrNotFound is returned when a secret has never been stored.
var ErrNotFound = errors.New("secret not found in keychain")

// Manager provides thread-safe operations on a keyring.
type Manager struct {
	mu   sync.RWMutex
	ring keyring.Keyring
}

// New wraps an already opened keyring, e.g. keyring.NewArrayKeyring in tests.
func New(ring keyring.Keyring) *Manager {
	return &Manager{ring: ring}
}

// NewManager creates a new keychain manager with the OS keyring initialized.
func NewManager() (*Manager, error) {
	ring, err := openRing()
	if err != nil {
		return nil, err
	}
	return New(ring), nil
}

// GetManager returns the global keychain manager instance.
// If initialization fails, it will retry on subsequent calls.
func GetManager() (*Manager, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalManager != nil {
		return globalManager, nil
	}
	globalManager, globalError = NewManager()
	if globalError != nil {
		return nil, globalError
	}
	return globalManager, nil
}

// SetManager installs m as the global manager. Tests use it with an in-memory ring.
func SetManager(m *Manager) {
	mu.Lock()
	defer mu.Unlock()
	globalManager, globalError = m, nil
}

// openRing opens the OS keyring using native backends only; there is no
// plain file fallback.
func openRing() (keyring.Keyring, error) {
	cfg := keyring.Config{
		ServiceName: ServiceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.WinCredBackend,
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.PassBackend,
		},
		KeychainTrustApplication: true,
		LibSecretCollectionName:  "login",
		KWalletAppID:             ServiceName,
		KWalletFolder:            ServiceName,
		PassPrefix:               ServiceName,
		WinCredPrefix:            ServiceName,
	}
	ring, err := keyring.Open(cfg)
	if err != nil {
		return nil, errors.New("no secure credential store available (install a Secret Service provider or 'pass' on Linux): " + err.Error())
	}
	return ring, nil
}

func (m *Manager) set(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ring.Set(keyring.Item{Key: key, Data: data, Label: ServiceName + " " + key})
}

func (m *Manager) get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, err := m.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return it.Data, nil
}

func (m *Manager) remove(keys ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		_ = m.ring.Remove(k)
	}
}

// SaveCredentials stores the platform username and password.
func (m *Manager) SaveCredentials(username, password string) error {
	if err := m.set(KeyUsername, []byte(username)); err != nil {
		return err
	}
	return m.set(KeyPassword, []byte(password))
}

// LoadCredentials returns the stored platform username and password.
func (m *Manager) LoadCredentials() (string, string, error) {
	user, err := m.get(KeyUsername)
	if err != nil {
		return "", "", err
	}
	pass, err := m.get(KeyPassword)
	if err != nil {
		return "", "", err
	}
	if len(user) == 0 {
		return "", "", errors.New("empty username")
	}
	return string(user), string(pass), nil
}

// ClearAuth removes the credentials and login state.
func (m *Manager) ClearAuth() error {
	m.remove(KeyUsername, KeyPassword, KeyAuthState)
	return nil
}

// SaveAuthState stores serialized auth state in the keychain.
func (m *Manager) SaveAuthState(data []byte) error {
	return m.set(KeyAuthState, data)
}

// LoadAuthState retrieves serialized auth state; missing state yields nil data.
func (m *Manager) LoadAuthState() ([]byte, error) {
	data, err := m.get(KeyAuthState)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return data, err
}

// ClearAuthState removes the stored auth state from the keychain.
func (m *Manager) ClearAuthState() error {
	m.remove(KeyAuthState)
	return nil
}

// SaveSourceDSN stores the Postgres source DSN.
func (m *Manager) SaveSourceDSN(dsn string) error {
	return m.set(KeySourceDSN, []byte(dsn))
}

// LoadSourceDSN retrieves the Postgres source DSN.
func (m *Manager) LoadSourceDSN() (string, error) {
	data, err := m.get(KeySourceDSN)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ClearSource removes the source DSN.
func (m *Manager) ClearSource() error {
	m.remove(KeySourceDSN)
	return nil
}

// ClearAll removes all secrets from the keychain.
func (m *Manager) ClearAll() error {
	m.remove(KeyUsername, KeyPassword, KeyAuthState, KeySourceDSN)
	return nil
}
