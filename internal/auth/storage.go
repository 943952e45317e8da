// Copyright (c) 2025 gdc authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package auth

import (
	"encoding/json"
	"time"

	"gooddata/cli/internal/keychain"
)

// State represents persisted login state for the current user. It carries no
// secret; the credentials themselves are separate keychain entries.
type State struct {
	LoggedIn   bool      `json:"logged_in"`
	Account    string    `json:"account"`
	Host       string    `json:"host"`
	LoggedInAt time.Time `json:"logged_in_at"`
}

// LoadState reads the auth state from km. Missing state yields zero value.
func LoadState(km *keychain.Manager) (State, error) {
	var s State
	data, err := km.LoadAuthState()
	if err != nil {
		return s, err
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, err
	}
	return s, nil
}

// SaveState writes the auth state to km.
func SaveState(km *keychain.Manager, s State) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return km.SaveAuthState(b)
}

// Load reads the auth state from the global keychain manager.
func Load() (State, error) {
	km, err := keychain.GetManager()
	if err != nil {
		return State{}, err
	}
	return LoadState(km)
}

// Clear removes the auth state from the global keychain manager.
func Clear() error {
	km, err := keychain.GetManager()
	if err != nil {
		return err
	}
	return km.ClearAuthState()
}
