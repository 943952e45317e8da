// Copyright (c) 2025 gdc authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package auth

import (
	"context"
	"errors"
	"time"

	"gooddata/cli/internal/keychain"
	"gooddata/cli/internal/session"
)

// ErrNoCredentials means no complete username/password pair could be resolved.
var ErrNoCredentials = errors.New("no platform credentials: run 'gdc login' or set GDC_USERNAME and GDC_PASSWORD")

// Service centralizes authentication-related operations against the platform
// and local secure storage/state.
type Service struct {
	keys *keychain.Manager
	host string
	opts []session.Option
	now  func() time.Time
}

// NewService constructs an auth Service for the platform at host.
func NewService(keys *keychain.Manager, host string, opts ...session.Option) *Service {
	return &Service{keys: keys, host: host, opts: opts, now: time.Now}
}

// Login verifies creds against the platform and, on success, stores them in the
// keychain together with the login state. Failed attempts leave the stored
// credentials untouched.
func (s *Service) Login(ctx context.Context, creds session.Credentials) (*session.Manager, error) {
	m := session.New(s.host, creds, s.opts...)
	if err := m.Login(ctx); err != nil {
		return nil, err
	}
	if err := s.keys.SaveCredentials(creds.Username, creds.Password); err != nil {
		return nil, err
	}
	st := State{LoggedIn: true, Account: creds.Username, Host: m.BaseURL(), LoggedInAt: s.now().UTC()}
	if err := SaveState(s.keys, st); err != nil {
		return nil, err
	}
	return m, nil
}

// Session resolves credentials (override, environment, keychain) and returns a
// logged-in session manager.
func (s *Service) Session(ctx context.Context, override session.Credentials) (*session.Manager, error) {
	creds, err := Resolve(s.keys, override)
	if err != nil {
		return nil, err
	}
	m := session.New(s.host, creds, s.opts...)
	if err := m.Login(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// WhoAmI returns the account of the persisted login. When verify is set the
// stored credentials are checked against the platform, and rejected ones reset
// the local state.
func (s *Service) WhoAmI(ctx context.Context, verify bool) (string, bool, error) {
	st, err := LoadState(s.keys)
	if err != nil {
		return "", false, err
	}
	if !st.LoggedIn || st.Account == "" {
		return "", false, nil
	}
	if !verify {
		return st.Account, true, nil
	}
	if _, err := s.Session(ctx, session.Credentials{}); err != nil {
		if errors.Is(err, ErrNoCredentials) || session.IsSessionExpired(err) {
			_ = s.ResetLocalAuth()
			return "", false, nil
		}
		return st.Account, true, err
	}
	return st.Account, true, nil
}

// Logout clears local credentials and state. The platform session cookie is
// never persisted, so there is nothing to revoke remotely.
func (s *Service) Logout() error {
	return s.ResetLocalAuth()
}

// ResetLocalAuth clears only local credentials/state (no remote calls).
func (s *Service) ResetLocalAuth() error {
	if err := s.keys.ClearAuth(); err != nil {
		return err
	}
	return s.keys.ClearAuthState()
}
