// Package auth resolves platform credentials and keeps the persisted login
// state. Credentials come from, in order: explicit flags, the GDC_USERNAME and
// GDC_PASSWORD environment variables, and the OS keychain entry written by
// `gdc login`.
package auth

import (
	"os"
	"strings"

	"gooddata/cli/internal/keychain"
	"gooddata/cli/internal/session"
)

// Environment variables consulted for credentials.
const (
	EnvUsername = "GDC_USERNAME"
	EnvPassword = "GDC_PASSWORD"
)

// IsLoggedIn reports whether the user is considered logged in.
func IsLoggedIn() (bool, error) {
	st, err := Load()
	if err != nil {
		return false, err
	}
	return st.LoggedIn, nil
}

// Resolve fills the missing fields of override from the environment, then from
// the keychain. A password is only taken from a source whose username matches.
func Resolve(km *keychain.Manager, override session.Credentials) (session.Credentials, error) {
	c := override
	envUser, envPass := strings.TrimSpace(os.Getenv(EnvUsername)), os.Getenv(EnvPassword)
	if c.Username == "" {
		c.Username = envUser
	}
	if c.Password == "" && envPass != "" && (envUser == "" || envUser == c.Username) {
		c.Password = envPass
	}
	if c.Username != "" && c.Password != "" {
		return c, nil
	}
	if km != nil {
		if user, pass, err := km.LoadCredentials(); err == nil {
			if c.Username == "" {
				c.Username = user
			}
			if c.Password == "" && c.Username == user {
				c.Password = pass
			}
		}
	}
	if c.Username == "" || c.Password == "" {
		return c, ErrNoCredentials
	}
	return c, nil
}
