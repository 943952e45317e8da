// Package xdg resolves XDG Base Directory paths for gdc.
//
// It falls back to the traditional ~/.config and ~/.local/state locations when
// the XDG environment variables are unset, and creates directories private to
// the user since they may hold login state.
package xdg

import (
	"os"
	"path/filepath"
)

// App is the directory name used under every XDG base.
const App = "gdc"

// ConfigDir returns the XDG config directory for gdc, creating it with 0700
// permissions if missing. It falls back to ~/.config/gdc when XDG_CONFIG_HOME
// is unset.
func ConfigDir() (string, error) {
	return resolve("XDG_CONFIG_HOME", ".config")
}

// StateDir returns the XDG state directory for gdc, which holds non-secret
// runtime state such as the last staged directory. It falls back to
// ~/.local/state/gdc when XDG_STATE_HOME is unset.
func StateDir() (string, error) {
	return resolve("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func resolve(env, fallback string) (string, error) {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, fallback)
	}
	dir := filepath.Join(base, App)
	if err := os.MkdirAll(dir, 0o700); err != nil { // private dir
		return "", err
	}
	return dir, nil
}
