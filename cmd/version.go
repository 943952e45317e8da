// Copyright (c) 2025 gdc authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import "runtime/debug"

var (
	// Version holds the CLI version, set at build time with
	// -ldflags "-X gooddata/cli/cmd.Version=...".
	Version = "0.0.0-dev"
)

// versionString returns the version with the VCS revision when the binary was
// built from a checkout.
func versionString() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Version
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return Version + " (" + s.Value[:7] + ")"
		}
	}
	return Version
}
