// Copyright (c) 2025 gdc authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"gooddata/cli/internal/keychain"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var logoutAll bool

// logoutCmd clears the stored platform credentials and login state.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove saved credentials",
	Long: `The logout command removes the platform credentials and login state from the
OS keychain. The platform session cookie is never persisted, so nothing has to be
revoked remotely.

With --all the saved source database connection is removed as well.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := rt.authService()
		if err != nil {
			return err
		}
		if err := svc.Logout(); err != nil {
			return err
		}
		if logoutAll {
			if km, err := keychain.GetManager(); err == nil {
				_ = km.ClearSource()
			}
			pterm.Println("✅ Credentials and source connection have been removed")
			return nil
		}
		pterm.Println("✅ Credentials have been removed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
	logoutCmd.Flags().BoolVar(&logoutAll, "all", false, "Also remove the saved source database connection")
}
