// Copyright (c) 2025 gdc authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"
	"os"
	"strings"

	"gooddata/cli/internal/auth"
	"gooddata/cli/internal/session"
	"gooddata/cli/internal/terminal"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var passwordStdin bool

// loginCmd verifies platform credentials and stores them in the OS keychain.
var loginCmd = &cobra.Command{
	Use:     "login",
	Aliases: []string{"auth"},
	Short:   "Log in to GoodData and remember the credentials",
	Long: `The login command authenticates against the GoodData account service with a
username and password. The username comes from --username, GDC_USERNAME or a
prompt; the password from GDC_PASSWORD, --password-stdin or a hidden prompt.

On success the credentials are stored in the OS keychain and reused by every
other command. A failed login leaves previously stored credentials untouched.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, err := rt.authService()
		if err != nil {
			pterm.Println("❌ Secure storage is not available on this system.")
			return err
		}

		username := strings.TrimSpace(flagUsername)
		if username == "" {
			username = strings.TrimSpace(os.Getenv(auth.EnvUsername))
		}
		if username == "" {
			if username, err = terminal.ReadLine("Username: ", os.Stdin); err != nil {
				return err
			}
		}
		if username == "" {
			return errors.New("username is required")
		}

		password := os.Getenv(auth.EnvPassword)
		if passwordStdin || password == "" {
			prompt := "Password: "
			if passwordStdin {
				prompt = ""
			}
			if password, err = terminal.ReadSecret(prompt, os.Stdin); err != nil {
				return err
			}
		}
		if password == "" {
			return errors.New("password is required")
		}

		var m *session.Manager
		err = spin("Logging in to "+rt.cfg.Host, "Credentials verified", func() error {
			m, err = svc.Login(ctx, session.Credentials{Username: username, Password: password})
			return err
		})
		if err != nil {
			return err
		}
		pterm.Printf("✅ Logged in as %s\n", m.Username())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
}
