// Copyright (c) 2025 gdc authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"

	"gooddata/cli/internal/keychain"
	"gooddata/cli/internal/sqlexport"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// sourceCmd displays the source database connection with the password masked.
var sourceCmd = &cobra.Command{
	Use:     "source",
	Aliases: []string{"dbinfo"},
	Short:   "Show the source database connection string",
	Long: `The source command displays the PostgreSQL connection that 'gdc upload --query'
reads from, with the password masked. GDC_SOURCE_DSN and DATABASE_URL take
precedence over the connection saved by 'gdc connect'.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		var store sqlexport.DSNStore
		if km, err := keychain.GetManager(); err == nil {
			store = km
		}
		dsn, from, err := sqlexport.ResolveDSN("", store)
		if errors.Is(err, sqlexport.ErrNoSource) {
			pterm.Println("⚠️  No source database configured")
			pterm.Println("   Please run: gdc connect")
			return nil
		}
		if err != nil {
			return err
		}

		pterm.Printf("Using DSN from %s\n\n", from)
		pterm.DefaultBox.
			WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Source Database")).
			WithPadding(1).
			Println(sqlexport.MaskDSN(dsn))
		pterm.Println()
		pterm.Println("To update this connection, run: gdc connect")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sourceCmd)
}
