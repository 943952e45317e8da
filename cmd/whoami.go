package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var whoamiOffline bool

// whoamiCmd shows the account of the stored login.
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show current authenticated account",
	Long: `The whoami command displays the account of the stored login. Unless --offline
is given the stored credentials are verified against the platform; credentials
the platform rejects are removed so the next command asks for a fresh login.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := rt.authService()
		if err != nil {
			return err
		}
		account, ok, err := svc.WhoAmI(cmd.Context(), !whoamiOffline)
		if err != nil {
			return err
		}
		if !ok {
			pterm.Println("🔒 You're not logged in yet!")
			pterm.Println("   Run 'gdc login' to get started.")
			return nil
		}
		pterm.Printf("👤 Current user: %s\n", account)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
	whoamiCmd.Flags().BoolVar(&whoamiOffline, "offline", false, "Show the stored account without contacting the platform")
}
