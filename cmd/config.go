package cmd

import (
	"os"

	"gooddata/cli/internal/config"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configForce bool

// configCmd groups commands managing the config file.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or write the CLI configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration (defaults, file, environment and flags)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := rt.cfg
		doc := map[string]any{
			"host":         c.Host,
			"staging_host": c.StagingHost,
			"http_timeout": c.HTTPTimeout.String(),
			"project":      c.Project,
			"poll": map[string]any{
				"interval":     c.Poll.Interval.String(),
				"multiplier":   c.Poll.Multiplier,
				"max_interval": c.Poll.MaxInterval.String(),
				"timeout":      c.Poll.Timeout.String(),
			},
			"log": map[string]any{"level": c.Log.Level, "format": c.Log.Format},
		}
		out, err := yaml.Marshal(doc)
		if err != nil {
			return err
		}
		pterm.Print(string(out))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective configuration to the config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			p, err := config.Path()
			if err != nil {
				return err
			}
			path = p
		}
		if _, err := os.Stat(path); err == nil && !configForce {
			pterm.Warning.Printf("%s already exists; pass --force to overwrite it\n", path)
			return nil
		}
		if err := config.Save(path, rt.cfg); err != nil {
			return err
		}
		pterm.Printf("✅ Configuration written to %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configInitCmd)
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")
}
