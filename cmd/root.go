// Copyright (c) 2025 gdc authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface of gdc, a client for the
// GoodData analytics platform. It implements subcommands for authentication,
// project management, MAQL/DML execution and data uploads using the Cobra CLI
// framework, with pterm spinners while remote tasks are polled.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gooddata/cli/internal/config"
	gderrors "gooddata/cli/internal/errors"
	"gooddata/cli/internal/httperrors"
	"gooddata/cli/internal/logging"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	showVersion     bool
	cfgFile         string
	flagHost        string
	flagStagingHost string
	flagUsername    string
	flagProject     string
	flagLogFormat   string
	flagVerbose     bool
	flagHTTPTimeout time.Duration
	flagPollTimeout time.Duration
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "gdc",
	Short: "Command-line client for the GoodData analytics platform",
	Long: `gdc manages GoodData projects, runs MAQL and DML scripts and loads CSV data
through the staging service. Remote tasks are polled until they finish, fail or
exceed --poll-timeout.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			pterm.Printf("gdc %s\n", versionString())
			return nil
		}
		return cmd.Help()
	},
}

// Execute runs the CLI application. Interrupts cancel the command context, which
// stops any in-flight polling.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		renderError(err)
		stop()
		os.Exit(1)
	}
}

// renderError prints the report of err once. Errors without a kind go to stderr.
func renderError(err error) {
	if gderrors.KindOf(err) == "" {
		fmt.Fprintln(os.Stderr, errorReport(err))
		return
	}
	pterm.Println(errorReport(err))
}

// errorReport renders err the way its kind deserves: connectivity problems get
// troubleshooting steps, platform errors a titled report.
func errorReport(err error) string {
	switch {
	case gderrors.IsKind(err, gderrors.ServiceUnavailable):
		return strings.TrimRight(httperrors.Describe(err, "talking to GoodData"), "\n")
	case gderrors.KindOf(err) != "":
		return logging.FormatOperationError(err)
	default:
		return "❌ " + logging.PresentError("", err)
	}
}

// setup loads configuration, applies flag overrides and builds the logger.
func setup(cmd *cobra.Command) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = flagHost
	}
	if flags.Changed("staging-host") {
		cfg.StagingHost = flagStagingHost
	}
	if flags.Changed("project") {
		cfg.Project = flagProject
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = flagLogFormat
	}
	if flags.Changed("http-timeout") {
		cfg.HTTPTimeout = flagHTTPTimeout
	}
	if flags.Changed("poll-timeout") {
		cfg.Poll.Timeout = flagPollTimeout
	}
	if flagVerbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	rt = &app{cfg: cfg, log: logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)}
	rt.log.Debug("configuration loaded", rt.log.Args(
		"host", cfg.Host,
		"staging_host", cfg.StagingHost,
		"poll_timeout", cfg.Poll.Timeout.String(),
	))
	return nil
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show CLI version information")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default $XDG_CONFIG_HOME/gdc/config.yaml)")
	pf.StringVar(&flagHost, "host", "", "GoodData API host")
	pf.StringVar(&flagStagingHost, "staging-host", "", "Staging (WebDAV) host")
	pf.StringVarP(&flagUsername, "username", "u", "", "Account to authenticate as (overrides GDC_USERNAME and the keychain)")
	pf.StringVarP(&flagProject, "project", "p", "", "Project identifier")
	pf.StringVar(&flagLogFormat, "log-format", "", "Log format: text or json")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug output")
	pf.DurationVar(&flagHTTPTimeout, "http-timeout", 0, "Timeout of a single HTTP request")
	pf.DurationVar(&flagPollTimeout, "poll-timeout", 0, "Maximum time to wait for a remote task (0 waits forever)")
}
