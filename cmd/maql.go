// Copyright (c) 2025 gdc authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"gooddata/cli/internal/project"
	"gooddata/cli/internal/task"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	maqlFile   string
	maqlNoWait bool
)

// maqlCmd groups commands working with MAQL schema scripts.
var maqlCmd = &cobra.Command{
	Use:   "maql",
	Short: "Validate and execute MAQL schema scripts",
	Long: `MAQL scripts change a project's logical data model. The script is read from the
arguments, from --file, or from stdin with --file -.`,
}

var maqlValidateCmd = &cobra.Command{
	Use:   "validate [script]",
	Short: "Check a MAQL script without executing it",
	RunE: func(cmd *cobra.Command, args []string) error {
		maql, err := readScript(args, maqlFile)
		if err != nil {
			return err
		}
		id, err := rt.projectID()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		sess, err := rt.session(ctx)
		if err != nil {
			return err
		}
		return spin("Validating MAQL", "MAQL is valid", func() error {
			return rt.projects(sess, nil).Load(id).ValidateMAQL(ctx, maql)
		})
	},
}

var maqlExecuteCmd = &cobra.Command{
	Use:   "execute [script]",
	Short: "Validate and execute a MAQL script",
	Long: `The execute command validates the script, submits it and waits for every
resulting task in order. Nothing is submitted when validation fails. With
--no-wait the task links are printed without waiting.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		maql, err := readScript(args, maqlFile)
		if err != nil {
			return err
		}
		id, err := rt.projectID()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		sess, err := rt.session(ctx)
		if err != nil {
			return err
		}
		var opts []project.ExecOption
		if maqlNoWait {
			opts = append(opts, project.NoWait())
		}
		var links []string
		err = track("Executing MAQL", "MAQL executed", func(hook func(task.Handle, string)) error {
			links, err = rt.projects(sess, hook).Load(id).ExecuteMAQL(ctx, maql, opts...)
			return err
		})
		if err != nil {
			return err
		}
		if maqlNoWait {
			for _, l := range links {
				pterm.Println(l)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(maqlCmd)
	maqlCmd.AddCommand(maqlValidateCmd, maqlExecuteCmd)
	maqlCmd.PersistentFlags().StringVarP(&maqlFile, "file", "f", "", "Read the script from a file (- for stdin)")
	maqlExecuteCmd.Flags().BoolVar(&maqlNoWait, "no-wait", false, "Submit without waiting for the tasks")
}
