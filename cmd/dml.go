package cmd

import (
	"gooddata/cli/internal/task"

	"github.com/spf13/cobra"
)

var dmlFile string

// dmlCmd groups commands working with data manipulation scripts.
var dmlCmd = &cobra.Command{
	Use:   "dml",
	Short: "Execute DML (row deletion) scripts",
}

var dmlExecuteCmd = &cobra.Command{
	Use:   "execute [script]",
	Short: "Execute a DML script and wait for it to finish",
	Long: `The execute command submits a DML script, e.g.
  DELETE FROM {attr.orders.id} WHERE {label.orders.id} = "1";
and waits for the resulting task.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dml, err := readScript(args, dmlFile)
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
		return track("Executing DML", "DML executed", func(hook func(task.Handle, string)) error {
			return rt.projects(sess, hook).Load(id).ExecuteDML(ctx, dml)
		})
	},
}

func init() {
	rootCmd.AddCommand(dmlCmd)
	dmlCmd.AddCommand(dmlExecuteCmd)
	dmlExecuteCmd.Flags().StringVarP(&dmlFile, "file", "f", "", "Read the script from a file (- for stdin)")
}
