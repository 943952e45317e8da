// Copyright (c) 2025 gdc authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"
	"os"
	"strings"

	"gooddata/cli/internal/project"
	"gooddata/cli/internal/terminal"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	createSummary  string
	createTemplate string
	createToken    string
	deleteByName   bool
	deleteYes      bool
)

// projectCmd groups project management commands.
var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Create, find and delete projects",
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the projects visible to the account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sess, err := rt.session(ctx)
		if err != nil {
			return err
		}
		links, err := rt.projects(sess, nil).List(ctx)
		if err != nil {
			return err
		}
		if len(links) == 0 {
			pterm.Println("No projects.")
			return nil
		}
		data := pterm.TableData{{"Identifier", "Title", "Summary"}}
		for _, l := range links {
			data = append(data, []string{l.Identifier, l.Title, l.Summary})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	},
}

var projectIDCmd = &cobra.Command{
	Use:   "id <title>",
	Short: "Print the identifier of the project with the given title",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sess, err := rt.session(ctx)
		if err != nil {
			return err
		}
		p, err := rt.projects(sess, nil).LoadByName(ctx, args[0])
		if err != nil {
			return err
		}
		pterm.Println(p.ID())
		return nil
	},
}

var projectCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a project",
	Long: `The create command creates a project titled <title>. An authorization token is
required; it can also be set with GDC_AUTH_TOKEN. --template creates the project
from a project template URI.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token := createToken
		if token == "" {
			token = os.Getenv("GDC_AUTH_TOKEN")
		}
		if strings.TrimSpace(token) == "" {
			return errors.New("an authorization token is required: pass --token or set GDC_AUTH_TOKEN")
		}
		ctx := cmd.Context()
		sess, err := rt.session(ctx)
		if err != nil {
			return err
		}
		var p *project.Project
		err = spin("Creating project "+args[0], "Project created", func() error {
			p, err = rt.projects(sess, nil).Create(ctx, project.CreateRequest{
				Title:    args[0],
				Summary:  createSummary,
				Template: createTemplate,
				Token:    token,
			})
			return err
		})
		if err != nil {
			return err
		}
		pterm.Println(p.ID())
		return nil
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a project",
	Long: `The delete command deletes the project with the given identifier, or the
--project one. With --by-name the argument is a title and every project carrying
that title is deleted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if deleteByName {
			if len(args) != 1 {
				return errors.New("--by-name needs the project title")
			}
			return deleteProjectsByName(cmd, args[0])
		}

		id := ""
		if len(args) == 1 {
			id = args[0]
		} else if id, _ = rt.projectID(); id == "" {
			return errNoProject
		}
		if !confirm("Delete project " + id + "?") {
			return nil
		}
		sess, err := rt.session(ctx)
		if err != nil {
			return err
		}
		return spin("Deleting project "+id, "Project "+id+" deleted", func() error {
			return rt.projects(sess, nil).Load(id).Delete(ctx)
		})
	},
}

var projectDeleteByNameCmd = &cobra.Command{
	Use:   "delete-by-name <title>",
	Short: "Delete every project with the given title",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return deleteProjectsByName(cmd, args[0])
	},
}

func deleteProjectsByName(cmd *cobra.Command, title string) error {
	if !confirm("Delete every project titled " + title + "?") {
		return nil
	}
	ctx := cmd.Context()
	sess, err := rt.session(ctx)
	if err != nil {
		return err
	}
	var n int
	err = spin("Deleting projects titled "+title, "Done", func() error {
		n, err = rt.projects(sess, nil).DeleteByName(ctx, title)
		return err
	})
	if n > 0 {
		pterm.Printf("Deleted %d project(s) titled %s\n", n, title)
	} else if err == nil {
		pterm.Printf("No project titled %s\n", title)
	}
	return err
}

// confirm asks a yes/no question unless --yes was given or stdin is not a terminal.
func confirm(question string) bool {
	if deleteYes || !terminal.IsInteractive() {
		return true
	}
	ok, _ := pterm.DefaultInteractiveConfirm.WithDefaultValue(false).Show(question)
	return ok
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectListCmd, projectIDCmd, projectCreateCmd, projectDeleteCmd, projectDeleteByNameCmd)

	projectCreateCmd.Flags().StringVar(&createSummary, "summary", "", "Project summary")
	projectCreateCmd.Flags().StringVar(&createTemplate, "template", "", "Project template URI")
	projectCreateCmd.Flags().StringVar(&createToken, "token", "", "Authorization token")

	projectDeleteCmd.Flags().BoolVar(&deleteByName, "by-name", false, "Treat the argument as a title and delete all matches")
	projectCmd.PersistentFlags().BoolVarP(&deleteYes, "yes", "y", false, "Do not ask for confirmation")
}
