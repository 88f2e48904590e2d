package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/stormlightlabs/memoria/internal/memory"
	"github.com/stormlightlabs/memoria/internal/shared"
)

func newProjectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects"},
		Short:   "Manage projects",
	}
	cmd.AddCommand(newProjectAddCommand(), newProjectListCommand(), newProjectShowCommand())
	return cmd
}

func newProjectAddCommand() *cobra.Command {
	var in memory.NewProject
	cmd := &cobra.Command{
		Use:     "add <name>",
		Short:   "Create a project",
		Example: `  memoria project add memoria --description "discussion memory" --asana https://app.asana.com/0/1`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			in.Name = args[0]
			proj, err := a.memory.AddProject(cmd.Context(), in)
			if err != nil {
				return err
			}
			if ok, err := emit(cmd.OutOrStdout(), proj); ok {
				return err
			}
			p.PrintSuccess(fmt.Sprintf("Created %s %s", p.FormatRef("project", proj.ID), proj.Name))
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Description, "description", "", "Project description")
	cmd.Flags().StringVar(&in.AsanaURL, "asana", "", "Asana project URL")
	addFormatFlag(cmd)
	return cmd
}

func newProjectListCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(); err != nil {
				return err
			}
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			projects, err := a.memory.ListProjects(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if ok, err := emit(cmd.OutOrStdout(), projects); ok {
				return err
			}
			if len(projects) == 0 {
				p.PrintInfo("No projects yet")
				return nil
			}
			t := newTable(cmd.OutOrStdout(), "ID", "Name", "Description", "Created")
			for _, proj := range projects {
				t.AppendRow([]any{proj.ID, proj.Name, optCell(proj.Description), proj.CreatedAt})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 30, "Maximum number of projects (at most 30)")
	addFormatFlag(cmd)
	return cmd
}

func newProjectShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			proj, err := a.memory.GetProject(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printRecord(cmd, proj)
		},
	}
	addFormatFlag(cmd)
	addRenderFlags(cmd)
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.Errorf(shared.CodeInvalidArgument, "invalid id %q", s)
	}
	return id, nil
}
