package cli

import (
	"github.com/spf13/cobra"

	"github.com/stormlightlabs/memoria/internal/shared"
	"github.com/stormlightlabs/memoria/internal/tui"
)

func newTuiCommand() *cobra.Command {
	var project int64
	var limit int
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Launch the terminal user interface",
		Long: `Browse a project interactively: search as you type, open hits as tabs
and follow a record to its topic.`,
		Example: "  memoria tui -p 1",
		RunE: func(cmd *cobra.Command, args []string) error {
			if project <= 0 {
				return shared.Errorf(shared.CodeInvalidArgument, "invalid project %d", project)
			}
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			return tui.Run(a.search, tui.Options{ProjectID: project, Mode: a.mode, Limit: limit})
		},
	}
	cmd.Flags().Int64VarP(&project, "project", "p", 0, "Project ID (required)")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Maximum results per search (default from config)")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}
