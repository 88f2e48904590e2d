package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInfoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show database location and row counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveDBPath()
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			st, err := a.store.Stats(cmd.Context())
			if err != nil {
				return err
			}

			p.PrintListItem("Database", p.FormatPath(path))
			p.PrintListItem("Projects", fmt.Sprintf("%d", st.Projects))
			p.PrintListItem("Topics", fmt.Sprintf("%d", st.Topics))
			p.PrintListItem("Decisions", fmt.Sprintf("%d", st.Decisions))
			p.PrintListItem("Tasks", fmt.Sprintf("%d", st.Tasks))
			p.PrintListItem("Logs", fmt.Sprintf("%d", st.Logs))
			p.PrintListItem("Index", fmt.Sprintf("%d rows (%d keyword, %d vectors)", st.IndexRows, st.LexicalRows, st.VectorRows))
			if st.LexicalRows != st.IndexRows {
				p.PrintWarning(fmt.Sprintf("Keyword index has %d rows for %d index entries", st.LexicalRows, st.IndexRows))
			}
			p.PrintListItem("Search mode", string(a.mode))
			return nil
		},
	}
	return cmd
}
