package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newExportCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every table to a compressed YAML snapshot",
		Example: `  memoria export -o memory.yaml.zst
  memoria export > memory.yaml.zst`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := a.memory.Export(cmd.Context(), w); err != nil {
				return err
			}
			if output != "" && output != "-" {
				p.PrintSuccess(fmt.Sprintf("Exported to %s", p.FormatPath(output)))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Snapshot file (default stdout)")
	return cmd
}

func newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <snapshot>",
		Short: "Load a snapshot into an empty database",
		Long: `Load a snapshot written by memoria export into an empty database.
IDs and timestamps are kept and the keyword index is rebuilt. Vectors
are filled by the next backfill (memoria embeddings backfill).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.memory.Import(cmd.Context(), r)
			if err != nil {
				return err
			}
			p.PrintSuccess(fmt.Sprintf("Imported %d projects, %d topics, %d logs, %d decisions, %d tasks",
				stats.Projects, stats.Topics, stats.Logs, stats.Decisions, stats.Tasks))
			return nil
		},
	}
}
