package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stormlightlabs/memoria/internal/embedding"
)

func newEmbeddingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "embeddings",
		Aliases: []string{"embed"},
		Short:   "Inspect and fill the vector index",
	}
	cmd.AddCommand(newEmbeddingsStatusCommand(), newEmbeddingsBackfillCommand())
	return cmd
}

type embeddingsReport struct {
	State         string `json:"state" yaml:"state"`
	Provider      string `json:"provider" yaml:"provider"`
	Model         string `json:"model" yaml:"model"`
	Dimensions    int    `json:"dimensions" yaml:"dimensions"`
	IndexRows     int    `json:"index_rows" yaml:"index_rows"`
	Vectors       int    `json:"vectors" yaml:"vectors"`
	MissingVector int    `json:"missing_vectors" yaml:"missing_vectors"`
	Error         string `json:"error,omitempty" yaml:"error,omitempty"`
}

func newEmbeddingsStatusCommand() *cobra.Command {
	var probe bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the embedding provider and vector coverage",
		Long: `Show the embedding provider, the model state and how many index rows
still lack a vector. --probe loads the model first, which also runs the
one-time backfill.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(); err != nil {
				return err
			}
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if probe {
				a.embedding.Warm(cmd.Context())
			}
			st := a.embedding.Status()
			stats, err := a.store.Stats(cmd.Context())
			if err != nil {
				return err
			}

			report := embeddingsReport{
				State:         st.State.String(),
				Provider:      st.Provider,
				Model:         st.Model,
				Dimensions:    st.Dimensions,
				IndexRows:     stats.IndexRows,
				Vectors:       stats.VectorRows,
				MissingVector: stats.MissingVector,
				Error:         st.Err,
			}
			if ok, err := emit(cmd.OutOrStdout(), report); ok {
				return err
			}

			p.PrintListItem("Provider", report.Provider)
			p.PrintListItem("Model", report.Model)
			p.PrintListItem("Dimensions", fmt.Sprintf("%d", report.Dimensions))
			p.PrintListItem("State", stateLabel(st.State))
			p.PrintListItem("Vectors", fmt.Sprintf("%d of %d index rows", report.Vectors, report.IndexRows))
			if report.MissingVector > 0 {
				p.PrintListItem("Missing", fmt.Sprintf("%d", report.MissingVector))
			}
			if report.Error != "" {
				p.PrintListItem("Error", p.Styles.Error.Render(report.Error))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&probe, "probe", false, "Load the model before reporting")
	addFormatFlag(cmd)
	return cmd
}

func stateLabel(s embedding.State) string {
	switch s {
	case embedding.StateReady:
		return p.Styles.Success.Render(s.String())
	case embedding.StateFailed:
		return p.Styles.Error.Render(s.String())
	default:
		return p.Styles.Muted.Render(s.String())
	}
}

func newEmbeddingsBackfillCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "backfill",
		Short: "Embed every index row that has no vector",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			n := a.embedding.Backfill(cmd.Context())
			if st := a.embedding.Status(); st.State != embedding.StateReady {
				msg := fmt.Sprintf("Embedding model is %s", st.State)
				if st.Err != "" {
					msg += ": " + st.Err
				}
				return errors.New(msg)
			}
			p.PrintSuccess(fmt.Sprintf("Stored %d vectors", n))
			return nil
		},
	}
}
