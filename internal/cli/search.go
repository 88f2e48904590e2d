package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stormlightlabs/memoria/internal/search"
	"github.com/stormlightlabs/memoria/internal/shared"
)

var (
	searchProject int64
	searchLimit   int
	searchType    string
	searchMode    string
	searchFirst   bool
)

func newSearchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search topics, decisions and tasks in a project",
		Long: `Search a project's topics, decisions and tasks.

lexical ranks trigram matches with bm25, weighting titles five times
more than bodies; keywords need at least 3 characters. semantic ranks
by embedding distance and returns nothing when no embedding provider
is available. hybrid blends both and falls back to lexical.`,
		Example: `  memoria search -p 1 "統合検索"
  memoria search -p 1 -t decision "trigram"
  memoria search -p 1 -m hybrid -f json "ベクトル検索の導入"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().Int64VarP(&searchProject, "project", "p", 0, "Project ID (required)")
	cmd.Flags().IntVarP(&searchLimit, "limit", "l", 0, "Maximum number of results (default from config, at most 50)")
	cmd.Flags().StringVarP(&searchType, "type", "t", "", "Only one record type (topic, decision, task)")
	cmd.Flags().StringVarP(&searchMode, "mode", "m", "", "lexical, semantic or hybrid (default from config)")
	cmd.Flags().BoolVarP(&searchFirst, "first", "1", false, "Return only the top result")
	_ = cmd.MarkFlagRequired("project")
	addFormatFlag(cmd)
	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := checkFormat(); err != nil {
		return err
	}
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	mode := a.mode
	if searchMode != "" {
		if mode, err = search.ParseMode(searchMode); err != nil {
			return err
		}
	}
	limit := searchLimit
	if searchFirst {
		limit = 1
	}

	res, err := a.search.Run(cmd.Context(), mode, search.Query{
		ProjectID: searchProject,
		Keyword:   strings.Join(args, " "),
		Type:      searchType,
		Limit:     limit,
	})
	if err != nil {
		return err
	}
	if ok, err := emit(cmd.OutOrStdout(), res); ok {
		return err
	}

	if res.TotalCount == 0 {
		if !quiet {
			p.PrintError("No results found")
		}
		return nil
	}

	t := newTable(cmd.OutOrStdout(), "Type", "ID", "Title", scoreHeader(mode))
	for _, h := range res.Results {
		t.AppendRow([]any{shared.Capitalize(string(h.Type)), h.ID, cell(h.Title), fmt.Sprintf("%.4f", h.Score)})
	}
	t.Render()
	return nil
}

func scoreHeader(mode search.Mode) string {
	switch mode {
	case search.ModeSemantic:
		return "Distance (lower is closer)"
	case search.ModeHybrid:
		return "Score (higher is better)"
	default:
		return "BM25 (lower is better)"
	}
}
