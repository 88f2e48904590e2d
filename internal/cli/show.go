package cli

import (
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/stormlightlabs/memoria/internal/memory"
)

var (
	showRender  bool
	showWidth   int
	showPager   bool
	showNoPager bool
)

func newShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <type> <id>",
		Short: "Show the record behind a search hit",
		Long: `Fetch a topic, decision or task by type and ID, the pair printed by
memoria search, and print it as markdown.`,
		Example: `  memoria show topic 12
  memoria show decision 3 -r
  memoria show task 7 -f json`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"topic", "decision", "task"},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			rec, err := a.search.GetByID(cmd.Context(), args[0], id)
			if err != nil {
				return err
			}
			return printRecord(cmd, rec.Data)
		},
	}
	addFormatFlag(cmd)
	addRenderFlags(cmd)
	return cmd
}

func addRenderFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&showRender, "render", "r", false, "Render markdown with glamour")
	cmd.Flags().IntVarP(&showWidth, "width", "w", 0, "Render width (defaults to display.width)")
	cmd.Flags().BoolVarP(&showPager, "pager", "P", false, "Enable pager")
	cmd.Flags().BoolVar(&showNoPager, "no-pager", false, "Disable pager")
}

// printRecord writes a record in the requested format, as markdown by
// default.
func printRecord(cmd *cobra.Command, v any) error {
	if ok, err := emit(cmd.OutOrStdout(), v); ok {
		return err
	}

	output := memory.Markdown(v)
	if showRender || (cfg != nil && cfg.Display.RenderMarkdown && !cmd.Flags().Changed("render")) {
		width := showWidth
		if width <= 0 && cfg != nil {
			width = cfg.Display.Width
		}
		rendered, err := renderMarkdown(output, width)
		if err != nil {
			return err
		}
		output = rendered
	}

	if shouldUsePager(strings.Count(output, "\n")) {
		return pageOutput(cmd, output)
	}
	_, err := cmd.OutOrStdout().Write([]byte(output))
	return err
}

func renderMarkdown(input string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	style := glamour.WithAutoStyle()
	if noColor {
		style = glamour.WithStandardStyle("notty")
	}
	renderer, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return "", err
	}
	return renderer.Render(input)
}

func shouldUsePager(lines int) bool {
	if showNoPager {
		return false
	}
	if showPager {
		return true
	}
	if !isTerminal() {
		return false
	}
	return lines > 60
}

func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

func pageOutput(cmd *cobra.Command, data string) error {
	pager := os.Getenv("PAGER")
	if pager == "" {
		pager = "less"
	}

	pagerCmd := exec.Command(pager)
	pagerCmd.Stdin = strings.NewReader(data)
	pagerCmd.Stdout = cmd.OutOrStdout()
	pagerCmd.Stderr = cmd.ErrOrStderr()
	return pagerCmd.Run()
}
