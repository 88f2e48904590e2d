package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stormlightlabs/memoria/internal/memory"
)

func newDecisionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "decision",
		Aliases: []string{"decisions"},
		Short:   "Record and review decisions",
	}
	cmd.AddCommand(
		newDecisionAddCommand(),
		newDecisionListCommand(),
		newDecisionShowCommand(),
		newDecisionUpdateCommand(),
		newDecisionDeleteCommand(),
	)
	return cmd
}

func newDecisionAddCommand() *cobra.Command {
	var in memory.NewDecision
	cmd := &cobra.Command{
		Use:     "add <decision>",
		Short:   "Record a decision on a topic",
		Example: `  memoria decision add -t 4 "FTS5 trigram を採用" --reason "日本語を分かち書きなしで検索できる"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			in.Decision = args[0]
			d, err := a.memory.AddDecision(cmd.Context(), in)
			if err != nil {
				return err
			}
			if ok, err := emit(cmd.OutOrStdout(), d); ok {
				return err
			}
			p.PrintSuccess(fmt.Sprintf("Recorded %s on %s", p.FormatRef("decision", d.ID), p.FormatRef("topic", d.TopicID)))
			return nil
		},
	}
	cmd.Flags().Int64VarP(&in.TopicID, "topic", "t", 0, "Topic ID (required)")
	cmd.Flags().StringVar(&in.Reason, "reason", "", "Why the decision was made")
	_ = cmd.MarkFlagRequired("topic")
	addFormatFlag(cmd)
	return cmd
}

func newDecisionListCommand() *cobra.Command {
	var (
		topicID int64
		startID int64
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a topic's decisions",
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

			decisions, err := a.memory.ListDecisions(cmd.Context(), topicID, startID, limit)
			if err != nil {
				return err
			}
			if ok, err := emit(cmd.OutOrStdout(), decisions); ok {
				return err
			}
			if len(decisions) == 0 {
				p.PrintInfo("No decisions found")
				return nil
			}
			t := newTable(cmd.OutOrStdout(), "ID", "Decision", "Reason", "Created")
			for _, d := range decisions {
				t.AppendRow([]any{d.ID, cell(d.Decision), optCell(d.Reason), d.CreatedAt})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().Int64VarP(&topicID, "topic", "t", 0, "Topic ID (required)")
	cmd.Flags().Int64Var(&startID, "start", 0, "First decision ID to include")
	cmd.Flags().IntVarP(&limit, "limit", "l", 30, "Maximum number of decisions (at most 30)")
	_ = cmd.MarkFlagRequired("topic")
	addFormatFlag(cmd)
	return cmd
}

func newDecisionShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a decision",
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

			d, err := a.memory.GetDecision(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printRecord(cmd, d)
		},
	}
	addFormatFlag(cmd)
	addRenderFlags(cmd)
	return cmd
}

func newDecisionUpdateCommand() *cobra.Command {
	var decision, reason string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a decision's text or reason",
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

			d, err := a.memory.UpdateDecision(cmd.Context(), id, memory.DecisionPatch{
				Decision: optionalFlag(cmd, "decision", decision),
				Reason:   optionalFlag(cmd, "reason", reason),
			})
			if err != nil {
				return err
			}
			if ok, err := emit(cmd.OutOrStdout(), d); ok {
				return err
			}
			p.PrintSuccess(fmt.Sprintf("Updated %s", p.FormatRef("decision", d.ID)))
			return nil
		},
	}
	cmd.Flags().StringVar(&decision, "decision", "", "New decision text")
	cmd.Flags().StringVar(&reason, "reason", "", "New reason (empty clears it)")
	addFormatFlag(cmd)
	return cmd
}

func newDecisionDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a decision",
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

			if err := a.memory.DeleteDecision(cmd.Context(), id); err != nil {
				return err
			}
			p.PrintSuccess(fmt.Sprintf("Deleted %s", p.FormatRef("decision", id)))
			return nil
		},
	}
}
