package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "log",
		Aliases: []string{"logs"},
		Short:   "Record and page through discussion logs",
	}
	cmd.AddCommand(newLogAddCommand(), newLogListCommand())
	return cmd
}

func newLogAddCommand() *cobra.Command {
	var topicID int64
	cmd := &cobra.Command{
		Use:     "add <content>",
		Short:   "Append a discussion log to a topic",
		Example: `  memoria log add -t 4 "bm25 の重みはタイトル 5、本文 1 で合意"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			entry, err := a.memory.AddLog(cmd.Context(), topicID, args[0])
			if err != nil {
				return err
			}
			if ok, err := emit(cmd.OutOrStdout(), entry); ok {
				return err
			}
			p.PrintSuccess(fmt.Sprintf("Logged %s on %s", p.FormatRef("log", entry.ID), p.FormatRef("topic", topicID)))
			return nil
		},
	}
	cmd.Flags().Int64VarP(&topicID, "topic", "t", 0, "Topic ID (required)")
	_ = cmd.MarkFlagRequired("topic")
	addFormatFlag(cmd)
	return cmd
}

func newLogListCommand() *cobra.Command {
	var (
		topicID int64
		startID int64
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a topic's logs in insertion order",
		Long: `List a topic's discussion logs starting at --start (inclusive).
Pass the last ID shown plus one to fetch the next page.`,
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

			logs, err := a.memory.ListLogs(cmd.Context(), topicID, startID, limit)
			if err != nil {
				return err
			}
			if ok, err := emit(cmd.OutOrStdout(), logs); ok {
				return err
			}
			if len(logs) == 0 {
				p.PrintInfo("No logs found")
				return nil
			}
			t := newTable(cmd.OutOrStdout(), "ID", "Content", "Created")
			for _, l := range logs {
				t.AppendRow([]any{l.ID, cell(l.Content), l.CreatedAt})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().Int64VarP(&topicID, "topic", "t", 0, "Topic ID (required)")
	cmd.Flags().Int64Var(&startID, "start", 0, "First log ID to include")
	cmd.Flags().IntVarP(&limit, "limit", "l", 30, "Maximum number of logs (at most 30)")
	_ = cmd.MarkFlagRequired("topic")
	addFormatFlag(cmd)
	return cmd
}
