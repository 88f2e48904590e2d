package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/stormlightlabs/memoria/internal/memory"
)

func newTopicCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "topic",
		Aliases: []string{"topics"},
		Short:   "Manage discussion topics",
	}
	cmd.AddCommand(
		newTopicAddCommand(),
		newTopicListCommand(),
		newTopicShowCommand(),
		newTopicUpdateCommand(),
		newTopicDeleteCommand(),
		newTopicTreeCommand(),
	)
	return cmd
}

func newTopicAddCommand() *cobra.Command {
	var (
		in     memory.NewTopic
		parent int64
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a topic",
		Example: `  memoria topic add -p 1 "検索方式の選定" --description "FTS5 とベクトル検索の比較"
  memoria topic add -p 1 --parent 3 "trigram tokenizer"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			in.Title = args[0]
			if cmd.Flags().Changed("parent") {
				in.ParentTopicID = &parent
			}
			topic, err := a.memory.AddTopic(cmd.Context(), in)
			if err != nil {
				return err
			}
			if ok, err := emit(cmd.OutOrStdout(), topic); ok {
				return err
			}
			p.PrintSuccess(fmt.Sprintf("Created %s %s", p.FormatRef("topic", topic.ID), topic.Title))
			return nil
		},
	}
	cmd.Flags().Int64VarP(&in.ProjectID, "project", "p", 0, "Project ID (required)")
	cmd.Flags().StringVar(&in.Description, "description", "", "Topic description")
	cmd.Flags().Int64Var(&parent, "parent", 0, "Parent topic ID")
	_ = cmd.MarkFlagRequired("project")
	addFormatFlag(cmd)
	return cmd
}

func newTopicListCommand() *cobra.Command {
	var (
		q      memory.TopicQuery
		parent int64
		filter string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one level of topics, oldest first",
		Long: `List the root topics of a project, or the children of --parent.

--filter decided keeps topics that have at least one decision,
--filter undecided keeps topics that have none.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(); err != nil {
				return err
			}
			f, err := memory.ParseTopicFilter(filter)
			if err != nil {
				return err
			}
			q.Filter = f
			if cmd.Flags().Changed("parent") {
				q.ParentTopicID = &parent
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			topics, err := a.memory.ListTopics(cmd.Context(), q)
			if err != nil {
				return err
			}
			if ok, err := emit(cmd.OutOrStdout(), topics); ok {
				return err
			}
			if len(topics) == 0 {
				p.PrintInfo("No topics found")
				return nil
			}
			t := newTable(cmd.OutOrStdout(), "ID", "Title", "Description", "Parent", "Created")
			for _, topic := range topics {
				t.AppendRow([]any{topic.ID, cell(topic.Title), optCell(topic.Description), idCell(topic.ParentTopicID), topic.CreatedAt})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().Int64VarP(&q.ProjectID, "project", "p", 0, "Project ID (required)")
	cmd.Flags().Int64Var(&parent, "parent", 0, "List the children of this topic")
	cmd.Flags().StringVar(&filter, "filter", "all", "all, decided or undecided")
	cmd.Flags().IntVarP(&q.Limit, "limit", "l", 10, "Maximum number of topics (at most 10)")
	_ = cmd.MarkFlagRequired("project")
	addFormatFlag(cmd)
	return cmd
}

func newTopicShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a topic",
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

			topic, err := a.memory.GetTopic(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printRecord(cmd, topic)
		},
	}
	addFormatFlag(cmd)
	addRenderFlags(cmd)
	return cmd
}

func newTopicUpdateCommand() *cobra.Command {
	var title, description string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a topic's title or description",
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

			topic, err := a.memory.UpdateTopic(cmd.Context(), id, memory.TopicPatch{
				Title:       optionalFlag(cmd, "title", title),
				Description: optionalFlag(cmd, "description", description),
			})
			if err != nil {
				return err
			}
			if ok, err := emit(cmd.OutOrStdout(), topic); ok {
				return err
			}
			p.PrintSuccess(fmt.Sprintf("Updated %s", p.FormatRef("topic", topic.ID)))
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description (empty clears it)")
	addFormatFlag(cmd)
	return cmd
}

func newTopicDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a topic with its decisions and logs",
		Long: `Delete a topic together with its decisions and discussion logs.
Tasks linked to the topic are kept and detached. Topics that still
have child topics cannot be deleted.`,
		Args: cobra.ExactArgs(1),
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

			if err := a.memory.DeleteTopic(cmd.Context(), id); err != nil {
				return err
			}
			p.PrintSuccess(fmt.Sprintf("Deleted %s", p.FormatRef("topic", id)))
			return nil
		},
	}
}

func newTopicTreeCommand() *cobra.Command {
	var (
		projectID int64
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "tree <topic-id>",
		Short: "Print the subtree under a topic",
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

			tree, err := a.memory.TopicTree(cmd.Context(), projectID, id, limit)
			if err != nil {
				return err
			}
			if ok, err := emit(cmd.OutOrStdout(), tree); ok {
				return err
			}
			printTree(cmd.OutOrStdout(), tree)
			return nil
		},
	}
	cmd.Flags().Int64VarP(&projectID, "project", "p", 0, "Project ID (required)")
	cmd.Flags().IntVarP(&limit, "limit", "l", 100, "Maximum number of topics (at most 100)")
	_ = cmd.MarkFlagRequired("project")
	addFormatFlag(cmd)
	return cmd
}

func printTree(w io.Writer, root *memory.TopicNode) {
	fmt.Fprintf(w, "%s %s\n", p.FormatRef("topic", root.ID), root.Title)
	printChildren(w, root, "")
}

func printChildren(w io.Writer, node *memory.TopicNode, prefix string) {
	for i, child := range node.Children {
		connector, next := "├── ", "│   "
		if i == len(node.Children)-1 {
			connector, next = "└── ", "    "
		}
		fmt.Fprintf(w, "%s%s%s %s\n", prefix, connector, p.Styles.Muted.Render(fmt.Sprintf("[%d]", child.ID)), child.Title)
		printChildren(w, child, prefix+next)
	}
}
