package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stormlightlabs/memoria/internal/memory"
)

func newTaskCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"tasks"},
		Short:   "Track tasks",
	}
	cmd.AddCommand(
		newTaskAddCommand(),
		newTaskListCommand(),
		newTaskShowCommand(),
		newTaskUpdateCommand(),
		newTaskStatusCommand(),
		newTaskDeleteCommand(),
	)
	return cmd
}

func newTaskAddCommand() *cobra.Command {
	var in memory.NewTask
	cmd := &cobra.Command{
		Use:     "add <title>",
		Short:   "Create a pending task",
		Example: `  memoria task add -p 1 "vec_index のバックフィルを実装" --description "起動時に一度だけ"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			in.Title = args[0]
			task, err := a.memory.AddTask(cmd.Context(), in)
			if err != nil {
				return err
			}
			if ok, err := emit(cmd.OutOrStdout(), task); ok {
				return err
			}
			p.PrintSuccess(fmt.Sprintf("Created %s %s", p.FormatRef("task", task.ID), task.Title))
			return nil
		},
	}
	cmd.Flags().Int64VarP(&in.ProjectID, "project", "p", 0, "Project ID (required)")
	cmd.Flags().StringVar(&in.Description, "description", "", "Task description")
	_ = cmd.MarkFlagRequired("project")
	addFormatFlag(cmd)
	return cmd
}

func newTaskListCommand() *cobra.Command {
	var (
		projectID int64
		status    string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a project's tasks",
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

			tasks, err := a.memory.ListTasks(cmd.Context(), projectID, status)
			if err != nil {
				return err
			}
			if ok, err := emit(cmd.OutOrStdout(), tasks); ok {
				return err
			}
			if len(tasks) == 0 {
				p.PrintInfo("No tasks found")
				return nil
			}
			t := newTable(cmd.OutOrStdout(), "ID", "Title", "Status", "Topic", "Updated")
			for _, task := range tasks {
				t.AppendRow([]any{task.ID, cell(task.Title), p.FormatStatus(string(task.Status)), idCell(task.TopicID), task.UpdatedAt})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().Int64VarP(&projectID, "project", "p", 0, "Project ID (required)")
	cmd.Flags().StringVarP(&status, "status", "s", "", "Only tasks with this status (pending, in_progress, completed, blocked)")
	_ = cmd.MarkFlagRequired("project")
	addFormatFlag(cmd)
	return cmd
}

func newTaskShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task",
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

			task, err := a.memory.GetTask(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printRecord(cmd, task)
		},
	}
	addFormatFlag(cmd)
	addRenderFlags(cmd)
	return cmd
}

func newTaskUpdateCommand() *cobra.Command {
	var title, description string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a task's title or description",
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

			task, err := a.memory.UpdateTask(cmd.Context(), id, memory.TaskPatch{
				Title:       optionalFlag(cmd, "title", title),
				Description: optionalFlag(cmd, "description", description),
			})
			if err != nil {
				return err
			}
			if ok, err := emit(cmd.OutOrStdout(), task); ok {
				return err
			}
			p.PrintSuccess(fmt.Sprintf("Updated %s", p.FormatRef("task", task.ID)))
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description (empty clears it)")
	addFormatFlag(cmd)
	return cmd
}

func newTaskStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move a task to a new status",
		Long: `Move a task to pending, in_progress, completed or blocked.

Blocking a task opens a "[BLOCKED] <title>" topic for discussing how to
unblock it and links the task to that topic.`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"pending", "in_progress", "completed", "blocked"},
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

			task, err := a.memory.UpdateTaskStatus(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			if ok, err := emit(cmd.OutOrStdout(), task); ok {
				return err
			}
			p.PrintSuccess(fmt.Sprintf("%s is now %s", p.FormatRef("task", task.ID), p.FormatStatus(string(task.Status))))
			if task.Status == memory.StatusBlocked && task.TopicID != nil {
				p.PrintInfo(fmt.Sprintf("Opened %s to discuss the blocker", p.FormatRef("topic", *task.TopicID)))
			}
			return nil
		},
	}
	addFormatFlag(cmd)
	return cmd
}

func newTaskDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
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

			if err := a.memory.DeleteTask(cmd.Context(), id); err != nil {
				return err
			}
			p.PrintSuccess(fmt.Sprintf("Deleted %s", p.FormatRef("task", id)))
			return nil
		},
	}
}
