package memory

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/stormlightlabs/memoria/internal/db"
	"github.com/stormlightlabs/memoria/internal/index"
	"github.com/stormlightlabs/memoria/internal/shared"
)

const taskColumns = `id, project_id, title, description, status, topic_id, created_at, updated_at`

type NewTask struct {
	ProjectID   int64
	Title       string
	Description string
}

type TaskPatch struct {
	Title       *string
	Description *string
}

func scanTask(row interface{ Scan(...any) error }) (Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status, &t.TopicID, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func getTask(ctx context.Context, q db.Querier, id int64) (Task, error) {
	t, err := scanTask(q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err != nil {
		return Task{}, notFound(err, "task", id)
	}
	return t, nil
}

func taskDocument(t Task) index.Document {
	return index.Document{Type: db.Task, ID: t.ID, ProjectID: t.ProjectID, Title: t.Title, Body: shared.Deref(t.Description)}
}

// AddTask creates a pending task.
func (s *Service) AddTask(ctx context.Context, in NewTask) (Task, error) {
	if err := requireText("title", in.Title); err != nil {
		return Task{}, err
	}
	var t Task
	err := s.write(ctx, func(tx *sql.Tx) ([]index.Document, error) {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO tasks (project_id, title, description, status) VALUES (?, ?, ?, ?)`,
			in.ProjectID, in.Title, shared.OptionalString(in.Description), StatusPending,
		)
		if err != nil {
			return nil, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		if t, err = getTask(ctx, tx, id); err != nil {
			return nil, err
		}
		doc, err := s.indexer.OnCreate(ctx, tx, taskDocument(t))
		if err != nil {
			return nil, err
		}
		return []index.Document{doc}, nil
	})
	return t, err
}

func (s *Service) GetTask(ctx context.Context, id int64) (Task, error) {
	t, err := getTask(ctx, s.store.DB(), id)
	return t, dbErr(err)
}

// ListTasks returns a project's tasks oldest first, optionally narrowed to
// one status.
func (s *Service) ListTasks(ctx context.Context, projectID int64, status string) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE project_id = ?`
	args := []any{projectID}
	if status != "" {
		st, err := ParseStatus(status)
		if err != nil {
			return nil, err
		}
		query += ` AND status = ?`
		args = append(args, st)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.store.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbErr(err)
	}
	defer rows.Close()

	tasks := []Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, dbErr(err)
		}
		tasks = append(tasks, t)
	}
	return tasks, dbErr(rows.Err())
}

func (s *Service) UpdateTask(ctx context.Context, id int64, patch TaskPatch) (Task, error) {
	if patch.Title != nil {
		if err := requireText("title", *patch.Title); err != nil {
			return Task{}, err
		}
	}
	var t Task
	err := s.write(ctx, func(tx *sql.Tx) ([]index.Document, error) {
		var err error
		if t, err = getTask(ctx, tx, id); err != nil {
			return nil, err
		}
		if patch.Title == nil && patch.Description == nil {
			return nil, nil
		}
		if patch.Title != nil {
			t.Title = *patch.Title
		}
		if patch.Description != nil {
			t.Description = shared.OptionalString(*patch.Description)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE tasks SET title = ?, description = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			t.Title, optional(t.Description), id,
		); err != nil {
			return nil, err
		}
		if t, err = getTask(ctx, tx, id); err != nil {
			return nil, err
		}
		doc, changed, err := s.indexer.OnUpdate(ctx, tx, db.Task, id, index.Patch{Title: patch.Title, Body: patch.Description})
		if err != nil || !changed {
			return nil, err
		}
		return []index.Document{doc}, nil
	})
	return t, err
}

// blockedTopic is the discussion topic opened when a task becomes blocked.
func blockedTopic(t Task) NewTopic {
	return NewTopic{
		ProjectID: t.ProjectID,
		Title:     "[BLOCKED] " + t.Title,
		Description: fmt.Sprintf(`タスクがブロックされました。

## タスク情報
- タイトル: %s
- 説明: %s

## ブロック理由
このタスクは進行中にブロック状態になりました。
議論を通じてブロック解消の方法を検討してください。`, t.Title, shared.Deref(t.Description)),
	}
}

// UpdateTaskStatus moves a task to a new status. Moving to blocked also opens
// a "[BLOCKED] <title>" topic and links the task to it in the same
// transaction.
func (s *Service) UpdateTaskStatus(ctx context.Context, id int64, status string) (Task, error) {
	st, err := ParseStatus(status)
	if err != nil {
		return Task{}, err
	}

	var (
		t    Task
		from Status
	)
	err = s.write(ctx, func(tx *sql.Tx) ([]index.Document, error) {
		var err error
		if t, err = getTask(ctx, tx, id); err != nil {
			return nil, err
		}
		from = t.Status

		var docs []index.Document
		if st == StatusBlocked {
			topic, doc, err := s.insertTopic(ctx, tx, blockedTopic(t))
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
			_, err = tx.ExecContext(ctx,
				`UPDATE tasks SET status = ?, topic_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
				st, topic.ID, id,
			)
			if err != nil {
				return nil, err
			}
		} else if _, err := tx.ExecContext(ctx,
			`UPDATE tasks SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			st, id,
		); err != nil {
			return nil, err
		}

		t, err = getTask(ctx, tx, id)
		return docs, err
	})
	if err != nil {
		return Task{}, err
	}
	s.logger.Info("Task status changed", "task", id, "from", from, "to", st)
	return t, nil
}

func (s *Service) DeleteTask(ctx context.Context, id int64) error {
	return s.write(ctx, func(tx *sql.Tx) ([]index.Document, error) {
		if _, err := getTask(ctx, tx, id); err != nil {
			return nil, err
		}
		if err := s.indexer.OnDelete(ctx, tx, db.Task, id); err != nil {
			return nil, err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
		return nil, err
	})
}
