package memory

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/stormlightlabs/memoria/internal/codec"
	"github.com/stormlightlabs/memoria/internal/db"
	"github.com/stormlightlabs/memoria/internal/index"
	"github.com/stormlightlabs/memoria/internal/shared"
)

const snapshotVersion = 1

// Snapshot is a full dump of the memory tables. Index tables are derived and
// not part of it.
type Snapshot struct {
	Version    int        `yaml:"version"`
	ExportedAt string     `yaml:"exported_at"`
	Projects   []Project  `yaml:"projects"`
	Topics     []Topic    `yaml:"topics"`
	Logs       []Log      `yaml:"logs"`
	Decisions  []Decision `yaml:"decisions"`
	Tasks      []Task     `yaml:"tasks"`
}

// ImportStats counts the rows an import wrote.
type ImportStats struct {
	Projects  int
	Topics    int
	Logs      int
	Decisions int
	Tasks     int
}

func collect[T any](ctx context.Context, q db.Querier, query string, scan func(interface{ Scan(...any) error }) (T, error)) ([]T, error) {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Snapshot reads every memory table in id order.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	conn := s.store.DB()
	snap := &Snapshot{Version: snapshotVersion, ExportedAt: time.Now().UTC().Format(time.RFC3339)}
	var err error
	if snap.Projects, err = collect(ctx, conn, `SELECT `+projectColumns+` FROM projects ORDER BY id`, scanProject); err != nil {
		return nil, dbErr(err)
	}
	if snap.Topics, err = collect(ctx, conn, `SELECT `+topicColumns+` FROM topics ORDER BY id`, scanTopic); err != nil {
		return nil, dbErr(err)
	}
	if snap.Logs, err = collect(ctx, conn, `SELECT id, topic_id, content, created_at FROM discussion_logs ORDER BY id`, scanLog); err != nil {
		return nil, dbErr(err)
	}
	if snap.Decisions, err = collect(ctx, conn, `SELECT `+decisionColumns+` FROM decisions ORDER BY id`, scanDecision); err != nil {
		return nil, dbErr(err)
	}
	if snap.Tasks, err = collect(ctx, conn, `SELECT `+taskColumns+` FROM tasks ORDER BY id`, scanTask); err != nil {
		return nil, dbErr(err)
	}
	return snap, nil
}

// Export writes a zstd-compressed YAML snapshot to w.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	data, err := codec.MarshalCompressed(snap)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Import loads a snapshot written by Export into an empty database. Ids and
// timestamps are preserved. Search entries are rebuilt in the same
// transaction; embeddings are left to backfill.
func (s *Service) Import(ctx context.Context, r io.Reader) (ImportStats, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return ImportStats{}, err
	}
	var snap Snapshot
	if err := codec.UnmarshalCompressed(data, &snap); err != nil {
		return ImportStats{}, shared.Errorf(shared.CodeInvalidArgument, "read snapshot: %v", err)
	}
	if snap.Version != snapshotVersion {
		return ImportStats{}, shared.Errorf(shared.CodeInvalidArgument, "unsupported snapshot version %d", snap.Version)
	}

	var stats ImportStats
	err = s.write(ctx, func(tx *sql.Tx) ([]index.Document, error) {
		var existing int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`).Scan(&existing); err != nil {
			return nil, err
		}
		if existing > 0 {
			return nil, shared.Errorf(shared.CodeConstraint, "database already holds %d projects; import needs an empty database", existing)
		}
		// Parent topics may appear after their children.
		if _, err := tx.ExecContext(ctx, `PRAGMA defer_foreign_keys = ON`); err != nil {
			return nil, err
		}

		for _, p := range snap.Projects {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO projects (id, name, description, asana_url, created_at) VALUES (?, ?, ?, ?, ?)`,
				p.ID, p.Name, optional(p.Description), optional(p.AsanaURL), p.CreatedAt,
			); err != nil {
				return nil, fmt.Errorf("project %d: %w", p.ID, err)
			}
			stats.Projects++
		}
		for _, t := range snap.Topics {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO topics (id, project_id, title, description, parent_topic_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
				t.ID, t.ProjectID, t.Title, optional(t.Description), nullable(t.ParentTopicID), t.CreatedAt,
			); err != nil {
				return nil, fmt.Errorf("topic %d: %w", t.ID, err)
			}
			if _, err := s.indexer.OnCreate(ctx, tx, topicDocument(t)); err != nil {
				return nil, err
			}
			stats.Topics++
		}
		for _, l := range snap.Logs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO discussion_logs (id, topic_id, content, created_at) VALUES (?, ?, ?, ?)`,
				l.ID, l.TopicID, l.Content, l.CreatedAt,
			); err != nil {
				return nil, fmt.Errorf("log %d: %w", l.ID, err)
			}
			stats.Logs++
		}
		for _, d := range snap.Decisions {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO decisions (id, topic_id, decision, reason, created_at) VALUES (?, ?, ?, ?, ?)`,
				d.ID, d.TopicID, d.Decision, optional(d.Reason), d.CreatedAt,
			); err != nil {
				return nil, fmt.Errorf("decision %d: %w", d.ID, err)
			}
			doc := index.Document{Type: db.Decision, ID: d.ID, TopicID: d.TopicID, Title: d.Decision, Body: shared.Deref(d.Reason)}
			if _, err := s.indexer.OnCreate(ctx, tx, doc); err != nil {
				return nil, err
			}
			stats.Decisions++
		}
		for _, t := range snap.Tasks {
			status, err := ParseStatus(string(t.Status))
			if err != nil {
				return nil, err
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO tasks (id, project_id, title, description, status, topic_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				t.ID, t.ProjectID, t.Title, optional(t.Description), status, nullable(t.TopicID), t.CreatedAt, t.UpdatedAt,
			); err != nil {
				return nil, fmt.Errorf("task %d: %w", t.ID, err)
			}
			if _, err := s.indexer.OnCreate(ctx, tx, taskDocument(t)); err != nil {
				return nil, err
			}
			stats.Tasks++
		}
		return nil, nil
	})
	if err != nil {
		return ImportStats{}, err
	}
	s.logger.Info("Imported snapshot", "projects", stats.Projects, "topics", stats.Topics, "decisions", stats.Decisions, "tasks", stats.Tasks, "logs", stats.Logs)
	return stats, nil
}
