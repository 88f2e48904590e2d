package memory

import (
	"context"
	"database/sql"

	"github.com/stormlightlabs/memoria/internal/index"
)

func scanLog(row interface{ Scan(...any) error }) (Log, error) {
	var l Log
	err := row.Scan(&l.ID, &l.TopicID, &l.Content, &l.CreatedAt)
	return l, err
}

// AddLog appends a discussion log entry to a topic. Logs are not indexed.
func (s *Service) AddLog(ctx context.Context, topicID int64, content string) (Log, error) {
	if err := requireText("content", content); err != nil {
		return Log{}, err
	}
	var l Log
	err := s.write(ctx, func(tx *sql.Tx) ([]index.Document, error) {
		if _, err := getTopic(ctx, tx, topicID); err != nil {
			return nil, err
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO discussion_logs (topic_id, content) VALUES (?, ?)`, topicID, content)
		if err != nil {
			return nil, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		l, err = scanLog(tx.QueryRowContext(ctx, `SELECT id, topic_id, content, created_at FROM discussion_logs WHERE id = ?`, id))
		return nil, err
	})
	return l, err
}

// ListLogs pages through a topic's logs in insertion order starting at
// startID (inclusive), at most 30 at a time.
func (s *Service) ListLogs(ctx context.Context, topicID, startID int64, limit int) ([]Log, error) {
	rows, err := s.store.DB().QueryContext(ctx,
		`SELECT id, topic_id, content, created_at FROM discussion_logs
		WHERE topic_id = ? AND id >= ?
		ORDER BY id ASC LIMIT ?`,
		topicID, startID, clamp(limit, maxLogs),
	)
	if err != nil {
		return nil, dbErr(err)
	}
	defer rows.Close()

	logs := []Log{}
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, dbErr(err)
		}
		logs = append(logs, l)
	}
	return logs, dbErr(rows.Err())
}
