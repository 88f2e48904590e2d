package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrSourceNotFound is returned when a source row (or the topic a decision
// hangs off) does not exist.
var ErrSourceNotFound = errors.New("source row not found")

// Source is the indexable projection of a topic, decision or task row.
// Decisions take their project from the owning topic.
type Source struct {
	Type      SourceType
	ID        int64
	ProjectID int64
	Title     string
	Body      string
}

var sourceQueries = map[SourceType]string{
	Topic: `SELECT id, project_id, title, COALESCE(description, '') FROM topics WHERE id = ?`,
	Decision: `SELECT d.id, t.project_id, d.decision, COALESCE(d.reason, '')
		FROM decisions d JOIN topics t ON t.id = d.topic_id
		WHERE d.id = ?`,
	Task: `SELECT id, project_id, title, COALESCE(description, '') FROM tasks WHERE id = ?`,
}

// LoadSource reads the title and body of a source row as the index sees them.
func LoadSource(ctx context.Context, q Querier, t SourceType, id int64) (Source, error) {
	query, ok := sourceQueries[t]
	if !ok {
		return Source{}, fmt.Errorf("unknown source type %q", t)
	}
	src := Source{Type: t}
	err := q.QueryRowContext(ctx, query, id).Scan(&src.ID, &src.ProjectID, &src.Title, &src.Body)
	if errors.Is(err, sql.ErrNoRows) {
		return Source{}, fmt.Errorf("%s %d: %w", t, id, ErrSourceNotFound)
	}
	if err != nil {
		return Source{}, err
	}
	return src, nil
}

// TopicProject resolves the project a topic belongs to.
func TopicProject(ctx context.Context, q Querier, topicID int64) (int64, error) {
	var projectID int64
	err := q.QueryRowContext(ctx, `SELECT project_id FROM topics WHERE id = ?`, topicID).Scan(&projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("topic %d: %w", topicID, ErrSourceNotFound)
	}
	return projectID, err
}
