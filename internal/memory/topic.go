package memory

import (
	"context"
	"database/sql"

	"github.com/stormlightlabs/memoria/internal/db"
	"github.com/stormlightlabs/memoria/internal/index"
	"github.com/stormlightlabs/memoria/internal/shared"
)

const topicColumns = `id, project_id, title, description, parent_topic_id, created_at`

type NewTopic struct {
	ProjectID     int64
	Title         string
	Description   string
	ParentTopicID *int64
}

// TopicPatch changes the fields that are set.
type TopicPatch struct {
	Title       *string
	Description *string
}

// TopicQuery lists the direct children of ParentTopicID, or the root topics
// of the project when it is nil.
type TopicQuery struct {
	ProjectID     int64
	ParentTopicID *int64
	Filter        TopicFilter
	Limit         int
}

func scanTopic(row interface{ Scan(...any) error }) (Topic, error) {
	var t Topic
	err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.ParentTopicID, &t.CreatedAt)
	return t, err
}

func topicDocument(t Topic) index.Document {
	return index.Document{Type: db.Topic, ID: t.ID, ProjectID: t.ProjectID, Title: t.Title, Body: shared.Deref(t.Description)}
}

func getTopic(ctx context.Context, q db.Querier, id int64) (Topic, error) {
	t, err := scanTopic(q.QueryRowContext(ctx, `SELECT `+topicColumns+` FROM topics WHERE id = ?`, id))
	if err != nil {
		return Topic{}, notFound(err, "topic", id)
	}
	return t, nil
}

// insertTopic adds a topic and its index entry inside tx.
func (s *Service) insertTopic(ctx context.Context, tx *sql.Tx, in NewTopic) (Topic, index.Document, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO topics (project_id, title, description, parent_topic_id) VALUES (?, ?, ?, ?)`,
		in.ProjectID, in.Title, shared.OptionalString(in.Description), nullable(in.ParentTopicID),
	)
	if err != nil {
		return Topic{}, index.Document{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Topic{}, index.Document{}, err
	}
	t, err := getTopic(ctx, tx, id)
	if err != nil {
		return Topic{}, index.Document{}, err
	}
	doc, err := s.indexer.OnCreate(ctx, tx, topicDocument(t))
	return t, doc, err
}

func (s *Service) AddTopic(ctx context.Context, in NewTopic) (Topic, error) {
	if err := requireText("title", in.Title); err != nil {
		return Topic{}, err
	}
	var t Topic
	err := s.write(ctx, func(tx *sql.Tx) ([]index.Document, error) {
		var doc index.Document
		var err error
		t, doc, err = s.insertTopic(ctx, tx, in)
		if err != nil {
			return nil, err
		}
		return []index.Document{doc}, nil
	})
	return t, err
}

func (s *Service) GetTopic(ctx context.Context, id int64) (Topic, error) {
	t, err := getTopic(ctx, s.store.DB(), id)
	return t, dbErr(err)
}

func (s *Service) UpdateTopic(ctx context.Context, id int64, patch TopicPatch) (Topic, error) {
	if patch.Title != nil {
		if err := requireText("title", *patch.Title); err != nil {
			return Topic{}, err
		}
	}
	var t Topic
	err := s.write(ctx, func(tx *sql.Tx) ([]index.Document, error) {
		var err error
		if t, err = getTopic(ctx, tx, id); err != nil {
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
			`UPDATE topics SET title = ?, description = ? WHERE id = ?`,
			t.Title, optional(t.Description), id,
		); err != nil {
			return nil, err
		}
		doc, changed, err := s.indexer.OnUpdate(ctx, tx, db.Topic, id, index.Patch{Title: patch.Title, Body: patch.Description})
		if err != nil || !changed {
			return nil, err
		}
		return []index.Document{doc}, nil
	})
	return t, err
}

// DeleteTopic removes a topic together with its decisions and discussion
// logs. Tasks that pointed at it are detached. A topic that still has child
// topics cannot be deleted.
func (s *Service) DeleteTopic(ctx context.Context, id int64) error {
	var decisions []int64
	err := s.write(ctx, func(tx *sql.Tx) ([]index.Document, error) {
		if _, err := getTopic(ctx, tx, id); err != nil {
			return nil, err
		}

		var err error
		if decisions, err = decisionIDs(ctx, tx, id); err != nil {
			return nil, err
		}
		for _, did := range decisions {
			if err := s.indexer.OnDelete(ctx, tx, db.Decision, did); err != nil {
				return nil, err
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM decisions WHERE id = ?`, did); err != nil {
				return nil, err
			}
		}

		if err := s.indexer.OnDelete(ctx, tx, db.Topic, id); err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM topics WHERE id = ?`, id); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return err
	}
	s.logger.Debug("Deleted topic", "topic", id, "decisions", len(decisions))
	return nil
}

func decisionIDs(ctx context.Context, q db.Querier, topicID int64) ([]int64, error) {
	rows, err := q.QueryContext(ctx, `SELECT id FROM decisions WHERE topic_id = ? ORDER BY id`, topicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

var topicFilterClause = map[TopicFilter]string{
	FilterAll:       ``,
	FilterDecided:   ` AND EXISTS (SELECT 1 FROM decisions d WHERE d.topic_id = topics.id)`,
	FilterUndecided: ` AND NOT EXISTS (SELECT 1 FROM decisions d WHERE d.topic_id = topics.id)`,
}

// ListTopics returns one level of topics, oldest first, at most 10.
func (s *Service) ListTopics(ctx context.Context, q TopicQuery) ([]Topic, error) {
	filter := q.Filter
	if filter == "" {
		filter = FilterAll
	}
	clause, ok := topicFilterClause[filter]
	if !ok {
		return nil, shared.Errorf(shared.CodeInvalidArgument, "unknown topic filter %q", filter)
	}

	query := `SELECT ` + topicColumns + ` FROM topics WHERE project_id = ?`
	args := []any{q.ProjectID}
	if q.ParentTopicID == nil {
		query += ` AND parent_topic_id IS NULL`
	} else {
		query += ` AND parent_topic_id = ?`
		args = append(args, *q.ParentTopicID)
	}
	query += clause + ` ORDER BY created_at ASC, id ASC LIMIT ?`
	args = append(args, clamp(q.Limit, maxTopics))

	rows, err := s.store.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbErr(err)
	}
	defer rows.Close()

	topics := []Topic{}
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, dbErr(err)
		}
		topics = append(topics, t)
	}
	return topics, dbErr(rows.Err())
}

// TopicTree walks the subtree under topicID depth first, children oldest
// first, and stops once limit topics (at most 100) have been collected.
func (s *Service) TopicTree(ctx context.Context, projectID, topicID int64, limit int) (*TopicNode, error) {
	limit = clamp(limit, maxTreeNodes)
	conn := s.store.DB()

	root, err := scanTopic(conn.QueryRowContext(ctx,
		`SELECT `+topicColumns+` FROM topics WHERE id = ? AND project_id = ?`, topicID, projectID))
	if err != nil {
		return nil, dbErr(notFound(err, "topic", topicID))
	}

	count := 1
	var walk func(n *TopicNode) error
	walk = func(n *TopicNode) error {
		children, err := childTopics(ctx, conn, projectID, n.ID)
		if err != nil {
			return err
		}
		for _, c := range children {
			if count >= limit {
				return nil
			}
			count++
			child := &TopicNode{Topic: c, Children: []*TopicNode{}}
			n.Children = append(n.Children, child)
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}

	node := &TopicNode{Topic: root, Children: []*TopicNode{}}
	if err := walk(node); err != nil {
		return nil, dbErr(err)
	}
	return node, nil
}

func childTopics(ctx context.Context, q db.Querier, projectID, parentID int64) ([]Topic, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+topicColumns+` FROM topics WHERE project_id = ? AND parent_topic_id = ? ORDER BY created_at ASC, id ASC`,
		projectID, parentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var topics []Topic
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}
