package memory

import (
	"context"
	"database/sql"

	"github.com/stormlightlabs/memoria/internal/db"
	"github.com/stormlightlabs/memoria/internal/index"
	"github.com/stormlightlabs/memoria/internal/shared"
)

const decisionColumns = `id, topic_id, decision, reason, created_at`

type NewDecision struct {
	TopicID  int64
	Decision string
	Reason   string
}

type DecisionPatch struct {
	Decision *string
	Reason   *string
}

func scanDecision(row interface{ Scan(...any) error }) (Decision, error) {
	var d Decision
	err := row.Scan(&d.ID, &d.TopicID, &d.Decision, &d.Reason, &d.CreatedAt)
	return d, err
}

func getDecision(ctx context.Context, q db.Querier, id int64) (Decision, error) {
	d, err := scanDecision(q.QueryRowContext(ctx, `SELECT `+decisionColumns+` FROM decisions WHERE id = ?`, id))
	if err != nil {
		return Decision{}, notFound(err, "decision", id)
	}
	return d, nil
}

// AddDecision records a decision on a topic. The index entry takes its
// project from the topic.
func (s *Service) AddDecision(ctx context.Context, in NewDecision) (Decision, error) {
	if err := requireText("decision", in.Decision); err != nil {
		return Decision{}, err
	}
	var d Decision
	err := s.write(ctx, func(tx *sql.Tx) ([]index.Document, error) {
		if _, err := getTopic(ctx, tx, in.TopicID); err != nil {
			return nil, err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO decisions (topic_id, decision, reason) VALUES (?, ?, ?)`,
			in.TopicID, in.Decision, shared.OptionalString(in.Reason),
		)
		if err != nil {
			return nil, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		if d, err = getDecision(ctx, tx, id); err != nil {
			return nil, err
		}
		doc, err := s.indexer.OnCreate(ctx, tx, index.Document{
			Type:    db.Decision,
			ID:      d.ID,
			TopicID: d.TopicID,
			Title:   d.Decision,
			Body:    shared.Deref(d.Reason),
		})
		if err != nil {
			return nil, err
		}
		return []index.Document{doc}, nil
	})
	return d, err
}

func (s *Service) GetDecision(ctx context.Context, id int64) (Decision, error) {
	d, err := getDecision(ctx, s.store.DB(), id)
	return d, dbErr(err)
}

func (s *Service) UpdateDecision(ctx context.Context, id int64, patch DecisionPatch) (Decision, error) {
	if patch.Decision != nil {
		if err := requireText("decision", *patch.Decision); err != nil {
			return Decision{}, err
		}
	}
	var d Decision
	err := s.write(ctx, func(tx *sql.Tx) ([]index.Document, error) {
		var err error
		if d, err = getDecision(ctx, tx, id); err != nil {
			return nil, err
		}
		if patch.Decision == nil && patch.Reason == nil {
			return nil, nil
		}
		if patch.Decision != nil {
			d.Decision = *patch.Decision
		}
		if patch.Reason != nil {
			d.Reason = shared.OptionalString(*patch.Reason)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE decisions SET decision = ?, reason = ? WHERE id = ?`,
			d.Decision, optional(d.Reason), id,
		); err != nil {
			return nil, err
		}
		doc, changed, err := s.indexer.OnUpdate(ctx, tx, db.Decision, id, index.Patch{Title: patch.Decision, Body: patch.Reason})
		if err != nil || !changed {
			return nil, err
		}
		return []index.Document{doc}, nil
	})
	return d, err
}

func (s *Service) DeleteDecision(ctx context.Context, id int64) error {
	return s.write(ctx, func(tx *sql.Tx) ([]index.Document, error) {
		if _, err := getDecision(ctx, tx, id); err != nil {
			return nil, err
		}
		if err := s.indexer.OnDelete(ctx, tx, db.Decision, id); err != nil {
			return nil, err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM decisions WHERE id = ?`, id)
		return nil, err
	})
}

// ListDecisions pages through a topic's decisions from startID (inclusive),
// at most 30 at a time.
func (s *Service) ListDecisions(ctx context.Context, topicID, startID int64, limit int) ([]Decision, error) {
	rows, err := s.store.DB().QueryContext(ctx,
		`SELECT `+decisionColumns+` FROM decisions
		WHERE topic_id = ? AND id >= ?
		ORDER BY id ASC LIMIT ?`,
		topicID, startID, clamp(limit, maxDecisions),
	)
	if err != nil {
		return nil, dbErr(err)
	}
	defer rows.Close()

	decisions := []Decision{}
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, dbErr(err)
		}
		decisions = append(decisions, d)
	}
	return decisions, dbErr(rows.Err())
}
