package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// SourceType tags which source table a search index row points at.
type SourceType string

const (
	Topic    SourceType = "topic"
	Decision SourceType = "decision"
	Task     SourceType = "task"
)

// SourceTypes lists every source type in a stable order.
func SourceTypes() []SourceType {
	return []SourceType{Topic, Decision, Task}
}

// ParseSourceType validates a type tag.
func ParseSourceType(s string) (SourceType, bool) {
	switch SourceType(s) {
	case Topic, Decision, Task:
		return SourceType(s), true
	}
	return "", false
}

// SearchEntry is one denormalised search_index row.
type SearchEntry struct {
	ID         int64
	SourceType SourceType
	SourceID   int64
	ProjectID  int64
	Title      string
}

// LexicalHit is a ranked match from the trigram index joined back to its search_index row.
type LexicalHit struct {
	RowID      int64
	SourceType SourceType
	SourceID   int64
	Title      string
	Score      float64
}

// LexicalQuery scopes a MATCH against the trigram index.
type LexicalQuery struct {
	Pattern   string
	ProjectID int64
	Type      SourceType // empty means every type
	Limit     int
}

// UpsertEntry inserts or refreshes the search_index row for a source record and
// returns its id. The id survives repeated upserts of the same (type, source id).
func UpsertEntry(ctx context.Context, q Querier, e SearchEntry) (int64, error) {
	var id int64
	err := q.QueryRowContext(
		ctx,
		`INSERT INTO search_index (source_type, source_id, project_id, title) VALUES (?, ?, ?, ?)
		ON CONFLICT (source_type, source_id) DO UPDATE SET project_id = excluded.project_id, title = excluded.title
		RETURNING id`,
		string(e.SourceType), e.SourceID, e.ProjectID, e.Title,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert search entry %s/%d: %w", e.SourceType, e.SourceID, err)
	}
	return id, nil
}

// LookupID resolves a source record to its search_index id.
func LookupID(ctx context.Context, q Querier, t SourceType, sourceID int64) (int64, bool, error) {
	var id int64
	err := q.QueryRowContext(
		ctx,
		`SELECT id FROM search_index WHERE source_type = ? AND source_id = ?`,
		string(t), sourceID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// GetEntry reads a search_index row by id.
func GetEntry(ctx context.Context, q Querier, id int64) (SearchEntry, error) {
	var e SearchEntry
	var typ string
	err := q.QueryRowContext(
		ctx,
		`SELECT id, source_type, source_id, project_id, title FROM search_index WHERE id = ?`,
		id,
	).Scan(&e.ID, &typ, &e.SourceID, &e.ProjectID, &e.Title)
	if err != nil {
		return SearchEntry{}, err
	}
	e.SourceType = SourceType(typ)
	return e, nil
}

// DeleteEntry removes the search_index row for a source record.
func DeleteEntry(ctx context.Context, q Querier, t SourceType, sourceID int64) error {
	_, err := q.ExecContext(
		ctx,
		`DELETE FROM search_index WHERE source_type = ? AND source_id = ?`,
		string(t), sourceID,
	)
	return err
}

// IndexLexical adds the trigram entry for a search_index row.
func IndexLexical(ctx context.Context, q Querier, rowID int64, title, body string) error {
	_, err := q.ExecContext(
		ctx,
		`INSERT INTO search_index_fts (rowid, title, body) VALUES (?, ?, ?)`,
		rowID, title, body,
	)
	return err
}

// ReindexLexical replaces the trigram entry for a search_index row.
func ReindexLexical(ctx context.Context, q Querier, rowID int64, title, body string) error {
	if err := RemoveLexical(ctx, q, rowID); err != nil {
		return err
	}
	return IndexLexical(ctx, q, rowID, title, body)
}

func RemoveLexical(ctx context.Context, q Querier, rowID int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM search_index_fts WHERE rowid = ?`, rowID)
	return err
}

// QueryLexical runs a MATCH against the trigram index. Scope and type are
// predicates of the same statement, so the limit applies after filtering.
// Results are ordered by ascending bm25 cost, best match first. The title
// column weighs five times the body.
func QueryLexical(ctx context.Context, q Querier, lq LexicalQuery) ([]LexicalHit, error) {
	var typeFilter any
	if lq.Type != "" {
		typeFilter = string(lq.Type)
	}

	rows, err := q.QueryContext(
		ctx,
		`SELECT si.id, si.source_type, si.source_id, si.title, bm25(search_index_fts, 5.0, 1.0) AS score
		FROM search_index_fts
		JOIN search_index si ON si.id = search_index_fts.rowid
		WHERE search_index_fts MATCH ?
			AND si.project_id = ?
			AND (? IS NULL OR si.source_type = ?)
		ORDER BY score
		LIMIT ?`,
		lq.Pattern, lq.ProjectID, typeFilter, typeFilter, lq.Limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []LexicalHit
	for rows.Next() {
		var h LexicalHit
		var typ string
		if err := rows.Scan(&h.RowID, &typ, &h.SourceID, &h.Title, &h.Score); err != nil {
			return nil, err
		}
		h.SourceType = SourceType(typ)
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// QuoteLiteral turns a keyword into a single FTS5 string literal so quotes,
// operators and column filters inside it are matched as plain text.
func QuoteLiteral(q string) string {
	return `"` + strings.ReplaceAll(q, `"`, `""`) + `"`
}
