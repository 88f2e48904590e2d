package db

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrDimensionMismatch is returned when a query vector and a stored vector
// disagree on length.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// VectorHit is a nearest-neighbour match, nearest first.
type VectorHit struct {
	RowID      int64
	SourceType SourceType
	SourceID   int64
	Title      string
	Distance   float64
}

// VectorFilter restricts a KNN scan. Zero values mean no restriction.
type VectorFilter struct {
	ProjectID int64
	Type      SourceType
}

// PendingVector is a search_index row that has no embedding yet, with the
// text the embedding should be built from.
type PendingVector struct {
	RowID int64
	Title string
	Body  string
}

// EncodeVector packs a vector as little-endian float32s.
func EncodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// DecodeVector unpacks a blob written by EncodeVector.
func DecodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// UpsertVector replaces the embedding stored for a search_index row in a
// single statement, so concurrent writers for the same row never collide.
func UpsertVector(ctx context.Context, q Querier, rowID int64, v []float32) error {
	if len(v) == 0 {
		return errors.New("empty vector")
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO vec_index (rowid, embedding) VALUES (?, ?)
		 ON CONFLICT(rowid) DO UPDATE SET embedding = excluded.embedding`,
		rowID, EncodeVector(v),
	)
	return err
}

func DeleteVector(ctx context.Context, q Querier, rowID int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM vec_index WHERE rowid = ?`, rowID)
	return err
}

// HasVector reports whether a search_index row has an embedding.
func HasVector(ctx context.Context, q Querier, rowID int64) (bool, error) {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM vec_index WHERE rowid = ?`, rowID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// KNN returns the k stored vectors closest to query under L2 distance.
// Project and type filters are applied in SQL before ranking.
func KNN(ctx context.Context, q Querier, query []float32, k int, f VectorFilter) ([]VectorHit, error) {
	if k <= 0 || len(query) == 0 {
		return nil, nil
	}

	var projectFilter, typeFilter any
	if f.ProjectID != 0 {
		projectFilter = f.ProjectID
	}
	if f.Type != "" {
		typeFilter = string(f.Type)
	}

	rows, err := q.QueryContext(
		ctx,
		`SELECT si.id, si.source_type, si.source_id, si.title, vi.embedding
		FROM vec_index vi
		JOIN search_index si ON si.id = vi.rowid
		WHERE (? IS NULL OR si.project_id = ?)
			AND (? IS NULL OR si.source_type = ?)`,
		projectFilter, projectFilter, typeFilter, typeFilter,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []VectorHit
	for rows.Next() {
		var h VectorHit
		var typ string
		var blob []byte
		if err := rows.Scan(&h.RowID, &typ, &h.SourceID, &h.Title, &blob); err != nil {
			return nil, err
		}
		v, err := DecodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", h.RowID, err)
		}
		if len(v) != len(query) {
			return nil, fmt.Errorf("row %d has %d dimensions, query has %d: %w", h.RowID, len(v), len(query), ErrDimensionMismatch)
		}
		h.SourceType = SourceType(typ)
		h.Distance = L2(query, v)
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// L2 is the euclidean distance between two equal-length vectors.
func L2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

var missingVectorQueries = map[SourceType]string{
	Topic: `SELECT si.id, t.title, COALESCE(t.description, '')
		FROM search_index si
		JOIN topics t ON t.id = si.source_id
		LEFT JOIN vec_index vi ON vi.rowid = si.id
		WHERE si.source_type = 'topic' AND vi.rowid IS NULL
		ORDER BY si.id`,
	Decision: `SELECT si.id, d.decision, COALESCE(d.reason, '')
		FROM search_index si
		JOIN decisions d ON d.id = si.source_id
		LEFT JOIN vec_index vi ON vi.rowid = si.id
		WHERE si.source_type = 'decision' AND vi.rowid IS NULL
		ORDER BY si.id`,
	Task: `SELECT si.id, t.title, COALESCE(t.description, '')
		FROM search_index si
		JOIN tasks t ON t.id = si.source_id
		LEFT JOIN vec_index vi ON vi.rowid = si.id
		WHERE si.source_type = 'task' AND vi.rowid IS NULL
		ORDER BY si.id`,
}

// MissingVectors lists rows of one source type that have no embedding yet.
func MissingVectors(ctx context.Context, q Querier, t SourceType) ([]PendingVector, error) {
	query, ok := missingVectorQueries[t]
	if !ok {
		return nil, fmt.Errorf("unknown source type %q", t)
	}
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pending []PendingVector
	for rows.Next() {
		var p PendingVector
		if err := rows.Scan(&p.RowID, &p.Title, &p.Body); err != nil {
			return nil, err
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}
