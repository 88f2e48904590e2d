package search

import (
	"context"
	"sort"
)

// candidate pool per ranker, as a multiple of the requested limit
const hybridOversample = 3

type merged struct {
	hit      Hit
	rowID    int64
	text     float64
	vector   float64
	combined float64
}

// Hybrid blends lexical and vector rankings. Both score sets are min-max
// normalised to [0, 1] with 1 as the best match, then combined with the
// configured weights. Higher is better. Without vectors it degrades to the
// lexical ranking.
func (s *Service) Hybrid(ctx context.Context, q Query) (Result, error) {
	v, err := s.validate(q)
	if err != nil {
		return Result{}, err
	}
	pool := min(v.limit*hybridOversample, maxLimit*hybridOversample)

	lex, err := s.lexical(ctx, q.ProjectID, v, pool)
	if err != nil {
		return Result{}, err
	}
	vec := s.nearest(ctx, q.ProjectID, v, pool)
	if len(vec) == 0 {
		return s.Search(ctx, q)
	}

	byRow := make(map[int64]*merged, len(lex)+len(vec))
	lexScores := make([]float64, len(lex))
	for i, h := range lex {
		lexScores[i] = -h.Score // bm25 cost: lower is better
	}
	for i, norm := range normalize(lexScores) {
		h := lex[i]
		byRow[h.RowID] = &merged{hit: Hit{Type: h.SourceType, ID: h.SourceID, Title: h.Title}, rowID: h.RowID, text: norm}
	}

	vecScores := make([]float64, len(vec))
	for i, h := range vec {
		vecScores[i] = -h.Distance
	}
	for i, norm := range normalize(vecScores) {
		h := vec[i]
		m, ok := byRow[h.RowID]
		if !ok {
			m = &merged{hit: Hit{Type: h.SourceType, ID: h.SourceID, Title: h.Title}, rowID: h.RowID}
			byRow[h.RowID] = m
		}
		m.vector = norm
	}

	all := make([]*merged, 0, len(byRow))
	for _, m := range byRow {
		m.combined = s.opts.TextWeight*m.text + s.opts.VectorWeight*m.vector
		all = append(all, m)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].combined != all[j].combined {
			return all[i].combined > all[j].combined
		}
		return all[i].rowID < all[j].rowID
	})
	if len(all) > v.limit {
		all = all[:v.limit]
	}

	out := make([]Hit, len(all))
	for i, m := range all {
		out[i] = m.hit
		out[i].Score = m.combined
	}
	return newResult(out), nil
}

// normalize maps scores (higher is better) onto [0, 1]. A single score, or
// a set of equal scores, maps to 1.
func normalize(scores []float64) []float64 {
	out := make([]float64, len(scores))
	if len(scores) == 0 {
		return out
	}
	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		lo = min(lo, s)
		hi = max(hi, s)
	}
	for i, s := range scores {
		if hi == lo {
			out[i] = 1
			continue
		}
		out[i] = (s - lo) / (hi - lo)
	}
	return out
}
