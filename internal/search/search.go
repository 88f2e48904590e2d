// Package search answers keyword and similarity queries over the search
// index and resolves hits back to their records.
package search

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/stormlightlabs/memoria/internal/db"
	"github.com/stormlightlabs/memoria/internal/shared"
)

const (
	minKeywordRunes = 3
	defaultLimit    = 10
	maxLimit        = 50
)

// Mode selects the ranking strategy.
type Mode string

const (
	ModeLexical  Mode = "lexical"
	ModeSemantic Mode = "semantic"
	ModeHybrid   Mode = "hybrid"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case "", ModeLexical:
		return ModeLexical, nil
	case ModeSemantic:
		return ModeSemantic, nil
	case ModeHybrid:
		return ModeHybrid, nil
	}
	return "", shared.Errorf(shared.CodeInvalidArgument, "unknown search mode %q", s)
}

type Query struct {
	ProjectID int64
	Keyword   string
	Type      string // empty searches every type
	Limit     int
}

type Hit struct {
	Type  db.SourceType `json:"type"`
	ID    int64         `json:"id"`
	Title string        `json:"title"`
	Score float64       `json:"score"`
}

type Result struct {
	Results    []Hit `json:"results"`
	TotalCount int   `json:"total_count"`
}

// Record is a full source row fetched for a search hit.
type Record struct {
	Type db.SourceType `json:"type"`
	Data any           `json:"data"`
}

// Records loads source rows. The memory service implements it.
type Records interface {
	Record(ctx context.Context, t db.SourceType, id int64) (any, error)
}

// QueryEncoder turns a keyword into a query embedding. ok is false when no
// model is available.
type QueryEncoder interface {
	EncodeQuery(ctx context.Context, text string) ([]float32, bool)
}

type Options struct {
	DefaultLimit int
	VectorWeight float64
	TextWeight   float64
}

type Service struct {
	q       db.Querier
	records Records
	vectors QueryEncoder
	opts    Options
	logger  *log.Logger
}

// New builds a search service. vectors may be nil, which disables semantic
// ranking.
func New(q db.Querier, records Records, vectors QueryEncoder, opts Options) *Service {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = defaultLimit
	}
	if opts.VectorWeight == 0 && opts.TextWeight == 0 {
		opts.VectorWeight, opts.TextWeight = 0.7, 0.3
	}
	return &Service{q: q, records: records, vectors: vectors, opts: opts, logger: log.WithPrefix("search")}
}

type validated struct {
	keyword string
	typ     db.SourceType
	limit   int
}

func (s *Service) validate(q Query) (validated, error) {
	keyword := strings.TrimSpace(q.Keyword)
	if utf8.RuneCountInString(keyword) < minKeywordRunes {
		return validated{}, shared.Errorf(shared.CodeKeywordTooShort, "keyword must be at least 3 characters for trigram search")
	}

	var typ db.SourceType
	if q.Type != "" {
		t, ok := db.ParseSourceType(q.Type)
		if !ok {
			return validated{}, shared.Errorf(shared.CodeInvalidTypeFilter, "Invalid type_filter: %s. Must be one of [decision task topic]", q.Type)
		}
		typ = t
	}

	limit := q.Limit
	if limit == 0 {
		limit = s.opts.DefaultLimit
	}
	limit = max(1, min(limit, maxLimit))
	return validated{keyword: keyword, typ: typ, limit: limit}, nil
}

func newResult(hits []Hit) Result {
	if hits == nil {
		hits = []Hit{}
	}
	return Result{Results: hits, TotalCount: len(hits)}
}

// Search ranks records in a project by trigram match, best first. Title
// matches weigh five times body matches.
func (s *Service) Search(ctx context.Context, q Query) (Result, error) {
	v, err := s.validate(q)
	if err != nil {
		return Result{}, err
	}
	hits, err := s.lexical(ctx, q.ProjectID, v, v.limit)
	if err != nil {
		return Result{}, err
	}
	out := make([]Hit, 0, len(hits))
	for _, h := range hits {
		out = append(out, Hit{Type: h.SourceType, ID: h.SourceID, Title: h.Title, Score: h.Score})
	}
	return newResult(out), nil
}

func (s *Service) lexical(ctx context.Context, projectID int64, v validated, limit int) ([]db.LexicalHit, error) {
	hits, err := db.QueryLexical(ctx, s.q, db.LexicalQuery{
		Pattern:   db.QuoteLiteral(v.keyword),
		ProjectID: projectID,
		Type:      v.typ,
		Limit:     limit,
	})
	if err != nil {
		return nil, shared.AsError(err)
	}
	return hits, nil
}

// Semantic ranks records by embedding distance to the keyword, nearest
// first. Without a usable model it returns no results rather than an error.
func (s *Service) Semantic(ctx context.Context, q Query) (Result, error) {
	v, err := s.validate(q)
	if err != nil {
		return Result{}, err
	}
	hits := s.nearest(ctx, q.ProjectID, v, v.limit)
	out := make([]Hit, 0, len(hits))
	for _, h := range hits {
		out = append(out, Hit{Type: h.SourceType, ID: h.SourceID, Title: h.Title, Score: h.Distance})
	}
	return newResult(out), nil
}

func (s *Service) nearest(ctx context.Context, projectID int64, v validated, k int) []db.VectorHit {
	if s.vectors == nil {
		return nil
	}
	vec, ok := s.vectors.EncodeQuery(ctx, v.keyword)
	if !ok {
		return nil
	}
	hits, err := db.KNN(ctx, s.q, vec, k, db.VectorFilter{ProjectID: projectID, Type: v.typ})
	if err != nil {
		s.logger.Warn("Vector search failed", "project", projectID, "err", err)
		return nil
	}
	return hits
}

// Run dispatches to the ranking named by mode.
func (s *Service) Run(ctx context.Context, mode Mode, q Query) (Result, error) {
	switch mode {
	case ModeSemantic:
		return s.Semantic(ctx, q)
	case ModeHybrid:
		return s.Hybrid(ctx, q)
	default:
		return s.Search(ctx, q)
	}
}

// GetByID fetches the full record behind a search hit.
func (s *Service) GetByID(ctx context.Context, typ string, id int64) (Record, error) {
	t, ok := db.ParseSourceType(typ)
	if !ok {
		return Record{}, shared.Errorf(shared.CodeInvalidType, "Invalid type: %s. Must be one of [decision task topic]", typ)
	}
	data, err := s.records.Record(ctx, t, id)
	if err != nil {
		return Record{}, shared.AsError(err)
	}
	return Record{Type: t, Data: data}, nil
}
