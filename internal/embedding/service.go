package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/stormlightlabs/memoria/internal/cache"
	"github.com/stormlightlabs/memoria/internal/db"
)

// State is the lifecycle of the embedding model.
type State int32

const (
	StateUnloaded State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Options tunes a Service. Zero values fall back to defaults.
type Options struct {
	Dimensions     int
	LoadTimeout    time.Duration
	BatchSize      int
	QueryCacheSize int
}

// Status is a point-in-time view of the service.
type Status struct {
	State        State
	Provider     string
	Model        string
	Dimensions   int
	BackfillDone bool
	CachedQuery  int
	Err          string
}

// Service owns the embedding model handle and its load, failure and backfill
// flags. The model is loaded on first use; a failed load is never retried.
// Every public method absorbs errors: callers get "no vector" instead.
type Service struct {
	q        db.Querier
	embedder Embedder
	opts     Options
	logger   *log.Logger

	loadOnce sync.Once
	mu       sync.RWMutex
	state    State
	loadErr  error

	backfillMu   sync.Mutex
	backfillDone bool

	queries *cache.Vectors
	flight  singleflight.Group
}

// NewService wires an embedder to the vector index reachable through q.
func NewService(q db.Querier, embedder Embedder, opts Options) *Service {
	if opts.Dimensions <= 0 {
		opts.Dimensions = embedder.Dimensions()
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = time.Minute
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 32
	}
	logger := log.WithPrefix("embedding")
	queries, err := cache.NewVectors(embedder.Name()+"/"+embedder.Model(), opts.QueryCacheSize)
	if err != nil {
		logger.Warn("Query cache disabled", "err", err)
	}
	return &Service{q: q, embedder: embedder, opts: opts, logger: logger, queries: queries}
}

func (s *Service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Service) setState(st State, err error) {
	s.mu.Lock()
	s.state = st
	s.loadErr = err
	s.mu.Unlock()
}

// Status reports the current state without triggering a load.
func (s *Service) Status() Status {
	s.mu.RLock()
	st := Status{
		State:      s.state,
		Provider:   s.embedder.Name(),
		Model:      s.embedder.Model(),
		Dimensions: s.opts.Dimensions,
	}
	if s.loadErr != nil {
		st.Err = s.loadErr.Error()
	}
	s.mu.RUnlock()

	s.backfillMu.Lock()
	st.BackfillDone = s.backfillDone
	s.backfillMu.Unlock()
	st.CachedQuery = s.queries.Len()
	return st
}

// Warm loads the model (and runs the one-time backfill) if that has not
// happened yet, and returns the resulting state.
func (s *Service) Warm(ctx context.Context) State {
	s.ensureInitialized(ctx)
	return s.State()
}

// Available reports whether vectors can be produced right now. It does not
// trigger a load.
func (s *Service) Available() bool {
	return s.State() == StateReady
}

func (s *Service) load(ctx context.Context) {
	s.setState(StateLoading, nil)

	loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.LoadTimeout)
	defer cancel()

	err := s.probe(loadCtx)
	if err != nil {
		s.setState(StateFailed, err)
		s.logger.Warn("Failed to load embedding model", "provider", s.embedder.Name(), "model", s.embedder.Model(), "err", err)
		return
	}
	s.setState(StateReady, nil)
	s.logger.Info("Embedding model loaded", "provider", s.embedder.Name(), "model", s.embedder.Model())
}

func (s *Service) probe(ctx context.Context) error {
	vecs, err := s.embedder.Embed(ctx, []string{QueryPrefix + "ping"})
	if err != nil {
		return err
	}
	if len(vecs) != 1 {
		return fmt.Errorf("probe returned %d vectors", len(vecs))
	}
	return s.checkDims(vecs[0])
}

func (s *Service) checkDims(v []float32) error {
	if len(v) != s.opts.Dimensions {
		return fmt.Errorf("model returned %d dimensions, index expects %d: %w", len(v), s.opts.Dimensions, db.ErrDimensionMismatch)
	}
	return nil
}

func (s *Service) ensureLoaded(ctx context.Context) bool {
	s.loadOnce.Do(func() { s.load(ctx) })
	return s.State() == StateReady
}

func (s *Service) ensureInitialized(ctx context.Context) bool {
	if !s.ensureLoaded(ctx) {
		return false
	}
	s.backfillMu.Lock()
	defer s.backfillMu.Unlock()
	if !s.backfillDone {
		s.backfill(ctx)
		s.backfillDone = true
	}
	return true
}

func (s *Service) encode(ctx context.Context, text string) ([]float32, error) {
	if !s.ensureInitialized(ctx) {
		return nil, errUnavailable
	}
	vecs, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for 1 text", len(vecs))
	}
	if err := s.checkDims(vecs[0]); err != nil {
		return nil, err
	}
	return vecs[0], nil
}

var errUnavailable = errors.New("embedding model unavailable")

// EncodeDocument embeds text as a document. ok is false when the model is
// unavailable or encoding failed.
func (s *Service) EncodeDocument(ctx context.Context, text string) ([]float32, bool) {
	v, err := s.encode(ctx, DocPrefix+text)
	if err != nil {
		if !errors.Is(err, errUnavailable) {
			s.logger.Warn("Failed to encode document", "err", err)
		}
		return nil, false
	}
	return v, true
}

// EncodeQuery embeds text as a search query. Repeated queries are served from
// the cache and concurrent identical queries share one request.
func (s *Service) EncodeQuery(ctx context.Context, text string) ([]float32, bool) {
	prefixed := QueryPrefix + text
	if v, ok := s.queries.Get(prefixed); ok {
		return v, true
	}

	res, err, _ := s.flight.Do(prefixed, func() (any, error) {
		return s.encode(ctx, prefixed)
	})
	if err != nil {
		if !errors.Is(err, errUnavailable) {
			s.logger.Warn("Failed to encode query", "err", err)
		}
		return nil, false
	}
	v := res.([]float32)
	s.queries.Put(prefixed, v)
	return append([]float32(nil), v...), true
}

// GenerateAndStore embeds text for the search_index row of a source record
// and writes the vector. Failures are logged and swallowed.
func (s *Service) GenerateAndStore(ctx context.Context, t db.SourceType, sourceID int64, text string) {
	rowID, ok, err := db.LookupID(ctx, s.q, t, sourceID)
	if err != nil {
		s.logger.Warn("Failed to generate embedding", "type", t, "id", sourceID, "err", err)
		return
	}
	if !ok {
		s.logger.Warn("Failed to generate embedding", "type", t, "id", sourceID, "err", "search index row not found")
		return
	}
	if text == "" {
		return
	}

	vec, ok := s.EncodeDocument(ctx, text)
	if !ok {
		return
	}
	if err := db.UpsertVector(ctx, s.q, rowID, vec); err != nil {
		s.logger.Warn("Failed to store embedding", "type", t, "id", sourceID, "row", rowID, "err", err)
	}
}

// Backfill embeds every search_index row that has no vector yet and returns
// how many vectors were written. It returns 0 when the model is unavailable
// or nothing is missing.
func (s *Service) Backfill(ctx context.Context) int {
	if !s.ensureLoaded(ctx) {
		return 0
	}
	s.backfillMu.Lock()
	defer s.backfillMu.Unlock()
	n := s.backfill(ctx)
	s.backfillDone = true
	return n
}

func (s *Service) backfill(ctx context.Context) int {
	total := 0
	for _, t := range db.SourceTypes() {
		pending, err := db.MissingVectors(ctx, s.q, t)
		if err != nil {
			s.logger.Warn("Failed to scan for missing embeddings", "type", t, "err", err)
			continue
		}

		ids := make([]int64, 0, len(pending))
		texts := make([]string, 0, len(pending))
		for _, p := range pending {
			if text := BuildText(p.Title, p.Body); text != "" {
				ids = append(ids, p.RowID)
				texts = append(texts, DocPrefix+text)
			}
		}

		n, err := s.storeBatches(ctx, ids, texts)
		total += n
		if err != nil {
			s.logger.Warn("Failed to backfill embeddings", "type", t, "err", err)
		}
	}
	if total > 0 {
		s.logger.Info("Backfilled embeddings", "count", total)
	} else {
		s.logger.Debug("Backfilled embeddings", "count", total)
	}
	return total
}

func (s *Service) storeBatches(ctx context.Context, ids []int64, texts []string) (int, error) {
	stored := 0
	for start := 0; start < len(texts); start += s.opts.BatchSize {
		end := min(start+s.opts.BatchSize, len(texts))
		vecs, err := s.embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return stored, err
		}
		if len(vecs) != end-start {
			return stored, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), end-start)
		}
		for i, v := range vecs {
			if err := s.checkDims(v); err != nil {
				return stored, err
			}
			if err := db.UpsertVector(ctx, s.q, ids[start+i], v); err != nil {
				return stored, err
			}
			stored++
		}
	}
	return stored, nil
}
