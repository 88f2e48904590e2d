// Package memory is the write and read path for projects, topics, discussion
// logs, decisions and tasks. Every mutation of an indexed row goes through
// one transaction that also updates the search index.
package memory

import (
	"context"
	"database/sql"
	"errors"

	"github.com/charmbracelet/log"

	"github.com/stormlightlabs/memoria/internal/db"
	"github.com/stormlightlabs/memoria/internal/index"
	"github.com/stormlightlabs/memoria/internal/shared"
)

const (
	maxProjects  = 30
	maxTopics    = 10
	maxLogs      = 30
	maxDecisions = 30
	maxTreeNodes = 100
)

// Service reads and writes memory records.
type Service struct {
	store   *db.Store
	indexer index.Indexer
	logger  *log.Logger
}

func New(store *db.Store, indexer index.Indexer) *Service {
	return &Service{store: store, indexer: indexer, logger: log.WithPrefix("memory")}
}

// write runs fn in a transaction. Documents fn returns are handed to the
// indexer once the transaction has committed.
func (s *Service) write(ctx context.Context, fn func(tx *sql.Tx) ([]index.Document, error)) error {
	var docs []index.Document
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		docs, err = fn(tx)
		return err
	})
	if err != nil {
		return shared.AsError(err)
	}
	if len(docs) > 0 {
		s.indexer.AfterCommit(ctx, docs...)
	}
	return nil
}

// dbErr codes an error from the read path.
func dbErr(err error) error {
	if err == nil {
		return nil
	}
	return shared.AsError(err)
}

// clamp maps a non-positive limit to max and caps the rest at max.
func clamp(limit, max int) int {
	if limit <= 0 || limit > max {
		return max
	}
	return limit
}

func notFound(err error, kind string, id int64) error {
	if errors.Is(err, sql.ErrNoRows) {
		return shared.NotFound(kind, id)
	}
	return err
}

func requireText(field, v string) error {
	if v == "" {
		return shared.Errorf(shared.CodeInvalidArgument, "%s is required", field)
	}
	return nil
}

func nullable(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func optional(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
