// Package index keeps the search_index, its trigram table and the vector
// table in step with the topic, decision and task rows they describe.
//
// Lexical entries are written inside the caller's transaction. Embeddings are
// produced after commit and may lag; a missing vector is repaired by backfill.
package index

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/stormlightlabs/memoria/internal/db"
	"github.com/stormlightlabs/memoria/internal/embedding"
)

// ErrNotFound is returned when the row being indexed (or the topic a decision
// belongs to) does not exist.
var ErrNotFound = db.ErrSourceNotFound

// Document is the indexable view of a source row.
type Document struct {
	Type      db.SourceType
	ID        int64
	ProjectID int64
	TopicID   int64 // decisions only; resolves ProjectID when it is zero
	Title     string
	Body      string
}

// Text is what gets embedded for the document.
func (d Document) Text() string {
	return embedding.BuildText(d.Title, d.Body)
}

// Patch records which indexed fields an update touched. Nil means unchanged.
type Patch struct {
	Title *string
	Body  *string
}

func (p Patch) Empty() bool {
	return p.Title == nil && p.Body == nil
}

// Indexer is the write-path contract the memory service depends on.
type Indexer interface {
	OnCreate(ctx context.Context, tx *sql.Tx, doc Document) (Document, error)
	OnUpdate(ctx context.Context, tx *sql.Tx, t db.SourceType, id int64, patch Patch) (Document, bool, error)
	OnDelete(ctx context.Context, tx *sql.Tx, t db.SourceType, id int64) error
	AfterCommit(ctx context.Context, docs ...Document)
}

// VectorWriter stores an embedding for a committed source row. It must not
// fail the caller.
type VectorWriter interface {
	GenerateAndStore(ctx context.Context, t db.SourceType, sourceID int64, text string)
}

// Syncer is the Indexer backed by the SQLite index tables.
type Syncer struct {
	vectors VectorWriter
	logger  *log.Logger
}

// NewSyncer returns a Syncer. vectors may be nil, in which case nothing is
// embedded after commit.
func NewSyncer(vectors VectorWriter) *Syncer {
	return &Syncer{vectors: vectors, logger: log.WithPrefix("index")}
}

var (
	_ Indexer      = (*Syncer)(nil)
	_ VectorWriter = (*embedding.Service)(nil)
)

func (s *Syncer) OnCreate(ctx context.Context, tx *sql.Tx, doc Document) (Document, error) {
	if doc.Type == db.Decision && doc.ProjectID == 0 {
		projectID, err := db.TopicProject(ctx, tx, doc.TopicID)
		if err != nil {
			return Document{}, err
		}
		doc.ProjectID = projectID
	}

	rowID, err := db.UpsertEntry(ctx, tx, db.SearchEntry{
		SourceType: doc.Type,
		SourceID:   doc.ID,
		ProjectID:  doc.ProjectID,
		Title:      doc.Title,
	})
	if err != nil {
		return Document{}, err
	}
	if err := db.ReindexLexical(ctx, tx, rowID, doc.Title, doc.Body); err != nil {
		return Document{}, fmt.Errorf("index %s %d: %w", doc.Type, doc.ID, err)
	}
	return doc, nil
}

// OnUpdate refreshes the entry for a row whose title or body changed. The
// returned bool is false when the patch did not touch indexed fields.
func (s *Syncer) OnUpdate(ctx context.Context, tx *sql.Tx, t db.SourceType, id int64, patch Patch) (Document, bool, error) {
	if patch.Empty() {
		return Document{}, false, nil
	}

	src, err := db.LoadSource(ctx, tx, t, id)
	if err != nil {
		return Document{}, false, err
	}
	doc := Document{Type: t, ID: id, ProjectID: src.ProjectID, Title: src.Title, Body: src.Body}

	rowID, err := db.UpsertEntry(ctx, tx, db.SearchEntry{SourceType: t, SourceID: id, ProjectID: src.ProjectID, Title: src.Title})
	if err != nil {
		return Document{}, false, err
	}
	if err := db.ReindexLexical(ctx, tx, rowID, src.Title, src.Body); err != nil {
		return Document{}, false, fmt.Errorf("reindex %s %d: %w", t, id, err)
	}
	if err := db.DeleteVector(ctx, tx, rowID); err != nil {
		return Document{}, false, fmt.Errorf("drop stale vector %s %d: %w", t, id, err)
	}
	return doc, true, nil
}

func (s *Syncer) OnDelete(ctx context.Context, tx *sql.Tx, t db.SourceType, id int64) error {
	rowID, ok, err := db.LookupID(ctx, tx, t, id)
	if err != nil {
		return err
	}
	if !ok {
		s.logger.Debug("No index entry to delete", "type", t, "id", id)
		return nil
	}
	if err := db.DeleteVector(ctx, tx, rowID); err != nil {
		return err
	}
	if err := db.RemoveLexical(ctx, tx, rowID); err != nil {
		return err
	}
	return db.DeleteEntry(ctx, tx, t, id)
}

// AfterCommit embeds committed documents. Errors stay inside the vector writer.
func (s *Syncer) AfterCommit(ctx context.Context, docs ...Document) {
	if s.vectors == nil {
		return
	}
	for _, d := range docs {
		s.vectors.GenerateAndStore(ctx, d.Type, d.ID, d.Text())
	}
}
