package tui

import (
	"context"
	"errors"

	"github.com/stormlightlabs/memoria/internal/db"
	"github.com/stormlightlabs/memoria/internal/memory"
	"github.com/stormlightlabs/memoria/internal/search"
	"github.com/stormlightlabs/memoria/internal/shared"
)

var errTest = errors.New("test error")

// fakeBackend serves canned hits and records.
type fakeBackend struct {
	hits    []search.Hit
	records map[db.SourceType]map[int64]any
	err     error
	queries []search.Query
	modes   []search.Mode
}

func newFakeBackend() *fakeBackend {
	parent := int64(1)
	return &fakeBackend{
		hits: []search.Hit{
			{Type: db.Decision, ID: 3, Title: "trigram を採用", Score: 1.5},
			{Type: db.Topic, ID: 2, Title: "検索方式の選定", Score: 0.9},
			{Type: db.Task, ID: 4, Title: "インデックス再構築", Score: 0.4},
		},
		records: map[db.SourceType]map[int64]any{
			db.Topic: {
				1: memory.Topic{ID: 1, ProjectID: 1, Title: "設計"},
				2: memory.Topic{ID: 2, ProjectID: 1, Title: "検索方式の選定", ParentTopicID: &parent, Description: shared.StringPtr("FTS5 or LIKE")},
			},
			db.Decision: {
				3: memory.Decision{ID: 3, TopicID: 2, Decision: "trigram を採用", Reason: shared.StringPtr("部分一致")},
			},
			db.Task: {
				4: memory.Task{ID: 4, ProjectID: 1, Title: "インデックス再構築", Status: memory.StatusPending},
			},
		},
	}
}

func (f *fakeBackend) Run(ctx context.Context, mode search.Mode, q search.Query) (search.Result, error) {
	f.queries = append(f.queries, q)
	f.modes = append(f.modes, mode)
	if f.err != nil {
		return search.Result{}, f.err
	}
	return search.Result{Results: f.hits, TotalCount: len(f.hits)}, nil
}

func (f *fakeBackend) GetByID(ctx context.Context, typ string, id int64) (search.Record, error) {
	if f.err != nil {
		return search.Record{}, f.err
	}
	t := db.SourceType(typ)
	rec, ok := f.records[t][id]
	if !ok {
		return search.Record{}, shared.NotFound(typ, id)
	}
	return search.Record{Type: t, Data: rec}, nil
}
