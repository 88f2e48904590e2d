package index

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stormlightlabs/memoria/internal/db"
)

type recordingWriter struct {
	mu    sync.Mutex
	texts map[int64]string
}

func (r *recordingWriter) GenerateAndStore(_ context.Context, _ db.SourceType, id int64, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.texts == nil {
		r.texts = map[int64]string{}
	}
	r.texts[id] = text
}

func newTestStore(t *testing.T) *db.Store {
	t.Helper()
	store, err := db.Open(filepath.Join(t.TempDir(), "memoria.db"))
	if err != nil {
		t.Fatalf("db.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	return store
}

func inTx(t *testing.T, store *db.Store, fn func(tx *sql.Tx) error) {
	t.Helper()
	if err := store.WithTx(context.Background(), fn); err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}
}

func exec(t *testing.T, q db.Querier, query string, args ...any) int64 {
	t.Helper()
	res, err := q.ExecContext(context.Background(), query, args...)
	if err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
	id, _ := res.LastInsertId()
	return id
}

func matches(t *testing.T, store *db.Store, projectID int64, kw string) []db.LexicalHit {
	t.Helper()
	hits, err := db.QueryLexical(context.Background(), store.DB(), db.LexicalQuery{Pattern: db.QuoteLiteral(kw), ProjectID: projectID, Limit: 10})
	if err != nil {
		t.Fatalf("QueryLexical(%q) error = %v", kw, err)
	}
	return hits
}

func TestPatchEmpty(t *testing.T) {
	title := "x"
	tests := []struct {
		patch Patch
		want  bool
	}{
		{Patch{}, true},
		{Patch{Title: &title}, false},
		{Patch{Body: &title}, false},
	}
	for _, tt := range tests {
		if got := tt.patch.Empty(); got != tt.want {
			t.Errorf("%+v.Empty() = %v, want %v", tt.patch, got, tt.want)
		}
	}
}

func TestOnCreateResolvesDecisionProject(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	s := NewSyncer(nil)

	project := exec(t, store.DB(), `INSERT INTO projects (name) VALUES ('p')`)
	topic := exec(t, store.DB(), `INSERT INTO topics (project_id, title) VALUES (?, 'sync')`, project)

	var doc Document
	inTx(t, store, func(tx *sql.Tx) error {
		id := exec(t, tx, `INSERT INTO decisions (topic_id, decision, reason) VALUES (?, 'トリガー同期を採用', '一貫性')`, topic)
		var err error
		doc, err = s.OnCreate(ctx, tx, Document{Type: db.Decision, ID: id, TopicID: topic, Title: "トリガー同期を採用", Body: "一貫性"})
		return err
	})
	if doc.ProjectID != project {
		t.Errorf("OnCreate() project = %d, want %d", doc.ProjectID, project)
	}
	if hits := matches(t, store, project, "トリガー同期"); len(hits) != 1 || hits[0].SourceType != db.Decision {
		t.Errorf("decision not searchable in its topic's project: %+v", hits)
	}
}

func TestOnCreateMissingTopic(t *testing.T) {
	store := newTestStore(t)
	s := NewSyncer(nil)
	err := store.WithTx(context.Background(), func(tx *sql.Tx) error {
		_, err := s.OnCreate(context.Background(), tx, Document{Type: db.Decision, ID: 1, TopicID: 404, Title: "x"})
		return err
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("OnCreate() error = %v, want ErrNotFound", err)
	}
}

func TestOnUpdate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	s := NewSyncer(nil)

	project := exec(t, store.DB(), `INSERT INTO projects (name) VALUES ('p')`)
	topic := exec(t, store.DB(), `INSERT INTO topics (project_id, title, description) VALUES (?, 'before title', 'body')`, project)
	inTx(t, store, func(tx *sql.Tx) error {
		_, err := s.OnCreate(ctx, tx, Document{Type: db.Topic, ID: topic, ProjectID: project, Title: "before title", Body: "body"})
		return err
	})
	rowID, _, _ := db.LookupID(ctx, store.DB(), db.Topic, topic)
	if err := db.UpsertVector(ctx, store.DB(), rowID, []float32{1, 2}); err != nil {
		t.Fatalf("UpsertVector() error = %v", err)
	}

	inTx(t, store, func(tx *sql.Tx) error {
		_, changed, err := s.OnUpdate(ctx, tx, db.Topic, topic, Patch{})
		if changed {
			t.Error("OnUpdate() with empty patch reported a change")
		}
		return err
	})
	if ok, _ := db.HasVector(ctx, store.DB(), rowID); !ok {
		t.Fatal("empty patch dropped the vector")
	}

	title := "after title"
	inTx(t, store, func(tx *sql.Tx) error {
		exec(t, tx, `UPDATE topics SET title = ? WHERE id = ?`, title, topic)
		doc, changed, err := s.OnUpdate(ctx, tx, db.Topic, topic, Patch{Title: &title})
		if !changed || doc.Title != title || doc.Body != "body" {
			t.Errorf("OnUpdate() = %+v, %v", doc, changed)
		}
		return err
	})

	if hits := matches(t, store, project, "before"); len(hits) != 0 {
		t.Errorf("stale title still matches: %+v", hits)
	}
	if hits := matches(t, store, project, "after"); len(hits) != 1 || hits[0].Title != title {
		t.Errorf("new title hits = %+v", hits)
	}
	if ok, _ := db.HasVector(ctx, store.DB(), rowID); ok {
		t.Error("stale vector kept after title change")
	}
	if again, _, _ := db.LookupID(ctx, store.DB(), db.Topic, topic); again != rowID {
		t.Errorf("search_index id changed on update: %d -> %d", rowID, again)
	}
}

func TestOnDeleteRemovesEverything(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	s := NewSyncer(nil)

	inTx(t, store, func(tx *sql.Tx) error {
		_, err := s.OnCreate(ctx, tx, Document{Type: db.Task, ID: 9, ProjectID: 1, Title: "削除されるタスク"})
		return err
	})
	rowID, _, _ := db.LookupID(ctx, store.DB(), db.Task, 9)
	if err := db.UpsertVector(ctx, store.DB(), rowID, []float32{1}); err != nil {
		t.Fatalf("UpsertVector() error = %v", err)
	}

	inTx(t, store, func(tx *sql.Tx) error { return s.OnDelete(ctx, tx, db.Task, 9) })
	inTx(t, store, func(tx *sql.Tx) error { return s.OnDelete(ctx, tx, db.Task, 9) })

	st, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if st.IndexRows != 0 || st.LexicalRows != 0 || st.VectorRows != 0 {
		t.Errorf("Stats() after delete = %+v", st)
	}
	if hits := matches(t, store, 1, "削除される"); len(hits) != 0 {
		t.Errorf("deleted task still matches: %+v", hits)
	}
}

func TestRolledBackCreateLeavesNoEntry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	s := NewSyncer(nil)

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.OnCreate(ctx, tx, Document{Type: db.Topic, ID: 1, ProjectID: 1, Title: "rolled back"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx() error = %v", err)
	}
	if hits := matches(t, store, 1, "rolled"); len(hits) != 0 {
		t.Errorf("rolled back entry is searchable: %+v", hits)
	}
}

func TestAfterCommitEmbedsText(t *testing.T) {
	w := &recordingWriter{}
	s := NewSyncer(w)
	s.AfterCommit(context.Background(),
		Document{Type: db.Topic, ID: 1, Title: "title", Body: "body"},
		Document{Type: db.Task, ID: 2, Title: "only title"},
	)
	if w.texts[1] != "title body" || w.texts[2] != "only title" {
		t.Errorf("AfterCommit() texts = %v", w.texts)
	}

	NewSyncer(nil).AfterCommit(context.Background(), Document{Type: db.Topic, ID: 1})
}
