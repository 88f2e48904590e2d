package memory

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/stormlightlabs/memoria/internal/db"
	"github.com/stormlightlabs/memoria/internal/index"
	"github.com/stormlightlabs/memoria/internal/shared"
)

// Each iteration reads the topic before writing, so concurrent transactions
// contend for the write lock.
func TestConcurrentWriters(t *testing.T) {
	s, store := newTestService(t, stubEmbedder{})
	ctx := context.Background()
	p := mustProject(t, s, "concurrent")
	topic := mustTopic(t, s, NewTopic{ProjectID: p.ID, Title: "並行書き込み"})

	const workers, rounds = 16, 10
	var g errgroup.Group
	for w := range workers {
		g.Go(func() error {
			for r := range rounds {
				title := fmt.Sprintf("並行書き込み %d-%d", w, r)
				if _, err := s.UpdateTopic(ctx, topic.ID, TopicPatch{Title: &title}); err != nil {
					return fmt.Errorf("UpdateTopic(%d-%d): %w", w, r, err)
				}
				if _, err := s.AddDecision(ctx, NewDecision{TopicID: topic.ID, Decision: title}); err != nil {
					return fmt.Errorf("AddDecision(%d-%d): %w", w, r, err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent writes failed: %v (code %s)", err, shared.CodeOf(err))
	}

	var n int
	if err := store.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM decisions WHERE topic_id = ?`, topic.ID).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != workers*rounds {
		t.Errorf("decisions = %d, want %d", n, workers*rounds)
	}
	if err := store.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM search_index WHERE source_type = 'decision'`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != workers*rounds {
		t.Errorf("decision index rows = %d, want %d", n, workers*rounds)
	}
}

// topicFailingIndexer rejects new topics and passes everything else through.
type topicFailingIndexer struct {
	*index.Syncer
}

func (f topicFailingIndexer) OnCreate(ctx context.Context, tx *sql.Tx, doc index.Document) (index.Document, error) {
	if doc.Type == db.Topic {
		return index.Document{}, errors.New("index unavailable")
	}
	return f.Syncer.OnCreate(ctx, tx, doc)
}

func TestUpdateTaskStatusLogsOnlyCommittedChanges(t *testing.T) {
	store := openStore(t)
	s := New(store, topicFailingIndexer{index.NewSyncer(nil)})
	var buf bytes.Buffer
	s.logger = log.New(&buf)
	ctx := context.Background()

	p := mustProject(t, s, "p")
	task, err := s.AddTask(ctx, NewTask{ProjectID: p.ID, Title: "デプロイ"})
	if err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}

	if _, err := s.UpdateTaskStatus(ctx, task.ID, "blocked"); err == nil {
		t.Fatal("UpdateTaskStatus(blocked) error = nil, want the topic insert to fail")
	}
	if strings.Contains(buf.String(), "Task status changed") {
		t.Errorf("rolled-back change was logged: %q", buf.String())
	}
	got, err := s.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if got.Status != StatusPending || got.TopicID != nil {
		t.Errorf("task after rollback = %+v, want pending without a topic", got)
	}

	if _, err := s.UpdateTaskStatus(ctx, task.ID, "in_progress"); err != nil {
		t.Fatalf("UpdateTaskStatus(in_progress) error = %v", err)
	}
	if out := buf.String(); !strings.Contains(out, "Task status changed") || !strings.Contains(out, "in_progress") {
		t.Errorf("committed change not logged: %q", out)
	}
}
