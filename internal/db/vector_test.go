package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"golang.org/x/sync/errgroup"
)

func TestEncodeVectorLayout(t *testing.T) {
	got := EncodeVector([]float32{1.0, -2.5})
	want := []byte{0x00, 0x00, 0x80, 0x3f, 0x00, 0x00, 0x20, 0xc0}
	if string(got) != string(want) {
		t.Fatalf("EncodeVector() = % x, want % x", got, want)
	}

	v, err := DecodeVector(got)
	if err != nil {
		t.Fatalf("DecodeVector() error = %v", err)
	}
	if len(v) != 2 || v[0] != 1.0 || v[1] != -2.5 {
		t.Errorf("DecodeVector() = %v", v)
	}

	if _, err := DecodeVector([]byte{1, 2, 3}); err == nil {
		t.Error("DecodeVector() on truncated blob expected error")
	}
}

func TestL2(t *testing.T) {
	tests := []struct {
		a, b []float32
		want float64
	}{
		{[]float32{0, 0}, []float32{3, 4}, 5},
		{[]float32{1, 1, 1}, []float32{1, 1, 1}, 0},
		{[]float32{-1}, []float32{1}, 2},
	}
	for _, tt := range tests {
		if got := L2(tt.a, tt.b); got != tt.want {
			t.Errorf("L2(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestKNNOrdersNearestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	far := indexRow(t, store, Topic, 1, 1, "far", "")
	near := indexRow(t, store, Topic, 2, 1, "near", "")
	mid := indexRow(t, store, Task, 1, 1, "mid", "")
	other := indexRow(t, store, Topic, 3, 2, "other project", "")

	for id, v := range map[int64][]float32{
		far:   {10, 0},
		near:  {1, 0},
		mid:   {3, 0},
		other: {0, 0},
	} {
		if err := UpsertVector(ctx, store.DB(), id, v); err != nil {
			t.Fatalf("UpsertVector(%d) error = %v", id, err)
		}
	}

	hits, err := KNN(ctx, store.DB(), []float32{0, 0}, 2, VectorFilter{ProjectID: 1})
	if err != nil {
		t.Fatalf("KNN() error = %v", err)
	}
	if len(hits) != 2 || hits[0].RowID != near || hits[1].RowID != mid {
		t.Fatalf("KNN() = %+v, want [%d %d]", hits, near, mid)
	}
	if hits[0].Distance != 1 || hits[1].Distance != 3 {
		t.Errorf("KNN() distances = %v, %v", hits[0].Distance, hits[1].Distance)
	}

	hits, err = KNN(ctx, store.DB(), []float32{0, 0}, 10, VectorFilter{ProjectID: 1, Type: Task})
	if err != nil {
		t.Fatalf("KNN() type filter error = %v", err)
	}
	if len(hits) != 1 || hits[0].RowID != mid {
		t.Errorf("KNN() type filter = %+v, want only %d", hits, mid)
	}

	hits, err = KNN(ctx, store.DB(), []float32{0, 0}, 10, VectorFilter{})
	if err != nil {
		t.Fatalf("KNN() unfiltered error = %v", err)
	}
	if len(hits) != 4 || hits[0].RowID != other {
		t.Errorf("KNN() unfiltered = %+v", hits)
	}
}

func TestUpsertVectorReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id := indexRow(t, store, Topic, 1, 1, "row", "")

	if err := UpsertVector(ctx, store.DB(), id, []float32{1, 1}); err != nil {
		t.Fatalf("UpsertVector() error = %v", err)
	}
	if err := UpsertVector(ctx, store.DB(), id, []float32{2, 2}); err != nil {
		t.Fatalf("UpsertVector() replace error = %v", err)
	}

	hits, err := KNN(ctx, store.DB(), []float32{2, 2}, 5, VectorFilter{})
	if err != nil {
		t.Fatalf("KNN() error = %v", err)
	}
	if len(hits) != 1 || hits[0].Distance != 0 {
		t.Errorf("KNN() after replace = %+v", hits)
	}

	if err := UpsertVector(ctx, store.DB(), id, nil); err == nil {
		t.Error("UpsertVector(nil) expected error")
	}
}

func TestUpsertVectorConcurrentSameRow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id := indexRow(t, store, Topic, 1, 1, "row", "")

	var g errgroup.Group
	for w := range 8 {
		g.Go(func() error {
			for r := range 20 {
				if err := UpsertVector(ctx, store.DB(), id, []float32{float32(w), float32(r)}); err != nil {
					return fmt.Errorf("UpsertVector(%d, %d): %w", w, r, err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	var n int
	if err := store.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM vec_index WHERE rowid = ?`, id).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("vec_index rows for %d = %d, want 1", id, n)
	}
}

func TestKNNDimensionMismatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id := indexRow(t, store, Topic, 1, 1, "row", "")
	if err := UpsertVector(ctx, store.DB(), id, []float32{1, 2, 3}); err != nil {
		t.Fatalf("UpsertVector() error = %v", err)
	}

	_, err := KNN(ctx, store.DB(), []float32{1, 2}, 1, VectorFilter{})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("KNN() error = %v, want ErrDimensionMismatch", err)
	}
}

func TestVectorCascadesWithIndexRow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id := indexRow(t, store, Topic, 1, 1, "row", "")
	if err := UpsertVector(ctx, store.DB(), id, []float32{1}); err != nil {
		t.Fatalf("UpsertVector() error = %v", err)
	}
	if err := DeleteEntry(ctx, store.DB(), Topic, 1); err != nil {
		t.Fatalf("DeleteEntry() error = %v", err)
	}
	ok, err := HasVector(ctx, store.DB(), id)
	if err != nil {
		t.Fatalf("HasVector() error = %v", err)
	}
	if ok {
		t.Error("vector survived deletion of its search_index row")
	}
}

func TestMissingVectors(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	project := mustExec(t, store, `INSERT INTO projects (name) VALUES ('p')`)
	topicA := mustExec(t, store, `INSERT INTO topics (project_id, title, description) VALUES (?, 'A', 'alpha')`, project)
	topicB := mustExec(t, store, `INSERT INTO topics (project_id, title) VALUES (?, 'B')`, project)
	decision := mustExec(t, store, `INSERT INTO decisions (topic_id, decision, reason) VALUES (?, 'go', 'fast')`, topicA)

	rowA := indexRow(t, store, Topic, topicA, project, "A", "alpha")
	indexRow(t, store, Topic, topicB, project, "B", "")
	indexRow(t, store, Decision, decision, project, "go", "fast")

	if err := UpsertVector(ctx, store.DB(), rowA, []float32{1}); err != nil {
		t.Fatalf("UpsertVector() error = %v", err)
	}

	topics, err := MissingVectors(ctx, store.DB(), Topic)
	if err != nil {
		t.Fatalf("MissingVectors(topic) error = %v", err)
	}
	if len(topics) != 1 || topics[0].Title != "B" || topics[0].Body != "" {
		t.Errorf("MissingVectors(topic) = %+v", topics)
	}

	decisions, err := MissingVectors(ctx, store.DB(), Decision)
	if err != nil {
		t.Fatalf("MissingVectors(decision) error = %v", err)
	}
	if len(decisions) != 1 || decisions[0].Title != "go" || decisions[0].Body != "fast" {
		t.Errorf("MissingVectors(decision) = %+v", decisions)
	}

	if _, err := MissingVectors(ctx, store.DB(), SourceType("note")); err == nil {
		t.Error("MissingVectors(note) expected error")
	}
}
