package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stormlightlabs/memoria/internal/config"
	"github.com/stormlightlabs/memoria/internal/embedding"
	"github.com/stormlightlabs/memoria/internal/memory"
	"github.com/stormlightlabs/memoria/internal/search"
	"github.com/stormlightlabs/memoria/internal/shared"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1", 1, false},
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseID(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseID(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && shared.CodeOf(err) != shared.CodeInvalidArgument {
				t.Errorf("parseID(%q) code = %q, want %q", tt.in, shared.CodeOf(err), shared.CodeInvalidArgument)
			}
			if got != tt.want {
				t.Errorf("parseID(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestConfigKeys(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		want    string
		wantErr bool
	}{
		{"search.mode", "hybrid", "hybrid", false},
		{"search.mode", "SEMANTIC", "semantic", false},
		{"search.mode", "fuzzy", "", true},
		{"search.default_limit", "20", "20", false},
		{"search.default_limit", "-1", "", true},
		{"search.vector_weight", "0.5", "0.5", false},
		{"embedding.provider", "openai", "openai", false},
		{"embedding.requests_per_second", "x", "", true},
		{"display.render_markdown", "true", "true", false},
		{"display.render_markdown", "maybe", "", true},
		{"display.color_output", "false", "false", false},
		{"display.color_output", "auto", "auto", false},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			k, err := lookupKey(tt.key)
			if err != nil {
				t.Fatalf("lookupKey(%q) error = %v", tt.key, err)
			}
			c := config.DefaultConfig()
			err = k.set(c, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("set(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got := k.get(c); got != tt.want {
				t.Errorf("get() after set(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestLookupKeyUnknown(t *testing.T) {
	_, err := lookupKey("search.fuzziness")
	if err == nil {
		t.Fatal("lookupKey(search.fuzziness) error = nil")
	}
	if !strings.Contains(err.Error(), "search.mode") {
		t.Errorf("lookupKey error %q does not list the known keys", err)
	}
}

func TestScoreHeader(t *testing.T) {
	tests := []struct {
		mode search.Mode
		want string
	}{
		{search.ModeLexical, "BM25 (lower is better)"},
		{search.ModeSemantic, "Distance (lower is closer)"},
		{search.ModeHybrid, "Score (higher is better)"},
	}
	for _, tt := range tests {
		if got := scoreHeader(tt.mode); got != tt.want {
			t.Errorf("scoreHeader(%q) = %q, want %q", tt.mode, got, tt.want)
		}
	}
}

func TestCells(t *testing.T) {
	if got := cell("first line\nsecond line"); got != "first line" {
		t.Errorf("cell() = %q, want %q", got, "first line")
	}
	long := strings.Repeat("議", 70)
	if got := cell(long); got != strings.Repeat("議", 60)+"..." {
		t.Errorf("cell(70 runes) = %q", got)
	}
	if got := optCell(nil); got != "" {
		t.Errorf("optCell(nil) = %q, want empty", got)
	}
	if got := idCell(nil); got != "" {
		t.Errorf("idCell(nil) = %q, want empty", got)
	}
	if got := idCell(shared.Int64Ptr(7)); got != "7" {
		t.Errorf("idCell(7) = %q, want %q", got, "7")
	}
}

func TestEmit(t *testing.T) {
	prev := outputFormat
	t.Cleanup(func() { outputFormat = prev })

	v := map[string]any{"name": "memoria", "id": 1}
	tests := []struct {
		format  string
		handled bool
		want    string
	}{
		{formatTable, false, ""},
		{formatJSON, true, `"name": "memoria"`},
		{formatYAML, true, "name: memoria"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			outputFormat = tt.format
			if err := checkFormat(); err != nil {
				t.Fatalf("checkFormat() error = %v", err)
			}
			var buf bytes.Buffer
			handled, err := emit(&buf, v)
			if err != nil {
				t.Fatalf("emit() error = %v", err)
			}
			if handled != tt.handled {
				t.Errorf("emit() handled = %v, want %v", handled, tt.handled)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("emit() wrote %q, want %q", buf.String(), tt.want)
			}
		})
	}

	outputFormat = "xml"
	if err := checkFormat(); err == nil {
		t.Error("checkFormat(xml) error = nil")
	}
}

func TestNewApp(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "memoria.db")

	a, err := newApp(ctx, path, nil)
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	defer a.Close()

	if a.mode != search.ModeLexical {
		t.Errorf("mode = %q, want %q", a.mode, search.ModeLexical)
	}
	p, err := a.memory.AddProject(ctx, memory.NewProject{Name: "cli", Description: "from the command line"})
	if err != nil {
		t.Fatalf("AddProject() error = %v", err)
	}
	if _, err := a.memory.AddTopic(ctx, memory.NewTopic{ProjectID: p.ID, Title: "コマンド設計", Description: "cobra で組む"}); err != nil {
		t.Fatalf("AddTopic() error = %v", err)
	}
	res, err := a.search.Search(ctx, search.Query{ProjectID: p.ID, Keyword: "コマンド"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if res.TotalCount != 1 {
		t.Errorf("Search() total = %d, want 1", res.TotalCount)
	}
}

func TestNewAppRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"search mode", func(c *config.Config) { c.Search.Mode = "fuzzy" }},
		{"embedding provider", func(c *config.Config) { c.Embedding.Provider = "carrier-pigeon" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := config.DefaultConfig()
			tt.mutate(c)
			a, err := newApp(context.Background(), filepath.Join(t.TempDir(), "memoria.db"), c)
			if err == nil {
				a.Close()
				t.Fatal("newApp() error = nil")
			}
		})
	}
}

type blockingWarmer struct {
	started  chan struct{}
	finished atomic.Bool
}

func (w *blockingWarmer) Warm(ctx context.Context) embedding.State {
	close(w.started)
	<-ctx.Done()
	w.finished.Store(true)
	return embedding.StateFailed
}

func TestWarmInBackgroundStopWaits(t *testing.T) {
	w := &blockingWarmer{started: make(chan struct{})}
	stop := warmInBackground(context.Background(), w)
	<-w.started
	if w.finished.Load() {
		t.Fatal("warm-up finished before stop")
	}
	stop()
	if !w.finished.Load() {
		t.Error("stop() returned before the warm-up exited")
	}
}
