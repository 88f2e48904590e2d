package web

import (
	"strings"
	"testing"

	"github.com/stormlightlabs/memoria/internal/memory"
	"github.com/stormlightlabs/memoria/internal/shared"
)

func TestMarkdownRendererRender(t *testing.T) {
	r := NewMarkdownRenderer()
	tests := []struct {
		name    string
		input   string
		want    []string
		notWant []string
	}{
		{"paragraph", "Hello world", []string{"<p>Hello world</p>"}, nil},
		{"heading anchor", "## Reason", []string{`<h2 id="reason">`, `href="#reason"`, "Reason</h2>"}, nil},
		{"bold field", "- **Status:** blocked", []string{"<strong>Status:</strong>", "blocked"}, nil},
		{"code block", "```go\nfunc main() {}\n```", []string{`<div class="code-block">`}, nil},
		{"inline code", "`bm25`", []string{`<code class="code-inline">bm25</code>`}, nil},
		{"blockquote", "> quote", []string{`<blockquote class="callout">`, "quote"}, nil},
		{"table", "| A | B |\n|---|---|\n| 1 | 2 |", []string{"<table>", "</table>"}, nil},
		{"strikethrough", "~~old~~", []string{"<del>old</del>"}, nil},
		{"raw html dropped", "<script>alert(1)</script>", nil, []string{"<script>"}},
		{"empty", "", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Render([]byte(tt.input))
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("Render(%q) = %q, missing %q", tt.input, got, want)
				}
			}
			for _, bad := range tt.notWant {
				if strings.Contains(got, bad) {
					t.Errorf("Render(%q) = %q, contains %q", tt.input, got, bad)
				}
			}
		})
	}
}

func TestRenderWithTOC(t *testing.T) {
	r := NewMarkdownRenderer()
	d := memory.Decision{ID: 3, TopicID: 2, Decision: "Adopt trigram search", Reason: shared.StringPtr("Substring matches work for Japanese.")}

	html, toc, err := r.RenderWithTOC([]byte(memory.Markdown(d)))
	if err != nil {
		t.Fatalf("RenderWithTOC() error = %v", err)
	}
	if !strings.Contains(html, "Adopt trigram search</h1>") {
		t.Errorf("html = %q, want the decision heading", html)
	}
	if len(toc) != 1 || toc[0].Text != "Reason" || toc[0].Level != 2 || toc[0].ID != "reason" {
		t.Errorf("toc = %+v, want only the Reason section", toc)
	}
}

func TestHighlightCodeFallsBack(t *testing.T) {
	got, err := highlightCode("SELECT 1;", "")
	if err != nil {
		t.Fatalf("highlightCode() error = %v", err)
	}
	if !strings.Contains(got, "code-block") || !strings.Contains(got, "SELECT") {
		t.Errorf("highlightCode() = %q", got)
	}
}

func TestHighlightTerm(t *testing.T) {
	tests := []struct {
		text, term string
		want       string
	}{
		{"FTS5 Trigram search", "trigram", "FTS5 <mark>Trigram</mark> search"},
		{"trigram を採用", "を採用", "trigram <mark>を採用</mark>"},
		{"<b> tags & trigram", "trigram", "&lt;b&gt; tags &amp; <mark>trigram</mark>"},
		{"no match", "xyz", "no match"},
		{"abcabc", "abc", "<mark>abc</mark><mark>abc</mark>"},
		{"plain", "", "plain"},
	}
	for _, tt := range tests {
		if got := string(highlightTerm(tt.text, tt.term)); got != tt.want {
			t.Errorf("highlightTerm(%q, %q) = %q, want %q", tt.text, tt.term, got, tt.want)
		}
	}
}
