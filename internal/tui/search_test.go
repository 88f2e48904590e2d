package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stormlightlabs/memoria/internal/search"
)

func typeText(m SearchModel, text string) (SearchModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, r := range text {
		m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m, cmd
}

func TestSearchable(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"", false},
		{"ab", false},
		{"  ab  ", false},
		{"abc", true},
		{"検索方", true},
		{"検索", false},
	}
	for _, tt := range tests {
		if got := searchable(tt.query); got != tt.want {
			t.Errorf("searchable(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestSearchModelDebouncesOnlyLongKeywords(t *testing.T) {
	m := NewSearchModel(newFakeBackend(), Options{ProjectID: 1, Mode: search.ModeLexical})

	m, _ = typeText(m, "ab")
	if m.lastQuery != "" {
		t.Errorf("lastQuery after %q = %q, want empty", "ab", m.lastQuery)
	}

	m, _ = typeText(m, "c")
	if m.lastQuery != "abc" {
		t.Errorf("lastQuery = %q, want %q", m.lastQuery, "abc")
	}
}

func TestSearchModelEnterRunsQuery(t *testing.T) {
	b := newFakeBackend()
	m := NewSearchModel(b, Options{ProjectID: 7, Mode: search.ModeHybrid, Limit: 5})
	m, _ = typeText(m, "trigram")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter returned no command")
	}
	if !m.searching {
		t.Error("searching = false after enter")
	}

	msg, ok := cmd().(searchResultsMsg)
	if !ok {
		t.Fatalf("command produced %T, want searchResultsMsg", cmd())
	}
	if len(msg.results) != 3 || msg.query != "trigram" {
		t.Errorf("results = %d for %q", len(msg.results), msg.query)
	}

	want := search.Query{ProjectID: 7, Keyword: "trigram", Limit: 5}
	if len(b.queries) == 0 || b.queries[0] != want {
		t.Errorf("backend query = %+v, want %+v", b.queries, want)
	}
	if b.modes[0] != search.ModeHybrid {
		t.Errorf("backend mode = %q, want hybrid", b.modes[0])
	}
}

func TestSearchModelReportsErrors(t *testing.T) {
	b := newFakeBackend()
	b.err = errTest
	m := NewSearchModel(b, Options{ProjectID: 1})

	msg, ok := m.performSearch("abc")().(searchErrMsg)
	if !ok || msg.err != errTest {
		t.Fatalf("performSearch() = %+v, want searchErrMsg", msg)
	}

	m.SetResults(0, msg.err)
	if !strings.Contains(m.View(), "test error") {
		t.Errorf("View() = %q, want the error", m.View())
	}
}

func TestSearchModelEscapeResets(t *testing.T) {
	m := NewSearchModel(newFakeBackend(), Options{})
	m, _ = typeText(m, "abcd")
	m.SetResults(3, nil)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.Value() != "" || m.resultCount != 0 || m.lastQuery != "" {
		t.Errorf("after esc: value %q, count %d, lastQuery %q", m.Value(), m.resultCount, m.lastQuery)
	}
}

func TestSearchModelStaleTickIgnored(t *testing.T) {
	m := NewSearchModel(newFakeBackend(), Options{})
	m, _ = typeText(m, "abcd")

	if _, cmd := m.Update(searchTickMsg{query: "abc"}); cmd != nil {
		t.Error("stale tick started a search")
	}
	if _, cmd := m.Update(searchTickMsg{query: "abcd"}); cmd == nil {
		t.Error("current tick did not start a search")
	}
}

func TestSearchModelFocusBlur(t *testing.T) {
	m := NewSearchModel(newFakeBackend(), Options{})
	if !m.Focused() {
		t.Fatal("new search model is not focused")
	}
	m = m.Blur()
	if m.Focused() {
		t.Error("Blur() left the input focused")
	}
	m = m.Focus()
	if !m.Focused() {
		t.Error("Focus() did not focus the input")
	}
}
