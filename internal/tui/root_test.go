package tui

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"

	"github.com/stormlightlabs/memoria/internal/db"
	"github.com/stormlightlabs/memoria/internal/search"
)

func newRoot() RootModel {
	return NewRootModel(newFakeBackend(), Options{ProjectID: 1, Mode: search.ModeLexical})
}

func update(t *testing.T, m RootModel, msg tea.Msg) (RootModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	root, ok := next.(RootModel)
	if !ok {
		t.Fatalf("Update() returned %T, want RootModel", next)
	}
	return root, cmd
}

func TestRootModelViews(t *testing.T) {
	tests := []struct {
		name string
		mode appMode
		want string
	}{
		{"search", modeSearch, "project #1"},
		{"list", modeList, "No results found"},
		{"record", modeRecord, "No record loaded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newRoot()
			m.mode = tt.mode
			if view := m.View(); !strings.Contains(view, tt.want) {
				t.Errorf("View() = %q, want %q", view, tt.want)
			}
		})
	}
}

func TestRootModelResultsMoveToList(t *testing.T) {
	m := newRoot()
	m, _ = update(t, m, searchResultsMsg{results: newFakeBackend().hits, query: "trigram"})
	if m.mode != modeList {
		t.Fatalf("mode = %v, want list", m.mode)
	}
	if m.search.Focused() {
		t.Error("search input still focused in list mode")
	}

	m, _ = update(t, m, searchErrMsg{err: errTest})
	if m.search.err != errTest {
		t.Errorf("search error = %v, want errTest", m.search.err)
	}
}

func TestRootModelOpensRecordsInTabs(t *testing.T) {
	m := newRoot()
	hit := newFakeBackend().hits[0]

	m, cmd := update(t, m, listSelectMsg{hit: hit})
	if m.mode != modeRecord || m.tabs.TabCount() != 1 {
		t.Fatalf("mode %v with %d tabs, want record with 1", m.mode, m.tabs.TabCount())
	}
	if cmd == nil {
		t.Fatal("selecting a hit returned no command")
	}
	load, ok := cmd().(loadRecordMsg)
	if !ok || load.typ != db.Decision || load.id != 3 {
		t.Fatalf("select produced %+v, want loadRecordMsg for decision #3", cmd())
	}

	m, _ = update(t, m, load)
	m, _ = update(t, m, m.record.fetch(load.typ, load.id)())
	if !strings.Contains(m.View(), "trigram を採用") {
		t.Errorf("View() = %q, want the decision", m.View())
	}

	m, _ = update(t, m, recordLinkMsg{link: NewLink(1, db.Topic, 2, "topic")})
	if m.tabs.TabCount() != 2 {
		t.Errorf("following a link gave %d tabs, want 2", m.tabs.TabCount())
	}
	if tab, _ := m.tabs.ActiveTab(); tab.Type != db.Topic || tab.ID != 2 {
		t.Errorf("active tab = %+v, want topic #2", tab)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlW})
	if m.tabs.TabCount() != 1 || m.mode != modeRecord {
		t.Errorf("ctrl+w left %d tabs in mode %v", m.tabs.TabCount(), m.mode)
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlW})
	if m.tabs.HasTabs() || m.mode != modeList {
		t.Errorf("closing the last tab left mode %v", m.mode)
	}
}

func TestRootModelNavigationMessages(t *testing.T) {
	m := newRoot()
	m.mode = modeRecord
	m.search = m.search.Blur()

	m, _ = update(t, m, backToListMsg{})
	if m.mode != modeList {
		t.Errorf("backToListMsg mode = %v, want list", m.mode)
	}
	m, _ = update(t, m, focusSearchMsg{})
	if m.mode != modeSearch || !m.search.Focused() {
		t.Errorf("focusSearchMsg mode = %v focused = %v", m.mode, m.search.Focused())
	}
}

func TestRootModelHelpAndQuitKeys(t *testing.T) {
	m := newRoot()

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if m.quitting {
		t.Fatal("q quit while typing in the search box")
	}

	m.mode = modeList
	m.search = m.search.Blur()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	if !m.showHelp || !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Error("? did not open the help overlay")
	}

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if !m.quitting || cmd == nil {
		t.Error("q did not quit from the list")
	}
	if m.View() != "Goodbye!\n" {
		t.Errorf("View() = %q, want goodbye", m.View())
	}
}

func TestRootModelQuitFlow(t *testing.T) {
	tm := teatest.NewTestModel(t, newRoot(), teatest.WithInitialTermSize(80, 40))
	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	tm.WaitFinished(t, teatest.WithFinalTimeout(time.Second))

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, tm.FinalOutput(t)); err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("Goodbye")) {
		t.Error("final output does not contain Goodbye")
	}

	m, ok := tm.FinalModel(t).(RootModel)
	if !ok || !m.quitting {
		t.Error("final model is not quitting")
	}
}

func TestRootModelSearchFlow(t *testing.T) {
	tm := teatest.NewTestModel(t, newRoot(), teatest.WithInitialTermSize(100, 40))
	tm.Type("trigram")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("検索方式の選定"))
	}, teatest.WithDuration(2*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	tm.WaitFinished(t, teatest.WithFinalTimeout(time.Second))
}
