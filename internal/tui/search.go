package tui

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/stormlightlabs/memoria/internal/search"
)

// minQueryRunes matches the shortest keyword the trigram index can serve.
const minQueryRunes = 3

type searchTickMsg struct{ query string }

type searchResultsMsg struct {
	results []search.Hit
	query   string
}

type searchErrMsg struct{ err error }

// SearchModel is the keyword input. Typing searches after a short pause once
// the keyword is long enough; enter searches immediately.
type SearchModel struct {
	input       textinput.Model
	backend     Backend
	opts        Options
	debounce    time.Duration
	lastQuery   string
	resultCount int
	searching   bool
	err         error
}

func NewSearchModel(b Backend, opts Options) SearchModel {
	input := textinput.New()
	input.Placeholder = "Search topics, decisions and tasks..."
	input.Focus()
	return SearchModel{input: input, backend: b, opts: opts, debounce: 150 * time.Millisecond}
}

func (m SearchModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m SearchModel) Update(msg tea.Msg) (SearchModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if m.input.Value() != "" {
				m.searching = true
				return m, m.performSearch(m.input.Value())
			}
		case "esc":
			m.input.Reset()
			m.lastQuery = ""
			m.resultCount = 0
			m.err = nil
			return m, nil
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)

		query := m.input.Value()
		if query != m.lastQuery && searchable(query) {
			m.lastQuery = query
			return m, tea.Sequence(cmd, m.startDebounce(query))
		}
		return m, cmd

	case searchTickMsg:
		if msg.query == m.input.Value() {
			m.searching = true
			return m, m.performSearch(msg.query)
		}
		return m, nil
	}

	return m, nil
}

func (m SearchModel) View() string {
	var status string
	switch {
	case m.err != nil:
		status = errorStyle.Render(" " + m.err.Error())
	case m.searching:
		status = dimStyle.Render(" Searching...")
	case m.resultCount > 0:
		status = accentStyle.Render(" " + strconv.Itoa(m.resultCount) + " results")
	}

	mode := typeStyle.Render(" " + string(m.opts.Mode))
	return lipgloss.JoinHorizontal(lipgloss.Top, searchInputStyle.Render(m.input.View()), mode, status)
}

func (m SearchModel) Value() string {
	return m.input.Value()
}

func (m SearchModel) Focused() bool {
	return m.input.Focused()
}

func (m SearchModel) Focus() SearchModel {
	m.input.Focus()
	return m
}

func (m SearchModel) Blur() SearchModel {
	m.input.Blur()
	return m
}

func (m SearchModel) startDebounce(query string) tea.Cmd {
	return tea.Tick(m.debounce, func(_ time.Time) tea.Msg {
		return searchTickMsg{query: query}
	})
}

func (m SearchModel) performSearch(query string) tea.Cmd {
	b, opts := m.backend, m.opts
	return func() tea.Msg {
		res, err := b.Run(context.Background(), opts.Mode, search.Query{
			ProjectID: opts.ProjectID,
			Keyword:   query,
			Limit:     opts.Limit,
		})
		if err != nil {
			return searchErrMsg{err: err}
		}
		return searchResultsMsg{results: res.Results, query: query}
	}
}

// SetResults records the outcome of the last search.
func (m *SearchModel) SetResults(count int, err error) {
	m.searching = false
	m.resultCount = count
	m.err = err
}

func searchable(query string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(query)) >= minQueryRunes
}
