package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/lipgloss"

	"github.com/stormlightlabs/memoria/internal/db"
	"github.com/stormlightlabs/memoria/internal/memory"
	"github.com/stormlightlabs/memoria/internal/shared"
)

type loadRecordMsg struct {
	typ db.SourceType
	id  int64
}

type recordLoadedMsg struct {
	content string
	title   string
	links   []Link
	err     error
}

// recordLinkMsg is sent when the user follows a numbered related record.
type recordLinkMsg struct {
	link Link
}

type backToListMsg struct{}

// Link points from the open record to a related one: the topic a decision
// settles, a topic's parent or a blocked task's discussion topic.
type Link struct {
	index int
	typ   db.SourceType
	id    int64
	text  string
}

func NewLink(i int, typ db.SourceType, id int64, text string) Link {
	return Link{index: i, typ: typ, id: id, text: text}
}

// RecordModel shows one topic, decision or task rendered as markdown.
type RecordModel struct {
	backend  Backend
	viewport viewport.Model
	spinner  spinner.Model
	content  string
	title    string
	links    []Link
	typ      db.SourceType
	id       int64
	loading  bool
	err      error
}

func NewRecordModel(b Backend) RecordModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e"))
	return RecordModel{backend: b, viewport: viewport.New(0, 0), spinner: sp}
}

func (m RecordModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Load returns a command that opens the given record.
func (m RecordModel) Load(typ db.SourceType, id int64) tea.Cmd {
	return func() tea.Msg {
		return loadRecordMsg{typ: typ, id: id}
	}
}

func (m RecordModel) fetch(typ db.SourceType, id int64) tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		rec, err := b.GetByID(context.Background(), string(typ), id)
		if err != nil {
			return recordLoadedMsg{err: err}
		}
		content, err := renderMarkdown(memory.Markdown(rec.Data))
		if err != nil {
			return recordLoadedMsg{err: err}
		}
		return recordLoadedMsg{content: content, title: recordTitle(rec.Data), links: relatedLinks(rec.Data)}
	}
}

func recordTitle(v any) string {
	switch r := v.(type) {
	case memory.Topic:
		return r.Title
	case memory.Decision:
		return shared.FirstLine(r.Decision)
	case memory.Task:
		return r.Title
	}
	return ""
}

func relatedLinks(v any) []Link {
	var links []Link
	add := func(id int64, text string) {
		links = append(links, NewLink(len(links)+1, db.Topic, id, text))
	}
	switch r := v.(type) {
	case memory.Topic:
		if r.ParentTopicID != nil {
			add(*r.ParentTopicID, "parent topic")
		}
	case memory.Decision:
		add(r.TopicID, "topic")
	case memory.Task:
		if r.TopicID != nil {
			add(*r.TopicID, "blocker topic")
		}
	}
	return links
}

func renderMarkdown(markdown string) (string, error) {
	theme := ansi.StyleConfig{
		Document: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{Color: shared.StringPtr("#fafafa")},
		},
		H1: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Color:       shared.StringPtr("#22c55e"),
				Bold:        shared.BoolPtr(true),
				BlockSuffix: "\n",
			},
		},
		H2: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Color:       shared.StringPtr("#22c55e"),
				Bold:        shared.BoolPtr(true),
				BlockPrefix: "\n",
				BlockSuffix: "\n",
			},
		},
		Text:   ansi.StylePrimitive{Color: shared.StringPtr("#fafafa")},
		Strong: ansi.StylePrimitive{Color: shared.StringPtr("#a1a1a1"), Bold: shared.BoolPtr(true)},
		List:   ansi.StyleList{LevelIndent: 2},
		Item:   ansi.StylePrimitive{BlockPrefix: "• "},
		Paragraph: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{BlockPrefix: "\n", BlockSuffix: "\n"},
		},
		CodeBlock: ansi.StyleCodeBlock{
			StyleBlock: ansi.StyleBlock{
				StylePrimitive: ansi.StylePrimitive{
					Color:           shared.StringPtr("#e5e5e5"),
					BackgroundColor: shared.StringPtr("#1f1f1f"),
				},
			},
		},
		Link:     ansi.StylePrimitive{Color: shared.StringPtr("#22c55e"), Underline: shared.BoolPtr(true)},
		LinkText: ansi.StylePrimitive{Color: shared.StringPtr("#22c55e"), Bold: shared.BoolPtr(true)},
	}

	r, err := glamour.NewTermRenderer(glamour.WithStyles(theme), glamour.WithWordWrap(80))
	if err != nil {
		return "", err
	}
	return r.Render(markdown)
}

func (m RecordModel) Update(msg tea.Msg) (RecordModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loadRecordMsg:
		m.typ, m.id = msg.typ, msg.id
		m.loading = true
		m.err = nil
		return m, tea.Batch(m.fetch(msg.typ, msg.id), m.spinner.Tick)

	case recordLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.content = msg.content
		m.title = msg.title
		m.links = msg.links
		m.viewport.SetContent(m.content)
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			m.viewport.ScrollDown(1)
			return m, nil
		case "k", "up":
			m.viewport.ScrollUp(1)
			return m, nil
		case "d":
			m.viewport.HalfPageDown()
			return m, nil
		case "u":
			m.viewport.HalfPageUp()
			return m, nil
		case "g":
			m.viewport.GotoTop()
			return m, nil
		case "G":
			m.viewport.GotoBottom()
			return m, nil
		case "1", "2", "3", "4", "5", "6", "7", "8", "9":
			idx := int(msg.String()[0] - '0')
			if idx <= len(m.links) {
				link := m.links[idx-1]
				return m, func() tea.Msg { return recordLinkMsg{link: link} }
			}
			return m, nil
		case "esc":
			return m, func() tea.Msg { return backToListMsg{} }
		case "/":
			return m, func() tea.Msg { return focusSearchMsg{} }
		}

	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 3
		return m, nil

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m RecordModel) View() string {
	if m.err != nil {
		return errorStyle.Render("Error loading record: " + m.err.Error())
	}
	if m.loading {
		return lipgloss.JoinVertical(lipgloss.Left, m.spinner.View(), dimStyle.Render(" Loading record..."))
	}
	if m.content == "" {
		return emptyStateStyle.Render("No record loaded.")
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), m.viewport.View(), m.renderFooter())
}

func (m RecordModel) renderHeader() string {
	if m.title == "" {
		return ""
	}
	ref := docBackStyle.Render(fmt.Sprintf(" %s #%d  Esc: back", m.typ, m.id))
	return lipgloss.JoinHorizontal(lipgloss.Top, docTitleStyle.Render(m.title), ref)
}

func (m RecordModel) renderFooter() string {
	if len(m.links) == 0 {
		return ""
	}
	parts := make([]string, 0, len(m.links))
	for _, l := range m.links {
		parts = append(parts, fmt.Sprintf("[%d]%s #%d", l.index, l.text, l.id))
	}
	return docLinksStyle.Render("Related: " + strings.Join(parts, " "))
}

// Ref reports which record is open.
func (m RecordModel) Ref() (db.SourceType, int64) {
	return m.typ, m.id
}
