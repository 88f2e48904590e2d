package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/stormlightlabs/memoria/internal/search"
)

type listSelectMsg struct {
	hit search.Hit
}

type focusSearchMsg struct{}

// ResultItem adapts a search hit to list.Item.
type ResultItem struct {
	hit search.Hit
}

func NewResultItem(h search.Hit) ResultItem {
	return ResultItem{hit: h}
}

func (i ResultItem) Hit() search.Hit {
	return i.hit
}

func (i ResultItem) FilterValue() string {
	return i.hit.Title
}

// ResultDelegate renders a hit as its title over a "type #id score" line.
type ResultDelegate struct{}

func NewResultDelegate() ResultDelegate {
	return ResultDelegate{}
}

func (d ResultDelegate) Height() int { return 2 }

func (d ResultDelegate) Spacing() int { return 1 }

func (d ResultDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d ResultDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(ResultItem)
	if !ok {
		return
	}

	meta := fmt.Sprintf("%s #%d  %.3f", i.hit.Type, i.hit.ID, i.hit.Score)
	if index == m.Index() {
		fmt.Fprintf(w, "%s\n%s", selectedNameStyle.Render(i.hit.Title), selectedTypeStyle.Render(meta))
		return
	}
	fmt.Fprintf(w, "%s\n%s", nameStyle.Render(i.hit.Title), typeStyle.Render(meta))
}

// ListModel wraps bubbles/list for navigating search hits.
type ListModel struct {
	list     list.Model
	results  []search.Hit
	selected *search.Hit
}

func NewListModel() ListModel {
	l := list.New(nil, NewResultDelegate(), 0, 0)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.SetShowPagination(true)
	l.SetShowFilter(false)
	l.DisableQuitKeybindings()

	l.KeyMap.NextPage.SetKeys("ctrl+d", "pgdown")
	l.KeyMap.PrevPage.SetKeys("ctrl+u", "pgup")
	l.KeyMap.GoToStart.SetKeys("g", "home")
	l.KeyMap.GoToEnd.SetKeys("G", "end")

	return ListModel{list: l}
}

func (m ListModel) Init() tea.Cmd {
	return nil
}

func (m ListModel) Update(msg tea.Msg) (ListModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if item, ok := m.list.SelectedItem().(ResultItem); ok {
				m.selected = &item.hit
				return m, func() tea.Msg { return listSelectMsg{hit: item.hit} }
			}
		case "/":
			return m, func() tea.Msg { return focusSearchMsg{} }
		case "j", "down":
			m.list.CursorDown()
			return m, nil
		case "k", "up":
			m.list.CursorUp()
			return m, nil
		case "G":
			if n := len(m.list.Items()); n > 0 {
				m.list.Select(n - 1)
			}
			return m, nil
		case "g":
			if len(m.list.Items()) > 0 {
				m.list.Select(0)
			}
			return m, nil
		}

	case searchResultsMsg:
		m.SetResults(msg.results)
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m ListModel) View() string {
	if len(m.list.Items()) == 0 {
		return emptyStateStyle.Render("No results found. Try a different keyword.")
	}
	return m.list.View()
}

func (m *ListModel) SetResults(results []search.Hit) {
	m.results = results
	items := make([]list.Item, len(results))
	for i, r := range results {
		items[i] = NewResultItem(r)
	}
	m.list.SetItems(items)
	if len(items) > 0 {
		m.list.Select(0)
	}
}

// Selected returns the hit last opened with enter.
func (m ListModel) Selected() *search.Hit {
	return m.selected
}

func (m *ListModel) ClearSelection() {
	m.selected = nil
}

func (m *ListModel) SetSize(w, h int) {
	m.list.SetWidth(w)
	m.list.SetHeight(h)
}
