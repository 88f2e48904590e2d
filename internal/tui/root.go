package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type appMode int

const (
	modeSearch appMode = iota
	modeList
	modeRecord
)

// RootModel switches between the search input, the hit list and the open
// record tabs.
type RootModel struct {
	backend  Backend
	opts     Options
	mode     appMode
	quitting bool
	showHelp bool
	search   SearchModel
	list     ListModel
	record   RecordModel
	tabs     TabBar
	help     help.Model
	keys     keyBindings
}

func NewRootModel(b Backend, opts Options) RootModel {
	h := help.New()
	h.ShowAll = true
	return RootModel{
		backend: b,
		opts:    opts,
		mode:    modeSearch,
		search:  NewSearchModel(b, opts),
		list:    NewListModel(),
		record:  NewRecordModel(b),
		tabs:    NewTabBar(),
		help:    h,
		keys:    newKeyBindings(),
	}
}

func (m RootModel) Init() tea.Cmd {
	return m.search.Init()
}

// openActive reloads the record behind the active tab.
func (m RootModel) openActive() (RootModel, tea.Cmd) {
	tab, ok := m.tabs.ActiveTab()
	if !ok {
		m.mode = modeList
		return m, nil
	}
	m.mode = modeRecord
	m.record = NewRecordModel(m.backend)
	return m, m.record.Load(tab.Type, tab.ID)
}

func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "q":
			if m.mode != modeSearch || !m.search.Focused() {
				m.quitting = true
				return m, tea.Quit
			}
		case "?":
			if m.mode != modeSearch || !m.search.Focused() {
				m.showHelp = !m.showHelp
				return m, nil
			}
		case "ctrl+tab":
			if m.tabs.HasTabs() {
				m.tabs.NextTab()
				return m.openActive()
			}
			return m, nil
		case "ctrl+w":
			if m.tabs.HasTabs() {
				m.tabs.CloseTab()
				return m.openActive()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-4)
		m.record, _ = m.record.Update(msg)
		m.tabs.SetWidth(msg.Width)
		return m, nil

	case searchTickMsg:
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd

	case searchResultsMsg:
		m.search.SetResults(len(msg.results), nil)
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		if len(msg.results) > 0 && m.mode == modeSearch {
			m.mode = modeList
			m.search = m.search.Blur()
		}
		return m, cmd

	case searchErrMsg:
		m.search.SetResults(0, msg.err)
		return m, nil

	case listSelectMsg:
		if !m.tabs.AddTab(msg.hit.Title, msg.hit.Type, msg.hit.ID) {
			return m, nil
		}
		return m.openActive()

	case recordLinkMsg:
		if !m.tabs.AddTab(msg.link.text, msg.link.typ, msg.link.id) {
			return m, nil
		}
		return m.openActive()

	case loadRecordMsg:
		var cmd tea.Cmd
		m.record, cmd = m.record.Update(msg)
		return m, cmd

	case recordLoadedMsg:
		m.tabs.SetTitle(msg.title)
		var cmd tea.Cmd
		m.record, cmd = m.record.Update(msg)
		return m, cmd

	case backToListMsg:
		m.mode = modeList
		return m, nil

	case focusSearchMsg:
		m.mode = modeSearch
		m.search = m.search.Focus()
		return m, nil
	}

	var cmd tea.Cmd
	switch m.mode {
	case modeSearch:
		m.search, cmd = m.search.Update(msg)
	case modeList:
		m.list, cmd = m.list.Update(msg)
	case modeRecord:
		m.record, cmd = m.record.Update(msg)
	}
	return m, cmd
}

func (m RootModel) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}
	if m.showHelp {
		return m.renderHelpView()
	}

	header := headerStyle.Render(fmt.Sprintf("memoria · project #%d", m.opts.ProjectID))
	helpText := m.help.ShortHelpView(m.keys.ShortHelp())

	switch m.mode {
	case modeSearch:
		return lipgloss.JoinVertical(lipgloss.Left, header, m.search.View(), "", helpText)
	case modeList:
		return lipgloss.JoinVertical(lipgloss.Left, header, m.search.View(), "", m.list.View(), "", helpText)
	case modeRecord:
		var parts []string
		if m.tabs.HasTabs() {
			parts = append(parts, m.tabs.Render())
		}
		parts = append(parts, m.record.View(), "", helpText)
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}
	return ""
}

func (m RootModel) renderHelpView() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render("Keyboard Shortcuts"),
		"",
		m.help.View(m.keys),
		"",
		dimStyle.Render("Press ? to close help"),
	)
}
