package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/stormlightlabs/memoria/internal/db"
)

const maxTabTitle = 20

// Tab is one open record.
type Tab struct {
	Title string
	Type  db.SourceType
	ID    int64
}

// TabBar keeps the stack of open records.
type TabBar struct {
	tabs      []Tab
	activeIdx int
	maxTabs   int
	width     int
}

func NewTabBar() TabBar {
	return TabBar{maxTabs: 10, width: 80}
}

// AddTab opens a record in a new tab, or activates the tab already showing
// it. It returns false when the tab limit is reached.
func (tb *TabBar) AddTab(title string, typ db.SourceType, id int64) bool {
	for i, tab := range tb.tabs {
		if tab.Type == typ && tab.ID == id {
			tb.activeIdx = i
			return true
		}
	}
	if len(tb.tabs) >= tb.maxTabs {
		return false
	}
	tb.tabs = append(tb.tabs, Tab{Title: title, Type: typ, ID: id})
	tb.activeIdx = len(tb.tabs) - 1
	return true
}

// CloseTab closes the active tab and reports whether any remain.
func (tb *TabBar) CloseTab() bool {
	if len(tb.tabs) == 0 {
		return false
	}
	tb.tabs = append(tb.tabs[:tb.activeIdx], tb.tabs[tb.activeIdx+1:]...)
	if tb.activeIdx >= len(tb.tabs) {
		tb.activeIdx = len(tb.tabs) - 1
	}
	if tb.activeIdx < 0 {
		tb.activeIdx = 0
	}
	return len(tb.tabs) > 0
}

func (tb *TabBar) NextTab() {
	if len(tb.tabs) == 0 {
		return
	}
	tb.activeIdx = (tb.activeIdx + 1) % len(tb.tabs)
}

func (tb *TabBar) PrevTab() {
	if len(tb.tabs) == 0 {
		return
	}
	tb.activeIdx = (tb.activeIdx - 1 + len(tb.tabs)) % len(tb.tabs)
}

func (tb TabBar) ActiveTab() (Tab, bool) {
	if tb.activeIdx < 0 || tb.activeIdx >= len(tb.tabs) {
		return Tab{}, false
	}
	return tb.tabs[tb.activeIdx], true
}

// SetTitle renames the active tab once its record has loaded.
func (tb *TabBar) SetTitle(title string) {
	if tb.activeIdx >= 0 && tb.activeIdx < len(tb.tabs) && title != "" {
		tb.tabs[tb.activeIdx].Title = title
	}
}

func (tb TabBar) HasTabs() bool {
	return len(tb.tabs) > 0
}

func (tb TabBar) TabCount() int {
	return len(tb.tabs)
}

func (tb TabBar) TabLimitReached() bool {
	return len(tb.tabs) >= tb.maxTabs
}

func (tb *TabBar) SetWidth(w int) {
	tb.width = w
}

func (tb TabBar) Render() string {
	if len(tb.tabs) == 0 {
		return ""
	}

	var parts []string
	used := 0
	for i, tab := range tb.tabs {
		title := truncateTitle(tab.Title, maxTabTitle)
		var part string
		if i == tb.activeIdx {
			part = activeTabStyle.Render(" " + title + "* ")
		} else {
			part = inactiveTabStyle.Render(" " + title + " ")
		}
		parts = append(parts, part)
		used += lipgloss.Width(part)
		if used > tb.width-4 && i < len(tb.tabs)-1 {
			parts = append(parts, dimStyle.Render(" ..."))
			break
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// truncateTitle shortens title to maxLen runes, ending in "...".
func truncateTitle(title string, maxLen int) string {
	r := []rune(title)
	if len(r) <= maxLen {
		return title
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
