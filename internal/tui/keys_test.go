package tui

import (
	"slices"
	"testing"
)

func TestKeyBindings(t *testing.T) {
	kb := newKeyBindings()
	tests := []struct {
		name    string
		keys    []string
		wantKey string
		helpKey string
	}{
		{"quit", kb.Quit.Keys(), "ctrl+c", "q"},
		{"search", kb.Search.Keys(), "/", "/"},
		{"open", kb.Open.Keys(), "enter", "enter"},
		{"back", kb.Back.Keys(), "esc", "esc"},
		{"link", kb.Link.Keys(), "9", "1-9"},
		{"tabs", kb.Tabs.Keys(), "ctrl+w", "ctrl+tab/w"},
		{"help", kb.Help.Keys(), "?", "?"},
	}
	bindings := map[string]string{
		"quit": kb.Quit.Help().Key, "search": kb.Search.Help().Key, "open": kb.Open.Help().Key,
		"back": kb.Back.Help().Key, "link": kb.Link.Help().Key, "tabs": kb.Tabs.Help().Key,
		"help": kb.Help.Help().Key,
	}
	for _, tt := range tests {
		if !slices.Contains(tt.keys, tt.wantKey) {
			t.Errorf("%s keys = %v, missing %q", tt.name, tt.keys, tt.wantKey)
		}
		if got := bindings[tt.name]; got != tt.helpKey {
			t.Errorf("%s help key = %q, want %q", tt.name, got, tt.helpKey)
		}
	}
}

func TestKeyBindingsHelp(t *testing.T) {
	kb := newKeyBindings()
	if got := len(kb.ShortHelp()); got != 5 {
		t.Errorf("ShortHelp() has %d bindings, want 5", got)
	}
	total := 0
	for _, col := range kb.FullHelp() {
		total += len(col)
	}
	if total != 9 {
		t.Errorf("FullHelp() has %d bindings, want 9", total)
	}
}
