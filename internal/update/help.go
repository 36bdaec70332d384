package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/sandeepkv93/remindd/internal/views"
)

type KeyBinding struct {
	Key    string
	Action string
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	return m.renderHelpView()
}

func (m Model) renderHelpView() string {
	bindings := m.helpBindings()
	var plain []string
	for _, kb := range m.bindings() {
		plain = append(plain, fmt.Sprintf("- %s: %s", kb.Key, kb.Action))
	}
	return views.RenderHelpPanel(views.HelpPanelData{
		Bindings: plain,
		HelpView: m.helpModel.View(helpKeyMap{
			short: bindings,
			full:  [][]key.Binding{bindings},
		}),
	})
}

func (m Model) bindings() []KeyBinding {
	return []KeyBinding{
		{Key: "tab", Action: "cycle task / when / list"},
		{Key: "enter", Action: "set reminder"},
		{Key: "j/k", Action: "move selection"},
		{Key: m.Keys.Delete, Action: "delete selected (asks first)"},
		{Key: m.Keys.Confirm + "/" + m.Keys.Cancel, Action: "confirm / cancel delete"},
		{Key: m.Keys.Undo, Action: "undo last delete"},
		{Key: m.Keys.Notify, Action: "toggle notifications"},
		{Key: m.Keys.ShowAll, Action: "toggle upcoming / all"},
		{Key: m.Keys.Palette, Action: "open command palette"},
		{Key: m.Keys.Help, Action: "toggle help panel"},
		{Key: m.Keys.Quit, Action: "quit app"},
	}
}

func (m Model) helpBindings() []key.Binding {
	out := make([]key.Binding, 0, len(m.bindings()))
	for _, kb := range m.bindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	return out
}
