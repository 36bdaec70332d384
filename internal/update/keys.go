package update

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	keyStr := msg.String()
	if keyStr == "ctrl+c" {
		m.Quitting = true
		return m, tea.Quit
	}
	if m.Palette.Active {
		return m.handlePaletteKey(msg)
	}
	if keyStr == "tab" || keyStr == "shift+tab" {
		m.cycleFocus(keyStr == "shift+tab")
		return m, nil
	}
	if m.Focus != FocusList {
		return m.handleFormKey(msg)
	}
	if m.ctl != nil && m.ctl.PendingDelete() != "" {
		return m.handleConfirmKey(keyStr), nil
	}

	switch keyStr {
	case m.Keys.Palette:
		m.Palette.Active = true
		m.Palette.Input = ""
		m.commandInput.SetValue("")
		m.commandInput.Focus()
		m.Status = StatusBar{Text: "command palette active"}
		return m, nil
	case m.Keys.Help:
		m.HelpVisible = !m.HelpVisible
		return m, nil
	case m.Keys.Quit:
		m.Quitting = true
		return m, tea.Quit
	case "j", "down":
		if m.Cursor < len(m.Items)-1 {
			m.Cursor++
		}
		return m, nil
	case "k", "up":
		if m.Cursor > 0 {
			m.Cursor--
		}
		return m, nil
	case m.Keys.Delete:
		m.requestDelete()
		return m, nil
	case m.Keys.Undo:
		m.undo()
		return m, nil
	case m.Keys.Notify:
		return m.toggleNotifications()
	case m.Keys.ShowAll:
		m.ShowAll = !m.ShowAll
		m.reloadItems()
		return m, nil
	case "esc", "i":
		m.Focus = FocusTask
		m.applyFocus()
		return m, nil
	}
	return m, nil
}

func (m *Model) cycleFocus(backwards bool) {
	order := []Focus{FocusTask, FocusWhen, FocusList}
	idx := 0
	for i, f := range order {
		if f == m.Focus {
			idx = i
		}
	}
	step := 1
	if backwards {
		step = len(order) - 1
	}
	m.Focus = order[(idx+step)%len(order)]
	m.applyFocus()
}

func (m Model) handleConfirmKey(keyStr string) Model {
	switch keyStr {
	case m.Keys.Confirm:
		removed, err := m.ctl.ConfirmDelete(m.ctx)
		if err != nil {
			m.Status = StatusBar{Text: err.Error(), IsError: true}
			return m
		}
		m.reloadItems()
		m.Status = StatusBar{Text: fmt.Sprintf("deleted %q, press %s to undo", removed.Task, m.Keys.Undo)}
		m.notify("Deleted", removed.Task, "info")
		m.reportWriteError()
	case m.Keys.Cancel, "esc":
		m.ctl.CancelDelete()
		m.Status = StatusBar{Text: "delete cancelled"}
	}
	return m
}

func (m *Model) requestDelete() {
	sel, ok := m.selected()
	if !ok || m.ctl == nil {
		m.Status = StatusBar{Text: "nothing selected", IsError: true}
		return
	}
	if err := m.ctl.RequestDelete(sel.ID); err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return
	}
	m.Status = StatusBar{Text: fmt.Sprintf("delete %q? (%s/%s)", sel.Task, m.Keys.Confirm, m.Keys.Cancel)}
}

func (m *Model) undo() {
	if m.ctl == nil {
		return
	}
	restored, ok, err := m.ctl.Undo(m.ctx)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return
	}
	if !ok {
		m.Status = StatusBar{Text: "nothing to undo"}
		return
	}
	m.reloadItems()
	m.Status = StatusBar{Text: fmt.Sprintf("restored %q", restored.Task)}
	m.notify("Restored", restored.Task, "info")
	m.reportWriteError()
}

func (m Model) toggleNotifications() (Model, tea.Cmd) {
	if m.ctl == nil {
		return m, nil
	}
	if m.ctl.NotificationsEnabled() {
		m.ctl.DisableNotifications()
		m.Status = StatusBar{Text: "notifications disabled"}
		return m, nil
	}
	return m.enableNotifications()
}

func (m Model) enableNotifications() (Model, tea.Cmd) {
	if m.Requesting {
		return m, nil
	}
	m.Requesting = true
	m.Status = StatusBar{Text: "requesting notification permission"}
	ctl := m.ctl
	ctx := m.ctx
	request := func() tea.Msg {
		return PermissionResultMsg{Err: ctl.EnableNotifications(ctx)}
	}
	return m, tea.Batch(m.permSpinner.Tick, request)
}
