package update

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/sandeepkv93/remindd/internal/model"
	"github.com/sandeepkv93/remindd/internal/timeutil"
	"github.com/sandeepkv93/remindd/internal/views"
)

func (m *Model) initBubbleComponents() {
	m.taskInput = textinput.New()
	m.taskInput.Prompt = "task> "
	m.taskInput.Placeholder = "What should I remind you about?"
	m.taskInput.CharLimit = 256
	m.taskInput.Width = 48

	m.whenInput = textinput.New()
	m.whenInput.Prompt = "when> "
	m.whenInput.CharLimit = 64
	m.whenInput.Width = 48

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 40

	cols := []table.Column{
		{Title: "When", Width: 22},
		{Title: "In", Width: 10},
		{Title: "Task", Width: 24},
	}
	m.reminderTable = table.New(table.WithColumns(cols), table.WithRows([]table.Row{}), table.WithHeight(10))

	m.detailView = viewport.New(42, 10)

	m.permSpinner = spinner.New()
	m.permSpinner.Spinner = spinner.Dot

	m.helpModel = help.New()

	m.applyFocus()
}

func (m *Model) applyFocus() {
	m.taskInput.Blur()
	m.whenInput.Blur()
	m.reminderTable.Blur()
	switch m.Focus {
	case FocusTask:
		m.taskInput.Focus()
	case FocusWhen:
		m.whenInput.Focus()
	case FocusList:
		m.reminderTable.Focus()
	}
}

func (m *Model) reloadItems() {
	if m.ctl == nil {
		m.Items = nil
		return
	}
	if m.ShowAll {
		m.Items = m.ctl.Reminders()
	} else {
		m.Items = m.ctl.Upcoming()
	}
	m.clampCursor()
}

func (m *Model) setItems(items []model.Reminder) {
	if m.ShowAll {
		m.Items = items
	} else {
		now := m.now()
		m.Items = m.Items[:0:0]
		for _, r := range items {
			if r.IsUpcoming(now) {
				m.Items = append(m.Items, r)
			}
		}
	}
	m.clampCursor()
}

func (m *Model) clampCursor() {
	if m.Cursor >= len(m.Items) {
		m.Cursor = len(m.Items) - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
}

func (m Model) selected() (model.Reminder, bool) {
	if len(m.Items) == 0 || m.Cursor < 0 || m.Cursor >= len(m.Items) {
		return model.Reminder{}, false
	}
	return m.Items[m.Cursor], true
}

func (m Model) row(r model.Reminder) views.ReminderRowData {
	now := m.now()
	return views.ReminderRowData{
		ID:        r.ID,
		Task:      r.Task,
		When:      timeutil.FormatForDisplay(r.DateTime),
		Remaining: timeutil.RemainingUntil(r.DateTime, now).String(),
		Past:      !r.DateTime.After(now),
	}
}

func (m *Model) syncBubbleData() {
	rows := make([]table.Row, 0, len(m.Items))
	for _, r := range m.Items {
		d := m.row(r)
		rows = append(rows, table.Row{d.When, d.Remaining, d.Task})
	}
	m.reminderTable.SetRows(rows)
	if len(rows) > 0 {
		m.reminderTable.SetCursor(m.Cursor)
	}
	m.whenInput.Placeholder = timeutil.MinDateTimeString(m.now())
	if sel, ok := m.selected(); ok {
		m.detailView.SetContent(views.RenderMarkdown(views.DetailsMarkdown(m.row(sel))))
	} else {
		m.detailView.SetContent("")
	}
}
