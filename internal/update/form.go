package update

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/remindd/internal/model"
	"github.com/sandeepkv93/remindd/internal/timeutil"
)

func (m Model) handleFormKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.submitForm()
		return m, nil
	case "esc":
		m.Focus = FocusList
		m.applyFocus()
		return m, nil
	}

	var cmd tea.Cmd
	if m.Focus == FocusWhen {
		m.whenInput, cmd = m.whenInput.Update(msg)
	} else {
		m.taskInput, cmd = m.taskInput.Update(msg)
	}
	m.FormError = ""
	return m, cmd
}

func (m *Model) submitForm() {
	if m.ctl == nil {
		return
	}
	r, err := m.ctl.Submit(m.ctx, m.taskInput.Value(), m.whenInput.Value())
	if err != nil {
		m.FormError = formErrorText(err)
		switch {
		case errors.Is(err, model.ErrEmptyTask):
			m.Focus = FocusTask
		default:
			m.Focus = FocusWhen
		}
		m.applyFocus()
		return
	}

	m.FormError = ""
	m.taskInput.SetValue("")
	m.whenInput.SetValue("")
	m.Focus = FocusTask
	m.applyFocus()
	m.reloadItems()
	for i, item := range m.Items {
		if item.ID == r.ID {
			m.Cursor = i
		}
	}
	text := fmt.Sprintf("Reminder set for %s", timeutil.FormatForDisplay(r.DateTime))
	m.Status = StatusBar{Text: text}
	m.notify("Reminder set", fmt.Sprintf("%s (%s)", r.Task, text), "success")
	m.reportWriteError()
}

func formErrorText(err error) string {
	switch {
	case errors.Is(err, model.ErrEmptyTask):
		return "Please enter a task"
	case errors.Is(err, model.ErrMissingDateTime):
		return "Please select a date and time"
	case errors.Is(err, model.ErrInvalidOrPastDateTime):
		return "Please select a valid future date and time"
	default:
		return err.Error()
	}
}
