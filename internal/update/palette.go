package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/remindd/internal/commands"
	"github.com/sandeepkv93/remindd/internal/timeutil"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
		return m, nil
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	}
	var cmd tea.Cmd
	m.commandInput, cmd = m.commandInput.Update(msg)
	m.Palette.Input = m.commandInput.Value()
	return m, cmd
}

func (m *Model) closePalette() {
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()
}

func (m Model) executePaletteCommand() (Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)
	m.closePalette()
	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}

	var follow tea.Cmd
	res, err := commands.Execute(cmd, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			r, err := m.ctl.Submit(m.ctx, a.Task, a.When)
			if err != nil {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: formErrorText(err)}
			}
			m.reloadItems()
			return commands.Result{Message: fmt.Sprintf("Reminder set for %s", timeutil.FormatForDisplay(r.DateTime))}, nil
		},
		Delete: func(d commands.DeleteArgs) (commands.Result, error) {
			removed, err := m.ctl.Delete(m.ctx, d.Target)
			if err != nil {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: err.Error()}
			}
			m.reloadItems()
			return commands.Result{Message: fmt.Sprintf("deleted %q, /undo to restore", removed.Task)}, nil
		},
		Undo: func() (commands.Result, error) {
			restored, ok, err := m.ctl.Undo(m.ctx)
			if err != nil {
				return commands.Result{}, err
			}
			if !ok {
				return commands.Result{Message: "nothing to undo"}, nil
			}
			m.reloadItems()
			return commands.Result{Message: fmt.Sprintf("restored %q", restored.Task)}, nil
		},
		Notify: func(n commands.NotifyArgs) (commands.Result, error) {
			if !n.On {
				m.ctl.DisableNotifications()
				return commands.Result{Message: "notifications disabled"}, nil
			}
			m, follow = m.enableNotifications()
			return commands.Result{Message: "requesting notification permission"}, nil
		},
		Show: func(s commands.ShowArgs) (commands.Result, error) {
			m.ShowAll = s.Subject == commands.ShowAll
			m.reloadItems()
			return commands.Result{Message: fmt.Sprintf("showing %s reminders", s.Subject)}, nil
		},
	})
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.notify("Command Failed", err.Error(), "error")
		return m, nil
	}
	m.Status = StatusBar{Text: res.Message}
	m.notify("Command", res.Message, "info")
	m.reportWriteError()
	return m, follow
}
