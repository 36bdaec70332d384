package update

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/remindd/internal/model"
	"github.com/sandeepkv93/remindd/internal/notify"
	"github.com/sandeepkv93/remindd/internal/views"
)

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		tickCmd(m.refresh),
		waitForFiredCmd(m.fired),
		waitForChangesCmd(m.changes),
	)
}

func waitForFiredCmd(ch <-chan notify.Fired) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		f, ok := <-ch
		if !ok {
			return nil
		}
		return NotificationFiredMsg{Fired: f}
	}
}

func waitForChangesCmd(ch <-chan []model.Reminder) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		items, ok := <-ch
		if !ok {
			return nil
		}
		return RemindersChangedMsg{Items: items}
	}
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(at time.Time) tea.Msg { return TickMsg{At: at} })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	next.syncBubbleData()
	return next, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(typed)
	case spinner.TickMsg:
		if m.Requesting {
			var cmd tea.Cmd
			m.permSpinner, cmd = m.permSpinner.Update(typed)
			return m, cmd
		}
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		m.notify("Status", typed.Text, levelFromError(typed.IsError))
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			m.notify("Error", typed.Err.Error(), "error")
		}
		return m, nil
	case RemindersChangedMsg:
		m.setItems(typed.Items)
		return m, waitForChangesCmd(m.changes)
	case NotificationFiredMsg:
		m.notify(typed.Fired.Title, typed.Fired.Body, "reminder")
		m.Status = StatusBar{Text: fmt.Sprintf("reminder due: %s", typed.Fired.Body)}
		m.reloadItems()
		return m, waitForFiredCmd(m.fired)
	case TickMsg:
		m.reloadItems()
		return m, tickCmd(m.refresh)
	case PermissionResultMsg:
		m.Requesting = false
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			m.notify("Notifications", notificationErrorText(typed.Err), "warn")
			return m, nil
		}
		m.Status = StatusBar{Text: "notifications enabled"}
		m.notify("Notifications", "You will be notified when reminders are due", "info")
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}

	notifications := "off"
	if m.ctl != nil && m.ctl.NotificationsEnabled() {
		notifications = "on"
	}
	if m.Requesting {
		notifications = m.permSpinner.View() + " asking"
	}
	scope := "upcoming"
	if m.ShowAll {
		scope = "all"
	}

	return views.RenderApp(views.AppData{
		Header:       fmt.Sprintf("remindd | %d %s | notifications: %s | focus: %s", len(m.Items), scope, notifications, m.Focus),
		LeftPane:     m.renderFormPanel() + "\n\n" + m.renderListPanel(),
		RightPane:    m.renderRightPane(),
		StatusLine:   status,
		StatusError:  m.Status.IsError,
		Notification: m.renderNotificationsView(),
		Footer: fmt.Sprintf("keys: tab focus | %s delete | %s undo | %s notify | %s all | %s cmd | %s help | %s quit",
			m.Keys.Delete, m.Keys.Undo, m.Keys.Notify, m.Keys.ShowAll, m.Keys.Palette, m.Keys.Help, m.Keys.Quit),
	})
}
