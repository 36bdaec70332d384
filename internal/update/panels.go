package update

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sandeepkv93/remindd/internal/notify"
	"github.com/sandeepkv93/remindd/internal/views"
)

func (m Model) renderFormPanel() string {
	return views.RenderFormPanel(views.FormPanelData{
		TaskView:  m.taskInput.View(),
		WhenView:  m.whenInput.View(),
		ErrorText: m.FormError,
		MinHint:   m.whenInput.Placeholder,
	})
}

func (m Model) renderListPanel() string {
	title := "upcoming"
	if m.ShowAll {
		title = "all reminders"
	}
	data := views.ReminderListData{
		Title:     title,
		TableView: m.reminderTable.View(),
		Empty:     len(m.Items) == 0,
	}
	if m.ctl != nil {
		if id := m.ctl.PendingDelete(); id != "" {
			if r, err := m.ctl.Get(id); err == nil {
				row := m.row(r)
				data.PendingDelete = &row
			}
		}
	}
	return views.RenderReminderList(data)
}

func (m Model) renderRightPane() string {
	parts := []string{}
	if sel, ok := m.selected(); ok {
		row := m.row(sel)
		parts = append(parts, views.RenderDetails(views.DetailsData{Selected: &row, Markdown: m.detailView.View()}))
	} else {
		parts = append(parts, views.RenderDetails(views.DetailsData{}))
	}
	if p := views.RenderCommandPalette(m.Palette.Active, m.commandInput.View()); p != "" {
		parts = append(parts, p)
	}
	if h := m.renderHelpIfVisible(); h != "" {
		parts = append(parts, h)
	}
	return strings.Join(parts, "\n\n")
}

func (m Model) renderNotificationsView() string {
	if len(m.Notifications) == 0 {
		return ""
	}
	n := m.Notifications[len(m.Notifications)-1]
	body := n.Body
	if n.Title != "" {
		body = n.Title + ": " + n.Body
	}
	return views.RenderNotification(n.Level, body)
}

func (m *Model) notify(title, body, level string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	m.Notifications = append(m.Notifications, Notification{
		Title: title,
		Body:  body,
		Level: level,
		At:    m.now(),
	})
	if len(m.Notifications) > 40 {
		m.Notifications = m.Notifications[len(m.Notifications)-40:]
	}
}

func (m *Model) reportWriteError() {
	if m.ctl == nil {
		return
	}
	if err := m.ctl.WriteError(); err != nil {
		m.Status = StatusBar{Text: fmt.Sprintf("changes kept in memory but not saved: %v", err), IsError: true}
	}
}

func notificationErrorText(err error) string {
	switch {
	case errors.Is(err, notify.ErrNotificationUnsupported):
		return "Notifications are not supported on this system"
	case errors.Is(err, notify.ErrNotificationPermissionDenied):
		return "Notification permission was denied"
	default:
		return err.Error()
	}
}

func levelFromError(isErr bool) string {
	if isErr {
		return "error"
	}
	return "info"
}
