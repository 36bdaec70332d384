package views

import (
	"fmt"
	"strings"
)

type FormPanelData struct {
	TaskView  string
	WhenView  string
	ErrorText string
	MinHint   string
}

type ReminderRowData struct {
	ID        string
	Task      string
	When      string
	Remaining string
	Past      bool
}

type ReminderListData struct {
	Title         string
	TableView     string
	Empty         bool
	PendingDelete *ReminderRowData
}

type DetailsData struct {
	Selected *ReminderRowData
	Markdown string
}

type HelpPanelData struct {
	Bindings []string
	HelpView string
}

func RenderFormPanel(data FormPanelData) string {
	var b strings.Builder
	b.WriteString("new reminder:\n")
	b.WriteString(data.TaskView + "\n")
	b.WriteString(data.WhenView + "\n")
	if data.MinHint != "" {
		b.WriteString(dimStyle.Render("earliest: "+data.MinHint) + "\n")
	}
	if data.ErrorText != "" {
		b.WriteString(errorStyle.Render("! "+data.ErrorText) + "\n")
	}
	b.WriteString("actions: [tab]next field [enter]set reminder [esc]list")
	return b.String()
}

func RenderReminderList(data ReminderListData) string {
	var b strings.Builder
	b.WriteString(data.Title + ":\n")
	if data.Empty {
		b.WriteString(dimStyle.Render("(no reminders yet)"))
		return b.String()
	}
	b.WriteString(data.TableView)
	if data.PendingDelete != nil {
		b.WriteString("\n" + warnStyle.Render(fmt.Sprintf("delete %q? [y]es [n]o", data.PendingDelete.Task)))
	}
	return b.String()
}

func RenderDetails(data DetailsData) string {
	if data.Selected == nil {
		return "details:\n(no selection)"
	}
	if strings.TrimSpace(data.Markdown) != "" {
		return "details:\n" + data.Markdown
	}
	return fmt.Sprintf("details:\nid: %s\ntask: %s\nwhen: %s\nremaining: %s",
		data.Selected.ID, data.Selected.Task, data.Selected.When, data.Selected.Remaining)
}

// DetailsMarkdown is the markdown source for the details pane.
func DetailsMarkdown(row ReminderRowData) string {
	state := "upcoming"
	if row.Past {
		state = "due"
	}
	return fmt.Sprintf("## %s\n\n- **when:** %s\n- **remaining:** %s\n- **state:** %s\n- **id:** `%s`\n",
		row.Task, row.When, row.Remaining, state, row.ID)
}

func RenderCommandPalette(active bool, inputView string) string {
	if !active {
		return ""
	}
	return "command:\n" + inputView
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("notification: [%s] %s", strings.ToUpper(level), body)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help:\n%s\n%s",
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}
