package update

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/sandeepkv93/remindd/internal/controller"
	"github.com/sandeepkv93/remindd/internal/model"
	"github.com/sandeepkv93/remindd/internal/notify"
)

type Focus string

const (
	FocusTask Focus = "task"
	FocusWhen Focus = "when"
	FocusList Focus = "list"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Help    string
	Quit    string
	Delete  string
	Confirm string
	Cancel  string
	Undo    string
	Notify  string
	ShowAll string
	Palette string
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type Notification struct {
	Title string
	Body  string
	Level string
	At    time.Time
}

type Options struct {
	Controller *controller.Controller
	// Fired delivers notifications as their timers go off.
	Fired <-chan notify.Fired
	// Changes delivers the collection after a reload from disk.
	Changes         <-chan []model.Reminder
	Now             func() time.Time
	RefreshInterval time.Duration
}

type Model struct {
	Focus         Focus
	Items         []model.Reminder
	ShowAll       bool
	Cursor        int
	FormError     string
	Palette       CommandPaletteState
	HelpVisible   bool
	Notifications []Notification
	Status        StatusBar
	Keys          GlobalKeyMap
	Quitting      bool
	LastError     error
	Requesting    bool

	ctl     *controller.Controller
	ctx     context.Context
	fired   <-chan notify.Fired
	changes <-chan []model.Reminder
	now     func() time.Time
	refresh time.Duration

	taskInput     textinput.Model
	whenInput     textinput.Model
	commandInput  textinput.Model
	reminderTable table.Model
	detailView    viewport.Model
	permSpinner   spinner.Model
	helpModel     help.Model
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

type RemindersChangedMsg struct {
	Items []model.Reminder
}

type NotificationFiredMsg struct {
	Fired notify.Fired
}

type TickMsg struct {
	At time.Time
}

type PermissionResultMsg struct {
	Err error
}

func NewModel(opts Options) Model {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	refresh := opts.RefreshInterval
	if refresh <= 0 {
		refresh = 30 * time.Second
	}
	m := Model{
		Focus:   FocusTask,
		ctl:     opts.Controller,
		ctx:     context.Background(),
		fired:   opts.Fired,
		changes: opts.Changes,
		now:     now,
		refresh: refresh,
		Keys: GlobalKeyMap{
			Help:    "?",
			Quit:    "q",
			Delete:  "d",
			Confirm: "y",
			Cancel:  "n",
			Undo:    "u",
			Notify:  "N",
			ShowAll: "a",
			Palette: "/",
		},
	}
	m.initBubbleComponents()
	m.reloadItems()
	m.syncBubbleData()
	return m
}
