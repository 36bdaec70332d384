package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/remindd/internal/timeutil"
)

var (
	ErrEmptyTask             = errors.New("model: task is required")
	ErrMissingDateTime       = errors.New("model: date and time are required")
	ErrInvalidOrPastDateTime = errors.New("model: date and time must be valid and in the future")
	ErrMissingID             = errors.New("model: reminder id is required")
)

// WireLayout is the serialized instant format, matching Date.toISOString.
const WireLayout = "2006-01-02T15:04:05.000Z07:00"

type Reminder struct {
	ID        string
	Task      string
	DateTime  time.Time
	Completed bool
}

func (r Reminder) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return ErrMissingID
	}
	if strings.TrimSpace(r.Task) == "" {
		return ErrEmptyTask
	}
	if r.DateTime.IsZero() {
		return ErrMissingDateTime
	}
	return nil
}

func (r Reminder) IsUpcoming(now time.Time) bool {
	return !r.Completed && r.DateTime.After(now)
}

// Less orders by instant, then by id so equal instants keep a stable order
// across reloads.
func Less(a, b Reminder) bool {
	if !a.DateTime.Equal(b.DateTime) {
		return a.DateTime.Before(b.DateTime)
	}
	return a.ID < b.ID
}

func Compare(a, b Reminder) int {
	switch {
	case Less(a, b):
		return -1
	case Less(b, a):
		return 1
	default:
		return 0
	}
}

type wireReminder struct {
	ID        string `json:"id"`
	Task      string `json:"task"`
	DateTime  string `json:"dateTime,omitempty"`
	LegacyAt  string `json:"datetime,omitempty"`
	Completed bool   `json:"completed"`
}

func (r Reminder) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireReminder{
		ID:        r.ID,
		Task:      r.Task,
		DateTime:  r.DateTime.UTC().Format(WireLayout),
		Completed: r.Completed,
	})
}

func (r *Reminder) UnmarshalJSON(data []byte) error {
	var w wireReminder
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	raw := w.DateTime
	if raw == "" {
		raw = w.LegacyAt
	}
	if raw == "" {
		return fmt.Errorf("%w: reminder %q", ErrMissingDateTime, w.ID)
	}
	// datetime-local values written without a zone are read as device time.
	at, err := timeutil.ParseDateTime(raw, time.Local)
	if err != nil {
		return fmt.Errorf("model: reminder %q date: %w", w.ID, err)
	}
	*r = Reminder{
		ID:        w.ID,
		Task:      w.Task,
		DateTime:  at,
		Completed: w.Completed,
	}
	return nil
}
