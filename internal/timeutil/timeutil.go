package timeutil

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var (
	ErrEmptyDateTime     = errors.New("timeutil: date/time is empty")
	ErrMalformedDateTime = errors.New("timeutil: malformed date/time")
	ErrNotFuture         = errors.New("timeutil: date/time is not in the future")
)

const (
	// Matches the value produced by an HTML datetime-local input.
	InputLayout   = "2006-01-02T15:04"
	DisplayLayout = "Jan 2, 2006, 03:04 PM"
)

var localLayouts = []string{
	InputLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

type Remaining struct {
	Days         int
	Hours        int
	Minutes      int
	TotalMinutes int
}

func (r Remaining) IsZero() bool {
	return r == Remaining{}
}

func (r Remaining) String() string {
	if r.TotalMinutes <= 0 {
		return "due"
	}
	parts := make([]string, 0, 3)
	if r.Days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", r.Days))
	}
	if r.Hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", r.Hours))
	}
	if r.Minutes > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%dm", r.Minutes))
	}
	return strings.Join(parts, " ")
}

// ParseDateTime accepts RFC 3339, the datetime-local input forms (read in loc)
// and anything dateparse recognises. A nil loc means time.Local.
func ParseDateTime(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrEmptyDateTime
	}
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	t, err := dateparse.ParseIn(raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDateTime, raw)
	}
	return t, nil
}

func IsFutureInstant(candidate, now time.Time) bool {
	return candidate.After(now)
}

func ValidateFuture(raw string, now time.Time, loc *time.Location) (time.Time, error) {
	t, err := ParseDateTime(raw, loc)
	if err != nil {
		return time.Time{}, err
	}
	if !IsFutureInstant(t, now) {
		return time.Time{}, fmt.Errorf("%w: %s", ErrNotFuture, t.Format(time.RFC3339))
	}
	return t, nil
}

func FormatForDisplay(t time.Time) string {
	return t.Local().Format(DisplayLayout)
}

func MinDateTimeString(now time.Time) string {
	return now.Local().Format(InputLayout)
}

func RemainingUntil(target, now time.Time) Remaining {
	diff := target.Sub(now)
	if diff <= 0 {
		return Remaining{}
	}
	total := int(diff / time.Minute)
	days := int(diff / (24 * time.Hour))
	hours := int((diff % (24 * time.Hour)) / time.Hour)
	minutes := int((diff % time.Hour) / time.Minute)
	return Remaining{
		Days:         days,
		Hours:        hours,
		Minutes:      minutes,
		TotalMinutes: total,
	}
}
