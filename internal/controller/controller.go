package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sandeepkv93/remindd/internal/model"
	"github.com/sandeepkv93/remindd/internal/notify"
	"github.com/sandeepkv93/remindd/internal/reminders"
	"github.com/sandeepkv93/remindd/internal/storage"
	"github.com/sandeepkv93/remindd/internal/timeutil"
)

var (
	ErrUnknownReminder = errors.New("controller: unknown reminder")
	ErrAmbiguousID     = errors.New("controller: id prefix matches more than one reminder")
	ErrNoPendingDelete = errors.New("controller: no delete awaiting confirmation")
)

const DefaultTitle = "Reminder"

// Notifier is the slice of the notification gateway the controller drives.
type Notifier interface {
	CheckSupport() bool
	RequestPermission(ctx context.Context) bool
	Enabled() bool
	SetEnabled(enabled bool)
	ScheduleOneShot(title, body string, at time.Time) notify.Handle
	Cancel(h notify.Handle)
}

type Options struct {
	Title          string
	CancelOnDelete bool
	Location       *time.Location
	Now            func() time.Time
	Logger         *slog.Logger
}

type Controller struct {
	store    *reminders.Store
	notifier Notifier
	title    string
	cancel   bool
	loc      *time.Location
	now      func() time.Time
	logger   *slog.Logger

	mu            sync.Mutex
	handles       map[string]notify.Handle
	pendingDelete string
	writeErr      error
}

func New(store *reminders.Store, notifier Notifier, opts Options) *Controller {
	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = DefaultTitle
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		store:    store,
		notifier: notifier,
		title:    title,
		cancel:   opts.CancelOnDelete,
		loc:      loc,
		now:      now,
		logger:   logger,
		handles:  make(map[string]notify.Handle),
	}
}

// Submit validates form input, stores the new reminder and arms its
// notification when notifications are enabled.
func (c *Controller) Submit(ctx context.Context, taskText, rawDateTime string) (model.Reminder, error) {
	task := strings.TrimSpace(taskText)
	if task == "" {
		return model.Reminder{}, model.ErrEmptyTask
	}
	if strings.TrimSpace(rawDateTime) == "" {
		return model.Reminder{}, model.ErrMissingDateTime
	}
	at, err := timeutil.ValidateFuture(rawDateTime, c.now(), c.loc)
	if err != nil {
		return model.Reminder{}, fmt.Errorf("%w: %w", model.ErrInvalidOrPastDateTime, err)
	}
	// The mirror keeps milliseconds.
	at = at.Truncate(time.Millisecond)

	r := model.Reminder{ID: uuid.NewString(), Task: task, DateTime: at}
	if err := c.store.Add(ctx, r); err != nil {
		if !errors.Is(err, storage.ErrStorageWrite) {
			return model.Reminder{}, err
		}
		c.recordWrite(err)
	} else {
		c.recordWrite(nil)
	}
	c.logger.Info("reminder added", "id", r.ID, "at", r.DateTime.Format(time.RFC3339))

	if c.notifier != nil && c.notifier.Enabled() {
		c.arm(r)
	}
	return r, nil
}

// Resolve expands an id prefix to a full reminder id.
func (c *Controller) Resolve(prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", ErrUnknownReminder
	}
	if _, ok := c.store.Get(prefix); ok {
		return prefix, nil
	}
	match := ""
	for _, r := range c.store.List() {
		if strings.HasPrefix(r.ID, prefix) {
			if match != "" {
				return "", fmt.Errorf("%w: %s", ErrAmbiguousID, prefix)
			}
			match = r.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownReminder, prefix)
	}
	return match, nil
}

// RequestDelete marks id for deletion pending confirmation.
func (c *Controller) RequestDelete(id string) error {
	full, err := c.Resolve(id)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.pendingDelete = full
	c.mu.Unlock()
	return nil
}

func (c *Controller) PendingDelete() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingDelete
}

func (c *Controller) CancelDelete() {
	c.mu.Lock()
	c.pendingDelete = ""
	c.mu.Unlock()
}

func (c *Controller) ConfirmDelete(ctx context.Context) (model.Reminder, error) {
	c.mu.Lock()
	id := c.pendingDelete
	c.pendingDelete = ""
	c.mu.Unlock()
	if id == "" {
		return model.Reminder{}, ErrNoPendingDelete
	}
	return c.Delete(ctx, id)
}

// Delete removes a reminder in one step. The removed reminder becomes the
// undo candidate.
func (c *Controller) Delete(ctx context.Context, id string) (model.Reminder, error) {
	full, err := c.Resolve(id)
	if err != nil {
		return model.Reminder{}, err
	}
	removed, ok, err := c.store.Delete(ctx, full)
	if !ok {
		return model.Reminder{}, fmt.Errorf("%w: %s", ErrUnknownReminder, id)
	}
	c.recordWrite(err)
	if c.cancel {
		c.disarm(removed.ID)
	}
	c.logger.Info("reminder deleted", "id", removed.ID)
	return removed, nil
}

// Undo restores the most recent delete. ok is false when there is nothing to
// restore.
func (c *Controller) Undo(ctx context.Context) (model.Reminder, bool, error) {
	restored, ok, err := c.store.UndoLast(ctx)
	if !ok {
		return model.Reminder{}, false, nil
	}
	c.recordWrite(err)
	if c.cancel && c.notifier != nil && c.notifier.Enabled() && restored.DateTime.After(c.now()) {
		c.arm(restored)
	}
	c.logger.Info("reminder restored", "id", restored.ID)
	return restored, true, nil
}

// EnableNotifications asks the host for permission. Neither returned error is
// fatal; the app keeps working without notifications.
func (c *Controller) EnableNotifications(ctx context.Context) error {
	if c.notifier == nil || !c.notifier.CheckSupport() {
		if c.notifier != nil {
			c.notifier.SetEnabled(false)
		}
		return notify.ErrNotificationUnsupported
	}
	if !c.notifier.RequestPermission(ctx) {
		return notify.ErrNotificationPermissionDenied
	}
	return nil
}

func (c *Controller) DisableNotifications() {
	if c.notifier != nil {
		c.notifier.SetEnabled(false)
	}
}

func (c *Controller) NotificationsEnabled() bool {
	return c.notifier != nil && c.notifier.Enabled()
}

func (c *Controller) Reminders() []model.Reminder {
	return c.store.List()
}

func (c *Controller) Upcoming() []model.Reminder {
	return c.store.Upcoming(c.now())
}

func (c *Controller) Get(id string) (model.Reminder, error) {
	full, err := c.Resolve(id)
	if err != nil {
		return model.Reminder{}, err
	}
	r, _ := c.store.Get(full)
	return r, nil
}

func (c *Controller) Remaining(id string) (timeutil.Remaining, error) {
	r, err := c.Get(id)
	if err != nil {
		return timeutil.Remaining{}, err
	}
	return timeutil.RemainingUntil(r.DateTime, c.now()), nil
}

func (c *Controller) Subscribe(fn func([]model.Reminder)) func() {
	return c.store.Subscribe(fn)
}

// Reload re-reads the mirror after another process changed it.
func (c *Controller) Reload(ctx context.Context) {
	c.store.Reload(ctx)
}

// RearmPending schedules notifications for future reminders that have none.
func (c *Controller) RearmPending(_ context.Context) int {
	if c.notifier == nil || !c.notifier.Enabled() {
		return 0
	}
	armed := 0
	for _, r := range c.store.Upcoming(c.now()) {
		c.mu.Lock()
		_, has := c.handles[r.ID]
		c.mu.Unlock()
		if has {
			continue
		}
		if c.arm(r) != notify.NoopHandle {
			armed++
		}
	}
	c.logger.Info("re-armed pending notifications", "count", armed)
	return armed
}

// WriteError reports the most recent mirror write failure, cleared by the
// next successful write.
func (c *Controller) WriteError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeErr
}

func (c *Controller) arm(r model.Reminder) notify.Handle {
	h := c.notifier.ScheduleOneShot(c.title, r.Task, r.DateTime)
	if h == notify.NoopHandle {
		return h
	}
	c.mu.Lock()
	c.handles[r.ID] = h
	c.mu.Unlock()
	return h
}

func (c *Controller) disarm(id string) {
	c.mu.Lock()
	h, ok := c.handles[id]
	delete(c.handles, id)
	c.mu.Unlock()
	if ok && c.notifier != nil {
		c.notifier.Cancel(h)
	}
}

func (c *Controller) recordWrite(err error) {
	c.mu.Lock()
	c.writeErr = err
	c.mu.Unlock()
}
