package controller

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/sandeepkv93/remindd/internal/model"
	"github.com/sandeepkv93/remindd/internal/notify"
	"github.com/sandeepkv93/remindd/internal/reminders"
	"github.com/sandeepkv93/remindd/internal/storage"
	"github.com/sandeepkv93/remindd/internal/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)

type scheduled struct {
	title, body string
	at          time.Time
	handle      notify.Handle
}

type fakeNotifier struct {
	mu        sync.Mutex
	supported bool
	grant     bool
	enabled   bool
	scheduled []scheduled
	cancelled []notify.Handle
	next      int
}

func (f *fakeNotifier) CheckSupport() bool { return f.supported }

func (f *fakeNotifier) RequestPermission(context.Context) bool {
	f.enabled = f.supported && f.grant
	return f.enabled
}

func (f *fakeNotifier) Enabled() bool      { return f.enabled }
func (f *fakeNotifier) SetEnabled(on bool) { f.enabled = on }

func (f *fakeNotifier) ScheduleOneShot(title, body string, at time.Time) notify.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !at.After(now) {
		return notify.NoopHandle
	}
	f.next++
	h := notify.Handle(fmt.Sprintf("h%d", f.next))
	f.scheduled = append(f.scheduled, scheduled{title: title, body: body, at: at, handle: h})
	return h
}

func (f *fakeNotifier) Cancel(h notify.Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, h)
}

type fixture struct {
	ctl      *Controller
	store    *reminders.Store
	mirror   *storage.MemoryMirror
	notifier *fakeNotifier
}

func newFixture(t *testing.T, cancelOnDelete bool) fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mirror := storage.NewMemoryMirror()
	store := reminders.New(mirror, reminders.Options{Logger: logger})
	store.Load(context.Background())
	n := &fakeNotifier{supported: true, grant: true, enabled: true}
	ctl := New(store, n, Options{
		CancelOnDelete: cancelOnDelete,
		Location:       time.UTC,
		Now:            func() time.Time { return now },
		Logger:         logger,
	})
	return fixture{ctl: ctl, store: store, mirror: mirror, notifier: n}
}

func TestSubmitCreatesTrimmedReminderAndSchedules(t *testing.T) {
	f := newFixture(t, false)
	r, err := f.ctl.Submit(context.Background(), "  Call dentist  ", "2026-02-10T12:00")
	require.NoError(t, err)

	assert.Equal(t, "Call dentist", r.Task)
	assert.True(t, r.DateTime.Equal(now.Add(24*time.Hour)))
	assert.False(t, r.Completed)
	assert.Len(t, r.ID, 36)

	require.Len(t, f.notifier.scheduled, 1)
	assert.Equal(t, DefaultTitle, f.notifier.scheduled[0].title)
	assert.Equal(t, "Call dentist", f.notifier.scheduled[0].body)
	assert.True(t, f.notifier.scheduled[0].at.Equal(r.DateTime))
}

func TestSubmitTruncatesToMirrorPrecision(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	r, err := f.ctl.Submit(ctx, "precise", "2026-02-10T12:00:00.123456789Z")
	require.NoError(t, err)

	want := time.Date(2026, 2, 10, 12, 0, 0, 123_000_000, time.UTC)
	assert.True(t, r.DateTime.Equal(want), r.DateTime)
	stored, ok := f.store.Get(r.ID)
	require.True(t, ok)
	assert.True(t, stored.DateTime.Equal(want))
	assert.True(t, f.notifier.scheduled[0].at.Equal(want))

	f.store.Reload(ctx)
	reloaded, ok := f.store.Get(r.ID)
	require.True(t, ok)
	assert.True(t, reloaded.DateTime.Equal(stored.DateTime))
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.ctl.Submit(ctx, "   ", "2026-02-10T12:00")
	assert.ErrorIs(t, err, model.ErrEmptyTask)

	_, err = f.ctl.Submit(ctx, "task", "  ")
	assert.ErrorIs(t, err, model.ErrMissingDateTime)

	_, err = f.ctl.Submit(ctx, "task", "not a date")
	assert.ErrorIs(t, err, model.ErrInvalidOrPastDateTime)
	assert.ErrorIs(t, err, timeutil.ErrMalformedDateTime)

	_, err = f.ctl.Submit(ctx, "task", "2026-02-09T12:00")
	assert.ErrorIs(t, err, model.ErrInvalidOrPastDateTime)
	assert.ErrorIs(t, err, timeutil.ErrNotFuture)

	_, err = f.ctl.Submit(ctx, "task", "2026-02-09T11:00")
	assert.ErrorIs(t, err, model.ErrInvalidOrPastDateTime)

	assert.Empty(t, f.ctl.Reminders())
	assert.Empty(t, f.notifier.scheduled)
}

func TestSubmitWithoutNotificationsDoesNotSchedule(t *testing.T) {
	f := newFixture(t, false)
	f.ctl.DisableNotifications()
	_, err := f.ctl.Submit(context.Background(), "quiet", "2026-02-10T12:00")
	require.NoError(t, err)
	assert.Empty(t, f.notifier.scheduled)
	assert.False(t, f.ctl.NotificationsEnabled())
}

func TestSubmitKeepsReminderWhenMirrorWriteFails(t *testing.T) {
	f := newFixture(t, false)
	f.mirror.SetFailWrites(true)

	r, err := f.ctl.Submit(context.Background(), "unsaved", "2026-02-10T12:00")
	require.NoError(t, err)
	assert.ErrorIs(t, f.ctl.WriteError(), storage.ErrStorageWrite)
	assert.Equal(t, []model.Reminder{r}, f.ctl.Reminders())

	f.mirror.SetFailWrites(false)
	_, err = f.ctl.Submit(context.Background(), "saved", "2026-02-11T12:00")
	require.NoError(t, err)
	assert.NoError(t, f.ctl.WriteError())
}

func TestRemindersAreListedChronologically(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	later, err := f.ctl.Submit(ctx, "later", "2026-02-09T14:00")
	require.NoError(t, err)
	sooner, err := f.ctl.Submit(ctx, "sooner", "2026-02-09T13:00")
	require.NoError(t, err)

	got := f.ctl.Upcoming()
	require.Len(t, got, 2)
	assert.Equal(t, sooner.ID, got[0].ID)
	assert.Equal(t, later.ID, got[1].ID)
}

func TestConfirmedDeleteAndUndo(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	a, _ := f.ctl.Submit(ctx, "a", "2026-02-09T13:00")
	b, _ := f.ctl.Submit(ctx, "b", "2026-02-09T14:00")
	before := f.ctl.Reminders()

	_, err := f.ctl.ConfirmDelete(ctx)
	assert.ErrorIs(t, err, ErrNoPendingDelete)

	require.NoError(t, f.ctl.RequestDelete(a.ID[:8]))
	assert.Equal(t, a.ID, f.ctl.PendingDelete())
	f.ctl.CancelDelete()
	assert.Empty(t, f.ctl.PendingDelete())
	assert.Len(t, f.ctl.Reminders(), 2)

	require.NoError(t, f.ctl.RequestDelete(a.ID))
	removed, err := f.ctl.ConfirmDelete(ctx)
	require.NoError(t, err)
	assert.Equal(t, a.ID, removed.ID)
	assert.Equal(t, []model.Reminder{b}, f.ctl.Reminders())

	restored, ok, err := f.ctl.Undo(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, a, restored)
	assert.Equal(t, before, f.ctl.Reminders())

	_, ok, err = f.ctl.Undo(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUndoRestoresOnlyLastDelete(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	one, _ := f.ctl.Submit(ctx, "one", "2026-02-09T13:00")
	two, _ := f.ctl.Submit(ctx, "two", "2026-02-09T14:00")

	_, err := f.ctl.Delete(ctx, one.ID)
	require.NoError(t, err)
	_, err = f.ctl.Delete(ctx, two.ID)
	require.NoError(t, err)
	_, ok, _ := f.ctl.Undo(ctx)
	require.True(t, ok)

	assert.Equal(t, []model.Reminder{two}, f.ctl.Reminders())
}

func TestDeleteUnknownAndAmbiguous(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	_, err := f.ctl.Delete(ctx, "nope")
	assert.ErrorIs(t, err, ErrUnknownReminder)
	assert.ErrorIs(t, f.ctl.RequestDelete(""), ErrUnknownReminder)

	require.NoError(t, f.store.Add(ctx, model.Reminder{ID: "abc-1", Task: "x", DateTime: now.Add(time.Hour)}))
	require.NoError(t, f.store.Add(ctx, model.Reminder{ID: "abc-2", Task: "y", DateTime: now.Add(time.Hour)}))
	_, err = f.ctl.Delete(ctx, "abc")
	assert.ErrorIs(t, err, ErrAmbiguousID)
	assert.Len(t, f.ctl.Reminders(), 2)
}

func TestDeleteKeepsNotificationByDefault(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	r, _ := f.ctl.Submit(ctx, "still fires", "2026-02-09T13:00")
	_, err := f.ctl.Delete(ctx, r.ID)
	require.NoError(t, err)
	assert.Empty(t, f.notifier.cancelled)
}

func TestCancelOnDeleteDisarmsAndUndoRearms(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	r, _ := f.ctl.Submit(ctx, "cancel me", "2026-02-09T13:00")
	require.Len(t, f.notifier.scheduled, 1)

	_, err := f.ctl.Delete(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, []notify.Handle{f.notifier.scheduled[0].handle}, f.notifier.cancelled)

	_, ok, err := f.ctl.Undo(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, f.notifier.scheduled, 2)
	assert.Equal(t, "cancel me", f.notifier.scheduled[1].body)
}

func TestEnableNotifications(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	f.notifier.enabled = false
	require.NoError(t, f.ctl.EnableNotifications(ctx))
	assert.True(t, f.ctl.NotificationsEnabled())

	f.notifier.grant = false
	assert.ErrorIs(t, f.ctl.EnableNotifications(ctx), notify.ErrNotificationPermissionDenied)
	assert.False(t, f.ctl.NotificationsEnabled())

	f.notifier.supported = false
	assert.ErrorIs(t, f.ctl.EnableNotifications(ctx), notify.ErrNotificationUnsupported)
	assert.False(t, f.ctl.NotificationsEnabled())
}

func TestRemaining(t *testing.T) {
	f := newFixture(t, false)
	r, err := f.ctl.Submit(context.Background(), "soon", "2026-02-09T13:30")
	require.NoError(t, err)

	rem, err := f.ctl.Remaining(r.ID)
	require.NoError(t, err)
	assert.Equal(t, timeutil.Remaining{Days: 0, Hours: 1, Minutes: 30, TotalMinutes: 90}, rem)

	_, err = f.ctl.Remaining("missing")
	assert.ErrorIs(t, err, ErrUnknownReminder)
}

func TestRearmPendingSkipsPastAndArmed(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	require.NoError(t, f.store.Add(ctx, model.Reminder{ID: "past", Task: "gone", DateTime: now.Add(-time.Hour)}))
	require.NoError(t, f.store.Add(ctx, model.Reminder{ID: "future", Task: "soon", DateTime: now.Add(time.Hour)}))

	assert.Equal(t, 1, f.ctl.RearmPending(ctx))
	assert.Equal(t, 0, f.ctl.RearmPending(ctx))

	f.ctl.DisableNotifications()
	assert.Equal(t, 0, f.ctl.RearmPending(ctx))
}

func TestSubscribeSeesSubmit(t *testing.T) {
	f := newFixture(t, false)
	var got []model.Reminder
	unsubscribe := f.ctl.Subscribe(func(items []model.Reminder) { got = items })
	defer unsubscribe()

	r, err := f.ctl.Submit(context.Background(), "watched", "2026-02-10T09:00")
	require.NoError(t, err)
	assert.Equal(t, []model.Reminder{r}, got)
}

func TestGatewayIntegrationCancelledHandleNeverFires(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	host := notify.NewMemoryHost(true, notify.PermissionGranted)
	gateway := notify.NewGateway(notify.GatewayConfig{Host: host, Logger: logger})
	gateway.Start(context.Background())
	defer gateway.Close()

	store := reminders.New(storage.NewMemoryMirror(), reminders.Options{Logger: logger})
	ctl := New(store, gateway, Options{CancelOnDelete: true, Logger: logger})

	at := time.Now().Add(1500 * time.Millisecond).Format(time.RFC3339Nano)
	kept, err := ctl.Submit(context.Background(), "kept", at)
	require.NoError(t, err)
	dropped, err := ctl.Submit(context.Background(), "dropped", at)
	require.NoError(t, err)
	_, err = ctl.Delete(context.Background(), dropped.ID)
	require.NoError(t, err)

	select {
	case n := <-host.Notifications():
		assert.Equal(t, kept.Task, n.Body)
		assert.Equal(t, DefaultTitle, n.Title)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for notification")
	}
	select {
	case n := <-host.Notifications():
		t.Fatalf("deleted reminder fired: %+v", n)
	case <-time.After(200 * time.Millisecond):
	}
}
