package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sandeepkv93/remindd/internal/config"
	"github.com/sandeepkv93/remindd/internal/model"
	"github.com/sandeepkv93/remindd/internal/notify"
	"github.com/sandeepkv93/remindd/internal/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, driver string) *config.Config {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	cfg.Storage.Driver = driver
	cfg.Storage.Path = filepath.Join(t.TempDir(), "reminders."+driver)
	return cfg
}

func quietOptions(interactive bool) AppOptions {
	return AppOptions{
		Interactive: interactive,
		Host:        notify.NewMemoryHost(true, notify.PermissionGranted),
		LogOutput:   io.Discard,
	}
}

func TestNewAppRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t, "memory")
	cfg.Storage.Driver = "redis"
	_, err := NewApp(cfg, quietOptions(false))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage driver")
}

func TestAppPersistsAcrossProcesses(t *testing.T) {
	for _, driver := range []string{"sqlite", "file"} {
		t.Run(driver, func(t *testing.T) {
			cfg := testConfig(t, driver)
			ctx := context.Background()

			first, err := NewApp(cfg, quietOptions(false))
			require.NoError(t, err)
			require.NoError(t, first.Start(ctx, false))
			when := time.Now().Add(time.Hour).Format(timeutil.InputLayout)
			added, err := first.Controller().Submit(ctx, "stand up", when)
			require.NoError(t, err)
			require.NoError(t, first.Close())

			second, err := NewApp(cfg, quietOptions(false))
			require.NoError(t, err)
			require.NoError(t, second.Start(ctx, false))
			defer second.Close()

			got := second.Controller().Reminders()
			require.Len(t, got, 1)
			assert.Equal(t, added.ID, got[0].ID)
			assert.Equal(t, "stand up", got[0].Task)
		})
	}
}

func TestNonInteractiveAppDoesNotArm(t *testing.T) {
	cfg := testConfig(t, "memory")
	cfg.Notifications.Enabled = true
	app, err := NewApp(cfg, quietOptions(false))
	require.NoError(t, err)
	require.NoError(t, app.Start(context.Background(), false))
	defer app.Close()

	assert.False(t, app.Controller().NotificationsEnabled())
	_, err = app.Controller().Submit(context.Background(), "x", time.Now().Add(time.Hour).Format(timeutil.InputLayout))
	require.NoError(t, err)
	assert.Zero(t, app.gateway.Pending())
}

func TestInteractiveAppEnablesAndRearms(t *testing.T) {
	cfg := testConfig(t, "file")
	ctx := context.Background()
	when := time.Now().Add(2 * time.Hour).Format(timeutil.InputLayout)

	seed, err := NewApp(cfg, quietOptions(false))
	require.NoError(t, err)
	require.NoError(t, seed.Start(ctx, false))
	_, err = seed.Controller().Submit(ctx, "later", when)
	require.NoError(t, err)
	require.NoError(t, seed.Close())

	cfg.Notifications.Enabled = true
	cfg.Notifications.RearmOnStart = true
	cfg.UI.Watch = false
	app, err := NewApp(cfg, quietOptions(true))
	require.NoError(t, err)
	require.NoError(t, app.Start(ctx, true))
	defer app.Close()

	assert.True(t, app.Controller().NotificationsEnabled())
	assert.Equal(t, 1, app.gateway.Pending())
}

func TestInteractiveAppSeesExternalWrites(t *testing.T) {
	cfg := testConfig(t, "file")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := NewApp(cfg, quietOptions(true))
	require.NoError(t, err)
	require.NoError(t, app.Start(ctx, true))
	defer app.Close()
	require.NotNil(t, app.watcher)

	other, err := NewApp(cfg, quietOptions(false))
	require.NoError(t, err)
	require.NoError(t, other.Start(ctx, false))
	_, err = other.Controller().Submit(ctx, "from elsewhere", time.Now().Add(time.Hour).Format(timeutil.InputLayout))
	require.NoError(t, err)
	require.NoError(t, other.Close())

	var latest []model.Reminder
	require.Eventually(t, func() bool {
		select {
		case latest = <-app.Changes():
		default:
		}
		return len(latest) == 1
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, "from elsewhere", latest[0].Task)
}

func TestServingAppKeepsOtherProcessWrites(t *testing.T) {
	cfg := testConfig(t, "sqlite")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := quietOptions(false)
	opts.Serve = true
	served, err := NewApp(cfg, opts)
	require.NoError(t, err)
	require.NoError(t, served.Start(ctx, false))
	defer served.Close()
	require.NotNil(t, served.watcher)
	require.Empty(t, served.Controller().Reminders())

	other, err := NewApp(cfg, quietOptions(false))
	require.NoError(t, err)
	require.NoError(t, other.Start(ctx, false))
	_, err = other.Controller().Submit(ctx, "from cli", time.Now().Add(time.Hour).Format(timeutil.InputLayout))
	require.NoError(t, err)
	require.NoError(t, other.Close())

	_, err = served.Controller().Submit(ctx, "from mcp", time.Now().Add(2*time.Hour).Format(timeutil.InputLayout))
	require.NoError(t, err)

	check, err := NewApp(cfg, quietOptions(false))
	require.NoError(t, err)
	require.NoError(t, check.Start(ctx, false))
	defer check.Close()
	tasks := func(items []model.Reminder) []string {
		out := make([]string, 0, len(items))
		for _, r := range items {
			out = append(out, r.Task)
		}
		return out
	}
	assert.Equal(t, []string{"from cli", "from mcp"}, tasks(check.Controller().Reminders()))

	late, err := NewApp(cfg, quietOptions(false))
	require.NoError(t, err)
	require.NoError(t, late.Start(ctx, false))
	_, err = late.Controller().Submit(ctx, "later still", time.Now().Add(3*time.Hour).Format(timeutil.InputLayout))
	require.NoError(t, err)
	require.NoError(t, late.Close())

	require.Eventually(t, func() bool {
		return len(served.Controller().Reminders()) == 3
	}, 3*time.Second, 20*time.Millisecond)
}

func TestForwardKeepsNewestSnapshot(t *testing.T) {
	app := &App{changes: make(chan []model.Reminder, 1)}
	app.forward([]model.Reminder{{ID: "a"}})
	app.forward([]model.Reminder{{ID: "b"}})
	got := <-app.Changes()
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCLIAddListDelete(t *testing.T) {
	dir := t.TempDir()
	base := []string{
		"--config", filepath.Join(dir, "none.yaml"),
		"--driver", "file",
		"--db", filepath.Join(dir, "reminders.json"),
		"--log-level", "error",
	}
	with := func(extra ...string) []string {
		return append(append([]string{}, base...), extra...)
	}

	when := time.Now().Add(3 * time.Hour).Format(timeutil.InputLayout)
	out, err := runCLI(t, with("add", "--at", when, "buy", "milk")...)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Reminder set for "), out)

	out, err = runCLI(t, with("list")...)
	require.NoError(t, err)
	assert.Contains(t, out, "buy milk")

	_, err = runCLI(t, with("add", "--at", "yesterday noon-ish", "nope")...)
	require.Error(t, err)

	out, err = runCLI(t, with("list", "--json")...)
	require.NoError(t, err)
	assert.Contains(t, out, `"task": "buy milk"`)

	start := strings.Index(out, `"id": "`) + len(`"id": "`)
	id := out[start : start+8]
	out, err = runCLI(t, with("delete", id)...)
	require.NoError(t, err)
	assert.Contains(t, out, `Deleted "buy milk"`)

	out, err = runCLI(t, with("ls")...)
	require.NoError(t, err)
	assert.Contains(t, out, "no reminders")
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "remindd version "+Version)
}
