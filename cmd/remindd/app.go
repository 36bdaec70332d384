package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sandeepkv93/remindd/internal/config"
	"github.com/sandeepkv93/remindd/internal/controller"
	"github.com/sandeepkv93/remindd/internal/model"
	"github.com/sandeepkv93/remindd/internal/notify"
	"github.com/sandeepkv93/remindd/internal/reminders"
	"github.com/sandeepkv93/remindd/internal/storage"
)

// App wires storage, notifications and the controller for one process.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	logFile io.Closer
	mirror  storage.Mirror
	store   *reminders.Store
	gateway *notify.Gateway
	ctl     *controller.Controller
	watcher *storage.Watcher

	serve       bool
	changes     chan []model.Reminder
	unsubscribe func()
}

type AppOptions struct {
	// Interactive processes log to the configured file and arm notifications.
	Interactive bool
	// Serve marks long-lived non-interactive processes that follow the mirror.
	Serve     bool
	Host      notify.Host
	LogOutput io.Writer
}

func NewApp(cfg *config.Config, opts AppOptions) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	app := &App{cfg: cfg, serve: opts.Serve}
	logger, closer, err := newLogger(cfg.Log, opts)
	if err != nil {
		return nil, err
	}
	app.logger = logger
	app.logFile = closer

	mirror, err := storage.Open(storage.Driver(cfg.Storage.Driver), cfg.Storage.Path)
	if err != nil {
		app.closeLog()
		return nil, fmt.Errorf("open storage: %w", err)
	}
	app.mirror = mirror
	app.store = reminders.New(mirror, reminders.Options{Key: cfg.Storage.Key, Logger: logger})

	host := opts.Host
	if host == nil {
		host = notify.NewDesktopHost(opts.Interactive && cfg.Notifications.Enabled)
	}
	app.gateway = notify.NewGateway(notify.GatewayConfig{
		Host:   host,
		Icon:   cfg.Notifications.Icon,
		Buffer: cfg.Notifications.Buffer,
		Logger: logger,
	})
	if !opts.Interactive {
		// One-shot commands exit before any timer could fire.
		app.gateway.SetEnabled(false)
	}
	app.ctl = controller.New(app.store, app.gateway, controller.Options{
		Title:          cfg.Notifications.Title,
		CancelOnDelete: cfg.Notifications.CancelOnDelete,
		Logger:         logger,
	})
	return app, nil
}

// Start loads the collection. Interactive processes also start the
// notification engine; interactive and serving processes watch the mirror.
func (a *App) Start(ctx context.Context, interactive bool) error {
	a.store.Load(ctx)
	a.logger.Info("reminders loaded", "count", a.store.Len(), "driver", a.cfg.Storage.Driver)
	if interactive {
		a.gateway.Start(ctx)
		if a.cfg.Notifications.Enabled {
			if err := a.ctl.EnableNotifications(ctx); err != nil {
				a.logger.Warn("notifications unavailable", "error", err)
			}
		}
		if a.cfg.Notifications.RearmOnStart {
			a.ctl.RearmPending(ctx)
		}
		a.changes = make(chan []model.Reminder, 1)
		a.unsubscribe = a.ctl.Subscribe(a.forward)
	}
	if !interactive && !a.serve {
		return nil
	}
	return a.watch(ctx)
}

func (a *App) watch(ctx context.Context) error {
	if !a.cfg.UI.Watch {
		return nil
	}
	pathed, ok := a.mirror.(interface{ Path() string })
	if !ok {
		return nil
	}
	path := pathed.Path()
	w, err := storage.NewWatcher(storage.WatcherConfig{
		Path:     path,
		OnChange: func() { a.ctl.Reload(ctx) },
		Logger:   a.logger,
	})
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Start(ctx); err != nil {
		a.logger.Warn("mirror watch disabled", "path", path, "error", err)
		return nil
	}
	a.watcher = w
	return nil
}

// forward keeps only the newest snapshot when the UI falls behind.
func (a *App) forward(items []model.Reminder) {
	for {
		select {
		case a.changes <- items:
			return
		default:
		}
		select {
		case <-a.changes:
		default:
		}
	}
}

func (a *App) Controller() *controller.Controller {
	return a.ctl
}

func (a *App) Fired() <-chan notify.Fired {
	return a.gateway.Fired()
}

func (a *App) Changes() <-chan []model.Reminder {
	return a.changes
}

func (a *App) Logger() *slog.Logger {
	return a.logger
}

func (a *App) Close() error {
	var errs []error
	if a.watcher != nil {
		errs = append(errs, a.watcher.Stop())
	}
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	if a.gateway != nil {
		a.gateway.Close()
	}
	if a.mirror != nil {
		errs = append(errs, a.mirror.Close())
	}
	a.closeLog()
	return errors.Join(errs...)
}

func (a *App) closeLog() {
	if a.logFile != nil {
		_ = a.logFile.Close()
		a.logFile = nil
	}
}

func newLogger(cfg config.LogConfig, opts AppOptions) (*slog.Logger, io.Closer, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if opts.LogOutput != nil {
		return slog.New(slog.NewTextHandler(opts.LogOutput, handlerOpts)), nil, nil
	}
	if !opts.Interactive || cfg.File == "" {
		return slog.New(slog.NewTextHandler(os.Stderr, handlerOpts)), nil, nil
	}
	// The TUI owns the terminal, so interactive logs go to a file.
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return slog.New(slog.NewJSONHandler(f, handlerOpts)), f, nil
}
