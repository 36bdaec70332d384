package notify

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sandeepkv93/remindd/internal/scheduler"
)

type Handle string

const NoopHandle Handle = ""

type Fired struct {
	Handle    Handle
	Title     string
	Body      string
	Attempted bool
	At        time.Time
}

type GatewayConfig struct {
	Host   Host
	Icon   string
	Buffer int
	Logger *slog.Logger
	Now    func() time.Time
}

type Gateway struct {
	host   Host
	icon   string
	engine *scheduler.Engine
	logger *slog.Logger
	now    func() time.Time
	fired  chan Fired
	// fired events the consumer was too slow for
	missed atomic.Uint64

	mu      sync.Mutex
	enabled bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewGateway(cfg GatewayConfig) *Gateway {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = 64
	}
	host := cfg.Host
	if host == nil {
		host = NewMemoryHost(false, PermissionDenied)
	}
	g := &Gateway{
		host:   host,
		icon:   cfg.Icon,
		engine: scheduler.NewEngine(buffer),
		logger: logger,
		now:    now,
		fired:  make(chan Fired, buffer),
	}
	g.enabled = g.CheckPermission()
	return g
}

func (g *Gateway) Start(ctx context.Context) {
	g.mu.Lock()
	if g.done != nil {
		g.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	g.done = make(chan struct{})
	done := g.done
	g.mu.Unlock()

	g.engine.Start()
	go func() {
		defer close(done)
		for {
			select {
			case <-runCtx.Done():
				return
			case ev, ok := <-g.engine.C():
				if !ok {
					return
				}
				attempted := g.Dispatch(runCtx, ev.Title, ev.Body)
				select {
				case g.fired <- Fired{Handle: Handle(ev.ID), Title: ev.Title, Body: ev.Body, Attempted: attempted, At: g.now()}:
				default:
					g.missed.Add(1)
					g.logger.Warn("fired notification dropped", "handle", ev.ID)
				}
			}
		}
	}()
}

func (g *Gateway) Close() {
	g.engine.Stop()
	g.mu.Lock()
	cancel, done := g.cancel, g.done
	g.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
	if n := g.Dropped(); n > 0 {
		g.logger.Warn("notifications dropped", "count", n)
	}
}

// Dropped counts due events lost by the engine or the Fired stream.
func (g *Gateway) Dropped() uint64 {
	return g.engine.Dropped() + g.missed.Load()
}

// Sends on the stream never block.
func (g *Gateway) Fired() <-chan Fired {
	return g.fired
}

func (g *Gateway) CheckSupport() bool {
	return g.host.Supported()
}

func (g *Gateway) CheckPermission() bool {
	return g.host.Supported() && g.host.Permission() == PermissionGranted
}

func (g *Gateway) RequestPermission(ctx context.Context) bool {
	granted := false
	if g.host.Supported() {
		p, err := g.host.RequestPermission(ctx)
		if err != nil {
			g.logger.Warn("notification permission request failed", "error", err)
		}
		granted = err == nil && p == PermissionGranted
	}
	g.SetEnabled(granted)
	return granted
}

func (g *Gateway) Enabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.enabled
}

func (g *Gateway) SetEnabled(enabled bool) {
	g.mu.Lock()
	g.enabled = enabled
	g.mu.Unlock()
}

// Dispatch reports whether a show was attempted. Host failures are logged.
func (g *Gateway) Dispatch(ctx context.Context, title, body string) bool {
	if !g.CheckPermission() {
		return false
	}
	if err := g.host.Show(ctx, Notification{Title: title, Body: body, Icon: g.icon}); err != nil {
		g.logger.Warn("notification dispatch failed", "title", title, "error", err)
	}
	return true
}

// ScheduleOneShot returns NoopHandle for instants that are not in the future.
func (g *Gateway) ScheduleOneShot(title, body string, at time.Time) Handle {
	delay := at.Sub(g.now())
	if delay <= 0 {
		return NoopHandle
	}
	h := Handle(uuid.NewString())
	err := g.engine.Schedule(scheduler.Event{
		ID:        string(h),
		Title:     title,
		Body:      body,
		TriggerAt: time.Now().Add(delay),
	})
	if err != nil {
		g.logger.Warn("schedule notification failed", "title", title, "error", err)
		return NoopHandle
	}
	g.logger.Debug("notification scheduled", "handle", h, "delay", delay.String())
	return h
}

func (g *Gateway) Cancel(h Handle) {
	if h == NoopHandle {
		return
	}
	if g.engine.Cancel(string(h)) {
		g.logger.Debug("notification cancelled", "handle", h)
	}
}

func (g *Gateway) Pending() int {
	return g.engine.Pending()
}
