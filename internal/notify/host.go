package notify

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"
)

var (
	ErrNotificationUnsupported      = errors.New("notify: notifications are not supported on this host")
	ErrNotificationPermissionDenied = errors.New("notify: notification permission denied")
)

type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

type Notification struct {
	Title string
	Body  string
	Icon  string
}

type Host interface {
	Supported() bool
	Permission() Permission
	RequestPermission(ctx context.Context) (Permission, error)
	Show(ctx context.Context, n Notification) error
}

// DesktopHost uses notify-send on Linux and osascript on macOS.
type DesktopHost struct {
	mu         sync.Mutex
	goos       string
	binary     string
	permission Permission
}

// NewDesktopHost starts out permitted when granted is set and a helper exists.
func NewDesktopHost(granted bool) *DesktopHost {
	h := &DesktopHost{goos: runtime.GOOS, permission: PermissionDefault}
	switch h.goos {
	case "linux":
		h.binary = lookPath("notify-send")
	case "darwin":
		h.binary = lookPath("osascript")
	}
	if granted && h.binary != "" {
		h.permission = PermissionGranted
	}
	return h
}

func lookPath(name string) string {
	p, err := exec.LookPath(name)
	if err != nil {
		return ""
	}
	return p
}

func (h *DesktopHost) Supported() bool {
	return h.binary != ""
}

func (h *DesktopHost) Permission() Permission {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.permission
}

func (h *DesktopHost) RequestPermission(_ context.Context) (Permission, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.binary == "" {
		h.permission = PermissionDenied
		return h.permission, nil
	}
	h.permission = PermissionGranted
	return h.permission, nil
}

func (h *DesktopHost) Show(ctx context.Context, n Notification) error {
	if h.binary == "" {
		return ErrNotificationUnsupported
	}
	var cmd *exec.Cmd
	switch h.goos {
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(n.Body), escapeAppleScript(n.Title))
		cmd = exec.CommandContext(ctx, h.binary, "-e", script)
	default:
		args := []string{"--app-name=remindd"}
		if strings.TrimSpace(n.Icon) != "" {
			args = append(args, "--icon="+n.Icon)
		}
		args = append(args, n.Title, n.Body)
		cmd = exec.CommandContext(ctx, h.binary, args...)
	}
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("notify: %s: %w: %s", h.binary, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// MemoryHost records notifications instead of showing them.
type MemoryHost struct {
	mu            sync.Mutex
	supported     bool
	permission    Permission
	answer        Permission
	requestErr    error
	showErr       error
	requests      int
	shown         []Notification
	notifications chan Notification
}

func NewMemoryHost(supported bool, permission Permission) *MemoryHost {
	answer := PermissionGranted
	if !supported {
		answer = PermissionDenied
	}
	return &MemoryHost{
		supported:     supported,
		permission:    permission,
		answer:        answer,
		notifications: make(chan Notification, 64),
	}
}

// Answer sets what the next permission request resolves to.
func (h *MemoryHost) Answer(p Permission, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.answer = p
	h.requestErr = err
}

func (h *MemoryHost) FailShow(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.showErr = err
}

func (h *MemoryHost) Supported() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.supported
}

func (h *MemoryHost) Permission() Permission {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.permission
}

func (h *MemoryHost) RequestPermission(_ context.Context) (Permission, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requests++
	if h.requestErr != nil {
		return h.permission, h.requestErr
	}
	h.permission = h.answer
	return h.permission, nil
}

func (h *MemoryHost) Show(_ context.Context, n Notification) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.showErr != nil {
		return h.showErr
	}
	h.shown = append(h.shown, n)
	select {
	case h.notifications <- n:
	default:
	}
	return nil
}

func (h *MemoryHost) Requests() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.requests
}

func (h *MemoryHost) Shown() []Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Notification(nil), h.shown...)
}

func (h *MemoryHost) Notifications() <-chan Notification {
	return h.notifications
}
