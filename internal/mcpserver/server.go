package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sandeepkv93/remindd/internal/controller"
	"github.com/sandeepkv93/remindd/internal/model"
	"github.com/sandeepkv93/remindd/internal/timeutil"
)

const serverName = "remindd"

// Server exposes the reminder controller as MCP tools over stdio.
type Server struct {
	mcpServer *server.MCPServer
	ctl       *controller.Controller
	now       func() time.Time
}

func NewServer(ctl *controller.Controller, version string) *Server {
	s := &Server{ctl: ctl, now: time.Now}
	s.mcpServer = server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(false),
	)
	s.registerTools()
	return s
}

func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

type reminderView struct {
	ID        string `json:"id"`
	Task      string `json:"task"`
	DateTime  string `json:"dateTime"`
	Display   string `json:"display"`
	Remaining string `json:"remaining"`
}

func (s *Server) view(r model.Reminder) reminderView {
	return reminderView{
		ID:        r.ID,
		Task:      r.Task,
		DateTime:  r.DateTime.UTC().Format(model.WireLayout),
		Display:   timeutil.FormatForDisplay(r.DateTime),
		Remaining: timeutil.RemainingUntil(r.DateTime, s.now()).String(),
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("add_reminder",
			mcp.WithDescription("Add a reminder for a task at a future date and time"),
			mcp.WithString("task", mcp.Required(), mcp.Description("What to be reminded about")),
			mcp.WithString("date_time", mcp.Required(), mcp.Description("When, e.g. 2026-02-10T09:00 (local) or RFC3339")),
		),
		s.handleAddReminder,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_reminders",
			mcp.WithDescription("List reminders in chronological order"),
			mcp.WithBoolean("include_past", mcp.Description("Include reminders whose time has passed (default: false)")),
		),
		s.handleListReminders,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("delete_reminder",
			mcp.WithDescription("Delete a reminder; the most recent delete can be undone"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Reminder ID or unique prefix")),
		),
		s.handleDeleteReminder,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("undo_delete",
			mcp.WithDescription("Restore the most recently deleted reminder"),
		),
		s.handleUndoDelete,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("time_remaining",
			mcp.WithDescription("Show how long until a reminder is due"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Reminder ID or unique prefix")),
		),
		s.handleTimeRemaining,
	)
}

func (s *Server) handleAddReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	task := req.GetString("task", "")
	when := req.GetString("date_time", "")

	r, err := s.ctl.Submit(ctx, task, when)
	if err != nil {
		return mcp.NewToolResultError(validationMessage(err)), nil
	}
	output, _ := json.MarshalIndent(s.view(r), "", "  ")
	return mcp.NewToolResultText(string(output)), nil
}

func (s *Server) handleListReminders(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items := s.ctl.Upcoming()
	if req.GetBool("include_past", false) {
		items = s.ctl.Reminders()
	}
	if len(items) == 0 {
		return mcp.NewToolResultText("No reminders found."), nil
	}
	views := make([]reminderView, 0, len(items))
	for _, r := range items {
		views = append(views, s.view(r))
	}
	output, _ := json.MarshalIndent(views, "", "  ")
	return mcp.NewToolResultText(string(output)), nil
}

func (s *Server) handleDeleteReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}
	removed, err := s.ctl.Delete(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete reminder: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Reminder %q deleted. Call undo_delete to restore it.", removed.Task)), nil
}

func (s *Server) handleUndoDelete(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	restored, ok, err := s.ctl.Undo(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to undo: %v", err)), nil
	}
	if !ok {
		return mcp.NewToolResultText("Nothing to undo."), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Reminder %q restored.", restored.Task)), nil
}

func (s *Server) handleTimeRemaining(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}
	r, err := s.ctl.Get(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to find reminder: %v", err)), nil
	}
	rem := timeutil.RemainingUntil(r.DateTime, s.now())
	if rem.IsZero() {
		return mcp.NewToolResultText(fmt.Sprintf("%q is due now or past due.", r.Task)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%q is due in %s (%d minutes).", r.Task, rem, rem.TotalMinutes)), nil
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrEmptyTask):
		return "task is required"
	case errors.Is(err, model.ErrMissingDateTime):
		return "date_time is required"
	case errors.Is(err, model.ErrInvalidOrPastDateTime):
		return fmt.Sprintf("date_time must be a valid future date and time: %v", err)
	default:
		return fmt.Sprintf("failed to add reminder: %v", err)
	}
}
