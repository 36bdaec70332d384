// Command remindd is a single-user reminder widget for the terminal. The
// default command opens the interactive UI; subcommands script the same
// reminder collection and expose it over MCP.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/remindd/internal/config"
	"github.com/sandeepkv93/remindd/internal/mcpserver"
	"github.com/sandeepkv93/remindd/internal/model"
	"github.com/sandeepkv93/remindd/internal/timeutil"
	"github.com/sandeepkv93/remindd/internal/update"
	"github.com/spf13/cobra"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "remindd"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
	logLevel   string
	driver     string
	dbPath     string
}

func rootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Terminal reminder widget",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), flags)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", config.DefaultConfigPath, "Config file path (YAML)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&flags.driver, "driver", "", "Storage driver (sqlite, file, memory)")
	pf.StringVar(&flags.dbPath, "db", "", "Storage path")

	cmd.AddCommand(
		addCmd(flags),
		listCmd(flags),
		deleteCmd(flags),
		mcpCmd(flags),
		versionCmd(),
	)
	return cmd
}

func loadConfig(flags *rootFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.driver != "" {
		cfg.Storage.Driver = flags.driver
	}
	if flags.dbPath != "" {
		cfg.Storage.Path = flags.dbPath
	}
	return cfg, nil
}

func openApp(ctx context.Context, flags *rootFlags, opts AppOptions) (*App, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	app, err := NewApp(cfg, opts)
	if err != nil {
		return nil, err
	}
	if err := app.Start(ctx, opts.Interactive); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runTUI(parent context.Context, flags *rootFlags) error {
	ctx, stop := signalContext(parent)
	defer stop()

	app, err := openApp(ctx, flags, AppOptions{Interactive: true})
	if err != nil {
		return err
	}
	defer app.Close()

	program := tea.NewProgram(update.NewModel(update.Options{
		Controller: app.Controller(),
		Fired:      app.Fired(),
		Changes:    app.Changes(),
	}), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("%s failed: %w", appName, err)
	}
	return nil
}

func addCmd(flags *rootFlags) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "add --at <date/time> <task...>",
		Short: "Set a reminder",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd.Context(), flags, AppOptions{})
			if err != nil {
				return err
			}
			defer app.Close()

			r, err := app.Controller().Submit(cmd.Context(), strings.Join(args, " "), at)
			if err != nil {
				return err
			}
			if werr := app.Controller().WriteError(); werr != nil {
				return werr
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reminder set for %s (%s)\n", timeutil.FormatForDisplay(r.DateTime), shortID(r.ID))
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "When to remind, e.g. 2026-03-01T09:30")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

func listCmd(flags *rootFlags) *cobra.Command {
	var (
		all    bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List upcoming reminders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp(cmd.Context(), flags, AppOptions{})
			if err != nil {
				return err
			}
			defer app.Close()

			items := app.Controller().Upcoming()
			if all {
				items = app.Controller().Reminders()
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			}
			return printReminders(cmd.OutOrStdout(), items)
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include reminders that are already due")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the stored JSON form")
	return cmd
}

func deleteCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a reminder by id or unique id prefix",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd.Context(), flags, AppOptions{})
			if err != nil {
				return err
			}
			defer app.Close()

			removed, err := app.Controller().Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if werr := app.Controller().WriteError(); werr != nil {
				return werr
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q\n", removed.Task)
			return nil
		},
	}
}

func mcpCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the reminder collection as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			// stdout carries the protocol, so logs stay on stderr.
			app, err := openApp(ctx, flags, AppOptions{Serve: true, LogOutput: os.Stderr})
			if err != nil {
				return err
			}
			defer app.Close()
			return mcpserver.NewServer(app.Controller(), Version).ServeStdio()
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	}
}

func printReminders(w io.Writer, items []model.Reminder) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "no reminders")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tIN\tTASK")
	now := time.Now()
	for _, r := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			shortID(r.ID),
			timeutil.FormatForDisplay(r.DateTime),
			timeutil.RemainingUntil(r.DateTime, now),
			r.Task,
		)
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
