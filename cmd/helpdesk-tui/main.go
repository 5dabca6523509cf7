// helpdesk-tui is a terminal ticket list. It runs the helpdesk services in
// process against the configured list store; without a DSN it uses the
// seeded in-memory store.
package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/app"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/querystate"
	"github.com/spec-kit/helpdesk/internal/tui"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var dsn, link, logFile string
	var userID int

	flagSet := pflag.NewFlagSet("helpdesk-tui", pflag.ContinueOnError)
	flagSet.StringVar(&dsn, "dsn", "", "Postgres DSN (default: $POSTGRES_DSN, or the in-memory demo store)")
	flagSet.StringVar(&link, "url", "", "shared list link or query string to open")
	flagSet.IntVar(&userID, "user", 1, "id of the acting user")
	flagSet.StringVar(&logFile, "log-file", "", "write JSON logs to this file")
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if dsn != "" {
		cfg.Postgres.DSN = dsn
	}

	// The terminal belongs to the UI, so logs only go to a file.
	logger := zap.NewNop()
	if logFile != "" {
		if logger, err = observability.NewFileLogger(cfg.Logger, logFile); err != nil {
			return err
		}
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, err := app.NewBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	backend.Start(ctx)
	defer backend.Close()
	defer cancel()

	user, err := backend.Users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("loading user %d: %w", userID, err)
	}

	basePath, initial := parseLink(link)
	session := querystate.NewSession(querystate.SessionConfig{
		Tickets:    backend.Tickets.ActingAs(*user),
		Categories: backend.Categories,
		Clock:      backend.Clock,
		Debounce:   cfg.Query.Debounce,
		Location:   backend.Location(),
		Logger:     logger,
	})
	session.Start(ctx, initial)
	defer session.Close()

	model := tui.NewModel(session, tui.Options{
		BasePath: basePath,
		Location: backend.Location(),
		Now:      backend.Clock.Now,
	})
	_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

// parseLink accepts a full URL, a path with a query or a bare query
// string. The path is empty when link has none.
func parseLink(link string) (string, querystate.Params) {
	link = strings.TrimSpace(link)
	path, query, found := strings.Cut(link, "?")
	if !found {
		if strings.Contains(link, "=") {
			return "", querystate.ParseParams(link)
		}
		query = ""
	}
	if u, err := url.Parse(path); err == nil {
		path = u.Path
	}
	return path, querystate.ParseParams(query)
}
