// Package app assembles the helpdesk backend shared by the API server and
// the terminal client.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/liststore"
	"github.com/spec-kit/helpdesk/internal/liststore/memory"
	"github.com/spec-kit/helpdesk/internal/liststore/postgres"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/seed"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/worker"
)

// Backend holds the wired services and the resources behind them.
type Backend struct {
	Config     *config.Config
	Logger     *zap.Logger
	Clock      clockwork.Clock
	Metrics    *observability.Metrics
	Store      liststore.Store
	Redis      *persistence.Redis
	Dispatcher events.Dispatcher
	Users      repository.UserRepository
	Tickets    *service.TicketService
	Categories *service.CategoryService
	Notifier   *worker.NotificationWorker

	postgres *persistence.Postgres
	started  bool
}

// NewBackend opens the list store named by cfg and wires the services on
// it. Without a Postgres DSN the in-memory store is used, seeded with
// demo data when enabled. Start must be called to deliver notifications.
func NewBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Backend, error) {
	loc, err := cfg.ListStore.Location()
	if err != nil {
		return nil, err
	}
	b := &Backend{
		Config:     cfg,
		Logger:     logger,
		Clock:      clockwork.NewRealClock(),
		Metrics:    observability.NewMetrics(),
		Dispatcher: events.NewInMemoryDispatcher(),
	}
	titles := repository.ListTitles{
		Tickets:    cfg.ListStore.TicketsList,
		Categories: cfg.ListStore.CategoriesList,
		Users:      cfg.ListStore.UsersList,
	}

	b.postgres, err = persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connecting postgres: %w", err)
	}
	if pool := b.postgres.PoolHandle(); pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, cfg.Postgres.MigrationsDir, logger); err != nil {
				b.Close()
				return nil, fmt.Errorf("running migrations: %w", err)
			}
		}
		b.Store = postgres.New(pool, titles.Schema())
		logger.Info("using postgres list store")
	} else {
		b.Store = memory.New(titles.Schema(), b.Clock)
		logger.Info("using in-memory list store")
	}

	ticketRepo := repository.NewTicketRepository(b.Store, repository.TicketRepositoryOptions{
		ListTitle:    titles.Tickets,
		CountCeiling: cfg.ListStore.CountCeiling,
		Location:     loc,
	}, logger)

	if b.postgres.PoolHandle() == nil && cfg.ListStore.SeedDemo {
		if _, err := seed.Run(ctx, b.Store, ticketRepo, seed.Options{Titles: titles, Clock: b.Clock, Logger: logger}); err != nil {
			b.Close()
			return nil, fmt.Errorf("seeding demo data: %w", err)
		}
	}

	b.Redis = persistence.NewRedis(cfg.Redis, logger)
	var cache service.CategoryCache
	if b.Redis.Enabled() {
		cache = persistence.NewCategoryCache(b.Redis.Client, cfg.App.Name+":categories:")
	}

	b.Users = repository.NewUserRepository(b.Store, titles.Users)
	b.Categories = service.NewCategoryService(
		repository.NewCategoryRepository(b.Store, titles.Categories),
		cache, cfg.Categories.CacheTTL, logger)
	b.Tickets = service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		Dispatcher: b.Dispatcher,
		Clock:      b.Clock,
		Metrics:    b.Metrics,
		Logger:     logger,
	})

	notifications := service.NewNotificationService(logger, cfg.Notification)
	b.Notifier = worker.NewNotificationWorker(notifications, cfg.Notification.QueueSize, logger, b.Metrics)
	b.Notifier.Subscribe(b.Dispatcher)
	return b, nil
}

// Location is the configured calendar for date filters.
func (b *Backend) Location() *time.Location {
	loc, err := b.Config.ListStore.Location()
	if err != nil {
		return time.UTC
	}
	return loc
}

// Start runs the notification worker until ctx is cancelled.
func (b *Backend) Start(ctx context.Context) {
	b.started = true
	b.Notifier.Start(ctx)
}

// Close waits for queued notifications and releases connections. Cancel
// the context passed to Start first.
func (b *Backend) Close() {
	if b.started {
		b.Notifier.Wait()
	}
	b.Redis.Close()
	b.postgres.Close()
}
