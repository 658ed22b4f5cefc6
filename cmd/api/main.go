package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-bot/internal/api/http"
	"github.com/spec-kit/ticket-bot/internal/api/http/handlers"
	"github.com/spec-kit/ticket-bot/internal/access"
	"github.com/spec-kit/ticket-bot/internal/auth"
	"github.com/spec-kit/ticket-bot/internal/bot"
	"github.com/spec-kit/ticket-bot/internal/config"
	"github.com/spec-kit/ticket-bot/internal/configstore"
	"github.com/spec-kit/ticket-bot/internal/events"
	"github.com/spec-kit/ticket-bot/internal/gateway"
	"github.com/spec-kit/ticket-bot/internal/lock"
	"github.com/spec-kit/ticket-bot/internal/observability"
	"github.com/spec-kit/ticket-bot/internal/persistence"
	"github.com/spec-kit/ticket-bot/internal/repository"
	"github.com/spec-kit/ticket-bot/internal/service"
	"github.com/spec-kit/ticket-bot/internal/worker"
	"github.com/spec-kit/ticket-bot/migrations"
)

func main() {
	if len(os.Args) > 2 && os.Args[1] == "hash-password" {
		hash, err := auth.HashPassword(os.Args[2])
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), migrations.FS, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var (
		ticketRepo  repository.TicketRepository
		historyRepo repository.TicketEventRepository
		configs     configstore.Store
	)
	if pg.Enabled() {
		pool := pg.PoolHandle()
		ticketRepo = repository.NewTicketRepository(pool)
		historyRepo = repository.NewTicketEventRepository(pool)
		configs = configstore.NewRepositoryStore(repository.NewWorkspaceConfigRepository(pool), logger)
	} else {
		ticketRepo = repository.NewMemoryTicketRepository()
		historyRepo = repository.NewMemoryTicketEventRepository()
		configs = configstore.NewFileStore(cfg.Tickets.ConfigFile, logger)
	}

	var locker lock.Locker = lock.NewMemoryLocker()
	if redis.Reachable() {
		configs = configstore.NewCachedStore(configs, redis.Client, cfg.Tickets.ConfigCacheTTL(), logger)
		locker = lock.NewRedisLocker(redis.Client, cfg.Tickets.LockTTL(), cfg.Tickets.LockWait(), logger)
	}

	policy := access.DefaultPolicy()
	if cfg.Tickets.DeleteAdminOnly {
		policy = policy.WithDeleteAdminOnly()
	}
	resolver := access.NewResolver(policy)

	session, err := gateway.NewDiscordSession(cfg.Discord.BotToken, cfg.Discord.RequestTimeout())
	if err != nil {
		logger.Fatal("failed to create discord session", zap.Error(err))
	}
	platform := gateway.NewDiscordGateway(session, logger)

	if cfg.Discord.SyncCommands {
		syncCtx, syncCancel := context.WithTimeout(ctx, 30*time.Second)
		if err := bot.RegisterCommands(syncCtx, session, cfg.Discord.ApplicationID, logger); err != nil {
			logger.Error("command sync failed", zap.Error(err))
		}
		syncCancel()
	}

	dispatcher := events.NewInMemoryDispatcher(logger)

	auditService := service.NewAuditService(service.AuditDependencies{
		Dispatcher:  dispatcher,
		Configs:     configs,
		Gateway:     platform,
		HistoryRepo: historyRepo,
		Logger:      logger,
		Metrics:     metrics,
	})
	worker.StartAuditWorker(auditService)

	if cfg.NATS.URL != "" {
		conn, err := events.ConnectNATS(cfg.NATS.URL, cfg.NATS.Token, logger)
		if err != nil {
			logger.Error("nats unavailable; lifecycle events stay in-process", zap.Error(err))
		} else {
			defer conn.Drain() //nolint:errcheck
			worker.StartEventBridge(events.NewNATSBridge(conn, cfg.NATS.SubjectPrefix, logger), dispatcher)
		}
	}

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		HistoryRepo: historyRepo,
		Configs:     configs,
		Gateway:     platform,
		Locker:      locker,
		Access:      resolver,
		Dispatcher:  dispatcher,
		Logger:      logger,
		Metrics:     metrics,
	})
	setupService := service.NewSetupService(service.SetupDependencies{
		Configs:          configs,
		Gateway:          platform,
		Access:           resolver,
		Logger:           logger,
		CategoryName:     cfg.Tickets.CategoryName,
		EntryChannelName: cfg.Tickets.EntryChannelName,
	})
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(cfg.Auth, tokens, logger)
	if !authService.Enabled() {
		logger.Warn("operator account not configured; operator API login is disabled")
	}

	router := bot.NewRouter(ticketService, setupService, platform, logger, cfg.Discord.RequestTimeout())
	interactionsHandler, err := handlers.NewInteractionsHandler(cfg.Discord.PublicKey, router, logger)
	if err != nil {
		logger.Fatal("invalid DISCORD_PUBLIC_KEY", zap.Error(err))
	}

	deps := map[string]handlers.Pinger{}
	if pg.Enabled() {
		deps["postgres"] = pg
	}
	if redis.Reachable() {
		deps["redis"] = redis
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps),
		Interactions:   interactionsHandler,
		Auth:           handlers.NewAuthHandler(authService),
		Workspaces:     handlers.NewWorkspacesHandler(setupService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Metrics:        handlers.MetricsHandler(metrics),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.ShutdownWithTimeout(10 * time.Second)
	router.Wait()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
