package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/authgate/auth-service/internal/api/http"
	"github.com/authgate/auth-service/internal/api/http/handlers"
	"github.com/authgate/auth-service/internal/auth"
	"github.com/authgate/auth-service/internal/config"
	"github.com/authgate/auth-service/internal/events"
	"github.com/authgate/auth-service/internal/observability"
	"github.com/authgate/auth-service/internal/persistence"
	"github.com/authgate/auth-service/internal/repository"
	"github.com/authgate/auth-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Unusable key material must abort startup before any request is served.
	keys, err := auth.LoadKeyMaterial(cfg.Auth, logger)
	if err != nil {
		logger.Fatal("failed to load key material", zap.Error(err))
	}
	codec := auth.NewTokenCodec(keys, cfg.Auth, logger)

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	subscribeAuditListeners(dispatcher, logger, metrics)

	users := repository.NewCachedUserStore(
		repository.NewUserStore(pg.PoolHandle()),
		redis.Client,
		cfg.Redis.UserCacheTTL(),
		logger,
	)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		Users:      users,
		Validator:  service.NewCredentialValidator(users),
		Codec:      codec,
		Dispatcher: dispatcher,
	}, logger)

	gate := auth.NewGate(codec, users, dispatcher, cfg.App.BasePath, cfg.Auth.ExemptPathPrefixes, logger)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		BasePath: cfg.App.BasePath,
		Health:   handlers.NewHealthHandler(pg, redis),
		Auth:     handlers.NewAuthHandler(authService),
		Gate:     gate,
		Logger:   logger,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

// subscribeAuditListeners wires the audit log and counters onto the event bus.
func subscribeAuditListeners(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) {
	logEvent := func(_ context.Context, event events.Event) error {
		logger.Info("audit event",
			zap.String("event", string(event.Type)),
			zap.String("subject", event.Subject),
			zap.String("origin", event.Origin),
			zap.Any("payload", event.Payload),
		)
		metrics.RecordAuthOutcome(string(event.Type))
		return nil
	}

	for _, eventType := range []events.EventType{
		events.EventUserRegistered,
		events.EventLoginSucceeded,
		events.EventLoginFailed,
		events.EventTokenRefreshed,
		events.EventAuthenticationRejected,
	} {
		dispatcher.Subscribe(eventType, logEvent)
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
