package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/khaldi-abdarhmane/user-management-microservice/internal/api/http"
	"github.com/khaldi-abdarhmane/user-management-microservice/internal/api/http/handlers"
	"github.com/khaldi-abdarhmane/user-management-microservice/internal/auth"
	"github.com/khaldi-abdarhmane/user-management-microservice/internal/config"
	"github.com/khaldi-abdarhmane/user-management-microservice/internal/directory"
	"github.com/khaldi-abdarhmane/user-management-microservice/internal/domain"
	"github.com/khaldi-abdarhmane/user-management-microservice/internal/events"
	"github.com/khaldi-abdarhmane/user-management-microservice/internal/observability"
	"github.com/khaldi-abdarhmane/user-management-microservice/internal/persistence"
	"github.com/khaldi-abdarhmane/user-management-microservice/internal/repository"
	"github.com/khaldi-abdarhmane/user-management-microservice/internal/service"
	"github.com/khaldi-abdarhmane/user-management-microservice/internal/tokenstore"
	"github.com/khaldi-abdarhmane/user-management-microservice/internal/worker"
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

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	roleRepo := repository.NewRoleRepository(pool)

	// The service cannot operate without its role table populated.
	if err := roleRepo.Seed(ctx, cfg.Roles.Available); err != nil {
		logger.Fatal("failed to seed roles", zap.Error(err))
	}
	if roles, err := roleRepo.List(ctx); err == nil {
		names := make([]string, 0, len(roles))
		for _, role := range roles {
			names = append(names, role.Name)
		}
		logger.Info("role table ready", zap.Strings("roles", names))
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()
	tokens := tokenstore.NewRedisStore(redis.Client)

	directoryClient, err := directory.NewAMQPClient(cfg.AMQP, logger)
	if err != nil {
		logger.Fatal("failed to connect to customer directory broker", zap.Error(err))
	}
	defer directoryClient.Close() //nolint:errcheck

	codec, err := auth.NewTokenCodec(cfg.Auth.PrivateKeyPEM, cfg.Auth.PublicKeyPEM, cfg.Auth.TokenAudience)
	if err != nil {
		logger.Fatal("failed to load signing keys", zap.Error(err))
	}
	strategy := auth.NewStrategy(codec, userRepo, cfg.Auth.TokenLifetime())
	transport := auth.NewBearerTransport()
	authMiddleware := auth.NewAuthMiddleware(strategy)

	roleSets := domain.RoleSets{
		Available:   cfg.Roles.Available,
		Registrable: cfg.Roles.Registrable,
		Customer:    cfg.Roles.Customer,
		API:         cfg.Roles.API,
	}

	// Staff roles are the available ones that are neither customers nor
	// machine callers; they alone may look up arbitrary users.
	var adminRoles []string
	for _, role := range cfg.Roles.Available {
		if roleSets.IsCustomer(role) || roleSets.IsAPI(role) {
			continue
		}
		adminRoles = append(adminRoles, role)
	}

	dispatcher := events.NewInMemoryDispatcher()

	loginService := service.NewLoginService(service.LoginDependencies{
		Users:      userRepo,
		Strategy:   strategy,
		Transport:  transport,
		Directory:  directoryClient,
		Roles:      roleSets,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	userService := service.NewUserService(service.UserDependencies{
		Users:      userRepo,
		Roles:      roleSets,
		Tokens:     tokens,
		Dispatcher: dispatcher,
		Logger:     logger,
		BcryptCost: cfg.Auth.BcryptCost,
		VerifyTTL:  time.Duration(cfg.Auth.VerifyTokenTTLMin) * time.Minute,
		ResetTTL:   time.Duration(cfg.Auth.ResetTokenTTLMin) * time.Minute,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis)
	authHandler := handlers.NewAuthHandler(loginService, userService)
	usersHandler := handlers.NewUsersHandler(userService)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         healthHandler,
		Auth:           authHandler,
		Users:          usersHandler,
		AuthMiddleware: authMiddleware,
		AdminRoles:     adminRoles,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
