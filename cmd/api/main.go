package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/octobees/prospecting-crm/api/internal/auth"
	"github.com/octobees/prospecting-crm/api/internal/config"
	"github.com/octobees/prospecting-crm/api/internal/database"
	"github.com/octobees/prospecting-crm/api/internal/handler"
	"github.com/octobees/prospecting-crm/api/internal/logging"
	middlewarepkg "github.com/octobees/prospecting-crm/api/internal/middleware"
	"github.com/octobees/prospecting-crm/api/internal/realtime"
	"github.com/octobees/prospecting-crm/api/internal/repository"
	"github.com/octobees/prospecting-crm/api/internal/router"
	"github.com/octobees/prospecting-crm/api/internal/service"
	"github.com/octobees/prospecting-crm/api/internal/status"
	"github.com/octobees/prospecting-crm/api/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("api stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	if cfg.RunMigrations {
		if err := database.Migrate(cfg.DatabaseURL); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	connectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := database.Connect(connectCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		return err
	}
	defer pool.Close()

	statuses, err := status.Load(cfg.StatusRankingFile)
	if err != nil {
		return err
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	usersRepo := repository.NewPGXUsersRepository(pool)
	companiesRepo := repository.NewPGXCompaniesRepository(pool)
	leadsRepo := repository.NewPGXLeadsRepository(pool)
	contactsRepo := repository.NewPGXContactsRepository(pool)
	personasRepo := repository.NewPGXPersonasRepository(pool)
	targetingsRepo := repository.NewPGXTargetingsRepository(pool)
	creditsRepo := repository.NewPGXCreditsRepository(pool)

	workerClient, err := worker.NewClient(nil, cfg.WorkerBaseURL)
	if err != nil {
		return err
	}

	ledger := service.NewCreditLedger(creditsRepo, cfg.DiscoveryCost, cfg.StartingCredits)
	sanitizer := service.NewContactSanitizer(cfg.PhoneRegion, service.WithSystemMXCheck())

	authService := service.NewAuthService(usersRepo, jwtManager, ledger)
	userService := service.NewUserService(usersRepo, ledger)
	companiesService := service.NewCompaniesService(companiesRepo, leadsRepo, contactsRepo, targetingsRepo, ledger, statuses)
	prospectsService := service.NewProspectsService(companiesRepo, leadsRepo, contactsRepo, statuses)
	leadsService := service.NewLeadsService(leadsRepo, companiesRepo)
	contactsService := service.NewContactsService(leadsRepo, contactsRepo, personasRepo, workerClient, sanitizer, ledger, statuses)
	personasService := service.NewPersonasService(personasRepo)
	targetingsService := service.NewTargetingsService(targetingsRepo)

	hub := realtime.NewHub(logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echoMiddleware.Recover())
	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging(logger))

	router.Register(e, cfg, jwtManager, router.Handlers{
		Auth:        handler.NewAuthHandler(authService, cfg.TokenTTL),
		Users:       handler.NewUserAdminHandler(userService),
		Companies:   handler.NewCompaniesHandler(companiesService),
		AdminUpload: handler.NewAdminUploadHandler(companiesService),
		Prospects:   handler.NewProspectsHandler(prospectsService, leadsService),
		Contacts:    handler.NewContactsHandler(contactsService),
		Personas:    handler.NewPersonasHandler(personasService),
		Targetings:  handler.NewTargetingsHandler(targetingsService),
		Credits:     handler.NewCreditsHandler(ledger),
		Signals:     handler.NewSignalsHandler(leadsService),
		Realtime:    handler.NewRealtimeHandler(hub),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return realtime.NewListener(pool, realtime.LeadChannel, hub, logger).Run(gctx)
	})
	g.Go(func() error {
		logger.Info("api listening", zap.String("port", cfg.Port))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown failed", zap.Error(err))
		}
		return nil
	})

	return g.Wait()
}
