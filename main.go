package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"movieflix/cache"
	"movieflix/config"
	"movieflix/db"
	"movieflix/handlers"
	"movieflix/repository"
	"movieflix/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	gin.SetMode(gin.ReleaseMode)
	return zap.NewProduction()
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	features := config.LoadFeatures()
	logger.Info("booting",
		zap.String("env", cfg.Environment),
		zap.String("storage", cfg.Storage),
		zap.Bool("payments", features.PaymentsEnabled),
		zap.Bool("catalog", features.CatalogEnabled),
		zap.Bool("sweeper", features.SweeperEnabled),
	)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	catalogCache, err := openCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer catalogCache.Close()

	tokens := services.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	logSender := services.NewLogSender(logger.Named("passcodes"))

	h := handlers.New(handlers.Deps{
		Identity: services.NewIdentityService(store, tokens, logger),
		Passcodes: services.NewPasscodeService(store, tokens, newMailSender(cfg, logger, logSender), logSender,
			services.PasscodeOptions{TTL: cfg.OTPTTL, Length: cfg.OTPLength, Development: cfg.IsDevelopment()}, logger),
		Billing: services.NewBillingService(store,
			services.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret),
			services.NewSlackNotifier(cfg.SlackWebhookURL, logger.Named("slack")),
			cfg.Currency, logger),
		Catalog: services.NewMovieCatalog(cfg.TMDBBaseURL, cfg.TMDBAPIKey, catalogCache, cfg.CacheTTL, logger.Named("tmdb")),
		Store:   store,
		Logger:  logger,
	})

	router := handlers.NewRouter(h, tokens, handlers.RouterOptions{
		RateLimitRPM:   cfg.RateLimitRPM,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Features:       features,
	}, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	if features.SweeperEnabled {
		sweeper := services.NewSweeper(store.Passcodes(), cfg.SweepInterval, logger.Named("sweeper"))
		g.Go(func() error { return sweeper.Run(gctx) })
	}

	return g.Wait()
}

func openStore(ctx context.Context, cfg config.Config) (repository.Manager, func(), error) {
	if cfg.Storage == config.StorageMemory {
		return repository.NewMemoryManager(), func() {}, nil
	}

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return repository.NewPostgresManager(conn), func() { _ = conn.Close() }, nil
}

func openCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	if cfg.CacheBackend == config.CacheRedis {
		client, err := cache.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return cache.NewRedis(client, "movieflix:tmdb:"), nil
	}
	return cache.NewMemory(time.Minute), nil
}

func newMailSender(cfg config.Config, logger *zap.Logger, fallback services.PasscodeSender) services.PasscodeSender {
	switch cfg.MailProvider {
	case config.MailSendGrid:
		return services.NewSendGridSender(cfg.SendGridAPIKey, cfg.MailFrom, cfg.MailFromName, logger.Named("sendgrid"))
	case config.MailSMTP:
		return services.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom, cfg.MailFromName)
	default:
		return fallback
	}
}
