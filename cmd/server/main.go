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

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"medbook/docs"
	"medbook/internal/auth"
	"medbook/internal/cache"
	"medbook/internal/config"
	"medbook/internal/db"
	"medbook/internal/handler"
	"medbook/internal/logging"
	"medbook/internal/middleware"
	"medbook/internal/notify"
	"medbook/internal/router"
	"medbook/internal/service"
)

// @title medbook API
// @version 1.0
// @description Appointment booking for patients and doctors with refresh-token sessions.
// @host localhost:8080
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	rootCmd := &cobra.Command{
		Use:   "medbook",
		Short: "Appointment booking API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			_, closeStore, err := db.OpenStore(cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()
			fmt.Println("Schema is up to date.")
			return nil
		},
	}
}

func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	cfg.ApplyDevSecrets()
	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("invalid config: %w", err)
	}
	return cfg, logging.New(cfg.Env, cfg.LogLevel), nil
}

func runServer() error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	store, closeStore, err := db.OpenStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("database init: %w", err)
	}
	defer closeStore()

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
	if err := cacheClient.Ping(pingCtx); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, actor cache disabled until it recovers")
	}
	cancelPing()

	notifications, err := os.OpenFile(cfg.NotificationsFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open notifications file: %w", err)
	}
	defer notifications.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reminders := notify.NewFileScheduler(notifications, logger)
	go reminders.Run(ctx)

	tokens := auth.NewTokenIssuer(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	// Initialize services
	identity := service.NewIdentityService(store.Users, store.Sessions, tokens, cacheClient, cfg.PasswordCost, logger)
	bookings := service.NewBookingService(store.Appointments, identity, reminders, service.BookingOptions{
		Capacity:     cfg.DailyCapacity,
		UpcomingOnly: cfg.UpcomingOnly,
		Production:   cfg.IsProduction(),
	}, logger)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	defer limiter.Close()

	deps := router.Deps{
		Logger:       logger,
		Verifier:     tokens,
		Limiter:      limiter,
		Auth:         handler.NewAuthHandler(identity, cfg.RefreshCookieMaxAge),
		Appointments: handler.NewAppointmentHandler(bookings),
		Users:        handler.NewUserHandler(identity),
	}
	if cfg.IsDev() {
		deps.Seed = handler.NewSeedHandler(identity)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	router.Register(e, deps)

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	addr := ":" + cfg.ServerPort
	go func() {
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
