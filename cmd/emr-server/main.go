package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/patki1992-cpu/ikigai-wellness-emr/internal/config"
	"github.com/patki1992-cpu/ikigai-wellness-emr/internal/domain/chart"
	"github.com/patki1992-cpu/ikigai-wellness-emr/internal/domain/patient"
	"github.com/patki1992-cpu/ikigai-wellness-emr/internal/domain/scheduling"
	"github.com/patki1992-cpu/ikigai-wellness-emr/internal/domain/user"
	"github.com/patki1992-cpu/ikigai-wellness-emr/internal/platform/auth"
	"github.com/patki1992-cpu/ikigai-wellness-emr/internal/platform/db"
	"github.com/patki1992-cpu/ikigai-wellness-emr/internal/platform/metrics"
	"github.com/patki1992-cpu/ikigai-wellness-emr/internal/platform/middleware"
	"github.com/patki1992-cpu/ikigai-wellness-emr/internal/platform/oidc"
	"github.com/patki1992-cpu/ikigai-wellness-emr/internal/platform/session"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "emr-server",
		Short: "Ikigai Wellness EMR API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(sessionsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s).\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage server-side sessions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			store := session.NewPGStoreFromPool(pool, sessionTTL(cfg))
			if err := store.Cleanup(ctx); err != nil {
				return fmt.Errorf("session cleanup failed: %w", err)
			}
			fmt.Println("Expired sessions deleted.")
			return nil
		},
	})

	return cmd
}

func sessionTTL(cfg *config.Config) time.Duration {
	return time.Duration(cfg.SessionTTLHours) * time.Hour
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Platform pieces
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	store := session.NewPGStoreFromPool(pool, sessionTTL(cfg))
	cookies := session.NewCookieManager(cfg.SessionSecret, cfg.IsProduction(), sessionTTL(cfg))

	providers := oidc.NewProviderCache(cfg.OIDCIssuerURL, 0)
	oidcClient := oidc.NewClient(providers, cfg.OIDCClientID, cfg.OIDCClientSecret)

	strategies := auth.NewStrategyTable(cfg.AppDomains, cfg.OIDCClientID)

	// Domain services
	userRepo := user.NewRepoPG(pool)
	patientRepo := patient.NewRepoPG(pool)
	patientSvc := patient.NewService(patientRepo, logger)
	userSvc := user.NewService(userRepo, patientSvc, logger)
	chartSvc := chart.NewService(chart.NewRepoPG(pool))
	schedSvc := scheduling.NewService(scheduling.NewRepoPG(pool))

	sessionAuth := auth.NewSessionAuth(store, cookies, oidcClient, collector, logger)
	authHandler := auth.NewHandler(providers, oidcClient, userSvc, store, cookies, strategies, collector, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(metrics.Middleware(collector))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:     []string{"Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}

	api := e.Group("/api")
	api.Use(middleware.RateLimit(rateLimitCfg))

	// Session-authenticated group. AUTH_BYPASS swaps the whole OIDC stack
	// for a synthetic dev principal; config validation guarantees this can
	// only happen under ENV=development.
	var requireSession echo.MiddlewareFunc
	if cfg.AuthBypass && cfg.IsDev() {
		logger.Warn().Msg("AUTH_BYPASS enabled, all requests run as a synthetic dev principal")
		requireSession = auth.Bypass()
	} else {
		requireSession = sessionAuth.Require()
	}

	authed := api.Group("", requireSession)
	providerAPI := api.Group("", requireSession, auth.RequireProvider(userSvc))
	patientAPI := api.Group("/patient", requireSession, auth.RequirePatient(userSvc))

	authHandler.RegisterRoutes(api, authed)
	patient.NewHandler(patientSvc).RegisterRoutes(providerAPI, patientAPI)
	chart.NewHandler(chartSvc).RegisterRoutes(providerAPI, patientAPI)
	scheduling.NewHandler(schedSvc).RegisterRoutes(providerAPI, patientAPI)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler(registry)))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
