package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/osteopraxis/praxis/internal/config"
	"github.com/osteopraxis/praxis/internal/domain/appointment"
	"github.com/osteopraxis/praxis/internal/domain/consultation"
	"github.com/osteopraxis/praxis/internal/domain/integrity"
	"github.com/osteopraxis/praxis/internal/domain/invoice"
	"github.com/osteopraxis/praxis/internal/domain/migration"
	"github.com/osteopraxis/praxis/internal/domain/patient"
	"github.com/osteopraxis/praxis/internal/domain/syncer"
	"github.com/osteopraxis/praxis/internal/platform/audit"
	"github.com/osteopraxis/praxis/internal/platform/auth"
	"github.com/osteopraxis/praxis/internal/platform/db"
	"github.com/osteopraxis/praxis/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "praxis-server",
		Short: "Osteopathy practice management API server",
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
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required for migrations")
			}

			ctx := context.Background()
			pool, err := db.Connect(ctx, cfg.DatabaseURL, db.Limits{MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required for migrations")
			}

			ctx := context.Background()
			pool, err := db.Connect(ctx, cfg.DatabaseURL, db.Limits{MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				applied := ""
				if s.AppliedAt != nil {
					applied = s.AppliedAt.Format(time.RFC3339)
				}
				state := "pending"
				if s.Applied {
					state = "applied"
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, state, applied)
			}
			return nil
		},
	}
	cmd.AddCommand(statusCmd)

	return cmd
}

// repos bundles one repository per collection so the sandbox and Postgres
// paths wire identically.
type repos struct {
	patients      patient.Repository
	appointments  appointment.Repository
	consultations consultation.Repository
	invoices      invoice.Repository
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Storage: Postgres when configured, the in-memory sandbox otherwise.
	var r repos
	var sink audit.Sink = audit.NewLogSink(logger)
	var pool *pgxpool.Pool
	if cfg.Sandbox() {
		logger.Warn().Msg("running in sandbox mode on the in-memory store")
		r = repos{
			patients:      patient.NewMemRepo(),
			appointments:  appointment.NewMemRepo(),
			consultations: consultation.NewMemRepo(),
			invoices:      invoice.NewMemRepo(),
		}
	} else {
		ctx := context.Background()
		pool, err = db.Connect(ctx, cfg.DatabaseURL, db.Limits{MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		logger.Info().Msg("connected to database")
		r = repos{
			patients:      patient.NewRepoPG(pool),
			appointments:  appointment.NewRepoPG(pool),
			consultations: consultation.NewRepoPG(pool),
			invoices:      invoice.NewRepoPG(pool),
		}
		if cfg.AuditSink == "postgres" {
			sink = audit.NewPGSink(pool, logger)
		}
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Health checks stay outside auth.
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	if pool != nil {
		e.GET("/health/db", db.HealthHandler(pool))
	}

	// Auth middleware
	api := e.Group("/api/v1")
	if cfg.IsDev() {
		devID := uuid.New()
		if cfg.DefaultOsteopathID != "" {
			devID, err = uuid.Parse(cfg.DefaultOsteopathID)
			if err != nil {
				logger.Fatal().Err(err).Msg("DEFAULT_OSTEOPATH_ID must be a valid uuid")
			}
		}
		logger.Warn().Str("osteopath_id", devID.String()).Msg("dev auth enabled; all requests share one osteopath")
		api.Use(auth.DevAuthMiddleware(devID))
	} else {
		api.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.AuthSigningKey),
		}))
	}
	admin := api.Group("/admin")

	// Services. The syncer owns every write to the next-appointment
	// pointer; the appointment and consultation services only call into it.
	syncSvc := syncer.NewService(r.patients, r.consultations, logger)

	patientSvc := patient.NewService(r.patients, sink, logger)
	patient.NewHandler(patientSvc).RegisterRoutes(api)

	appointmentSvc := appointment.NewService(r.appointments, r.patients, syncSvc, sink, logger)
	appointment.NewHandler(appointmentSvc).RegisterRoutes(api)

	consultationSvc := consultation.NewService(r.consultations, r.patients, syncSvc, sink, logger)
	consultation.NewHandler(consultationSvc).RegisterRoutes(api)

	invoiceSvc := invoice.NewService(r.invoices, r.patients, sink, logger)
	invoice.NewHandler(invoiceSvc).RegisterRoutes(api)

	syncer.NewHandler(syncSvc).RegisterRoutes(admin)

	integritySvc := integrity.NewService(r.patients, r.appointments, r.consultations, r.invoices, sink, logger)
	integrity.NewHandler(integritySvc).RegisterRoutes(admin)

	migrationSvc := migration.NewService(r.patients, r.appointments, r.consultations, r.invoices, syncSvc, sink, logger)
	migration.NewHandler(migrationSvc).RegisterRoutes(admin)

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
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
