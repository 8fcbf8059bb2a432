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
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/config"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/domain/appointment"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/domain/audit"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/domain/clinician"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/domain/discharge"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/domain/patient"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/domain/reference"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/domain/treatment"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/platform/auth"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/platform/db"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/platform/middleware"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/platform/reporting"
)

func main() {
	root := &cobra.Command{
		Use:   "clinic-server",
		Short: "Practice management backend for the clinic",
	}
	root.AddCommand(serveCmd(), migrateCmd(), evaluateCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogger(cfg *config.Config) zerolog.Logger {
	var logger zerolog.Logger
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	log.Logger = logger
	return logger
}

// app wires the domain services onto one pool. Construction order follows
// the dependency direction: audit and reference first, then the entity
// services, then the workflows that span them.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	pool   *pgxpool.Pool

	trail        *audit.Service
	clinicians   *clinician.Service
	patients     *patient.Service
	appointments *appointment.Service
	treatments   *treatment.Service
	discharges   *discharge.Service
	resolver     *reference.Resolver
	diagnostics  *reference.Diagnostics
	reports      *reporting.Service
}

func buildApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, func(), error) {
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	runner := db.NewPoolRunner(pool)

	trail := audit.NewService(audit.NewRepo(pool))

	clinicianRepo := clinician.NewRepo(pool)
	clinicians := clinician.NewService(clinicianRepo, runner, trail)

	patientRepo := patient.NewRepo(pool)
	apptRepo := appointment.NewRepo(pool)

	resolver := reference.NewResolver(patientRepo, clinicianRepo, apptRepo)

	patients := patient.NewService(patientRepo, runner, trail, resolver)
	appointments := appointment.NewService(apptRepo, runner, trail, resolver, logger)
	treatments := treatment.NewService(treatment.NewRepo(pool), runner, trail, resolver,
		apptPatientSource{repo: apptRepo})
	discharges := discharge.NewService(discharge.NewRepo(pool), runner, trail,
		patients, treatments, logger)

	diagnostics := reference.NewDiagnostics(patientRepo, apptRepo, patientRepo, clinicianRepo, logger)
	reports := reporting.NewService(reporting.NewStore(pool))

	a := &app{
		cfg: cfg, logger: logger, pool: pool,
		trail: trail, clinicians: clinicians, patients: patients,
		appointments: appointments, treatments: treatments, discharges: discharges,
		resolver: resolver, diagnostics: diagnostics, reports: reports,
	}
	return a, pool.Close, nil
}

// apptPatientSource adapts the appointment repository to the lookup the
// treatment service needs.
type apptPatientSource struct {
	repo appointment.Repository
}

func (s apptPatientSource) PatientOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}
	return a.PatientID, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the periodic evaluators",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger := setupLogger(cfg)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, closePool, err := buildApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closePool()

			e := echo.New()
			e.HideBanner = true
			e.Use(middleware.Recovery(logger))
			e.Use(middleware.RequestID())
			e.Use(middleware.Logger(logger))
			e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
				AllowOrigins: cfg.CORSOrigins,
				AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization, "X-Session-ID"},
			}))

			e.GET("/health", db.HealthHandler(a.pool))

			api := e.Group("/api/v1")
			if cfg.IsDev() {
				api.Use(auth.DevAuthMiddleware())
			} else {
				api.Use(auth.JWTMiddleware(auth.JWTConfig{
					Issuer:   cfg.AuthIssuer,
					Audience: cfg.AuthAudience,
					JWKSURL:  cfg.AuthJWKSURL,
				}))
			}
			api.Use(audit.RequestInfoMiddleware())

			audit.NewHandler(a.trail).RegisterRoutes(api)
			clinician.NewHandler(a.clinicians).RegisterRoutes(api)
			patient.NewHandler(a.patients).RegisterRoutes(api)
			appointment.NewHandler(a.appointments).RegisterRoutes(api)
			treatment.NewHandler(a.treatments).RegisterRoutes(api)
			discharge.NewHandler(a.discharges).RegisterRoutes(api)
			reporting.NewHandler(a.reports).RegisterRoutes(api)
			registerDiagnosticsRoutes(api, a.diagnostics)

			go runEvaluatorLoop(ctx, a, cfg.EvaluatorInterval)

			go func() {
				addr := ":" + cfg.Port
				logger.Info().Str("addr", addr).Msg("server listening")
				if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("server stopped")
				}
			}()

			<-ctx.Done()
			logger.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return e.Shutdown(shutdownCtx)
		},
	}
}

// runEvaluatorLoop drives the two automatic sweeps: appointment status
// and auto-discharge. One immediate pass on start, then on the ticker.
func runEvaluatorLoop(ctx context.Context, a *app, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	runOnce := func() {
		now := time.Now().UTC()
		if n, err := a.appointments.RunEvaluator(ctx, now); err != nil {
			a.logger.Error().Err(err).Msg("appointment evaluator failed")
		} else if n > 0 {
			a.logger.Info().Int("moved", n).Msg("appointment evaluator pass complete")
		}
		if n, err := a.discharges.RunEvaluator(ctx, now); err != nil {
			a.logger.Error().Err(err).Msg("discharge evaluator failed")
		} else if n > 0 {
			a.logger.Info().Int("discharged", n).Msg("discharge evaluator pass complete")
		}
	}

	runOnce()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

func registerDiagnosticsRoutes(api *echo.Group, d *reference.Diagnostics) {
	g := api.Group("/diagnostics", auth.RequireRole(auth.RoleAdmin))
	g.GET("/orphans", func(c echo.Context) error {
		orphans, err := d.ScanOrphans(c.Request().Context())
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, orphans)
	})
	g.GET("/name-suggestions", func(c echo.Context) error {
		candidates, err := d.SuggestByName(c.Request().Context(),
			c.QueryParam("first_name"), c.QueryParam("last_name"))
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, candidates)
	})
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				logger := setupLogger(cfg)
				ctx := context.Background()
				pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
				if err != nil {
					return err
				}
				defer pool.Close()
				n, err := db.NewMigrator(pool, cfg.MigrationsDir).Up(ctx)
				if err != nil {
					return err
				}
				logger.Info().Int("applied", n).Msg("migrations complete")
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show applied and pending migrations",
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
				statuses, err := db.NewMigrator(pool, cfg.MigrationsDir).Status(ctx)
				if err != nil {
					return err
				}
				for _, st := range statuses {
					state := "pending"
					if st.Applied {
						state = "applied"
					}
					fmt.Printf("%03d  %-40s %s\n", st.Version, st.Name, state)
				}
				return nil
			},
		},
	)
	return cmd
}

func evaluateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate",
		Short: "Run the automatic evaluators once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := setupLogger(cfg)
			ctx := context.Background()

			a, closePool, err := buildApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closePool()

			now := time.Now().UTC()
			moved, err := a.appointments.RunEvaluator(ctx, now)
			if err != nil {
				return err
			}
			discharged, err := a.discharges.RunEvaluator(ctx, now)
			if err != nil {
				return err
			}
			logger.Info().Int("appointments_moved", moved).Int("patients_discharged", discharged).
				Msg("evaluation complete")
			return nil
		},
	}
}
