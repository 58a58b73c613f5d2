package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ehr/hospitalcrm/internal/config"
	"github.com/ehr/hospitalcrm/internal/domain/access"
	"github.com/ehr/hospitalcrm/internal/domain/audit"
	"github.com/ehr/hospitalcrm/internal/domain/billing"
	"github.com/ehr/hospitalcrm/internal/domain/care"
	"github.com/ehr/hospitalcrm/internal/domain/org"
	"github.com/ehr/hospitalcrm/internal/domain/patient"
	"github.com/ehr/hospitalcrm/internal/domain/pharmacy"
	"github.com/ehr/hospitalcrm/internal/domain/scheduling"
	"github.com/ehr/hospitalcrm/internal/platform/auth"
	"github.com/ehr/hospitalcrm/internal/platform/db"
	"github.com/ehr/hospitalcrm/internal/platform/dispatch"
	"github.com/ehr/hospitalcrm/internal/platform/mcpserver"
	"github.com/ehr/hospitalcrm/internal/platform/middleware"
	"github.com/ehr/hospitalcrm/internal/platform/telemetry"
	"github.com/ehr/hospitalcrm/internal/tools"
	"github.com/ehr/hospitalcrm/migrations"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "crm-server",
		Short:        "Hospital CRM tool server",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(schemaCmd())
	root.AddCommand(userCmd())
	root.AddCommand(roleCmd())
	root.AddCommand(tokenCmd())
	return root
}

// newLogger writes to stderr: stdout belongs to the stdio transport.
func newLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	logger := zerolog.New(w).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}

func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	return db.NewPool(ctx, cfg.DatabaseURL, cfg.Schema, cfg.DBMaxConns, cfg.DBMinConns)
}

// jwtConfig returns nil when bearer auth is disabled.
func jwtConfig(cfg *config.Config) *auth.JWTConfig {
	if !cfg.AuthEnabled() {
		return nil
	}
	return &auth.JWTConfig{
		Issuer:     cfg.AuthIssuer,
		Audience:   cfg.AuthAudience,
		SigningKey: []byte(cfg.AuthJWTSecret),
	}
}

// services wires repositories and domain services over one pool.
type services struct {
	access  *access.Service
	catalog tools.Services
}

func newServices(pool *pgxpool.Pool, cfg *config.Config, logger zerolog.Logger) *services {
	auditSvc := audit.NewService(audit.NewRepo(pool), logger.With().Str("component", "audit").Logger())
	patientSvc := patient.NewService(patient.NewRepo(pool), auditSvc)
	return &services{
		access: access.NewService(access.NewRepo(pool), auditSvc),
		catalog: tools.Services{
			Store:      db.NewInspector(pool, cfg.Schema),
			Patients:   patientSvc,
			Scheduling: scheduling.NewService(scheduling.NewRepo(pool), patientSvc, auditSvc),
			Care:       care.NewService(care.NewRepo(pool), patientSvc, auditSvc),
			Billing:    billing.NewService(billing.NewRepo(pool), patientSvc),
			Clinical:   pharmacy.NewService(pharmacy.NewRepo(pool), patientSvc),
			Org:        org.NewService(org.NewRepo(pool)),
			Audit:      auditSvc,
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the tool catalog over MCP (stdio or http, per MCP_TRANSPORT)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := openPool(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return err
	}
	defer pool.Close()
	logger.Info().Str("schema", cfg.Schema).Msg("connected to database")

	if cfg.MigrateOnStart {
		n, err := db.NewMigrator(pool, migrations.FS, cfg.Schema).Up(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("migration failed")
			return err
		}
		logger.Info().Int("applied", n).Msg("migrations applied")
	}

	svcs := newServices(pool, cfg, logger)
	registry := dispatch.NewRegistry(pool, cfg.QueryTimeout, logger)
	if err := tools.Register(registry, svcs.catalog); err != nil {
		return err
	}
	metrics := telemetry.NewMetrics()
	metrics.SetPoolStats(func() telemetry.PoolStats {
		st := pool.Stat()
		return telemetry.PoolStats{Acquired: st.AcquiredConns(), Idle: st.IdleConns(), Total: st.TotalConns()}
	})
	registry.SetObserver(metrics)
	server := mcpserver.New(registry, cfg.Schema, logger)

	switch cfg.Transport {
	case config.TransportHTTP:
		hc := httpConfig(cfg, pool, svcs.access)
		hc.Metrics = metrics
		err = server.RunHTTP(ctx, hc)
	default:
		err = server.RunStdio(ctx)
	}
	if err != nil {
		logger.Error().Err(err).Msg("server error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func httpConfig(cfg *config.Config, pool *pgxpool.Pool, resolver auth.PrincipalResolver) mcpserver.HTTPConfig {
	hc := mcpserver.HTTPConfig{
		Addr:      cfg.HTTPAddr,
		BodyLimit: cfg.HTTPBodyLimit,
		RateLimit: middleware.RateLimitConfig{
			RequestsPerSecond: cfg.HTTPRateLimit,
			BurstSize:         cfg.HTTPRateBurst,
		},
		Auth: jwtConfig(cfg),
	}
	if hc.Auth != nil {
		hc.Resolver = resolver
	}
	if pool != nil {
		hc.Health = db.HealthHandler(pool, cfg.Schema)
	}
	return hc
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd.Context(), func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
				count, err := db.NewMigrator(pool, migrations.FS, cfg.Schema).Up(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) to schema %s.\n", count, cfg.Schema)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd.Context(), func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
				statuses, err := db.NewMigrator(pool, migrations.FS, cfg.Schema).Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
				printStatus(cmd.OutOrStdout(), cfg.Schema, statuses)
				return nil
			})
		},
	})
	return cmd
}

func printStatus(w io.Writer, schema string, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "Migration status for schema: %s\n", schema)
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

func schemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Manage the CRM schema namespace",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "create",
		Short: "Create DB_SCHEMA if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd.Context(), func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
				if err := db.EnsureSchema(ctx, pool, cfg.Schema); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Schema %s is ready. Run migrations with: crm-server migrate up\n", cfg.Schema)
				return nil
			})
		},
	})
	return cmd
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage login accounts",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := access.CreateUserInput{}
			in.Email, _ = cmd.Flags().GetString("email")
			in.Password, _ = cmd.Flags().GetString("password")
			in.DisplayName, _ = cmd.Flags().GetString("display-name")
			in.ProviderID, _ = cmd.Flags().GetInt64("provider-id")
			if in.Email == "" || in.Password == "" {
				return errors.New("--email and --password are required")
			}

			return withServices(cmd.Context(), func(ctx context.Context, svcs *services) error {
				u, err := svcs.access.CreateUser(ctx, in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created user %d (%s)\n", u.ID, u.Email)
				return nil
			})
		},
	}
	createCmd.Flags().String("email", "", "Login email")
	createCmd.Flags().String("password", "", "Initial password")
	createCmd.Flags().String("display-name", "", "Name shown in audit views")
	createCmd.Flags().Int64("provider-id", 0, "Link the account to a provider")
	cmd.AddCommand(createCmd)
	return cmd
}

func roleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "role",
		Short: "Manage role assignments",
	}

	grantCmd := &cobra.Command{
		Use:   "grant",
		Short: "Grant a role to a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			role, _ := cmd.Flags().GetString("role")
			if email == "" || role == "" {
				return errors.New("--email and --role are required")
			}
			return withServices(cmd.Context(), func(ctx context.Context, svcs *services) error {
				if err := svcs.access.GrantRole(ctx, email, role); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Granted %s to %s\n", role, email)
				return nil
			})
		},
	}
	grantCmd.Flags().String("email", "", "User email")
	grantCmd.Flags().String("role", "", "Role name (admin, clinician, front_desk, billing)")
	cmd.AddCommand(grantCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List roles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), func(ctx context.Context, svcs *services) error {
				roles, err := svcs.access.ListRoles(ctx)
				if err != nil {
					return err
				}
				for _, r := range roles {
					desc := ""
					if r.Description != nil {
						desc = *r.Description
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", r.Name, desc)
				}
				return nil
			})
		},
	})
	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue bearer tokens for the http transport",
	}

	issueCmd := &cobra.Command{
		Use:   "issue",
		Short: "Sign a token for a user after checking their password",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			if email == "" || password == "" {
				return errors.New("--email and --password are required")
			}
			if ttl <= 0 {
				return errors.New("--ttl must be positive")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			jwtCfg := jwtConfig(cfg)
			if jwtCfg == nil {
				return errors.New("AUTH_JWT_SECRET is not set")
			}

			return withServices(cmd.Context(), func(ctx context.Context, svcs *services) error {
				p, err := svcs.access.Authenticate(ctx, email, password)
				if err != nil {
					return err
				}
				token, err := auth.IssueToken(*jwtCfg, p.Email, ttl)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			})
		},
	}
	issueCmd.Flags().String("email", "", "User email")
	issueCmd.Flags().String("password", "", "User password")
	issueCmd.Flags().Duration("ttl", 12*time.Hour, "Token lifetime")
	cmd.AddCommand(issueCmd)
	return cmd
}

func withPool(ctx context.Context, fn func(context.Context, *config.Config, *pgxpool.Pool) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	pool, err := openPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(ctx, cfg, pool)
}

// withServices runs fn in one read-write transaction so the account change
// and its audit row commit together.
func withServices(ctx context.Context, fn func(context.Context, *services) error) error {
	return withPool(ctx, func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
		svcs := newServices(pool, cfg, newLogger(cfg, os.Stderr))
		return db.WithTx(ctx, pool, db.ReadWrite, func(ctx context.Context) error {
			return fn(ctx, svcs)
		})
	})
}
