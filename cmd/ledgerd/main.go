package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/SscSPs/digital_bank_ledger/internal/adapters/events"
	portsrepo "github.com/SscSPs/digital_bank_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/digital_bank_ledger/internal/core/ports/services"
	"github.com/SscSPs/digital_bank_ledger/internal/core/services"
	"github.com/SscSPs/digital_bank_ledger/internal/handlers"
	"github.com/SscSPs/digital_bank_ledger/internal/middleware"
	"github.com/SscSPs/digital_bank_ledger/internal/platform/config"
	"github.com/SscSPs/digital_bank_ledger/internal/platform/metrics"
	boltrepo "github.com/SscSPs/digital_bank_ledger/internal/repositories/bolt"
	"github.com/SscSPs/digital_bank_ledger/internal/repositories/database/pgsql"
	memrepo "github.com/SscSPs/digital_bank_ledger/internal/repositories/memory"
	"github.com/SscSPs/digital_bank_ledger/internal/utils"
	"github.com/SscSPs/digital_bank_ledger/pkg/database"
)

// @title Digital Bank Ledger API
// @version 1.0
// @description Double-entry ledger and transfer settlement engine.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	command := "serve"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	// token does not touch storage
	if command == "token" {
		if err := printToken(cfg, os.Args[2:]); err != nil {
			logger.Error("Failed to issue token", slog.String("error", err.Error()))
			os.Exit(1)
		}
		return
	}

	ctx := context.Background()
	app, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer app.close()

	switch command {
	case "serve":
		err = serve(cfg, app, logger)
	case "sweep":
		err = sweep(ctx, cfg, app, logger)
	default:
		err = fmt.Errorf("unknown command %q, expected serve, sweep or token", command)
	}
	if err != nil {
		logger.Error("Command failed", slog.String("command", command), slog.String("error", err.Error()))
		app.close()
		os.Exit(1)
	}
}

type app struct {
	services *portssvc.ServiceContainer
	registry *prometheus.Registry
	ready    func() error
	closers  []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{ready: func() error { return nil }}

	var repos portsrepo.RepositoryProvider
	var dbPool *pgxpool.Pool
	switch cfg.StorageDriver {
	case config.DriverMemory:
		logger.Warn("Using in-memory storage, data is lost on exit")
		repos = memrepo.NewRepositoryProvider()
	default:
		pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
		if err != nil {
			return nil, fmt.Errorf("initialize database pool: %w", err)
		}
		dbPool = pool
		a.closers = append(a.closers, func() { database.ClosePgxPool(pool) })
		a.ready = func() error { return pool.Ping(context.Background()) }
		logger.Info("Database connection pool established.")

		logger.Info("Running database migrations...")
		if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
			a.close()
			return nil, err
		}
		repos = pgsql.NewRepositoryProvider(pool)
	}

	switch cfg.IdempotencyDriver {
	case config.DriverBolt:
		store, err := boltrepo.Open(cfg.BoltPath)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("open idempotency store: %w", err)
		}
		a.closers = append(a.closers, func() {
			if err := store.Close(); err != nil {
				logger.Error("Error closing idempotency store", slog.String("error", err.Error()))
			}
		})
		repos.IdempotencyRepo = store
	case config.DriverMemory:
		if dbPool != nil {
			repos.IdempotencyRepo = memrepo.NewStore()
		}
	}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var publisher portssvc.EventPublisher = events.LogPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(events.KafkaConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
		a.closers = append(a.closers, func() {
			if err := kafkaPublisher.Close(); err != nil {
				logger.Error("Error closing kafka writer", slog.String("error", err.Error()))
			}
		})
		publisher = events.FanOut{events.LogPublisher{}, kafkaPublisher}
		logger.Info("Publishing events to kafka", slog.String("topic", cfg.KafkaTopic))
	}

	system := cfg.SystemAccounts()
	a.services = services.NewServiceContainer(repos, system,
		services.WithMetrics(metrics.New(a.registry)),
		services.WithPublisher(publisher),
	)

	for accountID, currency := range system.All() {
		if _, err := a.services.Account.EnsureSystemAccount(ctx, accountID, currency); err != nil {
			a.close()
			return nil, fmt.Errorf("bootstrap system account %s: %w", accountID, err)
		}
	}
	return a, nil
}

func serve(cfg *config.Config, a *app, logger *slog.Logger) error {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		return fmt.Errorf("parse rate limit: %w", err)
	}
	actorRate, err := limiter.NewRateFromFormatted(cfg.ActorRateLimit)
	if err != nil {
		return fmt.Errorf("parse actor rate limit: %w", err)
	}

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	r.Use(middleware.GinMiddlewarize(limiter.New(memory.NewStore(), rate)))

	if err := r.SetTrustedProxies(nil); err != nil {
		return fmt.Errorf("set trusted proxies: %w", err)
	}

	handlers.RegisterRoutes(r, handlers.Settings{
		Auth:            middleware.TokenSettings{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer},
		ActorLimiter:    limiter.New(memory.NewStore(), actorRate),
		IsProduction:    cfg.IsProduction,
		Policy:          cfg.TransferPolicy,
		CheckHoldPeriod: cfg.CheckHoldPeriod,
		SweepBatchSize:  cfg.SweepBatchSize,
		Gatherer:        a.registry,
		Ready:           a.ready,
	}, a.services)

	logger.Info("Server starting", slog.String("port", cfg.Port), slog.String("storage", cfg.StorageDriver))
	return r.Run(":" + cfg.Port)
}

// sweep releases expired holds in batches until one finds fewer holds than it asked for.
func sweep(ctx context.Context, cfg *config.Config, a *app, logger *slog.Logger) error {
	total, err := a.services.Hold.SweepAllExpired(ctx, cfg.SweepBatchSize)
	if err != nil {
		return fmt.Errorf("sweep stopped after releasing %d holds: %w", total, err)
	}
	logger.Info("Expired holds released", slog.Int("count", total))
	return nil
}

// printToken issues a bearer token for local use: ledgerd token <subject> [ttl].
func printToken(cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: ledgerd token <subject> [ttl]")
	}
	ttl := time.Hour
	if len(args) > 1 {
		d, err := time.ParseDuration(args[1])
		if err != nil {
			return fmt.Errorf("parse ttl: %w", err)
		}
		ttl = d
	}
	token, err := utils.IssueActorToken(args[0], cfg.JWTSecret, cfg.JWTIssuer, ttl, time.Now())
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
