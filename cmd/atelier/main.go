package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	athttp "github.com/atelierhq/atelier/internal/adapter/http"
	"github.com/atelierhq/atelier/internal/adapter/minio"
	atnats "github.com/atelierhq/atelier/internal/adapter/nats"
	"github.com/atelierhq/atelier/internal/adapter/natskv"
	atotel "github.com/atelierhq/atelier/internal/adapter/otel"
	"github.com/atelierhq/atelier/internal/adapter/postgres"
	"github.com/atelierhq/atelier/internal/adapter/ristretto"
	"github.com/atelierhq/atelier/internal/adapter/tiered"
	"github.com/atelierhq/atelier/internal/config"
	"github.com/atelierhq/atelier/internal/logger"
	"github.com/atelierhq/atelier/internal/middleware"
	"github.com/atelierhq/atelier/internal/port/notifier"
	"github.com/atelierhq/atelier/internal/resilience"
	"github.com/atelierhq/atelier/internal/service"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		if err := runAdmin(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logClose := logger.New(cfg.Logging)
	defer logClose.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"auth_enabled", cfg.Auth.Enabled,
		"reset_when_empty", cfg.Completion.ResetWhenEmpty,
	)

	ctx := context.Background()

	// --- Telemetry ---
	otelShutdown, err := atotel.Setup(ctx, cfg.Logging.Service, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shCtx); err != nil {
			slog.Warn("telemetry shutdown", "error", err)
		}
	}()

	metrics, err := atotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	queue, err := atnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Close() }()

	idemKV, err := queue.KeyValue(ctx, cfg.Idempotency.Bucket, cfg.Idempotency.TTL)
	if err != nil {
		return fmt.Errorf("idempotency bucket: %w", err)
	}

	blobs, err := minio.New(ctx, cfg.Minio)
	if err != nil {
		return fmt.Errorf("minio: %w", err)
	}

	// Role cache: in-process ristretto in front of a shared NATS KV bucket,
	// so invalidations propagate across replicas within the L1 TTL.
	l1, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("role cache: %w", err)
	}
	roleKV, err := queue.KeyValue(ctx, "atelier-roles", cfg.Cache.RoleTTL)
	if err != nil {
		return fmt.Errorf("role bucket: %w", err)
	}
	roleCache := tiered.New(l1, natskv.New(roleKV), cfg.Cache.RoleTTL)

	blobBreaker := resilience.NewBreaker("blob", cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)
	notifyBreaker := resilience.NewBreaker("notify", cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)

	// --- Services ---
	store := postgres.NewStore(pool)

	authzSvc := service.NewAuthzService(store, roleCache, cfg.Cache.RoleTTL)
	identitySvc := service.NewIdentityService(store, authzSvc, &cfg.Auth)

	aggSvc := service.NewAggregationService(store, cfg.Completion.ResetWhenEmpty)
	aggSvc.SetMetrics(metrics)

	notifiers := notifier.NewRegistry()
	notifiers.Add(atnats.NewNotifier(queue))
	log.Info("notifiers registered", "providers", notifiers.Names())

	notifySvc := service.NewNotificationService(notifiers.All(), notifyBreaker)

	leadSvc := service.NewLeadService(store, notifySvc)
	leadSvc.SetMetrics(metrics)

	templateSvc := service.NewTemplateService(store)
	templateSvc.SetMetrics(metrics)

	orderingSvc := service.NewOrderingService(store)
	orderingSvc.SetMetrics(metrics)

	handlers := athttp.NewHandlers(athttp.Services{
		Clients:      service.NewClientService(store),
		Contacts:     service.NewContactService(store),
		Projects:     service.NewProjectService(store),
		Phases:       service.NewPhaseService(store, aggSvc),
		Sets:         service.NewSetService(store, aggSvc),
		Pitches:      service.NewPitchService(store, aggSvc),
		Requirements: service.NewRequirementService(store, aggSvc),
		Ordering:     orderingSvc,
		Templates:    templateSvc,
		Leads:        leadSvc,
		Documents:    service.NewDocumentService(store, blobs, blobBreaker),
		Aggregation:  aggSvc,
		Tenants:      service.NewTenantService(store),
		Identity:     identitySvc,
	}, cfg.Server.BodyLimitKB)

	// --- HTTP ---
	rl := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	stopCleanup := rl.StartCleanup(cfg.Rate.CleanupInterval, cfg.Rate.MaxIdleTime)
	defer stopCleanup()

	r := chi.NewRouter()
	r.Use(atotel.HTTPMiddleware("atelier.http"))
	r.Use(athttp.CORS(cfg.Server.CORSOrigin))
	r.Use(athttp.SecurityHeaders)
	r.Use(middleware.RequestID)
	r.Use(athttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(rl.Handler)
	r.Use(middleware.TenantID)
	r.Use(middleware.Auth(identitySvc, cfg.Auth.Enabled))
	r.Use(middleware.Idempotency(idemKV))

	athttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
