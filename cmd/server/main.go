package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"bloodlink/internal/audit"
	auditstore "bloodlink/internal/audit/store"
	auditworker "bloodlink/internal/audit/worker"
	authhandler "bloodlink/internal/auth/handler"
	"bloodlink/internal/auth/lockout"
	authservice "bloodlink/internal/auth/service"
	authstore "bloodlink/internal/auth/store"
	"bloodlink/internal/auth/token"
	bankhandler "bloodlink/internal/bank/handler"
	bankservice "bloodlink/internal/bank/service"
	bankstore "bloodlink/internal/bank/store"
	"bloodlink/internal/dashboard"
	donhandler "bloodlink/internal/donation/handler"
	donservice "bloodlink/internal/donation/service"
	donstore "bloodlink/internal/donation/store"
	donorhandler "bloodlink/internal/donor/handler"
	donorservice "bloodlink/internal/donor/service"
	donorstore "bloodlink/internal/donor/store"
	invhandler "bloodlink/internal/inventory/handler"
	invservice "bloodlink/internal/inventory/service"
	invstore "bloodlink/internal/inventory/store"
	"bloodlink/internal/platform/config"
	"bloodlink/internal/platform/database"
	"bloodlink/internal/platform/httpserver"
	"bloodlink/internal/platform/logger"
	"bloodlink/internal/platform/metrics"
	"bloodlink/internal/platform/middleware"
	"bloodlink/internal/platform/redis"
	reqhandler "bloodlink/internal/request/handler"
	reqservice "bloodlink/internal/request/service"
	reqstore "bloodlink/internal/request/store"
)

// main wires stores, services, and transport. Business logic lives in the
// internal feature packages; this file only connects them.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: postgres when configured, in-memory otherwise.
	var (
		users     authservice.Store
		banks     bankservice.Store
		inventory invservice.Store
		requests  interface {
			reqservice.Store
			dashboard.RequestSource
		}
		donations interface {
			donservice.Store
			dashboard.DonationSource
		}
		profiles donorservice.Store
		audits   audit.Store
	)
	if cfg.PostgresURL != "" {
		db, err := database.Open(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		users = authstore.NewPostgres(db)
		banks = bankstore.NewPostgres(db)
		inventory = invstore.NewPostgres(db)
		requests = reqstore.NewPostgres(db)
		donations = donstore.NewPostgres(db)
		profiles = donorstore.NewPostgres(db)
		audits = auditstore.NewPostgres(db)
		log.Info("using postgres stores")
	} else {
		users = authstore.NewInMemory()
		banks = bankstore.NewInMemory()
		inventory = invstore.NewInMemory()
		requests = reqstore.NewInMemory()
		donations = donstore.NewInMemory()
		profiles = donorstore.NewInMemory()
		audits = auditstore.NewInMemory()
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	m := metrics.New()

	// Audit pipeline: services emit, the worker persists.
	auditCh := make(chan audit.Event, cfg.AuditBuffer)
	emitter := audit.NewEmitter(auditCh, log)

	// Services.
	tokens := token.NewService(cfg.JWTSigningKey, cfg.TokenTTL)
	auth := authservice.New(users, tokens, nil)
	donors := donorservice.New(profiles, auth)
	auth.AttachProfiles(donors)
	auth.AttachLockout(lockout.New(cfg.LoginMaxFailures, cfg.LoginFailureWindow, cfg.LoginLockDuration, emitter))

	ledger := invservice.NewLedger(inventory, emitter)
	requestSvc := reqservice.New(requests, ledger, m, emitter)
	donationSvc := donservice.New(donations, ledger, donors, m, emitter, log)
	bankSvc := bankservice.New(banks)

	availability := dashboard.NewAvailabilityCache(ledger, redisClient, cfg.AvailabilityCacheTTL, log)
	ledger.AttachCache(availability)
	dashboardSvc := dashboard.New(requests, donations, profiles, auth, availability, m)

	if cfg.AdminPassword != "" {
		if err := auth.SeedAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Error("failed to seed admin account", "error", err)
			os.Exit(1)
		}
	}

	// Router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))

	authhandler.New(auth, log, tokens).Register(r)
	bankhandler.New(bankSvc, log, tokens).Register(r)
	invhandler.New(ledger, log, tokens).Register(r)
	reqhandler.New(requestSvc, log, tokens).Register(r)
	donhandler.New(donationSvc, log, tokens).Register(r)
	donorhandler.New(donors, log, tokens).Register(r)
	dashboard.NewHandler(dashboardSvc, log, tokens).Register(r)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	srv := httpserver.New(cfg.Addr, r)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return auditworker.New(audits, auditCh, log).Run(gctx)
	})
	g.Go(func() error {
		log.Info("starting bloodlink server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
