package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/mediwrap/platform/cmd/mainconfig"
	"github.com/mediwrap/platform/internal/admin"
	"github.com/mediwrap/platform/internal/api/router"
	"github.com/mediwrap/platform/internal/appointments"
	"github.com/mediwrap/platform/internal/blooddonation"
	"github.com/mediwrap/platform/internal/cart"
	"github.com/mediwrap/platform/internal/community"
	appconfig "github.com/mediwrap/platform/internal/config"
	"github.com/mediwrap/platform/internal/doctors"
	"github.com/mediwrap/platform/internal/events"
	"github.com/mediwrap/platform/internal/localstore"
	"github.com/mediwrap/platform/internal/notify"
	"github.com/mediwrap/platform/internal/observability/metrics"
	"github.com/mediwrap/platform/internal/products"
	"github.com/mediwrap/platform/internal/realtime"
	"github.com/mediwrap/platform/internal/session"
	"github.com/mediwrap/platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting mediwrap API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if cfg.SessionJWTSecret == "" {
		logger.Error("SESSION_JWT_SECRET is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisOpts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() { _ = redisClient.Close() }()

	store := localstore.New(redisClient)
	bus := events.NewBus(redisClient, logger)

	// In remote mode mutations land in the outbox table and the events
	// worker fans them out; in local mode they go straight to the bus.
	var feed events.Publisher = bus
	var pool *pgxpool.Pool
	if !cfg.UseLocalStore() {
		var err error
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		feed = events.NewOutboxStore(pool)
	}

	var emailQueue notify.EmailQueue
	if cfg.NotificationQueue != "" {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		emailQueue = events.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.NotificationQueue)
	}
	storeMetrics := metrics.NewStoreMetrics(nil)
	notifier := notify.NewService(bus, emailQueue, logger).WithMetrics(storeMetrics)

	// Session stores
	var identities session.IdentityStore
	var profiles session.ProfileStore
	if pool != nil {
		identities = session.NewPostgresIdentityStore(pool)
		profiles = session.NewPostgresProfileStore(pool)
	} else {
		var err error
		if identities, err = session.NewLocalIdentityStore(store); err != nil {
			logger.Error("failed to init identity store", "error", err)
			os.Exit(1)
		}
		if profiles, err = session.NewLocalProfileStore(store); err != nil {
			logger.Error("failed to init profile store", "error", err)
			os.Exit(1)
		}
	}
	issuer := session.NewTokenIssuer(cfg.SessionJWTSecret, cfg.SessionTokenTTL)
	sessionSvc := session.NewService(identities, profiles, issuer, feed, logger).
		WithNotifier(notifier).
		WithMailer(notifier)

	// Domain repositories
	var doctorRepo doctors.Repository
	var productRepo products.Repository
	var apptRepo appointments.Repository
	if pool != nil {
		doctorRepo = doctors.NewPostgresRepository(pool, feed, logger)
		productRepo = products.NewPostgresRepository(pool, feed, logger)
		apptRepo = appointments.NewPostgresRepository(pool, feed, logger)
	} else {
		var err error
		if doctorRepo, err = doctors.NewLocalRepository(store, feed, logger); err != nil {
			logger.Error("failed to init doctor repository", "error", err)
			os.Exit(1)
		}
		if productRepo, err = products.NewLocalRepository(store, feed, logger); err != nil {
			logger.Error("failed to init product repository", "error", err)
			os.Exit(1)
		}
		if apptRepo, err = appointments.NewLocalRepository(store, feed, logger); err != nil {
			logger.Error("failed to init appointment repository", "error", err)
			os.Exit(1)
		}
	}

	apptSvc := appointments.NewService(apptRepo, doctorRepo, logger).
		WithNotifier(notifier).
		WithMailer(profiles, notifier).
		WithMetrics(storeMetrics)

	cartManager := cart.NewManager(store, notifier, logger)

	communityRepo, err := community.NewRepository(store, logger)
	if err != nil {
		logger.Error("failed to init community repository", "error", err)
		os.Exit(1)
	}
	bloodSvc, err := blooddonation.NewService(store, notifier, logger)
	if err != nil {
		logger.Error("failed to init blood donation service", "error", err)
		os.Exit(1)
	}

	ticketStore, err := admin.NewTicketStore(store, logger)
	if err != nil {
		logger.Error("failed to init ticket store", "error", err)
		os.Exit(1)
	}
	var userDirectory admin.UserDirectory
	var statsSource admin.StatsSource
	if pool != nil {
		userDirectory = admin.NewPostgresUserDirectory(pool)
		statsSource = admin.NewPostgresStatsSource(pool)
	} else {
		userDirectory = admin.NewLocalUserDirectory(store)
		statsSource = admin.NewLocalStatsSource(store)
	}

	httpMetrics := metrics.NewHTTPMetrics(nil)

	routerCfg := &router.Config{
		Logger:              logger,
		Verifier:            sessionSvc,
		SessionHandler:      session.NewHandler(sessionSvc, logger),
		DoctorsHandler:      doctors.NewHandler(doctorRepo, notifier, logger),
		ProductsHandler:     products.NewHandler(productRepo, notifier, logger),
		CartHandler:         cart.NewHandler(cartManager, logger),
		AppointmentsHandler: appointments.NewHandler(apptSvc, logger),
		CommunityHandler:    community.NewHandler(communityRepo, logger),
		BloodHandler:        blooddonation.NewHandler(bloodSvc, logger),
		AdminHandler:        admin.NewHandler(userDirectory, ticketStore, statsSource, nil, logger),
		RealtimeHandler:     realtime.NewHandler(bus, logger),
		HTTPMetrics:         httpMetrics,
		MetricsHandler:      promhttp.Handler(),
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		AuthRateLimit:       2,
		AuthRateBurst:       10,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
