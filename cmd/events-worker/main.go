package main

import (
	"context"
	"crypto/tls"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/mediwrap/platform/cmd/mainconfig"
	appconfig "github.com/mediwrap/platform/internal/config"
	"github.com/mediwrap/platform/internal/events"
	"github.com/mediwrap/platform/internal/notify"
	emailworker "github.com/mediwrap/platform/internal/worker/emails"
	"github.com/mediwrap/platform/pkg/logging"
)

// The events worker has two jobs: draining the Postgres outbox onto the
// Redis change feed, and delivering queued notification emails. Either
// half runs alone when the other is not configured.
func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.DatabaseURL == "" && cfg.NotificationQueue == "" {
		logger.Error("events worker requires DATABASE_URL or NOTIFICATION_QUEUE_URL")
		os.Exit(1)
	}

	redisOpts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() { _ = redisClient.Close() }()

	bus := events.NewBus(redisClient, logger)

	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		deliverer := events.NewDeliverer(
			events.NewOutboxStore(pool),
			events.DeliveryHandlerFunc(bus.PublishChange),
			logger,
		).
			WithBatchSize(int32(cfg.OutboxBatchSize)).
			WithInterval(cfg.OutboxPollInterval)
		go deliverer.Start(ctx)
		logger.Info("outbox deliverer started", "interval", cfg.OutboxPollInterval)
	}

	if cfg.NotificationQueue != "" {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		queue := events.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.NotificationQueue)

		var sender notify.EmailSender
		switch cfg.EmailProvider {
		case "ses":
			sender = notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
				FromEmail: cfg.EmailFromAddress,
				FromName:  cfg.EmailFromName,
			}, logger)
		case "sendgrid":
			sender = notify.NewSendGridSender(notify.SendGridConfig{
				APIKey:    cfg.SendGridAPIKey,
				FromEmail: cfg.EmailFromAddress,
				FromName:  cfg.EmailFromName,
			}, logger)
		default:
			sender = notify.NewStubEmailSender(logger)
		}

		go emailworker.NewDispatcher(queue, sender, logger).Run(ctx)
		logger.Info("email dispatcher started", "provider", cfg.EmailProvider)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("events worker shutting down")
	cancel()
	time.Sleep(2 * time.Second)
}
