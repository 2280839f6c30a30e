package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/odinnomago/valhalla-notify/internal/channel"
	"github.com/odinnomago/valhalla-notify/internal/config"
	"github.com/odinnomago/valhalla-notify/internal/model"
	"github.com/odinnomago/valhalla-notify/internal/repository"
	"github.com/odinnomago/valhalla-notify/internal/repository/memory"
	"github.com/odinnomago/valhalla-notify/internal/repository/postgres"
	"github.com/odinnomago/valhalla-notify/internal/service/delivery"
	"github.com/odinnomago/valhalla-notify/pkg/logger"
	messagingredis "github.com/odinnomago/valhalla-notify/pkg/messaging/redis"
	"github.com/odinnomago/valhalla-notify/pkg/metrics"
)

// WorkerConfig is read from the environment; the worker is deployed as
// a sidecar-less container where env vars are the whole interface.
type WorkerConfig struct {
	RedisURL       string `envconfig:"REDIS_URL" required:"true"`
	QueueKey       string `envconfig:"QUEUE_KEY" default:"notify:delivery"`
	StorageDriver  string `envconfig:"STORAGE_DRIVER" default:"postgres"`
	DBHost         string `envconfig:"DB_HOST" default:"localhost"`
	DBPort         int    `envconfig:"DB_PORT" default:"5432"`
	DBUser         string `envconfig:"DB_USER" default:"postgres"`
	DBPassword     string `envconfig:"DB_PASSWORD"`
	DBName         string `envconfig:"DB_NAME" default:"valhalla"`
	DBSSLMode      string `envconfig:"DB_SSLMODE" default:"disable"`
	Shards         int    `envconfig:"DELIVERY_SHARDS" default:"8"`
	QueueSize      int    `envconfig:"DELIVERY_QUEUE_SIZE" default:"256"`
	TimeoutSeconds int    `envconfig:"DELIVERY_TIMEOUT_SECONDS" default:"10"`
	HealthPort     string `envconfig:"HEALTH_PORT" default:"8081"`
	SMTPHost       string `envconfig:"SMTP_HOST"`
	SMTPPort       int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername   string `envconfig:"SMTP_USERNAME"`
	SMTPPassword   string `envconfig:"SMTP_PASSWORD"`
	SMTPFrom       string `envconfig:"SMTP_FROM"`
	PushGatewayURL string `envconfig:"PUSH_GATEWAY_URL"`
	SMSProviderURL string `envconfig:"SMS_PROVIDER_URL"`
}

func setupHealthCheck(port string, queue *delivery.RedisQueue, m *metrics.Metrics, lg *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		depth, err := queue.Depth(ctx)
		if err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		m.DeliveryQueueLag.Set(float64(depth))
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(":"+port, mux); err != nil {
			lg.ZL.Error().Err(err).Msg("health check server failed")
			os.Exit(1)
		}
	}()
}

func main() {
	var cfg WorkerConfig
	if err := envconfig.Process("notify", &cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	lg := &logger.Logger{ZL: log.Logger}

	m := metrics.NewMetrics("notify_worker")

	var prefRepo repository.PreferenceRepository
	if cfg.StorageDriver == "memory" {
		prefRepo = memory.NewPreferenceRepository()
	} else {
		db, err := postgres.NewDB(config.DatabaseConfig{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			Name:     cfg.DBName,
			SSLMode:  cfg.DBSSLMode,
		})
		if err != nil {
			lg.ZL.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()
		prefRepo = postgres.NewPreferenceRepository(db)
	}

	broker, err := messagingredis.NewRedisBroker(messagingredis.Config{URL: cfg.RedisURL}, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	senders := []channel.Sender{
		channel.NewPushSender(cfg.PushGatewayURL, nil, lg.ZL),
		channel.NewSMSSender(cfg.SMSProviderURL, nil, lg.ZL),
	}
	if cfg.SMTPHost != "" {
		senders = append(senders, channel.NewEmailSender(channel.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}, lg.ZL))
	}

	dispatcher := delivery.NewDispatcher(prefRepo, senders, delivery.DispatcherConfig{
		Shards:         cfg.Shards,
		QueueSize:      cfg.QueueSize,
		ChannelTimeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}, lg, m)

	queue := delivery.NewRedisQueue(broker.Client(), cfg.QueueKey, lg)

	setupHealthCheck(cfg.HealthPort, queue, m, lg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		lg.ZL.Info().Msg("shutting down...")
		cancel()
	}()

	dispatcher.Start(ctx)
	lg.ZL.Info().Str("queue", cfg.QueueKey).Msg("delivery worker started")

	if err := queue.Consume(ctx, func(n *model.Notification) {
		dispatcher.Enqueue(n)
	}); err != nil && err != context.Canceled {
		lg.ZL.Error().Err(err).Msg("queue consumer stopped")
	}

	dispatcher.Stop()
	lg.ZL.Info().Msg("worker exited")
}
