package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/odinnomago/valhalla-notify/internal/channel"
	"github.com/odinnomago/valhalla-notify/internal/config"
	healthHandler "github.com/odinnomago/valhalla-notify/internal/handler/health"
	notificationHandler "github.com/odinnomago/valhalla-notify/internal/handler/notification"
	preferenceHandler "github.com/odinnomago/valhalla-notify/internal/handler/preference"
	realtimeHandler "github.com/odinnomago/valhalla-notify/internal/handler/realtime"
	"github.com/odinnomago/valhalla-notify/internal/middleware"
	"github.com/odinnomago/valhalla-notify/internal/realtime"
	"github.com/odinnomago/valhalla-notify/internal/repository"
	"github.com/odinnomago/valhalla-notify/internal/repository/memory"
	"github.com/odinnomago/valhalla-notify/internal/repository/postgres"
	"github.com/odinnomago/valhalla-notify/internal/router"
	"github.com/odinnomago/valhalla-notify/internal/service/delivery"
	notificationService "github.com/odinnomago/valhalla-notify/internal/service/notification"
	"github.com/odinnomago/valhalla-notify/internal/template"
	"github.com/odinnomago/valhalla-notify/pkg/auth"
	"github.com/odinnomago/valhalla-notify/pkg/logger"
	"github.com/odinnomago/valhalla-notify/pkg/messaging"
	messagingredis "github.com/odinnomago/valhalla-notify/pkg/messaging/redis"
	"github.com/odinnomago/valhalla-notify/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	lg := logger.NewLogger(nil)
	log.Logger = lg.ZL

	m := metrics.NewMetrics("notify")

	// Repositories
	var (
		notifRepo repository.NotificationRepository
		prefRepo  repository.PreferenceRepository
		healthy   = map[string]healthHandler.Pinger{}
	)
	switch cfg.Storage.Driver {
	case "memory":
		log.Warn().Msg("using in-memory storage, state will not survive a restart")
		notifRepo = memory.NewNotificationRepository()
		prefRepo = memory.NewPreferenceRepository()
	default:
		db, err := postgres.NewDB(cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()
		notifRepo = postgres.NewNotificationRepository(db)
		prefRepo = postgres.NewPreferenceRepository(db)
		healthy["database"] = db
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Realtime hub, with a Redis backplane when configured so sockets
	// on other instances see notifications created here.
	hub := realtime.NewHub(lg.ZL, m)
	var (
		broker    messaging.Broker
		rdsBroker *messagingredis.RedisBroker
		publisher realtime.Publisher
	)
	if cfg.Redis.URL != "" {
		rdsBroker, err = messagingredis.NewRedisBroker(messagingredis.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, &lg.ZL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer rdsBroker.Close()
		broker = rdsBroker
		publisher = realtime.NewBrokerPublisher(broker)
		healthy["redis"] = pingerFunc(func() error {
			pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer pingCancel()
			return rdsBroker.Client().Ping(pingCtx).Err()
		})

		backplane := realtime.NewBackplane(broker, hub, lg.ZL)
		go func() {
			if err := backplane.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("realtime backplane stopped")
			}
		}()
	} else {
		log.Warn().Msg("redis not configured, realtime fan-out is single-instance only")
		publisher = realtime.NewLocalPublisher(hub)
	}

	// Delivery
	senders := []channel.Sender{
		channel.NewPushSender(cfg.Channels.PushGatewayURL, nil, lg.ZL),
		channel.NewSMSSender(cfg.Channels.SMSProviderURL, nil, lg.ZL),
	}
	if cfg.Email.Host != "" {
		senders = append(senders, channel.NewEmailSender(channel.SMTPConfig{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
		}, lg.ZL))
	}

	dispatcher := delivery.NewDispatcher(prefRepo, senders, delivery.DispatcherConfig{
		Shards:         cfg.Delivery.Shards,
		QueueSize:      cfg.Delivery.QueueSize,
		ChannelTimeout: cfg.Delivery.Timeout(),
	}, lg, m)

	var enqueuer delivery.Enqueuer
	if cfg.Delivery.Mode == "queue" {
		if rdsBroker == nil {
			log.Fatal().Msg("delivery mode 'queue' requires redis")
		}
		enqueuer = delivery.NewRedisQueue(rdsBroker.Client(), cfg.Delivery.QueueKey, lg)
	} else {
		dispatcher.Start(ctx)
		defer dispatcher.Stop()
		enqueuer = dispatcher
	}

	// Services and handlers
	templates := template.NewRegistry()
	notifSvc := notificationService.NewService(notifRepo, templates, publisher, enqueuer, lg, m)
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret)

	r := router.NewRouter(router.Config{
		RateRPS:   cfg.Rate.RPS,
		RateBurst: cfg.Rate.Burst,
		Timeout:   time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		CORS:      middleware.DefaultCORSConfig(),
	})
	r.MountRoot(healthHandler.NewHandler(healthy))
	r.Mount(
		notificationHandler.NewHandler(notifSvc),
		preferenceHandler.NewHandler(prefRepo, dispatcher),
		realtimeHandler.NewHandler(hub, jwtSvc, lg.ZL),
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}

type pingerFunc func() error

func (f pingerFunc) Ping() error { return f() }
