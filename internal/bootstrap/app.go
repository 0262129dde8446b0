package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	httpHandler "clov-canvas/internal/handler/http"
	wsHandler "clov-canvas/internal/handler/websocket"
	"clov-canvas/internal/hub"
	gormpersistence "clov-canvas/internal/infra/persistence/gorm"
	"clov-canvas/internal/infra/setup"
	redisstate "clov-canvas/internal/infra/state/redis"
	"clov-canvas/internal/relay"
	"clov-canvas/internal/service"
	"clov-canvas/internal/tasks"
	"clov-canvas/internal/worker"
)

const shutdownTimeout = 10 * time.Second

// App holds the wired components of a server process.
type App struct {
	Config       *Config
	Log          *logrus.Logger
	DB           *gorm.DB
	RedisClient  *redis.Client
	AsynqClient  *asynq.Client
	WorkerServer *worker.WorkerServer
	Hub          *hub.Hub
	HTTPServer   *http.Server

	subscriber  *relay.Subscriber
	expirations *relay.ExpirationListener
	scheduler   *worker.SyncScheduler

	cancel context.CancelFunc
	group  *errgroup.Group
	done   <-chan struct{}
}

// NewApp loads the configuration and wires every component.
func NewApp() (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := NewLogger(cfg)
	log.Infof("Configuration loaded (env: %s, level: %s)", cfg.AppEnv, cfg.LogLevel)

	db, err := setup.InitDB(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to init DB: %w", err)
	}
	if err := setup.MigrateDB(db); err != nil {
		return nil, fmt.Errorf("failed to migrate DB: %w", err)
	}
	log.Info("Database initialized and migrated")

	redisClient, err := setup.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}
	redisClientOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	asynqClient := asynq.NewClient(redisClientOpt)
	log.Info("Redis and asynq clients initialized")

	roomRepo := gormpersistence.NewGormRoomRepository(db)
	participantRepo := gormpersistence.NewGormParticipantRepository(db)
	backgroundRepo := gormpersistence.NewGormBackgroundRepository(db)
	stateRepo := redisstate.NewRedisStateRepository(redisClient, cfg.KeyPrefix)

	hubInstance := hub.NewHub()
	publisher := relay.NewPublisher(redisClient, cfg.KeyPrefix)
	archiver := tasks.NewArchiveEnqueuer(asynqClient)

	tokens, err := service.NewTokenService(cfg.JWTSecret, cfg.JWTExpiryHours)
	if err != nil {
		return nil, fmt.Errorf("failed to create TokenService: %w", err)
	}
	lifecycle := service.NewLifecycleService(roomRepo, participantRepo, stateRepo, hubInstance, publisher, archiver)
	roomService := service.NewRoomService(roomRepo, participantRepo, backgroundRepo, stateRepo, publisher, lifecycle, tokens,
		service.RoomServiceConfig{
			RoomTTL:         cfg.RoomTTL,
			MaxParticipants: cfg.MaxParticipants,
			AssetBaseURL:    cfg.AssetBaseURL,
		})
	eventService := service.NewEventService(stateRepo, backgroundRepo, hubInstance, cfg.AssetBaseURL)
	canvasSync := service.NewCanvasSyncService(stateRepo, hubInstance)
	log.Info("Services initialized")

	roomHandler := httpHandler.NewRoomHandler(roomService)
	ws := wsHandler.NewWebSocketHandler(hubInstance, roomService, publisher, wsHandler.Options{
		SignalRelayFallback: cfg.SignalRelayFallback,
		LeaveOnDisconnect:   cfg.LeaveOnDisconnect,
		AllowedOrigin:       cfg.CORSAllowedOrigin,
	})
	router := newRouter(cfg, log, redisClient, tokens, roomHandler, ws)

	return &App{
		Config:       cfg,
		Log:          log,
		DB:           db,
		RedisClient:  redisClient,
		AsynqClient:  asynqClient,
		WorkerServer: worker.NewWorkerServer(redisClientOpt, participantRepo, log),
		Hub:          hubInstance,
		HTTPServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		subscriber:  relay.NewSubscriber(redisClient, cfg.KeyPrefix, eventService, cfg.RelayWorkers, log),
		expirations: relay.NewExpirationListener(redisClient, cfg.RedisDB, lifecycle, cfg.ConfigureKeyspaceEvents, log),
		scheduler:   worker.NewSyncScheduler(canvasSync, cfg.SyncInitialDelay, cfg.SyncInterval, log),
	}, nil
}

// Start launches the background loops, the archive worker and the HTTP
// server. Done is closed when a loop fails, when a loop returns before
// Shutdown, or when the HTTP server fails.
func (a *App) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	a.cancel = cancel
	a.group = g
	a.done = gctx.Done()

	if err := a.WorkerServer.Start(); err != nil {
		cancel()
		return fmt.Errorf("failed to start worker server: %w", err)
	}

	superviseLoop(gctx, g, "relay subscriber", a.subscriber.Run)
	superviseLoop(gctx, g, "expiration listener", a.expirations.Run)
	superviseLoop(gctx, g, "sync scheduler", a.scheduler.Run)
	g.Go(func() error {
		a.Log.Infof("HTTP server listening on %s", a.HTTPServer.Addr)
		if err := a.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	a.Log.Info("Application started")
	return nil
}

// Done is closed when any background loop or the HTTP server stops with an
// error, and after Shutdown.
func (a *App) Done() <-chan struct{} {
	return a.done
}

// superviseLoop runs fn in g. A loop that returns nil while ctx is still live
// counts as a failure, so the group context is cancelled.
func superviseLoop(ctx context.Context, g *errgroup.Group, name string, fn func(context.Context) error) {
	g.Go(func() error {
		err := fn(ctx)
		if err == nil && ctx.Err() == nil {
			err = errors.New("stopped unexpectedly")
		}
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	})
}

// Shutdown stops the HTTP server, the background loops and the worker, then
// closes the connections.
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.HTTPServer.Shutdown(ctx); err != nil {
		a.Log.WithError(err).Error("Error shutting down HTTP server")
	}

	if a.cancel != nil {
		a.cancel()
		if err := a.group.Wait(); err != nil {
			a.Log.WithError(err).Error("Background loop stopped with error")
		}
	}

	a.WorkerServer.Shutdown()

	if err := a.AsynqClient.Close(); err != nil {
		a.Log.WithError(err).Error("Error closing asynq client")
	}
	if err := a.RedisClient.Close(); err != nil {
		a.Log.WithError(err).Error("Error closing Redis connection")
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.Log.WithError(err).Error("Error closing database connection")
		}
	}
	a.Log.Info("Application shutdown complete")
}
