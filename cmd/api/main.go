package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yourextrem/eventdao/internal/api"
	"github.com/yourextrem/eventdao/internal/api/handler"
	"github.com/yourextrem/eventdao/internal/api/middleware"
	"github.com/yourextrem/eventdao/internal/application"
	"github.com/yourextrem/eventdao/internal/config"
	"github.com/yourextrem/eventdao/internal/domain/event"
	"github.com/yourextrem/eventdao/internal/domain/outbox"
	"github.com/yourextrem/eventdao/internal/domain/registry"
	"github.com/yourextrem/eventdao/internal/domain/ticket"
	"github.com/yourextrem/eventdao/internal/domain/transaction"
	"github.com/yourextrem/eventdao/internal/infrastructure/kafka"
	"github.com/yourextrem/eventdao/internal/infrastructure/memory"
	"github.com/yourextrem/eventdao/internal/infrastructure/postgres"
	redisinfra "github.com/yourextrem/eventdao/internal/infrastructure/redis"
	"github.com/yourextrem/eventdao/internal/pkg/logger"
	"github.com/yourextrem/eventdao/internal/pkg/metrics"
	"github.com/yourextrem/eventdao/internal/worker"
)

// repositories は保存先ごとのリポジトリ一式
type repositories struct {
	txManager transaction.Manager
	registry  registry.Repository
	events    event.Repository
	tickets   ticket.Repository
	outbox    outbox.Repository
	health    map[string]handler.HealthCheck
	close     func() error
}

func main() {
	cfg := config.Load()

	logger.Init(cfg.Env)
	defer logger.Sync()

	m := metrics.Init()

	repos, err := openStore(cfg)
	if err != nil {
		logger.Fatal("ストアの初期化に失敗", zap.Error(err))
	}
	defer func() {
		if err := repos.close(); err != nil {
			logger.Error("ストアのクローズに失敗", zap.Error(err))
		}
	}()

	// Redis は任意。使えなければロックとキャッシュなしで動く
	var (
		lockManager redisinfra.LockManagerInterface
		eventCache  redisinfra.EventCacheInterface
		redisClient *goredis.Client
	)
	if cfg.Redis.Enabled {
		redisClient, err = redisinfra.NewClient(&cfg.Redis)
		if err != nil {
			logger.Warn("Redis に接続できないためロックとキャッシュを無効化", zap.Error(err))
		} else {
			defer redisClient.Close()
			lockManager = redisinfra.NewLockManager(redisClient, m)
			eventCache = redisinfra.NewEventCache(redisClient)
			repos.health["redis"] = func(ctx context.Context) error {
				return redisinfra.Ping(ctx, redisClient)
			}
			logger.Info("Redis に接続しました", zap.String("addr", cfg.Redis.Addr()))
		}
	}

	// アウトボックスの送信先
	var publisher worker.Publisher = worker.LogPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kp, err := kafka.NewPublisher(cfg.Kafka)
		if err != nil {
			logger.Fatal("Kafka パブリッシャーの初期化に失敗", zap.Error(err))
		}
		defer kp.Close()
		publisher = kp
		logger.Info("Kafka に送信します", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	registryService := application.NewRegistryService(repos.txManager, repos.registry, repos.outbox)
	eventService := application.NewEventService(repos.txManager, repos.registry, repos.events, repos.outbox, eventCache)
	ticketService := application.NewTicketService(repos.txManager, repos.events, repos.tickets, repos.outbox, lockManager, eventCache)

	relay := worker.NewOutboxRelay(repos.outbox, publisher, m, cfg.Outbox.PollInterval, cfg.Outbox.BatchSize)
	relayCtx, stopRelay := context.WithCancel(context.Background())
	go relay.Start(relayCtx)

	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	middleware.SetupMiddleware(e)
	e.Use(middleware.PrometheusMiddleware(m))

	e.GET("/health", handler.NewHealthHandler(repos.health).Check)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), middleware.MetricsBasicAuth(cfg.Metrics))

	handler.RegisterRoutes(e.Group("/api/v1"),
		handler.NewRegistryHandler(registryService),
		handler.NewEventHandler(eventService),
		handler.NewTicketHandler(ticketService),
	)

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("サーバーを起動します", zap.String("addr", addr), zap.String("store", cfg.Store.Driver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("サーバーをシャットダウンしています...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("サーバーシャットダウンエラー", zap.Error(err))
	}
	stopRelay()
	relay.Stop()

	logger.Info("サーバーが正常にシャットダウンしました")
}

// openStore は設定に応じてリポジトリを用意する
func openStore(cfg *config.Config) (*repositories, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		store := memory.NewStore()
		logger.Warn("メモリストアで起動します。再起動で記録は失われます")
		return &repositories{
			txManager: store,
			registry:  memory.NewRegistryRepository(store),
			events:    memory.NewEventRepository(store),
			tickets:   memory.NewTicketRepository(store),
			outbox:    memory.NewOutboxRepository(store),
			health:    map[string]handler.HealthCheck{},
			close:     func() error { return nil },
		}, nil

	case config.StoreDriverPostgres:
		db, err := postgres.NewConnection(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("データベース接続エラー: %w", err)
		}
		if err := postgres.RunMigrations(db.DB, cfg.Store.MigrationsPath); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("データベースに接続しました",
			zap.String("host", cfg.Database.Host),
			zap.String("database", cfg.Database.DBName),
		)
		return &repositories{
			txManager: postgres.NewTxManager(db),
			registry:  postgres.NewRegistryRepository(db),
			events:    postgres.NewEventRepository(db),
			tickets:   postgres.NewTicketRepository(db),
			outbox:    postgres.NewOutboxRepository(db),
			health: map[string]handler.HealthCheck{
				"database": func(ctx context.Context) error { return postgres.Ping(ctx, db) },
			},
			close: db.Close,
		}, nil

	default:
		return nil, fmt.Errorf("不明なストア: %q", cfg.Store.Driver)
	}
}

