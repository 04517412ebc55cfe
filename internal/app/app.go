package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/catalog-sync/internal/cfg"
	v1Http "github.com/DRSN-tech/catalog-sync/internal/delivery/v1/http"
	"github.com/DRSN-tech/catalog-sync/internal/infrastructure/kafka"
	"github.com/DRSN-tech/catalog-sync/internal/infrastructure/remote"
	"github.com/DRSN-tech/catalog-sync/internal/repository/pgdb"
	pgdbConv "github.com/DRSN-tech/catalog-sync/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/catalog-sync/internal/repository/redis"
	redisConv "github.com/DRSN-tech/catalog-sync/internal/repository/redis/converter"
	"github.com/DRSN-tech/catalog-sync/internal/usecase"
	"github.com/DRSN-tech/catalog-sync/pkg/clients"
	"github.com/DRSN-tech/catalog-sync/pkg/closer"
	"github.com/DRSN-tech/catalog-sync/pkg/e"
	"github.com/DRSN-tech/catalog-sync/pkg/logger"
	"github.com/DRSN-tech/catalog-sync/pkg/postgres"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

// App собирает зависимости сессии синхронизации филиала.
type App struct {
	cfg       *config.Config
	logger    logger.Logger
	db        *postgres.PgDatabase
	catalogUC *usecase.CatalogUseCase
	closer    *closer.Closer
}

func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	initCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	c := closer.NewCloser(0)

	db, err := initPGDB(initCtx, log, cfg)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	c.Add("postgres", func(context.Context) error {
		db.Close()
		return nil
	})

	redisClient := clients.NewRedisClient(cfg.Redis)
	if err := redisClient.Ping(initCtx); err != nil {
		// кэш необязателен: листинг читает базу напрямую, если Redis недоступен
		log.Warnf("redis is unavailable, listing cache will miss: %s", err.Error())
	}
	c.Add("redis", func(context.Context) error {
		return redisClient.Close()
	})

	events := initEventPublisher(log, cfg, db, c)

	productRepo := pgdb.NewProductRepo(db.Pool, pgdbConv.NewProductConverterImpl())
	cacheRepo := redis.NewCacheRepo(redisClient, redisConv.NewCatalogPageConverterImpl(), cfg.Redis, log)
	gateway := remote.NewGateway(&http.Client{}, cfg.Remote)

	catalogUC := usecase.NewCatalogUC(
		cfg.Sync.BranchID,
		cfg.Sync.ListLimit,
		productRepo,
		cacheRepo,
		gateway,
		events,
		log,
	)

	return &App{
		cfg:       cfg,
		logger:    log,
		db:        db,
		catalogUC: catalogUC,
		closer:    c,
	}, nil
}

// Run поднимает HTTP API и ждёт сигнала остановки. Перед закрытием ресурсов дожидается фоновых push-вызовов.
func (a *App) Run() error {
	r := chi.NewRouter()
	router := v1Http.NewRouter(r, a.logger)
	router.Init(a.catalogUC)

	httpSrv := v1Http.NewServer(r, a.cfg.Http)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on port %s, branch %s", a.cfg.Http.Port, a.cfg.Sync.BranchID)
		if err := httpSrv.Run(); err != nil {
			errCh <- err
		}
	}()

	go a.initialRefresh()

	// === Ожидание сигнала или ошибки ===
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "HTTP server fatal error")
	case <-shutdown:
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	// === Graceful shutdown ===
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.Sync.ShutdownDeadline)
	defer shutdownCancel()

	if err := httpSrv.Stop(shutdownCtx); err != nil {
		a.logger.Errorf(err, "HTTP server shutdown error")
	} else {
		a.logger.Infof("HTTP server stopped")
	}

	a.waitForBackground()

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Errorf(err, "failed to close resources")
	}

	a.logger.Infof("Application shutdown complete")
	return appErr
}

// SyncOnce выполняет одну синхронизацию с сервером и завершается.
func (a *App) SyncOnce(ctx context.Context) error {
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Sync.ShutdownDeadline)
		defer cancel()
		if err := a.closer.Close(closeCtx); err != nil {
			a.logger.Errorf(err, "failed to close resources")
		}
	}()

	res, err := a.catalogUC.Refresh(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if !res.Synced {
		a.logger.Warnf("server is unreachable, local catalog kept as is")
		return nil
	}

	a.logger.Infof("catalog synced: %d products", res.Count)
	return nil
}

// Migrate применяет миграции или откатывает последнюю.
func Migrate(ctx context.Context, cfg *config.Config, log logger.Logger, down bool) error {
	db, err := postgres.Connect(ctx, cfg.Db)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer db.Close()

	if down {
		return db.RollbackMigration(log)
	}
	return db.RunMigrations(log)
}

// initialRefresh подтягивает каталог при старте. Неудача не мешает работе с локальными данными.
func (a *App) initialRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*a.cfg.Remote.Timeout)
	defer cancel()

	res, err := a.catalogUC.Refresh(ctx)
	if err != nil {
		a.logger.Errorf(err, "initial refresh failed")
		return
	}
	if !res.Synced {
		a.logger.Warnf("initial refresh skipped: server is unreachable")
	}
}

func (a *App) waitForBackground() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Sync.BackgroundWait)
	defer cancel()

	if err := a.catalogUC.WaitForBackground(ctx); err != nil {
		a.logger.Warnf("background sync did not finish before shutdown, pending deletes may be lost: %s", err.Error())
		return
	}
	a.logger.Infof("background sync completed")
}

// initEventPublisher выбирает получателя событий синхронизации. С Kafka события сначала пишутся в журнал,
// а воркер доставляет их, когда брокер доступен.
func initEventPublisher(log logger.Logger, cfg *config.Config, db *postgres.PgDatabase, c *closer.Closer) usecase.SyncEventPublisher {
	if !cfg.Kafka.Enabled() {
		log.Infof("KAFKA_BROKERS is not set, sync events go to the log only")
		return usecase.NewLogEventPublisher(log)
	}

	producer := kafka.NewProducer(log, cfg.Kafka)
	if err := producer.EnsureTopic(10 * time.Second); err != nil {
		log.Warnf("failed to ensure kafka topic %s: %s", cfg.Kafka.Topic, err.Error())
	}
	c.Add("kafka producer", func(context.Context) error {
		return producer.Close()
	})

	outbox := pgdb.NewSyncEventRepo(db.Pool, pgdbConv.NewSyncEventConverterImpl())

	workerCtx, cancel := context.WithCancel(context.Background())
	worker := kafka.NewOutboxWorker(outbox, log, producer, pgdb.OutboxChannel, db.Dsn, cfg.Kafka.PollInterval)
	worker.Start(workerCtx)
	c.Add("outbox worker", func(context.Context) error {
		cancel()
		worker.Stop()
		return nil
	})

	return usecase.NewOutboxEventPublisher(outbox)
}

func initPGDB(ctx context.Context, logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(ctx, cfg.Db)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(logger); err != nil {
		logger.Errorf(err, "failed to run migrations")
		db.Close()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.Ping(ctx); err != nil {
		logger.Errorf(err, "failed to ping database")
		db.Close()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
