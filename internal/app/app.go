package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
	config "github.com/printlab-tech/shopbot-backend/internal/cfg"
	v1Http "github.com/printlab-tech/shopbot-backend/internal/delivery/v1/http"
	"github.com/printlab-tech/shopbot-backend/internal/infrastructure/kafka"
	"github.com/printlab-tech/shopbot-backend/internal/repository/catalogfile"
	"github.com/printlab-tech/shopbot-backend/internal/repository/pgdb"
	pgdbConv "github.com/printlab-tech/shopbot-backend/internal/repository/pgdb/converter"
	"github.com/printlab-tech/shopbot-backend/internal/repository/redis"
	redisConv "github.com/printlab-tech/shopbot-backend/internal/repository/redis/converter"
	"github.com/printlab-tech/shopbot-backend/internal/usecase"
	"github.com/printlab-tech/shopbot-backend/pkg/clients"
	"github.com/printlab-tech/shopbot-backend/pkg/closer"
	"github.com/printlab-tech/shopbot-backend/pkg/e"
	"github.com/printlab-tech/shopbot-backend/pkg/logger"
	"github.com/printlab-tech/shopbot-backend/pkg/postgres"
)

// App связывает все слои приложения и управляет их жизненным циклом.
type App struct {
	cfg          *config.Config
	logger       logger.Logger
	httpSrv      *v1Http.Server
	outboxWorker *kafka.OutboxWorker
	closer       *closer.Closer
}

// NewApp поднимает инфраструктуру и собирает граф зависимостей.
func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	cl := closer.NewCloser(2 * time.Second)

	db, err := initPGDB(log, cfg)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add(func(ctx context.Context) error {
		db.Close()
		log.Infof("Postgres pool closed")
		return nil
	})

	redisClient := clients.NewRedisClient(cfg.Redis)
	redisCtx, redisCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer redisCancel()
	if err := redisClient.Ping(redisCtx); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add(func(ctx context.Context) error {
		return redisClient.Client.Close()
	})

	catalog, err := catalogfile.NewCatalogRepo(cfg.Catalog.FilePath, log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	producer, err := kafka.NewProducer(log, cfg.Kafka)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add(func(ctx context.Context) error {
		return producer.Close()
	})

	if err := producer.EnsureTopic(10 * time.Second); err != nil {
		log.Warnf("Kafka topic check failed, continuing: %v", err)
	}

	userRepo := pgdb.NewUserRepo(db.Pool, pgdbConv.NewUserConverter())
	cartRepo := pgdb.NewCartRepo(db.Pool, pgdbConv.NewCartItemConverter())
	orderRepo := pgdb.NewOrderRepo(db.Pool, pgdbConv.NewOrderConverter())
	outboxRepo := pgdb.NewOutboxEventRepo(db.Pool, pgdbConv.NewOutboxEventConverter())
	sessionRepo := redis.NewSessionRepo(redisClient, redisConv.NewSessionConverter(), cfg.Redis, log)

	conversationUC := usecase.NewConversationUC(
		userRepo,
		cartRepo,
		orderRepo,
		outboxRepo,
		sessionRepo,
		catalog,
		db.Pool,
		log,
		cfg.Bot.OrdersPageSize,
	)

	outboxWorker := kafka.NewOutboxWorker(outboxRepo, log, producer, db.Dsn)

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, log)
	router.Init(conversationUC)

	httpSrv := v1Http.NewServer(r, cfg.Http)

	return &App{
		cfg:          cfg,
		logger:       log,
		httpSrv:      httpSrv,
		outboxWorker: outboxWorker,
		closer:       cl,
	}, nil
}

// Run запускает HTTP-сервер и outbox-воркер, блокируется до сигнала
// завершения или фатальной ошибки сервера.
func (a *App) Run() error {
	workerCtx, workerCancel := context.WithCancel(context.Background())
	a.outboxWorker.Start(workerCtx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Errorf(err, "HTTP server failed")
			errCh <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "HTTP server fatal error")
	case <-shutdown:
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := a.httpSrv.Stop(shutdownCtx); err != nil {
		a.logger.Errorf(err, "HTTP server shutdown error")
	} else {
		a.logger.Infof("HTTP server stopped")
	}

	workerCancel()
	a.outboxWorker.Stop()
	a.logger.Infof("Outbox worker stopped")

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Warnf("resource shutdown: %v", err)
	}

	a.logger.Infof("Application shutdown complete")

	return appErr
}

func initPGDB(logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(cfg.Db)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(logger); err != nil {
		logger.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.Ping(); err != nil {
		logger.Errorf(err, "failed to ping database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
