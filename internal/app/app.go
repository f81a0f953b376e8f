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

	"github.com/mercalog/go-backend/internal/auth"
	config "github.com/mercalog/go-backend/internal/cfg"
	v1Http "github.com/mercalog/go-backend/internal/delivery/v1/http"
	"github.com/mercalog/go-backend/internal/infrastructure/kafka"
	minioInfra "github.com/mercalog/go-backend/internal/infrastructure/minio"
	s3Repo "github.com/mercalog/go-backend/internal/repository/minio"
	"github.com/mercalog/go-backend/internal/repository/pgdb"
	pgdbConv "github.com/mercalog/go-backend/internal/repository/pgdb/converter"
	"github.com/mercalog/go-backend/internal/repository/redis"
	"github.com/mercalog/go-backend/internal/usecase"
	"github.com/mercalog/go-backend/pkg/clients"
	"github.com/mercalog/go-backend/pkg/closer"
	"github.com/mercalog/go-backend/pkg/e"
	"github.com/mercalog/go-backend/pkg/logger"
	"github.com/mercalog/go-backend/pkg/postgres"
)

type App struct {
	cfg     *config.Config
	logger  logger.Logger
	closer  *closer.Closer
	httpSrv *v1Http.Server
	worker  *kafka.OutboxWorker
}

func NewApp(cfg *config.Config, logger logger.Logger) (*App, error) {
	cl := closer.NewCloser(0)

	db, err := initPGDB(logger, cfg)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add(func(_ context.Context) error {
		db.Close()
		return nil
	})

	prConv := pgdbConv.NewProductConverterImpl()
	outboxConv := pgdbConv.NewOutboxEventConverterImpl()

	productRepo := pgdb.NewProductRepo(db.Pool, prConv)
	outboxRepo := pgdb.NewOutboxEventRepo(db.Pool, outboxConv)

	// Без настроенного бакета каталог работает, просто без ссылок на изображения
	var imageRepo usecase.ImageRepository
	if cfg.Minio.BucketName != "" {
		minioClient, err := clients.NewMinIOClient(cfg.Minio)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		minioCtx, minioCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := clients.EnsureBucket(minioCtx, minioClient, cfg.Minio.BucketName); err != nil {
			logger.Warnf("Failed to ensure MinIO bucket %s: %v", cfg.Minio.BucketName, err)
		}
		minioCancel()

		imageRepo = s3Repo.NewImageRepo(minioClient, cfg.Minio)
	} else {
		logger.Warnf("BUCKET_NAME is not set, image URLs are disabled")
	}
	imagesInfra := minioInfra.NewMinioInfrastructure(imageRepo, cfg.Minio, logger)

	redisClient := clients.NewRedisClient(cfg.Redis)
	redisCtx, redisCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(redisCtx); err != nil {
		// Кэш не критичен: справочники читаются из БД
		logger.Warnf("Failed to connect to redis: %v", err)
	}
	redisCancel()
	cl.Add(func(_ context.Context) error {
		return redisClient.Client.Close()
	})
	cacheRepo := redis.NewCacheRepo(redisClient, cfg.Redis, logger)

	productUC := usecase.NewProductUC(
		productRepo,
		outboxRepo,
		cacheRepo,
		db.Pool,
		imagesInfra,
		logger,
	)

	var worker *kafka.OutboxWorker
	if cfg.Kafka.Enabled() {
		producer, err := kafka.NewProducer(logger, cfg.Kafka)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		cl.Add(func(_ context.Context) error {
			return producer.Close()
		})

		if err := producer.EnsureTopic(10 * time.Second); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		worker = kafka.NewOutboxWorker(outboxRepo, logger, producer, db.Dsn)
	} else {
		logger.Infof("KAFKA_BROKERS is not set, event publishing is disabled")
	}

	verifier, err := auth.NewVerifier(cfg.Auth.AccessCodeHash)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	policy := auth.ResolveCookiePolicy(cfg.Auth)

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, logger, cfg.Auth)
	router.Init(productUC, verifier, policy)

	httpSrv := v1Http.NewServer(r, cfg.Http)

	return &App{
		cfg:     cfg,
		logger:  logger,
		closer:  cl,
		httpSrv: httpSrv,
		worker:  worker,
	}, nil
}

func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.worker != nil {
		a.worker.Start(ctx)
	}

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

	cancel()
	if a.worker != nil {
		a.worker.Stop()
	}

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Warnf("Resource close error: %v", err)
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
