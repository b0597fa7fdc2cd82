package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/attendance-ledger/config"
	"github.com/oksasatya/attendance-ledger/internal/container"
	"github.com/oksasatya/attendance-ledger/internal/domain/repository"
	"github.com/oksasatya/attendance-ledger/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/attendance-ledger/internal/infrastructure/postgres"
	"github.com/oksasatya/attendance-ledger/internal/interface/middleware"
	"github.com/oksasatya/attendance-ledger/internal/router"
	"github.com/oksasatya/attendance-ledger/pkg/helpers"
	"github.com/oksasatya/attendance-ledger/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()

	ledger, closeStore, err := openLedger(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("ledger store: %v", err)
	}
	defer closeStore()

	// Redis is optional; without it the device limiter lets everything through
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := helpers.PingRedis(ctx, rdb, 3*time.Second); err != nil {
			logger.WithError(err).Warn("redis unavailable, rate limiting disabled")
			_ = rdb.Close()
			rdb = nil
		} else {
			defer func() { _ = rdb.Close() }()
		}
	}

	var publisher *helpers.RabbitPublisher
	if cfg.EventsEnabled && cfg.RabbitMQURL != "" {
		publisher, err = helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQLedgerQueue)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq unavailable, ledger events disabled")
			publisher = nil
		} else {
			defer publisher.Close()
		}
	}

	c := &container.Container{
		Config:    cfg,
		Logger:    logger,
		Ledger:    ledger,
		Redis:     rdb,
		Publisher: publisher,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP())
	corsCfg := cors.Config{
		AllowOrigins:  cfg.CORSOrigins(),
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(corsCfg.AllowOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	}
	r.Use(cors.New(corsCfg))
	if cfg.HTTPLogEnabled {
		r.Use(gin.Logger())
	}

	reg := router.NewRegistry(r, cfg.RoutePrefix)
	if err := router.InitModules(reg, c); err != nil {
		logger.Fatalf("init modules: %v", err)
	}
	reg.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.WithFields(logrus.Fields{"port": cfg.Port, "store": cfg.StoreDriver, "envelope": cfg.EnvelopeMode}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Errorf("server forced to shutdown: %v", err)
		return
	}
	logger.Info("server exited properly")
}

// openLedger builds the configured store. The returned func releases it.
func openLedger(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (repository.Ledger, func(), error) {
	if cfg.StoreDriver == config.StoreMemory {
		logger.Warn("using in-memory ledger, data is lost on exit")
		return memory.NewLedger(), func() {}, nil
	}

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DBAutoMigrate {
		if err := pginfra.RunMigrations(cfg.PostgresDSN(), logger); err != nil {
			pool.Close()
			return nil, nil, err
		}
	}
	return pginfra.NewLedger(pool), pool.Close, nil
}
