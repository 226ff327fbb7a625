package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"aegis-ledger/internal/classifier"
	"aegis-ledger/internal/config"
	"aegis-ledger/internal/db"
	"aegis-ledger/internal/domain"
	apihttp "aegis-ledger/internal/http"
	"aegis-ledger/internal/repository"
	"aegis-ledger/internal/service"
	"aegis-ledger/internal/store"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Backend de snapshots: archivo por defecto, redis o postgres si
	// estan configurados y responden.
	var snapStore repository.SnapshotStore = repository.NewFileSnapshotStore(cfg.SnapshotPath)
	switch {
	case cfg.DatabaseURL != "":
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer pool.Close()
		pgStore := repository.NewPgSnapshotStore(pool)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			logger.Fatal("db schema", zap.Error(err))
		}
		snapStore = pgStore
		logger.Info("using postgres snapshot store")
	case cfg.RedisAddr != "":
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, falling back to file store", zap.Error(err))
		} else {
			snapStore = repository.NewRedisSnapshotStore(redisClient)
			logger.Info("using redis snapshot store")
		}
		cancel()
	}

	bridge := service.NewPersistenceBridge(snapStore, logger)

	sessions := store.New(store.WithCapacity(cfg.MaxSessions))
	sessions.Restore(bridge.Load(ctx))
	// Cada mutacion del store dispara una escritura durable best-effort.
	sessions.OnChange(func(snap domain.Snapshot) {
		bridge.Save(context.Background(), snap)
	})
	if sessions.Len() == 0 {
		sessions.Create("")
	}

	clsClient := classifier.NewHTTPClient(
		cfg.ClassifierBaseURL,
		cfg.ClassifierAPIKey,
		time.Duration(cfg.ClassifierTimeoutSeconds)*time.Second,
		zap.NewStdLog(logger),
	)
	convSvc := service.NewConversationService(
		sessions,
		clsClient,
		logger,
		time.Duration(cfg.ClassifierTimeoutSeconds)*time.Second,
	)
	tokenSvc := service.NewTokenService(cfg.JWTSecret)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured, all callers resolve as guest")
	}

	ledgerHandler := apihttp.NewLedgerHandler(logger, sessions, bridge)
	chatHandler := apihttp.NewChatHandler(logger, convSvc)
	router := apihttp.NewRouter(logger, tokenSvc, ledgerHandler, chatHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
