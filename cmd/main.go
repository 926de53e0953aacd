package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"ethos/backend/internal/api/handler"
	"ethos/backend/internal/chat"
	"ethos/backend/internal/chathub"
	"ethos/backend/internal/config"
	"ethos/backend/internal/fieldcrypt"
	"ethos/backend/internal/localization"
	"ethos/backend/internal/logger"
	"ethos/backend/internal/notify"
	"ethos/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupStorage(cfg config.Config) storage.Storage {
	if cfg.StorageDriver == config.StorageDriverMemory {
		logger.Warn("using in-memory storage; data is lost on restart")
		return storage.NewMemoryStore()
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	s := storage.NewStorageService(db)
	if err := s.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("database connection established, migrations complete")
	return s
}

func setupRedis(ctx context.Context, cfg config.Config) *redis.Client {
	if cfg.RedisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Invalid REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(opts)
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}
	logger.Info("redis connection established, room fan-out is multi-node")
	return rdb
}

func setupNotifier(ctx context.Context, cfg config.Config) notify.Notifier {
	if cfg.TelegramBotToken == "" {
		return notify.Nop{}
	}
	localizer, err := localization.NewDefault()
	if err != nil {
		log.Fatalf("Failed to load localization catalogues: %v", err)
	}
	n, err := notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramHRChatID, localizer, cfg.NotifyLang)
	if err != nil {
		log.Fatalf("Failed to start Telegram notifier: %v", err)
	}
	go n.Run(ctx)
	return n
}

func main() {
	log.Println("Starting ETHOS case chat...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger.Init(cfg.LogLevel, cfg.IsProduction())

	cipher, err := fieldcrypt.NewFromHex(cfg.CipherKeyHex, cfg.CipherAlg)
	if err != nil {
		log.Fatalf("Failed to load cipher key: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := setupStorage(cfg)
	rdb := setupRedis(ctx, cfg)
	notifier := setupNotifier(ctx, cfg)

	svc := chat.NewService(store, cipher, notifier)

	var broker chathub.Broker
	if rdb != nil {
		broker = chathub.NewRedisBroker(rdb)
	}
	hub := chathub.NewManagerService(svc, broker, chathub.NewMetrics(prometheus.DefaultRegisterer), cfg.OpTimeout)
	if err := hub.StartPubSubListener(ctx); err != nil {
		log.Fatalf("Failed to subscribe to room channels: %v", err)
	}
	go hub.Run(ctx)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	h := handler.NewHandler(hub, svc, handler.NewTokenAuth(cfg.JWTSecret, cfg.JWTIssuer), store)
	h.Redis = rdb
	h.Routes(r)

	server := &http.Server{
		Addr:           cfg.HTTPAddr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("http server listening", "addr", cfg.HTTPAddr, "storage", cfg.StorageDriver, "cipher", cfg.CipherAlg)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	logger.Info("server stopped")
}
