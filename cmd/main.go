package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ebakoking/cardmatchapp-sub000/internal/api/handler"
	"github.com/ebakoking/cardmatchapp-sub000/internal/chathub"
	"github.com/ebakoking/cardmatchapp-sub000/internal/config"
	"github.com/ebakoking/cardmatchapp-sub000/internal/features"
	"github.com/ebakoking/cardmatchapp-sub000/internal/ledger"
	applog "github.com/ebakoking/cardmatchapp-sub000/internal/log"
	"github.com/ebakoking/cardmatchapp-sub000/internal/match"
	"github.com/ebakoking/cardmatchapp-sub000/internal/metrics"
	"github.com/ebakoking/cardmatchapp-sub000/internal/models"
	"github.com/ebakoking/cardmatchapp-sub000/internal/storage"
)

func setupDependencies(cfg config.Config) (*gorm.DB, *redis.Client) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect PostgreSQL")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect Redis")
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.ChatSession{},
		&models.MatchRecord{},
		&models.UserBlock{},
		&models.Message{},
		&models.Gift{},
		&models.SparkTransaction{},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	log.Info().Msg("database and redis connections established, migrations complete")
	return db, rdb
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("no .env file loaded")
	}
	cfg := config.Load()
	applog.Init(cfg.Env)

	log.Info().Msg("starting pairchat backend")

	db, rdb := setupDependencies(cfg)
	s := storage.NewStorageService(db, rdb)

	flags := features.NewClient(cfg.FeaturesURL, cfg.FeaturesTTL)
	go flags.Run(context.Background())
	led := ledger.NewService(s, flags)
	registry := match.NewRegistry()

	hub := chathub.NewManagerService(s, led, registry)
	matcher := chathub.NewMatcherService(hub, s, registry, chathub.StrategyFromName(cfg.MatchStrategy))

	hub.RecoverActiveSessions()
	go hub.Run()
	go matcher.Run()

	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), metrics.GinMiddleware())

	h := handler.NewHandler(hub, s, cfg.JWTSecret)
	r.GET("/auth/anon", h.GetAnonID)
	r.GET("/ws", h.ServeWebSocket)
	r.POST("/api/blocks", h.CreateBlock)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Info().Str("port", cfg.Port).Msg("http server listening")
	if err := server.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("http server stopped")
	}
}
