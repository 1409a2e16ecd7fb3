package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/financeflow/financeflow-api/internal/auth"
	"github.com/financeflow/financeflow-api/internal/config"
	"github.com/financeflow/financeflow-api/internal/database"
	"github.com/financeflow/financeflow-api/internal/handler"
	"github.com/financeflow/financeflow-api/internal/logger"
	"github.com/financeflow/financeflow-api/internal/queue"
	"github.com/financeflow/financeflow-api/internal/repository"
	"github.com/financeflow/financeflow-api/internal/router"
	"github.com/financeflow/financeflow-api/internal/service"
)

func main() {
	// .env is optional; real deployments inject env vars directly.
	_ = godotenv.Load()

	cfg := config.Load()

	zlog, err := logger.New()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	db, err := database.Open(cfg)
	if err != nil {
		zlog.Fatal("open database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	rdb := config.NewRedisClient()
	if rdb == nil {
		// The OAuth flow cannot verify state values without Redis.
		zlog.Fatal("redis unavailable")
	}

	users := repository.NewUserRepo(db)
	accounts := repository.NewAccountRepo(db)
	tokens := repository.NewTokenRepo(db)
	links := repository.NewOAuthRepo(db)
	states := repository.NewStateStore(rdb)

	codec := auth.NewCodec(cfg.AccessSecret, cfg.RefreshSecret)
	events := queue.NewPublisher(cfg.RabbitURL, zlog)

	authSvc := service.NewAuthService(users, accounts, tokens, codec, events, zlog, service.Options{
		RotateRefresh:    cfg.RotateRefresh,
		LogoutAllDevices: cfg.LogoutAllDevices,
	})
	oauthSvc := service.NewOAuthService(
		cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.AppBaseURL,
		users, accounts, links, states, authSvc, events, zlog,
	)

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, authSvc, zlog), handler.NewOAuthHandler(cfg, oauthSvc, zlog), codec)

	addr := ":" + cfg.Port
	zlog.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := e.Start(addr); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}
