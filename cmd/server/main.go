package main

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/oatext/internal/config"
	"github.com/oatext/internal/handler"
	"github.com/oatext/internal/logging"
	"github.com/oatext/internal/repository"
	"github.com/oatext/internal/router"
	"github.com/oatext/internal/store"
)

func main() {
	config.LoadDotEnvs()
	cfg := config.Load()
	logging.InitLogger(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()

	// 初始化存储引擎
	engine, err := store.Open(ctx, store.Options{
		Driver:        cfg.StoreDriver,
		DatabasePath:  cfg.DatabasePath,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
	})
	if err != nil {
		logging.Log.WithError(err).Fatal("failed to open store")
	}

	var ids repository.Allocator
	if cfg.RedisAddr != "" {
		allocator, err := repository.NewRedisAllocator(ctx, cfg.RedisAddr, cfg.RedisPassword, engine)
		if err != nil {
			logging.Log.WithError(err).Fatal("failed to connect to redis")
		}
		defer allocator.Close()
		ids = allocator
	}

	repo := repository.New(engine, ids)
	defer repo.Close()

	api := handler.NewAPI(repo, handler.Options{
		UploadDir:           cfg.UploadDir,
		UploadURL:           cfg.UploadURLPath,
		VerificationCodeTTL: cfg.VerificationCodeTTL,
	})

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(api, cfg.SessionSecret, cfg.UploadDir, cfg.UploadURLPath, cfg.CORSOrigins)
	logging.Log.WithField("addr", cfg.ListenAddr).WithField("driver", cfg.StoreDriver).Info("api server starts up")
	if err := r.Run(cfg.ListenAddr); err != nil {
		logging.Log.WithError(err).Fatal("failed to run server")
	}
}
