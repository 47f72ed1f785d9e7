package main

import (
	"context"
	"crypto/rand"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"med_bridge/internal/api"
	"med_bridge/internal/llm"
	"med_bridge/internal/logger"
	"med_bridge/internal/repository"
	"med_bridge/internal/service"
	"med_bridge/internal/storage"
	"med_bridge/internal/translate"
	"med_bridge/internal/utils"
	"med_bridge/pkg/config"
)

func main() {
	// 載入應用程式配置；沒有推論 API 憑證時直接結束
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.Env, cfg.Log.Level)

	// 初始化資料庫連接並遷移結構
	db, err := storage.Open(cfg.DB)
	if err != nil {
		appLogger.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		appLogger.Fatal().Err(err).Msg("failed to migrate database")
	}

	// 初始化 repositories
	repos := repository.NewRepositories(db)

	secret := []byte(cfg.Session.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			appLogger.Fatal().Err(err).Msg("failed to generate session secret")
		}
		appLogger.Warn().Msg("session.secret not set, using a per-process secret; tokens will not survive restarts")
	}
	tokens := utils.NewTokenIssuer(secret, cfg.Session.TTL)

	// 摘要與翻譯共用同一個推論端點，但彼此獨立失敗
	llmClient := llm.NewClient(cfg.LLM)
	var translator translate.Translator = translate.NoopTranslator{}
	if cfg.Translation.Enabled {
		translator = translate.NewLLMTranslator(llmClient)
	}

	// 初始化 services
	services := service.NewServices(cfg, repos, tokens, translator, llmClient, appLogger)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	api.SetupRoutes(r, services, db, api.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadBytes: cfg.Ingest.MaxAudioBytes,
	}, appLogger)

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2*cfg.LLM.Timeout + cfg.LLM.RateLimitBackoff + 15*time.Second, // 摘要最多兩次推論加一次退避
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		appLogger.Info().
			Str("address", cfg.Server.Address).
			Str("env", cfg.Env).
			Str("db_driver", cfg.DB.Driver).
			Str("model", llmClient.Model()).
			Msg("starting med_bridge server")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// 等待中斷訊號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error().Err(err).Msg("server forced to shutdown")
	}

	appLogger.Info().Msg("server stopped")
}
