package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"med_bridge/internal/api/handlers"
	"med_bridge/internal/middleware"
	"med_bridge/internal/service"
)

// Pinger 健康檢查用，回報儲存層是否可用
type Pinger interface {
	Ping() error
}

// Options 路由設定
type Options struct {
	AllowedOrigins []string
	MaxUploadBytes int64
}

func SetupRoutes(r *gin.Engine, services *service.Services, store Pinger, opts Options, logger zerolog.Logger) {
	// 初始化 handlers
	sessionHandler := handlers.NewSessionHandler(services.Session)
	roomHandler := handlers.NewRoomHandler(services)
	wsHandler := handlers.NewWebSocketHandler(services.WebSocket)

	if opts.MaxUploadBytes > 0 {
		r.MaxMultipartMemory = opts.MaxUploadBytes
	}

	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Metrics(),
		cors.New(corsConfig(opts.AllowedOrigins)),
	)

	// 處理 404 錯誤
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "route not found",
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API 路由群組
	api := r.Group("/api")

	// 公開路由
	{
		api.POST("/sessions", sessionHandler.Join)

		// 健康檢查，包含儲存層
		api.GET("/health", func(c *gin.Context) {
			if err := store.Ping(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "store": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
			})
		})
	}

	// 需要會話憑證的路由，房間取自憑證
	authorized := api.Group("/")
	authorized.Use(middleware.SessionMiddleware(services.Session))
	{
		room := authorized.Group("/room")
		{
			room.GET("/messages", roomHandler.History)
			room.POST("/messages", roomHandler.SendText)
			room.POST("/audio", roomHandler.SendAudio)
			room.GET("/search", roomHandler.Search)
			room.POST("/summary", roomHandler.Summary)

			room.GET("/ws", wsHandler.HandleWebSocket) // WebSocket 連接點，token 以查詢參數帶入
		}

		authorized.GET("/audio/:ref", roomHandler.Audio)
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
