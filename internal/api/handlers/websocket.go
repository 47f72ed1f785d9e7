package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"med_bridge/internal/service"
)

// 定義 WebSocket 升級器
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 來源限制交給 CORS 設定；憑證本身已綁定房間
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler 處理 WebSocket 連接
type WebSocketHandler struct {
	wsManager *service.WebSocketManager
}

func NewWebSocketHandler(wsManager *service.WebSocketManager) *WebSocketHandler {
	return &WebSocketHandler{wsManager: wsManager}
}

// HandleWebSocket 升級連接並加入會話所屬房間的推送
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	// 升級 HTTP 連接為 WebSocket 連接；失敗時 upgrader 已回應錯誤
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		_ = c.Error(err)
		return
	}

	// 阻塞直到連接關閉
	h.wsManager.HandleClient(service.NewClient(conn, sess))
}
