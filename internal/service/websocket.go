package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"med_bridge/internal/errs"
	"med_bridge/internal/metrics"
	"med_bridge/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxFrameSize   = 8192
	sendBufferSize = 256
)

// Event 推送給用戶端的事件
type Event struct {
	Type    string          `json:"type"` // "message", "system" or "error"
	Message *models.Message `json:"message,omitempty"`
	Content string          `json:"content,omitempty"`
}

// inboundFrame 用戶端可透過 WebSocket 送出文字訊息
type inboundFrame struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Client 代表一個 WebSocket 客戶端連接
type Client struct {
	Conn     *websocket.Conn
	Session  models.SessionContext
	SendChan chan *Event // 消息發送通道，用於異步傳送消息
	done     chan struct{}
	once     sync.Once
}

func NewClient(conn *websocket.Conn, sess models.SessionContext) *Client {
	return &Client{
		Conn:     conn,
		Session:  sess,
		SendChan: make(chan *Event, sendBufferSize),
		done:     make(chan struct{}),
	}
}

func (c *Client) close() {
	c.once.Do(func() {
		close(c.done)
		c.Conn.Close()
	})
}

// WebSocketManager 管理各房間的 WebSocket 連接，把新訊息推送給同房間的用戶端。
// 它只是通知管道，訊息的唯一來源仍是儲存層
type WebSocketManager struct {
	clients    map[string]map[*Client]bool // 兩層 map: roomID -> client -> bool
	clientsMux sync.RWMutex
	messages   *MessageService
	logger     zerolog.Logger
}

func NewWebSocketManager(messages *MessageService, logger zerolog.Logger) *WebSocketManager {
	return &WebSocketManager{
		clients:  make(map[string]map[*Client]bool),
		messages: messages,
		logger:   logger.With().Str("component", "websocket").Logger(),
	}
}

// HandleClient 處理一個已升級的連接，直到連接關閉才返回
func (m *WebSocketManager) HandleClient(client *Client) {
	m.addClient(client)
	defer func() {
		m.removeClient(client)
		client.close()
	}()

	m.BroadcastSystemMessage(client.Session.RoomID, client.Session.Role.Label()+" joined the room")

	go m.writePump(client)
	m.readPump(client)
}

// readPump 持續監聽用戶端送來的訊息
func (m *WebSocketManager) readPump(client *Client) {
	client.Conn.SetReadLimit(maxFrameSize)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				m.logger.Warn().Err(err).Str("room_id", client.Session.RoomID).Msg("websocket unexpected close")
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil || frame.Type != "text" {
			m.sendTo(client, &Event{Type: "error", Content: "unsupported frame"})
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		msg, err := m.messages.SendText(ctx, client.Session, frame.Text)
		cancel()
		if err != nil {
			content := "message could not be stored, please retry"
			if errs.IsValidation(err) {
				content = err.Error()
			}
			m.logger.Warn().Err(err).Str("room_id", client.Session.RoomID).Msg("websocket send failed")
			m.sendTo(client, &Event{Type: "error", Content: content})
			continue
		}
		m.BroadcastMessage(client.Session.RoomID, msg)
	}
}

// writePump 處理向客戶端發送消息與心跳
func (m *WebSocketManager) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-client.done:
			return

		case event := <-client.SendChan:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteJSON(event); err != nil {
				client.close()
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				client.close()
				return
			}
		}
	}
}

// BroadcastMessage 把新儲存的訊息推送給房間內所有用戶端
func (m *WebSocketManager) BroadcastMessage(roomID string, msg *models.Message) {
	m.broadcast(roomID, &Event{Type: "message", Message: msg})
}

// BroadcastSystemMessage 發送系統消息到指定房間
func (m *WebSocketManager) BroadcastSystemMessage(roomID, content string) {
	m.broadcast(roomID, &Event{Type: "system", Content: content})
}

func (m *WebSocketManager) broadcast(roomID string, event *Event) {
	m.clientsMux.RLock()
	clients := make([]*Client, 0, len(m.clients[roomID]))
	for c := range m.clients[roomID] {
		clients = append(clients, c)
	}
	m.clientsMux.RUnlock()

	for _, c := range clients {
		m.sendTo(c, event)
	}
}

// sendTo 放入發送隊列；隊列已滿的慢速用戶端直接斷線
func (m *WebSocketManager) sendTo(client *Client, event *Event) {
	select {
	case client.SendChan <- event:
	default:
		m.logger.Warn().Str("room_id", client.Session.RoomID).Msg("client send buffer full, dropping connection")
		m.removeClient(client)
		client.close()
	}
}

func (m *WebSocketManager) addClient(client *Client) {
	m.clientsMux.Lock()
	defer m.clientsMux.Unlock()

	roomID := client.Session.RoomID
	if m.clients[roomID] == nil {
		m.clients[roomID] = make(map[*Client]bool)
	}
	m.clients[roomID][client] = true
	metrics.WebSocketClients.Inc()
}

func (m *WebSocketManager) removeClient(client *Client) {
	m.clientsMux.Lock()
	defer m.clientsMux.Unlock()

	roomID := client.Session.RoomID
	if clients, ok := m.clients[roomID]; ok {
		if !clients[client] {
			return
		}
		delete(clients, client)
		metrics.WebSocketClients.Dec()
		// 房間沒有人了就移除
		if len(clients) == 0 {
			delete(m.clients, roomID)
		}
	}
}

// RoomClients 指定房間的在線客戶端數量
func (m *WebSocketManager) RoomClients(roomID string) int {
	m.clientsMux.RLock()
	defer m.clientsMux.RUnlock()

	return len(m.clients[roomID])
}
