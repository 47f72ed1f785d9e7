package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"med_bridge/internal/models"
	"med_bridge/internal/service"
)

const (
	highlightOpen  = "**"
	highlightClose = "**"
)

// RoomHandler 處理會話所屬房間內的訊息、搜尋與摘要請求。
// 房間一律取自會話憑證，不接受路徑或參數指定
type RoomHandler struct {
	messageService *service.MessageService
	searchService  *service.SearchService
	summaryService *service.SummaryService
	wsManager      *service.WebSocketManager
}

func NewRoomHandler(services *service.Services) *RoomHandler {
	return &RoomHandler{
		messageService: services.Message,
		searchService:  services.Search,
		summaryService: services.Summary,
		wsManager:      services.WebSocket,
	}
}

type SendTextInput struct {
	Text string `json:"text"`
}

type HistoryResponse struct {
	RoomID   string           `json:"room_id"`
	Messages []models.Message `json:"messages"`
}

type SearchHit struct {
	service.SearchResult
	Highlighted string `json:"highlighted"`
}

type SearchResponse struct {
	RoomID  string      `json:"room_id"`
	Pattern string      `json:"pattern"`
	Results []SearchHit `json:"results"`
}

// History 房間的完整訊息歷史
func (h *RoomHandler) History(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	messages, err := h.messageService.History(c.Request.Context(), sess)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, HistoryResponse{RoomID: sess.RoomID, Messages: messages})
}

// SendText 儲存文字訊息並推送給房間內的連線
func (h *RoomHandler) SendText(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var input SendTextInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.messageService.SendText(c.Request.Context(), sess, input.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	h.wsManager.BroadcastMessage(sess.RoomID, msg)
	c.JSON(http.StatusCreated, msg)
}

// SendAudio 接收 multipart 的 audio 欄位
func (h *RoomHandler) SendAudio(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio: multipart file field is required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio: unreadable upload"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio: unreadable upload"})
		return
	}

	msg, created, err := h.messageService.SendAudio(c.Request.Context(), sess, data, fh.Header.Get("Content-Type"))
	if err != nil {
		respondError(c, err)
		return
	}

	// 重送的錄音已推送過，不再廣播
	if !created {
		c.JSON(http.StatusOK, msg)
		return
	}
	h.wsManager.BroadcastMessage(sess.RoomID, msg)
	c.JSON(http.StatusCreated, msg)
}

// Audio 下載音檔；只能取得自己房間內的音檔
func (h *RoomHandler) Audio(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	blob, err := h.messageService.Audio(c.Request.Context(), sess, c.Param("ref"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Cache-Control", "private, max-age=31536000, immutable")
	c.Data(http.StatusOK, blob.MimeType, blob.Data)
}

// Search 以正規表示式搜尋房間歷史，literal=true 時當一般字串
func (h *RoomHandler) Search(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	pattern := c.Query("q")
	literal, _ := strconv.ParseBool(c.DefaultQuery("literal", "false"))

	results, err := h.searchService.Search(c.Request.Context(), sess.RoomID, pattern, service.SearchOptions{Literal: literal})
	if err != nil {
		respondError(c, err)
		return
	}

	hits := make([]SearchHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, SearchHit{
			SearchResult: r,
			Highlighted:  service.Highlight(r.Message.DisplayText(), r.Spans, highlightOpen, highlightClose),
		})
	}

	c.JSON(http.StatusOK, SearchResponse{RoomID: sess.RoomID, Pattern: pattern, Results: hits})
}

// Summary 產生房間的病歷摘要；模型不可用時回 503，可稍後重試
func (h *RoomHandler) Summary(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	note, err := h.summaryService.Summarize(c.Request.Context(), sess.RoomID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, note)
}
