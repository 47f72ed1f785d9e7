package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"med_bridge/internal/models"
	"med_bridge/internal/service"
)

// SessionHandler 處理加入房間的請求
type SessionHandler struct {
	sessionService *service.SessionService
}

func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// JoinInput 定義加入房間請求的結構
type JoinInput struct {
	Role       string `json:"role"`
	RoomID     string `json:"room_id"`
	Language   string `json:"language"`
	TargetLang string `json:"target_lang"`
}

type JoinResponse struct {
	Token     string                `json:"token"`
	ExpiresAt time.Time             `json:"expires_at"`
	Session   models.SessionContext `json:"session"`
}

// Join 驗證角色與房間 ID 並簽發會話憑證
func (h *SessionHandler) Join(c *gin.Context) {
	var input JoinInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.sessionService.Join(input.Role, input.RoomID, input.Language, input.TargetLang)
	if err != nil {
		respondError(c, err)
		return
	}

	token, expiresAt, err := h.sessionService.IssueToken(sess)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, JoinResponse{Token: token, ExpiresAt: expiresAt, Session: sess})
}
