package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"med_bridge/internal/errs"
	"med_bridge/internal/middleware"
	"med_bridge/internal/models"
	"med_bridge/internal/repository"
	"med_bridge/internal/service"
)

// respondError 依錯誤種類決定 HTTP 狀態碼，所有 handler 都經過這裡
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var (
		ve *errs.ValidationError
		pe *errs.PatternError
		su *errs.SummarizationUnavailable
		se *errs.StorageError
	)
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error(), "field": ve.Field})
	case errors.As(err, &pe):
		c.JSON(http.StatusBadRequest, gin.H{"error": pe.Error()})
	case errors.As(err, &su):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": su.Reason, "retryable": true})
	case errors.Is(err, service.ErrAudioNotInRoom), errors.Is(err, repository.ErrAudioNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "audio not found"})
	case errors.As(err, &se):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage is temporarily unavailable, please retry", "retryable": true})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// currentSession 取出中間件放入的會話；不存在代表路由少掛了中間件
func currentSession(c *gin.Context) (models.SessionContext, bool) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session token is required"})
	}
	return sess, ok
}
