package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"med_bridge/internal/models"
)

const sessionKey = "session"

// SessionResolver 由憑證還原會話
type SessionResolver interface {
	Resolve(token string) (models.SessionContext, error)
}

// SessionMiddleware 是一個 Gin 中間件，驗證會話憑證並把會話放進上下文。
// 瀏覽器的 WebSocket 無法帶自訂標頭，所以也接受 token 查詢參數
func SessionMiddleware(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session token is required"})
			return
		}

		sess, err := resolver.Resolve(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session token"})
			return
		}

		c.Set(sessionKey, sess)
		c.Next()
	}
}

// GetSession 取出 SessionMiddleware 設定的會話
func GetSession(c *gin.Context) (models.SessionContext, bool) {
	v, exists := c.Get(sessionKey)
	if !exists {
		return models.SessionContext{}, false
	}
	sess, ok := v.(models.SessionContext)
	return sess, ok
}

func bearerToken(c *gin.Context) (string, bool) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		// 檢查 Authorization 頭的格式
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			return "", false
		}
		return strings.TrimSpace(parts[1]), true
	}
	if token := c.Query("token"); token != "" {
		return token, true
	}
	return "", false
}
