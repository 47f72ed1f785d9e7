package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"

	"med_bridge/internal/models"
)

// ErrInvalidToken 會話憑證無效或已過期
var ErrInvalidToken = errors.New("invalid or expired session token")

type Claims struct {
	RoomID     string `json:"room_id"`
	Role       string `json:"role"`
	Language   string `json:"lang"`
	TargetLang string `json:"target_lang"`
	jwt.StandardClaims
}

// TokenIssuer 簽發與解析房間會話憑證
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: secret, ttl: ttl, now: time.Now}
}

// GenerateToken 為會話產生一個新的 JWT token
func (i *TokenIssuer) GenerateToken(sess models.SessionContext) (string, time.Time, error) {
	nowTime := i.now()
	expireTime := nowTime.Add(i.ttl)

	claims := Claims{
		RoomID:     sess.RoomID,
		Role:       string(sess.Role),
		Language:   sess.Language,
		TargetLang: sess.TargetLang,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: expireTime.Unix(),
			IssuedAt:  nowTime.Unix(),
		},
	}

	tokenClaims := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tokenClaims.SignedString(i.secret)
	return signed, expireTime, err
}

// ParseToken 解析和驗證 JWT token，並還原會話
func (i *TokenIssuer) ParseToken(token string) (models.SessionContext, error) {
	tokenClaims, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return i.secret, nil
	})
	if err != nil || tokenClaims == nil || !tokenClaims.Valid {
		return models.SessionContext{}, ErrInvalidToken
	}

	claims, ok := tokenClaims.Claims.(*Claims)
	if !ok {
		return models.SessionContext{}, ErrInvalidToken
	}
	role, ok := models.ParseRole(claims.Role)
	if !ok || claims.RoomID == "" {
		return models.SessionContext{}, ErrInvalidToken
	}

	return models.SessionContext{
		Role:       role,
		RoomID:     claims.RoomID,
		Language:   claims.Language,
		TargetLang: claims.TargetLang,
	}, nil
}
