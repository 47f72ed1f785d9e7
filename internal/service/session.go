package service

import (
	"strings"
	"time"
	"unicode/utf8"

	"med_bridge/internal/errs"
	"med_bridge/internal/models"
	"med_bridge/internal/utils"
)

const maxLanguageLength = 32

// SessionService 將角色與房間 ID 解析為隔離的會話。
// 房間 ID 只是共享的識別字串，任何知道 ID 的人都能以任一角色加入，這不是安全邊界
type SessionService struct {
	tokens      *utils.TokenIssuer
	defaultLang string
}

func NewSessionService(tokens *utils.TokenIssuer, defaultLang string) *SessionService {
	return &SessionService{tokens: tokens, defaultLang: defaultLang}
}

// Join 驗證角色與房間 ID，回傳綁定該房間的會話
func (s *SessionService) Join(role, roomID, language, targetLang string) (models.SessionContext, error) {
	r, ok := models.ParseRole(role)
	if !ok {
		return models.SessionContext{}, errs.Validation("role", "must be one of doctor, patient (got %q)", role)
	}

	id, ok := models.NormalizeRoomID(roomID)
	if !ok {
		return models.SessionContext{}, errs.Validation("room_id", "must be 1-%d printable characters", models.MaxRoomIDLength)
	}

	lang, err := s.language("language", language)
	if err != nil {
		return models.SessionContext{}, err
	}
	target, err := s.language("target_lang", targetLang)
	if err != nil {
		return models.SessionContext{}, err
	}

	return models.SessionContext{
		Role:       r,
		RoomID:     id,
		Language:   lang,
		TargetLang: target,
	}, nil
}

// IssueToken 為會話簽發憑證
func (s *SessionService) IssueToken(sess models.SessionContext) (string, time.Time, error) {
	return s.tokens.GenerateToken(sess)
}

// Resolve 由憑證還原會話
func (s *SessionService) Resolve(token string) (models.SessionContext, error) {
	return s.tokens.ParseToken(token)
}

func (s *SessionService) language(field, lang string) (string, error) {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return s.defaultLang, nil
	}
	if utf8.RuneCountInString(lang) > maxLanguageLength {
		return "", errs.Validation(field, "too long")
	}
	return lang, nil
}
