package service

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/blake2b"

	"med_bridge/internal/errs"
	"med_bridge/internal/metrics"
	"med_bridge/internal/models"
	"med_bridge/internal/repository"
	"med_bridge/internal/translate"
)

// ErrAudioNotInRoom 音檔不屬於目前的房間
var ErrAudioNotInRoom = errors.New("audio not found in this room")

// MessageService 接收文字或語音訊息、蓋上時間戳並寫入儲存層
type MessageService struct {
	messageRepo   repository.MessageRepository
	audioRepo     repository.AudioRepository
	translator    translate.Translator
	maxTextLength int
	maxAudioBytes int64
	logger        zerolog.Logger
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	audioRepo repository.AudioRepository,
	translator translate.Translator,
	maxTextLength int,
	maxAudioBytes int64,
	logger zerolog.Logger,
) *MessageService {
	return &MessageService{
		messageRepo:   messageRepo,
		audioRepo:     audioRepo,
		translator:    translator,
		maxTextLength: maxTextLength,
		maxAudioBytes: maxAudioBytes,
		logger:        logger.With().Str("component", "messages").Logger(),
	}
}

// SendText 儲存文字訊息。
// 翻譯失敗不阻擋送出：保存原文並標記 translation_status=unavailable
func (s *MessageService) SendText(ctx context.Context, sess models.SessionContext, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errs.Validation("text", "must not be empty")
	}
	if s.maxTextLength > 0 && utf8.RuneCountInString(text) > s.maxTextLength {
		return nil, errs.Validation("text", "exceeds %d characters", s.maxTextLength)
	}

	msg := models.NewTextMessage(sess.RoomID, sess.Role, text, sess.Language)
	if sess.NeedsTranslation() {
		msg.TargetLang = sess.TargetLang
		translated, err := s.translator.Translate(ctx, text, sess.Language, sess.TargetLang)
		switch {
		case errors.Is(err, translate.ErrDisabled):
			msg.TargetLang = ""
			msg.TranslationStatus = models.TranslationSkipped
		case err != nil || strings.TrimSpace(translated) == "":
			metrics.TranslationFailures.Inc()
			s.logger.Warn().Err(err).
				Str("room_id", sess.RoomID).
				Str("target_lang", sess.TargetLang).
				Msg("translation unavailable, storing original text")
			msg.TranslationStatus = models.TranslationUnavailable
		default:
			msg.TranslatedText = &translated
			msg.TranslationStatus = models.TranslationDone
		}
	}

	if err := s.messageRepo.Append(ctx, &msg); err != nil {
		return nil, err
	}
	metrics.MessagesSent.WithLabelValues(string(models.ContentText)).Inc()
	return &msg, nil
}

// SendAudio 儲存語音訊息，只保存音檔引用，不做轉錄。
// 同一角色重送相同錄音時回傳上一則訊息，created 為 false
func (s *MessageService) SendAudio(ctx context.Context, sess models.SessionContext, data []byte, mimeType string) (msg *models.Message, created bool, err error) {
	if len(data) == 0 {
		return nil, false, errs.Validation("audio", "must not be empty")
	}
	if s.maxAudioBytes > 0 && int64(len(data)) > s.maxAudioBytes {
		return nil, false, errs.Validation("audio", "exceeds %d bytes", s.maxAudioBytes)
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = "audio/wav"
	}

	ref := AudioRef(data)

	last, err := s.messageRepo.LastByRole(ctx, sess.RoomID, sess.Role)
	if err != nil {
		return nil, false, err
	}
	if last != nil && last.AudioRef != nil && *last.AudioRef == ref {
		s.logger.Debug().Str("room_id", sess.RoomID).Str("audio_ref", ref).Msg("duplicate audio resubmission")
		return last, false, nil
	}

	blob := &models.AudioBlob{Ref: ref, MimeType: mimeType, Size: int64(len(data)), Data: data}
	if err := s.audioRepo.Save(ctx, blob); err != nil {
		return nil, false, err
	}

	stored := models.NewAudioMessage(sess.RoomID, sess.Role, ref, sess.Language)
	if err := s.messageRepo.Append(ctx, &stored); err != nil {
		return nil, false, err
	}
	metrics.MessagesSent.WithLabelValues(string(models.ContentAudio)).Inc()
	return &stored, true, nil
}

// History 會話所屬房間的完整歷史，依時間排序
func (s *MessageService) History(ctx context.Context, sess models.SessionContext) ([]models.Message, error) {
	return s.messageRepo.FindByRoomID(ctx, sess.RoomID)
}

// Audio 取得房間內某則語音訊息的音檔
func (s *MessageService) Audio(ctx context.Context, sess models.SessionContext, ref string) (*models.AudioBlob, error) {
	ok, err := s.messageRepo.HasAudioRef(ctx, sess.RoomID, ref)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAudioNotInRoom
	}
	return s.audioRepo.FindByRef(ctx, ref)
}

// AudioRef 以 BLAKE2b-256 產生音檔的內容位址
func AudioRef(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
