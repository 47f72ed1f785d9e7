package service

import (
	"github.com/rs/zerolog"

	"med_bridge/internal/llm"
	"med_bridge/internal/repository"
	"med_bridge/internal/translate"
	"med_bridge/internal/utils"
	"med_bridge/pkg/config"
)

type Services struct {
	Session   *SessionService
	Message   *MessageService
	Search    *SearchService
	Summary   *SummaryService
	WebSocket *WebSocketManager
}

// NewServices 組裝所有服務；外部協作者（翻譯、生成）由呼叫端注入，測試時可替換
func NewServices(
	cfg *config.Config,
	repos *repository.Repositories,
	tokens *utils.TokenIssuer,
	translator translate.Translator,
	generator llm.Generator,
	logger zerolog.Logger,
) *Services {
	messageService := NewMessageService(repos.Message, repos.Audio, translator,
		cfg.Ingest.MaxTextLength, cfg.Ingest.MaxAudioBytes, logger)
	summaryService := NewSummaryService(repos.Message, generator, cfg.LLM.Model,
		cfg.LLM.Timeout, cfg.LLM.RateLimitBackoff, logger)

	return &Services{
		Session:   NewSessionService(tokens, cfg.Session.DefaultLanguage),
		Message:   messageService,
		Search:    NewSearchService(repos.Message),
		Summary:   summaryService,
		WebSocket: NewWebSocketManager(messageService, logger),
	}
}
