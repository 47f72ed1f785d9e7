// Package translate 提供訊息翻譯。翻譯服務與摘要是兩個獨立的外部協作者，
// 各自有自己的失敗模式。
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"med_bridge/internal/llm"
	"med_bridge/internal/models"
)

// ErrDisabled 翻譯已停用；呼叫端應視為未翻譯而非失敗
var ErrDisabled = errors.New("translation disabled")

// Translator 將文字從來源語言翻成目標語言
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Chatter LLMTranslator 需要的 chat 介面
type Chatter interface {
	Chat(ctx context.Context, messages []llm.ChatMessage) (string, error)
}

// LLMTranslator 以對話模型扮演醫療口譯員
type LLMTranslator struct {
	chat Chatter
}

func NewLLMTranslator(chat Chatter) *LLMTranslator {
	return &LLMTranslator{chat: chat}
}

func (t *LLMTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	// 語音佔位文字不翻譯
	if text == models.AudioPlaceholder {
		return text, nil
	}

	out, err := t.chat.Chat(ctx, []llm.ChatMessage{
		{Role: "system", Content: interpreterPrompt(sourceLang, targetLang)},
		{Role: "user", Content: text},
	})
	if err != nil {
		return "", fmt.Errorf("translate %s->%s: %w", sourceLang, targetLang, err)
	}
	return strings.TrimSpace(out), nil
}

func interpreterPrompt(sourceLang, targetLang string) string {
	return fmt.Sprintf(`You are a professional medical interpreter. Translate the speaker's input from %s into %s.
Use natural, spoken language that a normal person would use.
Avoid poetic, formal, or financial vocabulary.
Output ONLY the translation.`, sourceLang, targetLang)
}

// NoopTranslator 停用翻譯時使用，一律回傳 ErrDisabled
type NoopTranslator struct{}

func (NoopTranslator) Translate(context.Context, string, string, string) (string, error) {
	return "", ErrDisabled
}
