package models

import (
	"time"
)

// AudioPlaceholder 語音訊息在轉錄稿中的替代文字
const AudioPlaceholder = "[Audio Message Attached]"

// ContentKind 訊息內容類型
type ContentKind string

const (
	ContentText  ContentKind = "text"
	ContentAudio ContentKind = "audio"
)

// TranslationStatus 訊息的翻譯狀態
type TranslationStatus string

const (
	TranslationDone        TranslationStatus = "translated"
	TranslationUnavailable TranslationStatus = "unavailable" // 翻譯失敗，保留原文
	TranslationSkipped     TranslationStatus = "skipped"     // 語音或同語言，不需翻譯
)

// Message 房間內的一則訊息，建立後不可修改、不會刪除
type Message struct {
	ID                uint              `json:"id" gorm:"primaryKey;autoIncrement"`
	RoomID            string            `json:"room_id" gorm:"type:varchar(128);not null;index:idx_messages_room_ts,priority:1"`
	Role              Role              `json:"role" gorm:"type:varchar(20);not null"`
	ContentKind       ContentKind       `json:"content_kind" gorm:"type:varchar(10);not null"`
	TextBody          *string           `json:"text_body,omitempty" gorm:"type:text"`
	AudioRef          *string           `json:"audio_ref,omitempty" gorm:"type:varchar(64)"`
	Timestamp         time.Time         `json:"timestamp" gorm:"not null;index:idx_messages_room_ts,priority:2"`
	SourceLang        string            `json:"source_lang" gorm:"type:varchar(32)"`
	TargetLang        string            `json:"target_lang" gorm:"type:varchar(32)"`
	TranslatedText    *string           `json:"translated_text,omitempty" gorm:"type:text"`
	TranslationStatus TranslationStatus `json:"translation_status" gorm:"type:varchar(16)"`
}

// DisplayText 顯示與搜尋用的文字：有譯文用譯文，否則用原文；純語音為空字串
func (m *Message) DisplayText() string {
	if m.TranslatedText != nil {
		return *m.TranslatedText
	}
	if m.TextBody != nil {
		return *m.TextBody
	}
	return ""
}

// TranscriptText 摘要轉錄稿用的原文
func (m *Message) TranscriptText() string {
	if m.TextBody != nil {
		return *m.TextBody
	}
	return AudioPlaceholder
}

// NewTextMessage 建立一則文字訊息
func NewTextMessage(roomID string, role Role, text, sourceLang string) Message {
	return Message{
		RoomID:            roomID,
		Role:              role,
		ContentKind:       ContentText,
		TextBody:          &text,
		SourceLang:        sourceLang,
		TranslationStatus: TranslationSkipped,
		Timestamp:         time.Now(),
	}
}

// NewAudioMessage 建立一則語音訊息，只保存音檔引用
func NewAudioMessage(roomID string, role Role, audioRef, sourceLang string) Message {
	return Message{
		RoomID:            roomID,
		Role:              role,
		ContentKind:       ContentAudio,
		AudioRef:          &audioRef,
		SourceLang:        sourceLang,
		TranslationStatus: TranslationSkipped,
		Timestamp:         time.Now(),
	}
}

// AudioBlob 語音內容，以內容雜湊為主鍵
type AudioBlob struct {
	Ref       string    `json:"ref" gorm:"primaryKey;type:varchar(64)"`
	MimeType  string    `json:"mime_type" gorm:"type:varchar(64)"`
	Size      int64     `json:"size"`
	Data      []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// SummaryNote 由房間完整歷史產生的結構化病歷摘要，不持久化
type SummaryNote struct {
	RoomID       string    `json:"room_id"`
	Symptoms     string    `json:"symptoms"`
	Diagnoses    string    `json:"diagnoses"`
	Medications  string    `json:"medications"`
	FollowUp     string    `json:"follow_up"`
	FreeText     string    `json:"free_text,omitempty"`
	MessageCount int       `json:"message_count"`
	Model        string    `json:"model,omitempty"`
	Empty        bool      `json:"empty"`
	GeneratedAt  time.Time `json:"generated_at"`
}
