package models

// SessionContext 用戶端在一次會話期間綁定的角色與房間。
// 之後的讀寫都限定在 RoomID 內
type SessionContext struct {
	Role       Role   `json:"role"`
	RoomID     string `json:"room_id"`
	Language   string `json:"language"`    // 發言者使用的語言
	TargetLang string `json:"target_lang"` // 訊息要翻譯成的語言
}

// NeedsTranslation 來源與目標語言不同且都已設定時需要翻譯
func (s SessionContext) NeedsTranslation() bool {
	return s.TargetLang != "" && s.Language != "" && s.TargetLang != s.Language
}
