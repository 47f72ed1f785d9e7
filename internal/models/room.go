package models

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxRoomIDLength 房間 ID 的最大長度（字元）
const MaxRoomIDLength = 128

// NormalizeRoomID 去除前後空白；房間 ID 為空、過長或含控制字元時回傳 false。
// 房間沒有獨立的資料列，只是訊息的分區鍵
func NormalizeRoomID(id string) (string, bool) {
	id = strings.TrimSpace(id)
	if id == "" || utf8.RuneCountInString(id) > MaxRoomIDLength {
		return "", false
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return "", false
		}
	}
	return id, true
}
