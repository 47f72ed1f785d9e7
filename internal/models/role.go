package models

import "strings"

// Role 表示房間內的發言角色
type Role string

const (
	RoleDoctor  Role = "doctor"  // 醫師
	RolePatient Role = "patient" // 病患
)

// ParseRole 解析角色字串，不分大小寫
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleDoctor:
		return RoleDoctor, true
	case RolePatient:
		return RolePatient, true
	}
	return "", false
}

// Label 轉錄稿中使用的顯示名稱
func (r Role) Label() string {
	switch r {
	case RoleDoctor:
		return "Doctor"
	case RolePatient:
		return "Patient"
	}
	return string(r)
}
