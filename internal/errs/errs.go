// Package errs 定義應用層的錯誤分類。
//
// 所有錯誤都可恢復：呼叫端以 errors.As 判斷種類並決定如何回報使用者，
// 任何一種都不應讓程序終止。
package errs

import (
	"errors"
	"fmt"
)

// ValidationError 輸入不合法（角色、房間 ID、訊息內容）
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validation 建立 ValidationError
func Validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// StorageError 持久化層 I/O 失敗，可重試
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Storage 包裝底層錯誤；nil 原樣返回
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// PatternError 搜尋用的正規表示式無效
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid pattern %q", e.Pattern)
	}
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// SummarizationUnavailable 外部模型無法產生摘要（網路、限流、回應格式錯誤）
type SummarizationUnavailable struct {
	Reason string
	Err    error
}

func (e *SummarizationUnavailable) Error() string {
	return "summarization unavailable: " + e.Reason
}

func (e *SummarizationUnavailable) Unwrap() error { return e.Err }

// IsValidation 判斷是否為輸入驗證類錯誤（含 PatternError）
func IsValidation(err error) bool {
	var ve *ValidationError
	var pe *PatternError
	return errors.As(err, &ve) || errors.As(err, &pe)
}
