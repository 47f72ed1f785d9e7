// Package middleware 提供了 HTTP 請求處理的中間件。
//
// 包含會話憑證驗證、請求 ID、請求日誌與 Prometheus 指標。
package middleware
