// Package api 處理 HTTP 請求路由和處理。
//
// 這個包包含了所有的 HTTP 處理器（handlers）。
// 它負責將 HTTP 請求轉換為適當的服務調用，並將結果轉換回 HTTP 響應。
// 除了加入房間與健康檢查，所有路由都需要會話憑證，房間由憑證決定。
package api
