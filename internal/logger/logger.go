// Package logger 建立應用程式共用的 zerolog 記錄器。
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New 依環境建立記錄器：開發環境輸出易讀格式，其餘輸出 JSON
func New(env, level string) zerolog.Logger {
	var out io.Writer = os.Stdout
	if env == "development" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(out).
		Level(lvl).
		With().
		Timestamp().
		Str("service", "med_bridge").
		Logger()
}
