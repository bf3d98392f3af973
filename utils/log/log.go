package log

import (
	"log/slog"
	"os"
)

// SetupGlobalLogger 设置全局 slog 输出级别
func SetupGlobalLogger(level slog.Level) {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
