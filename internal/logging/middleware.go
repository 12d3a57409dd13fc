package logging

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader はリクエストIDを受け渡すヘッダー
const RequestIDHeader = "X-Request-ID"

// requestIDKey は gin.Context にリクエストIDを保存するキー
const requestIDKey = "request_id"

// RequestID はリクエストごとにIDを割り当てる。
// クライアントが X-Request-ID を送ってきた場合はその値を使う。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// FromContext はリクエストIDを付けたロガーを返す
func FromContext(c *gin.Context, logger *slog.Logger) *slog.Logger {
	if id := c.GetString(requestIDKey); id != "" {
		return logger.With(slog.String(requestIDKey, id))
	}
	return logger
}

// AccessLog はリクエストごとに1行のアクセスログを出力する
func AccessLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		size := c.Writer.Size()
		if size < 0 {
			size = 0
		}

		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}

		FromContext(c, logger).LogAttrs(c.Request.Context(), level, "http_request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.RequestURI()),
			slog.String("remote_addr", c.ClientIP()),
			slog.Int("status_code", status),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			slog.String("size", humanize.Bytes(uint64(size))),
		)
	}
}

// Recovery はハンドラー内のパニックをログに記録して500を返す
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		FromContext(c, logger).Error("panic_recovered",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Any("panic", recovered),
		)
		c.AbortWithStatus(http.StatusInternalServerError)
	})
}
