package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"furigana/internal/logging"
	"furigana/internal/static"
)

// handleListAll はふりがなデータベースの全レコードをJSONで返す
func (s *Server) handleListAll(c *gin.Context) {
	body, err := s.store.JSON()
	if err != nil {
		logging.FromContext(c, s.logger).Error("api_encode_failed", slog.Any("error", err))
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}

	s.writeResponse(c, static.Bytes(http.StatusOK, "application/json; charset=UTF-8", body))
}
