package server

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"furigana/internal/logging"
	"furigana/internal/static"
)

// route はルート表の1行
type route struct {
	method  string
	path    string
	handler gin.HandlerFunc
}

// routes はAPIのルート表を返す。どれにも一致しないリクエストは handleFallback が処理する。
func (s *Server) routes() []route {
	if s.store == nil {
		return nil
	}
	return []route{
		{http.MethodPost, "/api/all", s.handleListAll},
	}
}

// newEngine はginのエンジンを作成してルートを登録する
func (s *Server) newEngine() *gin.Engine {
	engine := gin.New()

	// リダイレクトはディレクトリへの末尾スラッシュ付与だけにする
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false
	engine.HandleMethodNotAllowed = false

	engine.Use(
		logging.RequestID(),
		logging.AccessLog(s.logger),
		logging.Recovery(s.logger),
	)

	for _, rt := range s.routes() {
		engine.Handle(rt.method, rt.path, rt.handler)
	}
	engine.NoRoute(s.handleFallback)

	return engine
}

// handleFallback はルート表に一致しないリクエストを処理する
func (s *Server) handleFallback(c *gin.Context) {
	method := c.Request.Method

	switch {
	case method == http.MethodGet || method == http.MethodHead:
		s.writeResponse(c, s.site.Get(c.Request))
	case method == http.MethodPost && s.store != nil:
		s.writeResponse(c, static.NotFound("API endpoint does not exist!"))
	default:
		s.writeResponse(c, static.NotImplemented("Unsupported method ("+method+")"))
	}
}

// writeResponse はレスポンスを書き出して本文を閉じる
func (s *Server) writeResponse(c *gin.Context, resp *static.Response) {
	defer func() {
		if err := resp.Close(); err != nil {
			logging.FromContext(c, s.logger).Warn("response_close_failed", slog.Any("error", err))
		}
	}()

	header := c.Writer.Header()
	for key, values := range resp.Header {
		header[key] = values
	}

	if resp.Body == nil && resp.Message != "" {
		c.String(resp.Status, resp.Message)
		return
	}

	c.Status(resp.Status)
	c.Writer.WriteHeaderNow()
	if resp.Body == nil || c.Request.Method == http.MethodHead {
		return
	}

	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		// クライアントの切断などで書き込みに失敗しても他のリクエストには影響しない
		logging.FromContext(c, s.logger).Debug("response_write_failed",
			slog.String("path", c.Request.URL.Path),
			slog.Any("error", err),
		)
	}
}
