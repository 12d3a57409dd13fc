package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"furigana/internal/config"
	"furigana/internal/furigana"
	"furigana/internal/static"
)

// Server はHTTPサーバーを管理する構造体
type Server struct {
	config     *config.Config
	logger     *slog.Logger
	site       *static.Site
	store      *furigana.Store // APIが無効なら nil
	engine     *gin.Engine
	httpServer *http.Server
}

// New は新しいServerインスタンスを作成する。
// テンプレート・データベース・API定義の検証に失敗した場合はエラーを返す。
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	root, err := filepath.Abs(cfg.Site.Root)
	if err != nil {
		return nil, fmt.Errorf("公開ディレクトリの解決に失敗: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("公開ディレクトリが見つかりません: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("公開ディレクトリではありません: %s", root)
	}

	tmpl, err := static.LoadTemplate(cfg.Site.Template, cfg.Site.DisplayToken, cfg.Site.BodyToken)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config: cfg,
		logger: logger,
		site: static.NewSite(static.Options{
			Root:           root,
			Template:       tmpl,
			IndexFiles:     cfg.Site.IndexFiles,
			ConditionalGET: cfg.Site.ConditionalGET,
			Types:          static.NewMimeTable(cfg.Site.MimeTypes, cfg.Site.SniffUnknown),
		}),
	}

	if cfg.API.Enabled {
		store, err := furigana.Load(cfg.API.Database)
		if err != nil {
			return nil, fmt.Errorf("ふりがなデータベースの読み込みに失敗: %w", err)
		}
		s.store = store

		doc, err := loadAPIDocument(context.Background())
		if err != nil {
			return nil, err
		}
		if err := checkRoutes(doc, s.routes()); err != nil {
			return nil, err
		}
	}

	s.engine = s.newEngine()
	s.httpServer = &http.Server{
		Addr:         cfg.ServerAddress(),
		Handler:      s.engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s, nil
}

// Handler はルーティング済みのHTTPハンドラーを返す
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Root は公開ディレクトリの絶対パスを返す
func (s *Server) Root() string {
	return s.site.Root()
}

// Store はふりがなデータベースを返す。APIが無効なら nil。
func (s *Server) Store() *furigana.Store {
	return s.store
}

// Start はサーバーを起動する
func (s *Server) Start(ctx context.Context) error {
	// シャットダウン用のチャンネル
	shutdownCh := make(chan error, 1)

	// サーバーを別ゴルーチンで起動
	go func() {
		s.logger.Info("server_startup",
			slog.String("variant", string(s.config.Variant)),
			slog.String("addr", s.config.ServerAddress()),
			slog.String("root", s.Root()),
			slog.Bool("api", s.store != nil),
		)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			shutdownCh <- fmt.Errorf("サーバーの起動に失敗: %w", err)
		}
	}()

	// シグナルハンドリング
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	// コンテキストかシグナルを待つ
	select {
	case <-ctx.Done():
		s.logger.Info("コンテキストがキャンセルされました")
	case sig := <-sigCh:
		s.logger.Info("シグナルを受信しました", slog.String("signal", sig.String()))
	case err := <-shutdownCh:
		return err
	}

	// グレースフルシャットダウン
	return s.Shutdown()
}

// Shutdown はサーバーをグレースフルにシャットダウンする
func (s *Server) Shutdown() error {
	s.logger.Info("サーバーをシャットダウンしています...")

	// 5秒のタイムアウトを設定
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("サーバーのシャットダウンに失敗: %w", err)
	}

	s.logger.Info("サーバーが正常にシャットダウンされました")
	return nil
}
