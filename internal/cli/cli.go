// Package cli はふりがなサーバーと漢字サーバーのコマンドライン処理を提供する
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"furigana/internal/config"
	"furigana/internal/logging"
	"furigana/internal/server"
)

// Globals は全コマンド共通のフラグ。0値のフラグは設定を上書きしない。
type Globals struct {
	Variant config.Variant `kong:"-"`

	Config    string `name:"config" short:"c" help:"設定ファイル (.yaml/.yml/.toml)" type:"existingfile"`
	Host      string `help:"リッスンするホスト"`
	Port      int    `short:"p" help:"リッスンするポート番号"`
	Root      string `help:"公開ディレクトリ" type:"path"`
	Template  string `help:"ディレクトリ一覧テンプレート" type:"path"`
	Database  string `help:"ふりがなデータベース (TSV)" type:"path"`
	LogLevel  string `name:"log-level" help:"ログレベル (debug, info, warn, error)"`
	LogFormat string `name:"log-format" help:"ログ形式 (json, text)"`
	LogFile   string `name:"log-file" help:"ログファイル（空なら標準出力）" type:"path"`
}

// CLI はコマンドラインの定義
type CLI struct {
	Globals

	Serve ServeCmd `cmd:"" default:"1" help:"サーバーを起動する"`
	Check CheckCmd `cmd:"" help:"設定・テンプレート・データベースを検証して終了する"`
}

// Load は設定を読み込み、フラグで上書きして検証する
func (g *Globals) Load() (*config.Config, error) {
	cfg, err := config.Load(g.Variant, g.Config)
	if err != nil {
		return nil, err
	}

	if g.Host != "" {
		cfg.Server.Host = g.Host
	}
	if g.Port != 0 {
		cfg.Server.Port = g.Port
	}
	if g.Root != "" {
		cfg.Site.Root = g.Root
	}
	if g.Template != "" {
		cfg.Site.Template = g.Template
	}
	if g.Database != "" {
		cfg.API.Database = g.Database
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}
	if g.LogFormat != "" {
		cfg.Log.Format = g.LogFormat
	}
	if g.LogFile != "" {
		cfg.Log.File = g.LogFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定の検証に失敗: %w", err)
	}
	return cfg, nil
}

// ServeCmd はサーバーを起動する
type ServeCmd struct{}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, err := g.Load()
	if err != nil {
		return err
	}

	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("server_init_failed", slog.Any("error", err))
		return err
	}

	return srv.Start(context.Background())
}

// CheckCmd は起動時の検証だけを行い、結果を表示する
type CheckCmd struct{}

func (c *CheckCmd) Run(g *Globals, out io.Writer) error {
	cfg, err := g.Load()
	if err != nil {
		return err
	}

	srv, err := server.New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "variant:  %s\n", cfg.Variant)
	fmt.Fprintf(out, "address:  %s\n", cfg.ServerAddress())
	fmt.Fprintf(out, "root:     %s\n", srv.Root())
	fmt.Fprintf(out, "template: %s\n", cfg.Site.Template)

	store := srv.Store()
	if store == nil {
		fmt.Fprintln(out, "api:      disabled")
		return nil
	}

	size := "-"
	if info, err := os.Stat(store.Path()); err == nil {
		size = humanize.Bytes(uint64(info.Size()))
	}
	fmt.Fprintf(out, "database: %s (%s, %s records)\n", store.Path(), size, humanize.Comma(int64(store.Len())))
	return nil
}

// Run は引数を解析してコマンドを実行する
func Run(variant config.Variant, name, description string, args []string, stdout, stderr io.Writer) error {
	app := CLI{Globals: Globals{Variant: variant}}

	parser, err := kong.New(&app,
		kong.Name(name),
		kong.Description(description),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.BindTo(stdout, (*io.Writer)(nil)),
	)
	if err != nil {
		return err
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return ctx.Run(&app.Globals)
}

// Main はコマンドのエントリーポイント。エラーの場合は終了コード1で終了する。
func Main(variant config.Variant, name, description string) {
	gin.SetMode(gin.ReleaseMode)

	if err := Run(variant, name, description, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "%s: error: %v\n", name, err)
		os.Exit(1)
	}
}
