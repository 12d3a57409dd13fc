package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"furigana/internal/static"
)

// Variant はサーバーの種類
type Variant string

const (
	VariantFurigana Variant = "furigana" // ふりがなサーバー（JSON API あり）
	VariantKanji    Variant = "kanji"    // 漢字サーバー（静的ファイルのみ）
)

// Config はアプリケーション全体の設定を保持する構造体
type Config struct {
	Variant Variant      `validate:"oneof=furigana kanji"`
	Server  ServerConfig
	Site    SiteConfig
	API     APIConfig
	Log     LogConfig
}

// ServerConfig はHTTPサーバーの設定
type ServerConfig struct {
	Host string // リッスンするホスト（空なら全インターフェース）
	Port int    `validate:"min=1,max=65535"` // リッスンするポート番号

	// タイムアウト設定
	ReadTimeout  time.Duration `validate:"min=0"` // 読み込みタイムアウト
	WriteTimeout time.Duration `validate:"min=0"` // 書き込みタイムアウト（0 は無制限）
}

// SiteConfig は公開ディレクトリとディレクトリ一覧の設定
type SiteConfig struct {
	Root         string `validate:"required"` // 公開ディレクトリ
	Template     string `validate:"required"` // ディレクトリ一覧テンプレートのパス
	DisplayToken string `validate:"required"`
	BodyToken    string `validate:"required,nefield=DisplayToken"`

	IndexFiles     []string          `validate:"dive,required,excludesall=/\\"` // 探索するインデックス文書
	ConditionalGET bool              // If-Modified-Since を評価するか
	SniffUnknown   bool              // 拡張子で判定できないファイルの内容からContent-Typeを推定するか
	MimeTypes      map[string]string `validate:"dive,keys,startswith=.,endkeys,required"` // 追加の拡張子とContent-Type
}

// APIConfig はJSON APIの設定
type APIConfig struct {
	Enabled  bool
	Database string `validate:"required_if=Enabled true"` // TSVファイルのパス
}

// LogConfig はログ出力の設定
type LogConfig struct {
	Level      string `validate:"oneof=debug info warn error"`
	Format     string `validate:"oneof=json text"`
	File       string // 空なら標準出力
	MaxSizeMB  int    `validate:"min=0"`
	MaxBackups int    `validate:"min=0"`
	MaxAgeDays int    `validate:"min=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default は種類ごとの既定の設定を返す
func Default(variant Variant) *Config {
	cfg := &Config{
		Variant: variant,
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			ReadTimeout: 10 * time.Second,
		},
		Site: SiteConfig{
			Root:           ".",
			Template:       "statics/directory-listing-template.html",
			DisplayToken:   static.DisplayNamePlaceholder,
			BodyToken:      static.BodyPlaceholder,
			IndexFiles:     []string{"index.html", "index.htm"},
			ConditionalGET: true,
		},
		API: APIConfig{
			Enabled:  true,
			Database: "database.tsv",
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}

	if variant == VariantKanji {
		cfg.Server.Host = "localhost"
		cfg.Site.Template = "statics/listing-page.html"
		cfg.Site.DisplayToken = static.TitlePlaceholder
		cfg.Site.BodyToken = static.KanjiBodyPlaceholder
		cfg.Site.IndexFiles = []string{"index.html"}
		cfg.Site.ConditionalGET = false
		cfg.API = APIConfig{}
	}

	return cfg
}

// Load は設定を読み込む。
// 既定値、設定ファイル（path が空でなければ）、環境変数の順に上書きする。
func Load(variant Variant, path string) (*Config, error) {
	cfg := Default(variant)

	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.Server.Host = getEnvOrDefault("SERVER_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvAsIntOrDefault("PORT", cfg.Server.Port)
	cfg.Site.Root = getEnvOrDefault("SERVE_ROOT", cfg.Site.Root)
	cfg.Log.Level = getEnvOrDefault("LOG_LEVEL", cfg.Log.Level)

	// 設定の検証
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定の検証に失敗: %w", err)
	}

	return cfg, nil
}

// Validate は設定の妥当性を検証する
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Errorf("無効な設定値 %s=%v (%s)", fe.Namespace(), fe.Value(), fe.Tag()))
	}
	return errors.Join(msgs...)
}

// ServerAddress はサーバーのリッスンアドレスを返す
func (c *Config) ServerAddress() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// getEnvOrDefault は環境変数を取得し、設定されていない場合はデフォルト値を返す
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault は環境変数を整数として取得し、設定されていない場合はデフォルト値を返す
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
