package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// fileConfig は設定ファイルの内容。省略された項目は既定値のまま残すためポインタで受ける。
type fileConfig struct {
	Server struct {
		Host         *string `yaml:"host" toml:"host"`
		Port         *int    `yaml:"port" toml:"port"`
		ReadTimeout  *string `yaml:"read_timeout" toml:"read_timeout"`
		WriteTimeout *string `yaml:"write_timeout" toml:"write_timeout"`
	} `yaml:"server" toml:"server"`

	Site struct {
		Root           *string           `yaml:"root" toml:"root"`
		Template       *string           `yaml:"template" toml:"template"`
		DisplayToken   *string           `yaml:"display_token" toml:"display_token"`
		BodyToken      *string           `yaml:"body_token" toml:"body_token"`
		IndexFiles     []string          `yaml:"index_files" toml:"index_files"`
		ConditionalGET *bool             `yaml:"conditional_get" toml:"conditional_get"`
		SniffUnknown   *bool             `yaml:"sniff_unknown" toml:"sniff_unknown"`
		MimeTypes      map[string]string `yaml:"mime_types" toml:"mime_types"`
	} `yaml:"site" toml:"site"`

	API struct {
		Enabled  *bool   `yaml:"enabled" toml:"enabled"`
		Database *string `yaml:"database" toml:"database"`
	} `yaml:"api" toml:"api"`

	Log struct {
		Level      *string `yaml:"level" toml:"level"`
		Format     *string `yaml:"format" toml:"format"`
		File       *string `yaml:"file" toml:"file"`
		MaxSizeMB  *int    `yaml:"max_size_mb" toml:"max_size_mb"`
		MaxBackups *int    `yaml:"max_backups" toml:"max_backups"`
		MaxAgeDays *int    `yaml:"max_age_days" toml:"max_age_days"`
	} `yaml:"log" toml:"log"`
}

// loadFile は設定ファイルを読み込んで cfg を上書きする。形式は拡張子で判断する。
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
	}

	var fc fileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("%s: YAMLの解析に失敗: %w", path, err)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&fc); err != nil {
			return fmt.Errorf("%s: TOMLの解析に失敗: %w", path, err)
		}
	default:
		return fmt.Errorf("%s: 未対応の設定ファイル形式です: %q", path, ext)
	}

	if err := fc.apply(cfg); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// apply は設定ファイルに書かれた項目だけを cfg に反映する
func (fc *fileConfig) apply(cfg *Config) error {
	setString(&cfg.Server.Host, fc.Server.Host)
	setInt(&cfg.Server.Port, fc.Server.Port)
	if err := setDuration(&cfg.Server.ReadTimeout, fc.Server.ReadTimeout); err != nil {
		return fmt.Errorf("server.read_timeout: %w", err)
	}
	if err := setDuration(&cfg.Server.WriteTimeout, fc.Server.WriteTimeout); err != nil {
		return fmt.Errorf("server.write_timeout: %w", err)
	}

	setString(&cfg.Site.Root, fc.Site.Root)
	setString(&cfg.Site.Template, fc.Site.Template)
	setString(&cfg.Site.DisplayToken, fc.Site.DisplayToken)
	setString(&cfg.Site.BodyToken, fc.Site.BodyToken)
	if fc.Site.IndexFiles != nil {
		cfg.Site.IndexFiles = fc.Site.IndexFiles
	}
	setBool(&cfg.Site.ConditionalGET, fc.Site.ConditionalGET)
	setBool(&cfg.Site.SniffUnknown, fc.Site.SniffUnknown)
	if len(fc.Site.MimeTypes) > 0 {
		cfg.Site.MimeTypes = fc.Site.MimeTypes
	}

	setBool(&cfg.API.Enabled, fc.API.Enabled)
	setString(&cfg.API.Database, fc.API.Database)

	setString(&cfg.Log.Level, fc.Log.Level)
	setString(&cfg.Log.Format, fc.Log.Format)
	setString(&cfg.Log.File, fc.Log.File)
	setInt(&cfg.Log.MaxSizeMB, fc.Log.MaxSizeMB)
	setInt(&cfg.Log.MaxBackups, fc.Log.MaxBackups)
	setInt(&cfg.Log.MaxAgeDays, fc.Log.MaxAgeDays)
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *string) error {
	if src == nil {
		return nil
	}
	d, err := time.ParseDuration(*src)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}
