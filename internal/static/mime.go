package static

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultContentType は種類が判定できないファイルのContent-Type
const DefaultContentType = "application/octet-stream"

// defaultMimeTypes はシステムのMIMEテーブルより優先する拡張子
var defaultMimeTypes = map[string]string{
	".js":  "application/javascript",
	".py":  "text/plain",
	".c":   "text/plain",
	".h":   "text/plain",
	".tsv": "text/plain",
}

// MimeTable は拡張子からContent-Typeを引くテーブル
type MimeTable struct {
	overrides map[string]string
	sniff     bool
}

// NewMimeTable は既定の上書き設定に extra を加えたテーブルを作成する。
// sniff が true の場合、拡張子で判定できないファイルは内容から推定する。
func NewMimeTable(extra map[string]string, sniff bool) *MimeTable {
	overrides := make(map[string]string, len(defaultMimeTypes)+len(extra))
	for ext, ctype := range defaultMimeTypes {
		overrides[ext] = ctype
	}
	for ext, ctype := range extra {
		overrides[ext] = ctype
	}
	return &MimeTable{overrides: overrides, sniff: sniff}
}

// Lookup は拡張子だけからContent-Typeを決定する。
// 上書き設定、システムのテーブルの順に、そのままの拡張子と小文字化した拡張子で探す。
func (t *MimeTable) Lookup(name string) string {
	if ctype, ok := t.byExtension(filepath.Ext(name)); ok {
		return ctype
	}
	return DefaultContentType
}

// TypeOf はローカルファイルのContent-Typeを決定する。
// 拡張子で決まらない場合に限り、有効なら内容から推定する。
func (t *MimeTable) TypeOf(localPath string) string {
	ctype := t.Lookup(localPath)
	if ctype != DefaultContentType || !t.sniff {
		return ctype
	}
	if m, err := mimetype.DetectFile(localPath); err == nil {
		return m.String()
	}
	return DefaultContentType
}

func (t *MimeTable) byExtension(ext string) (string, bool) {
	if ext == "" {
		return "", false
	}
	if ctype, ok := t.overrides[ext]; ok {
		return ctype, true
	}
	if ctype, ok := t.overrides[strings.ToLower(ext)]; ok {
		return ctype, true
	}
	if ctype := mime.TypeByExtension(ext); ctype != "" {
		return ctype, true
	}
	return "", false
}
