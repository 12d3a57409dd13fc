package static

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ディレクトリ一覧テンプレートのプレースホルダー
const (
	DisplayNamePlaceholder = "{%displayname%}"
	BodyPlaceholder        = "{%body%}"

	// 漢字サーバーのテンプレートで使う形式
	TitlePlaceholder     = "{title}"
	KanjiBodyPlaceholder = "{body}"
)

// ErrMissingPlaceholder はテンプレートに必要なプレースホルダーがないことを表す
var ErrMissingPlaceholder = errors.New("テンプレートにプレースホルダーがありません")

// htmlTextEscaper はテキストとして埋め込む文字列をエスケープする。引用符はそのまま残す。
var htmlTextEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Template はディレクトリ一覧ページのテンプレート
type Template struct {
	text         string
	displayToken string
	bodyToken    string
}

// ParseTemplate はテンプレート文字列を検証して Template を作成する
func ParseTemplate(text, displayToken, bodyToken string) (*Template, error) {
	for _, token := range []string{displayToken, bodyToken} {
		if token == "" || !strings.Contains(text, token) {
			return nil, fmt.Errorf("%w: %q", ErrMissingPlaceholder, token)
		}
	}
	return &Template{text: text, displayToken: displayToken, bodyToken: bodyToken}, nil
}

// LoadTemplate はテンプレートファイルを読み込む
func LoadTemplate(path, displayToken, bodyToken string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ディレクトリ一覧テンプレートの読み込みに失敗: %w", err)
	}
	t, err := ParseTemplate(string(data), displayToken, bodyToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Render はエスケープ済みの表示名と本文をテンプレートに埋め込む
func (t *Template) Render(displayName, body string) string {
	// 置換後の文字列が再度置換されないよう一度に置き換える
	r := strings.NewReplacer(t.displayToken, displayName, t.bodyToken, body)
	return r.Replace(t.text)
}

// Lister はディレクトリ一覧を生成する
type Lister struct {
	tmpl *Template
}

// NewLister は新しい Lister を作成する
func NewLister(tmpl *Template) *Lister {
	return &Lister{tmpl: tmpl}
}

// List は localPath の直下にある項目の一覧ページを返す
func (l *Lister) List(displayName, localPath string) *Response {
	entries, err := os.ReadDir(localPath)
	if err != nil {
		return NotFound("No permission to list directory!")
	}

	escapedName := htmlTextEscaper.Replace(displayName)

	lines := make([]string, 0, len(entries)+4)
	lines = append(lines,
		"<h1>Directory listing for "+escapedName+"</h1>",
		"<hr>",
		"<ul>",
	)
	for _, entry := range entries {
		lines = append(lines, listItem(localPath, entry))
	}
	lines = append(lines, "</ul>")

	document := l.tmpl.Render(escapedName, strings.Join(lines, "\n"))
	return Bytes(http.StatusOK, "text/html; charset=UTF-8", []byte(document))
}

// listItem は一覧の1行を組み立てる。
// ディレクトリには "/" を、シンボリックリンクには表示名だけに "@" を付ける。
func listItem(dir string, entry fs.DirEntry) string {
	name := entry.Name()
	display, link := name, name

	if info, err := os.Stat(filepath.Join(dir, name)); err == nil && info.IsDir() {
		display += "/"
		link += "/"
	}
	if entry.Type()&fs.ModeSymlink != 0 {
		display += "@"
	}

	return `<li><a href="` + quotePath(link) + `">` + htmlTextEscaper.Replace(display) + "</a></li>"
}

// quotePath は英数字と "_.-~/" 以外のバイトをパーセントエンコードする
func quotePath(s string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) || c == '/' {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '_', c == '.', c == '-', c == '~':
		return true
	}
	return false
}
