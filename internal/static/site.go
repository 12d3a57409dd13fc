package static

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Options は Site の設定
type Options struct {
	Root           string     // 公開ディレクトリ
	Template       *Template  // ディレクトリ一覧テンプレート
	IndexFiles     []string   // 探索するインデックス文書（先頭から順に）
	ConditionalGET bool       // If-Modified-Since を評価するか
	Types          *MimeTable // nil の場合は既定のテーブル
}

// Site はGETリクエストを公開ディレクトリ上のファイルや一覧へ振り分ける
type Site struct {
	resolver   *Resolver
	lister     *Lister
	sender     *Sender
	indexFiles []string
}

// NewSite は新しい Site を作成する
func NewSite(opts Options) *Site {
	types := opts.Types
	if types == nil {
		types = NewMimeTable(nil, false)
	}
	return &Site{
		resolver:   NewResolver(opts.Root),
		lister:     NewLister(opts.Template),
		sender:     NewSender(types, opts.ConditionalGET),
		indexFiles: append([]string(nil), opts.IndexFiles...),
	}
}

// Root は公開ディレクトリを返す
func (s *Site) Root() string {
	return s.resolver.Root()
}

// Get はGETリクエストに対するレスポンスを返す
func (s *Site) Get(r *http.Request) *Response {
	requestPath := r.URL.EscapedPath()
	resolved := s.resolver.Resolve(requestPath)

	info, err := os.Stat(resolved.Local)
	if err != nil {
		return NotFound("File not found!")
	}
	if !info.IsDir() {
		return s.sender.Serve(resolved.Local, r.Header)
	}

	// ディレクトリは末尾に "/" を付けたURLへ誘導する
	if !strings.HasSuffix(requestPath, "/") {
		location := requestPath + "/"
		if r.URL.RawQuery != "" {
			location += "?" + r.URL.RawQuery
		}
		return movedPermanently(location)
	}

	// listdir パラメーターがあればインデックス文書より一覧を優先する
	if _, ok := r.URL.Query()["listdir"]; ok {
		return s.lister.List(resolved.Virtual, resolved.Local)
	}

	if index, ok := s.findIndex(resolved.Local); ok {
		return s.sender.Serve(index, r.Header)
	}
	return s.lister.List(resolved.Virtual, resolved.Local)
}

func (s *Site) findIndex(dir string) (string, bool) {
	for _, name := range s.indexFiles {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}
