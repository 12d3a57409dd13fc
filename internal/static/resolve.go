package static

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// Resolved はリクエストパスを解決した結果
type Resolved struct {
	Virtual string // URL上のパス（常に "/" から始まる）
	Local   string // 公開ディレクトリ配下のローカルパス
}

// Resolver はリクエストパスを公開ディレクトリ配下のパスへ変換する
type Resolver struct {
	root string
}

// NewResolver は root を公開ディレクトリとする Resolver を作成する
func NewResolver(root string) *Resolver {
	return &Resolver{root: filepath.Clean(root)}
}

// Root は公開ディレクトリを返す
func (r *Resolver) Root() string {
	return r.root
}

// Resolve はエスケープされたままのURLパスを解決する。
// 不正なセグメントは読み飛ばすので失敗しない。
func (r *Resolver) Resolve(requestPath string) Resolved {
	virtual := "/"
	local := r.root

	for _, raw := range strings.Split(requestPath, "/") {
		if raw == "" {
			continue
		}

		// デコードできない "%" はそのままの名前として扱う
		segment, err := url.PathUnescape(raw)
		if err != nil {
			segment = raw
		}
		if !isPlainName(segment) {
			continue
		}

		virtual = path.Join(virtual, segment)
		local = filepath.Join(local, segment)
	}

	return Resolved{Virtual: virtual, Local: local}
}

// isPlainName はセグメントが単純なファイル名かどうかを判定する
func isPlainName(segment string) bool {
	switch segment {
	case "", ".", "..":
		return false
	}
	if strings.ContainsRune(segment, '/') || strings.ContainsRune(segment, filepath.Separator) {
		return false
	}
	// Windows の "C:" のようなボリューム指定も受け付けない
	return filepath.VolumeName(segment) == ""
}
