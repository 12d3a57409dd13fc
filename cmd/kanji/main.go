// Package main は漢字サーバーコマンドの実装です
package main

import (
	"furigana/internal/cli"
	"furigana/internal/config"
)

func main() {
	cli.Main(config.VariantKanji, "kanji-server", "漢字データの公開ディレクトリを配信するHTTPサーバー")
}
