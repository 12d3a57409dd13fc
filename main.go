// furigana-server は公開ディレクトリとふりがなデータベースのJSON APIを提供する
package main

import (
	"furigana/internal/cli"
	"furigana/internal/config"
)

func main() {
	cli.Main(config.VariantFurigana, "furigana-server", "公開ディレクトリとふりがなデータベースを配信するHTTPサーバー")
}
