// Package server は、HTTPサーバーの起動とルーティングを管理します。
//
// このパッケージは、設定から公開ディレクトリ・ディレクトリ一覧テンプレート・
// ふりがなデータベースを準備し、ginのエンジンにルートを登録して配信します。
//
// 責務:
//   - 起動時の検証（テンプレートのプレースホルダー、TSVの見出し行と列数、API定義）
//   - ルート表によるAPIの振り分けと、それ以外のリクエストの静的ファイル配信
//   - static.Response のHTTPへの書き出しと本文のクローズ
//   - グレースフルシャットダウン
//
// 仕様:
//   - HTTPの処理はgin-gonic/ginを使用
//   - 起動時の検証に失敗した場合は New がエラーを返し、サーバーは起動しない
//   - リクエスト処理中のエラーはすべてHTTPレスポンスに変換する
//   - 起動後に変更される共有状態は持たない
package server
