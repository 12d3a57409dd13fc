// Package static は公開ディレクトリ配下のファイル配信を担う
//
// # 責務
// - リクエストパスを公開ディレクトリ配下の安全なローカルパスへ変換する
// - ディレクトリ一覧のHTMLをテンプレートから生成する
// - 拡張子からContent-Typeを決定する
// - If-Modified-Since による条件付きGETを処理する
// - ディレクトリへのリクエストをリダイレクト・一覧・インデックス文書へ振り分ける
//
// # 仕様
//   - パスはセグメント単位で組み立てる。"."、".."、区切り文字を含むセグメントは
//     エラーにせず読み飛ばすため、ルートより上に出ることはない
//   - 各処理は Response を返し、HTTPへの書き出しは呼び出し側が行う
//   - Response.Body を持つレスポンスは、書き出し後に必ず Close すること
//   - 生成後の Site は読み取り専用で、複数ゴルーチンから同時に使ってよい
package static
