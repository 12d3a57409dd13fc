package static

import (
	"net/http"
	"os"
	"strconv"
	"time"
)

// Sender はファイル本文を返す。条件付きGETを有効にした場合は If-Modified-Since を評価する。
type Sender struct {
	types       *MimeTable
	conditional bool
}

// NewSender は新しい Sender を作成する
func NewSender(types *MimeTable, conditional bool) *Sender {
	return &Sender{types: types, conditional: conditional}
}

// Serve は localPath のファイルを返す。
// 200 の場合は開いたファイルを Body として返すので、呼び出し側で閉じること。
func (s *Sender) Serve(localPath string, header http.Header) *Response {
	f, err := os.Open(localPath)
	if err != nil {
		return NotFound("File not found!")
	}

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		_ = f.Close()
		return NotFound("File not found!")
	}

	ctype := s.types.TypeOf(localPath)

	if s.conditional && notModifiedSince(header, info.ModTime()) {
		_ = f.Close()
		return notModified()
	}

	h := http.Header{}
	h.Set("Content-Type", ctype)
	h.Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	h.Set("Last-Modified", info.ModTime().UTC().Format(http.TimeFormat))

	return &Response{
		Status: http.StatusOK,
		Header: h,
		Body:   f,
		Length: info.Size(),
	}
}

// notModifiedSince はクライアントのキャッシュが最新かどうかを判定する。
// If-None-Match がある場合や日付が解釈できない場合は false を返す。
func notModifiedSince(header http.Header, modTime time.Time) bool {
	if len(header.Values("If-Modified-Since")) == 0 || len(header.Values("If-None-Match")) > 0 {
		return false
	}

	since, ok := parseHTTPDate(header.Get("If-Modified-Since"))
	if !ok {
		return false
	}

	// If-Modified-Since は秒単位なので更新時刻の秒未満を切り捨てて比較する
	lastModified := modTime.UTC().Truncate(time.Second)
	return !lastModified.After(since)
}

// numericZoneLayouts はGMT以外のタイムゾーンを数値で書いた日付の形式
var numericZoneLayouts = []string{
	time.RFC1123Z,
	"Mon, _2 Jan 2006 15:04:05 -0700",
	"_2 Jan 2006 15:04:05 -0700",
}

// parseHTTPDate はHTTPの日付を解釈してUTCで返す。
// タイムゾーンのない asctime 形式はUTCとみなす。
func parseHTTPDate(value string) (time.Time, bool) {
	if t, err := http.ParseTime(value); err == nil {
		return t.UTC(), true
	}
	for _, layout := range numericZoneLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
