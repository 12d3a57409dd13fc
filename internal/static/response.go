package static

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
)

// Response は各処理が返すHTTPレスポンスの内容
type Response struct {
	Status  int           // ステータスコード
	Header  http.Header   // 追加するヘッダー
	Body    io.ReadCloser // 本文（なければ nil）
	Length  int64         // 本文のバイト数
	Message string        // エラー時にクライアントへ返す短い説明
}

// Close は本文を閉じる。本文がなければ何もしない。
func (r *Response) Close() error {
	if r.Body == nil {
		return nil
	}
	return r.Body.Close()
}

// NotFound は404レスポンスを作成する
func NotFound(message string) *Response {
	return &Response{Status: http.StatusNotFound, Header: http.Header{}, Message: message}
}

// NotImplemented は501レスポンスを作成する
func NotImplemented(message string) *Response {
	return &Response{Status: http.StatusNotImplemented, Header: http.Header{}, Message: message}
}

func movedPermanently(location string) *Response {
	h := http.Header{}
	h.Set("Location", location)
	return &Response{Status: http.StatusMovedPermanently, Header: h}
}

func notModified() *Response {
	return &Response{Status: http.StatusNotModified, Header: http.Header{}}
}

// Bytes はメモリ上の本文を持つレスポンスを作成する
func Bytes(status int, contentType string, body []byte) *Response {
	h := http.Header{}
	h.Set("Content-Type", contentType)
	h.Set("Content-Length", strconv.Itoa(len(body)))
	return &Response{
		Status: status,
		Header: h,
		Body:   io.NopCloser(bytes.NewReader(body)),
		Length: int64(len(body)),
	}
}
