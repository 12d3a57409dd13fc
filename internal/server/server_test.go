package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"furigana/internal/config"
	"furigana/internal/furigana"
	"furigana/internal/static"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	furiganaTemplate = "<html><title>{%displayname%}</title><body>{%body%}</body></html>"
	kanjiTemplate    = "<html><title>{title}</title><body>{body}</body></html>"
)

// testRecords はテスト用のふりがなデータベースの内容
var testRecords = []furigana.Record{
	{Word: "漢字", Furigana: "かんじ", Meaning: "Chinese characters", Ruby: "<ruby>漢字<rt>かんじ</rt></ruby>"},
	{Word: "仮名", Furigana: "かな", Note: "tab\tnote"},
	{Word: "振り仮名", Furigana: "ふりがな", Meaning: "line\nbreak"},
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// newTestConfig はテスト用の公開ディレクトリ・テンプレート・データベースを用意する
func newTestConfig(t *testing.T, variant config.Variant) *config.Config {
	t.Helper()
	dir := t.TempDir()
	root := filepath.Join(dir, "public")

	modTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	writeFile(t, filepath.Join(root, "hello.txt"), "hello")
	writeFile(t, filepath.Join(root, "app.js"), "console.log(1)")
	writeFile(t, filepath.Join(root, "docs", "index.html"), "<p>docs</p>")
	writeFile(t, filepath.Join(root, "docs", "index.htm"), "<p>htm</p>")
	writeFile(t, filepath.Join(root, "files", "a.txt"), "a")
	for _, p := range []string{"hello.txt", "docs/index.html"} {
		if err := os.Chtimes(filepath.Join(root, p), modTime, modTime); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.Default(variant)
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Site.Root = root
	cfg.Site.Template = filepath.Join(dir, "template.html")
	if variant == config.VariantKanji {
		writeFile(t, cfg.Site.Template, kanjiTemplate)
	} else {
		writeFile(t, cfg.Site.Template, furiganaTemplate)
		cfg.API.Database = filepath.Join(dir, "database.tsv")
		if err := furigana.WriteFile(cfg.API.Database, testRecords); err != nil {
			t.Fatal(err)
		}
	}
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	srv, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("サーバーの作成に失敗しました: %v", err)
	}
	return srv
}

// do はリクエストを送ってレスポンスと本文を返す。リダイレクトは追わない。
func do(t *testing.T, srv *Server, method, target string, header http.Header) (*http.Response, string) {
	t.Helper()
	r := httptest.NewRequest(method, target, nil)
	for k, vs := range header {
		r.Header[k] = vs
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	resp := w.Result()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, string(body)
}

// TestServerStartAndShutdown はサーバーの起動とシャットダウンをテストする
func TestServerStartAndShutdown(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t, config.VariantFurigana))

	// テスト用のコンテキスト（タイムアウト付き）
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// サーバーを別ゴルーチンで起動
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	// サーバーが起動するまで少し待つ
	time.Sleep(100 * time.Millisecond)

	// コンテキストをキャンセルしてサーバーを停止
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("サーバーの起動/停止でエラーが発生しました: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("サーバーの停止がタイムアウトしました")
	}
}

// TestServerEndpoints は実際のHTTP接続でエンドポイントをテストする
func TestServerEndpoints(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t, config.VariantFurigana))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	client := ts.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	testCases := []struct {
		name           string
		method         string
		endpoint       string
		expectedStatus int
	}{
		{"ルートの一覧", http.MethodGet, "/", http.StatusOK},
		{"ファイル", http.MethodGet, "/hello.txt", http.StatusOK},
		{"ディレクトリのリダイレクト", http.MethodGet, "/docs", http.StatusMovedPermanently},
		{"インデックス文書", http.MethodGet, "/docs/", http.StatusOK},
		{"存在しないファイル", http.MethodGet, "/missing", http.StatusNotFound},
		{"API", http.MethodPost, "/api/all", http.StatusOK},
		{"存在しないAPI", http.MethodPost, "/api/none", http.StatusNotFound},
		{"GETのAPIパス", http.MethodGet, "/api/all", http.StatusNotFound},
		{"未対応のメソッド", http.MethodDelete, "/hello.txt", http.StatusNotImplemented},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, ts.URL+tc.endpoint, nil)
			if err != nil {
				t.Fatal(err)
			}
			resp, err := client.Do(req)
			if err != nil {
				t.Fatalf("HTTPリクエストでエラーが発生しました: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tc.expectedStatus {
				t.Errorf("予期しないステータスコード: got %d, want %d", resp.StatusCode, tc.expectedStatus)
			}
		})
	}
}

func TestServerStaticFiles(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t, config.VariantFurigana))

	resp, body := do(t, srv, http.MethodGet, "/hello.txt", nil)
	if resp.StatusCode != http.StatusOK || body != "hello" {
		t.Fatalf("ファイルが返されていません: %d %q", resp.StatusCode, body)
	}
	if got := resp.Header.Get("Content-Length"); got != "5" {
		t.Errorf("Content-Lengthが一致しません: got %q", got)
	}
	if got := resp.Header.Get("Last-Modified"); got != "Mon, 01 Jan 2024 00:00:00 GMT" {
		t.Errorf("Last-Modifiedが一致しません: got %q", got)
	}
	if got := resp.Header.Get("X-Request-ID"); got == "" {
		t.Error("リクエストIDが付与されていません")
	}

	resp, _ = do(t, srv, http.MethodGet, "/app.js", nil)
	if got := resp.Header.Get("Content-Type"); got != "application/javascript" {
		t.Errorf("JavaScriptのContent-Typeが一致しません: got %q", got)
	}

	resp, body = do(t, srv, http.MethodHead, "/hello.txt", nil)
	if resp.StatusCode != http.StatusOK || body != "" {
		t.Errorf("HEADは本文なしの200のはずです: %d %q", resp.StatusCode, body)
	}
	if got := resp.Header.Get("Content-Length"); got != "5" {
		t.Errorf("HEADのContent-Lengthが一致しません: got %q", got)
	}

	resp, body = do(t, srv, http.MethodGet, "/missing.txt", nil)
	if resp.StatusCode != http.StatusNotFound || body != "File not found!" {
		t.Errorf("404のメッセージが一致しません: %d %q", resp.StatusCode, body)
	}
}

func TestServerConditionalGET(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t, config.VariantFurigana))

	resp, body := do(t, srv, http.MethodGet, "/hello.txt", http.Header{
		"If-Modified-Since": {"Sat, 01 Jan 2024 00:00:00 GMT"},
	})
	if resp.StatusCode != http.StatusNotModified || body != "" {
		t.Errorf("304 と空の本文が期待されましたが %d %q でした", resp.StatusCode, body)
	}

	resp, body = do(t, srv, http.MethodGet, "/hello.txt", http.Header{
		"If-Modified-Since": {"Fri, 31 Dec 2023 00:00:00 GMT"},
	})
	if resp.StatusCode != http.StatusOK || body != "hello" {
		t.Errorf("200 と本文が期待されましたが %d %q でした", resp.StatusCode, body)
	}
	if got := resp.Header.Get("Content-Length"); got != "5" {
		t.Errorf("Content-Lengthが一致しません: got %q", got)
	}
}

func TestServerDirectories(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t, config.VariantFurigana))

	resp, body := do(t, srv, http.MethodGet, "/docs?lang=ja", nil)
	if resp.StatusCode != http.StatusMovedPermanently {
		t.Fatalf("301 が期待されましたが %d でした", resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != "/docs/?lang=ja" {
		t.Errorf("Locationが一致しません: got %q", got)
	}

	_, body = do(t, srv, http.MethodGet, "/docs/", nil)
	if body != "<p>docs</p>" {
		t.Errorf("index.html が返されていません: %q", body)
	}

	resp, body = do(t, srv, http.MethodGet, "/docs/?listdir", nil)
	if got := resp.Header.Get("Content-Type"); got != "text/html; charset=UTF-8" {
		t.Errorf("一覧のContent-Typeが一致しません: got %q", got)
	}
	for _, want := range []string{
		"<title>/docs</title>",
		`<li><a href="index.html">index.html</a></li>`,
		`<li><a href="index.htm">index.htm</a></li>`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("一覧に %q がありません: %q", want, body)
		}
	}

	_, body = do(t, srv, http.MethodGet, "/files/", nil)
	if !strings.Contains(body, `<a href="a.txt">a.txt</a>`) {
		t.Errorf("インデックス文書のないディレクトリは一覧になるはずです: %q", body)
	}
}

func TestServerListAll(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t, config.VariantFurigana))

	resp, body := do(t, srv, http.MethodPost, "/api/all", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("200 が期待されましたが %d でした", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "application/json; charset=UTF-8" {
		t.Errorf("Content-Typeが一致しません: got %q", got)
	}
	if got := resp.Header.Get("Content-Length"); got != strconv.Itoa(len(body)) {
		t.Errorf("Content-Lengthが一致しません: got %q, want %d", got, len(body))
	}

	for _, want := range []string{
		`"ruby":"<ruby>漢字<rt>かんじ</rt></ruby>"`,
		`"word":"漢字"`,
		`"note":"tab\tnote"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("本文に %s がそのまま含まれていません: %s", want, body)
		}
	}
	if strings.Contains(body, `\u003c`) || strings.Contains(body, `\u0026`) {
		t.Errorf("HTML文字がエスケープされています: %s", body)
	}

	var records []furigana.Record
	if err := json.Unmarshal([]byte(body), &records); err != nil {
		t.Fatalf("JSONの解析に失敗しました: %v", err)
	}
	if len(records) != len(testRecords) {
		t.Fatalf("レコード数が一致しません: got %d, want %d", len(records), len(testRecords))
	}
	for i := range testRecords {
		if records[i] != testRecords[i] {
			t.Errorf("%d件目が一致しません: got %+v, want %+v", i, records[i], testRecords[i])
		}
	}

	resp, body = do(t, srv, http.MethodPost, "/api/unknown", nil)
	if resp.StatusCode != http.StatusNotFound || body != "API endpoint does not exist!" {
		t.Errorf("存在しないAPIの応答が一致しません: %d %q", resp.StatusCode, body)
	}
}

func TestServerKanjiVariant(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t, config.VariantKanji))

	if srv.Store() != nil {
		t.Error("漢字サーバーにはデータベースがないはずです")
	}

	resp, _ := do(t, srv, http.MethodPost, "/api/all", nil)
	if resp.StatusCode != http.StatusNotImplemented {
		t.Errorf("漢字サーバーのPOSTは 501 のはずです: got %d", resp.StatusCode)
	}

	resp, body := do(t, srv, http.MethodGet, "/hello.txt", http.Header{
		"If-Modified-Since": {"Sat, 01 Jan 2024 00:00:00 GMT"},
	})
	if resp.StatusCode != http.StatusOK || body != "hello" {
		t.Errorf("条件付きGETは無効のはずです: %d %q", resp.StatusCode, body)
	}

	_, body = do(t, srv, http.MethodGet, "/files/", nil)
	if !strings.Contains(body, "<title>/files</title>") || !strings.Contains(body, `href="a.txt"`) {
		t.Errorf("漢字サーバーのテンプレートで一覧が生成されていません: %q", body)
	}

	_, body = do(t, srv, http.MethodGet, "/../../docs/", nil)
	if body != "<p>docs</p>" {
		t.Errorf("ルート外へのパスはルート配下に丸められるはずです: %q", body)
	}
}

// TestNewFatalErrors は起動を中止すべき設定をテストする
func TestNewFatalErrors(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(t *testing.T, cfg *config.Config)
		want   error
	}{
		{
			name: "テンプレートにプレースホルダーがない",
			modify: func(t *testing.T, cfg *config.Config) {
				writeFile(t, cfg.Site.Template, "<html>{%body%}</html>")
			},
			want: static.ErrMissingPlaceholder,
		},
		{
			name: "テンプレートがない",
			modify: func(t *testing.T, cfg *config.Config) {
				cfg.Site.Template = filepath.Join(t.TempDir(), "missing.html")
			},
			want: os.ErrNotExist,
		},
		{
			name: "TSVの見出し行が違う",
			modify: func(t *testing.T, cfg *config.Config) {
				writeFile(t, cfg.API.Database, "word\treading\n")
			},
			want: furigana.ErrHeaderMismatch,
		},
		{
			name: "TSVの列が多すぎる",
			modify: func(t *testing.T, cfg *config.Config) {
				writeFile(t, cfg.API.Database, furigana.HeaderRow()+"\n1\t2\t3\t4\t5\t6\n")
			},
			want: furigana.ErrTooManyColumns,
		},
		{
			name: "公開ディレクトリがない",
			modify: func(t *testing.T, cfg *config.Config) {
				cfg.Site.Root = filepath.Join(t.TempDir(), "missing")
			},
			want: os.ErrNotExist,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := newTestConfig(t, config.VariantFurigana)
			tc.modify(t, cfg)

			srv, err := New(cfg, nil)
			if !errors.Is(err, tc.want) {
				t.Fatalf("%v が期待されましたが %v でした", tc.want, err)
			}
			if srv != nil {
				t.Error("エラー時にサーバーが返されています")
			}
		})
	}
}

func TestNewCreatesMissingDatabase(t *testing.T) {
	cfg := newTestConfig(t, config.VariantFurigana)
	cfg.API.Database = filepath.Join(t.TempDir(), "new.tsv")

	srv := newTestServer(t, cfg)
	_, body := do(t, srv, http.MethodPost, "/api/all", nil)
	if body != "[]" {
		t.Errorf("空のデータベースは [] を返すはずです: %q", body)
	}

	data, err := os.ReadFile(cfg.API.Database)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, []byte(furigana.HeaderRow()+"\n")) {
		t.Errorf("見出し行だけのファイルが作成されていません: %q", data)
	}
}

func TestCheckRoutes(t *testing.T) {
	doc, err := loadAPIDocument(context.Background())
	if err != nil {
		t.Fatalf("API定義の読み込みに失敗しました: %v", err)
	}

	documented := []route{{method: http.MethodPost, path: "/api/all"}}
	if err := checkRoutes(doc, documented); err != nil {
		t.Errorf("記載済みのルートでエラーが発生しました: %v", err)
	}

	for _, rt := range []route{
		{method: http.MethodGet, path: "/api/all"},
		{method: http.MethodPost, path: "/api/add"},
	} {
		if err := checkRoutes(doc, []route{rt}); !errors.Is(err, errUndocumentedRoute) {
			t.Errorf("%s %s: errUndocumentedRoute が期待されましたが %v でした", rt.method, rt.path, err)
		}
	}
}
