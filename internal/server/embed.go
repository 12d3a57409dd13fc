package server

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var openAPIDocument []byte

// errUndocumentedRoute はAPI定義にないルートが登録されていることを表す
var errUndocumentedRoute = errors.New("API定義にないルートです")

// loadAPIDocument は埋め込みのAPI定義を読み込んで検証する
func loadAPIDocument(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromData(openAPIDocument)
	if err != nil {
		return nil, fmt.Errorf("API定義の読み込みに失敗: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("API定義の検証に失敗: %w", err)
	}
	return doc, nil
}

// checkRoutes はルート表の各ルートがAPI定義に記載されているかを確認する
func checkRoutes(doc *openapi3.T, routes []route) error {
	for _, rt := range routes {
		item := doc.Paths.Find(rt.path)
		if item == nil || item.GetOperation(rt.method) == nil {
			return fmt.Errorf("%w: %s %s", errUndocumentedRoute, rt.method, rt.path)
		}
	}
	return nil
}
