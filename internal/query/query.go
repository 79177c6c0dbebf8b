// Package query はカタログ操作を非同期リソースとして公開するクエリ層を提供する。
//
// 各コンストラクタはカタログ操作を1つのResourceに束ね、呼び出し側は
// Snapshot/Wait/Refetchでフェッチのライフサイクルを扱えるようになる。
package query

import (
	"context"
	"strings"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/resource"
)

// CatalogService はクエリ層が必要とするカタログ操作のインターフェース。
// catalog.Serviceが実装する。
type CatalogService interface {
	Products(ctx context.Context) ([]model.Product, error)
	ProductByID(ctx context.Context, id int) (*model.Product, error)
	ProductsByCategory(ctx context.Context, category string) ([]model.Product, error)
	Categories(ctx context.Context) ([]string, error)
}

// ProductsResource は全商品一覧のリソースを生成し、最初の取得を開始する。
func ProductsResource(ctx context.Context, svc CatalogService) *resource.Resource[[]model.Product] {
	return resource.New(ctx, func(ctx context.Context) ([]model.Product, error) {
		return svc.Products(ctx)
	})
}

// ProductResource は単一商品のリソースを生成し、最初の取得を開始する。
func ProductResource(ctx context.Context, svc CatalogService, id int) *resource.Resource[model.Product] {
	return resource.New(ctx, func(ctx context.Context) (model.Product, error) {
		p, err := svc.ProductByID(ctx, id)
		if err != nil {
			return model.Product{}, err
		}
		return *p, nil
	})
}

// ProductsByCategoryResource は指定カテゴリの商品一覧のリソースを生成し、
// 最初の取得を開始する。
func ProductsByCategoryResource(ctx context.Context, svc CatalogService, category string) *resource.Resource[[]model.Product] {
	return resource.New(ctx, func(ctx context.Context) ([]model.Product, error) {
		return svc.ProductsByCategory(ctx, category)
	})
}

// CategoriesResource は全カテゴリ一覧のリソースを生成し、最初の取得を開始する。
func CategoriesResource(ctx context.Context, svc CatalogService) *resource.Resource[[]string] {
	return resource.New(ctx, func(ctx context.Context) ([]string, error) {
		return svc.Categories(ctx)
	})
}

// SearchProductsResource はタイトルの部分一致検索のリソースを生成し、
// 最初の取得を開始する。マッチングは大文字小文字を区別せず、
// フィルタはクライアント側で行う（カタログサービスは検索APIを持たない）。
func SearchProductsResource(ctx context.Context, svc CatalogService, keyword string) *resource.Resource[[]model.Product] {
	return resource.New(ctx, func(ctx context.Context) ([]model.Product, error) {
		products, err := svc.Products(ctx)
		if err != nil {
			return nil, err
		}
		return FilterByTitle(products, keyword), nil
	})
}

// FilterByTitle はタイトルにキーワードを含む商品だけを返す。
// 大文字小文字は区別しない。空キーワードは全件を返す。結果は常に非nil。
func FilterByTitle(products []model.Product, keyword string) []model.Product {
	if keyword == "" {
		if products == nil {
			return []model.Product{}
		}
		return products
	}

	needle := strings.ToLower(keyword)
	matched := []model.Product{}
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Title), needle) {
			matched = append(matched, p)
		}
	}
	return matched
}
