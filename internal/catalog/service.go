// Package catalog はカタログサービスへの型付きクエリ層を提供する。
//
// 各操作はリクエストクライアントへの薄いパススルーで、結果のキャッシュは行わない。
// 再取得の判断は上位のリソース層に委ねられる。
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/security"
)

// Doer はHTTPリクエスト実行のインターフェース。
// client.Clientが実装する。
type Doer interface {
	Do(ctx context.Context, method, path string, body, out any) error
}

// Service はカタログ/認証サービスへの型付き読み書き操作を提供する。
type Service struct {
	client    Doer
	sanitizer security.ContentSanitizer
}

// NewService はServiceを生成する。
// sanitizerがnilの場合はサニタイズを行わない。
func NewService(client Doer, sanitizer security.ContentSanitizer) *Service {
	if sanitizer == nil {
		sanitizer = security.NewNoopSanitizer()
	}
	return &Service{
		client:    client,
		sanitizer: sanitizer,
	}
}

// Products は全商品の一覧を取得する。
func (s *Service) Products(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := s.client.Do(ctx, http.MethodGet, "/products", nil, &products); err != nil {
		return nil, err
	}
	return s.sanitizeAll(products), nil
}

// ProductByID は商品をIDで取得する。
// 該当する商品が無い場合はnull成功ではなく商品未検出エラーを返す。
func (s *Service) ProductByID(ctx context.Context, id int) (*model.Product, error) {
	var product model.Product
	err := s.client.Do(ctx, http.MethodGet, fmt.Sprintf("/products/%d", id), nil, &product)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatus == http.StatusNotFound {
			return nil, model.NewProductNotFoundError(id)
		}
		return nil, err
	}
	p := s.sanitize(product)
	return &p, nil
}

// ProductsByCategory は指定カテゴリの商品一覧をサーバーサイドフィルタで取得する。
// 未知のカテゴリはエラーではなく空のリストになる。
func (s *Service) ProductsByCategory(ctx context.Context, category string) ([]model.Product, error) {
	var products []model.Product
	path := "/products/category/" + url.PathEscape(category)
	if err := s.client.Do(ctx, http.MethodGet, path, nil, &products); err != nil {
		return nil, err
	}
	return s.sanitizeAll(products), nil
}

// Categories は全カテゴリ名の一覧を取得する。
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := s.client.Do(ctx, http.MethodGet, "/products/categories", nil, &categories); err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

// Login は資格情報で認証し、成功時はトークンを含むレスポンスを返す。
// 401はログイン失敗エラーに変換し、資格情報の詳細は漏らさない。
// その他の失敗（トランスポート障害等）はそのまま伝播する。
func (s *Service) Login(ctx context.Context, creds model.Credentials) (*model.AuthResponse, error) {
	var resp model.AuthResponse
	err := s.client.Do(ctx, http.MethodPost, "/auth/login", creds, &resp)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatus == http.StatusUnauthorized {
			return nil, model.NewLoginFailedError()
		}
		return nil, err
	}
	return &resp, nil
}

// sanitizeAll は商品リスト全体のテキストをサニタイズする。
// 結果がnilの場合は空スライスに正規化する。
func (s *Service) sanitizeAll(products []model.Product) []model.Product {
	if products == nil {
		return []model.Product{}
	}
	for i := range products {
		products[i] = s.sanitize(products[i])
	}
	return products
}

// sanitize は商品のタイトルと説明をサニタイズする。
func (s *Service) sanitize(p model.Product) model.Product {
	p.Title = s.sanitizer.SanitizeTitle(p.Title)
	p.Description = s.sanitizer.SanitizeDescription(p.Description)
	return p
}
