package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/query"
)

// CatalogServiceInterface はハンドラーが必要とするカタログサービスインターフェース。
type CatalogServiceInterface interface {
	// Products は全商品の一覧を取得する。
	Products(ctx context.Context) ([]model.Product, error)
	// ProductByID は商品をIDで取得する。
	ProductByID(ctx context.Context, id int) (*model.Product, error)
	// ProductsByCategory は指定カテゴリの商品一覧を取得する。
	ProductsByCategory(ctx context.Context, category string) ([]model.Product, error)
	// Categories は全カテゴリ名の一覧を取得する。
	Categories(ctx context.Context) ([]string, error)
	// Login は資格情報で認証する。
	Login(ctx context.Context, creds model.Credentials) (*model.AuthResponse, error)
}

// ProductHandler はカタログ閲覧のHTTPハンドラー。
type ProductHandler struct {
	service CatalogServiceInterface
}

// NewProductHandler はProductHandlerを生成する。
func NewProductHandler(service CatalogServiceInterface) *ProductHandler {
	return &ProductHandler{service: service}
}

// List は商品一覧を取得する。
// GET /api/products?category=...&q=...
//
// categoryが指定された場合はカテゴリのサーバーサイドフィルタを使う。
// qが指定された場合はタイトルの部分一致（大文字小文字を区別しない）で
// クライアントサイドに絞り込む。両方指定された場合はカテゴリ結果をqで絞り込む。
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	keyword := r.URL.Query().Get("q")

	var (
		products []model.Product
		err      error
	)
	if category != "" {
		products, err = h.service.ProductsByCategory(r.Context(), category)
	} else {
		products, err = h.service.Products(r.Context())
	}
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	if keyword != "" {
		products = query.FilterByTitle(products, keyword)
	}

	writeJSON(w, http.StatusOK, products)
}

// Get は商品詳細を取得する。
// GET /api/products/:id
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		middleware.WriteError(w, model.NewInvalidRequestError("商品IDは整数で指定してください"))
		return
	}

	product, err := h.service.ProductByID(r.Context(), id)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// Categories はカテゴリ一覧を取得する。
// GET /api/categories
func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, categories)
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
