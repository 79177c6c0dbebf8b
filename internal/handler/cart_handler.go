package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/storefront/internal/cart"
	"github.com/hitoshi/storefront/internal/metrics"
	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/model"
)

// CartHandler はカート管理のHTTPハンドラー。
// カートストアはリクエストコンテキストから取り出す。
type CartHandler struct {
	catalog CatalogServiceInterface
	metrics metrics.MetricsCollector
}

// NewCartHandler はCartHandlerを生成する。
func NewCartHandler(catalog CatalogServiceInterface, collector metrics.MetricsCollector) *CartHandler {
	return &CartHandler{
		catalog: catalog,
		metrics: collector,
	}
}

// addItemRequest はカート追加リクエストのボディ。
type addItemRequest struct {
	ProductID int `json:"product_id"`
}

// updateItemRequest は数量変更リクエストのボディ。
type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

// cartEntryResponse はカートエントリのAPIレスポンス。
type cartEntryResponse struct {
	Product  model.Product `json:"product"`
	Quantity int           `json:"quantity"`
	Subtotal string        `json:"subtotal"`
}

// cartResponse はカート全体のAPIレスポンス。
// 導出値（合計点数・合計金額）を含む。
type cartResponse struct {
	Items      []cartEntryResponse `json:"items"`
	TotalItems int                 `json:"total_items"`
	TotalPrice string              `json:"total_price"`
	Signal     string              `json:"signal,omitempty"`
}

// Get は現在のカートを取得する。
// GET /api/cart
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	store := cart.FromContext(r.Context())
	writeJSON(w, http.StatusOK, toCartResponse(store, cart.SignalNone))
}

// AddItem は商品をカートに追加する。
// POST /api/cart/items
//
// 商品情報はカタログサービスから取得してエントリに保存する。
// 存在しない商品IDは404になる。
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	product, err := h.catalog.ProductByID(r.Context(), req.ProductID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	store := cart.FromContext(r.Context())
	signal, err := store.Add(*product)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	h.recordMutation(signal)

	writeJSON(w, http.StatusOK, toCartResponse(store, signal))
}

// UpdateItem はカートエントリの数量を変更する。
// PATCH /api/cart/items/:id
//
// 数量0以下は削除と同じ扱い。存在しない商品IDへの正の数量指定はno-op。
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		middleware.WriteError(w, model.NewInvalidRequestError("商品IDは整数で指定してください"))
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	store := cart.FromContext(r.Context())
	signal, err := store.UpdateQuantity(productID, req.Quantity)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	h.recordMutation(signal)

	writeJSON(w, http.StatusOK, toCartResponse(store, signal))
}

// RemoveItem はカートからエントリを削除する。
// DELETE /api/cart/items/:id
//
// 存在しない商品IDはエラーではなくno-op。
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		middleware.WriteError(w, model.NewInvalidRequestError("商品IDは整数で指定してください"))
		return
	}

	store := cart.FromContext(r.Context())
	signal, err := store.Remove(productID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	h.recordMutation(signal)

	writeJSON(w, http.StatusOK, toCartResponse(store, signal))
}

// Clear はカートを空にする。
// DELETE /api/cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	store := cart.FromContext(r.Context())
	signal, err := store.Clear()
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	h.recordMutation(signal)

	writeJSON(w, http.StatusOK, toCartResponse(store, signal))
}

// recordMutation は状態が変化したミューテーションをメトリクスに記録する。
func (h *CartHandler) recordMutation(signal cart.Signal) {
	if h.metrics != nil && signal != cart.SignalNone {
		h.metrics.RecordCartMutation(string(signal))
	}
}

// toCartResponse はカートストアの現在状態からレスポンスを組み立てる。
func toCartResponse(store *cart.Store, signal cart.Signal) cartResponse {
	entries := store.Entries()
	items := make([]cartEntryResponse, len(entries))
	for i, e := range entries {
		items[i] = cartEntryResponse{
			Product:  e.Product,
			Quantity: e.Quantity,
			Subtotal: e.Subtotal().String(),
		}
	}
	return cartResponse{
		Items:      items,
		TotalItems: store.TotalItems(),
		TotalPrice: store.TotalPrice().String(),
		Signal:     string(signal),
	}
}
