// Package handler はHTTP APIのハンドラーとルーティングを提供する。
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/storefront/internal/cart"
	"github.com/hitoshi/storefront/internal/metrics"
	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/session"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger            *slog.Logger
	CORSAllowedOrigin string

	// カタログ
	CatalogService CatalogServiceInterface

	// ローカル状態ストア
	CartStore    *cart.Store
	SessionStore *session.Store

	// メトリクス
	Metrics  metrics.MetricsCollector
	Gatherer prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RecoveryMiddleware → LoggingMiddleware → CORSMiddleware → ストア注入
//
// ストア注入ミドルウェアはカート/セッションストアをリクエストコンテキストに
// 載せる。ハンドラーはFromContextで取り出す。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(newStoreMiddleware(deps.CartStore, deps.SessionStore))

	productHandler := NewProductHandler(deps.CatalogService)
	cartHandler := NewCartHandler(deps.CatalogService, deps.Metrics)
	authHandler := NewAuthHandler(deps.Metrics)

	// カタログ閲覧
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", productHandler.List)
		r.Get("/{id}", productHandler.Get)
	})
	r.Get("/api/categories", productHandler.Categories)

	// カート管理
	r.Route("/api/cart", func(r chi.Router) {
		r.Get("/", cartHandler.Get)
		r.Delete("/", cartHandler.Clear)

		r.Route("/items", func(r chi.Router) {
			r.Post("/", cartHandler.AddItem)
			r.Patch("/{id}", cartHandler.UpdateItem)
			r.Delete("/{id}", cartHandler.RemoveItem)
		})
	})

	// 認証セッション
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// 運用エンドポイント
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	return r
}

// newStoreMiddleware はカート/セッションストアをリクエストコンテキストへ
// 注入するミドルウェアを返す。
func newStoreMiddleware(cartStore *cart.Store, sessionStore *session.Store) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := cart.NewContext(r.Context(), cartStore)
			ctx = session.NewContext(ctx, sessionStore)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
