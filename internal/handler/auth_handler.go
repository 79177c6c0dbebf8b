package handler

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/storefront/internal/metrics"
	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/session"
)

// AuthHandler は認証セッションのHTTPハンドラー。
// セッションストアはリクエストコンテキストから取り出す。
type AuthHandler struct {
	metrics metrics.MetricsCollector
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(collector metrics.MetricsCollector) *AuthHandler {
	return &AuthHandler{metrics: collector}
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// meResponse は認証状態のAPIレスポンス。
type meResponse struct {
	Authenticated bool `json:"authenticated"`
}

// Login は資格情報で認証しトークンを保存する。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}
	if req.Username == "" || req.Password == "" {
		middleware.WriteError(w, model.NewInvalidRequestError("ユーザー名とパスワードは必須です"))
		return
	}

	store := session.FromContext(r.Context())
	creds := model.Credentials{Username: req.Username, Password: req.Password}
	if err := store.Login(r.Context(), creds); err != nil {
		h.recordOutcome("failure")
		middleware.WriteError(w, err)
		return
	}
	h.recordOutcome("success")

	writeJSON(w, http.StatusOK, meResponse{Authenticated: true})
}

// Logout はセッションを終了しトークンを破棄する。
// POST /auth/logout
//
// 未ログイン状態でも成功する。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	store := session.FromContext(r.Context())
	store.Logout()
	w.WriteHeader(http.StatusNoContent)
}

// Me は現在の認証状態を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	store := session.FromContext(r.Context())
	writeJSON(w, http.StatusOK, meResponse{Authenticated: store.IsAuthenticated()})
}

// recordOutcome はログイン試行の結果をメトリクスに記録する。
func (h *AuthHandler) recordOutcome(result string) {
	if h.metrics != nil {
		h.metrics.RecordLoginOutcome(result)
	}
}
