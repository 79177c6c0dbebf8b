package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/security"
)

// --- モック ---

type mockDoer struct {
	doFn func(ctx context.Context, method, path string, body, out any) error
}

func (m *mockDoer) Do(ctx context.Context, method, path string, body, out any) error {
	return m.doFn(ctx, method, path, body, out)
}

// respondJSON はoutにJSONレスポンス相当の値をデコードして格納する。
func respondJSON(t *testing.T, out any, payload string) {
	t.Helper()
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		t.Fatalf("failed to decode test payload: %v", err)
	}
}

// --- テスト ---

func TestProducts_ReturnsAllProducts(t *testing.T) {
	doer := &mockDoer{
		doFn: func(ctx context.Context, method, path string, body, out any) error {
			if method != http.MethodGet {
				t.Errorf("method = %q, want GET", method)
			}
			if path != "/products" {
				t.Errorf("path = %q, want /products", path)
			}
			respondJSON(t, out, `[
				{"id":1,"title":"Product 1","price":29.99,"category":"electronics","rating":{"rate":4.5,"count":100}},
				{"id":2,"title":"Product 2","price":49.99,"category":"clothing","rating":{"rate":4.0,"count":50}}
			]`)
			return nil
		},
	}

	svc := NewService(doer, nil)
	products, err := svc.Products(context.Background())
	if err != nil {
		t.Fatalf("Products returned error: %v", err)
	}

	if len(products) != 2 {
		t.Fatalf("len(products) = %d, want 2", len(products))
	}
	if products[0].Title != "Product 1" {
		t.Errorf("products[0].Title = %q, want %q", products[0].Title, "Product 1")
	}
	if !products[0].Price.Equal(decimal.RequireFromString("29.99")) {
		t.Errorf("products[0].Price = %s, want 29.99", products[0].Price)
	}
}

func TestProductByID_ReturnsProduct(t *testing.T) {
	doer := &mockDoer{
		doFn: func(ctx context.Context, method, path string, body, out any) error {
			if path != "/products/1" {
				t.Errorf("path = %q, want /products/1", path)
			}
			respondJSON(t, out, `{"id":1,"title":"Product 1","price":29.99}`)
			return nil
		},
	}

	svc := NewService(doer, nil)
	p, err := svc.ProductByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("ProductByID returned error: %v", err)
	}
	if p.ID != 1 {
		t.Errorf("ID = %d, want 1", p.ID)
	}
}

// TestProductByID_NotFound はID検索で該当が無い場合、null成功ではなく
// 商品未検出エラーになることを検証する。
func TestProductByID_NotFound(t *testing.T) {
	doer := &mockDoer{
		doFn: func(ctx context.Context, method, path string, body, out any) error {
			return model.NewHTTPStatusError(http.StatusNotFound, "")
		},
	}

	svc := NewService(doer, nil)
	p, err := svc.ProductByID(context.Background(), 999)
	if err == nil {
		t.Fatal("expected error for missing product, got nil")
	}
	if p != nil {
		t.Errorf("expected nil product, got %+v", p)
	}
	if !model.IsNotFound(err) {
		t.Errorf("IsNotFound(err) = false, err = %v", err)
	}
}

func TestProductByID_OtherErrorsPropagate(t *testing.T) {
	doer := &mockDoer{
		doFn: func(ctx context.Context, method, path string, body, out any) error {
			return model.NewRequestFailedError("connection refused")
		},
	}

	svc := NewService(doer, nil)
	_, err := svc.ProductByID(context.Background(), 1)
	if model.IsNotFound(err) {
		t.Error("transport failure must not be reported as not-found")
	}
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// TestProductsByCategory_UnknownCategory は未知のカテゴリがエラーではなく
// 空リストになることを検証する。
func TestProductsByCategory_UnknownCategory_ReturnsEmptyList(t *testing.T) {
	doer := &mockDoer{
		doFn: func(ctx context.Context, method, path string, body, out any) error {
			respondJSON(t, out, `[]`)
			return nil
		},
	}

	svc := NewService(doer, nil)
	products, err := svc.ProductsByCategory(context.Background(), "non-existent")
	if err != nil {
		t.Fatalf("ProductsByCategory returned error: %v", err)
	}
	if products == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(products) != 0 {
		t.Errorf("len(products) = %d, want 0", len(products))
	}
}

// TestProductsByCategory_EscapesCategoryName はカテゴリ名の特殊文字が
// パスセグメントとしてエスケープされることを検証する。
func TestProductsByCategory_EscapesCategoryName(t *testing.T) {
	var gotPath string
	doer := &mockDoer{
		doFn: func(ctx context.Context, method, path string, body, out any) error {
			gotPath = path
			respondJSON(t, out, `[]`)
			return nil
		},
	}

	svc := NewService(doer, nil)
	if _, err := svc.ProductsByCategory(context.Background(), "men's clothing"); err != nil {
		t.Fatalf("ProductsByCategory returned error: %v", err)
	}

	want := "/products/category/men's%20clothing"
	if gotPath != want {
		t.Errorf("path = %q, want %q", gotPath, want)
	}
}

func TestCategories_ReturnsCategoryNames(t *testing.T) {
	doer := &mockDoer{
		doFn: func(ctx context.Context, method, path string, body, out any) error {
			if path != "/products/categories" {
				t.Errorf("path = %q, want /products/categories", path)
			}
			respondJSON(t, out, `["electronics","jewelry"]`)
			return nil
		},
	}

	svc := NewService(doer, nil)
	categories, err := svc.Categories(context.Background())
	if err != nil {
		t.Fatalf("Categories returned error: %v", err)
	}
	if len(categories) != 2 || categories[0] != "electronics" {
		t.Errorf("categories = %v, want [electronics jewelry]", categories)
	}
}

func TestLogin_Success(t *testing.T) {
	doer := &mockDoer{
		doFn: func(ctx context.Context, method, path string, body, out any) error {
			if method != http.MethodPost || path != "/auth/login" {
				t.Errorf("request = %s %s, want POST /auth/login", method, path)
			}
			creds, ok := body.(model.Credentials)
			if !ok {
				t.Fatalf("body type = %T, want model.Credentials", body)
			}
			if creds.Username != "testuser" {
				t.Errorf("username = %q, want %q", creds.Username, "testuser")
			}
			respondJSON(t, out, `{"token":"mock-jwt-token-12345"}`)
			return nil
		},
	}

	svc := NewService(doer, nil)
	resp, err := svc.Login(context.Background(), model.Credentials{Username: "testuser", Password: "testpass"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if resp.Token != "mock-jwt-token-12345" {
		t.Errorf("Token = %q, want %q", resp.Token, "mock-jwt-token-12345")
	}
}

// TestLogin_InvalidCredentials は401がログイン失敗エラーに変換され、
// 資格情報の詳細を含まないことを検証する。
func TestLogin_InvalidCredentials(t *testing.T) {
	doer := &mockDoer{
		doFn: func(ctx context.Context, method, path string, body, out any) error {
			return model.NewHTTPStatusError(http.StatusUnauthorized, "username is invalid")
		},
	}

	svc := NewService(doer, nil)
	_, err := svc.Login(context.Background(), model.Credentials{Username: "wrong", Password: "wrong"})
	if err == nil {
		t.Fatal("expected error for invalid credentials, got nil")
	}
	if !model.IsLoginFailed(err) {
		t.Errorf("IsLoginFailed(err) = false, err = %v", err)
	}
	// 資格情報固有の情報が漏れないこと
	if msg := err.Error(); msg != (model.NewLoginFailedError()).Error() {
		t.Errorf("error message = %q, want generic login failure", msg)
	}
}

func TestLogin_TransportFailurePropagates(t *testing.T) {
	doer := &mockDoer{
		doFn: func(ctx context.Context, method, path string, body, out any) error {
			return model.NewRequestFailedError("timeout")
		},
	}

	svc := NewService(doer, nil)
	_, err := svc.Login(context.Background(), model.Credentials{Username: "u", Password: "p"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if model.IsLoginFailed(err) {
		t.Error("transport failure must not be reported as login failure")
	}
}

// TestProducts_SanitizesText はサニタイザが商品のタイトルと説明に
// 適用されることを検証する。
func TestProducts_SanitizesText(t *testing.T) {
	doer := &mockDoer{
		doFn: func(ctx context.Context, method, path string, body, out any) error {
			respondJSON(t, out, `[{"id":1,"title":"Bag<script>x()</script>","description":"<p>Nice <strong>bag</strong></p><script>y()</script>"}]`)
			return nil
		},
	}

	svc := NewService(doer, security.NewContentSanitizer())
	products, err := svc.Products(context.Background())
	if err != nil {
		t.Fatalf("Products returned error: %v", err)
	}

	if products[0].Title != "Bag" {
		t.Errorf("Title = %q, want %q", products[0].Title, "Bag")
	}
	if want := "<p>Nice <strong>bag</strong></p>"; products[0].Description != want {
		t.Errorf("Description = %q, want %q", products[0].Description, want)
	}
}
