// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
// トランスポート障害・HTTPエラー・デコード失敗はすべてこの形に正規化される。
type APIError struct {
	Code       string // エラーコード
	Message    string // エラーメッセージ
	Category   string // カテゴリ: auth, validation, catalog, system
	Action     string // ユーザー向け対処方法
	HTTPStatus int    // 対応するHTTPステータス（不明な場合は0）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeRequestFailed       = "REQUEST_FAILED"
	ErrCodeHTTPStatus          = "HTTP_STATUS"
	ErrCodeDecodeFailed        = "DECODE_FAILED"
	ErrCodeProductNotFound     = "PRODUCT_NOT_FOUND"
	ErrCodeLoginFailed         = "LOGIN_FAILED"
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
	ErrCodeStoreNotInitialized = "STORE_NOT_INITIALIZED"
)

// NewRequestFailedError はトランスポート障害（接続失敗・タイムアウト等、
// レスポンスを受信できなかった場合）のエラーを生成する。
func NewRequestFailedError(reason string) *APIError {
	return &APIError{
		Code:       ErrCodeRequestFailed,
		Message:    fmt.Sprintf("カタログサービスへのリクエストに失敗しました: %s", reason),
		Category:   "system",
		Action:     "ネットワーク接続を確認し、しばらく待ってから再度お試しください。",
		HTTPStatus: http.StatusBadGateway,
	}
}

// NewHTTPStatusError は非2xxレスポンスのエラーを生成する。
// serverMessageにはレスポンスボディの構造化エラーメッセージを渡す（無い場合は空文字列）。
func NewHTTPStatusError(status int, serverMessage string) *APIError {
	msg := fmt.Sprintf("カタログサービスがエラーを返しました: HTTP %d", status)
	if serverMessage != "" {
		msg = fmt.Sprintf("%s (%s)", msg, serverMessage)
	}
	return &APIError{
		Code:       ErrCodeHTTPStatus,
		Message:    msg,
		Category:   "catalog",
		Action:     "しばらく待ってから再度お試しください。",
		HTTPStatus: status,
	}
}

// NewDecodeFailedError は成功レスポンスのボディが期待した形式でない場合のエラーを生成する。
func NewDecodeFailedError() *APIError {
	return &APIError{
		Code:       ErrCodeDecodeFailed,
		Message:    "カタログサービスのレスポンスを解析できませんでした。",
		Category:   "catalog",
		Action:     "しばらく待ってから再度お試しください。",
		HTTPStatus: http.StatusBadGateway,
	}
}

// NewProductNotFoundError は商品未検出エラーを生成する。
// 単一リソースのID検索で該当が無い場合はエラーであり、null成功にはしない。
func NewProductNotFoundError(productID int) *APIError {
	return &APIError{
		Code:       ErrCodeProductNotFound,
		Message:    fmt.Sprintf("指定された商品が見つかりません: %d", productID),
		Category:   "catalog",
		Action:     "商品IDを確認してください。",
		HTTPStatus: http.StatusNotFound,
	}
}

// NewLoginFailedError はログイン失敗エラーを生成する。
// どの資格情報が誤っていたかは漏らさず、一般的なメッセージのみを返す。
func NewLoginFailedError() *APIError {
	return &APIError{
		Code:       ErrCodeLoginFailed,
		Message:    "ログインに失敗しました。",
		Category:   "auth",
		Action:     "ユーザー名とパスワードを確認して再度お試しください。",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewInvalidRequestError は無効なリクエストエラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:       ErrCodeInvalidRequest,
		Message:    fmt.Sprintf("無効なリクエストです: %s", reason),
		Category:   "validation",
		Action:     "リクエスト内容を確認してください。",
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewStoreNotInitializedError はストアが初期化されたコンテキストの外で
// 使用された場合のエラーを生成する。これはプログラミングエラーであり、
// 呼び出し側はこの値でpanicして即座に処理を中断する。
func NewStoreNotInitializedError(store string) *APIError {
	return &APIError{
		Code:       ErrCodeStoreNotInitialized,
		Message:    fmt.Sprintf("%sストアが初期化されていません。", store),
		Category:   "system",
		Action:     "ストアを初期化したコンテキスト内で使用してください。",
		HTTPStatus: http.StatusInternalServerError,
	}
}

// IsNotFound はerrが商品未検出エラーかどうかを判定する。
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeProductNotFound)
}

// IsLoginFailed はerrがログイン失敗エラーかどうかを判定する。
func IsLoginFailed(err error) bool {
	return hasCode(err, ErrCodeLoginFailed)
}

func hasCode(err error, code string) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}
