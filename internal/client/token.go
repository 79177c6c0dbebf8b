package client

import "github.com/hitoshi/storefront/internal/storage"

// TokenSource は現在のセッショントークンの取得元を表す。
type TokenSource interface {
	// Token は現在の認証トークンを返す。未ログイン時は空文字列。
	Token() string
}

// TokenSourceFunc は関数をTokenSourceとして使うためのアダプタ。
type TokenSourceFunc func() string

// Token はf()を返す。
func (f TokenSourceFunc) Token() string {
	return f()
}

// StorageTokenSource は永続化ストレージからトークンを毎回読み出すTokenSource。
// クライアント生成時のキャッシュを持たないため、ログイン/ログアウトによる
// トークンの変化が次のリクエストから即座に反映される。
type StorageTokenSource struct {
	store storage.Store
}

// NewStorageTokenSource はStorageTokenSourceを生成する。
func NewStorageTokenSource(store storage.Store) *StorageTokenSource {
	return &StorageTokenSource{store: store}
}

// Token はストレージからトークンを読み出す。
// ストレージエラーや未保存の場合は空文字列を返す（未認証として扱う）。
func (s *StorageTokenSource) Token() string {
	v, ok, err := s.store.Get(storage.KeyToken)
	if err != nil || !ok {
		return ""
	}
	return v
}
