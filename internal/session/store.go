// Package session は認証セッションの状態管理と永続化を提供する。
//
// Storeがトークンの唯一の情報源であり、認証済みかどうかはトークンの有無から
// 純粋に導出する（独立したフラグとしては保存しない）。
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/storage"
)

// Authenticator はログイン処理のインターフェース。
// catalog.Serviceが実装する。
type Authenticator interface {
	Login(ctx context.Context, creds model.Credentials) (*model.AuthResponse, error)
}

// Store は認証セッションの状態を保持し、トークンを永続化する。
type Store struct {
	mu      sync.Mutex
	token   string
	loading bool

	storage storage.Store
	auth    Authenticator
	logger  *slog.Logger
}

// NewStore はStoreを生成し、永続化ストレージからトークンを1回だけ復元する。
// 復元の成否に関わらずビジーフラグはfalseで開始する。
func NewStore(st storage.Store, auth Authenticator, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		storage: st,
		auth:    auth,
		logger:  logger,
	}

	token, ok, err := st.Get(storage.KeyToken)
	if err != nil {
		return nil, fmt.Errorf("failed to read persisted token: %w", err)
	}
	if ok {
		s.token = token
	}

	return s, nil
}

// Token は現在のトークンを返す。未ログイン時は空文字列。
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// IsAuthenticated はトークンが存在するかどうかを返す。
// トークンの有無からの純粋な導出であり、トークンと食い違うことはない。
func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

// Loading はログイン処理が進行中かどうかを返す。
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Login は資格情報で認証し、成功時はトークンをメモリと永続化ストレージの
// 両方に保存する。失敗時は以前の状態をそのまま残し、ビジーフラグを解除した
// うえでエラーを呼び出し側へ再送出する。
//
// 進行中のLoginの最中にLogoutが実行された場合は「後に書いた方が勝つ」。
// 遅れて成功したLoginはLogout後でもトークンをコミットする。
func (s *Store) Login(ctx context.Context, creds model.Credentials) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	resp, err := s.auth.Login(ctx, creds)
	if err != nil {
		// 資格情報の詳細はログに残さない
		s.logger.Warn("login failed")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Set(storage.KeyToken, resp.Token); err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}
	s.token = resp.Token

	s.logger.Info("login succeeded")
	return nil
}

// Logout はメモリと永続化ストレージの両方からトークンを無条件に削除する。
// 失敗しない。ストレージの削除エラーはログに記録するだけで伝播しない。
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	if err := s.storage.Delete(storage.KeyToken); err != nil {
		s.logger.Warn("failed to remove persisted token",
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("logged out")
}
