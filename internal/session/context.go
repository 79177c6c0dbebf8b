package session

import (
	"context"

	"github.com/hitoshi/storefront/internal/model"
)

type contextKey struct{}

// NewContext はStoreを保持するContextを返す。
func NewContext(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext はContextからStoreを取り出す。
// 初期化済みのStoreが存在しないContextでの呼び出しはプログラミングエラーで
// あり、即座にpanicする。
func FromContext(ctx context.Context) *Store {
	s, ok := ctx.Value(contextKey{}).(*Store)
	if !ok || s == nil {
		panic(model.NewStoreNotInitializedError("session"))
	}
	return s
}
