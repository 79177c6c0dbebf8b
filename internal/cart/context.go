package cart

import (
	"context"

	"github.com/hitoshi/storefront/internal/model"
)

type contextKey struct{}

// NewContext はStoreを保持するContextを返す。
// HTTPハンドラ等の利用側は、このContextを通じて初期化済みのStoreを受け取る。
func NewContext(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext はContextからStoreを取り出す。
// 初期化済みのStoreが存在しないContextでの呼び出しはプログラミングエラーで
// あり、状態を読む前に即座にpanicする。黙ってデフォルト値を返すことはしない。
func FromContext(ctx context.Context) *Store {
	s, ok := ctx.Value(contextKey{}).(*Store)
	if !ok || s == nil {
		panic(model.NewStoreNotInitializedError("cart"))
	}
	return s
}
