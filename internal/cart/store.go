// Package cart は買い物カゴの状態管理と永続化を提供する。
//
// Storeがカート状態の唯一の情報源であり、利用側は読み取り専用の導出値と
// ミューテータだけを受け取る。エントリは挿入順を保持し、同一商品IDの
// エントリは最大1つ。すべてのミューテーションは完了前に全エントリを
// ストレージへ同期的に再シリアライズする。
package cart

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/storage"
)

// Signal はミューテーションの結果種別を表す。
type Signal string

const (
	// SignalAdded は新しいエントリが追加されたことを示す。
	SignalAdded Signal = "added"
	// SignalQuantityUpdated は既存エントリの数量が変更されたことを示す。
	SignalQuantityUpdated Signal = "quantity updated"
	// SignalRemoved はエントリが削除されたことを示す。
	SignalRemoved Signal = "removed"
	// SignalCleared はカート全体が空にされたことを示す。
	SignalCleared Signal = "cleared"
	// SignalNone は状態が変化しなかったことを示す（存在しないIDへの操作等）。
	SignalNone Signal = ""
)

// Store はカート状態を保持し、ミューテーションごとに永続化する。
type Store struct {
	mu      sync.Mutex
	entries []model.CartEntry
	storage storage.Store
	logger  *slog.Logger
}

// NewStore はStoreを生成し、永続化ストレージからカートを復元する。
// 保存されたペイロードが壊れている場合はクラッシュせず、警告ログを出して
// 空のカートで開始する。ストレージ自体の読み取り失敗はエラーを返す。
func NewStore(st storage.Store, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		storage: st,
		logger:  logger,
	}

	raw, ok, err := st.Get(storage.KeyCart)
	if err != nil {
		return nil, fmt.Errorf("failed to read persisted cart: %w", err)
	}
	if ok {
		var entries []model.CartEntry
		if err := json.Unmarshal([]byte(raw), &entries); err != nil {
			logger.Warn("persisted cart is corrupt, starting with empty cart",
				slog.String("error", err.Error()),
			)
		} else {
			s.entries = entries
		}
	}

	return s, nil
}

// Add は商品をカートに追加する。
// 同じ商品IDのエントリが既にある場合は数量を1増やし、無い場合は
// 数量1の新しいエントリを末尾に追加する。既存エントリの順序は保たれる。
func (s *Store) Add(product model.Product) (Signal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].Product.ID == product.ID {
			s.entries[i].Quantity++
			if err := s.persistLocked(); err != nil {
				return SignalNone, err
			}
			return SignalQuantityUpdated, nil
		}
	}

	s.entries = append(s.entries, model.CartEntry{Product: product, Quantity: 1})
	if err := s.persistLocked(); err != nil {
		return SignalNone, err
	}
	return SignalAdded, nil
}

// Remove は指定商品IDのエントリを削除する。
// 該当エントリが無い場合はエラーではなくno-op（SignalNone）。
func (s *Store) Remove(productID int) (Signal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(productID)
}

// UpdateQuantity は指定商品IDのエントリの数量を設定する。
// quantityが0以下の場合はRemoveと完全に同じ振る舞いになる（シグナルも含めて）。
// 存在しない商品IDに対する正の数量指定はno-op（SignalNone）であり、
// 新しいエントリは作成しない。
func (s *Store) UpdateQuantity(productID, quantity int) (Signal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		return s.removeLocked(productID)
	}

	for i := range s.entries {
		if s.entries[i].Product.ID == productID {
			s.entries[i].Quantity = quantity
			if err := s.persistLocked(); err != nil {
				return SignalNone, err
			}
			return SignalQuantityUpdated, nil
		}
	}

	return SignalNone, nil
}

// Clear はカートを無条件に空にする。
func (s *Store) Clear() (Signal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	if err := s.persistLocked(); err != nil {
		return SignalNone, err
	}
	return SignalCleared, nil
}

// Entries は現在のエントリのコピーを挿入順で返す。
func (s *Store) Entries() []model.CartEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.CartEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// TotalItems は全エントリの数量の合計を返す。
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, e := range s.entries {
		total += e.Quantity
	}
	return total
}

// TotalPrice は全エントリの（単価 × 数量）の合計を返す。
// 保存値ではなく読み取りのたびに再計算する。
func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, e := range s.entries {
		total = total.Add(e.Subtotal())
	}
	return total
}

// removeLocked は指定商品IDのエントリを削除する。
// 呼び出し側でmuを保持していること。
func (s *Store) removeLocked(productID int) (Signal, error) {
	for i := range s.entries {
		if s.entries[i].Product.ID == productID {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			if err := s.persistLocked(); err != nil {
				return SignalNone, err
			}
			return SignalRemoved, nil
		}
	}
	return SignalNone, nil
}

// persistLocked は全エントリをシリアライズしてストレージへ書き出す。
// 空のカートはnullではなく空配列として保存する。
// 呼び出し側でmuを保持していること。
func (s *Store) persistLocked() error {
	entries := s.entries
	if entries == nil {
		entries = []model.CartEntry{}
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to serialize cart: %w", err)
	}
	if err := s.storage.Set(storage.KeyCart, string(raw)); err != nil {
		return fmt.Errorf("failed to persist cart: %w", err)
	}
	return nil
}
