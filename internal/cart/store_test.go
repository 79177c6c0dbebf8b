package cart

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/storage"
)

// randomProduct はランダムな商品スナップショットを生成する。
func randomProduct(id int) model.Product {
	return model.Product{
		ID:          id,
		Title:       gofakeit.ProductName(),
		Price:       decimal.NewFromFloat(gofakeit.Price(1, 500)).Round(2),
		Description: gofakeit.ProductDescription(),
		Category:    gofakeit.ProductCategory(),
		Image:       gofakeit.URL(),
		Rating: model.Rating{
			Rate:  4.5,
			Count: gofakeit.Number(1, 1000),
		},
	}
}

func newTestStore(t *testing.T) (*Store, *storage.MemoryStore) {
	t.Helper()
	mem := storage.NewMemoryStore()
	s, err := NewStore(mem, nil)
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	return s, mem
}

func mustSignal(t *testing.T, got Signal, err error, want Signal) {
	t.Helper()
	if err != nil {
		t.Fatalf("mutation returned error: %v", err)
	}
	if got != want {
		t.Errorf("signal = %q, want %q", got, want)
	}
}

// TestAdd_RepeatedSameProduct は同一商品の連続追加でtotalItemsが
// 呼び出し回数と等しくなり、エントリが1つだけ存在することを検証する。
func TestAdd_RepeatedSameProduct(t *testing.T) {
	s, _ := newTestStore(t)
	p := randomProduct(1)

	sig, err := s.Add(p)
	mustSignal(t, sig, err, SignalAdded)

	for i := 0; i < 4; i++ {
		sig, err = s.Add(p)
		mustSignal(t, sig, err, SignalQuantityUpdated)
	}

	if got := s.TotalItems(); got != 5 {
		t.Errorf("TotalItems = %d, want 5", got)
	}
	entries := s.Entries()
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0].Quantity != 5 {
		t.Errorf("Quantity = %d, want 5", entries[0].Quantity)
	}
}

// TestAdd_PreservesInsertionOrder は既存エントリの順序が保たれ、
// 新しいエントリが末尾に追加されることを検証する。
func TestAdd_PreservesInsertionOrder(t *testing.T) {
	s, _ := newTestStore(t)

	for _, id := range []int{3, 1, 2} {
		if _, err := s.Add(randomProduct(id)); err != nil {
			t.Fatalf("Add returned error: %v", err)
		}
	}
	// 既存エントリへの追加は順序を変えない
	if _, err := s.Add(randomProduct(1)); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	entries := s.Entries()
	gotOrder := []int{entries[0].Product.ID, entries[1].Product.ID, entries[2].Product.ID}
	wantOrder := []int{3, 1, 2}
	if diff := cmp.Diff(wantOrder, gotOrder); diff != "" {
		t.Errorf("entry order mismatch (-want +got):\n%s", diff)
	}
}

func TestRemove_ExistingEntry(t *testing.T) {
	s, _ := newTestStore(t)
	s.Add(randomProduct(1))
	s.Add(randomProduct(2))

	sig, err := s.Remove(1)
	mustSignal(t, sig, err, SignalRemoved)

	entries := s.Entries()
	if len(entries) != 1 || entries[0].Product.ID != 2 {
		t.Errorf("entries after remove = %+v, want only product 2", entries)
	}
}

// TestRemove_MissingEntry_IsSilentNoop は存在しないIDの削除がエラーではなく
// no-opであることを検証する。
func TestRemove_MissingEntry_IsSilentNoop(t *testing.T) {
	s, _ := newTestStore(t)
	s.Add(randomProduct(1))

	sig, err := s.Remove(999)
	mustSignal(t, sig, err, SignalNone)

	if got := s.TotalItems(); got != 1 {
		t.Errorf("TotalItems = %d, want 1", got)
	}
}

// TestUpdateQuantity_NonPositive_EquivalentToRemove はq<=0の数量更新が
// シグナルも含めてRemoveと等価であることを、q=0と負数の両方で検証する。
func TestUpdateQuantity_NonPositive_EquivalentToRemove(t *testing.T) {
	for _, q := range []int{0, -1, -100} {
		s, _ := newTestStore(t)
		s.Add(randomProduct(1))

		sig, err := s.UpdateQuantity(1, q)
		mustSignal(t, sig, err, SignalRemoved)

		if got := len(s.Entries()); got != 0 {
			t.Errorf("q=%d: len(entries) = %d, want 0", q, got)
		}
	}
}

func TestUpdateQuantity_SetsQuantity(t *testing.T) {
	s, _ := newTestStore(t)
	s.Add(randomProduct(1))
	s.Add(randomProduct(2))

	sig, err := s.UpdateQuantity(1, 7)
	mustSignal(t, sig, err, SignalQuantityUpdated)

	entries := s.Entries()
	if entries[0].Quantity != 7 {
		t.Errorf("entries[0].Quantity = %d, want 7", entries[0].Quantity)
	}
	// 他のエントリには影響しない
	if entries[1].Quantity != 1 {
		t.Errorf("entries[1].Quantity = %d, want 1", entries[1].Quantity)
	}
}

// TestUpdateQuantity_UnknownProduct_IsNoop は存在しない商品IDへの正の数量指定を
// no-opとする選択（新規エントリは作成しない）を固定する。
// 元の実装はこのケースを規定していなかったため、ここで明示的に決めている。
func TestUpdateQuantity_UnknownProduct_IsNoop(t *testing.T) {
	s, mem := newTestStore(t)
	s.Add(randomProduct(1))
	before, _, _ := mem.Get(storage.KeyCart)

	sig, err := s.UpdateQuantity(999, 3)
	mustSignal(t, sig, err, SignalNone)

	if got := len(s.Entries()); got != 1 {
		t.Errorf("len(entries) = %d, want 1", got)
	}
	// no-opでは永続化も行われない
	after, _, _ := mem.Get(storage.KeyCart)
	if before != after {
		t.Error("expected persisted cart to be unchanged after no-op")
	}
}

// TestTotalPrice_RecomputedAfterMutations は合計金額が（単価×数量）の総和として
// 小数誤差なく再計算されることを検証する。29.99×2 + 49.99 = 109.97。
func TestTotalPrice_RecomputedAfterMutations(t *testing.T) {
	s, _ := newTestStore(t)

	p1 := randomProduct(1)
	p1.Price = decimal.RequireFromString("29.99")
	p2 := randomProduct(2)
	p2.Price = decimal.RequireFromString("49.99")

	s.Add(p1)
	s.Add(p1)
	s.Add(p2)

	want := decimal.RequireFromString("109.97")
	if got := s.TotalPrice(); !got.Equal(want) {
		t.Errorf("TotalPrice = %s, want %s", got, want)
	}

	// ミューテーション後に再計算されること
	s.UpdateQuantity(1, 1)
	want = decimal.RequireFromString("79.98")
	if got := s.TotalPrice(); !got.Equal(want) {
		t.Errorf("TotalPrice after update = %s, want %s", got, want)
	}

	s.Remove(2)
	want = decimal.RequireFromString("29.99")
	if got := s.TotalPrice(); !got.Equal(want) {
		t.Errorf("TotalPrice after remove = %s, want %s", got, want)
	}
}

// TestRoundTrip_PersistAndReconstruct はカートをシリアライズして永続化し、
// 同じストレージから新しいStoreを再構築すると、エントリの順序と数量が
// 完全に一致することを検証する。
func TestRoundTrip_PersistAndReconstruct(t *testing.T) {
	mem := storage.NewMemoryStore()
	s1, err := NewStore(mem, nil)
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}

	products := []model.Product{randomProduct(10), randomProduct(20), randomProduct(30)}
	for _, p := range products {
		s1.Add(p)
	}
	s1.Add(products[1]) // product 20 → quantity 2
	s1.UpdateQuantity(30, 5)

	s2, err := NewStore(mem, nil)
	if err != nil {
		t.Fatalf("NewStore (reconstruct) returned error: %v", err)
	}

	if diff := cmp.Diff(s1.Entries(), s2.Entries()); diff != "" {
		t.Errorf("reconstructed cart mismatch (-original +reconstructed):\n%s", diff)
	}
	if s1.TotalItems() != s2.TotalItems() {
		t.Errorf("TotalItems mismatch: %d vs %d", s1.TotalItems(), s2.TotalItems())
	}
	if !s1.TotalPrice().Equal(s2.TotalPrice()) {
		t.Errorf("TotalPrice mismatch: %s vs %s", s1.TotalPrice(), s2.TotalPrice())
	}
}

// TestClear_FreshStoreReadsEmptyCollection はclear後に永続化ストレージから
// 再構築したカートが空であることを検証する。
func TestClear_FreshStoreReadsEmptyCollection(t *testing.T) {
	mem := storage.NewMemoryStore()
	s1, err := NewStore(mem, nil)
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	s1.Add(randomProduct(1))
	s1.Add(randomProduct(2))

	sig, err := s1.Clear()
	mustSignal(t, sig, err, SignalCleared)

	s2, err := NewStore(mem, nil)
	if err != nil {
		t.Fatalf("NewStore (reconstruct) returned error: %v", err)
	}
	if got := len(s2.Entries()); got != 0 {
		t.Errorf("len(entries) after clear+reload = %d, want 0", got)
	}
	if got := s2.TotalItems(); got != 0 {
		t.Errorf("TotalItems after clear+reload = %d, want 0", got)
	}
}

// TestNewStore_CorruptPayload_StartsEmpty は壊れた保存ペイロードで
// クラッシュせず空のカートで開始することを検証する。
func TestNewStore_CorruptPayload_StartsEmpty(t *testing.T) {
	mem := storage.NewMemoryStore()
	mem.Set(storage.KeyCart, "{definitely not a cart")

	s, err := NewStore(mem, nil)
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	if got := len(s.Entries()); got != 0 {
		t.Errorf("len(entries) = %d, want 0", got)
	}
}

// TestMutations_PersistSynchronously は各ミューテーション直後に
// 永続化された内容が読み取れることを検証する。
func TestMutations_PersistSynchronously(t *testing.T) {
	s, mem := newTestStore(t)

	s.Add(randomProduct(1))
	raw, ok, _ := mem.Get(storage.KeyCart)
	if !ok || raw == "" || raw == "[]" {
		t.Errorf("persisted cart after Add = %q, want non-empty array", raw)
	}

	s.Clear()
	raw, ok, _ = mem.Get(storage.KeyCart)
	if !ok || raw != "[]" {
		t.Errorf("persisted cart after Clear = %q, want %q", raw, "[]")
	}
}

func TestEntries_ReturnsCopy(t *testing.T) {
	s, _ := newTestStore(t)
	s.Add(randomProduct(1))

	entries := s.Entries()
	entries[0].Quantity = 100

	if got := s.TotalItems(); got != 1 {
		t.Errorf("TotalItems = %d, want 1 (mutating the copy must not affect the store)", got)
	}
}
