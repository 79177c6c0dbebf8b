// Package storage はローカル永続化のための文字列キー/バリューストアを提供する。
//
// ブラウザのlocalStorage相当の同期的なストレージをGoに移植した抽象で、
// カートとセッショントークンの永続化に使用される。
// 注入可能な能力として定義することで、テストではMemoryStoreに差し替えられる。
package storage

// 本システムが使用する永続化キー。
const (
	// KeyToken は認証トークンを保存するキー。値はトークン文字列そのもの。
	KeyToken = "token"
	// KeyCart はカートを保存するキー。値は {product, quantity} のJSON配列。
	KeyCart = "cart"
)

// Store は文字列キーの同期的なキー/バリュー永続化の能力を表す。
type Store interface {
	// Get はキーに対応する値を返す。キーが存在しない場合は2番目の戻り値がfalse。
	Get(key string) (string, bool, error)
	// Set はキーに値を保存する。既存の値は上書きされる。
	Set(key, value string) error
	// Delete はキーを削除する。キーが存在しない場合もエラーにはならない。
	Delete(key string) error
}
