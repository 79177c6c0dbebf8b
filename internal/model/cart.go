// Package model はドメインモデルを定義する。
package model

import "github.com/shopspring/decimal"

// CartEntry はカート内の1エントリ（商品スナップショットと数量のペア）を表す。
// 数量は常に正の整数。0以下のエントリはカートに存在してはならない
// （その場合はエントリ自体が削除される）。
type CartEntry struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Subtotal はこのエントリの小計（単価 × 数量）を返す。
func (e CartEntry) Subtotal() decimal.Decimal {
	return e.Product.Price.Mul(decimal.NewFromInt(int64(e.Quantity)))
}
