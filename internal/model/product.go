// Package model はドメインモデルを定義する。
package model

import "github.com/shopspring/decimal"

// Rating は商品の評価を表す。
type Rating struct {
	Rate  float64 `json:"rate"`  // 評価値（0〜5）
	Count int     `json:"count"` // 評価件数
}

// Product はカタログサービス上の商品を表す。
// フェッチ後はイミュータブルとして扱い、カート内には取得時点のスナップショットを保持する。
// Priceは浮動小数点の誤差を避けるためdecimal.Decimalで保持する。
type Product struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Rating      Rating          `json:"rating"`
}
