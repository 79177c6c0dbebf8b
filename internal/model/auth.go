// Package model はドメインモデルを定義する。
package model

// Credentials はログインリクエストの資格情報を表す。
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse は認証エンドポイントの成功レスポンスを表す。
// Tokenは不透明なBearerトークン文字列。
type AuthResponse struct {
	Token string `json:"token"`
}
