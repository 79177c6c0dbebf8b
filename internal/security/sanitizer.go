// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizer はリモートのカタログサービスから取得した商品テキストを
// サニタイズし、XSS攻撃などのセキュリティリスクからユーザーを保護する。
// bluemondayライブラリを使用した許可リストベースのポリシーで、
// 安全なタグのみを通過させる。
package security

import "github.com/microcosm-cc/bluemonday"

// ContentSanitizer は商品テキストのサニタイズ機能のインターフェースを定義する。
// カタログクエリ層がレスポンスをドメインモデルに変換する際に使用される。
type ContentSanitizer interface {
	// SanitizeTitle は商品タイトルをサニタイズする。タイトルには
	// 一切のHTMLタグを許可せず、タグは除去される。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeTitle(raw string) string

	// SanitizeDescription は商品説明をサニタイズする。
	// 基本的なインライン整形タグ（p, br, strong, em, ul, ol, li）のみを許可し、
	// script, iframe, styleタグおよびon*イベント属性を除去する。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeDescription(raw string) string
}

// contentSanitizer はContentSanitizerの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	titlePolicy *bluemonday.Policy
	descPolicy  *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerの新しいインスタンスを生成する。
// タイトル用には全タグを除去するStrictPolicy、説明用には
// 整形タグのみを許可するカスタムポリシーを構築する。
// on*イベント属性はbluemondayのデフォルトで許可されないため除去される。
func NewContentSanitizer() *contentSanitizer {
	desc := bluemonday.NewPolicy()
	desc.AllowElements(
		"p", "br", "ul", "ol", "li",
		"strong", "em",
	)

	return &contentSanitizer{
		titlePolicy: bluemonday.StrictPolicy(),
		descPolicy:  desc,
	}
}

// SanitizeTitle は商品タイトルから全タグを除去する。
func (s *contentSanitizer) SanitizeTitle(raw string) string {
	return s.titlePolicy.Sanitize(raw)
}

// SanitizeDescription は商品説明から許可タグ以外を除去する。
func (s *contentSanitizer) SanitizeDescription(raw string) string {
	return s.descPolicy.Sanitize(raw)
}

// noopSanitizer は入力をそのまま返すContentSanitizer実装。
// SANITIZE_CONTENT=falseの場合に使用する。
type noopSanitizer struct{}

// NewNoopSanitizer はサニタイズを行わないContentSanitizerを生成する。
func NewNoopSanitizer() *noopSanitizer {
	return &noopSanitizer{}
}

func (n *noopSanitizer) SanitizeTitle(raw string) string       { return raw }
func (n *noopSanitizer) SanitizeDescription(raw string) string { return raw }
