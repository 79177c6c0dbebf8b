// Package client はカタログ/認証サービスへのHTTPリクエストを一元化する。
//
// 送信前に永続化されたセッショントークンを毎回読み出してBearerヘッダーを付与し、
// トランスポート障害・非2xxレスポンス・デコード失敗を統一エラーフォーマット
// （*model.APIError）に正規化する。リトライは一切行わず、1回の失敗は即座に
// 呼び出し側へ伝播する。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/hitoshi/storefront/internal/model"
)

// RequestRecorder はリクエストメトリクス記録のインターフェース。
// トランスポート障害の場合はstatusCodeに0を渡す。
type RequestRecorder interface {
	RecordRequest(method string, statusCode int, duration time.Duration)
}

// Config はClientの設定を保持する。
type Config struct {
	// BaseURL はカタログサービスのベースURL。末尾のスラッシュは無視される。
	BaseURL string
	// Timeout はリクエスト全体のタイムアウト。0の場合はタイムアウトしない。
	Timeout time.Duration
	// MaxBodySize はレスポンスボディの最大読み取りサイズ（バイト）。
	MaxBodySize int64
	// RateLimitRPS は送信レート制限（req/sec）。0の場合は制限しない。
	RateLimitRPS float64
	// RateLimitBurst はレート制限のバーストサイズ。
	RateLimitBurst int
}

// Client はカタログ/認証サービスへのリクエストクライアント。
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	limiter    *rate.Limiter
	recorder   RequestRecorder
	logger     *slog.Logger
	maxBody    int64
}

// Option はClientの省略可能な設定を表す。
type Option func(*Client)

// WithHTTPClient は下位のHTTPクライアントを差し替える。
// SAFE_CLIENT有効時にsafeurlベースのクライアントを注入するために使用する。
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRecorder はリクエストメトリクスの記録先を設定する。
func WithRecorder(r RequestRecorder) Option {
	return func(c *Client) {
		c.recorder = r
	}
}

// WithLogger はロガーを差し替える。
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New はClientを生成する。ベースURLが不正な場合はエラーを返す。
func New(cfg Config, tokens TokenSource, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("base URL must be absolute: %s", cfg.BaseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		tokens:     tokens,
		logger:     slog.Default(),
		maxBody:    cfg.MaxBodySize,
	}
	if c.maxBody <= 0 {
		c.maxBody = 5242880
	}
	if cfg.RateLimitRPS > 0 {
		burst := cfg.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// errorBody はカタログサービスの構造化エラーレスポンスを表す。
type errorBody struct {
	Message string `json:"message"`
}

// Do はリクエストを送信し、成功時はレスポンスボディをoutへデコードする。
// bodyが非nilの場合はJSONとしてシリアライズして送信する。
// outがnilの場合はボディのデコードをスキップする。
//
// セッショントークンは呼び出しごとにTokenSourceから読み直すため、
// 2つの呼び出しの間にトークンが変わった場合は次の呼び出しから新しい
// ヘッダーが付く。トークンが空の場合はAuthorizationヘッダーを付与しない。
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return model.NewRequestFailedError(err.Error())
		}
	}

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to serialize request body: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.New().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Storefront/1.0")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// トークンはクライアント生成時ではなく呼び出しごとに読み直す
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.record(method, 0, duration)
		c.logger.Warn("catalog request failed",
			slog.String("request_id", requestID),
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
			slog.Float64("duration_ms", float64(duration.Milliseconds())),
		)
		return model.NewRequestFailedError(err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		c.record(method, resp.StatusCode, duration)
		return model.NewRequestFailedError(err.Error())
	}

	c.record(method, resp.StatusCode, duration)
	c.logger.Debug("catalog request completed",
		slog.String("request_id", requestID),
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("http_status", resp.StatusCode),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// 非2xx: 構造化エラーボディがあればメッセージを取り込む
		var eb errorBody
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &eb)
		}
		return model.NewHTTPStatusError(resp.StatusCode, eb.Message)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			c.logger.Warn("catalog response decode failed",
				slog.String("request_id", requestID),
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			return model.NewDecodeFailedError()
		}
	}

	return nil
}

func (c *Client) record(method string, status int, duration time.Duration) {
	if c.recorder != nil {
		c.recorder.RecordRequest(method, status, duration)
	}
}
