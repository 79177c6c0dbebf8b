// Package app はアプリケーションの初期化・依存関係のワイヤリング・起動を担う。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/storefront/internal/cart"
	"github.com/hitoshi/storefront/internal/catalog"
	"github.com/hitoshi/storefront/internal/client"
	"github.com/hitoshi/storefront/internal/config"
	"github.com/hitoshi/storefront/internal/handler"
	"github.com/hitoshi/storefront/internal/logger"
	"github.com/hitoshi/storefront/internal/metrics"
	"github.com/hitoshi/storefront/internal/query"
	"github.com/hitoshi/storefront/internal/security"
	"github.com/hitoshi/storefront/internal/session"
	"github.com/hitoshi/storefront/internal/storage"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("catalog_base_url", cfg.CatalogBaseURL),
	)

	switch cmd {
	case CommandBrowse:
		return runBrowse(w, cfg)
	case CommandServe:
		return runServe(cfg)
	default:
		return runServe(cfg)
	}
}

// wiring はワイヤリング済みの依存関係一式。
type wiring struct {
	catalog *catalog.Service
	cart    *cart.Store
	session *session.Store
	metrics *metrics.Collector
	reg     *prometheus.Registry
}

// buildWiring は設定から依存関係をワイヤリングする。
// ストレージ → クライアント → カタログサービス → ローカルストア の順に組み立てる。
func buildWiring(cfg *config.Config) (*wiring, error) {
	// 1. 永続化ストレージ
	store, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	// 2. メトリクス
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	// 3. リクエストクライアント
	clientOpts := []client.Option{
		client.WithRecorder(collector),
	}
	if cfg.SafeClient {
		guard := security.NewURLGuard()
		if err := guard.ValidateBaseURL(cfg.CatalogBaseURL); err != nil {
			return nil, fmt.Errorf("unsafe catalog base URL: %w", err)
		}
		clientOpts = append(clientOpts, client.WithHTTPClient(guard.NewSafeClient(cfg.RequestTimeout)))
		slog.Info("SSRF-guarded HTTP client enabled")
	}

	c, err := client.New(client.Config{
		BaseURL:        cfg.CatalogBaseURL,
		Timeout:        cfg.RequestTimeout,
		MaxBodySize:    cfg.RequestMaxBody,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}, client.NewStorageTokenSource(store), clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create request client: %w", err)
	}

	// 4. カタログサービス
	var sanitizer security.ContentSanitizer
	if cfg.SanitizeContent {
		sanitizer = security.NewContentSanitizer()
	}
	catalogSvc := catalog.NewService(c, sanitizer)

	// 5. ローカル状態ストア
	cartStore, err := cart.NewStore(store, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to restore cart: %w", err)
	}
	sessionStore, err := session.NewStore(store, catalogSvc, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}

	return &wiring{
		catalog: catalogSvc,
		cart:    cartStore,
		session: sessionStore,
		metrics: collector,
		reg:     reg,
	}, nil
}

// runServe はAPIサーバーモードで起動する。
// 全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	deps, err := buildWiring(cfg)
	if err != nil {
		return err
	}

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		CatalogService:    deps.catalog,
		CartStore:         deps.cart,
		SessionStore:      deps.session,
		Metrics:           deps.metrics,
		Gatherer:          deps.reg,
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runBrowse はワンショットでカタログを取得し、商品一覧をwriterに出力する。
// 引数なしのスモークテストやデバッグ用サブコマンド。
func runBrowse(w io.Writer, cfg *config.Config) error {
	deps, err := buildWiring(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout+5*time.Second)
	defer cancel()

	res := query.ProductsResource(ctx, deps.catalog)
	state := res.Wait(ctx)
	if state.Err != nil {
		return fmt.Errorf("failed to fetch products: %w", state.Err)
	}

	for _, p := range *state.Data {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.ID, p.Title, p.Price.StringFixed(2), p.Category)
	}
	slog.Info("browse completed", slog.Int("products", len(*state.Data)))
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /healthz エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/healthz", port)
	hc := &http.Client{Timeout: 5 * time.Second}

	resp, err := hc.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
