// Package app はプロセスの起動とサブコマンドの実行を提供する。
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/stripe/stripe-go/v84"

	"github.com/hitoshi/courseaccess/internal/auth"
	"github.com/hitoshi/courseaccess/internal/config"
	"github.com/hitoshi/courseaccess/internal/database"
	"github.com/hitoshi/courseaccess/internal/handler"
	"github.com/hitoshi/courseaccess/internal/logger"
	"github.com/hitoshi/courseaccess/internal/metrics"
	"github.com/hitoshi/courseaccess/internal/payment"
	"github.com/hitoshi/courseaccess/internal/purchase"
	"github.com/hitoshi/courseaccess/internal/repository"
)

// defaultPort はPORT未設定時の待ち受けポート。
const defaultPort = "5000"

// Init はアプリケーションの初期化を行う。
// .envを読み込み、JSON構造化ログをセットアップしてから環境変数のConfigを読み込む。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. .envの読み込み（既存の環境変数は上書きしない）
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	// 2. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, logger.ParseLevel(os.Getenv("LOG_LEVEL")))

	// 3. 環境変数から設定を読み込む
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
		port := os.Getenv("PORT")
		if port == "" {
			port = defaultPort
		}
		return runHealthcheck(fmt.Sprintf("http://localhost:%s/health", port))
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("purchase_store", string(cfg.PurchaseStore)),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// 外部サービスのクライアントを1回だけ生成して全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	ctx := context.Background()

	// 1. Firebase App（IdPとFirestoreのクライアントの生成元）
	fbApp, err := auth.NewFirebaseApp(ctx, auth.FirebaseConfig{
		ProjectID:   cfg.FirebaseProjectID,
		ClientEmail: cfg.FirebaseClientEmail,
		PrivateKey:  cfg.FirebasePrivateKey,
	})
	if err != nil {
		return err
	}

	authClient, err := fbApp.Auth(ctx)
	if err != nil {
		return fmt.Errorf("failed to create firebase auth client: %w", err)
	}
	verifier := auth.NewFirebaseVerifier(authClient)

	// 2. 購入ストア
	store, err := openPurchaseStore(ctx, cfg, fbApp)
	if err != nil {
		return err
	}
	defer store.close()

	// 3. 決済プロバイダ
	stripeClient := stripe.NewClient(cfg.StripeSecretKey)
	provider := payment.NewStripeProvider(stripeClient.V1CheckoutSessions)

	// 4. メトリクス
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// 5. ドメインサービスの初期化
	purchaseService := purchase.NewService(provider, store.repo, collector, purchase.Config{
		PriceID:     cfg.StripePriceID,
		FrontendURL: cfg.FrontendURL,
	})

	// 6. ルーターの構築
	router := handler.NewRouter(&handler.RouterDeps{
		Verifier:          verifier,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		StrictErrorStatus: cfg.StrictErrorStatus,
		Logger:            slog.Default(),
		Metrics:           collector,
		CheckoutService:   purchaseService,
		AccessService:     purchaseService,
		HealthChecker:     store.health,
		MetricsHandler:    metrics.Handler(registry),
	})

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server listen error: %w", err)
	case <-stop:
	}
	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// purchaseStore は設定に応じて選択された購入ストアとその後始末をまとめる。
type purchaseStore struct {
	repo   repository.PurchaseRepository
	health handler.HealthChecker
	close  func()
}

// openPurchaseStore はPURCHASE_STOREに応じてFirestoreまたはPostgreSQLのストアを開く。
func openPurchaseStore(ctx context.Context, cfg *config.Config, fbApp *firebase.App) (*purchaseStore, error) {
	switch cfg.PurchaseStore {
	case config.PurchaseStorePostgres:
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		slog.Info("database connection established")

		return &purchaseStore{
			repo:   repository.NewPostgresPurchaseRepo(db),
			health: db,
			close:  func() { db.Close() },
		}, nil

	default:
		client, err := fbApp.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create firestore client: %w", err)
		}
		slog.Info("firestore client initialized",
			slog.String("collection", cfg.PurchasesCollection),
		)

		return &purchaseStore{
			repo:  repository.NewFirestorePurchaseRepo(client, cfg.PurchasesCollection),
			close: func() { closeFirestore(client) },
		}, nil
	}
}

func closeFirestore(client *firestore.Client) {
	if err := client.Close(); err != nil {
		slog.Warn("failed to close firestore client", slog.String("error", err.Error()))
	}
}

// runMigrate はPostgreSQLの購入テーブルのマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	if cfg.DatabaseURL == "" {
		return errors.New("migrate requires DATABASE_URL")
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(url string) error {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
