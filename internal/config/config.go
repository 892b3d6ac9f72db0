package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// PurchaseStore は購入レコードの保存先を表す。
type PurchaseStore string

const (
	// PurchaseStoreFirestore はCloud Firestoreに保存する（デフォルト）。
	PurchaseStoreFirestore PurchaseStore = "firestore"
	// PurchaseStorePostgres はPostgreSQLに保存する。
	PurchaseStorePostgres PurchaseStore = "postgres"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Firebase
	FirebaseProjectID   string
	FirebaseClientEmail string
	FirebasePrivateKey  string

	// Stripe
	StripeSecretKey string
	StripePriceID   string

	// Frontend（CORSとリダイレクトURLの両方に使用する）
	FrontendURL string

	// Storage
	PurchaseStore       PurchaseStore
	PurchasesCollection string
	DatabaseURL         string

	// Server
	ServerPort      string
	ShutdownTimeout time.Duration

	// Error
	StrictErrorStatus bool

	// Logging
	LogLevel string

	// CORS
	CORSAllowedOrigin string
}

// LoadDotEnv は.envファイルが存在すれば環境変数に読み込む。
// 既に設定済みの環境変数は上書きしない。ファイルが無い場合はエラーにしない。
func LoadDotEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.FirebaseProjectID = os.Getenv("FIREBASE_PROJECT_ID")
	if cfg.FirebaseProjectID == "" {
		missing = append(missing, "FIREBASE_PROJECT_ID")
	}

	cfg.StripeSecretKey = os.Getenv("STRIPE_SECRET_KEY")
	if cfg.StripeSecretKey == "" {
		missing = append(missing, "STRIPE_SECRET_KEY")
	}

	cfg.StripePriceID = os.Getenv("STRIPE_PRICE_ID")
	if cfg.StripePriceID == "" {
		missing = append(missing, "STRIPE_PRICE_ID")
	}

	cfg.FrontendURL = strings.TrimSuffix(os.Getenv("FRONTEND_URL"), "/")
	if cfg.FrontendURL == "" {
		missing = append(missing, "FRONTEND_URL")
	}

	cfg.PurchaseStore = PurchaseStore(getEnvString("PURCHASE_STORE", string(PurchaseStoreFirestore)))
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.PurchaseStore == PurchaseStorePostgres && cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	switch cfg.PurchaseStore {
	case PurchaseStoreFirestore, PurchaseStorePostgres:
	default:
		return nil, fmt.Errorf("unsupported PURCHASE_STORE: %q", cfg.PurchaseStore)
	}

	// Optional fields with defaults
	cfg.FirebaseClientEmail = os.Getenv("FIREBASE_CLIENT_EMAIL")
	cfg.FirebasePrivateKey = strings.ReplaceAll(os.Getenv("FIREBASE_PRIVATE_KEY"), `\n`, "\n")
	cfg.PurchasesCollection = getEnvString("PURCHASES_COLLECTION", "purchases")
	cfg.ServerPort = getEnvString("PORT", "5000")
	cfg.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second)
	cfg.StrictErrorStatus = getEnvBool("STRICT_ERROR_STATUS", false)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.CORSAllowedOrigin = cfg.FrontendURL

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
