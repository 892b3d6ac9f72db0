package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/courseaccess/internal/auth"
	"github.com/hitoshi/courseaccess/internal/metrics"
	"github.com/hitoshi/courseaccess/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Verifier          auth.TokenVerifier
	CORSAllowedOrigin string
	StrictErrorStatus bool
	Logger            *slog.Logger
	Metrics           metrics.MetricsCollector

	// 購入
	CheckoutService CheckoutServiceInterface
	AccessService   AccessServiceInterface

	// 運用
	HealthChecker  HealthChecker
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Logging → Recovery → SecurityHeaders → CORS → Auth（保護ルートのみ）
//
// /health と /metrics は認証の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.NopCollector{}
	}

	translator := middleware.NewErrorTranslator(deps.StrictErrorStatus, logger)

	r := chi.NewRouter()
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger, collector))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	checkoutHandler := NewCheckoutHandler(deps.CheckoutService)
	accessHandler := NewAccessHandler(deps.AccessService)
	healthHandler := NewHealthHandler(deps.HealthChecker)

	// --- 認証不要のルート ---
	r.Get("/health", healthHandler.Health)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.Verifier, translator, collector))

		r.Post("/create-checkout-session", translator.Handle(checkoutHandler.CreateCheckoutSession))
		r.Post("/check-access", translator.Handle(accessHandler.CheckAccess))
	})

	return r
}
