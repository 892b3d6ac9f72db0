package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/courseaccess/internal/middleware"
	"github.com/hitoshi/courseaccess/internal/model"
)

// CheckoutServiceInterface はチェックアウトハンドラーが必要とするサービスインターフェース。
type CheckoutServiceInterface interface {
	// CreateCheckout は決済セッションを作成し、購入レコードを記録してリダイレクトURLを返す。
	CreateCheckout(ctx context.Context, identity *model.Identity) (string, error)
}

// CheckoutHandler は決済セッション作成のHTTPハンドラー。
type CheckoutHandler struct {
	service CheckoutServiceInterface
}

// NewCheckoutHandler はCheckoutHandlerを生成する。
func NewCheckoutHandler(service CheckoutServiceInterface) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
	}
}

// checkoutResponse は決済セッション作成のレスポンスボディ。
type checkoutResponse struct {
	URL string `json:"url"`
}

// CreateCheckoutSession は決済セッションを作成し、リダイレクトURLを返す。
// POST /create-checkout-session
//
// IdentityのユーザーIDが空でも拒否せずにそのまま渡す。
// 外部サービスの失敗は詳細をログに残し、汎用の内部エラーとして返す。
func (h *CheckoutHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) error {
	identity, _ := middleware.IdentityFromContext(r.Context())

	url, err := h.service.CreateCheckout(r.Context(), identity)
	if err != nil {
		slog.Error("failed to create checkout session",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
		)
		return model.NewInternalError()
	}

	writeJSON(w, http.StatusOK, checkoutResponse{URL: url})
	return nil
}
