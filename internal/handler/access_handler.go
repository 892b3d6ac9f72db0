package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/courseaccess/internal/middleware"
	"github.com/hitoshi/courseaccess/internal/model"
)

// AccessServiceInterface はアクセス確認ハンドラーが必要とするサービスインターフェース。
type AccessServiceInterface interface {
	// HasAccess はユーザーが有効な購入レコードを持つかを返す。
	HasAccess(ctx context.Context, userID string) (bool, error)
}

// AccessHandler はコースへのアクセス可否を返すHTTPハンドラー。
type AccessHandler struct {
	service AccessServiceInterface
}

// NewAccessHandler はAccessHandlerを生成する。
func NewAccessHandler(service AccessServiceInterface) *AccessHandler {
	return &AccessHandler{
		service: service,
	}
}

type accessResponse struct {
	Access bool `json:"access"`
}

// CheckAccess は認証済みユーザーのアクセス可否を返す。
// POST /check-access
func (h *AccessHandler) CheckAccess(w http.ResponseWriter, r *http.Request) error {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok || !identity.HasUserID() {
		// レスポンス送信後は後続処理に進まない
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return nil
	}

	access, err := h.service.HasAccess(r.Context(), identity.UserID)
	if err != nil {
		slog.Error("failed to check course access",
			slog.String("error", err.Error()),
			slog.String("user_id", identity.UserID),
			slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
		)
		return model.NewInternalError()
	}

	writeJSON(w, http.StatusOK, accessResponse{Access: access})
	return nil
}
