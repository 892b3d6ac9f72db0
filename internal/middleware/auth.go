package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/courseaccess/internal/auth"
	"github.com/hitoshi/courseaccess/internal/metrics"
	"github.com/hitoshi/courseaccess/internal/model"
)

// bearerPrefix はAuthorizationヘッダーのスキーム接頭辞。大文字小文字を区別する。
const bearerPrefix = "Bearer "

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証するミドルウェアを返す。
// 検証済みIdentityをリクエストコンテキストに注入する。
// ヘッダーが無い、またはBearer接頭辞で始まらない場合は検証を行わずに401を返す。
// 検証失敗の詳細はサーバーログにのみ記録し、クライアントには汎用メッセージを返す。
func NewAuthMiddleware(verifier auth.TokenVerifier, translator *ErrorTranslator, collector metrics.MetricsCollector) func(next http.Handler) http.Handler {
	if collector == nil {
		collector = metrics.NopCollector{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. ヘッダーからトークンを取り出す
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				collector.RecordAuthFailure(metrics.AuthMissingHeader)
				translator.Write(w, r, model.NewUnauthorizedError())
				return
			}

			// 2. IdPでトークンを検証する
			start := time.Now()
			identity, err := verifier.VerifyIDToken(r.Context(), token)
			collector.RecordVendorLatency(metrics.VendorFirebase, time.Since(start))
			if err == nil && identity == nil {
				err = errors.New("verifier returned no identity")
			}
			if err != nil {
				collector.RecordAuthFailure(metrics.AuthInvalidToken)
				slog.Warn("failed to verify id token",
					slog.String("error", err.Error()),
					slog.String("request_id", RequestIDFromContext(r.Context())),
				)
				translator.Write(w, r, model.NewUnauthorizedError())
				return
			}

			// 3. 検証済みIdentityをコンテキストに注入
			setLogUserID(r.Context(), identity.UserID)
			ctx := ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken はヘッダー値から接頭辞の直後、次の空白までをトークンとして取り出す。
// 空トークンはそのまま返し、拒否は検証側に任せる。
func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	return strings.SplitN(header[len(bearerPrefix):], " ", 2)[0], true
}

// IdentityFromContext はリクエストコンテキストから検証済みIdentityを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func IdentityFromContext(ctx context.Context) (*model.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(*model.Identity)
	if !ok || identity == nil {
		return nil, false
	}
	return identity, true
}

// ContextWithIdentity はコンテキストにIdentityを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}
