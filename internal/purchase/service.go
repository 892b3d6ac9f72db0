// Package purchase はチェックアウトとアクセス確認のドメインロジックを提供する。
package purchase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/courseaccess/internal/metrics"
	"github.com/hitoshi/courseaccess/internal/model"
	"github.com/hitoshi/courseaccess/internal/payment"
	"github.com/hitoshi/courseaccess/internal/repository"
)

// checkoutQuantity は1セッションあたりの購入数量。単一商品のみを扱う。
const checkoutQuantity = 1

// Config はServiceの設定を保持する。
type Config struct {
	// PriceID は決済対象の固定価格ID。
	PriceID string
	// FrontendURL はリダイレクトURLの組み立てに使うフロントエンドのオリジン。
	FrontendURL string
}

// Service は購入フローのサービス層。
// 決済セッションの作成と購入レコードの記録、アクセス可否の判定を提供する。
// リクエスト間で共有する可変状態は持たない。
type Service struct {
	provider payment.SessionProvider
	repo     repository.PurchaseRepository
	metrics  metrics.MetricsCollector
	cfg      Config
}

// NewService はServiceの新しいインスタンスを生成する。
// collectorがnilの場合はメトリクスを記録しない。
func NewService(
	provider payment.SessionProvider,
	repo repository.PurchaseRepository,
	collector metrics.MetricsCollector,
	cfg Config,
) *Service {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &Service{
		provider: provider,
		repo:     repo,
		metrics:  collector,
		cfg:      cfg,
	}
}

// CreateCheckout は決済セッションを作成し、購入レコードを記録してリダイレクトURLを返す。
// アクセスフラグは決済完了を待たずにtrueで記録する。
// セッション作成後にレコード書き込みが失敗した場合もセッションは取り消さない。
func (s *Service) CreateCheckout(ctx context.Context, identity *model.Identity) (string, error) {
	var userID string
	if identity != nil {
		userID = identity.UserID
	}

	// 1. 決済セッションを作成
	start := time.Now()
	session, err := s.provider.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		PriceID:           s.cfg.PriceID,
		Quantity:          checkoutQuantity,
		SuccessURL:        payment.SuccessURL(s.cfg.FrontendURL),
		CancelURL:         payment.CancelURL(s.cfg.FrontendURL),
		ClientReferenceID: userID,
	})
	s.metrics.RecordVendorLatency(metrics.VendorStripe, time.Since(start))
	if err != nil {
		s.metrics.RecordCheckoutFailure(metrics.StagePayment)
		return "", fmt.Errorf("決済セッションの作成に失敗しました: %w", err)
	}

	// 2. セッションIDをキーに購入レコードを記録
	start = time.Now()
	err = s.repo.Upsert(ctx, &model.Purchase{
		SessionID:    session.ID,
		UserID:       userID,
		CourseAccess: true,
	})
	s.metrics.RecordVendorLatency(metrics.VendorStore, time.Since(start))
	if err != nil {
		s.metrics.RecordCheckoutFailure(metrics.StageStore)
		slog.Error("checkout session created without purchase record",
			slog.String("session_id", session.ID),
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("購入レコードの記録に失敗しました (session_id=%s): %w", session.ID, err)
	}

	s.metrics.RecordCheckoutCreated()
	return session.URL, nil
}

// HasAccess はユーザーが有効な購入レコードを持つかを返す。
func (s *Service) HasAccess(ctx context.Context, userID string) (bool, error) {
	start := time.Now()
	ok, err := s.repo.HasAccess(ctx, userID)
	s.metrics.RecordVendorLatency(metrics.VendorStore, time.Since(start))
	if err != nil {
		s.metrics.RecordAccessCheck(metrics.AccessError)
		return false, fmt.Errorf("アクセス権の確認に失敗しました: %w", err)
	}

	if ok {
		s.metrics.RecordAccessCheck(metrics.AccessGranted)
	} else {
		s.metrics.RecordAccessCheck(metrics.AccessDenied)
	}
	return ok, nil
}
