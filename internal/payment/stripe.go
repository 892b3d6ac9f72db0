// Package payment は決済プロバイダ（Stripe Checkout）によるセッション作成を提供する。
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v84"
)

// checkoutSessionIDPlaceholder はStripeがリダイレクト時にセッションIDへ置換するプレースホルダ。
const checkoutSessionIDPlaceholder = "{CHECKOUT_SESSION_ID}"

// CheckoutRequest はチェックアウトセッション作成の入力。
type CheckoutRequest struct {
	PriceID           string
	Quantity          int64
	SuccessURL        string
	CancelURL         string
	ClientReferenceID string // 空の場合は送信しない
}

// CheckoutSession はプロバイダがホストする決済セッション。
type CheckoutSession struct {
	ID  string
	URL string
}

// SessionProvider は決済セッションを作成するインターフェース。
type SessionProvider interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
}

// CheckoutSessionCreator はstripe.ClientのV1CheckoutSessionsのうち、作成に必要な部分集合。
type CheckoutSessionCreator interface {
	Create(ctx context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error)
}

// StripeProvider はStripe CheckoutによるSessionProviderの実装。
// グローバルなstripe.Keyは使わず、注入されたクライアントを使う。
type StripeProvider struct {
	sessions CheckoutSessionCreator
}

// NewStripeProvider はStripeProviderを生成する。
// 通常は stripe.NewClient(secretKey).V1CheckoutSessions を渡す。
func NewStripeProvider(sessions CheckoutSessionCreator) *StripeProvider {
	return &StripeProvider{sessions: sessions}
}

// CreateCheckoutSession はカード決済・単発支払いモードで1明細のセッションを作成する。
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionCreateParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(req.Quantity),
			},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	if req.ClientReferenceID != "" {
		params.ClientReferenceID = stripe.String(req.ClientReferenceID)
	}

	s, err := p.sessions.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create stripe checkout session: %w", err)
	}
	if s == nil || s.ID == "" {
		return nil, errors.New("stripe returned checkout session without id")
	}

	return &CheckoutSession{
		ID:  s.ID,
		URL: s.URL,
	}, nil
}

// SuccessURL は決済完了後のリダイレクト先を返す。
// セッションIDはStripe側でプレースホルダが置換される。
func SuccessURL(frontendURL string) string {
	return frontendURL + "/success?session_id=" + checkoutSessionIDPlaceholder
}

// CancelURL は決済キャンセル時のリダイレクト先を返す。
func CancelURL(frontendURL string) string {
	return frontendURL + "/cancel"
}

// compile-time interface check
var _ SessionProvider = (*StripeProvider)(nil)
