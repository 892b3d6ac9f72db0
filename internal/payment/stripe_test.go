package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/stripe/stripe-go/v84"
)

// mockCheckoutSessionCreator はCheckoutSessionCreatorのモック実装。
type mockCheckoutSessionCreator struct {
	createFn func(ctx context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error)
}

func (m *mockCheckoutSessionCreator) Create(ctx context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error) {
	if m.createFn != nil {
		return m.createFn(ctx, params)
	}
	return nil, errors.New("not implemented")
}

func TestStripeProvider_CreateCheckoutSession_BuildsParams(t *testing.T) {
	var captured *stripe.CheckoutSessionCreateParams
	creator := &mockCheckoutSessionCreator{
		createFn: func(ctx context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error) {
			captured = params
			return &stripe.CheckoutSession{
				ID:  "cs_test_123",
				URL: "https://checkout.stripe.com/c/pay/cs_test_123",
			}, nil
		},
	}

	p := NewStripeProvider(creator)
	session, err := p.CreateCheckoutSession(context.Background(), CheckoutRequest{
		PriceID:           "price_123",
		Quantity:          1,
		SuccessURL:        SuccessURL("http://localhost:3000"),
		CancelURL:         CancelURL("http://localhost:3000"),
		ClientReferenceID: "uid-1",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if session.ID != "cs_test_123" {
		t.Errorf("ID = %q, want %q", session.ID, "cs_test_123")
	}
	if session.URL != "https://checkout.stripe.com/c/pay/cs_test_123" {
		t.Errorf("URL = %q", session.URL)
	}

	if captured == nil {
		t.Fatal("Create was not called")
	}
	if got := stripe.StringValue(captured.Mode); got != "payment" {
		t.Errorf("Mode = %q, want %q", got, "payment")
	}
	if len(captured.PaymentMethodTypes) != 1 || stripe.StringValue(captured.PaymentMethodTypes[0]) != "card" {
		t.Errorf("PaymentMethodTypes = %v, want [card]", captured.PaymentMethodTypes)
	}
	if len(captured.LineItems) != 1 {
		t.Fatalf("len(LineItems) = %d, want 1", len(captured.LineItems))
	}
	if got := stripe.StringValue(captured.LineItems[0].Price); got != "price_123" {
		t.Errorf("LineItems[0].Price = %q, want %q", got, "price_123")
	}
	if got := stripe.Int64Value(captured.LineItems[0].Quantity); got != 1 {
		t.Errorf("LineItems[0].Quantity = %d, want 1", got)
	}
	if got := stripe.StringValue(captured.SuccessURL); got != "http://localhost:3000/success?session_id={CHECKOUT_SESSION_ID}" {
		t.Errorf("SuccessURL = %q", got)
	}
	if got := stripe.StringValue(captured.CancelURL); got != "http://localhost:3000/cancel" {
		t.Errorf("CancelURL = %q", got)
	}
	if got := stripe.StringValue(captured.ClientReferenceID); got != "uid-1" {
		t.Errorf("ClientReferenceID = %q, want %q", got, "uid-1")
	}
}

func TestStripeProvider_CreateCheckoutSession_OmitsEmptyClientReference(t *testing.T) {
	creator := &mockCheckoutSessionCreator{
		createFn: func(ctx context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error) {
			if params.ClientReferenceID != nil {
				t.Errorf("ClientReferenceID = %q, want nil", *params.ClientReferenceID)
			}
			return &stripe.CheckoutSession{ID: "cs_test_1"}, nil
		},
	}

	_, err := NewStripeProvider(creator).CreateCheckoutSession(context.Background(), CheckoutRequest{
		PriceID:  "price_123",
		Quantity: 1,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestStripeProvider_CreateCheckoutSession_APIError(t *testing.T) {
	apiErr := errors.New("No such price: 'price_missing'")
	creator := &mockCheckoutSessionCreator{
		createFn: func(ctx context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error) {
			return nil, apiErr
		},
	}

	session, err := NewStripeProvider(creator).CreateCheckoutSession(context.Background(), CheckoutRequest{
		PriceID:  "price_missing",
		Quantity: 1,
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, apiErr) {
		t.Errorf("error should wrap original, got %v", err)
	}
	if session != nil {
		t.Error("expected nil session on error")
	}
}

func TestStripeProvider_CreateCheckoutSession_MissingID(t *testing.T) {
	creator := &mockCheckoutSessionCreator{
		createFn: func(ctx context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error) {
			return &stripe.CheckoutSession{}, nil
		},
	}

	if _, err := NewStripeProvider(creator).CreateCheckoutSession(context.Background(), CheckoutRequest{}); err == nil {
		t.Fatal("expected error for session without id, got nil")
	}
}

func TestRedirectURLs(t *testing.T) {
	if got := SuccessURL("https://course.example.com"); got != "https://course.example.com/success?session_id={CHECKOUT_SESSION_ID}" {
		t.Errorf("SuccessURL = %q", got)
	}
	if got := CancelURL("https://course.example.com"); got != "https://course.example.com/cancel" {
		t.Errorf("CancelURL = %q", got)
	}
}
