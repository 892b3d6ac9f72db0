package auth

import (
	"context"
	"fmt"

	fbauth "firebase.google.com/go/v4/auth"

	"github.com/hitoshi/courseaccess/internal/model"
)

// TokenVerifier はベアラートークンを検証し、ユーザー識別情報を返すインターフェース。
// トークン不正とIdP到達不能はいずれもエラーとして返す。
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*model.Identity, error)
}

// IDTokenClient はfirebase auth.Clientのうち、IDトークン検証に必要な部分集合。
type IDTokenClient interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// FirebaseVerifier はFirebase AuthenticationによるTokenVerifierの実装。
type FirebaseVerifier struct {
	client IDTokenClient
}

// NewFirebaseVerifier はFirebaseVerifierを生成する。
func NewFirebaseVerifier(client IDTokenClient) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

// VerifyIDToken はIDトークンを検証し、UIDとクレームをIdentityに詰め替えて返す。
func (v *FirebaseVerifier) VerifyIDToken(ctx context.Context, idToken string) (*model.Identity, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify id token: %w", err)
	}

	claims := make(map[string]any, len(token.Claims))
	for k, val := range token.Claims {
		claims[k] = val
	}

	return &model.Identity{
		UserID: token.UID,
		Claims: claims,
	}, nil
}

// compile-time interface check
var (
	_ TokenVerifier = (*FirebaseVerifier)(nil)
	_ IDTokenClient = (*fbauth.Client)(nil)
)
