// Package auth はIdP（Firebase Authentication）によるベアラートークン検証を提供する。
package auth

import (
	"context"
	"encoding/json"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

const googleTokenURI = "https://oauth2.googleapis.com/token"

// FirebaseConfig はFirebase Admin SDKの初期化設定。
type FirebaseConfig struct {
	ProjectID   string
	ClientEmail string
	PrivateKey  string
}

// serviceAccount はサービスアカウント資格情報JSONの必要最小限のフィールド。
type serviceAccount struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

// NewFirebaseApp はFirebase Appを生成する。
// 起動時に1回だけ呼び出し、得られたAppから各クライアントを生成して注入する。
// ClientEmailとPrivateKeyが揃っていない場合はアプリケーションデフォルト資格情報を使う。
func NewFirebaseApp(ctx context.Context, cfg FirebaseConfig) (*firebase.App, error) {
	opts, err := credentialOptions(cfg)
	if err != nil {
		return nil, err
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	return app, nil
}

func credentialOptions(cfg FirebaseConfig) ([]option.ClientOption, error) {
	if cfg.ClientEmail == "" || cfg.PrivateKey == "" {
		return nil, nil
	}

	creds, err := serviceAccountJSON(cfg)
	if err != nil {
		return nil, err
	}
	return []option.ClientOption{option.WithCredentialsJSON(creds)}, nil
}

// serviceAccountJSON はプロジェクトID・クライアントメール・秘密鍵から
// サービスアカウント資格情報JSONを組み立てる。
func serviceAccountJSON(cfg FirebaseConfig) ([]byte, error) {
	b, err := json.Marshal(serviceAccount{
		Type:        "service_account",
		ProjectID:   cfg.ProjectID,
		ClientEmail: cfg.ClientEmail,
		PrivateKey:  cfg.PrivateKey,
		TokenURI:    googleTokenURI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode service account credentials: %w", err)
	}
	return b, nil
}
