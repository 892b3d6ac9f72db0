package model

import "fmt"

// APIError はクライアントに返すエラーを表す。
// 境界では UNAUTHORIZED と INTERNAL_ERROR の2種類に集約する。
type APIError struct {
	Code    string // エラーコード
	Message string // クライアントに返すメッセージ
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// NewUnauthorizedError は認証失敗エラーを生成する。
// トークン不正とIdP障害を区別しない。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:    ErrCodeUnauthorized,
		Message: "Unauthorized",
	}
}

// NewInternalError は外部サービス呼び出し失敗エラーを生成する。
// 元のエラー詳細はサーバーログにのみ記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:    ErrCodeInternal,
		Message: "Internal Server Error",
	}
}
