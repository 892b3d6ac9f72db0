// Package model はドメインモデルを定義する。
package model

// Identity はIdPが検証したリクエストごとのユーザー識別情報を表す。
// リクエスト完了とともに破棄され、永続化はしない。
type Identity struct {
	// UserID はIdP上の安定したユーザーID。トークンによっては空の場合がある。
	UserID string
	// Claims は検証済みトークンに含まれるその他のクレーム。
	Claims map[string]any
}

// HasUserID はユーザーIDを保持しているかを返す。
func (i *Identity) HasUserID() bool {
	return i != nil && i.UserID != ""
}
