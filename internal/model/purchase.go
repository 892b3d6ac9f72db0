package model

import "time"

// Purchase は決済セッションごとの購入レコードを表す。
// SessionIDがドキュメントキーとなり、同一IDでの再作成は上書きになる。
type Purchase struct {
	SessionID    string
	UserID       string
	CourseAccess bool
	CreatedAt    time.Time // ストア側で採番される
}
