// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/courseaccess/internal/model"
)

// PurchaseRepository は購入レコードの永続化インターフェース。
// 購入レコードはセッションIDをキーとし、アプリケーションはメモリ上に状態を持たない。
type PurchaseRepository interface {
	// Upsert はセッションIDをキーに購入レコードを書き込む。
	// 同一セッションIDのレコードが存在する場合は上書きする。作成日時はストア側で採番する。
	Upsert(ctx context.Context, purchase *model.Purchase) error

	// HasAccess はユーザーIDが一致し、かつアクセスフラグがtrueのレコードが
	// 1件以上存在するかを返す。件数は問わない。
	HasAccess(ctx context.Context, userID string) (bool, error)
}
