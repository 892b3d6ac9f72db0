package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/courseaccess/internal/model"
)

// PostgresPurchaseRepo はPostgreSQLを使用した購入レコードリポジトリ。
// Firestoreを使わない構成向けの代替実装。
type PostgresPurchaseRepo struct {
	db *sql.DB
}

// NewPostgresPurchaseRepo はPostgresPurchaseRepoを生成する。
func NewPostgresPurchaseRepo(db *sql.DB) *PostgresPurchaseRepo {
	return &PostgresPurchaseRepo{db: db}
}

// Upsert はsession_idの競合時に全列を上書きする。
// created_atも書き込みのたびにサーバー時刻で更新する。
func (r *PostgresPurchaseRepo) Upsert(ctx context.Context, purchase *model.Purchase) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO purchases (session_id, user_id, course_access, created_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (session_id) DO UPDATE
		 SET user_id = EXCLUDED.user_id,
		     course_access = EXCLUDED.course_access,
		     created_at = EXCLUDED.created_at`,
		purchase.SessionID, nullableString(purchase.UserID), purchase.CourseAccess,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert purchase: %w", err)
	}
	return nil
}

// HasAccess はアクセスフラグ付きのレコードが存在するかを返す。
func (r *PostgresPurchaseRepo) HasAccess(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM purchases
			WHERE user_id = $1 AND course_access = true
		)`,
		userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to query purchases: %w", err)
	}
	return exists, nil
}

// FindBySessionID はセッションIDで購入レコードを取得する。見つからない場合はnilを返す。
// PurchaseRepositoryには含まれない運用・検証用の読み出し。
func (r *PostgresPurchaseRepo) FindBySessionID(ctx context.Context, sessionID string) (*model.Purchase, error) {
	purchase := &model.Purchase{}
	var userID sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT session_id, user_id, course_access, created_at
		 FROM purchases
		 WHERE session_id = $1`,
		sessionID,
	).Scan(&purchase.SessionID, &userID, &purchase.CourseAccess, &purchase.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find purchase: %w", err)
	}

	purchase.UserID = userID.String
	return purchase, nil
}

// nullableString は空文字列をNULLとして扱う。
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// compile-time interface check
var _ PurchaseRepository = (*PostgresPurchaseRepo)(nil)
