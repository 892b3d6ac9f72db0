package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// ErrEmptyDatabaseURL はPURCHASE_STORE=postgresなのに接続先が空のときに返る。
var ErrEmptyDatabaseURL = errors.New("database url is empty")

// 購入ストアの接続プール設定。書き込みは1リクエスト1行なので小さく保つ。
const (
	maxOpenConns    = 10
	maxIdleConns    = 5
	connMaxLifetime = 30 * time.Minute
)

// Open は購入レコード用のPostgreSQL接続プールを開く。
// 接続は張らないため、起動時の疎通確認は呼び出し側でPingContextを使う。
func Open(databaseURL string) (*sql.DB, error) {
	if databaseURL == "" {
		return nil, ErrEmptyDatabaseURL
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open purchase database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	return db, nil
}
