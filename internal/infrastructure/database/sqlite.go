package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteClient ローカルフォールバックストア用のSQLite接続クライアント
type SQLiteClient struct {
	DB *sql.DB
}

// NewSQLiteClient 指定パスのデータベースを開き、スナップショット用テーブルを用意する
func NewSQLiteClient(path string) (*SQLiteClient, error) {
	if path == "" {
		return nil, fmt.Errorf("ローカルストアのパスが指定されていません")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("SQLite接続の初期化に失敗: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("SQLiteへの接続に失敗: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS fallback_collections (
			name       TEXT PRIMARY KEY,
			payload    TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("フォールバックテーブルの作成に失敗: %w", err)
	}

	return &SQLiteClient{DB: db}, nil
}

// Close データベース接続を閉じる
func (sc *SQLiteClient) Close() error {
	if sc.DB != nil {
		return sc.DB.Close()
	}
	return nil
}

// HealthCheck データベース接続のヘルスチェック
func (sc *SQLiteClient) HealthCheck() error {
	if sc.DB == nil {
		return fmt.Errorf("SQLiteクライアントが初期化されていません")
	}
	return sc.DB.Ping()
}
