package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"KrishHortus-App/internal/domain/model"
	"KrishHortus-App/internal/domain/repository"
	"KrishHortus-App/internal/infrastructure/database"
)

// fallbackCollectionName ローカルスナップショットの固定コレクション名
const fallbackCollectionName = "krish_hortus_trees"

// SQLiteTreesStore ローカルフォールバックストアのSQLite実装
// コレクション全体をJSONスナップショットとして1行で保持する
type SQLiteTreesStore struct {
	client *database.SQLiteClient
}

// NewSQLiteTreesStore 新しいインスタンスを生成する
func NewSQLiteTreesStore(client *database.SQLiteClient) repository.LocalTreesStore {
	return &SQLiteTreesStore{client: client}
}

// Load スナップショットを読み込む。未保存の場合は空のコレクションを返す
func (s *SQLiteTreesStore) Load(ctx context.Context) ([]model.Tree, error) {
	var payload string
	err := s.client.DB.QueryRowContext(ctx,
		"SELECT payload FROM fallback_collections WHERE name = ?", fallbackCollectionName,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return []model.Tree{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ローカルスナップショットの読み込み失敗: %w", err)
	}

	var trees []model.Tree
	if err := json.Unmarshal([]byte(payload), &trees); err != nil {
		return nil, fmt.Errorf("ローカルスナップショットのJSONアンマーシャル失敗: %w", err)
	}
	return trees, nil
}

// Save スナップショット全体をトランザクション内で書き換える（途中状態を残さない）
func (s *SQLiteTreesStore) Save(ctx context.Context, trees []model.Tree) error {
	if trees == nil {
		trees = []model.Tree{}
	}

	payload, err := json.Marshal(trees)
	if err != nil {
		return fmt.Errorf("ローカルスナップショットのJSONマーシャル失敗: %w", err)
	}

	tx, err := s.client.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始失敗: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO fallback_collections (name, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		fallbackCollectionName, string(payload), time.Now().UTC(),
	)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("ローカルスナップショットの書き込み失敗: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミット失敗: %w", err)
	}
	return nil
}
