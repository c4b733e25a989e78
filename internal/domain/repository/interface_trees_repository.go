package repository

import (
	"context"

	"KrishHortus-App/internal/domain/model"
)

// TreesRepository 樹木レコードの永続化を担うリポジトリ
// リモートサービス優先・ローカルフォールバックの二段構えの契約を持つ
type TreesRepository interface {
	// ListAll リモート取得を試み、失敗時はローカル＋デモセットへフォールバックする。
	// 完全失敗でも空のコレクションを返し、エラーにはならない
	ListAll(ctx context.Context, params *model.TreeSearchParams) ([]model.Tree, error)

	// GetByID 樹木をIDで取得する。どこにも存在しなければ ErrTreeNotFound
	GetByID(ctx context.Context, id string) (*model.Tree, error)

	// Create フォーム入力と座標から完全な樹木レコードを作成する。
	// リモート失敗時はローカル生成IDで永続化し、どちらの経路でも完全なレコードを返す
	Create(ctx context.Context, form *model.TreeFormData, coord model.Coordinate) (*model.Tree, error)

	// Update 部分更新を適用する。座標が変わる場合はセルも同一更新内で再計算される。
	// どこにも存在しなければ ErrTreeNotFound
	Update(ctx context.Context, id string, upd *model.TreeUpdate) (*model.Tree, error)

	// Delete 樹木を削除する。存在しないIDの削除はエラーにならない（冪等）
	Delete(ctx context.Context, id string) error

	// Nearby 中心座標と半径での近傍検索。リモートが使えればサーバ側の検索を使い、
	// 失敗時はローカル＋デモセットの距離判定へフォールバックする（エラーにはならない）
	Nearby(ctx context.Context, center model.Coordinate, radiusKm float64, limit int) ([]model.Tree, error)

	// Verify 検証済みフラグを立てる。どこにも存在しなければ ErrTreeNotFound
	Verify(ctx context.Context, id string) (*model.Tree, error)
}

// RemoteTreesStore リモート樹木サービスへの単一試行クライアント
// 到達失敗・非2xx・不正ペイロードはすべて RemoteUnavailableError として返す
type RemoteTreesStore interface {
	List(ctx context.Context, params *model.TreeSearchParams) ([]model.Tree, error)
	GetByID(ctx context.Context, id string) (*model.Tree, error)
	Create(ctx context.Context, tree *model.Tree) (*model.Tree, error)
	Update(ctx context.Context, id string, upd *model.TreeUpdate) (*model.Tree, error)
	Delete(ctx context.Context, id string) error
	Nearby(ctx context.Context, center model.Coordinate, radiusKm float64, limit int) ([]model.Tree, error)
	Verify(ctx context.Context, id string) (*model.Tree, error)
}

// LocalTreesStore ローカルの耐久フォールバックストア
// 固定コレクション名でスナップショット全体を保持し、書き込みはレコード単位で原子的に行う
type LocalTreesStore interface {
	Load(ctx context.Context) ([]model.Tree, error)
	Save(ctx context.Context, trees []model.Tree) error
}
