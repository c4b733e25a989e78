package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"KrishHortus-App/internal/domain/geo"
	"KrishHortus-App/internal/domain/helper"
	"KrishHortus-App/internal/domain/model"
	"KrishHortus-App/internal/domain/repository"
)

// FallbackTreesRepository リモート優先・ローカルフォールバックの二段構えリポジトリ
// リモート側の失敗（到達不能・非2xx・不正ペイロード）はすべてローカル経路で吸収し、
// バックエンドが落ちていてもタグ付けを継続できるようにする
type FallbackTreesRepository struct {
	remote repository.RemoteTreesStore
	local  repository.LocalTreesStore
}

// NewFallbackTreesRepository 新しいインスタンスを生成する
func NewFallbackTreesRepository(remote repository.RemoteTreesStore, local repository.LocalTreesStore) repository.TreesRepository {
	return &FallbackTreesRepository{
		remote: remote,
		local:  local,
	}
}

// ListAll リモート取得を試み、失敗時はローカル＋デモセットへフォールバックする
// エラーは返さない。完全失敗でも空のコレクションを返す
func (r *FallbackTreesRepository) ListAll(ctx context.Context, params *model.TreeSearchParams) ([]model.Tree, error) {
	trees, err := r.remote.List(ctx, params)
	if err == nil {
		return trees, nil
	}

	merged := r.loadFallbackCollection(ctx)
	return helper.FilterTrees(merged, params), nil
}

// GetByID リモート→ローカル＋デモセットの順で検索する
func (r *FallbackTreesRepository) GetByID(ctx context.Context, id string) (*model.Tree, error) {
	tree, err := r.remote.GetByID(ctx, id)
	if err == nil {
		return tree, nil
	}

	// リモートが404を返した場合もローカルを確認する
	// （オフライン中に作成されたレコードはローカルにしか存在しない）
	for _, candidate := range r.loadFallbackCollection(ctx) {
		if candidate.ID == id {
			found := candidate
			return &found, nil
		}
	}
	return nil, model.ErrTreeNotFound
}

// Create 完全な樹木レコードを組み立ててリモート作成を試み、
// 失敗時はローカル生成IDで永続化する。どちらの経路でも完全なレコードを返す
func (r *FallbackTreesRepository) Create(ctx context.Context, form *model.TreeFormData, coord model.Coordinate) (*model.Tree, error) {
	tree, err := helper.NewTreeFromForm(form, coord, time.Now())
	if err != nil {
		return nil, err
	}

	created, remoteErr := r.remote.Create(ctx, tree)
	if remoteErr == nil {
		normalized := normalizeTree(*created)
		return &normalized, nil
	}

	// ローカル経路: 衝突耐性のあるIDを生成してスナップショットに追記する
	tree.ID = uuid.New().String()

	local, err := r.local.Load(ctx)
	if err != nil {
		local = []model.Tree{}
	}
	local = append(local, *tree)
	if err := r.local.Save(ctx, local); err != nil {
		// 永続化に失敗してもレコード自体は呼び出し側に返す
		return tree, nil
	}
	return tree, nil
}

// Update 部分更新を適用する。リモート失敗時はローカルスナップショットへマージを書き込む
// 住所パッチの鮮度判定はリモートへ送る前にこちらで行う。リモートの部分更新は
// IfCoordinate を知らない素朴な契約のため、そのまま転送すると古い住所が適用されてしまう
func (r *FallbackTreesRepository) Update(ctx context.Context, id string, upd *model.TreeUpdate) (*model.Tree, error) {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	wire := resolveAddressGuard(existing, upd)
	if isEmptyUpdate(wire) {
		// パッチの内容が古い住所だけだった場合は何も発行しない
		found := normalizeTree(*existing)
		return &found, nil
	}

	merged, err := helper.ApplyTreeUpdate(*existing, wire)
	if err != nil {
		return nil, err
	}

	updated, remoteErr := r.remote.Update(ctx, id, wire)
	if remoteErr == nil {
		normalized := normalizeTree(*updated)
		return &normalized, nil
	}

	// 存在確認は済んでいるため、リモートが使えなくても
	// （またはリモートに存在しないレコードでも）ローカルへマージを書き込む
	_ = r.upsertLocal(ctx, merged)
	return &merged, nil
}

// Delete リモート削除を試みたうえで、ローカルスナップショットからも取り除く（冪等）
// レコードはリモート・ローカルの双方から消える。存在しないIDはエラーにならない
func (r *FallbackTreesRepository) Delete(ctx context.Context, id string) error {
	_ = r.remote.Delete(ctx, id)

	local, loadErr := r.local.Load(ctx)
	if loadErr != nil {
		return nil
	}

	remaining := make([]model.Tree, 0, len(local))
	for _, tree := range local {
		if tree.ID != id {
			remaining = append(remaining, tree)
		}
	}
	if len(remaining) == len(local) {
		return nil
	}
	_ = r.local.Save(ctx, remaining)
	return nil
}

// Nearby リモートの近傍検索を試み、失敗時はローカル＋デモセットを距離で絞り込む
func (r *FallbackTreesRepository) Nearby(ctx context.Context, center model.Coordinate, radiusKm float64, limit int) ([]model.Tree, error) {
	trees, err := r.remote.Nearby(ctx, center, radiusKm, limit)
	if err == nil {
		return trees, nil
	}

	merged := r.loadFallbackCollection(ctx)
	nearby := helper.FilterTrees(merged, &model.TreeSearchParams{Center: &center, RadiusKm: radiusKm})
	if limit > 0 && len(nearby) > limit {
		nearby = nearby[:limit]
	}
	return nearby, nil
}

// Verify 検証済みフラグを立てる。リモート失敗時はローカルスナップショットへマージを書き込む
func (r *FallbackTreesRepository) Verify(ctx context.Context, id string) (*model.Tree, error) {
	verified, err := r.remote.Verify(ctx, id)
	if err == nil {
		normalized := normalizeTree(*verified)
		return &normalized, nil
	}

	flag := true
	return r.Update(ctx, id, &model.TreeUpdate{IsVerified: &flag})
}

// loadFallbackCollection ローカルスナップショットとデモセットをIDで重複排除して結合する
// ローカル側が優先され、デモセットのエントリが既存IDを上書きすることはない
func (r *FallbackTreesRepository) loadFallbackCollection(ctx context.Context) []model.Tree {
	local, err := r.local.Load(ctx)
	if err != nil {
		local = []model.Tree{}
	}

	seen := make(map[string]struct{}, len(local))
	merged := make([]model.Tree, 0, len(local)+3)
	for _, tree := range local {
		if _, ok := seen[tree.ID]; ok {
			continue
		}
		seen[tree.ID] = struct{}{}
		merged = append(merged, tree)
	}
	for _, tree := range DemoTrees() {
		if _, ok := seen[tree.ID]; ok {
			continue
		}
		seen[tree.ID] = struct{}{}
		merged = append(merged, tree)
	}
	return merged
}

// upsertLocal マージ済みレコードをローカルスナップショットに反映する
func (r *FallbackTreesRepository) upsertLocal(ctx context.Context, tree model.Tree) error {
	local, err := r.local.Load(ctx)
	if err != nil {
		local = []model.Tree{}
	}

	replaced := false
	for i := range local {
		if local[i].ID == tree.ID {
			local[i] = tree
			replaced = true
			break
		}
	}
	if !replaced {
		local = append(local, tree)
	}
	return r.local.Save(ctx, local)
}

// resolveAddressGuard IfCoordinate 付きの住所パッチを発行前に判定し、転送用のパッチへ変換する
// 現在の座標が一致しない住所は破棄し、IfCoordinate 自体は常にワイヤから取り除く
func resolveAddressGuard(existing *model.Tree, upd *model.TreeUpdate) *model.TreeUpdate {
	if upd == nil {
		return nil
	}

	wire := *upd
	if wire.Address != nil && wire.IfCoordinate != nil &&
		!existing.Location.Coordinate.Equal(*wire.IfCoordinate) {
		wire.Address = nil
	}
	wire.IfCoordinate = nil
	return &wire
}

// isEmptyUpdate パッチに適用すべきフィールドが残っていないかを判定する
func isEmptyUpdate(upd *model.TreeUpdate) bool {
	if upd == nil {
		return true
	}
	return upd.Name == nil &&
		upd.ScientificName == nil &&
		upd.LocalName == nil &&
		upd.Category == nil &&
		upd.Coordinate == nil &&
		upd.Address == nil &&
		upd.Measurements == nil &&
		upd.Photos == nil &&
		upd.Metadata == nil &&
		upd.IsVerified == nil
}

// normalizeTree リモートのレスポンスにセル再導出の不変条件を適用する
// セルは常に座標から導出され、格納値が真になることはない
func normalizeTree(tree model.Tree) model.Tree {
	cell, err := geo.CellFor(tree.Location.Coordinate, geo.PlacementResolution)
	if err == nil {
		tree.Location.Cell = cell
	}
	return tree
}
