package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"KrishHortus-App/internal/domain/geo"
	"KrishHortus-App/internal/domain/model"
)

// stubRemoteStore テスト用のリモートストア。failing=true で全操作が到達不能エラーを返す
type stubRemoteStore struct {
	failing    bool
	notFound   bool
	trees      map[string]model.Tree
	created    []model.Tree
	deleted    []string
	lastUpdate *model.TreeUpdate
}

func newStubRemoteStore() *stubRemoteStore {
	return &stubRemoteStore{trees: map[string]model.Tree{}}
}

func (s *stubRemoteStore) unavailable(op string) error {
	return &model.RemoteUnavailableError{Op: op, Err: errors.New("connection refused")}
}

func (s *stubRemoteStore) List(ctx context.Context, params *model.TreeSearchParams) ([]model.Tree, error) {
	if s.failing {
		return nil, s.unavailable("list trees")
	}
	out := make([]model.Tree, 0, len(s.trees))
	for _, tree := range s.trees {
		out = append(out, tree)
	}
	return out, nil
}

func (s *stubRemoteStore) GetByID(ctx context.Context, id string) (*model.Tree, error) {
	if s.failing {
		return nil, s.unavailable("get tree")
	}
	if s.notFound {
		return nil, model.ErrTreeNotFound
	}
	tree, ok := s.trees[id]
	if !ok {
		return nil, model.ErrTreeNotFound
	}
	return &tree, nil
}

func (s *stubRemoteStore) Create(ctx context.Context, tree *model.Tree) (*model.Tree, error) {
	if s.failing {
		return nil, s.unavailable("create tree")
	}
	created := *tree
	created.ID = "remote-1"
	s.created = append(s.created, created)
	s.trees[created.ID] = created
	return &created, nil
}

// Update 素朴な部分更新として振る舞う（IfCoordinate を知らないリモート契約の再現）
func (s *stubRemoteStore) Update(ctx context.Context, id string, upd *model.TreeUpdate) (*model.Tree, error) {
	if s.failing {
		return nil, s.unavailable("update tree")
	}
	s.lastUpdate = upd
	tree, ok := s.trees[id]
	if !ok {
		return nil, model.ErrTreeNotFound
	}
	if upd != nil {
		if upd.Name != nil {
			tree.Name = *upd.Name
		}
		if upd.Address != nil {
			tree.Location.Address = *upd.Address
		}
		if upd.Coordinate != nil {
			tree.Location.Coordinate = *upd.Coordinate
		}
		if upd.IsVerified != nil {
			tree.IsVerified = *upd.IsVerified
		}
	}
	s.trees[id] = tree
	return &tree, nil
}

func (s *stubRemoteStore) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	if s.failing {
		return s.unavailable("delete tree")
	}
	delete(s.trees, id)
	return nil
}

func (s *stubRemoteStore) Nearby(ctx context.Context, center model.Coordinate, radiusKm float64, limit int) ([]model.Tree, error) {
	if s.failing {
		return nil, s.unavailable("nearby trees")
	}
	return nil, nil
}

func (s *stubRemoteStore) Verify(ctx context.Context, id string) (*model.Tree, error) {
	if s.failing {
		return nil, s.unavailable("verify tree")
	}
	tree, ok := s.trees[id]
	if !ok {
		return nil, model.ErrTreeNotFound
	}
	tree.IsVerified = true
	s.trees[id] = tree
	return &tree, nil
}

// memoryLocalStore テスト用のインメモリ版ローカルストア
type memoryLocalStore struct {
	trees   []model.Tree
	loadErr error
	saveErr error
}

func (s *memoryLocalStore) Load(ctx context.Context) ([]model.Tree, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	out := make([]model.Tree, len(s.trees))
	copy(out, s.trees)
	return out, nil
}

func (s *memoryLocalStore) Save(ctx context.Context, trees []model.Tree) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.trees = make([]model.Tree, len(trees))
	copy(s.trees, trees)
	return nil
}

func validForm() *model.TreeFormData {
	return &model.TreeFormData{
		Name:           "Neem Tree",
		ScientificName: "Azadirachta indica",
		Category:       model.CategoryCommunity,
		TaggedBy:       "user-1",
	}
}

func TestFallbackListAll_リモート成功時はリモートの結果を返す(t *testing.T) {
	remote := newStubRemoteStore()
	remote.trees["remote-1"] = model.Tree{ID: "remote-1", Name: "Peepal"}
	repo := NewFallbackTreesRepository(remote, &memoryLocalStore{})

	trees, err := repo.ListAll(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, trees, 1)
	assert.Equal(t, "remote-1", trees[0].ID)
}

func TestFallbackListAll_リモート失敗時はローカルとデモセットへフォールバック(t *testing.T) {
	remote := newStubRemoteStore()
	remote.failing = true
	local := &memoryLocalStore{trees: []model.Tree{{ID: "local-1", Name: "Ashoka"}}}
	repo := NewFallbackTreesRepository(remote, local)

	trees, err := repo.ListAll(context.Background(), nil)
	require.NoError(t, err, "フォールバック経路ではエラーを返さない")

	ids := make(map[string]bool, len(trees))
	for _, tree := range trees {
		ids[tree.ID] = true
	}
	assert.True(t, ids["local-1"])
	assert.True(t, ids["demo-neem-01"])
	assert.True(t, ids["demo-banyan-01"])
	assert.True(t, ids["demo-mango-01"])
}

func TestFallbackListAll_完全失敗でも空のコレクションを返す(t *testing.T) {
	remote := newStubRemoteStore()
	remote.failing = true
	local := &memoryLocalStore{loadErr: errors.New("disk corrupted")}
	repo := NewFallbackTreesRepository(remote, local)

	trees, err := repo.ListAll(context.Background(), nil)
	require.NoError(t, err)
	// ローカルが壊れていてもデモセットは常に読める
	assert.Len(t, trees, 3)
}

func TestFallbackListAll_デモセットはローカルの同一IDを上書きしない(t *testing.T) {
	remote := newStubRemoteStore()
	remote.failing = true
	local := &memoryLocalStore{trees: []model.Tree{{ID: "demo-neem-01", Name: "Edited Neem"}}}
	repo := NewFallbackTreesRepository(remote, local)

	trees, err := repo.ListAll(context.Background(), nil)
	require.NoError(t, err)

	var matched int
	for _, tree := range trees {
		if tree.ID == "demo-neem-01" {
			matched++
			assert.Equal(t, "Edited Neem", tree.Name)
		}
	}
	assert.Equal(t, 1, matched)
}

func TestFallbackGetByID_リモート404でもローカル専用レコードを返す(t *testing.T) {
	remote := newStubRemoteStore()
	remote.notFound = true
	local := &memoryLocalStore{trees: []model.Tree{{ID: "offline-1", Name: "Gulmohar"}}}
	repo := NewFallbackTreesRepository(remote, local)

	tree, err := repo.GetByID(context.Background(), "offline-1")
	require.NoError(t, err)
	assert.Equal(t, "Gulmohar", tree.Name)
}

func TestFallbackGetByID_どこにも存在しない場合はErrTreeNotFound(t *testing.T) {
	remote := newStubRemoteStore()
	remote.failing = true
	repo := NewFallbackTreesRepository(remote, &memoryLocalStore{})

	_, err := repo.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, model.ErrTreeNotFound)
}

func TestFallbackCreate_リモート失敗時はローカルIDで永続化する(t *testing.T) {
	remote := newStubRemoteStore()
	remote.failing = true
	local := &memoryLocalStore{}
	repo := NewFallbackTreesRepository(remote, local)

	coord := model.Coordinate{Lat: 28.6139, Lng: 77.2090}
	tree, err := repo.Create(context.Background(), validForm(), coord)
	require.NoError(t, err)

	assert.NotEmpty(t, tree.ID)
	expectedCell, err := geo.CellFor(coord, geo.PlacementResolution)
	require.NoError(t, err)
	assert.Equal(t, expectedCell, tree.Location.Cell)

	require.Len(t, local.trees, 1)
	assert.Equal(t, tree.ID, local.trees[0].ID)
}

func TestFallbackCreate_ローカル保存に失敗してもレコードは返す(t *testing.T) {
	remote := newStubRemoteStore()
	remote.failing = true
	local := &memoryLocalStore{saveErr: errors.New("disk full")}
	repo := NewFallbackTreesRepository(remote, local)

	tree, err := repo.Create(context.Background(), validForm(), model.Coordinate{Lat: 28.6139, Lng: 77.2090})
	require.NoError(t, err)
	assert.NotEmpty(t, tree.ID)
}

func TestFallbackCreate_リモート成功時はセルを再導出して返す(t *testing.T) {
	remote := newStubRemoteStore()
	repo := NewFallbackTreesRepository(remote, &memoryLocalStore{})

	coord := model.Coordinate{Lat: 28.6139, Lng: 77.2090}
	tree, err := repo.Create(context.Background(), validForm(), coord)
	require.NoError(t, err)

	expectedCell, err := geo.CellFor(coord, geo.PlacementResolution)
	require.NoError(t, err)
	assert.Equal(t, "remote-1", tree.ID)
	assert.Equal(t, expectedCell, tree.Location.Cell, "セルは格納値ではなく座標から導出される")
}

func TestFallbackUpdate_リモート失敗時はローカルへマージを書き込む(t *testing.T) {
	remote := newStubRemoteStore()
	remote.failing = true
	local := &memoryLocalStore{trees: []model.Tree{{
		ID:   "offline-1",
		Name: "Gulmohar",
		Location: model.TreeLocation{
			Coordinate: model.Coordinate{Lat: 28.6139, Lng: 77.2090},
		},
	}}}
	repo := NewFallbackTreesRepository(remote, local)

	newCoord := model.Coordinate{Lat: 28.7041, Lng: 77.1025}
	updated, err := repo.Update(context.Background(), "offline-1", &model.TreeUpdate{Coordinate: &newCoord})
	require.NoError(t, err)

	expectedCell, err := geo.CellFor(newCoord, geo.PlacementResolution)
	require.NoError(t, err)
	assert.Equal(t, newCoord, updated.Location.Coordinate)
	assert.Equal(t, expectedCell, updated.Location.Cell, "座標と同一更新内でセルが再計算される")

	require.Len(t, local.trees, 1)
	assert.Equal(t, newCoord, local.trees[0].Location.Coordinate)
}

func TestFallbackUpdate_リモート稼働中でも古い住所パッチは破棄される(t *testing.T) {
	oldCoord := model.Coordinate{Lat: 28.6139, Lng: 77.2090}
	newCoord := model.Coordinate{Lat: 28.7041, Lng: 77.1025}

	remote := newStubRemoteStore()
	remote.trees["tree-1"] = model.Tree{
		ID:   "tree-1",
		Name: "Neem Tree",
		Location: model.TreeLocation{
			// 住所解決中に座標が再移動済み
			Coordinate: newCoord,
		},
	}
	repo := NewFallbackTreesRepository(remote, &memoryLocalStore{})

	stale := "Stale Address"
	updated, err := repo.Update(context.Background(), "tree-1", &model.TreeUpdate{
		Address:      &stale,
		IfCoordinate: &oldCoord,
	})
	require.NoError(t, err)

	assert.Empty(t, updated.Location.Address, "移動前の座標に対する住所は適用されない")
	assert.Nil(t, remote.lastUpdate, "破棄されたパッチはリモートへ転送されない")
	assert.Empty(t, remote.trees["tree-1"].Location.Address)
}

func TestFallbackUpdate_鮮度判定を通過した住所はIfCoordinateなしで転送される(t *testing.T) {
	coord := model.Coordinate{Lat: 28.6139, Lng: 77.2090}

	remote := newStubRemoteStore()
	remote.trees["tree-1"] = model.Tree{
		ID:       "tree-1",
		Name:     "Neem Tree",
		Location: model.TreeLocation{Coordinate: coord},
	}
	repo := NewFallbackTreesRepository(remote, &memoryLocalStore{})

	address := "Connaught Place, New Delhi"
	updated, err := repo.Update(context.Background(), "tree-1", &model.TreeUpdate{
		Address:      &address,
		IfCoordinate: &coord,
	})
	require.NoError(t, err)

	assert.Equal(t, address, updated.Location.Address)
	require.NotNil(t, remote.lastUpdate)
	require.NotNil(t, remote.lastUpdate.Address)
	assert.Equal(t, address, *remote.lastUpdate.Address)
	assert.Nil(t, remote.lastUpdate.IfCoordinate, "鮮度判定はリモートへ送る前に解決済み")
}

func TestFallbackUpdate_住所以外のフィールドは鮮度判定と独立に適用される(t *testing.T) {
	oldCoord := model.Coordinate{Lat: 28.6139, Lng: 77.2090}

	remote := newStubRemoteStore()
	remote.trees["tree-1"] = model.Tree{
		ID:       "tree-1",
		Name:     "Neem Tree",
		Location: model.TreeLocation{Coordinate: model.Coordinate{Lat: 28.7041, Lng: 77.1025}},
	}
	repo := NewFallbackTreesRepository(remote, &memoryLocalStore{})

	stale := "Stale Address"
	name := "Renamed"
	updated, err := repo.Update(context.Background(), "tree-1", &model.TreeUpdate{
		Name:         &name,
		Address:      &stale,
		IfCoordinate: &oldCoord,
	})
	require.NoError(t, err)

	assert.Equal(t, "Renamed", updated.Name)
	assert.Empty(t, updated.Location.Address)
	require.NotNil(t, remote.lastUpdate)
	assert.Nil(t, remote.lastUpdate.Address, "破棄された住所は転送されない")
	require.NotNil(t, remote.lastUpdate.Name)
}

func TestFallbackUpdate_存在しないIDはErrTreeNotFound(t *testing.T) {
	remote := newStubRemoteStore()
	remote.failing = true
	repo := NewFallbackTreesRepository(remote, &memoryLocalStore{})

	name := "x"
	_, err := repo.Update(context.Background(), "missing", &model.TreeUpdate{Name: &name})
	require.ErrorIs(t, err, model.ErrTreeNotFound)
}

func TestFallbackDelete_リモート失敗でもローカルから取り除く(t *testing.T) {
	remote := newStubRemoteStore()
	remote.failing = true
	local := &memoryLocalStore{trees: []model.Tree{{ID: "offline-1"}, {ID: "offline-2"}}}
	repo := NewFallbackTreesRepository(remote, local)

	err := repo.Delete(context.Background(), "offline-1")
	require.NoError(t, err)
	require.Len(t, local.trees, 1)
	assert.Equal(t, "offline-2", local.trees[0].ID)
}

func TestFallbackDelete_存在しないIDは冪等に成功する(t *testing.T) {
	remote := newStubRemoteStore()
	remote.failing = true
	repo := NewFallbackTreesRepository(remote, &memoryLocalStore{})

	assert.NoError(t, repo.Delete(context.Background(), "missing"))
}

func TestFallbackNearby_リモート失敗時はローカルとデモセットを距離で絞り込む(t *testing.T) {
	remote := newStubRemoteStore()
	remote.failing = true
	local := &memoryLocalStore{trees: []model.Tree{
		{ID: "local-near", Location: model.TreeLocation{Coordinate: model.Coordinate{Lat: 28.6140, Lng: 77.2091}}},
		// アーグラ（半径外）
		{ID: "local-far", Location: model.TreeLocation{Coordinate: model.Coordinate{Lat: 27.1767, Lng: 78.0081}}},
	}}
	repo := NewFallbackTreesRepository(remote, local)

	trees, err := repo.Nearby(context.Background(), model.Coordinate{Lat: 28.6139, Lng: 77.2090}, 5, 0)
	require.NoError(t, err)

	ids := make(map[string]bool, len(trees))
	for _, tree := range trees {
		ids[tree.ID] = true
	}
	assert.True(t, ids["local-near"])
	assert.False(t, ids["local-far"])
	assert.True(t, ids["demo-neem-01"], "デモセットも距離判定の対象になる")
}

func TestFallbackVerify_リモート失敗時はローカルへ書き込む(t *testing.T) {
	remote := newStubRemoteStore()
	remote.failing = true
	local := &memoryLocalStore{trees: []model.Tree{{ID: "offline-1", Name: "Gulmohar"}}}
	repo := NewFallbackTreesRepository(remote, local)

	verified, err := repo.Verify(context.Background(), "offline-1")
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)

	require.Len(t, local.trees, 1)
	assert.True(t, local.trees[0].IsVerified)
}

func TestFallbackVerify_リモート成功時はリモートの結果を返す(t *testing.T) {
	remote := newStubRemoteStore()
	remote.trees["remote-1"] = model.Tree{
		ID:       "remote-1",
		Location: model.TreeLocation{Coordinate: model.Coordinate{Lat: 28.6139, Lng: 77.2090}},
	}
	repo := NewFallbackTreesRepository(remote, &memoryLocalStore{})

	verified, err := repo.Verify(context.Background(), "remote-1")
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)
}
