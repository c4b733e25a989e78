package application

import (
	"context"
	"sync"

	"KrishHortus-App/internal/domain/helper"
	"KrishHortus-App/internal/domain/model"
	"KrishHortus-App/internal/domain/repository"
)

// TreeCollectionStore セッション中の樹木コレクションを保持する唯一のインメモリストア
// セッション開始時に生成し、終了時に破棄する（シングルトンにはしない）。
// 読み取りはスナップショットを返し、進行中の他IDの変更にブロックされない。
// 変更は同一IDにつき同時に1件まで直列化され、後続は到着順に待機する
type TreeCollectionStore struct {
	repo repository.TreesRepository

	mu    sync.RWMutex
	trees []model.Tree

	locksMu sync.Mutex
	locks   map[string]*treeLock
}

// treeLock ID単位の直列化ロック（チャネルの待機順はFIFO）
type treeLock struct {
	ch   chan struct{}
	refs int
}

// NewTreeCollectionStore 新しいストアを生成する
func NewTreeCollectionStore(repo repository.TreesRepository) *TreeCollectionStore {
	return &TreeCollectionStore{
		repo:  repo,
		trees: []model.Tree{},
		locks: make(map[string]*treeLock),
	}
}

// Load リポジトリからコレクション全体を読み込んでメモリ状態を初期化する
func (s *TreeCollectionStore) Load(ctx context.Context) error {
	trees, err := s.repo.ListAll(ctx, nil)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.trees = trees
	s.mu.Unlock()
	return nil
}

// Current 現在のコレクションのスナップショットを返す
func (s *TreeCollectionStore) Current() []model.Tree {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make([]model.Tree, len(s.trees))
	copy(snapshot, s.trees)
	return snapshot
}

// ForUser タグ付けユーザーで絞り込んだスナップショットを返す
func (s *TreeCollectionStore) ForUser(userID string) []model.Tree {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := make([]model.Tree, 0)
	for _, tree := range s.trees {
		if tree.TaggedBy == userID {
			matched = append(matched, tree)
		}
	}
	return matched
}

// InCell 指定セルに属する樹木を返す（格納解像度での完全一致）
func (s *TreeCollectionStore) InCell(cell string) []model.Tree {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := make([]model.Tree, 0)
	for _, tree := range s.trees {
		if tree.Location.Cell == cell {
			matched = append(matched, tree)
		}
	}
	return matched
}

// Get IDで樹木を検索する
func (s *TreeCollectionStore) Get(id string) (*model.Tree, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, tree := range s.trees {
		if tree.ID == id {
			found := tree
			return &found, true
		}
	}
	return nil, false
}

// Search 検索条件をメモリ上のスナップショットに適用する
func (s *TreeCollectionStore) Search(params *model.TreeSearchParams) []model.Tree {
	return helper.FilterTrees(s.Current(), params)
}

// Create 樹木を作成し、結果をメモリへ反映する
func (s *TreeCollectionStore) Create(ctx context.Context, form *model.TreeFormData, coord model.Coordinate) (*model.Tree, error) {
	tree, err := s.repo.Create(ctx, form, coord)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.trees = append(s.trees, *tree)
	s.mu.Unlock()
	return tree, nil
}

// Update 部分更新を適用する。同一IDの変更は到着順に直列化される。
// リポジトリが失敗（NotFound等）した場合、メモリ状態は変更されない
func (s *TreeCollectionStore) Update(ctx context.Context, id string, upd *model.TreeUpdate) (*model.Tree, error) {
	s.acquire(id)
	defer s.release(id)

	tree, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}

	s.replaceOrAppend(*tree)
	return tree, nil
}

// Verify 検証済みフラグを立て、結果をメモリへ反映する。同一IDの変更と直列化される
func (s *TreeCollectionStore) Verify(ctx context.Context, id string) (*model.Tree, error) {
	s.acquire(id)
	defer s.release(id)

	tree, err := s.repo.Verify(ctx, id)
	if err != nil {
		return nil, err
	}

	s.replaceOrAppend(*tree)
	return tree, nil
}

// Nearby 近傍検索をリポジトリへ委譲する
// リモートが使えればサーバ側の検索結果を、失敗時はフォールバック側の距離判定を返す
func (s *TreeCollectionStore) Nearby(ctx context.Context, center model.Coordinate, radiusKm float64, limit int) ([]model.Tree, error) {
	return s.repo.Nearby(ctx, center, radiusKm, limit)
}

// Delete 樹木を削除する（冪等）
func (s *TreeCollectionStore) Delete(ctx context.Context, id string) error {
	s.acquire(id)
	defer s.release(id)

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	remaining := s.trees[:0]
	for _, tree := range s.trees {
		if tree.ID != id {
			remaining = append(remaining, tree)
		}
	}
	s.trees = remaining
	s.mu.Unlock()
	return nil
}

// replaceOrAppend 変更結果をメモリ上のコレクションへ反映する
func (s *TreeCollectionStore) replaceOrAppend(tree model.Tree) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.trees {
		if s.trees[i].ID == tree.ID {
			s.trees[i] = tree
			return
		}
	}
	s.trees = append(s.trees, tree)
}

// acquire ID単位のロックを取得する。保持中の変更があれば到着順に待機する
func (s *TreeCollectionStore) acquire(id string) {
	s.locksMu.Lock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &treeLock{ch: make(chan struct{}, 1)}
		s.locks[id] = lock
	}
	lock.refs++
	s.locksMu.Unlock()

	lock.ch <- struct{}{}
}

// release ID単位のロックを解放し、待機者がいなければエントリを破棄する
func (s *TreeCollectionStore) release(id string) {
	s.locksMu.Lock()
	lock := s.locks[id]
	lock.refs--
	if lock.refs == 0 {
		delete(s.locks, id)
	}
	s.locksMu.Unlock()

	<-lock.ch
}
