package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"KrishHortus-App/internal/domain/geo"
	"KrishHortus-App/internal/domain/model"
	"KrishHortus-App/internal/domain/repository"
)

// GestureState 地図ジェスチャーの状態
type GestureState string

const (
	GestureIdle                 GestureState = "idle"
	GestureLocationPending      GestureState = "location_pending"
	GestureTreePlacementPending GestureState = "tree_placement_pending"
	GestureMarkerDragPending    GestureState = "marker_drag_pending"
)

// DefaultRegionCenter 位置情報が得られないときの既定の地域中心（ニューデリー）
var DefaultRegionCenter = model.Coordinate{Lat: 28.6139, Lng: 77.2090}

const (
	// locateTimeout 初回の位置取得タイムアウト
	locateTimeout = 10 * time.Second
	// relocateTimeout 明示的な「現在地へ移動」操作のタイムアウト
	relocateTimeout = 5 * time.Second
	// fixMaxAge キャッシュ済みの位置をそのまま使える許容時間
	fixMaxAge = 60 * time.Second
	// addressResolveTimeout 住所解決の上限時間
	addressResolveTimeout = 15 * time.Second
)

// ErrGestureInProgress 別のジェスチャーが進行中
var ErrGestureInProgress = errors.New("another map gesture is in progress")

// ErrGestureStateMismatch 現在の状態では受け付けられない操作
var ErrGestureStateMismatch = errors.New("operation not allowed in current gesture state")

// MapInteractionController 地図ジェスチャー（クリック配置・ドラッグ移動・現在地取得）を
// ストアと空間インデックスに仲介する状態機械
// ジェスチャーは互いに排他だが、ストアのID単位の変更並行性は妨げない
type MapInteractionController struct {
	store      *TreeCollectionStore
	resolver   repository.AddressResolver
	geolocator repository.Geolocator

	mu           sync.Mutex
	state        GestureState
	clickedCoord model.Coordinate
	draggingID   string
	dragOrigin   model.Coordinate
	viewport     model.Coordinate
	lastFix      model.Coordinate
	lastFixAt    time.Time

	// 非同期の住所パッチ完了を待ち合わせるため（主にテストとシャットダウンで使用）
	pending sync.WaitGroup
}

// NewMapInteractionController 新しいコントローラを生成する
// ビューポートは常に描画可能な状態を保つため、既定の地域中心で初期化される
func NewMapInteractionController(store *TreeCollectionStore, resolver repository.AddressResolver, geolocator repository.Geolocator) *MapInteractionController {
	return &MapInteractionController{
		store:      store,
		resolver:   resolver,
		geolocator: geolocator,
		state:      GestureIdle,
		viewport:   DefaultRegionCenter,
	}
}

// State 現在のジェスチャー状態を返す
func (c *MapInteractionController) State() GestureState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ViewportCenter 現在のビューポート中心を返す
func (c *MapInteractionController) ViewportCenter() model.Coordinate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewport
}

// PendingCoordinate クリック済みの配置候補座標を返す
func (c *MapInteractionController) PendingCoordinate() (model.Coordinate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != GestureTreePlacementPending {
		return model.Coordinate{}, false
	}
	return c.clickedCoord, true
}

// ClickMap 地図クリックで配置候補座標を記録する。この時点では変更は発行しない
func (c *MapInteractionController) ClickMap(coord model.Coordinate) error {
	if err := geo.ValidateCoordinate(coord); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != GestureIdle {
		return ErrGestureInProgress
	}
	c.state = GestureTreePlacementPending
	c.clickedCoord = coord
	return nil
}

// ConfirmPlacement 配置を確定し、記録済みの座標で作成を発行する
// 住所は作成後に非同期で解決され、独立した住所パッチとして後追い適用される
func (c *MapInteractionController) ConfirmPlacement(ctx context.Context, form *model.TreeFormData) (*model.Tree, error) {
	c.mu.Lock()
	if c.state != GestureTreePlacementPending {
		c.mu.Unlock()
		return nil, ErrGestureStateMismatch
	}
	coord := c.clickedCoord
	c.state = GestureIdle
	c.mu.Unlock()

	tree, err := c.store.Create(ctx, form, coord)
	if err != nil {
		return nil, err
	}

	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		c.patchAddress(tree.ID, coord)
	}()
	return tree, nil
}

// CancelPlacement 配置候補を破棄する。副作用はない
func (c *MapInteractionController) CancelPlacement() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != GestureTreePlacementPending {
		return ErrGestureStateMismatch
	}
	c.state = GestureIdle
	return nil
}

// BeginMarkerDrag マーカーのドラッグを開始する。ドロップまで変更は発行しない
func (c *MapInteractionController) BeginMarkerDrag(treeID string) error {
	tree, ok := c.store.Get(treeID)
	if !ok {
		return model.ErrTreeNotFound
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != GestureIdle {
		return ErrGestureInProgress
	}
	c.state = GestureMarkerDragPending
	c.draggingID = treeID
	c.dragOrigin = tree.Location.Coordinate
	return nil
}

// CompleteMarkerDrag ドロップ位置で座標更新を発行する
// セルは解像度15で再計算され、住所は非同期解決後に last-coordinate-wins で適用される
func (c *MapInteractionController) CompleteMarkerDrag(ctx context.Context, newCoord model.Coordinate) (*model.Tree, error) {
	if err := geo.ValidateCoordinate(newCoord); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.state != GestureMarkerDragPending {
		c.mu.Unlock()
		return nil, ErrGestureStateMismatch
	}
	treeID := c.draggingID
	c.state = GestureIdle
	c.draggingID = ""
	c.mu.Unlock()

	tree, err := c.store.Update(ctx, treeID, &model.TreeUpdate{Coordinate: &newCoord})
	if err != nil {
		return nil, err
	}

	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		c.patchAddress(treeID, newCoord)
	}()
	return tree, nil
}

// CancelMarkerDrag ドラッグを中断する。副作用はない
func (c *MapInteractionController) CancelMarkerDrag() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != GestureMarkerDragPending {
		return ErrGestureStateMismatch
	}
	c.state = GestureIdle
	c.draggingID = ""
	return nil
}

// LocateMe 端末の現在地でビューポート中心を更新する
// 取得失敗・タイムアウト・機能なしのすべてで既定の地域中心に落ち、エラーにはならない
func (c *MapInteractionController) LocateMe(ctx context.Context) model.Coordinate {
	c.mu.Lock()
	if c.state != GestureIdle {
		center := c.viewport
		c.mu.Unlock()
		return center
	}
	// キャッシュ済みの位置が新しければ、そのまま使う
	if !c.lastFixAt.IsZero() && time.Since(c.lastFixAt) <= fixMaxAge {
		c.viewport = c.lastFix
		center := c.viewport
		c.mu.Unlock()
		return center
	}
	// 初回はやや長めに待ち、以降の明示的な再取得は短いタイムアウトを使う
	timeout := relocateTimeout
	if c.lastFixAt.IsZero() {
		timeout = locateTimeout
	}
	c.state = GestureLocationPending
	c.mu.Unlock()

	locateCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	coord, err := c.geolocator.CurrentPosition(locateCtx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = GestureIdle
	if err != nil || geo.ValidateCoordinate(coord) != nil {
		c.viewport = DefaultRegionCenter
		return c.viewport
	}
	c.viewport = coord
	c.lastFix = coord
	c.lastFixAt = time.Now()
	return c.viewport
}

// WaitForPendingPatches 進行中の住所パッチの完了を待つ
func (c *MapInteractionController) WaitForPendingPatches() {
	c.pending.Wait()
}

// patchAddress 住所を解決し、座標が動いていなければ住所のみの独立パッチを適用する
// 解決完了前に再移動していた場合、パッチはマージ時に破棄される
func (c *MapInteractionController) patchAddress(treeID string, coord model.Coordinate) {
	ctx, cancel := context.WithTimeout(context.Background(), addressResolveTimeout)
	defer cancel()

	address, err := c.resolver.Resolve(ctx, coord)
	if err != nil {
		address = geo.FormatCoordinate(coord)
	}

	_, _ = c.store.Update(ctx, treeID, &model.TreeUpdate{
		Address:      &address,
		IfCoordinate: &coord,
	})
}
