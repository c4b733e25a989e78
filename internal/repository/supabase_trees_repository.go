package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"KrishHortus-App/internal/domain/helper"
	"KrishHortus-App/internal/domain/model"
	"KrishHortus-App/internal/domain/repository"
	"KrishHortus-App/internal/infrastructure/database"
)

// SupabaseTreesRepository Supabase (PostgREST) をリモートストアとして使う実装
type SupabaseTreesRepository struct {
	client *database.SupabaseClient
}

// NewSupabaseTreesRepository 新しいインスタンスを生成する
func NewSupabaseTreesRepository(client *database.SupabaseClient) repository.RemoteTreesStore {
	return &SupabaseTreesRepository{client: client}
}

// treeRow trees テーブルの行表現
// ID はDB側で採番されるため、未採番のまま挿入ペイロードに含めない
type treeRow struct {
	ID             string                     `json:"id,omitempty"`
	Name           string                     `json:"name"`
	ScientificName string                     `json:"scientific_name"`
	LocalName      string                     `json:"local_name,omitempty"`
	Category       string                     `json:"category"`
	Lat            float64                    `json:"lat"`
	Lng            float64                    `json:"lng"`
	H3Index        string                     `json:"h3_index"`
	Address        string                     `json:"address,omitempty"`
	Height         *float64                   `json:"height,omitempty"`
	TrunkWidth     *float64                   `json:"trunk_width,omitempty"`
	CanopySpread   *float64                   `json:"canopy_spread,omitempty"`
	Photos         map[model.PhotoSlot]string `json:"photos,omitempty"`
	Metadata       *model.TreeMetadata        `json:"metadata,omitempty"`
	TaggedBy       string                     `json:"tagged_by"`
	TaggedAt       time.Time                  `json:"tagged_at"`
	IsAIGenerated  bool                       `json:"is_ai_generated"`
	IsVerified     bool                       `json:"is_verified"`
}

// treeToRow model.Tree を DB 保存用に変換
func treeToRow(tree *model.Tree) *treeRow {
	row := &treeRow{
		ID:             tree.ID,
		Name:           tree.Name,
		ScientificName: tree.ScientificName,
		LocalName:      tree.LocalName,
		Category:       string(tree.Category),
		Lat:            tree.Location.Lat,
		Lng:            tree.Location.Lng,
		H3Index:        tree.Location.Cell,
		Address:        tree.Location.Address,
		Height:         tree.Measurements.Height,
		TrunkWidth:     tree.Measurements.TrunkWidth,
		CanopySpread:   tree.Measurements.CanopySpread,
		Photos:         tree.Photos,
		TaggedBy:       tree.TaggedBy,
		TaggedAt:       tree.TaggedAt,
		IsAIGenerated:  tree.IsAIGenerated,
		IsVerified:     tree.IsVerified,
	}
	metadata := tree.Metadata
	row.Metadata = &metadata
	return row
}

// rowToTree DB の行を model.Tree に変換
func rowToTree(row *treeRow) model.Tree {
	tree := model.Tree{
		ID:             row.ID,
		Name:           row.Name,
		ScientificName: row.ScientificName,
		LocalName:      row.LocalName,
		Category:       model.TreeCategory(row.Category),
		Location: model.TreeLocation{
			Coordinate: model.Coordinate{Lat: row.Lat, Lng: row.Lng},
			Cell:       row.H3Index,
			Address:    row.Address,
		},
		Measurements: model.TreeMeasurements{
			Height:       row.Height,
			TrunkWidth:   row.TrunkWidth,
			CanopySpread: row.CanopySpread,
		},
		Photos:        row.Photos,
		TaggedBy:      row.TaggedBy,
		TaggedAt:      row.TaggedAt,
		IsAIGenerated: row.IsAIGenerated,
		IsVerified:    row.IsVerified,
	}
	if row.Metadata != nil {
		tree.Metadata = *row.Metadata
	}
	return tree
}

func (r *SupabaseTreesRepository) List(ctx context.Context, params *model.TreeSearchParams) ([]model.Tree, error) {
	query := r.client.GetClient().From("trees").Select("*", "exact", false)
	if params != nil {
		if params.Category != nil {
			query = query.Eq("category", string(*params.Category))
		}
		if params.Verified != nil {
			query = query.Eq("is_verified", strconv.FormatBool(*params.Verified))
		}
		if params.Cell != "" {
			query = query.Eq("h3_index", params.Cell)
		}
	}

	data, count, err := query.Execute()
	if err != nil {
		return nil, &model.RemoteUnavailableError{Op: "list", Err: fmt.Errorf("樹木データの取得失敗: %w", err)}
	}
	_ = count

	var rows []treeRow
	if err := json.Unmarshal([]byte(data), &rows); err != nil {
		return nil, &model.RemoteUnavailableError{Op: "list", Err: fmt.Errorf("樹木データのJSONアンマーシャル失敗: %w", err)}
	}

	trees := make([]model.Tree, 0, len(rows))
	for i := range rows {
		trees = append(trees, rowToTree(&rows[i]))
	}

	// 種名・半径の絞り込みはPostgRESTにプッシュダウンできないため取得後に適用する
	if params != nil && (params.Species != "" || params.Center != nil || params.Size > 0) {
		remaining := *params
		remaining.Category = nil
		remaining.Verified = nil
		remaining.Cell = ""
		trees = helper.FilterTrees(trees, &remaining)
	}

	return trees, nil
}

func (r *SupabaseTreesRepository) GetByID(ctx context.Context, id string) (*model.Tree, error) {
	data, count, err := r.client.GetClient().From("trees").Select("*", "exact", false).Eq("id", id).Execute()
	if err != nil {
		return nil, &model.RemoteUnavailableError{Op: "get", Err: fmt.Errorf("樹木データの取得失敗: %w", err)}
	}
	_ = count

	var rows []treeRow
	if err := json.Unmarshal([]byte(data), &rows); err != nil {
		return nil, &model.RemoteUnavailableError{Op: "get", Err: fmt.Errorf("樹木データのJSONアンマーシャル失敗: %w", err)}
	}
	if len(rows) == 0 {
		return nil, model.ErrTreeNotFound
	}

	tree := rowToTree(&rows[0])
	return &tree, nil
}

func (r *SupabaseTreesRepository) Create(ctx context.Context, tree *model.Tree) (*model.Tree, error) {
	row := treeToRow(tree)
	data, err := json.Marshal(row)
	if err != nil {
		return nil, &model.RemoteUnavailableError{Op: "create", Err: fmt.Errorf("樹木データのJSONマーシャル失敗: %w", err)}
	}

	result, _, err := r.client.GetClient().From("trees").Insert(string(data), false, "", "representation", "").Execute()
	if err != nil {
		return nil, &model.RemoteUnavailableError{Op: "create", Err: fmt.Errorf("樹木データの作成失敗: %w", err)}
	}

	var rows []treeRow
	if err := json.Unmarshal([]byte(result), &rows); err != nil || len(rows) == 0 {
		// representation が返らない設定でも作成自体は成功している
		created := *tree
		return &created, nil
	}

	created := rowToTree(&rows[0])
	return &created, nil
}

func (r *SupabaseTreesRepository) Update(ctx context.Context, id string, upd *model.TreeUpdate) (*model.Tree, error) {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	merged, err := helper.ApplyTreeUpdate(*existing, upd)
	if err != nil {
		return nil, err
	}

	row := treeToRow(&merged)
	data, err := json.Marshal(row)
	if err != nil {
		return nil, &model.RemoteUnavailableError{Op: "update", Err: fmt.Errorf("樹木データのJSONマーシャル失敗: %w", err)}
	}

	_, _, err = r.client.GetClient().From("trees").Update(string(data), "", "").Eq("id", id).Execute()
	if err != nil {
		return nil, &model.RemoteUnavailableError{Op: "update", Err: fmt.Errorf("樹木データの更新失敗: %w", err)}
	}

	return &merged, nil
}

func (r *SupabaseTreesRepository) Delete(ctx context.Context, id string) error {
	_, _, err := r.client.GetClient().From("trees").Delete("", "").Eq("id", id).Execute()
	if err != nil {
		return &model.RemoteUnavailableError{Op: "delete", Err: fmt.Errorf("樹木データの削除失敗: %w", err)}
	}
	return nil
}

func (r *SupabaseTreesRepository) Nearby(ctx context.Context, center model.Coordinate, radiusKm float64, limit int) ([]model.Tree, error) {
	// PostGIS ST_DWithin をRPC経由で呼ぶのが理想だが、ここでは全件取得後に距離で絞り込む
	trees, err := r.List(ctx, nil)
	if err != nil {
		return nil, err
	}

	params := &model.TreeSearchParams{Center: &center, RadiusKm: radiusKm}
	nearby := helper.FilterTrees(trees, params)
	if limit > 0 && len(nearby) > limit {
		nearby = nearby[:limit]
	}
	return nearby, nil
}

func (r *SupabaseTreesRepository) Verify(ctx context.Context, id string) (*model.Tree, error) {
	verified := true
	return r.Update(ctx, id, &model.TreeUpdate{IsVerified: &verified})
}
