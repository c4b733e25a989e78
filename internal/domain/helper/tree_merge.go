package helper

import (
	"fmt"
	"time"

	"KrishHortus-App/internal/domain/geo"
	"KrishHortus-App/internal/domain/model"
)

// NewTreeFromForm フォーム入力と座標から完全な樹木レコードを組み立てる
// セルは解像度15で座標から導出し、住所は空のまま（非同期解決で後追い更新される）
func NewTreeFromForm(form *model.TreeFormData, coord model.Coordinate, now time.Time) (*model.Tree, error) {
	if form == nil {
		return nil, fmt.Errorf("form data is required")
	}
	if !form.Category.IsValid() {
		return nil, fmt.Errorf("invalid tree category: %q", form.Category)
	}

	cell, err := geo.CellFor(coord, geo.PlacementResolution)
	if err != nil {
		return nil, err
	}

	photos := make(map[model.PhotoSlot]string, len(form.Photos))
	for slot, ref := range form.Photos {
		photos[slot] = ref
	}

	metadata := model.TreeMetadata{}
	if form.Metadata != nil {
		metadata = *form.Metadata
	}

	return &model.Tree{
		Name:           form.Name,
		ScientificName: form.ScientificName,
		LocalName:      form.LocalName,
		Category:       form.Category,
		Location: model.TreeLocation{
			Coordinate: coord,
			Cell:       cell,
		},
		Measurements: model.TreeMeasurements{
			Height:       form.Height,
			TrunkWidth:   form.TrunkWidth,
			CanopySpread: form.CanopySpread,
		},
		Photos:        photos,
		Metadata:      metadata,
		TaggedBy:      form.TaggedBy,
		TaggedAt:      now,
		IsAIGenerated: form.IsAIGenerated,
		IsVerified:    false,
	}, nil
}

// ApplyTreeUpdate 部分更新をフィールド列挙で適用し、新しいレコードを返す
// 座標が変わる場合はセルを解像度15で再計算する。IfCoordinate 付きの住所パッチは、
// 現在の座標が一致しないとき破棄される（last-coordinate-wins）
func ApplyTreeUpdate(tree model.Tree, upd *model.TreeUpdate) (model.Tree, error) {
	if upd == nil {
		return tree, nil
	}

	merged := tree

	if upd.Name != nil {
		merged.Name = *upd.Name
	}
	if upd.ScientificName != nil {
		merged.ScientificName = *upd.ScientificName
	}
	if upd.LocalName != nil {
		merged.LocalName = *upd.LocalName
	}
	if upd.Category != nil {
		if !upd.Category.IsValid() {
			return tree, fmt.Errorf("invalid tree category: %q", *upd.Category)
		}
		merged.Category = *upd.Category
	}

	// 住所パッチの鮮度判定は移動前の座標に対して行う
	if upd.Address != nil {
		if upd.IfCoordinate == nil || tree.Location.Coordinate.Equal(*upd.IfCoordinate) {
			merged.Location.Address = *upd.Address
		}
	}

	if upd.Coordinate != nil {
		cell, err := geo.CellFor(*upd.Coordinate, geo.PlacementResolution)
		if err != nil {
			return tree, err
		}
		merged.Location.Coordinate = *upd.Coordinate
		merged.Location.Cell = cell
	}

	if upd.Measurements != nil {
		if upd.Measurements.Height != nil {
			merged.Measurements.Height = upd.Measurements.Height
		}
		if upd.Measurements.TrunkWidth != nil {
			merged.Measurements.TrunkWidth = upd.Measurements.TrunkWidth
		}
		if upd.Measurements.CanopySpread != nil {
			merged.Measurements.CanopySpread = upd.Measurements.CanopySpread
		}
	}

	if upd.Photos != nil {
		photos := make(map[model.PhotoSlot]string, len(tree.Photos)+len(upd.Photos))
		for slot, ref := range tree.Photos {
			photos[slot] = ref
		}
		for slot, ref := range upd.Photos {
			photos[slot] = ref
		}
		merged.Photos = photos
	}

	if upd.Metadata != nil {
		merged.Metadata = *upd.Metadata
	}
	if upd.IsVerified != nil {
		merged.IsVerified = *upd.IsVerified
	}

	// ID と TaggedAt は作成時のまま維持する
	merged.ID = tree.ID
	merged.TaggedAt = tree.TaggedAt

	return merged, nil
}
