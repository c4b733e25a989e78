package helper

import (
	"strings"

	"KrishHortus-App/internal/domain/geo"
	"KrishHortus-App/internal/domain/model"
)

// FilterTrees 検索条件をコレクションに適用する
// リモート検索が使えないときのフォールバック側・メモリ上のスナップショット側の双方で共通に使う
func FilterTrees(trees []model.Tree, params *model.TreeSearchParams) []model.Tree {
	if params == nil {
		return trees
	}

	matched := make([]model.Tree, 0, len(trees))
	for _, tree := range trees {
		if !matchesSearch(tree, params) {
			continue
		}
		matched = append(matched, tree)
	}

	// ページング（Size 未指定ならそのまま）
	if params.Size > 0 {
		start := params.Page * params.Size
		if start >= len(matched) {
			return []model.Tree{}
		}
		end := start + params.Size
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}

	return matched
}

func matchesSearch(tree model.Tree, params *model.TreeSearchParams) bool {
	if params.Category != nil && tree.Category != *params.Category {
		return false
	}
	if params.Verified != nil && tree.IsVerified != *params.Verified {
		return false
	}
	// セルは格納解像度での完全一致（祖先・子孫の包含判定は行わない）
	if params.Cell != "" && tree.Location.Cell != params.Cell {
		return false
	}
	if params.Species != "" {
		needle := strings.ToLower(params.Species)
		if !strings.Contains(strings.ToLower(tree.ScientificName), needle) &&
			!strings.Contains(strings.ToLower(tree.Name), needle) &&
			!strings.Contains(strings.ToLower(tree.LocalName), needle) {
			return false
		}
	}
	if params.Center != nil && params.RadiusKm > 0 {
		distance := geo.DistanceMeters(*params.Center, tree.Location.Coordinate)
		if distance > params.RadiusKm*1000 {
			return false
		}
	}
	return true
}
