package repository

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"KrishHortus-App/internal/domain/helper"
	"KrishHortus-App/internal/domain/model"
)

func TestTreeToRow_未採番のIDは挿入ペイロードに含めない(t *testing.T) {
	// 作成直前のレコードはID未採番（DB側で採番される）
	tree, err := helper.NewTreeFromForm(&model.TreeFormData{
		Name:     "Neem Tree",
		Category: model.CategoryCommunity,
		TaggedBy: "user-1",
	}, model.Coordinate{Lat: 28.6139, Lng: 77.2090}, time.Now())
	require.NoError(t, err)
	require.Empty(t, tree.ID)

	data, err := json.Marshal(treeToRow(tree))
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.NotContains(t, payload, "id")
}

func TestTreeToRow_採番済みのIDは保持される(t *testing.T) {
	tree := model.Tree{
		ID:       "tree-1",
		Name:     "Neem Tree",
		Category: model.CategoryCommunity,
		Location: model.TreeLocation{
			Coordinate: model.Coordinate{Lat: 28.6139, Lng: 77.2090},
			Cell:       "8f3da1a4a0c0001",
			Address:    "Connaught Place, New Delhi",
		},
	}

	row := treeToRow(&tree)
	assert.Equal(t, "tree-1", row.ID)

	restored := rowToTree(row)
	assert.Equal(t, tree.ID, restored.ID)
	assert.Equal(t, tree.Location, restored.Location)
	assert.Equal(t, tree.Category, restored.Category)
}
