package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"KrishHortus-App/internal/domain/model"
)

func TestCellFor_決定的に同一のセルを返す(t *testing.T) {
	coord := model.Coordinate{Lat: 28.6139, Lng: 77.2090}

	first, err := CellFor(coord, PlacementResolution)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	for i := 0; i < 10; i++ {
		again, err := CellFor(coord, PlacementResolution)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCellFor_解像度ごとに異なるセルを返す(t *testing.T) {
	coord := model.Coordinate{Lat: 35.0116, Lng: 135.7681}

	fine, err := CellFor(coord, PlacementResolution)
	require.NoError(t, err)
	coarse, err := CellFor(coord, GroupingResolution)
	require.NoError(t, err)

	assert.NotEqual(t, fine, coarse)
}

func TestCellFor_不正な入力(t *testing.T) {
	cases := []struct {
		name  string
		coord model.Coordinate
		res   int
		want  error
	}{
		{"緯度が範囲外", model.Coordinate{Lat: 91, Lng: 0}, PlacementResolution, model.ErrInvalidCoordinate},
		{"経度が範囲外", model.Coordinate{Lat: 0, Lng: -181}, PlacementResolution, model.ErrInvalidCoordinate},
		{"NaN", model.Coordinate{Lat: math.NaN(), Lng: 0}, PlacementResolution, model.ErrInvalidCoordinate},
		{"無限大", model.Coordinate{Lat: 0, Lng: math.Inf(1)}, PlacementResolution, model.ErrInvalidCoordinate},
		{"解像度が負", model.Coordinate{Lat: 0, Lng: 0}, -1, model.ErrInvalidResolution},
		{"解像度が上限超過", model.Coordinate{Lat: 0, Lng: 0}, 16, model.ErrInvalidResolution},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := CellFor(tc.coord, tc.res)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "expected %v, got %v", tc.want, err)
		})
	}
}

func TestCenterOf_ラウンドトリップはセルの範囲内に収まる(t *testing.T) {
	cases := []struct {
		name    string
		coord   model.Coordinate
		res     int
		boundsM float64
	}{
		{"ニューデリー 解像度15", model.Coordinate{Lat: 28.6139, Lng: 77.2090}, PlacementResolution, 2.0},
		{"京都 解像度15", model.Coordinate{Lat: 35.0116, Lng: 135.7681}, PlacementResolution, 2.0},
		{"南半球 解像度15", model.Coordinate{Lat: -33.8688, Lng: 151.2093}, PlacementResolution, 2.0},
		{"ニューデリー 解像度9", model.Coordinate{Lat: 28.6139, Lng: 77.2090}, GroupingResolution, 500.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cell, err := CellFor(tc.coord, tc.res)
			require.NoError(t, err)

			center, err := CenterOf(cell)
			require.NoError(t, err)

			// セル中心は元の座標からセルの特徴サイズ以内にある
			distance := DistanceMeters(tc.coord, center)
			assert.LessOrEqual(t, distance, tc.boundsM)

			// 中心を再エンコードすると同じセルに戻る
			reencoded, err := CellFor(center, tc.res)
			require.NoError(t, err)
			assert.Equal(t, cell, reencoded)
		})
	}
}

func TestCenterOf_不正なセル識別子(t *testing.T) {
	for _, cellID := range []string{"", "not-a-cell", "zzzzzzzzzzzzzzz"} {
		_, err := CenterOf(cellID)
		require.Error(t, err, "cell %q", cellID)
		assert.True(t, errors.Is(err, model.ErrInvalidCell))
	}
}

func TestFormatCoordinate_小数6桁(t *testing.T) {
	coord := model.Coordinate{Lat: 28.6139, Lng: 77.209}
	assert.Equal(t, "28.613900, 77.209000", FormatCoordinate(coord))
}

func TestDistanceMeters_既知の距離(t *testing.T) {
	delhi := model.Coordinate{Lat: 28.6139, Lng: 77.2090}
	agra := model.Coordinate{Lat: 27.1767, Lng: 78.0081}

	distance := DistanceMeters(delhi, agra)
	// デリー〜アグラはおよそ180km
	assert.InDelta(t, 180_000, distance, 10_000)

	assert.Zero(t, DistanceMeters(delhi, delhi))
}
