// Package geo 樹木位置のH3空間インデックスと座標ユーティリティ
package geo

import (
	"fmt"
	"math"

	h3 "github.com/uber/h3-go/v4"

	"KrishHortus-App/internal/domain/model"
)

const (
	// PlacementResolution 樹木配置用の解像度（サブメートル精度、セル面積 約0.895㎡）
	PlacementResolution = 15
	// GroupingResolution 粗い検索・グルーピング用の解像度
	GroupingResolution = 9

	minResolution = 0
	maxResolution = 15
)

// CellFor 座標を指定解像度のH3セル識別子に変換する
// 純粋関数であり、同一入力に対して常に同一のセルを返す
func CellFor(c model.Coordinate, resolution int) (string, error) {
	if resolution < minResolution || resolution > maxResolution {
		return "", fmt.Errorf("%w: %d", model.ErrInvalidResolution, resolution)
	}
	if err := ValidateCoordinate(c); err != nil {
		return "", err
	}

	cell := h3.LatLngToCell(h3.NewLatLng(c.Lat, c.Lng), resolution)
	if !cell.IsValid() {
		return "", fmt.Errorf("%w: (%f, %f)", model.ErrInvalidCoordinate, c.Lat, c.Lng)
	}
	return cell.String(), nil
}

// CenterOf H3セル識別子からセル中心の座標を復元する
func CenterOf(cellID string) (model.Coordinate, error) {
	index := h3.IndexFromString(cellID)
	cell := h3.Cell(index)
	if index == 0 || !cell.IsValid() {
		return model.Coordinate{}, fmt.Errorf("%w: %q", model.ErrInvalidCell, cellID)
	}

	center := cell.LatLng()
	return model.Coordinate{Lat: center.Lat, Lng: center.Lng}, nil
}

// ValidateCoordinate 座標が有限かつ有効範囲内であることを検証する
func ValidateCoordinate(c model.Coordinate) error {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || math.IsNaN(c.Lng) || math.IsInf(c.Lng, 0) {
		return fmt.Errorf("%w: non-finite value", model.ErrInvalidCoordinate)
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %f out of range", model.ErrInvalidCoordinate, c.Lat)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("%w: longitude %f out of range", model.ErrInvalidCoordinate, c.Lng)
	}
	return nil
}
