package geo

import (
	"fmt"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"

	"KrishHortus-App/internal/domain/model"
)

// FormatCoordinate 住所解決に失敗したときの表示用フォールバック文字列（小数6桁）
func FormatCoordinate(c model.Coordinate) string {
	return fmt.Sprintf("%.6f, %.6f", c.Lat, c.Lng)
}

// DistanceMeters 2点間の大円距離（メートル）
func DistanceMeters(a, b model.Coordinate) float64 {
	return orbgeo.Distance(
		orb.Point{a.Lng, a.Lat},
		orb.Point{b.Lng, b.Lat},
	)
}
