package maps

import (
	"context"

	"KrishHortus-App/internal/domain/model"
	"KrishHortus-App/internal/domain/repository"
)

// UnsupportedGeolocator 端末位置情報を持たない環境向けのGeolocator実装
// 常に ErrGeolocationUnavailable を返し、呼び出し側を既定の地域中心へ誘導する
type UnsupportedGeolocator struct{}

// NewUnsupportedGeolocator 新しいインスタンスを生成する
func NewUnsupportedGeolocator() repository.Geolocator {
	return &UnsupportedGeolocator{}
}

// CurrentPosition 常に位置情報取得不能を返す
func (g *UnsupportedGeolocator) CurrentPosition(ctx context.Context) (model.Coordinate, error) {
	return model.Coordinate{}, model.ErrGeolocationUnavailable
}
