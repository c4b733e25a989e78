package repository

import (
	"context"

	"KrishHortus-App/internal/domain/model"
)

// Geolocator 端末位置情報の取得
// タイムアウトは呼び出し側が ctx で制御する。取得不能な環境では
// ErrGeolocationUnavailable を返し、呼び出し側が既定の地域中心へフォールバックする
type Geolocator interface {
	CurrentPosition(ctx context.Context) (model.Coordinate, error)
}
